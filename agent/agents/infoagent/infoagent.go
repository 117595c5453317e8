package infoagent

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
)

// Gatherer walks a borrower through their contact details one question at a
// time. It is deterministic: the next question is always the first field not
// yet known, and the sub-conversation is done when nothing is missing.
//
// When a tool gateway is configured, a known name triggers a contact lookup
// so returning borrowers do not retype details the system already has.
type Gatherer struct {
	tools contractx.ToolGateway
}

type question struct {
	field  string
	prompt string
}

var questions = []question{
	{field: "firstName", prompt: "What's your first name?"},
	{field: "lastName", prompt: "And your last name?"},
	{field: "email", prompt: "What email should we use for your application?"},
	{field: "phoneNumber", prompt: "What's the best phone number to reach you?"},
}

func New(tools contractx.ToolGateway) *Gatherer {
	return &Gatherer{tools: tools}
}

func (g *Gatherer) Gather(ctx context.Context, req contractx.InfoRequest) (contractx.InfoResponse, error) {
	gathered := extractAnswer(req.UserMessage, firstMissing(req.Known))

	known := make(map[string]any, len(req.Known)+len(gathered))
	for k, v := range req.Known {
		known[k] = v
	}
	for k, v := range gathered {
		known[k] = v
	}

	g.lookupContact(ctx, known, gathered)

	if next := firstMissing(known); next != nil {
		return contractx.InfoResponse{
			Message: next.prompt,
			Fields:  gathered,
		}, nil
	}

	return contractx.InfoResponse{
		Message: "That's everything I needed, thanks.",
		Fields:  gathered,
		Done:    true,
	}, nil
}

// lookupContact prefills email and phone from the contact directory once
// both names are known. Lookup failures are logged and ignored; the user is
// simply asked instead.
func (g *Gatherer) lookupContact(ctx context.Context, known, gathered map[string]any) {
	if g.tools == nil {
		return
	}
	first, _ := known["firstName"].(string)
	last, _ := known["lastName"].(string)
	if first == "" || last == "" {
		return
	}
	if known["email"] != nil && known["phoneNumber"] != nil {
		return
	}

	results, err := g.tools.Execute(ctx, statex.AssistantInfoGather, []contractx.ToolRequest{
		{
			Tool: "contacts.search",
			Args: map[string]any{"query": strings.TrimSpace(first + " " + last)},
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("contact lookup failed")
		return
	}

	for _, res := range results {
		if res.Error != "" || res.Tool != "contacts.search" {
			continue
		}
		contact, ok := res.Result.(map[string]any)
		if !ok {
			continue
		}
		for _, field := range []string{"email", "phoneNumber"} {
			if known[field] != nil {
				continue
			}
			if v, ok := contact[field].(string); ok && v != "" {
				known[field] = v
				gathered[field] = v
			}
		}
	}
}

func firstMissing(known map[string]any) *question {
	for i := range questions {
		v, ok := known[questions[i].field]
		if !ok || v == nil || v == "" {
			return &questions[i]
		}
	}
	return nil
}

// extractAnswer maps free text onto fields. Email and phone are recognized
// by shape anywhere in the message; anything else answers the question that
// was just asked.
func extractAnswer(text string, pending *question) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]any{}
	}

	gathered := make(map[string]any, 2)
	var leftover []string
	for _, token := range strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == ',' || r == ';' }) {
		switch {
		case strings.Contains(token, "@"):
			gathered["email"] = token
		case isPhoneLike(token):
			gathered["phoneNumber"] = digitsOf(token)
		default:
			leftover = append(leftover, token)
		}
	}

	if pending != nil && len(leftover) > 0 {
		if _, taken := gathered[pending.field]; !taken {
			gathered[pending.field] = strings.Join(leftover, " ")
		}
	}
	return gathered
}

func isPhoneLike(token string) bool {
	digits := digitsOf(token)
	return len(digits) >= 7 && len(digits) <= 15 && len(digits) >= len(token)/2
}

func digitsOf(token string) string {
	var b strings.Builder
	for _, r := range token {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var _ contractx.InfoGatherer = (*Gatherer)(nil)
