package classifier

import (
	"context"
	"strings"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
)

// RuleClassifier is the deterministic fallback used when no model is
// configured. It understands cancellation phrases, yes/no confirmations,
// and key=value answers; everything else is unusable and re-prompts.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

var cancelPhrases = []string{
	"cancel",
	"never mind",
	"nevermind",
	"forget it",
	"stop",
	"quit",
	"not interested",
	"no thanks",
	"no thank you",
}

var confirmWords = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true, "sure": true,
	"ok": true, "okay": true, "ready": true, "go": true, "go ahead": true,
}

var declineWords = map[string]bool{
	"no": true, "n": true, "nope": true, "nah": true,
}

func (RuleClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.Intent, error) {
	text := strings.ToLower(strings.TrimSpace(req.UserMessage))
	if text == "" {
		return contractx.Intent{Kind: contractx.IntentNone}, nil
	}

	// Cancellation beats everything else, even a message that also carries
	// an answer.
	for _, phrase := range cancelPhrases {
		if strings.Contains(text, phrase) {
			return contractx.Intent{Kind: contractx.IntentCancel, Reason: "cancellation phrase"}, nil
		}
	}

	if strings.Contains(text, "help me fill") || strings.Contains(text, "contact details") {
		return contractx.Intent{
			Kind:   contractx.IntentDelegate,
			Target: statex.AssistantInfoGather,
		}, nil
	}

	if fields := parseFieldPairs(req.UserMessage, req.RequiredFields); len(fields) > 0 {
		return contractx.Intent{
			Kind:   contractx.IntentStep,
			Step:   req.CurrentStep,
			Fields: fields,
		}, nil
	}

	// Steps without required fields are confirmations; a bare yes proceeds.
	if len(req.RequiredFields) == 0 || allFieldsOptional(req) {
		if confirmWords[text] {
			return contractx.Intent{Kind: contractx.IntentStep, Step: req.CurrentStep}, nil
		}
		if declineWords[text] {
			return contractx.Intent{Kind: contractx.IntentCancel, Reason: "declined"}, nil
		}
	}

	return contractx.Intent{Kind: contractx.IntentNone, Reason: "no usable answer"}, nil
}

// allFieldsOptional reports whether a confirmation suffices because the
// step's fields were gathered earlier in the conversation.
func allFieldsOptional(req contractx.ClassifyRequest) bool {
	// Only the account step confirms with previously collected fields.
	return req.CurrentStep == statex.StepCreateAccount
}

// parseFieldPairs extracts key=value pairs whose keys the step asked for.
// Keys are matched case-insensitively against the required field names.
func parseFieldPairs(text string, required []string) map[string]any {
	if len(required) == 0 {
		return nil
	}

	byLower := make(map[string]string, len(required))
	for _, name := range required {
		byLower[strings.ToLower(name)] = name
	}

	fields := make(map[string]any)
	for _, part := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ';' || r == '\n' }) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		value := strings.TrimSpace(kv[1])
		if value == "" {
			continue
		}
		if canonical, ok := byLower[key]; ok {
			fields[canonical] = value
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

var _ contractx.Classifier = (*RuleClassifier)(nil)
