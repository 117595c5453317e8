package tool

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
	contactsx "github.com/tanpawarit/Rocket-Approval-Concierge/pkg/contacts"
)

const (
	ToolContactsSearch  = "contacts.search"
	ToolMortgagePayment = "mortgage.payment"
)

// ContactSearcher is the slice of the contacts client the gateway needs.
type ContactSearcher interface {
	Search(ctx context.Context, query string) (*contactsx.Contact, error)
}

// Gateway executes tool requests on behalf of assistants. Each assistant has
// a fixed allow-list; a request outside it returns a tool-level error, not a
// Go error, so one bad request cannot break a batch.
type Gateway struct {
	contacts ContactSearcher
}

func NewGateway(contacts ContactSearcher) *Gateway {
	return &Gateway{contacts: contacts}
}

var allowedTools = map[statex.AssistantID]map[string]bool{
	statex.AssistantInfoGather: {
		ToolContactsSearch: true,
	},
	statex.AssistantApproveMortgage: {
		ToolMortgagePayment: true,
	},
	statex.AssistantPrimary: {
		ToolMortgagePayment: true,
	},
}

func (g *Gateway) Execute(ctx context.Context, assistant statex.AssistantID, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	results := make([]contractx.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		results = append(results, g.execute(ctx, assistant, req))
	}
	return results, nil
}

func (g *Gateway) execute(ctx context.Context, assistant statex.AssistantID, req contractx.ToolRequest) contractx.ToolResult {
	if !allowedTools[assistant][req.Tool] {
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: fmt.Sprintf("tool=%s is unavailable for assistant=%s", req.Tool, assistant),
		}
	}

	switch req.Tool {
	case ToolContactsSearch:
		return g.executeContactSearch(ctx, req)
	case ToolMortgagePayment:
		return executePaymentTool(req.Tool, req.Args)
	default:
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: fmt.Sprintf("unknown tool=%s", req.Tool),
		}
	}
}

func (g *Gateway) executeContactSearch(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	if g.contacts == nil {
		return contractx.ToolResult{Tool: req.Tool, Error: "contact directory is not configured"}
	}

	query, ok := req.Args["query"].(string)
	if !ok || query == "" {
		return contractx.ToolResult{Tool: req.Tool, Error: "query is required"}
	}

	contact, err := g.contacts.Search(ctx, query)
	if err != nil {
		return contractx.ToolResult{Tool: req.Tool, Error: err.Error()}
	}
	if contact == nil {
		return contractx.ToolResult{Tool: req.Tool, Error: "no matching contact"}
	}

	return contractx.ToolResult{
		Tool: req.Tool,
		Result: map[string]any{
			"firstName":   contact.FirstName,
			"lastName":    contact.LastName,
			"email":       contact.Email,
			"phoneNumber": contact.PhoneNumber,
		},
	}
}

var _ contractx.ToolGateway = (*Gateway)(nil)
