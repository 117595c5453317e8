package tool

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
	contactsx "github.com/tanpawarit/Rocket-Approval-Concierge/pkg/contacts"
)

type fakeContacts struct {
	contact *contactsx.Contact
	err     error
	queries []string
}

func (f *fakeContacts) Search(ctx context.Context, query string) (*contactsx.Contact, error) {
	f.queries = append(f.queries, query)
	return f.contact, f.err
}

func TestGatewayContactSearch(t *testing.T) {
	t.Parallel()

	contacts := &fakeContacts{contact: &contactsx.Contact{
		FirstName:   "Pat",
		LastName:    "Jones",
		Email:       "pat@example.com",
		PhoneNumber: "3135550123",
	}}
	g := NewGateway(contacts)

	results, err := g.Execute(context.Background(), statex.AssistantInfoGather, []contractx.ToolRequest{
		{Tool: ToolContactsSearch, Args: map[string]any{"query": "Pat Jones"}},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Error != "" {
		t.Fatalf("tool error = %q, want none", results[0].Error)
	}

	contact, ok := results[0].Result.(map[string]any)
	if !ok {
		t.Fatalf("Result type = %T, want map", results[0].Result)
	}
	if contact["email"] != "pat@example.com" {
		t.Fatalf("email = %v, want pat@example.com", contact["email"])
	}
	if len(contacts.queries) != 1 || contacts.queries[0] != "Pat Jones" {
		t.Fatalf("queries = %#v", contacts.queries)
	}
}

func TestGatewayAllowListPerAssistant(t *testing.T) {
	t.Parallel()

	g := NewGateway(&fakeContacts{})

	results, err := g.Execute(context.Background(), statex.AssistantPrimary, []contractx.ToolRequest{
		{Tool: ToolContactsSearch, Args: map[string]any{"query": "Pat"}},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if results[0].Error == "" {
		t.Fatal("expected an unavailable-tool error for the primary assistant")
	}
}

func TestGatewaySearchErrorIsToolLevel(t *testing.T) {
	t.Parallel()

	g := NewGateway(&fakeContacts{err: errors.New("directory down")})

	results, err := g.Execute(context.Background(), statex.AssistantInfoGather, []contractx.ToolRequest{
		{Tool: ToolContactsSearch, Args: map[string]any{"query": "Pat"}},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v, want tool-level error only", err)
	}
	if results[0].Error != "directory down" {
		t.Fatalf("tool error = %q, want directory down", results[0].Error)
	}
}

func TestPaymentTool(t *testing.T) {
	t.Parallel()

	g := NewGateway(nil)

	results, err := g.Execute(context.Background(), statex.AssistantPrimary, []contractx.ToolRequest{
		{Tool: ToolMortgagePayment, Args: map[string]any{
			"homePrice":   425000.0,
			"downPayment": 85000.0,
			"annualRate":  6.0,
			"termYears":   30.0,
		}},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if results[0].Error != "" {
		t.Fatalf("tool error = %q, want none", results[0].Error)
	}

	est, ok := results[0].Result.(PaymentEstimate)
	if !ok {
		t.Fatalf("Result type = %T, want PaymentEstimate", results[0].Result)
	}
	if est.LoanAmount != 340000 {
		t.Fatalf("LoanAmount = %v, want 340000", est.LoanAmount)
	}
	// 340k at 6% over 30 years is about $2038.51/month.
	if est.MonthlyPayment < 2038 || est.MonthlyPayment > 2039 {
		t.Fatalf("MonthlyPayment = %v, want about 2038.51", est.MonthlyPayment)
	}
}

func TestPaymentToolValidation(t *testing.T) {
	t.Parallel()

	g := NewGateway(nil)

	results, err := g.Execute(context.Background(), statex.AssistantPrimary, []contractx.ToolRequest{
		{Tool: ToolMortgagePayment, Args: map[string]any{"homePrice": 100000.0, "downPayment": 100000.0}},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if results[0].Error == "" {
		t.Fatal("expected validation error for downPayment == homePrice")
	}
}
