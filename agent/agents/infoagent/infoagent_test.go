package infoagent

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
)

type fakeTools struct {
	results []contractx.ToolResult
	err     error
	calls   int
}

func (f *fakeTools) Execute(ctx context.Context, assistant statex.AssistantID, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestGatherAsksQuestionsInOrder(t *testing.T) {
	t.Parallel()

	g := New(nil)

	resp, err := g.Gather(context.Background(), contractx.InfoRequest{})
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if resp.Done {
		t.Fatal("Done = true on entry, want first question")
	}
	if resp.Message != "What's your first name?" {
		t.Fatalf("Message = %q, want first question", resp.Message)
	}

	resp, err = g.Gather(context.Background(), contractx.InfoRequest{
		UserMessage: "Pat",
		Known:       map[string]any{},
	})
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if resp.Fields["firstName"] != "Pat" {
		t.Fatalf("Fields = %#v, want firstName captured", resp.Fields)
	}
	if resp.Message != "And your last name?" {
		t.Fatalf("Message = %q, want second question", resp.Message)
	}
}

func TestGatherRecognizesEmailAndPhoneAnywhere(t *testing.T) {
	t.Parallel()

	g := New(nil)

	resp, err := g.Gather(context.Background(), contractx.InfoRequest{
		UserMessage: "pat@example.com and 313-555-0123",
		Known: map[string]any{
			"firstName": "Pat",
			"lastName":  "Jones",
		},
	})
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	if !resp.Done {
		t.Fatalf("Done = false, want done: %#v", resp)
	}
	if resp.Fields["email"] != "pat@example.com" {
		t.Fatalf("email = %v, want pat@example.com", resp.Fields["email"])
	}
	if resp.Fields["phoneNumber"] != "3135550123" {
		t.Fatalf("phoneNumber = %v, want digits only", resp.Fields["phoneNumber"])
	}
}

func TestGatherPrefillsFromContactLookup(t *testing.T) {
	t.Parallel()

	tools := &fakeTools{results: []contractx.ToolResult{
		{
			Tool: "contacts.search",
			Result: map[string]any{
				"email":       "pat@example.com",
				"phoneNumber": "3135550123",
			},
		},
	}}
	g := New(tools)

	resp, err := g.Gather(context.Background(), contractx.InfoRequest{
		UserMessage: "Jones",
		Known:       map[string]any{"firstName": "Pat"},
	})
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	if tools.calls != 1 {
		t.Fatalf("tool calls = %d, want 1", tools.calls)
	}
	if !resp.Done {
		t.Fatalf("Done = false, want done after prefill: %#v", resp)
	}
	if resp.Fields["email"] != "pat@example.com" {
		t.Fatalf("email = %v, want prefilled", resp.Fields["email"])
	}
}

func TestGatherLookupFailureFallsBackToAsking(t *testing.T) {
	t.Parallel()

	g := New(&fakeTools{err: errors.New("directory down")})

	resp, err := g.Gather(context.Background(), contractx.InfoRequest{
		UserMessage: "Jones",
		Known:       map[string]any{"firstName": "Pat"},
	})
	if err != nil {
		t.Fatalf("Gather() error = %v, lookup failures must not surface", err)
	}
	if resp.Done {
		t.Fatal("Done = true, want the email question instead")
	}
	if resp.Message != "What email should we use for your application?" {
		t.Fatalf("Message = %q, want email question", resp.Message)
	}
}
