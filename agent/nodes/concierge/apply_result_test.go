package conciergenode

import (
	"context"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/steps"
	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/tool"
)

func TestApplyResultSuccessAdvancesAndFoldsIdentifiers(t *testing.T) {
	t.Parallel()

	catalog := steps.NewCatalog()
	in := newTurnState(t, "yes")
	in.Executed = true
	in.Result = contractx.Success("Application started.", map[string]any{
		steps.DataKeyLoanID:       "loan-9",
		steps.DataKeySessionToken: "tok-9",
	})

	out, err := ApplyResult(context.Background(), in, catalog, tool.NewGateway(nil))
	if err != nil {
		t.Fatalf("ApplyResult() error = %v", err)
	}

	if out.App.CurrentStep != statex.StepHomeDetails {
		t.Fatalf("CurrentStep = %q, want advance to home_details", out.App.CurrentStep)
	}
	if out.App.LoanID != "loan-9" || out.App.SessionToken != "tok-9" {
		t.Fatalf("identifiers = (%q, %q), want folded from result data", out.App.LoanID, out.App.SessionToken)
	}
	if out.App.LastError != nil || out.App.Retries != 0 {
		t.Fatalf("error bookkeeping = (%v, %d), want cleared", out.App.LastError, out.App.Retries)
	}
	if out.Terminal {
		t.Fatal("Terminal = true, want more steps ahead")
	}
}

func TestApplyResultTerminalStepFinishesApplication(t *testing.T) {
	t.Parallel()

	catalog := steps.NewCatalog()
	in := newTurnState(t, "go ahead")
	in.App.CurrentStep = statex.StepCreateAccount
	in.App.LoanID = "loan-9"
	in.Executed = true
	in.Result = contractx.Success("", map[string]any{
		steps.DataKeyAccountID: "acct-1",
	})

	out, err := ApplyResult(context.Background(), in, catalog, tool.NewGateway(nil))
	if err != nil {
		t.Fatalf("ApplyResult() error = %v", err)
	}

	if !out.Terminal {
		t.Fatal("Terminal = false, want true after the last step")
	}
	if !out.App.Terminal() {
		t.Fatalf("Status = %q, want terminal", out.App.Status)
	}
	if out.App.RocketAccountID != "acct-1" {
		t.Fatalf("RocketAccountID = %q, want acct-1", out.App.RocketAccountID)
	}
}

func TestApplyResultHomePriceAnswersAffordability(t *testing.T) {
	t.Parallel()

	catalog := steps.NewCatalog()
	in := newTurnState(t, "about 340k with 68k down")
	in.App.CurrentStep = statex.StepHomePrice
	in.App.LoanID = "loan-9"
	in.App.CollectedFields["homePrice"] = "340000"
	in.App.CollectedFields["downPayment"] = "68000"
	in.Executed = true
	in.Result = contractx.Success("Price recorded.", nil)

	out, err := ApplyResult(context.Background(), in, catalog, tool.NewGateway(nil))
	if err != nil {
		t.Fatalf("ApplyResult() error = %v", err)
	}

	if !strings.Contains(out.Message, "estimated monthly payment") {
		t.Fatalf("Message = %q, want a payment estimate after the price step", out.Message)
	}
	next, _ := catalog.Get(statex.StepLivingSituation)
	if !strings.Contains(out.Message, next.Prompt) {
		t.Fatalf("Message = %q, want the next step still asked", out.Message)
	}
}

func TestApplyResultEstimateUnavailableStillAdvances(t *testing.T) {
	t.Parallel()

	catalog := steps.NewCatalog()
	in := newTurnState(t, "not sure on price yet")
	in.App.CurrentStep = statex.StepHomePrice
	in.App.LoanID = "loan-9"
	in.Executed = true
	in.Result = contractx.Success("Price recorded.", nil)

	out, err := ApplyResult(context.Background(), in, catalog, tool.NewGateway(nil))
	if err != nil {
		t.Fatalf("ApplyResult() error = %v", err)
	}

	if out.App.CurrentStep != statex.StepLivingSituation {
		t.Fatalf("CurrentStep = %q, want advance despite no estimate", out.App.CurrentStep)
	}
	if strings.Contains(out.Message, "estimated monthly payment") {
		t.Fatalf("Message = %q, want no estimate without numbers", out.Message)
	}
}

func TestApplyResultFailureStaysOnStep(t *testing.T) {
	t.Parallel()

	catalog := steps.NewCatalog()
	in := newTurnState(t, "90k")
	in.App.CurrentStep = statex.StepIncome
	in.App.LoanID = "loan-9"
	in.Executed = true
	in.Result = contractx.Failure("income format not recognized")

	out, err := ApplyResult(context.Background(), in, catalog, tool.NewGateway(nil))
	if err != nil {
		t.Fatalf("ApplyResult() error = %v", err)
	}

	if out.App.CurrentStep != statex.StepIncome {
		t.Fatalf("CurrentStep = %q, failure must not advance", out.App.CurrentStep)
	}
	if out.App.LastError == nil || out.App.LastError.Step != statex.StepIncome {
		t.Fatalf("LastError = %#v, want income failure recorded", out.App.LastError)
	}
	if out.App.Retries != 1 {
		t.Fatalf("Retries = %d, want 1", out.App.Retries)
	}
	if out.App.LoanID != "loan-9" {
		t.Fatalf("LoanID = %q, failure must not touch identifiers", out.App.LoanID)
	}
	if !strings.Contains(out.Message, "income") {
		t.Fatalf("Message = %q, want the step re-asked", out.Message)
	}
}

func TestApplyResultRetryShowsCorrectiveMessage(t *testing.T) {
	t.Parallel()

	catalog := steps.NewCatalog()
	in := newTurnState(t, "I rent at 100 Main St")
	in.App.CurrentStep = statex.StepLivingSituation
	in.App.LoanID = "loan-9"
	in.Executed = true
	in.Result = contractx.Failure("invalid zip code")

	out, err := ApplyResult(context.Background(), in, catalog, tool.NewGateway(nil))
	if err != nil {
		t.Fatalf("ApplyResult() error = %v", err)
	}

	if !strings.Contains(out.Message, "invalid zip code") {
		t.Fatalf("Message = %q, want the backend's corrective text shown", out.Message)
	}
	def, _ := catalog.Get(statex.StepLivingSituation)
	if !strings.Contains(out.Message, def.Prompt) {
		t.Fatalf("Message = %q, want the step re-asked", out.Message)
	}
}

func TestApplyResultRetryBoundAbandonsWorkflow(t *testing.T) {
	t.Parallel()

	catalog := steps.NewCatalog()
	in := newTurnState(t, "90k")
	in.App.CurrentStep = statex.StepIncome
	in.App.Retries = maxStepRetries - 1
	in.App.Merge(statex.Update{Dialog: statex.AssistantApproveMortgage}, in.Now)
	in.Executed = true
	in.Result = contractx.Failure("backend unavailable")

	out, err := ApplyResult(context.Background(), in, catalog, tool.NewGateway(nil))
	if err != nil {
		t.Fatalf("ApplyResult() error = %v", err)
	}

	if out.App.ActiveAssistant() != statex.AssistantPrimary {
		t.Fatalf("ActiveAssistant() = %q, want pop after abandoning", out.App.ActiveAssistant())
	}
	if out.App.Retries != 0 {
		t.Fatalf("Retries = %d, want reset after abandoning", out.App.Retries)
	}
	if out.Message != msgStepAbandoned {
		t.Fatalf("Message = %q, want handoff text", out.Message)
	}
	if out.App.Terminal() {
		t.Fatal("abandoning a step must keep the thread alive")
	}
}

func TestApplyResultNoopWithoutExecution(t *testing.T) {
	t.Parallel()

	catalog := steps.NewCatalog()
	in := newTurnState(t, "hello")
	in.Message = "pending question"

	out, err := ApplyResult(context.Background(), in, catalog, tool.NewGateway(nil))
	if err != nil {
		t.Fatalf("ApplyResult() error = %v", err)
	}
	if out.Message != "pending question" {
		t.Fatalf("Message = %q, want untouched", out.Message)
	}
	if out.App.CurrentStep != statex.StepStartApplication {
		t.Fatalf("CurrentStep = %q, want untouched", out.App.CurrentStep)
	}
}
