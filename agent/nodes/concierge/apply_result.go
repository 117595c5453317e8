package conciergenode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/steps"
	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/tool"
)

const (
	msgApplicationFinished = "That's everything! Your application is submitted and your Rocket account is ready. A Home Loan Expert will be in touch shortly."
	msgStepRetry           = "Sorry, that didn't go through."
	msgStepAbandoned       = "I'm having trouble completing this part of your application. I've saved your progress and a Home Loan Expert will follow up with you."
)

// ApplyResult folds the step result into the application state exactly once.
// Success advances the flow; failure stays on the step until the retry bound
// abandons the delegated workflow.
func ApplyResult(ctx context.Context, in *GraphState, catalog *steps.Catalog, tools contractx.ToolGateway) (*GraphState, error) {
	if in == nil || in.App == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}
	if !in.Executed {
		return in, nil
	}

	def, ok := catalog.Get(in.App.CurrentStep)
	if !ok {
		return nil, fmt.Errorf("%w: step %q not in catalog", contractx.ErrValidation, in.App.CurrentStep)
	}

	if in.Result.Ok() {
		return applySuccess(ctx, in, def, catalog, tools)
	}
	return applyFailure(in, def)
}

func applySuccess(ctx context.Context, in *GraphState, def steps.Definition, catalog *steps.Catalog, tools contractx.ToolGateway) (*GraphState, error) {
	u := statex.Update{
		CurrentStep:  def.NextOnSuccess,
		ClearError:   true,
		ResetRetries: true,
	}
	if in.Result.Data != nil {
		if v, ok := in.Result.Data[steps.DataKeyLoanID].(string); ok {
			u.LoanID = v
		}
		if v, ok := in.Result.Data[steps.DataKeySessionToken].(string); ok {
			u.SessionToken = v
		}
		if v, ok := in.Result.Data[steps.DataKeyAccountID].(string); ok {
			u.RocketAccountID = v
		}
	}

	if def.Terminal || def.NextOnSuccess == statex.StepTerminal {
		u.Status = statex.StatusTerminal
		in.App.Merge(u, in.Now)
		in.Message = msgApplicationFinished
		in.Terminal = true
		return in, nil
	}

	in.App.Merge(u, in.Now)

	next, ok := catalog.Get(def.NextOnSuccess)
	if !ok {
		return nil, fmt.Errorf("%w: step %q not in catalog", contractx.ErrValidation, def.NextOnSuccess)
	}

	reply := ackLine(in.Result.Message)
	if def.ID == statex.StepHomePrice {
		if line := paymentEstimateLine(ctx, tools, in.App); line != "" {
			reply += line + " "
		}
	}
	in.Message = reply + next.Prompt
	return in, nil
}

// paymentEstimateLine answers the affordability question right after the
// price step. The estimate is conversational color, so any tool problem
// just drops the line.
func paymentEstimateLine(ctx context.Context, tools contractx.ToolGateway, app *statex.ApplicationState) string {
	if tools == nil {
		return ""
	}

	args := make(map[string]any, 2)
	for _, key := range []string{"homePrice", "downPayment"} {
		if v, ok := app.CollectedFields[key]; ok {
			args[key] = v
		}
	}

	results, err := tools.Execute(ctx, app.ActiveAssistant(), []contractx.ToolRequest{
		{Tool: tool.ToolMortgagePayment, Args: args},
	})
	if err != nil || len(results) == 0 {
		return ""
	}
	if results[0].Error != "" {
		log.Warn().
			Str("thread_id", app.ThreadID).
			Str("tool", results[0].Tool).
			Str("error", results[0].Error).
			Msg("payment estimate unavailable")
		return ""
	}

	est, ok := results[0].Result.(tool.PaymentEstimate)
	if !ok {
		return ""
	}
	return fmt.Sprintf("At that price your estimated monthly payment would be about $%.2f over %d years.",
		est.MonthlyPayment, est.TermYears)
}

func applyFailure(in *GraphState, def steps.Definition) (*GraphState, error) {
	in.App.Merge(statex.Update{
		Error: &statex.ErrorInfo{
			Step:    def.ID,
			Message: in.Result.Message,
			At:      in.Now,
		},
		AddRetry: true,
	}, in.Now)

	if in.App.Retries < maxStepRetries {
		in.Message = retryLine(in.Result.Message, def)
		return in, nil
	}

	// Retry bound exceeded: abandon the delegated workflow so the
	// conversation cannot loop on a dead step.
	log.Warn().
		Str("thread_id", in.App.ThreadID).
		Str("step", string(def.ID)).
		Int("retries", in.App.Retries).
		Msg("retry bound exceeded, abandoning step")

	u := statex.Update{ResetRetries: true}
	if in.App.ActiveAssistant() != statex.AssistantPrimary {
		u.Dialog = statex.DialogPop
	}
	if def.NextOnFailure != "" {
		u.CurrentStep = def.NextOnFailure
	}
	in.App.Merge(u, in.Now)

	in.Message = msgStepAbandoned
	return in, nil
}

// retryLine repeats the backend's corrective message so the user knows what
// to fix before the step prompt is re-asked.
func retryLine(corrective string, def steps.Definition) string {
	if corrective == "" {
		return msgStepRetry + " " + def.Prompt
	}
	return fmt.Sprintf("%s %s. %s", msgStepRetry, corrective, def.Prompt)
}

func ackLine(msg string) string {
	if msg == "" {
		return "Got it. "
	}
	return msg + " "
}
