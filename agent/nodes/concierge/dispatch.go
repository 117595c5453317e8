package conciergenode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/steps"
)

const (
	msgApplicationDone   = "Your application is already complete. A Home Loan Expert will reach out with next steps."
	msgDeclinedAtStart   = "No problem at all. If you change your mind about buying a home, I'm here whenever you're ready."
	msgProgressSaved     = "Your progress is saved. Pick up right where you left off whenever you're ready."
	msgSubFlowAbandoned  = "No problem, we can set that aside."
	msgEnterApplication  = "Great, let's work on your application."
	msgResumeApplication = "Back to your application."
)

// Dispatch routes the classified intent. Cancellation takes absolute
// precedence; a finished application answers every message the same way.
func Dispatch(
	ctx context.Context,
	in *GraphState,
	models contractx.Registry,
	executor *steps.Executor,
	catalog *steps.Catalog,
) (*GraphState, error) {
	if in == nil || in.App == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	if in.App.Terminal() {
		in.Message = msgApplicationDone
		in.Terminal = true
		return in, nil
	}

	def, ok := catalog.Get(in.App.CurrentStep)
	if !ok {
		return nil, fmt.Errorf("%w: step %q not in catalog", contractx.ErrValidation, in.App.CurrentStep)
	}

	switch {
	case in.Intent.Kind == contractx.IntentCancel:
		return dispatchCancel(in, def)

	case in.App.ActiveAssistant() == statex.AssistantInfoGather:
		return dispatchInfoGather(ctx, in, models.InfoGatherer(), def)

	case in.Intent.Kind == contractx.IntentDelegate:
		return dispatchDelegate(ctx, in, models.InfoGatherer(), def)

	case in.Intent.Kind == contractx.IntentStep:
		return dispatchStep(ctx, in, executor, def)

	default:
		// Small talk or an unusable reply: ask the pending question again.
		in.Message = def.Prompt
		return in, nil
	}
}

// dispatchCancel unwinds one level of delegation, or ends the conversation
// when there is nothing to unwind and no application has been opened yet.
func dispatchCancel(in *GraphState, def steps.Definition) (*GraphState, error) {
	if in.App.ActiveAssistant() != statex.AssistantPrimary {
		in.App.Merge(statex.Update{Dialog: statex.DialogPop}, in.Now)
		in.Message = msgSubFlowAbandoned + " " + resumeLine(in.App, def)
		return in, nil
	}

	if in.App.LoanID == "" {
		in.App.Merge(statex.Update{Status: statex.StatusTerminal}, in.Now)
		in.Message = msgDeclinedAtStart
		in.Terminal = true
		return in, nil
	}

	in.Message = msgProgressSaved
	return in, nil
}

func dispatchInfoGather(
	ctx context.Context,
	in *GraphState,
	gatherer contractx.InfoGatherer,
	def steps.Definition,
) (*GraphState, error) {
	resp, err := gatherer.Gather(ctx, contractx.InfoRequest{
		UserMessage: in.Text,
		Known:       in.App.CollectedFields,
	})
	if err != nil {
		return nil, err
	}

	if !resp.Done {
		if len(resp.Fields) > 0 {
			in.App.Merge(statex.Update{Fields: resp.Fields}, in.Now)
		}
		in.Message = resp.Message
		return in, nil
	}

	in.App.Merge(statex.Update{
		Fields: resp.Fields,
		Dialog: statex.DialogPop,
	}, in.Now)
	in.Message = msgResumeApplication + " " + def.Prompt
	return in, nil
}

func dispatchDelegate(
	ctx context.Context,
	in *GraphState,
	gatherer contractx.InfoGatherer,
	def steps.Definition,
) (*GraphState, error) {
	target := in.Intent.Target
	if target == "" {
		target = statex.AssistantApproveMortgage
	}

	in.App.Merge(statex.Update{Dialog: target}, in.Now)

	if target == statex.AssistantInfoGather {
		resp, err := gatherer.Gather(ctx, contractx.InfoRequest{Known: in.App.CollectedFields})
		if err != nil {
			return nil, err
		}
		in.Message = resp.Message
		return in, nil
	}

	in.Message = msgEnterApplication + " " + def.Prompt
	return in, nil
}

func dispatchStep(
	ctx context.Context,
	in *GraphState,
	executor *steps.Executor,
	def steps.Definition,
) (*GraphState, error) {
	if len(in.Intent.Fields) > 0 {
		in.App.Merge(statex.Update{Fields: in.Intent.Fields}, in.Now)
	}

	result := executor.Execute(ctx, def, in.App)

	// A cancellation racing the backend call wins: the completed call's
	// result is discarded, not folded into state.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in.Executed = true
	in.Result = result
	return in, nil
}

func resumeLine(st *statex.ApplicationState, def steps.Definition) string {
	if st.LoanID == "" {
		return def.Prompt
	}
	return msgResumeApplication + " " + def.Prompt
}
