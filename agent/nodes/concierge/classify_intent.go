package conciergenode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/steps"
)

// ClassifyIntent asks the classifier what the user wants this turn. An empty
// text or an already finished application skips classification entirely.
func ClassifyIntent(
	ctx context.Context,
	in *GraphState,
	classifier contractx.Classifier,
	catalog *steps.Catalog,
) (*GraphState, error) {
	if in == nil || in.App == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	if in.Text == "" || in.App.Terminal() {
		in.Intent = contractx.Intent{Kind: contractx.IntentNone}
		return in, nil
	}

	def, ok := catalog.Get(in.App.CurrentStep)
	if !ok {
		return nil, fmt.Errorf("%w: step %q not in catalog", contractx.ErrValidation, in.App.CurrentStep)
	}

	intent, err := classifier.Classify(ctx, contractx.ClassifyRequest{
		UserMessage:    in.Text,
		CurrentStep:    in.App.CurrentStep,
		StepPrompt:     def.Prompt,
		RequiredFields: def.RequiredFields,
		History:        in.App.MessageHistory,
	})
	if err != nil {
		return nil, err
	}

	in.Intent = intent
	return in, nil
}
