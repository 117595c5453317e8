package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
)

// historyWindow bounds how much conversation the model sees per turn.
const historyWindow = 12

type llmClassifier struct {
	runner compose.Runnable[map[string]any, classifierLLMOutput]
}

type classifierLLMOutput struct {
	Kind   string         `json:"kind"`
	Step   string         `json:"step,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
	Target string         `json:"target,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

func NewLLMClassifier(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (contractx.Classifier, error) {
	runner, err := compileClassifierGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %v", contractx.ErrModelInvoke, err)
	}
	return &llmClassifier{runner: runner}, nil
}

func (c *llmClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.Intent, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return contractx.Intent{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"user_message":    req.UserMessage,
		"current_step":    req.CurrentStep,
		"step_prompt":     req.StepPrompt,
		"required_fields": req.RequiredFields,
		"history":         recentHistory(req.History),
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return contractx.Intent{}, fmt.Errorf("%w: marshal classifier payload: %v", contractx.ErrValidation, err)
	}

	out, err := c.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return contractx.Intent{}, fmt.Errorf("%w: classifier invoke: %v", contractx.ErrModelInvoke, err)
	}

	return intentFromOutput(out, req.CurrentStep)
}

func intentFromOutput(out classifierLLMOutput, currentStep statex.StepID) (contractx.Intent, error) {
	kind := contractx.IntentKind(strings.TrimSpace(out.Kind))
	switch kind {
	case contractx.IntentStep, contractx.IntentDelegate, contractx.IntentCancel, contractx.IntentNone:
	default:
		return contractx.Intent{}, fmt.Errorf("%w: unsupported intent kind=%q", contractx.ErrSchemaViolation, out.Kind)
	}

	intent := contractx.Intent{
		Kind:   kind,
		Fields: out.Fields,
		Reason: strings.TrimSpace(out.Reason),
	}

	if kind == contractx.IntentStep {
		step := statex.StepID(strings.TrimSpace(out.Step))
		if step == "" {
			step = currentStep
		}
		// The model may only answer the pending question; answers for a
		// different step are treated as unusable.
		if step != currentStep {
			return contractx.Intent{Kind: contractx.IntentNone, Reason: "answer does not match the pending step"}, nil
		}
		intent.Step = step
	}

	if kind == contractx.IntentDelegate {
		target := statex.AssistantID(strings.TrimSpace(out.Target))
		switch target {
		case statex.AssistantApproveMortgage, statex.AssistantInfoGather:
			intent.Target = target
		case "":
			intent.Target = statex.AssistantApproveMortgage
		default:
			return contractx.Intent{}, fmt.Errorf("%w: unsupported delegate target=%q", contractx.ErrSchemaViolation, out.Target)
		}
	}

	return intent, nil
}

func recentHistory(history []statex.Message) []map[string]string {
	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}

	out := make([]map[string]string, 0, len(history)-start)
	for _, m := range history[start:] {
		out = append(out, map[string]string{
			"role":    string(m.Role),
			"content": m.Content,
		})
	}
	return out
}
