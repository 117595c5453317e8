package classifier

import (
	"context"
	"testing"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
)

func TestRuleClassifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		step       statex.StepID
		required   []string
		wantKind   contractx.IntentKind
		wantFields map[string]any
	}{
		{
			name:     "cancel phrase wins even with an answer attached",
			text:     "maritalStatus=married actually never mind",
			step:     statex.StepMaritalStatus,
			required: []string{"maritalStatus"},
			wantKind: contractx.IntentCancel,
		},
		{
			name:     "yes at confirmation step",
			text:     "Yes",
			step:     statex.StepStartApplication,
			wantKind: contractx.IntentStep,
		},
		{
			name:     "no at confirmation step is a decline",
			text:     "nope",
			step:     statex.StepStartApplication,
			wantKind: contractx.IntentCancel,
		},
		{
			name:     "key value pairs become step fields",
			text:     "homePrice=425000, downPayment=40000",
			step:     statex.StepHomePrice,
			required: []string{"homePrice", "downPayment"},
			wantKind: contractx.IntentStep,
			wantFields: map[string]any{
				"homePrice":   "425000",
				"downPayment": "40000",
			},
		},
		{
			name:     "keys are matched case insensitively",
			text:     "HOMEPRICE=425000",
			step:     statex.StepHomePrice,
			required: []string{"homePrice", "downPayment"},
			wantKind: contractx.IntentStep,
			wantFields: map[string]any{
				"homePrice": "425000",
			},
		},
		{
			name:     "unknown keys are dropped",
			text:     "favoriteColor=blue",
			step:     statex.StepHomePrice,
			required: []string{"homePrice", "downPayment"},
			wantKind: contractx.IntentNone,
		},
		{
			name:     "small talk is unusable",
			text:     "nice weather today",
			step:     statex.StepIncome,
			required: []string{"incomeType", "annualIncome"},
			wantKind: contractx.IntentNone,
		},
		{
			name:     "contact help delegates to the gatherer",
			text:     "can you help me fill in my contact details",
			step:     statex.StepContactInfo,
			required: []string{"email", "phoneNumber"},
			wantKind: contractx.IntentDelegate,
		},
		{
			name:     "bare yes confirms account creation",
			text:     "yes",
			step:     statex.StepCreateAccount,
			required: []string{"email"},
			wantKind: contractx.IntentStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			intent, err := NewRuleClassifier().Classify(context.Background(), contractx.ClassifyRequest{
				UserMessage:    tt.text,
				CurrentStep:    tt.step,
				RequiredFields: tt.required,
			})
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}

			if intent.Kind != tt.wantKind {
				t.Fatalf("Kind = %q, want %q", intent.Kind, tt.wantKind)
			}
			if tt.wantKind == contractx.IntentStep && intent.Step != tt.step {
				t.Fatalf("Step = %q, want %q", intent.Step, tt.step)
			}
			if len(tt.wantFields) != len(intent.Fields) {
				t.Fatalf("Fields = %#v, want %#v", intent.Fields, tt.wantFields)
			}
			for k, v := range tt.wantFields {
				if intent.Fields[k] != v {
					t.Fatalf("Fields[%s] = %v, want %v", k, intent.Fields[k], v)
				}
			}
		})
	}
}

func TestIntentFromOutputValidation(t *testing.T) {
	t.Parallel()

	if _, err := intentFromOutput(classifierLLMOutput{Kind: "teleport"}, statex.StepIncome); err == nil {
		t.Fatal("expected schema violation for unknown kind")
	}

	intent, err := intentFromOutput(classifierLLMOutput{Kind: "step", Step: "home_price"}, statex.StepIncome)
	if err != nil {
		t.Fatalf("intentFromOutput() error = %v", err)
	}
	if intent.Kind != contractx.IntentNone {
		t.Fatalf("Kind = %q, want none when the step does not match", intent.Kind)
	}

	intent, err = intentFromOutput(classifierLLMOutput{Kind: "step"}, statex.StepIncome)
	if err != nil {
		t.Fatalf("intentFromOutput() error = %v", err)
	}
	if intent.Step != statex.StepIncome {
		t.Fatalf("Step = %q, want defaulted to the pending step", intent.Step)
	}

	if _, err := intentFromOutput(classifierLLMOutput{Kind: "delegate", Target: "unknown"}, statex.StepIncome); err == nil {
		t.Fatal("expected schema violation for unknown delegate target")
	}
}
