package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewApplicationStateDefaults(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := NewApplicationState("thread-1", now)

	if st.CurrentStep != StepStartApplication {
		t.Fatalf("CurrentStep = %q, want %q", st.CurrentStep, StepStartApplication)
	}
	if st.Status != StatusAwaitingInput {
		t.Fatalf("Status = %q, want %q", st.Status, StatusAwaitingInput)
	}
	if st.ActiveAssistant() != AssistantPrimary {
		t.Fatalf("ActiveAssistant() = %q, want %q", st.ActiveAssistant(), AssistantPrimary)
	}
	if err := st.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestMergeIsIdempotentForFieldsAndLoanID(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := NewApplicationState("thread-1", now)

	u := Update{
		LoanID:       "loan-9",
		SessionToken: "tok-9",
		CurrentStep:  StepHomeDetails,
		Fields:       map[string]any{"homePrice": 425000, "city": "Detroit"},
	}

	st.Merge(u, now)
	st.Merge(u, now)

	if st.LoanID != "loan-9" {
		t.Fatalf("LoanID = %q, want loan-9", st.LoanID)
	}
	if st.SessionToken != "tok-9" {
		t.Fatalf("SessionToken = %q, want tok-9", st.SessionToken)
	}
	if st.CurrentStep != StepHomeDetails {
		t.Fatalf("CurrentStep = %q, want %q", st.CurrentStep, StepHomeDetails)
	}
	if len(st.CollectedFields) != 2 {
		t.Fatalf("CollectedFields size = %d, want 2", len(st.CollectedFields))
	}
	if st.CollectedFields["city"] != "Detroit" {
		t.Fatalf("CollectedFields[city] = %v, want Detroit", st.CollectedFields["city"])
	}
}

func TestMergeIgnoresConflictingLoanID(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := NewApplicationState("thread-1", now)

	st.Merge(Update{LoanID: "loan-first"}, now)
	st.Merge(Update{LoanID: "loan-second"}, now)

	if st.LoanID != "loan-first" {
		t.Fatalf("LoanID = %q, want the first write to win", st.LoanID)
	}
}

func TestMergeIgnoresConflictingSessionToken(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := NewApplicationState("thread-1", now)

	st.Merge(Update{SessionToken: "tok-first"}, now)
	st.Merge(Update{SessionToken: "tok-second"}, now)

	if st.SessionToken != "tok-first" {
		t.Fatalf("SessionToken = %q, want the first write to win", st.SessionToken)
	}
}

func TestMergeDialogPushAndPop(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := NewApplicationState("thread-1", now)

	st.Merge(Update{Dialog: AssistantApproveMortgage}, now)
	if st.ActiveAssistant() != AssistantApproveMortgage {
		t.Fatalf("ActiveAssistant() = %q after push, want %q", st.ActiveAssistant(), AssistantApproveMortgage)
	}

	st.Merge(Update{Dialog: AssistantInfoGather}, now)
	if got := len(st.DialogStack); got != 3 {
		t.Fatalf("stack depth = %d, want 3", got)
	}

	st.Merge(Update{Dialog: DialogPop}, now)
	if st.ActiveAssistant() != AssistantApproveMortgage {
		t.Fatalf("ActiveAssistant() = %q after pop, want %q", st.ActiveAssistant(), AssistantApproveMortgage)
	}
}

func TestMergePopAtRootIsNoOp(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := NewApplicationState("thread-1", now)

	st.Merge(Update{Dialog: DialogPop}, now)
	st.Merge(Update{Dialog: DialogPop}, now)

	if len(st.DialogStack) != 1 {
		t.Fatalf("stack depth = %d, want 1", len(st.DialogStack))
	}
	if st.ActiveAssistant() != AssistantPrimary {
		t.Fatalf("ActiveAssistant() = %q, want %q", st.ActiveAssistant(), AssistantPrimary)
	}
	if err := st.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestMergeErrorAndRetryBookkeeping(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := NewApplicationState("thread-1", now)

	st.Merge(Update{
		Error:    &ErrorInfo{Step: StepIncome, Message: "backend rejected income", At: now},
		AddRetry: true,
	}, now)

	if st.LastError == nil || st.LastError.Step != StepIncome {
		t.Fatalf("LastError = %#v, want income failure recorded", st.LastError)
	}
	if st.Retries != 1 {
		t.Fatalf("Retries = %d, want 1", st.Retries)
	}

	st.Merge(Update{ClearError: true, ResetRetries: true}, now)

	if st.LastError != nil {
		t.Fatalf("LastError = %#v, want cleared", st.LastError)
	}
	if st.Retries != 0 {
		t.Fatalf("Retries = %d, want 0", st.Retries)
	}
}

func TestMergeFailureLeavesProgressIntact(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := NewApplicationState("thread-1", now)
	st.Merge(Update{
		LoanID:      "loan-3",
		CurrentStep: StepIncome,
		Fields:      map[string]any{"firstName": "Pat"},
	}, now)

	st.Merge(Update{
		Error:    &ErrorInfo{Step: StepIncome, Message: "timeout", At: now},
		AddRetry: true,
	}, now)

	if st.LoanID != "loan-3" {
		t.Fatalf("LoanID = %q, failure must not touch identifiers", st.LoanID)
	}
	if st.CurrentStep != StepIncome {
		t.Fatalf("CurrentStep = %q, failure must not advance the step", st.CurrentStep)
	}
	if st.CollectedFields["firstName"] != "Pat" {
		t.Fatalf("CollectedFields lost on failure: %#v", st.CollectedFields)
	}
	if st.Status != StatusAwaitingInput {
		t.Fatalf("Status = %q, want %q", st.Status, StatusAwaitingInput)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	tests := []struct {
		name    string
		mutate  func(*ApplicationState)
		wantErr error
	}{
		{
			name:   "well formed",
			mutate: func(*ApplicationState) {},
		},
		{
			name:    "empty stack",
			mutate:  func(s *ApplicationState) { s.DialogStack = nil },
			wantErr: ErrStackCorrupt,
		},
		{
			name: "root not primary",
			mutate: func(s *ApplicationState) {
				s.DialogStack = []AssistantID{AssistantApproveMortgage}
			},
			wantErr: ErrStackCorrupt,
		},
		{
			name:    "unknown step",
			mutate:  func(s *ApplicationState) { s.CurrentStep = "teleport" },
			wantErr: ErrUnknownStep,
		},
		{
			name:    "unknown status",
			mutate:  func(s *ApplicationState) { s.Status = "paused" },
			wantErr: ErrUnknownStatus,
		},
		{
			name:    "empty thread",
			mutate:  func(s *ApplicationState) { s.ThreadID = "" },
			wantErr: ErrEmptyThread,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := NewApplicationState("thread-1", now)
			tt.mutate(st)

			err := st.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	now := time.Now().UTC()
	st := NewApplicationState("thread-iso", now)
	st.CollectedFields["email"] = "pat@example.com"

	if err := store.Save(context.Background(), st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Mutating the original after Save must not leak into the store.
	st.CollectedFields["email"] = "mallory@example.com"
	st.LoanID = "loan-x"

	got, err := store.Load(context.Background(), "thread-iso")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.CollectedFields["email"] != "pat@example.com" {
		t.Fatalf("stored email = %v, want snapshot at Save time", got.CollectedFields["email"])
	}
	if got.LoanID != "" {
		t.Fatalf("stored LoanID = %q, want empty", got.LoanID)
	}
}

func TestMemoryStoreMissingAndDelete(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	now := time.Now().UTC()

	if _, err := store.Load(context.Background(), "absent"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Load() error = %v, want ErrStateNotFound", err)
	}

	st := NewApplicationState("thread-del", now)
	if err := store.Save(context.Background(), st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(context.Background(), "thread-del"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(context.Background(), "thread-del"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Load() after delete error = %v, want ErrStateNotFound", err)
	}
}
