package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// StepID names one logical unit of the purchase application. Every step maps
// to exactly one backend endpoint; the ordering lives in the step catalog.
type StepID string

const (
	StepStartApplication StepID = "start_application"
	StepHomeDetails      StepID = "home_details"
	StepHomePrice        StepID = "home_price"
	StepLivingSituation  StepID = "living_situation"
	StepPersonalInfo     StepID = "personal_info"
	StepContactInfo      StepID = "contact_info"
	StepMaritalStatus    StepID = "marital_status"
	StepMilitaryStatus   StepID = "military_status"
	StepIncome           StepID = "income"
	StepFunds            StepID = "funds"
	StepCreditPull       StepID = "credit_pull"
	StepCreateAccount    StepID = "create_account"

	// StepTerminal is the sentinel used as NextOnSuccess of the last step.
	StepTerminal StepID = "terminal"
)

// AssistantID identifies an entry on the dialog stack.
type AssistantID string

const (
	AssistantPrimary         AssistantID = "primary"
	AssistantApproveMortgage AssistantID = "approve_mortgage"
	AssistantInfoGather      AssistantID = "info_gather"

	// DialogPop is the dialog directive that removes the top of the stack.
	// The zero value leaves the stack untouched.
	DialogPop AssistantID = "pop"
)

type Status string

const (
	StatusAwaitingInput Status = "awaiting_input"
	StatusTerminal      Status = "terminal"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ErrorInfo struct {
	Step    StepID    `json:"step"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ApplicationState is the persistent source-of-truth for one conversation
// thread. It accumulates user-supplied fields across turns, carries the loan
// correlation key issued by the backend, and tracks the delegation chain of
// active assistants as a LIFO stack.
type ApplicationState struct {
	ThreadID string `json:"thread_id"`

	// LoanID and SessionToken are issued together by the first step and are
	// set-once: a conflicting later write is logged and ignored.
	LoanID       string `json:"loan_id,omitempty"`
	SessionToken string `json:"session_token,omitempty"`

	RocketAccountID string `json:"rocket_account_id,omitempty"`

	CurrentStep StepID        `json:"current_step"`
	Status      Status        `json:"status"`
	DialogStack []AssistantID `json:"dialog_stack,omitempty"`

	CollectedFields map[string]any `json:"collected_fields,omitempty"`
	MessageHistory  []Message      `json:"message_history,omitempty"`

	LastError *ErrorInfo `json:"last_error,omitempty"`
	Retries   int        `json:"retries,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrEmptyThread   = errors.New("thread id is empty")
	ErrStackCorrupt  = errors.New("dialog stack corrupt")
	ErrUnknownStep   = errors.New("unknown step id")
	ErrUnknownStatus = errors.New("unknown status")
	ErrStateNotFound = errors.New("application state not found")
	ErrNilState      = errors.New("application state is nil")
)

var knownSteps = map[StepID]struct{}{
	StepStartApplication: {},
	StepHomeDetails:      {},
	StepHomePrice:        {},
	StepLivingSituation:  {},
	StepPersonalInfo:     {},
	StepContactInfo:      {},
	StepMaritalStatus:    {},
	StepMilitaryStatus:   {},
	StepIncome:           {},
	StepFunds:            {},
	StepCreditPull:       {},
	StepCreateAccount:    {},
	StepTerminal:         {},
}

func NewApplicationState(threadID string, now time.Time) *ApplicationState {
	return &ApplicationState{
		ThreadID:        threadID,
		CurrentStep:     StepStartApplication,
		Status:          StatusAwaitingInput,
		DialogStack:     []AssistantID{AssistantPrimary},
		CollectedFields: make(map[string]any, 16),
		UpdatedAt:       now.UTC(),
	}
}

func (s *ApplicationState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *ApplicationState) EnsureFieldsMap() {
	if s.CollectedFields == nil {
		s.CollectedFields = make(map[string]any, 16)
	}
}

// ActiveAssistant returns the assistant currently in control. The stack is
// never empty in a well-formed state; an empty stack falls back to primary.
func (s *ApplicationState) ActiveAssistant() AssistantID {
	if s == nil || len(s.DialogStack) == 0 {
		return AssistantPrimary
	}
	return s.DialogStack[len(s.DialogStack)-1]
}

// Update is a partial state change produced by one turn. Present fields
// overwrite, messages append, and the Dialog directive pushes or pops.
type Update struct {
	LoanID          string
	SessionToken    string
	RocketAccountID string
	CurrentStep     StepID
	Status          Status
	Dialog          AssistantID
	Fields          map[string]any
	Messages        []Message
	Error           *ErrorInfo
	ClearError      bool
	AddRetry        bool
	ResetRetries    bool
}

// Merge folds an Update into the state. Scalar fields are last-write-wins
// except LoanID and SessionToken, which are set-once. Applying the same
// Update twice yields the same CollectedFields and LoanID as applying it
// once; only MessageHistory grows.
func (s *ApplicationState) Merge(u Update, now time.Time) {
	if s == nil {
		return
	}
	s.EnsureFieldsMap()

	s.setLoanID(u.LoanID)
	s.setSessionToken(u.SessionToken)
	if u.RocketAccountID != "" {
		s.RocketAccountID = u.RocketAccountID
	}
	if u.CurrentStep != "" {
		s.CurrentStep = u.CurrentStep
	}
	if u.Status != "" {
		s.Status = u.Status
	}

	s.applyDialog(u.Dialog)

	for k, v := range u.Fields {
		s.CollectedFields[k] = v
	}
	s.MessageHistory = append(s.MessageHistory, u.Messages...)

	switch {
	case u.ClearError:
		s.LastError = nil
	case u.Error != nil:
		s.LastError = u.Error
	}

	if u.ResetRetries {
		s.Retries = 0
	} else if u.AddRetry {
		s.Retries++
	}

	s.Touch(now)
}

func (s *ApplicationState) setLoanID(loanID string) {
	if loanID == "" {
		return
	}
	if s.LoanID == "" {
		s.LoanID = loanID
		return
	}
	if s.LoanID != loanID {
		log.Warn().
			Str("thread_id", s.ThreadID).
			Str("loan_id", s.LoanID).
			Str("conflicting_loan_id", loanID).
			Msg("ignoring conflicting loan id write; loan id is set-once")
	}
}

func (s *ApplicationState) setSessionToken(token string) {
	if token == "" {
		return
	}
	if s.SessionToken == "" {
		s.SessionToken = token
		return
	}
	if s.SessionToken != token {
		log.Warn().
			Str("thread_id", s.ThreadID).
			Msg("ignoring conflicting session token write; token is set-once")
	}
}

// applyDialog applies the dialog-stack directive: zero value leaves the stack
// untouched, DialogPop removes the top, any other value is pushed. Popping
// the primary assistant off a single-element stack is a no-op.
func (s *ApplicationState) applyDialog(d AssistantID) {
	switch d {
	case "":
	case DialogPop:
		if len(s.DialogStack) > 1 {
			s.DialogStack = s.DialogStack[:len(s.DialogStack)-1]
		}
	default:
		s.DialogStack = append(s.DialogStack, d)
	}
}

func (s *ApplicationState) AppendMessage(role Role, content string, now time.Time) {
	s.MessageHistory = append(s.MessageHistory, Message{
		Role:      role,
		Content:   content,
		CreatedAt: now.UTC(),
	})
}

func (s *ApplicationState) Terminal() bool {
	return s != nil && s.Status == StatusTerminal
}

func (s *ApplicationState) Validate() error {
	if s == nil {
		return ErrNilState
	}
	if s.ThreadID == "" {
		return ErrEmptyThread
	}
	if s.CurrentStep != "" {
		if _, ok := knownSteps[s.CurrentStep]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownStep, s.CurrentStep)
		}
	}
	switch s.Status {
	case StatusAwaitingInput, StatusTerminal:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownStatus, s.Status)
	}
	if len(s.DialogStack) == 0 {
		return fmt.Errorf("%w: stack is empty", ErrStackCorrupt)
	}
	if s.DialogStack[0] != AssistantPrimary {
		return fmt.Errorf("%w: root must be the primary assistant", ErrStackCorrupt)
	}
	return nil
}
