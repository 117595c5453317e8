package contract

import (
	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
)

// StepOutcome is the binary result of attempting one application step.
type StepOutcome string

const (
	OutcomeSuccess StepOutcome = "success"
	OutcomeFailure StepOutcome = "failure"
)

// StepResult is the uniform envelope every step execution produces,
// regardless of whether the step reached the backend or failed locally.
// Executors never return wire errors to the caller; infrastructure faults
// become failed StepResults so the conversation can continue.
type StepResult struct {
	Outcome StepOutcome `json:"outcome"`

	// Message is user-presentable on success and diagnostic on failure.
	Message string `json:"message"`

	// Data carries step-specific payload such as issued identifiers.
	Data map[string]any `json:"data,omitempty"`

	// RawResponse preserves the unmodified backend body for debugging.
	RawResponse map[string]any `json:"raw_response,omitempty"`
}

func Success(message string, data map[string]any) StepResult {
	return StepResult{Outcome: OutcomeSuccess, Message: message, Data: data}
}

func Failure(message string) StepResult {
	return StepResult{Outcome: OutcomeFailure, Message: message}
}

func (r StepResult) Ok() bool {
	return r.Outcome == OutcomeSuccess
}

// IntentKind classifies what the user wants from this turn.
type IntentKind string

const (
	// IntentStep answers the pending step's question.
	IntentStep IntentKind = "step"
	// IntentDelegate hands the conversation to a sub-assistant.
	IntentDelegate IntentKind = "delegate"
	// IntentCancel abandons the active sub-flow or the whole application.
	IntentCancel IntentKind = "cancel"
	// IntentNone is small talk or an unusable reply; the pending question
	// is asked again.
	IntentNone IntentKind = "none"
)

// Intent is the classifier's verdict for one user message.
type Intent struct {
	Kind IntentKind `json:"kind"`

	// Step and Fields are set when Kind is IntentStep: the step the fields
	// belong to and the values extracted from the user's reply.
	Step   statex.StepID  `json:"step,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`

	// Target is set when Kind is IntentDelegate.
	Target statex.AssistantID `json:"target,omitempty"`

	// Reason explains a cancel or none verdict for the transcript.
	Reason string `json:"reason,omitempty"`
}

// ClassifyRequest carries everything the classifier may condition on.
type ClassifyRequest struct {
	UserMessage    string           `json:"user_message"`
	CurrentStep    statex.StepID    `json:"current_step"`
	StepPrompt     string           `json:"step_prompt"`
	RequiredFields []string         `json:"required_fields"`
	History        []statex.Message `json:"history,omitempty"`
}

// TurnResult is what the concierge hands back to the host for one turn.
type TurnResult struct {
	DisplayText string `json:"display_text"`
	Terminal    bool   `json:"terminal"`
}

// InfoRequest asks the information-gathering assistant to continue its
// question list with the user's latest answer.
type InfoRequest struct {
	UserMessage string         `json:"user_message"`
	Known       map[string]any `json:"known,omitempty"`
}

// InfoResponse is one info-gathering exchange: either the next question or,
// when Done, the completed field set to fold into the application.
type InfoResponse struct {
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
	Done    bool           `json:"done"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
