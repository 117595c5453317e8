package conciergenode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
)

var (
	ErrInvalidThread = errors.New("thread id is empty")
)

// maxStepRetries bounds how many consecutive failures one step may accumulate
// before the delegated workflow is abandoned.
const maxStepRetries = 3

type GraphInput struct {
	ThreadID string
	Text     string
}

type GraphOutput struct {
	Reply    string
	Terminal bool
}

// GraphState is the mutable context threaded through one turn of the
// pipeline. Each node reads what earlier nodes produced and adds its own.
type GraphState struct {
	ThreadID string
	Text     string
	Now      time.Time

	App    *statex.ApplicationState
	Intent contractx.Intent

	// Executed is true when dispatch ran a step against the backend;
	// Result is only meaningful then.
	Executed bool
	Result   contractx.StepResult

	// NewMessages collects the messages appended during this turn so the
	// archive writes only the delta, not the whole history.
	NewMessages []statex.Message

	Message  string
	Terminal bool
}

// ValidateRequest is the pipeline entry. An empty user text is legal: the
// turn re-asks the pending question instead of classifying.
func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	threadID := strings.TrimSpace(in.ThreadID)
	if threadID == "" {
		return nil, ErrInvalidThread
	}

	return &GraphState{
		ThreadID: threadID,
		Text:     strings.TrimSpace(in.Text),
		Now:      nowFn().UTC(),
	}, nil
}

// recordMessage appends to both the persistent history and the turn delta.
func (g *GraphState) recordMessage(role statex.Role, content string) {
	if content == "" {
		return
	}
	msg := statex.Message{Role: role, Content: content, CreatedAt: g.Now}
	g.App.MessageHistory = append(g.App.MessageHistory, msg)
	g.NewMessages = append(g.NewMessages, msg)
}
