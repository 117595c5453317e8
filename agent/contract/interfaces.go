package contract

import (
	"context"

	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
)

// Backend submits one application step to the mortgage origination API.
// Implementations attach the loan id and session token to the request;
// endpoint and method come from the step catalog.
type Backend interface {
	Submit(ctx context.Context, endpoint, method string, payload map[string]any, loanID, sessionToken string) (map[string]any, error)
}

type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (Intent, error)
}

// InfoGatherer runs the side conversation that collects borrower contact
// details before they are folded back into the application.
type InfoGatherer interface {
	Gather(ctx context.Context, req InfoRequest) (InfoResponse, error)
}

type Registry interface {
	Classifier() Classifier
	InfoGatherer() InfoGatherer
}

type ToolGateway interface {
	Execute(ctx context.Context, assistant statex.AssistantID, reqs []ToolRequest) ([]ToolResult, error)
}

// TranscriptArchive records finished turns for audit. Archive failures are
// logged and never fail the turn.
type TranscriptArchive interface {
	Append(ctx context.Context, threadID string, msgs []statex.Message) error
}
