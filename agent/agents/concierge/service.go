package concierge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	nodex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/nodes/concierge"
	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/steps"
)

var (
	ErrInvalidThread = nodex.ErrInvalidThread
	ErrTurnInFlight  = contractx.ErrTurnInFlight
)

// Concierge drives one mortgage application conversation per thread. A turn
// is single-flight per thread: concurrent calls for the same thread are
// rejected rather than queued, so state is never written by two turns at
// once. Different threads proceed independently.
type Concierge struct {
	store    statex.Store
	models   contractx.Registry
	executor *steps.Executor
	catalog  *steps.Catalog
	tools    contractx.ToolGateway
	archive  contractx.TranscriptArchive

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	mu       sync.Mutex
	inFlight map[string]struct{}

	now func() time.Time
}

func New(
	store statex.Store,
	models contractx.Registry,
	executor *steps.Executor,
	catalog *steps.Catalog,
	tools contractx.ToolGateway,
	archive contractx.TranscriptArchive,
) (*Concierge, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if executor == nil {
		return nil, errors.New("step executor is required")
	}
	if catalog == nil {
		return nil, errors.New("step catalog is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}

	c := &Concierge{
		store:    store,
		models:   models,
		executor: executor,
		catalog:  catalog,
		tools:    tools,
		archive:  archive,
		inFlight: make(map[string]struct{}),
		now:      time.Now,
	}

	graphRunner, err := c.compileAdvanceGraph(context.Background())
	if err != nil {
		return nil, err
	}
	c.graphRunner = graphRunner

	return c, nil
}

// Advance runs one turn: the user's reply goes in, the next prompt comes
// out. The returned TurnResult reports whether the conversation is over.
func (c *Concierge) Advance(ctx context.Context, threadID string, userReply string) (contractx.TurnResult, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return contractx.TurnResult{}, ErrInvalidThread
	}

	if err := c.acquire(threadID); err != nil {
		return contractx.TurnResult{}, err
	}
	defer c.release(threadID)

	out, err := c.graphRunner.Invoke(ctx, nodex.GraphInput{
		ThreadID: threadID,
		Text:     userReply,
	})
	if err != nil {
		return contractx.TurnResult{}, err
	}

	return contractx.TurnResult{
		DisplayText: out.Reply,
		Terminal:    out.Terminal,
	}, nil
}

func (c *Concierge) acquire(threadID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[threadID]; busy {
		return ErrTurnInFlight
	}
	c.inFlight[threadID] = struct{}{}
	return nil
}

func (c *Concierge) release(threadID string) {
	c.mu.Lock()
	delete(c.inFlight, threadID)
	c.mu.Unlock()
}
