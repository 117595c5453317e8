package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
)

// Wire keys the origination API uses for identifiers it issues.
const (
	DataKeyLoanID       = "rmLoanId"
	DataKeySessionToken = "sessionToken"
	DataKeyAccountID    = "rocketAccountId"
)

// Executor submits steps to the origination backend. It always returns a
// StepResult: validation problems and backend faults come back as failed
// results, never as errors, so a broken submission cannot break the turn.
type Executor struct {
	backend contract.Backend
}

func NewExecutor(backend contract.Backend) (*Executor, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is required", contract.ErrValidation)
	}
	return &Executor{backend: backend}, nil
}

func (e *Executor) Execute(ctx context.Context, def Definition, st *state.ApplicationState) contract.StepResult {
	if missing := def.MissingFields(st.CollectedFields); len(missing) > 0 {
		return contract.Failure(fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}

	payload := def.Payload(st.CollectedFields)

	resp, err := e.backend.Submit(ctx, def.Endpoint, def.Method, payload, st.LoanID, st.SessionToken)
	if err != nil {
		log.Error().
			Err(err).
			Str("thread_id", st.ThreadID).
			Str("step", string(def.ID)).
			Str("endpoint", def.Endpoint).
			Msg("step submission failed")
		return contract.Failure(fmt.Sprintf("step %s: %v", def.ID, err))
	}

	result := contract.StepResult{
		Outcome:     contract.OutcomeSuccess,
		Message:     responseMessage(resp),
		Data:        extractIdentifiers(resp),
		RawResponse: resp,
	}

	if ok, present := responseSuccess(resp); present && !ok {
		result.Outcome = contract.OutcomeFailure
		// A rejected submission carries no usable identifiers.
		result.Data = nil
		if result.Message == "" {
			result.Message = fmt.Sprintf("step %s rejected by backend", def.ID)
		}
	}

	return result
}

func responseSuccess(resp map[string]any) (ok, present bool) {
	v, present := resp["success"]
	if !present {
		return false, false
	}
	b, isBool := v.(bool)
	if !isBool {
		return false, false
	}
	return b, true
}

func responseMessage(resp map[string]any) string {
	if m, ok := resp["message"].(string); ok {
		return m
	}
	return ""
}

// extractIdentifiers pulls the identifiers the backend issues out of the
// response context block. Welcome issues rmLoanId and sessionToken; account
// creation issues rocketAccountId.
func extractIdentifiers(resp map[string]any) map[string]any {
	ctxBlock, ok := resp["context"].(map[string]any)
	if !ok {
		return nil
	}

	out := make(map[string]any, 3)
	for _, key := range []string{DataKeyLoanID, DataKeySessionToken, DataKeyAccountID} {
		if v, ok := ctxBlock[key].(string); ok && v != "" {
			out[key] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
