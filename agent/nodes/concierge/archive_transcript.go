package conciergenode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
)

// ArchiveTranscript writes this turn's messages to the audit archive. The
// archive is best-effort: a failure is logged, never surfaced, because the
// state was already saved and the user still needs their reply.
func ArchiveTranscript(
	ctx context.Context,
	in *GraphState,
	archive contractx.TranscriptArchive,
) (*GraphState, error) {
	if in == nil || in.App == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}
	if archive == nil || len(in.NewMessages) == 0 {
		return in, nil
	}

	if err := archive.Append(ctx, in.ThreadID, in.NewMessages); err != nil {
		log.Error().
			Err(err).
			Str("thread_id", in.ThreadID).
			Int("messages", len(in.NewMessages)).
			Msg("transcript archive append failed")
	}
	return in, nil
}
