package conciergenode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Message)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: pipeline produced empty reply", contractx.ErrValidation)
	}
	return GraphOutput{Reply: reply, Terminal: in.Terminal}, nil
}
