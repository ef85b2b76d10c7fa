package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
)

// RunAssistant hands the turn to the assistant bound to the caller's role.
func RunAssistant(
	ctx context.Context,
	in *GraphState,
	assistants contractx.Registry,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	assistant, err := assistants.AssistantFor(in.Caller.Role)
	if err != nil {
		return nil, err
	}

	resp, err := assistant.Run(ctx, contractx.AgentRequest{
		Caller:      in.Caller,
		UserMessage: in.Text,
		History:     in.Session.History(),
		Now:         in.Now,
	})
	if err != nil {
		return nil, err
	}

	for _, call := range resp.ToolCalls {
		ev := log.Info()
		if call.Error != "" {
			ev = log.Warn().Str("tool_error", call.Error)
		}
		ev.Str("session_id", in.SessionID).
			Str("role", string(in.Caller.Role)).
			Str("tool", call.Tool).
			Msg("tool call finished")
	}

	in.Message = resp.Message
	in.ToolCalls = resp.ToolCalls
	return in, nil
}
