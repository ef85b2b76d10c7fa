package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
)

func AppendTurn(in *GraphState, historyLimit int) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Message)
	if reply == "" {
		return nil, fmt.Errorf("%w: assistant returned empty message", contractx.ErrSchemaViolation)
	}
	if err := in.Session.AppendTurn(in.Text, reply, in.Now); err != nil {
		return nil, err
	}
	in.Session.Trim(historyLimit)
	return in, nil
}
