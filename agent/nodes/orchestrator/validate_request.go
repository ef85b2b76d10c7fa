package orchestratornode

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
	statex "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = statex.ErrInvalidSession
	ErrSessionOwner   = errors.New("session belongs to another user")
)

type GraphInput struct {
	SessionID string
	Caller    contractx.Caller
	Text      string
}

type GraphOutput struct {
	Reply     string
	ToolCalls []contractx.ToolResult
}

type GraphState struct {
	SessionID string
	Caller    contractx.Caller
	Text      string
	Now       time.Time

	Session *statex.SessionState

	Message   string
	ToolCalls []contractx.ToolResult
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	name := strings.TrimSpace(in.Caller.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: caller name is required", contractx.ErrValidation)
	}
	role, ok := contractx.ParseRole(string(in.Caller.Role))
	if !ok {
		return nil, fmt.Errorf("%w: unknown role=%q", contractx.ErrValidation, in.Caller.Role)
	}

	return &GraphState{
		SessionID: sessionID,
		Caller:    contractx.Caller{Name: name, Role: role},
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
