package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SessionState is the persisted conversation of one logged-in user.
type SessionState struct {
	SessionID string         `json:"session_id"`
	UserName  string         `json:"user_name"`
	Role      contractx.Role `json:"role"`

	Messages []Message `json:"messages,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

var (
	ErrInvalidTurn   = errors.New("invalid conversation turn")
	ErrStateMismatch = errors.New("session state is inconsistent")
)

func NewSessionState(sessionID string, caller contractx.Caller, now time.Time) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		UserName:  caller.Name,
		Role:      caller.Role,
		Messages:  make([]Message, 0, 8),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// OwnedBy reports whether the session belongs to caller.
func (s *SessionState) OwnedBy(caller contractx.Caller) bool {
	return s != nil && s.UserName == caller.Name && s.Role == caller.Role
}

// AppendTurn records one user message and the assistant reply.
func (s *SessionState) AppendTurn(userText, reply string, now time.Time) error {
	if s == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(userText) == "" || strings.TrimSpace(reply) == "" {
		return fmt.Errorf("%w: user and assistant text are required", ErrInvalidTurn)
	}
	at := now.UTC()
	s.Messages = append(s.Messages,
		Message{Role: RoleUser, Content: userText, At: at},
		Message{Role: RoleAssistant, Content: reply, At: at},
	)
	s.Touch(now)
	return nil
}

// Trim keeps the newest limit messages. A limit <= 0 keeps everything.
// The kept window always starts on a user message.
func (s *SessionState) Trim(limit int) {
	if s == nil || limit <= 0 || len(s.Messages) <= limit {
		return
	}
	start := len(s.Messages) - limit
	for start < len(s.Messages) && s.Messages[start].Role != RoleUser {
		start++
	}
	kept := make([]Message, len(s.Messages)-start)
	copy(kept, s.Messages[start:])
	s.Messages = kept
}

// History converts the stored messages for an assistant request.
func (s *SessionState) History() []contractx.ChatMessage {
	if s == nil {
		return nil
	}
	out := make([]contractx.ChatMessage, 0, len(s.Messages))
	for _, m := range s.Messages {
		out = append(out, contractx.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func (s *SessionState) Validate() error {
	if s == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	if strings.TrimSpace(s.UserName) == "" {
		return fmt.Errorf("%w: user name is empty", ErrStateMismatch)
	}
	if _, ok := contractx.ParseRole(string(s.Role)); !ok {
		return fmt.Errorf("%w: role=%q", ErrStateMismatch, s.Role)
	}
	for i, m := range s.Messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("%w: message %d has role=%q", ErrStateMismatch, i, m.Role)
		}
	}
	return nil
}
