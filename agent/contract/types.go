package contract

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "Administrador"
	RoleGeneral Role = "General"
)

const (
	ToolRegister = "registrar_reembolso"
	ToolQuery    = "consultar_estado"
	ToolUpdate   = "actualizar_solicitud"
)

// ParseRole maps the stored role label to a Role. Unknown labels return ok=false.
func ParseRole(raw string) (Role, bool) {
	switch {
	case strings.EqualFold(strings.TrimSpace(raw), string(RoleAdmin)):
		return RoleAdmin, true
	case strings.EqualFold(strings.TrimSpace(raw), string(RoleGeneral)):
		return RoleGeneral, true
	default:
		return "", false
	}
}

// Tools lists the tools a role may call, in declaration order.
func (r Role) Tools() []string {
	switch r {
	case RoleAdmin:
		return []string{ToolRegister, ToolQuery, ToolUpdate}
	case RoleGeneral:
		return []string{ToolRegister, ToolQuery}
	default:
		return nil
	}
}

func (r Role) Allows(tool string) bool {
	for _, t := range r.Tools() {
		if t == tool {
			return true
		}
	}
	return false
}

// Caller is the logged-in user on whose behalf tools run.
type Caller struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

type AgentRequest struct {
	Caller      Caller        `json:"caller"`
	UserMessage string        `json:"user_message"`
	History     []ChatMessage `json:"history,omitempty"`
	Now         time.Time     `json:"now"`
}

type AgentResponse struct {
	Message   string       `json:"message"`
	ToolCalls []ToolResult `json:"tool_calls,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
