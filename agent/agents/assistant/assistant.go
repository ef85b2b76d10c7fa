package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
	promptx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/prompt"
	toolx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/tool"
)

const DefaultMaxToolSteps = 5

type assistantImpl struct {
	role         contractx.Role
	runner       compose.Runnable[map[string]any, *schema.Message]
	service      toolx.Dispatcher
	allowedTools map[string]struct{}
	maxSteps     int
}

func newAssistant(
	ctx context.Context,
	role contractx.Role,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	service toolx.Dispatcher,
	maxSteps int,
) (*assistantImpl, error) {
	if service == nil {
		return nil, fmt.Errorf("%w: reimbursement service is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: role=%s", contractx.ErrPromptMissing, role)
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxToolSteps
	}

	tools := toolx.InfosForRole(role)
	toolModel, err := chatModel.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for role=%s: %v", contractx.ErrModelInvoke, role, err)
	}

	runner, err := compileToolCallingGraph(ctx, toolModel, systemPrompt, "assistant."+strings.ToLower(string(role)))
	if err != nil {
		return nil, fmt.Errorf("%w: compile assistant graph: %v", contractx.ErrModelInvoke, err)
	}

	allowedTools := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		allowedTools[t.Name] = struct{}{}
	}

	return &assistantImpl{
		role:         role,
		runner:       runner,
		service:      service,
		allowedTools: allowedTools,
		maxSteps:     maxSteps,
	}, nil
}

func (a *assistantImpl) Run(ctx context.Context, req contractx.AgentRequest) (contractx.AgentResponse, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return contractx.AgentResponse{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}
	if req.Caller.Role != a.role {
		return contractx.AgentResponse{}, fmt.Errorf("%w: caller role=%s does not match assistant role=%s", contractx.ErrValidation, req.Caller.Role, a.role)
	}

	executor := toolx.NewExecutor(a.service, req.Caller)
	messages := toSchemaMessages(req.History)
	messages = append(messages, schema.UserMessage(req.UserMessage))

	var results []contractx.ToolResult
	for step := 0; step < a.maxSteps; step++ {
		msg, err := a.runner.Invoke(ctx, map[string]any{
			promptx.UserNameVar: req.Caller.Name,
			historyVar:          messages,
		})
		if err != nil {
			return contractx.AgentResponse{}, fmt.Errorf("%w: assistant invoke: %v", contractx.ErrModelInvoke, err)
		}
		if msg == nil {
			return contractx.AgentResponse{}, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
		}

		if len(msg.ToolCalls) == 0 {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				return contractx.AgentResponse{}, fmt.Errorf("%w: assistant message is empty", contractx.ErrSchemaViolation)
			}
			return contractx.AgentResponse{Message: content, ToolCalls: results}, nil
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			res, err := a.executeCall(ctx, executor, call)
			if err != nil {
				return contractx.AgentResponse{}, err
			}
			results = append(results, res)
			messages = append(messages, schema.ToolMessage(renderToolResult(res), call.ID))
		}
	}

	return contractx.AgentResponse{}, fmt.Errorf("%w: no final answer after %d tool steps", contractx.ErrSchemaViolation, a.maxSteps)
}

func (a *assistantImpl) executeCall(ctx context.Context, executor toolx.Executor, call schema.ToolCall) (contractx.ToolResult, error) {
	name := strings.TrimSpace(call.Function.Name)
	if _, ok := a.allowedTools[name]; !ok {
		log.Warn().Str("tool", name).Str("role", string(a.role)).Msg("model requested a tool outside the role")
		return contractx.ToolResult{
			Tool:  name,
			Error: fmt.Sprintf("tool=%s is not allowed for role=%s", name, a.role),
		}, nil
	}

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return contractx.ToolResult{
				Tool:  name,
				Error: fmt.Sprintf("invalid tool args: %v", err),
			}, nil
		}
	}

	res, err := executor(ctx, name, args)
	if err != nil {
		return contractx.ToolResult{}, err
	}
	log.Debug().Str("tool", name).Bool("failed", res.Error != "").Msg("tool executed")
	return res, nil
}

func renderToolResult(res contractx.ToolResult) string {
	if res.Error != "" {
		return res.Error
	}
	if s, ok := res.Result.(string); ok {
		return s
	}
	out, err := json.Marshal(res.Result)
	if err != nil {
		return fmt.Sprint(res.Result)
	}
	return string(out)
}

func toSchemaMessages(history []contractx.ChatMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(history)+1)
	for _, m := range history {
		switch schema.RoleType(m.Role) {
		case schema.User:
			out = append(out, schema.UserMessage(m.Content))
		case schema.Assistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		}
	}
	return out
}
