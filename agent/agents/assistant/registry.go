package assistant

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
	llmx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/llm"
	promptx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/prompt"
	toolx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/tool"
)

type registryImpl struct {
	assistants map[contractx.Role]contractx.Assistant
}

func (r *registryImpl) AssistantFor(role contractx.Role) (contractx.Assistant, error) {
	a, ok := r.assistants[role]
	if !ok {
		return nil, fmt.Errorf("%w: no assistant for role=%q", contractx.ErrValidation, role)
	}
	return a, nil
}

func NewRegistry(ctx context.Context, cfg llmx.Config, service toolx.Dispatcher, maxSteps int) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()
	r := &registryImpl{assistants: make(map[contractx.Role]contractx.Assistant, 2)}

	for _, role := range []contractx.Role{contractx.RoleAdmin, contractx.RoleGeneral} {
		modelCfg := cfg.OpenRouterFor(role)
		chatModel, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, role, err)
		}

		systemPrompt, err := prompts.For(role)
		if err != nil {
			return nil, err
		}

		a, err := newAssistant(ctx, role, chatModel, systemPrompt, service, maxSteps)
		if err != nil {
			return nil, err
		}
		r.assistants[role] = a
	}

	return r, nil
}
