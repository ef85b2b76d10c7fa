package contract

import "context"

type Assistant interface {
	Run(ctx context.Context, req AgentRequest) (AgentResponse, error)
}

type Registry interface {
	AssistantFor(role Role) (Assistant, error)
}
