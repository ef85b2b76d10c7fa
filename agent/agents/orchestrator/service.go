package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
	nodex "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
	ErrSessionOwner   = nodex.ErrSessionOwner
)

const DefaultHistoryLimit = 20

type Config struct {
	// HistoryLimit caps stored messages per session. Zero uses the default,
	// negative keeps everything.
	HistoryLimit int
}

// Orchestrator runs one chat turn: load the session, ask the role assistant,
// record the turn and persist it.
type Orchestrator struct {
	store      statex.Store
	assistants contractx.Registry

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	historyLimit int

	now func() time.Time
}

func New(store statex.Store, assistants contractx.Registry, cfg Config) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if assistants == nil {
		return nil, errors.New("assistant registry is required")
	}

	limit := cfg.HistoryLimit
	switch {
	case limit == 0:
		limit = DefaultHistoryLimit
	case limit < 0:
		limit = 0
	}

	o := &Orchestrator{
		store:        store,
		assistants:   assistants,
		historyLimit: limit,
		now:          time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, caller contractx.Caller, text string) (string, error) {
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Caller:    caller,
		Text:      text,
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

// EndSession drops the stored conversation, e.g. on logout.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	return o.store.Delete(ctx, sessionID)
}
