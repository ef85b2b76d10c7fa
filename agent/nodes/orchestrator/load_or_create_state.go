package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
	statex "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/state"
)

func LoadOrCreateState(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	st, err := store.Load(ctx, in.SessionID)
	switch {
	case errors.Is(err, statex.ErrStateNotFound):
		st = statex.NewSessionState(in.SessionID, in.Caller, in.Now)
	case err != nil:
		return nil, err
	case !st.OwnedBy(in.Caller):
		return nil, fmt.Errorf("%w: session=%s", ErrSessionOwner, in.SessionID)
	}

	in.Session = st
	return in, nil
}
