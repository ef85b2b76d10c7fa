package reimbursement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
)

// Command is one of RegisterCommand, QueryCommand or UpdateCommand.
type Command interface {
	command()
}

type RegisterCommand struct {
	InsuredName     string
	ExpenseCategory string
	Amount          decimal.Decimal
	BeneficiaryName string
}

type QueryCommand struct {
	RequestID   string
	OwnerFilter string
}

type UpdateCommand struct {
	RequestID string
	Status    string
	Response  string
}

func (RegisterCommand) command() {}
func (QueryCommand) command()    {}
func (UpdateCommand) command()   {}

// Outcome carries exactly one of its payload fields plus the rendered message.
type Outcome struct {
	Registration *Registration `json:"registration,omitempty"`
	Request      *Request      `json:"request,omitempty"`
	Update       *Update       `json:"update,omitempty"`
	Message      string        `json:"message"`
}

func (s *Service) Dispatch(ctx context.Context, cmd Command) (Outcome, error) {
	switch c := cmd.(type) {
	case RegisterCommand:
		reg, err := s.Register(ctx, RegisterInput(c))
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Registration: &reg, Message: FormatRegistration(reg)}, nil
	case QueryCommand:
		req, err := s.Query(ctx, c.RequestID, c.OwnerFilter)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Request: &req, Message: FormatRequest(req)}, nil
	case UpdateCommand:
		upd, err := s.Update(ctx, UpdateInput(c))
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Update: &upd, Message: FormatUpdate(upd)}, nil
	default:
		return Outcome{}, fmt.Errorf("%w: unsupported command %T", contractx.ErrValidation, cmd)
	}
}
