package reimbursement

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
)

var ErrInvalidStatus = fmt.Errorf("%w: invalid status", contractx.ErrValidation)

type UpdateInput struct {
	RequestID string
	Status    string
	Response  string
}

type Update struct {
	RequestID    string
	Status       Status
	TeamResponse string
	ResponseDate string
	// Matched counts the rows that carried the id.
	Matched int
}

func (s *Service) Update(ctx context.Context, in UpdateInput) (Update, error) {
	status, ok := ParseStatus(in.Status)
	if !ok {
		return Update{}, fmt.Errorf("%w %q, must be one of: %s", ErrInvalidStatus, status, statusList())
	}

	out, insured, err := s.applyUpdate(ctx, in.RequestID, status, in.Response)
	if err != nil {
		return Update{}, err
	}

	log.Info().
		Str("request_id", in.RequestID).
		Str("status", string(status)).
		Int("matched", out.Matched).
		Msg("reimbursement request updated")

	s.notify(ctx, StatusChange{
		RequestID:    in.RequestID,
		InsuredName:  insured,
		Status:       status,
		TeamResponse: in.Response,
		ResponseDate: out.ResponseDate,
		ChangedAt:    s.now().UTC(),
	})

	return out, nil
}

func (s *Service) applyUpdate(ctx context.Context, requestID string, status Status, response string) (Update, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return Update{}, "", err
	}

	today := s.today()
	out := Update{
		RequestID:    requestID,
		Status:       status,
		TeamResponse: response,
		ResponseDate: today,
	}

	var insured string
	for i := range records {
		if records[i].ID != requestID {
			continue
		}
		records[i].Status = status
		records[i].TeamResponse = response
		records[i].ResponseDate = today
		insured = records[i].InsuredName
		out.Matched++
	}
	if out.Matched == 0 {
		return Update{}, "", fmt.Errorf("%w: %s", contractx.ErrNotFound, requestID)
	}

	if err := s.store.SaveAll(ctx, records); err != nil {
		return Update{}, "", err
	}
	return out, insured, nil
}
