package reimbursement

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
)

type RegisterInput struct {
	InsuredName     string
	ExpenseCategory string
	Amount          decimal.Decimal
	BeneficiaryName string
}

type Registration struct {
	Request Request
}

// Register appends a new Pendiente request with the next id for its prefix.
// Unlike the legacy tool it rejects a negative amount or an empty insured
// name with ErrValidation, since the record file only holds non-negative
// amounts owned by someone.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Registration, error) {
	insured := strings.TrimSpace(in.InsuredName)
	if insured == "" {
		return Registration{}, fmt.Errorf("%w: insured name is required", contractx.ErrValidation)
	}
	if in.Amount.IsNegative() {
		return Registration{}, fmt.Errorf("%w: amount must not be negative", contractx.ErrValidation)
	}

	category := NormalizeCategory(in.ExpenseCategory)
	prefix := PrefixFor(category)

	beneficiary := strings.TrimSpace(in.BeneficiaryName)
	if beneficiary == "" {
		beneficiary = insured
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return Registration{}, err
	}

	req := Request{
		ID:               nextID(records, category, prefix),
		InsuredName:      insured,
		BeneficiaryName:  beneficiary,
		ExpenseCategory:  category,
		Amount:           in.Amount,
		Status:           StatusPending,
		RegistrationDate: s.today(),
		ResponseDate:     NoResponseDate,
		TeamResponse:     InReviewResponse,
	}

	if err := s.store.SaveAll(ctx, append(records, req)); err != nil {
		return Registration{}, err
	}

	log.Info().
		Str("request_id", req.ID).
		Str("category", req.ExpenseCategory).
		Str("amount", req.Amount.String()).
		Msg("reimbursement request registered")

	return Registration{Request: req}, nil
}

// nextID numbers from the last row of the same category in file order, not
// from the highest suffix. Free-text categories share the OTR prefix, so the
// candidate is bumped until it does not collide with an existing id.
func nextID(records []Request, category, prefix string) string {
	seq := lastSequence(records, category) + 1

	taken := make(map[string]struct{}, len(records))
	for _, r := range records {
		taken[strings.TrimSpace(r.ID)] = struct{}{}
	}
	for {
		id := formatID(prefix, seq)
		if _, ok := taken[id]; !ok {
			return id
		}
		seq++
	}
}

func lastSequence(records []Request, category string) int {
	for i := len(records) - 1; i >= 0; i-- {
		if !strings.EqualFold(strings.TrimSpace(records[i].ExpenseCategory), category) {
			continue
		}
		parts := strings.Split(records[i].ID, "_")
		if len(parts) < 2 {
			return 0
		}
		n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func formatID(prefix string, seq int) string {
	return fmt.Sprintf("%s_%0*d", prefix, idDigits, seq)
}
