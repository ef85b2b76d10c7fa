package reimbursement

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
)

// Query returns the first request whose id matches. A non-empty ownerFilter
// hides requests filed by anyone else.
func (s *Service) Query(ctx context.Context, requestID, ownerFilter string) (Request, error) {
	id := strings.TrimSpace(requestID)

	s.mu.Lock()
	records, err := s.store.LoadAll(ctx)
	s.mu.Unlock()
	if err != nil {
		return Request{}, err
	}

	for _, r := range records {
		if strings.TrimSpace(r.ID) != id {
			continue
		}
		owner := strings.TrimSpace(ownerFilter)
		if owner != "" && strings.TrimSpace(r.InsuredName) != owner {
			return Request{}, fmt.Errorf("%w: %s", contractx.ErrOwnership, id)
		}
		return r, nil
	}
	return Request{}, fmt.Errorf("%w: %s", contractx.ErrNotFound, id)
}
