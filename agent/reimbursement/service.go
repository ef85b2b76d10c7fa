package reimbursement

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// StatusChange is emitted after an update has been saved.
type StatusChange struct {
	RequestID    string    `json:"request_id"`
	InsuredName  string    `json:"insured_name"`
	Status       Status    `json:"status"`
	TeamResponse string    `json:"team_response"`
	ResponseDate string    `json:"response_date"`
	ChangedAt    time.Time `json:"changed_at"`
}

type Notifier interface {
	NotifyStatusChange(ctx context.Context, change StatusChange) error
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(ctx context.Context, change StatusChange) error

func (f NotifierFunc) NotifyStatusChange(ctx context.Context, change StatusChange) error {
	return f(ctx, change)
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// Service runs the request lifecycle operations against a Store.
// All operations share one lock, so a read-modify-write cycle never
// interleaves with another one issued through the same Service.
type Service struct {
	mu       sync.Mutex
	store    Store
	notifier Notifier
	now      func() time.Time
}

func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}

	s := &Service{
		store:    store,
		notifier: noopNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *Service) today() string {
	return s.now().Format(dateLayout)
}

func (s *Service) notify(ctx context.Context, change StatusChange) {
	if err := s.notifier.NotifyStatusChange(ctx, change); err != nil {
		log.Warn().Err(err).Str("request_id", change.RequestID).Msg("status change notification failed")
	}
}

type noopNotifier struct{}

func (noopNotifier) NotifyStatusChange(context.Context, StatusChange) error {
	return nil
}
