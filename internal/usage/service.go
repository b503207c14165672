package usage

import (
	"context"
	"strings"
)

// Ledger persists per-token usage counts. Implementations must not lose
// concurrent increments.
type Ledger interface {
	Used(ctx context.Context, token string) (int, error)
	Increment(ctx context.Context, token string, by int) (int, error)
}

// Pinger is implemented by ledgers backed by a remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Service enforces the free-tier ceiling on top of a Ledger.
type Service struct {
	ledger Ledger
	limit  int
}

// NewService constructs a Service with an in-memory ledger.
func NewService(limit int) *Service {
	return NewServiceWithLedger(NewMemoryLedger(), limit)
}

// NewServiceWithLedger constructs a Service backed by the given ledger.
func NewServiceWithLedger(ledger Ledger, limit int) *Service {
	if limit < 0 {
		limit = 0
	}
	return &Service{ledger: ledger, limit: limit}
}

// Ping checks the ledger backend. In-memory ledgers are always reachable.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.ledger.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Limit returns the configured free-tier ceiling.
func (s *Service) Limit() int {
	return s.limit
}

// Used returns the number of resumes already ranked for token, 0 if unseen.
func (s *Service) Used(ctx context.Context, token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, ErrEmptyToken
	}
	return s.ledger.Used(ctx, token)
}

// Remaining returns max(limit - used, 0).
func (s *Service) Remaining(ctx context.Context, token string) (int, error) {
	used, err := s.Used(ctx, token)
	if err != nil {
		return 0, err
	}
	return remaining(used, s.limit), nil
}

// Snapshot returns used, limit and remaining for token.
func (s *Service) Snapshot(ctx context.Context, token string) (Usage, error) {
	used, err := s.Used(ctx, token)
	if err != nil {
		return Usage{}, err
	}
	return snapshot(used, s.limit), nil
}

// CheckQuota reports a *QuotaExceededError when the token is already at the
// ceiling or when n more resumes would not fit in what remains.
func (s *Service) CheckQuota(ctx context.Context, token string, n int) (Usage, error) {
	u, err := s.Snapshot(ctx, token)
	if err != nil {
		return Usage{}, err
	}
	if u.Used >= u.Limit || n > u.Remaining {
		return u, &QuotaExceededError{
			Used:      u.Used,
			Limit:     u.Limit,
			Remaining: u.Remaining,
			Requested: n,
		}
	}
	return u, nil
}

// Increment adds by to the token's count and returns the updated snapshot.
func (s *Service) Increment(ctx context.Context, token string, by int) (Usage, error) {
	if strings.TrimSpace(token) == "" {
		return Usage{}, ErrEmptyToken
	}
	if by < 0 {
		return Usage{}, ErrInvalidIncrement
	}
	used, err := s.ledger.Increment(ctx, token, by)
	if err != nil {
		return Usage{}, err
	}
	return snapshot(used, s.limit), nil
}
