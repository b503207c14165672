package usage

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded matches every *QuotaExceededError via errors.Is.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrInvalidIncrement is returned for negative increments.
	ErrInvalidIncrement = errors.New("increment must not be negative")
	// ErrEmptyToken is returned when a ledger operation is attempted without a client token.
	ErrEmptyToken = errors.New("client token is required")
)

// QuotaExceededError describes a rejected request against the free tier.
type QuotaExceededError struct {
	Used      int
	Limit     int
	Remaining int
	Requested int
}

func (e *QuotaExceededError) Error() string {
	if e.Used >= e.Limit {
		return "Free limit reached. Upgrade to analyze more resumes."
	}
	return fmt.Sprintf("Free tier remaining: %d resume(s). Reduce selection or upgrade.", e.Remaining)
}

// Is lets errors.Is(err, ErrQuotaExceeded) match.
func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }
