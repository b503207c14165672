package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"resume-ranker/internal/shared/telemetry"
)

const retryDelay = 300 * time.Millisecond

type retryingClient struct {
	base  Client
	delay time.Duration
}

// WithRetry wraps base so a transient failure is retried once after 300ms.
func WithRetry(base Client) Client {
	if base == nil {
		return nil
	}
	return &retryingClient{base: base, delay: retryDelay}
}

func (r *retryingClient) Complete(ctx context.Context, prompt string) (string, error) {
	var out string
	attempt := 0
	op := func() error {
		attempt++
		text, err := r.base.Complete(ctx, prompt)
		if err != nil {
			if !ShouldRetry(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = text
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(r.delay), 1), ctx)
	notify := func(err error, wait time.Duration) {
		telemetry.Warn("llm.retry", map[string]any{
			"attempt": attempt,
			"wait_ms": wait.Milliseconds(),
			"error":   sanitizeError(err),
		})
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return "", err
	}
	return out, nil
}

// ListModels delegates when the wrapped client can list models.
func (r *retryingClient) ListModels(ctx context.Context) ([]string, error) {
	lister, ok := r.base.(ModelLister)
	if !ok {
		return nil, ErrNotConfigured
	}
	return lister.ListModels(ctx)
}

// ShouldRetry reports whether err looks transient: a timeout, a 5xx response
// or a dropped connection.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrNotConfigured) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var perr *ProviderError
	if errors.As(err, &perr) && perr.StatusCode >= 500 {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "unexpected eof")
}

func sanitizeError(err error) string {
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}

var _ ModelLister = (*retryingClient)(nil)
