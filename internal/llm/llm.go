package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client abstracts generative-AI providers used to score resumes.
type Client interface {
	// Complete sends prompt and returns the raw text of the model's answer.
	Complete(ctx context.Context, prompt string) (string, error)
}

// ModelLister is implemented by clients that can enumerate usable models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("AI provider not configured")

// ErrEmptyResponse is returned when the provider answered with no text.
var ErrEmptyResponse = errors.New("AI provider returned an empty response")

// ProviderError wraps a failure reported by a remote AI provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: http status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PlaceholderClient is used when no API key is configured. Every call fails,
// so ranking falls back to default scores.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotConfigured
}

// ListModels returns ErrNotConfigured.
func (PlaceholderClient) ListModels(ctx context.Context) ([]string, error) {
	_ = ctx
	return nil, ErrNotConfigured
}

var (
	_ Client      = PlaceholderClient{}
	_ ModelLister = PlaceholderClient{}
)
