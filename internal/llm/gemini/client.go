package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"resume-ranker/internal/llm"
	"resume-ranker/internal/shared/telemetry"
)

const (
	providerName = "gemini"
	// FallbackModel is used when auto-detection finds nothing usable.
	FallbackModel         = "models/gemini-2.0-flash"
	generateContentAction = "generateContent"
	detectTimeout         = 10 * time.Second
)

// preferredModels are tried in order during auto-detection.
var preferredModels = []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash"}

type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	All(ctx context.Context) iter.Seq2[*genai.Model, error]
}

// Client implements llm.Client on top of the Gemini API.
type Client struct {
	models     modelsAPI
	configured string

	detect   sync.Once
	resolved string
}

// New creates a Gemini client. An empty model is auto-detected here, once.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c := newWithModels(client.Models, model)
	c.Model(ctx)
	return c, nil
}

func newWithModels(models modelsAPI, model string) *Client {
	return &Client{models: models, configured: strings.TrimSpace(model)}
}

// Complete asks the resolved model for a JSON answer at temperature 0.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.models == nil {
		return "", llm.ErrNotConfigured
	}
	model := c.Model(ctx)
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	}
	resp, err := c.models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", wrapError(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

// ListModels returns the name of every model the key can see.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	models, err := c.listAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Model returns the configured model or the detected one. Detection lists
// models at most once per client; a failure settles on FallbackModel.
func (c *Client) Model(ctx context.Context) string {
	if c.configured != "" {
		return c.configured
	}
	c.detect.Do(func() {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), detectTimeout)
		defer cancel()
		models, err := c.listAll(dctx)
		if err != nil {
			telemetry.Warn("gemini.model_detect_failed", map[string]any{
				"error":    err.Error(),
				"fallback": FallbackModel,
			})
			c.resolved = FallbackModel
			return
		}
		c.resolved = SelectModel(models)
		telemetry.Info("gemini.model_selected", map[string]any{"model": c.resolved})
	})
	return c.resolved
}

func (c *Client) listAll(ctx context.Context) ([]*genai.Model, error) {
	if c == nil || c.models == nil {
		return nil, llm.ErrNotConfigured
	}
	var out []*genai.Model
	for m, err := range c.models.All(ctx) {
		if err != nil {
			return nil, wrapError(err)
		}
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// SelectModel picks the first preferred model present, then any model that
// supports generateContent, then FallbackModel.
func SelectModel(models []*genai.Model) string {
	for _, want := range preferredModels {
		for _, m := range models {
			if supportsGenerate(m) && strings.TrimPrefix(m.Name, "models/") == want {
				return m.Name
			}
		}
	}
	for _, m := range models {
		if supportsGenerate(m) {
			return m.Name
		}
	}
	return FallbackModel
}

func supportsGenerate(m *genai.Model) bool {
	if m == nil || m.Name == "" {
		return false
	}
	for _, action := range m.SupportedActions {
		if action == generateContentAction {
			return true
		}
	}
	return false
}

func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.ProviderError{Provider: providerName, StatusCode: apiErr.Code, Err: err}
	}
	return &llm.ProviderError{Provider: providerName, Err: err}
}

var (
	_ llm.Client      = (*Client)(nil)
	_ llm.ModelLister = (*Client)(nil)
)
