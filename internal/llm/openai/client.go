package openai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"resume-ranker/internal/llm"
	"resume-ranker/internal/shared/telemetry"
)

const (
	providerName = "openai"
	defaultModel = "gpt-4o-mini"
	instructions = "You are a resume analysis engine. Respond with JSON only. No markdown. Never omit keys."
)

// Client implements llm.Client using the OpenAI Responses API.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient constructs a new OpenAI client. Extra options are appended after
// the API key, which lets tests point the client at a local server.
func NewClient(apiKey, model string, opts ...option.RequestOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	all := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	client := openai.NewClient(all...)
	return &Client{client: &client, model: strings.TrimSpace(model)}, nil
}

// Complete sends prompt as a single user message and returns the output text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	params := responses.ResponseNewParams{
		Model:        shared.ResponsesModel(c.model),
		Instructions: openai.String(instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			},
		},
	}
	// gpt-5 models reject a temperature parameter.
	if !isGPT5(c.model) {
		params.Temperature = openai.Float(0)
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return "", wrapError(err)
	}
	logUsage(c.model, resp.Usage)

	output := strings.TrimSpace(resp.OutputText())
	if output == "" {
		return "", llm.ErrEmptyResponse
	}
	return output, nil
}

// ListModels returns model ids visible to the API key, sorted.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	page, err := c.client.Models.List(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Model returns the configured model id.
func (c *Client) Model() string {
	return c.model
}

func wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &llm.ProviderError{Provider: providerName, StatusCode: apiErr.StatusCode, Err: err}
	}
	return &llm.ProviderError{Provider: providerName, Err: err}
}

func logUsage(model string, usage responses.ResponseUsage) {
	telemetry.Debug("llm.response", map[string]any{
		"provider":      providerName,
		"model":         model,
		"input_tokens":  usage.InputTokens,
		"output_tokens": usage.OutputTokens,
		"total_tokens":  usage.TotalTokens,
	})
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var (
	_ llm.Client      = (*Client)(nil)
	_ llm.ModelLister = (*Client)(nil)
)
