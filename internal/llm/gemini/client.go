package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"whchecker-backend/internal/llm"
	"whchecker-backend/internal/shared/telemetry"
)

const defaultTimeout = 30 * time.Second

// Client implements llm.Client using the Gemini API.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// Option customizes the Gemini client.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at a different API host.
func WithBaseURL(baseURL string) Option {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = baseURL
	}
}

// NewClient constructs a Gemini client. A non-positive timeout uses the default.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration, opts ...Option) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for Gemini")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: client, model: model, timeout: timeout}, nil
}

// SuggestRewrite asks the model for a JSON rewrite suggestion.
func (c *Client) SuggestRewrite(ctx context.Context, input llm.SuggestInput) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(llm.SystemPrompt(), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0),
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(llm.UserPrompt(input)), config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	fields := map[string]any{"provider": "gemini", "model": c.model}
	if resp.UsageMetadata != nil {
		fields["totalTokens"] = resp.UsageMetadata.TotalTokenCount
	}
	telemetry.Debug("llm.response", fields)

	content := strings.TrimSpace(resp.Text())
	if content == "" {
		return nil, llm.ErrEmptyResponse
	}
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("invalid JSON from Gemini")
	}
	return json.RawMessage(content), nil
}

var _ llm.Client = (*Client)(nil)
