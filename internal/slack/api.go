package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"whchecker-backend/internal/shared/metrics"
)

var apiBaseURL = "https://slack.com/api/"

const defaultAPITimeout = 10 * time.Second

// API is the subset of the Slack Web API the bot calls.
type API interface {
	PostMessage(ctx context.Context, token string, msg OutgoingMessage) (string, error)
	PostEphemeral(ctx context.Context, token string, msg OutgoingMessage) error
	AddReaction(ctx context.Context, token, channel, ts, name string) error
	UpdateMessage(ctx context.Context, token, channel, ts, text string) error
	OpenView(ctx context.Context, token, triggerID string, view View) error
}

// OutgoingMessage is the body of chat.postMessage and chat.postEphemeral.
type OutgoingMessage struct {
	Channel  string  `json:"channel"`
	ThreadTS string  `json:"thread_ts,omitempty"`
	User     string  `json:"user,omitempty"`
	Text     string  `json:"text"`
	Blocks   []Block `json:"blocks,omitempty"`
}

// APIError is an ok=false response from the Web API.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

// Client calls the Slack Web API over HTTPS with JSON bodies.
type Client struct {
	http *http.Client
}

// NewClient constructs a Web API client. A non-positive timeout uses the default.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	TS    string `json:"ts"`
}

func (c *Client) PostMessage(ctx context.Context, token string, msg OutgoingMessage) (string, error) {
	resp, err := c.call(ctx, "chat.postMessage", token, msg)
	if err != nil {
		return "", err
	}
	return resp.TS, nil
}

func (c *Client) PostEphemeral(ctx context.Context, token string, msg OutgoingMessage) error {
	_, err := c.call(ctx, "chat.postEphemeral", token, msg)
	return err
}

// AddReaction treats already_reacted as success.
func (c *Client) AddReaction(ctx context.Context, token, channel, ts, name string) error {
	_, err := c.call(ctx, "reactions.add", token, map[string]string{
		"channel":   channel,
		"timestamp": ts,
		"name":      name,
	})
	if apiErr, ok := err.(*APIError); ok && apiErr.Code == "already_reacted" {
		return nil
	}
	return err
}

func (c *Client) UpdateMessage(ctx context.Context, token, channel, ts, text string) error {
	_, err := c.call(ctx, "chat.update", token, map[string]string{
		"channel": channel,
		"ts":      ts,
		"text":    text,
	})
	return err
}

func (c *Client) OpenView(ctx context.Context, token, triggerID string, view View) error {
	_, err := c.call(ctx, "views.open", token, map[string]any{
		"trigger_id": triggerID,
		"view":       view,
	})
	return err
}

func (c *Client) call(ctx context.Context, method, token string, payload any) (apiResponse, error) {
	if strings.TrimSpace(token) == "" {
		return apiResponse{}, fmt.Errorf("slack %s: missing token", method)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return apiResponse{}, fmt.Errorf("slack %s: encode: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBaseURL+method, bytes.NewReader(body))
	if err != nil {
		return apiResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.IncSlackAPIFailures()
		return apiResponse{}, fmt.Errorf("slack %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.IncSlackAPIFailures()
		return apiResponse{}, fmt.Errorf("slack %s: read response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.IncSlackAPIFailures()
		return apiResponse{}, fmt.Errorf("slack %s: http status %d", method, resp.StatusCode)
	}

	var out apiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		metrics.IncSlackAPIFailures()
		return apiResponse{}, fmt.Errorf("slack %s: decode: %w", method, err)
	}
	if !out.OK {
		metrics.IncSlackAPIFailures()
		return out, &APIError{Method: method, Code: out.Error}
	}
	return out, nil
}

var _ API = (*Client)(nil)
