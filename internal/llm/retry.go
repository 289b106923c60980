package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"whchecker-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

type retryingClient struct {
	base  Client
	delay time.Duration
}

// WithRetry wraps base so that one transient failure is retried after a short delay.
// A nil base stays nil.
func WithRetry(base Client) Client {
	if base == nil {
		return nil
	}
	return retryingClient{base: base, delay: retryBaseDelay}
}

func (r retryingClient) SuggestRewrite(ctx context.Context, input SuggestInput) (json.RawMessage, error) {
	resp, err := r.base.SuggestRewrite(ctx, input)
	if err == nil || !ShouldRetry(err) || ctx.Err() != nil {
		return resp, err
	}

	telemetry.Warn("llm.retry", map[string]any{"attempt": 1, "error": err.Error()})
	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return r.base.SuggestRewrite(ctx, input)
}

// ShouldRetry reports whether err looks transient.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") || strings.Contains(msg, "http status 429") {
		return true
	}
	if strings.Contains(msg, "timeout") {
		return true
	}
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "unexpected eof")
}
