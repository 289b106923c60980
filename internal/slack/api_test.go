package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withAPIServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	prev := apiBaseURL
	apiBaseURL = srv.URL + "/api/"
	t.Cleanup(func() { apiBaseURL = prev })
}

func TestClientPostMessage(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	withAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"ok":true,"ts":"1700000000.000200"}`))
	})

	ts, err := NewClient(0).PostMessage(context.Background(), "xoxb-1", OutgoingMessage{
		Channel:  "C1",
		ThreadTS: "1700000000.000100",
		Text:     "hi",
		Blocks:   []Block{{Type: "divider"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "1700000000.000200", ts)
	assert.Equal(t, "/api/chat.postMessage", gotPath)
	assert.Equal(t, "Bearer xoxb-1", gotAuth)
	assert.Equal(t, "C1", gotBody["channel"])
	assert.Equal(t, "1700000000.000100", gotBody["thread_ts"])
	assert.Len(t, gotBody["blocks"], 1)
}

func TestClientAPIError(t *testing.T) {
	withAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	})

	err := NewClient(0).UpdateMessage(context.Background(), "xoxp-1", "C1", "1.0", "text")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "chat.update", apiErr.Method)
	assert.Equal(t, "channel_not_found", apiErr.Code)
}

func TestClientAlreadyReactedIsSuccess(t *testing.T) {
	var gotBody map[string]string
	withAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"ok":false,"error":"already_reacted"}`))
	})

	require.NoError(t, NewClient(0).AddReaction(context.Background(), "xoxb-1", "C1", "1.0", "warning"))
	assert.Equal(t, map[string]string{"channel": "C1", "timestamp": "1.0", "name": "warning"}, gotBody)
}

func TestClientHTTPStatusError(t *testing.T) {
	withAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := NewClient(0).PostEphemeral(context.Background(), "xoxb-1", OutgoingMessage{Channel: "C1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http status 429")
}

func TestClientRequiresToken(t *testing.T) {
	err := NewClient(0).OpenView(context.Background(), " ", "trigger", View{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing token")
}
