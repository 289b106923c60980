package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whchecker-backend/internal/llm"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o-mini", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	_, err := NewClient("", "gpt-4o-mini", 0)
	require.Error(t, err)
	_, err = NewClient("key", " ", 0)
	require.Error(t, err)

	c, err := NewClient("key", "gpt-4o-mini", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, c.httpClient.Timeout)
}

type recordedRequest struct {
	auth string
	body map[string]any
}

func newTestServer(t *testing.T, responses ...string) (*[]recordedRequest, *sync.Mutex) {
	t.Helper()
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	var mu sync.Mutex
	var seen []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		idx := len(seen)
		seen = append(seen, recordedRequest{auth: r.Header.Get("Authorization"), body: payload})
		mu.Unlock()
		if idx >= len(responses) {
			idx = len(responses) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(responses[idx]))
	}))
	t.Cleanup(server.Close)
	apiURL = server.URL
	return &seen, &mu
}

func TestSuggestRewriteSendsPromptAndReturnsContent(t *testing.T) {
	seen, mu := newTestServer(t, `{"choices":[{"message":{"role":"assistant","content":"{\"rewrite\":\"明日17時までに送付してください。\"}"}}],"usage":{"total_tokens":12}}`)

	client, err := NewClient("test-key", "gpt-4o-mini", time.Second)
	require.NoError(t, err)

	raw, err := client.SuggestRewrite(context.Background(), llm.SuggestInput{
		Text:        "明日までに資料を送ってください",
		MissingKeys: []string{"who", "where", "why", "how"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rewrite":"明日17時までに送付してください。"}`, string(raw))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, "Bearer test-key", req.auth)
	assert.Equal(t, "gpt-4o-mini", req.body["model"])
	assert.EqualValues(t, 0, req.body["temperature"])
	assert.Equal(t, map[string]any{"type": "json_object"}, req.body["response_format"])
	messages := req.body["messages"].([]any)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	assert.Contains(t, user["content"], "不足(5W1H): who, where, why, how")
}

func TestSuggestRewriteOmitsTemperatureForGPT5(t *testing.T) {
	seen, mu := newTestServer(t, `{"choices":[{"message":{"content":"{}"}}]}`)

	client, err := NewClient("test-key", "gpt-5-mini", time.Second)
	require.NoError(t, err)
	_, err = client.SuggestRewrite(context.Background(), llm.SuggestInput{Text: "x"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	_, hasTemp := (*seen)[0].body["temperature"]
	assert.False(t, hasTemp)
}

func TestSuggestRewriteRepairsInvalidJSON(t *testing.T) {
	seen, mu := newTestServer(t,
		`{"choices":[{"message":{"content":"rewrite: not json"}}]}`,
		`{"choices":[{"message":{"content":"{\"rewrite\":\"fixed\"}"}}]}`,
	)

	client, err := NewClient("test-key", "gpt-4o-mini", time.Second)
	require.NoError(t, err)
	raw, err := client.SuggestRewrite(context.Background(), llm.SuggestInput{Text: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rewrite":"fixed"}`, string(raw))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, *seen, 2)
}

func TestSuggestRewriteReportsAPIError(t *testing.T) {
	newTestServer(t, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)

	client, err := NewClient("test-key", "gpt-4o-mini", time.Second)
	require.NoError(t, err)
	_, err = client.SuggestRewrite(context.Background(), llm.SuggestInput{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestSuggestRewriteEmptyContent(t *testing.T) {
	newTestServer(t, `{"choices":[{"message":{"content":"  "}}]}`)

	client, err := NewClient("test-key", "gpt-4o-mini", time.Second)
	require.NoError(t, err)
	_, err = client.SuggestRewrite(context.Background(), llm.SuggestInput{Text: "x"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}
