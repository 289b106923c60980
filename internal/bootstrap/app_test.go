package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whchecker-backend/internal/installations"
	"whchecker-backend/internal/llm"
	"whchecker-backend/internal/shared/config"
	"whchecker-backend/internal/shared/server/middleware"
	"whchecker-backend/internal/slack"
)

type recordingAPI struct {
	mu     sync.Mutex
	posted []slack.OutgoingMessage
	done   chan struct{}
}

func (r *recordingAPI) PostMessage(ctx context.Context, token string, msg slack.OutgoingMessage) (string, error) {
	r.mu.Lock()
	r.posted = append(r.posted, msg)
	r.mu.Unlock()
	close(r.done)
	return "1.1", nil
}

func (r *recordingAPI) PostEphemeral(ctx context.Context, token string, msg slack.OutgoingMessage) error {
	return nil
}

func (r *recordingAPI) AddReaction(ctx context.Context, token, channel, ts, name string) error {
	return nil
}

func (r *recordingAPI) UpdateMessage(ctx context.Context, token, channel, ts, text string) error {
	return nil
}

func (r *recordingAPI) OpenView(ctx context.Context, token, triggerID string, view slack.View) error {
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Env:               "dev",
		LLMProvider:       llm.ProviderNone,
		NotificationGate:  true,
		WorkerConcurrency: 1,
		Slack: config.SlackConfig{
			SigningSecret: "secret",
			BotToken:      "xoxb-env",
		},
	}
}

func TestBuildInMemoryServesHealthAndAnalyze(t *testing.T) {
	app, err := Build(context.Background(), testConfig(), Options{SlackAPI: &recordingAPI{done: make(chan struct{})}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	assert.Nil(t, app.DB)

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"ok":true,"checks":{"database":"memory","suggestions":"fallback"}}`, resp.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"text":"明日までに資料を送ってください"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"shouldNotify":true`)
}

func TestBuildSlackEventReachesProcessor(t *testing.T) {
	api := &recordingAPI{done: make(chan struct{})}
	app, err := Build(context.Background(), testConfig(), Options{SlackAPI: api})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	body := `{"type":"event_callback","team_id":"T1","event":{"type":"message","channel":"C1","user":"U1","text":"明日までに資料を送ってください","ts":"1700000000.000100"}}`
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", middleware.SignSlackRequest("secret", ts, []byte(body)))
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	select {
	case <-api.done:
	case <-time.After(5 * time.Second):
		t.Fatal("feedback was not posted")
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.posted, 1)
	assert.Equal(t, "1700000000.000100", api.posted[0].ThreadTS)
}

func TestBuildRejectsUnsignedSlackEvent(t *testing.T) {
	app, err := Build(context.Background(), testConfig(), Options{SlackAPI: &recordingAPI{done: make(chan struct{})}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestBuildWithSQLite(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseURL = "sqlite:" + filepath.Join(t.TempDir(), "whc.db")
	app, err := Build(context.Background(), cfg, Options{SlackAPI: &recordingAPI{done: make(chan struct{})}, SkipLocalQueue: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	require.NotNil(t, app.DB)

	ctx := context.Background()
	require.NoError(t, app.Installations.StoreInstallation(ctx, installations.Installation{TeamID: "T1", BotToken: "xoxb-db"}))
	inst, err := app.Installations.FetchInstallation(ctx, "T1", "")
	require.NoError(t, err)
	assert.Equal(t, "xoxb-db", inst.BotToken)
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	_, err := Build(context.Background(), cfg, Options{SkipLocalQueue: true})
	assert.Error(t, err)
}

func TestBuildLLMWithoutCredentialsDisablesGeneration(t *testing.T) {
	for _, provider := range []string{llm.ProviderOpenAI, llm.ProviderGemini, llm.ProviderNone} {
		client, err := BuildLLM(context.Background(), config.Config{LLMProvider: provider, LLMModel: "m"})
		require.NoError(t, err)
		assert.Nil(t, client, provider)
	}
}

func TestBuildLLMOpenAI(t *testing.T) {
	client, err := BuildLLM(context.Background(), config.Config{LLMProvider: llm.ProviderOpenAI, LLMModel: "gpt-4o-mini", OpenAIAPIKey: "sk-test"})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestBuildAnalyzerCatalogOverride(t *testing.T) {
	cfg := testConfig()
	cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := BuildAnalyzer(context.Background(), cfg, nil)
	assert.Error(t, err)
}
