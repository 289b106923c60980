package analyses

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"whchecker-backend/internal/analyzer"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog, err := analyzer.DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	router := gin.New()
	NewHandler(analyzer.New(catalog)).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func postJSON(router http.Handler, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestAnalyzeReturnsResult(t *testing.T) {
	router := setupRouter(t)
	resp := postJSON(router, "/api/v1/analyze", map[string]string{"text": "明日までに資料を送ってください"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	result, err := analyzer.DecodeResult(resp.Body.Bytes())
	if err != nil {
		t.Fatalf("response does not match schema: %v", err)
	}
	keys := result.MissingKeys()
	want := []analyzer.Dimension{analyzer.Who, analyzer.Where, analyzer.Why, analyzer.How}
	if len(keys) != len(want) {
		t.Fatalf("missing keys: got %v want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("missing keys: got %v want %v", keys, want)
		}
	}
	if result.Notification == nil || result.Notification.Score != 6 || !result.Notification.ShouldNotify {
		t.Fatalf("unexpected notification: %+v", result.Notification)
	}
	if result.Suggestion == nil || result.Suggestion.Rewrite == "" {
		t.Fatalf("expected fallback suggestion")
	}
}

func TestAnalyzeRejectsBlankText(t *testing.T) {
	router := setupRouter(t)
	for _, text := range []string{"", "   ", "　\n"} {
		resp := postJSON(router, "/api/v1/analyze", map[string]string{"text": text})
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("text %q: expected status 400, got %d", text, resp.Code)
		}
	}
}

func TestAnalyzeRejectsLongText(t *testing.T) {
	router := setupRouter(t)
	resp := postJSON(router, "/api/v1/analyze", map[string]string{"text": strings.Repeat("あ", MaxTextLength+1)})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestAnalyzeRejectsInvalidJSON(t *testing.T) {
	router := setupRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestAnalyzeBatchAligned(t *testing.T) {
	router := setupRouter(t)
	texts := []string{"明日までに資料を送ってください", "おはようございます", "なるはやでお願いします"}
	resp := postJSON(router, "/api/v1/analyze/batch", map[string][]string{"texts": texts})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Results) != len(texts) {
		t.Fatalf("expected %d results, got %d", len(texts), len(out.Results))
	}
	for i, raw := range out.Results {
		if _, err := analyzer.DecodeResult(raw); err != nil {
			t.Fatalf("result %d does not match schema: %v", i, err)
		}
	}
}

func TestAnalyzeBatchLimits(t *testing.T) {
	router := setupRouter(t)

	resp := postJSON(router, "/api/v1/analyze/batch", map[string][]string{"texts": {}})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("empty batch: expected status 400, got %d", resp.Code)
	}

	tooMany := make([]string, analyzer.MaxBatchSize+1)
	for i := range tooMany {
		tooMany[i] = "確認お願いします"
	}
	resp = postJSON(router, "/api/v1/analyze/batch", map[string][]string{"texts": tooMany})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("oversized batch: expected status 400, got %d", resp.Code)
	}

	resp = postJSON(router, "/api/v1/analyze/batch", map[string][]string{"texts": {"ok", " "}})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("blank item: expected status 400, got %d", resp.Code)
	}
	var body struct {
		Error struct {
			Details []fieldIssue `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if len(body.Error.Details) != 1 || body.Error.Details[0].Field != "texts[1]" {
		t.Fatalf("unexpected details: %+v", body.Error.Details)
	}
}
