package analyses

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"whchecker-backend/internal/analyzer"
	"whchecker-backend/internal/shared/server/middleware"
	"whchecker-backend/internal/shared/server/respond"
)

// Analyzer runs single and batch analyses.
type Analyzer interface {
	Analyze(ctx context.Context, text string) analyzer.AnalysisResult
	AnalyzeBatch(ctx context.Context, texts []string) []analyzer.AnalysisResult
}

// Handler serves the analysis endpoints.
type Handler struct {
	Analyzer Analyzer
}

// NewHandler constructs a Handler.
func NewHandler(a Analyzer) *Handler {
	return &Handler{Analyzer: a}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
	rg.POST("/analyze/batch", h.analyzeBatch)
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid JSON body", nil)
		return
	}
	if issue := validateText("text", req.Text); issue != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "text is invalid", []fieldIssue{*issue})
		return
	}

	result := h.Analyzer.Analyze(c.Request.Context(), req.Text)
	c.Set(middleware.LogIssueCountKey, result.Summary.IssueCount)
	respond.OK(c, result)
}

func (h *Handler) analyzeBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid JSON body", nil)
		return
	}
	if issues := req.validate(); len(issues) > 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "texts are invalid", issues)
		return
	}

	results := h.Analyzer.AnalyzeBatch(c.Request.Context(), req.Texts)
	total := 0
	for _, r := range results {
		total += r.Summary.IssueCount
	}
	c.Set(middleware.LogIssueCountKey, total)
	respond.OK(c, batchResponse{Results: results})
}
