// Package mcptool exposes the analyzer as MCP tools.
//
// Each tool is a struct with its dependencies injected via constructor,
// a Definition() returning the mcp.Tool schema and a Handle() for calls.
package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"whchecker-backend/internal/analyzer"
)

// Analyzer is the analysis entry point the tools call.
type Analyzer interface {
	Analyze(ctx context.Context, text string) analyzer.AnalysisResult
}

// AnalyzeTool handles the analyze_message MCP tool.
type AnalyzeTool struct {
	analyzer Analyzer
}

// NewAnalyzeTool constructs the analyze_message tool.
func NewAnalyzeTool(a Analyzer) *AnalyzeTool {
	return &AnalyzeTool{analyzer: a}
}

// Definition returns the MCP tool definition for analyze_message.
func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_message",
		mcp.WithDescription(
			"Check a Japanese business chat message for missing 5W1H information, ambiguous or "+
				"negative phrasing, and whether it deserves an active notification. Returns a suggested rewrite.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The message to analyze"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: json (default) or markdown"),
			mcp.Enum("json", "markdown"),
		),
	)
}

// Handle processes the analyze_message tool call.
func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	result := t.analyzer.Analyze(ctx, text)
	if req.GetString("format", "json") == "markdown" {
		return mcp.NewToolResultText(renderMarkdown(result)), nil
	}

	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func renderMarkdown(result analyzer.AnalysisResult) string {
	var sb strings.Builder
	sb.WriteString("## 5W1H Check\n\n")
	if !result.Summary.HasIssues {
		sb.WriteString("問題は検出されませんでした。\n")
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("- **Issues**: %d\n", result.Summary.IssueCount))
	if result.Notification != nil {
		sb.WriteString(fmt.Sprintf("- **Score**: %d (notify: %t)\n", result.Notification.Score, result.Notification.ShouldNotify))
	}

	if len(result.Missing) > 0 {
		sb.WriteString("\n### 5W1H 不足\n\n")
		for _, m := range result.Missing {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", m.Key.Label(), m.Reason))
		}
	}
	if len(result.Matches) > 0 {
		sb.WriteString("\n### 表現\n\n")
		for _, m := range result.Matches {
			sb.WriteString(fmt.Sprintf("- 「%s」(%s): %s\n", m.Phrase, m.Category, m.Reason))
		}
	}
	if result.Suggestion != nil {
		sb.WriteString("\n### 提案文\n\n")
		sb.WriteString(result.Suggestion.Rewrite)
		sb.WriteString("\n")
	}
	return sb.String()
}
