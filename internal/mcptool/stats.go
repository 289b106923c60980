package mcptool

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"whchecker-backend/internal/analyzer"
)

// CatalogStatsTool handles the catalog_stats MCP tool.
type CatalogStatsTool struct {
	catalog *analyzer.Catalog
}

// NewCatalogStatsTool constructs the catalog_stats tool.
func NewCatalogStatsTool(catalog *analyzer.Catalog) *CatalogStatsTool {
	return &CatalogStatsTool{catalog: catalog}
}

// Definition returns the MCP tool definition for catalog_stats.
func (t *CatalogStatsTool) Definition() mcp.Tool {
	return mcp.NewTool("catalog_stats",
		mcp.WithDescription("Show how many rules of each kind the loaded phrase catalog contains."),
	)
}

// Handle processes the catalog_stats tool call.
func (t *CatalogStatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.catalog == nil {
		return mcp.NewToolResultError("catalog not loaded"), nil
	}
	stats := t.catalog.Stats()

	var sb strings.Builder
	sb.WriteString("## Catalog\n\n")
	sb.WriteString(fmt.Sprintf("- **Greeting openers**: %d\n", stats.Openers))
	sb.WriteString(fmt.Sprintf("- **5W1H patterns**: %d\n", stats.DimensionRules))
	sb.WriteString(fmt.Sprintf("- **Ambiguous phrases**: %d\n", stats.AmbiguousPhrases))
	sb.WriteString(fmt.Sprintf("- **Negative phrases**: %d\n", stats.NegativePhrases))
	sb.WriteString(fmt.Sprintf("- **Escalation signals**: %d\n", stats.Signals))
	sb.WriteString(fmt.Sprintf("- **Casual indicators**: %d\n", stats.CasualIndicators))
	return mcp.NewToolResultText(sb.String()), nil
}
