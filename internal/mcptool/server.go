package mcptool

import (
	"github.com/mark3labs/mcp-go/server"

	"whchecker-backend/internal/analyzer"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// NewServer registers the analyzer tools on a new MCP server.
func NewServer(a *analyzer.Analyzer) *server.MCPServer {
	s := server.NewMCPServer(
		"whchecker",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Use analyze_message to review a Japanese business chat message before sending it."),
	)

	analyze := NewAnalyzeTool(a)
	s.AddTool(analyze.Definition(), analyze.Handle)

	stats := NewCatalogStatsTool(a.Catalog())
	s.AddTool(stats.Definition(), stats.Handle)
	return s
}

// ServeStdio serves the tools over stdin/stdout until the client disconnects.
func ServeStdio(a *analyzer.Analyzer) error {
	return server.ServeStdio(NewServer(a))
}
