package main

import (
	"github.com/spf13/cobra"

	"whchecker-backend/internal/mcptool"
)

// createMCPCommand serves the analyzer tools over stdio.
func createMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the analyze_message MCP tool over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			az, err := analyzerFromCommand(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			return mcptool.ServeStdio(az)
		},
	}
}
