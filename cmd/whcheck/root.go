package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"whchecker-backend/internal/analyzer"
	"whchecker-backend/internal/bootstrap"
	"whchecker-backend/internal/llm"
	"whchecker-backend/internal/shared/config"
	"whchecker-backend/internal/shared/telemetry"
)

// createNewRootCommand creates the main root command that shows help by default.
func createNewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "whcheck",
		Short:         "Check Japanese business chat messages for missing 5W1H and risky phrasing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// stdout carries command output and the MCP protocol.
			telemetry.SetOutput(os.Stderr)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("catalog", "", "Path to a catalog YAML file (defaults to CATALOG_PATH or the built-in catalog)")
	rootCmd.PersistentFlags().Bool("no-llm", false, "Disable rewrite generation and use the templated fallback")

	rootCmd.AddCommand(
		createAnalyzeCommand(),
		createCatalogCommand(),
		createMCPCommand(),
	)
	return rootCmd
}

// analyzerFromCommand loads configuration and applies the persistent flags.
func analyzerFromCommand(ctx context.Context, cmd *cobra.Command) (*analyzer.Analyzer, error) {
	cfg := config.Load()

	catalogPath, err := cmd.Flags().GetString("catalog")
	if err != nil {
		return nil, fmt.Errorf("catalog flag error: %w", err)
	}
	if catalogPath != "" {
		cfg.CatalogPath = catalogPath
	}
	noLLM, err := cmd.Flags().GetBool("no-llm")
	if err != nil {
		return nil, fmt.Errorf("no-llm flag error: %w", err)
	}
	if noLLM {
		cfg.LLMProvider = llm.ProviderNone
	}

	return bootstrap.BuildAnalyzer(ctx, cfg, nil)
}
