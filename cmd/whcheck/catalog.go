package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"whchecker-backend/internal/analyzer"
)

// createCatalogCommand creates the catalog command group.
func createCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect phrase catalogs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(createCatalogValidateCommand(afero.NewOsFs()))
	return cmd
}

// createCatalogValidateCommand compiles a catalog file and reports its size.
func createCatalogValidateCommand(fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a catalog file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("file")
			if err != nil {
				return fmt.Errorf("file flag error: %w", err)
			}

			var catalog *analyzer.Catalog
			if path == "" {
				path = "(built-in)"
				catalog, err = analyzer.DefaultCatalog()
			} else {
				catalog, err = analyzer.LoadCatalog(fs, path)
			}
			if err != nil {
				return fmt.Errorf("validation error: %w", err)
			}

			s := catalog.Stats()
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "catalog %s is valid\n", path)
			_, _ = fmt.Fprintf(out, "  openers:           %d\n", s.Openers)
			_, _ = fmt.Fprintf(out, "  5W1H patterns:     %d\n", s.DimensionRules)
			_, _ = fmt.Fprintf(out, "  ambiguous phrases: %d\n", s.AmbiguousPhrases)
			_, _ = fmt.Fprintf(out, "  negative phrases:  %d\n", s.NegativePhrases)
			_, _ = fmt.Fprintf(out, "  signals:           %d\n", s.Signals)
			_, _ = fmt.Fprintf(out, "  casual indicators: %d\n", s.CasualIndicators)
			return nil
		},
	}
	cmd.Flags().String("file", "", "Catalog YAML file (defaults to the built-in catalog)")
	return cmd
}
