package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"whchecker-backend/internal/analyzer"
)

// createAnalyzeCommand creates the analyze command.
func createAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Analyze a message (reads stdin when no text is given)",
		Long: "Analyze a message and print the result as JSON.\n" +
			"With --batch, stdin is read as one message per line and a JSON array is printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, _ := cmd.Flags().GetBool("batch")
			pretty, _ := cmd.Flags().GetBool("pretty")

			az, err := analyzerFromCommand(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			var out any
			if batch {
				texts, err := readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				if len(texts) > analyzer.MaxBatchSize {
					return fmt.Errorf("batch has %d messages, at most %d allowed", len(texts), analyzer.MaxBatchSize)
				}
				out = az.AnalyzeBatch(cmd.Context(), texts)
			} else {
				text, err := readText(cmd.InOrStdin(), args)
				if err != nil {
					return err
				}
				out = az.Analyze(cmd.Context(), text)
			}
			return writeJSON(cmd.OutOrStdout(), out, pretty)
		},
	}
	cmd.Flags().Bool("batch", false, "Read one message per line from stdin")
	cmd.Flags().Bool("pretty", false, "Indent the JSON output")
	return cmd
}

func readText(r io.Reader, args []string) (string, error) {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		raw, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(raw)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no message text given")
	}
	return text, nil
}

func readLines(r io.Reader) ([]string, error) {
	var texts []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if line := scanner.Text(); strings.TrimSpace(line) != "" {
			texts = append(texts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(texts) == 0 {
		return nil, errors.New("no messages on stdin")
	}
	return texts, nil
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
