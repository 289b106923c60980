package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whchecker-backend/internal/analyzer"
)

func TestCreateNewRootCommand(t *testing.T) {
	t.Parallel()

	cmd := createNewRootCommand()

	if cmd.Use != "whcheck" {
		t.Errorf("Expected command use 'whcheck', got '%s'", cmd.Use)
	}
	if cmd.Short == "" {
		t.Error("Expected non-empty short description")
	}

	for _, name := range [][]string{{"analyze"}, {"catalog", "validate"}, {"mcp"}} {
		sub, _, err := cmd.Find(name)
		if err != nil {
			t.Fatalf("Expected %v command to exist, got error: %v", name, err)
		}
		if sub.RunE == nil {
			t.Errorf("Expected %v command to have RunE", name)
		}
	}
}

func TestNewRootCommandShowsHelp(t *testing.T) {
	t.Parallel()

	cmd := createNewRootCommand()

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Available Commands")
}

func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CATALOG_PATH", "")

	cmd := createNewRootCommand()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeArgs(t *testing.T) {
	out, err := runCommand(t, "", "analyze", "--no-llm", "まあ、いいけど")
	require.NoError(t, err)

	var result analyzer.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NoError(t, result.Validate())
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "まあ、いいけど", result.Matches[0].Phrase)
	require.NotNil(t, result.Suggestion)
	assert.NotEmpty(t, result.Suggestion.Rewrite)
}

func TestAnalyzeStdinPretty(t *testing.T) {
	out, err := runCommand(t, "あとで話そう\n", "analyze", "--no-llm", "--pretty")
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"missing\": [")

	var result analyzer.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Summary.HasIssues)
}

func TestAnalyzeBatch(t *testing.T) {
	out, err := runCommand(t, "まあ、いいけど\n\nあとで話そう\n", "analyze", "--no-llm", "--batch")
	require.NoError(t, err)

	var results []analyzer.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "まあ、いいけど", results[0].Matches[0].Phrase)
	assert.Equal(t, "あとで話そう", results[1].Matches[0].Phrase)
}

func TestAnalyzeEmptyInput(t *testing.T) {
	_, err := runCommand(t, "   \n", "analyze", "--no-llm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no message text")

	_, err = runCommand(t, "", "analyze", "--no-llm", "--batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no messages")
}

func TestAnalyzeBatchTooLarge(t *testing.T) {
	lines := strings.Repeat("別に\n", analyzer.MaxBatchSize+1)
	_, err := runCommand(t, lines, "analyze", "--no-llm", "--batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most")
}

func TestAnalyzeMissingCatalog(t *testing.T) {
	_, err := runCommand(t, "", "analyze", "--no-llm", "--catalog", filepath.Join(t.TempDir(), "nope.yaml"), "別に")
	require.Error(t, err)
}

func TestCatalogValidateBuiltIn(t *testing.T) {
	out, err := runCommand(t, "", "catalog", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "catalog (built-in) is valid")
	assert.Contains(t, out, "ambiguous phrases:")
}

func TestCatalogValidateFile(t *testing.T) {
	t.Parallel()

	raw, err := os.ReadFile(filepath.Join("..", "..", "internal", "analyzer", "catalog", "default.yaml"))
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/c/good.yaml", raw, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/c/bad.yaml", []byte("version: [\n"), 0o644))

	cmd := createCatalogValidateCommand(fs)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	cmd.SetArgs([]string{"--file", "/c/good.yaml"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "catalog /c/good.yaml is valid")

	cmd.SetArgs([]string{"--file", "/c/bad.yaml"})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")
}
