package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"# local settings",
		"",
		"PORT=9090",
		"export ENV=staging",
		`SLACK_BOT_TOKEN="xoxb-quoted # not a comment"`,
		"LLM_MODEL='gpt-4o-mini'",
		"LOG_LEVEL=debug # verbose",
		"BROKEN LINE",
		"=nokey",
		"EMPTY=",
	}, "\n")

	got := parseEnv(strings.NewReader(input))
	assert.Equal(t, map[string]string{
		"PORT":            "9090",
		"ENV":             "staging",
		"SLACK_BOT_TOKEN": "xoxb-quoted # not a comment",
		"LLM_MODEL":       "gpt-4o-mini",
		"LOG_LEVEL":       "debug",
		"EMPTY":           "",
	}, got)
}

func TestLoadEnvFilesKeepsProcessEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("WHC_TEST_SET=from-file\nWHC_TEST_UNSET=from-file\n"), 0o600))

	t.Setenv("WHC_TEST_SET", "from-env")
	t.Setenv("WHC_TEST_UNSET", "")
	require.NoError(t, os.Unsetenv("WHC_TEST_UNSET"))

	loadEnvFiles(filepath.Join(t.TempDir(), "missing.env"), path)

	assert.Equal(t, "from-env", os.Getenv("WHC_TEST_SET"))
	assert.Equal(t, "from-file", os.Getenv("WHC_TEST_UNSET"))
}
