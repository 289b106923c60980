package config

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// loadEnvFiles applies KEY=VALUE pairs from the given files when they exist.
// Variables already present in the process environment win. Errors are ignored.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		for key, val := range parseEnv(f) {
			if _, set := os.LookupEnv(key); !set {
				_ = os.Setenv(key, val)
			}
		}
		_ = f.Close()
	}
}

// parseEnv reads dotenv lines: comments, blank lines, an optional "export "
// prefix, and single- or double-quoted values. Unquoted values drop a trailing
// " #" comment.
func parseEnv(r io.Reader) map[string]string {
	vars := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, val, ok := parseEnvLine(scanner.Text())
		if ok {
			vars[key] = val
		}
	}
	return vars
}

func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")
	key, val, found := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	val = strings.TrimSpace(val)
	if n := len(val); n >= 2 && (val[0] == '"' || val[0] == '\'') && val[n-1] == val[0] {
		return key, val[1 : n-1], true
	}
	if i := strings.Index(val, " #"); i >= 0 {
		val = strings.TrimSpace(val[:i])
	}
	return key, val, true
}
