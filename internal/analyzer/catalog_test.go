package analyzer

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	return c
}

func TestDefaultCatalogStats(t *testing.T) {
	c := mustCatalog(t)
	assert.Equal(t, Stats{
		Openers:          8,
		DimensionRules:   11,
		AmbiguousPhrases: 6,
		NegativePhrases:  5,
		Signals:          4,
		CasualIndicators: 4,
	}, c.Stats())
}

func TestDefaultCatalogCompiledOnce(t *testing.T) {
	a := mustCatalog(t)
	b := mustCatalog(t)
	assert.Same(t, a, b)

	c, err := LoadCatalog(nil, "  ")
	require.NoError(t, err)
	assert.Same(t, a, c)
}

func TestLoadCatalogFromFS(t *testing.T) {
	fs := afero.NewMemMapFs()
	custom := strings.Replace(string(defaultCatalogYAML), "  openers:\n", "  openers:\n    - 失礼します\n", 1)
	require.NoError(t, afero.WriteFile(fs, "/etc/whc/catalog.yaml", []byte(custom), 0o644))

	c, err := LoadCatalog(fs, "/etc/whc/catalog.yaml")
	require.NoError(t, err)
	assert.Equal(t, 9, c.Stats().Openers)
	assert.Empty(t, c.DetectMissing("失礼します、資料の件です"))
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(afero.NewMemMapFs(), "/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nope.yaml")
}

func TestParseCatalogRejectsInvalidInput(t *testing.T) {
	base := string(defaultCatalogYAML)
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "invalid regex",
			yaml:    strings.Replace(base, `'(ため|ので|理由|目的|背景|狙い)'`, `'(ため'`, 1),
			wantErr: "invalid pattern",
		},
		{
			name:    "unknown field",
			yaml:    strings.Replace(base, "presence:\n", "presence:\n  extra: true\n", 1),
			wantErr: "decode catalog",
		},
		{
			name:    "unknown dimension",
			yaml:    strings.Replace(base, "- key: why\n", "- key: whom\n", 1),
			wantErr: "unknown dimension",
		},
		{
			name:    "missing fallback example",
			yaml:    strings.Replace(base, "  example: 例）", "  example: ''\n  # ", 1),
			wantErr: "fallback.example",
		},
		{
			name:    "non-positive points",
			yaml:    strings.Replace(base, "points: 3", "points: 0", 1),
			wantErr: "points must be positive",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NotEqual(t, base, tc.yaml, "replacement did not apply")
			_, err := ParseCatalog([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
