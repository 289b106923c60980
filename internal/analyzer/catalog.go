package analyzer

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed catalog/default.yaml
var defaultCatalogYAML []byte

// catalogFile mirrors the YAML layout of a rule catalog.
type catalogFile struct {
	Presence struct {
		Openers    []string            `yaml:"openers"`
		Dimensions []dimensionRuleFile `yaml:"dimensions"`
	} `yaml:"presence"`
	Phrases struct {
		Ambiguous []phraseFile `yaml:"ambiguous"`
		Negative  []phraseFile `yaml:"negative"`
	} `yaml:"phrases"`
	Scoring  scoringFile  `yaml:"scoring"`
	Fallback fallbackFile `yaml:"fallback"`
}

type dimensionRuleFile struct {
	Key      string   `yaml:"key"`
	Reason   string   `yaml:"reason"`
	Patterns []string `yaml:"patterns"`
}

type phraseFile struct {
	Phrase string `yaml:"phrase"`
	Reason string `yaml:"reason"`
}

type scoringFile struct {
	CasualOpeners       []string        `yaml:"casual_openers"`
	CasualReplies       []string        `yaml:"casual_replies"`
	CasualReason        string          `yaml:"casual_reason"`
	Signals             []signalFile    `yaml:"signals"`
	CasualPenaltyReason string          `yaml:"casual_penalty_reason"`
	CasualIndicators    []indicatorFile `yaml:"casual_indicators"`
}

type signalFile struct {
	Name     string   `yaml:"name"`
	Points   int      `yaml:"points"`
	Reason   string   `yaml:"reason"`
	Patterns []string `yaml:"patterns"`
}

type indicatorFile struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

type fallbackFile struct {
	Instructions map[string]string `yaml:"instructions"`
	Example      string            `yaml:"example"`
}

// Catalog is the compiled, read-only rule set shared by all analyses.
type Catalog struct {
	openers    []string
	dimensions []dimensionRule
	phrases    []phraseRule
	scoring    scoringRules
	fallback   fallbackRules
}

type patternSet []*regexp.Regexp

func (p patternSet) matchAny(text string) bool {
	for _, re := range p {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

type dimensionRule struct {
	key      Dimension
	reason   string
	patterns patternSet
}

type phraseRule struct {
	phrase   string
	category Category
	reason   string
}

type signalRule struct {
	name     string
	points   int
	reason   string
	patterns patternSet
}

type scoringRules struct {
	casualOpeners       []string
	casualReplies       []string
	casualReason        string
	signals             []signalRule
	casualPenaltyReason string
	casualIndicators    []signalRule
}

type fallbackRules struct {
	instructions map[Dimension]string
	example      string
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
})

// DefaultCatalog returns the embedded catalog, compiled once per process.
func DefaultCatalog() (*Catalog, error) {
	return defaultCatalog()
}

// LoadCatalog reads a catalog from fs. An empty path selects the embedded default.
func LoadCatalog(fs afero.Fs, path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalog decodes and compiles a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return compileCatalog(file)
}

func compileCatalog(file catalogFile) (*Catalog, error) {
	c := &Catalog{
		openers: nonEmpty(file.Presence.Openers),
	}

	byKey := make(map[Dimension]dimensionRule, len(dimensionOrder))
	for i, rule := range file.Presence.Dimensions {
		key, err := ParseDimension(rule.Key)
		if err != nil {
			return nil, fmt.Errorf("presence.dimensions[%d]: %w", i, err)
		}
		if _, dup := byKey[key]; dup {
			return nil, fmt.Errorf("presence.dimensions[%d]: duplicate key %s", i, key)
		}
		if strings.TrimSpace(rule.Reason) == "" {
			return nil, fmt.Errorf("presence.dimensions[%d]: reason is required", i)
		}
		patterns, err := compilePatterns(rule.Patterns)
		if err != nil {
			return nil, fmt.Errorf("presence.dimensions[%d]: %w", i, err)
		}
		byKey[key] = dimensionRule{key: key, reason: rule.Reason, patterns: patterns}
	}
	for _, key := range dimensionOrder {
		rule, ok := byKey[key]
		if !ok {
			return nil, fmt.Errorf("presence.dimensions: missing rules for %s", key)
		}
		c.dimensions = append(c.dimensions, rule)
	}

	for _, group := range []struct {
		category Category
		entries  []phraseFile
	}{
		{CategoryAmbiguous, file.Phrases.Ambiguous},
		{CategoryNegative, file.Phrases.Negative},
	} {
		for i, entry := range group.entries {
			if entry.Phrase == "" || strings.TrimSpace(entry.Reason) == "" {
				return nil, fmt.Errorf("phrases.%s[%d]: phrase and reason are required", group.category, i)
			}
			c.phrases = append(c.phrases, phraseRule{phrase: entry.Phrase, category: group.category, reason: entry.Reason})
		}
	}

	scoring, err := compileScoring(file.Scoring)
	if err != nil {
		return nil, err
	}
	c.scoring = scoring

	fallback, err := compileFallback(file.Fallback)
	if err != nil {
		return nil, err
	}
	c.fallback = fallback
	return c, nil
}

func compileScoring(file scoringFile) (scoringRules, error) {
	rules := scoringRules{
		casualOpeners:       nonEmpty(file.CasualOpeners),
		casualReplies:       nonEmpty(file.CasualReplies),
		casualReason:        strings.TrimSpace(file.CasualReason),
		casualPenaltyReason: strings.TrimSpace(file.CasualPenaltyReason),
	}
	if rules.casualReason == "" || rules.casualPenaltyReason == "" {
		return scoringRules{}, errors.New("scoring: casual_reason and casual_penalty_reason are required")
	}
	for i, s := range file.Signals {
		if s.Name == "" || s.Reason == "" {
			return scoringRules{}, fmt.Errorf("scoring.signals[%d]: name and reason are required", i)
		}
		if s.Points <= 0 {
			return scoringRules{}, fmt.Errorf("scoring.signals[%d]: points must be positive", i)
		}
		patterns, err := compilePatterns(s.Patterns)
		if err != nil {
			return scoringRules{}, fmt.Errorf("scoring.signals[%d]: %w", i, err)
		}
		rules.signals = append(rules.signals, signalRule{name: s.Name, points: s.Points, reason: s.Reason, patterns: patterns})
	}
	for i, ind := range file.CasualIndicators {
		if ind.Name == "" {
			return scoringRules{}, fmt.Errorf("scoring.casual_indicators[%d]: name is required", i)
		}
		patterns, err := compilePatterns(ind.Patterns)
		if err != nil {
			return scoringRules{}, fmt.Errorf("scoring.casual_indicators[%d]: %w", i, err)
		}
		rules.casualIndicators = append(rules.casualIndicators, signalRule{name: ind.Name, points: 1, patterns: patterns})
	}
	return rules, nil
}

func compileFallback(file fallbackFile) (fallbackRules, error) {
	rules := fallbackRules{
		instructions: make(map[Dimension]string, len(dimensionOrder)),
		example:      strings.TrimSpace(file.Example),
	}
	for raw, text := range file.Instructions {
		key, err := ParseDimension(raw)
		if err != nil {
			return fallbackRules{}, fmt.Errorf("fallback.instructions: %w", err)
		}
		rules.instructions[key] = strings.TrimSpace(text)
	}
	for _, key := range dimensionOrder {
		if rules.instructions[key] == "" {
			return fallbackRules{}, fmt.Errorf("fallback.instructions: missing %s", key)
		}
	}
	if rules.example == "" {
		return fallbackRules{}, errors.New("fallback.example is required")
	}
	return rules, nil
}

func compilePatterns(raw []string) (patternSet, error) {
	if len(raw) == 0 {
		return nil, errors.New("at least one pattern is required")
	}
	out := make(patternSet, 0, len(raw))
	for _, p := range raw {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Stats reports the size of each catalog section.
type Stats struct {
	Openers          int
	DimensionRules   int
	AmbiguousPhrases int
	NegativePhrases  int
	Signals          int
	CasualIndicators int
}

// Stats summarizes the compiled catalog.
func (c *Catalog) Stats() Stats {
	s := Stats{
		Openers:          len(c.openers),
		Signals:          len(c.scoring.signals),
		CasualIndicators: len(c.scoring.casualIndicators),
	}
	for _, d := range c.dimensions {
		s.DimensionRules += len(d.patterns)
	}
	for _, p := range c.phrases {
		if p.category == CategoryAmbiguous {
			s.AmbiguousPhrases++
		} else {
			s.NegativePhrases++
		}
	}
	return s
}

// isCasualReply reports whether text is one of replies on its own, ignoring
// case and trailing punctuation, symbols and emoji. "OK!" matches "OK"; "OKR" does not.
func isCasualReply(text string, replies []string) bool {
	core := strings.TrimRightFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	for _, reply := range replies {
		if strings.EqualFold(core, reply) {
			return true
		}
	}
	return false
}

func hasPrefixAny(text string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}
