package analyzer

import (
	"strings"
)

// RuleBasedRewrite appends one instruction per missing dimension, in key order,
// followed by a fixed example when anything is missing.
func (c *Catalog) RuleBasedRewrite(text string, missing []Dimension) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(text))

	added := 0
	for _, key := range dimensionOrder {
		if !containsDimension(missing, key) {
			continue
		}
		b.WriteString("\n- ")
		b.WriteString(c.fallback.instructions[key])
		added++
	}
	if added > 0 {
		b.WriteString("\n")
		b.WriteString(c.fallback.example)
	}
	return strings.TrimSpace(b.String())
}

// fallbackSuggestion builds the deterministic suggestion used when generation
// produced nothing.
func (c *Catalog) fallbackSuggestion(text string, missing []MissingItem, matches []RuleMatch) *Suggestion {
	keys := missingKeys(missing)

	hints := make([]string, 0, 3)
	if len(keys) > 0 {
		labels := make([]string, 0, len(keys))
		for _, k := range keys {
			labels = append(labels, k.Label())
		}
		hints = append(hints, "不足: "+strings.Join(labels, "・"))
	}
	if amb := quotePhrases(phrasesIn(matches, CategoryAmbiguous)); amb != "" {
		hints = append(hints, "曖昧: "+amb)
	}
	if neg := quotePhrases(phrasesIn(matches, CategoryNegative)); neg != "" {
		hints = append(hints, "否定: "+neg)
	}

	return &Suggestion{
		Rewrite:        c.RuleBasedRewrite(text, keys),
		Rationale:      hints,
		ImprovedPoints: keys,
	}
}

func quotePhrases(phrases []string) string {
	quoted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		quoted = append(quoted, "「"+p+"」")
	}
	return strings.Join(quoted, "、")
}
