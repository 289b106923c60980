package analyzer

import "strings"

// MatchPhrases returns one match per catalog phrase contained verbatim in text.
// Ambiguous phrases come before negative ones, each in catalog order.
func (c *Catalog) MatchPhrases(text string) []RuleMatch {
	matches := make([]RuleMatch, 0)
	for _, p := range c.phrases {
		if !strings.Contains(text, p.phrase) {
			continue
		}
		matches = append(matches, RuleMatch{Phrase: p.phrase, Category: p.category, Reason: p.reason})
	}
	return matches
}
