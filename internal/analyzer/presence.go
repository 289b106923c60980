package analyzer

import "strings"

// DetectMissing reports the 5W1H dimensions the text does not convey, in key order.
// A text that opens with a greeting or acknowledgment is treated as casual chat and
// reports nothing, even when a request follows the greeting.
func (c *Catalog) DetectMissing(text string) []MissingItem {
	trimmed := strings.TrimSpace(text)
	missing := make([]MissingItem, 0, len(c.dimensions))
	if hasPrefixAny(trimmed, c.openers) {
		return missing
	}

	compact := stripSpace(trimmed)
	for _, rule := range c.dimensions {
		if rule.patterns.matchAny(compact) {
			continue
		}
		missing = append(missing, MissingItem{Key: rule.key, Reason: rule.reason})
	}
	return missing
}

// stripSpace removes every Unicode whitespace rune, including the ideographic space.
func stripSpace(text string) string {
	return strings.Join(strings.Fields(text), "")
}
