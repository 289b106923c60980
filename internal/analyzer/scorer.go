package analyzer

import (
	"fmt"
	"strings"
)

const (
	minScore        = 0
	maxScore        = 10
	notifyThreshold = 3
)

// Missing dimensions that raise the escalation score. where/why/how do not.
var scoredDimensions = []Dimension{Who, What, When}

// Score estimates whether a flagged message deserves an active notification.
// Every rule is evaluated independently; reasons are recorded in evaluation order.
func (c *Catalog) Score(text string, missing []Dimension, matches []RuleMatch) NotificationScore {
	trimmed := strings.TrimSpace(text)
	rules := c.scoring
	if hasPrefixAny(trimmed, rules.casualOpeners) || isCasualReply(trimmed, rules.casualReplies) {
		return NotificationScore{
			Score:        0,
			ShouldNotify: false,
			Reasons:      []string{rules.casualReason},
		}
	}

	score := 0
	reasons := make([]string, 0, 8)

	for _, signal := range rules.signals {
		if signal.patterns.matchAny(trimmed) {
			score += signal.points
			reasons = append(reasons, fmt.Sprintf("%s +%d", signal.reason, signal.points))
		}
	}

	penalty := 0
	for _, indicator := range rules.casualIndicators {
		if indicator.patterns.matchAny(trimmed) {
			penalty++
		}
	}
	if penalty > 0 {
		score -= penalty
		reasons = append(reasons, fmt.Sprintf("%s -%d", rules.casualPenaltyReason, penalty))
	}

	for _, key := range scoredDimensions {
		if containsDimension(missing, key) {
			score++
			reasons = append(reasons, key.Label()+"不足 +1")
		}
	}

	if hasCategory(matches, CategoryAmbiguous) {
		score++
		reasons = append(reasons, "曖昧表現 +1")
	}
	if hasCategory(matches, CategoryNegative) {
		score++
		reasons = append(reasons, "否定的表現 +1")
	}

	score = clampScore(score)
	hasIssues := len(missing) > 0 || len(matches) > 0
	return NotificationScore{
		Score:        score,
		ShouldNotify: hasIssues && score >= notifyThreshold,
		Reasons:      reasons,
	}
}

func clampScore(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

func containsDimension(keys []Dimension, key Dimension) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func hasCategory(matches []RuleMatch, category Category) bool {
	for _, m := range matches {
		if m.Category == category {
			return true
		}
	}
	return false
}
