package analyzer

// MissingItem reports a 5W1H dimension the message does not convey.
type MissingItem struct {
	Key    Dimension `json:"key"`
	Reason string    `json:"reason"`
}

// RuleMatch reports a catalog phrase found verbatim in the message.
type RuleMatch struct {
	Phrase   string   `json:"phrase"`
	Category Category `json:"category"`
	Reason   string   `json:"reason"`
}

// NotificationScore is the escalation decision for a message.
type NotificationScore struct {
	Score        int      `json:"score"`
	ShouldNotify bool     `json:"shouldNotify"`
	Reasons      []string `json:"reasons"`
}

// Suggestion is an improved rewrite of the message.
type Suggestion struct {
	Rewrite        string      `json:"rewrite"`
	Rationale      []string    `json:"rationale"`
	ImprovedPoints []Dimension `json:"improvedPoints"`
}

// Summary aggregates the findings count.
type Summary struct {
	HasIssues  bool `json:"hasIssues"`
	IssueCount int  `json:"issueCount"`
}

// AnalysisResult is the validated output of Analyze.
type AnalysisResult struct {
	Missing      []MissingItem      `json:"missing"`
	Matches      []RuleMatch        `json:"matches"`
	Summary      Summary            `json:"summary"`
	Suggestion   *Suggestion        `json:"suggestion,omitempty"`
	Notification *NotificationScore `json:"notification,omitempty"`
}

// EmptyResult is the canonical no-issues result.
func EmptyResult() AnalysisResult {
	return AnalysisResult{
		Missing: []MissingItem{},
		Matches: []RuleMatch{},
		Summary: Summary{HasIssues: false, IssueCount: 0},
	}
}

// MissingKeys returns the keys of the missing items in order.
func (r AnalysisResult) MissingKeys() []Dimension {
	return missingKeys(r.Missing)
}

func missingKeys(items []MissingItem) []Dimension {
	keys := make([]Dimension, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.Key)
	}
	return keys
}

func phrasesIn(matches []RuleMatch, category Category) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Category == category {
			out = append(out, m.Phrase)
		}
	}
	return out
}

func summarize(missing []MissingItem, matches []RuleMatch) Summary {
	count := len(missing) + len(matches)
	return Summary{HasIssues: count > 0, IssueCount: count}
}
