package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Wire schema (JSON):
// {
//   "missing": [{"key": "who|what|when|where|why|how", "reason": "string"}],
//   "matches": [{"phrase": "string", "category": "ambiguous|negative", "reason": "string"}],
//   "summary": {"hasIssues": bool, "issueCount": int >= 0},
//   "suggestion"?: {"rewrite": "non-empty", "rationale": ["string"], "improvedPoints": ["who", ...]},
//   "notification"?: {"score": int 0..10, "shouldNotify": bool, "reasons": ["string"]}
// }

var errNilSlice = errors.New("must be an array, not null")

// Validate checks the result against the wire schema.
func (r AnalysisResult) Validate() error {
	if r.Missing == nil {
		return fmt.Errorf("missing: %w", errNilSlice)
	}
	if r.Matches == nil {
		return fmt.Errorf("matches: %w", errNilSlice)
	}
	seen := make(map[Dimension]bool, len(r.Missing))
	last := -1
	for i, item := range r.Missing {
		if !item.Key.Valid() {
			return fmt.Errorf("missing[%d].key: invalid dimension %q", i, item.Key)
		}
		if seen[item.Key] {
			return fmt.Errorf("missing[%d].key: duplicate %s", i, item.Key)
		}
		idx := item.Key.index()
		if idx < last {
			return fmt.Errorf("missing[%d].key: %s out of order", i, item.Key)
		}
		last = idx
		seen[item.Key] = true
	}
	for i, m := range r.Matches {
		if !m.Category.Valid() {
			return fmt.Errorf("matches[%d].category: invalid category %q", i, m.Category)
		}
	}
	if r.Summary.IssueCount < 0 {
		return errors.New("summary.issueCount must be non-negative")
	}
	if r.Summary.IssueCount != len(r.Missing)+len(r.Matches) {
		return fmt.Errorf("summary.issueCount %d does not match %d findings", r.Summary.IssueCount, len(r.Missing)+len(r.Matches))
	}
	if r.Summary.HasIssues != (r.Summary.IssueCount > 0) {
		return errors.New("summary.hasIssues disagrees with issueCount")
	}
	if r.Suggestion != nil {
		if err := r.Suggestion.Validate(); err != nil {
			return fmt.Errorf("suggestion: %w", err)
		}
	}
	if r.Notification != nil {
		if err := r.Notification.Validate(); err != nil {
			return fmt.Errorf("notification: %w", err)
		}
	}
	return nil
}

// Validate checks suggestion constraints.
func (s Suggestion) Validate() error {
	if strings.TrimSpace(s.Rewrite) == "" {
		return errors.New("rewrite is required")
	}
	if s.Rationale == nil {
		return fmt.Errorf("rationale: %w", errNilSlice)
	}
	if s.ImprovedPoints == nil {
		return fmt.Errorf("improvedPoints: %w", errNilSlice)
	}
	for i, p := range s.ImprovedPoints {
		if !p.Valid() {
			return fmt.Errorf("improvedPoints[%d]: invalid dimension %q", i, p)
		}
	}
	return nil
}

// Validate checks notification constraints.
func (n NotificationScore) Validate() error {
	if n.Score < minScore || n.Score > maxScore {
		return fmt.Errorf("score %d out of range [%d,%d]", n.Score, minScore, maxScore)
	}
	if n.Reasons == nil {
		return fmt.Errorf("reasons: %w", errNilSlice)
	}
	return nil
}

// DecodeResult strictly decodes a wire-format result and validates it.
func DecodeResult(raw []byte) (AnalysisResult, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var result AnalysisResult
	if err := dec.Decode(&result); err != nil {
		return AnalysisResult{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := result.Validate(); err != nil {
		return AnalysisResult{}, err
	}
	return result, nil
}

// suggestionPayload is the generator output; unknown keys are ignored.
type suggestionPayload struct {
	Rewrite        *string     `json:"rewrite"`
	Rationale      []string    `json:"rationale"`
	ImprovedPoints []Dimension `json:"improvedPoints"`
}

// ParseSuggestion decodes a generator response, applies defaults and validates it.
func ParseSuggestion(raw json.RawMessage) (*Suggestion, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("empty suggestion payload")
	}
	var payload suggestionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal suggestion: %w", err)
	}
	if payload.Rewrite == nil {
		return nil, errors.New("rewrite is required")
	}
	s := &Suggestion{
		Rewrite:        *payload.Rewrite,
		Rationale:      payload.Rationale,
		ImprovedPoints: payload.ImprovedPoints,
	}
	if s.Rationale == nil {
		s.Rationale = []string{}
	}
	if s.ImprovedPoints == nil {
		s.ImprovedPoints = []Dimension{}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
