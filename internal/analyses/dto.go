package analyses

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"whchecker-backend/internal/analyzer"
)

// MaxTextLength bounds a single message, in runes.
const MaxTextLength = 10000

type analyzeRequest struct {
	Text string `json:"text"`
}

type batchRequest struct {
	Texts []string `json:"texts"`
}

type batchResponse struct {
	Results []analyzer.AnalysisResult `json:"results"`
}

type fieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

func validateText(field, text string) *fieldIssue {
	if strings.TrimSpace(text) == "" {
		return &fieldIssue{Field: field, Issue: "required"}
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return &fieldIssue{Field: field, Issue: fmt.Sprintf("exceeds %d characters", MaxTextLength)}
	}
	return nil
}

func (r batchRequest) validate() []fieldIssue {
	if len(r.Texts) == 0 {
		return []fieldIssue{{Field: "texts", Issue: "required"}}
	}
	if len(r.Texts) > analyzer.MaxBatchSize {
		return []fieldIssue{{Field: "texts", Issue: fmt.Sprintf("at most %d items", analyzer.MaxBatchSize)}}
	}
	var issues []fieldIssue
	for i, text := range r.Texts {
		if issue := validateText(fmt.Sprintf("texts[%d]", i), text); issue != nil {
			issues = append(issues, *issue)
		}
	}
	return issues
}
