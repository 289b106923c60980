package llm

import (
	_ "embed"
	"strings"
)

//go:embed prompts/suggest_v1.txt
var systemPromptV1 string

// SystemPrompt returns the instructions shared by every provider.
func SystemPrompt() string {
	return strings.TrimSpace(systemPromptV1)
}

// UserPrompt renders the message and its findings. Empty lists render as なし.
func UserPrompt(input SuggestInput) string {
	lines := []string{
		"原文メッセージ: " + input.Text,
		"不足(5W1H): " + joinOrNone(input.MissingKeys),
		"曖昧表現: " + joinOrNone(input.AmbiguousPhrases),
		"否定/攻撃的表現: " + joinOrNone(input.NegativePhrases),
		"要件:",
		"- 句読点・敬語を含む自然な文",
		"- 具体的な期限や方法を補う（必要な場合）",
		"- 1メッセージ、80〜180文字程度",
	}
	return strings.Join(lines, "\n")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "なし"
	}
	return strings.Join(items, ", ")
}
