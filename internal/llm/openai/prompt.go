package openai

import (
	"fmt"

	"whchecker-backend/internal/llm"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const systemPromptFixJSON = "You are a JSON repair tool. Return only a valid JSON object with the keys rewrite, rationale and improvedPoints."

// BuildPrompt creates the chat messages for a rewrite suggestion request.
func BuildPrompt(input llm.SuggestInput) []Message {
	return []Message{
		{Role: "system", Content: llm.SystemPrompt()},
		{Role: "user", Content: llm.UserPrompt(input)},
	}
}

func buildFixPrompt(raw []byte) []Message {
	return []Message{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "user", Content: fmt.Sprintf("Fix this JSON. Output JSON only:\n%s", string(raw))},
	}
}
