package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts rewrite generators. Implementations return the raw JSON object
// produced by the model; callers parse and validate it.
type Client interface {
	SuggestRewrite(ctx context.Context, input SuggestInput) (json.RawMessage, error)
}

// SuggestInput carries the analyzed message and its findings.
type SuggestInput struct {
	Text             string
	MissingKeys      []string
	AmbiguousPhrases []string
	NegativePhrases  []string
}

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// ErrEmptyResponse is returned when a provider answers with no content.
var ErrEmptyResponse = errors.New("llm response empty content")
