package analyzer

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"whchecker-backend/internal/llm"
	"whchecker-backend/internal/shared/metrics"
	"whchecker-backend/internal/shared/telemetry"
)

const defaultBatchConcurrency = 4

// MaxBatchSize bounds AnalyzeBatch inputs accepted by the outer surfaces.
const MaxBatchSize = 50

// Analyzer runs the full pipeline for one message at a time. It holds only
// read-only configuration and is safe for concurrent use.
type Analyzer struct {
	catalog          *Catalog
	generator        llm.Client
	scoreNotify      bool
	batchConcurrency int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLLM sets the rewrite generator. A nil client disables generation.
func WithLLM(client llm.Client) Option {
	return func(a *Analyzer) {
		a.generator = client
	}
}

// WithNotification toggles escalation scoring.
func WithNotification(enabled bool) Option {
	return func(a *Analyzer) {
		a.scoreNotify = enabled
	}
}

// WithBatchConcurrency bounds parallel analyses in AnalyzeBatch.
func WithBatchConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.batchConcurrency = n
		}
	}
}

// New builds an Analyzer over catalog. Notification scoring is on by default.
func New(catalog *Catalog, opts ...Option) *Analyzer {
	a := &Analyzer{
		catalog:          catalog,
		scoreNotify:      true,
		batchConcurrency: defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Catalog returns the rules the analyzer runs with.
func (a *Analyzer) Catalog() *Catalog {
	return a.catalog
}

// GenerationEnabled reports whether a rewrite generator is configured.
func (a *Analyzer) GenerationEnabled() bool {
	return a.generator != nil
}

// Analyze returns a validated result for text. It never fails: generation
// problems fall back to the templated rewrite and invalid results are replaced
// by EmptyResult.
func (a *Analyzer) Analyze(ctx context.Context, text string) AnalysisResult {
	start := time.Now()

	missing := a.catalog.DetectMissing(text)
	matches := a.catalog.MatchPhrases(text)

	result := AnalysisResult{
		Missing: missing,
		Matches: matches,
		Summary: summarize(missing, matches),
	}
	if a.scoreNotify {
		score := a.catalog.Score(text, missingKeys(missing), matches)
		result.Notification = &score
	}

	outcome := a.generate(ctx, text, missing, matches)
	switch outcome.status {
	case generationSucceeded:
		result.Suggestion = outcome.suggestion
		metrics.IncSuggestion("llm")
	case generationFailed:
		telemetry.Warn("analyze.generation_failed", map[string]any{"error": outcome.err.Error()})
	}
	if result.Suggestion == nil && result.Summary.HasIssues {
		result.Suggestion = a.catalog.fallbackSuggestion(text, missing, matches)
		metrics.IncSuggestion("fallback")
	}

	if err := result.Validate(); err != nil {
		telemetry.Error("analyze.invalid_result", map[string]any{"error": err.Error()})
		metrics.IncAnalysisInvalid()
		return EmptyResult()
	}

	metrics.IncAnalyses(result.Summary.HasIssues)
	if result.Notification != nil && result.Notification.ShouldNotify {
		metrics.IncNotifications()
	}
	metrics.ObserveAnalysisDurationMs(metrics.SinceMillis(start))
	return result
}

// AnalyzeBatch analyzes texts with bounded parallelism. Results are aligned to inputs.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, texts []string) []AnalysisResult {
	results := make([]AnalysisResult, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.batchConcurrency)
	for i, text := range texts {
		g.Go(func() error {
			results[i] = a.Analyze(gctx, text)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

type generationStatus int

const (
	generationUnavailable generationStatus = iota
	generationSucceeded
	generationFailed
)

func (s generationStatus) String() string {
	switch s {
	case generationSucceeded:
		return "succeeded"
	case generationFailed:
		return "failed"
	default:
		return "unavailable"
	}
}

type generationOutcome struct {
	status     generationStatus
	suggestion *Suggestion
	err        error
}

func (a *Analyzer) generate(ctx context.Context, text string, missing []MissingItem, matches []RuleMatch) (outcome generationOutcome) {
	if a.generator == nil {
		return generationOutcome{status: generationUnavailable}
	}
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("analyze.generation_panic", map[string]any{"panic": fmt.Sprint(rec), "stack": string(debug.Stack())})
			outcome = generationOutcome{status: generationFailed, err: fmt.Errorf("generator panic: %v", rec)}
		}
	}()

	keys := missingKeys(missing)
	input := llm.SuggestInput{
		Text:             text,
		MissingKeys:      make([]string, 0, len(keys)),
		AmbiguousPhrases: phrasesIn(matches, CategoryAmbiguous),
		NegativePhrases:  phrasesIn(matches, CategoryNegative),
	}
	for _, k := range keys {
		input.MissingKeys = append(input.MissingKeys, string(k))
	}

	start := time.Now()
	raw, err := a.generator.SuggestRewrite(ctx, input)
	metrics.ObserveGenerationDurationMs(metrics.SinceMillis(start))
	if err != nil {
		return generationOutcome{status: generationFailed, err: err}
	}
	suggestion, err := ParseSuggestion(raw)
	if err != nil {
		return generationOutcome{status: generationFailed, err: fmt.Errorf("parse suggestion: %w", err)}
	}
	return generationOutcome{status: generationSucceeded, suggestion: suggestion}
}
