package slack

import (
	"context"
	"errors"
	"fmt"

	"whchecker-backend/internal/analyzer"
	"whchecker-backend/internal/installations"
	"whchecker-backend/internal/queue"
	"whchecker-backend/internal/shared/metrics"
	"whchecker-backend/internal/shared/telemetry"
)

const warningReaction = "warning"

// Analyzer is the analysis entry point used by the bot.
type Analyzer interface {
	Analyze(ctx context.Context, text string) analyzer.AnalysisResult
}

// InstallationStore resolves bot and user tokens.
type InstallationStore interface {
	FetchInstallation(ctx context.Context, teamID, enterpriseID string) (installations.Installation, error)
	StoreInstallation(ctx context.Context, inst installations.Installation) error
	SaveUserToken(ctx context.Context, token installations.UserToken) error
	GetUserToken(ctx context.Context, teamID, userID string) (string, error)
}

// Processor analyzes queued Slack messages and posts feedback when warranted.
type Processor struct {
	analyzer Analyzer
	installs InstallationStore
	api      API
}

// NewProcessor constructs a Processor that posts feedback through api.
func NewProcessor(a Analyzer, installs InstallationStore, api API) *Processor {
	return &Processor{analyzer: a, installs: installs, api: api}
}

// ShouldPost reports whether a result warrants feedback: it has issues and, when
// scored, the score recommends notifying.
func ShouldPost(result analyzer.AnalysisResult) bool {
	if !result.Summary.HasIssues {
		return false
	}
	if result.Notification != nil && !result.Notification.ShouldNotify {
		return false
	}
	return true
}

// Process handles one job. A failed reaction is logged and does not stop the
// threaded reply.
func (p *Processor) Process(ctx context.Context, msg queue.Message) error {
	if p == nil || p.analyzer == nil || p.installs == nil || p.api == nil {
		return errors.New("slack processor not configured")
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	result := p.analyzer.Analyze(ctx, msg.Text)
	fields := map[string]any{
		"request_id":  msg.RequestID,
		"team_id":     msg.TeamID,
		"channel":     msg.Channel,
		"issue_count": result.Summary.IssueCount,
	}
	if result.Notification != nil {
		fields["score"] = result.Notification.Score
	}
	if !ShouldPost(result) {
		telemetry.Debug("slack.message.skipped", fields)
		return nil
	}

	inst, err := p.installs.FetchInstallation(ctx, msg.TeamID, msg.EnterpriseID)
	if err != nil {
		return fmt.Errorf("fetch installation: %w", err)
	}

	if err := p.api.AddReaction(ctx, inst.BotToken, msg.Channel, msg.TS, warningReaction); err != nil {
		warn := copyFields(fields)
		warn["error"] = err.Error()
		telemetry.Warn("slack.reaction.failed", warn)
	}

	threadTS := msg.ThreadTS
	if threadTS == "" {
		threadTS = msg.TS
	}
	if _, err := p.api.PostMessage(ctx, inst.BotToken, OutgoingMessage{
		Channel:  msg.Channel,
		ThreadTS: threadTS,
		Text:     feedbackFallback,
		Blocks:   FeedbackBlocks(result),
	}); err != nil {
		return fmt.Errorf("post feedback: %w", err)
	}

	metrics.IncSlackFeedback()
	telemetry.Info("slack.feedback.posted", fields)
	return nil
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	return out
}
