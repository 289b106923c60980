package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"whchecker-backend/internal/queue"
	"whchecker-backend/internal/shared/metrics"
	"whchecker-backend/internal/shared/server/middleware"
	"whchecker-backend/internal/shared/server/respond"
	"whchecker-backend/internal/shared/telemetry"
)

type eventEnvelope struct {
	Type         string       `json:"type"`
	Challenge    string       `json:"challenge"`
	TeamID       string       `json:"team_id"`
	EnterpriseID string       `json:"enterprise_id"`
	EventID      string       `json:"event_id"`
	Event        messageEvent `json:"event"`
}

type messageEvent struct {
	Type     string `json:"type"`
	Subtype  string `json:"subtype"`
	BotID    string `json:"bot_id"`
	Channel  string `json:"channel"`
	User     string `json:"user"`
	Text     string `json:"text"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts"`
}

// EventsHandler acknowledges Slack Events API callbacks and queues user messages.
// Retries of an event that was already queued are acked without queueing again.
type EventsHandler struct {
	Queue queue.Client
	Now   func() time.Time

	delivered *deliveredSet
}

// NewEventsHandler constructs an EventsHandler that queues messages on q.
func NewEventsHandler(q queue.Client) *EventsHandler {
	return &EventsHandler{Queue: q, Now: time.Now, delivered: newDeliveredSet()}
}

// Handle expects a request already verified by middleware.SlackSignature.
func (h *EventsHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respond.BadRequest(c, "unable to read body", nil)
		return
	}
	var env eventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		respond.BadRequest(c, "invalid event payload", nil)
		return
	}

	switch env.Type {
	case "url_verification":
		c.JSON(http.StatusOK, gin.H{"challenge": env.Challenge})
		return
	case "event_callback":
	default:
		c.Status(http.StatusOK)
		return
	}

	now := h.now()
	key := deliveryKey(env)
	if h.delivered != nil && h.delivered.Seen(key, now) {
		telemetry.Debug("slack.event.duplicate", map[string]any{
			"event_id":  env.EventID,
			"retry_num": c.GetHeader("X-Slack-Retry-Num"),
		})
		c.Status(http.StatusOK)
		return
	}

	ev := env.Event
	if !acceptMessage(ev) {
		c.Status(http.StatusOK)
		return
	}

	msg := queue.Message{
		TeamID:       env.TeamID,
		EnterpriseID: env.EnterpriseID,
		Channel:      ev.Channel,
		TS:           ev.TS,
		ThreadTS:     ev.ThreadTS,
		UserID:       ev.User,
		Text:         ev.Text,
		RequestID:    middleware.RequestIDFromContext(c),
		EnqueuedAt:   now.UTC().Format(time.RFC3339),
		Version:      queue.MessageVersion,
	}
	if err := h.Queue.Send(context.WithoutCancel(c.Request.Context()), msg); err != nil {
		telemetry.Error("slack.event.enqueue_failed", map[string]any{
			"request_id": msg.RequestID,
			"event_id":   env.EventID,
			"team_id":    env.TeamID,
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "unable to queue message", nil)
		return
	}

	if h.delivered != nil {
		h.delivered.Mark(key, now)
	}
	metrics.IncSlackEvents()
	c.Set(middleware.LogTeamIDKey, env.TeamID)
	c.Set(middleware.LogEventTypeKey, ev.Type)
	c.Status(http.StatusOK)
}

// acceptMessage keeps plain user messages and drops edits, joins, bot posts and blanks.
func acceptMessage(ev messageEvent) bool {
	if ev.Type != "message" {
		return false
	}
	if ev.Subtype != "" || ev.BotID != "" {
		return false
	}
	if ev.Channel == "" || ev.TS == "" {
		return false
	}
	return strings.TrimSpace(ev.Text) != ""
}

func (h *EventsHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}
