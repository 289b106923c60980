package slack

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"whchecker-backend/internal/installations"
	"whchecker-backend/internal/shared/server/respond"
	"whchecker-backend/internal/shared/telemetry"
)

type interactionPayload struct {
	Type       string    `json:"type"`
	TriggerID  string    `json:"trigger_id"`
	User       idRef     `json:"user"`
	Team       idRef     `json:"team"`
	Enterprise *idRef    `json:"enterprise"`
	Channel    idRef     `json:"channel"`
	Container  container `json:"container"`
	Message    struct {
		TS       string `json:"ts"`
		ThreadTS string `json:"thread_ts"`
	} `json:"message"`
	Actions []struct {
		ActionID string `json:"action_id"`
		Value    string `json:"value"`
	} `json:"actions"`
	View struct {
		CallbackID      string `json:"callback_id"`
		PrivateMetadata string `json:"private_metadata"`
		State           struct {
			Values map[string]map[string]struct {
				Value string `json:"value"`
			} `json:"values"`
		} `json:"state"`
	} `json:"view"`
}

type idRef struct {
	ID string `json:"id"`
}

type container struct {
	ChannelID string `json:"channel_id"`
	ThreadTS  string `json:"thread_ts"`
}

// ModalMetadata travels in the modal's private_metadata.
type ModalMetadata struct {
	Channel    string `json:"channel"`
	ThreadTS   string `json:"thread_ts,omitempty"`
	OriginalTS string `json:"original_ts,omitempty"`
}

// InteractionsHandler serves button clicks and modal submissions.
type InteractionsHandler struct {
	Installs   InstallationStore
	API        API
	InstallURL string
}

// NewInteractionsHandler constructs an InteractionsHandler.
func NewInteractionsHandler(installs InstallationStore, api API, installURL string) *InteractionsHandler {
	return &InteractionsHandler{Installs: installs, API: api, InstallURL: installURL}
}

// Handle expects a request already verified by middleware.SlackSignature.
func (h *InteractionsHandler) Handle(c *gin.Context) {
	raw := c.PostForm("payload")
	if strings.TrimSpace(raw) == "" {
		respond.BadRequest(c, "payload is required", nil)
		return
	}
	var p interactionPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		respond.BadRequest(c, "invalid interaction payload", nil)
		return
	}

	var err error
	switch p.Type {
	case "block_actions":
		err = h.openModal(c, p)
	case "view_submission":
		if p.View.CallbackID == CallbackSubmit {
			err = h.submitModal(c, p)
		}
	}
	if err != nil {
		telemetry.Error("slack.interaction.failed", map[string]any{
			"type":    p.Type,
			"team_id": p.Team.ID,
			"user_id": p.User.ID,
			"error":   err.Error(),
		})
	}
	// Slack only needs the ack; failures are reported through logs.
	c.Status(http.StatusOK)
}

func (h *InteractionsHandler) openModal(c *gin.Context, p interactionPayload) error {
	var value string
	found := false
	for _, a := range p.Actions {
		if a.ActionID == ActionOpenModal {
			value, found = a.Value, true
			break
		}
	}
	if !found {
		return nil
	}

	ctx := c.Request.Context()
	inst, err := h.Installs.FetchInstallation(ctx, p.Team.ID, enterpriseID(p))
	if err != nil {
		return err
	}

	channel := firstNonEmpty(p.Channel.ID, p.Container.ChannelID)
	threadTS := firstNonEmpty(p.Message.ThreadTS, p.Container.ThreadTS, p.Message.TS)
	originalTS := firstNonEmpty(p.Message.ThreadTS, p.Message.TS)

	if _, err := h.Installs.GetUserToken(ctx, p.Team.ID, p.User.ID); err != nil {
		if !errors.Is(err, installations.ErrNotFound) {
			return err
		}
		return h.API.PostEphemeral(ctx, inst.BotToken, authorizeMessage(channel, p.User.ID, h.InstallURL))
	}

	meta, err := json.Marshal(ModalMetadata{Channel: channel, ThreadTS: threadTS, OriginalTS: originalTS})
	if err != nil {
		return err
	}
	return h.API.OpenView(ctx, inst.BotToken, p.TriggerID, EditModal(DecodeRewrite(value), string(meta)))
}

func (h *InteractionsHandler) submitModal(c *gin.Context, p interactionPayload) error {
	var meta ModalMetadata
	if p.View.PrivateMetadata != "" {
		if err := json.Unmarshal([]byte(p.View.PrivateMetadata), &meta); err != nil {
			return err
		}
	}
	text := p.View.State.Values[modalBlockID][modalActionID].Value
	if meta.Channel == "" || strings.TrimSpace(text) == "" {
		return nil
	}

	ctx := c.Request.Context()
	userToken, err := h.Installs.GetUserToken(ctx, p.Team.ID, p.User.ID)
	if err != nil && !errors.Is(err, installations.ErrNotFound) {
		return err
	}
	if userToken != "" && meta.OriginalTS != "" {
		return h.API.UpdateMessage(ctx, userToken, meta.Channel, meta.OriginalTS, text)
	}

	inst, err := h.Installs.FetchInstallation(ctx, p.Team.ID, enterpriseID(p))
	if err != nil {
		return err
	}
	_, err = h.API.PostMessage(ctx, inst.BotToken, OutgoingMessage{
		Channel:  meta.Channel,
		ThreadTS: meta.ThreadTS,
		Text:     text,
	})
	return err
}

func authorizeMessage(channel, userID, installURL string) OutgoingMessage {
	if installURL == "" {
		return OutgoingMessage{
			Channel: channel,
			User:    userID,
			Text:    "元のメッセージを編集するには認可が必要です。管理者にお問い合わせください。",
		}
	}
	return OutgoingMessage{
		Channel: channel,
		User:    userID,
		Text:    "元のメッセージを編集するには認可が必要です。以下のリンクから許可をお願いします。\n" + installURL,
		Blocks:  authorizeBlocks(installURL),
	}
}

func enterpriseID(p interactionPayload) string {
	if p.Enterprise == nil {
		return ""
	}
	return p.Enterprise.ID
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
