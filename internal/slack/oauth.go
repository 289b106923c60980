package slack

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"whchecker-backend/internal/installations"
	"whchecker-backend/internal/shared/config"
	"whchecker-backend/internal/shared/server/respond"
	"whchecker-backend/internal/shared/telemetry"
)

var slackEndpoint = oauth2.Endpoint{
	AuthURL:   "https://slack.com/oauth/v2/authorize",
	TokenURL:  "https://slack.com/api/oauth.v2.access",
	AuthStyle: oauth2.AuthStyleInParams,
}

const stateTTL = 10 * time.Minute

// ErrInvalidState is returned for unknown, reused or expired OAuth states.
var ErrInvalidState = errors.New("invalid oauth state")

// StateStore issues one-time OAuth state values.
type StateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

// NewStateStore constructs a StateStore. A non-positive ttl uses the 10 minute default.
func NewStateStore(ttl time.Duration, now func() time.Time) *StateStore {
	if ttl <= 0 {
		ttl = stateTTL
	}
	if now == nil {
		now = time.Now
	}
	return &StateStore{states: make(map[string]time.Time), ttl: ttl, now: now}
}

// Issue returns a fresh state and drops expired ones.
func (s *StateStore) Issue() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.states {
		if now.After(exp) {
			delete(s.states, k)
		}
	}
	state := uuid.NewString()
	s.states[state] = now.Add(s.ttl)
	return state
}

// Consume validates and removes state.
func (s *StateStore) Consume(state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.states[state]
	if !ok {
		return ErrInvalidState
	}
	delete(s.states, state)
	if s.now().After(exp) {
		return ErrInvalidState
	}
	return nil
}

// OAuthHandler runs the OAuth v2 install flow.
type OAuthHandler struct {
	oauth      *oauth2.Config
	botScopes  []string
	userScopes []string
	states     *StateStore
	installs   InstallationStore
}

// NewOAuthHandler constructs an OAuthHandler. A nil states gets a fresh StateStore.
func NewOAuthHandler(cfg config.SlackConfig, installs InstallationStore, states *StateStore) *OAuthHandler {
	if states == nil {
		states = NewStateStore(stateTTL, nil)
	}
	return &OAuthHandler{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     slackEndpoint,
		},
		botScopes:  cfg.BotScopes,
		userScopes: cfg.UserScopes,
		states:     states,
		installs:   installs,
	}
}

// AuthURL returns the Slack authorize URL for a new state.
func (h *OAuthHandler) AuthURL() string {
	return h.oauth.AuthCodeURL(h.states.Issue(),
		oauth2.SetAuthURLParam("scope", strings.Join(h.botScopes, ",")),
		oauth2.SetAuthURLParam("user_scope", strings.Join(h.userScopes, ",")),
	)
}

// Install redirects to Slack's consent screen.
func (h *OAuthHandler) Install(c *gin.Context) {
	c.Redirect(http.StatusFound, h.AuthURL())
}

// Callback exchanges the code and stores the installation and the installer's user token.
func (h *OAuthHandler) Callback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		respond.BadRequest(c, "installation was not approved", gin.H{"reason": reason})
		return
	}
	if err := h.states.Consume(c.Query("state")); err != nil {
		respond.BadRequest(c, "invalid or expired state", nil)
		return
	}
	code := c.Query("code")
	if code == "" {
		respond.BadRequest(c, "code is required", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		telemetry.Error("slack.oauth.exchange_failed", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusBadGateway, "oauth_exchange_failed", "unable to complete installation", nil)
		return
	}

	inst, user := installationFromToken(token)
	if err := h.installs.StoreInstallation(ctx, inst); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unable to store installation", nil)
		return
	}
	if user.UserID != "" && user.AccessToken != "" {
		if err := h.installs.SaveUserToken(ctx, user); err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "unable to store user token", nil)
			return
		}
	}

	telemetry.Info("slack.oauth.installed", map[string]any{
		"team_id":       inst.TeamID,
		"enterprise_id": inst.EnterpriseID,
		"user_id":       user.UserID,
	})
	c.String(http.StatusOK, "WHchecker のインストールが完了しました。Slack に戻ってください。")
}

// installationFromToken reads the oauth.v2.access fields that oauth2.Token keeps as extras.
func installationFromToken(token *oauth2.Token) (installations.Installation, installations.UserToken) {
	team := extraObject(token, "team")
	enterprise := extraObject(token, "enterprise")
	authed := extraObject(token, "authed_user")

	inst := installations.Installation{
		TeamID:          stringField(team, "id"),
		EnterpriseID:    stringField(enterprise, "id"),
		AppID:           extraString(token, "app_id"),
		BotUserID:       extraString(token, "bot_user_id"),
		BotScopes:       splitScopeList(extraString(token, "scope")),
		InstallerUserID: stringField(authed, "id"),
	}
	if strings.EqualFold(token.TokenType, "bot") || strings.HasPrefix(token.AccessToken, "xoxb-") {
		inst.BotToken = token.AccessToken
	}

	user := installations.UserToken{
		TeamID:      inst.TeamID,
		UserID:      stringField(authed, "id"),
		AccessToken: stringField(authed, "access_token"),
		Scopes:      splitScopeList(stringField(authed, "scope")),
	}
	return inst, user
}

func extraString(token *oauth2.Token, key string) string {
	s, _ := token.Extra(key).(string)
	return s
}

func extraObject(token *oauth2.Token, key string) map[string]any {
	m, _ := token.Extra(key).(map[string]any)
	return m
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func splitScopeList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
