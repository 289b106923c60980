package installations

import "strings"

const singleWorkspaceKey = "single"

// Installation is a workspace's Slack app installation.
type Installation struct {
	TeamID          string   `json:"teamId,omitempty"`
	EnterpriseID    string   `json:"enterpriseId,omitempty"`
	AppID           string   `json:"appId,omitempty"`
	BotToken        string   `json:"-"`
	BotUserID       string   `json:"botUserId,omitempty"`
	BotScopes       []string `json:"botScopes,omitempty"`
	InstallerUserID string   `json:"installerUserId,omitempty"`
}

// Key returns the storage key: team, else enterprise, else the single-workspace key.
func (i Installation) Key() string {
	return InstallKey(i.TeamID, i.EnterpriseID)
}

// InstallKey resolves the storage key for a team or enterprise.
func InstallKey(teamID, enterpriseID string) string {
	if id := strings.TrimSpace(teamID); id != "" {
		return id
	}
	if id := strings.TrimSpace(enterpriseID); id != "" {
		return id
	}
	return singleWorkspaceKey
}

// UserToken is a user-scoped OAuth token used to edit that user's messages.
type UserToken struct {
	TeamID      string
	UserID      string
	AccessToken string
	Scopes      []string
}

func joinScopes(scopes []string) string {
	return strings.Join(scopes, ",")
}

func splitScopes(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
