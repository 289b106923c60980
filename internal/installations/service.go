package installations

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store applies installation policy on top of a Repo: re-installs that carry no
// bot token keep the stored one, and lookups fall back to a default bot token.
type Store struct {
	Repo            Repo
	DefaultBotToken string
}

// NewStore constructs a Store. defaultBotToken is used when no bot token is stored.
func NewStore(repo Repo, defaultBotToken string) *Store {
	return &Store{Repo: repo, DefaultBotToken: strings.TrimSpace(defaultBotToken)}
}

// StoreInstallation saves inst, keeping the previous bot credentials when inst has none.
func (s *Store) StoreInstallation(ctx context.Context, inst Installation) error {
	if s == nil || s.Repo == nil {
		return errors.New("installation store not configured")
	}
	if inst.BotToken == "" {
		prev, err := s.Repo.GetInstallation(ctx, inst.Key())
		switch {
		case err == nil:
			inst.BotToken = prev.BotToken
			inst.BotUserID = prev.BotUserID
			inst.BotScopes = prev.BotScopes
		case !errors.Is(err, ErrNotFound):
			return fmt.Errorf("load previous installation: %w", err)
		}
	}
	return s.Repo.UpsertInstallation(ctx, inst)
}

// FetchInstallation returns the installation for a team or enterprise. When no bot
// token is stored, the default bot token is used; with neither, ErrNotFound.
func (s *Store) FetchInstallation(ctx context.Context, teamID, enterpriseID string) (Installation, error) {
	if s == nil || s.Repo == nil {
		return Installation{}, errors.New("installation store not configured")
	}
	inst, err := s.Repo.GetInstallation(ctx, InstallKey(teamID, enterpriseID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Installation{}, err
	}
	if inst.BotToken == "" && s.DefaultBotToken != "" {
		if inst.TeamID == "" {
			inst.TeamID = teamID
		}
		if inst.EnterpriseID == "" {
			inst.EnterpriseID = enterpriseID
		}
		inst.BotToken = s.DefaultBotToken
	}
	if inst.BotToken == "" {
		return Installation{}, ErrNotFound
	}
	return inst, nil
}

// SaveUserToken stores the token a user granted during install.
func (s *Store) SaveUserToken(ctx context.Context, token UserToken) error {
	if s == nil || s.Repo == nil {
		return errors.New("installation store not configured")
	}
	if strings.TrimSpace(token.UserID) == "" || strings.TrimSpace(token.AccessToken) == "" {
		return errors.New("user id and access token are required")
	}
	return s.Repo.UpsertUserToken(ctx, token)
}

// GetUserToken returns the user's access token or ErrNotFound.
func (s *Store) GetUserToken(ctx context.Context, teamID, userID string) (string, error) {
	if s == nil || s.Repo == nil {
		return "", errors.New("installation store not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return "", ErrNotFound
	}
	token, err := s.Repo.GetUserToken(ctx, teamID, userID)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}
