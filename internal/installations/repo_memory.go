package installations

import (
	"context"
	"sync"
)

type MemoryRepo struct {
	mu            sync.RWMutex
	installations map[string]Installation
	tokens        map[string]UserToken
}

// NewMemoryRepo constructs an empty in-memory Repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		installations: make(map[string]Installation),
		tokens:        make(map[string]UserToken),
	}
}

func (r *MemoryRepo) UpsertInstallation(ctx context.Context, inst Installation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	inst.BotScopes = append([]string(nil), inst.BotScopes...)
	r.installations[inst.Key()] = inst
	return nil
}

func (r *MemoryRepo) GetInstallation(ctx context.Context, key string) (Installation, error) {
	if err := ctx.Err(); err != nil {
		return Installation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.installations[key]
	if !ok {
		return Installation{}, ErrNotFound
	}
	inst.BotScopes = append([]string(nil), inst.BotScopes...)
	return inst, nil
}

func (r *MemoryRepo) UpsertUserToken(ctx context.Context, token UserToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[tokenKey(token.TeamID, token.UserID)] = token
	return nil
}

func (r *MemoryRepo) GetUserToken(ctx context.Context, teamID, userID string) (UserToken, error) {
	if err := ctx.Err(); err != nil {
		return UserToken{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.tokens[tokenKey(teamID, userID)]
	if !ok {
		return UserToken{}, ErrNotFound
	}
	return token, nil
}

func tokenKey(teamID, userID string) string {
	return teamID + "|" + userID
}
