package installations

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no installation or token is stored.
var ErrNotFound = errors.New("installation not found")

// Repo persists installations and user tokens.
type Repo interface {
	UpsertInstallation(ctx context.Context, inst Installation) error
	GetInstallation(ctx context.Context, key string) (Installation, error)
	UpsertUserToken(ctx context.Context, token UserToken) error
	GetUserToken(ctx context.Context, teamID, userID string) (UserToken, error)
}
