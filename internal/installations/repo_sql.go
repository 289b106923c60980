package installations

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"whchecker-backend/internal/shared/storage/db"
)

// SQLRepo stores installations in postgres or sqlite. Queries are written with
// ? placeholders and rebound for postgres.
type SQLRepo struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func (r *SQLRepo) UpsertInstallation(ctx context.Context, inst Installation) error {
	const query = `
INSERT INTO slack_installations (install_key, team_id, enterprise_id, bot_token, bot_user_id, bot_scopes, app_id, installer_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON CONFLICT (install_key) DO UPDATE SET
  team_id = excluded.team_id,
  enterprise_id = excluded.enterprise_id,
  bot_token = excluded.bot_token,
  bot_user_id = excluded.bot_user_id,
  bot_scopes = excluded.bot_scopes,
  app_id = excluded.app_id,
  installer_id = excluded.installer_id,
  updated_at = CURRENT_TIMESTAMP`
	_, err := r.DB.ExecContext(ctx, r.rebind(query),
		inst.Key(),
		inst.TeamID,
		inst.EnterpriseID,
		inst.BotToken,
		inst.BotUserID,
		joinScopes(inst.BotScopes),
		inst.AppID,
		inst.InstallerUserID,
	)
	return err
}

func (r *SQLRepo) GetInstallation(ctx context.Context, key string) (Installation, error) {
	const query = `
SELECT team_id, enterprise_id, bot_token, bot_user_id, bot_scopes, app_id, installer_id
FROM slack_installations
WHERE install_key = ?
LIMIT 1`
	var inst Installation
	var scopes string
	err := r.DB.QueryRowContext(ctx, r.rebind(query), key).Scan(
		&inst.TeamID,
		&inst.EnterpriseID,
		&inst.BotToken,
		&inst.BotUserID,
		&scopes,
		&inst.AppID,
		&inst.InstallerUserID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Installation{}, ErrNotFound
		}
		return Installation{}, err
	}
	inst.BotScopes = splitScopes(scopes)
	return inst, nil
}

func (r *SQLRepo) UpsertUserToken(ctx context.Context, token UserToken) error {
	const query = `
INSERT INTO slack_user_tokens (team_id, user_id, access_token, scopes, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (team_id, user_id) DO UPDATE SET
  access_token = excluded.access_token,
  scopes = excluded.scopes,
  updated_at = CURRENT_TIMESTAMP`
	_, err := r.DB.ExecContext(ctx, r.rebind(query),
		token.TeamID,
		token.UserID,
		token.AccessToken,
		joinScopes(token.Scopes),
	)
	return err
}

func (r *SQLRepo) GetUserToken(ctx context.Context, teamID, userID string) (UserToken, error) {
	const query = `
SELECT access_token, scopes
FROM slack_user_tokens
WHERE team_id = ? AND user_id = ?
LIMIT 1`
	token := UserToken{TeamID: teamID, UserID: userID}
	var scopes string
	err := r.DB.QueryRowContext(ctx, r.rebind(query), teamID, userID).Scan(&token.AccessToken, &scopes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UserToken{}, ErrNotFound
		}
		return UserToken{}, err
	}
	token.Scopes = splitScopes(scopes)
	return token, nil
}

// rebind rewrites ? placeholders as $1..$n for postgres.
func (r *SQLRepo) rebind(query string) string {
	if r.Dialect != db.DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
