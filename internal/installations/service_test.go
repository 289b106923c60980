package installations

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallKey(t *testing.T) {
	assert.Equal(t, "T1", InstallKey("T1", "E1"))
	assert.Equal(t, "E1", InstallKey("", "E1"))
	assert.Equal(t, "single", InstallKey(" ", ""))
}

func TestStoreInstallationKeepsPreviousBotToken(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryRepo(), "")

	require.NoError(t, store.StoreInstallation(ctx, Installation{
		TeamID:    "T1",
		BotToken:  "xoxb-first",
		BotUserID: "B1",
		BotScopes: []string{"chat:write"},
	}))
	require.NoError(t, store.StoreInstallation(ctx, Installation{TeamID: "T1", InstallerUserID: "U9"}))

	inst, err := store.FetchInstallation(ctx, "T1", "")
	require.NoError(t, err)
	assert.Equal(t, "xoxb-first", inst.BotToken)
	assert.Equal(t, "B1", inst.BotUserID)
	assert.Equal(t, []string{"chat:write"}, inst.BotScopes)
	assert.Equal(t, "U9", inst.InstallerUserID)
}

func TestStoreInstallationReplacesBotToken(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryRepo(), "")

	require.NoError(t, store.StoreInstallation(ctx, Installation{TeamID: "T1", BotToken: "xoxb-old"}))
	require.NoError(t, store.StoreInstallation(ctx, Installation{TeamID: "T1", BotToken: "xoxb-new"}))

	inst, err := store.FetchInstallation(ctx, "T1", "")
	require.NoError(t, err)
	assert.Equal(t, "xoxb-new", inst.BotToken)
}

func TestFetchInstallationFallsBackToDefaultToken(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryRepo(), "xoxb-env")

	inst, err := store.FetchInstallation(ctx, "T2", "E2")
	require.NoError(t, err)
	assert.Equal(t, "xoxb-env", inst.BotToken)
	assert.Equal(t, "T2", inst.TeamID)
	assert.Equal(t, "E2", inst.EnterpriseID)
}

func TestFetchInstallationNotFound(t *testing.T) {
	store := NewStore(NewMemoryRepo(), "")
	_, err := store.FetchInstallation(context.Background(), "T3", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchInstallationByEnterprise(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryRepo(), "")
	require.NoError(t, store.StoreInstallation(ctx, Installation{EnterpriseID: "E1", BotToken: "xoxb-grid"}))

	inst, err := store.FetchInstallation(ctx, "", "E1")
	require.NoError(t, err)
	assert.Equal(t, "xoxb-grid", inst.BotToken)
}

func TestUserTokens(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryRepo(), "")

	_, err := store.GetUserToken(ctx, "T1", "U1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveUserToken(ctx, UserToken{TeamID: "T1", UserID: "U1", AccessToken: "xoxp-1"}))
	require.NoError(t, store.SaveUserToken(ctx, UserToken{TeamID: "T1", UserID: "U1", AccessToken: "xoxp-2"}))

	token, err := store.GetUserToken(ctx, "T1", "U1")
	require.NoError(t, err)
	assert.Equal(t, "xoxp-2", token)

	_, err = store.GetUserToken(ctx, "T2", "U1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, store.SaveUserToken(ctx, UserToken{TeamID: "T1", UserID: "U1"}))
}

type failingRepo struct{ *MemoryRepo }

func (failingRepo) GetInstallation(ctx context.Context, key string) (Installation, error) {
	return Installation{}, errors.New("db down")
}

func TestStoreInstallationPropagatesLookupError(t *testing.T) {
	store := NewStore(failingRepo{NewMemoryRepo()}, "")
	err := store.StoreInstallation(context.Background(), Installation{TeamID: "T1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")

	_, err = store.FetchInstallation(context.Background(), "T1", "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepoRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := NewMemoryRepo()
	assert.ErrorIs(t, repo.UpsertInstallation(ctx, Installation{TeamID: "T1"}), context.Canceled)
}
