package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"whchecker-backend/internal/shared/storage/db"
)

func TestRunCommands(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := db.Connect(ctx, "sqlite:"+filepath.Join(t.TempDir(), "whc.db"), db.DefaultMigrateOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, run(ctx, "up", sqlDB, db.DialectSQLite))
	require.NoError(t, run(ctx, "status", sqlDB, db.DialectSQLite))
	require.NoError(t, run(ctx, "down", sqlDB, db.DialectSQLite))
	require.NoError(t, run(ctx, "up", sqlDB, db.DialectSQLite))
	require.Error(t, run(ctx, "sideways", sqlDB, db.DialectSQLite))
}
