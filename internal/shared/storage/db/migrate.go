package db

import (
	"context"
	"database/sql"
	"embed"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// goose keeps dialect and base FS in package globals.
var gooseMu sync.Mutex

// RunMigrations applies embedded SQL migrations via goose. If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sql.DB, dialect Dialect) error {
	if database == nil {
		return nil
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, "migrations")
}

// MigrationStatus logs applied and pending migrations.
func MigrationStatus(ctx context.Context, database *sql.DB, dialect Dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return err
	}
	return goose.StatusContext(ctx, database, "migrations")
}

// RollbackLast reverts the most recent migration.
func RollbackLast(ctx context.Context, database *sql.DB, dialect Dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return err
	}
	return goose.DownContext(ctx, database, "migrations")
}
