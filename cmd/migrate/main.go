package main

// Run database migrations:
//   go run ./cmd/migrate [up|status|down]

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"whchecker-backend/internal/shared/config"
	"whchecker-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	_, _, dialect, err := db.ParseURL(cfg.DatabaseURL)
	if err != nil {
		log.Printf("invalid DATABASE_URL: %v", err)
		os.Exit(1)
	}

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := run(ctx, command, sqlDB, dialect); err != nil {
		log.Printf("migrate %s: %v", command, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, sqlDB *sql.DB, dialect db.Dialect) error {
	switch command {
	case "up":
		return db.RunMigrations(ctx, sqlDB, dialect)
	case "status":
		return db.MigrationStatus(ctx, sqlDB, dialect)
	case "down":
		return db.RollbackLast(ctx, sqlDB, dialect)
	default:
		return fmt.Errorf("unknown command %q (want up, status or down)", command)
	}
}
