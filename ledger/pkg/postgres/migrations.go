package postgres

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver with database/sql
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var EmbedMigrations embed.FS

func openSQL(connStr string) (*sql.DB, error) {
	goose.SetBaseFS(EmbedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database for migrations: %w", err)
	}
	return db, nil
}

// MigrateUp applies all pending ledger migrations.
func MigrateUp(log *slog.Logger, connStr string) error {
	db, err := openSQL(connStr)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info("ledger: running PostgreSQL migrations (up)")
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("ledger: PostgreSQL migrations completed")
	return nil
}

// MigrateDown rolls back the most recent ledger migration.
func MigrateDown(log *slog.Logger, connStr string) error {
	db, err := openSQL(connStr)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info("ledger: rolling back PostgreSQL migration (down)")
	if err := goose.Down(db, "migrations"); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}

// MigrateStatus prints the status of every ledger migration.
func MigrateStatus(log *slog.Logger, connStr string) error {
	db, err := openSQL(connStr)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info("ledger: PostgreSQL migration status")
	if err := goose.Status(db, "migrations"); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}
