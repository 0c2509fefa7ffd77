package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/malbeclabs/fitfreak/ledger/pkg/postgres"
)

// PgMigrateUp runs all pending ledger migrations.
func PgMigrateUp(log *slog.Logger, cfg postgres.ConnConfig) error {
	if err := pingPg(cfg); err != nil {
		return err
	}
	return postgres.MigrateUp(log, cfg.ConnString())
}

// PgMigrateDown rolls back the last ledger migration.
func PgMigrateDown(log *slog.Logger, cfg postgres.ConnConfig) error {
	if err := pingPg(cfg); err != nil {
		return err
	}
	if err := postgres.MigrateDown(log, cfg.ConnString()); err != nil {
		return err
	}
	log.Info("PostgreSQL migration rollback completed")
	return nil
}

// PgMigrateStatus shows the status of all ledger migrations.
func PgMigrateStatus(log *slog.Logger, cfg postgres.ConnConfig) error {
	if err := pingPg(cfg); err != nil {
		return err
	}
	return postgres.MigrateStatus(log, cfg.ConnString())
}

// pingPg fails fast with a connection error instead of a goose error.
func pingPg(cfg postgres.ConnConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, cfg.ConnString())
	if err != nil {
		return fmt.Errorf("failed to connect to %s:%s/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
	}
	defer conn.Close(ctx)

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
