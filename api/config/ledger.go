// Package config opens the ledger backend selected at startup.
package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"github.com/malbeclabs/fitfreak/ledger/pkg/memory"
	"github.com/malbeclabs/fitfreak/ledger/pkg/postgres"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type LedgerConfig struct {
	Backend       string
	Postgres      postgres.ConnConfig
	MaxConns      int32
	RunMigrations bool
}

// Ledger is an open backend plus its readiness probe.
type Ledger struct {
	ledger.Ledger
	ping func(context.Context) error
}

// Ready reports whether the backend can serve requests.
func (l *Ledger) Ready(ctx context.Context) error {
	if l.ping == nil {
		return nil
	}
	return l.ping(ctx)
}

// OpenLedger connects to the configured backend.
func OpenLedger(ctx context.Context, log *slog.Logger, cfg LedgerConfig) (*Ledger, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		log.Warn("config: using in-memory ledger, state is lost on exit")
		return &Ledger{Ledger: memory.New()}, nil
	case BackendPostgres:
		pg, err := postgres.New(ctx, postgres.Config{
			Logger:        log,
			ConnString:    cfg.Postgres.ConnString(),
			MaxConns:      cfg.MaxConns,
			RunMigrations: cfg.RunMigrations,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres ledger: %w", err)
		}
		log.Info("config: connected to postgres ledger",
			"host", cfg.Postgres.Host, "port", cfg.Postgres.Port, "database", cfg.Postgres.Database)
		return &Ledger{Ledger: pg, ping: pg.Ping}, nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}
