// Package postgres is a ledger backed by PostgreSQL. Every update runs at
// SERIALIZABLE isolation and is re-run from scratch when it loses a
// serialization race.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"github.com/malbeclabs/fitfreak/utils/pkg/retry"
)

type Ledger struct {
	log  *slog.Logger
	cfg  Config
	pool *pgxpool.Pool
}

var _ ledger.Ledger = (*Ledger)(nil)

func New(ctx context.Context, cfg Config) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := MigrateUp(cfg.Logger, cfg.ConnString); err != nil {
			return nil, err
		}
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MaxConnLifetime = connMaxLifetime
	poolConfig.MaxConnIdleTime = connMaxIdleTime

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	cfg.Logger.Info("ledger: connected to PostgreSQL", "max_conns", cfg.MaxConns)

	return &Ledger{log: cfg.Logger, cfg: cfg, pool: pool}, nil
}

func (l *Ledger) Update(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	rc := l.cfg.Retry
	rc.OnRetry = func(attempt int, err error) {
		TxRetriesTotal.Inc()
		l.log.Debug("ledger: retrying transaction", "attempt", attempt, "error", err)
	}
	return retry.Do(ctx, rc, func() error {
		return l.run(ctx, pgx.ReadWrite, fn)
	})
}

func (l *Ledger) View(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	return l.run(ctx, pgx.ReadOnly, fn)
}

// Ping checks that the database is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.pool.Ping(ctx)
}

func (l *Ledger) Close() error {
	l.pool.Close()
	return nil
}

func (l *Ledger) run(ctx context.Context, mode pgx.TxAccessMode, fn func(ctx context.Context, tx ledger.Tx) error) (err error) {
	label := "read_write"
	if mode == pgx.ReadOnly {
		label = "read_only"
	}
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		TxTotal.WithLabelValues(label, status).Inc()
	}()

	pgTx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: mode})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = pgTx.Rollback(ctx)
	}()

	if err := fn(ctx, &txn{tx: pgTx, readOnly: mode == pgx.ReadOnly}); err != nil {
		return err
	}
	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

type txn struct {
	tx       pgx.Tx
	readOnly bool
}

func (t *txn) Get(ctx context.Context, addr solana.PublicKey) (*ledger.Account, error) {
	query := `SELECT lamports, owner, data FROM accounts WHERE address = $1`
	if !t.readOnly {
		query += ` FOR UPDATE`
	}

	var (
		lamports int64
		owner    []byte
		data     []byte
	)
	err := t.tx.QueryRow(ctx, query, addr[:]).Scan(&lamports, &owner, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", addr, err)
	}

	return &ledger.Account{
		Address:  addr,
		Lamports: uint64(lamports),
		Owner:    solana.PublicKeyFromBytes(owner),
		Data:     data,
	}, nil
}

func (t *txn) Create(ctx context.Context, acct *ledger.Account) error {
	if t.readOnly {
		return ledger.ErrReadOnly
	}
	lamports, err := toBigint(acct.Lamports)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO accounts (address, lamports, owner, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO NOTHING
	`, acct.Address[:], lamports, acct.Owner[:], nonNil(acct.Data))
	if err != nil {
		return fmt.Errorf("failed to create account %s: %w", acct.Address, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrAccountExists
	}
	return nil
}

func (t *txn) Put(ctx context.Context, acct *ledger.Account) error {
	if t.readOnly {
		return ledger.ErrReadOnly
	}
	lamports, err := toBigint(acct.Lamports)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `
		UPDATE accounts SET lamports = $2, owner = $3, data = $4, updated_at = now()
		WHERE address = $1
	`, acct.Address[:], lamports, acct.Owner[:], nonNil(acct.Data))
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", acct.Address, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func (t *txn) Emit(ctx context.Context, ev ledger.Event) error {
	if t.readOnly {
		return ledger.ErrReadOnly
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO events (id, ref, name, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, pgtype.UUID{Bytes: ev.ID, Valid: true}, ev.Ref[:], ev.Name, string(ev.Payload), ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", ev.Name, err)
	}
	return nil
}

func (t *txn) Events(ctx context.Context, ref solana.PublicKey, limit int) ([]ledger.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := t.tx.Query(ctx, `
		SELECT id, name, payload, created_at
		FROM events
		WHERE ref = $1
		ORDER BY seq DESC
		LIMIT $2
	`, ref[:], limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []ledger.Event
	for rows.Next() {
		var (
			id      pgtype.UUID
			ev      ledger.Event
			payload []byte
		)
		if err := rows.Scan(&id, &ev.Name, &payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.ID = uuid.UUID(id.Bytes)
		ev.Ref = ref
		ev.Payload = payload
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func (t *txn) RecordSignature(ctx context.Context, sig solana.Signature) error {
	if t.readOnly {
		return ledger.ErrReadOnly
	}
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO signatures (signature) VALUES ($1)
		ON CONFLICT (signature) DO NOTHING
	`, sig[:])
	if err != nil {
		return fmt.Errorf("failed to record signature: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrDuplicateSignature
	}
	return nil
}

func toBigint(lamports uint64) (int64, error) {
	if lamports > ledger.MaxLamports {
		return 0, fmt.Errorf("%w: %d lamports exceeds storage range", ledger.ErrBalanceOverflow, lamports)
	}
	return int64(lamports), nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
