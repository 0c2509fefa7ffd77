package admin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/malbeclabs/fitfreak/ledger/pkg/postgres"
)

// LedgerTables are the tables wiped by ResetDB, in truncation order.
var LedgerTables = []string{"signatures", "events", "accounts"}

type ResetDBConfig struct {
	DryRun      bool
	SkipConfirm bool
	In          io.Reader
	Out         io.Writer
}

// ResetDB truncates every ledger table, keeping the schema and goose
// version so the service can start again without migrating.
func ResetDB(ctx context.Context, log *slog.Logger, conn postgres.ConnConfig, cfg ResetDBConfig) error {
	db, err := pgx.Connect(ctx, conn.ConnString())
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer db.Close(ctx)

	counts := make(map[string]int64, len(LedgerTables))
	for _, table := range LedgerTables {
		var n int64
		if err := db.QueryRow(ctx, "SELECT count(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&n); err != nil {
			return fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}

	fmt.Fprintf(cfg.Out, "WARNING: This will DELETE all rows from %d table(s) in database '%s':\n\n", len(LedgerTables), conn.Database)
	for _, table := range LedgerTables {
		fmt.Fprintf(cfg.Out, "  - %s (%d rows)\n", table, counts[table])
	}

	if cfg.DryRun {
		fmt.Fprintln(cfg.Out, "\n[DRY RUN] Would truncate the above tables")
		return nil
	}

	if !cfg.SkipConfirm {
		ok, err := confirm(cfg.In, cfg.Out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cfg.Out, "\nConfirmation failed. Operation cancelled.")
			return nil
		}
	}

	tables := make([]string, len(LedgerTables))
	for i, table := range LedgerTables {
		tables[i] = pgx.Identifier{table}.Sanitize()
	}
	if _, err := db.Exec(ctx, "TRUNCATE "+strings.Join(tables, ", ")+" RESTART IDENTITY"); err != nil {
		return fmt.Errorf("failed to truncate ledger tables: %w", err)
	}

	log.Info("ledger reset", "database", conn.Database, "tables", LedgerTables)
	fmt.Fprintf(cfg.Out, "\nSuccessfully truncated %d table(s)\n", len(LedgerTables))
	return nil
}

// confirm asks for a typed "yes" before a destructive operation.
func confirm(in io.Reader, out io.Writer) (bool, error) {
	fmt.Fprint(out, "\nThis is a DESTRUCTIVE operation that cannot be undone!\nType 'yes' to confirm: ")
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(response), "yes"), nil
}
