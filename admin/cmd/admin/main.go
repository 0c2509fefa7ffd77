package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/malbeclabs/fitfreak/admin/internal/admin"
	"github.com/malbeclabs/fitfreak/ledger/pkg/postgres"
	"github.com/malbeclabs/fitfreak/program/pkg/address"
	"github.com/malbeclabs/fitfreak/program/pkg/contest"
	"github.com/malbeclabs/fitfreak/utils/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")

	// PostgreSQL configuration
	pgHostFlag := flag.String("postgres-host", "localhost", "PostgreSQL host (or set POSTGRES_HOST env var)")
	pgPortFlag := flag.String("postgres-port", "5432", "PostgreSQL port (or set POSTGRES_PORT env var)")
	pgDatabaseFlag := flag.String("postgres-db", "", "PostgreSQL database name (or set POSTGRES_DB env var)")
	pgUserFlag := flag.String("postgres-user", "", "PostgreSQL username (or set POSTGRES_USER env var)")
	pgPasswordFlag := flag.String("postgres-password", "", "PostgreSQL password (or set POSTGRES_PASSWORD env var)")
	pgSSLModeFlag := flag.String("postgres-sslmode", "disable", "PostgreSQL sslmode (or set POSTGRES_SSLMODE env var)")

	// Commands
	pgMigrateFlag := flag.Bool("pg-migrate", false, "Run ledger database migrations using goose")
	pgMigrateDownFlag := flag.Bool("pg-migrate-down", false, "Roll back the last ledger database migration")
	pgMigrateStatusFlag := flag.Bool("pg-migrate-status", false, "Show ledger database migration status")
	resetDBFlag := flag.Bool("reset-db", false, "Delete all accounts, events and processed signatures from the ledger")
	genesisFlag := flag.String("genesis", "", "Fund the accounts listed in this YAML file")
	deriveContestFlag := flag.Bool("derive-contest", false, "Print the contest and vault addresses for --owner and --contest-id")
	inspectContestFlag := flag.String("inspect-contest", "", "Print the decoded contest at this address")

	// Options
	programIDFlag := flag.String("program-id", address.DefaultProgramID.String(), "Contest program ID")
	ownerFlag := flag.String("owner", "", "Contest authority for --derive-contest")
	contestIDFlag := flag.Uint64("contest-id", 0, "Contest ID for --derive-contest")
	dryRunFlag := flag.Bool("dry-run", false, "Dry run mode - show what would be done without actually executing")
	yesFlag := flag.Bool("yes", false, "Skip confirmation prompt (use with caution)")

	flag.Parse()

	_ = godotenv.Load()
	log := logger.New(*verboseFlag)

	// Override PostgreSQL flags with environment variables if set
	if env := os.Getenv("POSTGRES_HOST"); env != "" {
		*pgHostFlag = env
	}
	if env := os.Getenv("POSTGRES_PORT"); env != "" {
		*pgPortFlag = env
	}
	if env := os.Getenv("POSTGRES_DB"); env != "" {
		*pgDatabaseFlag = env
	}
	if env := os.Getenv("POSTGRES_USER"); env != "" {
		*pgUserFlag = env
	}
	if env := os.Getenv("POSTGRES_PASSWORD"); env != "" {
		*pgPasswordFlag = env
	}
	if env := os.Getenv("POSTGRES_SSLMODE"); env != "" {
		*pgSSLModeFlag = env
	}

	pgCfg := postgres.ConnConfig{
		Host:     *pgHostFlag,
		Port:     *pgPortFlag,
		Database: *pgDatabaseFlag,
		Username: *pgUserFlag,
		Password: *pgPasswordFlag,
		SSLMode:  *pgSSLModeFlag,
	}
	requirePg := func(cmd string) error {
		if pgCfg.Database == "" || pgCfg.Username == "" {
			return fmt.Errorf("--postgres-db and --postgres-user are required for --%s", cmd)
		}
		return nil
	}

	programID, err := solana.PublicKeyFromBase58(*programIDFlag)
	if err != nil {
		return fmt.Errorf("invalid --program-id: %w", err)
	}

	ctx := context.Background()

	// Execute commands
	if *pgMigrateFlag {
		if err := requirePg("pg-migrate"); err != nil {
			return err
		}
		return admin.PgMigrateUp(log, pgCfg)
	}

	if *pgMigrateDownFlag {
		if err := requirePg("pg-migrate-down"); err != nil {
			return err
		}
		return admin.PgMigrateDown(log, pgCfg)
	}

	if *pgMigrateStatusFlag {
		if err := requirePg("pg-migrate-status"); err != nil {
			return err
		}
		return admin.PgMigrateStatus(log, pgCfg)
	}

	if *resetDBFlag {
		if err := requirePg("reset-db"); err != nil {
			return err
		}
		return admin.ResetDB(ctx, log, pgCfg, admin.ResetDBConfig{
			DryRun:      *dryRunFlag,
			SkipConfirm: *yesFlag,
			In:          os.Stdin,
			Out:         os.Stdout,
		})
	}

	if *deriveContestFlag {
		owner, err := solana.PublicKeyFromBase58(*ownerFlag)
		if err != nil {
			return fmt.Errorf("invalid --owner: %w", err)
		}
		return admin.DeriveContest(programID, owner, *contestIDFlag, os.Stdout)
	}

	if *genesisFlag == "" && *inspectContestFlag == "" {
		return nil
	}

	// The remaining commands work against an open ledger.
	if err := requirePg("genesis or --inspect-contest"); err != nil {
		return err
	}
	l, err := postgres.New(ctx, postgres.Config{Logger: log, ConnString: pgCfg.ConnString()})
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer l.Close()

	if *genesisFlag != "" {
		return admin.ApplyGenesis(ctx, log, l, *genesisFlag, *dryRunFlag, os.Stdout)
	}

	addr, err := solana.PublicKeyFromBase58(*inspectContestFlag)
	if err != nil {
		return fmt.Errorf("invalid --inspect-contest: %w", err)
	}
	prog, err := contest.New(contest.Config{Logger: log, Ledger: l, ProgramID: programID})
	if err != nil {
		return err
	}
	return admin.InspectContest(ctx, prog, addr, os.Stdout)
}
