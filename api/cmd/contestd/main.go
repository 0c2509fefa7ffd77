package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/malbeclabs/fitfreak/api/config"
	"github.com/malbeclabs/fitfreak/api/handlers"
	"github.com/malbeclabs/fitfreak/api/metrics"
	"github.com/malbeclabs/fitfreak/api/server"
	"github.com/malbeclabs/fitfreak/ledger/pkg/genesis"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"github.com/malbeclabs/fitfreak/ledger/pkg/postgres"
	"github.com/malbeclabs/fitfreak/program/pkg/contest"
	"github.com/malbeclabs/fitfreak/utils/pkg/logger"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	defaultListenAddr  = "0.0.0.0:8080"
	defaultMetricsAddr = "0.0.0.0:0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	listenAddrFlag := flag.String("listen-addr", defaultListenAddr, "Address to serve the contest API on (or set LISTEN_ADDR env var)")
	metricsAddrFlag := flag.String("metrics-addr", defaultMetricsAddr, "Address to listen on for prometheus metrics, empty to disable")
	shutdownTimeoutFlag := flag.Duration("shutdown-timeout", 10*time.Second, "Maximum time to wait for in-flight requests during graceful shutdown")
	corsOriginsFlag := flag.String("cors-origins", "", "Comma-separated browser origins allowed to call the API (or set CORS_ORIGINS env var)")

	// Ledger configuration
	ledgerBackendFlag := flag.String("ledger", config.BackendMemory, "Ledger backend: memory or postgres (or set LEDGER_BACKEND env var)")
	pgMaxConnsFlag := flag.Int32("postgres-max-conns", 10, "Maximum PostgreSQL pool connections")
	pgMigrateFlag := flag.Bool("postgres-migrate", true, "Apply ledger migrations on startup")
	genesisFlag := flag.String("genesis", "", "YAML file of accounts to fund on startup (or set GENESIS_FILE env var)")

	// Program configuration
	freeRentFlag := flag.Bool("free-rent", false, "Allocate program records without charging rent")

	// Rate limiting
	rateLimitFlag := flag.Float64("rate-limit", 5, "Signed invocations per second allowed per client IP, 0 to disable")
	rateBurstFlag := flag.Int("rate-burst", 20, "Burst of signed invocations allowed per client IP")

	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	log := logger.New(*verboseFlag)

	if env := os.Getenv("LISTEN_ADDR"); env != "" {
		*listenAddrFlag = env
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		*corsOriginsFlag = env
	}
	if env := os.Getenv("LEDGER_BACKEND"); env != "" {
		*ledgerBackendFlag = env
	}
	if env := os.Getenv("GENESIS_FILE"); env != "" {
		*genesisFlag = env
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: os.Getenv("SENTRY_ENVIRONMENT"),
			Release:     version,
		}); err != nil {
			return fmt.Errorf("failed to initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
		log.Info("sentry initialized")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ledgerCfg := config.LedgerConfig{
		Backend:       *ledgerBackendFlag,
		MaxConns:      *pgMaxConnsFlag,
		RunMigrations: *pgMigrateFlag,
	}
	if ledgerCfg.Backend == config.BackendPostgres {
		conn, err := postgres.ConnConfigFromEnv()
		if err != nil {
			return err
		}
		ledgerCfg.Postgres = conn
	}
	l, err := config.OpenLedger(ctx, log, ledgerCfg)
	if err != nil {
		return err
	}
	defer l.Close()

	if *genesisFlag != "" {
		g, err := genesis.Load(*genesisFlag)
		if err != nil {
			return err
		}
		funded, err := genesis.Apply(ctx, l, g)
		if err != nil {
			return fmt.Errorf("failed to apply genesis: %w", err)
		}
		log.Info("genesis applied", "path", *genesisFlag, "accounts", len(g.Accounts), "funded", funded)
	}

	rent := ledger.DefaultRent()
	if *freeRentFlag {
		rent = ledger.Rent{}
	}
	prog, err := contest.New(contest.Config{
		Logger: log,
		Clock:  clockwork.NewRealClock(),
		Ledger: l,
		Rent:   rent,
	})
	if err != nil {
		return fmt.Errorf("failed to create contest program: %w", err)
	}
	log.Info("contest program ready", "program_id", prog.ProgramID())

	var limiter *handlers.RateLimiter
	if *rateLimitFlag > 0 {
		limiter = handlers.NewRateLimiter(rate.Limit(*rateLimitFlag), *rateBurstFlag)
		defer limiter.Stop()
	}

	var corsOrigins []string
	for origin := range strings.SplitSeq(*corsOriginsFlag, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			corsOrigins = append(corsOrigins, origin)
		}
	}

	srv, err := server.New(server.Config{
		ListenAddr:      *listenAddrFlag,
		ShutdownTimeout: *shutdownTimeoutFlag,
		VersionInfo:     server.VersionInfo{Version: version, Commit: commit, Date: date},
		CORSOrigins:     corsOrigins,
		RateLimiter:     limiter,
		Ready:           l.Ready,
		HandlersConfig: handlers.Config{
			Logger:  log,
			Program: prog,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})

	if *metricsAddrFlag != "" {
		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
		listener, err := net.Listen("tcp", *metricsAddrFlag)
		if err != nil {
			return fmt.Errorf("failed to start prometheus metrics server listener: %w", err)
		}
		log.Info("prometheus metrics server listening", "address", listener.Addr().String())
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			if err := metricsSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), *shutdownTimeoutFlag)
			defer shutdownCancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("contestd stopped")
	return nil
}
