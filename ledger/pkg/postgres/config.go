package postgres

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/malbeclabs/fitfreak/utils/pkg/retry"
)

// ConnConfig holds PostgreSQL connection parameters.
type ConnConfig struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	SSLMode  string
}

// ConnConfigFromEnv reads POSTGRES_* environment variables.
func ConnConfigFromEnv() (ConnConfig, error) {
	cfg := ConnConfig{
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     os.Getenv("POSTGRES_PORT"),
		Database: os.Getenv("POSTGRES_DB"),
		Username: os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
	}
	if cfg.Database == "" {
		return cfg, errors.New("POSTGRES_DB is required")
	}
	if cfg.Username == "" {
		return cfg, errors.New("POSTGRES_USER is required")
	}
	if cfg.Password == "" {
		return cfg, errors.New("POSTGRES_PASSWORD is required")
	}
	return cfg, nil
}

// ConnString renders the connection URL, filling defaults for host, port
// and sslmode.
func (c ConnConfig) ConnString() string {
	host, port, sslMode := c.Host, c.Port, c.SSLMode
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "5432"
	}
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Username, c.Password, host, port, c.Database, sslMode)
}

type Config struct {
	Logger        *slog.Logger
	ConnString    string
	MaxConns      int32
	RunMigrations bool
	Retry         retry.Config
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ConnString == "" {
		return errors.New("connection string is required")
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 10
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.TxConfig(nil)
	}
	if cfg.Retry.Retryable == nil {
		cfg.Retry.Retryable = isSerializationFailure
	}
	return nil
}

const (
	connMaxLifetime = time.Hour
	connMaxIdleTime = 30 * time.Minute
)
