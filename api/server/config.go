package server

import (
	"context"
	"errors"
	"time"

	"github.com/malbeclabs/fitfreak/api/handlers"
)

// VersionInfo contains build-time version information.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

type Config struct {
	ListenAddr        string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	VersionInfo       VersionInfo
	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string
	// RateLimiter throttles signed invocations per client. Nil disables it.
	RateLimiter *handlers.RateLimiter
	// Ready reports backend readiness for /readyz. Nil means always ready.
	Ready          func(ctx context.Context) error
	HandlersConfig handlers.Config
}

func (cfg *Config) Validate() error {
	if cfg.ListenAddr == "" {
		return errors.New("listen addr is required")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	return cfg.HandlersConfig.Validate()
}
