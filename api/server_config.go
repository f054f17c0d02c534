package api

import (
	"errors"
	"log/slog"
	"time"
)

// HTTPServerConfig configures the sealing API listener and its companion
// metrics listener.
type HTTPServerConfig struct {
	ListenAddr string

	// MetricsAddr is where /metrics is served. Empty disables the listener.
	MetricsAddr string

	EnablePprof bool

	Log *slog.Logger

	// DrainDuration is how long /drain holds the request open after
	// /readyz starts failing.
	DrainDuration time.Duration

	// GracefulShutdownDuration bounds how long shutdown waits for in-flight
	// requests, pending seals included.
	GracefulShutdownDuration time.Duration

	ReadTimeout time.Duration

	// WriteTimeout also bounds how long a seal may wait on the oracle.
	WriteTimeout time.Duration
}

// DefaultHTTPServerConfig returns the timeouts used by the sealing server.
func DefaultHTTPServerConfig(listenAddr string, log *slog.Logger) *HTTPServerConfig {
	return &HTTPServerConfig{
		ListenAddr:               listenAddr,
		Log:                      log,
		DrainDuration:            45 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

func (cfg *HTTPServerConfig) Validate() error {
	if cfg.ListenAddr == "" {
		return errors.New("listen address is required")
	}
	if cfg.Log == nil {
		return errors.New("logger is required")
	}
	if cfg.ListenAddr == cfg.MetricsAddr {
		return errors.New("metrics address must differ from the listen address")
	}
	return nil
}
