// Command millboard serves the data behind the yarn-mill operations dashboard.
//
// At startup it loads the observation dataset from the configured source into
// the dataset store, then serves JSON views over HTTP (port 8080 by default):
//   - GET /api/dashboard?plant=<p>&machine=<m>&reason=<r> - Chart-ready views
//   - GET /api/options - Selector values
//   - GET /healthz - Health check endpoint
//   - GET /metrics - Prometheus metrics endpoint
//
// Usage:
//
//	millboard -adapter=synthetic -listen=:8080
//	ADAPTER_URL=https://telemetry.example.com/export millboard -adapter=http -interval=15m
//
// Environment variables (a .env file is loaded if present):
//
//	LISTEN         - HTTP listen address (default: :8080)
//	DATASET        - Dataset name / store key (default: default)
//	ADAPTER        - Data source: synthetic, http, postgres, kafka (default: synthetic)
//	ADAPTER_*      - Adapter settings, e.g. ADAPTER_SEED, ADAPTER_URL, ADAPTER_DSN
//	INTERVAL       - Reload interval, 0 loads once (default: 0)
//	STALE_AFTER    - Age after which responses are marked stale (default: 0, disabled)
//	STORAGE        - Dataset store: memory or redis (default: memory)
//	REDIS_ADDR     - Redis address when STORAGE=redis
//	LOG_LEVEL      - Logging level: debug, info, warn, error (default: info)
//	LOG_FORMAT     - Logging format: text, json (default: text)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HatiCode/millboard/cmd/millboard/config"
	"github.com/HatiCode/millboard/cmd/millboard/logger"
	"github.com/HatiCode/millboard/cmd/millboard/metrics"
	"github.com/HatiCode/millboard/cmd/millboard/router"
	"github.com/HatiCode/millboard/pkg/adapters"
	"github.com/HatiCode/millboard/pkg/httpx"
	"github.com/HatiCode/millboard/pkg/storage"
	"github.com/HatiCode/millboard/pkg/tls"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	cfg, err := config.ParseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logger.New(cfg)
	slog.SetDefault(logger)

	logger.Info("starting millboard",
		"version", version,
		"dataset", cfg.Dataset,
		"adapter", cfg.Adapter,
		"storage", cfg.Storage,
	)

	adapter, err := adapters.New(cfg.Adapter, cfg.AdapterConfig)
	if err != nil {
		logger.Error("invalid adapter configuration", "error", err)
		os.Exit(1)
	}

	store, err := newStore(cfg)
	if err != nil {
		logger.Error("failed to create dataset store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	m := metrics.New(cfg.Dataset)
	loader := NewLoader(cfg.Dataset, adapter, store, logger, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The dataset must exist before the first request is served.
	if err := loader.Tick(ctx); err != nil {
		logger.Error("initial dataset load failed", "error", err)
		os.Exit(1)
	}

	if cfg.Interval > 0 {
		go loader.Watch(ctx, cfg.Interval)
	}

	handler := router.SetupRoutes(store, cfg.Dataset, cfg.StaleAfter, logger, m)
	httpServer := httpx.NewServer(cfg.Listen, handler, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- serve(httpServer, cfg.TLS)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}

	logger.Info("shutting down")
	cancel()

	if err := httpServer.Stop(10 * time.Second); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

type closableStore interface {
	storage.Store
	io.Closer
}

func newStore(cfg *config.Config) (closableStore, error) {
	switch cfg.Storage {
	case "redis":
		rs, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.StorageTTL)
		if err != nil {
			return nil, err
		}
		return rs, nil
	case "memory":
		if cfg.StorageTTL > 0 {
			return storage.NewMemoryStoreWithTTL(cfg.StorageTTL, time.Minute), nil
		}
		return storage.NewMemoryStore(), nil
	default:
		return nil, errors.New("unknown storage " + cfg.Storage)
	}
}

func serve(s *httpx.Server, tlsCfg tls.Config) error {
	if !tlsCfg.Enabled {
		return s.Serve(nil, "", "")
	}

	serverTLS, err := tls.NewServerTLSConfig(tlsCfg)
	if err != nil {
		return fmt.Errorf("tls: %w", err)
	}
	return s.Serve(serverTLS, tlsCfg.CertFile, tlsCfg.KeyFile)
}
