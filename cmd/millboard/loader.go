// Package main implements the millboard dashboard server.
//
// This file contains the Loader, which materializes the observation dataset:
//
//	load → store → update metrics
//
// main calls Tick once before serving. With a zero interval that is the only
// load and the dataset stays fixed for the life of the process; otherwise
// Watch reloads it on every tick and replaces it in the store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HatiCode/millboard/cmd/millboard/metrics"
	"github.com/HatiCode/millboard/pkg/adapters"
	"github.com/HatiCode/millboard/pkg/mill"
	"github.com/HatiCode/millboard/pkg/storage"
)

// Loader loads the dataset from an adapter into the store.
type Loader struct {
	name    string
	adapter adapters.Adapter
	store   storage.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewLoader creates a Loader that stores datasets under name.
func NewLoader(name string, adapter adapters.Adapter, store storage.Store, logger *slog.Logger, m *metrics.Metrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{
		name:    name,
		adapter: adapter,
		store:   store,
		logger:  logger,
		metrics: m,
	}
}

// Watch reloads the dataset every interval until ctx is canceled. A failed
// reload is logged and the previous dataset keeps serving.
func (l *Loader) Watch(ctx context.Context, interval time.Duration) {
	l.logger.Info("watching dataset source", "adapter", l.adapter.Name(), "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("dataset loader stopped")
			return
		case <-ticker.C:
			if err := l.Tick(ctx); err != nil {
				l.logger.Error("dataset reload failed", "error", err)
			}
		}
	}
}

// Tick performs one load cycle.
func (l *Loader) Tick(ctx context.Context) error {
	ds, loadDuration, err := l.load(ctx)
	if err != nil {
		if l.metrics != nil {
			l.metrics.RecordError("adapter", "load_failed")
		}
		return fmt.Errorf("load: %w", err)
	}

	if err := l.store.Put(ctx, l.name, *ds); err != nil {
		if l.metrics != nil {
			l.metrics.RecordError("store", "put_failed")
		}
		return fmt.Errorf("store: %w", err)
	}

	if l.metrics != nil {
		l.metrics.SetObservations(len(ds.Observations))
		l.metrics.SetDatasetAge(0)
	}

	catalog := mill.CatalogFrom(ds.Observations)
	l.logger.Info("dataset loaded",
		"dataset", l.name,
		"id", ds.ID,
		"source", ds.Source,
		"observations", len(ds.Observations),
		"plants", len(catalog.Plants),
		"machines", len(catalog.Machines),
		"load_ms", loadDuration.Milliseconds(),
	)

	return nil
}

func (l *Loader) load(ctx context.Context) (*mill.Dataset, time.Duration, error) {
	start := time.Now()

	ds, err := l.adapter.Load(ctx)
	if err != nil {
		return nil, 0, err
	}

	duration := time.Since(start)
	if l.metrics != nil {
		l.metrics.RecordLoad(duration.Seconds())
	}

	return ds, duration, nil
}
