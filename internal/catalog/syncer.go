// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sapcc/go-bits/jobloop"
)

// Source of full catalog snapshots, e.g. the database or a fixture file.
type Loader interface {
	Load(ctx context.Context) (Catalog, error)
}

// Keeps the most recently loaded catalog in memory. Readers get an
// immutable snapshot, reloads swap the whole snapshot at once.
type Syncer struct {
	loader   Loader
	interval time.Duration
	monitor  SyncMonitor
	current  atomic.Pointer[Catalog]
}

func NewSyncer(loader Loader, interval time.Duration, monitor SyncMonitor) *Syncer {
	return &Syncer{loader: loader, interval: interval, monitor: monitor}
}

// Reload the catalog once. On failure the previous snapshot is kept.
func (s *Syncer) Sync(ctx context.Context) error {
	if s.monitor.syncDuration != nil {
		start := time.Now()
		defer func() { s.monitor.syncDuration.Observe(time.Since(start).Seconds()) }()
	}
	c, err := s.loader.Load(ctx)
	if err != nil {
		if s.monitor.syncFailures != nil {
			s.monitor.syncFailures.Inc()
		}
		return err
	}
	s.current.Store(&c)
	if s.monitor.catalogSize != nil {
		s.monitor.catalogSize.WithLabelValues("firms").Set(float64(len(c.Firms)))
		s.monitor.catalogSize.WithLabelValues("offers").Set(float64(len(c.Offers)))
		s.monitor.catalogSize.WithLabelValues("profiles").Set(float64(len(c.Profiles)))
	}
	slog.Info("catalog synced", "firms", len(c.Firms), "offers", len(c.Offers), "profiles", len(c.Profiles))
	return nil
}

// Reload the catalog periodically until the context is done.
func (s *Syncer) Run(ctx context.Context) {
	for {
		if err := s.Sync(ctx); err != nil {
			slog.Error("failed to sync catalog", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(jobloop.DefaultJitter(s.interval)):
		}
	}
}

// The latest catalog, or an empty one if nothing was loaded yet.
func (s *Syncer) Snapshot() Catalog {
	if c := s.current.Load(); c != nil {
		return *c
	}
	return Catalog{}
}
