// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"github.com/cobaltcore-dev/propscout/internal/monitoring"
	"github.com/prometheus/client_golang/prometheus"
)

type SyncMonitor struct {
	syncDuration prometheus.Histogram
	syncFailures prometheus.Counter
	catalogSize  *prometheus.GaugeVec
}

func NewSyncMonitor(registry *monitoring.Registry) SyncMonitor {
	syncDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "propscout_catalog_sync_duration_seconds",
		Help:    "Duration of catalog reloads",
		Buckets: prometheus.DefBuckets,
	})
	syncFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "propscout_catalog_sync_failures_total",
		Help: "Total number of failed catalog reloads",
	})
	catalogSize := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "propscout_catalog_entries",
		Help: "Number of entries in the current catalog snapshot",
	}, []string{"kind"})
	registry.MustRegister(syncDuration, syncFailures, catalogSize)
	return SyncMonitor{
		syncDuration: syncDuration,
		syncFailures: syncFailures,
		catalogSize:  catalogSize,
	}
}
