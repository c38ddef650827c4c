// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"github.com/cobaltcore-dev/propscout/internal/monitoring"
	"github.com/prometheus/client_golang/prometheus"
)

type Monitor struct {
	connectionAttempts prometheus.Counter
	livenessFailures   prometheus.Counter
	// An observer that checks how long SELECT queries take to run.
	selectTimer *prometheus.HistogramVec
}

func NewDBMonitor(registry *monitoring.Registry) Monitor {
	connectionAttempts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "propscout_db_connection_attempts_total",
		Help: "Total number of attempts to connect to the database",
	})
	livenessFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "propscout_db_liveness_failures_total",
		Help: "Total number of failed database liveness pings",
	})
	selectTimer := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "propscout_db_select_duration_seconds",
		Help:    "Duration of SELECT queries in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"group"})
	registry.MustRegister(connectionAttempts, livenessFailures, selectTimer)
	return Monitor{
		connectionAttempts: connectionAttempts,
		livenessFailures:   livenessFailures,
		selectTimer:        selectTimer,
	}
}
