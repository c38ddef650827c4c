// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cobaltcore-dev/propscout/internal/catalog"
	"github.com/cobaltcore-dev/propscout/internal/discovery"
	"github.com/cobaltcore-dev/propscout/internal/monitoring"
	"github.com/prometheus/client_golang/prometheus"
)

// Collection of Prometheus metrics to monitor the discovery API.
type Monitor struct {
	// A histogram to measure how long the API requests take to run.
	requestTimer *prometheus.HistogramVec
	// Offers going into a discovery run.
	candidatesIn prometheus.Histogram
	// Offers that passed the hard constraints.
	candidatesOut prometheus.Histogram
	// Runs where every offer was filtered out.
	noViable prometheus.Counter
	// Kill rules of the offer we ended up recommending.
	primaryKillRules prometheus.Histogram
	// Levenshtein distance between catalog order and ranked order.
	reorderings prometheus.Histogram
}

func NewMonitor(registry *monitoring.Registry) Monitor {
	requestTimer := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "propscout_api_request_duration_seconds",
		Help:    "Duration of API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status", "error"})
	candidatesIn := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "propscout_discovery_candidates_in",
		Help:    "Number of offers going into a discovery run",
		Buckets: prometheus.ExponentialBucketsRange(1, 1000, 10),
	})
	candidatesOut := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "propscout_discovery_candidates_out",
		Help:    "Number of offers that passed the hard constraints of a discovery run",
		Buckets: prometheus.ExponentialBucketsRange(1, 1000, 10),
	})
	noViable := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "propscout_discovery_no_viable_candidates_total",
		Help: "Total number of discovery runs where no offer passed the hard constraints",
	})
	primaryKillRules := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "propscout_discovery_primary_kill_rules",
		Help:    "Number of account-ending rules of the recommended offer",
		Buckets: prometheus.LinearBuckets(0, 1, 6),
	})
	reorderings := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "propscout_discovery_reorderings_levenshtein",
		Help:    "Levenshtein distance between the catalog order and the ranked order of the returned offers",
		Buckets: prometheus.LinearBuckets(0, 1, 10),
	})
	registry.MustRegister(
		requestTimer,
		candidatesIn,
		candidatesOut,
		noViable,
		primaryKillRules,
		reorderings,
	)
	return Monitor{
		requestTimer:     requestTimer,
		candidatesIn:     candidatesIn,
		candidatesOut:    candidatesOut,
		noViable:         noViable,
		primaryKillRules: primaryKillRules,
		reorderings:      reorderings,
	}
}

func (m *Monitor) observeNoViable() {
	if m.noViable != nil {
		m.noViable.Inc()
	}
}

// Observe a successful discovery run over the given catalog.
func (m *Monitor) observeRun(log *slog.Logger, c catalog.Catalog, result discovery.Result) {
	if m.candidatesIn == nil {
		return
	}
	m.candidatesIn.Observe(float64(result.Considered))
	m.candidatesOut.Observe(float64(result.Eligible))
	m.primaryKillRules.Observe(float64(len(result.Primary.Risk.KillRules)))

	returned := make(map[string]bool, 1+len(result.Alternatives))
	ranked := []string{result.Primary.Offer.ID}
	for _, alt := range result.Alternatives {
		ranked = append(ranked, alt.Offer.ID)
	}
	for _, id := range ranked {
		returned[id] = true
	}
	var inCatalogOrder []string
	for _, offer := range c.Offers {
		if returned[offer.ID] {
			inCatalogOrder = append(inCatalogOrder, offer.ID)
			delete(returned, offer.ID)
		}
	}
	distance := levenshteinDistance(inCatalogOrder, ranked)
	log.Debug("discovery: reorderings", "distance", distance, "offers_in", inCatalogOrder, "offers_out", ranked)
	m.reorderings.Observe(float64(distance))
}

// Calculate the Levenshtein distance between two lists of offer ids.
func levenshteinDistance(a, b []string) int {
	distance := make([][]int, len(a)+1)
	for i := range distance {
		distance[i] = make([]int, len(b)+1)
	}
	for i := range distance {
		distance[i][0] = i
	}
	for j := range distance[0] {
		distance[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			distance[i][j] = min(distance[i-1][j]+1, distance[i][j-1]+1, distance[i-1][j-1]+cost)
		}
	}
	return distance[len(a)][len(b)]
}

// Helper to respond to the request with the given code and error.
// Adds monitoring for the time it took to handle the request.
type MonitoredCallback struct {
	monitor *Monitor
	log     *slog.Logger
	w       http.ResponseWriter
	r       *http.Request
	pattern string
	t       time.Time
}

func (m *Monitor) Callback(w http.ResponseWriter, r *http.Request, pattern string, log *slog.Logger) MonitoredCallback {
	return MonitoredCallback{monitor: m, log: log, w: w, r: r, pattern: pattern, t: time.Now()}
}

// Respond to the request with the given code and error.
// Errors are written as {"error": text}, the internal error is only logged.
func (c MonitoredCallback) Respond(code int, err error, text string) {
	if c.monitor != nil && c.monitor.requestTimer != nil {
		observer := c.monitor.requestTimer.WithLabelValues(
			c.r.Method,
			c.pattern,
			strconv.Itoa(code),
			text, // Internal error messages should not face the monitor.
		)
		observer.Observe(time.Since(c.t).Seconds())
	}
	if err == nil {
		return
	}
	c.log.Error("failed to handle request", "error", err, "status", code)
	c.w.Header().Set("Content-Type", "application/json")
	c.w.WriteHeader(code)
	if err := json.NewEncoder(c.w).Encode(errorResponse{Error: text}); err != nil {
		c.log.Error("failed to write error response", "error", err)
	}
}
