// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package monitoring

import (
	"testing"

	"github.com/cobaltcore-dev/propscout/internal/conf"
	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry(conf.MonitoringConfig{Labels: map[string]string{"env": "test"}})
	if registry == nil {
		t.Fatalf("expected registry to be non-nil")
	}
	if registry.config.Labels["env"] != "test" {
		t.Fatalf("expected registry config label 'env' to be 'test', got %v", registry.config.Labels["env"])
	}
}

func TestRegistry_Gather(t *testing.T) {
	registry := NewRegistry(conf.MonitoringConfig{Labels: map[string]string{
		"env":    "test",
		"region": "eu",
	}})
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "A test counter",
	})
	registry.MustRegister(counter)
	counter.Inc()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	var sawCounter, sawBuildInfo bool
	for _, family := range families {
		switch family.GetName() {
		case "test_counter":
			sawCounter = true
		case "propscout_build_info":
			sawBuildInfo = true
		}
		for _, metric := range family.Metric {
			labels := map[string]string{}
			for _, label := range metric.Label {
				labels[label.GetName()] = label.GetValue()
			}
			if labels["env"] != "test" || labels["region"] != "eu" {
				t.Errorf("metric %s is missing custom labels: %v", family.GetName(), labels)
			}
		}
	}
	if !sawCounter {
		t.Error("expected test_counter to be gathered")
	}
	if !sawBuildInfo {
		t.Error("expected build info to be gathered")
	}
}
