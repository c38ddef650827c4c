// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package monitoring

import (
	"maps"
	"slices"

	"github.com/cobaltcore-dev/propscout/internal/conf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
	"github.com/sapcc/go-api-declarations/bininfo"
)

// Prometheus registry that stamps the configured labels onto every metric.
type Registry struct {
	*prometheus.Registry
	config conf.MonitoringConfig
}

func NewRegistry(config conf.MonitoringConfig) *Registry {
	registry := &Registry{
		Registry: prometheus.NewRegistry(),
		config:   config,
	}
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "propscout_build_info",
		Help: "Version of the running propscout binary",
	}, []string{"component", "version"})
	buildInfo.WithLabelValues(bininfo.Component(), bininfo.VersionOr("rolling")).Set(1)
	registry.MustRegister(buildInfo)
	return registry
}

// Custom gather method that adds custom labels to all metrics.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	families, err := r.Registry.Gather()
	if err != nil {
		return nil, err
	}
	// Sorted so that the label order is stable between scrapes.
	for _, name := range slices.Sorted(maps.Keys(r.config.Labels)) {
		value := r.config.Labels[name]
		for _, family := range families {
			for _, metric := range family.Metric {
				metric.Label = append(metric.Label, &dto.LabelPair{
					Name:  &name,
					Value: &value,
				})
			}
		}
	}
	return families, nil
}
