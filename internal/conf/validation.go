// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package conf

import (
	"errors"
	"fmt"
	"strings"
)

// Check if the configuration is usable before anything is started.
func (c *config) Validate() error {
	for name, port := range map[string]int{
		"api":        c.APIConfig.Port,
		"monitoring": c.MonitoringConfig.Port,
	} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s port: %d", name, port)
		}
	}
	if c.APIConfig.Port == c.MonitoringConfig.Port {
		return fmt.Errorf("api and monitoring cannot share port %d", c.APIConfig.Port)
	}
	if c.CatalogConfig.SyncIntervalSeconds <= 0 {
		return fmt.Errorf("catalog sync interval must be positive, got %d", c.CatalogConfig.SyncIntervalSeconds)
	}
	if c.MQTTConfig.URL != "" && !strings.Contains(c.MQTTConfig.URL, "://") {
		return fmt.Errorf("mqtt url %q is missing a scheme", c.MQTTConfig.URL)
	}
	d := c.DiscoveryConfig
	if d.MaxAlternatives < 0 {
		return fmt.Errorf("discovery maxAlternatives must not be negative, got %d", d.MaxAlternatives)
	}
	if d.HighUpfrontCost < 0 {
		return fmt.Errorf("discovery highUpfrontCost must not be negative, got %v", d.HighUpfrontCost)
	}
	for _, p := range d.DefaultPriorities {
		if p == "" {
			return errors.New("discovery defaultPriorities contains an empty name")
		}
	}
	return nil
}
