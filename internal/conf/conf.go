// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package conf

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Configuration for structured logging.
type LoggingConfig struct {
	// The log level to use (debug, info, warn, error).
	LevelStr string `yaml:"level"`
	// The log format to use (json, text).
	Format string `yaml:"format"`
}

type DBReconnectConfig struct {
	// The interval between liveness pings to the database.
	LivenessPingIntervalSeconds int `yaml:"livenessPingIntervalSeconds"`
	// The interval between connection attempts on startup.
	RetryIntervalSeconds int `yaml:"retryIntervalSeconds"`
	// The maximum number of connection attempts before giving up.
	MaxRetries int `yaml:"maxRetries"`
}

// Database configuration.
type DBConfig struct {
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	Database  string            `yaml:"database"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Reconnect DBReconnectConfig `yaml:"reconnect"`
}

// Configuration for the monitoring module.
type MonitoringConfig struct {
	// The labels to add to all metrics.
	Labels map[string]string `yaml:"labels"`

	// The port to expose the metrics on.
	Port int `yaml:"port"`
}

// Configuration for the mqtt client.
type MQTTConfig struct {
	// The URL of the MQTT broker. If empty, results are not published.
	URL string `yaml:"url"`
	// Credentials for the MQTT broker.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Configuration for the api port.
type APIConfig struct {
	// The port to expose the API on.
	Port int `yaml:"port"`
	// If request bodies should be logged out.
	// This feature is intended for debugging purposes only.
	LogRequestBodies bool `yaml:"logRequestBodies"`
}

// Configuration for the offer catalog.
type CatalogConfig struct {
	// How often the in-memory catalog snapshot is reloaded.
	SyncIntervalSeconds int `yaml:"syncIntervalSeconds"`
	// If set, the catalog is read from this yaml fixture instead of the database.
	FixturePath string `yaml:"fixturePath,omitempty"`
}

// Configuration for the recommendation engine.
type DiscoveryConfig struct {
	// How many alternatives are returned next to the primary recommendation.
	MaxAlternatives int `yaml:"maxAlternatives"`
	// Upfront prices at or above this amount are called out as a tradeoff.
	HighUpfrontCost float64 `yaml:"highUpfrontCost"`
	// Priorities appended to every request that does not name them.
	DefaultPriorities []string `yaml:"defaultPriorities"`
}

// Configuration for the propscout service.
type Config interface {
	GetLoggingConfig() LoggingConfig
	GetDBConfig() DBConfig
	GetMonitoringConfig() MonitoringConfig
	GetMQTTConfig() MQTTConfig
	GetAPIConfig() APIConfig
	GetCatalogConfig() CatalogConfig
	GetDiscoveryConfig() DiscoveryConfig
	// Check if the configuration is valid.
	Validate() error
}

type config struct {
	LoggingConfig    `yaml:"logging"`
	DBConfig         `yaml:"db"`
	MonitoringConfig `yaml:"monitoring"`
	MQTTConfig       `yaml:"mqtt"`
	APIConfig        `yaml:"api"`
	CatalogConfig    `yaml:"catalog"`
	DiscoveryConfig  `yaml:"discovery"`
}

// Create a new configuration from the default config yaml files.
//
// This will read two files:
//   - /etc/config/conf.yaml
//   - /etc/secrets/secrets.yaml
//
// The values read from secrets.yaml will override the values in conf.yaml.
// The secrets file is optional.
func GetConfigOrDie() Config {
	// Note: We need to read the config as a raw map first, to avoid golang
	// unmarshalling default values for the fields.
	cmConf, err := readRawConfig("/etc/config/conf.yaml")
	if err != nil {
		panic(err)
	}
	secretConf, err := readRawConfig("/etc/secrets/secrets.yaml")
	if errors.Is(err, os.ErrNotExist) {
		secretConf = map[string]any{}
	} else if err != nil {
		panic(err)
	}
	c, err := newConfigFromMaps(cmConf, secretConf)
	if err != nil {
		panic(err)
	}
	return c
}

func newConfigFromMaps(base, override map[string]any) (*config, error) {
	merged := mergeMaps(base, override)
	// Marshal again, and then unmarshal into the config struct.
	mergedBytes, err := yaml.Marshal(merged)
	if err != nil {
		return nil, err
	}
	c := defaults()
	if err := yaml.Unmarshal(mergedBytes, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Values used for anything the config files leave out.
func defaults() *config {
	return &config{
		LoggingConfig:    LoggingConfig{LevelStr: "info", Format: "text"},
		DBConfig:         DBConfig{Host: "localhost", Port: 5432, Database: "postgres", User: "postgres", Reconnect: DBReconnectConfig{LivenessPingIntervalSeconds: 5, RetryIntervalSeconds: 1, MaxRetries: 10}},
		MonitoringConfig: MonitoringConfig{Port: 2112},
		APIConfig:        APIConfig{Port: 8080},
		CatalogConfig:    CatalogConfig{SyncIntervalSeconds: 300},
		DiscoveryConfig: DiscoveryConfig{
			MaxAlternatives:   4,
			HighUpfrontCost:   300,
			DefaultPriorities: []string{"kill_rules", "time_pressure", "reset_exposure"},
		},
	}
}

// Read the yaml as a map from the given file path.
func readRawConfig(filepath string) (map[string]any, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return readRawConfigFromBytes(bytes)
}

func readRawConfigFromBytes(data []byte) (map[string]any, error) {
	conf := map[string]any{}
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// mergeMaps recursively overrides dst with src (in-place)
func mergeMaps(dst, src map[string]any) map[string]any {
	result := dst
	for k, v := range src {
		if v == nil {
			// If src value is nil, skip override
			continue
		}
		if dstVal, ok := dst[k]; ok {
			// If both are maps, merge recursively
			dstMap, dstIsMap := dstVal.(map[string]any)
			srcMap, srcIsMap := v.(map[string]any)
			if dstIsMap && srcIsMap {
				result[k] = mergeMaps(dstMap, srcMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}

func (c *config) GetLoggingConfig() LoggingConfig       { return c.LoggingConfig }
func (c *config) GetDBConfig() DBConfig                 { return c.DBConfig }
func (c *config) GetMonitoringConfig() MonitoringConfig { return c.MonitoringConfig }
func (c *config) GetMQTTConfig() MQTTConfig             { return c.MQTTConfig }
func (c *config) GetAPIConfig() APIConfig               { return c.APIConfig }
func (c *config) GetCatalogConfig() CatalogConfig       { return c.CatalogConfig }
func (c *config) GetDiscoveryConfig() DiscoveryConfig   { return c.DiscoveryConfig }
