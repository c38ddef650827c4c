// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/cobaltcore-dev/propscout/internal/accounts"
	"github.com/cobaltcore-dev/propscout/internal/api"
	"github.com/cobaltcore-dev/propscout/internal/catalog"
	"github.com/cobaltcore-dev/propscout/internal/conf"
	"github.com/cobaltcore-dev/propscout/internal/db"
	"github.com/cobaltcore-dev/propscout/internal/discovery"
	"github.com/cobaltcore-dev/propscout/internal/monitoring"
	"github.com/cobaltcore-dev/propscout/internal/mqtt"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sapcc/go-api-declarations/bininfo"
	"github.com/sapcc/go-bits/httpext"
	"github.com/sapcc/go-bits/must"
	"github.com/shopspring/decimal"
	"go.uber.org/automaxprocs/maxprocs"
)

// Run the prometheus metrics server for monitoring.
func runMonitoringServer(ctx context.Context, registry *monitoring.Registry, config conf.MonitoringConfig) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	slog.Info("metrics listening", "port", config.Port)
	addr := fmt.Sprintf(":%d", config.Port)
	if err := httpext.ListenAndServeContext(ctx, addr, mux); err != nil {
		panic(err)
	}
}

// Message printed if propscout is started with unknown arguments.
const usage = `
  modes:
  serve                Serve discovery requests with a http API (default).
  seed [fixture.yaml]  Load a catalog fixture into the database and exit.
                       Without a file, the bundled demo catalog is loaded.
`

// Engine options from the config. Unknown priority names are fatal.
func discoveryOptions(config conf.DiscoveryConfig) discovery.Options {
	// Defaults are already merged into the config, so an explicit 0 means primary only.
	maxAlternatives := config.MaxAlternatives
	if maxAlternatives == 0 {
		maxAlternatives = -1
	}
	return discovery.Options{
		MaxAlternatives:   maxAlternatives,
		HighUpfrontCost:   decimal.NewFromFloat(config.HighUpfrontCost),
		DefaultPriorities: must.Return(discovery.ParsePriorities(config.DefaultPriorities)),
	}
}

// Load a fixture into the catalog tables, replacing what was there.
func seed(ctx context.Context, database *db.DB, args []string) {
	loader := catalog.FixtureLoader{}
	if len(args) > 0 {
		loader.Path = args[0]
	}
	c := must.Return(loader.Load(ctx))
	must.Succeed(catalog.NewDBRepository(database).Seed(ctx, c))
	slog.Info("seeded catalog", "fixture", loader.Path, "firms", len(c.Firms), "offers", len(c.Offers))
}

func serve(ctx context.Context, config conf.Config, registry *monitoring.Registry, database *db.DB) {
	options := discoveryOptions(config.GetDiscoveryConfig())

	// Read the catalog from a fixture if one is configured, otherwise from the database.
	catalogConf := config.GetCatalogConfig()
	var loader catalog.Loader
	if catalogConf.FixturePath != "" {
		slog.Info("serving catalog from fixture", "path", catalogConf.FixturePath)
		loader = catalog.FixtureLoader{Path: catalogConf.FixturePath}
	} else {
		repo := catalog.NewDBRepository(database)
		must.Succeed(repo.Init())
		loader = repo
	}
	interval := time.Duration(catalogConf.SyncIntervalSeconds) * time.Second
	syncer := catalog.NewSyncer(loader, interval, catalog.NewSyncMonitor(registry))

	store := must.Return(accounts.NewDBStore(database))

	go database.CheckLivenessPeriodically(ctx)
	go runMonitoringServer(ctx, registry, config.GetMonitoringConfig())
	go syncer.Run(ctx)

	// Results are only published if a broker is configured.
	var mqttClient mqtt.Client
	if mqttConf := config.GetMQTTConfig(); mqttConf.URL != "" {
		mqttClient = mqtt.NewClient(mqttConf, mqtt.NewMQTTMonitor(registry))
		if err := mqttClient.Connect(); err != nil {
			panic("failed to connect to mqtt broker: " + err.Error())
		}
		defer mqttClient.Disconnect()
	} else {
		slog.Warn("no mqtt broker configured, discovery results will not be published")
	}

	// Run an api server that serves some basic endpoints and can be extended.
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	api.NewAPI(config.GetAPIConfig(), options, syncer, store, registry, mqttClient).Init(mux)

	apiConf := config.GetAPIConfig()
	slog.Info("api listening", "port", apiConf.Port)
	addr := fmt.Sprintf(":%d", apiConf.Port)
	if err := httpext.ListenAndServeContext(ctx, addr, mux); err != nil {
		panic(err)
	}
}

func main() {
	// If called with `--version`, report version and exit (the Dockerfile
	// uses this to check if the binary was built correctly)
	bininfo.HandleVersionArgument()

	mode, args := "serve", os.Args[1:]
	if len(args) > 0 {
		mode, args = args[0], args[1:]
	}
	if mode != "serve" && mode != "seed" {
		slog.Error("invalid arguments", "args", os.Args)
		panic(usage)
	}
	bininfo.SetTaskName(mode)

	config := conf.GetConfigOrDie()
	must.Succeed(config.Validate())
	config.GetLoggingConfig().SetDefaultLogger()

	// Set runtime concurrency to match CPU limit imposed by Kubernetes
	undoMaxprocs := must.Return(maxprocs.Set(maxprocs.Logger(slog.Debug)))
	defer undoMaxprocs()

	// This context will gracefully shutdown when the process receives the
	// standard shutdown signal SIGINT, with a 10-second delay to allow
	// Kubernetes to stop sending new requests well before the process starts
	// to shut down.
	ctx := httpext.ContextWithSIGINT(context.Background(), 10*time.Second)

	registry := monitoring.NewRegistry(config.GetMonitoringConfig())
	database := must.Return(db.NewPostgresDB(ctx, config.GetDBConfig(), db.NewDBMonitor(registry)))
	defer database.Close()

	switch mode {
	case "seed":
		seed(ctx, database, args)
	default:
		serve(ctx, config, registry, database)
	}
}
