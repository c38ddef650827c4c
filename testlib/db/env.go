// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cobaltcore-dev/propscout/internal/db"
	"github.com/cobaltcore-dev/propscout/testlib/db/containers"
	"github.com/go-gorp/gorp"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sapcc/go-bits/easypg"
)

type DBEnv struct {
	*db.DB
	Close func()
}

// Set up a database for a test. Runs on sqlite unless POSTGRES_CONTAINER=1,
// in which case a throwaway postgres container is started.
func SetupDBEnv(t *testing.T) DBEnv {
	t.Helper()
	var env DBEnv
	if os.Getenv("POSTGRES_CONTAINER") == "1" {
		slog.Info("using real postgres container")
		container := containers.PostgresContainer{}
		container.Init(t)
		dbURL, err := easypg.URLFrom(easypg.URLParts{
			HostName:          "localhost",
			Port:              container.GetPort(),
			UserName:          "postgres",
			Password:          "secret",
			ConnectionOptions: "sslmode=disable",
			DatabaseName:      "postgres",
		})
		if err != nil {
			t.Fatal(err)
		}
		sqlDB, err := sql.Open("postgres", dbURL.String())
		if err != nil {
			t.Fatal(err)
		}
		env.DB = &db.DB{DbMap: &gorp.DbMap{Db: sqlDB, Dialect: gorp.PostgresDialect{}}}
		env.Close = func() {
			env.DB.Close()
			container.Close()
		}
		return env
	}
	sqlDB, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	// Concurrent readers on one sqlite file run into locking errors.
	sqlDB.SetMaxOpenConns(1)
	env.DB = &db.DB{DbMap: &gorp.DbMap{Db: sqlDB, Dialect: gorp.SqliteDialect{}}}
	env.Close = env.DB.Close
	return env
}
