// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cobaltcore-dev/propscout/internal/conf"
	"github.com/go-gorp/gorp"
	_ "github.com/lib/pq"
	"github.com/sapcc/go-bits/easypg"
)

// Wrapper around gorp.DbMap that adds some convenience functions.
type DB struct {
	*gorp.DbMap
	DBConfig conf.DBConfig
	Monitor  Monitor
}

type Table interface {
	TableName() string
}

// Create a new postgres database and wait until it is connected.
func NewPostgresDB(ctx context.Context, c conf.DBConfig, monitor Monitor) (*DB, error) {
	dbURL, err := easypg.URLFrom(easypg.URLParts{
		HostName:          c.Host,
		Port:              strconv.Itoa(c.Port),
		UserName:          c.User,
		Password:          c.Password,
		ConnectionOptions: "sslmode=disable",
		DatabaseName:      c.Database,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("connecting to database", "host", c.Host, "database", c.Database)
	sqlDB, err := sql.Open("postgres", dbURL.String())
	if err != nil {
		return nil, err
	}
	maxRetries := max(c.Reconnect.MaxRetries, 1)
	retryInterval := time.Duration(max(c.Reconnect.RetryIntervalSeconds, 1)) * time.Second
	for i := range maxRetries {
		if monitor.connectionAttempts != nil {
			monitor.connectionAttempts.Inc()
		}
		err = sqlDB.PingContext(ctx)
		if err == nil {
			break
		}
		if i == maxRetries-1 {
			sqlDB.Close()
			return nil, fmt.Errorf("giving up connecting to database after %d attempts: %w", maxRetries, err)
		}
		slog.Error("failed to connect to database, retrying...", "error", err)
		select {
		case <-ctx.Done():
			sqlDB.Close()
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	sqlDB.SetMaxOpenConns(16)
	dbMap := &gorp.DbMap{Db: sqlDB, Dialect: gorp.PostgresDialect{}}
	slog.Info("database is ready")
	return &DB{DbMap: dbMap, DBConfig: c, Monitor: monitor}, nil
}

// Ping the database in the configured interval until the context is done.
// Failed pings are logged and counted, the connection pool reconnects on its own.
func (d *DB) CheckLivenessPeriodically(ctx context.Context) {
	interval := time.Duration(max(d.DBConfig.Reconnect.LivenessPingIntervalSeconds, 1)) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Db.PingContext(ctx); err != nil {
				slog.Error("database liveness check failed", "error", err)
				if d.Monitor.livenessFailures != nil {
					d.Monitor.livenessFailures.Inc()
				}
			}
		}
	}
}

// Adds missing functionality to gorp.DbMap which creates the given tables.
func (d *DB) CreateTable(table ...*gorp.TableMap) error {
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	for _, t := range table {
		slog.Debug("creating table", "table", t.TableName)
		sql := t.SqlForCreate(true) // true means to add IF NOT EXISTS
		if _, err := tx.Exec(sql); err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}
	return tx.Commit()
}

// Adds a Model table to the database.
func (d *DB) AddTable(t Table) *gorp.TableMap {
	return d.AddTableWithName(t, t.TableName())
}

// Run a SELECT and observe how long it took under the given group.
func (d *DB) SelectTimed(ctx context.Context, group string, i any, query string, args ...any) ([]any, error) {
	if d.Monitor.selectTimer != nil {
		timer := d.Monitor.selectTimer.WithLabelValues(group)
		start := time.Now()
		defer func() { timer.Observe(time.Since(start).Seconds()) }()
	}
	return d.WithContext(ctx).Select(i, query, args...)
}

// Convenience function to the database connection.
func (d *DB) Close() {
	if err := d.Db.Close(); err != nil {
		slog.Error("failed to close database connection", "error", err)
	}
}

// Database or transaction that supports update and insert methods.
type upsertable interface {
	Update(list ...any) (int64, error)
	Insert(list ...any) error
}

// Upsert a model into the database (Insert if possible, otherwise Update).
func Upsert(u upsertable, model any) error {
	err := u.Insert(model)
	if err == nil {
		return nil
	}
	if !isDuplicateKey(err) {
		return err
	}
	_, err = u.Update(model)
	return err
}

// Postgres and sqlite report primary key conflicts differently.
func isDuplicateKey(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
