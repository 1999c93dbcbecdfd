// Package bootstrap prepares PostgreSQL before the server starts serving:
// it creates the target database when missing and waits until it answers.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/textdrive/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

const defaultMaintenanceDatabase = "postgres"

// openDB is a seam for tests.
var openDB = func(cfg *pgx.ConnConfig) *sql.DB {
	return stdlib.OpenDB(*cfg)
}

// EnsureDatabase creates the database named in dsn if it does not exist.
// It connects through maintenanceDSN, or through the "postgres" database
// of the same server when maintenanceDSN is empty.
func EnsureDatabase(ctx context.Context, dsn, maintenanceDSN string, logger logging.Logger) error {
	target, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse database dsn: %w", err)
	}
	if target.Database == "" {
		return errors.New("database dsn does not name a database")
	}

	var maintenance *pgx.ConnConfig
	if maintenanceDSN != "" {
		maintenance, err = pgx.ParseConfig(maintenanceDSN)
		if err != nil {
			return fmt.Errorf("parse maintenance dsn: %w", err)
		}
	} else {
		maintenance = target.Copy()
		maintenance.Database = defaultMaintenanceDatabase
	}

	db := openDB(maintenance)
	defer db.Close()

	var exists bool
	err = db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, target.Database).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check database %q: %w", target.Database, err)
	}
	if exists {
		logger.Debug(ctx, "database exists", "database", target.Database)
		return nil
	}

	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pgx.Identifier{target.Database}.Sanitize()); err != nil {
		return fmt.Errorf("create database %q: %w", target.Database, err)
	}
	logger.Info(ctx, "database created", "database", target.Database)
	return nil
}

// WaitReady runs a trivial query every interval until it succeeds or
// timeout elapses. The last query error is returned on timeout. A
// non-positive timeout means a single attempt.
func WaitReady(ctx context.Context, db *sql.DB, timeout, interval time.Duration) error {
	if timeout <= 0 {
		_, err := db.ExecContext(ctx, "SELECT 1")
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, err := db.ExecContext(ctx, "SELECT 1")
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready after %s: %w", timeout, err)
		case <-ticker.C:
		}
	}
}
