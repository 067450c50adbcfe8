// Package db owns the Postgres connection and schema. Page embeddings are
// stored with the pgvector extension as arrays of halfvec(128), one array
// element per patch vector.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"
)

// Config holds the database settings.
type Config struct {
	DSN              string
	Debug            bool
	ReadinessTimeout time.Duration
}

// Connect opens a bun handle over the Postgres DSN. The connection is lazy;
// call WaitForReady before serving traffic.
func Connect(cfg Config) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	bdb := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		bdb.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return bdb
}

// WaitForReady pings the database until it answers or the timeout expires.
func WaitForReady(ctx context.Context, bdb *bun.DB, timeout time.Duration, log *zap.Logger) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastErr error
	for {
		if lastErr = bdb.PingContext(ctx); lastErr == nil {
			return nil
		}
		log.Warn("database not ready", zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready after %s: %w", timeout, lastErr)
		case <-ticker.C:
		}
	}
}
