package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"agriclimate-platform/pkg/logging"
	"agriclimate-platform/pkg/metrics"
)

// QueryDB wraps a private in-memory SQLite database. One is opened per
// question request, seeded from the master table snapshot, queried once, and
// closed, so generated queries never touch shared state.
type QueryDB struct {
	db      *sqlx.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// OpenEphemeral opens a fresh in-memory SQLite database. Each call returns a
// fully isolated database: two QueryDB values never share data.
func OpenEphemeral(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*QueryDB, error) {
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	// A second connection would see a different, empty :memory: database.
	db.SetMaxOpenConns(1)

	return &QueryDB{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}, nil
}

// Close releases the database and all data seeded into it
func (q *QueryDB) Close() error {
	return q.db.Close()
}

// ExecContext executes a command with context and timing diagnostics
func (q *QueryDB) ExecContext(ctx context.Context, queryType, query string, args ...interface{}) (sql.Result, error) {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		q.logger.Debug(ctx, "[QUERYDB_EXEC] Command executed", logging.Fields{
			"query_type":  queryType,
			"duration_ms": duration.Milliseconds(),
		})
	}()

	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		q.logger.Debug(ctx, "[QUERYDB_EXEC_ERROR] Command failed", logging.Fields{
			"query_type": queryType,
			"error":      err.Error(),
		})
		return nil, err
	}

	return result, nil
}

// QueryxContext executes a query returning rows
func (q *QueryDB) QueryxContext(ctx context.Context, queryType, query string, args ...interface{}) (*sqlx.Rows, error) {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		q.logger.Debug(ctx, "[QUERYDB_QUERY] Query executed", logging.Fields{
			"query_type":  queryType,
			"duration_ms": duration.Milliseconds(),
		})
	}()

	return q.db.QueryxContext(ctx, query, args...)
}

// BeginTx begins a transaction, used for bulk seeding of the snapshot rows
func (q *QueryDB) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := q.db.BeginTxx(ctx, nil)
	if err != nil {
		q.logger.Error(ctx, "[QUERYDB_TX_ERROR] Failed to begin transaction", logging.Fields{}, err)
		return nil, err
	}

	return tx, nil
}
