package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agriclimate-platform/internal/dataset"
	"agriclimate-platform/pkg/database"
	"agriclimate-platform/pkg/logging"
	"agriclimate-platform/pkg/metrics"
)

// TableName is the name the model is instructed to query against
const TableName = "df"

// Executor runs sanitized generated queries against private copies of the
// master table. Every execution opens a fresh in-memory SQLite database,
// seeds it from the snapshot, runs the single SELECT, and throws the database
// away, so no request can observe another request's execution.
type Executor struct {
	maxResultRows int
	logger        *logging.StructuredLogger
	metrics       *metrics.Collector
}

// NewExecutor creates a query executor with the given result row cap
func NewExecutor(maxResultRows int, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Executor {
	return &Executor{
		maxResultRows: maxResultRows,
		logger:        logger,
		metrics:       metricsCollector,
	}
}

// Execute validates and runs one generated query against a private copy of
// the snapshot. A guard rejection or runtime query failure comes back as an
// *ExecutionError (an expected outcome); any other error is an infrastructure
// fault.
func (e *Executor) Execute(ctx context.Context, snapshot *dataset.Snapshot, sql string) (*Result, error) {
	startTime := time.Now()
	e.metrics.QueryExecutionsTotal.Inc()

	if err := ValidateSelect(sql); err != nil {
		e.metrics.QueryGuardRejectionsTotal.Inc()
		e.metrics.QueryExecutionErrors.Inc()
		e.logger.Warn(ctx, "[QUERY_GUARD_REJECT] Generated query rejected by guard", logging.Fields{
			"query": sql,
		})
		return nil, err
	}

	db, err := database.OpenEphemeral(e.logger, e.metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to open query database: %w", err)
	}
	defer db.Close()

	if err := e.seed(ctx, db, snapshot); err != nil {
		return nil, fmt.Errorf("failed to seed query database: %w", err)
	}

	result, err := e.run(ctx, db, sql)
	duration := time.Since(startTime)
	e.metrics.QueryExecutionDuration.Observe(duration.Seconds())

	if err != nil {
		e.metrics.QueryExecutionErrors.Inc()
		e.logger.Info(ctx, "[QUERY_EXEC_ERROR] Generated query failed at runtime", logging.Fields{
			"query":       sql,
			"error":       err.Error(),
			"duration_ms": duration.Milliseconds(),
		})
		return nil, &ExecutionError{Message: err.Error()}
	}

	e.metrics.QueryResultRows.Observe(float64(len(result.Rows)))
	e.logger.Debug(ctx, "[QUERY_EXEC_SUCCESS] Generated query executed", logging.Fields{
		"rows":        len(result.Rows),
		"truncated":   result.Truncated,
		"duration_ms": duration.Milliseconds(),
	})

	return result, nil
}

// seed creates the df table from the snapshot schema and bulk-inserts all
// rows in one transaction
func (e *Executor) seed(ctx context.Context, db *database.QueryDB, snapshot *dataset.Snapshot) error {
	ddl := buildSchema(snapshot)
	if _, err := db.ExecContext(ctx, "create_df", ddl); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	tx, err := db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(snapshot.Columns)), ",")
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(TableName), placeholders)

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range snapshot.Table.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	return tx.Commit()
}

// run executes the SELECT, reading at most maxResultRows rows
func (e *Executor) run(ctx context.Context, db *database.QueryDB, sql string) (*Result, error) {
	rows, err := db.QueryxContext(ctx, "generated_select", sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{Columns: columns}

	for rows.Next() {
		if len(result.Rows) >= e.maxResultRows {
			result.Truncated = true
			break
		}

		record := make(map[string]interface{})
		if err := rows.MapScan(record); err != nil {
			return nil, err
		}

		for key, value := range record {
			if raw, ok := value.([]byte); ok {
				record[key] = string(raw)
			}
		}

		result.Rows = append(result.Rows, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// buildSchema renders the CREATE TABLE statement for the snapshot. Column
// affinity is chosen by scanning cell values: all-integer columns become
// INTEGER, other numeric columns REAL, everything else TEXT.
func buildSchema(snapshot *dataset.Snapshot) string {
	defs := make([]string, len(snapshot.Columns))
	for i, col := range snapshot.Columns {
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(col), columnAffinity(snapshot.Table, i))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(TableName), strings.Join(defs, ", "))
}

// columnAffinity scans a column's cells to pick a SQLite type affinity
func columnAffinity(t *dataset.Table, col int) string {
	sawFloat := false
	sawInt := false

	for _, row := range t.Rows {
		switch row[col].(type) {
		case nil:
			continue
		case int64:
			sawInt = true
		case float64:
			sawFloat = true
		default:
			return "TEXT"
		}
	}

	if sawFloat {
		return "REAL"
	}
	if sawInt {
		return "INTEGER"
	}
	return "TEXT"
}

// quoteIdent double-quotes an identifier, escaping embedded quotes. Needed
// because crop metric columns carry names like `RICE PRODUCTION (1000 tons)`.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
