package query

import (
	"context"
	"errors"
	"testing"

	"agriclimate-platform/internal/dataset"
	"agriclimate-platform/pkg/logging"
	"agriclimate-platform/pkg/metrics"
)

var (
	testLogger  = logging.NewStructuredLogger("query-test", "0.0.0", logging.ErrorLevel)
	testMetrics = metrics.NewCollector("query_test")
)

func testSnapshot() *dataset.Snapshot {
	table := dataset.NewTable(
		dataset.ColumnYear, dataset.ColumnState, dataset.ColumnDistrict,
		"RICE PRODUCTION (1000 tons)", dataset.ColumnAnnualRainfall,
	)
	table.Rows = append(table.Rows,
		[]any{int64(2010), "Maharashtra", "Pune", 12.5, 36.0},
		[]any{int64(2010), "Punjab", "Ludhiana", 40.0, 12.0},
		[]any{int64(2011), "Maharashtra", "Pune", 13.0, nil},
	)
	return dataset.NewSnapshot(table, []string{"agri.csv", "rain.csv", "soil.csv"})
}

func TestExecutor_Execute(t *testing.T) {
	executor := NewExecutor(500, testLogger, testMetrics)
	snapshot := testSnapshot()

	result, err := executor.Execute(context.Background(), snapshot, `SELECT COUNT(*) AS n FROM df`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	value, ok := result.Scalar()
	if !ok {
		t.Fatalf("result %+v, want a scalar", result)
	}
	if got, ok := value.(int64); !ok || got != 3 {
		t.Errorf("COUNT(*) = %v (%T), want int64 3", value, value)
	}
}

func TestExecutor_QuotedColumnNames(t *testing.T) {
	executor := NewExecutor(500, testLogger, testMetrics)
	snapshot := testSnapshot()

	result, err := executor.Execute(context.Background(), snapshot,
		`SELECT SUM("RICE PRODUCTION (1000 tons)") AS total FROM df WHERE State = 'Maharashtra'`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	value, ok := result.Scalar()
	if !ok {
		t.Fatalf("result %+v, want a scalar", result)
	}
	if got, ok := value.(float64); !ok || got != 25.5 {
		t.Errorf("SUM = %v (%T), want float64 25.5", value, value)
	}
}

func TestExecutor_NullCellsSurviveSeeding(t *testing.T) {
	executor := NewExecutor(500, testLogger, testMetrics)
	snapshot := testSnapshot()

	result, err := executor.Execute(context.Background(), snapshot,
		`SELECT Year FROM df WHERE Total_Annual_Rainfall_mm IS NULL`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(result.Rows))
	}
	if got, ok := result.Rows[0]["Year"].(int64); !ok || got != 2011 {
		t.Errorf("Year = %v, want int64 2011", result.Rows[0]["Year"])
	}
}

func TestExecutor_GuardRejection(t *testing.T) {
	executor := NewExecutor(500, testLogger, testMetrics)
	snapshot := testSnapshot()

	_, err := executor.Execute(context.Background(), snapshot, `DROP TABLE df`)
	if err == nil {
		t.Fatal("Execute() expected guard rejection")
	}

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("error = %T, want *ExecutionError", err)
	}
}

func TestExecutor_RuntimeErrorIsExecutionError(t *testing.T) {
	executor := NewExecutor(500, testLogger, testMetrics)
	snapshot := testSnapshot()

	_, err := executor.Execute(context.Background(), snapshot, `SELECT no_such_column FROM df`)
	if err == nil {
		t.Fatal("Execute() expected runtime error")
	}

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("error = %T, want *ExecutionError", err)
	}
	if execErr.IsTransient() {
		t.Error("a runtime query error should not be transient")
	}
}

func TestExecutor_RowCapTruncates(t *testing.T) {
	executor := NewExecutor(2, testLogger, testMetrics)
	snapshot := testSnapshot()

	result, err := executor.Execute(context.Background(), snapshot, `SELECT State FROM df`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Errorf("rows = %d, want 2", len(result.Rows))
	}
	if !result.Truncated {
		t.Error("result should be marked truncated")
	}
}

func TestResult_Normalize(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{
			name: "scalar passes through",
			result: Result{
				Columns: []string{"n"},
				Rows:    []map[string]interface{}{{"n": int64(3)}},
			},
			want: "3",
		},
		{
			name: "scalar string stays plain",
			result: Result{
				Columns: []string{"State"},
				Rows:    []map[string]interface{}{{"State": "Maharashtra"}},
			},
			want: "Maharashtra",
		},
		{
			name: "scalar null",
			result: Result{
				Columns: []string{"v"},
				Rows:    []map[string]interface{}{{"v": nil}},
			},
			want: "null",
		},
		{
			name:   "empty result",
			result: Result{Columns: []string{"State"}},
			want:   "[]",
		},
		{
			name: "tabular result becomes records",
			result: Result{
				Columns: []string{"State", "n"},
				Rows: []map[string]interface{}{
					{"State": "Punjab", "n": int64(1)},
				},
			},
			want: `[{"State":"Punjab","n":1}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
		})
	}
}
