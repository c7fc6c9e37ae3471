package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Standard join key column names shared by all three sources after loading.
const (
	ColumnYear     = "Year"
	ColumnState    = "State"
	ColumnDistrict = "District"
)

// Output column names produced by annual aggregation. Downstream consumers
// (the merge engine and the model-facing schema) depend on these exact names.
const (
	ColumnAnnualRainfall = "Total_Annual_Rainfall_mm"
	ColumnSoilMoisture   = "Mean_Annual_Soil_Moisture"
)

// Table is a column-named, row-oriented in-memory table. Cell values are one
// of: nil (missing), int64, float64, or string.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Key identifies one (Year, State, District) triple used to correlate rows
// across sources.
type Key struct {
	Year     int64
	State    string
	District string
}

func (k Key) String() string {
	return fmt.Sprintf("(%d, %s, %s)", k.Year, k.State, k.District)
}

// NewTable creates an empty table with the given column names
func NewTable(columns ...string) *Table {
	return &Table{
		Columns: columns,
		Rows:    make([][]any, 0),
	}
}

// ColumnIndex returns the position of the named column, or -1 if absent
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has a column with the given name
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// RenameColumns renames columns according to the given old→new mapping.
// Names not present in the table are ignored.
func (t *Table) RenameColumns(renames map[string]string) {
	for i, col := range t.Columns {
		if newName, ok := renames[col]; ok {
			t.Columns[i] = newName
		}
	}
}

// RowCount returns the number of rows in the table
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// KeyAt extracts the (Year, State, District) key of a row. The second return
// value is false when the row's year cannot be coerced to an integer; such a
// row cannot participate in any join.
func (t *Table) KeyAt(row int) (Key, bool) {
	yearIdx := t.ColumnIndex(ColumnYear)
	stateIdx := t.ColumnIndex(ColumnState)
	distIdx := t.ColumnIndex(ColumnDistrict)
	if yearIdx < 0 || stateIdx < 0 || distIdx < 0 {
		return Key{}, false
	}

	year, ok := coerceYear(t.Rows[row][yearIdx])
	if !ok {
		return Key{}, false
	}

	return Key{
		Year:     year,
		State:    cellString(t.Rows[row][stateIdx]),
		District: cellString(t.Rows[row][distIdx]),
	}, true
}

// parseCell converts one raw CSV field into a typed cell value. Empty fields
// become nil; numeric fields become int64 or float64; everything else stays
// a string.
func parseCell(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}

	return raw
}

// cellString renders a cell value as text for key comparison and output
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// cellFloat extracts a numeric cell value. Returns false for nil and
// non-numeric cells.
func cellFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// coerceYear coerces a cell value to an integer year. Fractional values are
// truncated; unparseable values report false.
func coerceYear(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case float64:
		return int64(val), true
	case string:
		trimmed := strings.TrimSpace(val)
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return int64(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}
