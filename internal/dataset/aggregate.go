package dataset

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Reducer names the reduction applied to a measure column when collapsing
// daily rows to one row per (Year, State, District).
type Reducer string

const (
	// ReduceSum totals the measure across the group (rainfall)
	ReduceSum Reducer = "sum"
	// ReduceMean averages the measure across the group (soil moisture)
	ReduceMean Reducer = "mean"
)

// AggregateSpec configures one annual aggregation pass. The two production
// invocations differ only in column names and the reducer.
type AggregateSpec struct {
	DateColumn    string
	YearColumn    string
	MeasureColumn string
	OutputColumn  string
	Reducer       Reducer
}

// AggregateResult reports rows the aggregator could not use
type AggregateResult struct {
	RowsIn           int
	GroupsOut        int
	DroppedYearRows  int // neither date nor year resolved to a usable year
	SkippedValueRows int // measure cell missing or non-numeric
}

// dateLayouts are tried in order when deriving the year from the date column
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02-01-2006",
	"2006/01/02",
}

type group struct {
	sum   float64
	count int
}

// Aggregate collapses a daily-resolution table to one output row per
// (Year, State, District). The year is derived from the date column first,
// falling back to the explicit year column; rows where neither resolves are
// dropped. Groups with no usable rows simply do not appear; the aggregator
// never fabricates zero-valued rows.
//
// The result is order-independent: permuting input rows yields an identical
// output table.
func Aggregate(t *Table, spec AggregateSpec) (*Table, *AggregateResult, error) {
	if spec.Reducer != ReduceSum && spec.Reducer != ReduceMean {
		return nil, nil, fmt.Errorf("unknown reducer %q", spec.Reducer)
	}

	stateIdx := t.ColumnIndex(ColumnState)
	distIdx := t.ColumnIndex(ColumnDistrict)
	measureIdx := t.ColumnIndex(spec.MeasureColumn)
	dateIdx := t.ColumnIndex(spec.DateColumn)
	yearIdx := t.ColumnIndex(spec.YearColumn)

	if stateIdx < 0 || distIdx < 0 {
		return nil, nil, fmt.Errorf("aggregation requires %s and %s columns", ColumnState, ColumnDistrict)
	}
	if measureIdx < 0 {
		return nil, nil, fmt.Errorf("measure column %q not found", spec.MeasureColumn)
	}
	if dateIdx < 0 && yearIdx < 0 {
		return nil, nil, fmt.Errorf("aggregation requires a %q or %q column", spec.DateColumn, spec.YearColumn)
	}

	result := &AggregateResult{RowsIn: t.RowCount()}
	groups := make(map[Key]*group)

	for _, row := range t.Rows {
		year, ok := deriveYear(row, dateIdx, yearIdx)
		if !ok {
			result.DroppedYearRows++
			continue
		}

		value, ok := cellFloat(row[measureIdx])
		if !ok {
			result.SkippedValueRows++
			continue
		}

		key := Key{
			Year:     year,
			State:    cellString(row[stateIdx]),
			District: cellString(row[distIdx]),
		}

		g, exists := groups[key]
		if !exists {
			g = &group{}
			groups[key] = g
		}
		g.sum += value
		g.count++
	}

	keys := make([]Key, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Year != keys[j].Year {
			return keys[i].Year < keys[j].Year
		}
		if keys[i].State != keys[j].State {
			return keys[i].State < keys[j].State
		}
		return keys[i].District < keys[j].District
	})

	out := NewTable(ColumnYear, ColumnState, ColumnDistrict, spec.OutputColumn)
	for _, key := range keys {
		g := groups[key]
		value := g.sum
		if spec.Reducer == ReduceMean {
			value = g.sum / float64(g.count)
		}
		out.Rows = append(out.Rows, []any{key.Year, key.State, key.District, value})
	}

	result.GroupsOut = len(out.Rows)
	return out, result, nil
}

// deriveYear resolves the grouping year of one daily row: a parseable date
// wins, then the explicit year column. Reports false when neither resolves.
func deriveYear(row []any, dateIdx, yearIdx int) (int64, bool) {
	if dateIdx >= 0 {
		if raw := cellString(row[dateIdx]); raw != "" {
			if year, ok := parseDateYear(raw); ok {
				return year, true
			}
		}
	}

	if yearIdx >= 0 {
		if year, ok := coerceYear(row[yearIdx]); ok {
			return year, true
		}
	}

	return 0, false
}

// parseDateYear extracts the year from a date string, trying known layouts
func parseDateYear(raw string) (int64, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return int64(parsed.Year()), true
		}
	}
	return 0, false
}
