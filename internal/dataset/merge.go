package dataset

import (
	"fmt"
)

// keyColumns are the join columns every merge input must carry
var keyColumns = []string{ColumnYear, ColumnState, ColumnDistrict}

// Merge left-joins the two annual aggregates onto the crop table on
// (Year, State, District), producing the master table. Every crop row is
// preserved; where no aggregate row matches, the extended cells are nil.
// Rows whose key cannot be resolved on the right side never match anything;
// unkeyable crop rows are dropped since they could never join.
func Merge(crop, rainAnnual, soilAnnual *Table) (*Table, error) {
	merged, err := leftJoin(crop, rainAnnual)
	if err != nil {
		return nil, fmt.Errorf("joining rainfall aggregate: %w", err)
	}

	merged, err = leftJoin(merged, soilAnnual)
	if err != nil {
		return nil, fmt.Errorf("joining soil moisture aggregate: %w", err)
	}

	return merged, nil
}

// leftJoin joins right onto left on (Year, State, District). The output
// carries all left columns followed by the non-key columns of right.
func leftJoin(left, right *Table) (*Table, error) {
	for _, col := range keyColumns {
		if !left.HasColumn(col) {
			return nil, fmt.Errorf("left table is missing join column %q", col)
		}
		if !right.HasColumn(col) {
			return nil, fmt.Errorf("right table is missing join column %q", col)
		}
	}

	// Positions of the right table's payload (non-key) columns.
	payloadIdx := make([]int, 0, len(right.Columns))
	payloadNames := make([]string, 0, len(right.Columns))
	for i, col := range right.Columns {
		if col == ColumnYear || col == ColumnState || col == ColumnDistrict {
			continue
		}
		payloadIdx = append(payloadIdx, i)
		payloadNames = append(payloadNames, col)
	}

	lookup := make(map[Key][]any, right.RowCount())
	for i := range right.Rows {
		key, ok := right.KeyAt(i)
		if !ok {
			continue
		}
		if _, dup := lookup[key]; dup {
			return nil, fmt.Errorf("right table has duplicate rows for key %s", key)
		}

		payload := make([]any, len(payloadIdx))
		for j, idx := range payloadIdx {
			payload[j] = right.Rows[i][idx]
		}
		lookup[key] = payload
	}

	out := NewTable(append(append([]string{}, left.Columns...), payloadNames...)...)
	out.Rows = make([][]any, 0, left.RowCount())

	for i := range left.Rows {
		key, ok := left.KeyAt(i)
		if !ok {
			continue
		}

		row := make([]any, 0, len(out.Columns))
		row = append(row, left.Rows[i]...)

		if payload, matched := lookup[key]; matched {
			row = append(row, payload...)
		} else {
			for range payloadNames {
				row = append(row, nil)
			}
		}

		out.Rows = append(out.Rows, row)
	}

	return out, nil
}
