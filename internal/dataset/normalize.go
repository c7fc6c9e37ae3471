package dataset

import (
	"strings"
	"unicode"
)

// NormalizeResult reports what key normalization changed and dropped
type NormalizeResult struct {
	RowsIn          int
	RowsOut         int
	DroppedYearRows int
}

// NormalizeKeys canonicalizes the join key columns of a table in place:
// State and District are trimmed and title-cased, Year is coerced to an
// integer. Rows whose Year cannot be coerced are dropped; they can never
// participate in a join. Columns absent from the table are left alone.
//
// Normalization is idempotent: applying it to already-normalized data yields
// identical output.
func NormalizeKeys(t *Table) *NormalizeResult {
	result := &NormalizeResult{RowsIn: t.RowCount()}

	stateIdx := t.ColumnIndex(ColumnState)
	distIdx := t.ColumnIndex(ColumnDistrict)
	yearIdx := t.ColumnIndex(ColumnYear)

	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if yearIdx >= 0 {
			year, ok := coerceYear(row[yearIdx])
			if !ok {
				result.DroppedYearRows++
				continue
			}
			row[yearIdx] = year
		}

		if stateIdx >= 0 {
			row[stateIdx] = titleCase(strings.TrimSpace(cellString(row[stateIdx])))
		}

		if distIdx >= 0 {
			row[distIdx] = titleCase(strings.TrimSpace(cellString(row[distIdx])))
		}

		kept = append(kept, row)
	}

	t.Rows = kept
	result.RowsOut = t.RowCount()
	return result
}

// NormalizePlaceKeys canonicalizes only the State and District columns, in
// place. Daily-resolution tables go through this before aggregation so that
// formatting variants of the same place fall into one group; their year
// handling stays with the aggregator, which prefers the date column over the
// explicit year column.
func NormalizePlaceKeys(t *Table) {
	stateIdx := t.ColumnIndex(ColumnState)
	distIdx := t.ColumnIndex(ColumnDistrict)

	for _, row := range t.Rows {
		if stateIdx >= 0 {
			row[stateIdx] = titleCase(strings.TrimSpace(cellString(row[stateIdx])))
		}
		if distIdx >= 0 {
			row[distIdx] = titleCase(strings.TrimSpace(cellString(row[distIdx])))
		}
	}
}

// titleCase upper-cases the first letter of every alphabetic run and
// lower-cases the rest, so that "pune", "PUNE" and "Pune " all compare equal
// after normalization. Any non-letter acts as a word boundary ("uttar-pradesh"
// becomes "Uttar-Pradesh").
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	startOfWord := true
	for _, r := range s {
		if !unicode.IsLetter(r) {
			b.WriteRune(r)
			startOfWord = true
			continue
		}
		if startOfWord {
			b.WriteRune(unicode.ToUpper(r))
			startOfWord = false
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
	}

	return b.String()
}
