package dataset

import (
	"reflect"
	"testing"
)

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pune", "Pune"},
		{"PUNE", "Pune"},
		{"maharashtra", "Maharashtra"},
		{"uttar pradesh", "Uttar Pradesh"},
		{"uttar-pradesh", "Uttar-Pradesh"},
		{"", ""},
		{"a", "A"},
		{"24 parganas", "24 Parganas"},
	}

	for _, tt := range tests {
		if got := titleCase(tt.in); got != tt.want {
			t.Errorf("titleCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeKeys(t *testing.T) {
	table := NewTable("Year", "State", "District", "Production")
	table.Rows = append(table.Rows,
		[]any{int64(2010), " maharashtra ", "pune", 12.5},
		[]any{"2011", "PUNJAB", " ludhiana", 7.0},
		[]any{"n/a", "Kerala", "Idukki", 3.0},
		[]any{2012.0, "kerala", "idukki ", 4.0},
	)

	result := NormalizeKeys(table)

	if result.RowsIn != 4 || result.RowsOut != 3 || result.DroppedYearRows != 1 {
		t.Fatalf("result = %+v, want in 4, out 3, dropped 1", result)
	}

	want := [][]any{
		{int64(2010), "Maharashtra", "Pune", 12.5},
		{int64(2011), "Punjab", "Ludhiana", 7.0},
		{int64(2012), "Kerala", "Idukki", 4.0},
	}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("Rows = %v, want %v", table.Rows, want)
	}
}

func TestNormalizeKeys_Idempotent(t *testing.T) {
	table := NewTable("Year", "State", "District")
	table.Rows = append(table.Rows,
		[]any{int64(2010), " maharashtra ", "PUNE"},
		[]any{"2011", "punjab", "ludhiana "},
	)

	NormalizeKeys(table)

	first := make([][]any, len(table.Rows))
	for i, row := range table.Rows {
		first[i] = append([]any{}, row...)
	}

	result := NormalizeKeys(table)

	if result.DroppedYearRows != 0 {
		t.Errorf("second pass dropped %d rows, want 0", result.DroppedYearRows)
	}
	if !reflect.DeepEqual(table.Rows, first) {
		t.Errorf("second pass changed rows: %v, want %v", table.Rows, first)
	}
}

func TestNormalizeKeys_MissingColumnsLeftAlone(t *testing.T) {
	table := NewTable("State", "Value")
	table.Rows = append(table.Rows, []any{"pune ", 1.0})

	result := NormalizeKeys(table)

	if result.RowsOut != 1 || result.DroppedYearRows != 0 {
		t.Fatalf("result = %+v, want 1 row kept without year column", result)
	}
	if table.Rows[0][0] != "Pune" {
		t.Errorf("State = %v, want Pune", table.Rows[0][0])
	}
}

func TestNormalizePlaceKeys(t *testing.T) {
	table := NewTable("Date", "State", "District", "Avg_rainfall")
	table.Rows = append(table.Rows,
		[]any{"2010-06-01", "maharashtra", "pune ", 10.5},
		[]any{"not-a-date", " MAHARASHTRA", "Pune", 20.0},
	)

	NormalizePlaceKeys(table)

	// Place keys are canonical, everything else untouched. No rows drop here:
	// year resolution belongs to the aggregator.
	if table.RowCount() != 2 {
		t.Fatalf("RowCount() = %d, want 2", table.RowCount())
	}
	for i, row := range table.Rows {
		if row[1] != "Maharashtra" || row[2] != "Pune" {
			t.Errorf("row %d place = (%v, %v), want (Maharashtra, Pune)", i, row[1], row[2])
		}
	}
	if table.Rows[1][0] != "not-a-date" {
		t.Errorf("Date = %v, want untouched", table.Rows[1][0])
	}
}
