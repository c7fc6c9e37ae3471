package dataset

import (
	"math/rand"
	"reflect"
	"testing"
)

func rainSpec() AggregateSpec {
	return AggregateSpec{
		DateColumn:    "Date",
		YearColumn:    "Year",
		MeasureColumn: "Avg_rainfall",
		OutputColumn:  ColumnAnnualRainfall,
		Reducer:       ReduceSum,
	}
}

func soilSpec() AggregateSpec {
	return AggregateSpec{
		DateColumn:    "Date",
		YearColumn:    "Year",
		MeasureColumn: "Avg_smlvl_at15cm",
		OutputColumn:  ColumnSoilMoisture,
		Reducer:       ReduceMean,
	}
}

func TestAggregate_SumRainfall(t *testing.T) {
	table := NewTable("Date", "State", "District", "Avg_rainfall")
	table.Rows = append(table.Rows,
		[]any{"2010-06-01", "Maharashtra", "Pune", 10.5},
		[]any{"2010-06-02", "Maharashtra", "Pune", 20.0},
		[]any{"2010-06-03", "Maharashtra", "Pune", 5.5},
		[]any{"2011-06-01", "Maharashtra", "Pune", 3.0},
	)

	out, result, err := Aggregate(table, rainSpec())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if result.GroupsOut != 2 {
		t.Fatalf("GroupsOut = %d, want 2", result.GroupsOut)
	}

	want := [][]any{
		{int64(2010), "Maharashtra", "Pune", 36.0},
		{int64(2011), "Maharashtra", "Pune", 3.0},
	}
	if !reflect.DeepEqual(out.Rows, want) {
		t.Errorf("Rows = %v, want %v", out.Rows, want)
	}
	if out.Columns[3] != ColumnAnnualRainfall {
		t.Errorf("output column = %q, want %q", out.Columns[3], ColumnAnnualRainfall)
	}
}

func TestAggregate_MeanSoilMoisture(t *testing.T) {
	table := NewTable("Date", "State", "District", "Avg_smlvl_at15cm")
	table.Rows = append(table.Rows,
		[]any{"2010-06-01", "Maharashtra", "Pune", 30.0},
		[]any{"2010-06-02", "Maharashtra", "Pune", 40.0},
	)

	out, _, err := Aggregate(table, soilSpec())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	want := [][]any{{int64(2010), "Maharashtra", "Pune", 35.0}}
	if !reflect.DeepEqual(out.Rows, want) {
		t.Errorf("Rows = %v, want %v", out.Rows, want)
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	rows := [][]any{
		{"2010-06-01", "Maharashtra", "Pune", 10.5},
		{"2010-06-02", "Maharashtra", "Pune", 20.0},
		{"2011-01-15", "Punjab", "Ludhiana", 4.0},
		{"2010-08-09", "Kerala", "Idukki", 7.5},
		{"2011-01-16", "Punjab", "Ludhiana", 6.0},
	}

	build := func(perm []int) *Table {
		table := NewTable("Date", "State", "District", "Avg_rainfall")
		for _, i := range perm {
			table.Rows = append(table.Rows, append([]any{}, rows[i]...))
		}
		return table
	}

	base, _, err := Aggregate(build([]int{0, 1, 2, 3, 4}), rainSpec())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 5; trial++ {
		perm := rng.Perm(len(rows))
		out, _, err := Aggregate(build(perm), rainSpec())
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}
		if !reflect.DeepEqual(out.Rows, base.Rows) {
			t.Fatalf("permutation %v changed output:\n got %v\nwant %v", perm, out.Rows, base.Rows)
		}
	}
}

func TestAggregate_YearFallback(t *testing.T) {
	table := NewTable("Date", "Year", "State", "District", "Avg_rainfall")
	table.Rows = append(table.Rows,
		// date wins even when a year column disagrees
		[]any{"2010-06-01", int64(1999), "Maharashtra", "Pune", 1.0},
		// unparseable date falls back to the year column
		[]any{"junk", int64(2010), "Maharashtra", "Pune", 2.0},
		[]any{nil, int64(2010), "Maharashtra", "Pune", 3.0},
		// neither resolves: dropped
		[]any{"junk", "n/a", "Maharashtra", "Pune", 4.0},
	)

	out, result, err := Aggregate(table, rainSpec())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if result.DroppedYearRows != 1 {
		t.Errorf("DroppedYearRows = %d, want 1", result.DroppedYearRows)
	}

	want := [][]any{{int64(2010), "Maharashtra", "Pune", 6.0}}
	if !reflect.DeepEqual(out.Rows, want) {
		t.Errorf("Rows = %v, want %v", out.Rows, want)
	}
}

func TestAggregate_SkipsNonNumericValues(t *testing.T) {
	table := NewTable("Date", "State", "District", "Avg_rainfall")
	table.Rows = append(table.Rows,
		[]any{"2010-06-01", "Maharashtra", "Pune", 10.0},
		[]any{"2010-06-02", "Maharashtra", "Pune", nil},
		[]any{"2010-06-03", "Maharashtra", "Pune", "trace"},
	)

	out, result, err := Aggregate(table, rainSpec())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if result.SkippedValueRows != 2 {
		t.Errorf("SkippedValueRows = %d, want 2", result.SkippedValueRows)
	}
	if out.Rows[0][3] != 10.0 {
		t.Errorf("sum = %v, want 10.0", out.Rows[0][3])
	}
}

func TestAggregate_EmptyGroupsDoNotAppear(t *testing.T) {
	table := NewTable("Date", "State", "District", "Avg_rainfall")
	table.Rows = append(table.Rows,
		[]any{"2010-06-01", "Maharashtra", "Pune", nil},
	)

	out, _, err := Aggregate(table, rainSpec())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if out.RowCount() != 0 {
		t.Errorf("RowCount() = %d, want 0 (no fabricated zero rows)", out.RowCount())
	}
}

func TestAggregate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		spec    AggregateSpec
	}{
		{
			name:    "unknown reducer",
			columns: []string{"Date", "State", "District", "Avg_rainfall"},
			spec: AggregateSpec{
				DateColumn: "Date", MeasureColumn: "Avg_rainfall",
				OutputColumn: "out", Reducer: Reducer("median"),
			},
		},
		{
			name:    "missing state column",
			columns: []string{"Date", "District", "Avg_rainfall"},
			spec:    rainSpec(),
		},
		{
			name:    "missing measure column",
			columns: []string{"Date", "State", "District"},
			spec:    rainSpec(),
		},
		{
			name:    "no date or year column",
			columns: []string{"State", "District", "Avg_rainfall"},
			spec:    rainSpec(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Aggregate(NewTable(tt.columns...), tt.spec); err == nil {
				t.Error("Aggregate() expected error")
			}
		})
	}
}
