package dataset

import (
	"testing"
)

func TestStore(t *testing.T) {
	store := NewStore()

	if store.Available() {
		t.Error("empty store should not report data available")
	}
	if store.Current() != nil {
		t.Error("empty store should return nil snapshot")
	}

	table := NewTable("Year", "State", "District")
	table.Rows = append(table.Rows, []any{int64(2010), "Maharashtra", "Pune"})
	first := NewSnapshot(table, []string{"agri.csv"})

	store.Replace(first)

	if !store.Available() {
		t.Error("store should report data available after Replace")
	}
	if store.Current() != first {
		t.Error("Current() should return the published snapshot")
	}

	second := NewSnapshot(NewTable("Year", "State", "District"), []string{"agri.csv"})
	store.Replace(second)

	if store.Current() != second {
		t.Error("Replace() should swap the live snapshot")
	}
}

func TestSnapshot(t *testing.T) {
	table := NewTable("Year", "State", "District", ColumnAnnualRainfall)
	table.Rows = append(table.Rows,
		[]any{int64(2010), "Maharashtra", "Pune", 36.0},
		[]any{int64(2011), "Maharashtra", "Pune", 40.0},
	)

	snapshot := NewSnapshot(table, []string{"agri.csv", "rain.csv", "soil.csv"})

	if snapshot.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", snapshot.RowCount)
	}
	if snapshot.BuiltAt.IsZero() {
		t.Error("BuiltAt should be set")
	}

	want := `["Year","State","District","Total_Annual_Rainfall_mm"]`
	if got := snapshot.ColumnsJSON(); got != want {
		t.Errorf("ColumnsJSON() = %s, want %s", got, want)
	}
}
