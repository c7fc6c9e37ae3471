package dataset

import (
	"encoding/json"
	"sync/atomic"
	"time"
)

// Snapshot is one immutable build of the master table. It is constructed
// once by the integration pipeline and shared read-only by all request
// handling; query execution always works on a private copy seeded from it,
// never on the snapshot itself.
type Snapshot struct {
	Table    *Table
	Columns  []string
	RowCount int
	BuiltAt  time.Time
	Sources  []string
}

// NewSnapshot freezes a merged master table
func NewSnapshot(table *Table, sources []string) *Snapshot {
	columns := make([]string, len(table.Columns))
	copy(columns, table.Columns)

	return &Snapshot{
		Table:    table,
		Columns:  columns,
		RowCount: table.RowCount(),
		BuiltAt:  time.Now().UTC(),
		Sources:  sources,
	}
}

// ColumnsJSON renders the column list as a JSON array for the model-facing
// schema description
func (s *Snapshot) ColumnsJSON() string {
	data, err := json.Marshal(s.Columns)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Store holds the current snapshot behind an atomic pointer. A reload
// replaces the handle atomically; concurrent readers hold the handle value
// they loaded and are never affected by a replacement. An empty store is the
// "data unavailable" state.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates an empty snapshot store
func NewStore() *Store {
	return &Store{}
}

// Current returns the live snapshot, or nil when no build has succeeded yet
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Available reports whether a snapshot is ready for query handling
func (s *Store) Available() bool {
	return s.current.Load() != nil
}

// Replace atomically publishes a new snapshot
func (s *Store) Replace(snapshot *Snapshot) {
	s.current.Store(snapshot)
}
