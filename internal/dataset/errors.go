package dataset

import (
	"fmt"
)

// SourceUnavailableError indicates a required source file is missing or
// unreadable. This is fatal to pipeline construction: no partial master
// table is ever produced.
type SourceUnavailableError struct {
	Path string
	Err  error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("data source unavailable: %s: %v", e.Path, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// IsTransient returns false: a missing source file requires external
// intervention followed by a reload.
func (e *SourceUnavailableError) IsTransient() bool {
	return false
}

// MissingColumnError indicates a loaded source lacks a column required
// downstream
type MissingColumnError struct {
	Column string
	Source string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("source %s is missing required column %q", e.Source, e.Column)
}

func (e *MissingColumnError) IsTransient() bool {
	return false
}
