package query

import (
	"encoding/json"
	"fmt"
)

// Result is the captured output of one generated query execution
type Result struct {
	Columns   []string
	Rows      []map[string]interface{}
	Truncated bool
}

// Scalar reports whether the result is a single value (one row, one column)
func (r *Result) Scalar() (interface{}, bool) {
	if len(r.Rows) != 1 || len(r.Columns) != 1 {
		return nil, false
	}
	return r.Rows[0][r.Columns[0]], true
}

// Normalize serializes the result to the row-oriented textual form shown to
// the user and fed to answer synthesis. A single value passes through as its
// plain text; tabular results become a JSON array of records; an empty result
// is the empty array.
func (r *Result) Normalize() string {
	if value, ok := r.Scalar(); ok {
		return scalarString(value)
	}

	if len(r.Rows) == 0 {
		return "[]"
	}

	data, err := json.Marshal(r.Rows)
	if err != nil {
		// Fallback stringification for anything JSON cannot express
		return fmt.Sprintf("%v", r.Rows)
	}

	return string(data)
}

// scalarString renders one scalar cell as text
func scalarString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
