package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
)

// LoadResult contains per-source load statistics. Skipped rows are tolerated
// corruption; they never abort the load but are reported for observability.
type LoadResult struct {
	Path         string
	TotalRows    int
	LoadedRows   int
	SkippedRows  int
	SkippedLines []int
}

// LoadCSV reads a CSV source into a Table. The first record is the header.
// Rows with a field count differing from the header, or rows the CSV parser
// rejects, are skipped individually and counted in the result. A file that
// cannot be opened yields a *SourceUnavailableError; a file that opens but
// holds no data rows yields an empty table and no error.
func LoadCSV(path string) (*Table, *LoadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, &SourceUnavailableError{Path: path, Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // field count enforced manually so bad rows skip, not fail
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return NewTable(), &LoadResult{Path: path}, nil
	}
	if err != nil {
		return nil, nil, &SourceUnavailableError{Path: path, Err: err}
	}

	columns := make([]string, len(header))
	copy(columns, header)

	table := NewTable(columns...)
	result := &LoadResult{Path: path}

	line := 1
	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.TotalRows++
				result.SkippedRows++
				result.SkippedLines = append(result.SkippedLines, line)
				continue
			}
			return nil, nil, &SourceUnavailableError{Path: path, Err: err}
		}

		result.TotalRows++

		if len(record) != len(columns) {
			result.SkippedRows++
			result.SkippedLines = append(result.SkippedLines, line)
			continue
		}

		row := make([]any, len(record))
		for i, field := range record {
			row[i] = parseCell(field)
		}

		table.Rows = append(table.Rows, row)
		result.LoadedRows++
	}

	return table, result, nil
}

// RequireColumns verifies the table carries every column the pipeline needs
// from this source
func RequireColumns(t *Table, source string, columns ...string) error {
	for _, col := range columns {
		if !t.HasColumn(col) {
			return &MissingColumnError{Column: col, Source: source}
		}
	}
	return nil
}

// WriteCSV writes the table to w with a header row. Nil cells become empty
// fields.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Columns); err != nil {
		return err
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, cell := range row {
			record[i] = cellString(cell)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
