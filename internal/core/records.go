package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Required column names, after normalization.
const (
	ColumnUser = "user"
	ColumnText = "text"
)

var requiredColumns = []string{ColumnUser, ColumnText}

// LoadRecords reads a CSV file into a RecordTable.
//
// Column names are lower-cased and trimmed. The file must contain "user"
// and "text" columns; other columns are kept in each Record's Fields.
// A header-only file returns an empty table.
func LoadRecords(path string) (*RecordTable, error) {
	const op = "load records"

	f, err := os.Open(path)
	if err != nil {
		return nil, ioError(op, err)
	}
	defer f.Close()

	table, err := ReadRecords(f)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Op = op
			return nil, e
		}
		return nil, ioError(op, err)
	}
	return table, nil
}

// ReadRecords parses CSV content from r. See LoadRecords.
func ReadRecords(r io.Reader) (*RecordTable, error) {
	const op = "read records"

	reader := csv.NewReader(NormalizeInput(r))
	// Short rows are padded below; long rows are still an error.
	reader.FieldsPerRecord = -1

	rawHeader, err := reader.Read()
	if err == io.EOF {
		return nil, ioError(op, errors.New("empty file: no header row"))
	}
	if err != nil {
		return nil, ioError(op, fmt.Errorf("parse error: %w", err))
	}

	header := NormalizeHeader(rawHeader)
	idx := HeaderIndex(header)

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, schemaError(op, "missing required column(s): %s (CSV must contain columns: %s)",
			strings.Join(missing, ", "), strings.Join(requiredColumns, ", "))
	}

	userPos, textPos := idx[ColumnUser], idx[ColumnText]
	table := &RecordTable{Header: header}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ioError(op, fmt.Errorf("parse error: %w", err))
		}
		if len(row) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, ioError(op, fmt.Errorf("record on line %d: wrong number of fields: expected %d, saw %d",
				line, len(header), len(row)))
		}
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}

		table.Records = append(table.Records, Record{
			User:   row[userPos],
			Text:   row[textPos],
			Fields: row,
		})
	}

	return table, nil
}

// NormalizeHeader lower-cases and trims every column name.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

// HeaderIndex maps column names to their position. When a name repeats,
// the first occurrence wins.
func HeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return idx
}
