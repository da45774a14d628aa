// Package source provides a typed, read-only view over tabular input:
// a header row naming the columns plus the data rows beneath it.
package source

import "github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"

// NotFound is the column index reported for unknown column names.
const NotFound = -1

// Table is an immutable table of cells with a static column-name lookup.
type Table struct {
	headers []string
	rows    [][]models.Value
	lookup  map[string]int
}

// New builds a Table. When a header repeats, the first column wins.
func New(headers []string, rows [][]models.Value) *Table {
	lookup := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, seen := lookup[h]; !seen {
			lookup[h] = i
		}
	}
	return &Table{headers: headers, rows: rows, lookup: lookup}
}

// Headers returns the column names in order.
func (t *Table) Headers() []string {
	return t.headers
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the raw cells of row i.
func (t *Table) Row(i int) []models.Value {
	return t.rows[i]
}

// ColumnIndex returns the position of the named column, or NotFound.
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.lookup[name]; ok {
		return i
	}
	return NotFound
}

// Value returns the cell at the named column of row i. The second result is
// false when the column is unknown or the row is too short to hold it.
func (t *Table) Value(column string, i int) (models.Value, bool) {
	return t.Cell(t.ColumnIndex(column), i)
}

// Cell returns the cell at a column position of row i.
func (t *Table) Cell(column, i int) (models.Value, bool) {
	if column < 0 || i < 0 || i >= len(t.rows) {
		return nil, false
	}
	row := t.rows[i]
	if column >= len(row) {
		return nil, false
	}
	return row[column], true
}
