package doctree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedTable means a table's structure could not be recovered.
var ErrMalformedTable = errors.New("malformed table")

// Table is a detected table: an optional header row plus data rows.
type Table struct {
	Caption string
	Columns []string   // Header cells; may be empty
	Rows    [][]string // Data rows
	Err     error      // Set by the converter when structure extraction failed
}

// Check reports whether the table can be rendered. Rows shorter than the
// header are accepted and padded; rows wider than the header are not. A
// table must have at least one non-blank cell.
func (t Table) Check() error {
	if t.Err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedTable, t.Err)
	}
	if len(t.Columns) == 0 && len(t.Rows) == 0 {
		return fmt.Errorf("%w: no columns or rows", ErrMalformedTable)
	}
	if !t.hasContent() {
		return fmt.Errorf("%w: all cells are empty", ErrMalformedTable)
	}
	if len(t.Columns) == 0 {
		return nil
	}
	for i, row := range t.Rows {
		if len(row) > len(t.Columns) {
			return fmt.Errorf("%w: row %d has %d cells, header has %d", ErrMalformedTable, i, len(row), len(t.Columns))
		}
	}
	return nil
}

// Width returns the number of columns in the rendered grid.
func (t Table) Width() int {
	w := len(t.Columns)
	for _, row := range t.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// Grid returns the header (if any) and rows padded to a uniform width.
func (t Table) Grid() [][]string {
	w := t.Width()
	grid := make([][]string, 0, len(t.Rows)+1)
	if len(t.Columns) > 0 {
		grid = append(grid, pad(t.Columns, w))
	}
	for _, row := range t.Rows {
		grid = append(grid, pad(row, w))
	}
	return grid
}

// Records returns each data row as a column->cell map. Tables without a
// header use positional column names ("0", "1", ...).
func (t Table) Records() ([]map[string]string, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}
	cols := t.ColumnNames()
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(cols))
		for j, col := range cols {
			if j < len(row) {
				rec[col] = row[j]
			} else {
				rec[col] = ""
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// ColumnNames returns the header, or positional names when there is none.
func (t Table) ColumnNames() []string {
	if len(t.Columns) > 0 {
		return append([]string(nil), t.Columns...)
	}
	w := t.Width()
	names := make([]string, w)
	for i := range names {
		names[i] = fmt.Sprintf("%d", i)
	}
	return names
}

func (t Table) hasContent() bool {
	for _, c := range t.Columns {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	for _, row := range t.Rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				return true
			}
		}
	}
	return false
}

func pad(row []string, w int) []string {
	out := make([]string, w)
	copy(out, row)
	return out
}
