package chunker

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// SerializeTable renders a table as a caption line followed by a
// fixed-width text grid. It returns an error wrapping
// doctree.ErrMalformedTable instead of rendering a table whose structure
// could not be recovered.
func SerializeTable(t doctree.Table) (string, error) {
	if err := t.Check(); err != nil {
		return "", err
	}

	var sb strings.Builder
	if caption := strings.TrimSpace(t.Caption); caption != "" {
		sb.WriteString("Table: " + caption + "\n")
	} else {
		sb.WriteString("Table:\n")
	}

	var grid strings.Builder
	tw := tabwriter.NewWriter(&grid, 0, 0, 2, ' ', 0)
	for _, row := range t.Grid() {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = cleanCell(c)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}

	sb.WriteString(strings.TrimRight(grid.String(), "\n"))
	return sb.String(), nil
}

// cleanCell collapses internal whitespace (including tabs and newlines,
// which would break the grid) to single spaces.
func cleanCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
