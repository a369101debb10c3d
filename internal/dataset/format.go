package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const maxCellWidth = 24

// Format writes the table as aligned text. At most maxRows rows are written;
// maxRows <= 0 writes all of them.
func (t *Table) Format(w io.Writer, maxRows int) error {
	if t == nil {
		_, err := fmt.Fprintln(w, "(no table)")
		return err
	}

	rows := t.Rows
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	widths := make([]int, len(t.Columns))
	cells := make([][]string, len(rows))
	for i, c := range t.Columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for r, row := range rows {
		cells[r] = make([]string, len(row))
		for i, v := range row {
			s := runewidth.Truncate(FormatValue(v), maxCellWidth, "…")
			cells[r][i] = s
			if i < len(widths) && runewidth.StringWidth(s) > widths[i] {
				widths[i] = runewidth.StringWidth(s)
			}
		}
	}

	var b strings.Builder
	writeRow := func(vals []string) {
		for i, v := range vals {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(runewidth.FillRight(v, widths[i]))
		}
		b.WriteString("\n")
	}

	writeRow(t.Columns)
	sep := make([]string, len(widths))
	for i, wd := range widths {
		sep[i] = strings.Repeat("-", wd)
	}
	writeRow(sep)
	for _, row := range cells {
		writeRow(row)
	}
	if len(rows) < len(t.Rows) {
		fmt.Fprintf(&b, "... %d more rows\n", len(t.Rows)-len(rows))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
