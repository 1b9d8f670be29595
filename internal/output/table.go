package output

import (
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/willibrandon/pgread/internal/db/models"
)

var tableHeader = []string{"ID", "NAME", "AGE"}

// TableFormatter buffers rows and prints them as aligned columns on Flush.
// Column widths use display width, so wide and combining characters line up.
type TableFormatter struct {
	rows [][]string
}

func (t *TableFormatter) WriteRecord(_ io.Writer, u models.UserRecord) error {
	t.rows = append(t.rows, []string{strconv.FormatInt(u.ID, 10), printableName(u.Name), u.AgeString(nullAge)})
	return nil
}

func (t *TableFormatter) Flush(w io.Writer) error {
	if len(t.rows) == 0 {
		return nil
	}

	widths := make([]int, len(tableHeader))
	for i, h := range tableHeader {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	if err := writeLine(w, formatRow(tableHeader, widths)); err != nil {
		return err
	}
	for _, row := range t.rows {
		if err := writeLine(w, formatRow(row, widths)); err != nil {
			return err
		}
	}

	t.rows = nil
	return nil
}

// formatRow pads every cell but the last to its column width.
func formatRow(cells []string, widths []int) string {
	var b strings.Builder
	for i, cell := range cells {
		if i == len(cells)-1 {
			b.WriteString(cell)
			break
		}
		b.WriteString(runewidth.FillRight(cell, widths[i]))
		b.WriteString("  ")
	}
	return strings.TrimRight(b.String(), " ")
}
