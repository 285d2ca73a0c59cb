package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// alignRows lays out semicolon-separated columns with each column padded to
// its widest cell. Widths are measured with lipgloss so escape sequences do
// not count.
func alignRows(rows []string) string {
	if len(rows) == 0 {
		return ""
	}

	split := make([][]string, len(rows))
	cols := 0
	for i, row := range rows {
		split[i] = strings.Split(row, ";")
		if len(split[i]) > cols {
			cols = len(split[i])
		}
	}

	widths := make([]int, cols)
	for _, row := range split {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for _, row := range split {
		for i, cell := range row {
			pad := widths[i] - lipgloss.Width(cell)
			fmt.Fprintf(&b, "%s%s ", cell, strings.Repeat(" ", pad))
		}
		b.WriteByte('\n')
	}

	return b.String()
}
