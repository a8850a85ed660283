package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows as aligned columns under a bold header.
func Table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				b.WriteString("  ")
			}
			padded := cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == len(widths)-1 {
				padded = strings.TrimRight(padded, " ")
			}
			b.WriteString(style(padded))
		}
		b.WriteString("\n")
	}

	writeRow(header, RenderHeader)
	for _, row := range rows {
		writeRow(row, func(s string) string { return s })
	}
	return b.String()
}
