// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package results

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// DefaultMaxColumnWidth caps a column's display width in tabular layout.
const DefaultMaxColumnWidth = 40

// ColumnWidths returns the display width of each column: the widest of the
// header and every cell, capped at maxWidth (no cap when maxWidth <= 0).
func ColumnWidths(rs ResultSet, maxWidth int) []int {
	widths := make([]int, len(rs.Columns))
	for i, c := range rs.Columns {
		widths[i] = runewidth.StringWidth(c.Name)
	}
	for _, row := range rs.Rows {
		for i, v := range row {
			if w := runewidth.StringWidth(cell(v)); w > widths[i] {
				widths[i] = w
			}
		}
	}
	if maxWidth > 0 {
		for i, w := range widths {
			if w > maxWidth {
				widths[i] = maxWidth
			}
		}
	}
	return widths
}

// Tabular lays out a result set as a header line, a separator and one line per row.
func Tabular(rs ResultSet, maxWidth int) []string {
	widths := ColumnWidths(rs, maxWidth)
	lines := make([]string, 0, len(rs.Rows)+2)

	header := make([]string, len(rs.Columns))
	sep := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		header[i] = pad(c.Name, widths[i])
		sep[i] = strings.Repeat("-", widths[i])
	}
	lines = append(lines, strings.Join(header, " | "), strings.Join(sep, "-+-"))

	for _, row := range rs.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = pad(cell(v), widths[i])
		}
		lines = append(lines, strings.Join(cells, " | "))
	}
	return lines
}

// Expanded lays out each row as a record block: a "-[ RECORD n ]-" header then
// one "column | value" line per column.
func Expanded(rs ResultSet) []string {
	nameWidth := 0
	for _, c := range rs.Columns {
		if w := runewidth.StringWidth(c.Name); w > nameWidth {
			nameWidth = w
		}
	}
	lines := make([]string, 0, len(rs.Rows)*(len(rs.Columns)+1))
	for r, row := range rs.Rows {
		lines = append(lines, RecordHeader(r+1))
		for i, v := range row {
			lines = append(lines, fmt.Sprintf("%s | %s", runewidth.FillRight(rs.Columns[i].Name, nameWidth), cell(v)))
		}
	}
	return lines
}

// RecordHeader returns the header line of the n-th (1-based) record in expanded layout.
func RecordHeader(n int) string {
	return fmt.Sprintf("-[ RECORD %d ]-", n)
}

// cell flattens newlines so a value never breaks a layout line.
func cell(v Value) string {
	s := v.String()
	if strings.ContainsAny(s, "\r\n\t") {
		s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
	}
	return s
}

func pad(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}
