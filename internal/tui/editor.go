// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tui

import "strings"

// Editor is a multi-line text buffer with a cursor. Columns count runes.
type Editor struct {
	lines [][]rune
	row   int
	col   int
}

// NewEditor returns an empty editor.
func NewEditor() *Editor {
	return &Editor{lines: [][]rune{{}}}
}

// Insert types s at the cursor. Newlines in s split the line.
func (e *Editor) Insert(s string) {
	for _, r := range s {
		switch r {
		case '\r':
		case '\n':
			e.Newline()
		default:
			line := e.lines[e.row]
			line = append(line[:e.col], append([]rune{r}, line[e.col:]...)...)
			e.lines[e.row] = line
			e.col++
		}
	}
}

// Newline splits the current line at the cursor.
func (e *Editor) Newline() {
	line := e.lines[e.row]
	head := append([]rune(nil), line[:e.col]...)
	tail := append([]rune(nil), line[e.col:]...)
	e.lines[e.row] = head
	e.lines = append(e.lines[:e.row+1], append([][]rune{tail}, e.lines[e.row+1:]...)...)
	e.row++
	e.col = 0
}

// Backspace deletes the rune before the cursor, joining lines at column 0.
func (e *Editor) Backspace() {
	if e.col > 0 {
		line := e.lines[e.row]
		e.lines[e.row] = append(line[:e.col-1], line[e.col:]...)
		e.col--
		return
	}
	if e.row == 0 {
		return
	}
	prev := e.lines[e.row-1]
	e.col = len(prev)
	e.lines[e.row-1] = append(prev, e.lines[e.row]...)
	e.lines = append(e.lines[:e.row], e.lines[e.row+1:]...)
	e.row--
}

// Delete removes the rune under the cursor, joining the next line at end of line.
func (e *Editor) Delete() {
	line := e.lines[e.row]
	if e.col < len(line) {
		e.lines[e.row] = append(line[:e.col], line[e.col+1:]...)
		return
	}
	if e.row == len(e.lines)-1 {
		return
	}
	e.lines[e.row] = append(line, e.lines[e.row+1]...)
	e.lines = append(e.lines[:e.row+1], e.lines[e.row+2:]...)
}

func (e *Editor) Left() {
	switch {
	case e.col > 0:
		e.col--
	case e.row > 0:
		e.row--
		e.col = len(e.lines[e.row])
	}
}

func (e *Editor) Right() {
	switch {
	case e.col < len(e.lines[e.row]):
		e.col++
	case e.row < len(e.lines)-1:
		e.row++
		e.col = 0
	}
}

func (e *Editor) Up() {
	if e.row > 0 {
		e.row--
		e.col = min(e.col, len(e.lines[e.row]))
	}
}

func (e *Editor) Down() {
	if e.row < len(e.lines)-1 {
		e.row++
		e.col = min(e.col, len(e.lines[e.row]))
	}
}

func (e *Editor) Home() { e.col = 0 }
func (e *Editor) End()  { e.col = len(e.lines[e.row]) }

// OnFirstLine and OnLastLine let Up/Down fall through to history recall.
func (e *Editor) OnFirstLine() bool { return e.row == 0 }
func (e *Editor) OnLastLine() bool  { return e.row == len(e.lines)-1 }

// Text returns the buffer joined with newlines.
func (e *Editor) Text() string {
	return strings.Join(e.Lines(), "\n")
}

// SetText replaces the buffer and puts the cursor at its end.
func (e *Editor) SetText(s string) {
	e.lines = e.lines[:0]
	for _, l := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		e.lines = append(e.lines, []rune(l))
	}
	e.row = len(e.lines) - 1
	e.col = len(e.lines[e.row])
}

// Clear empties the buffer.
func (e *Editor) Clear() {
	e.lines = [][]rune{{}}
	e.row, e.col = 0, 0
}

// Empty reports whether the buffer holds only whitespace.
func (e *Editor) Empty() bool {
	return strings.TrimSpace(e.Text()) == ""
}

func (e *Editor) Lines() []string {
	out := make([]string, len(e.lines))
	for i, l := range e.lines {
		out[i] = string(l)
	}
	return out
}

// Cursor returns the cursor position as (line, rune column).
func (e *Editor) Cursor() (int, int) { return e.row, e.col }
