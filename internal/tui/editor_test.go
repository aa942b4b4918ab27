// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditor_InsertAndNewline(t *testing.T) {
	ed := NewEditor()
	assert.True(t, ed.Empty())

	ed.Insert("select 1")
	ed.Newline()
	ed.Insert("from t;")
	assert.Equal(t, "select 1\nfrom t;", ed.Text())
	row, col := ed.Cursor()
	assert.Equal(t, 1, row)
	assert.Equal(t, 7, col)

	ed.Insert("\nwhere x\r\n")
	assert.Equal(t, []string{"select 1", "from t;", "where x", ""}, ed.Lines())
}

func TestEditor_Editing(t *testing.T) {
	tests := []struct {
		name string
		keys func(ed *Editor)
		want string
	}{
		{"backspace joins lines", func(ed *Editor) { ed.Home(); ed.Backspace() }, "ab"},
		{"delete joins lines", func(ed *Editor) { ed.Up(); ed.End(); ed.Delete() }, "ab"},
		{"insert mid line", func(ed *Editor) { ed.Home(); ed.Insert("x") }, "a\nxb"},
		{"backspace at start is a no-op", func(ed *Editor) { ed.Up(); ed.Home(); ed.Backspace() }, "a\nb"},
		{"delete at end is a no-op", func(ed *Editor) { ed.Delete() }, "a\nb"},
		{"left wraps to previous line", func(ed *Editor) { ed.Left(); ed.Left(); ed.Insert("!") }, "a!\nb"},
		{"right wraps to next line", func(ed *Editor) { ed.Up(); ed.End(); ed.Right(); ed.Insert("!") }, "a\n!b"},
		{"wide runes count once", func(ed *Editor) { ed.Insert("日本"); ed.Backspace() }, "a\nb日"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := NewEditor()
			ed.Insert("a\nb")
			tt.keys(ed)
			assert.Equal(t, tt.want, ed.Text())
		})
	}
}

func TestEditor_SetTextAndClear(t *testing.T) {
	ed := NewEditor()
	ed.SetText("select *\nfrom orders")
	row, col := ed.Cursor()
	assert.Equal(t, 1, row)
	assert.Equal(t, 11, col)
	assert.True(t, ed.OnLastLine())
	assert.False(t, ed.OnFirstLine())

	ed.Up()
	_, col = ed.Cursor()
	assert.Equal(t, 8, col)

	ed.Clear()
	assert.Equal(t, "", ed.Text())
	assert.True(t, ed.Empty())
}
