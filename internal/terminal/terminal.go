// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package terminal holds the few raw escape sequences pterm does not cover.
package terminal

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the width of the terminal on stdout, or 80.
func Width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// EnterAltScreen switches to the alternate screen buffer so the TUI leaves
// the scrollback untouched.
func EnterAltScreen(w io.Writer) { fmt.Fprint(w, "\x1b[?1049h\x1b[H") }

// LeaveAltScreen restores the normal screen buffer.
func LeaveAltScreen(w io.Writer) { fmt.Fprint(w, "\x1b[?1049l") }

// ClearPreviousLines erases an echoed prompt and its answer. textLength is
// the prompt plus input length; the line the cursor moved to after Enter is
// cleared as well.
func ClearPreviousLines(w io.Writer, textLength, width int) {
	if width <= 0 {
		width = 80
	}
	lines := (textLength + width - 1) / width
	if lines < 1 {
		lines = 1
	}
	lines++

	for i := 0; i < lines; i++ {
		fmt.Fprint(w, "\r\x1b[2K")
		if i < lines-1 {
			fmt.Fprint(w, "\x1b[1A")
		}
	}
}
