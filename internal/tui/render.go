// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/pterm/pterm"

	"pgpane/cli/internal/app"
	"pgpane/cli/internal/command"
	"pgpane/cli/internal/results"
)

// View is the terminal geometry plus presentation toggles the app does not own.
type View struct {
	Width          int
	Height         int
	ShowHelp       bool
	MaxColumnWidth int
	Now            time.Time
}

const (
	minWidth        = 40
	minHeight       = 12
	minSidebarWidth = 60
)

var (
	focusStyle  = pterm.NewStyle(pterm.FgCyan, pterm.Bold)
	borderStyle = pterm.NewStyle(pterm.FgGray)
	cursorStyle = pterm.NewStyle(pterm.Reverse)
	errorStyle  = pterm.NewStyle(pterm.FgRed)
	headerStyle = pterm.NewStyle(pterm.Bold)
	dimStyle    = pterm.NewStyle(pterm.FgGray)

	spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
)

// keyHelp lists the TUI key bindings shown by F1.
var keyHelp = [][2]string{
	{"F5 / Ctrl+E", "Execute the editor contents"},
	{"Esc / Ctrl+C", "Cancel the running query"},
	{"Tab", "Cycle focus editor, results, objects"},
	{"Ctrl+D", "Show or hide the object browser"},
	{"Ctrl+L", "Clear the editor"},
	{"Ctrl+R", "Reload the object browser"},
	{"Ctrl+P / Ctrl+N", "Previous / next history entry"},
	{"Arrows, PgUp, PgDn", "Scroll results"},
	{"Shift+Left/Right", "Previous / next result set"},
	{"Enter / Space", "Describe / preview the selected object (objects pane)"},
	{"F1", "Toggle this help"},
	{"Ctrl+Q", "Quit"},
}

// Render draws the whole screen as exactly v.Height lines of v.Width cells.
func Render(snap app.Snapshot, ed *Editor, v View) string {
	if v.Width < minWidth || v.Height < minHeight {
		msg := fit(fmt.Sprintf("Terminal too small (%dx%d)", v.Width, v.Height), max(v.Width, 1))
		return strings.Join(fill([]string{msg}, max(v.Height, 1), max(v.Width, 1)), "\n")
	}

	mainH := v.Height - 1
	sideW := 0
	if snap.SidebarVisible && v.Width >= minSidebarWidth {
		sideW = min(max(v.Width/4, 20), 40)
	}
	mainW := v.Width - sideW
	editorH := max(5, mainH/3)
	resultsH := mainH - editorH

	editor := box("Query", editorLines(ed, snap.Focus == app.FocusEditor, mainW-2, editorH-2),
		mainW, editorH, snap.Focus == app.FocusEditor)
	resTitle, resLines := resultsPane(snap, v, mainW-2, resultsH-2)
	res := box(resTitle, resLines, mainW, resultsH, snap.Focus == app.FocusResults)

	rows := append(strings.Split(editor, "\n"), strings.Split(res, "\n")...)
	if sideW > 0 {
		side := strings.Split(box("Objects", sidebarLines(snap, sideW-2, mainH-2), sideW, mainH, snap.Focus == app.FocusSidebar), "\n")
		for i := range rows {
			rows[i] = side[i] + rows[i]
		}
	}
	return strings.Join(append(rows, statusLine(snap, v)), "\n")
}

// box frames exactly h-2 lines of content in a w by h border.
func box(title string, lines []string, w, h int, focused bool) string {
	innerW, innerH := w-2, h-2
	style := borderStyle
	if focused {
		style = focusStyle
	}
	if runewidth.StringWidth(title) > innerW-4 {
		title = runewidth.Truncate(title, max(innerW-4, 0), "")
	}
	return pterm.DefaultBox.
		WithTitle(title).
		WithTitleTopLeft().
		WithLeftPadding(0).
		WithRightPadding(0).
		WithBoxStyle(style).
		Sprint(strings.Join(fill(lines, innerH, innerW), "\n"))
}

// fill pads or trims lines to exactly h entries of width w. Lines must not
// carry styling yet unless they are already exactly w cells wide.
func fill(lines []string, h, w int) []string {
	out := make([]string, h)
	for i := range out {
		if i < len(lines) {
			out[i] = lines[i]
			if runewidth.StringWidth(pterm.RemoveColorFromString(out[i])) != w {
				out[i] = fit(out[i], w)
			}
			continue
		}
		out[i] = strings.Repeat(" ", w)
	}
	return out
}

// fit truncates or pads s to exactly w display cells.
func fit(s string, w int) string {
	if runewidth.StringWidth(s) > w {
		s = runewidth.Truncate(s, w, "…")
	}
	return runewidth.FillRight(s, w)
}

// window returns the part of s starting at display cell from, w cells wide.
func window(s string, from, w int) string {
	var b strings.Builder
	pos, used := 0, 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if pos < from {
			pos += rw
			if pos > from {
				// a wide rune straddles the left edge
				b.WriteString(strings.Repeat(" ", pos-from))
				used += pos - from
			}
			continue
		}
		if used+rw > w {
			break
		}
		b.WriteRune(r)
		used += rw
	}
	return runewidth.FillRight(b.String(), w)
}

func editorLines(ed *Editor, focused bool, w, h int) []string {
	lines := ed.Lines()
	row, col := ed.Cursor()
	top := max(0, row-h+1)
	left := 0
	if col >= w {
		left = col - w + 1
	}

	out := make([]string, 0, h)
	for i := top; i < len(lines) && len(out) < h; i++ {
		rs := []rune(lines[i])
		if left < len(rs) {
			rs = rs[left:]
		} else {
			rs = nil
		}
		plain := fit(string(rs), w)
		if !focused || i != row {
			out = append(out, plain)
			continue
		}
		c := col - left
		prs := []rune(string(rs))
		head := string(prs[:min(c, len(prs))])
		under := " "
		tail := ""
		if c < len(prs) {
			under = string(prs[c])
			tail = string(prs[c+1:])
		}
		line := head + cursorStyle.Sprint(under) + tail
		pad := w - runewidth.StringWidth(head+under+tail)
		if pad < 0 {
			line = fit(head+under+tail, w)
		} else {
			line += strings.Repeat(" ", pad)
		}
		out = append(out, line)
	}
	return out
}

func resultsPane(snap app.Snapshot, v View, w, h int) (string, []string) {
	if v.ShowHelp {
		return "Help", helpLines(w)
	}

	title := "Results"
	if snap.Running != "" {
		title = fmt.Sprintf("Results %s running %s", spinner(snap.RunningSince, v.Now), since(snap.RunningSince, v.Now))
	} else if snap.HasSet && snap.Batch.Len() > 1 {
		title = fmt.Sprintf("Results %d/%d", snap.Display.Selected+1, snap.Batch.Len())
	}

	if !snap.HasSet {
		var lines []string
		for _, tag := range snap.Batch.Tags {
			lines = append(lines, fit(tag, w))
		}
		if snap.Err != nil {
			lines = append(lines, errorStyle.Sprint(fit("ERROR: "+snap.Err.Message, w)))
		}
		if len(lines) == 0 {
			lines = append(lines, dimStyle.Sprint(fit("No results. Type SQL above and press F5.", w)))
		}
		return title, lines
	}

	cur := snap.Current
	if snap.Display.Expanded {
		return title, expandedWindow(cur, snap.Scroll.Row, w, h)
	}

	maxCol := v.MaxColumnWidth
	if maxCol == 0 {
		maxCol = results.DefaultMaxColumnWidth
	}
	all := results.Tabular(cur, maxCol)
	offset := 0
	for i, cw := range results.ColumnWidths(cur, maxCol) {
		if i >= snap.Scroll.Col {
			break
		}
		offset += cw + 3
	}

	lines := []string{
		headerStyle.Sprint(window(all[0], offset, w)),
		window(all[1], offset, w),
	}
	body := all[2:]
	footer := rowFooter(snap, len(cur.Rows))
	room := h - len(lines) - 1
	for i := snap.Scroll.Row; i < len(body) && room > 0; i++ {
		lines = append(lines, window(body[i], offset, w))
		room--
	}
	for ; room > 0; room-- {
		lines = append(lines, strings.Repeat(" ", w))
	}
	return title, append(lines, dimStyle.Sprint(fit(footer, w)))
}

func expandedWindow(rs results.ResultSet, row, w, h int) []string {
	all := results.Expanded(rs)
	start := row * (len(rs.Columns) + 1)
	if start > len(all) {
		start = len(all)
	}
	out := make([]string, 0, h)
	for _, l := range all[start:] {
		if len(out) == h {
			break
		}
		out = append(out, fit(l, w))
	}
	return out
}

func rowFooter(snap app.Snapshot, rows int) string {
	s := "(1 row)"
	if rows != 1 {
		s = fmt.Sprintf("(%d rows)", rows)
	}
	if rows > 0 {
		s = fmt.Sprintf("%s  row %d", s, snap.Scroll.Row+1)
	}
	if snap.Display.Timing && snap.Running == "" {
		s = fmt.Sprintf("%s  Time: %.3f ms", s, float64(snap.Elapsed.Microseconds())/1000)
	}
	return s
}

func helpLines(w int) []string {
	lines := []string{headerStyle.Sprint(fit("Keys", w))}
	for _, kv := range keyHelp {
		lines = append(lines, fit(fmt.Sprintf("  %-20s %s", kv[0], kv[1]), w))
	}
	lines = append(lines, strings.Repeat(" ", w), headerStyle.Sprint(fit("Commands", w)))
	for _, kv := range command.HelpRows {
		lines = append(lines, fit(fmt.Sprintf("  %-20s %s", kv[0], kv[1]), w))
	}
	return lines
}

func sidebarLines(snap app.Snapshot, w, h int) []string {
	if snap.SidebarLoading && len(snap.Sidebar) == 0 {
		return []string{dimStyle.Sprint(fit("Loading...", w))}
	}
	if len(snap.Sidebar) == 0 {
		return []string{dimStyle.Sprint(fit("Ctrl+R to load", w))}
	}

	top := 0
	if snap.SidebarCursor >= h {
		top = snap.SidebarCursor - h + 1
	}
	var out []string
	for i := top; i < len(snap.Sidebar) && len(out) < h; i++ {
		line := fit(nodeLabel(snap.Sidebar[i]), w)
		if i == snap.SidebarCursor && snap.Focus == app.FocusSidebar {
			line = cursorStyle.Sprint(line)
		}
		out = append(out, line)
	}
	return out
}

func nodeLabel(r app.SidebarRow) string {
	indent := strings.Repeat("  ", r.Depth)
	switch r.Kind {
	case app.NodeDatabase:
		return r.Name
	case app.NodeSchema:
		if r.Expanded {
			return indent + "▾ " + r.Name
		}
		return indent + "▸ " + r.Name
	case app.NodeView:
		return indent + "◇ " + r.Name
	default:
		return indent + "▪ " + r.Name
	}
}

func statusLine(snap app.Snapshot, v View) string {
	parts := []string{snap.State.String(), snap.Server}
	if snap.Database != "" {
		parts = append(parts, snap.Database)
	}
	if snap.User != "" {
		parts = append(parts, snap.User)
	}
	if snap.Status != "" {
		parts = append(parts, snap.Status)
	}
	flags := []string{}
	if snap.Display.Expanded {
		flags = append(flags, "expanded")
	}
	if snap.Display.Timing {
		flags = append(flags, "timing")
	}
	if len(flags) > 0 {
		parts = append(parts, strings.Join(flags, ","))
	}
	parts = append(parts, "F1 help")

	line := fit(" "+strings.Join(parts, " │ "), v.Width)
	switch snap.State {
	case app.Failed:
		return errorStyle.Sprint(line)
	case app.Executing:
		return focusStyle.Sprint(line)
	}
	if snap.Err != nil {
		return errorStyle.Sprint(line)
	}
	return dimStyle.Sprint(line)
}

func since(start, now time.Time) string {
	if start.IsZero() || now.Before(start) {
		return "0.0s"
	}
	return fmt.Sprintf("%.1fs", now.Sub(start).Seconds())
}

func spinner(start, now time.Time) string {
	if start.IsZero() || now.Before(start) {
		return spinnerFrames[0]
	}
	return spinnerFrames[int(now.Sub(start)/(100*time.Millisecond))%len(spinnerFrames)]
}
