// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package app

// History keeps submitted inputs for recall. It lives only as long as the process.
type History struct {
	entries []string
	// pos is the recall cursor; len(entries) means "past the newest entry".
	pos int
	max int
}

// NewHistory returns a history holding at most max entries (unbounded when max <= 0).
func NewHistory(max int) *History {
	return &History{max: max}
}

// Add records an entry and resets the recall cursor. Consecutive duplicates are collapsed.
func (h *History) Add(s string) {
	if s == "" {
		return
	}
	if n := len(h.entries); n == 0 || h.entries[n-1] != s {
		h.entries = append(h.entries, s)
		if h.max > 0 && len(h.entries) > h.max {
			h.entries = h.entries[len(h.entries)-h.max:]
		}
	}
	h.pos = len(h.entries)
}

// Previous moves to the older entry. ok is false when there is none.
func (h *History) Previous() (string, bool) {
	if h.pos == 0 {
		return "", false
	}
	h.pos--
	return h.entries[h.pos], true
}

// Next moves to the newer entry. Moving past the newest returns "" and true,
// which clears the editor.
func (h *History) Next() (string, bool) {
	if h.pos >= len(h.entries) {
		return "", false
	}
	h.pos++
	if h.pos == len(h.entries) {
		return "", true
	}
	return h.entries[h.pos], true
}

// Entries returns a copy of the recorded entries, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}
