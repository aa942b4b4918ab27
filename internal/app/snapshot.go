// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package app

import (
	"time"

	"pgpane/cli/internal/errors"
	"pgpane/cli/internal/results"
)

// Snapshot is a read-only copy of everything the renderer draws.
type Snapshot struct {
	State    State
	Focus    Focus
	Display  DisplayState
	Server   string
	Database string
	User     string

	// Status is the one-line message under the panes.
	Status string
	Err    *errors.E

	Batch   results.Batch
	Current results.ResultSet
	HasSet  bool
	Scroll  Scroll
	Elapsed time.Duration

	// Running is the SQL of the pending execution, if any.
	Running      string
	RunningSince time.Time

	SidebarVisible bool
	SidebarLoading bool
	Sidebar        []SidebarRow
	SidebarCursor  int
}

// Snapshot captures the current state for rendering.
func (a *App) Snapshot() Snapshot {
	s := Snapshot{
		State:          a.state,
		Focus:          a.focus,
		Display:        a.display,
		Server:         a.sess.Endpoint.String(),
		Database:       a.sess.Database(),
		User:           a.sess.User,
		Status:         a.status,
		Err:            a.lastErr,
		Batch:          a.store.Batch(),
		Scroll:         a.scroll,
		Elapsed:        a.elapsed,
		SidebarVisible: a.side.visible,
		SidebarLoading: a.side.loading,
		Sidebar:        a.side.rows(),
		SidebarCursor:  a.side.cursor,
	}
	s.Current, s.HasSet = a.store.Current()
	if a.pending != nil {
		s.Running = a.pending.SQL
		s.RunningSince = a.pending.Started
	}
	return s
}
