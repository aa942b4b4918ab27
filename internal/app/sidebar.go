// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package app

import (
	"strconv"

	"pgpane/cli/internal/command"
	"pgpane/cli/internal/sqlexec"
)

// NodeKind is the kind of an object browser row.
type NodeKind int

const (
	NodeDatabase NodeKind = iota
	NodeSchema
	NodeTable
	NodeView
)

// SidebarRow is one visible line of the object browser.
type SidebarRow struct {
	Kind     NodeKind
	Schema   string
	Name     string
	Depth    int
	Expanded bool
}

// sidebar holds the object tree and its expand/collapse state.
type sidebar struct {
	visible  bool
	tree     *sqlexec.ObjectTree
	loading  bool
	expanded map[string]bool
	cursor   int
}

func newSidebar() *sidebar {
	return &sidebar{visible: true, expanded: make(map[string]bool)}
}

// rows flattens the tree into visible lines.
func (s *sidebar) rows() []SidebarRow {
	if s.tree == nil {
		return nil
	}
	rows := []SidebarRow{{Kind: NodeDatabase, Name: s.tree.Database, Expanded: true}}
	for _, sc := range s.tree.Schemas {
		open := s.expanded[sc.Name]
		rows = append(rows, SidebarRow{Kind: NodeSchema, Name: sc.Name, Depth: 1, Expanded: open})
		if !open {
			continue
		}
		for _, t := range sc.Tables {
			rows = append(rows, SidebarRow{Kind: NodeTable, Schema: sc.Name, Name: t, Depth: 2})
		}
		for _, v := range sc.Views {
			rows = append(rows, SidebarRow{Kind: NodeView, Schema: sc.Name, Name: v, Depth: 2})
		}
	}
	return rows
}

func (s *sidebar) move(delta int) {
	n := len(s.rows())
	if n == 0 {
		s.cursor = 0
		return
	}
	s.cursor += delta
	if s.cursor < 0 {
		s.cursor = 0
	}
	if s.cursor >= n {
		s.cursor = n - 1
	}
}

// activate toggles a schema or, on a relation, returns the input that
// describes it.
func (s *sidebar) activate() string {
	rows := s.rows()
	if s.cursor < 0 || s.cursor >= len(rows) {
		return ""
	}
	r := rows[s.cursor]
	switch r.Kind {
	case NodeSchema:
		s.expanded[r.Name] = !s.expanded[r.Name]
		s.move(0)
	case NodeTable, NodeView:
		return `\d ` + r.Schema + "." + r.Name
	}
	return ""
}

// previewSQL returns a query selecting from the relation under the cursor.
func (s *sidebar) previewSQL(limit int) string {
	if limit <= 0 {
		limit = 100
	}
	rows := s.rows()
	if s.cursor < 0 || s.cursor >= len(rows) {
		return ""
	}
	r := rows[s.cursor]
	if r.Kind != NodeTable && r.Kind != NodeView {
		return ""
	}
	return "SELECT * FROM " + command.QuoteIdent(r.Schema) + "." + command.QuoteIdent(r.Name) + " LIMIT " + strconv.Itoa(limit)
}
