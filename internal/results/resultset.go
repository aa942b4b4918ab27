// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package results holds the tabular data produced by one submission and the
// selection over it. A Batch is replaced wholesale after every execution; the
// Store tracks which of its result sets is on screen.
package results

import "fmt"

// Column describes one column of a result set.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// ResultSet is one tabular result. Every row has exactly len(Columns) values.
type ResultSet struct {
	Columns []Column
	Rows    [][]Value
}

// NewResultSet returns an empty result set with the given columns.
func NewResultSet(cols ...Column) ResultSet {
	return ResultSet{Columns: cols, Rows: [][]Value{}}
}

// Append adds a row, rejecting rows whose width differs from the column count.
func (rs *ResultSet) Append(row []Value) error {
	if len(row) != len(rs.Columns) {
		return fmt.Errorf("row has %d values, result set has %d columns", len(row), len(rs.Columns))
	}
	rs.Rows = append(rs.Rows, row)
	return nil
}

// ColumnNames returns the column names in order.
func (rs ResultSet) ColumnNames() []string {
	names := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		names[i] = c.Name
	}
	return names
}

// Batch is the ordered output of one execution: every row-returning statement
// contributes a ResultSet, statements without rows contribute a command tag.
type Batch struct {
	Sets []ResultSet
	Tags []string
}

// Len returns the number of result sets.
func (b Batch) Len() int { return len(b.Sets) }

// Rows returns the total row count across all result sets.
func (b Batch) Rows() int {
	n := 0
	for _, s := range b.Sets {
		n += len(s.Rows)
	}
	return n
}

// Message builds a single-set batch of string pairs, used for locally produced
// tables such as connection info and help.
func Message(header [2]string, pairs [][2]string) Batch {
	rs := NewResultSet(Column{Name: header[0], Type: "text"}, Column{Name: header[1], Type: "text"})
	for _, p := range pairs {
		rs.Rows = append(rs.Rows, []Value{Text(p[0]), Text(p[1])})
	}
	return Batch{Sets: []ResultSet{rs}}
}
