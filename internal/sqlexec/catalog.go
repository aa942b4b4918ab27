// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"sync"

	"pgpane/cli/internal/errors"
	"pgpane/cli/internal/results"
	"pgpane/cli/internal/session"
)

// ObjectTree is what the object browser shows for one database.
type ObjectTree struct {
	Database string
	Schemas  []SchemaNode
}

// SchemaNode lists the relations of one schema.
type SchemaNode struct {
	Name   string
	Tables []string
	Views  []string
}

// Catalog loads object trees through the executor, so loading obeys the same
// single-flight rule as user submissions. Trees are cached per database.
type Catalog struct {
	exec *Executor
	// cache stores object trees keyed by database name
	cache map[string]*ObjectTree
	// mu protects concurrent access to the cache
	mu sync.RWMutex
}

const objectTreeSQL = `SELECT n.nspname FROM pg_namespace n ` +
	`WHERE n.nspname !~ '^pg_' AND n.nspname <> 'information_schema' ORDER BY n.nspname; ` +
	`SELECT table_schema, table_name, table_type FROM information_schema.tables ` +
	`WHERE table_schema NOT IN ('pg_catalog', 'information_schema') ORDER BY table_schema, table_name`

// NewCatalog creates a Catalog that loads through exec.
func NewCatalog(exec *Executor) *Catalog {
	return &Catalog{exec: exec, cache: make(map[string]*ObjectTree)}
}

// Tree returns the object tree of the session's current database, loading it
// on first use.
func (c *Catalog) Tree(ctx context.Context, sess *session.Session) (*ObjectTree, error) {
	db := sess.Database()
	c.mu.RLock()
	if t, ok := c.cache[db]; ok {
		c.mu.RUnlock()
		return t, nil
	}
	c.mu.RUnlock()

	out, err := c.exec.Run(ctx, sess, objectTreeSQL)
	if err != nil {
		return nil, err
	}
	if out.Kind == Failed {
		return nil, out.Err
	}
	t, err := BuildTree(db, out.Batch)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[db] = t
	c.mu.Unlock()
	return t, nil
}

// Invalidate drops cached trees, e.g. after DDL.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*ObjectTree)
}

// BuildTree assembles a tree from the two result sets of the object tree query:
// schema names, then (schema, name, type) relations.
func BuildTree(db string, b results.Batch) (*ObjectTree, error) {
	if len(b.Sets) != 2 {
		return nil, errors.New(errors.StatementError, "unexpected catalog response")
	}
	t := &ObjectTree{Database: db}
	index := make(map[string]int)
	for _, row := range b.Sets[0].Rows {
		if len(row) < 1 {
			continue
		}
		index[row[0].String()] = len(t.Schemas)
		t.Schemas = append(t.Schemas, SchemaNode{Name: row[0].String()})
	}
	for _, row := range b.Sets[1].Rows {
		if len(row) < 3 {
			continue
		}
		schema, name, typ := row[0].String(), row[1].String(), row[2].String()
		i, ok := index[schema]
		if !ok {
			i = len(t.Schemas)
			index[schema] = i
			t.Schemas = append(t.Schemas, SchemaNode{Name: schema})
		}
		if typ == "VIEW" {
			t.Schemas[i].Views = append(t.Schemas[i].Views, name)
		} else {
			t.Schemas[i].Tables = append(t.Schemas[i].Tables, name)
		}
	}
	return t, nil
}
