// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchOf(n int) Batch {
	b := Batch{}
	for i := 0; i < n; i++ {
		rs := NewResultSet(Column{Name: "n", Type: "int4"})
		_ = rs.Append([]Value{Int(int64(i))})
		b.Sets = append(b.Sets, rs)
	}
	return b
}

func TestStore_EmptyHasNoSelection(t *testing.T) {
	s := NewStore()
	_, ok := s.Current()
	assert.False(t, ok)
	assert.Equal(t, -1, s.Index())
	assert.False(t, s.SelectNext())
	assert.False(t, s.SelectPrevious())

	s.Replace(Batch{Tags: []string{"CREATE TABLE"}})
	assert.Equal(t, -1, s.Index())
	assert.Equal(t, 0, s.Len())
}

func TestStore_ReplaceSelectsFirst(t *testing.T) {
	s := NewStore()
	s.Replace(batchOf(3))
	require.True(t, s.SelectNext())
	require.Equal(t, 1, s.Index())

	s.Replace(batchOf(2))
	assert.Equal(t, 0, s.Index())
	assert.Equal(t, 2, s.Len())
}

func TestStore_NavigationDoesNotWrap(t *testing.T) {
	tests := []struct {
		name  string
		sets  int
		moves []bool // true = next, false = previous
		want  int
	}{
		{"single set stays put", 1, []bool{true, true, false}, 0},
		{"next stops at last", 3, []bool{true, true, true, true}, 2},
		{"previous stops at first", 3, []bool{true, false, false, false}, 0},
		{"round trip", 4, []bool{true, true, false}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.Replace(batchOf(tt.sets))
			for _, next := range tt.moves {
				if next {
					s.SelectNext()
				} else {
					s.SelectPrevious()
				}
				assert.GreaterOrEqual(t, s.Index(), 0)
				assert.Less(t, s.Index(), tt.sets)
			}
			assert.Equal(t, tt.want, s.Index())
			cur, ok := s.Current()
			require.True(t, ok)
			assert.Equal(t, Int(int64(tt.want)), cur.Rows[0][0])
		})
	}
}

func TestResultSet_AppendRejectsWrongWidth(t *testing.T) {
	rs := NewResultSet(Column{Name: "a"}, Column{Name: "b"})
	require.NoError(t, rs.Append([]Value{Int(1), Null()}))
	require.Error(t, rs.Append([]Value{Int(1)}))
	assert.Len(t, rs.Rows, 1)
}

func TestBatch_Rows(t *testing.T) {
	assert.Equal(t, 3, batchOf(3).Rows())
	assert.Equal(t, 0, Batch{}.Rows())
}
