// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgpane/cli/internal/errors"
	"pgpane/cli/internal/results"
)

func users() results.ResultSet {
	rs := results.NewResultSet(
		results.Column{Name: "id", Type: "int4"},
		results.Column{Name: "name", Type: "text"},
		results.Column{Name: "balance", Type: "numeric"},
		results.Column{Name: "active", Type: "bool"},
	)
	_ = rs.Append([]results.Value{results.Int(1), results.Text(`Ada "the first", Countess`), results.Numeric("10.50"), results.Bool(true)})
	_ = rs.Append([]results.Value{results.Int(2), results.Null(), results.Null(), results.Bool(false)})
	return rs
}

func emptyUsers() results.ResultSet {
	return results.NewResultSet(users().Columns...)
}

func counts() results.ResultSet {
	rs := results.NewResultSet(results.Column{Name: "count", Type: "int8"})
	_ = rs.Append([]results.Value{results.Int(7)})
	return rs
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": Table, "table": Table, "CSV": CSV, " json ": JSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.True(t, errors.Is(err, errors.InvalidConfig))
}

func TestWrite_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Table, results.Batch{Sets: []results.ResultSet{counts()}}, Options{}))
	assert.Equal(t, "count\n-----\n7    \n\n(1 row)\n", buf.String())
}

func TestWrite_TableMultipleSetsWithTiming(t *testing.T) {
	var buf bytes.Buffer
	b := results.Batch{Sets: []results.ResultSet{counts(), counts()}, Tags: []string{"INSERT 0 1"}}
	require.NoError(t, Write(&buf, Table, b, Options{Timing: true, Elapsed: 42 * time.Millisecond}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "-- Result Set 1 --\n"))
	assert.Contains(t, out, "-- Result Set 2 --\n")
	assert.Less(t, strings.Index(out, "Result Set 1"), strings.Index(out, "Result Set 2"))
	assert.Contains(t, out, "INSERT 0 1\n")
	assert.True(t, strings.HasSuffix(out, "(42ms)\n"))
}

func TestWrite_TableExpanded(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Table, results.Batch{Sets: []results.ResultSet{counts()}}, Options{Expanded: true}))
	assert.Equal(t, "-[ RECORD 1 ]-\ncount | 7\n\n(1 row)\n", buf.String())
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	b := results.Batch{Sets: []results.ResultSet{users(), counts()}}
	require.NoError(t, Write(&buf, CSV, b, Options{}))
	want := "id,name,balance,active\n" +
		"1,\"Ada \"\"the first\"\", Countess\",10.50,true\n" +
		"2,,,false\n" +
		"count\n" +
		"7\n"
	assert.Equal(t, want, buf.String())
}

func TestWrite_JSONSingleSet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, JSON, results.Batch{Sets: []results.ResultSet{counts()}}, Options{}))
	assert.Equal(t, "[\n  {\n    \"columns\": [{\"name\":\"count\",\"type\":\"int8\"}],\n    \"rows\": [\n      {\"count\": 7}\n    ]\n  }\n]\n", buf.String())
}

func TestJSON_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		batch results.Batch
	}{
		{"single set", results.Batch{Sets: []results.ResultSet{users()}}},
		{"several sets", results.Batch{Sets: []results.ResultSet{users(), counts(), users()}}},
		{"set without rows", results.Batch{Sets: []results.ResultSet{emptyUsers()}}},
		{"set without rows among others", results.Batch{Sets: []results.ResultSet{counts(), emptyUsers(), users()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, JSON, tt.batch, Options{}))

			got, err := ReadJSON(&buf)
			require.NoError(t, err)
			require.Equal(t, tt.batch.Len(), got.Len())
			for i, want := range tt.batch.Sets {
				assert.Equal(t, want.ColumnNames(), got.Sets[i].ColumnNames())
				for c, col := range want.Columns {
					assert.Equal(t, col.Type, got.Sets[i].Columns[c].Type)
				}
				require.Len(t, got.Sets[i].Rows, len(want.Rows))
				for r, row := range want.Rows {
					for c, v := range row {
						gv := got.Sets[i].Rows[r][c]
						assert.Equal(t, v.IsNull(), gv.IsNull())
						assert.Equal(t, v.String(), gv.String())
					}
				}
			}
		})
	}
}

func TestJSON_KeepsColumnOrder(t *testing.T) {
	rs := results.NewResultSet(results.Column{Name: "z"}, results.Column{Name: "a"})
	_ = rs.Append([]results.Value{results.Int(1), results.Int(2)})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, JSON, results.Batch{Sets: []results.ResultSet{rs}}, Options{}))
	assert.Contains(t, buf.String(), `{"z": 1, "a": 2}`)
}

func TestReadJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, JSON, results.Batch{}, Options{}))
	assert.Equal(t, "[]\n", buf.String())
	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestReadJSON_Malformed(t *testing.T) {
	for _, in := range []string{`{}`, `[1]`, `[[1]]`, `[{"a": 1}`, `[{"rows": []}]`, `[{"columns": [{"name": "a"}], "rows": [{"a": 1, "b": 2}]}]`} {
		_, err := ReadJSON(strings.NewReader(in))
		assert.Error(t, err, in)
	}
}
