// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgpane/cli/internal/errors"
)

func TestInterpret(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Command
	}{
		{"empty", "", NoOp{}},
		{"whitespace only", " \t\n ", NoOp{}},
		{"sql trimmed", "  SELECT 1;  \n", SQLText{Text: "SELECT 1;"}},
		{"sql keeps inner whitespace", "SELECT  1,\n  2", SQLText{Text: "SELECT  1,\n  2"}},
		{"list objects", `\d`, Meta{Kind: ListObjects}},
		{"describe shorthand", `\d users`, Meta{Kind: DescribeTable, Arg: "users"}},
		{"describe shorthand padded", `  \d   bar  `, Meta{Kind: DescribeTable, Arg: "bar"}},
		{"describe long form", `\describe public.users`, Meta{Kind: DescribeTable, Arg: "public.users"}},
		{"describe without table", `\describe`, MissingArgument{Kind: DescribeTable, Token: `\describe`}},
		{"describe with blank table", "\\describe   ", MissingArgument{Kind: DescribeTable, Token: `\describe`}},
		{"list tables", `\dt`, Meta{Kind: ListTables}},
		{"list views", `\dv`, Meta{Kind: ListViews}},
		{"list indexes", `\di`, Meta{Kind: ListIndexes}},
		{"list functions", `\df`, Meta{Kind: ListFunctions}},
		{"list schemas", `\ds`, Meta{Kind: ListSchemas}},
		{"list databases", `\dn`, Meta{Kind: ListDatabases}},
		{"switch database", `\c analytics`, Meta{Kind: SwitchDatabase, Arg: "analytics"}},
		{"switch database without name", `\c`, MissingArgument{Kind: SwitchDatabase, Token: `\c`}},
		{"conninfo", `\conninfo`, Meta{Kind: ConnInfo}},
		{"expanded", `\x`, Meta{Kind: ToggleExpanded}},
		{"timing", `\timing`, Meta{Kind: ToggleTiming}},
		{"help", `\?`, Meta{Kind: Help}},
		{"quit", `\q`, Meta{Kind: Quit}},
		{"unknown", `\zzz`, UnknownCommand{Text: `\zzz`}},
		{"unknown keeps argument", ` \zzz now `, UnknownCommand{Text: `\zzz now`}},
		{"tokens are case sensitive", `\DT`, UnknownCommand{Text: `\DT`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interpret(tt.input))
		})
	}
}

func TestInterpret_DescribeNeverFallsBackToListObjects(t *testing.T) {
	for _, in := range []string{`\describe`, ` \describe `, "\\describe\t"} {
		cmd := Interpret(in)
		m, ok := cmd.(MissingArgument)
		require.True(t, ok, "input %q gave %#v", in, cmd)
		assert.Equal(t, DescribeTable, m.Kind)
	}
}

func TestCompile_SQLPassesThrough(t *testing.T) {
	a := Compile(Interpret("select 1; select 2"), ConnContext{})
	assert.Equal(t, OpExecute, a.Op)
	assert.Equal(t, "select 1; select 2", a.SQL)
	assert.Empty(t, a.SwitchTo)
}

func TestCompile_Rejections(t *testing.T) {
	tests := []struct {
		input string
		kind  errors.Kind
	}{
		{`\c`, errors.MissingArgument},
		{`\describe`, errors.MissingArgument},
		{`\nope`, errors.UnknownCommand},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			a := Compile(Interpret(tt.input), ConnContext{})
			require.Equal(t, OpReject, a.Op)
			require.NotNil(t, a.Err)
			assert.Equal(t, tt.kind, a.Err.Kind)
		})
	}
}

func TestCompile_LocalOps(t *testing.T) {
	tests := []struct {
		input string
		op    Op
	}{
		{"", OpNone},
		{`\x`, OpToggleExpanded},
		{`\timing`, OpToggleTiming},
		{`\q`, OpQuit},
		{`\?`, OpDisplay},
		{`\conninfo`, OpDisplay},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			a := Compile(Interpret(tt.input), ConnContext{})
			assert.Equal(t, tt.op, a.Op)
			assert.Empty(t, a.SQL)
		})
	}
}

func TestCompile_CatalogQueries(t *testing.T) {
	tests := []struct {
		input    string
		contains []string
		absent   []string
	}{
		{`\d`, []string{"information_schema.tables"}, []string{"table_type ="}},
		{`\dt`, []string{"information_schema.tables", "'BASE TABLE'"}, nil},
		{`\dv`, []string{"information_schema.tables", "'VIEW'"}, nil},
		{`\di`, []string{"pg_index", "is_unique", "is_primary_key"}, nil},
		{`\df`, []string{"information_schema.routines"}, nil},
		{`\ds`, []string{"pg_namespace"}, nil},
		{`\dn`, []string{"pg_database"}, nil},
		{`\d users`, []string{"information_schema.columns", "table_name = 'users'"}, []string{"table_schema ="}},
		{`\d app.users`, []string{"table_schema = 'app'", "table_name = 'users'"}, nil},
		{`\d a'b`, []string{"'a''b'"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			a := Compile(Interpret(tt.input), ConnContext{})
			require.Equal(t, OpExecute, a.Op)
			for _, s := range tt.contains {
				assert.Contains(t, a.SQL, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, a.SQL, s)
			}
		})
	}
}

func TestCompile_SwitchDatabase(t *testing.T) {
	a := Compile(Interpret(`\c sales`), ConnContext{})
	assert.Equal(t, OpExecute, a.Op)
	assert.Equal(t, `USE "sales"`, a.SQL)
	assert.Equal(t, "sales", a.SwitchTo)

	a = Compile(Interpret(`\c we"ird`), ConnContext{})
	assert.Equal(t, `USE "we""ird"`, a.SQL)
}

func TestCompile_ConnInfo(t *testing.T) {
	a := Compile(Meta{Kind: ConnInfo}, ConnContext{Server: "db.local:5432", Database: "app", User: "alice"})
	require.Equal(t, OpDisplay, a.Op)
	require.Equal(t, 1, a.Display.Len())

	rs := a.Display.Sets[0]
	assert.Equal(t, []string{"Property", "Value"}, rs.ColumnNames())
	assert.Equal(t, "Server", rs.Rows[0][0].String())
	assert.Equal(t, "db.local:5432", rs.Rows[0][1].String())
	assert.Equal(t, "app", rs.Rows[1][1].String())
	assert.Equal(t, "alice", rs.Rows[2][1].String())
	assert.Equal(t, "no", rs.Rows[3][1].String())
}

func TestCompile_Help(t *testing.T) {
	a := Compile(Meta{Kind: Help}, ConnContext{})
	require.Equal(t, OpDisplay, a.Op)
	rs := a.Display.Sets[0]
	assert.Equal(t, "Command", rs.Columns[0].Name)
	assert.Len(t, rs.Rows, len(HelpRows))
	// every documented token must interpret to something other than UnknownCommand
	for _, row := range HelpRows {
		_, unknown := Interpret(row[0]).(UnknownCommand)
		assert.False(t, unknown, row[0])
	}
}

func TestIsMeta(t *testing.T) {
	assert.True(t, IsMeta(`  \dt`))
	assert.False(t, IsMeta("select '\\'"))
}
