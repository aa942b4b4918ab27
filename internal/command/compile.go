// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package command

import (
	"fmt"
	"strings"

	"pgpane/cli/internal/errors"
	"pgpane/cli/internal/results"
)

// Op is what the app does with a compiled command.
type Op int

const (
	// OpNone does nothing.
	OpNone Op = iota
	// OpExecute sends SQL to the query executor.
	OpExecute
	// OpDisplay replaces the results with a locally built batch.
	OpDisplay
	OpToggleExpanded
	OpToggleTiming
	OpQuit
	// OpReject reports Err without touching the session.
	OpReject
)

// Action is the compiled form of a Command.
type Action struct {
	Op Op
	// SQL is set for OpExecute.
	SQL string
	// SwitchTo names the target database when SQL switches databases.
	SwitchTo string
	// Display is set for OpDisplay.
	Display results.Batch
	// Err is set for OpReject.
	Err *errors.E
}

// ConnContext is the connection information visible to compiled commands.
type ConnContext struct {
	Server    string
	Database  string
	User      string
	TrustCert bool
}

// Compile turns a command into an action.
func Compile(cmd Command, cc ConnContext) Action {
	switch c := cmd.(type) {
	case NoOp:
		return Action{Op: OpNone}
	case SQLText:
		return Action{Op: OpExecute, SQL: c.Text}
	case MissingArgument:
		return Action{Op: OpReject, Err: c.Err()}
	case UnknownCommand:
		return Action{Op: OpReject, Err: c.Err()}
	case Meta:
		return compileMeta(c, cc)
	default:
		panic(fmt.Sprintf("command: unhandled command %T", cmd))
	}
}

func compileMeta(m Meta, cc ConnContext) Action {
	switch m.Kind {
	case ListObjects:
		return execute(listObjectsSQL)
	case DescribeTable:
		return execute(describeSQL(m.Arg))
	case ListTables:
		return execute(listTablesSQL)
	case ListViews:
		return execute(listViewsSQL)
	case ListIndexes:
		return execute(listIndexesSQL)
	case ListFunctions:
		return execute(listFunctionsSQL)
	case ListSchemas:
		return execute(listSchemasSQL)
	case ListDatabases:
		return execute(listDatabasesSQL)
	case SwitchDatabase:
		return Action{Op: OpExecute, SQL: SwitchDatabaseSQL(m.Arg), SwitchTo: m.Arg}
	case ConnInfo:
		return Action{Op: OpDisplay, Display: connInfo(cc)}
	case Help:
		return Action{Op: OpDisplay, Display: help()}
	case ToggleExpanded:
		return Action{Op: OpToggleExpanded}
	case ToggleTiming:
		return Action{Op: OpToggleTiming}
	case Quit:
		return Action{Op: OpQuit}
	default:
		panic(fmt.Sprintf("command: unhandled meta-command %s", m.Kind))
	}
}

func execute(sql string) Action { return Action{Op: OpExecute, SQL: sql} }

const systemSchemas = `('pg_catalog', 'information_schema')`

const (
	listObjectsSQL = `SELECT table_schema, table_name, table_type FROM information_schema.tables ` +
		`WHERE table_schema NOT IN ` + systemSchemas + ` ORDER BY table_schema, table_name`

	listTablesSQL = `SELECT table_schema, table_name, table_type FROM information_schema.tables ` +
		`WHERE table_type = 'BASE TABLE' AND table_schema NOT IN ` + systemSchemas + ` ORDER BY table_schema, table_name`

	listViewsSQL = `SELECT table_schema, table_name, table_type FROM information_schema.tables ` +
		`WHERE table_type = 'VIEW' AND table_schema NOT IN ` + systemSchemas + ` ORDER BY table_schema, table_name`

	listIndexesSQL = `SELECT t.relname AS table_name, i.relname AS index_name, am.amname AS index_type, ` +
		`ix.indisunique AS is_unique, ix.indisprimary AS is_primary_key ` +
		`FROM pg_index ix ` +
		`JOIN pg_class i ON i.oid = ix.indexrelid ` +
		`JOIN pg_class t ON t.oid = ix.indrelid ` +
		`JOIN pg_namespace n ON n.oid = t.relnamespace ` +
		`JOIN pg_am am ON am.oid = i.relam ` +
		`WHERE n.nspname NOT IN ` + systemSchemas + ` AND n.nspname !~ '^pg_toast' ` +
		`ORDER BY t.relname, i.relname`

	listFunctionsSQL = `SELECT routine_schema, routine_name, routine_type FROM information_schema.routines ` +
		`WHERE routine_schema NOT IN ` + systemSchemas + ` ORDER BY routine_schema, routine_name`

	listSchemasSQL = `SELECT n.oid AS schema_id, n.nspname AS name, pg_get_userbyid(n.nspowner) AS owner ` +
		`FROM pg_namespace n WHERE n.nspname !~ '^pg_' AND n.nspname <> 'information_schema' ORDER BY n.nspname`

	listDatabasesSQL = `SELECT datname AS name, pg_encoding_to_char(encoding) AS encoding, datallowconn AS allow_connections ` +
		`FROM pg_database WHERE NOT datistemplate ORDER BY datname`
)

// describeSQL lists the columns of a table. "schema.table" restricts the schema.
func describeSQL(table string) string {
	var b strings.Builder
	b.WriteString(`SELECT column_name, data_type, character_maximum_length, is_nullable, column_default ` +
		`FROM information_schema.columns WHERE `)
	if schema, name, ok := strings.Cut(table, "."); ok && schema != "" && name != "" {
		fmt.Fprintf(&b, "table_schema = %s AND table_name = %s", QuoteLiteral(schema), QuoteLiteral(name))
	} else {
		fmt.Fprintf(&b, "table_name = %s", QuoteLiteral(table))
	}
	b.WriteString(" ORDER BY ordinal_position")
	return b.String()
}

// SwitchDatabaseSQL is the statement a switch-database compiles to.
func SwitchDatabaseSQL(db string) string {
	return "USE " + QuoteIdent(db)
}

// QuoteLiteral quotes s as a SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdent quotes s as a SQL identifier.
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func connInfo(cc ConnContext) results.Batch {
	trust := "no"
	if cc.TrustCert {
		trust = "yes"
	}
	return results.Message([2]string{"Property", "Value"}, [][2]string{
		{"Server", cc.Server},
		{"Database", cc.Database},
		{"User", cc.User},
		{"Trust Certificate", trust},
	})
}

// HelpRows lists every meta-command with a short description.
var HelpRows = [][2]string{
	{`\d`, "List all tables and views"},
	{`\d <table>`, "Describe table columns"},
	{`\describe <table>`, "Describe table columns"},
	{`\dt`, "List tables only"},
	{`\dv`, "List views only"},
	{`\di`, "List indexes"},
	{`\df`, "List procedures and functions"},
	{`\ds`, "List schemas"},
	{`\dn`, "List databases"},
	{`\c <db>`, "Switch database"},
	{`\conninfo`, "Show connection info"},
	{`\x`, "Toggle expanded display"},
	{`\timing`, "Toggle query timing display"},
	{`\?`, "Show this help"},
	{`\q`, "Quit"},
}

func help() results.Batch {
	return results.Message([2]string{"Command", "Description"}, HelpRows)
}
