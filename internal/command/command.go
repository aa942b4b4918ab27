// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package command classifies raw editor or CLI input and compiles it into the
// action the app should take. Input starting with a backslash is a meta-command;
// anything else is SQL and is passed through untouched apart from trimming.
//
// Interpret is pure. Compile is pure too, given the connection context it is handed.
package command

import (
	"fmt"
	"strings"

	"pgpane/cli/internal/errors"
)

// Prefix starts every meta-command.
const Prefix = `\`

// Kind enumerates the supported meta-commands.
type Kind int

const (
	ListObjects Kind = iota + 1
	DescribeTable
	ListTables
	ListViews
	ListIndexes
	ListFunctions
	ListSchemas
	ListDatabases
	ConnInfo
	SwitchDatabase
	ToggleExpanded
	ToggleTiming
	Help
	Quit
)

var kindNames = map[Kind]string{
	ListObjects:    "list-objects",
	DescribeTable:  "describe-table",
	ListTables:     "list-tables",
	ListViews:      "list-views",
	ListIndexes:    "list-indexes",
	ListFunctions:  "list-functions",
	ListSchemas:    "list-schemas",
	ListDatabases:  "list-databases",
	ConnInfo:       "connection-info",
	SwitchDatabase: "switch-database",
	ToggleExpanded: "toggle-expanded",
	ToggleTiming:   "toggle-timing",
	Help:           "help",
	Quit:           "quit",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Command is one classified submission. The set of implementations is closed.
type Command interface {
	command()
}

// NoOp is empty or whitespace-only input. It is never submitted.
type NoOp struct{}

// SQLText is opaque SQL, trimmed.
type SQLText struct {
	Text string
}

// Meta is a recognised meta-command. Arg is empty when none was given.
type Meta struct {
	Kind Kind
	Arg  string
}

// MissingArgument is a meta-command that requires an argument but got none.
type MissingArgument struct {
	Kind  Kind
	Token string
}

// UnknownCommand is backslash input that matches no meta-command.
type UnknownCommand struct {
	Text string
}

func (NoOp) command()            {}
func (SQLText) command()         {}
func (Meta) command()            {}
func (MissingArgument) command() {}
func (UnknownCommand) command()  {}

// Err returns the error reported for the submission.
func (m MissingArgument) Err() *errors.E {
	return errors.New(errors.MissingArgument, fmt.Sprintf("%s requires an argument (%s)", m.Token, m.Kind))
}

// Err returns the error reported for the submission.
func (u UnknownCommand) Err() *errors.E {
	return errors.New(errors.UnknownCommand, fmt.Sprintf("unknown command %s, try \\?", u.Text))
}

// Interpret classifies input.
func Interpret(input string) Command {
	text := strings.TrimSpace(input)
	if text == "" {
		return NoOp{}
	}
	if !strings.HasPrefix(text, Prefix) {
		return SQLText{Text: text}
	}

	token, arg := text, ""
	if i := strings.IndexFunc(text, isSpace); i >= 0 {
		token, arg = text[:i], strings.TrimSpace(text[i:])
	}

	switch token {
	case `\d`:
		if arg != "" {
			return Meta{Kind: DescribeTable, Arg: arg}
		}
		return Meta{Kind: ListObjects}
	case `\describe`:
		return required(DescribeTable, token, arg)
	case `\dt`:
		return Meta{Kind: ListTables}
	case `\dv`:
		return Meta{Kind: ListViews}
	case `\di`:
		return Meta{Kind: ListIndexes}
	case `\df`:
		return Meta{Kind: ListFunctions}
	case `\ds`:
		return Meta{Kind: ListSchemas}
	case `\dn`:
		return Meta{Kind: ListDatabases}
	case `\c`:
		return required(SwitchDatabase, token, arg)
	case `\conninfo`:
		return Meta{Kind: ConnInfo}
	case `\x`:
		return Meta{Kind: ToggleExpanded}
	case `\timing`:
		return Meta{Kind: ToggleTiming}
	case `\?`:
		return Meta{Kind: Help}
	case `\q`:
		return Meta{Kind: Quit}
	default:
		return UnknownCommand{Text: text}
	}
}

func required(kind Kind, token, arg string) Command {
	if arg == "" {
		return MissingArgument{Kind: kind, Token: token}
	}
	return Meta{Kind: kind, Arg: arg}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// IsMeta reports whether a line of input is a meta-command.
func IsMeta(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), Prefix)
}
