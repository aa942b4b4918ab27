// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure that reaches the user carries a machine-readable Kind so the UI
// can decide how to present it (status line, failed-execution banner, exit code)
// without matching on message text.
//
// Errors wrap their cause, so errors.Is / errors.As from the standard library keep
// working through an *E.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// ConnectionError means the server connection is unusable: dial failure,
	// dropped socket, or a server-side termination. The session becomes Failed.
	ConnectionError Kind = "connection_error"
	// StatementError is a server error scoped to a statement. The session stays Connected.
	StatementError Kind = "statement_error"
	// MissingArgument is a meta-command that requires an argument but got none.
	MissingArgument Kind = "missing_argument"
	// UnknownCommand is an unrecognised backslash command.
	UnknownCommand Kind = "unknown_command"
	// Cancelled means the user cancelled an in-flight execution.
	Cancelled Kind = "cancelled"
	// AlreadyExecuting rejects a submission while another execution is pending.
	AlreadyExecuting Kind = "already_executing"

	// InvalidConfig is a malformed configuration file or flag value.
	InvalidConfig Kind = "invalid_config"
	// InvalidEndpoint is a server address that cannot be parsed.
	InvalidEndpoint Kind = "invalid_endpoint"
	// SecretStore is a failure talking to the OS keychain.
	SecretStore Kind = "secret_store"
	// Output is a failure writing results to the destination.
	Output Kind = "output_error"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		// a message lifted from the cause is not repeated
		if cause := e.Err.Error(); strings.Contains(cause, e.Message) {
			return fmt.Sprintf("%s: %s", e.Kind, cause)
		}
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the Kind of the first *E in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As returns err as an *E. Errors without a kind are wrapped as StatementError.
func As(err error) *E {
	if err == nil {
		return nil
	}
	var e *E
	if stderrors.As(err, &e) {
		return e
	}
	return Wrap(StatementError, err.Error(), err)
}
