// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package conn is the boundary to the database server. A Handle owns one
// server connection and runs batches of SQL text on it, yielding every result
// set the server produces in order.
//
// Handles are not safe for concurrent ExecuteBatch calls; the session's
// Executing status keeps callers sequential. Cancel and Close may be called from
// any goroutine while a batch is running.
package conn

import (
	"context"
	"time"

	"pgpane/cli/internal/dsn"
	"pgpane/cli/internal/results"
)

// Handle is one live server connection.
type Handle interface {
	// ExecuteBatch runs sql as one simple-protocol submission. emit is called on
	// the caller's goroutine for each completed result set, in server order.
	// On error the returned batch holds everything completed before the failure.
	ExecuteBatch(ctx context.Context, sql string, emit func(results.ResultSet)) (results.Batch, error)
	// Cancel asks the server to cancel the running statement. It is a no-op
	// when nothing is running.
	Cancel(ctx context.Context) error
	// Close terminates the connection.
	Close(ctx context.Context) error
}

// Params are the settings needed to open a connection.
type Params struct {
	Endpoint dsn.Endpoint
	User     string
	Password string
	Database string
	// TrustCert encrypts the connection without verifying the server certificate.
	TrustCert bool
	// SSLMode is used when TrustCert is false. Empty means the driver default.
	SSLMode        string
	ConnectTimeout time.Duration
}

// Dialer opens a Handle. Dial is the production implementation.
type Dialer func(ctx context.Context, p Params) (Handle, error)
