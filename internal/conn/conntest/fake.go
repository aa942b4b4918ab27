// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package conntest provides a scripted conn.Handle for tests.
package conntest

import (
	"context"
	"sync"

	"pgpane/cli/internal/conn"
	"pgpane/cli/internal/dsn"
	"pgpane/cli/internal/errors"
	"pgpane/cli/internal/results"
)

// Step is the scripted reply to one ExecuteBatch call. Sets are emitted in
// order, then Err (if any) is returned with the emitted sets as the partial batch.
type Step struct {
	Sets []results.ResultSet
	Tags []string
	Err  error
	// Gate, when non-nil, blocks the call after emitting Sets until it is closed
	// or the handle is cancelled.
	Gate chan struct{}
	// IgnoreCancel completes normally even when Cancel was called, modelling a
	// server that finished before the cancel request arrived.
	IgnoreCancel bool
}

// Handle is a fake conn.Handle. Calls beyond the script return an empty batch.
type Handle struct {
	mu       sync.Mutex
	steps    []Step
	executed []string
	cancels  int
	closed   bool
	cancelCh chan struct{}
	// Started receives the SQL of every call when non-nil.
	Started chan string
}

var _ conn.Handle = (*Handle)(nil)

// New returns a handle that replays steps.
func New(steps ...Step) *Handle {
	return &Handle{steps: steps}
}

// Dialer returns a conn.Dialer yielding h, or err when non-nil.
func Dialer(h *Handle, err error) conn.Dialer {
	return func(context.Context, conn.Params) (conn.Handle, error) {
		if err != nil {
			return nil, err
		}
		return h, nil
	}
}

// Push appends steps to the script.
func (h *Handle) Push(steps ...Step) {
	h.mu.Lock()
	h.steps = append(h.steps, steps...)
	h.mu.Unlock()
}

func (h *Handle) ExecuteBatch(ctx context.Context, sql string, emit func(results.ResultSet)) (results.Batch, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return results.Batch{}, errors.New(errors.ConnectionError, "connection closed")
	}
	h.executed = append(h.executed, sql)
	var step Step
	if len(h.steps) > 0 {
		step, h.steps = h.steps[0], h.steps[1:]
	}
	cancelCh := make(chan struct{})
	h.cancelCh = cancelCh
	started := h.Started
	h.mu.Unlock()

	if started != nil {
		started <- sql
	}

	var batch results.Batch
	for _, rs := range step.Sets {
		batch.Sets = append(batch.Sets, rs)
		if emit != nil {
			emit(rs)
		}
	}
	batch.Tags = step.Tags

	cancelled := false
	if step.Gate != nil {
		select {
		case <-step.Gate:
		case <-cancelCh:
			cancelled = true
		case <-ctx.Done():
			cancelled = true
		}
	}
	h.mu.Lock()
	h.cancelCh = nil
	h.mu.Unlock()

	if cancelled && !step.IgnoreCancel {
		return batch, errors.New(errors.Cancelled, "execution cancelled")
	}
	return batch, step.Err
}

func (h *Handle) Cancel(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancels++
	if h.cancelCh != nil {
		close(h.cancelCh)
		h.cancelCh = nil
	}
	return nil
}

func (h *Handle) Close(context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return nil
}

// Executed returns the SQL of every call so far.
func (h *Handle) Executed() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.executed...)
}

func (h *Handle) Cancels() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancels
}

func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Set builds a result set with text columns named cols and the given rows.
func Set(cols []string, rows ...[]any) results.ResultSet {
	columns := make([]results.Column, len(cols))
	for i, c := range cols {
		columns[i] = results.Column{Name: c, Type: "text", Nullable: true}
	}
	rs := results.NewResultSet(columns...)
	for _, r := range rows {
		row := make([]results.Value, len(r))
		for i, v := range r {
			row[i] = results.FromInterface(v)
		}
		if err := rs.Append(row); err != nil {
			panic(err)
		}
	}
	return rs
}

// Params is a ready-made conn.Params for tests.
var Params = conn.Params{Endpoint: dsn.Endpoint{Host: "localhost", Port: dsn.DefaultPort}, User: "tester", Database: "app"}
