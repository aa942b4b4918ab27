// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlexec runs submissions against the session's connection without
// blocking the caller. Each submission becomes an Execution: a goroutine that
// waits on the server, accumulates result sets in server order and settles into
// a Succeeded or Failed outcome.
//
// Key properties:
//   - At most one execution is pending per session (enforced through the session status)
//   - Result sets from a failed batch are kept in the outcome as partial results
//   - Cancellation is a request to the server; an execution that completes anyway succeeds
//   - A connection-level failure marks the session Failed
package sqlexec

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"pgpane/cli/internal/conn"
	"pgpane/cli/internal/errors"
	"pgpane/cli/internal/results"
	"pgpane/cli/internal/session"
)

// OutcomeKind is the state of an execution's outcome.
type OutcomeKind int

const (
	Pending OutcomeKind = iota
	Succeeded
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Outcome is the result of an execution. For Failed outcomes Batch holds the
// result sets completed before the failure, possibly none.
type Outcome struct {
	Kind    OutcomeKind
	Batch   results.Batch
	Err     *errors.E
	Elapsed time.Duration
}

// Executor submits SQL to one connection.
type Executor struct {
	handle conn.Handle
	now    func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock replaces time.Now for start and elapsed measurements.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an Executor over an open connection handle.
func New(h conn.Handle, opts ...Option) *Executor {
	e := &Executor{handle: h, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execution is one submission's lifecycle.
type Execution struct {
	SQL     string
	Started time.Time

	handle conn.Handle
	done   chan struct{}

	mu              sync.Mutex
	outcome         Outcome
	partial         []results.ResultSet
	cancelRequested bool
}

// Submit starts executing sql. The session must be Connected; otherwise the
// session's rejection (AlreadyExecuting or ConnectionError) is returned and
// nothing runs. onSet, when non-nil, is called from the execution goroutine for
// every result set as it completes.
func (e *Executor) Submit(ctx context.Context, sess *session.Session, sql string, onSet func(results.ResultSet)) (*Execution, error) {
	if err := sess.BeginExecution(); err != nil {
		return nil, err
	}

	x := &Execution{
		SQL:     sql,
		Started: e.now(),
		handle:  e.handle,
		done:    make(chan struct{}),
	}
	logger := log.WithField("sql", abbreviate(sql, 120))
	logger.Debug("execution started")

	go func() {
		batch, err := e.handle.ExecuteBatch(ctx, sql, func(rs results.ResultSet) {
			x.mu.Lock()
			x.partial = append(x.partial, rs)
			x.mu.Unlock()
			if onSet != nil {
				onSet(rs)
			}
		})
		elapsed := e.now().Sub(x.Started)
		x.finish(ctx, sess, batch, err, elapsed)

		o := x.Outcome()
		fields := log.Fields{"elapsed": elapsed, "sets": o.Batch.Len(), "outcome": o.Kind.String()}
		if o.Err != nil {
			logger.WithFields(fields).WithField("kind", o.Err.Kind).Info(o.Err.Message)
		} else {
			logger.WithFields(fields).Debug("execution finished")
		}
	}()
	return x, nil
}

// Run submits sql and waits for the outcome.
func (e *Executor) Run(ctx context.Context, sess *session.Session, sql string) (Outcome, error) {
	x, err := e.Submit(ctx, sess, sql, nil)
	if err != nil {
		return Outcome{}, err
	}
	return x.Wait(ctx)
}

func (x *Execution) finish(ctx context.Context, sess *session.Session, batch results.Batch, err error, elapsed time.Duration) {
	x.mu.Lock()
	defer func() {
		x.mu.Unlock()
		close(x.done)
	}()

	if len(batch.Sets) < len(x.partial) {
		batch.Sets = append([]results.ResultSet(nil), x.partial...)
	}
	out := Outcome{Kind: Succeeded, Batch: batch, Elapsed: elapsed}

	if err != nil {
		ke := errors.As(err)
		if ke.Kind != errors.ConnectionError && (x.cancelRequested || ctx.Err() != nil) {
			ke = errors.Wrap(errors.Cancelled, "execution cancelled", err)
		}
		out.Kind = Failed
		out.Err = ke
	}

	if out.Err != nil && out.Err.Kind == errors.ConnectionError {
		sess.Fail(out.Err.Message)
	} else {
		sess.EndExecution()
	}
	x.outcome = out
}

// Cancel requests cancellation. It is a no-op once the execution has finished,
// and the execution may still succeed if the server completes first.
func (x *Execution) Cancel(ctx context.Context) error {
	x.mu.Lock()
	if x.outcome.Kind != Pending || x.cancelRequested {
		x.mu.Unlock()
		return nil
	}
	x.cancelRequested = true
	x.mu.Unlock()
	return x.handle.Cancel(ctx)
}

// Done is closed when the outcome is settled.
func (x *Execution) Done() <-chan struct{} { return x.done }

// Outcome returns the current outcome; Kind is Pending until Done is closed.
func (x *Execution) Outcome() Outcome {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.outcome
}

// Partial returns the result sets completed so far.
func (x *Execution) Partial() []results.ResultSet {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]results.ResultSet(nil), x.partial...)
}

// Wait blocks until the execution settles or ctx is done.
func (x *Execution) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-x.done:
		return x.Outcome(), nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
