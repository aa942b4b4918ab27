// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cli is the non-interactive and line-oriented front end. It drives
// the same app state machine as the TUI and writes results with the output
// package instead of drawing panes.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"pgpane/cli/internal/app"
	"pgpane/cli/internal/command"
	perrors "pgpane/cli/internal/errors"
	"pgpane/cli/internal/logging"
	"pgpane/cli/internal/output"
	"pgpane/cli/internal/results"
)

// ErrQuit is returned by Exec when the input asked to quit.
var ErrQuit = stderrors.New("quit")

// Runner submits input to an App and prints what comes back.
type Runner struct {
	app       *app.App
	format    output.Format
	out       io.Writer
	errOut    io.Writer
	interrupt <-chan os.Signal
}

// Option configures a Runner.
type Option func(*Runner)

// WithInterrupt cancels the running execution whenever a value arrives on ch.
func WithInterrupt(ch <-chan os.Signal) Option {
	return func(r *Runner) { r.interrupt = ch }
}

// New creates a Runner writing results to out and messages to errOut.
func New(a *app.App, format output.Format, out, errOut io.Writer, opts ...Option) *Runner {
	r := &Runner{app: a, format: format, out: out, errOut: errOut}
	for _, o := range opts {
		o(r)
	}
	return r
}

// shown marks an error the Runner has already printed.
type shown struct{ error }

func (s shown) Unwrap() error { return s.error }

// Shown reports whether err was already printed by a Runner.
func Shown(err error) bool {
	var s shown
	return stderrors.As(err, &s)
}

// RunScript executes what rd holds, the way a file passed with -i or piped
// stdin is run. Meta-command lines run on their own and the SQL between them
// is one submission each. The run stops at the first failure.
func (r *Runner) RunScript(ctx context.Context, rd io.Reader) error {
	data, err := io.ReadAll(rd)
	if err != nil {
		return errors.Wrap(err, "read input")
	}
	for _, part := range command.SplitScript(string(data)) {
		err := r.Exec(ctx, part)
		if stderrors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Exec submits one input, waits for it to settle and prints the outcome. The
// returned error is non-nil when the input failed.
func (r *Runner) Exec(ctx context.Context, input string) error {
	eff, err := r.app.Submit(ctx, input)
	switch eff {
	case app.EffectNone:
		return nil
	case app.EffectQuit:
		return ErrQuit
	case app.EffectRejected:
		r.printError(err)
		return shown{err}
	case app.EffectToggled:
		fmt.Fprintln(r.errOut, r.app.Status())
		return nil
	case app.EffectDisplayed:
		return r.write(r.app.Store().Batch(), false)
	}

	x := r.app.Pending()
	if err := r.wait(ctx); err != nil {
		return err
	}
	out := x.Outcome()
	log.WithFields(log.Fields{"kind": out.Kind.String(), "sets": out.Batch.Len(), "elapsed": out.Elapsed}).Debug("cli execution settled")

	if out.Batch.Len() > 0 || len(out.Batch.Tags) > 0 || out.Err == nil {
		if werr := r.write(out.Batch, true); werr != nil {
			return werr
		}
	}
	if out.Err != nil {
		r.printError(out.Err)
		return shown{out.Err}
	}
	return nil
}

func (r *Runner) wait(ctx context.Context) error {
	for r.app.Pending() != nil {
		select {
		case ev := <-r.app.Events():
			r.app.Apply(ev)
		case <-r.interrupt:
			r.app.Cancel(ctx)
		case <-ctx.Done():
			r.app.Cancel(context.Background())
			return ctx.Err()
		}
	}
	return nil
}

func (r *Runner) write(b results.Batch, timed bool) error {
	d := r.app.Display()
	err := output.Write(r.out, r.format, b, output.Options{
		Expanded: d.Expanded,
		Timing:   d.Timing && timed,
		Elapsed:  r.app.Elapsed(),
	})
	if err != nil {
		r.printError(err)
		return shown{err}
	}
	return nil
}

func (r *Runner) printError(err error) {
	fmt.Fprint(r.errOut, logging.FormatError(err))
}

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case perrors.Is(err, perrors.ConnectionError):
		return 2
	default:
		return 1
	}
}

// isQuitWord reports whether a REPL line asks to leave.
func isQuitWord(line string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ";"))) {
	case "quit", "exit":
		return true
	}
	return false
}
