// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cli

import (
	"context"
	stderrors "errors"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"

	"pgpane/cli/internal/command"
	perrors "pgpane/cli/internal/errors"
)

// LineReader is the part of *readline.Instance the REPL uses.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	SaveHistory(content string) error
	Close() error
}

// NewReadline opens a line editor with in-memory history only.
func NewReadline(stdin io.ReadCloser, stdout, stderr io.Writer) (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Stdin:                  stdin,
		Stdout:                 stdout,
		Stderr:                 stderr,
		DisableAutoSaveHistory: true,
		HistoryLimit:           500,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return rl, nil
}

// RunREPL reads statements line by line. SQL may span lines and ends at a
// ';' outside quotes and comments; meta-commands, quit and exit end at the
// newline. Errors are printed and the loop goes on; on EOF or quit it returns
// the first failure, if any, so the exit status reflects it.
func (r *Runner) RunREPL(ctx context.Context, rl LineReader) error {
	defer rl.Close()

	var buf []string
	var failed error
	exec := func(input string) error {
		err := r.Exec(ctx, input)
		if err != nil && failed == nil && !stderrors.Is(err, ErrQuit) && !perrors.Is(err, perrors.Cancelled) {
			failed = err
		}
		return err
	}
	for {
		rl.SetPrompt(r.prompt(len(buf) > 0))
		line, err := rl.Readline()
		if stderrors.Is(err, readline.ErrInterrupt) {
			buf = buf[:0]
			continue
		}
		if stderrors.Is(err, io.EOF) {
			return failed
		}
		if err != nil {
			return errors.WithStack(err)
		}

		trimmed := strings.TrimSpace(line)
		if len(buf) == 0 {
			if trimmed == "" {
				continue
			}
			if isQuitWord(trimmed) {
				return failed
			}
			if command.IsMeta(trimmed) {
				_ = rl.SaveHistory(trimmed)
				if err := exec(trimmed); stderrors.Is(err, ErrQuit) {
					return failed
				}
				continue
			}
		}

		buf = append(buf, line)
		statement := strings.Join(buf, "\n")
		if !command.StatementComplete(statement) {
			continue
		}
		buf = buf[:0]

		_ = rl.SaveHistory(strings.TrimSpace(statement))
		if err := exec(statement); stderrors.Is(err, ErrQuit) {
			return failed
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (r *Runner) prompt(continuation bool) string {
	db := r.app.Session().Database()
	if db == "" {
		db = "pgpane"
	}
	if continuation {
		return db + "-> "
	}
	return db + "=> "
}
