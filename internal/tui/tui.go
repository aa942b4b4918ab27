// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package tui is the full-screen front end: a query editor, a results pane and
// an object browser drawn with pterm, driven by atomicgo keyboard input. All
// app mutations happen on the loop goroutine.
package tui

import (
	"context"
	"os"
	"time"

	"atomicgo.dev/cursor"
	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"pgpane/cli/internal/app"
	"pgpane/cli/internal/terminal"
)

const pageRows = 10

// Options tune the TUI.
type Options struct {
	MaxColumnWidth int
	// Size reports the terminal size; defaults to pterm.GetTerminalSize.
	Size func() (width, height int, err error)
	// Tick is the redraw interval while a query runs.
	Tick time.Duration
}

// Model turns key presses into app calls. It owns the editor and the
// presentation toggles the app does not track.
type Model struct {
	app      *app.App
	ed       *Editor
	showHelp bool
}

// NewModel creates a Model over a connected app.
func NewModel(a *app.App) *Model {
	return &Model{app: a, ed: NewEditor()}
}

// Editor returns the query editor.
func (m *Model) Editor() *Editor { return m.ed }

// ShowHelp reports whether the key help overlays the results.
func (m *Model) ShowHelp() bool { return m.showHelp }

// HandleKey applies one key press and reports whether the TUI should exit.
func (m *Model) HandleKey(ctx context.Context, k keys.Key) bool {
	a := m.app
	switch k.Code {
	case keys.CtrlQ:
		a.Quit(ctx)
		return true
	case keys.F1:
		m.showHelp = !m.showHelp
		return false
	case keys.F5, keys.CtrlE:
		return m.submit(ctx, m.ed.Text())
	case keys.Esc, keys.CtrlC:
		if m.showHelp {
			m.showHelp = false
			return false
		}
		a.Cancel(ctx)
		return false
	case keys.Tab:
		a.CycleFocus()
		return false
	case keys.CtrlD:
		a.ToggleSidebar()
		return false
	case keys.CtrlL:
		m.ed.Clear()
		return false
	case keys.CtrlR:
		a.RefreshObjects(ctx)
		return false
	case keys.CtrlP:
		if s, ok := a.HistoryPrevious(); ok {
			m.ed.SetText(s)
		}
		return false
	case keys.CtrlN:
		if s, ok := a.HistoryNext(); ok {
			m.ed.SetText(s)
		} else {
			m.ed.Clear()
		}
		return false
	}

	switch a.Focus() {
	case app.FocusResults:
		m.resultsKey(k)
	case app.FocusSidebar:
		return m.sidebarKey(ctx, k)
	default:
		m.editorKey(k)
	}
	return false
}

func (m *Model) submit(ctx context.Context, input string) bool {
	eff, err := m.app.Submit(ctx, input)
	if err != nil {
		log.WithError(err).Debug("submission rejected")
	}
	if eff == app.EffectStarted || eff == app.EffectDisplayed {
		m.showHelp = false
	}
	return eff == app.EffectQuit
}

func (m *Model) editorKey(k keys.Key) {
	ed := m.ed
	switch k.Code {
	case keys.RuneKey:
		ed.Insert(string(k.Runes))
	case keys.Space:
		ed.Insert(" ")
	case keys.Enter:
		ed.Newline()
	case keys.Backspace:
		ed.Backspace()
	case keys.Delete:
		ed.Delete()
	case keys.Left:
		ed.Left()
	case keys.Right:
		ed.Right()
	case keys.Up:
		ed.Up()
	case keys.Down:
		ed.Down()
	case keys.Home:
		ed.Home()
	case keys.End:
		ed.End()
	}
}

func (m *Model) resultsKey(k keys.Key) {
	a := m.app
	switch k.Code {
	case keys.Up:
		a.ScrollResults(-1, 0)
	case keys.Down:
		a.ScrollResults(1, 0)
	case keys.PgUp:
		a.ScrollResults(-pageRows, 0)
	case keys.PgDown:
		a.ScrollResults(pageRows, 0)
	case keys.Left:
		a.ScrollResults(0, -1)
	case keys.Right:
		a.ScrollResults(0, 1)
	case keys.Home:
		a.ScrollResults(-1<<30, -1<<30)
	case keys.ShiftLeft:
		a.SelectPrevious()
	case keys.ShiftRight:
		a.SelectNext()
	}
}

func (m *Model) sidebarKey(ctx context.Context, k keys.Key) bool {
	a := m.app
	switch k.Code {
	case keys.Up:
		a.SidebarMove(-1)
	case keys.Down:
		a.SidebarMove(1)
	case keys.Enter:
		if in := a.SidebarActivate(); in != "" {
			return m.submit(ctx, in)
		}
	case keys.Space:
		if in := a.SidebarPreview(); in != "" {
			return m.submit(ctx, in)
		}
	}
	return false
}

type keyPress struct {
	key   keys.Key
	reply chan bool
}

// Run takes over the terminal until the user quits or ctx ends. The app must
// already be connected.
func Run(ctx context.Context, a *app.App, opts Options) error {
	if opts.Size == nil {
		opts.Size = pterm.GetTerminalSize
	}
	if opts.Tick <= 0 {
		opts.Tick = 100 * time.Millisecond
	}
	m := NewModel(a)

	fd := int(os.Stdin.Fd())
	if st, err := term.GetState(fd); err == nil {
		defer func() { _ = term.Restore(fd, st) }()
	}
	terminal.EnterAltScreen(os.Stdout)
	defer terminal.LeaveAltScreen(os.Stdout)
	cursor.Hide()
	defer cursor.Show()

	area, err := pterm.DefaultArea.WithRemoveWhenDone().Start()
	if err != nil {
		return errors.Wrap(err, "start screen")
	}
	defer func() { _ = area.Stop() }()

	presses := make(chan keyPress)
	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := keyboard.Listen(func(k keys.Key) (bool, error) {
			reply := make(chan bool, 1)
			select {
			case presses <- keyPress{key: k, reply: reply}:
			case <-done:
				return true, nil
			}
			select {
			case stop := <-reply:
				return stop, nil
			case <-done:
				return true, nil
			}
		})
		select {
		case <-done:
			return nil
		default:
		}
		return errors.Wrap(err, "keyboard")
	})

	g.Go(func() error {
		byKey := false
		defer func() {
			close(done)
			if !byKey {
				// wake the listener so it returns
				go func() { _ = keyboard.SimulateKeyPress(keys.Key{Code: keys.CtrlQ}) }()
			}
		}()

		scr := &screen{model: m, area: area, opts: opts}
		a.LoadObjects(gctx)
		scr.draw()

		ticker := time.NewTicker(opts.Tick)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				a.Quit(context.Background())
				return nil
			case <-a.Done():
				return nil
			case p := <-presses:
				quit := m.HandleKey(gctx, p.key)
				p.reply <- quit
				if quit {
					byKey = true
					return nil
				}
				scr.draw()
			case ev := <-a.Events():
				a.Apply(ev)
				scr.draw()
			case <-ticker.C:
				scr.tick()
			}
		}
	})

	return g.Wait()
}

// screen redraws the area from app snapshots.
type screen struct {
	model *Model
	area  *pterm.AreaPrinter
	opts  Options
	w, h  int
}

func (s *screen) size() (int, int) {
	w, h, err := s.opts.Size()
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

func (s *screen) draw() {
	s.w, s.h = s.size()
	snap := s.model.app.Snapshot()
	s.area.Update(Render(snap, s.model.ed, View{
		Width:          s.w,
		Height:         s.h - 1,
		ShowHelp:       s.model.showHelp,
		MaxColumnWidth: s.opts.MaxColumnWidth,
		Now:            time.Now(),
	}))
}

// tick redraws on resize and animates the running indicator.
func (s *screen) tick() {
	w, h := s.size()
	if w != s.w || h != s.h || s.model.app.Pending() != nil {
		s.draw()
	}
}
