// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package app is the state machine shared by the TUI and the CLI. It owns the
// session, the result store and the display state, and is the only place they
// change. All methods run on the caller's loop goroutine; work that waits on
// the server runs elsewhere and reports back through Events, which the loop
// hands to Apply.
//
//	Disconnected -> Connecting -> Connected <-> Executing
//	Connected/Executing -> Failed -> Disconnected
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"pgpane/cli/internal/command"
	"pgpane/cli/internal/conn"
	"pgpane/cli/internal/errors"
	"pgpane/cli/internal/results"
	"pgpane/cli/internal/session"
	"pgpane/cli/internal/sqlexec"
)

// State is the app's lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Executing
	Failed
)

func (s State) String() string {
	return [...]string{"disconnected", "connecting", "connected", "executing", "failed"}[s]
}

// Focus names the pane receiving non-execution input.
type Focus int

const (
	FocusEditor Focus = iota
	FocusResults
	FocusSidebar
)

func (f Focus) String() string {
	return [...]string{"editor", "results", "sidebar"}[f]
}

// DisplayState is what the renderer needs besides the data. Selected is -1
// when there is no result set.
type DisplayState struct {
	Selected int
	Expanded bool
	Timing   bool
}

// Effect reports what Submit did.
type Effect int

const (
	// EffectNone means the input was empty.
	EffectNone Effect = iota
	// EffectStarted means an execution is now pending.
	EffectStarted
	// EffectDisplayed means a local table replaced the results.
	EffectDisplayed
	// EffectToggled means a display flag flipped.
	EffectToggled
	// EffectRejected means the input was refused; the error says why.
	EffectRejected
	// EffectQuit means the app shut down.
	EffectQuit
)

// EventKind distinguishes events.
type EventKind int

const (
	// ResultSetArrived reports progress of the pending execution.
	ResultSetArrived EventKind = iota
	// ExecutionFinished reports that the pending execution settled.
	ExecutionFinished
	// ObjectsLoaded reports the object browser load result.
	ObjectsLoaded
)

// Event is sent by background work and applied on the loop goroutine.
type Event struct {
	Kind      EventKind
	Execution *sqlexec.Execution
	Set       results.ResultSet
	Tree      *sqlexec.ObjectTree
	Err       error
}

// Options configure a new App.
type Options struct {
	Expanded bool
	Timing   bool
	// HistorySize bounds the in-memory history; 0 keeps everything.
	HistorySize int
	// PreviewLimit is the row limit used by sidebar previews.
	PreviewLimit int
	Clock        func() time.Time
}

// App is not safe for concurrent use. Only Events may be read from another goroutine.
type App struct {
	sess    *session.Session
	handle  conn.Handle
	exec    *sqlexec.Executor
	catalog *sqlexec.Catalog
	opts    Options

	state   State
	focus   Focus
	store   *results.Store
	display DisplayState
	history *History
	side    *sidebar

	pending  *sqlexec.Execution
	switchTo string
	arrived  int
	elapsed  time.Duration
	status   string
	lastErr  *errors.E
	scroll   Scroll

	events   chan Event
	quit     chan struct{}
	quitOnce sync.Once
}

// Scroll is the viewport offset inside the current result set.
type Scroll struct {
	Row int
	Col int
}

// New creates a disconnected App for sess.
func New(sess *session.Session, opts Options) *App {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &App{
		sess:    sess,
		opts:    opts,
		store:   results.NewStore(),
		display: DisplayState{Selected: -1, Expanded: opts.Expanded, Timing: opts.Timing},
		history: NewHistory(opts.HistorySize),
		side:    newSidebar(),
		events:  make(chan Event, 64),
		quit:    make(chan struct{}),
	}
}

// Events delivers background results. Every event must be passed to Apply.
func (a *App) Events() <-chan Event { return a.events }

// Done is closed once the app has quit.
func (a *App) Done() <-chan struct{} { return a.quit }

// Connect opens the connection. On failure the app is Failed and the error
// is a ConnectionError.
func (a *App) Connect(ctx context.Context, dial conn.Dialer, p conn.Params) error {
	a.state = Connecting
	a.sess.MarkConnecting()

	h, err := dial(ctx, p)
	if err != nil {
		e := errors.As(err)
		if e.Kind != errors.ConnectionError {
			e = errors.Wrap(errors.ConnectionError, e.Message, err)
		}
		a.state = Failed
		a.sess.Fail(e.Message)
		a.lastErr = e
		a.status = e.Message
		return e
	}

	a.handle = h
	a.exec = sqlexec.New(h, sqlexec.WithClock(a.opts.Clock))
	a.catalog = sqlexec.NewCatalog(a.exec)
	a.sess.MarkConnected()
	a.state = Connected
	a.status = fmt.Sprintf("Connected to %s as %s", a.sess.Endpoint, a.sess.User)
	log.WithFields(log.Fields{"server": a.sess.Endpoint.String(), "database": a.sess.Database()}).Info("session connected")
	return nil
}

// Submit interprets input and acts on it. Local commands apply immediately;
// SQL starts an execution whose completion arrives as an ExecutionFinished event.
func (a *App) Submit(ctx context.Context, input string) (Effect, error) {
	cmd := command.Interpret(input)
	if _, ok := cmd.(command.NoOp); !ok {
		a.history.Add(strings.TrimSpace(input))
	}
	action := command.Compile(cmd, a.connContext())

	switch action.Op {
	case command.OpNone:
		return EffectNone, nil
	case command.OpReject:
		a.lastErr = action.Err
		a.status = action.Err.Message
		return EffectRejected, action.Err
	case command.OpToggleExpanded:
		a.display.Expanded = !a.display.Expanded
		a.status = "Expanded display is " + onOff(a.display.Expanded)
		return EffectToggled, nil
	case command.OpToggleTiming:
		a.display.Timing = !a.display.Timing
		a.status = "Timing is " + onOff(a.display.Timing)
		return EffectToggled, nil
	case command.OpQuit:
		a.Quit(ctx)
		return EffectQuit, nil
	case command.OpDisplay:
		a.replace(action.Display)
		a.lastErr = nil
		a.status = ""
		return EffectDisplayed, nil
	case command.OpExecute:
		return a.execute(ctx, action)
	default:
		panic(fmt.Sprintf("app: unhandled op %d", action.Op))
	}
}

func (a *App) execute(ctx context.Context, action command.Action) (Effect, error) {
	if a.exec == nil || a.state == Disconnected || a.state == Connecting {
		err := errors.New(errors.ConnectionError, "not connected")
		a.lastErr = err
		return EffectRejected, err
	}
	x, err := a.exec.Submit(ctx, a.sess, action.SQL, func(rs results.ResultSet) {
		select {
		case a.events <- Event{Kind: ResultSetArrived, Set: rs}:
		default:
			// progress only; dropping is harmless
		}
	})
	if err != nil {
		e := errors.As(err)
		a.lastErr = e
		a.status = e.Message
		return EffectRejected, e
	}

	a.pending = x
	a.switchTo = action.SwitchTo
	a.arrived = 0
	a.state = Executing
	a.lastErr = nil
	a.status = "Executing..."

	go func() {
		<-x.Done()
		a.send(Event{Kind: ExecutionFinished, Execution: x})
	}()
	return EffectStarted, nil
}

func (a *App) send(ev Event) {
	select {
	case a.events <- ev:
	case <-a.quit:
	}
}

// Apply folds a background event into the state.
func (a *App) Apply(ev Event) {
	switch ev.Kind {
	case ResultSetArrived:
		if a.pending != nil {
			a.arrived++
			a.status = fmt.Sprintf("Executing... %d result set(s)", a.arrived)
		}
	case ExecutionFinished:
		if ev.Execution == nil || ev.Execution != a.pending {
			return
		}
		a.finish(ev.Execution.Outcome())
	case ObjectsLoaded:
		a.side.loading = false
		if ev.Err != nil {
			a.lastErr = errors.As(ev.Err)
			a.status = "Object browser: " + a.lastErr.Message
			break
		}
		a.side.tree = ev.Tree
		a.side.move(0)
	}
	a.syncState()
}

func (a *App) finish(out sqlexec.Outcome) {
	a.pending = nil
	a.elapsed = out.Elapsed

	switch out.Kind {
	case sqlexec.Succeeded:
		a.replace(out.Batch)
		a.lastErr = nil
		if a.switchTo != "" {
			a.sess.SetDatabase(a.switchTo)
			a.side.tree = nil
			a.catalog.Invalidate()
			a.status = fmt.Sprintf("You are now connected to database %q", a.switchTo)
		} else {
			a.status = summary(out.Batch)
		}
	case sqlexec.Failed:
		// a cancel before any set arrived leaves the previous results up
		if out.Batch.Len() > 0 || !errors.Is(out.Err, errors.Cancelled) {
			a.replace(out.Batch)
		}
		a.lastErr = out.Err
		a.status = out.Err.Message
	}
	a.switchTo = ""
	a.syncState()
}

// syncState derives the app state from the session.
func (a *App) syncState() {
	if a.state == Disconnected {
		return
	}
	switch st, _ := a.sess.Status(); st {
	case session.Failed:
		a.state = Failed
	case session.Executing:
		a.state = Executing
	case session.Connected:
		a.state = Connected
	}
}

// LoadObjects loads the object browser tree in the background. It is skipped
// while another execution is pending.
func (a *App) LoadObjects(ctx context.Context) bool {
	if a.catalog == nil || a.state != Connected || a.side.loading {
		return false
	}
	a.side.loading = true
	a.state = Executing
	go func() {
		tree, err := a.catalog.Tree(ctx, a.sess)
		a.send(Event{Kind: ObjectsLoaded, Tree: tree, Err: err})
	}()
	return true
}

// RefreshObjects drops the cached object tree and loads it again.
func (a *App) RefreshObjects(ctx context.Context) bool {
	if a.catalog == nil || a.state != Connected {
		return false
	}
	a.catalog.Invalidate()
	return a.LoadObjects(ctx)
}

// Await applies events until nothing is pending, for callers without their
// own event loop.
func (a *App) Await(ctx context.Context) error {
	for a.pending != nil || a.side.loading {
		select {
		case ev := <-a.events:
			a.Apply(ev)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Cancel requests cancellation of the pending execution.
func (a *App) Cancel(ctx context.Context) {
	if a.pending == nil {
		return
	}
	if err := a.pending.Cancel(ctx); err != nil {
		log.WithError(err).Warn("cancel failed")
	}
	a.status = "Cancelling..."
}

// Quit cancels any pending execution, closes the connection and moves to
// Disconnected. It is honored in every state.
func (a *App) Quit(ctx context.Context) {
	if a.pending != nil {
		_ = a.pending.Cancel(ctx)
		a.pending = nil
	}
	if a.handle != nil {
		if err := a.handle.Close(ctx); err != nil {
			log.WithError(err).Debug("close connection")
		}
		a.handle = nil
	}
	a.sess.Close()
	a.state = Disconnected
	a.quitOnce.Do(func() { close(a.quit) })
}

// Teardown moves a Failed app to Disconnected, releasing the connection.
func (a *App) Teardown(ctx context.Context) {
	if a.state != Failed {
		return
	}
	if a.handle != nil {
		_ = a.handle.Close(ctx)
		a.handle = nil
	}
	a.exec = nil
	a.catalog = nil
	a.sess.Close()
	a.state = Disconnected
}

// CycleFocus moves focus Editor -> Results -> Sidebar -> Editor, skipping a hidden sidebar.
func (a *App) CycleFocus() {
	switch a.focus {
	case FocusEditor:
		a.focus = FocusResults
	case FocusResults:
		if a.side.visible {
			a.focus = FocusSidebar
		} else {
			a.focus = FocusEditor
		}
	default:
		a.focus = FocusEditor
	}
}

// SetFocus focuses a pane; a hidden sidebar cannot take focus.
func (a *App) SetFocus(f Focus) {
	if f == FocusSidebar && !a.side.visible {
		return
	}
	a.focus = f
}

// ToggleSidebar shows or hides the object browser.
func (a *App) ToggleSidebar() {
	a.side.visible = !a.side.visible
	if !a.side.visible && a.focus == FocusSidebar {
		a.focus = FocusEditor
	}
}

// SelectNext moves to the next result set when the results pane has focus.
func (a *App) SelectNext() bool {
	if a.focus != FocusResults || !a.store.SelectNext() {
		return false
	}
	a.afterSelect()
	return true
}

// SelectPrevious moves to the previous result set when the results pane has focus.
func (a *App) SelectPrevious() bool {
	if a.focus != FocusResults || !a.store.SelectPrevious() {
		return false
	}
	a.afterSelect()
	return true
}

// ScrollResults moves the viewport inside the current result set.
func (a *App) ScrollResults(rows, cols int) {
	if a.focus != FocusResults {
		return
	}
	cur, ok := a.store.Current()
	if !ok {
		return
	}
	a.scroll.Row = clamp(a.scroll.Row+rows, 0, len(cur.Rows)-1)
	a.scroll.Col = clamp(a.scroll.Col+cols, 0, len(cur.Columns)-1)
}

// SidebarMove moves the object browser cursor when it has focus.
func (a *App) SidebarMove(delta int) {
	if a.focus == FocusSidebar {
		a.side.move(delta)
	}
}

// SidebarActivate expands or collapses the schema under the cursor. On a
// table or view it returns input describing it.
func (a *App) SidebarActivate() string {
	if a.focus != FocusSidebar {
		return ""
	}
	return a.side.activate()
}

// SidebarPreview returns a SELECT for the relation under the cursor.
func (a *App) SidebarPreview() string {
	if a.focus != FocusSidebar {
		return ""
	}
	return a.side.previewSQL(a.opts.PreviewLimit)
}

// HistoryPrevious and HistoryNext recall submitted input.
func (a *App) HistoryPrevious() (string, bool) { return a.history.Previous() }
func (a *App) HistoryNext() (string, bool)     { return a.history.Next() }

func (a *App) State() State                 { return a.state }
func (a *App) Focus() Focus                 { return a.focus }
func (a *App) Display() DisplayState        { return a.display }
func (a *App) Store() *results.Store        { return a.store }
func (a *App) Pending() *sqlexec.Execution  { return a.pending }
func (a *App) LastError() *errors.E         { return a.lastErr }
func (a *App) Status() string               { return a.status }
func (a *App) Elapsed() time.Duration       { return a.elapsed }
func (a *App) Session() *session.Session    { return a.sess }

func (a *App) replace(b results.Batch) {
	a.store.Replace(b)
	a.afterSelect()
}

func (a *App) afterSelect() {
	a.display.Selected = a.store.Index()
	a.scroll = Scroll{}
}

func (a *App) connContext() command.ConnContext {
	return command.ConnContext{
		Server:    a.sess.Endpoint.String(),
		Database:  a.sess.Database(),
		User:      a.sess.User,
		TrustCert: a.sess.TrustCert,
	}
}

func summary(b results.Batch) string {
	switch {
	case b.Len() == 1:
		n := len(b.Sets[0].Rows)
		if n == 1 {
			return "1 row"
		}
		return fmt.Sprintf("%d rows", n)
	case b.Len() > 1:
		return fmt.Sprintf("%d result sets", b.Len())
	case len(b.Tags) > 0:
		return b.Tags[len(b.Tags)-1]
	default:
		return "OK"
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
