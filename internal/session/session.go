// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session tracks the single logical connection to the server: where it
// points, who is connected, the current database and whether a statement is in
// flight. The Executing status is the guard that keeps executions sequential.
package session

import (
	"fmt"
	"sync"

	"pgpane/cli/internal/dsn"
	"pgpane/cli/internal/errors"
)

// Status is the connection status of a Session.
type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
	Executing
	Failed
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Executing:
		return "executing"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Session is safe for concurrent use; the executor goroutine ends executions
// while the app loop reads status.
type Session struct {
	Endpoint  dsn.Endpoint
	User      string
	TrustCert bool

	mu       sync.RWMutex
	database string
	status   Status
	reason   string
}

// New returns a disconnected session.
func New(ep dsn.Endpoint, user, database string, trustCert bool) *Session {
	return &Session{Endpoint: ep, User: user, TrustCert: trustCert, database: database}
}

// Database returns the current database name.
func (s *Session) Database() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.database
}

// SetDatabase records a successful database switch.
func (s *Session) SetDatabase(db string) {
	s.mu.Lock()
	s.database = db
	s.mu.Unlock()
}

// Status returns the status and, when Failed, the reason.
func (s *Session) Status() (Status, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.reason
}

func (s *Session) MarkConnecting() { s.set(Connecting, "") }
func (s *Session) MarkConnected()  { s.set(Connected, "") }
func (s *Session) Close()          { s.set(Disconnected, "") }

// Fail marks the connection unusable.
func (s *Session) Fail(reason string) { s.set(Failed, reason) }

// BeginExecution moves Connected to Executing. Any other status is rejected
// and left unchanged.
func (s *Session) BeginExecution() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.status {
	case Connected:
		s.status = Executing
		return nil
	case Executing:
		return errors.New(errors.AlreadyExecuting, "a statement is already executing")
	case Failed:
		return errors.New(errors.ConnectionError, "connection failed: "+s.reason)
	default:
		return errors.New(errors.ConnectionError, "not connected")
	}
}

// EndExecution returns an Executing session to Connected. A session that
// failed or closed meanwhile keeps its status.
func (s *Session) EndExecution() {
	s.mu.Lock()
	if s.status == Executing {
		s.status = Connected
	}
	s.mu.Unlock()
}

func (s *Session) set(st Status, reason string) {
	s.mu.Lock()
	s.status, s.reason = st, reason
	s.mu.Unlock()
}
