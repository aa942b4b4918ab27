// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgpane/cli/internal/dsn"
	"pgpane/cli/internal/errors"
)

func connected() *Session {
	s := New(dsn.Endpoint{Host: "localhost", Port: 5432}, "alice", "app", false)
	s.MarkConnected()
	return s
}

func TestBeginExecution(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*Session)
		kind    errors.Kind
	}{
		{"connected", func(*Session) {}, ""},
		{"executing", func(s *Session) { require.NoError(t, s.BeginExecution()) }, errors.AlreadyExecuting},
		{"failed", func(s *Session) { s.Fail("socket closed") }, errors.ConnectionError},
		{"disconnected", func(s *Session) { s.Close() }, errors.ConnectionError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := connected()
			tt.prepare(s)
			before, _ := s.Status()
			err := s.BeginExecution()
			if tt.kind == "" {
				require.NoError(t, err)
				st, _ := s.Status()
				assert.Equal(t, Executing, st)
				return
			}
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			after, _ := s.Status()
			assert.Equal(t, before, after)
		})
	}
}

func TestEndExecution_KeepsFailure(t *testing.T) {
	s := connected()
	require.NoError(t, s.BeginExecution())
	s.Fail("terminated by administrator")
	s.EndExecution()

	st, reason := s.Status()
	assert.Equal(t, Failed, st)
	assert.Equal(t, "terminated by administrator", reason)
}

func TestBeginExecution_SingleFlight(t *testing.T) {
	s := connected()
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.BeginExecution() == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins)
}

func TestSetDatabase(t *testing.T) {
	s := connected()
	s.SetDatabase("sales")
	assert.Equal(t, "sales", s.Database())
}
