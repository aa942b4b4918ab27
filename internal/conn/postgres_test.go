// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package conn

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgproto3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgpane/cli/internal/dsn"
	"pgpane/cli/internal/errors"
	"pgpane/cli/internal/results"
)

func TestParseUse(t *testing.T) {
	tests := []struct {
		sql    string
		want   string
		wantOK bool
	}{
		{`USE "sales"`, "sales", true},
		{`use analytics;`, "analytics", true},
		{"  USE   \"we\"\"ird\" ;  ", `we"ird`, true},
		{`USE "my db"`, "my db", true},
		{`USE a; SELECT 1`, "", false},
		{`SELECT 'use x'`, "", false},
		{`user_lookup`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			got, ok := parseUse(tt.sql)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConnString(t *testing.T) {
	p := Params{
		Endpoint:       dsn.Endpoint{Host: "db.internal", Port: 6543},
		User:           "o'brien",
		Database:       "sales",
		TrustCert:      true,
		ConnectTimeout: 1500 * time.Millisecond,
	}
	cfg, err := pgconn.ParseConfig(connString(p))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.EqualValues(t, 6543, cfg.Port)
	assert.Equal(t, "o'brien", cfg.User)
	assert.Equal(t, "sales", cfg.Database)
	assert.Equal(t, ApplicationName, cfg.RuntimeParams["application_name"])
	assert.Equal(t, time.Second, cfg.ConnectTimeout)
	require.NotNil(t, cfg.TLSConfig)
	assert.True(t, cfg.TLSConfig.InsecureSkipVerify)
	assert.Empty(t, cfg.Fallbacks)
}

func TestConnString_SSLModeWithoutTrust(t *testing.T) {
	cfg, err := pgconn.ParseConfig(connString(Params{
		Endpoint: dsn.Endpoint{Host: "localhost", Port: 5432},
		SSLMode:  "disable",
	}))
	require.NoError(t, err)
	assert.Nil(t, cfg.TLSConfig)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		closed bool
		kind   errors.Kind
	}{
		{"syntax error", &pgconn.PgError{Severity: "ERROR", Code: "42601", Message: "syntax error"}, false, errors.StatementError},
		{"query canceled", &pgconn.PgError{Severity: "ERROR", Code: "57014", Message: "canceling statement due to user request"}, false, errors.Cancelled},
		{"admin shutdown", &pgconn.PgError{Severity: "FATAL", Code: "57P01", Message: "terminating connection"}, false, errors.ConnectionError},
		{"connection exception", &pgconn.PgError{Severity: "FATAL", Code: "08006"}, false, errors.ConnectionError},
		{"closed socket", io.ErrUnexpectedEOF, true, errors.ConnectionError},
		{"other", io.ErrShortBuffer, false, errors.StatementError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, errors.KindOf(classify(tt.err, tt.closed)))
		})
	}
}

func TestStatementMessage(t *testing.T) {
	msg := statementMessage(&pgconn.PgError{Severity: "ERROR", Code: "42P01", Message: `relation "nope" does not exist`, Position: 15})
	assert.Equal(t, `ERROR: relation "nope" does not exist (SQLSTATE 42P01) at character 15`, msg)
}

// fakeServer speaks enough of the wire protocol for a Handle: trust
// authentication, then simple queries answered from a fixed script.
type fakeServer struct {
	reject  map[string]bool
	replies map[string][]pgproto3.BackendMessage

	mu        sync.Mutex
	databases []string
}

func startFakeServer(t *testing.T, s *fakeServer) dsn.Endpoint {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serve(c)
		}
	}()
	return dsn.Endpoint{Host: "127.0.0.1", Port: uint16(ln.Addr().(*net.TCPAddr).Port)}
}

func (s *fakeServer) serve(c net.Conn) {
	defer c.Close()
	be := pgproto3.NewBackend(c, c)

	msg, err := be.ReceiveStartupMessage()
	if err != nil {
		return
	}
	startup, ok := msg.(*pgproto3.StartupMessage)
	if !ok {
		return
	}
	db := startup.Parameters["database"]
	if s.reject[db] {
		be.Send(&pgproto3.ErrorResponse{Severity: "FATAL", Code: "3D000", Message: fmt.Sprintf("database %q does not exist", db)})
		_ = be.Flush()
		return
	}
	s.mu.Lock()
	s.databases = append(s.databases, db)
	s.mu.Unlock()

	be.Send(&pgproto3.AuthenticationOk{})
	be.Send(&pgproto3.ParameterStatus{Name: "server_version", Value: "16.4"})
	be.Send(&pgproto3.BackendKeyData{ProcessID: 42, SecretKey: 7})
	be.Send(&pgproto3.ReadyForQuery{TxStatus: 'I'})
	if be.Flush() != nil {
		return
	}
	for {
		msg, err := be.Receive()
		if err != nil {
			return
		}
		switch m := msg.(type) {
		case *pgproto3.Query:
			for _, r := range s.replies[m.String] {
				be.Send(r)
			}
			be.Send(&pgproto3.ReadyForQuery{TxStatus: 'I'})
			if be.Flush() != nil {
				return
			}
		case *pgproto3.Terminate:
			return
		}
	}
}

func (s *fakeServer) connectedTo() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.databases...)
}

func column(name string, oid uint32) pgproto3.FieldDescription {
	return pgproto3.FieldDescription{Name: []byte(name), DataTypeOID: oid, DataTypeSize: -1, TypeModifier: -1}
}

func dataRow(values ...string) *pgproto3.DataRow {
	row := &pgproto3.DataRow{}
	for _, v := range values {
		row.Values = append(row.Values, []byte(v))
	}
	return row
}

const (
	partialSQL = "SELECT 1 AS a; SELECT * FROM missing; SELECT 3"
	tagsSQL    = "CREATE TABLE t (n int); INSERT INTO t VALUES (1), (2); SELECT n, label FROM t"
)

func newFakeServer() *fakeServer {
	return &fakeServer{
		reject: map[string]bool{"nope": true},
		replies: map[string][]pgproto3.BackendMessage{
			partialSQL: {
				&pgproto3.RowDescription{Fields: []pgproto3.FieldDescription{column("a", 23)}},
				dataRow("1"),
				&pgproto3.CommandComplete{CommandTag: []byte("SELECT 1")},
				&pgproto3.ErrorResponse{Severity: "ERROR", Code: "42P01", Message: `relation "missing" does not exist`, Position: 30},
			},
			tagsSQL: {
				&pgproto3.CommandComplete{CommandTag: []byte("CREATE TABLE")},
				&pgproto3.CommandComplete{CommandTag: []byte("INSERT 0 2")},
				&pgproto3.RowDescription{Fields: []pgproto3.FieldDescription{column("n", 23), column("label", 25)}},
				dataRow("1", "one"),
				dataRow("2", "two"),
				&pgproto3.CommandComplete{CommandTag: []byte("SELECT 2")},
			},
		},
	}
}

func dialFake(t *testing.T, ctx context.Context, ep dsn.Endpoint, database string) (Handle, error) {
	t.Helper()
	return Dial(ctx, Params{
		Endpoint:       ep,
		User:           "alice",
		Database:       database,
		SSLMode:        "disable",
		ConnectTimeout: 5 * time.Second,
	})
}

func TestPostgres_ExecuteBatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ep := startFakeServer(t, newFakeServer())

	h, err := dialFake(t, ctx, ep, "app")
	require.NoError(t, err)
	defer h.Close(ctx)

	t.Run("partial batch on error", func(t *testing.T) {
		var emitted []results.ResultSet
		batch, err := h.ExecuteBatch(ctx, partialSQL, func(rs results.ResultSet) {
			emitted = append(emitted, rs)
		})
		require.True(t, errors.Is(err, errors.StatementError), "got %v", err)
		assert.Contains(t, errors.As(err).Message, `relation "missing" does not exist (SQLSTATE 42P01)`)
		require.Len(t, batch.Sets, 1)
		assert.Equal(t, "a", batch.Sets[0].Columns[0].Name)
		assert.Equal(t, "int4", batch.Sets[0].Columns[0].Type)
		assert.Equal(t, results.Int(1), batch.Sets[0].Rows[0][0])
		assert.Len(t, emitted, 1)
	})

	t.Run("tags and rows", func(t *testing.T) {
		batch, err := h.ExecuteBatch(ctx, tagsSQL, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"CREATE TABLE", "INSERT 0 2"}, batch.Tags)
		require.Len(t, batch.Sets, 1)
		rs := batch.Sets[0]
		require.Len(t, rs.Rows, 2)
		assert.Equal(t, "text", rs.Columns[1].Type)
		assert.Equal(t, results.Text("two"), rs.Rows[1][1])
	})
}

func TestPostgres_SwitchDatabase(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv := newFakeServer()
	ep := startFakeServer(t, srv)

	h, err := dialFake(t, ctx, ep, "app")
	require.NoError(t, err)
	defer h.Close(ctx)

	// the server refusing the database is a statement failure
	batch, err := h.ExecuteBatch(ctx, `USE "nope"`, nil)
	require.Error(t, err)
	assert.Equal(t, errors.StatementError, errors.KindOf(err))
	assert.Contains(t, errors.As(err).Message, `database "nope" does not exist`)
	assert.Equal(t, 1, strings.Count(err.Error(), "failed to connect"), err.Error())
	assert.Zero(t, batch.Len())

	// and the old connection keeps working
	batch, err = h.ExecuteBatch(ctx, tagsSQL, nil)
	require.NoError(t, err)
	assert.Len(t, batch.Sets, 1)

	batch, err = h.ExecuteBatch(ctx, "use reports;", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"USE"}, batch.Tags)
	assert.Equal(t, []string{"app", "reports"}, srv.connectedTo())
}

func TestPostgres_DialRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ep := startFakeServer(t, newFakeServer())

	_, err := dialFake(t, ctx, ep, "nope")
	require.Error(t, err)
	assert.Equal(t, errors.ConnectionError, errors.KindOf(err))
	assert.Equal(t, 1, strings.Count(err.Error(), "failed to connect"), err.Error())
}
