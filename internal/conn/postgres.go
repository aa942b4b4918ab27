// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package conn

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgconn/ctxwatch"
	"github.com/jackc/pgx/v5/pgtype"
	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"pgpane/cli/internal/errors"
	"pgpane/cli/internal/logging"
	"pgpane/cli/internal/results"
)

// ApplicationName is reported to the server as application_name.
const ApplicationName = "pgpane"

// cancelDeadlineDelay bounds how long a cancelled context waits for the server
// to acknowledge a cancel request before the socket deadline fires.
const cancelDeadlineDelay = 2 * time.Second

// useStatement matches a batch made only of USE <db>. PostgreSQL has no USE,
// so the handle reconnects to the named database instead.
var useStatement = regexp.MustCompile(`(?is)^\s*use\s+("(?:[^"]|"")+"|[^\s;"]+)\s*;?\s*$`)

type pgHandle struct {
	mu     sync.Mutex
	conn   *pgconn.PgConn
	cfg    *pgconn.Config
	server string
	types  *pgtype.Map
	log    *log.Entry
}

// Dial opens a PostgreSQL connection.
func Dial(ctx context.Context, p Params) (Handle, error) {
	cfg, err := pgconn.ParseConfig(connString(p))
	if err != nil {
		return nil, errors.Wrap(errors.ConnectionError, "invalid connection settings", pkgerrors.WithStack(err))
	}
	if p.Password != "" {
		cfg.Password = p.Password
	}
	cfg.BuildContextWatcherHandler = func(c *pgconn.PgConn) ctxwatch.Handler {
		return &pgconn.CancelRequestContextWatcherHandler{Conn: c, DeadlineDelay: cancelDeadlineDelay}
	}

	h := &pgHandle{
		cfg:    cfg,
		server: p.Endpoint.String(),
		types:  pgtype.NewMap(),
		log:    log.WithFields(log.Fields{"server": p.Endpoint.String(), "user": p.User}),
	}
	if err := h.connect(ctx, p.Database); err != nil {
		return nil, errors.Wrap(errors.ConnectionError, h.connectMessage(err), err)
	}
	return h, nil
}

// connect replaces the current connection with one to database. On failure
// the current connection is left in place.
func (h *pgHandle) connect(ctx context.Context, database string) error {
	cfg := h.cfg.Copy()
	if database != "" {
		cfg.Database = database
	}
	c, err := pgconn.ConnectConfig(ctx, cfg)
	if err != nil {
		h.log.WithError(err).WithField("database", cfg.Database).Warn("connect failed")
		return pkgerrors.WithStack(err)
	}
	h.mu.Lock()
	old := h.conn
	h.conn = c
	h.mu.Unlock()
	if old != nil {
		_ = old.Close(ctx)
	}
	h.log.WithField("database", cfg.Database).Info("connected")
	return nil
}

// switchError classifies a failed database switch. A refusal from the server
// (unknown database, no privilege) leaves the old connection usable.
func (h *pgHandle) switchError(err error) error {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return errors.Wrap(errors.StatementError, statementMessage(pgErr), err)
	}
	return errors.Wrap(errors.ConnectionError, h.connectMessage(err), err)
}

func (h *pgHandle) connectMessage(err error) string {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return statementMessage(pgErr)
	}
	return "could not connect to " + h.server
}

func (h *pgHandle) current() *pgconn.PgConn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn
}

func (h *pgHandle) ExecuteBatch(ctx context.Context, sql string, emit func(results.ResultSet)) (results.Batch, error) {
	if db, ok := parseUse(sql); ok {
		if err := h.connect(ctx, db); err != nil {
			return results.Batch{}, h.switchError(err)
		}
		return results.Batch{Tags: []string{"USE"}}, nil
	}

	c := h.current()
	var batch results.Batch
	mrr := c.Exec(ctx, sql)
	for mrr.NextResult() {
		rr := mrr.ResultReader()
		fds := rr.FieldDescriptions()
		rs := results.NewResultSet(h.columns(fds)...)
		for rr.NextRow() {
			raw := rr.Values()
			row := make([]results.Value, len(raw))
			for i, cell := range raw {
				row[i] = results.Decode(rs.Columns[i].Type, cell)
			}
			if err := rs.Append(row); err != nil {
				_, _ = rr.Close()
				_ = mrr.Close()
				return batch, errors.Wrap(errors.StatementError, "malformed row", err)
			}
		}
		tag, err := rr.Close()
		if err != nil {
			_ = mrr.Close()
			return batch, classify(err, c.IsClosed())
		}
		if len(fds) == 0 {
			batch.Tags = append(batch.Tags, tag.String())
			continue
		}
		batch.Sets = append(batch.Sets, rs)
		if emit != nil {
			emit(rs)
		}
	}
	if err := mrr.Close(); err != nil {
		return batch, classify(err, c.IsClosed())
	}
	return batch, nil
}

func (h *pgHandle) columns(fds []pgconn.FieldDescription) []results.Column {
	cols := make([]results.Column, len(fds))
	for i, fd := range fds {
		typ := "unknown"
		if t, ok := h.types.TypeForOID(fd.DataTypeOID); ok {
			typ = t.Name
		}
		// The row description carries no nullability; assume nullable.
		cols[i] = results.Column{Name: fd.Name, Type: typ, Nullable: true}
	}
	return cols
}

// classify maps a driver error onto the error taxonomy.
func classify(err error, closed bool) error {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "57014":
			return errors.Wrap(errors.Cancelled, "execution cancelled", err)
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "57P01", pgErr.Code == "57P02", pgErr.Code == "57P03":
			return errors.Wrap(errors.ConnectionError, pgErr.Message, err)
		}
		return errors.Wrap(errors.StatementError, statementMessage(pgErr), err)
	}
	var netErr net.Error
	if closed || stderrors.As(err, &netErr) || pgconn.Timeout(err) {
		return errors.Wrap(errors.ConnectionError, logging.Mask(err.Error()), err)
	}
	return errors.Wrap(errors.StatementError, err.Error(), err)
}

func statementMessage(e *pgconn.PgError) string {
	msg := fmt.Sprintf("%s: %s (SQLSTATE %s)", e.Severity, e.Message, e.Code)
	if e.Position > 0 {
		msg += " at character " + strconv.Itoa(int(e.Position))
	}
	return msg
}

func (h *pgHandle) Cancel(ctx context.Context) error {
	c := h.current()
	if c == nil || c.IsClosed() {
		return nil
	}
	if err := c.CancelRequest(ctx); err != nil {
		h.log.WithError(err).Warn("cancel request failed")
		return errors.Wrap(errors.ConnectionError, "cancel request failed", err)
	}
	h.log.Debug("cancel requested")
	return nil
}

func (h *pgHandle) Close(ctx context.Context) error {
	h.mu.Lock()
	c := h.conn
	h.conn = nil
	h.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close(ctx)
}

// ParameterStatus returns a server parameter such as server_version.
func (h *pgHandle) ParameterStatus(key string) string {
	if c := h.current(); c != nil {
		return c.ParameterStatus(key)
	}
	return ""
}

func parseUse(sql string) (string, bool) {
	m := useStatement.FindStringSubmatch(sql)
	if m == nil {
		return "", false
	}
	name := m[1]
	if strings.HasPrefix(name, `"`) {
		name = strings.ReplaceAll(name[1:len(name)-1], `""`, `"`)
	}
	return name, true
}

func connString(p Params) string {
	parts := []string{kv("host", p.Endpoint.Host), kv("application_name", ApplicationName)}
	if p.Endpoint.Port != 0 {
		parts = append(parts, kv("port", strconv.Itoa(int(p.Endpoint.Port))))
	}
	if p.User != "" {
		parts = append(parts, kv("user", p.User))
	}
	if p.Database != "" {
		parts = append(parts, kv("dbname", p.Database))
	}
	switch {
	case p.TrustCert:
		parts = append(parts, kv("sslmode", "require"))
	case p.SSLMode != "":
		parts = append(parts, kv("sslmode", p.SSLMode))
	}
	if p.ConnectTimeout > 0 {
		secs := int(p.ConnectTimeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		parts = append(parts, kv("connect_timeout", strconv.Itoa(secs)))
	}
	return strings.Join(parts, " ")
}

// kv renders a keyword/value pair with the value single-quoted.
func kv(key, value string) string {
	value = strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return key + "='" + value + "'"
}
