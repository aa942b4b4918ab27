// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dsn parses server addresses and PostgreSQL connection strings.
package dsn

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"pgpane/cli/internal/errors"
)

// Info is a parsed connection string. Empty fields were not given.
type Info struct {
	Endpoint Endpoint
	User     string
	Password string
	Database string
	Params   map[string]string
}

// String renders Info as a canonical postgresql:// URL with sorted parameters.
func (i *Info) String() string {
	return i.url(i.Password).String()
}

// Redacted renders Info like String with the password replaced by xxxxx.
func (i *Info) Redacted() string {
	return i.url(i.Password).Redacted()
}

func (i *Info) url(password string) *url.URL {
	u := &url.URL{
		Scheme: "postgresql",
		Host:   i.Endpoint.String(),
		Path:   "/" + i.Database,
	}
	if i.User != "" {
		if password != "" {
			u.User = url.UserPassword(i.User, password)
		} else {
			u.User = url.User(i.User)
		}
	}
	if len(i.Params) > 0 {
		keys := make([]string, 0, len(i.Params))
		for k := range i.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		q := url.Values{}
		for _, k := range keys {
			q.Set(k, i.Params[k])
		}
		u.RawQuery = q.Encode()
	}
	return u
}

// SSLMode returns the sslmode parameter, or "" when absent.
func (i *Info) SSLMode() string { return i.Params["sslmode"] }

// ParseError represents an error that occurred while parsing an address or
// connection string. It unwraps to an InvalidEndpoint error.
type ParseError struct {
	Input  string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid connection string: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid connection string: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return errors.New(errors.InvalidEndpoint, e.Reason)
}

// NewParseError creates a new ParseError
func NewParseError(input, reason, hint string) *ParseError {
	return &ParseError{Input: input, Reason: reason, Hint: hint}
}

func parsePort(input, port string) (uint16, error) {
	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil || n == 0 {
		return 0, NewParseError(input, "invalid port number: "+port, "port must be between 1 and 65535")
	}
	return uint16(n), nil
}
