// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net"
	"strconv"
	"strings"
)

// DefaultPort is the PostgreSQL port used when an endpoint omits one.
const DefaultPort = 5432

// Endpoint is a server address.
type Endpoint struct {
	Host string
	Port uint16
}

// String renders the endpoint as host:port (IPv6 hosts are bracketed).
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

// ParseEndpoint accepts "host", "host:port" or "host,port". IPv6 literals must
// be bracketed when a port is given with ':'.
func ParseEndpoint(s string) (Endpoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Endpoint{}, NewParseError(s, "empty server address", "use host, host:port or host,port")
	}

	host, port := s, ""
	switch {
	case strings.Contains(s, ","):
		host, port, _ = strings.Cut(s, ",")
	case strings.HasPrefix(s, "["):
		h, p, err := net.SplitHostPort(s)
		if err != nil {
			if !strings.HasSuffix(s, "]") {
				return Endpoint{}, NewParseError(s, "malformed IPv6 address", "use [::1]:5432")
			}
			h = strings.Trim(s, "[]")
		}
		host, port = h, p
	case strings.Count(s, ":") == 1:
		host, port, _ = strings.Cut(s, ":")
	}

	host = strings.TrimSpace(host)
	if host == "" {
		return Endpoint{}, NewParseError(s, "missing host", "use host, host:port or host,port")
	}
	ep := Endpoint{Host: host, Port: DefaultPort}
	if port = strings.TrimSpace(port); port != "" {
		n, err := parsePort(s, port)
		if err != nil {
			return Endpoint{}, err
		}
		ep.Port = n
	}
	return ep, nil
}
