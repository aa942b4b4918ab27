// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	stderrors "errors"
	"os"
	"os/user"
	"strings"

	log "github.com/sirupsen/logrus"

	"pgpane/cli/internal/config"
	"pgpane/cli/internal/conn"
	"pgpane/cli/internal/dsn"
	"pgpane/cli/internal/keychain"
)

// secrets is the part of the keychain manager connection resolution needs.
type secrets interface {
	LoadConnection() (string, error)
	LoadPassword(user, server string) (string, error)
}

// secretStore returns the OS keychain, or nil when there is none.
func secretStore() secrets {
	km, err := keychain.GetManager()
	if err != nil {
		log.WithError(err).Debug("keychain unavailable")
		return nil
	}
	return km
}

// resolveParams builds connection settings. A --dsn flag wins over the
// server/user/database settings; with neither, the connection saved by
// "pgpane connect" is used. The password comes from --password, then
// PGPANE_PASSWORD, then the connection string, then the keychain.
func resolveParams(cfg *config.Config, store secrets) (conn.Params, error) {
	p := conn.Params{
		User:           cfg.User,
		Database:       cfg.Database,
		TrustCert:      cfg.TrustCert,
		SSLMode:        cfg.SSLMode,
		ConnectTimeout: cfg.ConnectTimeout,
	}

	raw := flagDSN
	if raw == "" && cfg.Server == "" && store != nil {
		if saved, err := store.LoadConnection(); err == nil {
			raw = saved
			log.Debug("using saved connection")
		} else if !stderrors.Is(err, keychain.ErrNotFound) {
			log.WithError(err).Debug("load saved connection")
		}
	}

	var fromDSN string
	switch {
	case raw != "":
		info, err := dsn.Parse(raw)
		if err != nil {
			return conn.Params{}, err
		}
		p.Endpoint = info.Endpoint
		fromDSN = info.Password
		if info.User != "" && p.User == "" {
			p.User = info.User
		}
		if info.Database != "" && p.Database == "" {
			p.Database = info.Database
		}
		if mode := info.SSLMode(); mode != "" && flagSSLMode == "" {
			p.SSLMode = mode
		}
	case cfg.Server != "":
		ep, err := dsn.ParseEndpoint(cfg.Server)
		if err != nil {
			return conn.Params{}, err
		}
		p.Endpoint = ep
	default:
		p.Endpoint = dsn.Endpoint{Host: "localhost", Port: dsn.DefaultPort}
	}

	if p.User == "" {
		p.User = osUser()
	}

	switch {
	case flagPassword != "":
		p.Password = flagPassword
	case os.Getenv("PGPANE_PASSWORD") != "":
		p.Password = os.Getenv("PGPANE_PASSWORD")
	case fromDSN != "":
		p.Password = fromDSN
	case store != nil:
		pw, err := store.LoadPassword(p.User, p.Endpoint.String())
		if err == nil {
			p.Password = pw
		} else if !stderrors.Is(err, keychain.ErrNotFound) {
			log.WithError(err).Debug("load password from keychain")
		}
	}
	return p, nil
}

func osUser() string {
	if u, err := user.Current(); err == nil {
		// Windows reports DOMAIN\name
		if i := strings.LastIndex(u.Username, `\`); i >= 0 {
			return u.Username[i+1:]
		}
		return u.Username
	}
	return os.Getenv("USER")
}
