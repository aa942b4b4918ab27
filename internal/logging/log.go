// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	perrors "pgpane/cli/internal/errors"
)

// Config contains the configuration for the global logger.
type Config struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
	// File receives log lines. "-" means stderr; empty discards them, which
	// is what the TUI wants when no file is configured.
	File string `mapstructure:"file"`
}

// Configure applies cfg to the global logger. The returned closer releases
// the log file, if one was opened.
func (cfg Config) Configure() (io.Closer, error) {
	var closer io.Closer = nopCloser{}
	switch cfg.File {
	case "":
		log.SetOutput(io.Discard)
	case "-":
		log.SetOutput(os.Stderr)
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
			return nil, errors.WithStack(err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		log.SetOutput(f)
		closer = f
	}
	if cfg.Level != "" {
		level, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return nil, perrors.Wrap(perrors.InvalidConfig, "invalid log level "+cfg.Level, err)
		}
		log.SetLevel(level)
	}
	switch cfg.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, perrors.New(perrors.InvalidConfig, "log format must be either text or json")
	}
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
