// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config loads pgpane settings from the config file, PGPANE_*
// environment variables and command-line flags, in increasing precedence.
// Only non-secret settings are kept here; passwords go to the OS keychain.
package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	perrors "pgpane/cli/internal/errors"
	"pgpane/cli/internal/logging"
	"pgpane/cli/internal/output"
	"pgpane/cli/internal/xdg"
)

// EnvPrefix prefixes every environment override, e.g. PGPANE_SERVER.
const EnvPrefix = "PGPANE"

// Config holds non-sensitive CLI settings.
type Config struct {
	Server         string        `mapstructure:"server"`
	User           string        `mapstructure:"user"`
	Database       string        `mapstructure:"database"`
	TrustCert      bool          `mapstructure:"trust_cert"`
	SSLMode        string        `mapstructure:"sslmode"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`

	Format   string `mapstructure:"format"`
	Timing   bool   `mapstructure:"timing"`
	Expanded bool   `mapstructure:"expanded"`

	Log logging.Config `mapstructure:"log"`
	UI  UIConfig       `mapstructure:"ui"`

	// File is the config file that was read, empty when none existed.
	File string `mapstructure:"-"`
}

// UIConfig holds TUI display settings.
type UIConfig struct {
	MaxColumnWidth int `mapstructure:"max_col_width"`
	HistorySize    int `mapstructure:"history_size"`
	PreviewLimit   int `mapstructure:"preview_limit"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"server":     "server",
	"user":       "user",
	"database":   "database",
	"trust-cert": "trust_cert",
	"sslmode":    "sslmode",
	"format":     "format",
	"timing":     "timing",
	"expanded":   "expanded",
	"log-level":  "log.level",
	"log-file":   "log.file",
}

func defaults(v *viper.Viper) {
	v.SetDefault("server", "")
	v.SetDefault("user", "")
	v.SetDefault("database", "")
	v.SetDefault("trust_cert", false)
	v.SetDefault("sslmode", "prefer")
	v.SetDefault("connect_timeout", 10*time.Second)
	v.SetDefault("format", "table")
	v.SetDefault("timing", false)
	v.SetDefault("expanded", false)
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("ui.max_col_width", 40)
	v.SetDefault("ui.history_size", 500)
	v.SetDefault("ui.preview_limit", 100)
}

// Load reads configuration. An empty path means the default file under the
// XDG config dir, which may be missing; an explicit path must exist. flags may
// be nil; only flags the user actually set override the file.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		p, err := xdg.ConfigFile()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		path = p
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	read := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(stderrors.As(err, &notFound) || stderrors.Is(err, os.ErrNotExist)) {
			return nil, perrors.Wrap(perrors.InvalidConfig, "read config "+path, err)
		}
		read = false
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.WithStack(err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, perrors.Wrap(perrors.InvalidConfig, "unmarshal config", err)
	}
	if read {
		cfg.File = path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var sslModes = map[string]bool{
	"disable": true, "allow": true, "prefer": true, "require": true, "verify-ca": true, "verify-full": true,
}

// Validate checks values that are not enforced by their types.
func (c *Config) Validate() error {
	if _, err := output.ParseFormat(c.Format); err != nil {
		return err
	}
	if !sslModes[c.SSLMode] {
		return perrors.New(perrors.InvalidConfig, "unknown sslmode "+c.SSLMode)
	}
	if c.ConnectTimeout < 0 {
		return perrors.New(perrors.InvalidConfig, "connect_timeout must not be negative")
	}
	if c.UI.MaxColumnWidth < 0 {
		return perrors.New(perrors.InvalidConfig, "ui.max_col_width must not be negative")
	}
	return nil
}

// SaveConnection writes the non-secret connection settings to path, keeping
// any other keys already in the file.
func SaveConnection(path string, c Config) error {
	if path == "" {
		p, err := xdg.ConfigFile()
		if err != nil {
			return errors.WithStack(err)
		}
		path = p
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return perrors.Wrap(perrors.InvalidConfig, "read config "+path, err)
		}
	}
	v.Set("server", c.Server)
	v.Set("user", c.User)
	v.Set("database", c.Database)
	v.Set("trust_cert", c.TrustCert)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.WithStack(err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return errors.Wrap(err, "write config")
	}
	return os.Chmod(path, 0o600)
}
