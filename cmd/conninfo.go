// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pgpane/cli/internal/dsn"
	"pgpane/cli/internal/keychain"
	"pgpane/cli/internal/logging"
)

// conninfoCmd shows what a plain "pgpane" would connect to, with the
// password masked.
var conninfoCmd = &cobra.Command{
	Use:   "conninfo",
	Short: "Show the saved connection",
	Long: `The conninfo command displays the connection pgpane uses when started without
a server or DSN: the configured server, user and database and the connection string
saved by "pgpane connect". Passwords are never printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closer, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closer.Close()

		var lines []string
		if cfg.File != "" {
			lines = append(lines, "Config file: "+cfg.File)
		}
		for _, kv := range [][2]string{{"Server", cfg.Server}, {"User", cfg.User}, {"Database", cfg.Database}, {"SSL mode", cfg.SSLMode}} {
			if kv[1] != "" {
				lines = append(lines, fmt.Sprintf("%-12s %s", kv[0]+":", kv[1]))
			}
		}

		saved := ""
		if km, err := keychain.GetManager(); err != nil {
			lines = append(lines, "Keychain:    unavailable")
		} else if saved, err = km.LoadConnection(); err != nil && !stderrors.Is(err, keychain.ErrNotFound) {
			return err
		}
		if strings.TrimSpace(saved) != "" {
			lines = append(lines, "Saved DSN:   "+redact(saved))
		}

		if len(lines) == 0 {
			pterm.Warning.Println("No connection configured")
			pterm.Println("   Please run: pgpane connect")
			return nil
		}
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Connection")).
			WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).
			Println(strings.Join(lines, "\n"))
		pterm.Println()
		pterm.Println("To update this connection, run: pgpane connect")
		return nil
	},
}

// redact hides the password of a saved connection string, falling back to
// pattern masking when it no longer parses.
func redact(s string) string {
	if info, err := dsn.Parse(s); err == nil {
		return info.Redacted()
	}
	return logging.Mask(s)
}

func init() {
	rootCmd.AddCommand(conninfoCmd)
}
