// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for pgpane. The root
// command opens the full-screen client or, with --cli, a file or piped input,
// runs SQL in line mode. Subcommands manage the saved connection.
package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pgpane/cli/internal/app"
	"pgpane/cli/internal/cli"
	"pgpane/cli/internal/config"
	"pgpane/cli/internal/conn"
	"pgpane/cli/internal/logging"
	"pgpane/cli/internal/output"
	"pgpane/cli/internal/session"
	"pgpane/cli/internal/terminal"
	"pgpane/cli/internal/tui"
	"pgpane/cli/internal/xdg"
)

var (
	flagServer    string
	flagUser      string
	flagPassword  string
	flagDatabase  string
	flagDSN       string
	flagTrustCert bool
	flagSSLMode   string

	flagCLI      bool
	flagInput    string
	flagOutput   string
	flagFormat   string
	flagTiming   bool
	flagExpanded bool

	flagConfig   string
	flagLogLevel string
	flagLogFile  string
)

// rootCmd opens a session and hands it to the TUI or the line-mode driver.
var rootCmd = &cobra.Command{
	Use:   "pgpane",
	Short: "Terminal client for PostgreSQL",
	Long: `pgpane is an interactive terminal client for PostgreSQL with a query editor,
a results grid and an object browser. With --cli, -i or piped input it runs SQL
without the full-screen interface and prints results as a table, CSV or JSON.`,
	Example: `  pgpane -S db.internal -U alice -d shop
  pgpane --dsn postgres://alice@db.internal/shop --cli
  echo 'select now();' | pgpane -S localhost --format json`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// reportedError marks an error that was already shown to the user.
type reportedError struct{ error }

func (r reportedError) Unwrap() error { return r.error }

// Execute runs the CLI application and exits with the matching status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var r reportedError
		if !stderrors.As(err, &r) && !cli.Shown(err) {
			fmt.Fprint(os.Stderr, logging.FormatError(err))
		}
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagServer, "server", "S", "", "Server as host, host:port or host,port")
	pf.StringVarP(&flagUser, "user", "U", "", "User name")
	pf.StringVarP(&flagPassword, "password", "P", "", "Password (prefer PGPANE_PASSWORD or the keychain)")
	pf.StringVarP(&flagDatabase, "database", "d", "", "Database to open")
	pf.StringVar(&flagDSN, "dsn", "", "Connection string, URL or keyword/value form")
	pf.BoolVar(&flagTrustCert, "trust-cert", false, "Encrypt without verifying the server certificate")
	pf.StringVar(&flagSSLMode, "sslmode", "", "TLS mode: disable, allow, prefer, require, verify-ca, verify-full")
	pf.StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/pgpane/config.yaml)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flagLogFile, "log-file", "", "Log file, '-' for stderr")

	f := rootCmd.Flags()
	f.BoolVar(&flagCLI, "cli", false, "Run in line mode instead of the full-screen interface")
	f.StringVarP(&flagInput, "input", "i", "", "Run the SQL in this file and exit")
	f.StringVarP(&flagOutput, "output", "o", "", "Write results to this file instead of stdout")
	f.StringVar(&flagFormat, "format", "table", "Line mode output: table, csv or json")
	f.BoolVar(&flagTiming, "timing", false, "Show execution time")
	f.BoolVar(&flagExpanded, "expanded", false, "Start with expanded display")
}

// setup loads configuration and starts logging. The returned closer flushes
// the log file.
func setup(cmd *cobra.Command) (*config.Config, io.Closer, error) {
	cfg, err := config.Load(flagConfig, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	if cfg.Log.File == "" {
		if p, err := xdg.LogFile(); err == nil {
			cfg.Log.File = p
		}
	}
	closer, err := cfg.Log.Configure()
	if err != nil {
		return nil, nil, err
	}
	log.WithField("config", cfg.File).Debug("configuration loaded")
	return cfg, closer, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	lineMode := flagCLI || flagInput != "" || flagOutput != "" || !terminal.IsInteractive(os.Stdin)
	params, err := resolveParams(cfg, secretStore())
	if err != nil {
		return err
	}

	timing := cfg.Timing
	if lineMode && !cmd.Flags().Changed("timing") {
		timing = true
	}
	sess := session.New(params.Endpoint, params.User, params.Database, params.TrustCert)
	a := app.New(sess, app.Options{
		Expanded:     cfg.Expanded,
		Timing:       timing,
		HistorySize:  cfg.UI.HistorySize,
		PreviewLimit: cfg.UI.PreviewLimit,
	})

	if err := dial(ctx, a, params, !lineMode); err != nil {
		fmt.Fprint(os.Stderr, logging.FormatError(err))
		return reportedError{err}
	}
	defer a.Quit(context.Background())

	if !lineMode {
		return tui.Run(ctx, a, tui.Options{MaxColumnWidth: cfg.UI.MaxColumnWidth})
	}
	return runLineMode(ctx, a, cfg)
}

// dial opens the connection, with a spinner when a terminal is watching.
func dial(ctx context.Context, a *app.App, p conn.Params, interactive bool) error {
	if !interactive {
		return a.Connect(ctx, conn.Dial, p)
	}
	stopSpinner := startInlineSpinner(os.Stderr, "connecting to "+p.Endpoint.String(), spinnerFrames, spinnerInterval)
	err := a.Connect(ctx, conn.Dial, p)
	stopSpinner()
	return err
}

func runLineMode(ctx context.Context, a *app.App, cfg *config.Config) error {
	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	runner := cli.New(a, format, out, os.Stderr, cli.WithInterrupt(sig))

	switch {
	case flagInput != "":
		f, err := os.Open(flagInput)
		if err != nil {
			return fmt.Errorf("open input file: %w", err)
		}
		defer f.Close()
		return runner.RunScript(ctx, f)
	case !terminal.IsInteractive(os.Stdin):
		return runner.RunScript(ctx, os.Stdin)
	}

	rl, err := cli.NewReadline(os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	pterm.Info.Printfln("Connected to %s. Type \\? for help, quit to leave.", a.Session().Endpoint)
	return runner.RunREPL(ctx, rl)
}
