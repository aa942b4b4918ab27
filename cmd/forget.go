// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pgpane/cli/internal/dsn"
	"pgpane/cli/internal/keychain"
)

var forgetAll bool

// forgetCmd removes secrets saved by the connect command.
var forgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Remove saved connection secrets from the keychain",
	Long: `The forget command removes the saved connection string and the password of the
configured user and server from the OS keychain. With --all every secret pgpane
stored is removed. The config file is left as is.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closer, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closer.Close()

		km, err := keychain.GetManager()
		if err != nil {
			return err
		}
		if forgetAll {
			if err := km.ForgetAll(); err != nil {
				return err
			}
			pterm.Success.Println("All saved secrets have been removed")
			return nil
		}

		server := ""
		if cfg.Server != "" {
			ep, err := dsn.ParseEndpoint(cfg.Server)
			if err != nil {
				return err
			}
			server = ep.String()
		}
		if err := km.Forget(cfg.User, server); err != nil {
			return err
		}
		pterm.Success.Println("Saved connection has been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(forgetCmd)
	forgetCmd.Flags().BoolVar(&forgetAll, "all", false, "Remove every secret pgpane stored")
}
