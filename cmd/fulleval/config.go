// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/speedygs/fulleval/internal/config"
	"github.com/speedygs/fulleval/pkg/types"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `fulleval config` command tree.
func newConfigCommand() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage fulleval configuration",
		Long: `Manage fulleval configuration.

Configuration is stored in:
  - Linux: ~/.config/fulleval/config.cue
  - macOS: ~/Library/Application Support/fulleval/config.cue
  - Windows: %APPDATA%\fulleval\config.cue

A ./config.cue in the working directory is used when none exists there.
Values are overridden by FULLEVAL_* environment variables (for example
FULLEVAL_PRUNE_PERCENT or FULLEVAL_DATASETS_MIPNERF360) and by flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			source := SubtitleStyle.Render("(using defaults)")
			if s.cfgPath != "" {
				source = s.cfgPath
			}
			fmt.Fprintf(out, "%s %s\n\n", CmdStyle.Render("// Config file:"), source)
			fmt.Fprint(out, config.GenerateCUE(s.cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath("")
			if err != nil {
				return &ExitError{Code: types.ExitFailure, Err: err}
			}
			written, err := config.CreateDefaultConfig(path)
			if err != nil {
				return &ExitError{Code: types.ExitFailure, Err: err}
			}
			if !written {
				fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath("")
			if err != nil {
				return &ExitError{Code: types.ExitFailure, Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	return cfgCmd
}
