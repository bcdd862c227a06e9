// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/speedygs/fulleval/internal/bench"
	"github.com/speedygs/fulleval/pkg/types"

	"github.com/spf13/cobra"
)

const (
	planFormatText = "text"
	planFormatTOML = "toml"
)

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the commands a run would issue",
		Long: `Print the commands a run would issue, in execution order, without
running any of them. Accepts every benchmark flag of the root command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			format, _ := cmd.Flags().GetString("format")
			if format != planFormatText && format != planFormatTOML {
				err := fmt.Errorf("unknown format %q (valid: %s, %s)", format, planFormatText, planFormatTOML)
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+err.Error())
				return &ExitError{Code: types.ExitUsage, Err: err, Printed: true}
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			if err := s.requireDatasets(cmd.ErrOrStderr()); err != nil {
				return err
			}

			plan := bench.BuildPlan(s.cfg, s.stages)
			if format == planFormatTOML {
				if err := plan.WriteTOML(cmd.OutOrStdout()); err != nil {
					return &ExitError{Code: types.ExitFailure, Err: err}
				}
				return nil
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		},
	}
	cmd.Flags().String("format", planFormatText, "output format: text or toml")
	return cmd
}

func printPlan(w io.Writer, plan bench.Plan) {
	sections := []struct {
		title string
		cmds  []bench.Command
	}{
		{"Training", plan.Train},
		{"Rendering", plan.Render},
		{"Metrics", plan.Metrics},
	}
	first := true
	for _, sec := range sections {
		if len(sec.cmds) == 0 {
			continue
		}
		if !first {
			fmt.Fprintln(w)
		}
		first = false
		fmt.Fprintf(w, "%s %s\n", TitleStyle.Render(sec.title), SubtitleStyle.Render(fmt.Sprintf("(%d)", len(sec.cmds))))
		for _, c := range sec.cmds {
			fmt.Fprintln(w, CmdStyle.Render(c.Line()))
		}
	}
	if first {
		fmt.Fprintln(w, SubtitleStyle.Render("(every stage is skipped)"))
	}
}
