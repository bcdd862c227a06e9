// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/speedygs/fulleval/internal/catalog"
	"github.com/speedygs/fulleval/pkg/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newScenesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scenes [scene...]",
		Short: "List the benchmark scenes in execution order",
		Long: `List the benchmark scenes in execution order, grouped by collection,
with the dataset flag each reads from, the image resolution flag passed to
the trainer and the tracking label. Naming scenes shows only those.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				printScenes(cmd.OutOrStdout())
				return nil
			}

			scenes := make([]catalog.Scene, 0, len(args))
			for _, name := range args {
				s, err := catalog.Lookup(name)
				if err != nil {
					cmd.SilenceUsage = true
					return &ExitError{Code: types.ExitUsage, Err: err}
				}
				scenes = append(scenes, s)
			}
			for _, s := range scenes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n  collection: %s\n  dataset:    --%s\n  image flag: %s\n  run name:   %s\n",
					TitleStyle.Render(s.Name), s.Collection.Name, s.Collection.Dataset,
					imageFlag(s.Collection), s.RunName(""))
			}
			return nil
		},
	}
}

func imageFlag(c *catalog.Collection) string {
	if c.ImageDir == "" {
		return "-"
	}
	return "-i " + c.ImageDir
}

func printScenes(w io.Writer) {
	nameCol := lipgloss.NewStyle().Width(10)
	keyCol := lipgloss.NewStyle().Width(18)
	flagCol := lipgloss.NewStyle().Width(12)

	for i, c := range catalog.Collections() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, TitleStyle.Render(c.Name))
		for _, s := range c.Scenes() {
			fmt.Fprintf(w, "  %s%s%s%s\n",
				nameCol.Render(s),
				keyCol.Render("--"+string(c.Dataset)),
				flagCol.Render(imageFlag(c)),
				SubtitleStyle.Render(c.Label),
			)
		}
	}
}
