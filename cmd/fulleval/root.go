// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/speedygs/fulleval/internal/bench"
	"github.com/speedygs/fulleval/internal/config"
	"github.com/speedygs/fulleval/internal/driver"
	"github.com/speedygs/fulleval/internal/issue"
	"github.com/speedygs/fulleval/internal/runtime"
	"github.com/speedygs/fulleval/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// exitInterrupted is returned when a run is stopped by a signal.
const exitInterrupted types.ExitCode = 130

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// ErrDatasetRootMissing is returned when an enabled stage needs a dataset
// root that was not given.
var ErrDatasetRootMissing = errors.New("dataset root required")

// session is what every command needs after flags and config are resolved.
type session struct {
	cfg     *config.Config
	cfgPath string
	stages  bench.Stages
	dryRun  bool
	logger  *slog.Logger
}

// newRootCommand builds the command tree.
func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fulleval",
		Short: "Run the full train, render and metrics benchmark",
		Long: TitleStyle.Render("fulleval") + SubtitleStyle.Render(" - benchmark driver for Gaussian splatting pruning") + `

fulleval trains every scene of the MipNeRF-360, Tanks & Temples and Deep
Blending collections, renders the 7000 and 30000 iteration checkpoints of
each, and scores all outputs with a single metrics run. Commands run one at
a time; a failing command is reported and the run continues.

` + SubtitleStyle.Render("Examples:") + `
  fulleval -m360 /data/360_v2 -tat /data/tandt -db /data/db
  fulleval --skip_training --skip_rendering
  fulleval plan --format toml -m360 /data/360_v2 -tat /data/tandt -db /data/db`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return &ExitError{Code: types.ExitUsage, Err: err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			return runBenchmark(cmd)
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: types.ExitUsage, Err: err}
	})

	registerFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newScenesCommand())
	rootCmd.AddCommand(newConfigCommand())
	return rootCmd
}

func registerFlags(fs *pflag.FlagSet) {
	defaults := config.DefaultConfig()

	fs.String("config", "", "config file (default is <config dir>/fulleval/config.cue, then ./config.cue)")
	fs.BoolP("verbose", "v", false, "enable verbose output")

	fs.Bool("skip_training", false, "skip the training stage")
	fs.Bool("skip_rendering", false, "skip the rendering stage")
	fs.Bool("skip_metrics", false, "skip the metrics stage")
	fs.Bool("dry_run", false, "print every command without running it")

	fs.String("output_path", defaults.OutputPath.String(), "root directory for per-scene outputs")
	fs.String("runtime", defaults.Runtime.String(), "command runtime: native or virtual")
	fs.String("shell", defaults.Shell.String(), "host shell for the native runtime (default sh)")
	fs.String("workdir", defaults.Programs.WorkDir.String(), "directory the delegated programs run in")
	fs.Int("port", int(defaults.Port), "port passed to the trainer")

	fs.String("mipnerf360", "", "MipNeRF-360 dataset root (-m360)")
	fs.String("tanksandtemples", "", "Tanks & Temples dataset root (-tat)")
	fs.String("deepblending", "", "Deep Blending dataset root (-db)")

	fs.Bool("use_wandb", defaults.Tracking.Enabled, "pass experiment tracking flags to the trainer")
	fs.String("wandb_project", defaults.Tracking.Project, "experiment tracking project")
	fs.String("wandb_name", defaults.Tracking.Name, "prefix for per-scene run names")

	fs.IntSlice("prune_iterations", defaults.Prune.Iterations, "iterations at which to prune (space or comma separated)")
	fs.Float64("prune_percent", defaults.Prune.Percent, "fraction of Gaussians pruned")
	fs.Float64("prune_decay", defaults.Prune.Decay, "decay applied to the prune percent")
	fs.Float64("v_pow", defaults.Prune.VPow, "volume importance exponent")
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the resulting status.
// This is called by main.main().
func Execute() {
	rootCmd := newRootCommand()
	rootCmd.SetArgs(normalizeArgs(os.Args[1:]))

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(int(types.ExitFailure))
	}
}

// errorHandler prints err with fang's default handler unless the command
// already wrote it to stderr.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Printed {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// newSession loads the configuration and reads the per-invocation flags.
// Errors are printed to stderr and returned as *ExitError.
func newSession(cmd *cobra.Command) (*session, error) {
	stderr := cmd.ErrOrStderr()
	flags := cmd.Flags()
	cfgFile, _ := flags.GetString("config")

	cfg, cfgPath, err := config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: cfgFile,
		Flags:          flags,
	})
	if err != nil {
		fmt.Fprintln(stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, flagVerbose(flags)))
		renderIssue(stderr, issue.ConfigLoadFailedId, config.ColorSchemeAuto)
		return nil, &ExitError{Code: types.ExitFailure, Err: err, Printed: true}
	}

	logger := newLogger(stderr, cfg.UI.Verbose)
	slog.SetDefault(logger)
	if cfgPath != "" {
		logger.Debug("loaded configuration", "path", cfgPath)
	}

	s := &session{cfg: cfg, cfgPath: cfgPath, logger: logger}
	s.stages.SkipTraining, _ = flags.GetBool("skip_training")
	s.stages.SkipRendering, _ = flags.GetBool("skip_rendering")
	s.stages.SkipMetrics, _ = flags.GetBool("skip_metrics")
	s.dryRun, _ = flags.GetBool("dry_run")
	return s, nil
}

// requireDatasets fails with a usage error when an enabled stage reads a
// dataset root that is unset.
func (s *session) requireDatasets(stderr io.Writer) error {
	if !s.stages.NeedsDatasets() {
		return nil
	}
	missing := s.cfg.Datasets.MissingRoots()
	if len(missing) == 0 {
		return nil
	}

	names := make([]string, len(missing))
	for i, key := range missing {
		names[i] = "--" + string(key)
	}
	err := fmt.Errorf("%w: %s", ErrDatasetRootMissing, strings.Join(names, ", "))
	ae := issue.NewErrorContext().
		WithOperation("plan benchmark").
		WithSuggestion("Pass " + strings.Join(names, ", ") + " or set them under datasets in the config file").
		WithSuggestion("Use --skip_training --skip_rendering to only compute metrics").
		Wrap(err).
		Build()
	fmt.Fprintln(stderr, ErrorStyle.Render("Error: ")+ae.Format(s.cfg.UI.Verbose))
	renderIssue(stderr, issue.DatasetRootMissingId, s.cfg.UI.ColorScheme)
	return &ExitError{Code: types.ExitUsage, Err: err, Printed: true}
}

func runBenchmark(cmd *cobra.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if err := s.requireDatasets(stderr); err != nil {
		return err
	}

	rt, err := s.selectRuntime(stderr)
	if err != nil {
		return err
	}

	d := driver.New(rt,
		driver.WithIO(stdout, stderr, cmd.InOrStdin()),
		driver.WithLogger(s.logger),
		driver.WithStyles(driverStyles()),
	)
	report, runErr := d.Run(cmd.Context(), s.cfg, driver.Options{Stages: s.stages, DryRun: s.dryRun})
	printSummary(stdout, report)

	if runErr != nil {
		return &ExitError{Code: exitInterrupted, Err: runErr, Printed: true}
	}
	if len(report.Failed()) > 0 {
		renderIssue(stderr, issue.CommandFailedId, s.cfg.UI.ColorScheme)
	}
	return nil
}

// selectRuntime resolves the configured runtime, rendering the failure on stderr.
func (s *session) selectRuntime(stderr io.Writer) (runtime.Runtime, error) {
	reg := runtime.BuildRegistry(runtime.BuildRegistryOptions{Shell: s.cfg.Shell.String()})
	rt, err := reg.ForMode(s.cfg.Runtime)
	if err == nil {
		return rt, nil
	}

	ae := issue.WrapWithOperation(err, "select runtime")
	var available []string
	for _, typ := range reg.Available() {
		available = append(available, typ.String())
	}
	if len(available) > 0 {
		ae.Suggestions = append(ae.Suggestions, "Runtimes available on this host: "+strings.Join(available, ", "))
	}
	fmt.Fprintln(stderr, ErrorStyle.Render("Error: ")+ae.Format(s.cfg.UI.Verbose))

	id := issue.InvalidRuntimeId
	if errors.Is(err, runtime.ErrRuntimeUnavailable) && s.cfg.Runtime == config.RuntimeNative {
		id = issue.ShellNotFoundId
	}
	renderIssue(stderr, id, s.cfg.UI.ColorScheme)
	return nil, &ExitError{Code: types.ExitFailure, Err: ae, Printed: true}
}

func printSummary(w io.Writer, report *driver.Report) {
	failed := report.Failed()
	fmt.Fprintln(w)
	switch {
	case report.Interrupted:
		fmt.Fprintf(w, "%s issued %d of %d commands before the run was interrupted\n",
			WarningStyle.Render("!"), len(report.Entries), report.Planned)
	case len(failed) > 0:
		fmt.Fprintf(w, "%s %d of %d commands failed (%s)\n",
			ErrorStyle.Render("✗"), len(failed), len(report.Entries), report.Elapsed.Round(time.Second))
	default:
		fmt.Fprintf(w, "%s %d commands finished (%s)\n",
			SuccessStyle.Render("✓"), len(report.Entries), report.Elapsed.Round(time.Second))
	}
	for _, e := range failed {
		reason := "exit status " + e.ExitCode.String()
		if e.Err != nil {
			reason = e.Err.Error()
		}
		target := e.Command.Scene
		if target == "" {
			target = "all scenes"
		}
		fmt.Fprintf(w, "  %s %s: %s\n", SubtitleStyle.Render(e.Command.Stage.String()), target, reason)
	}
}

func flagVerbose(fs *pflag.FlagSet) bool {
	v, _ := fs.GetBool("verbose")
	return v
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderIssue prints a catalog page to w. Rendering failures are logged
// and otherwise ignored.
func renderIssue(w io.Writer, id issue.Id, scheme config.ColorScheme) {
	page := issue.Get(id)
	if page == nil {
		return
	}
	rendered, err := page.Render(string(scheme))
	if err != nil {
		slog.Debug("failed to render issue", "id", int(id), "error", err)
		return
	}
	fmt.Fprint(w, rendered)
}
