// SPDX-License-Identifier: MPL-2.0

package driver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/speedygs/fulleval/internal/bench"
	"github.com/speedygs/fulleval/internal/catalog"
	"github.com/speedygs/fulleval/internal/config"
	"github.com/speedygs/fulleval/internal/runtime"

	"github.com/charmbracelet/lipgloss"
)

type (
	// Options are the per-invocation switches of a run.
	Options struct {
		bench.Stages
		// DryRun prints every command without executing it.
		DryRun bool
	}

	// Clock measures command durations.
	Clock interface {
		Now() time.Time
		Since(t time.Time) time.Duration
	}

	// Styles renders the per-command header and shell line.
	Styles struct {
		Header lipgloss.Style
		Line   lipgloss.Style
	}

	// Driver executes benchmark plans with one runtime.
	Driver struct {
		runtime runtime.Runtime
		stdout  io.Writer
		stderr  io.Writer
		stdin   io.Reader
		clock   Clock
		logger  *slog.Logger
		styles  Styles
	}

	// Option configures a Driver.
	Option func(*Driver)

	systemClock struct{}
)

func (systemClock) Now() time.Time                  { return time.Now() }
func (systemClock) Since(t time.Time) time.Duration { return time.Since(t) }

// WithIO sets the streams printed to and handed to delegated programs.
func WithIO(stdout, stderr io.Writer, stdin io.Reader) Option {
	return func(d *Driver) {
		d.stdout, d.stderr, d.stdin = stdout, stderr, stdin
	}
}

// WithClock replaces the wall clock used for durations.
func WithClock(c Clock) Option {
	return func(d *Driver) { d.clock = c }
}

// WithLogger sets the logger used for per-command outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithStyles sets the header and command line styles.
func WithStyles(s Styles) Option {
	return func(d *Driver) { d.styles = s }
}

// New creates a Driver that executes through rt.
func New(rt runtime.Runtime, opts ...Option) *Driver {
	d := &Driver{
		runtime: rt,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		stdin:   os.Stdin,
		clock:   systemClock{},
		logger:  slog.Default(),
		styles:  Styles{Header: lipgloss.NewStyle(), Line: lipgloss.NewStyle()},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run builds the plan for cfg and issues its commands in order. The
// returned error is non-nil only when ctx was cancelled; command failures
// are reported through the Report.
func (d *Driver) Run(ctx context.Context, cfg *config.Config, opts Options) (*Report, error) {
	plan := bench.BuildPlan(cfg, opts.Stages)
	report := &Report{Planned: plan.Len()}
	start := d.clock.Now()
	defer func() { report.Elapsed = d.clock.Since(start) }()

	d.logger.Debug("starting benchmark", "commands", plan.Len(), "runtime", d.runtime.Name(), "dry_run", opts.DryRun)

	for _, c := range plan.Commands() {
		if err := ctx.Err(); err != nil {
			report.Interrupted = true
			d.logger.Warn("interrupted, not issuing remaining commands",
				"issued", len(report.Entries), "remaining", plan.Len()-len(report.Entries))
			return report, err
		}
		report.Entries = append(report.Entries, d.issue(ctx, cfg, c, opts.DryRun))
	}
	return report, nil
}

func (d *Driver) issue(ctx context.Context, cfg *config.Config, c bench.Command, dryRun bool) Entry {
	line := c.Line()
	fmt.Fprintln(d.stdout, d.styles.Header.Render(header(c)))
	fmt.Fprintln(d.stdout, d.styles.Line.Render("Command: "+line))

	entry := Entry{Command: c, Line: line, DryRun: dryRun}
	if dryRun {
		return entry
	}

	started := d.clock.Now()
	ec := runtime.NewExecutionContext(ctx, line)
	ec.Stdout, ec.Stderr, ec.Stdin = d.stdout, d.stderr, d.stdin
	ec.WorkDir = cfg.Programs.WorkDir.String()
	ec.ExtraEnv = cfg.Programs.Env
	res := d.runtime.Execute(ec)
	entry.Duration = d.clock.Since(started)
	entry.ExitCode = res.ExitCode
	entry.Err = res.Error

	attrs := []any{"stage", c.Stage, "scene", c.Scene, "exit_code", int(res.ExitCode), "duration", entry.Duration}
	switch {
	case res.Error != nil:
		d.logger.Warn("command could not be run, continuing", append(attrs, "error", res.Error)...)
	case !res.ExitCode.IsSuccess():
		d.logger.Warn("command failed, continuing", attrs...)
	default:
		d.logger.Debug("command finished", attrs...)
	}
	return entry
}

func header(c bench.Command) string {
	switch c.Stage {
	case bench.StageTrain:
		return fmt.Sprintf("Training scene: %s (%s)", c.Scene, c.Collection)
	case bench.StageRender:
		return fmt.Sprintf("Rendering scene: %s at iteration %d", c.Scene, c.Iteration)
	case bench.StageMetrics:
		return fmt.Sprintf("Computing metrics over %d scenes", len(catalog.All()))
	default:
		return string(c.Stage)
	}
}
