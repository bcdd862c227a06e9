// SPDX-License-Identifier: MPL-2.0

package bench

import (
	"strconv"

	"github.com/speedygs/fulleval/internal/catalog"
	"github.com/speedygs/fulleval/internal/config"
)

// RenderIterations are the checkpoints rendered for every scene, in order.
var RenderIterations = []int{7000, 30000}

type (
	// Stages selects which pipeline stages run.
	Stages struct {
		SkipTraining  bool
		SkipRendering bool
		SkipMetrics   bool
	}

	// Plan is the ordered command list for one run. A skipped stage has
	// no commands.
	Plan struct {
		Train   []Command
		Render  []Command
		Metrics []Command
	}
)

// NeedsDatasets reports whether any enabled stage reads dataset roots.
func (s Stages) NeedsDatasets() bool {
	return !s.SkipTraining || !s.SkipRendering
}

// BuildPlan builds the commands of every enabled stage.
func BuildPlan(cfg *config.Config, stages Stages) Plan {
	var p Plan
	if !stages.SkipTraining {
		p.Train = TrainCommands(cfg)
	}
	if !stages.SkipRendering {
		p.Render = RenderCommands(cfg)
	}
	if !stages.SkipMetrics {
		p.Metrics = []Command{MetricsCommand(cfg)}
	}
	return p
}

// Commands returns all commands in execution order.
func (p Plan) Commands() []Command {
	all := make([]Command, 0, p.Len())
	all = append(all, p.Train...)
	all = append(all, p.Render...)
	return append(all, p.Metrics...)
}

// Len returns the total number of commands.
func (p Plan) Len() int {
	return len(p.Train) + len(p.Render) + len(p.Metrics)
}

func sourcePath(cfg *config.Config, s catalog.Scene) string {
	return cfg.Datasets.Root(s.Collection.Dataset).Child(s.Name).String()
}

func modelPath(cfg *config.Config, scene string) string {
	return cfg.OutputPath.Child(scene).String()
}

// TrainCommands returns one trainer invocation per scene.
func TrainCommands(cfg *config.Config) []Command {
	scenes := catalog.All()
	cmds := make([]Command, 0, len(scenes))
	for _, s := range scenes {
		argv := []string{cfg.Programs.Python.String(), cfg.Programs.Train.String(), "-s", sourcePath(cfg, s)}
		if s.Collection.ImageDir != "" {
			argv = append(argv, "-i", s.Collection.ImageDir)
		}
		argv = append(argv, "-m", modelPath(cfg, s.Name))
		argv = append(argv, "--quiet", "--eval", "--test_iterations", "-1")
		if cfg.Tracking.Enabled {
			argv = append(argv, "--use_wandb", "--wandb_project", cfg.Tracking.Project)
		}
		argv = append(argv,
			"--prune_percent", formatFloat(cfg.Prune.Percent),
			"--prune_decay", formatFloat(cfg.Prune.Decay),
			"--v_pow", formatFloat(cfg.Prune.VPow),
			"--prune_iterations",
		)
		for _, it := range cfg.Prune.Iterations {
			argv = append(argv, strconv.Itoa(it))
		}
		argv = append(argv, "--port", cfg.Port.String())
		if cfg.Tracking.Enabled {
			argv = append(argv, "--wandb_name", s.RunName(cfg.Tracking.Name))
		}

		cmds = append(cmds, Command{
			Stage:      StageTrain,
			Scene:      s.Name,
			Collection: s.Collection.Name,
			Argv:       argv,
		})
	}
	return cmds
}

// RenderCommands returns, per scene, one renderer invocation for each of
// RenderIterations.
func RenderCommands(cfg *config.Config) []Command {
	scenes := catalog.All()
	cmds := make([]Command, 0, len(scenes)*len(RenderIterations))
	for _, s := range scenes {
		for _, it := range RenderIterations {
			cmds = append(cmds, Command{
				Stage:      StageRender,
				Scene:      s.Name,
				Collection: s.Collection.Name,
				Iteration:  it,
				Argv: []string{
					cfg.Programs.Python.String(), cfg.Programs.Render.String(),
					"--iteration", strconv.Itoa(it),
					"-s", sourcePath(cfg, s),
					"-m", modelPath(cfg, s.Name),
					"--quiet", "--eval", "--skip_train",
				},
			})
		}
	}
	return cmds
}

// MetricsCommand returns the single scorer invocation over every scene's
// output directory.
func MetricsCommand(cfg *config.Config) Command {
	argv := []string{cfg.Programs.Python.String(), cfg.Programs.Metrics.String(), "-m"}
	quoteFrom := len(argv)
	for _, name := range catalog.Names() {
		argv = append(argv, modelPath(cfg, name))
	}
	return Command{Stage: StageMetrics, Argv: argv, dquoteFrom: quoteFrom}
}
