// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/speedygs/fulleval/internal/catalog"
	"github.com/speedygs/fulleval/internal/issue"
	"github.com/speedygs/fulleval/internal/testutil"

	"github.com/spf13/pflag"
)

// isolate points config discovery at empty temp directories so no real
// user config or ./config.cue leaks into a test. Not parallel-safe.
func isolate(t *testing.T) LoadOptions {
	t.Helper()
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))
	return LoadOptions{ConfigDirPath: t.TempDir()}
}

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("output_path", "./eval", "")
	fs.Float64("prune_percent", 0.6, "")
	fs.IntSlice("prune_iterations", []int{20000}, "")
	fs.Bool("use_wandb", true, "")
	fs.Int("port", 6009, "")
	fs.String("mipnerf360", "", "")
	fs.String("shell", "", "")
	fs.String("workdir", "", "")
	if err := fs.Parse(args); err != nil {
		t.Fatalf("failed to parse flags %v: %v", args, err)
	}
	return fs
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.OutputPath != "./eval" {
		t.Errorf("OutputPath = %q, want ./eval", cfg.OutputPath)
	}
	if cfg.Port != 6009 {
		t.Errorf("Port = %d, want 6009", cfg.Port)
	}
	if !cfg.Tracking.Enabled {
		t.Error("tracking should be enabled by default")
	}
	if cfg.Tracking.Project != "LightGaussian-full" {
		t.Errorf("Tracking.Project = %q", cfg.Tracking.Project)
	}
	if !slices.Equal(cfg.Prune.Iterations, []int{20000}) {
		t.Errorf("Prune.Iterations = %v, want [20000]", cfg.Prune.Iterations)
	}
	if cfg.Prune.Percent != 0.6 || cfg.Prune.Decay != 0.6 || cfg.Prune.VPow != 0.1 {
		t.Errorf("Prune = %+v", cfg.Prune)
	}
	if cfg.Runtime != RuntimeNative {
		t.Errorf("Runtime = %q, want native", cfg.Runtime)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup is Linux specific")
	}

	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg-config")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	opts := isolate(t)

	cfg, path, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, DefaultConfig())
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	opts := isolate(t)
	testutil.MustWriteFile(t, opts.ConfigDirPath, "config.cue", `
output_path: "/scratch/eval"
runtime: "virtual"
datasets: {
	mipnerf360: "/data/360_v2"
	tanksandtemples: "/data/tandt"
}
shell: "/bin/dash"
programs: {
	workdir: "/opt/lightgaussian"
	env: ["CUDA_VISIBLE_DEVICES=1"]
}
tracking: enabled: false
prune: {
	iterations: [16000, 24000]
	percent: 0.5
}
`)

	cfg, path, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != filepath.Join(opts.ConfigDirPath, "config.cue") {
		t.Errorf("resolved path = %q", path)
	}
	if cfg.OutputPath != "/scratch/eval" || cfg.Runtime != RuntimeVirtual {
		t.Errorf("top-level values not loaded: %+v", cfg)
	}
	if cfg.Datasets.Root(catalog.DatasetMipNeRF360) != "/data/360_v2" {
		t.Errorf("mipnerf360 root = %q", cfg.Datasets.MipNeRF360)
	}
	if cfg.Tracking.Enabled {
		t.Error("tracking.enabled: false was not applied")
	}
	if cfg.Shell != "/bin/dash" || cfg.Programs.WorkDir != "/opt/lightgaussian" {
		t.Errorf("shell = %q, workdir = %q", cfg.Shell, cfg.Programs.WorkDir)
	}
	if !slices.Equal(cfg.Programs.Env, []string{"CUDA_VISIBLE_DEVICES=1"}) {
		t.Errorf("Programs.Env = %v", cfg.Programs.Env)
	}
	if !slices.Equal(cfg.Prune.Iterations, []int{16000, 24000}) {
		t.Errorf("Prune.Iterations = %v", cfg.Prune.Iterations)
	}
	if cfg.Prune.Percent != 0.5 {
		t.Errorf("Prune.Percent = %v, want 0.5", cfg.Prune.Percent)
	}
	// Untouched keys keep their defaults.
	if cfg.Prune.Decay != 0.6 || cfg.Port != 6009 {
		t.Errorf("defaults lost: decay=%v port=%d", cfg.Prune.Decay, cfg.Port)
	}
}

func TestLoad_LocalConfigFallback(t *testing.T) {
	opts := isolate(t)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	testutil.MustWriteFile(t, wd, "config.cue", `port: 7007`)

	cfg, path, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != "config.cue" {
		t.Errorf("resolved path = %q, want config.cue", path)
	}
	if cfg.Port != 7007 {
		t.Errorf("Port = %d, want 7007", cfg.Port)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	opts := isolate(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "nope.cue")

	_, _, err := Load(context.Background(), opts)
	if err == nil {
		t.Fatal("Load() should fail for a missing explicit config file")
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error should be *issue.ActionableError, got %T", err)
	}
	if ae.Resource != opts.ConfigFilePath {
		t.Errorf("Resource = %q, want %q", ae.Resource, opts.ConfigFilePath)
	}
}

func TestLoad_SchemaRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"port out of range", `port: 70000`, "port"},
		{"unknown runtime", `runtime: "docker"`, "runtime"},
		{"unknown field", `skip_training: true`, "skip_training"},
		{"non-positive iteration", `prune: iterations: [0]`, "prune.iterations[0]"},
		{"percent above one", `prune: percent: 1.5`, "prune.percent"},
		{"env entry without separator", `programs: env: ["CUDA_VISIBLE_DEVICES"]`, "programs.env"},
		{"syntax error", `port: {`, "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := isolate(t)
			opts.ConfigFilePath = testutil.MustWriteFile(t, t.TempDir(), "config.cue", tt.content)

			_, _, err := Load(context.Background(), opts)
			if err == nil {
				t.Fatalf("Load() should reject %q", tt.content)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	content := `prune: percent: 0.5
output_path: "/from/file"`

	t.Run("file over default", func(t *testing.T) {
		opts := isolate(t)
		opts.ConfigFilePath = testutil.MustWriteFile(t, t.TempDir(), "config.cue", content)
		opts.Flags = newFlagSet(t)

		cfg, _, err := Load(context.Background(), opts)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Prune.Percent != 0.5 {
			t.Errorf("unchanged flag default overrode the file: percent = %v", cfg.Prune.Percent)
		}
		if cfg.OutputPath != "/from/file" {
			t.Errorf("OutputPath = %q", cfg.OutputPath)
		}
	})

	t.Run("env over file", func(t *testing.T) {
		opts := isolate(t)
		opts.ConfigFilePath = testutil.MustWriteFile(t, t.TempDir(), "config.cue", content)
		t.Setenv("FULLEVAL_PRUNE_PERCENT", "0.4")
		t.Setenv("FULLEVAL_PRUNE_ITERATIONS", "10000,20000")
		t.Setenv("FULLEVAL_PROGRAMS_ENV", "A=1,B=2")

		cfg, _, err := Load(context.Background(), opts)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Prune.Percent != 0.4 {
			t.Errorf("percent = %v, want 0.4", cfg.Prune.Percent)
		}
		if !slices.Equal(cfg.Prune.Iterations, []int{10000, 20000}) {
			t.Errorf("iterations = %v", cfg.Prune.Iterations)
		}
		if !slices.Equal(cfg.Programs.Env, []string{"A=1", "B=2"}) {
			t.Errorf("programs.env = %v", cfg.Programs.Env)
		}
	})

	t.Run("flag over env", func(t *testing.T) {
		opts := isolate(t)
		opts.ConfigFilePath = testutil.MustWriteFile(t, t.TempDir(), "config.cue", content)
		t.Setenv("FULLEVAL_PRUNE_PERCENT", "0.4")
		opts.Flags = newFlagSet(t,
			"--prune_percent=0.3",
			"--prune_iterations=5000,15000",
			"--use_wandb=false",
			"--port=7000",
			"--mipnerf360=/flag/m360",
			"--shell=/bin/sh",
			"--workdir=/flag/wd",
		)

		cfg, _, err := Load(context.Background(), opts)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Prune.Percent != 0.3 {
			t.Errorf("percent = %v, want 0.3", cfg.Prune.Percent)
		}
		if !slices.Equal(cfg.Prune.Iterations, []int{5000, 15000}) {
			t.Errorf("iterations = %v", cfg.Prune.Iterations)
		}
		if cfg.Tracking.Enabled {
			t.Error("--use_wandb=false was not applied")
		}
		if cfg.Port != 7000 {
			t.Errorf("port = %d, want 7000", cfg.Port)
		}
		if cfg.Datasets.MipNeRF360 != "/flag/m360" {
			t.Errorf("mipnerf360 = %q", cfg.Datasets.MipNeRF360)
		}
		if cfg.Shell != "/bin/sh" || cfg.Programs.WorkDir != "/flag/wd" {
			t.Errorf("shell = %q, workdir = %q", cfg.Shell, cfg.Programs.WorkDir)
		}
	})
}

func TestLoad_InvalidFlagValue(t *testing.T) {
	opts := isolate(t)
	opts.Flags = newFlagSet(t, "--port=0")

	_, _, err := Load(context.Background(), opts)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestCreateDefaultConfig_RoundTrip(t *testing.T) {
	opts := isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.cue")

	written, err := CreateDefaultConfig(path)
	if err != nil || !written {
		t.Fatalf("CreateDefaultConfig() = %v, %v", written, err)
	}
	written, err = CreateDefaultConfig(path)
	if err != nil || written {
		t.Fatalf("second CreateDefaultConfig() = %v, %v; want no rewrite", written, err)
	}

	opts.ConfigFilePath = path
	cfg, _, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("generated config does not load: %v\n%s", err, GenerateCUE(DefaultConfig()))
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("round trip = %+v, want %+v", cfg, DefaultConfig())
	}
}
