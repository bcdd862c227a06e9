// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/speedygs/fulleval/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "fulleval"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. FULLEVAL_PRUNE_PERCENT.
	EnvPrefix = "FULLEVAL"

	maxConfigFileSize = 5 * 1024 * 1024
)

//go:embed config_schema.cue
var configSchema string

// flagKeys maps command-line flag names to config keys. Flags keep the
// underscore names the benchmark scripts have always used.
var flagKeys = map[string]string{
	"output_path":      "output_path",
	"runtime":          "runtime",
	"shell":            "shell",
	"workdir":          "programs.workdir",
	"port":             "port",
	"mipnerf360":       "datasets.mipnerf360",
	"tanksandtemples":  "datasets.tanksandtemples",
	"deepblending":     "datasets.deepblending",
	"use_wandb":        "tracking.enabled",
	"wandb_project":    "tracking.project",
	"wandb_name":       "tracking.name",
	"prune_iterations": "prune.iterations",
	"prune_percent":    "prune.percent",
	"prune_decay":      "prune.decay",
	"v_pow":            "prune.v_pow",
	"verbose":          "ui.verbose",
}

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ConfigDirPath overrides the config directory lookup when set.
	ConfigDirPath string
	// Flags, when set, overrides config values with every changed flag
	// listed in flagKeys.
	Flags *pflag.FlagSet
}

// ConfigDir returns the fulleval configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultConfigPath returns <ConfigDir>/config.cue, honoring a directory override.
func DefaultConfigPath(configDirPath string) (string, error) {
	dir := configDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// Load resolves the configuration and returns it with the path of the file
// it was read from ("" when only defaults, env and flags applied).
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("output_path", defaults.OutputPath)
	v.SetDefault("runtime", defaults.Runtime)
	v.SetDefault("shell", defaults.Shell)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("datasets.mipnerf360", defaults.Datasets.MipNeRF360)
	v.SetDefault("datasets.tanksandtemples", defaults.Datasets.TanksAndTemples)
	v.SetDefault("datasets.deepblending", defaults.Datasets.DeepBlending)
	v.SetDefault("programs.python", defaults.Programs.Python)
	v.SetDefault("programs.train", defaults.Programs.Train)
	v.SetDefault("programs.render", defaults.Programs.Render)
	v.SetDefault("programs.metrics", defaults.Programs.Metrics)
	v.SetDefault("programs.workdir", defaults.Programs.WorkDir)
	v.SetDefault("programs.env", []string{})
	v.SetDefault("tracking.enabled", defaults.Tracking.Enabled)
	v.SetDefault("tracking.project", defaults.Tracking.Project)
	v.SetDefault("tracking.name", defaults.Tracking.Name)
	v.SetDefault("prune.iterations", defaults.Prune.Iterations)
	v.SetDefault("prune.percent", defaults.Prune.Percent)
	v.SetDefault("prune.decay", defaults.Prune.Decay)
	v.SetDefault("prune.v_pow", defaults.Prune.VPow)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)

	// FULLEVAL_PRUNE_ITERATIONS and FULLEVAL_PROGRAMS_ENV take comma separated lists.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range flagKeys {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, "", fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	resolvedPath, err := resolveConfigFile(opts)
	if err != nil {
		return nil, "", err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the schema shown by 'fulleval config show'").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.Programs.Env) == 0 {
		cfg.Programs.Env = nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("Check the command-line flags and FULLEVAL_* environment variables").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// resolveConfigFile picks the config file to read. An explicit path must
// exist; otherwise a missing file simply means "use defaults".
func resolveConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'fulleval config init' to write a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cuePath, err := DefaultConfigPath(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if fileExists(cuePath) {
		return cuePath, nil
	}

	localPath := ConfigFileName + "." + ConfigFileExt
	if fileExists(localPath) {
		return localPath, nil
	}
	return "", nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default config to path unless a file is
// already there. It reports whether a file was written.
func CreateDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// fulleval configuration file\n\n")

	fmt.Fprintf(&sb, "output_path: %q\n", cfg.OutputPath)
	fmt.Fprintf(&sb, "runtime:     %q\n", cfg.Runtime)
	fmt.Fprintf(&sb, "shell:       %q\n", cfg.Shell)
	fmt.Fprintf(&sb, "port:        %d\n", cfg.Port)

	sb.WriteString("\ndatasets: {\n")
	fmt.Fprintf(&sb, "\tmipnerf360:      %q\n", cfg.Datasets.MipNeRF360)
	fmt.Fprintf(&sb, "\ttanksandtemples: %q\n", cfg.Datasets.TanksAndTemples)
	fmt.Fprintf(&sb, "\tdeepblending:    %q\n", cfg.Datasets.DeepBlending)
	sb.WriteString("}\n")

	sb.WriteString("\nprograms: {\n")
	fmt.Fprintf(&sb, "\tpython:  %q\n", cfg.Programs.Python)
	fmt.Fprintf(&sb, "\ttrain:   %q\n", cfg.Programs.Train)
	fmt.Fprintf(&sb, "\trender:  %q\n", cfg.Programs.Render)
	fmt.Fprintf(&sb, "\tmetrics: %q\n", cfg.Programs.Metrics)
	fmt.Fprintf(&sb, "\tworkdir: %q\n", cfg.Programs.WorkDir)
	env := make([]string, len(cfg.Programs.Env))
	for i, kv := range cfg.Programs.Env {
		env[i] = fmt.Sprintf("%q", kv)
	}
	fmt.Fprintf(&sb, "\tenv:     [%s]\n", strings.Join(env, ", "))
	sb.WriteString("}\n")

	sb.WriteString("\ntracking: {\n")
	fmt.Fprintf(&sb, "\tenabled: %v\n", cfg.Tracking.Enabled)
	fmt.Fprintf(&sb, "\tproject: %q\n", cfg.Tracking.Project)
	fmt.Fprintf(&sb, "\tname:    %q\n", cfg.Tracking.Name)
	sb.WriteString("}\n")

	iterations := make([]string, len(cfg.Prune.Iterations))
	for i, it := range cfg.Prune.Iterations {
		iterations[i] = fmt.Sprint(it)
	}
	sb.WriteString("\nprune: {\n")
	fmt.Fprintf(&sb, "\titerations: [%s]\n", strings.Join(iterations, ", "))
	fmt.Fprintf(&sb, "\tpercent:    %v\n", cfg.Prune.Percent)
	fmt.Fprintf(&sb, "\tdecay:      %v\n", cfg.Prune.Decay)
	fmt.Fprintf(&sb, "\tv_pow:      %v\n", cfg.Prune.VPow)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}
