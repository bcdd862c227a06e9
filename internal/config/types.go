// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/speedygs/fulleval/internal/catalog"
	"github.com/speedygs/fulleval/pkg/types"
)

const (
	// RuntimeNative runs command lines through the host shell.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs command lines in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidRuntimeMode is returned when a RuntimeMode value is not recognized.
	ErrInvalidRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidPruneIteration is returned for a non-positive prune iteration.
	ErrInvalidPruneIteration = errors.New("invalid prune iteration")
	// ErrNoPruneIterations is returned when the prune iteration list is empty.
	ErrNoPruneIterations = errors.New("prune.iterations: at least one iteration is required")
	// ErrInvalidEnvEntry is returned for a programs.env entry not of the form KEY=VALUE.
	ErrInvalidEnvEntry = errors.New("invalid environment entry")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RuntimeMode selects how command lines are executed.
	RuntimeMode string

	// InvalidRuntimeModeError is returned when a RuntimeMode value is not recognized.
	InvalidRuntimeModeError struct {
		Value RuntimeMode
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidPruneIterationError is returned for a prune iteration below 1.
	InvalidPruneIterationError struct {
		Index int
		Value int
	}

	// InvalidEnvEntryError is returned for a malformed programs.env entry.
	InvalidEnvEntryError struct {
		Index int
		Value string
	}

	// InvalidConfigError collects every field error found by Config.Validate.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the benchmark configuration.
	Config struct {
		// OutputPath is the root under which one directory per scene is written.
		OutputPath types.FilesystemPath `json:"output_path" mapstructure:"output_path" toml:"output_path"`
		// Runtime selects the command executor.
		Runtime RuntimeMode `json:"runtime" mapstructure:"runtime" toml:"runtime"`
		// Shell overrides the host shell used by the native runtime.
	Shell types.FilesystemPath `json:"shell" mapstructure:"shell" toml:"shell"`
	// Port is forwarded to the trainer for its network viewer.
		Port types.ListenPort `json:"port" mapstructure:"port" toml:"port"`
		// Datasets holds one root per dataset collection.
		Datasets DatasetsConfig `json:"datasets" mapstructure:"datasets" toml:"datasets"`
		// Programs locates the interpreter and the three delegated scripts.
		Programs ProgramsConfig `json:"programs" mapstructure:"programs" toml:"programs"`
		// Tracking configures experiment tracking flags passed to the trainer.
		Tracking TrackingConfig `json:"tracking" mapstructure:"tracking" toml:"tracking"`
		// Prune holds the pruning hyperparameters passed to the trainer.
		Prune PruneConfig `json:"prune" mapstructure:"prune" toml:"prune"`
		// UI configures terminal output.
		UI UIConfig `json:"ui" mapstructure:"ui" toml:"ui"`
	}

	// DatasetsConfig holds the dataset roots.
	DatasetsConfig struct {
		MipNeRF360      types.FilesystemPath `json:"mipnerf360" mapstructure:"mipnerf360" toml:"mipnerf360"`
		TanksAndTemples types.FilesystemPath `json:"tanksandtemples" mapstructure:"tanksandtemples" toml:"tanksandtemples"`
		DeepBlending    types.FilesystemPath `json:"deepblending" mapstructure:"deepblending" toml:"deepblending"`
	}

	// ProgramsConfig locates the delegated programs.
	ProgramsConfig struct {
		// Python is the interpreter used to launch every script.
		Python types.FilesystemPath `json:"python" mapstructure:"python" toml:"python"`
		Train  types.FilesystemPath `json:"train" mapstructure:"train" toml:"train"`
		Render types.FilesystemPath `json:"render" mapstructure:"render" toml:"render"`
		// Metrics is the scorer script.
		Metrics types.FilesystemPath `json:"metrics" mapstructure:"metrics" toml:"metrics"`
		// WorkDir is the directory the programs run in; empty means the current one.
		WorkDir types.FilesystemPath `json:"workdir" mapstructure:"workdir" toml:"workdir"`
		// Env holds extra KEY=VALUE pairs added to the inherited environment.
		Env []string `json:"env" mapstructure:"env" toml:"env"`
	}

	// TrackingConfig configures the trainer's experiment tracking flags.
	TrackingConfig struct {
		Enabled bool   `json:"enabled" mapstructure:"enabled" toml:"enabled"`
		Project string `json:"project" mapstructure:"project" toml:"project"`
		// Name, when set, prefixes every per-scene run name.
		Name string `json:"name" mapstructure:"name" toml:"name"`
	}

	// PruneConfig holds the pruning hyperparameters.
	PruneConfig struct {
		Iterations []int   `json:"iterations" mapstructure:"iterations" toml:"iterations"`
		Percent    float64 `json:"percent" mapstructure:"percent" toml:"percent"`
		Decay      float64 `json:"decay" mapstructure:"decay" toml:"decay"`
		VPow       float64 `json:"v_pow" mapstructure:"v_pow" toml:"v_pow"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		Verbose     bool        `json:"verbose" mapstructure:"verbose" toml:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme" toml:"color_scheme"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputPath: "./eval",
		Runtime:    RuntimeNative,
		Port:       6009,
		Programs: ProgramsConfig{
			Python:  "python",
			Train:   "train.py",
			Render:  "render.py",
			Metrics: "metrics.py",
		},
		Tracking: TrackingConfig{
			Enabled: true,
			Project: "LightGaussian-full",
		},
		Prune: PruneConfig{
			Iterations: []int{20000},
			Percent:    0.6,
			Decay:      0.6,
			VPow:       0.1,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// Root returns the dataset root for a catalog dataset key.
func (d DatasetsConfig) Root(key catalog.DatasetKey) types.FilesystemPath {
	switch key {
	case catalog.DatasetMipNeRF360:
		return d.MipNeRF360
	case catalog.DatasetTanksAndTemples:
		return d.TanksAndTemples
	case catalog.DatasetDeepBlending:
		return d.DeepBlending
	default:
		return ""
	}
}

// MissingRoots returns the dataset keys whose root is unset, in catalog order.
func (d DatasetsConfig) MissingRoots() []catalog.DatasetKey {
	var missing []catalog.DatasetKey
	for _, key := range catalog.DatasetKeys() {
		if d.Root(key).Validate() != nil {
			missing = append(missing, key)
		}
	}
	return missing
}

// Validate returns an error if the RuntimeMode is not recognized.
func (m RuntimeMode) Validate() error {
	switch m {
	case RuntimeNative, RuntimeVirtual:
		return nil
	default:
		return &InvalidRuntimeModeError{Value: m}
	}
}

// String returns the string representation of the RuntimeMode.
func (m RuntimeMode) String() string { return string(m) }

// Error implements the error interface.
func (e *InvalidRuntimeModeError) Error() string {
	return fmt.Sprintf("invalid runtime mode %q (valid: native, virtual)", e.Value)
}

// Unwrap returns ErrInvalidRuntimeMode for errors.Is() compatibility.
func (e *InvalidRuntimeModeError) Unwrap() error { return ErrInvalidRuntimeMode }

// Validate returns an error if the ColorScheme is not recognized.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: c}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Error implements the error interface.
func (e *InvalidPruneIterationError) Error() string {
	return fmt.Sprintf("prune iteration %d at index %d must be positive", e.Value, e.Index)
}

// Unwrap returns ErrInvalidPruneIteration for errors.Is() compatibility.
func (e *InvalidPruneIterationError) Unwrap() error { return ErrInvalidPruneIteration }

// Error implements the error interface.
func (e *InvalidEnvEntryError) Error() string {
	return fmt.Sprintf("programs.env[%d]: %q is not KEY=VALUE", e.Index, e.Value)
}

// Unwrap returns ErrInvalidEnvEntry for errors.Is() compatibility.
func (e *InvalidEnvEntryError) Unwrap() error { return ErrInvalidEnvEntry }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig followed by the field errors, so
// errors.Is matches both the sentinel and any individual field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate checks every field CUE cannot check for values that arrive
// through flags or environment variables. Dataset roots are not checked
// here: they are only required when training or rendering runs.
func (c *Config) Validate() error {
	var errs []error

	if err := c.OutputPath.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("output_path: %w", err))
	}
	if err := c.Runtime.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Port.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	programs := []struct {
		key  string
		path types.FilesystemPath
	}{
		{"programs.python", c.Programs.Python},
		{"programs.train", c.Programs.Train},
		{"programs.render", c.Programs.Render},
		{"programs.metrics", c.Programs.Metrics},
	}
	for _, p := range programs {
		if err := p.path.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.key, err))
		}
	}
	optional := []struct {
		key  string
		path types.FilesystemPath
	}{
		{"shell", c.Shell},
		{"programs.workdir", c.Programs.WorkDir},
	}
	for _, p := range optional {
		if p.path.IsEmpty() {
			continue
		}
		if err := p.path.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.key, err))
		}
	}
	for i, kv := range c.Programs.Env {
		if key, _, ok := strings.Cut(kv, "="); !ok || strings.TrimSpace(key) == "" {
			errs = append(errs, &InvalidEnvEntryError{Index: i, Value: kv})
		}
	}
	if len(c.Prune.Iterations) == 0 {
		errs = append(errs, ErrNoPruneIterations)
	}
	for i, it := range c.Prune.Iterations {
		if it < 1 {
			errs = append(errs, &InvalidPruneIterationError{Index: i, Value: it})
		}
	}

	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}
