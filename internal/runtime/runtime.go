// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/speedygs/fulleval/pkg/types"

	"golang.org/x/exp/slices"
)

// Runtime type constants.
const (
	RuntimeTypeNative  RuntimeType = "native"
	RuntimeTypeVirtual RuntimeType = "virtual"
)

var (
	// ErrRuntimeNotRegistered is returned by Registry.Get for unknown names.
	ErrRuntimeNotRegistered = errors.New("runtime not registered")
	// ErrRuntimeUnavailable is returned when a registered runtime cannot run on this host.
	ErrRuntimeUnavailable = errors.New("runtime not available")
	// ErrEmptyCommandLine is returned when there is nothing to execute.
	ErrEmptyCommandLine = errors.New("empty command line")
)

type (
	// ExecutionContext contains everything needed to run one command line.
	ExecutionContext struct {
		// Context cancels the running program.
		Context context.Context
		// Line is the shell command line to execute.
		Line string
		// Stdout is where to write standard output
		Stdout io.Writer
		// Stderr is where to write standard error
		Stderr io.Writer
		// Stdin is where to read standard input
		Stdin io.Reader
		// WorkDir overrides the working directory; empty means the current one.
		WorkDir string
		// ExtraEnv is appended to the inherited environment as KEY=VALUE pairs.
		ExtraEnv []string
	}

	// Result contains the outcome of one execution.
	Result struct {
		// ExitCode is the delegated program's exit status.
		ExitCode types.ExitCode
		// Error is set when the program could not be started or waited on.
		Error error
	}

	// Runtime defines the interface for command execution
	Runtime interface {
		// Name returns the runtime name
		Name() string
		// Available returns whether this runtime can run on the current system
		Available() bool
		// Execute runs a command line in this runtime
		Execute(ctx *ExecutionContext) *Result
	}

	// RuntimeType identifies the type of runtime.
	//
	//nolint:revive // RuntimeType is more descriptive than Type for external callers
	RuntimeType string

	// Registry holds all available runtimes
	Registry struct {
		runtimes map[RuntimeType]Runtime
	}
)

// NewExecutionContext creates an execution context for line wired to the
// process's standard streams.
func NewExecutionContext(ctx context.Context, line string) *ExecutionContext {
	return &ExecutionContext{
		Context: ctx,
		Line:    line,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Stdin:   os.Stdin,
	}
}

func (c *ExecutionContext) context() context.Context {
	if c.Context == nil {
		return context.Background()
	}
	return c.Context
}

// Success returns true if the command started and exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil
}

// String returns the runtime type name.
func (t RuntimeType) String() string { return string(t) }

// NewRegistry creates a new runtime registry
func NewRegistry() *Registry {
	return &Registry{
		runtimes: make(map[RuntimeType]Runtime),
	}
}

// Register adds a runtime to the registry
func (r *Registry) Register(typ RuntimeType, rt Runtime) {
	r.runtimes[typ] = rt
}

// Get returns a runtime by type
func (r *Registry) Get(typ RuntimeType) (Runtime, error) {
	rt, ok := r.runtimes[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRuntimeNotRegistered, typ)
	}
	return rt, nil
}

// Available returns the registered runtimes usable on this host, sorted by name.
func (r *Registry) Available() []RuntimeType {
	var available []RuntimeType
	for typ, rt := range r.runtimes {
		if rt.Available() {
			available = append(available, typ)
		}
	}
	slices.Sort(available)
	return available
}
