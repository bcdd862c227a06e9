// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/speedygs/fulleval/pkg/types"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime executes command lines with the mvdan/sh interpreter.
// Programs named on the line are still spawned as host processes.
type VirtualRuntime struct{}

// NewVirtualRuntime creates a new virtual runtime
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name
func (r *VirtualRuntime) Name() string {
	return RuntimeTypeVirtual.String()
}

// Available always returns true; the interpreter is built in.
func (r *VirtualRuntime) Available() bool {
	return true
}

// Execute parses and runs the command line in a fresh interpreter.
func (r *VirtualRuntime) Execute(ctx *ExecutionContext) *Result {
	if strings.TrimSpace(ctx.Line) == "" {
		return NewErrorResult(types.ExitFailure, ErrEmptyCommandLine)
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(ctx.Line), "command")
	if err != nil {
		return NewErrorResult(types.ExitFailure, fmt.Errorf("failed to parse command line: %w", err))
	}

	env := append(os.Environ(), ctx.ExtraEnv...)
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(ctx.Stdin, ctx.Stdout, ctx.Stderr),
	}
	if ctx.WorkDir != "" {
		opts = append(opts, interp.Dir(ctx.WorkDir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return NewErrorResult(types.ExitFailure, fmt.Errorf("failed to create interpreter: %w", err))
	}

	if err := runner.Run(ctx.context(), prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return NewExitCodeResult(types.ExitCode(exitStatus))
		}
		return NewErrorResult(types.ExitFailure, fmt.Errorf("command execution failed: %w", err))
	}
	return NewSuccessResult()
}
