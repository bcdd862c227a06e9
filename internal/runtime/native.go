// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/speedygs/fulleval/pkg/types"
)

// ErrShellNotFound is returned when no host shell can be located.
var ErrShellNotFound = errors.New("no shell found")

// NativeRuntime executes command lines with a POSIX host shell, or cmd
// and PowerShell on Windows.
type NativeRuntime struct {
	// Shell overrides the shell lookup.
	Shell string
}

// NewNativeRuntime creates a new native runtime
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

// Name returns the runtime name
func (r *NativeRuntime) Name() string {
	return RuntimeTypeNative.String()
}

// Available returns whether a shell can be found
func (r *NativeRuntime) Available() bool {
	_, err := r.getShell()
	return err == nil
}

// Execute runs the command line with the host shell, waiting for it to exit.
func (r *NativeRuntime) Execute(ctx *ExecutionContext) *Result {
	if strings.TrimSpace(ctx.Line) == "" {
		return NewErrorResult(types.ExitFailure, ErrEmptyCommandLine)
	}
	shell, err := r.getShell()
	if err != nil {
		return NewErrorResult(types.ExitFailure, err)
	}

	args := append(r.getShellArgs(shell), ctx.Line)
	cmd := exec.CommandContext(ctx.context(), shell, args...)
	if ctx.WorkDir != "" {
		cmd.Dir = ctx.WorkDir
	}
	if len(ctx.ExtraEnv) > 0 {
		cmd.Env = append(os.Environ(), ctx.ExtraEnv...)
	}
	cmd.Stdout = ctx.Stdout
	cmd.Stderr = ctx.Stderr
	cmd.Stdin = ctx.Stdin

	return extractExitCode(cmd.Run())
}

// getShell determines which shell to use
func (r *NativeRuntime) getShell() (string, error) {
	if r.Shell != "" {
		return r.Shell, nil
	}

	if goruntime.GOOS == "windows" {
		if pwsh, err := exec.LookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		if cmd, err := exec.LookPath("cmd"); err == nil {
			return cmd, nil
		}
		return "", ErrShellNotFound
	}

	// Lines are quoted for POSIX sh; $SHELL may be fish or csh.
	for _, name := range []string{"sh", "bash"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrShellNotFound
}

// getShellArgs returns the arguments to pass to the shell before the line
func (r *NativeRuntime) getShellArgs(shell string) []string {
	base := strings.TrimSuffix(filepath.Base(shell), ".exe")
	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		return []string{"-c"}
	}
}

// extractExitCode turns the error of exec.Cmd.Run into a Result.
func extractExitCode(err error) *Result {
	if err == nil {
		return NewSuccessResult()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := types.ExitCode(exitErr.ExitCode())
		// Killed by a signal reports -1.
		if validateErr := code.Validate(); validateErr != nil {
			return NewErrorResult(types.ExitFailure, fmt.Errorf("command terminated: %w", err))
		}
		return NewExitCodeResult(code)
	}

	// Some other error (e.g., shell missing, permission denied)
	return NewErrorResult(types.ExitFailure, fmt.Errorf("failed to execute command: %w", err))
}
