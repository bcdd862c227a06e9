// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"testing"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if goruntime.GOOS == "windows" {
		t.Skip("POSIX shell required")
	}
}

func nativeContext(line string) (*ExecutionContext, *bytes.Buffer) {
	var stdout bytes.Buffer
	return &ExecutionContext{
		Context: context.Background(),
		Line:    line,
		Stdout:  &stdout,
		Stderr:  &bytes.Buffer{},
	}, &stdout
}

func TestNativeRuntime_ExitCodes(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	tests := []struct {
		line string
		want int
	}{
		{"true", 0},
		{"exit 3", 3},
		{"false", 1},
		{"sh -c 'exit 42'", 42},
	}
	rt := &NativeRuntime{Shell: "/bin/sh"}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			ctx, _ := nativeContext(tt.line)
			res := rt.Execute(ctx)
			if res.Error != nil {
				t.Fatalf("Execute(%q) error: %v", tt.line, res.Error)
			}
			if int(res.ExitCode) != tt.want {
				t.Errorf("Execute(%q) exit = %d, want %d", tt.line, res.ExitCode, tt.want)
			}
		})
	}
}

func TestNativeRuntime_Output(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	rt := &NativeRuntime{Shell: "/bin/sh"}
	ctx, stdout := nativeContext(`printf '%s|%s\n' "a b" "$FULLEVAL_TEST_VAR"`)
	ctx.ExtraEnv = []string{"FULLEVAL_TEST_VAR=set"}
	ctx.WorkDir = t.TempDir()

	if res := rt.Execute(ctx); !res.Success() {
		t.Fatalf("Execute() = %+v", res)
	}
	if got := strings.TrimSpace(stdout.String()); got != "a b|set" {
		t.Errorf("output = %q, want %q", got, "a b|set")
	}
}

func TestNativeRuntime_SpawnFailure(t *testing.T) {
	t.Parallel()

	rt := &NativeRuntime{Shell: "/nonexistent/shell-for-fulleval-tests"}
	ctx, _ := nativeContext("true")
	res := rt.Execute(ctx)
	if res.Error == nil {
		t.Fatal("Execute() with a missing shell should report an error")
	}
	if res.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", res.ExitCode)
	}
	var exitErr *exec.ExitError
	if errors.As(res.Error, &exitErr) {
		t.Error("spawn failure must not look like a process exit")
	}
}

func TestNativeRuntime_EmptyLine(t *testing.T) {
	t.Parallel()

	ctx, _ := nativeContext("   ")
	if res := NewNativeRuntime().Execute(ctx); !errors.Is(res.Error, ErrEmptyCommandLine) {
		t.Errorf("Execute(blank) error = %v, want ErrEmptyCommandLine", res.Error)
	}
}

func TestNativeRuntime_CanceledContext(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	ctx, _ := nativeContext("sleep 5")
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	ctx.Context = cancelled

	if res := (&NativeRuntime{Shell: "/bin/sh"}).Execute(ctx); res.Success() {
		t.Error("Execute() with a cancelled context should not succeed")
	}
}

func TestNativeRuntime_GetShellArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		shell string
		want  string
	}{
		{"/bin/sh", "-c"},
		{"/bin/bash", "-c"},
		{"cmd.exe", "/C"},
		{"cmd", "/C"},
		{"pwsh", "-Command"},
		{"powershell.exe", "-Command"},
	}
	if goruntime.GOOS == "windows" {
		tests = append(tests, struct {
			shell string
			want  string
		}{`C:\Windows\System32\cmd.exe`, "/C"})
	}

	rt := NewNativeRuntime()
	for _, tt := range tests {
		args := rt.getShellArgs(tt.shell)
		if args[len(args)-1] != tt.want {
			t.Errorf("getShellArgs(%q) = %v, want last %q", tt.shell, args, tt.want)
		}
	}
}

func TestNativeRuntime_GetShellIgnoresLoginShell(t *testing.T) {
	skipOnWindows(t)
	t.Setenv("SHELL", "/usr/bin/fish")

	shell, err := NewNativeRuntime().getShell()
	if err != nil {
		t.Fatalf("getShell() error: %v", err)
	}
	if base := filepath.Base(shell); base != "sh" && base != "bash" {
		t.Errorf("getShell() = %q, want sh (or bash when sh is missing)", shell)
	}
	if strings.Contains(shell, "fish") {
		t.Errorf("getShell() = %q, must not follow $SHELL", shell)
	}
}

func TestNativeRuntime_GetShellOverride(t *testing.T) {
	t.Parallel()

	rt := &NativeRuntime{Shell: "/opt/bin/dash"}
	shell, err := rt.getShell()
	if err != nil || shell != "/opt/bin/dash" {
		t.Errorf("getShell() = %q, %v; want the override", shell, err)
	}
}
