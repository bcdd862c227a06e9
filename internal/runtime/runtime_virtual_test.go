// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestVirtualRuntime_ExitCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want int
	}{
		{"true", 0},
		{"exit 3", 3},
		{"false", 1},
		{"fulleval-missing-program-xyz --flag", 127},
	}
	rt := NewVirtualRuntime()
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			res := rt.Execute(&ExecutionContext{
				Context: context.Background(),
				Line:    tt.line,
				Stdout:  &bytes.Buffer{},
				Stderr:  &bytes.Buffer{},
			})
			if res.Error != nil {
				t.Fatalf("Execute(%q) error: %v", tt.line, res.Error)
			}
			if int(res.ExitCode) != tt.want {
				t.Errorf("Execute(%q) exit = %d, want %d", tt.line, res.ExitCode, tt.want)
			}
		})
	}
}

func TestVirtualRuntime_QuotedArguments(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	res := NewVirtualRuntime().Execute(&ExecutionContext{
		Context:  context.Background(),
		Line:     `echo '/runs/my eval/stump' "$FULLEVAL_TEST_VAR"`,
		Stdout:   &stdout,
		Stderr:   &bytes.Buffer{},
		ExtraEnv: []string{"FULLEVAL_TEST_VAR=x"},
		WorkDir:  t.TempDir(),
	})
	if !res.Success() {
		t.Fatalf("Execute() = %+v", res)
	}
	if got := strings.TrimSpace(stdout.String()); got != "/runs/my eval/stump x" {
		t.Errorf("output = %q", got)
	}
}

func TestVirtualRuntime_ParseError(t *testing.T) {
	t.Parallel()

	res := NewVirtualRuntime().Execute(&ExecutionContext{Line: "echo 'unterminated"})
	if res.Error == nil || res.ExitCode != 1 {
		t.Errorf("Execute() = %+v, want a parse error with exit 1", res)
	}
}

func TestVirtualRuntime_EmptyLine(t *testing.T) {
	t.Parallel()

	if res := NewVirtualRuntime().Execute(&ExecutionContext{}); !errors.Is(res.Error, ErrEmptyCommandLine) {
		t.Errorf("Execute(empty) error = %v, want ErrEmptyCommandLine", res.Error)
	}
}
