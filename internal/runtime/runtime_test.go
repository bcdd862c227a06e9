// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"slices"
	"testing"

	"github.com/speedygs/fulleval/internal/config"
	"github.com/speedygs/fulleval/pkg/types"
)

type stubRuntime struct {
	name      string
	available bool
	result    *Result
	lines     []string
}

func (s *stubRuntime) Name() string    { return s.name }
func (s *stubRuntime) Available() bool { return s.available }
func (s *stubRuntime) Execute(ctx *ExecutionContext) *Result {
	s.lines = append(s.lines, ctx.Line)
	return s.result
}

func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	stub := &stubRuntime{name: "stub", available: true}
	reg.Register("stub", stub)

	got, err := reg.Get("stub")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != stub {
		t.Errorf("Get() returned a different runtime")
	}

	if _, err := reg.Get("missing"); !errors.Is(err, ErrRuntimeNotRegistered) {
		t.Errorf("Get(missing) error = %v, want ErrRuntimeNotRegistered", err)
	}
}

func TestRegistry_Available(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("b", &stubRuntime{available: true})
	reg.Register("a", &stubRuntime{available: true})
	reg.Register("c", &stubRuntime{})

	if got, want := reg.Available(), []RuntimeType{"a", "b"}; !slices.Equal(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
}

func TestBuildRegistry_ForMode(t *testing.T) {
	t.Parallel()

	reg := BuildRegistry(BuildRegistryOptions{Shell: "/bin/sh"})

	rt, err := reg.ForMode(config.RuntimeVirtual)
	if err != nil {
		t.Fatalf("ForMode(virtual) error: %v", err)
	}
	if rt.Name() != "virtual" {
		t.Errorf("ForMode(virtual).Name() = %q", rt.Name())
	}

	rt, err = reg.ForMode(config.RuntimeNative)
	if err != nil {
		t.Fatalf("ForMode(native) error: %v", err)
	}
	if native, ok := rt.(*NativeRuntime); !ok || native.Shell != "/bin/sh" {
		t.Errorf("ForMode(native) = %#v, want native runtime with shell override", rt)
	}

	if _, err := reg.ForMode("docker"); !errors.Is(err, config.ErrInvalidRuntimeMode) {
		t.Errorf("ForMode(docker) error = %v, want ErrInvalidRuntimeMode", err)
	}
}

func TestResult_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result *Result
		want   bool
	}{
		{"success", NewSuccessResult(), true},
		{"non-zero exit", NewExitCodeResult(1), false},
		{"spawn failure", NewErrorResult(types.ExitFailure, errors.New("boom")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.result.Success(); got != tt.want {
				t.Errorf("Success() = %v, want %v", got, tt.want)
			}
		})
	}
}
