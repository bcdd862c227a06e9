// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"

	"github.com/speedygs/fulleval/internal/config"
)

// BuildRegistryOptions configures runtime registry construction.
type BuildRegistryOptions struct {
	// Shell overrides the native runtime's shell lookup.
	Shell string
}

// BuildRegistry creates a registry with the native and virtual runtimes.
func BuildRegistry(opts BuildRegistryOptions) *Registry {
	reg := NewRegistry()
	native := NewNativeRuntime()
	native.Shell = opts.Shell
	reg.Register(RuntimeTypeNative, native)
	reg.Register(RuntimeTypeVirtual, NewVirtualRuntime())
	return reg
}

// ForMode returns the runtime selected by a configured runtime mode.
func (r *Registry) ForMode(mode config.RuntimeMode) (Runtime, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	rt, err := r.Get(RuntimeType(mode))
	if err != nil {
		return nil, err
	}
	if !rt.Available() {
		return nil, fmt.Errorf("%w: %s", ErrRuntimeUnavailable, rt.Name())
	}
	return rt, nil
}
