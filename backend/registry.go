package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Backend name constants.
const (
	// BackendVulkan opens a Vulkan adapter.
	BackendVulkan = "vulkan"
	// BackendMetal opens a Metal adapter.
	BackendMetal = "metal"
	// BackendDX12 opens a Direct3D 12 adapter.
	BackendDX12 = "dx12"
	// BackendGL opens an OpenGL adapter.
	BackendGL = "gl"
	// BackendNoop opens a device that discards all commands.
	BackendNoop = "noop"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Backend)
	// Priority order for Default (first that opens wins).
	backendPriority = []string{BackendVulkan, BackendMetal, BackendDX12, BackendGL, BackendNoop}
)

// Register registers a backend under its name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[b.Name()] = b
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns a backend by name.
// Returns nil if the backend is not registered.
func Get(name string) Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return backends[name]
}

// Open opens a device on the named backend.
func Open(name string, opts Options) (Device, error) {
	b := Get(name)
	if b == nil {
		return nil, fmt.Errorf("%w: %q not registered", ErrBackendNotAvailable, name)
	}
	return b.Open(opts)
}

// Default opens a device on the best backend that works, trying
// backends in priority order: vulkan > metal > dx12 > gl > noop, then any
// other registered backend by name.
func Default(opts Options) (Device, error) {
	order := slices.Clone(backendPriority)
	for _, name := range Available() {
		if !slices.Contains(order, name) {
			order = append(order, name)
		}
	}

	var errs []error
	for _, name := range order {
		b := Get(name)
		if b == nil {
			continue
		}
		d, err := b.Open(opts)
		if err == nil {
			return d, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}
