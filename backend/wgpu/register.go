package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/backend"
)

func init() {
	for name, b := range map[string]gputypes.Backend{
		backend.BackendNoop:   gputypes.BackendEmpty,
		backend.BackendVulkan: gputypes.BackendVulkan,
		backend.BackendMetal:  gputypes.BackendMetal,
		backend.BackendDX12:   gputypes.BackendDX12,
		backend.BackendGL:     gputypes.BackendGL,
	} {
		backend.Register(halBackend{name: name, kind: b})
	}
}

// halBackend opens Sessions on one HAL backend. The HAL driver package
// must be linked in for Open to succeed; only noop is imported here.
type halBackend struct {
	name string
	kind gputypes.Backend
}

func (b halBackend) Name() string { return b.name }

func (b halBackend) Open(opts backend.Options) (backend.Device, error) {
	s, err := Open(b.kind, Config{Logger: opts.Logger})
	if errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrNoAdapter) {
		return nil, fmt.Errorf("%w: %w", backend.ErrBackendNotAvailable, err)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
