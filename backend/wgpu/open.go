package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Register the noop backend for OpenHeadless.
	_ "github.com/gogpu/wgpu/hal/noop"
)

// Session is a Device that owns its HAL instance, adapter and device.
type Session struct {
	*Device

	// Adapter describes the adapter the device was opened on.
	Adapter gputypes.AdapterInfo

	instance hal.Instance
	adapter  hal.Adapter
}

// Open creates a device on the best adapter of a registered HAL backend.
// Discrete GPUs are preferred over integrated ones, and both over any
// other adapter type.
func Open(backend gputypes.Backend, cfg Config) (*Session, error) {
	b, ok := hal.GetBackend(backend)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, backend)
	}
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s instance: %w", backend, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	best := pickAdapter(adapters)
	if best < 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: %s", ErrNoAdapter, backend)
	}
	exposed := adapters[best]

	open, err := exposed.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open %s: %w", exposed.Info.Name, err)
	}

	dev, err := New(open.Device, open.Queue, cfg)
	if err != nil {
		open.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	dev.log().Info("wgpu: device opened",
		"adapter", exposed.Info.Name,
		"type", exposed.Info.DeviceType.String(),
		"backend", exposed.Info.Backend.String(),
		"driver", exposed.Info.Driver)

	return &Session{
		Device:   dev,
		Adapter:  exposed.Info,
		instance: instance,
		adapter:  exposed.Adapter,
	}, nil
}

// OpenHeadless opens a device on the noop backend. Commands are accepted
// and discarded, and every submission completes immediately.
func OpenHeadless(cfg Config) (*Session, error) {
	return Open(gputypes.BackendEmpty, cfg)
}

// pickAdapter returns the index of the preferred adapter, or -1.
func pickAdapter(adapters []hal.ExposedAdapter) int {
	rank := func(t gputypes.DeviceType) int {
		switch t {
		case gputypes.DeviceTypeDiscreteGPU:
			return 3
		case gputypes.DeviceTypeIntegratedGPU:
			return 2
		case gputypes.DeviceTypeVirtualGPU:
			return 1
		}
		return 0
	}
	best := -1
	for i, a := range adapters {
		if best < 0 || rank(a.Info.DeviceType) > rank(adapters[best].Info.DeviceType) {
			best = i
		}
	}
	return best
}

// Close closes the device and destroys the HAL device, adapter and
// instance. Close is idempotent.
func (s *Session) Close() {
	if s.instance == nil {
		return
	}
	s.Device.Close()
	s.raw.Destroy()
	s.adapter.Destroy()
	s.instance.Destroy()
	s.instance = nil
}

// Name returns the adapter name.
func (s *Session) Name() string { return s.Adapter.Name }
