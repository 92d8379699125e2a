package backend

import (
	"errors"
	"log/slog"

	"github.com/gogpu/framegraph"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or cannot open a device.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Device is a frame graph device opened by a Backend.
type Device interface {
	framegraph.Device

	// Name describes the adapter the device runs on.
	Name() string

	// Close releases the device. Frame graphs using it must be closed
	// first.
	Close()
}

// Options configures Backend.Open.
type Options struct {
	// Logger receives device diagnostics. Nil disables logging.
	Logger *slog.Logger
}

// Backend opens devices of one kind (e.g., "vulkan", "noop").
//
// Backends must be registered via Register() and are selected via
// Open() or Default().
type Backend interface {
	// Name returns the backend identifier.
	Name() string

	// Open creates a device. It returns an error wrapping
	// ErrBackendNotAvailable when the platform lacks the backend.
	Open(opts Options) (Device, error)
}
