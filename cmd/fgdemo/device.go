package main

import (
	"log/slog"

	"github.com/gogpu/framegraph/backend"

	// Device backends for -backend.
	_ "github.com/gogpu/framegraph/backend/wgpu"
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// openDevice opens the named backend, or the best available one for
// "auto".
func openDevice(name string, l *slog.Logger) (backend.Device, error) {
	opts := backend.Options{Logger: l}
	if name == "auto" {
		return backend.Default(opts)
	}
	return backend.Open(name, opts)
}
