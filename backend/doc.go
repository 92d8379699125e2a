// Package backend selects a frame graph device implementation by name.
//
// Device packages register a Backend from their init() functions. The
// wgpu package registers one backend per HAL API:
//
//	import (
//	    "github.com/gogpu/framegraph/backend"
//	    _ "github.com/gogpu/framegraph/backend/wgpu"
//	    _ "github.com/gogpu/wgpu/hal/vulkan" // HAL driver
//	)
//
// # Backend Selection
//
// Use Open to request a backend by name, or Default to take the first
// backend that opens, in priority order:
//
//	dev, err := backend.Default(backend.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//	fg := framegraph.New(dev)
//
// Available lists the registered names. A registered backend can still
// fail to open, for example when its HAL driver is not linked in or no
// adapter is present.
package backend
