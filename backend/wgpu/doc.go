// Package wgpu implements framegraph.Device on top of the gogpu/wgpu
// hardware abstraction layer.
//
// The HAL has no explicit memory heaps: every texture and buffer owns its
// allocation. This package therefore treats a heap as a memory budget.
// CreateVirtualTexture and CreateVirtualBuffer only record a descriptor,
// and the HAL object is created when it is bound to a heap large enough
// for its requirements. The frame graph's heap pool still decides which
// budgets are reused, so the memory high-water mark follows the graph's
// recycling policy.
//
// # Architecture
//
//	framegraph.FrameGraph
//	    └── wgpu.Device (framegraph.Device, framegraph.FrameObserver)
//	            ├── hal.Device   textures, buffers, command encoders
//	            └── hal.Queue    Submit / PollCompleted
//
// Each pass records into its own hal.CommandEncoder. Submitted command
// buffers are kept per frame parity and released when BeginFrame for the
// frame two ahead finds the queue has completed them.
//
// # Opening a Device
//
// Open picks an adapter from a registered HAL backend:
//
//	import _ "github.com/gogpu/wgpu/hal/vulkan"
//
//	s, err := wgpu.Open(gputypes.BackendVulkan, wgpu.Config{})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	fg := framegraph.New(s.Device)
//
// OpenHeadless uses the noop backend and needs no GPU. Applications that
// already own a device can wrap it with New, or with NewFromProvider when
// they hold a gpucontext.DeviceProvider.
//
// Importing this package also registers the "noop", "vulkan", "metal",
// "dx12" and "gl" backends with package backend, so backend.Open and
// backend.Default return Sessions.
//
// # Recording Commands
//
// Stages reach the HAL encoder through the pass's command list:
//
//	func (s *blur) Render(pc *framegraph.PassContext) {
//	    enc := pc.Commands().(*wgpu.CommandList).Encoder()
//	    src := pc.Texture(s.src).(*wgpu.Texture).Raw()
//	    ...
//	}
package wgpu
