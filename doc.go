// Package framegraph provides a per-frame render graph for GPU work.
//
// # Overview
//
// Rendering stages declare the transient textures and buffers they
// create, read and write each frame. The frame graph derives resource
// lifetimes from those declarations, backs every resource with memory
// from a pool of recycled device heaps, and records the stages' commands
// in parallel while keeping GPU submission in declaration order.
//
// # Quick Start
//
//	fg := framegraph.New(device, framegraph.WithWorkers(4))
//	defer fg.Close()
//
//	for running {
//	    fg.InitializeForFrame()
//	    fg.AddPass(gbuffer)
//	    fg.AddPass(lighting)
//	    if err := fg.Compile(); err != nil {
//	        return err
//	    }
//	    if err := fg.Execute(ctx); err != nil {
//	        return err
//	    }
//	}
//
// A stage implements Stage:
//
//	type lighting struct{ albedo, hdr framegraph.ResourceHandle }
//
//	func (s *lighting) Setup(b *framegraph.PassBuilder) bool {
//	    b.AddRead(s.albedo)
//	    b.CreateTexture(&s.hdr, framegraph.TextureDesc{Label: "hdr", ...})
//	    return true
//	}
//
//	func (s *lighting) Render(pc *framegraph.PassContext) {
//	    albedo := pc.Texture(s.albedo)
//	    ...
//	}
//
// # Phases
//
// Each frame has two phases. In the setup phase, started by
// InitializeForFrame, passes are added and declare resources. Compile
// binds memory and switches to the execute phase, in which Execute runs
// the Render callbacks and PassContext resolves handles to device
// objects. Calling an operation in the wrong phase is a contract
// violation.
//
// # Contract Violations
//
// Misuse of the API, such as reading an undeclared resource or using a
// handle from an earlier frame, panics with a *ContractError. Device
// failures are returned as errors.
//
// # Memory
//
// Each resource gets its own heap at offset 0. Heaps are reused across
// frames with best-fit selection, but a heap used in frame F is only
// reused from frame F+2 on, when the GPU is done with it. Stats reports
// resource lifetimes for tooling that wants to alias memory within a
// frame.
package framegraph
