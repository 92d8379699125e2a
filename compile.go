package framegraph

import (
	"fmt"
)

// Compile closes the setup phase of the current frame.
//
// It builds the frame's task graph, computes the lifetime of every
// resource, and binds each resource to its own heap from the pool at
// offset 0. After Compile the frame is in PhaseExecute and no further
// passes or declarations are accepted.
//
// A device failure is returned as an error and leaves the frame in
// PhaseSetup; objects bound before the failure are recycled with the
// frame.
func (g *FrameGraph) Compile() error {
	defer g.enterSetup("Compile")()
	if g.phase != PhaseSetup {
		violate("Compile", ErrWrongPhase, "phase is %s", g.phase)
	}

	tasks, err := g.buildTasks()
	if err != nil {
		return err
	}
	computeLifetimes(g.passes, g.resources.resources)
	if err := g.bindResources(); err != nil {
		return err
	}

	g.tasks = tasks
	g.finishStats()
	g.phase = PhaseExecute

	g.log().Debug("framegraph: compiled",
		"frame", g.frame,
		"passes", len(g.passes),
		"declined", g.declined,
		"resources", g.resources.len(),
		"bytes", g.stats.BytesBound,
		"heapsCreated", g.stats.HeapsCreated,
		"heapsReused", g.stats.HeapsReused)
	return nil
}

func (g *FrameGraph) bindResources() error {
	for i := range g.resources.resources {
		r := &g.resources.resources[i]
		if r.bound() {
			continue
		}
		if err := g.bind(r); err != nil {
			return fmt.Errorf("framegraph: bind %s %q: %w", r.kind, r.name, err)
		}
	}
	return nil
}

// bind creates the virtual object of r and backs it with a heap.
func (g *FrameGraph) bind(r *resource) error {
	var (
		obj any
		req MemoryRequirements
	)
	switch r.kind {
	case KindTexture:
		t, err := g.device.CreateVirtualTexture(g.resources.textureDesc(r))
		if err != nil {
			return err
		}
		obj = t
		req = g.reqs.GetOrQuery(r.fingerprint, func() MemoryRequirements {
			return g.device.TextureRequirements(t)
		})
	case KindBuffer:
		b, err := g.device.CreateVirtualBuffer(g.resources.bufferDesc(r))
		if err != nil {
			return err
		}
		obj = b
		req = g.reqs.GetOrQuery(r.fingerprint, func() MemoryRequirements {
			return g.device.BufferRequirements(b)
		})
	}

	// Devices that create the real object at bind time label it there.
	g.device.SetDebugName(obj, r.name)

	h, err := g.heaps.AcquireAligned(req.Size, req.Alignment)
	if err != nil {
		g.destroyObject(r.kind, obj)
		return err
	}
	if r.kind == KindTexture {
		err = g.device.BindTextureMemory(obj, h.Handle(), 0)
	} else {
		err = g.device.BindBufferMemory(obj, h.Handle(), 0)
	}
	// The heap is in use this frame from here on, bound or not.
	g.heaps.Release(h)
	if err != nil {
		g.destroyObject(r.kind, obj)
		return err
	}

	if r.kind == KindTexture {
		r.texture = obj
	} else {
		r.buffer = obj
	}
	r.heap = h
	r.size = req.Size
	parity := g.frame & 1
	g.retired[parity] = append(g.retired[parity], retiredObject{kind: r.kind, obj: obj})
	return nil
}
