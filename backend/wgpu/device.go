package wgpu

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Compile-time interface checks.
var (
	_ framegraph.Device        = (*Device)(nil)
	_ framegraph.FrameObserver = (*Device)(nil)
)

// submission is a command buffer waiting for the GPU.
type submission struct {
	encoder hal.CommandEncoder
	cmds    hal.CommandBuffer
}

// Device drives a HAL device and queue for a frame graph.
//
// Setup-phase methods are called from one goroutine. Submit may be called
// from executor workers and is serialized internally.
type Device struct {
	raw   hal.Device
	queue hal.Queue
	cfg   Config

	logger atomic.Pointer[slog.Logger]

	mu       sync.Mutex
	frame    uint64
	lastSub  [2]uint64 // highest submission index per frame parity
	inflight [2][]submission
	lists    [2][]*CommandList // lists allocated per frame parity
	closed   bool
}

// New wraps a HAL device and queue. The caller keeps ownership of both;
// Close releases only what the Device created.
func New(device hal.Device, queue hal.Queue, cfg Config) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil device or queue", ErrInvalidDescriptor)
	}
	cfg = cfg.withDefaults()
	d := &Device{raw: device, queue: queue, cfg: cfg}
	d.logger.Store(cfg.Logger)
	return d, nil
}

// halProvider is implemented by gpucontext providers backed by gogpu/wgpu.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewFromProvider wraps the HAL device of a gpucontext.DeviceProvider.
// The provider must expose HalDevice and HalQueue, as the gogpu
// application framework does.
func NewFromProvider(p gpucontext.DeviceProvider, cfg Config) (*Device, error) {
	hp, ok := p.(halProvider)
	if !ok {
		return nil, ErrNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice returned %T", ErrNotHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue returned %T", ErrNotHAL, hp.HalQueue())
	}

	d, err := New(device, queue, cfg)
	if err != nil {
		return nil, err
	}
	if info := p.AdapterInfo(); info.Name != "" {
		d.log().Info("wgpu: using provider device",
			"adapter", info.Name,
			"type", info.Type.String(),
			"surfaceFormat", uint32(p.SurfaceFormat()))
	}
	return d, nil
}

// HAL returns the wrapped HAL device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) { return d.raw, d.queue }

// SetLogger replaces the device logger. Nil disables logging.
// FrameGraph.SetLogger forwards its logger here.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	d.logger.Store(l)
}

func (d *Device) log() *slog.Logger { return d.logger.Load() }

// CreateVirtualTexture records the description. The HAL texture is created
// by BindTextureMemory.
func (d *Device) CreateVirtualTexture(desc framegraph.TextureDesc) (framegraph.Texture, error) {
	desc = textureDefaults(desc)
	size, err := textureFootprint(desc)
	if err != nil {
		return nil, err
	}
	return &Texture{
		dev:  d,
		desc: desc,
		req: framegraph.MemoryRequirements{
			Size:      alignUp(size, d.cfg.TextureAlignment),
			Alignment: d.cfg.TextureAlignment,
		},
	}, nil
}

// CreateVirtualBuffer records the description. The HAL buffer is created
// by BindBufferMemory.
func (d *Device) CreateVirtualBuffer(desc framegraph.BufferDesc) (framegraph.Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: buffer %q has size 0", ErrInvalidDescriptor, desc.Label)
	}
	return &Buffer{
		dev:  d,
		desc: desc,
		req: framegraph.MemoryRequirements{
			Size:      alignUp(desc.Size, bufferAlignment),
			Alignment: bufferAlignment,
		},
	}, nil
}

// TextureRequirements reports the aligned footprint of t.
func (d *Device) TextureRequirements(t framegraph.Texture) framegraph.MemoryRequirements {
	return t.(*Texture).req
}

// BufferRequirements reports the aligned size of b.
func (d *Device) BufferRequirements(b framegraph.Buffer) framegraph.MemoryRequirements {
	return b.(*Buffer).req
}

// CreateHeap creates a memory budget of size bytes.
func (d *Device) CreateHeap(size uint64) (framegraph.HeapHandle, error) {
	if size == 0 {
		return nil, fmt.Errorf("%w: heap size 0", ErrInvalidDescriptor)
	}
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	return &Heap{dev: d, size: size}, nil
}

// DestroyHeap releases a heap. Objects bound to it must be destroyed
// first.
func (d *Device) DestroyHeap(framegraph.HeapHandle) {}

// BindTextureMemory creates the HAL texture for t inside heap.
func (d *Device) BindTextureMemory(t framegraph.Texture, heap framegraph.HeapHandle, offset uint64) error {
	tex, ok := t.(*Texture)
	if !ok || tex.dev != d {
		return ErrForeignObject
	}
	h, err := d.heapFor(heap, offset, tex.req.Size)
	if err != nil {
		return fmt.Errorf("bind texture %q: %w", tex.desc.Label, err)
	}
	if tex.raw != nil {
		return fmt.Errorf("bind texture %q: %w", tex.desc.Label, ErrAlreadyBound)
	}

	raw, err := d.raw.CreateTexture(textureDescriptor(tex.desc, tex.Name()))
	if err != nil {
		return fmt.Errorf("bind texture %q: %w", tex.desc.Label, err)
	}
	tex.raw = raw
	tex.heap = h
	return nil
}

// BindBufferMemory creates the HAL buffer for b inside heap.
func (d *Device) BindBufferMemory(b framegraph.Buffer, heap framegraph.HeapHandle, offset uint64) error {
	buf, ok := b.(*Buffer)
	if !ok || buf.dev != d {
		return ErrForeignObject
	}
	h, err := d.heapFor(heap, offset, buf.req.Size)
	if err != nil {
		return fmt.Errorf("bind buffer %q: %w", buf.desc.Label, err)
	}
	if buf.raw != nil {
		return fmt.Errorf("bind buffer %q: %w", buf.desc.Label, ErrAlreadyBound)
	}

	raw, err := d.raw.CreateBuffer(bufferDescriptor(buf.desc, buf.Name()))
	if err != nil {
		return fmt.Errorf("bind buffer %q: %w", buf.desc.Label, err)
	}
	buf.raw = raw
	buf.heap = h
	return nil
}

func (d *Device) heapFor(heap framegraph.HeapHandle, offset, size uint64) (*Heap, error) {
	h, ok := heap.(*Heap)
	if !ok || h.dev != d {
		return nil, ErrForeignObject
	}
	if offset+size > h.size {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, heap has %d",
			ErrHeapTooSmall, size, offset, h.size)
	}
	return h, nil
}

// SetDebugName names a texture or buffer. HAL objects take their label at
// creation, so the name only reaches the driver for objects not yet bound.
func (d *Device) SetDebugName(obj any, name string) {
	switch o := obj.(type) {
	case *Texture:
		o.name = name
	case *Buffer:
		o.name = name
	}
}

// DestroyTexture releases the HAL texture, if one was created.
func (d *Device) DestroyTexture(t framegraph.Texture) {
	tex := t.(*Texture)
	if tex.raw != nil {
		d.raw.DestroyTexture(tex.raw)
		tex.raw = nil
	}
	tex.heap = nil
}

// DestroyBuffer releases the HAL buffer, if one was created.
func (d *Device) DestroyBuffer(b framegraph.Buffer) {
	buf := b.(*Buffer)
	if buf.raw != nil {
		d.raw.DestroyBuffer(buf.raw)
		buf.raw = nil
	}
	buf.heap = nil
}

// NewCommandList allocates a command list for a pass. The HAL encoder is
// created when the list begins.
func (d *Device) NewCommandList(name string) (framegraph.CommandList, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	cl := &CommandList{dev: d, name: name}
	p := d.frame & 1
	d.lists[p] = append(d.lists[p], cl)
	return cl, nil
}

// Submit queues the command buffer recorded by cl.
func (d *Device) Submit(cl framegraph.CommandList) error {
	list, ok := cl.(*CommandList)
	if !ok || list.dev != d {
		return ErrForeignObject
	}
	if list.cmds == nil {
		return fmt.Errorf("wgpu: submit %q: command list not ended", list.name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	index, err := d.queue.Submit([]hal.CommandBuffer{list.cmds})
	if err != nil {
		return fmt.Errorf("wgpu: submit %q: %w", list.name, err)
	}
	p := d.frame & 1
	d.lastSub[p] = max(d.lastSub[p], index)
	d.inflight[p] = append(d.inflight[p], submission{encoder: list.encoder, cmds: list.cmds})
	list.encoder, list.cmds = nil, nil
	return nil
}

// BeginFrame waits for the GPU to finish the frame that last used this
// parity, then releases its command buffers.
func (d *Device) BeginFrame(frame uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.frame = frame
	p := frame & 1
	if len(d.inflight[p]) > 0 {
		d.waitLocked(d.lastSub[p])
	}
	d.releaseLocked(p)
}

// waitLocked polls the queue until index completes or the submit timeout
// expires, then falls back to a full device wait.
func (d *Device) waitLocked(index uint64) {
	if d.queue.PollCompleted() >= index {
		return
	}
	start := time.Now()
	deadline := start.Add(d.cfg.SubmitTimeout)
	for time.Now().Before(deadline) {
		if d.queue.PollCompleted() >= index {
			d.log().Debug("wgpu: waited for frame", "submission", index, "elapsed", time.Since(start))
			return
		}
		time.Sleep(100 * time.Microsecond)
	}
	d.log().Warn("wgpu: submission timed out, waiting for idle",
		"submission", index, "timeout", d.cfg.SubmitTimeout)
	if err := d.raw.WaitIdle(); err != nil {
		d.log().Warn("wgpu: wait idle failed", "err", err)
	}
}

func (d *Device) releaseLocked(p uint64) {
	for _, s := range d.inflight[p] {
		d.raw.FreeCommandBuffer(s.cmds)
		s.encoder.Destroy()
	}
	clear(d.inflight[p])
	d.inflight[p] = d.inflight[p][:0]

	// Lists that were never submitted, such as those after a failed pass.
	for _, cl := range d.lists[p] {
		cl.release(d.raw)
	}
	clear(d.lists[p])
	d.lists[p] = d.lists[p][:0]
}

// Close waits for the GPU and releases pending command buffers. It does
// not destroy the wrapped HAL device. Close is idempotent.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true

	if err := d.raw.WaitIdle(); err != nil {
		d.log().Warn("wgpu: wait idle on close failed", "err", err)
	}
	d.releaseLocked(0)
	d.releaseLocked(1)
	d.log().Info("wgpu: device closed", "frames", d.frame)
}

func textureDefaults(d framegraph.TextureDesc) framegraph.TextureDesc {
	if d.DepthOrLayers == 0 {
		d.DepthOrLayers = 1
	}
	if d.MipLevels == 0 {
		d.MipLevels = 1
	}
	if d.SampleCount == 0 {
		d.SampleCount = 1
	}
	if d.Dimension == gputypes.TextureDimensionUndefined {
		d.Dimension = gputypes.TextureDimension2D
	}
	return d
}
