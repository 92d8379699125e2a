package framegraph

import (
	"errors"
	"fmt"
	"sync"
)

// fakeDevice records every device call. Objects are small structs so
// tests can check identity and binding.
type fakeDevice struct {
	mu sync.Mutex

	nextID    int
	heaps     map[*fakeHeap]bool // live heaps
	textures  map[*fakeTexture]bool
	buffers   map[*fakeBuffer]bool
	submitted []string
	frames    []uint64
	reqCalls  int

	failHeap    error
	failList    error
	failSubmit  error
	failBindFor string
}

type fakeHeap struct {
	id   int
	size uint64
}

type fakeTexture struct {
	id        int
	desc      TextureDesc
	heap      *fakeHeap
	name      string
	boundName string // name when memory was bound
}

type fakeBuffer struct {
	id        int
	desc      BufferDesc
	heap      *fakeHeap
	name      string
	boundName string
}

type fakeCommandList struct {
	name   string
	begun  bool
	ended  bool
	events []string
}

func (c *fakeCommandList) Name() string { return c.name }

func (c *fakeCommandList) Begin() error {
	if c.begun {
		return errors.New("fake: Begin called twice")
	}
	c.begun = true
	return nil
}

func (c *fakeCommandList) End() error {
	if !c.begun || c.ended {
		return errors.New("fake: End out of order")
	}
	c.ended = true
	return nil
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		heaps:    make(map[*fakeHeap]bool),
		textures: make(map[*fakeTexture]bool),
		buffers:  make(map[*fakeBuffer]bool),
	}
}

func (d *fakeDevice) id() int {
	d.nextID++
	return d.nextID
}

func (d *fakeDevice) CreateVirtualTexture(desc TextureDesc) (Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := &fakeTexture{id: d.id(), desc: desc}
	d.textures[t] = true
	return t, nil
}

func (d *fakeDevice) CreateVirtualBuffer(desc BufferDesc) (Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := &fakeBuffer{id: d.id(), desc: desc}
	d.buffers[b] = true
	return b, nil
}

func (d *fakeDevice) TextureRequirements(t Texture) MemoryRequirements {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reqCalls++
	desc := t.(*fakeTexture).desc
	return MemoryRequirements{Size: uint64(desc.Width) * uint64(desc.Height) * 4, Alignment: 256}
}

func (d *fakeDevice) BufferRequirements(b Buffer) MemoryRequirements {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reqCalls++
	return MemoryRequirements{Size: b.(*fakeBuffer).desc.Size, Alignment: 16}
}

func (d *fakeDevice) CreateHeap(size uint64) (HeapHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failHeap != nil {
		return nil, d.failHeap
	}
	h := &fakeHeap{id: d.id(), size: size}
	d.heaps[h] = true
	return h, nil
}

func (d *fakeDevice) DestroyHeap(h HeapHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.heaps, h.(*fakeHeap))
}

func (d *fakeDevice) BindTextureMemory(t Texture, heap HeapHandle, offset uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ft := t.(*fakeTexture)
	if d.failBindFor != "" && ft.desc.Label == d.failBindFor {
		return fmt.Errorf("fake: bind %s refused", ft.desc.Label)
	}
	if offset != 0 {
		return fmt.Errorf("fake: unexpected offset %d", offset)
	}
	ft.heap = heap.(*fakeHeap)
	ft.boundName = ft.name
	return nil
}

func (d *fakeDevice) BindBufferMemory(b Buffer, heap HeapHandle, offset uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if offset != 0 {
		return fmt.Errorf("fake: unexpected offset %d", offset)
	}
	fb := b.(*fakeBuffer)
	fb.heap = heap.(*fakeHeap)
	fb.boundName = fb.name
	return nil
}

func (d *fakeDevice) SetDebugName(obj any, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch o := obj.(type) {
	case *fakeTexture:
		o.name = name
	case *fakeBuffer:
		o.name = name
	}
}

func (d *fakeDevice) DestroyTexture(t Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.textures, t.(*fakeTexture))
}

func (d *fakeDevice) DestroyBuffer(b Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, b.(*fakeBuffer))
}

func (d *fakeDevice) NewCommandList(name string) (CommandList, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failList != nil {
		return nil, d.failList
	}
	return &fakeCommandList{name: name}, nil
}

func (d *fakeDevice) Submit(cl CommandList) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failSubmit != nil {
		return d.failSubmit
	}
	fc := cl.(*fakeCommandList)
	if !fc.ended {
		return fmt.Errorf("fake: submit of open command list %q", fc.name)
	}
	d.submitted = append(d.submitted, fc.name)
	return nil
}

func (d *fakeDevice) BeginFrame(frame uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, frame)
}

func (d *fakeDevice) liveObjects() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures) + len(d.buffers)
}

func (d *fakeDevice) liveHeaps() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.heaps)
}

func (d *fakeDevice) submissions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.submitted))
	copy(out, d.submitted)
	return out
}

// funcStage adapts two closures to Stage.
type funcStage struct {
	name   string
	setup  func(b *PassBuilder) bool
	render func(pc *PassContext)
}

func (s *funcStage) Name() string { return s.name }

func (s *funcStage) Setup(b *PassBuilder) bool {
	if s.setup == nil {
		return true
	}
	return s.setup(b)
}

func (s *funcStage) Render(pc *PassContext) {
	if s.render != nil {
		s.render(pc)
	}
}

// expectViolation runs fn and returns the error it panicked with, or nil.
func expectViolation(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		e, ok := r.(error)
		if !ok {
			panic(r)
		}
		err = e
	}()
	fn()
	return nil
}

func texDesc(label string, w, h uint32) TextureDesc {
	return TextureDesc{Label: label, Width: w, Height: h}
}
