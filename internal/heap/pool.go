// Package heap implements the frame graph's pool of device memory heaps.
//
// Heaps are coarse device allocations that transient resources are bound
// into. A heap handed back with Release is not reusable right away: it is
// parked on the release list for the current frame parity and only returns
// to the free list when BeginFrame is called for a frame of the same parity,
// two frames later. By then the GPU has finished consuming anything bound
// to it.
package heap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// ErrPoolClosed is returned when acquiring from a closed pool.
var ErrPoolClosed = errors.New("heap: pool closed")

// DefaultAlignment leaves requested capacities untouched.
const DefaultAlignment = 1

// Allocator creates and destroys device heaps.
type Allocator interface {
	CreateHeap(size uint64) (any, error)
	DestroyHeap(handle any)
}

// Config holds configuration for creating a Pool.
type Config struct {
	// Alignment rounds the capacity of newly created heaps up to a multiple
	// of itself. Defaults to DefaultAlignment (exact sizing) if zero.
	Alignment uint64

	// Logger receives debug output. Nil disables logging.
	Logger *slog.Logger
}

// Heap is a device memory block owned by a Pool.
type Heap struct {
	id       uint64
	capacity uint64
	handle   any
}

// ID returns the pool-unique identifier of the heap.
func (h *Heap) ID() uint64 { return h.id }

// Capacity returns the heap size in bytes.
func (h *Heap) Capacity() uint64 { return h.capacity }

// Handle returns the device handle created by the Allocator.
func (h *Heap) Handle() any { return h.handle }

// Stats reports pool occupancy.
type Stats struct {
	// Total is the number of heaps the pool owns.
	Total int
	// Free is the number of heaps available to Acquire.
	Free int
	// Pending is the number of released heaps waiting for their frame slot.
	Pending int
	// Created counts heaps created since the pool was made.
	Created uint64
	// Reused counts Acquire calls satisfied from the free list.
	Reused uint64
	// Bytes is the summed capacity of all owned heaps.
	Bytes uint64
}

// Pool hands out heaps with best-fit reuse and frame-delayed release.
//
// Pool is safe for concurrent use, although the frame graph only touches it
// from the setup goroutine.
type Pool struct {
	mu sync.Mutex

	alloc     Allocator
	alignment uint64
	logger    *slog.Logger

	// free is sorted by ascending capacity.
	free []*Heap
	// released holds heaps per frame parity until they can be recycled.
	released [2][]*Heap

	frame  uint64
	nextID uint64
	stats  Stats
	closed bool
}

// New creates a pool that allocates heaps through alloc.
func New(alloc Allocator, cfg Config) *Pool {
	align := cfg.Alignment
	if align == 0 {
		align = DefaultAlignment
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	return &Pool{
		alloc:     alloc,
		alignment: align,
		logger:    logger,
	}
}

// SetLogger replaces the pool logger. Nil disables logging.
func (p *Pool) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(discardHandler{})
	}
	p.mu.Lock()
	p.logger = l
	p.mu.Unlock()
}

// BeginFrame advances the pool to frame and recycles every heap released
// during frame-2. It returns the number of heaps that became free.
func (p *Pool) BeginFrame(frame uint64) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frame = frame
	parity := frame & 1
	recycled := p.released[parity]
	for _, h := range recycled {
		p.insertFreeLocked(h)
	}
	p.released[parity] = recycled[:0]

	if len(recycled) > 0 {
		p.logger.Debug("heap: recycled heaps", "frame", frame, "count", len(recycled))
	}
	return len(recycled)
}

// Acquire returns the first free heap whose capacity is at least
// minCapacity, scanning the free list in ascending capacity order. When no
// heap fits, a new one of exactly minCapacity (rounded to the configured
// alignment) is created.
func (p *Pool) Acquire(minCapacity uint64) (*Heap, error) {
	return p.AcquireAligned(minCapacity, 1)
}

// AcquireAligned is Acquire for a resource with its own placement
// alignment. A new heap is rounded up to the larger of alignment and the
// configured alignment.
func (p *Pool) AcquireAligned(minCapacity, alignment uint64) (*Heap, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	i, _ := slices.BinarySearchFunc(p.free, minCapacity, func(h *Heap, want uint64) int {
		if h.capacity < want {
			return -1
		}
		return 1
	})
	if i < len(p.free) {
		h := p.free[i]
		p.free = slices.Delete(p.free, i, i+1)
		p.stats.Reused++
		p.logger.Debug("heap: reuse", "id", h.id, "capacity", h.capacity, "requested", minCapacity)
		return h, nil
	}

	size := alignUp(minCapacity, max(alignment, p.alignment))
	handle, err := p.alloc.CreateHeap(size)
	if err != nil {
		return nil, fmt.Errorf("heap: create %d bytes: %w", size, err)
	}
	p.nextID++
	h := &Heap{id: p.nextID, capacity: size, handle: handle}
	p.stats.Total++
	p.stats.Created++
	p.stats.Bytes += size
	p.logger.Debug("heap: created", "id", h.id, "capacity", size)
	return h, nil
}

// Release schedules h for reuse two frames after the current one.
func (p *Pool) Release(h *Heap) {
	if h == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	parity := p.frame & 1
	p.released[parity] = append(p.released[parity], h)
}

// Free returns a copy of the free list in acquisition order.
func (p *Pool) Free() []*Heap {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.free)
}

// Stats returns current pool statistics.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Free = len(p.free)
	s.Pending = len(p.released[0]) + len(p.released[1])
	return s
}

// Close destroys every heap the pool owns, whether free or pending.
// The caller must guarantee the GPU no longer uses them.
// Close is safe to call multiple times.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	all := slices.Concat(p.free, p.released[0], p.released[1])
	for _, h := range all {
		p.alloc.DestroyHeap(h.handle)
	}
	p.logger.Debug("heap: pool closed", "destroyed", len(all))

	p.free = nil
	p.released = [2][]*Heap{}
	p.stats.Total = 0
	p.stats.Bytes = 0
}

// insertFreeLocked keeps p.free sorted; equal capacities keep FIFO order.
func (p *Pool) insertFreeLocked(h *Heap) {
	i, _ := slices.BinarySearchFunc(p.free, h.capacity, func(e *Heap, c uint64) int {
		if e.capacity <= c {
			return -1
		}
		return 1
	})
	p.free = slices.Insert(p.free, i, h)
}

func alignUp(v, align uint64) uint64 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
