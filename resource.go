package framegraph

import (
	"fmt"

	"github.com/gogpu/framegraph/internal/heap"
)

// resource is one logical transient allocation within a frame.
type resource struct {
	name        string
	kind        ResourceKind
	desc        int // index into resourceTable.textures or .buffers
	fingerprint uint64
	creator     PassID

	// Bound by Compile.
	texture Texture
	buffer  Buffer
	heap    *heap.Heap
	size    uint64

	// Filled by computeLifetimes.
	first     PassID
	last      PassID
	lastWrite PassID
}

func (r *resource) bound() bool {
	return r.texture != nil || r.buffer != nil
}

// resourceTable is a generation-checked arena of per-frame resources.
//
// Slots persist across frames. reset bumps every slot's generation, so a
// handle issued in an earlier frame no longer matches its slot.
type resourceTable struct {
	gens      []uint32
	resources []resource
	textures  []TextureDesc
	buffers   []BufferDesc
}

// reset empties the table for a new frame.
func (t *resourceTable) reset() {
	for i := range t.gens {
		t.bump(i)
	}
	clear(t.resources)
	t.resources = t.resources[:0]
	t.textures = t.textures[:0]
	t.buffers = t.buffers[:0]
}

func (t *resourceTable) bump(i int) {
	t.gens[i]++
	if t.gens[i] == 0 {
		t.gens[i] = 1
	}
}

// truncate drops every resource from index n on and invalidates their
// handles.
func (t *resourceTable) truncate(n int) {
	for i := len(t.resources) - 1; i >= n; i-- {
		t.bump(i)
		r := t.resources[i]
		switch r.kind {
		case KindTexture:
			t.textures = t.textures[:r.desc]
		case KindBuffer:
			t.buffers = t.buffers[:r.desc]
		}
	}
	if n < len(t.resources) {
		clear(t.resources[n:])
		t.resources = t.resources[:n]
	}
}

func (t *resourceTable) len() int { return len(t.resources) }

func (t *resourceTable) addTexture(desc TextureDesc, creator PassID, frame uint64) ResourceHandle {
	t.textures = append(t.textures, desc)
	return t.add(resource{
		name:        desc.Label,
		kind:        KindTexture,
		desc:        len(t.textures) - 1,
		fingerprint: desc.fingerprint(),
		creator:     creator,
	}, frame)
}

func (t *resourceTable) addBuffer(desc BufferDesc, creator PassID, frame uint64) ResourceHandle {
	t.buffers = append(t.buffers, desc)
	return t.add(resource{
		name:        desc.Label,
		kind:        KindBuffer,
		desc:        len(t.buffers) - 1,
		fingerprint: desc.fingerprint(),
		creator:     creator,
	}, frame)
}

func (t *resourceTable) add(r resource, frame uint64) ResourceHandle {
	id := len(t.resources)
	if id == len(t.gens) {
		t.gens = append(t.gens, 1)
	}
	if r.name == "" {
		r.name = fmt.Sprintf("%s#%d", r.kind, id)
	}
	r.first, r.last, r.lastWrite = InvalidPassID, InvalidPassID, InvalidPassID
	t.resources = append(t.resources, r)
	return ResourceHandle{id: uint32(id), gen: t.gens[id], kind: r.kind, frame: frame}
}

// lookup resolves h, reporting ErrInvalidHandle or ErrStaleHandle.
func (t *resourceTable) lookup(h ResourceHandle) (*resource, error) {
	if h.gen == 0 || int(h.id) >= len(t.gens) {
		return nil, ErrInvalidHandle
	}
	if t.gens[h.id] != h.gen {
		return nil, ErrStaleHandle
	}
	if int(h.id) >= len(t.resources) {
		return nil, ErrInvalidHandle
	}
	return &t.resources[h.id], nil
}

// issuedThisFrame reports whether h currently names a live resource.
func (t *resourceTable) issuedThisFrame(h ResourceHandle) bool {
	_, err := t.lookup(h)
	return err == nil
}

func (t *resourceTable) textureDesc(r *resource) TextureDesc { return t.textures[r.desc] }
func (t *resourceTable) bufferDesc(r *resource) BufferDesc   { return t.buffers[r.desc] }
