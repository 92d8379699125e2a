package framegraph

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/framegraph/taskgraph"
)

// PassID is the ordinal of a pass within a frame.
type PassID uint8

const (
	// MaxPasses is the number of passes a single frame can register.
	MaxPasses = 255

	// InvalidPassID is returned for declined passes.
	InvalidPassID PassID = 255
)

// Stage is a rendering stage driven by the frame graph.
//
// Setup is called once per frame from AddPass. It declares the resources
// the stage creates and accesses and returns false if the stage is not
// active this frame; a declining stage must not create or access anything.
//
// Render is called once per frame during Execute, only if Setup returned
// true. Render runs on an executor worker, concurrently with the Render
// callbacks of other passes.
type Stage interface {
	Setup(b *PassBuilder) bool
	Render(pc *PassContext)
}

// Named is implemented by stages that provide a pass name.
type Named interface {
	Name() string
}

// PassOption configures a single AddPass call.
type PassOption func(*passOptions)

type passOptions struct {
	name  string
	after []*taskgraph.Task
}

// WithName overrides the pass name used for command lists and tasks.
func WithName(name string) PassOption {
	return func(o *passOptions) {
		o.name = name
	}
}

// After makes both the record and the submit task of the pass wait for t.
// The same task may be given to several passes; it runs once per frame.
func After(t *taskgraph.Task) PassOption {
	return func(o *passOptions) {
		if t != nil {
			o.after = append(o.after, t)
		}
	}
}

type pass struct {
	id       PassID
	name     string
	stage    Stage
	accesses []ResourceAccess
	commands CommandList
	after    []*taskgraph.Task
	ctx      *PassContext
}

func passName(stage Stage, o passOptions, id int) string {
	if o.name != "" {
		return o.name
	}
	if n, ok := stage.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	return fmt.Sprintf("pass%d", id)
}

// PassBuilder declares the resources of a pass. It is only valid inside
// the Setup callback it was passed to.
type PassBuilder struct {
	g      *FrameGraph
	p      *pass
	closed bool
}

// ID returns the id the pass will have if Setup accepts the frame.
func (b *PassBuilder) ID() PassID { return b.p.id }

// Name returns the pass name.
func (b *PassBuilder) Name() string { return b.p.name }

// Frame returns the current frame number.
func (b *PassBuilder) Frame() uint64 { return b.g.frame }

// CreateTexture declares a new transient texture and stores its handle in
// h. The creating pass implicitly writes the texture.
func (b *PassBuilder) CreateTexture(h *ResourceHandle, desc TextureDesc) {
	defer b.enter("CreateTexture")()
	b.checkCreate("CreateTexture", h)
	*h = b.g.resources.addTexture(desc.normalized(), b.p.id, b.g.frame)
	b.p.accesses = append(b.p.accesses, ResourceAccess{Resource: h.id, Kind: AccessWrite})
}

// CreateBuffer declares a new transient buffer and stores its handle in
// h. The creating pass implicitly writes the buffer.
func (b *PassBuilder) CreateBuffer(h *ResourceHandle, desc BufferDesc) {
	defer b.enter("CreateBuffer")()
	b.checkCreate("CreateBuffer", h)
	*h = b.g.resources.addBuffer(desc, b.p.id, b.g.frame)
	b.p.accesses = append(b.p.accesses, ResourceAccess{Resource: h.id, Kind: AccessWrite})
}

// AddRead declares that the pass reads h.
func (b *PassBuilder) AddRead(h ResourceHandle) {
	defer b.enter("AddRead")()
	b.addAccess("AddRead", h, AccessRead)
}

// AddWrite declares that the pass writes h.
func (b *PassBuilder) AddWrite(h ResourceHandle) {
	defer b.enter("AddWrite")()
	b.addAccess("AddWrite", h, AccessWrite)
}

// enter guards a builder call against misuse and concurrent entry. The
// returned func releases the guard.
func (b *PassBuilder) enter(op string) func() {
	if b.closed {
		violate(op, ErrWrongPhase, "pass builder used outside Setup")
	}
	if !b.g.declaring.CompareAndSwap(false, true) {
		violate(op, ErrConcurrentSetup, "")
	}
	return func() { b.g.declaring.Store(false) }
}

func (b *PassBuilder) checkCreate(op string, h *ResourceHandle) {
	if h == nil {
		violate(op, ErrInvalidHandle, "nil handle pointer")
	}
	if b.g.resources.issuedThisFrame(*h) {
		violate(op, ErrAlreadyCreated, "%v", *h)
	}
}

func (b *PassBuilder) addAccess(op string, h ResourceHandle, kind AccessKind) {
	if _, err := b.g.resources.lookup(h); err != nil {
		violate(op, err, "%v", h)
	}
	if i := findAccess(b.p.accesses, h.id); i >= 0 {
		violate(op, ErrDuplicateAccess, "%v already declared as %s by pass %q", h, b.p.accesses[i].Kind, b.p.name)
	}
	b.p.accesses = append(b.p.accesses, ResourceAccess{Resource: h.id, Kind: kind})
}

// PassContext is handed to Stage.Render. It resolves the resources the
// pass declared and exposes the pass's command list. It is only valid for
// the duration of the Render call.
type PassContext struct {
	g      *FrameGraph
	p      *pass
	active atomic.Bool
}

// ID returns the pass id.
func (pc *PassContext) ID() PassID { return pc.p.id }

// Name returns the pass name.
func (pc *PassContext) Name() string { return pc.p.name }

// Commands returns the command list dedicated to this pass.
func (pc *PassContext) Commands() CommandList { return pc.p.commands }

// Texture returns the device texture bound to h.
func (pc *PassContext) Texture(h ResourceHandle) Texture {
	return pc.resolve("Texture", h, KindTexture).texture
}

// Buffer returns the device buffer bound to h.
func (pc *PassContext) Buffer(h ResourceHandle) Buffer {
	return pc.resolve("Buffer", h, KindBuffer).buffer
}

// Access returns the access the pass declared for h.
func (pc *PassContext) Access(h ResourceHandle) AccessKind {
	pc.resolve("Access", h, h.kind)
	return pc.p.accesses[findAccess(pc.p.accesses, h.id)].Kind
}

func (pc *PassContext) resolve(op string, h ResourceHandle, kind ResourceKind) *resource {
	if !pc.active.Load() || pc.g.phase != PhaseExecute {
		violate(op, ErrWrongPhase, "resources resolve only inside Render")
	}
	r, err := pc.g.resources.lookup(h)
	if err != nil {
		violate(op, err, "%v", h)
	}
	if findAccess(pc.p.accesses, h.id) < 0 {
		violate(op, ErrUndeclaredAccess, "pass %q did not declare %v", pc.p.name, h)
	}
	if r.kind != kind {
		violate(op, ErrKindMismatch, "%v is a %s", h, r.kind)
	}
	return r
}
