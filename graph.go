package framegraph

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/framegraph/internal/heap"
	"github.com/gogpu/framegraph/internal/reqcache"
	"github.com/gogpu/framegraph/taskgraph"
)

// Phase is the state of the current frame.
type Phase uint8

const (
	// PhaseIdle is the state before the first InitializeForFrame and after Close.
	PhaseIdle Phase = iota
	// PhaseSetup accepts AddPass and resource declarations.
	PhaseSetup
	// PhaseExecute follows Compile; passes may be executed and resources resolved.
	PhaseExecute
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSetup:
		return "setup"
	case PhaseExecute:
		return "execute"
	default:
		return fmt.Sprintf("Phase(%d)", p)
	}
}

// FrameGraph schedules the passes of one frame at a time.
//
// Every frame follows the same sequence on a single goroutine:
//
//	fg.InitializeForFrame()
//	fg.AddPass(shadow)
//	fg.AddPass(lighting)
//	if err := fg.Compile(); err != nil { ... }
//	if err := fg.Execute(ctx); err != nil { ... }
//
// Setup calls (InitializeForFrame, AddPass, the PassBuilder methods,
// Compile, Execute, Close) are not safe for concurrent use; a concurrent
// call is detected and reported as ErrConcurrentSetup. Render callbacks
// run concurrently on the executor.
type FrameGraph struct {
	device Device
	logger atomic.Pointer[slog.Logger]

	executor     taskgraph.Executor
	ownsExecutor *taskgraph.PoolExecutor

	heaps *heap.Pool
	reqs  *reqcache.Cache[MemoryRequirements]

	frame    uint64
	phase    Phase
	executed bool
	closed   bool

	resources resourceTable
	passes    []*pass
	declined  int
	tasks     *taskgraph.Graph

	// retired holds objects bound in frames of each parity until their
	// heaps are recycled.
	retired [2][]retiredObject

	stats      Stats
	heapBase   heap.Stats
	reqBase    reqcache.Stats
	lastDigest uint64

	setup     atomic.Bool
	declaring atomic.Bool
}

type retiredObject struct {
	kind ResourceKind
	obj  any
}

// New creates a frame graph that allocates through device. The graph is
// idle until the first InitializeForFrame.
func New(device Device, opts ...Option) *FrameGraph {
	if device == nil {
		panic("framegraph: New called with nil device")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}

	g := &FrameGraph{
		device: device,
		reqs:   reqcache.New[MemoryRequirements](o.reqCacheSize),
	}
	g.logger.Store(o.logger)
	g.heaps = heap.New(heapAllocator{dev: device}, heap.Config{
		Alignment: o.heapAlignment,
		Logger:    o.logger,
	})
	propagateLogger(device, o.logger)

	if o.executor != nil {
		g.executor = o.executor
	} else {
		g.ownsExecutor = taskgraph.NewPoolExecutor(o.workers)
		g.executor = g.ownsExecutor
	}

	o.logger.Info("framegraph: created", "executor", fmt.Sprintf("%T", g.executor))
	return g
}

func (g *FrameGraph) log() *slog.Logger { return g.logger.Load() }

// SetLogger replaces the logger of g and of its heap pool and device.
// Nil disables logging.
func (g *FrameGraph) SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	g.logger.Store(l)
	g.heaps.SetLogger(l)
	propagateLogger(g.device, l)
}

// enterSetup marks the start of a setup-goroutine call. The returned func
// marks its end.
func (g *FrameGraph) enterSetup(op string) func() {
	if !g.setup.CompareAndSwap(false, true) {
		violate(op, ErrConcurrentSetup, "")
	}
	return func() { g.setup.Store(false) }
}

// Frame returns the current frame number. The first frame is 1.
func (g *FrameGraph) Frame() uint64 { return g.frame }

// Phase returns the phase of the current frame.
func (g *FrameGraph) Phase() Phase { return g.phase }

// InitializeForFrame starts a new frame. It discards the passes and
// resources of the previous frame, so every handle issued so far becomes
// stale. Heaps and objects used two frames ago are recycled.
func (g *FrameGraph) InitializeForFrame() {
	defer g.enterSetup("InitializeForFrame")()
	if g.closed {
		violate("InitializeForFrame", ErrWrongPhase, "frame graph is closed")
	}

	switch {
	case g.phase == PhaseSetup && len(g.passes) > 0:
		g.log().Debug("framegraph: frame dropped before compile", "frame", g.frame, "passes", len(g.passes))
	case g.phase == PhaseExecute && !g.executed:
		g.log().Debug("framegraph: frame compiled but not executed", "frame", g.frame)
	}

	g.frame++
	if obs, ok := g.device.(FrameObserver); ok {
		obs.BeginFrame(g.frame)
	}
	destroyed := g.destroyRetired(g.frame & 1)
	recycled := g.heaps.BeginFrame(g.frame)

	g.resources.reset()
	clear(g.passes)
	g.passes = g.passes[:0]
	g.declined = 0
	g.tasks = nil
	g.executed = false

	g.heapBase = g.heaps.Stats()
	g.reqBase = g.reqs.Stats()
	g.stats = Stats{Frame: g.frame, HeapsRecycled: recycled}
	g.phase = PhaseSetup

	if destroyed > 0 || recycled > 0 {
		g.log().Debug("framegraph: recycled", "frame", g.frame, "objects", destroyed, "heaps", recycled)
	}
}

// AddPass registers stage for the current frame and calls its Setup.
//
// If Setup returns false, the pass is discarded and InvalidPassID is
// returned with a nil error. A device failure allocating the pass's
// command list is returned as an error.
func (g *FrameGraph) AddPass(stage Stage, opts ...PassOption) (PassID, error) {
	defer g.enterSetup("AddPass")()
	if g.phase != PhaseSetup {
		violate("AddPass", ErrWrongPhase, "phase is %s", g.phase)
	}
	if stage == nil {
		violate("AddPass", ErrNilStage, "")
	}
	if len(g.passes) >= MaxPasses {
		violate("AddPass", ErrTooManyPasses, "limit is %d", MaxPasses)
	}

	var o passOptions
	for _, opt := range opts {
		opt(&o)
	}
	id := len(g.passes)
	p := &pass{
		id:    PassID(id),
		name:  passName(stage, o, id),
		stage: stage,
		after: o.after,
	}

	mark := g.resources.len()
	if !g.runSetup(&PassBuilder{g: g, p: p}, mark) {
		if created := g.resources.len() - mark; created > 0 || len(p.accesses) > 0 {
			g.resources.truncate(mark)
			violate("AddPass", ErrDeclinedWithSideEffects,
				"pass %q created %d resources and declared %d accesses", p.name, created, len(p.accesses))
		}
		g.declined++
		g.log().Debug("framegraph: pass declined", "frame", g.frame, "pass", p.name)
		return InvalidPassID, nil
	}

	cl, err := g.device.NewCommandList(p.name)
	if err != nil {
		g.resources.truncate(mark)
		return InvalidPassID, fmt.Errorf("framegraph: command list for pass %q: %w", p.name, err)
	}
	p.commands = cl
	p.ctx = &PassContext{g: g, p: p}
	g.passes = append(g.passes, p)
	return p.id, nil
}

// runSetup calls the stage's Setup and closes the builder afterwards. If
// Setup panics, resources it created are dropped.
func (g *FrameGraph) runSetup(b *PassBuilder, mark int) bool {
	ok := false
	defer func() {
		b.closed = true
		if !ok {
			g.resources.truncate(mark)
		}
	}()
	active := b.p.stage.Setup(b)
	ok = true
	return active
}

// PassCount returns the number of active passes in the current frame.
func (g *FrameGraph) PassCount() int { return len(g.passes) }

// PassName returns the name of pass id in the current frame.
func (g *FrameGraph) PassName(id PassID) (string, bool) {
	if int(id) >= len(g.passes) {
		return "", false
	}
	return g.passes[id].name, true
}

// Close destroys every object and heap still owned by the graph and stops
// the default executor. The caller must ensure the GPU is idle.
// Close is safe to call multiple times.
func (g *FrameGraph) Close() {
	defer g.enterSetup("Close")()
	if g.closed {
		return
	}
	g.closed = true
	g.phase = PhaseIdle

	destroyed := g.destroyRetired(0) + g.destroyRetired(1)
	hs := g.heaps.Stats()
	g.heaps.Close()
	if g.ownsExecutor != nil {
		g.ownsExecutor.Close()
	}
	g.reqs.Clear()

	g.log().Info("framegraph: closed", "frames", g.frame, "objects", destroyed, "heaps", hs.Total)
}

// destroyRetired destroys the objects bound in frames of parity.
func (g *FrameGraph) destroyRetired(parity uint64) int {
	list := g.retired[parity]
	for _, r := range list {
		g.destroyObject(r.kind, r.obj)
	}
	clear(list)
	g.retired[parity] = list[:0]
	return len(list)
}

func (g *FrameGraph) destroyObject(kind ResourceKind, obj any) {
	switch kind {
	case KindTexture:
		g.device.DestroyTexture(obj)
	case KindBuffer:
		g.device.DestroyBuffer(obj)
	}
}
