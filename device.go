package framegraph

// Texture is a device texture object. Its concrete type is defined by
// the Device implementation.
type Texture any

// Buffer is a device buffer object. Its concrete type is defined by the
// Device implementation.
type Buffer any

// HeapHandle is a device memory heap.
type HeapHandle any

// MemoryRequirements is the memory a virtual object needs once bound.
type MemoryRequirements struct {
	Size      uint64
	Alignment uint64
}

// CommandList is a command-recording context dedicated to one pass.
// Begin is called right before the stage's Render callback and End right
// after it; the closed list is then handed to Device.Submit.
type CommandList interface {
	Name() string
	Begin() error
	End() error
}

// Device is the graphics device layer the frame graph drives.
//
// Create*, *Requirements, CreateHeap, Bind*, SetDebugName and
// NewCommandList are called only from the setup goroutine. Submit is
// called in pass order, one call at a time, from executor workers.
type Device interface {
	// CreateVirtualTexture creates a texture with no memory bound.
	CreateVirtualTexture(desc TextureDesc) (Texture, error)
	// CreateVirtualBuffer creates a buffer with no memory bound.
	CreateVirtualBuffer(desc BufferDesc) (Buffer, error)

	TextureRequirements(t Texture) MemoryRequirements
	BufferRequirements(b Buffer) MemoryRequirements

	CreateHeap(size uint64) (HeapHandle, error)
	DestroyHeap(h HeapHandle)

	// BindTextureMemory backs t with heap memory starting at offset.
	BindTextureMemory(t Texture, heap HeapHandle, offset uint64) error
	// BindBufferMemory backs b with heap memory starting at offset.
	BindBufferMemory(b Buffer, heap HeapHandle, offset uint64) error

	SetDebugName(obj any, name string)

	DestroyTexture(t Texture)
	DestroyBuffer(b Buffer)

	// NewCommandList allocates a command list for a pass.
	NewCommandList(name string) (CommandList, error)
	// Submit queues a closed command list for execution on the GPU.
	Submit(cl CommandList) error
}

// FrameObserver is implemented by devices that want to know when a new
// frame begins. BeginFrame is called from InitializeForFrame before any
// memory from two frames ago is recycled.
type FrameObserver interface {
	BeginFrame(frame uint64)
}

// heapAllocator adapts a Device to heap.Allocator.
type heapAllocator struct {
	dev Device
}

func (a heapAllocator) CreateHeap(size uint64) (any, error) { return a.dev.CreateHeap(size) }
func (a heapAllocator) DestroyHeap(h any)                   { a.dev.DestroyHeap(h) }
