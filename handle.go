package framegraph

import "fmt"

// ResourceKind distinguishes textures from buffers.
type ResourceKind uint8

const (
	KindTexture ResourceKind = iota
	KindBuffer
)

func (k ResourceKind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindBuffer:
		return "buffer"
	default:
		return fmt.Sprintf("ResourceKind(%d)", k)
	}
}

// ResourceHandle is a weak reference to a transient resource of one frame.
//
// The zero value is invalid. A handle is filled in by
// PassBuilder.CreateTexture or PassBuilder.CreateBuffer and stays usable
// until the next InitializeForFrame, after which every use is rejected as
// stale.
type ResourceHandle struct {
	id    uint32
	gen   uint32
	kind  ResourceKind
	frame uint64
}

// IsValid reports whether h was ever issued. A valid handle may still be
// stale.
func (h ResourceHandle) IsValid() bool { return h.gen != 0 }

// Kind returns the resource kind.
func (h ResourceHandle) Kind() ResourceKind { return h.kind }

// Frame returns the frame the handle was issued in.
func (h ResourceHandle) Frame() uint64 { return h.frame }

func (h ResourceHandle) String() string {
	if !h.IsValid() {
		return "ResourceHandle(invalid)"
	}
	return fmt.Sprintf("%s#%d@%d", h.kind, h.id, h.frame)
}
