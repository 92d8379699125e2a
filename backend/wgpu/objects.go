package wgpu

import (
	"fmt"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Texture is a frame graph texture. Raw returns nil until the texture is
// bound to a heap.
type Texture struct {
	dev  *Device
	desc framegraph.TextureDesc
	req  framegraph.MemoryRequirements
	raw  hal.Texture
	heap *Heap
	name string
}

// Raw returns the HAL texture.
func (t *Texture) Raw() hal.Texture { return t.raw }

// Desc returns the description the texture was created with.
func (t *Texture) Desc() framegraph.TextureDesc { return t.desc }

// Name returns the debug name, or the description label if none was set.
func (t *Texture) Name() string {
	if t.name != "" {
		return t.name
	}
	return t.desc.Label
}

// Buffer is a frame graph buffer. Raw returns nil until the buffer is
// bound to a heap.
type Buffer struct {
	dev  *Device
	desc framegraph.BufferDesc
	req  framegraph.MemoryRequirements
	raw  hal.Buffer
	heap *Heap
	name string
}

// Raw returns the HAL buffer.
func (b *Buffer) Raw() hal.Buffer { return b.raw }

// Desc returns the description the buffer was created with.
func (b *Buffer) Desc() framegraph.BufferDesc { return b.desc }

// Name returns the debug name, or the description label if none was set.
func (b *Buffer) Name() string {
	if b.name != "" {
		return b.name
	}
	return b.desc.Label
}

// Heap is a memory budget objects are bound against.
type Heap struct {
	dev  *Device
	size uint64
}

// Size returns the heap size in bytes.
func (h *Heap) Size() uint64 { return h.size }

// texelBytes returns the bytes per texel of an uncompressed format.
func texelBytes(f gputypes.TextureFormat) (uint64, bool) {
	switch f {
	case gputypes.TextureFormatR8Unorm, gputypes.TextureFormatR8Snorm,
		gputypes.TextureFormatR8Uint, gputypes.TextureFormatR8Sint,
		gputypes.TextureFormatStencil8:
		return 1, true
	case gputypes.TextureFormatR16Unorm, gputypes.TextureFormatR16Snorm,
		gputypes.TextureFormatR16Uint, gputypes.TextureFormatR16Sint,
		gputypes.TextureFormatR16Float, gputypes.TextureFormatRG8Unorm,
		gputypes.TextureFormatRG8Snorm, gputypes.TextureFormatRG8Uint,
		gputypes.TextureFormatRG8Sint, gputypes.TextureFormatDepth16Unorm:
		return 2, true
	case gputypes.TextureFormatR32Float, gputypes.TextureFormatR32Uint,
		gputypes.TextureFormatR32Sint, gputypes.TextureFormatRG16Unorm,
		gputypes.TextureFormatRG16Snorm, gputypes.TextureFormatRG16Uint,
		gputypes.TextureFormatRG16Sint, gputypes.TextureFormatRG16Float,
		gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatRGBA8Snorm, gputypes.TextureFormatRGBA8Uint,
		gputypes.TextureFormatRGBA8Sint, gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatBGRA8UnormSrgb, gputypes.TextureFormatRGB10A2Uint,
		gputypes.TextureFormatRGB10A2Unorm, gputypes.TextureFormatRG11B10Ufloat,
		gputypes.TextureFormatRGB9E5Ufloat, gputypes.TextureFormatDepth24Plus,
		gputypes.TextureFormatDepth24PlusStencil8, gputypes.TextureFormatDepth32Float:
		return 4, true
	case gputypes.TextureFormatRG32Float, gputypes.TextureFormatRG32Uint,
		gputypes.TextureFormatRG32Sint, gputypes.TextureFormatRGBA16Unorm,
		gputypes.TextureFormatRGBA16Snorm, gputypes.TextureFormatRGBA16Uint,
		gputypes.TextureFormatRGBA16Sint, gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatDepth32FloatStencil8:
		return 8, true
	case gputypes.TextureFormatRGBA32Float, gputypes.TextureFormatRGBA32Uint,
		gputypes.TextureFormatRGBA32Sint:
		return 16, true
	}
	return 0, false
}

// textureFootprint returns the bytes a texture needs across all mips,
// layers and samples.
func textureFootprint(d framegraph.TextureDesc) (uint64, error) {
	if d.Width == 0 || d.Height == 0 {
		return 0, fmt.Errorf("%w: texture %q has size %dx%d", ErrInvalidDescriptor, d.Label, d.Width, d.Height)
	}
	bpp, ok := texelBytes(d.Format)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedFormat, d.Format)
	}

	w, h, depth := uint64(d.Width), uint64(d.Height), uint64(d.DepthOrLayers)
	var total uint64
	for range d.MipLevels {
		total += w * h * depth * bpp
		w = max(w/2, 1)
		h = max(h/2, 1)
		if d.Dimension == gputypes.TextureDimension3D {
			depth = max(depth/2, 1)
		}
	}
	return total * uint64(d.SampleCount), nil
}

func alignUp(n, a uint64) uint64 {
	return (n + a - 1) / a * a
}

func textureDescriptor(d framegraph.TextureDesc, label string) *hal.TextureDescriptor {
	return &hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              d.Width,
			Height:             d.Height,
			DepthOrArrayLayers: d.DepthOrLayers,
		},
		MipLevelCount: d.MipLevels,
		SampleCount:   d.SampleCount,
		Dimension:     d.Dimension,
		Format:        d.Format,
		Usage:         d.Usage,
	}
}

func bufferDescriptor(d framegraph.BufferDesc, label string) *hal.BufferDescriptor {
	return &hal.BufferDescriptor{
		Label: label,
		Size:  d.Size,
		Usage: d.Usage,
	}
}
