package framegraph

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/gogpu/gputypes"
)

// TextureDesc describes a transient texture.
//
// Zero DepthOrLayers, MipLevels and SampleCount default to 1, and an
// undefined Dimension defaults to 2D.
type TextureDesc struct {
	// Label is the debug name given to the device object.
	Label string

	Width         uint32
	Height        uint32
	DepthOrLayers uint32
	MipLevels     uint32
	SampleCount   uint32

	Dimension gputypes.TextureDimension
	Format    gputypes.TextureFormat
	Usage     gputypes.TextureUsage
}

// BufferDesc describes a transient buffer.
type BufferDesc struct {
	// Label is the debug name given to the device object.
	Label string

	Size  uint64
	Usage gputypes.BufferUsage
}

func (d TextureDesc) normalized() TextureDesc {
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

// fingerprint hashes the fields that affect memory requirements. Labels
// do not participate.
func (d TextureDesc) fingerprint() uint64 {
	var b [1 + 5*4 + 4 + 4 + 8]byte
	b[0] = byte(KindTexture)
	binary.LittleEndian.PutUint32(b[1:], d.Width)
	binary.LittleEndian.PutUint32(b[5:], d.Height)
	binary.LittleEndian.PutUint32(b[9:], d.DepthOrLayers)
	binary.LittleEndian.PutUint32(b[13:], d.MipLevels)
	binary.LittleEndian.PutUint32(b[17:], d.SampleCount)
	binary.LittleEndian.PutUint32(b[21:], uint32(d.Dimension))
	binary.LittleEndian.PutUint32(b[25:], uint32(d.Format))
	binary.LittleEndian.PutUint64(b[29:], uint64(d.Usage))
	return xxhash.Sum64(b[:])
}

func (d BufferDesc) fingerprint() uint64 {
	var b [1 + 8 + 8]byte
	b[0] = byte(KindBuffer)
	binary.LittleEndian.PutUint64(b[1:], d.Size)
	binary.LittleEndian.PutUint64(b[9:], uint64(d.Usage))
	return xxhash.Sum64(b[:])
}
