package framegraph

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestResourceHandleZeroValueInvalid(t *testing.T) {
	var h ResourceHandle
	if h.IsValid() {
		t.Error("zero ResourceHandle reports valid")
	}
	if got := h.String(); got != "ResourceHandle(invalid)" {
		t.Errorf("String() = %q", got)
	}
}

func TestResourceTableGenerations(t *testing.T) {
	var tbl resourceTable

	h1 := tbl.addTexture(texDesc("a", 4, 4), 0, 1)
	h2 := tbl.addBuffer(BufferDesc{Size: 64}, 0, 1)
	if h1.gen != 1 || h2.gen != 1 {
		t.Fatalf("first generation = %d, %d, want 1", h1.gen, h2.gen)
	}
	if h1.Kind() != KindTexture || h2.Kind() != KindBuffer {
		t.Errorf("kinds = %s, %s", h1.Kind(), h2.Kind())
	}
	if _, err := tbl.lookup(h1); err != nil {
		t.Fatalf("lookup(h1) = %v", err)
	}

	tbl.reset()
	if _, err := tbl.lookup(h1); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("lookup after reset = %v, want ErrStaleHandle", err)
	}

	h3 := tbl.addTexture(texDesc("b", 4, 4), 0, 2)
	if h3.id != h1.id {
		t.Errorf("slot not reused: id %d, want %d", h3.id, h1.id)
	}
	if h3.gen == h1.gen {
		t.Error("reused slot kept its generation")
	}
	if _, err := tbl.lookup(h1); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("old handle on reused slot = %v, want ErrStaleHandle", err)
	}
	// Slot 1 exists but has not been reissued this frame.
	if _, err := tbl.lookup(h2); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("lookup(h2) = %v, want ErrStaleHandle", err)
	}
}

func TestResourceTableInvalidHandles(t *testing.T) {
	var tbl resourceTable
	tbl.addBuffer(BufferDesc{Size: 1}, 0, 1)

	for _, h := range []ResourceHandle{
		{},
		{id: 7, gen: 1},
	} {
		if _, err := tbl.lookup(h); !errors.Is(err, ErrInvalidHandle) {
			t.Errorf("lookup(%+v) = %v, want ErrInvalidHandle", h, err)
		}
	}
}

func TestResourceTableTruncate(t *testing.T) {
	var tbl resourceTable
	keep := tbl.addTexture(texDesc("keep", 1, 1), 0, 1)
	dropT := tbl.addTexture(texDesc("t", 1, 1), 1, 1)
	dropB := tbl.addBuffer(BufferDesc{Label: "b", Size: 8}, 1, 1)

	tbl.truncate(1)

	if tbl.len() != 1 || len(tbl.textures) != 1 || len(tbl.buffers) != 0 {
		t.Fatalf("after truncate: %d resources, %d textures, %d buffers",
			tbl.len(), len(tbl.textures), len(tbl.buffers))
	}
	if _, err := tbl.lookup(keep); err != nil {
		t.Errorf("kept handle: %v", err)
	}
	for _, h := range []ResourceHandle{dropT, dropB} {
		if _, err := tbl.lookup(h); !errors.Is(err, ErrStaleHandle) {
			t.Errorf("dropped handle %v: %v, want ErrStaleHandle", h, err)
		}
	}
}

func TestResourceDefaultNames(t *testing.T) {
	var tbl resourceTable
	h := tbl.addBuffer(BufferDesc{Size: 8}, 0, 1)
	r, _ := tbl.lookup(h)
	if r.name != "buffer#0" {
		t.Errorf("default name = %q, want buffer#0", r.name)
	}
}

func TestDescriptionFingerprints(t *testing.T) {
	a := TextureDesc{Label: "a", Width: 64, Height: 64}.normalized()
	b := TextureDesc{Label: "b", Width: 64, Height: 64}.normalized()
	c := TextureDesc{Width: 64, Height: 32}.normalized()

	if a.fingerprint() != b.fingerprint() {
		t.Error("labels changed the fingerprint")
	}
	if a.fingerprint() == c.fingerprint() {
		t.Error("different sizes share a fingerprint")
	}

	buf := BufferDesc{Size: 64}
	if buf.fingerprint() == (BufferDesc{Size: 128}).fingerprint() {
		t.Error("different buffer sizes share a fingerprint")
	}
}

func TestTextureDescNormalized(t *testing.T) {
	d := TextureDesc{Width: 8, Height: 8}.normalized()
	if d.DepthOrLayers != 1 || d.MipLevels != 1 || d.SampleCount != 1 {
		t.Errorf("normalized = %+v", d)
	}
	if d.Dimension != gputypes.TextureDimension2D {
		t.Errorf("Dimension = %v, want 2D", d.Dimension)
	}
}
