package framegraph

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Stats describes the current frame.
type Stats struct {
	Frame     uint64
	Passes    int
	Declined  int
	Resources int

	// HeapsCreated and HeapsReused count Compile's heap acquisitions.
	HeapsCreated uint64
	HeapsReused  uint64
	// HeapsRecycled is the number of heaps InitializeForFrame returned to
	// the free list.
	HeapsRecycled int
	// BytesBound is the summed size of all resources bound by Compile.
	BytesBound uint64
	// RequirementQueries counts device memory-requirement queries made by
	// Compile; cached descriptions do not query.
	RequirementQueries uint64

	// Digest identifies the pass and access structure of the frame.
	Digest uint64
	// Lifetimes has one entry per resource, in creation order.
	Lifetimes []ResourceLifetime
}

// Stats returns statistics for the current frame. Heap, requirement and
// lifetime fields are filled in by Compile.
func (g *FrameGraph) Stats() Stats {
	s := g.stats
	s.Passes = len(g.passes)
	s.Declined = g.declined
	s.Resources = g.resources.len()
	s.Lifetimes = slices.Clone(g.stats.Lifetimes)
	return s
}

func (g *FrameGraph) finishStats() {
	hs := g.heaps.Stats()
	rs := g.reqs.Stats()

	g.stats.HeapsCreated = hs.Created - g.heapBase.Created
	g.stats.HeapsReused = hs.Reused - g.heapBase.Reused
	g.stats.RequirementQueries = rs.Misses - g.reqBase.Misses
	g.stats.BytesBound = 0
	for i := range g.resources.resources {
		g.stats.BytesBound += g.resources.resources[i].size
	}
	g.stats.Lifetimes = lifetimes(g.resources.resources)

	g.stats.Digest = g.digest()
	if g.stats.Digest != g.lastDigest {
		g.log().Debug("framegraph: graph structure changed", "frame", g.frame, "digest", g.stats.Digest)
		g.lastDigest = g.stats.Digest
	}
}

// digest hashes pass names, accesses and resource descriptions.
func (g *FrameGraph) digest() uint64 {
	d := xxhash.New()
	var buf []byte
	for _, p := range g.passes {
		buf = buf[:0]
		buf = append(buf, byte(p.id))
		_, _ = d.Write(buf)
		_, _ = d.WriteString(p.name)
		for _, a := range p.accesses {
			buf = buf[:0]
			buf = binary.LittleEndian.AppendUint64(buf, g.resources.resources[a.Resource].fingerprint)
			buf = binary.LittleEndian.AppendUint32(buf, a.Resource)
			buf = append(buf, byte(a.Kind))
			_, _ = d.Write(buf)
		}
	}
	return d.Sum64()
}
