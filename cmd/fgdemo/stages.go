package main

import (
	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend/wgpu"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const (
	shadowMapSize = 2048
	paramsSize    = 256
)

// frameResources holds the handles the demo stages exchange. It is reset
// at the start of every frame.
type frameResources struct {
	width, height uint32

	shadow framegraph.ResourceHandle
	albedo framegraph.ResourceHandle
	normal framegraph.ResourceHandle
	depth  framegraph.ResourceHandle
	hdr    framegraph.ResourceHandle
	bloom  framegraph.ResourceHandle
	params framegraph.ResourceHandle
	output framegraph.ResourceHandle

	bloomOn bool
}

func (r *frameResources) reset(width, height uint32) {
	*r = frameResources{width: width, height: height}
}

const sampled = gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding

func target(label string, w, h uint32, f gputypes.TextureFormat) framegraph.TextureDesc {
	return framegraph.TextureDesc{Label: label, Width: w, Height: h, Format: f, Usage: sampled}
}

func encoder(pc *framegraph.PassContext) hal.CommandEncoder {
	return pc.Commands().(*wgpu.CommandList).Encoder()
}

func rawTexture(pc *framegraph.PassContext, h framegraph.ResourceHandle) hal.Texture {
	return pc.Texture(h).(*wgpu.Texture).Raw()
}

// toSampled transitions render targets so later passes can sample them.
func toSampled(enc hal.CommandEncoder, textures ...hal.Texture) {
	barriers := make([]hal.TextureBarrier, len(textures))
	for i, t := range textures {
		barriers[i] = hal.TextureBarrier{
			Texture: t,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageTextureBinding,
			},
		}
	}
	enc.TransitionTextures(barriers)
}

type shadowStage struct{ res *frameResources }

func (s *shadowStage) Name() string { return "shadow" }

func (s *shadowStage) Setup(b *framegraph.PassBuilder) bool {
	b.CreateTexture(&s.res.shadow, target("shadow-map", shadowMapSize, shadowMapSize, gputypes.TextureFormatDepth32Float))
	return true
}

func (s *shadowStage) Render(pc *framegraph.PassContext) {
	toSampled(encoder(pc), rawTexture(pc, s.res.shadow))
}

type gbufferStage struct{ res *frameResources }

func (s *gbufferStage) Name() string { return "gbuffer" }

func (s *gbufferStage) Setup(b *framegraph.PassBuilder) bool {
	r := s.res
	b.CreateTexture(&r.albedo, target("albedo", r.width, r.height, gputypes.TextureFormatRGBA8Unorm))
	b.CreateTexture(&r.normal, target("normal", r.width, r.height, gputypes.TextureFormatRGBA16Float))
	b.CreateTexture(&r.depth, target("depth", r.width, r.height, gputypes.TextureFormatDepth24PlusStencil8))
	return true
}

func (s *gbufferStage) Render(pc *framegraph.PassContext) {
	r := s.res
	toSampled(encoder(pc), rawTexture(pc, r.albedo), rawTexture(pc, r.normal), rawTexture(pc, r.depth))
}

type lightingStage struct{ res *frameResources }

func (s *lightingStage) Name() string { return "lighting" }

func (s *lightingStage) Setup(b *framegraph.PassBuilder) bool {
	r := s.res
	b.AddRead(r.albedo)
	b.AddRead(r.normal)
	b.AddRead(r.depth)
	b.AddRead(r.shadow)
	b.CreateTexture(&r.hdr, target("hdr", r.width, r.height, gputypes.TextureFormatRGBA16Float))
	return true
}

func (s *lightingStage) Render(pc *framegraph.PassContext) {
	toSampled(encoder(pc), rawTexture(pc, s.res.hdr))
}

// bloomStage runs on even frames only.
type bloomStage struct{ res *frameResources }

func (s *bloomStage) Name() string { return "bloom" }

func (s *bloomStage) Setup(b *framegraph.PassBuilder) bool {
	if b.Frame()%2 == 1 {
		return false
	}
	r := s.res
	b.AddRead(r.hdr)
	b.CreateTexture(&r.bloom, target("bloom", max(r.width/2, 1), max(r.height/2, 1), gputypes.TextureFormatRG11B10Ufloat))
	r.bloomOn = true
	return true
}

func (s *bloomStage) Render(pc *framegraph.PassContext) {
	toSampled(encoder(pc), rawTexture(pc, s.res.bloom))
}

type postStage struct{ res *frameResources }

func (s *postStage) Name() string { return "post" }

func (s *postStage) Setup(b *framegraph.PassBuilder) bool {
	r := s.res
	b.AddRead(r.hdr)
	if r.bloomOn {
		b.AddRead(r.bloom)
	}
	b.CreateBuffer(&r.params, framegraph.BufferDesc{
		Label: "post-params",
		Size:  paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	b.CreateTexture(&r.output, target("output", r.width, r.height, gputypes.TextureFormatBGRA8Unorm))
	return true
}

func (s *postStage) Render(pc *framegraph.PassContext) {
	enc := encoder(pc)
	params := pc.Buffer(s.res.params).(*wgpu.Buffer)
	enc.ClearBuffer(params.Raw(), 0, params.Desc().Size)
	toSampled(enc, rawTexture(pc, s.res.output))
}

func demoStages(res *frameResources) []framegraph.Stage {
	return []framegraph.Stage{
		&shadowStage{res},
		&gbufferStage{res},
		&lightingStage{res},
		&bloomStage{res},
		&postStage{res},
	}
}
