package wgpu

import (
	"log/slog"
	"time"
)

const (
	// DefaultSubmitTimeout bounds how long BeginFrame waits for the GPU to
	// finish the frame two behind before forcing a full device wait.
	DefaultSubmitTimeout = time.Second

	// DefaultTextureAlignment is the placement alignment reported for
	// textures. It matches the 64 KiB alignment most drivers use for
	// non-MSAA images.
	DefaultTextureAlignment = 64 << 10

	// bufferAlignment is the placement alignment reported for buffers.
	bufferAlignment = 256
)

// Config configures a Device. The zero value is valid.
type Config struct {
	// SubmitTimeout bounds the wait for in-flight work in BeginFrame.
	// Zero uses DefaultSubmitTimeout.
	SubmitTimeout time.Duration

	// TextureAlignment is the alignment texture sizes are rounded up to.
	// Zero uses DefaultTextureAlignment.
	TextureAlignment uint64

	// Logger receives device diagnostics. Nil disables logging.
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = DefaultSubmitTimeout
	}
	if c.TextureAlignment == 0 {
		c.TextureAlignment = DefaultTextureAlignment
	}
	if c.Logger == nil {
		c.Logger = slog.New(nopHandler{})
	}
	return c
}
