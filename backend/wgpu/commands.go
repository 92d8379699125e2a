package wgpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// CommandList records one pass into its own HAL command encoder.
type CommandList struct {
	dev     *Device
	name    string
	encoder hal.CommandEncoder
	cmds    hal.CommandBuffer
	open    bool
}

// Name returns the pass name the list was created for.
func (c *CommandList) Name() string { return c.name }

// Encoder returns the HAL encoder. It is valid between Begin and End,
// that is, inside the pass's Render callback.
func (c *CommandList) Encoder() hal.CommandEncoder {
	if !c.open {
		return nil
	}
	return c.encoder
}

// release frees whatever the list still owns. Lists handed to
// Device.Submit own nothing.
func (c *CommandList) release(dev hal.Device) {
	if c.cmds != nil {
		dev.FreeCommandBuffer(c.cmds)
		c.cmds = nil
	}
	if c.encoder != nil {
		if c.open {
			c.encoder.DiscardEncoding()
			c.open = false
		}
		c.encoder.Destroy()
		c.encoder = nil
	}
}

// Begin creates the encoder and starts recording.
func (c *CommandList) Begin() error {
	if c.open || c.cmds != nil {
		return fmt.Errorf("wgpu: command list %q already begun", c.name)
	}
	enc, err := c.dev.raw.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: c.name})
	if err != nil {
		return fmt.Errorf("wgpu: create encoder %q: %w", c.name, err)
	}
	if err := enc.BeginEncoding(c.name); err != nil {
		enc.Destroy()
		return fmt.Errorf("wgpu: begin encoding %q: %w", c.name, err)
	}
	c.encoder = enc
	c.open = true
	return nil
}

// End finishes recording. The resulting command buffer is handed to the
// queue by Device.Submit.
func (c *CommandList) End() error {
	if !c.open {
		return fmt.Errorf("wgpu: command list %q not begun", c.name)
	}
	c.open = false
	cmds, err := c.encoder.EndEncoding()
	if err != nil {
		c.encoder.DiscardEncoding()
		c.encoder.Destroy()
		c.encoder = nil
		return fmt.Errorf("wgpu: end encoding %q: %w", c.name, err)
	}
	c.cmds = cmds
	return nil
}
