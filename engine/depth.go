// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"log/slog"
	"strconv"

	"github.com/gviegas/retained/driver"
)

// Depth is a depth (or depth/stencil) buffer for use as
// a Target attachment. A readable Depth is backed by a
// texture and can be set as a sampler uniform.
type Depth struct {
	handle
	dev      *Device
	format   driver.PixelFmt
	width    int
	height   int
	readable bool

	rb  driver.Renderbuffer
	tex driver.Texture
	// Sampler state last set on tex.
	applied *Sampler
}

// NewDepth creates a new depth buffer.
// format must be one of D16un, D24unS8ui or D32f.
func (d *Device) NewDepth(format driver.PixelFmt, width, height int, readable bool) (*Depth, error) {
	maxSize := d.caps.MaxRenderbuffer
	if readable {
		maxSize = d.caps.MaxTexture
	}
	var reason string
	switch {
	case !format.IsDepth():
		reason = "invalid pixel format " + format.String()
	case format == driver.D32f && !d.caps.FloatDepth:
		reason = "D32f format not supported"
	case readable && !d.caps.DepthTexture:
		reason = "readable depth not supported"
	case !isPow2(width) || !isPow2(height):
		reason = "size is not a power of two (" + strconv.Itoa(width) + "x" + strconv.Itoa(height) + ")"
	case width > maxSize || height > maxSize:
		reason = "size exceeds maximum (" + strconv.Itoa(maxSize) + ")"
	default:
		goto validDepth
	}
	return nil, newConfigError(depthPrefix, reason)
validDepth:
	z := &Depth{
		dev:      d,
		format:   format,
		width:    width,
		height:   height,
		readable: readable,
	}
	if !d.lost {
		z.build()
	}
	d.depths.insert(z)
	Logger().Debug("depth created",
		slog.Int("id", z.id),
		slog.String("format", format.String()),
		slog.Bool("readable", readable))
	return z, nil
}

func (z *Depth) build() {
	gpu := z.dev.gpu
	if z.readable {
		z.tex = gpu.NewTexture()
		z.applied = nil
		gpu.BindTexture(driver.Tex2D, z.tex)
		gpu.TexImage2D(driver.Tex2D, 0, z.format, z.width, z.height, nil)
		return
	}
	z.rb = gpu.NewRenderbuffer()
	gpu.BindRenderbuffer(z.rb)
	gpu.RenderbufferStorage(z.format, z.width, z.height)
}

// Format returns the pixel format of z.
func (z *Depth) Format() driver.PixelFmt { return z.format }

// Size returns the width and height of z.
func (z *Depth) Size() (width, height int) { return z.width, z.height }

// Readable returns whether z can be sampled.
func (z *Depth) Readable() bool { return z.readable }

// attachment returns the attachment point that z uses.
func (z *Depth) attachment() driver.Attachment {
	if z.format.HasStencil() {
		return driver.DepthStencilAttachment
	}
	return driver.DepthAttachment
}

// attach attaches z to the bound framebuffer.
func (z *Depth) attach(gpu driver.GPU) {
	if z.readable {
		gpu.FramebufferTexture2D(z.attachment(), driver.Tex2D, z.tex, 0)
	} else {
		gpu.FramebufferRenderbuffer(z.attachment(), z.rb)
	}
}

func (z *Depth) bindSampled(gpu driver.GPU, unit int, s *Sampler) {
	gpu.ActiveTexture(unit)
	gpu.BindTexture(driver.Tex2D, z.tex)
	x := s.forLevels(1)
	x.apply(gpu, driver.Tex2D, z.applied)
	z.applied = &x
}

func (z *Depth) restore() { z.build() }

func (z *Depth) release() {
	switch {
	case z.tex != 0:
		z.dev.gpu.DeleteTexture(z.tex)
	case z.rb != 0:
		z.dev.gpu.DeleteRenderbuffer(z.rb)
	}
	z.lose()
}

func (z *Depth) lose() {
	z.rb, z.tex = 0, 0
	z.applied = nil
}

// Free invalidates z and releases its GPU object.
// z is detached from every Target that uses it.
func (z *Depth) Free() {
	if z.dev == nil {
		return
	}
	for tg := range z.dev.targets.all() {
		tg.detach(nil, z)
	}
	if !z.dev.lost {
		z.release()
	}
	z.dev.depths.remove(z)
	*z = Depth{handle: handle{slot: -1, id: z.id}}
}
