// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"log/slog"
	"strconv"

	"github.com/gviegas/retained/driver"
)

// Target is an off-screen render target made of color
// textures and an optional depth buffer, all of the
// same size.
type Target struct {
	handle
	dev    *Device
	width  int
	height int
	color  []*Texture
	depth  *Depth
	fb     driver.Framebuffer
}

// NewTarget creates a new render target.
// Elements of color may be nil. If width and height are
// zero, the size is taken from the first attachment.
// At least one attachment is required.
func (d *Device) NewTarget(color []*Texture, depth *Depth, width, height int) (*Target, error) {
	if width == 0 && height == 0 {
		for _, c := range color {
			if c != nil {
				width, height = c.param.Width, c.param.Height
				break
			}
		}
		if width == 0 && depth != nil {
			width, height = depth.width, depth.height
		}
	}
	t := &Target{dev: d, width: width, height: height}
	var reason string
	switch {
	case width <= 0 || height <= 0:
		reason = "no size and no attachments"
	case len(color) > d.caps.MaxColorTargets:
		reason = "too many color attachments (" + strconv.Itoa(len(color)) + ")"
	default:
		goto validSize
	}
	return nil, newConfigError(targetPrefix, reason)
validSize:
	has := depth != nil
	for i, c := range color {
		if c == nil {
			continue
		}
		if err := t.checkColor(i, c); err != nil {
			return nil, err
		}
		has = true
	}
	if depth != nil {
		if err := t.checkDepth(depth); err != nil {
			return nil, err
		}
	}
	if !has {
		return nil, newConfigError(targetPrefix, "no attachments")
	}
	t.color = append([]*Texture(nil), color...)
	t.depth = depth
	if !d.lost {
		if err := t.build(); err != nil {
			d.gpu.DeleteFramebuffer(t.fb)
			return nil, newConfigError(targetPrefix, err.Error())
		}
	}
	d.targets.insert(t)
	Logger().Debug("target created",
		slog.Int("id", t.id),
		slog.Int("width", width),
		slog.Int("height", height))
	return t, nil
}

func (t *Target) checkColor(i int, c *Texture) error {
	caps := &t.dev.caps
	var reason string
	switch {
	case i < 0 || i >= caps.MaxColorTargets:
		reason = "color index out of range (" + strconv.Itoa(i) + ")"
	case c.dev == nil:
		reason = "freed color texture"
	case c.IsCube():
		reason = "cube texture as color attachment"
	case c.param.PixelFmt.IsFloat() && !caps.FloatRender:
		reason = "format " + c.param.PixelFmt.String() + " is not renderable"
	case c.param.Width != t.width || c.param.Height != t.height:
		reason = "color attachment size mismatch"
	default:
		return nil
	}
	return newConfigError(targetPrefix, reason)
}

func (t *Target) checkDepth(z *Depth) error {
	var reason string
	switch {
	case z.dev == nil:
		reason = "freed depth"
	case z.width != t.width || z.height != t.height:
		reason = "depth attachment size mismatch"
	default:
		return nil
	}
	return newConfigError(targetPrefix, reason)
}

// outputs returns the number of color outputs.
func (t *Target) outputs() int {
	n := 0
	for i, c := range t.color {
		if c != nil {
			n = i + 1
		}
	}
	return n
}

// build creates the framebuffer and attaches everything.
// It leaves the default framebuffer bound.
func (t *Target) build() error {
	gpu := t.dev.gpu
	t.fb = gpu.NewFramebuffer()
	gpu.BindFramebuffer(t.fb)
	for i, c := range t.color {
		if c != nil {
			gpu.FramebufferTexture2D(driver.ColorAttachment(i), driver.Tex2D, c.tex, 0)
		}
	}
	if t.depth != nil {
		t.depth.attach(gpu)
	}
	if n := t.outputs(); n > 1 {
		gpu.DrawBuffers(n)
	}
	err := gpu.CheckFramebuffer()
	gpu.BindFramebuffer(0)
	return err
}

// Size returns the width and height of t.
func (t *Target) Size() (width, height int) { return t.width, t.height }

// Color returns the i-th color attachment, or nil.
func (t *Target) Color(i int) *Texture {
	if i < 0 || i >= len(t.color) {
		return nil
	}
	return t.color[i]
}

// Depth returns the depth attachment, or nil.
func (t *Target) Depth() *Depth { return t.depth }

// SetColor sets the i-th color attachment.
// A nil c detaches the current one.
func (t *Target) SetColor(i int, c *Texture) error {
	if t.dev == nil {
		return newConfigError(targetPrefix, "freed target")
	}
	if c != nil {
		if err := t.checkColor(i, c); err != nil {
			return err
		}
	} else if i < 0 || i >= t.dev.caps.MaxColorTargets {
		return newConfigError(targetPrefix, "color index out of range ("+strconv.Itoa(i)+")")
	}
	if i >= len(t.color) {
		t.color = append(t.color, make([]*Texture, i+1-len(t.color))...)
	}
	t.color[i] = c
	if !t.dev.lost {
		gpu := t.dev.gpu
		gpu.BindFramebuffer(t.fb)
		var tex driver.Texture
		if c != nil {
			tex = c.tex
		}
		gpu.FramebufferTexture2D(driver.ColorAttachment(i), driver.Tex2D, tex, 0)
		if n := t.outputs(); n > 1 {
			gpu.DrawBuffers(n)
		}
		gpu.BindFramebuffer(0)
	}
	return nil
}

// SetDepth sets the depth attachment.
// A nil z detaches the current one.
func (t *Target) SetDepth(z *Depth) error {
	if t.dev == nil {
		return newConfigError(targetPrefix, "freed target")
	}
	if z != nil {
		if err := t.checkDepth(z); err != nil {
			return err
		}
	}
	prev := t.depth
	t.depth = z
	if !t.dev.lost {
		gpu := t.dev.gpu
		gpu.BindFramebuffer(t.fb)
		if prev != nil && (z == nil || prev.attachment() != z.attachment()) {
			gpu.FramebufferRenderbuffer(prev.attachment(), 0)
		}
		if z != nil {
			z.attach(gpu)
		}
		gpu.BindFramebuffer(0)
	}
	return nil
}

// detach removes tex and z from t, wherever attached.
func (t *Target) detach(tex *Texture, z *Depth) {
	for i, c := range t.color {
		if c != nil && c == tex {
			// Cannot fail.
			t.SetColor(i, nil)
		}
	}
	if z != nil && t.depth == z {
		t.SetDepth(nil)
	}
}

// restore recreates t's framebuffer.
// A target left with no attachments restores empty.
func (t *Target) restore() error {
	if err := t.build(); err != nil && (t.depth != nil || t.outputs() > 0) {
		return newConfigError(targetPrefix, err.Error())
	}
	return nil
}

func (t *Target) release() {
	if t.fb != 0 {
		t.dev.gpu.DeleteFramebuffer(t.fb)
	}
	t.lose()
}

func (t *Target) lose() { t.fb = 0 }

// Free invalidates t and releases its framebuffer.
// Attachments are not freed. Stages that use t render
// to the default framebuffer afterwards.
func (t *Target) Free() {
	if t.dev == nil {
		return
	}
	if !t.dev.lost {
		t.release()
	}
	for _, s := range t.dev.stages {
		if s.Target == t {
			s.Target = nil
		}
	}
	t.dev.targets.remove(t)
	*t = Target{handle: handle{slot: -1, id: t.id}}
}
