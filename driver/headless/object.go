// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package headless

import (
	"github.com/gviegas/retained/driver"
)

type buffer struct {
	data  []byte
	usage driver.BufferUsage
}

type level struct {
	format driver.PixelFmt
	width  int
	height int
	data   []byte
}

type texture struct {
	// Set on first bind.
	target driver.TexTarget
	bound  bool
	// Keyed by image target (Tex2D or a cube face)
	// and then by level.
	images map[driver.TexTarget]map[int]level
	params map[driver.TexParam]int
}

type renderbuffer struct {
	format driver.PixelFmt
	width  int
	height int
}

type attachment struct {
	tex    driver.Texture
	target driver.TexTarget
	level  int
	rb     driver.Renderbuffer
}

type framebuffer struct {
	atts    map[driver.Attachment]attachment
	outputs int
}

// NewBuffer implements driver.GPU.
func (g *GPU) NewBuffer() driver.Buffer {
	if !g.call("NewBuffer") {
		return 0
	}
	b := driver.Buffer(g.newName())
	g.buffers[b] = &buffer{}
	return b
}

// DeleteBuffer implements driver.GPU.
func (g *GPU) DeleteBuffer(b driver.Buffer) {
	if !g.call("DeleteBuffer") {
		return
	}
	delete(g.buffers, b)
	if g.bind.array == b {
		g.bind.array = 0
	}
	if g.bind.index == b {
		g.bind.index = 0
	}
}

// BindBuffer implements driver.GPU.
func (g *GPU) BindBuffer(target driver.BufferTarget, b driver.Buffer) {
	if !g.call("BindBuffer") {
		return
	}
	if _, ok := g.buffers[b]; !ok && b != 0 {
		g.errorf("BindBuffer: invalid buffer %d", b)
		return
	}
	switch target {
	case driver.ArrayBuffer:
		g.bind.array = b
	case driver.IndexBuffer:
		g.bind.index = b
	}
}

// BufferData implements driver.GPU.
func (g *GPU) BufferData(target driver.BufferTarget, data []byte, usage driver.BufferUsage) {
	if !g.call("BufferData") {
		return
	}
	var b driver.Buffer
	switch target {
	case driver.ArrayBuffer:
		b = g.bind.array
	case driver.IndexBuffer:
		b = g.bind.index
	}
	buf, ok := g.buffers[b]
	if !ok {
		g.errorf("BufferData: no buffer bound")
		return
	}
	buf.data = append([]byte(nil), data...)
	buf.usage = usage
}

// BufferContents returns a copy of the data of b.
func (g *GPU) BufferContents(b driver.Buffer) []byte {
	if buf, ok := g.buffers[b]; ok {
		return append([]byte(nil), buf.data...)
	}
	return nil
}

// NewTexture implements driver.GPU.
func (g *GPU) NewTexture() driver.Texture {
	if !g.call("NewTexture") {
		return 0
	}
	t := driver.Texture(g.newName())
	g.textures[t] = &texture{
		images: make(map[driver.TexTarget]map[int]level),
		params: map[driver.TexParam]int{
			driver.TexMinFilter: int(driver.FNearestMipLinear),
			driver.TexMagFilter: int(driver.FLinear),
			driver.TexWrapS:     int(driver.AWrap),
			driver.TexWrapT:     int(driver.AWrap),
			driver.TexMaxAniso:  1,
		},
	}
	return t
}

// DeleteTexture implements driver.GPU.
func (g *GPU) DeleteTexture(t driver.Texture) {
	if !g.call("DeleteTexture") {
		return
	}
	delete(g.textures, t)
	for _, u := range g.bind.units {
		for k, v := range u {
			if v == t {
				delete(u, k)
			}
		}
	}
}

// ActiveTexture implements driver.GPU.
func (g *GPU) ActiveTexture(unit int) {
	if !g.call("ActiveTexture") {
		return
	}
	if unit < 0 || unit >= g.caps.MaxTextureUnits {
		g.errorf("ActiveTexture: invalid unit %d", unit)
		return
	}
	g.bind.unit = unit
}

// BindTexture implements driver.GPU.
func (g *GPU) BindTexture(target driver.TexTarget, t driver.Texture) {
	if !g.call("BindTexture") {
		return
	}
	if t != 0 {
		tex, ok := g.textures[t]
		if !ok {
			g.errorf("BindTexture: invalid texture %d", t)
			return
		}
		if tex.bound && tex.target != target {
			g.errorf("BindTexture: texture %d bound to a different target", t)
			return
		}
		tex.bound = true
		tex.target = target
	}
	u := g.bind.units[g.bind.unit]
	if u == nil {
		u = make(map[driver.TexTarget]driver.Texture)
		g.bind.units[g.bind.unit] = u
	}
	u[target] = t
}

func (g *GPU) boundTexture(target driver.TexTarget) (*texture, driver.Texture) {
	bt := target
	if target >= driver.TexCubePosX {
		bt = driver.TexCube
	}
	t := g.bind.units[g.bind.unit][bt]
	return g.textures[t], t
}

// TexImage2D implements driver.GPU.
func (g *GPU) TexImage2D(target driver.TexTarget, lvl int, f driver.PixelFmt, width, height int, data []byte) {
	if !g.call("TexImage2D") {
		return
	}
	if target == driver.TexCube {
		g.errorf("TexImage2D: TexCube is not an image target")
		return
	}
	tex, _ := g.boundTexture(target)
	if tex == nil {
		g.errorf("TexImage2D: no texture bound")
		return
	}
	if data != nil && len(data) != width*height*f.Size() {
		g.errorf("TexImage2D: data size mismatch")
		return
	}
	m := tex.images[target]
	if m == nil {
		m = make(map[int]level)
		tex.images[target] = m
	}
	m[lvl] = level{f, width, height, append([]byte(nil), data...)}
}

// TexParameter implements driver.GPU.
func (g *GPU) TexParameter(target driver.TexTarget, param driver.TexParam, value int) {
	if !g.call("TexParameter") {
		return
	}
	tex, _ := g.boundTexture(target)
	if tex == nil {
		g.errorf("TexParameter: no texture bound")
		return
	}
	tex.params[param] = value
}

// TexParam returns the value of a sampling parameter of t.
func (g *GPU) TexParam(t driver.Texture, param driver.TexParam) int {
	if tex, ok := g.textures[t]; ok {
		return tex.params[param]
	}
	return -1
}

// TexImage returns a copy of the data of a texture image,
// and whether the image exists.
func (g *GPU) TexImage(t driver.Texture, target driver.TexTarget, lvl int) ([]byte, bool) {
	tex, ok := g.textures[t]
	if !ok {
		return nil, false
	}
	l, ok := tex.images[target][lvl]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), l.data...), true
}

// NewRenderbuffer implements driver.GPU.
func (g *GPU) NewRenderbuffer() driver.Renderbuffer {
	if !g.call("NewRenderbuffer") {
		return 0
	}
	rb := driver.Renderbuffer(g.newName())
	g.renderbuffers[rb] = &renderbuffer{}
	return rb
}

// DeleteRenderbuffer implements driver.GPU.
func (g *GPU) DeleteRenderbuffer(rb driver.Renderbuffer) {
	if !g.call("DeleteRenderbuffer") {
		return
	}
	delete(g.renderbuffers, rb)
	if g.bind.rb == rb {
		g.bind.rb = 0
	}
}

// BindRenderbuffer implements driver.GPU.
func (g *GPU) BindRenderbuffer(rb driver.Renderbuffer) {
	if !g.call("BindRenderbuffer") {
		return
	}
	if _, ok := g.renderbuffers[rb]; !ok && rb != 0 {
		g.errorf("BindRenderbuffer: invalid renderbuffer %d", rb)
		return
	}
	g.bind.rb = rb
}

// RenderbufferStorage implements driver.GPU.
func (g *GPU) RenderbufferStorage(f driver.PixelFmt, width, height int) {
	if !g.call("RenderbufferStorage") {
		return
	}
	rb, ok := g.renderbuffers[g.bind.rb]
	if !ok {
		g.errorf("RenderbufferStorage: no renderbuffer bound")
		return
	}
	*rb = renderbuffer{f, width, height}
}

// NewFramebuffer implements driver.GPU.
func (g *GPU) NewFramebuffer() driver.Framebuffer {
	if !g.call("NewFramebuffer") {
		return 0
	}
	fb := driver.Framebuffer(g.newName())
	g.framebuffers[fb] = &framebuffer{atts: make(map[driver.Attachment]attachment), outputs: 1}
	return fb
}

// DeleteFramebuffer implements driver.GPU.
func (g *GPU) DeleteFramebuffer(fb driver.Framebuffer) {
	if !g.call("DeleteFramebuffer") {
		return
	}
	delete(g.framebuffers, fb)
	if g.bind.fb == fb {
		g.bind.fb = 0
	}
}

// BindFramebuffer implements driver.GPU.
func (g *GPU) BindFramebuffer(fb driver.Framebuffer) {
	if !g.call("BindFramebuffer") {
		return
	}
	if _, ok := g.framebuffers[fb]; !ok && fb != 0 {
		g.errorf("BindFramebuffer: invalid framebuffer %d", fb)
		return
	}
	g.bind.fb = fb
}

// FramebufferTexture2D implements driver.GPU.
func (g *GPU) FramebufferTexture2D(att driver.Attachment, target driver.TexTarget, t driver.Texture, lvl int) {
	if !g.call("FramebufferTexture2D") {
		return
	}
	fb, ok := g.framebuffers[g.bind.fb]
	if !ok {
		g.errorf("FramebufferTexture2D: default framebuffer bound")
		return
	}
	if t == 0 {
		delete(fb.atts, att)
		return
	}
	fb.atts[att] = attachment{tex: t, target: target, level: lvl}
}

// FramebufferRenderbuffer implements driver.GPU.
func (g *GPU) FramebufferRenderbuffer(att driver.Attachment, rb driver.Renderbuffer) {
	if !g.call("FramebufferRenderbuffer") {
		return
	}
	fb, ok := g.framebuffers[g.bind.fb]
	if !ok {
		g.errorf("FramebufferRenderbuffer: default framebuffer bound")
		return
	}
	if rb == 0 {
		delete(fb.atts, att)
		return
	}
	fb.atts[att] = attachment{rb: rb}
}

// Attachments returns the number of attachments of fb.
func (g *GPU) Attachments(fb driver.Framebuffer) int {
	if f, ok := g.framebuffers[fb]; ok {
		return len(f.atts)
	}
	return 0
}

// CheckFramebuffer implements driver.GPU.
func (g *GPU) CheckFramebuffer() error {
	if !g.call("CheckFramebuffer") {
		return driver.ErrNoContext
	}
	if g.bind.fb == 0 {
		return nil
	}
	return g.checkFramebuffer(g.bind.fb)
}

func (g *GPU) checkFramebuffer(name driver.Framebuffer) error {
	fb, ok := g.framebuffers[name]
	if !ok || len(fb.atts) == 0 {
		return driver.ErrIncomplete
	}
	w, h := -1, -1
	for att, a := range fb.atts {
		var f driver.PixelFmt
		var aw, ah int
		if a.rb != 0 {
			rb, ok := g.renderbuffers[a.rb]
			if !ok || rb.width == 0 {
				return driver.ErrIncomplete
			}
			f, aw, ah = rb.format, rb.width, rb.height
		} else {
			tex, ok := g.textures[a.tex]
			if !ok {
				return driver.ErrIncomplete
			}
			l, ok := tex.images[a.target][a.level]
			if !ok {
				return driver.ErrIncomplete
			}
			f, aw, ah = l.format, l.width, l.height
		}
		switch {
		case att >= 0 && !f.IsColor(),
			att >= 0 && f.IsFloat() && !g.caps.FloatRender,
			att < 0 && !f.IsDepth(),
			att == driver.DepthStencilAttachment && !f.HasStencil():
			return driver.ErrIncomplete
		}
		if w < 0 {
			w, h = aw, ah
		} else if w != aw || h != ah {
			return driver.ErrIncomplete
		}
	}
	return nil
}

// DrawBuffers implements driver.GPU.
func (g *GPU) DrawBuffers(n int) {
	if !g.call("DrawBuffers") {
		return
	}
	fb, ok := g.framebuffers[g.bind.fb]
	if !ok {
		g.errorf("DrawBuffers: default framebuffer bound")
		return
	}
	if n > g.caps.MaxColorTargets {
		g.errorf("DrawBuffers: too many outputs")
		return
	}
	fb.outputs = n
}
