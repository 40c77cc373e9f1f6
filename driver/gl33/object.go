// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl33

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/gviegas/retained/driver"
)

// NewBuffer implements driver.GPU.
func (d *Driver) NewBuffer() driver.Buffer {
	var b uint32
	gl.GenBuffers(1, &b)
	return driver.Buffer(b)
}

// DeleteBuffer implements driver.GPU.
func (d *Driver) DeleteBuffer(b driver.Buffer) {
	x := uint32(b)
	gl.DeleteBuffers(1, &x)
}

// BindBuffer implements driver.GPU.
func (d *Driver) BindBuffer(target driver.BufferTarget, b driver.Buffer) {
	gl.BindBuffer(convBufferTarget(target), uint32(b))
}

// BufferData implements driver.GPU.
func (d *Driver) BufferData(target driver.BufferTarget, data []byte, usage driver.BufferUsage) {
	gl.BufferData(convBufferTarget(target), len(data), unsafe.Pointer(unsafe.SliceData(data)), convUsage(usage))
}

// NewTexture implements driver.GPU.
func (d *Driver) NewTexture() driver.Texture {
	var t uint32
	gl.GenTextures(1, &t)
	return driver.Texture(t)
}

// DeleteTexture implements driver.GPU.
func (d *Driver) DeleteTexture(t driver.Texture) {
	x := uint32(t)
	gl.DeleteTextures(1, &x)
}

// ActiveTexture implements driver.GPU.
func (d *Driver) ActiveTexture(unit int) { gl.ActiveTexture(gl.TEXTURE0 + uint32(unit)) }

// BindTexture implements driver.GPU.
func (d *Driver) BindTexture(target driver.TexTarget, t driver.Texture) {
	gl.BindTexture(texTargets[target], uint32(t))
}

// TexImage2D implements driver.GPU.
// A nil data allocates storage with undefined contents.
func (d *Driver) TexImage2D(target driver.TexTarget, level int, f driver.PixelFmt, width, height int, data []byte) {
	pf := pixelFmts[f]
	var p unsafe.Pointer
	if len(data) > 0 {
		p = unsafe.Pointer(&data[0])
	}
	// RGB8un rows are not 4-byte aligned.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(texTargets[target], int32(level), int32(pf.internal), int32(width), int32(height), 0,
		pf.format, pf.typ, p)
}

// TexParameter sets a sampling parameter.
// TexMaxAniso is ignored if anisotropic filtering is not
// available.
func (d *Driver) TexParameter(target driver.TexTarget, param driver.TexParam, value int) {
	t := texTargets[target]
	switch param {
	case driver.TexMinFilter:
		gl.TexParameteri(t, gl.TEXTURE_MIN_FILTER, filters[value])
	case driver.TexMagFilter:
		gl.TexParameteri(t, gl.TEXTURE_MAG_FILTER, filters[value])
	case driver.TexWrapS:
		gl.TexParameteri(t, gl.TEXTURE_WRAP_S, addrModes[value])
	case driver.TexWrapT:
		gl.TexParameteri(t, gl.TEXTURE_WRAP_T, addrModes[value])
	case driver.TexMaxAniso:
		if d.aniso {
			var lim float32
			gl.GetFloatv(maxTexMaxAnisotropy, &lim)
			gl.TexParameterf(t, texMaxAnisotropy, min(float32(value), lim))
		}
	}
}

// NewRenderbuffer implements driver.GPU.
func (d *Driver) NewRenderbuffer() driver.Renderbuffer {
	var rb uint32
	gl.GenRenderbuffers(1, &rb)
	return driver.Renderbuffer(rb)
}

// DeleteRenderbuffer implements driver.GPU.
func (d *Driver) DeleteRenderbuffer(rb driver.Renderbuffer) {
	x := uint32(rb)
	gl.DeleteRenderbuffers(1, &x)
}

// BindRenderbuffer implements driver.GPU.
func (d *Driver) BindRenderbuffer(rb driver.Renderbuffer) {
	gl.BindRenderbuffer(gl.RENDERBUFFER, uint32(rb))
}

// RenderbufferStorage implements driver.GPU.
func (d *Driver) RenderbufferStorage(f driver.PixelFmt, width, height int) {
	gl.RenderbufferStorage(gl.RENDERBUFFER, pixelFmts[f].internal, int32(width), int32(height))
}

// NewFramebuffer implements driver.GPU.
func (d *Driver) NewFramebuffer() driver.Framebuffer {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	return driver.Framebuffer(fb)
}

// DeleteFramebuffer implements driver.GPU.
func (d *Driver) DeleteFramebuffer(fb driver.Framebuffer) {
	x := uint32(fb)
	gl.DeleteFramebuffers(1, &x)
}

// BindFramebuffer implements driver.GPU.
func (d *Driver) BindFramebuffer(fb driver.Framebuffer) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
}

// FramebufferTexture2D implements driver.GPU.
func (d *Driver) FramebufferTexture2D(att driver.Attachment, target driver.TexTarget, t driver.Texture, level int) {
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, convAttachment(att), texTargets[target], uint32(t), int32(level))
}

// FramebufferRenderbuffer implements driver.GPU.
func (d *Driver) FramebufferRenderbuffer(att driver.Attachment, rb driver.Renderbuffer) {
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, convAttachment(att), gl.RENDERBUFFER, uint32(rb))
}

// CheckFramebuffer returns an error wrapping
// driver.ErrIncomplete if the bound framebuffer is not
// complete.
func (d *Driver) CheckFramebuffer() error {
	if s := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); s != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("%w (status %#x)", driver.ErrIncomplete, s)
	}
	return nil
}

// DrawBuffers implements driver.GPU.
// It enables the first n color attachments of the bound
// framebuffer.
func (d *Driver) DrawBuffers(n int) {
	if n == 0 {
		gl.DrawBuffer(gl.NONE)
		return
	}
	bufs := make([]uint32, n)
	for i := range bufs {
		bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
	}
	gl.DrawBuffers(int32(n), &bufs[0])
}
