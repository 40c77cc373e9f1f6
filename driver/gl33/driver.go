// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package gl33 implements driver interfaces using the
// OpenGL 3.3 core profile.
// Shaders are expected in the GLSL ES 1.00 dialect, and
// are translated to GLSL 3.30 before compilation. Info
// logs are normalized to the "ERROR: 0:LINE: REASON"
// form.
//
// A context must be current in the calling thread when
// Driver.Open is called, and every GPU method must be
// called from that thread.
package gl33

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/gviegas/retained/driver"
)

const driverName = "gl33"

// Driver implements driver.Driver and driver.GPU.
type Driver struct {
	open  bool
	caps  driver.Caps
	aniso bool
	vao   uint32

	width  int
	height int

	// Scratch buffer for names queried from programs.
	name []byte
}

var _ driver.GPU = (*Driver)(nil)

func init() {
	driver.Register(&Driver{})
}

// Open initializes the driver.
// It fails with driver.ErrNoContext if no context is
// current, and with driver.ErrNotInstalled if the
// context is older than 3.3.
func (d *Driver) Open() (gpu driver.GPU, err error) {
	if d.open {
		return d, nil
	}
	if err = gl.Init(); err != nil {
		return nil, errors.Join(driver.ErrNoContext, err)
	}
	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	if major < 3 || major == 3 && minor < 3 {
		return nil, fmt.Errorf("%w (OpenGL %d.%d)", driver.ErrNotInstalled, major, minor)
	}
	d.aniso = hasExtension("GL_EXT_texture_filter_anisotropic") || hasExtension("GL_ARB_texture_filter_anisotropic")
	d.caps = d.probe()

	// The core profile has no default vertex array.
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	var vp [4]int32
	gl.GetIntegerv(gl.VIEWPORT, &vp[0])
	d.width, d.height = int(vp[2]), int(vp[3])
	d.open = true
	return d, nil
}

// Name returns the driver name.
func (d *Driver) Name() string { return driverName }

// Close deinitializes the driver.
func (d *Driver) Close() {
	if !d.open {
		return
	}
	gl.BindVertexArray(0)
	gl.DeleteVertexArrays(1, &d.vao)
	*d = Driver{}
}

// Driver returns d.
func (d *Driver) Driver() driver.Driver { return d }

// Caps returns the capabilities probed when d was
// opened.
func (d *Driver) Caps() driver.Caps { return d.caps }

func (d *Driver) probe() driver.Caps {
	geti := func(name uint32) int {
		var v int32
		gl.GetIntegerv(name, &v)
		return int(v)
	}
	return driver.Caps{
		MaxTexture:       geti(gl.MAX_TEXTURE_SIZE),
		MaxCube:          geti(gl.MAX_CUBE_MAP_TEXTURE_SIZE),
		MaxRenderbuffer:  geti(gl.MAX_RENDERBUFFER_SIZE),
		MaxTextureUnits:  geti(gl.MAX_TEXTURE_IMAGE_UNITS),
		MaxVertexAttribs: geti(gl.MAX_VERTEX_ATTRIBS),
		MaxColorTargets:  min(geti(gl.MAX_DRAW_BUFFERS), geti(gl.MAX_COLOR_ATTACHMENTS)),
		Index32:          true,
		FloatTexture:     true,
		HalfFloatTexture: true,
		FloatRender:      true,
		DepthTexture:     true,
		FloatDepth:       true,
		Derivatives:      true,
		FragDepth:        true,
		FloatPrecision:   driver.LowP | driver.MediumP | driver.HighP,
	}
}

func hasExtension(name string) bool {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	for i := range uint32(n) {
		if gl.GoStr(gl.GetStringi(gl.EXTENSIONS, i)) == name {
			return true
		}
	}
	return false
}

// DrawableSize returns the size set by SetDrawableSize,
// or the initial viewport size if it was never called.
func (d *Driver) DrawableSize() (width, height int) { return d.width, d.height }

// SetDrawableSize sets the size of the default
// framebuffer. Window systems call this when the
// framebuffer of the window is resized.
func (d *Driver) SetDrawableSize(width, height int) { d.width, d.height = width, height }

// cstr returns a NUL-terminated copy of s.
func cstr(s string) *uint8 {
	if !strings.HasSuffix(s, "\x00") {
		s += "\x00"
	}
	return gl.Str(s)
}
