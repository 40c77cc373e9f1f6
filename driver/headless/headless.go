// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package headless implements a driver.GPU that tracks
// context state without rasterizing anything.
// It records the fixed-function state, uniform uploads and
// draw calls it receives, and can simulate context loss.
// It registers itself under the name "headless".
package headless

import (
	"fmt"
	"sort"

	"github.com/gviegas/retained/driver"
)

// Driver implements driver.Driver.
type Driver struct {
	gpu *GPU
}

func init() {
	driver.Register(&Driver{})
}

// Open creates the GPU using DefaultCaps.
// Further calls return the same GPU until Close is called.
func (d *Driver) Open() (driver.GPU, error) {
	if d.gpu == nil {
		d.gpu = New(DefaultCaps(), 640, 480)
		d.gpu.drv = d
	}
	return d.gpu, nil
}

// Name returns "headless".
func (d *Driver) Name() string { return "headless" }

// Close discards the GPU.
func (d *Driver) Close() { d.gpu = nil }

// DefaultCaps returns capabilities resembling a WebGL 1
// context with the common extensions available.
func DefaultCaps() driver.Caps {
	return driver.Caps{
		MaxTexture:       4096,
		MaxCube:          4096,
		MaxRenderbuffer:  4096,
		MaxTextureUnits:  16,
		MaxVertexAttribs: 16,
		MaxColorTargets:  4,
		Index32:          true,
		FloatTexture:     true,
		HalfFloatTexture: true,
		FloatRender:      true,
		DepthTexture:     true,
		FloatDepth:       true,
		Derivatives:      true,
		FragDepth:        true,
		FloatPrecision:   driver.LowP | driver.MediumP | driver.HighP,
		Ext: driver.Extensions{
			Derivatives: "GL_OES_standard_derivatives",
			FragDepth:   "GL_EXT_frag_depth",
			DrawBuffers: "GL_EXT_draw_buffers",
		},
	}
}

// GPU implements driver.GPU and driver.Notifier.
type GPU struct {
	drv    *Driver
	caps   driver.Caps
	width  int
	height int

	lost      bool
	lostCalls int
	calls     map[string]int
	errs      []string

	next          uint32
	buffers       map[driver.Buffer]*buffer
	textures      map[driver.Texture]*texture
	renderbuffers map[driver.Renderbuffer]*renderbuffer
	framebuffers  map[driver.Framebuffer]*framebuffer
	shaders       map[driver.Shader]*shader
	programs      map[driver.Program]*program

	state State
	bind  binding
	attrs map[int]*attrib

	draws []Draw

	onLost     func()
	onRestored func()
}

type binding struct {
	array   driver.Buffer
	index   driver.Buffer
	unit    int
	units   map[int]map[driver.TexTarget]driver.Texture
	rb      driver.Renderbuffer
	fb      driver.Framebuffer
	program driver.Program
}

type attrib struct {
	enabled    bool
	buf        driver.Buffer
	size       int
	normalized bool
	stride     int
	offset     int
}

// New creates a GPU with the given capabilities and
// drawable size. It is not registered anywhere.
func New(caps driver.Caps, width, height int) *GPU {
	g := &GPU{caps: caps, width: width, height: height}
	g.reset()
	return g
}

func (g *GPU) reset() {
	g.calls = make(map[string]int)
	g.buffers = make(map[driver.Buffer]*buffer)
	g.textures = make(map[driver.Texture]*texture)
	g.renderbuffers = make(map[driver.Renderbuffer]*renderbuffer)
	g.framebuffers = make(map[driver.Framebuffer]*framebuffer)
	g.shaders = make(map[driver.Shader]*shader)
	g.programs = make(map[driver.Program]*program)
	g.state = DefaultState(g.width, g.height)
	g.bind = binding{units: make(map[int]map[driver.TexTarget]driver.Texture)}
	g.attrs = make(map[int]*attrib)
	g.draws = nil
}

// call accounts for a call named name.
// It returns false if the context is lost, in which
// case the call must have no effect.
func (g *GPU) call(name string) bool {
	if g.lost {
		g.lostCalls++
		return false
	}
	g.calls[name]++
	return true
}

func (g *GPU) errorf(format string, args ...any) {
	g.errs = append(g.errs, fmt.Sprintf(format, args...))
}

func (g *GPU) newName() uint32 {
	g.next++
	return g.next
}

// Driver implements driver.GPU.
func (g *GPU) Driver() driver.Driver {
	if g.drv == nil {
		return &Driver{gpu: g}
	}
	return g.drv
}

// Caps implements driver.GPU.
func (g *GPU) Caps() driver.Caps {
	g.call("Caps")
	return g.caps
}

// SetCaps replaces the capabilities reported by Caps.
func (g *GPU) SetCaps(caps driver.Caps) { g.caps = caps }

// DrawableSize implements driver.GPU.
func (g *GPU) DrawableSize() (width, height int) { return g.width, g.height }

// SetDrawableSize resizes the default framebuffer.
func (g *GPU) SetDrawableSize(width, height int) { g.width, g.height = width, height }

// Notify implements driver.Notifier.
func (g *GPU) Notify(lost, restored func()) {
	g.onLost = lost
	g.onRestored = restored
}

// Lose simulates a context loss: every object is
// destroyed and all state reverts to its defaults.
// Calls made until Restore have no effect and are
// counted by LostCalls.
func (g *GPU) Lose() {
	if g.lost {
		return
	}
	g.reset()
	g.lost = true
	if g.onLost != nil {
		g.onLost()
	}
}

// Restore ends a simulated context loss.
func (g *GPU) Restore() {
	if !g.lost {
		return
	}
	g.lost = false
	if g.onRestored != nil {
		g.onRestored()
	}
}

// IsLost returns whether the context is lost.
func (g *GPU) IsLost() bool { return g.lost }

// LostCalls returns the number of calls made while the
// context was lost.
func (g *GPU) LostCalls() int { return g.lostCalls }

// Calls returns the number of calls made to the method
// of the given name since the last ResetCounters.
func (g *GPU) Calls(name string) int { return g.calls[name] }

// TotalCalls returns the number of calls made since the
// last ResetCounters.
func (g *GPU) TotalCalls() (n int) {
	for _, c := range g.calls {
		n += c
	}
	return
}

// ResetCounters zeroes the call counters and clears the
// draw and error logs.
func (g *GPU) ResetCounters() {
	g.calls = make(map[string]int)
	g.lostCalls = 0
	g.draws = nil
	g.errs = nil
}

// Errors returns the errors that real implementations
// would have flagged (e.g., drawing with no program).
func (g *GPU) Errors() []string { return g.errs }

// State returns the current fixed-function state.
func (g *GPU) State() State { return g.state }

// Draws returns the draw calls recorded since the last
// ResetCounters.
func (g *GPU) Draws() []Draw { return g.draws }

// Objects returns the number of live objects.
func (g *GPU) Objects() int {
	return len(g.buffers) + len(g.textures) + len(g.renderbuffers) +
		len(g.framebuffers) + len(g.shaders) + len(g.programs)
}

// BoundProgram returns the current program.
func (g *GPU) BoundProgram() driver.Program { return g.bind.program }

// BoundFramebuffer returns the current framebuffer.
func (g *GPU) BoundFramebuffer() driver.Framebuffer { return g.bind.fb }

// EnabledAttribs returns the sorted indices of enabled
// vertex attribute arrays.
func (g *GPU) EnabledAttribs() []int {
	var s []int
	for i, a := range g.attrs {
		if a.enabled {
			s = append(s, i)
		}
	}
	sort.Ints(s)
	return s
}

// Enable implements driver.GPU.
func (g *GPU) Enable(t driver.Toggle) {
	if g.call("Enable") {
		g.state.Toggles[t] = true
	}
}

// Disable implements driver.GPU.
func (g *GPU) Disable(t driver.Toggle) {
	if g.call("Disable") {
		g.state.Toggles[t] = false
	}
}

// CullFace implements driver.GPU.
func (g *GPU) CullFace(f driver.Face) {
	if g.call("CullFace") {
		g.state.CullFace = f
	}
}

// FrontFace implements driver.GPU.
func (g *GPU) FrontFace(w driver.Winding) {
	if g.call("FrontFace") {
		g.state.FrontFace = w
	}
}

// PolygonOffset implements driver.GPU.
func (g *GPU) PolygonOffset(factor, units float32) {
	if g.call("PolygonOffset") {
		g.state.OffsetFactor = factor
		g.state.OffsetUnits = units
	}
}

// SampleCoverage implements driver.GPU.
func (g *GPU) SampleCoverage(value float32, invert bool) {
	if g.call("SampleCoverage") {
		g.state.CoverageValue = value
		g.state.CoverageInvert = invert
	}
}

// ColorMask implements driver.GPU.
func (g *GPU) ColorMask(r, gr, b, a bool) {
	if g.call("ColorMask") {
		g.state.ColorMask = [4]bool{r, gr, b, a}
	}
}

// DepthFunc implements driver.GPU.
func (g *GPU) DepthFunc(f driver.CmpFunc) {
	if g.call("DepthFunc") {
		g.state.DepthFunc = f
	}
}

// DepthMask implements driver.GPU.
func (g *GPU) DepthMask(write bool) {
	if g.call("DepthMask") {
		g.state.DepthMask = write
	}
}

// DepthRange implements driver.GPU.
func (g *GPU) DepthRange(near, far float32) {
	if g.call("DepthRange") {
		g.state.DepthRange = [2]float32{near, far}
	}
}

func (g *GPU) faces(face driver.Face) []*StencilFace {
	switch face {
	case driver.Front:
		return []*StencilFace{&g.state.Stencil[0]}
	case driver.Back:
		return []*StencilFace{&g.state.Stencil[1]}
	default:
		return []*StencilFace{&g.state.Stencil[0], &g.state.Stencil[1]}
	}
}

// StencilFunc implements driver.GPU.
func (g *GPU) StencilFunc(face driver.Face, f driver.CmpFunc, ref int, mask uint32) {
	if g.call("StencilFunc") {
		for _, s := range g.faces(face) {
			s.Func, s.Ref, s.ReadMask = f, ref, mask
		}
	}
}

// StencilOp implements driver.GPU.
func (g *GPU) StencilOp(face driver.Face, sfail, dpfail, dppass driver.StencilOp) {
	if g.call("StencilOp") {
		for _, s := range g.faces(face) {
			s.SFail, s.DPFail, s.DPPass = sfail, dpfail, dppass
		}
	}
}

// StencilMask implements driver.GPU.
func (g *GPU) StencilMask(face driver.Face, mask uint32) {
	if g.call("StencilMask") {
		for _, s := range g.faces(face) {
			s.WriteMask = mask
		}
	}
}

// BlendEquation implements driver.GPU.
func (g *GPU) BlendEquation(rgb, alpha driver.BlendOp) {
	if g.call("BlendEquation") {
		g.state.BlendEq = [2]driver.BlendOp{rgb, alpha}
	}
}

// BlendFunc implements driver.GPU.
func (g *GPU) BlendFunc(srcRGB, dstRGB, srcAlpha, dstAlpha driver.BlendFac) {
	if g.call("BlendFunc") {
		g.state.BlendFunc = [4]driver.BlendFac{srcRGB, dstRGB, srcAlpha, dstAlpha}
	}
}

// BlendColor implements driver.GPU.
func (g *GPU) BlendColor(r, gr, b, a float32) {
	if g.call("BlendColor") {
		g.state.BlendColor = [4]float32{r, gr, b, a}
	}
}

// Viewport implements driver.GPU.
func (g *GPU) Viewport(x, y, width, height int) {
	if g.call("Viewport") {
		g.state.Viewport = [4]int{x, y, width, height}
	}
}

// Scissor implements driver.GPU.
func (g *GPU) Scissor(x, y, width, height int) {
	if g.call("Scissor") {
		g.state.Scissor = [4]int{x, y, width, height}
	}
}

// ClearColor implements driver.GPU.
func (g *GPU) ClearColor(r, gr, b, a float32) {
	if g.call("ClearColor") {
		g.state.ClearColor = [4]float32{r, gr, b, a}
	}
}

// ClearDepth implements driver.GPU.
func (g *GPU) ClearDepth(d float32) {
	if g.call("ClearDepth") {
		g.state.ClearDepth = d
	}
}

// ClearStencil implements driver.GPU.
func (g *GPU) ClearStencil(s int) {
	if g.call("ClearStencil") {
		g.state.ClearStencil = s
	}
}

// Clear implements driver.GPU.
func (g *GPU) Clear(mask driver.ClearMask) {
	if !g.call("Clear") {
		return
	}
	if g.bind.fb != 0 {
		if err := g.checkFramebuffer(g.bind.fb); err != nil {
			g.errorf("Clear: %v", err)
		}
	}
}
