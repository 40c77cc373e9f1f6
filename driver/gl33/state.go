// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl33

import (
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/gviegas/retained/driver"
)

// Enable implements driver.GPU.
func (d *Driver) Enable(t driver.Toggle) { gl.Enable(toggles[t]) }

// Disable implements driver.GPU.
func (d *Driver) Disable(t driver.Toggle) { gl.Disable(toggles[t]) }

// CullFace implements driver.GPU.
func (d *Driver) CullFace(f driver.Face) { gl.CullFace(convFace(f)) }

// FrontFace implements driver.GPU.
func (d *Driver) FrontFace(w driver.Winding) { gl.FrontFace(convWinding(w)) }

// PolygonOffset implements driver.GPU.
func (d *Driver) PolygonOffset(factor, units float32) { gl.PolygonOffset(factor, units) }

// SampleCoverage implements driver.GPU.
func (d *Driver) SampleCoverage(value float32, invert bool) { gl.SampleCoverage(value, invert) }

// ColorMask implements driver.GPU.
func (d *Driver) ColorMask(r, g, b, a bool) { gl.ColorMask(r, g, b, a) }

// DepthFunc implements driver.GPU.
func (d *Driver) DepthFunc(f driver.CmpFunc) { gl.DepthFunc(cmpFuncs[f]) }

// DepthMask implements driver.GPU.
func (d *Driver) DepthMask(write bool) { gl.DepthMask(write) }

// DepthRange implements driver.GPU.
func (d *Driver) DepthRange(near, far float32) { gl.DepthRange(float64(near), float64(far)) }

// StencilFunc implements driver.GPU.
func (d *Driver) StencilFunc(face driver.Face, f driver.CmpFunc, ref int, mask uint32) {
	gl.StencilFuncSeparate(convFace(face), cmpFuncs[f], int32(ref), mask)
}

// StencilOp implements driver.GPU.
func (d *Driver) StencilOp(face driver.Face, sfail, dpfail, dppass driver.StencilOp) {
	gl.StencilOpSeparate(convFace(face), stencilOps[sfail], stencilOps[dpfail], stencilOps[dppass])
}

// StencilMask implements driver.GPU.
func (d *Driver) StencilMask(face driver.Face, mask uint32) {
	gl.StencilMaskSeparate(convFace(face), mask)
}

// BlendEquation implements driver.GPU.
func (d *Driver) BlendEquation(rgb, alpha driver.BlendOp) {
	gl.BlendEquationSeparate(blendOps[rgb], blendOps[alpha])
}

// BlendFunc implements driver.GPU.
func (d *Driver) BlendFunc(srcRGB, dstRGB, srcAlpha, dstAlpha driver.BlendFac) {
	gl.BlendFuncSeparate(blendFacs[srcRGB], blendFacs[dstRGB], blendFacs[srcAlpha], blendFacs[dstAlpha])
}

// BlendColor implements driver.GPU.
func (d *Driver) BlendColor(r, g, b, a float32) { gl.BlendColor(r, g, b, a) }

// Viewport implements driver.GPU.
func (d *Driver) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

// Scissor implements driver.GPU.
func (d *Driver) Scissor(x, y, width, height int) {
	gl.Scissor(int32(x), int32(y), int32(width), int32(height))
}

// ClearColor implements driver.GPU.
func (d *Driver) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

// ClearDepth implements driver.GPU.
func (d *Driver) ClearDepth(v float32) { gl.ClearDepth(float64(v)) }

// ClearStencil implements driver.GPU.
func (d *Driver) ClearStencil(s int) { gl.ClearStencil(int32(s)) }

// Clear implements driver.GPU.
func (d *Driver) Clear(mask driver.ClearMask) { gl.Clear(convClearMask(mask)) }
