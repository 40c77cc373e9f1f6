// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl33

import (
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/gviegas/retained/driver"
)

// Not in the 3.3 core headers.
const (
	texMaxAnisotropy    = 0x84FE
	maxTexMaxAnisotropy = 0x84FF
)

var toggles = [driver.MaxToggle]uint32{
	driver.Cull:                  gl.CULL_FACE,
	driver.Blend:                 gl.BLEND,
	driver.DepthTest:             gl.DEPTH_TEST,
	driver.StencilTest:           gl.STENCIL_TEST,
	driver.ScissorTest:           gl.SCISSOR_TEST,
	driver.PolygonOffsetFill:     gl.POLYGON_OFFSET_FILL,
	driver.SampleCoverage:        gl.SAMPLE_COVERAGE,
	driver.SampleAlphaToCoverage: gl.SAMPLE_ALPHA_TO_COVERAGE,
}

func convFace(f driver.Face) uint32 {
	switch f {
	case driver.Front:
		return gl.FRONT
	case driver.FrontBack:
		return gl.FRONT_AND_BACK
	default:
		return gl.BACK
	}
}

func convWinding(w driver.Winding) uint32 {
	if w == driver.WCW {
		return gl.CW
	}
	return gl.CCW
}

var cmpFuncs = [...]uint32{
	driver.CNever:        gl.NEVER,
	driver.CLess:         gl.LESS,
	driver.CEqual:        gl.EQUAL,
	driver.CLessEqual:    gl.LEQUAL,
	driver.CGreater:      gl.GREATER,
	driver.CNotEqual:     gl.NOTEQUAL,
	driver.CGreaterEqual: gl.GEQUAL,
	driver.CAlways:       gl.ALWAYS,
}

var stencilOps = [...]uint32{
	driver.SKeep:     gl.KEEP,
	driver.SZero:     gl.ZERO,
	driver.SReplace:  gl.REPLACE,
	driver.SIncClamp: gl.INCR,
	driver.SDecClamp: gl.DECR,
	driver.SInvert:   gl.INVERT,
	driver.SIncWrap:  gl.INCR_WRAP,
	driver.SDecWrap:  gl.DECR_WRAP,
}

var blendOps = [...]uint32{
	driver.BAdd:         gl.FUNC_ADD,
	driver.BSubtract:    gl.FUNC_SUBTRACT,
	driver.BRevSubtract: gl.FUNC_REVERSE_SUBTRACT,
	driver.BMin:         gl.MIN,
	driver.BMax:         gl.MAX,
}

var blendFacs = [...]uint32{
	driver.BZero:              gl.ZERO,
	driver.BOne:               gl.ONE,
	driver.BSrcColor:          gl.SRC_COLOR,
	driver.BInvSrcColor:       gl.ONE_MINUS_SRC_COLOR,
	driver.BSrcAlpha:          gl.SRC_ALPHA,
	driver.BInvSrcAlpha:       gl.ONE_MINUS_SRC_ALPHA,
	driver.BDstColor:          gl.DST_COLOR,
	driver.BInvDstColor:       gl.ONE_MINUS_DST_COLOR,
	driver.BDstAlpha:          gl.DST_ALPHA,
	driver.BInvDstAlpha:       gl.ONE_MINUS_DST_ALPHA,
	driver.BSrcAlphaSaturated: gl.SRC_ALPHA_SATURATE,
	driver.BBlendColor:        gl.CONSTANT_COLOR,
	driver.BInvBlendColor:     gl.ONE_MINUS_CONSTANT_COLOR,
}

func convClearMask(m driver.ClearMask) (x uint32) {
	if m&driver.MColor != 0 {
		x |= gl.COLOR_BUFFER_BIT
	}
	if m&driver.MDepth != 0 {
		x |= gl.DEPTH_BUFFER_BIT
	}
	if m&driver.MStencil != 0 {
		x |= gl.STENCIL_BUFFER_BIT
	}
	return
}

func convBufferTarget(t driver.BufferTarget) uint32 {
	if t == driver.IndexBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func convUsage(u driver.BufferUsage) uint32 {
	if u == driver.DynamicDraw {
		return gl.DYNAMIC_DRAW
	}
	return gl.STATIC_DRAW
}

var texTargets = [...]uint32{
	driver.Tex2D:       gl.TEXTURE_2D,
	driver.TexCube:     gl.TEXTURE_CUBE_MAP,
	driver.TexCubePosX: gl.TEXTURE_CUBE_MAP_POSITIVE_X,
	driver.TexCubeNegX: gl.TEXTURE_CUBE_MAP_NEGATIVE_X,
	driver.TexCubePosY: gl.TEXTURE_CUBE_MAP_POSITIVE_Y,
	driver.TexCubeNegY: gl.TEXTURE_CUBE_MAP_NEGATIVE_Y,
	driver.TexCubePosZ: gl.TEXTURE_CUBE_MAP_POSITIVE_Z,
	driver.TexCubeNegZ: gl.TEXTURE_CUBE_MAP_NEGATIVE_Z,
}

var filters = [...]int32{
	driver.FNearest:           gl.NEAREST,
	driver.FLinear:            gl.LINEAR,
	driver.FNearestMipNearest: gl.NEAREST_MIPMAP_NEAREST,
	driver.FLinearMipNearest:  gl.LINEAR_MIPMAP_NEAREST,
	driver.FNearestMipLinear:  gl.NEAREST_MIPMAP_LINEAR,
	driver.FLinearMipLinear:   gl.LINEAR_MIPMAP_LINEAR,
}

var addrModes = [...]int32{
	driver.AWrap:   gl.REPEAT,
	driver.AMirror: gl.MIRRORED_REPEAT,
	driver.AClamp:  gl.CLAMP_TO_EDGE,
}

// pixelFmt describes how a driver.PixelFmt is stored
// and transferred.
type pixelFmt struct {
	internal uint32
	format   uint32
	typ      uint32
}

var pixelFmts = [...]pixelFmt{
	driver.RGBA8un:   {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE},
	driver.RGB8un:    {gl.RGB8, gl.RGB, gl.UNSIGNED_BYTE},
	driver.RGBA16f:   {gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT},
	driver.RGBA32f:   {gl.RGBA32F, gl.RGBA, gl.FLOAT},
	driver.D16un:     {gl.DEPTH_COMPONENT16, gl.DEPTH_COMPONENT, gl.UNSIGNED_SHORT},
	driver.D24unS8ui: {gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8},
	driver.D32f:      {gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT},
}

func convAttachment(a driver.Attachment) uint32 {
	switch a {
	case driver.DepthAttachment:
		return gl.DEPTH_ATTACHMENT
	case driver.StencilAttachment:
		return gl.STENCIL_ATTACHMENT
	case driver.DepthStencilAttachment:
		return gl.DEPTH_STENCIL_ATTACHMENT
	default:
		return gl.COLOR_ATTACHMENT0 + uint32(a)
	}
}

var topologies = [...]uint32{
	driver.TPoint:    gl.POINTS,
	driver.TLine:     gl.LINES,
	driver.TLnStrip:  gl.LINE_STRIP,
	driver.TLnLoop:   gl.LINE_LOOP,
	driver.TTriangle: gl.TRIANGLES,
	driver.TTriStrip: gl.TRIANGLE_STRIP,
	driver.TTriFan:   gl.TRIANGLE_FAN,
}

func convIndexFmt(f driver.IndexFmt) uint32 {
	if f == driver.Index32 {
		return gl.UNSIGNED_INT
	}
	return gl.UNSIGNED_SHORT
}

func convStage(s driver.Stage) uint32 {
	if s == driver.SFragment {
		return gl.FRAGMENT_SHADER
	}
	return gl.VERTEX_SHADER
}

// dataType converts the type of an active variable.
func dataType(t uint32) driver.DataType {
	switch t {
	case gl.FLOAT:
		return driver.Float
	case gl.FLOAT_VEC2:
		return driver.Vec2
	case gl.FLOAT_VEC3:
		return driver.Vec3
	case gl.FLOAT_VEC4:
		return driver.Vec4
	case gl.FLOAT_MAT2:
		return driver.Mat2
	case gl.FLOAT_MAT3:
		return driver.Mat3
	case gl.FLOAT_MAT4:
		return driver.Mat4
	case gl.INT:
		return driver.Int
	case gl.BOOL:
		return driver.Bool
	case gl.SAMPLER_2D:
		return driver.Sampler2D
	case gl.SAMPLER_CUBE:
		return driver.SamplerCube
	default:
		return driver.Other
	}
}
