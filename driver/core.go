// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

// GPU is the main interface to an underlying driver
// implementation.
// It exposes a single, globally-stateful context: objects
// are bound to binding points and subsequent calls operate
// on whatever is currently bound.
// A GPU is obtained from a call to Driver.Open.
//
// Object handles are small non-zero integers. The zero
// handle is never a valid object and, when bound, selects
// the default binding (e.g., the default framebuffer).
type GPU interface {
	// Driver returns the Driver that owns the GPU.
	Driver() Driver

	// Caps probes the implementation capabilities.
	// Callers are expected to query this once and keep
	// the result, probing again only after the context
	// is restored.
	Caps() Caps

	// DrawableSize returns the size of the default
	// framebuffer.
	DrawableSize() (width, height int)

	// Enable enables a fixed-function toggle.
	Enable(t Toggle)

	// Disable disables a fixed-function toggle.
	Disable(t Toggle)

	// CullFace sets which faces are culled when Cull
	// is enabled.
	CullFace(f Face)

	// FrontFace sets the winding order of front faces.
	FrontFace(w Winding)

	// PolygonOffset sets the depth offset applied when
	// PolygonOffsetFill is enabled.
	PolygonOffset(factor, units float32)

	// SampleCoverage sets the coverage value used when
	// SampleCoverage is enabled.
	SampleCoverage(value float32, invert bool)

	// ColorMask sets which color channels are written.
	ColorMask(r, g, b, a bool)

	// DepthFunc sets the depth comparison function.
	DepthFunc(f CmpFunc)

	// DepthMask sets whether depth writes are enabled.
	DepthMask(write bool)

	// DepthRange sets the depth range mapping.
	DepthRange(near, far float32)

	// StencilFunc sets the stencil test for the given
	// face(s).
	StencilFunc(face Face, f CmpFunc, ref int, mask uint32)

	// StencilOp sets the stencil operations for the
	// given face(s).
	StencilOp(face Face, sfail, dpfail, dppass StencilOp)

	// StencilMask sets the stencil write mask for the
	// given face(s).
	StencilMask(face Face, mask uint32)

	// BlendEquation sets the color and alpha blend
	// operations.
	BlendEquation(rgb, alpha BlendOp)

	// BlendFunc sets the color and alpha blend factors.
	BlendFunc(srcRGB, dstRGB, srcAlpha, dstAlpha BlendFac)

	// BlendColor sets the constant blend color.
	BlendColor(r, g, b, a float32)

	// Viewport sets the viewport rectangle.
	Viewport(x, y, width, height int)

	// Scissor sets the scissor rectangle.
	Scissor(x, y, width, height int)

	// ClearColor sets the color clear value.
	ClearColor(r, g, b, a float32)

	// ClearDepth sets the depth clear value.
	ClearDepth(d float32)

	// ClearStencil sets the stencil clear value.
	ClearStencil(s int)

	// Clear clears the buffers selected by mask in the
	// current framebuffer.
	Clear(mask ClearMask)

	// NewBuffer creates a new buffer object.
	NewBuffer() Buffer

	// DeleteBuffer deletes a buffer object.
	DeleteBuffer(b Buffer)

	// BindBuffer binds b to target.
	BindBuffer(target BufferTarget, b Buffer)

	// BufferData replaces the data store of the buffer
	// bound to target.
	BufferData(target BufferTarget, data []byte, usage BufferUsage)

	// NewTexture creates a new texture object.
	NewTexture() Texture

	// DeleteTexture deletes a texture object.
	DeleteTexture(t Texture)

	// ActiveTexture selects the texture unit affected
	// by BindTexture.
	ActiveTexture(unit int)

	// BindTexture binds t to target in the active unit.
	BindTexture(target TexTarget, t Texture)

	// TexImage2D specifies one level of the texture
	// bound to target (or one face of the cube bound to
	// Tex2D's cube counterpart, when target is a cube
	// face). A nil data allocates storage with undefined
	// contents.
	TexImage2D(target TexTarget, level int, f PixelFmt, width, height int, data []byte)

	// TexParameter sets a sampling parameter of the
	// texture bound to target.
	TexParameter(target TexTarget, param TexParam, value int)

	// NewRenderbuffer creates a new renderbuffer object.
	NewRenderbuffer() Renderbuffer

	// DeleteRenderbuffer deletes a renderbuffer object.
	DeleteRenderbuffer(rb Renderbuffer)

	// BindRenderbuffer binds rb.
	BindRenderbuffer(rb Renderbuffer)

	// RenderbufferStorage allocates storage for the
	// bound renderbuffer.
	RenderbufferStorage(f PixelFmt, width, height int)

	// NewFramebuffer creates a new framebuffer object.
	NewFramebuffer() Framebuffer

	// DeleteFramebuffer deletes a framebuffer object.
	DeleteFramebuffer(fb Framebuffer)

	// BindFramebuffer binds fb. Binding the zero
	// handle selects the default framebuffer.
	BindFramebuffer(fb Framebuffer)

	// FramebufferTexture2D attaches a texture level to
	// the bound framebuffer. A zero t detaches.
	FramebufferTexture2D(att Attachment, target TexTarget, t Texture, level int)

	// FramebufferRenderbuffer attaches a renderbuffer to
	// the bound framebuffer. A zero rb detaches.
	FramebufferRenderbuffer(att Attachment, rb Renderbuffer)

	// CheckFramebuffer checks the completeness of the
	// bound framebuffer.
	CheckFramebuffer() error

	// DrawBuffers selects the first n color attachments
	// of the bound framebuffer as outputs.
	DrawBuffers(n int)

	// NewShader creates a new shader object.
	NewShader(s Stage) Shader

	// DeleteShader deletes a shader object.
	DeleteShader(s Shader)

	// ShaderSource replaces the source of a shader.
	ShaderSource(s Shader, src string)

	// CompileShader compiles a shader and reports
	// whether compilation succeeded.
	CompileShader(s Shader) bool

	// ShaderLog returns the info log of a shader.
	ShaderLog(s Shader) string

	// NewProgram creates a new program object.
	NewProgram() Program

	// DeleteProgram deletes a program object.
	DeleteProgram(p Program)

	// AttachShader attaches s to p.
	AttachShader(p Program, s Shader)

	// DetachShader detaches s from p.
	DetachShader(p Program, s Shader)

	// LinkProgram links p and reports whether linking
	// succeeded.
	LinkProgram(p Program) bool

	// ProgramLog returns the info log of a program.
	ProgramLog(p Program) string

	// UseProgram makes p the current program.
	UseProgram(p Program)

	// ActiveAttribs returns the active vertex attributes
	// of a linked program.
	ActiveAttribs(p Program) []Active

	// ActiveUniforms returns the active uniforms of a
	// linked program. Array uniforms may be reported
	// with a "[0]" suffix.
	ActiveUniforms(p Program) []Active

	// AttribLocation returns the location of a vertex
	// attribute, or -1.
	AttribLocation(p Program, name string) int

	// UniformLocation returns the location of a uniform,
	// or -1.
	UniformLocation(p Program, name string) int

	// Uniform1fv uploads len(v) floats.
	Uniform1fv(loc int, v []float32)

	// Uniform2fv uploads len(v)/2 2-component vectors.
	Uniform2fv(loc int, v []float32)

	// Uniform3fv uploads len(v)/3 3-component vectors.
	Uniform3fv(loc int, v []float32)

	// Uniform4fv uploads len(v)/4 4-component vectors.
	Uniform4fv(loc int, v []float32)

	// UniformMatrix3fv uploads len(v)/9 column-major
	// 3x3 matrices.
	UniformMatrix3fv(loc int, v []float32)

	// UniformMatrix4fv uploads len(v)/16 column-major
	// 4x4 matrices.
	UniformMatrix4fv(loc int, v []float32)

	// Uniform1i uploads a single integer (used for
	// sampler units).
	Uniform1i(loc int, v int)

	// EnableAttrib enables a vertex attribute array.
	EnableAttrib(index int)

	// DisableAttrib disables a vertex attribute array.
	DisableAttrib(index int)

	// AttribPointer sources the float vertex attribute
	// at index from the buffer bound to ArrayBuffer.
	AttribPointer(index, size int, normalized bool, stride, offset int)

	// DrawArrays draws non-indexed primitives.
	DrawArrays(mode Topology, first, count int)

	// DrawElements draws indexed primitives sourced from
	// the buffer bound to IndexBuffer.
	DrawElements(mode Topology, count int, f IndexFmt, offset int)
}

// Notifier is an optional interface implemented by GPUs
// whose context can be lost asynchronously.
// lost is called when every object handle becomes
// invalid; restored is called when a fresh context is
// available and objects can be created again.
type Notifier interface {
	Notify(lost, restored func())
}

// Object handles.
type (
	Buffer       uint32
	Texture      uint32
	Renderbuffer uint32
	Framebuffer  uint32
	Shader       uint32
	Program      uint32
)

// Stage is the type of programmable stages.
type Stage int

// Stages.
const (
	SVertex Stage = iota
	SFragment
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case SVertex:
		return "vertex"
	case SFragment:
		return "fragment"
	default:
		return "!driver.Stage"
	}
}

// DataType is the type of shader variables as reported
// by introspection.
type DataType int

// Data types.
const (
	Other DataType = iota
	Float
	Vec2
	Vec3
	Vec4
	Mat2
	Mat3
	Mat4
	Int
	Bool
	Sampler2D
	SamplerCube
)

// String implements fmt.Stringer.
func (t DataType) String() string {
	switch t {
	case Float:
		return "float"
	case Vec2:
		return "vec2"
	case Vec3:
		return "vec3"
	case Vec4:
		return "vec4"
	case Mat2:
		return "mat2"
	case Mat3:
		return "mat3"
	case Mat4:
		return "mat4"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Sampler2D:
		return "sampler2D"
	case SamplerCube:
		return "samplerCube"
	default:
		return "other"
	}
}

// Components returns the number of float components of
// t, or 0 if t is not a float type.
func (t DataType) Components() int {
	switch t {
	case Float:
		return 1
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4, Mat2:
		return 4
	case Mat3:
		return 9
	case Mat4:
		return 16
	default:
		return 0
	}
}

// Active describes an active shader variable.
// Size is the array length (1 for non-arrays).
type Active struct {
	Name string
	Type DataType
	Size int
}

// Toggle is the type of fixed-function toggles.
type Toggle int

// Toggles.
const (
	Cull Toggle = iota
	Blend
	DepthTest
	StencilTest
	ScissorTest
	PolygonOffsetFill
	SampleCoverage
	SampleAlphaToCoverage

	MaxToggle int = iota
)

// Face is the type of polygon faces.
type Face int

// Faces.
const (
	Back Face = iota
	Front
	FrontBack
)

// Winding is the type of front face winding orders.
type Winding int

// Winding orders.
const (
	WCCW Winding = iota
	WCW
)

// CmpFunc is the type of comparison functions.
type CmpFunc int

// Comparison functions.
const (
	CNever CmpFunc = iota
	CLess
	CEqual
	CLessEqual
	CGreater
	CNotEqual
	CGreaterEqual
	CAlways
)

// StencilOp is the type of stencil operations.
type StencilOp int

// Stencil operations.
const (
	SKeep StencilOp = iota
	SZero
	SReplace
	SIncClamp
	SDecClamp
	SInvert
	SIncWrap
	SDecWrap
)

// BlendOp is the type of blend operations.
type BlendOp int

// Blend operations.
const (
	BAdd BlendOp = iota
	BSubtract
	BRevSubtract
	BMin
	BMax
)

// BlendFac is the type of blend factors.
type BlendFac int

// Blend factors.
const (
	BZero BlendFac = iota
	BOne
	BSrcColor
	BInvSrcColor
	BSrcAlpha
	BInvSrcAlpha
	BDstColor
	BInvDstColor
	BDstAlpha
	BInvDstAlpha
	BSrcAlphaSaturated
	BBlendColor
	BInvBlendColor
)

// ClearMask is a mask of buffers to clear.
type ClearMask int

// Clear masks.
const (
	MColor ClearMask = 1 << iota
	MDepth
	MStencil
)

// BufferTarget is the type of buffer binding points.
type BufferTarget int

// Buffer binding points.
const (
	ArrayBuffer BufferTarget = iota
	IndexBuffer
)

// BufferUsage is a hint on how buffer data is used.
type BufferUsage int

// Buffer usage hints.
const (
	StaticDraw BufferUsage = iota
	DynamicDraw
)

// TexTarget is the type of texture binding points and
// image targets.
type TexTarget int

// Texture targets.
// The cube face targets are only valid as image targets
// (TexImage2D and FramebufferTexture2D).
const (
	Tex2D TexTarget = iota
	TexCube
	TexCubePosX
	TexCubeNegX
	TexCubePosY
	TexCubeNegY
	TexCubePosZ
	TexCubeNegZ
)

// CubeFace returns the image target of the i-th cube face.
func CubeFace(i int) TexTarget { return TexCubePosX + TexTarget(i) }

// TexParam is the type of texture sampling parameters.
type TexParam int

// Texture sampling parameters.
const (
	TexMinFilter TexParam = iota
	TexMagFilter
	TexWrapS
	TexWrapT
	TexMaxAniso
)

// Filter is the type of sampler filters.
type Filter int

// Filters.
// The Mip variants are only valid as minification
// filters.
const (
	FNearest Filter = iota
	FLinear
	FNearestMipNearest
	FLinearMipNearest
	FNearestMipLinear
	FLinearMipLinear
)

// AddrMode is the type of sampler address modes.
type AddrMode int

// Address modes.
const (
	AWrap AddrMode = iota
	AMirror
	AClamp
)

// Attachment is the type of framebuffer attachment points.
type Attachment int

// Non-color attachment points.
// Color attachments are obtained from ColorAttachment.
const (
	DepthAttachment Attachment = -1 - iota
	StencilAttachment
	DepthStencilAttachment
)

// ColorAttachment returns the i-th color attachment point.
func ColorAttachment(i int) Attachment { return Attachment(i) }

// Topology is the type of primitive topologies.
type Topology int

// Primitive topologies.
const (
	TPoint Topology = iota
	TLine
	TLnStrip
	TLnLoop
	TTriangle
	TTriStrip
	TTriFan
)

// Primitives returns the number of primitives that count
// vertices assemble into.
func (t Topology) Primitives(count int) int {
	switch t {
	case TPoint:
		return count
	case TLine:
		return count / 2
	case TLnStrip:
		return max(count-1, 0)
	case TLnLoop:
		if count < 2 {
			return 0
		}
		return count
	case TTriangle:
		return count / 3
	case TTriStrip, TTriFan:
		return max(count-2, 0)
	default:
		return 0
	}
}

// IndexFmt describes the format of index buffer data.
type IndexFmt int

// Index formats.
const (
	Index16 IndexFmt = 2
	Index32 IndexFmt = 4
)

// PixelFmt describes the format of a pixel.
type PixelFmt int

// Pixel formats.
const (
	// Color, 8-bit channels.
	RGBA8un PixelFmt = iota
	RGB8un
	// Color, 16-bit float channels.
	RGBA16f
	// Color, 32-bit float channels.
	RGBA32f
	// Depth/Stencil.
	D16un
	D24unS8ui
	D32f
)

// IsColor returns whether f is a color format.
func (f PixelFmt) IsColor() bool { return f <= RGBA32f && f >= RGBA8un }

// IsDepth returns whether f is a depth or depth/stencil
// format.
func (f PixelFmt) IsDepth() bool { return f >= D16un && f <= D32f }

// HasStencil returns whether f has a stencil component.
func (f PixelFmt) HasStencil() bool { return f == D24unS8ui }

// IsFloat returns whether f stores floating-point color.
func (f PixelFmt) IsFloat() bool { return f == RGBA16f || f == RGBA32f }

// Size returns the size in bytes of a single pixel.
func (f PixelFmt) Size() int {
	switch f {
	case RGBA8un, D24unS8ui, D32f:
		return 4
	case RGB8un:
		return 3
	case RGBA16f:
		return 8
	case RGBA32f:
		return 16
	case D16un:
		return 2
	default:
		return 0
	}
}

// String implements fmt.Stringer.
func (f PixelFmt) String() string {
	switch f {
	case RGBA8un:
		return "RGBA8un"
	case RGB8un:
		return "RGB8un"
	case RGBA16f:
		return "RGBA16f"
	case RGBA32f:
		return "RGBA32f"
	case D16un:
		return "D16un"
	case D24unS8ui:
		return "D24unS8ui"
	case D32f:
		return "D32f"
	default:
		return "!driver.PixelFmt"
	}
}

// Precision is a mask of float precision qualifiers.
type Precision int

// Precision qualifiers.
const (
	LowP Precision = 1 << iota
	MediumP
	HighP
)

// Highest returns the name of the highest precision
// set in p, or the empty string if p is empty.
func (p Precision) Highest() string {
	switch {
	case p&HighP != 0:
		return "highp"
	case p&MediumP != 0:
		return "mediump"
	case p&LowP != 0:
		return "lowp"
	default:
		return ""
	}
}

// Extensions names the shader extension directives that
// enable optional features. An empty name means that the
// feature, when supported, needs no directive.
type Extensions struct {
	Derivatives string
	FragDepth   string
	DrawBuffers string
}

// Caps describes implementation capabilities.
// These may vary across drivers and devices, and may
// change after a context is restored.
type Caps struct {
	// Maximum width and height of 2D textures.
	MaxTexture int
	// Maximum width and height of cube textures.
	MaxCube int
	// Maximum width and height of renderbuffers.
	MaxRenderbuffer int
	// Maximum number of texture units.
	MaxTextureUnits int
	// Maximum number of vertex attributes.
	MaxVertexAttribs int
	// Maximum number of color attachments usable
	// as outputs at once.
	MaxColorTargets int

	// 32-bit indices.
	Index32 bool
	// RGBA32f textures.
	FloatTexture bool
	// RGBA16f textures.
	HalfFloatTexture bool
	// Float formats as render targets.
	FloatRender bool
	// Depth formats as textures.
	DepthTexture bool
	// D32f format.
	FloatDepth bool
	// dFdx/dFdy/fwidth in fragment shaders.
	Derivatives bool
	// Depth writes from fragment shaders.
	FragDepth bool

	// Float precisions supported by fragment shaders.
	FloatPrecision Precision

	Ext Extensions
}
