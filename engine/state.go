// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/retained/driver"
)

// PolygonState is the rasterization state of a Pass.
type PolygonState struct {
	// Whether to cull faces, and which.
	Cull     bool
	CullFace driver.Face
	// Winding order of front faces.
	FrontFace driver.Winding
	// Polygon offset.
	Offset       bool
	OffsetFactor float32
	OffsetUnits  float32
}

// DefaultPolygonState returns the default PolygonState.
func DefaultPolygonState() PolygonState {
	return PolygonState{CullFace: driver.Back, FrontFace: driver.WCCW}
}

func toggle(gpu driver.GPU, t driver.Toggle, on bool) {
	if on {
		gpu.Enable(t)
	} else {
		gpu.Disable(t)
	}
}

// apply emits the calls that change the context from prev
// to s. A nil prev means that the context state is
// unknown.
func (s *PolygonState) apply(gpu driver.GPU, prev *PolygonState) {
	all := prev == nil
	if all || s.Cull != prev.Cull {
		toggle(gpu, driver.Cull, s.Cull)
	}
	if all || s.CullFace != prev.CullFace {
		gpu.CullFace(s.CullFace)
	}
	if all || s.FrontFace != prev.FrontFace {
		gpu.FrontFace(s.FrontFace)
	}
	if all || s.Offset != prev.Offset {
		toggle(gpu, driver.PolygonOffsetFill, s.Offset)
	}
	if all || s.OffsetFactor != prev.OffsetFactor || s.OffsetUnits != prev.OffsetUnits {
		gpu.PolygonOffset(s.OffsetFactor, s.OffsetUnits)
	}
}

// MultisampleState is the coverage state of a Pass.
type MultisampleState struct {
	AlphaToCoverage bool
	Coverage        bool
	CoverageValue   float32
	CoverageInvert  bool
}

// DefaultMultisampleState returns the default
// MultisampleState.
func DefaultMultisampleState() MultisampleState {
	return MultisampleState{CoverageValue: 1}
}

func (s *MultisampleState) apply(gpu driver.GPU, prev *MultisampleState) {
	all := prev == nil
	if all || s.AlphaToCoverage != prev.AlphaToCoverage {
		toggle(gpu, driver.SampleAlphaToCoverage, s.AlphaToCoverage)
	}
	if all || s.Coverage != prev.Coverage {
		toggle(gpu, driver.SampleCoverage, s.Coverage)
	}
	if all || s.CoverageValue != prev.CoverageValue || s.CoverageInvert != prev.CoverageInvert {
		gpu.SampleCoverage(s.CoverageValue, s.CoverageInvert)
	}
}

// ColorState is the color write state of a Pass.
type ColorState struct {
	// Write mask of the R, G, B and A channels.
	Mask [4]bool
}

// DefaultColorState returns the default ColorState.
func DefaultColorState() ColorState {
	return ColorState{Mask: [4]bool{true, true, true, true}}
}

func (s *ColorState) apply(gpu driver.GPU, prev *ColorState) {
	if prev == nil || s.Mask != prev.Mask {
		gpu.ColorMask(s.Mask[0], s.Mask[1], s.Mask[2], s.Mask[3])
	}
}

// DepthState is the depth test state of a Pass.
type DepthState struct {
	Test  bool
	Write bool
	Func  driver.CmpFunc
}

// DefaultDepthState returns the default DepthState.
func DefaultDepthState() DepthState {
	return DepthState{Test: true, Write: true, Func: driver.CLess}
}

func (s *DepthState) apply(gpu driver.GPU, prev *DepthState) {
	all := prev == nil
	if all || s.Test != prev.Test {
		toggle(gpu, driver.DepthTest, s.Test)
	}
	if all || s.Write != prev.Write {
		gpu.DepthMask(s.Write)
	}
	if all || s.Func != prev.Func {
		gpu.DepthFunc(s.Func)
	}
}

// StencilFace is the stencil state of a single face.
type StencilFace struct {
	Func      driver.CmpFunc
	Ref       int
	ReadMask  uint32
	WriteMask uint32
	SFail     driver.StencilOp
	DPFail    driver.StencilOp
	DPPass    driver.StencilOp
}

// StencilState is the stencil test state of a Pass.
type StencilState struct {
	Test  bool
	Front StencilFace
	Back  StencilFace
}

// DefaultStencilState returns the default StencilState.
func DefaultStencilState() StencilState {
	f := StencilFace{
		Func:      driver.CAlways,
		ReadMask:  ^uint32(0),
		WriteMask: ^uint32(0),
	}
	return StencilState{Front: f, Back: f}
}

func (s *StencilState) apply(gpu driver.GPU, prev *StencilState) {
	all := prev == nil
	if all || s.Test != prev.Test {
		toggle(gpu, driver.StencilTest, s.Test)
	}
	if all {
		if s.Front == s.Back {
			s.Front.apply(gpu, driver.FrontBack, nil)
		} else {
			s.Front.apply(gpu, driver.Front, nil)
			s.Back.apply(gpu, driver.Back, nil)
		}
		return
	}
	if s.Front == s.Back && prev.Front == prev.Back {
		s.Front.apply(gpu, driver.FrontBack, &prev.Front)
		return
	}
	s.Front.apply(gpu, driver.Front, &prev.Front)
	s.Back.apply(gpu, driver.Back, &prev.Back)
}

func (f *StencilFace) apply(gpu driver.GPU, face driver.Face, prev *StencilFace) {
	all := prev == nil
	if all || f.Func != prev.Func || f.Ref != prev.Ref || f.ReadMask != prev.ReadMask {
		gpu.StencilFunc(face, f.Func, f.Ref, f.ReadMask)
	}
	if all || f.SFail != prev.SFail || f.DPFail != prev.DPFail || f.DPPass != prev.DPPass {
		gpu.StencilOp(face, f.SFail, f.DPFail, f.DPPass)
	}
	if all || f.WriteMask != prev.WriteMask {
		gpu.StencilMask(face, f.WriteMask)
	}
}

// BlendState is the blending state of a Pass.
type BlendState struct {
	Enable   bool
	OpRGB    driver.BlendOp
	OpAlpha  driver.BlendOp
	SrcRGB   driver.BlendFac
	DstRGB   driver.BlendFac
	SrcAlpha driver.BlendFac
	DstAlpha driver.BlendFac
	Color    mgl32.Vec4
}

// DefaultBlendState returns the default BlendState.
func DefaultBlendState() BlendState {
	return BlendState{
		OpRGB:    driver.BAdd,
		OpAlpha:  driver.BAdd,
		SrcRGB:   driver.BOne,
		DstRGB:   driver.BZero,
		SrcAlpha: driver.BOne,
		DstAlpha: driver.BZero,
	}
}

func (s *BlendState) apply(gpu driver.GPU, prev *BlendState) {
	all := prev == nil
	if all || s.Enable != prev.Enable {
		toggle(gpu, driver.Blend, s.Enable)
	}
	if all || s.OpRGB != prev.OpRGB || s.OpAlpha != prev.OpAlpha {
		gpu.BlendEquation(s.OpRGB, s.OpAlpha)
	}
	if all || s.SrcRGB != prev.SrcRGB || s.DstRGB != prev.DstRGB || s.SrcAlpha != prev.SrcAlpha || s.DstAlpha != prev.DstAlpha {
		gpu.BlendFunc(s.SrcRGB, s.DstRGB, s.SrcAlpha, s.DstAlpha)
	}
	if all || s.Color != prev.Color {
		gpu.BlendColor(s.Color[0], s.Color[1], s.Color[2], s.Color[3])
	}
}

// RenderState is the full fixed-function state of a Pass.
type RenderState struct {
	Polygon     PolygonState
	Multisample MultisampleState
	Color       ColorState
	Depth       DepthState
	Stencil     StencilState
	Blend       BlendState
}

// DefaultRenderState returns the default RenderState.
// Except for depth testing, which is enabled, it matches
// the initial state of a fresh context.
func DefaultRenderState() RenderState {
	return RenderState{
		Polygon:     DefaultPolygonState(),
		Multisample: DefaultMultisampleState(),
		Color:       DefaultColorState(),
		Depth:       DefaultDepthState(),
		Stencil:     DefaultStencilState(),
		Blend:       DefaultBlendState(),
	}
}

func (s *RenderState) apply(gpu driver.GPU, prev *RenderState) {
	if prev == nil {
		s.Polygon.apply(gpu, nil)
		s.Multisample.apply(gpu, nil)
		s.Color.apply(gpu, nil)
		s.Depth.apply(gpu, nil)
		s.Stencil.apply(gpu, nil)
		s.Blend.apply(gpu, nil)
		return
	}
	s.Polygon.apply(gpu, &prev.Polygon)
	s.Multisample.apply(gpu, &prev.Multisample)
	s.Color.apply(gpu, &prev.Color)
	s.Depth.apply(gpu, &prev.Depth)
	s.Stencil.apply(gpu, &prev.Stencil)
	s.Blend.apply(gpu, &prev.Blend)
}
