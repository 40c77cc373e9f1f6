// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package headless

import (
	"github.com/gviegas/retained/driver"
)

// State is the fixed-function state of a context.
// It is comparable, so two contexts that went through
// different call sequences can be checked for identical
// outcomes with ==.
type State struct {
	Toggles        [driver.MaxToggle]bool
	CullFace       driver.Face
	FrontFace      driver.Winding
	OffsetFactor   float32
	OffsetUnits    float32
	CoverageValue  float32
	CoverageInvert bool
	ColorMask      [4]bool
	DepthFunc      driver.CmpFunc
	DepthMask      bool
	DepthRange     [2]float32
	// [0] is front, [1] is back.
	Stencil      [2]StencilFace
	BlendEq      [2]driver.BlendOp
	BlendFunc    [4]driver.BlendFac
	BlendColor   [4]float32
	Viewport     [4]int
	Scissor      [4]int
	ClearColor   [4]float32
	ClearDepth   float32
	ClearStencil int
}

// StencilFace is the stencil state of one face.
type StencilFace struct {
	Func      driver.CmpFunc
	Ref       int
	ReadMask  uint32
	WriteMask uint32
	SFail     driver.StencilOp
	DPFail    driver.StencilOp
	DPPass    driver.StencilOp
}

// DefaultState returns the initial state of a context
// whose default framebuffer is width by height.
func DefaultState(width, height int) State {
	stencil := StencilFace{
		Func:      driver.CAlways,
		ReadMask:  ^uint32(0),
		WriteMask: ^uint32(0),
	}
	return State{
		CullFace:      driver.Back,
		FrontFace:     driver.WCCW,
		CoverageValue: 1,
		ColorMask:     [4]bool{true, true, true, true},
		DepthFunc:     driver.CLess,
		DepthMask:     true,
		DepthRange:    [2]float32{0, 1},
		Stencil:       [2]StencilFace{stencil, stencil},
		BlendEq:       [2]driver.BlendOp{driver.BAdd, driver.BAdd},
		BlendFunc:     [4]driver.BlendFac{driver.BOne, driver.BZero, driver.BOne, driver.BZero},
		Viewport:      [4]int{0, 0, width, height},
		Scissor:       [4]int{0, 0, width, height},
		ClearDepth:    1,
	}
}

// Draw is a recorded draw call.
type Draw struct {
	Program     driver.Program
	Framebuffer driver.Framebuffer
	Mode        driver.Topology
	Count       int
	Indexed     bool
	// Float uniforms of Program at the time of the
	// draw, keyed by the name reported by introspection.
	Uniforms map[string][]float32
	// Sampler units of Program at the time of the draw.
	Units map[string]int
	// Textures bound to the units used by Program.
	Textures map[string]driver.Texture
	State    State
}
