// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/retained/driver"
	"github.com/gviegas/retained/driver/headless"
)

func randStencilFace(r *rand.Rand) StencilFace {
	return StencilFace{
		Func:      driver.CmpFunc(r.IntN(8)),
		Ref:       r.IntN(4),
		ReadMask:  uint32(r.IntN(3)) * 0x7f,
		WriteMask: uint32(r.IntN(3)) * 0x7f,
		SFail:     driver.StencilOp(r.IntN(8)),
		DPFail:    driver.StencilOp(r.IntN(8)),
		DPPass:    driver.StencilOp(r.IntN(8)),
	}
}

// randRenderState returns a RenderState in which each
// field is either the default or a random value.
func randRenderState(r *rand.Rand) RenderState {
	s := DefaultRenderState()
	coin := func() bool { return r.IntN(2) == 0 }
	if coin() {
		s.Polygon = PolygonState{
			Cull:         coin(),
			CullFace:     driver.Face(r.IntN(3)),
			FrontFace:    driver.Winding(r.IntN(2)),
			Offset:       coin(),
			OffsetFactor: float32(r.IntN(3)),
			OffsetUnits:  float32(r.IntN(3)),
		}
	}
	if coin() {
		s.Multisample = MultisampleState{
			AlphaToCoverage: coin(),
			Coverage:        coin(),
			CoverageValue:   float32(r.IntN(3)) / 2,
			CoverageInvert:  coin(),
		}
	}
	if coin() {
		s.Color.Mask = [4]bool{coin(), coin(), coin(), coin()}
	}
	if coin() {
		s.Depth = DepthState{Test: coin(), Write: coin(), Func: driver.CmpFunc(r.IntN(8))}
	}
	if coin() {
		s.Stencil.Test = coin()
		s.Stencil.Front = randStencilFace(r)
		if coin() {
			s.Stencil.Back = s.Stencil.Front
		} else {
			s.Stencil.Back = randStencilFace(r)
		}
	}
	if coin() {
		s.Blend = BlendState{
			Enable:   coin(),
			OpRGB:    driver.BlendOp(r.IntN(5)),
			OpAlpha:  driver.BlendOp(r.IntN(5)),
			SrcRGB:   driver.BlendFac(r.IntN(13)),
			DstRGB:   driver.BlendFac(r.IntN(13)),
			SrcAlpha: driver.BlendFac(r.IntN(13)),
			DstAlpha: driver.BlendFac(r.IntN(13)),
			Color:    mgl32.Vec4{float32(r.IntN(2)), 0, 0, 1},
		}
	}
	return s
}

func TestRenderStateDiff(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := range 500 {
		a, b := randRenderState(r), randRenderState(r)

		diff := headless.New(headless.DefaultCaps(), 64, 64)
		a.apply(diff, nil)
		b.apply(diff, &a)

		full := headless.New(headless.DefaultCaps(), 64, 64)
		b.apply(full, nil)

		require.Equal(t, full.State(), diff.State(), "iteration %d\na: %+v\nb: %+v", i, a, b)
		require.Empty(t, diff.Errors())

		diff.ResetCounters()
		b.apply(diff, &b)
		require.Zero(t, diff.TotalCalls(), "iteration %d", i)
	}
}

func TestRenderStateDefault(t *testing.T) {
	g := headless.New(headless.DefaultCaps(), 64, 64)
	s := DefaultRenderState()
	s.apply(g, nil)

	want := headless.DefaultState(64, 64)
	want.Toggles[driver.DepthTest] = true
	assert.Equal(t, want, g.State())
}

func TestStencilFaces(t *testing.T) {
	g := headless.New(headless.DefaultCaps(), 64, 64)
	a := DefaultStencilState()
	a.apply(g, nil)
	assert.Equal(t, 1, g.Calls("StencilFunc"))

	b := a
	b.Back.Ref = 3
	g.ResetCounters()
	b.apply(g, &a)
	assert.Equal(t, 1, g.Calls("StencilFunc"))
	st := g.State()
	assert.Equal(t, 0, st.Stencil[0].Ref)
	assert.Equal(t, 3, st.Stencil[1].Ref)

	c := b
	c.Back = c.Front
	g.ResetCounters()
	c.apply(g, &b)
	assert.Equal(t, 1, g.Calls("StencilFunc"))
	st = g.State()
	assert.Equal(t, st.Stencil[0], st.Stencil[1])
}
