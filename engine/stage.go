// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"log/slog"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Rect is a rectangle in framebuffer coordinates.
type Rect struct {
	X, Y          int
	Width, Height int
}

// ClearPolicy describes how a Stage clears its output
// before drawing.
type ClearPolicy struct {
	Color        bool
	Depth        bool
	Stencil      bool
	ColorValue   mgl32.Vec4
	DepthValue   float32
	StencilValue int
}

// Stage is one phase of a frame.
// Stages are drawn in order, and each one draws the
// instances of every material that has a pass for it.
type Stage struct {
	// Stage-level uniforms.
	Uniforms

	dev  *Device
	name string

	// Output. nil means the default framebuffer.
	Target *Target
	// View and projection matrices.
	// Default is identity.
	View       mgl32.Mat4
	Projection mgl32.Mat4
	// Viewport rectangle. nil means the whole output.
	Viewport *Rect
	// Scissor rectangle. nil disables scissor testing.
	Scissor *Rect
	// Depth range mapping.
	// Default is {0, 1}.
	DepthRange [2]float32
	// Buffers to clear and their clear values.
	// Default clears everything to zero color, depth
	// of 1 and stencil of 0.
	Clear ClearPolicy
	// Whether to skip clearing.
	NoClear bool
	// Whether to cull instances outside the frustum
	// derived from View and Projection.
	// Default is true.
	Culling bool
	// Called after clearing, before anything is drawn.
	PreDraw func(*Stage)

	frustum Frustum
}

// NewStage creates a new stage named name and inserts it
// before the stage named before, or last if before is
// the empty string.
func (d *Device) NewStage(name, before string) (*Stage, error) {
	i, err := insertAt(d.stages, name, before, (*Stage).Name)
	if err != nil {
		return nil, newConfigError(stagePrefix, err.Error())
	}
	s := &Stage{
		dev:        d,
		name:       name,
		View:       mgl32.Ident4(),
		Projection: mgl32.Ident4(),
		DepthRange: [2]float32{0, 1},
		Clear: ClearPolicy{
			Color:      true,
			Depth:      true,
			Stencil:    true,
			DepthValue: 1,
		},
		Culling: true,
	}
	d.stages = slices.Insert(d.stages, i, s)
	Logger().Debug("stage created", slog.String("name", name), slog.Int("index", i))
	return s, nil
}

type gridError string

func (e gridError) Error() string { return string(e) }

// insertAt returns the index at which an element named
// name is to be inserted in s so that it precedes the
// element named before.
func insertAt[T any](s []T, name, before string, nameOf func(T) string) (int, error) {
	if name == "" {
		return 0, gridError("empty name")
	}
	idx := len(s)
	for i, x := range s {
		switch nameOf(x) {
		case name:
			return 0, gridError("name '" + name + "' already in use")
		case before:
			idx = i
		}
	}
	if before != "" && idx == len(s) {
		return 0, gridError("no entry named '" + before + "'")
	}
	return idx, nil
}

// Stage returns the stage named name, or nil.
func (d *Device) Stage(name string) *Stage {
	for _, s := range d.stages {
		if s.name == name {
			return s
		}
	}
	return nil
}

// Stages returns the stages of d in drawing order.
func (d *Device) Stages() []*Stage { return slices.Clone(d.stages) }

// Name returns the name of s.
func (s *Stage) Name() string { return s.name }

// Frustum returns the frustum computed for s in the last
// frame.
func (s *Stage) Frustum() Frustum { return s.frustum }

// Free removes s from its device.
// Passes set for s are removed from every material, but
// not freed.
func (s *Stage) Free() {
	d := s.dev
	if d == nil {
		return
	}
	if i := slices.Index(d.stages, s); i >= 0 {
		d.stages = slices.Delete(d.stages, i, i+1)
	}
	for _, m := range d.materials {
		delete(m.passes, s.name)
	}
	s.dev = nil
}
