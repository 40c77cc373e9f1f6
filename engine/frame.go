// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/gviegas/retained/driver"
)

// Counts are instance, vertex and primitive counters.
type Counts struct {
	Instances  int
	Vertices   int
	Primitives int
}

// Stats are the statistics of a frame.
type Stats struct {
	// Totals, including culled instances.
	Counts
	// What was actually drawn.
	Visible Counts
	// Number of draw calls.
	Draws int
	// Number of times that a different pass was bound.
	PassChanges int
}

// frameState tracks what is bound during a frame.
type frameState struct {
	pass *Pass
	mesh *Mesh
	// Last applied state, if stateOK.
	state   RenderState
	stateOK bool
	enabled map[int]bool
}

func (f *frameState) reset() {
	*f = frameState{enabled: make(map[int]bool)}
}

// invalidateMesh forces the next draw to bind its mesh.
func (f *frameState) invalidateMesh() { f.mesh = nil }

// invalidatePass forces the next draw to bind its pass.
func (f *frameState) invalidatePass() {
	f.pass = nil
	f.mesh = nil
}

func (f *frameState) setAttrib(gpu driver.GPU, loc int, on bool) {
	if f.enabled[loc] == on {
		return
	}
	if on {
		gpu.EnableAttrib(loc)
	} else {
		gpu.DisableAttrib(loc)
	}
	f.enabled[loc] = on
}

// endPass disables the attributes that the bound pass
// enabled.
func (f *frameState) endPass(gpu driver.GPU) {
	for loc, on := range f.enabled {
		if on {
			gpu.DisableAttrib(loc)
		}
	}
	clear(f.enabled)
	f.pass = nil
	f.mesh = nil
}

// resolver looks up uniform values from most to least
// specific.
type resolver [4]*Uniforms

func (r *resolver) lookup(name string) (any, bool) {
	for _, u := range r {
		if v, ok := u.vals[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Frame draws every stage in order and returns the
// statistics of the frame.
// It does nothing while d is lost.
func (d *Device) Frame() Stats {
	if d.lost {
		return Stats{}
	}
	now := d.cfg.Clock()
	if !d.started {
		d.start, d.last, d.started = now, now, true
	}
	env := liveEnv{
		time:  float32(now.Sub(d.start).Seconds()),
		delta: float32(now.Sub(d.last).Seconds()),
	}
	d.last = now

	if w, h := d.gpu.DrawableSize(); w != d.width || h != d.height {
		d.width, d.height = w, h
		Logger().Info("output resized", slog.Int("width", w), slog.Int("height", h))
		d.emit(EventResize)
		if d.lost {
			return Stats{}
		}
	}

	var st Stats
	d.frame.reset()
	for _, s := range slices.Clone(d.stages) {
		if s.dev == nil {
			continue
		}
		d.drawStage(s, &st, &env)
		if d.lost {
			return Stats{}
		}
	}
	if d.frame.pass != nil {
		d.frame.endPass(d.gpu)
	}
	d.stats = st
	return st
}

func (d *Device) drawStage(s *Stage, st *Stats, env *liveEnv) {
	gpu := d.gpu
	f := &d.frame
	w, h := d.width, d.height
	var fb driver.Framebuffer
	if s.Target != nil && s.Target.dev != nil {
		fb = s.Target.fb
		w, h = s.Target.Size()
	}
	gpu.BindFramebuffer(fb)
	vp := Rect{0, 0, w, h}
	if s.Viewport != nil {
		vp = *s.Viewport
	}
	gpu.Viewport(vp.X, vp.Y, vp.Width, vp.Height)
	if s.Scissor != nil {
		gpu.Enable(driver.ScissorTest)
		gpu.Scissor(s.Scissor.X, s.Scissor.Y, s.Scissor.Width, s.Scissor.Height)
	} else {
		gpu.Disable(driver.ScissorTest)
	}
	gpu.DepthRange(s.DepthRange[0], s.DepthRange[1])

	if !s.NoClear {
		var mask driver.ClearMask
		c := &s.Clear
		if c.Color {
			gpu.ColorMask(true, true, true, true)
			gpu.ClearColor(c.ColorValue[0], c.ColorValue[1], c.ColorValue[2], c.ColorValue[3])
			mask |= driver.MColor
		}
		if c.Depth {
			gpu.DepthMask(true)
			gpu.ClearDepth(c.DepthValue)
			mask |= driver.MDepth
		}
		if c.Stencil {
			gpu.StencilMask(driver.FrontBack, ^uint32(0))
			gpu.ClearStencil(c.StencilValue)
			mask |= driver.MStencil
		}
		if mask != 0 {
			gpu.Clear(mask)
			// Write masks were changed.
			f.stateOK = false
		}
	}
	if s.PreDraw != nil {
		s.PreDraw(s)
		if d.lost || s.dev == nil {
			return
		}
		// Creating resources in the hook changes the
		// bound framebuffer.
		gpu.BindFramebuffer(fb)
	}
	if s.Culling {
		vp := s.Projection.Mul4(s.View)
		s.frustum.Set(&vp)
	}

	env.stage = s
	f.mesh = nil
	for _, m := range slices.Clone(d.materials) {
		p := m.passes[s.name]
		if p == nil || p.dev == nil || len(m.bin) == 0 {
			continue
		}
		if p != f.pass {
			if f.pass != nil {
				f.endPass(gpu)
			}
			gpu.UseProgram(p.prog)
			f.pass = p
			st.PassChanges++
		}
		if f.stateOK {
			p.State.apply(gpu, &f.state)
		} else {
			p.State.apply(gpu, nil)
		}
		f.state, f.stateOK = p.State, true
		d.drawBin(s, m, p, st, env)
	}
}

func (d *Device) drawBin(s *Stage, m *Material, p *Pass, st *Stats, env *liveEnv) {
	f := &d.frame
	visible := d.visible[:0]
	for _, inst := range m.bin {
		if inst.mesh == nil || inst.mesh.dev == nil {
			continue
		}
		st.Instances++
		st.Vertices += inst.mesh.Vertices()
		st.Primitives += inst.mesh.Primitives()
		if !s.Culling || !inst.culling || s.frustum.Contains(inst.Bounds(), max(d.cfg.CullEpsilon, 0)) {
			visible = append(visible, inst)
		}
	}
	slices.SortStableFunc(visible, func(a, b *Instance) int {
		return cmp.Compare(b.mesh.id, a.mesh.id)
	})

	res := resolver{nil, &m.Uniforms, &s.Uniforms, &d.Uniforms}
	for _, inst := range visible {
		if f.mesh != inst.mesh {
			if len(p.attribs) > 0 && !inst.mesh.matches(p.attribs) {
				Logger().Warn("draw skipped",
					slog.Any("err", newUsageError(instPrefix, "mesh matches no attribute of pass")),
					slog.String("stage", s.name),
					slog.String("material", m.name),
					slog.Int("mesh", inst.mesh.id))
				continue
			}
			inst.mesh.bind(p, f)
			f.mesh = inst.mesh
		}
		env.inst = inst
		res[0] = &inst.Uniforms
		p.upload(d.gpu, res.lookup, env)
		inst.mesh.draw()
		st.Draws++
		st.Visible.Instances++
		st.Visible.Vertices += inst.mesh.Vertices()
		st.Visible.Primitives += inst.mesh.Primitives()
	}
	clear(visible)
	d.visible = visible[:0]
}
