// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"log/slog"
	"slices"
)

// Material maps stage names to passes.
// Every Instance belongs to exactly one material, and is
// drawn once per stage for which its material has a
// pass.
type Material struct {
	// Material-level uniforms.
	Uniforms

	dev    *Device
	name   string
	passes map[string]*Pass
	bin    []*Instance
}

// NewMaterial creates a new material named name and
// inserts it before the material named before, or last
// if before is the empty string.
// Within a stage, materials are drawn in order.
func (d *Device) NewMaterial(name, before string) (*Material, error) {
	i, err := insertAt(d.materials, name, before, (*Material).Name)
	if err != nil {
		return nil, newConfigError(matPrefix, err.Error())
	}
	m := &Material{
		dev:    d,
		name:   name,
		passes: make(map[string]*Pass),
	}
	d.materials = slices.Insert(d.materials, i, m)
	Logger().Debug("material created", slog.String("name", name), slog.Int("index", i))
	return m, nil
}

// Material returns the material named name, or nil.
func (d *Device) Material(name string) *Material {
	for _, m := range d.materials {
		if m.name == name {
			return m
		}
	}
	return nil
}

// Materials returns the materials of d in drawing order.
func (d *Device) Materials() []*Material { return slices.Clone(d.materials) }

// Name returns the name of m.
func (m *Material) Name() string { return m.name }

// SetPass sets the pass that draws m's instances during
// the stage named stage. A nil p removes it.
// The stage need not exist yet.
func (m *Material) SetPass(stage string, p *Pass) error {
	var reason string
	switch {
	case m.dev == nil:
		reason = "freed material"
	case stage == "":
		reason = "empty stage name"
	case p != nil && p.dev != m.dev:
		reason = "pass is freed or belongs to another device"
	default:
		goto validPass
	}
	return newUsageError(matPrefix, reason)
validPass:
	if p == nil {
		delete(m.passes, stage)
	} else {
		m.passes[stage] = p
	}
	return nil
}

// Pass returns the pass of m for the stage named stage,
// or nil.
func (m *Material) Pass(stage string) *Pass { return m.passes[stage] }

// Instances returns the instances of m.
func (m *Material) Instances() []*Instance { return slices.Clone(m.bin) }

// Len returns the number of instances of m.
func (m *Material) Len() int { return len(m.bin) }

// add adds inst to m's bin.
func (m *Material) add(inst *Instance) {
	inst.mat = m
	inst.bin = len(m.bin)
	m.bin = append(m.bin, inst)
}

// remove removes inst from m's bin.
func (m *Material) remove(inst *Instance) {
	i := inst.bin
	if i < 0 || i >= len(m.bin) || m.bin[i] != inst {
		return
	}
	last := len(m.bin) - 1
	if i < last {
		m.bin[i] = m.bin[last]
		m.bin[i].bin = i
	}
	m.bin[last] = nil
	m.bin = m.bin[:last]
	inst.bin = -1
	inst.mat = nil
}

// Free removes m from its device and frees every
// instance of m. Passes are not freed.
func (m *Material) Free() {
	d := m.dev
	if d == nil {
		return
	}
	for _, inst := range slices.Clone(m.bin) {
		inst.Free()
	}
	if i := slices.Index(d.materials, m); i >= 0 {
		d.materials = slices.Delete(d.materials, i, i+1)
	}
	clear(m.passes)
	m.dev = nil
}
