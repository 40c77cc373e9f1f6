// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Instance is a drawable unit: a mesh drawn with the
// passes of a material, placed by a transform.
type Instance struct {
	// Instance-level uniforms. These have the highest
	// precedence.
	Uniforms

	dev       *Device
	mat       *Material
	bin       int
	mesh      *Mesh
	transform mgl32.Mat4
	culling   bool
}

// NewInstance creates a new instance of mesh and adds it
// to a material. material is either the name of a
// material of d or a *Material.
// A nil transform means identity. If culling is true,
// the instance is not drawn in stages whose frustum does
// not contain its bounds.
func (d *Device) NewInstance(material any, mesh *Mesh, transform *mgl32.Mat4, culling bool) (*Instance, error) {
	m, err := d.lookupMaterial(material)
	if err != nil {
		return nil, err
	}
	if mesh == nil || mesh.dev != d {
		return nil, newUsageError(instPrefix, "mesh is nil, freed or belongs to another device")
	}
	inst := &Instance{
		dev:       d,
		mesh:      mesh,
		transform: mgl32.Ident4(),
		culling:   culling,
	}
	if transform != nil {
		inst.transform = *transform
	}
	m.add(inst)
	return inst, nil
}

func (d *Device) lookupMaterial(material any) (*Material, error) {
	switch x := material.(type) {
	case string:
		if m := d.Material(x); m != nil {
			return m, nil
		}
		return nil, newUsageError(instPrefix, "no material named '"+x+"'")
	case *Material:
		if x != nil && x.dev == d {
			return x, nil
		}
		return nil, newUsageError(instPrefix, "material is nil, freed or belongs to another device")
	default:
		return nil, newUsageError(instPrefix, fmt.Sprintf("invalid material type %T", material))
	}
}

// Material returns the material of inst.
func (inst *Instance) Material() *Material { return inst.mat }

// SetMaterial moves inst to another material.
// material is either a material name or a *Material.
func (inst *Instance) SetMaterial(material any) error {
	if inst.dev == nil {
		return newUsageError(instPrefix, "freed instance")
	}
	m, err := inst.dev.lookupMaterial(material)
	if err != nil {
		return err
	}
	if m != inst.mat {
		inst.mat.remove(inst)
		m.add(inst)
	}
	return nil
}

// Mesh returns the mesh of inst.
func (inst *Instance) Mesh() *Mesh { return inst.mesh }

// SetMesh replaces the mesh of inst.
func (inst *Instance) SetMesh(mesh *Mesh) error {
	if inst.dev == nil {
		return newUsageError(instPrefix, "freed instance")
	}
	if mesh == nil || mesh.dev != inst.dev {
		return newUsageError(instPrefix, "mesh is nil, freed or belongs to another device")
	}
	inst.mesh = mesh
	return nil
}

// Transform returns the world transform of inst.
func (inst *Instance) Transform() mgl32.Mat4 { return inst.transform }

// SetTransform sets the world transform of inst.
// A nil m means identity.
func (inst *Instance) SetTransform(m *mgl32.Mat4) {
	if m == nil {
		inst.transform = mgl32.Ident4()
		return
	}
	inst.transform = *m
}

// Culling returns whether inst can be culled.
func (inst *Instance) Culling() bool { return inst.culling }

// SetCulling sets whether inst can be culled.
func (inst *Instance) SetCulling(culling bool) { inst.culling = culling }

// Bounds returns the world bounds of inst.
// It is empty if the mesh has no positions or was freed.
func (inst *Instance) Bounds() AABB {
	if inst.mesh == nil || inst.mesh.dev == nil {
		return EmptyAABB()
	}
	return inst.mesh.bounds.Transform(&inst.transform)
}

// Free removes inst from its material.
func (inst *Instance) Free() {
	if inst.dev == nil {
		return
	}
	if inst.mat != nil {
		inst.mat.remove(inst)
	}
	inst.dev = nil
	inst.mesh = nil
}
