// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// EmptyAABB returns a box that contains nothing.
// Extending it with a point yields a box containing
// only that point.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// Empty returns whether b is empty or degenerate (i.e.,
// a single point).
func (b AABB) Empty() bool {
	for i := range 3 {
		if b.Min[i] > b.Max[i] {
			return true
		}
	}
	return b.Min == b.Max
}

// Extend returns b extended to contain p.
func (b AABB) Extend(p mgl32.Vec3) AABB {
	for i := range 3 {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
	return b
}

// Transform returns the box that contains b transformed
// by m.
func (b AABB) Transform(m *mgl32.Mat4) AABB {
	if b.Empty() {
		return b
	}
	t := EmptyAABB()
	for i := range 8 {
		p := mgl32.Vec4{b.Min[0], b.Min[1], b.Min[2], 1}
		if i&1 != 0 {
			p[0] = b.Max[0]
		}
		if i&2 != 0 {
			p[1] = b.Max[1]
		}
		if i&4 != 0 {
			p[2] = b.Max[2]
		}
		t = t.Extend(m.Mul4x1(p).Vec3())
	}
	return t
}

// Frustum is a set of six planes (left, right, bottom,
// top, near and far) facing inward.
// Each plane is stored as (a, b, c, d), with a unit
// normal (a, b, c), so that the signed distance of a
// point p is dot((a, b, c), p) + d.
type Frustum [6]mgl32.Vec4

// Set extracts the planes of a view-projection matrix.
func (f *Frustum) Set(vp *mgl32.Mat4) {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)
	f[0] = r3.Add(r0)
	f[1] = r3.Sub(r0)
	f[2] = r3.Add(r1)
	f[3] = r3.Sub(r1)
	f[4] = r3.Add(r2)
	f[5] = r3.Sub(r2)
	for i := range f {
		n := math32.Sqrt(f[i][0]*f[i][0] + f[i][1]*f[i][1] + f[i][2]*f[i][2])
		if n > 0 {
			f[i] = f[i].Mul(1 / n)
		}
	}
}

// Distance returns the signed distance of p from the
// i-th plane.
func (f *Frustum) Distance(i int, p mgl32.Vec3) float32 {
	return f[i][0]*p[0] + f[i][1]*p[1] + f[i][2]*p[2] + f[i][3]
}

// Contains returns whether b is not entirely behind any
// of the planes of f, within eps.
// Empty boxes are always contained.
func (f *Frustum) Contains(b AABB, eps float32) bool {
	if b.Empty() {
		return true
	}
	for i := range f {
		// Farthest corner along the plane normal.
		var p mgl32.Vec3
		for j := range 3 {
			if f[i][j] >= 0 {
				p[j] = b.Max[j]
			} else {
				p[j] = b.Min[j]
			}
		}
		if f.Distance(i, p) < -eps {
			return false
		}
	}
	return true
}
