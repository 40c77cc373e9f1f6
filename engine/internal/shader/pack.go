// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package shader

import (
	"fmt"
	"strings"

	"github.com/gviegas/retained/driver"
)

// Uniform is a uniform to be packed.
type Uniform struct {
	Name string
	Type driver.DataType
}

// Slot is the location of a packed uniform.
type Slot struct {
	Type      driver.DataType
	Register  int
	Component int
}

// Layout maps uniforms to registers of a packed array of
// 4-component float vectors.
type Layout struct {
	Registers int
	Slots     map[string]Slot
	// Packing order.
	Names []string
}

// Packable returns whether a uniform of type t can be
// packed.
func Packable(t driver.DataType) bool {
	switch t {
	case driver.Float, driver.Vec2, driver.Vec3, driver.Vec4, driver.Mat3, driver.Mat4:
		return true
	}
	return false
}

// Pack assigns registers and components to uniforms.
// Uniforms are placed by type, in the order mat4, mat3,
// vec4, vec3, vec2 and float, and in the order given
// within the same type:
//
//	mat4  | 4 whole registers
//	mat3  | .xyz of 3 registers
//	vec4  | 1 whole register
//	vec3  | .xyz of 1 register
//	vec2  | .zw of the last register holding a single
//	      | vec2, or .xy of a new register
//	float | first free component of any register, or
//	      | .x of a new register
//
// Uniforms whose type is not packable are ignored.
func Pack(uniforms []Uniform) *Layout {
	l := &Layout{Slots: make(map[string]Slot)}
	var used [][4]bool
	alloc := func(n int) int {
		r := len(used)
		used = append(used, make([][4]bool, n)...)
		return r
	}
	mark := func(r, c, n int) {
		for i := c; i < c+n; i++ {
			used[r][i] = true
		}
	}
	put := func(u Uniform, r, c int) {
		l.Slots[u.Name] = Slot{u.Type, r, c}
		l.Names = append(l.Names, u.Name)
	}
	bucket := func(t driver.DataType, f func(Uniform)) {
		for _, u := range uniforms {
			if _, dup := l.Slots[u.Name]; u.Type == t && !dup {
				f(u)
			}
		}
	}

	bucket(driver.Mat4, func(u Uniform) {
		r := alloc(4)
		for i := range 4 {
			mark(r+i, 0, 4)
		}
		put(u, r, 0)
	})
	bucket(driver.Mat3, func(u Uniform) {
		r := alloc(3)
		for i := range 3 {
			mark(r+i, 0, 3)
		}
		put(u, r, 0)
	})
	bucket(driver.Vec4, func(u Uniform) {
		r := alloc(1)
		mark(r, 0, 4)
		put(u, r, 0)
	})
	bucket(driver.Vec3, func(u Uniform) {
		r := alloc(1)
		mark(r, 0, 3)
		put(u, r, 0)
	})
	open := -1
	bucket(driver.Vec2, func(u Uniform) {
		if open >= 0 {
			mark(open, 2, 2)
			put(u, open, 2)
			open = -1
			return
		}
		r := alloc(1)
		mark(r, 0, 2)
		put(u, r, 0)
		open = r
	})
	bucket(driver.Float, func(u Uniform) {
		for r := range used {
			for c := range 4 {
				if !used[r][c] {
					mark(r, c, 1)
					put(u, r, c)
					return
				}
			}
		}
		r := alloc(1)
		mark(r, 0, 1)
		put(u, r, 0)
	})
	l.Registers = len(used)
	return l
}

// Len returns the number of floats in a buffer that
// holds every register of l.
func (l *Layout) Len() int { return l.Registers * 4 }

// Set copies v into the slot of the named uniform in buf.
// Matrices are given in column-major order.
// It returns false if the uniform is not in l.
func (l *Layout) Set(buf []float32, name string, v []float32) bool {
	s, ok := l.Slots[name]
	if !ok {
		return false
	}
	i := s.Register*4 + s.Component
	switch s.Type {
	case driver.Mat4:
		copy(buf[i:i+16], v)
	case driver.Mat3:
		for col := range 3 {
			if len(v) < col*3+3 {
				break
			}
			copy(buf[i+col*4:i+col*4+3], v[col*3:col*3+3])
		}
	default:
		n := min(s.Type.Components(), len(v))
		copy(buf[i:i+n], v[:n])
	}
	return true
}

// Get returns the value of the named uniform stored in
// buf, or nil if the uniform is not in l.
func (l *Layout) Get(buf []float32, name string) []float32 {
	s, ok := l.Slots[name]
	if !ok {
		return nil
	}
	i := s.Register*4 + s.Component
	switch s.Type {
	case driver.Mat3:
		v := make([]float32, 0, 9)
		for col := range 3 {
			v = append(v, buf[i+col*4:i+col*4+3]...)
		}
		return v
	default:
		return append([]float32(nil), buf[i:i+s.Type.Components()]...)
	}
}

var swizzle = [4]string{"x", "y", "z", "w"}

// Expr returns the expression that reads the named
// uniform from the packed array called packed.
func (l *Layout) Expr(name, packed string) string {
	s, ok := l.Slots[name]
	if !ok {
		return ""
	}
	reg := func(i int) string { return fmt.Sprintf("%s[%d]", packed, s.Register+i) }
	switch s.Type {
	case driver.Mat4:
		return fmt.Sprintf("mat4(%s, %s, %s, %s)", reg(0), reg(1), reg(2), reg(3))
	case driver.Mat3:
		return fmt.Sprintf("mat3(%s.xyz, %s.xyz, %s.xyz)", reg(0), reg(1), reg(2))
	case driver.Vec4:
		return reg(0)
	default:
		n := s.Type.Components()
		return reg(0) + "." + strings.Join(swizzle[s.Component:s.Component+n], "")
	}
}
