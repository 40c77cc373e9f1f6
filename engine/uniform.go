// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"fmt"
	"maps"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/retained/driver"
)

// Live is a placeholder for a value that is computed
// when uniforms are pushed into a pass.
// Live values can be set at any level.
type Live int

// Live values.
const (
	// Seconds since the first frame (float).
	LiveTime Live = iota
	// Seconds since the previous frame (float).
	LiveDelta
	// Stage's view matrix (mat4).
	LiveView
	// Inverse of the stage's view matrix (mat4).
	LiveViewInverse
	// World position of the stage's viewer (vec3).
	LiveViewPosition
	// World direction the stage's viewer faces (vec3).
	LiveViewDirection
	// Stage's projection matrix (mat4).
	LiveProjection
	// Stage's projection times view (mat4).
	LiveViewProjection
	// Instance's transform (mat4).
	LiveTransform
	// Inverse transpose of the upper 3x3 of the
	// instance's transform (mat3).
	LiveNormalTransform

	maxLive
)

// String implements fmt.Stringer.
func (l Live) String() string {
	switch l {
	case LiveTime:
		return "LiveTime"
	case LiveDelta:
		return "LiveDelta"
	case LiveView:
		return "LiveView"
	case LiveViewInverse:
		return "LiveViewInverse"
	case LiveViewPosition:
		return "LiveViewPosition"
	case LiveViewDirection:
		return "LiveViewDirection"
	case LiveProjection:
		return "LiveProjection"
	case LiveViewProjection:
		return "LiveViewProjection"
	case LiveTransform:
		return "LiveTransform"
	case LiveNormalTransform:
		return "LiveNormalTransform"
	default:
		return fmt.Sprintf("Live(%d)", int(l))
	}
}

// Uniforms holds named uniform values.
// It is embedded in Device, Stage, Material and
// Instance. When the same name is set at more than one
// level, the value used for a draw is the one from the
// most specific level (Instance, then Material, then
// Stage, then Device).
//
// Valid values are float32, mgl32.Vec2, mgl32.Vec3,
// mgl32.Vec4, mgl32.Mat3, mgl32.Mat4, []float32 (for
// array uniforms), *Texture and *Depth (for samplers)
// and Live.
type Uniforms struct {
	vals map[string]any
}

// SetUniform sets the value of a uniform.
// A nil value unsets it.
func (u *Uniforms) SetUniform(name string, value any) error {
	switch v := value.(type) {
	case nil:
		delete(u.vals, name)
		return nil
	case float32, mgl32.Vec2, mgl32.Vec3, mgl32.Vec4, mgl32.Mat3, mgl32.Mat4, *Texture:
	case []float32:
		value = append([]float32(nil), v...)
	case *Depth:
		if !v.readable {
			return newUsageError(uniformPrefix, "depth '"+name+"' is not readable")
		}
	case Live:
		if v < 0 || v >= maxLive {
			return newUsageError(uniformPrefix, "invalid live value for '"+name+"'")
		}
	default:
		return newUsageError(uniformPrefix, fmt.Sprintf("unsupported value type %T for '%s'", value, name))
	}
	if name == "" {
		return newUsageError(uniformPrefix, "empty name")
	}
	if u.vals == nil {
		u.vals = make(map[string]any)
	}
	u.vals[name] = value
	return nil
}

// Uniform returns the value of a uniform.
func (u *Uniforms) Uniform(name string) (any, bool) {
	v, ok := u.vals[name]
	return v, ok
}

// UnsetUniform unsets a uniform.
func (u *Uniforms) UnsetUniform(name string) { delete(u.vals, name) }

// UniformNames returns the names of the uniforms that
// are set, in no particular order.
func (u *Uniforms) UniformNames() []string {
	s := make([]string, 0, len(u.vals))
	for k := range maps.Keys(u.vals) {
		s = append(s, k)
	}
	return s
}

// liveEnv holds what live values are computed from.
type liveEnv struct {
	time  float32
	delta float32
	stage *Stage
	inst  *Instance
}

// resolve computes the value of l.
func (e *liveEnv) resolve(l Live) any {
	switch l {
	case LiveTime:
		return e.time
	case LiveDelta:
		return e.delta
	case LiveView:
		return e.stage.View
	case LiveViewInverse:
		return e.stage.View.Inv()
	case LiveViewPosition:
		return e.stage.View.Inv().Col(3).Vec3()
	case LiveViewDirection:
		return e.stage.View.Inv().Col(2).Vec3().Mul(-1).Normalize()
	case LiveProjection:
		return e.stage.Projection
	case LiveViewProjection:
		return e.stage.Projection.Mul4(e.stage.View)
	case LiveTransform:
		return e.inst.transform
	case LiveNormalTransform:
		return e.inst.transform.Mat3().Inv().Transpose()
	}
	return nil
}

// floats converts a uniform value into the float data
// expected by a uniform of type typ and array length n
// (0 if not an array).
// It returns false if the value does not fit the type.
func floats(v any, typ driver.DataType, n int) ([]float32, bool) {
	switch v := v.(type) {
	case float32:
		return []float32{v}, typ == driver.Float && n == 0
	case mgl32.Vec2:
		return v[:], typ == driver.Vec2 && n == 0
	case mgl32.Vec3:
		return v[:], typ == driver.Vec3 && n == 0
	case mgl32.Vec4:
		return v[:], typ == driver.Vec4 && n == 0
	case mgl32.Mat3:
		return v[:], typ == driver.Mat3 && n == 0
	case mgl32.Mat4:
		return v[:], typ == driver.Mat4 && n == 0
	case []float32:
		c := typ.Components()
		if c == 0 || len(v) == 0 || len(v)%c != 0 {
			return nil, false
		}
		return v, n == 0 && len(v) == c || len(v) <= c*n
	}
	return nil, false
}

// defaultFloats returns the value used for unset uniforms
// of type typ: identity for matrices and zero otherwise.
func defaultFloats(typ driver.DataType) []float32 {
	switch typ {
	case driver.Mat3:
		m := mgl32.Ident3()
		return m[:]
	case driver.Mat4:
		m := mgl32.Ident4()
		return m[:]
	}
	return make([]float32, typ.Components())
}
