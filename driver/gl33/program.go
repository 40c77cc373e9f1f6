// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl33

import (
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/gviegas/retained/driver"
	"github.com/gviegas/retained/driver/gl33/internal/glsl"
)

// NewShader implements driver.GPU.
func (d *Driver) NewShader(s driver.Stage) driver.Shader {
	return driver.Shader(gl.CreateShader(convStage(s)))
}

// DeleteShader implements driver.GPU.
func (d *Driver) DeleteShader(s driver.Shader) { gl.DeleteShader(uint32(s)) }

// ShaderSource translates src to GLSL 3.30 and sets it
// as the source of s.
func (d *Driver) ShaderSource(s driver.Shader, src string) {
	var typ int32
	gl.GetShaderiv(uint32(s), gl.SHADER_TYPE, &typ)
	stage := driver.SVertex
	if typ == gl.FRAGMENT_SHADER {
		stage = driver.SFragment
	}
	csrc, free := gl.Strs(glsl.Translate(src, stage, d.caps.MaxColorTargets) + "\x00")
	gl.ShaderSource(uint32(s), 1, csrc, nil)
	free()
}

// CompileShader implements driver.GPU.
func (d *Driver) CompileShader(s driver.Shader) bool {
	gl.CompileShader(uint32(s))
	var status int32
	gl.GetShaderiv(uint32(s), gl.COMPILE_STATUS, &status)
	return status != gl.FALSE
}

// ShaderLog returns the normalized info log of s.
func (d *Driver) ShaderLog(s driver.Shader) string {
	var n int32
	gl.GetShaderiv(uint32(s), gl.INFO_LOG_LENGTH, &n)
	if n <= 1 {
		return ""
	}
	log := strings.Repeat("\x00", int(n+1))
	gl.GetShaderInfoLog(uint32(s), n, nil, gl.Str(log))
	return glsl.NormalizeLog(log)
}

// NewProgram implements driver.GPU.
func (d *Driver) NewProgram() driver.Program { return driver.Program(gl.CreateProgram()) }

// DeleteProgram implements driver.GPU.
func (d *Driver) DeleteProgram(p driver.Program) { gl.DeleteProgram(uint32(p)) }

// AttachShader implements driver.GPU.
func (d *Driver) AttachShader(p driver.Program, s driver.Shader) {
	gl.AttachShader(uint32(p), uint32(s))
}

// DetachShader implements driver.GPU.
func (d *Driver) DetachShader(p driver.Program, s driver.Shader) {
	gl.DetachShader(uint32(p), uint32(s))
}

// LinkProgram binds the translated fragment outputs to
// color number zero and links p.
func (d *Driver) LinkProgram(p driver.Program) bool {
	gl.BindFragDataLocation(uint32(p), 0, cstr(glsl.FragColor))
	gl.BindFragDataLocation(uint32(p), 0, cstr(glsl.FragData))
	gl.LinkProgram(uint32(p))
	var status int32
	gl.GetProgramiv(uint32(p), gl.LINK_STATUS, &status)
	return status != gl.FALSE
}

// ProgramLog implements driver.GPU.
func (d *Driver) ProgramLog(p driver.Program) string {
	var n int32
	gl.GetProgramiv(uint32(p), gl.INFO_LOG_LENGTH, &n)
	if n <= 1 {
		return ""
	}
	log := strings.Repeat("\x00", int(n+1))
	gl.GetProgramInfoLog(uint32(p), n, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

// UseProgram implements driver.GPU.
func (d *Driver) UseProgram(p driver.Program) { gl.UseProgram(uint32(p)) }

// active queries the active variables of p.
// Built-in variables are not reported.
func (d *Driver) active(p driver.Program, count, maxLen uint32,
	query func(prog, index uint32, bufSize int32, length, size *int32, typ *uint32, name *uint8)) []driver.Active {

	var n, longest int32
	gl.GetProgramiv(uint32(p), count, &n)
	gl.GetProgramiv(uint32(p), maxLen, &longest)
	if n == 0 {
		return nil
	}
	if cap(d.name) < int(longest)+1 {
		d.name = make([]byte, longest+1)
	}
	buf := d.name[:longest+1]
	s := make([]driver.Active, 0, n)
	for i := range uint32(n) {
		var length, size int32
		var typ uint32
		query(uint32(p), i, int32(len(buf)), &length, &size, &typ, &buf[0])
		name := string(buf[:length])
		if strings.HasPrefix(name, "gl_") {
			continue
		}
		s = append(s, driver.Active{Name: name, Type: dataType(typ), Size: int(size)})
	}
	return s
}

// ActiveAttribs implements driver.GPU.
// Built-in variables are not reported.
func (d *Driver) ActiveAttribs(p driver.Program) []driver.Active {
	return d.active(p, gl.ACTIVE_ATTRIBUTES, gl.ACTIVE_ATTRIBUTE_MAX_LENGTH, gl.GetActiveAttrib)
}

// ActiveUniforms implements driver.GPU.
// Built-in variables are not reported.
func (d *Driver) ActiveUniforms(p driver.Program) []driver.Active {
	return d.active(p, gl.ACTIVE_UNIFORMS, gl.ACTIVE_UNIFORM_MAX_LENGTH, gl.GetActiveUniform)
}

// AttribLocation implements driver.GPU.
func (d *Driver) AttribLocation(p driver.Program, name string) int {
	return int(gl.GetAttribLocation(uint32(p), cstr(name)))
}

// UniformLocation implements driver.GPU.
func (d *Driver) UniformLocation(p driver.Program, name string) int {
	return int(gl.GetUniformLocation(uint32(p), cstr(name)))
}

// Uniform1fv implements driver.GPU.
func (d *Driver) Uniform1fv(loc int, v []float32) {
	if len(v) > 0 {
		gl.Uniform1fv(int32(loc), int32(len(v)), &v[0])
	}
}

// Uniform2fv implements driver.GPU.
func (d *Driver) Uniform2fv(loc int, v []float32) {
	if len(v) >= 2 {
		gl.Uniform2fv(int32(loc), int32(len(v)/2), &v[0])
	}
}

// Uniform3fv implements driver.GPU.
func (d *Driver) Uniform3fv(loc int, v []float32) {
	if len(v) >= 3 {
		gl.Uniform3fv(int32(loc), int32(len(v)/3), &v[0])
	}
}

// Uniform4fv implements driver.GPU.
func (d *Driver) Uniform4fv(loc int, v []float32) {
	if len(v) >= 4 {
		gl.Uniform4fv(int32(loc), int32(len(v)/4), &v[0])
	}
}

// UniformMatrix3fv implements driver.GPU.
func (d *Driver) UniformMatrix3fv(loc int, v []float32) {
	if len(v) >= 9 {
		gl.UniformMatrix3fv(int32(loc), int32(len(v)/9), false, &v[0])
	}
}

// UniformMatrix4fv implements driver.GPU.
func (d *Driver) UniformMatrix4fv(loc int, v []float32) {
	if len(v) >= 16 {
		gl.UniformMatrix4fv(int32(loc), int32(len(v)/16), false, &v[0])
	}
}

// Uniform1i implements driver.GPU.
func (d *Driver) Uniform1i(loc int, v int) { gl.Uniform1i(int32(loc), int32(v)) }

// EnableAttrib implements driver.GPU.
func (d *Driver) EnableAttrib(index int) { gl.EnableVertexAttribArray(uint32(index)) }

// DisableAttrib implements driver.GPU.
func (d *Driver) DisableAttrib(index int) { gl.DisableVertexAttribArray(uint32(index)) }

// AttribPointer implements driver.GPU.
// The attribute is always a float vector read from the
// bound vertex buffer.
func (d *Driver) AttribPointer(index, size int, normalized bool, stride, offset int) {
	gl.VertexAttribPointer(uint32(index), int32(size), gl.FLOAT, normalized, int32(stride), gl.PtrOffset(offset))
}

// DrawArrays implements driver.GPU.
func (d *Driver) DrawArrays(mode driver.Topology, first, count int) {
	gl.DrawArrays(topologies[mode], int32(first), int32(count))
}

// DrawElements implements driver.GPU.
// offset is in bytes from the start of the bound index
// buffer.
func (d *Driver) DrawElements(mode driver.Topology, count int, f driver.IndexFmt, offset int) {
	gl.DrawElements(topologies[mode], int32(count), convIndexFmt(f), gl.PtrOffset(offset))
}
