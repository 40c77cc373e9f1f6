// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package headless

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/gviegas/retained/driver"
)

type decl struct {
	name string
	typ  driver.DataType
	size int
}

type shader struct {
	stage    driver.Stage
	src      string
	compiled bool
	log      string
	attribs  []decl
	uniforms []decl
}

type uniform struct {
	decl
	loc    int
	values []float32
	unit   int
}

type program struct {
	shaders  []driver.Shader
	linked   bool
	log      string
	attribs  []decl
	attrLoc  map[string]int
	uniforms []*uniform
}

// NewShader implements driver.GPU.
func (g *GPU) NewShader(s driver.Stage) driver.Shader {
	if !g.call("NewShader") {
		return 0
	}
	sh := driver.Shader(g.newName())
	g.shaders[sh] = &shader{stage: s}
	return sh
}

// DeleteShader implements driver.GPU.
func (g *GPU) DeleteShader(s driver.Shader) {
	if g.call("DeleteShader") {
		delete(g.shaders, s)
	}
}

// ShaderSource implements driver.GPU.
func (g *GPU) ShaderSource(s driver.Shader, src string) {
	if !g.call("ShaderSource") {
		return
	}
	if sh, ok := g.shaders[s]; ok {
		sh.src = src
		sh.compiled = false
	}
}

// Source returns the source last set for s.
func (g *GPU) Source(s driver.Shader) string {
	if sh, ok := g.shaders[s]; ok {
		return sh.src
	}
	return ""
}

// CompileShader implements driver.GPU.
// Compilation checks a small subset of the GLSL ES rules:
// a non-empty source, #version placement, #error
// directives, supported #extension directives, the
// extension required by derivative functions and the
// default float precision of fragment shaders.
func (g *GPU) CompileShader(s driver.Shader) bool {
	if !g.call("CompileShader") {
		return false
	}
	sh, ok := g.shaders[s]
	if !ok {
		return false
	}
	var log strings.Builder
	errf := func(line int, format string, args ...any) {
		fmt.Fprintf(&log, "ERROR: 0:%d: %s\n", line, fmt.Sprintf(format, args...))
	}
	sh.attribs, sh.uniforms = nil, nil
	src := stripComments(sh.src)
	if strings.TrimSpace(src) == "" {
		errf(0, "empty source")
	}
	exts := make(map[string]bool)
	var precision bool
	firstLine := true
	for i, line := range strings.Split(src, "\n") {
		n := i + 1
		f := fields(line)
		if len(f) == 0 {
			continue
		}
		switch f[0] {
		case "#version":
			if !firstLine {
				errf(n, "#version directive must occur before anything else")
			}
		case "#error":
			errf(n, "%s", strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#error")))
		case "#extension":
			if len(f) < 2 {
				errf(n, "malformed #extension directive")
				break
			}
			if !g.supportsExt(f[1]) {
				errf(n, "extension '%s' is not supported", f[1])
			}
			exts[f[1]] = true
		case "precision":
			if len(f) >= 3 && f[2] == "float" {
				precision = true
			}
		case "uniform":
			if d, ok := parseDecl(f[1:]); ok {
				sh.uniforms = append(sh.uniforms, d)
			}
		case "attribute", "in":
			if sh.stage == driver.SVertex {
				if d, ok := parseDecl(f[1:]); ok {
					sh.attribs = append(sh.attribs, d)
				}
			}
		}
		firstLine = false
		if sh.stage == driver.SFragment && g.caps.Ext.Derivatives != "" && !exts[g.caps.Ext.Derivatives] {
			for _, fn := range [...]string{"dFdx", "dFdy", "fwidth"} {
				if hasCall(line, fn) {
					errf(n, "'%s' : requires extension %s", fn, g.caps.Ext.Derivatives)
					break
				}
			}
		}
	}
	if sh.stage == driver.SFragment && !precision && g.caps.FloatPrecision != 0 && hasFloats(src) {
		errf(0, "No precision specified for (float)")
	}
	sh.log = log.String()
	sh.compiled = sh.log == ""
	return sh.compiled
}

func (g *GPU) supportsExt(name string) bool {
	switch name {
	case "":
		return false
	case g.caps.Ext.Derivatives:
		return g.caps.Derivatives
	case g.caps.Ext.FragDepth:
		return g.caps.FragDepth
	case g.caps.Ext.DrawBuffers:
		return g.caps.MaxColorTargets > 1
	}
	return false
}

// ShaderLog implements driver.GPU.
func (g *GPU) ShaderLog(s driver.Shader) string {
	if !g.call("ShaderLog") {
		return ""
	}
	if sh, ok := g.shaders[s]; ok {
		return sh.log
	}
	return ""
}

// NewProgram implements driver.GPU.
func (g *GPU) NewProgram() driver.Program {
	if !g.call("NewProgram") {
		return 0
	}
	p := driver.Program(g.newName())
	g.programs[p] = &program{}
	return p
}

// DeleteProgram implements driver.GPU.
func (g *GPU) DeleteProgram(p driver.Program) {
	if !g.call("DeleteProgram") {
		return
	}
	delete(g.programs, p)
	if g.bind.program == p {
		g.bind.program = 0
	}
}

// AttachShader implements driver.GPU.
func (g *GPU) AttachShader(p driver.Program, s driver.Shader) {
	if !g.call("AttachShader") {
		return
	}
	if prog, ok := g.programs[p]; ok {
		prog.shaders = append(prog.shaders, s)
	}
}

// DetachShader implements driver.GPU.
func (g *GPU) DetachShader(p driver.Program, s driver.Shader) {
	if !g.call("DetachShader") {
		return
	}
	if prog, ok := g.programs[p]; ok {
		for i, x := range prog.shaders {
			if x == s {
				prog.shaders = append(prog.shaders[:i], prog.shaders[i+1:]...)
				break
			}
		}
	}
}

// AttachedShaders returns the number of shaders attached
// to p.
func (g *GPU) AttachedShaders(p driver.Program) int {
	if prog, ok := g.programs[p]; ok {
		return len(prog.shaders)
	}
	return 0
}

// LinkProgram implements driver.GPU.
func (g *GPU) LinkProgram(p driver.Program) bool {
	if !g.call("LinkProgram") {
		return false
	}
	prog, ok := g.programs[p]
	if !ok {
		return false
	}
	*prog = program{shaders: prog.shaders}
	var vert, frag *shader
	for _, s := range prog.shaders {
		sh, ok := g.shaders[s]
		if !ok || !sh.compiled {
			prog.log = "ERROR: attached shader not compiled\n"
			return false
		}
		switch sh.stage {
		case driver.SVertex:
			vert = sh
		case driver.SFragment:
			frag = sh
		}
	}
	if vert == nil || frag == nil {
		prog.log = "ERROR: missing vertex or fragment shader\n"
		return false
	}

	words := countWords(stripComments(vert.src))
	for k, v := range countWords(stripComments(frag.src)) {
		words[k] += v
	}
	declared := make(map[string]int)
	types := make(map[string]decl)
	for _, sh := range [2]*shader{vert, frag} {
		for _, d := range sh.uniforms {
			if t, ok := types[d.name]; ok && (t.typ != d.typ || t.size != d.size) {
				prog.log = fmt.Sprintf("ERROR: uniform '%s' differs between shader stages\n", d.name)
				return false
			}
			types[d.name] = d
			declared[d.name]++
		}
	}
	for _, d := range vert.attribs {
		declared[d.name]++
	}

	prog.attrLoc = make(map[string]int)
	for _, d := range vert.attribs {
		if words[d.name] > declared[d.name] {
			prog.attrLoc[d.name] = len(prog.attribs)
			prog.attribs = append(prog.attribs, d)
		}
	}
	loc := 0
	seen := make(map[string]bool)
	for _, sh := range [2]*shader{vert, frag} {
		for _, d := range sh.uniforms {
			if seen[d.name] || words[d.name] <= declared[d.name] {
				continue
			}
			seen[d.name] = true
			u := &uniform{decl: d, loc: loc}
			n := d.typ.Components()
			if n == 0 {
				n = 1
			}
			u.values = make([]float32, n*d.size)
			prog.uniforms = append(prog.uniforms, u)
			loc += d.size
		}
	}
	prog.linked = true
	return true
}

// ProgramLog implements driver.GPU.
func (g *GPU) ProgramLog(p driver.Program) string {
	if !g.call("ProgramLog") {
		return ""
	}
	if prog, ok := g.programs[p]; ok {
		return prog.log
	}
	return ""
}

// UseProgram implements driver.GPU.
func (g *GPU) UseProgram(p driver.Program) {
	if !g.call("UseProgram") {
		return
	}
	if prog, ok := g.programs[p]; p != 0 && (!ok || !prog.linked) {
		g.errorf("UseProgram: program %d not linked", p)
		return
	}
	g.bind.program = p
}

// ActiveAttribs implements driver.GPU.
func (g *GPU) ActiveAttribs(p driver.Program) []driver.Active {
	if !g.call("ActiveAttribs") {
		return nil
	}
	prog, ok := g.programs[p]
	if !ok || !prog.linked {
		return nil
	}
	s := make([]driver.Active, len(prog.attribs))
	for i, d := range prog.attribs {
		s[i] = driver.Active{Name: d.name, Type: d.typ, Size: d.size}
	}
	return s
}

// ActiveUniforms implements driver.GPU.
// Arrays are reported with a "[0]" suffix.
func (g *GPU) ActiveUniforms(p driver.Program) []driver.Active {
	if !g.call("ActiveUniforms") {
		return nil
	}
	prog, ok := g.programs[p]
	if !ok || !prog.linked {
		return nil
	}
	s := make([]driver.Active, len(prog.uniforms))
	for i, u := range prog.uniforms {
		name := u.name
		if u.size > 1 {
			name += "[0]"
		}
		s[i] = driver.Active{Name: name, Type: u.typ, Size: u.size}
	}
	return s
}

// AttribLocation implements driver.GPU.
func (g *GPU) AttribLocation(p driver.Program, name string) int {
	if !g.call("AttribLocation") {
		return -1
	}
	prog, ok := g.programs[p]
	if !ok || !prog.linked {
		return -1
	}
	if loc, ok := prog.attrLoc[name]; ok {
		return loc
	}
	return -1
}

// UniformLocation implements driver.GPU.
func (g *GPU) UniformLocation(p driver.Program, name string) int {
	if !g.call("UniformLocation") {
		return -1
	}
	prog, ok := g.programs[p]
	if !ok || !prog.linked {
		return -1
	}
	base, idx := name, 0
	if i := strings.IndexByte(name, '['); i > 0 && strings.HasSuffix(name, "]") {
		n, err := strconv.Atoi(name[i+1 : len(name)-1])
		if err != nil {
			return -1
		}
		base, idx = name[:i], n
	}
	for _, u := range prog.uniforms {
		if u.name == base && idx < u.size {
			return u.loc + idx
		}
	}
	return -1
}

func (g *GPU) uniformAt(loc int) (*uniform, int) {
	prog, ok := g.programs[g.bind.program]
	if !ok {
		return nil, 0
	}
	for _, u := range prog.uniforms {
		if loc >= u.loc && loc < u.loc+u.size {
			return u, loc - u.loc
		}
	}
	return nil, 0
}

func (g *GPU) uniformfv(name string, typ driver.DataType, loc int, v []float32) {
	if !g.call(name) || loc < 0 {
		return
	}
	u, idx := g.uniformAt(loc)
	if u == nil {
		g.errorf("%s: invalid location %d", name, loc)
		return
	}
	if u.typ != typ {
		g.errorf("%s: uniform '%s' has type %v", name, u.name, u.typ)
		return
	}
	n := typ.Components()
	if len(v)%n != 0 || idx+len(v)/n > u.size {
		g.errorf("%s: uniform '%s' overflow", name, u.name)
		return
	}
	copy(u.values[idx*n:], v)
}

// Uniform1fv implements driver.GPU.
func (g *GPU) Uniform1fv(loc int, v []float32) { g.uniformfv("Uniform1fv", driver.Float, loc, v) }

// Uniform2fv implements driver.GPU.
func (g *GPU) Uniform2fv(loc int, v []float32) { g.uniformfv("Uniform2fv", driver.Vec2, loc, v) }

// Uniform3fv implements driver.GPU.
func (g *GPU) Uniform3fv(loc int, v []float32) { g.uniformfv("Uniform3fv", driver.Vec3, loc, v) }

// Uniform4fv implements driver.GPU.
func (g *GPU) Uniform4fv(loc int, v []float32) { g.uniformfv("Uniform4fv", driver.Vec4, loc, v) }

// UniformMatrix3fv implements driver.GPU.
func (g *GPU) UniformMatrix3fv(loc int, v []float32) {
	g.uniformfv("UniformMatrix3fv", driver.Mat3, loc, v)
}

// UniformMatrix4fv implements driver.GPU.
func (g *GPU) UniformMatrix4fv(loc int, v []float32) {
	g.uniformfv("UniformMatrix4fv", driver.Mat4, loc, v)
}

// Uniform1i implements driver.GPU.
func (g *GPU) Uniform1i(loc int, v int) {
	if !g.call("Uniform1i") || loc < 0 {
		return
	}
	u, _ := g.uniformAt(loc)
	if u == nil {
		g.errorf("Uniform1i: invalid location %d", loc)
		return
	}
	if u.typ != driver.Sampler2D && u.typ != driver.SamplerCube && u.typ != driver.Int && u.typ != driver.Bool {
		g.errorf("Uniform1i: uniform '%s' has type %v", u.name, u.typ)
		return
	}
	u.unit = v
}

// UniformValue returns the values of a uniform of p, by
// base name.
func (g *GPU) UniformValue(p driver.Program, name string) []float32 {
	prog, ok := g.programs[p]
	if !ok {
		return nil
	}
	for _, u := range prog.uniforms {
		if u.name == name {
			return append([]float32(nil), u.values...)
		}
	}
	return nil
}

// EnableAttrib implements driver.GPU.
func (g *GPU) EnableAttrib(index int) {
	if !g.call("EnableAttrib") {
		return
	}
	if index < 0 || index >= g.caps.MaxVertexAttribs {
		g.errorf("EnableAttrib: invalid index %d", index)
		return
	}
	a := g.attrs[index]
	if a == nil {
		a = &attrib{}
		g.attrs[index] = a
	}
	a.enabled = true
}

// DisableAttrib implements driver.GPU.
func (g *GPU) DisableAttrib(index int) {
	if !g.call("DisableAttrib") {
		return
	}
	if a := g.attrs[index]; a != nil {
		a.enabled = false
	}
}

// AttribPointer implements driver.GPU.
func (g *GPU) AttribPointer(index, size int, normalized bool, stride, offset int) {
	if !g.call("AttribPointer") {
		return
	}
	if g.bind.array == 0 {
		g.errorf("AttribPointer: no buffer bound")
		return
	}
	a := g.attrs[index]
	if a == nil {
		a = &attrib{}
		g.attrs[index] = a
	}
	a.buf, a.size, a.normalized, a.stride, a.offset = g.bind.array, size, normalized, stride, offset
}

func (g *GPU) draw(name string, mode driver.Topology, count int, indexed bool) {
	if !g.call(name) {
		return
	}
	prog, ok := g.programs[g.bind.program]
	if !ok {
		g.errorf("%s: no program", name)
		return
	}
	// Disabled arrays source the generic attribute value.
	for _, d := range prog.attribs {
		a := g.attrs[prog.attrLoc[d.name]]
		if a != nil && a.enabled && a.buf == 0 {
			g.errorf("%s: attribute '%s' has no data", name, d.name)
			return
		}
	}
	if indexed && g.bind.index == 0 {
		g.errorf("%s: no index buffer", name)
		return
	}
	if g.bind.fb != 0 {
		if err := g.checkFramebuffer(g.bind.fb); err != nil {
			g.errorf("%s: %v", name, err)
			return
		}
	}
	d := Draw{
		Program:     g.bind.program,
		Framebuffer: g.bind.fb,
		Mode:        mode,
		Count:       count,
		Indexed:     indexed,
		Uniforms:    make(map[string][]float32),
		Units:       make(map[string]int),
		Textures:    make(map[string]driver.Texture),
		State:       g.state,
	}
	for _, u := range prog.uniforms {
		switch u.typ {
		case driver.Sampler2D:
			d.Units[u.name] = u.unit
			d.Textures[u.name] = g.bind.units[u.unit][driver.Tex2D]
		case driver.SamplerCube:
			d.Units[u.name] = u.unit
			d.Textures[u.name] = g.bind.units[u.unit][driver.TexCube]
		default:
			d.Uniforms[u.name] = append([]float32(nil), u.values...)
		}
	}
	g.draws = append(g.draws, d)
}

// DrawArrays implements driver.GPU.
func (g *GPU) DrawArrays(mode driver.Topology, first, count int) {
	g.draw("DrawArrays", mode, count, false)
}

// DrawElements implements driver.GPU.
func (g *GPU) DrawElements(mode driver.Topology, count int, f driver.IndexFmt, offset int) {
	if f == driver.Index32 && !g.caps.Index32 && !g.lost {
		g.errorf("DrawElements: 32-bit indices not supported")
		return
	}
	g.draw("DrawElements", mode, count, true)
}

// Clone returns a copy of the uniforms recorded by d.
func (d *Draw) Clone() Draw {
	c := *d
	c.Uniforms = make(map[string][]float32, len(d.Uniforms))
	for k, v := range d.Uniforms {
		c.Uniforms[k] = append([]float32(nil), v...)
	}
	c.Units = maps.Clone(d.Units)
	c.Textures = maps.Clone(d.Textures)
	return c
}
