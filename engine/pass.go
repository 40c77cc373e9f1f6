// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/gviegas/retained/driver"
	"github.com/gviegas/retained/engine/internal/shader"
)

// Attrib is an active vertex attribute of a Pass.
type Attrib struct {
	Name     string
	Type     driver.DataType
	Location int
}

// Slot is the location of a packed uniform in the
// register array of a Pass.
type Slot struct {
	Type      driver.DataType
	Register  int
	Component int
}

type uniformKind int

const (
	uPacked uniformKind = iota
	uArray
	uSampler
)

// passUniform is an active uniform of a Pass.
type passUniform struct {
	name string
	typ  driver.DataType
	kind uniformKind
	// Array length (uArray only).
	n int
	// Location (uArray and uSampler only).
	loc int
	// Texture unit (uSampler only).
	unit int
}

// program is the result of compiling a Pass.
type program struct {
	prog    driver.Program
	shaders [2]driver.Shader
	src     [2]string
	// Lines injected at the start of each source.
	lines     [2]int
	attribs   []Attrib
	uniforms  []passUniform
	layout    *shader.Layout
	packedLoc int
}

// Pass is a compiled shader program plus the fixed-function
// state and samplers used to draw with it.
// Non-array float uniforms are packed into a single array
// of vec4 registers, uploaded with one call per draw.
type Pass struct {
	handle
	dev *Device
	// State is the fixed-function state set when the
	// pass is bound. It can be changed at any time.
	State RenderState

	orig     [2]string
	macros   map[string]string
	samplers map[string]*Sampler
	program
	// Scratch packed buffer.
	buf []float32
}

// NewPass compiles a new pass from vertex and fragment
// shader sources. Each macro is defined before the source
// body as
//
//	#define KEY VALUE
//
// It returns a *CompileError, *LinkError or
// *IntrospectError if the sources are not valid.
// It returns ErrLost if the device is lost.
func (d *Device) NewPass(vs, fs string, macros map[string]string) (*Pass, error) {
	if err := checkSources(vs, fs, macros); err != nil {
		return nil, err
	}
	if d.lost {
		return nil, ErrLost
	}
	p := &Pass{
		dev:      d,
		State:    DefaultRenderState(),
		orig:     [2]string{vs, fs},
		macros:   maps.Clone(macros),
		samplers: make(map[string]*Sampler),
	}
	prog, err := d.compilePass(vs, fs, p.macros)
	if err != nil {
		return nil, err
	}
	p.program = *prog
	p.initSamplers()
	d.passes.insert(p)
	Logger().Debug("pass created",
		slog.Int("id", p.id),
		slog.Int("attributes", len(p.attribs)),
		slog.Int("uniforms", len(p.uniforms)),
		slog.Int("registers", p.Registers()))
	return p, nil
}

func checkSources(vs, fs string, macros map[string]string) error {
	var reason string
	switch {
	case strings.TrimSpace(vs) == "":
		reason = "empty vertex source"
	case strings.TrimSpace(fs) == "":
		reason = "empty fragment source"
	default:
		for k, v := range macros {
			if !isIdent(k) {
				reason = "invalid macro name '" + k + "'"
				break
			}
			if strings.ContainsAny(v, "\r\n") {
				reason = "macro '" + k + "' spans multiple lines"
				break
			}
		}
		if reason == "" {
			return nil
		}
	}
	return newConfigError(passPrefix, reason)
}

// Recompile replaces the program of p with one compiled
// from new sources. Samplers and state are kept.
// If compilation fails, p is left unchanged.
func (p *Pass) Recompile(vs, fs string, macros map[string]string) error {
	if p.dev == nil {
		return newUsageError(passPrefix, "freed pass")
	}
	if err := checkSources(vs, fs, macros); err != nil {
		return err
	}
	if p.dev.lost {
		return ErrLost
	}
	macros = maps.Clone(macros)
	prog, err := p.dev.compilePass(vs, fs, macros)
	if err != nil {
		return err
	}
	p.deleteProgram()
	p.orig = [2]string{vs, fs}
	p.macros = macros
	p.program = *prog
	p.initSamplers()
	p.dev.frame.invalidatePass()
	Logger().Debug("pass recompiled", slog.Int("id", p.id), slog.Int("registers", p.Registers()))
	return nil
}

// compileStages compiles src into a program.
// lines has the number of lines that preprocessing
// inserted in each source, which is subtracted from the
// line numbers of compiler diagnostics.
func (d *Device) compileStages(src [2]string, lines [2]int) (*program, error) {
	gpu := d.gpu
	var cerr CompileError
	var failed bool
	var shaders [2]driver.Shader
	for i, st := range [2]driver.Stage{driver.SVertex, driver.SFragment} {
		shaders[i] = gpu.NewShader(st)
		gpu.ShaderSource(shaders[i], src[i])
		if gpu.CompileShader(shaders[i]) {
			continue
		}
		failed = true
		log := gpu.ShaderLog(shaders[i])
		for _, e := range parseCompileLog(st, log) {
			if e.Line > lines[i] {
				e.Line -= lines[i]
			}
			cerr.Entries = append(cerr.Entries, e)
		}
		cerr.Log += log
	}
	if failed {
		gpu.DeleteShader(shaders[0])
		gpu.DeleteShader(shaders[1])
		return nil, &cerr
	}
	prog := gpu.NewProgram()
	gpu.AttachShader(prog, shaders[0])
	gpu.AttachShader(prog, shaders[1])
	if !gpu.LinkProgram(prog) {
		log := gpu.ProgramLog(prog)
		gpu.DeleteProgram(prog)
		gpu.DeleteShader(shaders[0])
		gpu.DeleteShader(shaders[1])
		return nil, &LinkError{log}
	}
	gpu.DetachShader(prog, shaders[0])
	gpu.DetachShader(prog, shaders[1])
	return &program{prog: prog, shaders: shaders, src: src, lines: lines, packedLoc: -1}, nil
}

// delete releases the GPU objects of x.
func (x *program) delete(gpu driver.GPU) {
	if x.prog != 0 {
		gpu.DeleteProgram(x.prog)
	}
	for _, s := range x.shaders {
		if s != 0 {
			gpu.DeleteShader(s)
		}
	}
	x.prog = 0
	x.shaders = [2]driver.Shader{}
}

func (p *Pass) deleteProgram() {
	if !p.dev.lost {
		p.program.delete(p.dev.gpu)
	}
}

// isSupported returns whether t is a valid uniform type.
func isSupported(t driver.DataType) bool {
	switch t {
	case driver.Float, driver.Vec2, driver.Vec3, driver.Vec4, driver.Mat3, driver.Mat4,
		driver.Sampler2D, driver.SamplerCube:
		return true
	}
	return false
}

func isSampler(t driver.DataType) bool { return t == driver.Sampler2D || t == driver.SamplerCube }

// compilePass runs both compilation cycles.
// The first compiles the preprocessed sources to find the
// active uniforms. If any of them can be packed, the
// sources are rewritten and compiled a second time.
func (d *Device) compilePass(vs, fs string, macros map[string]string) (*program, error) {
	gpu := d.gpu
	orig := [2]string{vs, fs}
	var src [2]string
	var lines [2]int
	for i := range orig {
		src[i], lines[i] = shader.Preprocess(orig[i], macros, &d.caps)
	}
	prog, err := d.compileStages(src, lines)
	if err != nil {
		return nil, err
	}

	decls := [2][]shader.Decl{shader.Declarations(vs), shader.Declarations(fs)}
	declared := func(name string) (driver.Stage, *shader.Decl) {
		for i := range decls {
			for j := range decls[i] {
				if decls[i][j].Name == name {
					return driver.Stage(i), &decls[i][j]
				}
			}
		}
		return driver.SVertex, nil
	}
	for i := range decls {
		for _, x := range decls[i] {
			if x.Name == d.cfg.PackedName {
				prog.delete(gpu)
				return nil, newConfigError(passPrefix, "uniform name '"+x.Name+"' is reserved")
			}
		}
	}

	var packable []shader.Uniform
	units := 0
	for _, a := range gpu.ActiveUniforms(prog.prog) {
		name, isArray := strings.CutSuffix(a.Name, "[0]")
		st, decl := declared(name)
		if !isSupported(a.Type) {
			prog.delete(gpu)
			return nil, &IntrospectError{Uniform: name, Stage: st}
		}
		isArray = isArray || a.Size > 1 || decl != nil && decl.Len > 0
		u := passUniform{name: name, typ: a.Type, loc: -1}
		switch {
		case isSampler(a.Type):
			if isArray {
				prog.delete(gpu)
				return nil, &IntrospectError{Uniform: name, Stage: st}
			}
			u.kind, u.unit = uSampler, units
			units++
		case isArray:
			u.kind, u.n = uArray, max(a.Size, 1)
		default:
			u.kind = uPacked
			packable = append(packable, shader.Uniform{Name: name, Type: a.Type})
		}
		if u.kind != uPacked {
			if u.loc = gpu.UniformLocation(prog.prog, name); u.loc < 0 {
				continue
			}
		}
		prog.uniforms = append(prog.uniforms, u)
	}
	if units > d.caps.MaxTextureUnits {
		prog.delete(gpu)
		return nil, newConfigError(passPrefix, "too many samplers ("+strconv.Itoa(units)+")")
	}

	prog.layout = shader.Pack(packable)
	if prog.layout.Registers > 0 {
		prec := d.caps.FloatPrecision.Highest()
		// Rewriting keeps line numbers, so the injected
		// line counts still apply.
		for i := range src {
			src[i] = shader.Rewrite(src[i], prog.layout, d.cfg.PackedName, prec)
		}
		prog2, err := d.compileStages(src, lines)
		if err != nil {
			prog.delete(gpu)
			return nil, errors.Join(newConfigError(passPrefix, "packed variant failed to build"), err)
		}
		prog2.uniforms, prog2.layout = prog.uniforms, prog.layout
		prog.delete(gpu)
		prog = prog2
		if prog.packedLoc = gpu.UniformLocation(prog.prog, d.cfg.PackedName); prog.packedLoc < 0 {
			prog.delete(gpu)
			return nil, newConfigError(passPrefix, "packed uniform not active")
		}
	}
	prog.resolve(gpu)
	// resolve binds the new program.
	d.frame.invalidatePass()
	Logger().Debug("pass compiled",
		slog.Int("packed", len(prog.layout.Names)),
		slog.Int("registers", prog.layout.Registers),
		slog.Bool("rewritten", prog.layout.Registers > 0))
	return prog, nil
}

// resolve (re)queries the locations of attributes and
// of uniforms that are not packed, and assigns sampler
// units. Entries whose location is no longer valid are
// dropped.
func (x *program) resolve(gpu driver.GPU) {
	if x.attribs == nil {
		for _, a := range gpu.ActiveAttribs(x.prog) {
			x.attribs = append(x.attribs, Attrib{Name: a.Name, Type: a.Type, Location: -1})
		}
	}
	attribs := x.attribs[:0]
	for _, a := range x.attribs {
		if a.Location = gpu.AttribLocation(x.prog, a.Name); a.Location >= 0 {
			attribs = append(attribs, a)
		}
	}
	x.attribs = attribs

	gpu.UseProgram(x.prog)
	uniforms := x.uniforms[:0]
	for _, u := range x.uniforms {
		if u.kind != uPacked {
			if u.loc = gpu.UniformLocation(x.prog, u.name); u.loc < 0 {
				continue
			}
		}
		if u.kind == uSampler {
			gpu.Uniform1i(u.loc, u.unit)
		}
		uniforms = append(uniforms, u)
	}
	x.uniforms = uniforms
}

// initSamplers creates a default Sampler for every
// sampler uniform that lacks one.
func (p *Pass) initSamplers() {
	for _, u := range p.uniforms {
		if u.kind == uSampler && p.samplers[u.name] == nil {
			s := DefaultSampler()
			p.samplers[u.name] = &s
		}
	}
	p.buf = make([]float32, p.layout.Len())
}

// Attributes returns the active vertex attributes of p.
func (p *Pass) Attributes() []Attrib { return append([]Attrib(nil), p.attribs...) }

// Uniforms returns the names of the active uniforms of p.
func (p *Pass) Uniforms() []string {
	s := make([]string, len(p.uniforms))
	for i := range p.uniforms {
		s[i] = p.uniforms[i].name
	}
	return s
}

// UniformType returns the type of an active uniform of p
// and, for arrays, its length.
func (p *Pass) UniformType(name string) (typ driver.DataType, n int, ok bool) {
	for _, u := range p.uniforms {
		if u.name == name {
			return u.typ, u.n, true
		}
	}
	return
}

// Registers returns the number of vec4 registers used by
// packed uniforms.
func (p *Pass) Registers() int {
	if p.layout == nil {
		return 0
	}
	return p.layout.Registers
}

// Slot returns where a packed uniform is stored.
func (p *Pass) Slot(name string) (Slot, bool) {
	if p.layout == nil {
		return Slot{}, false
	}
	s, ok := p.layout.Slots[name]
	return Slot(s), ok
}

// Source returns the source of the given stage as last
// compiled (i.e., after preprocessing and packing).
func (p *Pass) Source(stage driver.Stage) string { return p.src[stage] }

// OriginalSource returns the source of the given stage as
// provided.
func (p *Pass) OriginalSource(stage driver.Stage) string { return p.orig[stage] }

// Sampler returns the Sampler of a sampler uniform, or
// nil if p has no such uniform.
// Changes to the returned value take effect on the next
// draw.
func (p *Pass) Sampler(name string) *Sampler { return p.samplers[name] }

// SetSampler sets the Sampler of a sampler uniform.
func (p *Pass) SetSampler(name string, s Sampler) error {
	if err := s.validate(); err != nil {
		return err
	}
	if p.samplers[name] == nil {
		return newUsageError(passPrefix, "no sampler uniform named '"+name+"'")
	}
	*p.samplers[name] = s
	return nil
}

// upload resolves and uploads the uniforms of p for a
// single draw. lookup returns the value that takes
// precedence for a given name.
func (p *Pass) upload(gpu driver.GPU, lookup func(string) (any, bool), env *liveEnv) {
	if p.layout.Registers > 0 {
		for _, name := range p.layout.Names {
			s := p.layout.Slots[name]
			v, ok := p.value(name, s.Type, 0, lookup, env)
			if !ok {
				v = defaultFloats(s.Type)
			}
			p.layout.Set(p.buf, name, v)
		}
		gpu.Uniform4fv(p.packedLoc, p.buf)
	}
	for i := range p.uniforms {
		u := &p.uniforms[i]
		switch u.kind {
		case uArray:
			v, ok := p.value(u.name, u.typ, u.n, lookup, env)
			if !ok {
				v = make([]float32, u.typ.Components()*u.n)
				if u.typ == driver.Mat3 || u.typ == driver.Mat4 {
					d := defaultFloats(u.typ)
					for j := 0; j < len(v); j += len(d) {
						copy(v[j:], d)
					}
				}
			}
			uploadArray(gpu, u.typ, u.loc, v)
		case uSampler:
			var src interface {
				bindSampled(driver.GPU, int, *Sampler)
			}
			if v, ok := lookup(u.name); ok {
				switch v := v.(type) {
				case *Texture:
					if v.dev != nil && v.IsCube() == (u.typ == driver.SamplerCube) {
						src = v
					}
				case *Depth:
					if v.dev != nil && u.typ == driver.Sampler2D {
						src = v
					}
				}
			}
			if src == nil {
				gpu.ActiveTexture(u.unit)
				if u.typ == driver.SamplerCube {
					gpu.BindTexture(driver.TexCube, 0)
				} else {
					gpu.BindTexture(driver.Tex2D, 0)
				}
				continue
			}
			src.bindSampled(gpu, u.unit, p.samplers[u.name])
		}
	}
}

// value resolves the value of a uniform.
func (p *Pass) value(name string, typ driver.DataType, n int, lookup func(string) (any, bool), env *liveEnv) ([]float32, bool) {
	v, ok := lookup(name)
	if !ok {
		return nil, false
	}
	if l, ok := v.(Live); ok {
		v = env.resolve(l)
	}
	return floats(v, typ, n)
}

func uploadArray(gpu driver.GPU, typ driver.DataType, loc int, v []float32) {
	switch typ {
	case driver.Float:
		gpu.Uniform1fv(loc, v)
	case driver.Vec2:
		gpu.Uniform2fv(loc, v)
	case driver.Vec3:
		gpu.Uniform3fv(loc, v)
	case driver.Vec4:
		gpu.Uniform4fv(loc, v)
	case driver.Mat3:
		gpu.UniformMatrix3fv(loc, v)
	case driver.Mat4:
		gpu.UniformMatrix4fv(loc, v)
	}
}

// restore compiles the last sources of p again.
func (p *Pass) restore() error {
	prog, err := p.dev.compileStages(p.src, p.lines)
	if err != nil {
		return err
	}
	prog.attribs, prog.uniforms, prog.layout = p.attribs, p.uniforms, p.layout
	if prog.layout.Registers > 0 {
		prog.packedLoc = p.dev.gpu.UniformLocation(prog.prog, p.dev.cfg.PackedName)
	}
	prog.resolve(p.dev.gpu)
	p.dev.frame.invalidatePass()
	p.program = *prog
	return nil
}

func (p *Pass) lose() {
	p.prog = 0
	p.shaders = [2]driver.Shader{}
}

// Free invalidates p and releases its program.
// p is removed from every Material that uses it.
func (p *Pass) Free() {
	if p.dev == nil {
		return
	}
	for _, m := range p.dev.materials {
		for k, v := range m.passes {
			if v == p {
				delete(m.passes, k)
			}
		}
	}
	p.deleteProgram()
	p.dev.passes.remove(p)
	p.dev.frame.invalidatePass()
	*p = Pass{handle: handle{slot: -1, id: p.id}}
}
