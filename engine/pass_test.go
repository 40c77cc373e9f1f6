// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/retained/driver"
	"github.com/gviegas/retained/driver/headless"
)

func TestPass(t *testing.T) {
	d, g := newDevice(t, nil)
	p, err := d.NewPass(solidVS, solidFS, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Passes())
	assert.Equal(t, []Attrib{{"position", driver.Vec3, 0}}, p.Attributes())
	assert.Equal(t, []string{"mvp", "color"}, p.Uniforms())
	typ, n, ok := p.UniformType("mvp")
	assert.True(t, ok)
	assert.Equal(t, driver.Mat4, typ)
	assert.Zero(t, n)
	_, _, ok = p.UniformType("missing")
	assert.False(t, ok)
	assert.Equal(t, DefaultRenderState(), p.State)

	assert.Equal(t, solidVS, p.OriginalSource(driver.SVertex))
	assert.Equal(t, solidFS, p.OriginalSource(driver.SFragment))
	vs := p.Source(driver.SVertex)
	assert.Contains(t, vs, "uniform highp vec4 _packed[5];")
	assert.Contains(t, vs, "gl_Position = (mat4(_packed[0], _packed[1], _packed[2], _packed[3])) * vec4(position, 1.0);")
	assert.NotContains(t, vs, "uniform mat4 mvp")
	fs := p.Source(driver.SFragment)
	assert.True(t, strings.HasPrefix(fs, "precision highp float;\n"))
	assert.Contains(t, fs, "gl_FragColor = vec4((_packed[4].xyz), 1.0);")
	// Rewriting adds no lines.
	assert.Equal(t, strings.Count(solidVS, "\n")+p.lines[driver.SVertex], strings.Count(vs, "\n"))
	assert.Zero(t, g.AttachedShaders(p.prog))

	p.Free()
	p.Free()
	assert.Zero(t, d.Passes())
	var uerr *UsageError
	assert.ErrorAs(t, p.Recompile(solidVS, solidFS, nil), &uerr)
}

func TestPassCycles(t *testing.T) {
	const vs = `attribute vec3 position;
void main() {
	gl_Position = vec4(position, 1.0);
}
`
	const fs = `void main() {
	gl_FragColor = vec4(1.0);
}
`
	d, g := newDevice(t, nil)
	g.ResetCounters()
	p, err := d.NewPass(vs, fs, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Calls("CompileShader"))
	assert.Zero(t, p.Registers())
	assert.NotContains(t, p.Source(driver.SVertex), "_packed")

	g.ResetCounters()
	_, err = d.NewPass(solidVS, solidFS, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, g.Calls("CompileShader"))
	assert.Equal(t, 2, g.Calls("LinkProgram"))
	assert.Equal(t, 1, g.Calls("DeleteProgram"))
}

func TestPassPacking(t *testing.T) {
	const vs = `attribute vec3 position;
uniform mat4 model;
uniform mat3 normalMat;
uniform vec4 tint;
uniform vec3 offset;
uniform vec2 uv0;
uniform vec2 uv1;
uniform vec2 uv2;
uniform float s0;
uniform float s1;
uniform float s2;
uniform float weights[3];
varying vec4 v;
void main() {
	vec3 p = normalMat * (position + offset) * (s0 + s1 + s2 + weights[1]);
	v = tint + vec4(uv0, uv1) + vec4(uv2, 0.0, 0.0);
	gl_Position = model * vec4(p, 1.0);
}
`
	const fs = `varying vec4 v;
void main() {
	gl_FragColor = v;
}
`
	d, g := newDevice(t, nil)
	s, err := d.NewStage("main", "")
	require.NoError(t, err)
	s.Culling = false
	m, err := d.NewMaterial("m", "")
	require.NoError(t, err)
	p, err := d.NewPass(vs, fs, nil)
	require.NoError(t, err)
	require.NoError(t, m.SetPass("main", p))
	inst, err := d.NewInstance(m, newTriangle(t, d), nil, true)
	require.NoError(t, err)

	assert.Equal(t, 11, p.Registers())
	for name, want := range map[string]Slot{
		"model":     {driver.Mat4, 0, 0},
		"normalMat": {driver.Mat3, 4, 0},
		"tint":      {driver.Vec4, 7, 0},
		"offset":    {driver.Vec3, 8, 0},
		"uv0":       {driver.Vec2, 9, 0},
		"uv1":       {driver.Vec2, 9, 2},
		"uv2":       {driver.Vec2, 10, 0},
		"s0":        {driver.Float, 4, 3},
		"s1":        {driver.Float, 5, 3},
		"s2":        {driver.Float, 6, 3},
	} {
		slot, ok := p.Slot(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, slot, name)
	}
	_, ok := p.Slot("weights")
	assert.False(t, ok)
	assert.Contains(t, p.Source(driver.SVertex), "uniform float weights[3];")

	model := mgl32.Translate3D(1, 2, 3)
	vals := map[string]any{
		"model":     model,
		"normalMat": mgl32.Mat3{1, 2, 3, 4, 5, 6, 7, 8, 9},
		"tint":      mgl32.Vec4{1, 2, 3, 4},
		"offset":    mgl32.Vec3{5, 6, 7},
		"uv0":       mgl32.Vec2{8, 9},
		"uv1":       mgl32.Vec2{10, 11},
		"uv2":       mgl32.Vec2{12, 13},
		"s0":        float32(14),
		"s1":        float32(15),
		"s2":        float32(16),
		"weights":   []float32{17, 18, 19},
	}
	for k, v := range vals {
		require.NoError(t, inst.SetUniform(k, v))
	}
	d.Frame()
	require.Empty(t, g.Errors())
	packed := lastPacked(t, g)
	require.Len(t, packed, 44)
	for k, v := range vals {
		if k == "weights" {
			continue
		}
		want, _ := floats(v, p.layout.Slots[k].Type, 0)
		assert.Equal(t, want, p.layout.Get(packed, k), k)
	}
	assert.Equal(t, []float32{17, 18, 19}, g.Draws()[0].Uniforms["weights"])
	assert.Equal(t, 1, g.Calls("Uniform4fv"))
	assert.Equal(t, 1, g.Calls("Uniform1fv"))
}

func TestPassCompileError(t *testing.T) {
	const fs = `uniform vec3 color;
#error boom
void main() {
	gl_FragColor = vec4(color, 1.0);
}
`
	d, _ := newDevice(t, nil)
	for _, macros := range [...]map[string]string{nil, {"A": "1", "B": "2"}} {
		_, err := d.NewPass(solidVS, fs, macros)
		var cerr *CompileError
		require.ErrorAs(t, err, &cerr)
		require.Len(t, cerr.Entries, 1)
		assert.Equal(t, CompileEntry{driver.SFragment, 2, "boom"}, cerr.Entries[0])
		assert.Contains(t, cerr.Log, "boom")
	}

	_, err := d.NewPass("#error vertex\n"+solidVS, solidFS, nil)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	require.Len(t, cerr.Entries, 1)
	assert.Equal(t, CompileEntry{driver.SVertex, 1, "vertex"}, cerr.Entries[0])
	assert.Zero(t, d.Passes())
}

func TestPassInvalid(t *testing.T) {
	d, _ := newDevice(t, nil)

	var cerr *ConfigError
	for _, x := range [...]struct {
		vs, fs string
		macros map[string]string
	}{
		{"", solidFS, nil},
		{solidVS, " \n\t", nil},
		{solidVS, solidFS, map[string]string{"1X": ""}},
		{solidVS, solidFS, map[string]string{"X": "1\n2"}},
		{solidVS, "uniform vec4 _packed;\nvoid main() {\n\tgl_FragColor = _packed;\n}\n", nil},
	} {
		_, err := d.NewPass(x.vs, x.fs, x.macros)
		assert.ErrorAs(t, err, &cerr, "%q", x.fs)
	}

	var lerr *LinkError
	_, err := d.NewPass(`attribute vec3 position;
uniform vec3 tint;
void main() {
	gl_Position = vec4(position + tint, 1.0);
}
`, `uniform vec4 tint;
void main() {
	gl_FragColor = tint;
}
`, nil)
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Error(), "tint")

	var ierr *IntrospectError
	_, err = d.NewPass(`attribute vec3 position;
uniform mat2 rot;
void main() {
	gl_Position = vec4(rot * position.xy, 0.0, 1.0);
}
`, solidFS, nil)
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, IntrospectError{"rot", driver.SVertex}, *ierr)

	_, err = d.NewPass(solidVS, `uniform sampler2D texs[2];
void main() {
	gl_FragColor = texture2D(texs[0], vec2(0.5));
}
`, nil)
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, IntrospectError{"texs", driver.SFragment}, *ierr)

	_, err = d.NewPass(solidVS, `uniform int count;
void main() {
	gl_FragColor = vec4(float(count));
}
`, nil)
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "count", ierr.Uniform)
	assert.Zero(t, d.Passes())
}

func TestPassSamplerLimit(t *testing.T) {
	const fs = `uniform sampler2D a;
uniform sampler2D b;
void main() {
	gl_FragColor = texture2D(a, vec2(0.0)) + texture2D(b, vec2(0.0));
}
`
	caps := headless.DefaultCaps()
	caps.MaxTextureUnits = 1
	d, _ := newDevice(t, &caps)
	var cerr *ConfigError
	_, err := d.NewPass(solidVS, fs, nil)
	require.ErrorAs(t, err, &cerr)
}

func TestPassInjection(t *testing.T) {
	const fs = `uniform vec3 color;
void main() {
	gl_FragColor = vec4(dFdx(color), 1.0);
}
`
	d, _ := newDevice(t, nil)
	p, err := d.NewPass(solidVS, fs, map[string]string{"B": "2", "A": ""})
	require.NoError(t, err)
	src := p.Source(driver.SFragment)
	assert.True(t, strings.HasPrefix(src, "#extension GL_OES_standard_derivatives : enable\n"+
		"#define A\n"+
		"#define B 2\n"+
		"precision highp float;\n"), src)

	const versioned = "#version 100\nprecision mediump float;\n" + solidFS
	p, err = d.NewPass(solidVS, versioned, nil)
	require.NoError(t, err)
	src = p.Source(driver.SFragment)
	assert.True(t, strings.HasPrefix(src, "#version 100\n"), src)
	assert.Equal(t, 1, strings.Count(src, "precision "))

	caps := headless.DefaultCaps()
	caps.Derivatives = false
	d, _ = newDevice(t, &caps)
	_, err = d.NewPass(solidVS, fs, nil)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 3, cerr.Entries[0].Line)
}

func TestPassRecompile(t *testing.T) {
	const fs = `uniform vec3 color;
uniform float alpha;
void main() {
	gl_FragColor = vec4(color, alpha);
}
`
	d, g := newDevice(t, nil)
	_, m, p := newScene(t, d)
	_, err := d.NewInstance(m, newTriangle(t, d), nil, false)
	require.NoError(t, err)
	p.State.Blend.Enable = true
	prog := p.prog

	var cerr *CompileError
	require.ErrorAs(t, p.Recompile(solidVS, "#error no\n"+fs, nil), &cerr)
	assert.Equal(t, prog, p.prog)
	assert.Equal(t, solidFS, p.OriginalSource(driver.SFragment))
	assert.Equal(t, 5, p.Registers())

	require.NoError(t, p.Recompile(solidVS, fs, nil))
	assert.NotEqual(t, prog, p.prog)
	assert.Equal(t, fs, p.OriginalSource(driver.SFragment))
	assert.True(t, p.State.Blend.Enable)
	slot, ok := p.Slot("alpha")
	assert.True(t, ok)
	assert.Equal(t, Slot{driver.Float, 4, 3}, slot)

	require.NoError(t, d.SetUniform("alpha", float32(0.5)))
	g.ResetCounters()
	d.Frame()
	assert.Empty(t, g.Errors())
	assert.Equal(t, p.prog, g.Draws()[0].Program)
	assert.Equal(t, float32(0.5), lastPacked(t, g)[19])
}
