// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/retained/driver"
	"github.com/gviegas/retained/driver/headless"
)

func TestFrame(t *testing.T) {
	d, g := newDevice(t, nil)
	_, m, p := newScene(t, d)
	mesh := newTriangle(t, d)
	_, err := d.NewInstance(m, mesh, nil, true)
	require.NoError(t, err)
	require.NoError(t, d.SetUniform("color", mgl32.Vec3{1, 0, 0}))

	st := d.Frame()
	require.Empty(t, g.Errors())
	assert.Equal(t, Counts{1, 3, 1}, st.Visible)
	assert.Equal(t, Counts{1, 3, 1}, st.Counts)
	assert.Equal(t, 1, st.Draws)
	assert.Equal(t, 1, st.PassChanges)
	assert.Equal(t, st, d.Stats())

	slot, ok := p.Slot("color")
	require.True(t, ok)
	assert.Equal(t, Slot{driver.Vec3, 4, 0}, slot)
	assert.Equal(t, 5, p.Registers())
	packed := lastPacked(t, g)
	require.Len(t, packed, 20)
	assert.Equal(t, []float32{1, 0, 0}, packed[16:19])
	ident := mgl32.Ident4()
	assert.Equal(t, ident[:], packed[:16])

	draw := g.Draws()[0]
	assert.Equal(t, p.prog, draw.Program)
	assert.Equal(t, driver.Framebuffer(0), draw.Framebuffer)
	assert.Equal(t, driver.TTriangle, draw.Mode)
	assert.Equal(t, 3, draw.Count)
	assert.True(t, draw.State.Toggles[driver.DepthTest])
	assert.Equal(t, [4]int{0, 0, 640, 480}, draw.State.Viewport)
}

func TestUniformOverride(t *testing.T) {
	d, g := newDevice(t, nil)
	s, m, _ := newScene(t, d)
	inst, err := d.NewInstance("solid", newTriangle(t, d), nil, true)
	require.NoError(t, err)

	require.NoError(t, d.SetUniform("color", mgl32.Vec3{1, 0, 0}))
	require.NoError(t, s.SetUniform("color", mgl32.Vec3{0, 1, 0}))
	require.NoError(t, m.SetUniform("color", mgl32.Vec3{0, 0, 1}))
	require.NoError(t, inst.SetUniform("color", mgl32.Vec3{1, 1, 1}))

	color := func() []float32 {
		t.Helper()
		g.ResetCounters()
		d.Frame()
		return lastPacked(t, g)[16:19]
	}
	assert.Equal(t, []float32{1, 1, 1}, color())
	inst.UnsetUniform("color")
	assert.Equal(t, []float32{0, 0, 1}, color())
	m.UnsetUniform("color")
	assert.Equal(t, []float32{0, 1, 0}, color())
	s.UnsetUniform("color")
	assert.Equal(t, []float32{1, 0, 0}, color())
	d.UnsetUniform("color")
	assert.Equal(t, []float32{0, 0, 0}, color())

	// Wrong types fall back to the default.
	require.NoError(t, inst.SetUniform("color", mgl32.Vec4{1, 1, 1, 1}))
	require.NoError(t, m.SetUniform("color", mgl32.Vec3{0.5, 0.5, 0.5}))
	assert.Equal(t, []float32{0, 0, 0}, color())
}

func TestCulling(t *testing.T) {
	d, g := newDevice(t, nil)
	s, m, _ := newScene(t, d)

	point := d.NewMesh()
	require.NoError(t, point.SetAttribute("position", AttrVec3, []float32{
		100, 100, 100,
		100, 100, 100,
		100, 100, 100,
	}))
	require.True(t, point.Bounds().Empty())
	_, err := d.NewInstance(m, point, nil, true)
	require.NoError(t, err)

	away := mgl32.Translate3D(10, 0, 0)
	far, err := d.NewInstance(m, newTriangle(t, d), &away, true)
	require.NoError(t, err)

	st := d.Frame()
	assert.Equal(t, 2, st.Instances)
	assert.Equal(t, 1, st.Visible.Instances)
	assert.Equal(t, 1, st.Draws)

	// Partially inside.
	near := mgl32.Translate3D(1.2, 0, 0)
	far.SetTransform(&near)
	assert.Equal(t, 2, d.Frame().Visible.Instances)

	far.SetTransform(&away)
	far.SetCulling(false)
	assert.Equal(t, 2, d.Frame().Visible.Instances)

	far.SetCulling(true)
	s.Culling = false
	assert.Equal(t, 2, d.Frame().Visible.Instances)

	s.Culling = true
	s.View = mgl32.Translate3D(-10, 0, 0)
	g.ResetCounters()
	st = d.Frame()
	assert.Equal(t, 2, st.Visible.Instances)
	assert.Equal(t, 2, len(g.Draws()))
}

func TestFrustum(t *testing.T) {
	var f Frustum
	vp := mgl32.Perspective(mgl32.DegToRad(90), 1, 1, 100).Mul4(mgl32.Ident4())
	f.Set(&vp)

	for i := range f {
		n := f[i].Vec3().Len()
		assert.InDelta(t, 1, n, 1e-5, "plane %d", i)
	}
	assert.Greater(t, f.Distance(4, mgl32.Vec3{0, 0, -2}), float32(0))
	assert.Less(t, f.Distance(4, mgl32.Vec3{0, 0, 0}), float32(0))

	box := func(min, max mgl32.Vec3) AABB { return AABB{min, max} }
	assert.True(t, f.Contains(box(mgl32.Vec3{-1, -1, -11}, mgl32.Vec3{1, 1, -9}), 1e-5))
	assert.False(t, f.Contains(box(mgl32.Vec3{-1, -1, 1}, mgl32.Vec3{1, 1, 2}), 1e-5))
	assert.False(t, f.Contains(box(mgl32.Vec3{-1, -1, -300}, mgl32.Vec3{1, 1, -200}), 1e-5))
	assert.False(t, f.Contains(box(mgl32.Vec3{20, -1, -11}, mgl32.Vec3{22, 1, -9}), 1e-5))
	// Straddling the left plane.
	assert.True(t, f.Contains(box(mgl32.Vec3{-12, -1, -11}, mgl32.Vec3{-9, 1, -9}), 1e-5))
	// Touching the near plane, within epsilon.
	assert.True(t, f.Contains(box(mgl32.Vec3{-1, -1, -0.9999995}, mgl32.Vec3{1, 1, -0.5}), 1e-5))
	assert.True(t, f.Contains(EmptyAABB(), 0))
	assert.True(t, f.Contains(EmptyAABB().Extend(mgl32.Vec3{0, 0, 50}), 0))
}

func TestAABB(t *testing.T) {
	b := EmptyAABB()
	assert.True(t, b.Empty())
	b = b.Extend(mgl32.Vec3{1, 2, 3})
	assert.True(t, b.Empty())
	b = b.Extend(mgl32.Vec3{-1, 0, 5})
	assert.False(t, b.Empty())
	assert.Equal(t, AABB{mgl32.Vec3{-1, 0, 3}, mgl32.Vec3{1, 2, 5}}, b)

	m := mgl32.Translate3D(1, 1, 1).Mul4(mgl32.Scale3D(2, 2, 2))
	assert.Equal(t, AABB{mgl32.Vec3{-1, 1, 7}, mgl32.Vec3{3, 5, 11}}, b.Transform(&m))

	r := mgl32.HomogRotate3DZ(mgl32.DegToRad(90))
	x := AABB{mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 1, 1}}.Transform(&r)
	assert.InDelta(t, -1, x.Min[0], 1e-5)
	assert.InDelta(t, 0, x.Max[0], 1e-5)
	assert.InDelta(t, 0, x.Min[1], 1e-5)
	assert.InDelta(t, 2, x.Max[1], 1e-5)

	e := EmptyAABB()
	assert.Equal(t, e, e.Transform(&m))
}

func TestBatching(t *testing.T) {
	d, g := newDevice(t, nil)
	_, m, _ := newScene(t, d)
	a := newTriangle(t, d)
	b := newTriangle(t, d)
	require.Less(t, a.ID(), b.ID())
	for _, x := range [...]*Mesh{a, b, a, b, a} {
		_, err := d.NewInstance(m, x, nil, false)
		require.NoError(t, err)
	}

	g.ResetCounters()
	st := d.Frame()
	assert.Equal(t, 5, st.Draws)
	assert.Equal(t, 2, g.Calls("AttribPointer"))
	assert.Equal(t, 1, g.Calls("EnableAttrib"))
	assert.Equal(t, 1, g.Calls("UseProgram"))
	assert.Equal(t, 5, g.Calls("Uniform4fv"))
	assert.Empty(t, g.Errors())
	assert.Empty(t, g.EnabledAttribs())
}

func TestPassChanges(t *testing.T) {
	d, g := newDevice(t, nil)
	_, err := d.NewStage("main", "")
	require.NoError(t, err)
	p1, err := d.NewPass(solidVS, solidFS, nil)
	require.NoError(t, err)
	p2, err := d.NewPass(solidVS, solidFS, map[string]string{"OTHER": ""})
	require.NoError(t, err)
	mesh := newTriangle(t, d)
	for _, x := range [...]struct {
		name string
		p    *Pass
	}{
		{"a", p1},
		{"b", p1},
		{"c", p2},
		{"d", p2},
		{"e", p1},
	} {
		m, err := d.NewMaterial(x.name, "")
		require.NoError(t, err)
		require.NoError(t, m.SetPass("main", x.p))
		_, err = d.NewInstance(m, mesh, nil, false)
		require.NoError(t, err)
	}

	g.ResetCounters()
	st := d.Frame()
	assert.Equal(t, 5, st.Draws)
	assert.Equal(t, 3, st.PassChanges)
	assert.Equal(t, 3, g.Calls("UseProgram"))
	draws := g.Draws()
	for i, want := range [...]driver.Program{p1.prog, p1.prog, p2.prog, p2.prog, p1.prog} {
		assert.Equal(t, want, draws[i].Program, "draw %d", i)
	}

	// Only the state that differs is set.
	p2.State.Blend.Enable = true
	g.ResetCounters()
	d.Frame()
	// Depth testing on the first bind, then blending.
	assert.Equal(t, 2, g.Calls("Enable"))
	assert.True(t, g.Draws()[2].State.Toggles[driver.Blend])
	assert.False(t, g.Draws()[4].State.Toggles[driver.Blend])
}

func TestGrid(t *testing.T) {
	d, g := newDevice(t, nil)
	for _, x := range [...][2]string{{"b", ""}, {"d", ""}, {"a", "b"}, {"c", "d"}} {
		_, err := d.NewStage(x[0], x[1])
		require.NoError(t, err)
		_, err = d.NewMaterial(x[0], x[1])
		require.NoError(t, err)
	}
	var names []string
	for _, s := range d.Stages() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, names)
	names = names[:0]
	for _, m := range d.Materials() {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, names)

	var cerr *ConfigError
	for _, x := range [...][2]string{{"a", ""}, {"", ""}, {"e", "x"}} {
		_, err := d.NewStage(x[0], x[1])
		assert.ErrorAs(t, err, &cerr)
		_, err = d.NewMaterial(x[0], x[1])
		assert.ErrorAs(t, err, &cerr)
	}
	assert.Len(t, d.Stages(), 4)
	assert.Len(t, d.Materials(), 4)

	// Stages draw in order. Only cells with passes draw.
	p, err := d.NewPass(solidVS, solidFS, nil)
	require.NoError(t, err)
	mesh := newTriangle(t, d)
	for _, name := range [...]string{"d", "b"} {
		require.NoError(t, d.Stage(name).SetUniform("color", mgl32.Vec3{float32(len(name)), 0, 0}))
		require.NoError(t, d.Material("c").SetPass(name, p))
	}
	require.NoError(t, d.Stage("b").SetUniform("color", mgl32.Vec3{2, 0, 0}))
	_, err = d.NewInstance("c", mesh, nil, false)
	require.NoError(t, err)
	g.ResetCounters()
	st := d.Frame()
	assert.Equal(t, 2, st.Draws)
	assert.Equal(t, float32(2), g.Draws()[0].Uniforms[dflPackedName][16])
	assert.Equal(t, float32(1), g.Draws()[1].Uniforms[dflPackedName][16])

	var uerr *UsageError
	assert.ErrorAs(t, d.Material("a").SetPass("", p), &uerr)
	require.NoError(t, d.Material("c").SetPass("b", nil))
	assert.Nil(t, d.Material("c").Pass("b"))
	assert.Equal(t, 1, d.Frame().Draws)

	d.Stage("d").Free()
	assert.Nil(t, d.Stage("d"))
	assert.Nil(t, d.Material("c").Pass("d"))
	assert.Zero(t, d.Frame().Draws)

	mat := d.Material("a")
	mat.Free()
	assert.Nil(t, d.Material("a"))
	assert.ErrorAs(t, mat.SetPass("b", p), &uerr)
}

func TestInstances(t *testing.T) {
	d, g := newDevice(t, nil)
	_, m, _ := newScene(t, d)
	other, err := d.NewMaterial("other", "")
	require.NoError(t, err)
	mesh := newTriangle(t, d)

	var insts []*Instance
	for range 4 {
		inst, err := d.NewInstance(m, mesh, nil, false)
		require.NoError(t, err)
		insts = append(insts, inst)
	}
	check := func(m *Material) {
		t.Helper()
		for i, inst := range m.bin {
			require.Equal(t, i, inst.bin)
			require.Equal(t, m, inst.Material())
		}
	}

	insts[0].Free()
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, insts[3], m.Instances()[0])
	check(m)

	require.NoError(t, insts[1].SetMaterial("other"))
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 1, other.Len())
	check(m)
	check(other)
	g.ResetCounters()
	assert.Equal(t, 2, d.Frame().Draws)

	var uerr *UsageError
	_, err = d.NewInstance("missing", mesh, nil, false)
	assert.ErrorAs(t, err, &uerr)
	_, err = d.NewInstance(42, mesh, nil, false)
	assert.ErrorAs(t, err, &uerr)
	_, err = d.NewInstance(m, nil, nil, false)
	assert.ErrorAs(t, err, &uerr)
	assert.ErrorAs(t, insts[2].SetMaterial("missing"), &uerr)
	assert.ErrorAs(t, insts[0].SetMesh(mesh), &uerr)

	move := mgl32.Translate3D(1, 2, 3)
	insts[2].SetTransform(&move)
	assert.Equal(t, move, insts[2].Transform())
	insts[2].SetTransform(nil)
	assert.Equal(t, mgl32.Ident4(), insts[2].Transform())

	// Freed meshes are not drawn.
	mesh2 := newTriangle(t, d)
	require.NoError(t, insts[2].SetMesh(mesh2))
	mesh2.Free()
	st := d.Frame()
	assert.Equal(t, 1, st.Draws)
	assert.Equal(t, 1, st.Instances)

	m.Free()
	assert.Nil(t, insts[3].Material())
	assert.Nil(t, insts[3].Mesh())
	assert.Equal(t, 1, other.Len())
}

func TestLiveValues(t *testing.T) {
	const vs = `attribute vec3 position;
uniform mat4 vp;
uniform mat4 model;
uniform mat3 normalMat;
uniform vec3 eye;
void main() {
	vec3 n = normalMat * eye;
	gl_Position = vp * model * vec4(position + n, 1.0);
}
`
	const fs = `uniform float time;
uniform float delta;
void main() {
	gl_FragColor = vec4(time, delta, 0.0, 1.0);
}
`
	d, g := newDevice(t, nil)
	s, err := d.NewStage("main", "")
	require.NoError(t, err)
	s.Culling = false
	s.View = mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	s.Projection = mgl32.Perspective(mgl32.DegToRad(60), 4.0/3, 0.1, 100)
	m, err := d.NewMaterial("m", "")
	require.NoError(t, err)
	p, err := d.NewPass(vs, fs, nil)
	require.NoError(t, err)
	require.NoError(t, m.SetPass("main", p))
	model := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2))
	inst, err := d.NewInstance(m, newTriangle(t, d), &model, true)
	require.NoError(t, err)

	require.NoError(t, d.SetUniform("vp", LiveViewProjection))
	require.NoError(t, m.SetUniform("model", LiveTransform))
	require.NoError(t, s.SetUniform("normalMat", LiveNormalTransform))
	require.NoError(t, inst.SetUniform("eye", LiveViewPosition))
	require.NoError(t, d.SetUniform("time", LiveTime))
	require.NoError(t, d.SetUniform("delta", LiveDelta))

	d.Frame()
	packed := lastPacked(t, g)
	get := func(name string) []float32 { return p.layout.Get(packed, name) }
	vp := s.Projection.Mul4(s.View)
	nm := model.Mat3().Inv().Transpose()
	assert.Equal(t, vp[:], get("vp"))
	assert.Equal(t, model[:], get("model"))
	assert.Equal(t, nm[:], get("normalMat"))
	eye := get("eye")
	assert.InDeltaSlice(t, []float32{0, 0, 5}, eye, 1e-5)
	assert.Equal(t, []float32{0}, get("time"))
	assert.Equal(t, []float32{0}, get("delta"))

	g.ResetCounters()
	d.Frame()
	packed = lastPacked(t, g)
	assert.InDeltaSlice(t, []float32{0.016}, get("time"), 1e-6)
	assert.InDeltaSlice(t, []float32{0.016}, get("delta"), 1e-6)
	g.ResetCounters()
	d.Frame()
	packed = lastPacked(t, g)
	assert.InDeltaSlice(t, []float32{0.032}, get("time"), 1e-6)
	assert.InDeltaSlice(t, []float32{0.016}, get("delta"), 1e-6)

	env := liveEnv{stage: s, inst: inst}
	dir := env.resolve(LiveViewDirection).(mgl32.Vec3)
	assert.InDeltaSlice(t, []float32{0, 0, -1}, dir[:], 1e-5)
	assert.Equal(t, s.View, env.resolve(LiveView))
	assert.Equal(t, s.Projection, env.resolve(LiveProjection))
	assert.Equal(t, "LiveViewProjection", LiveViewProjection.String())
}

func TestArrayUniform(t *testing.T) {
	const fs = `uniform float weights[3];
uniform vec4 tints[2];
void main() {
	gl_FragColor = tints[0] * weights[0] + tints[1] * weights[2];
}
`
	d, g := newDevice(t, nil)
	s, err := d.NewStage("main", "")
	require.NoError(t, err)
	m, err := d.NewMaterial("m", "")
	require.NoError(t, err)
	p, err := d.NewPass(solidVS, fs, nil)
	require.NoError(t, err)
	require.NoError(t, m.SetPass("main", p))
	_, err = d.NewInstance(m, newTriangle(t, d), nil, false)
	require.NoError(t, err)

	typ, n, ok := p.UniformType("weights")
	require.True(t, ok)
	assert.Equal(t, driver.Float, typ)
	assert.Equal(t, 3, n)
	_, ok = p.Slot("weights")
	assert.False(t, ok)

	require.NoError(t, s.SetUniform("weights", []float32{1, 2, 3}))
	require.NoError(t, m.SetUniform("tints", []float32{1, 0, 0, 1}))
	d.Frame()
	draw := g.Draws()[0]
	assert.Equal(t, []float32{1, 2, 3}, draw.Uniforms["weights"])
	assert.Equal(t, []float32{1, 0, 0, 1, 0, 0, 0, 0}, draw.Uniforms["tints"])
	assert.Empty(t, g.Errors())
}

func TestSamplers(t *testing.T) {
	const fs = `uniform sampler2D albedo;
uniform samplerCube env;
void main() {
	gl_FragColor = texture2D(albedo, vec2(0.5)) + textureCube(env, vec3(1.0));
}
`
	d, g := newDevice(t, nil)
	s, err := d.NewStage("main", "")
	require.NoError(t, err)
	m, err := d.NewMaterial("m", "")
	require.NoError(t, err)
	p, err := d.NewPass(solidVS, fs, nil)
	require.NoError(t, err)
	require.NoError(t, m.SetPass("main", p))
	_, err = d.NewInstance(m, newTriangle(t, d), nil, false)
	require.NoError(t, err)
	tex, err := d.NewTexture(&TexParam{PixelFmt: driver.RGBA8un, Width: 4, Height: 4, Levels: 1})
	require.NoError(t, err)
	cube, err := d.NewTexture(&TexParam{PixelFmt: driver.RGBA8un, Width: 4, Height: 4, Faces: 6})
	require.NoError(t, err)

	require.NotNil(t, p.Sampler("albedo"))
	assert.Equal(t, DefaultSampler(), *p.Sampler("env"))
	assert.Nil(t, p.Sampler("missing"))

	// Unset samplers have no texture.
	d.Frame()
	draw := g.Draws()[0]
	assert.Equal(t, driver.Texture(0), draw.Textures["albedo"])
	assert.Equal(t, driver.Texture(0), draw.Textures["env"])
	assert.NotEqual(t, draw.Units["albedo"], draw.Units["env"])

	// A 2D texture does not bind to a cube sampler.
	require.NoError(t, m.SetUniform("albedo", tex))
	require.NoError(t, s.SetUniform("env", tex))
	g.ResetCounters()
	d.Frame()
	draw = g.Draws()[0]
	assert.Equal(t, tex.tex, draw.Textures["albedo"])
	assert.Equal(t, driver.Texture(0), draw.Textures["env"])
	// Single-level textures are not sampled with mip
	// filters.
	assert.Equal(t, int(driver.FLinear), g.TexParam(tex.tex, driver.TexMinFilter))

	require.NoError(t, s.SetUniform("env", cube))
	g.ResetCounters()
	d.Frame()
	draw = g.Draws()[0]
	assert.Equal(t, cube.tex, draw.Textures["env"])
	assert.Equal(t, int(driver.FLinearMipLinear), g.TexParam(cube.tex, driver.TexMinFilter))
	assert.Equal(t, 5, g.Calls("TexParameter"))

	// Parameters are set only when they change.
	g.ResetCounters()
	d.Frame()
	assert.Zero(t, g.Calls("TexParameter"))

	require.NoError(t, p.SetSampler("albedo", Sampler{
		Min:   driver.FNearest,
		Mag:   driver.FNearest,
		WrapS: driver.AClamp,
		WrapT: driver.AWrap,
	}))
	g.ResetCounters()
	d.Frame()
	assert.Equal(t, 3, g.Calls("TexParameter"))
	assert.Equal(t, int(driver.AClamp), g.TexParam(tex.tex, driver.TexWrapS))
	assert.Equal(t, int(driver.FNearest), g.TexParam(tex.tex, driver.TexMagFilter))

	p.Sampler("albedo").MaxAniso = 8
	g.ResetCounters()
	d.Frame()
	assert.Equal(t, 1, g.Calls("TexParameter"))
	assert.Equal(t, 8, g.TexParam(tex.tex, driver.TexMaxAniso))

	var cerr *ConfigError
	var uerr *UsageError
	assert.ErrorAs(t, p.SetSampler("albedo", Sampler{Min: driver.Filter(99)}), &cerr)
	assert.ErrorAs(t, p.SetSampler("albedo", Sampler{Mag: driver.FLinearMipLinear}), &cerr)
	assert.ErrorAs(t, p.SetSampler("missing", DefaultSampler()), &uerr)

	// Readable depth buffers can be sampled.
	z, err := d.NewDepth(driver.D16un, 4, 4, true)
	require.NoError(t, err)
	require.NoError(t, m.SetUniform("albedo", z))
	g.ResetCounters()
	d.Frame()
	assert.Equal(t, z.tex, g.Draws()[0].Textures["albedo"])
	assert.Empty(t, g.Errors())
}

func TestStageOutput(t *testing.T) {
	d, g := newDevice(t, nil)
	s, m, _ := newScene(t, d)
	_, err := d.NewInstance(m, newTriangle(t, d), nil, false)
	require.NoError(t, err)
	color, err := d.NewTexture(&TexParam{PixelFmt: driver.RGBA8un, Width: 128, Height: 64, Levels: 1})
	require.NoError(t, err)
	z, err := d.NewDepth(driver.D24unS8ui, 128, 64, false)
	require.NoError(t, err)
	tg, err := d.NewTarget([]*Texture{color}, z, 0, 0)
	require.NoError(t, err)

	s.Target = tg
	s.Clear.ColorValue = mgl32.Vec4{0.1, 0.2, 0.3, 1}
	s.Clear.StencilValue = 7
	s.DepthRange = [2]float32{0.25, 0.75}
	var calls int
	s.PreDraw = func(s *Stage) {
		calls++
		require.NoError(t, s.SetUniform("color", mgl32.Vec3{float32(calls), 0, 0}))
	}
	g.ResetCounters()
	d.Frame()
	require.Len(t, g.Draws(), 1)
	draw := g.Draws()[0]
	assert.Equal(t, tg.fb, draw.Framebuffer)
	assert.Equal(t, [4]int{0, 0, 128, 64}, draw.State.Viewport)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, draw.State.ClearColor)
	assert.Equal(t, 7, draw.State.ClearStencil)
	assert.Equal(t, [2]float32{0.25, 0.75}, draw.State.DepthRange)
	assert.False(t, draw.State.Toggles[driver.ScissorTest])
	assert.Equal(t, 1, g.Calls("Clear"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, float32(1), draw.Uniforms[dflPackedName][16])

	s.Viewport = &Rect{8, 8, 32, 16}
	s.Scissor = &Rect{10, 10, 4, 4}
	s.NoClear = true
	g.ResetCounters()
	d.Frame()
	draw = g.Draws()[0]
	assert.Equal(t, [4]int{8, 8, 32, 16}, draw.State.Viewport)
	assert.Equal(t, [4]int{10, 10, 4, 4}, draw.State.Scissor)
	assert.True(t, draw.State.Toggles[driver.ScissorTest])
	assert.Zero(t, g.Calls("Clear"))
	assert.Equal(t, float32(2), draw.Uniforms[dflPackedName][16])

	// Clearing forces write masks on. The pass's masks
	// are set again before drawing.
	s.NoClear = false
	p := m.Pass("main")
	p.State.Color.Mask = [4]bool{true, false, true, false}
	p.State.Depth.Write = false
	g.ResetCounters()
	d.Frame()
	draw = g.Draws()[0]
	assert.Equal(t, [4]bool{true, false, true, false}, draw.State.ColorMask)
	assert.False(t, draw.State.DepthMask)
	g.ResetCounters()
	d.Frame()
	assert.Equal(t, [4]bool{true, false, true, false}, g.Draws()[0].State.ColorMask)
	assert.Empty(t, g.Errors())
}

func TestMeshMismatch(t *testing.T) {
	d, g := newDevice(t, nil)
	_, m, _ := newScene(t, d)
	normals := d.NewMesh()
	require.NoError(t, normals.SetAttribute("normal", AttrVec3, triangle))
	_, err := d.NewInstance(m, normals, nil, true)
	require.NoError(t, err)
	_, err = d.NewInstance(m, newTriangle(t, d), nil, true)
	require.NoError(t, err)

	err = d.Validate()
	var uerr *UsageError
	require.ErrorAs(t, err, &uerr)

	g.ResetCounters()
	st := d.Frame()
	assert.Equal(t, 2, st.Instances)
	assert.Equal(t, 1, st.Visible.Instances)
	assert.Equal(t, 1, st.Draws)
	assert.Empty(t, g.Errors())

	// A vec4 attribute does not feed a vec3 input.
	wide := d.NewMesh()
	require.NoError(t, wide.SetAttribute("position", AttrVec4, []float32{0, 0, 0, 1, 1, 0, 0, 1, 0, 1, 0, 1}))
	assert.False(t, wide.matches(m.Pass("main").Attributes()))
	// Narrower data does.
	narrow := d.NewMesh()
	require.NoError(t, narrow.SetAttribute("position", AttrVec2, []float32{0, 0, 1, 0, 0, 1}))
	assert.True(t, narrow.matches(m.Pass("main").Attributes()))
}

func TestIndexedDraw(t *testing.T) {
	d, g := newDevice(t, nil)
	_, m, _ := newScene(t, d)
	quad := d.NewMesh()
	require.NoError(t, quad.SetAttribute("position", AttrVec3, []float32{
		-1, -1, 0,
		1, -1, 0,
		1, 1, 0,
		-1, 1, 0,
	}))
	require.NoError(t, quad.SetIndices32([]uint32{0, 1, 2, 2, 3, 0}))
	_, err := d.NewInstance(m, quad, nil, true)
	require.NoError(t, err)

	st := d.Frame()
	assert.Equal(t, Counts{1, 6, 2}, st.Visible)
	draw := g.Draws()[0]
	assert.True(t, draw.Indexed)
	assert.Equal(t, 6, draw.Count)
	assert.Empty(t, g.Errors())
}

func TestResize(t *testing.T) {
	d, g := newDevice(t, nil)
	s, m, _ := newScene(t, d)
	_, err := d.NewInstance(m, newTriangle(t, d), nil, false)
	require.NoError(t, err)

	var events []Event
	cancel := d.Listen(func(e Event) {
		events = append(events, e)
		if e == EventResize {
			w, h := d.OutputSize()
			s.Viewport = &Rect{0, 0, w / 2, h}
		}
	})
	d.Frame()
	assert.Empty(t, events)

	g.SetDrawableSize(800, 600)
	g.ResetCounters()
	d.Frame()
	assert.Equal(t, []Event{EventResize}, events)
	w, h := d.OutputSize()
	assert.Equal(t, [2]int{800, 600}, [2]int{w, h})
	assert.Equal(t, [4]int{0, 0, 400, 600}, g.Draws()[0].State.Viewport)

	cancel()
	g.SetDrawableSize(100, 100)
	d.Frame()
	assert.Len(t, events, 1)
	assert.Equal(t, "EventResize", EventResize.String())
}

func TestPreDrawResources(t *testing.T) {
	d, g := newDevice(t, nil)
	_, m, p := newScene(t, d)
	_, err := d.NewInstance(m, newTriangle(t, d), nil, false)
	require.NoError(t, err)
	off, err := d.NewStage("offscreen", "")
	require.NoError(t, err)
	require.NoError(t, m.SetPass("offscreen", p))
	newColor := func() *Texture {
		tex, err := d.NewTexture(&TexParam{PixelFmt: driver.RGBA8un, Width: 64, Height: 32, Levels: 1})
		require.NoError(t, err)
		return tex
	}
	tg, err := d.NewTarget([]*Texture{newColor()}, nil, 0, 0)
	require.NoError(t, err)
	off.Target = tg

	// Resources created by the hook must not change
	// what the stage draws with.
	var created *Pass
	var other *Target
	off.PreDraw = func(*Stage) {
		var err error
		created, err = d.NewPass(solidVS, solidFS, map[string]string{"OTHER": ""})
		require.NoError(t, err)
		other, err = d.NewTarget([]*Texture{newColor()}, nil, 0, 0)
		require.NoError(t, err)
	}
	g.ResetCounters()
	st := d.Frame()
	require.NotNil(t, created)
	require.NotNil(t, other)
	draws := g.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, p.prog, draws[0].Program)
	assert.Equal(t, driver.Framebuffer(0), draws[0].Framebuffer)
	assert.Equal(t, p.prog, draws[1].Program)
	assert.NotEqual(t, created.prog, draws[1].Program)
	assert.Equal(t, tg.fb, draws[1].Framebuffer)
	assert.NotEqual(t, other.fb, draws[1].Framebuffer)
	assert.Equal(t, [4]int{0, 0, 64, 32}, draws[1].State.Viewport)
	assert.Equal(t, 2, st.PassChanges)
}

func TestCullEpsilon(t *testing.T) {
	// The box ends 5e-6 past the x = 1 plane of the
	// identity frustum.
	edge := mgl32.Translate3D(1.500005, 0, 0)
	for _, x := range [...]struct {
		eps     float32
		visible int
	}{
		{0, 1},
		{1e-3, 1},
		{-1, 0},
	} {
		g := headless.New(headless.DefaultCaps(), 64, 64)
		cfg := DefaultConfig()
		cfg.CullEpsilon = x.eps
		d, err := New(g, &cfg)
		require.NoError(t, err)
		_, m, _ := newScene(t, d)
		_, err = d.NewInstance(m, newTriangle(t, d), &edge, true)
		require.NoError(t, err)
		assert.Equal(t, x.visible, d.Frame().Visible.Instances, "CullEpsilon %v", x.eps)
		d.Close()
	}
}
