// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"log/slog"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"honnef.co/go/safeish"

	"github.com/gviegas/retained/driver"
)

// AttrType is the type of vertex attributes.
type AttrType int

// Attribute types.
const (
	AttrFloat AttrType = iota + 1
	AttrVec2
	AttrVec3
	AttrVec4
)

// Components returns the number of floats per vertex.
func (t AttrType) Components() int {
	if t < AttrFloat || t > AttrVec4 {
		return 0
	}
	return int(t)
}

// String implements fmt.Stringer.
func (t AttrType) String() string {
	switch t {
	case AttrFloat:
		return "float"
	case AttrVec2:
		return "vec2"
	case AttrVec3:
		return "vec3"
	case AttrVec4:
		return "vec4"
	default:
		return "!engine.AttrType"
	}
}

type meshAttr struct {
	name string
	typ  AttrType
	data []float32
	// Byte length of the last upload.
	size int
	buf  driver.Buffer
}

// Mesh is a set of named vertex attributes plus optional
// indices. Data is retained on the CPU so that it can be
// uploaded again after a context loss, until Flush is
// called.
type Mesh struct {
	handle
	dev      *Device
	attrs    []meshAttr
	vertices int
	topology driver.Topology

	idx16    []uint16
	idx32    []uint32
	idxFmt   driver.IndexFmt
	idxCount int
	idxSize  int
	ibuf     driver.Buffer

	bounds  AABB
	flushed bool
}

// NewMesh creates an empty mesh whose topology is
// driver.TTriangle.
func (d *Device) NewMesh() *Mesh {
	m := &Mesh{dev: d, topology: driver.TTriangle, bounds: EmptyAABB()}
	d.meshes.insert(m)
	Logger().Debug("mesh created", slog.Int("id", m.id))
	return m
}

// SetAttribute sets the data of a vertex attribute,
// replacing any previous data of the same name.
// Every attribute of a mesh must have the same number
// of vertices.
// Setting the attribute named by Config.PositionAttribute
// updates the mesh's bounds.
func (m *Mesh) SetAttribute(name string, typ AttrType, data []float32) error {
	n := typ.Components()
	var reason string
	switch {
	case m.dev == nil:
		reason = "freed mesh"
	case name == "":
		reason = "empty attribute name"
	case n == 0:
		reason = "invalid attribute type"
	case len(data) == 0, len(data)%n != 0:
		reason = "invalid data length for " + typ.String()
	case m.vertices != 0 && len(data)/n != m.vertices && !(len(m.attrs) == 1 && m.attrs[0].name == name):
		reason = "vertex count mismatch (" + strconv.Itoa(len(data)/n) + " != " + strconv.Itoa(m.vertices) + ")"
	default:
		goto validAttr
	}
	return newConfigError(meshPrefix, reason)
validAttr:
	i := m.attr(name)
	if i < 0 {
		m.attrs = append(m.attrs, meshAttr{name: name})
		i = len(m.attrs) - 1
	}
	a := &m.attrs[i]
	a.typ = typ
	a.data = append(a.data[:0], data...)
	m.vertices = len(data) / n
	if name == m.dev.cfg.PositionAttribute {
		m.bounds = EmptyAABB()
		for j := 0; j+n <= len(data); j += n {
			var p mgl32.Vec3
			copy(p[:], data[j:j+min(n, 3)])
			m.bounds = m.bounds.Extend(p)
		}
	}
	if !m.dev.lost {
		m.uploadAttr(a)
	}
	return nil
}

func (m *Mesh) attr(name string) int {
	for i := range m.attrs {
		if m.attrs[i].name == name {
			return i
		}
	}
	return -1
}

func (m *Mesh) uploadAttr(a *meshAttr) {
	gpu := m.dev.gpu
	if a.buf == 0 {
		a.buf = gpu.NewBuffer()
	}
	gpu.BindBuffer(driver.ArrayBuffer, a.buf)
	if a.data != nil {
		b := safeish.SliceCast[[]byte](a.data)
		a.size = len(b)
		gpu.BufferData(driver.ArrayBuffer, b, driver.StaticDraw)
	} else {
		gpu.BufferData(driver.ArrayBuffer, make([]byte, a.size), driver.StaticDraw)
	}
	m.dev.frame.invalidateMesh()
}

// SetIndices16 sets 16-bit indices.
func (m *Mesh) SetIndices16(indices []uint16) error {
	if m.dev == nil {
		return newConfigError(meshPrefix, "freed mesh")
	}
	m.idx16, m.idx32 = append(m.idx16[:0], indices...), nil
	m.idxFmt, m.idxCount = driver.Index16, len(indices)
	m.idxSize = len(indices) * 2
	if !m.dev.lost {
		m.uploadIndices()
	}
	return nil
}

// SetIndices32 sets 32-bit indices.
// It requires driver.Caps.Index32.
func (m *Mesh) SetIndices32(indices []uint32) error {
	if m.dev == nil {
		return newConfigError(meshPrefix, "freed mesh")
	}
	if !m.dev.caps.Index32 {
		return newUsageError(meshPrefix, "32-bit indices not supported")
	}
	m.idx32, m.idx16 = append(m.idx32[:0], indices...), nil
	m.idxFmt, m.idxCount = driver.Index32, len(indices)
	m.idxSize = len(indices) * 4
	if !m.dev.lost {
		m.uploadIndices()
	}
	return nil
}

func (m *Mesh) uploadIndices() {
	gpu := m.dev.gpu
	if m.ibuf == 0 {
		m.ibuf = gpu.NewBuffer()
	}
	gpu.BindBuffer(driver.IndexBuffer, m.ibuf)
	switch {
	case m.idx16 != nil:
		gpu.BufferData(driver.IndexBuffer, safeish.SliceCast[[]byte](m.idx16), driver.StaticDraw)
	case m.idx32 != nil:
		gpu.BufferData(driver.IndexBuffer, safeish.SliceCast[[]byte](m.idx32), driver.StaticDraw)
	default:
		gpu.BufferData(driver.IndexBuffer, make([]byte, m.idxSize), driver.StaticDraw)
	}
	m.dev.frame.invalidateMesh()
}

// SetTopology sets the primitive topology.
func (m *Mesh) SetTopology(t driver.Topology) { m.topology = t }

// Topology returns the primitive topology.
func (m *Mesh) Topology() driver.Topology { return m.topology }

// Flush discards the CPU copy of m's data.
// If the context is lost afterwards, m is restored with
// buffers of the same size but undefined contents.
func (m *Mesh) Flush() {
	for i := range m.attrs {
		m.attrs[i].data = nil
	}
	m.idx16, m.idx32 = nil, nil
	m.flushed = true
}

// Flushed returns whether Flush was called since data
// was last set.
func (m *Mesh) Flushed() bool { return m.flushed }

// Vertices returns the number of vertices that a draw of
// m processes (the index count, if m is indexed).
func (m *Mesh) Vertices() int {
	if m.idxCount > 0 {
		return m.idxCount
	}
	return m.vertices
}

// Primitives returns the number of primitives that a draw
// of m assembles.
func (m *Mesh) Primitives() int { return m.topology.Primitives(m.Vertices()) }

// Bounds returns the local bounds of m.
func (m *Mesh) Bounds() AABB { return m.bounds }

// Attributes returns the names of m's attributes.
func (m *Mesh) Attributes() []string {
	s := make([]string, len(m.attrs))
	for i := range m.attrs {
		s[i] = m.attrs[i].name
	}
	return s
}

// matches returns whether m has data for at least one of
// the attributes in s.
func (m *Mesh) matches(s []Attrib) bool {
	for i := range s {
		if j := m.attr(s[i].Name); j >= 0 && m.attrs[j].typ.Components() <= s[i].Type.Components() {
			return true
		}
	}
	return false
}

// bind sets up the vertex attributes of p from m.
// Pass attributes that m lacks are disabled.
func (m *Mesh) bind(p *Pass, f *frameState) {
	gpu := m.dev.gpu
	for _, a := range p.attribs {
		j := m.attr(a.Name)
		if j < 0 || m.attrs[j].typ.Components() > a.Type.Components() {
			f.setAttrib(gpu, a.Location, false)
			continue
		}
		f.setAttrib(gpu, a.Location, true)
		gpu.BindBuffer(driver.ArrayBuffer, m.attrs[j].buf)
		gpu.AttribPointer(a.Location, m.attrs[j].typ.Components(), false, 0, 0)
	}
	if m.idxCount > 0 {
		gpu.BindBuffer(driver.IndexBuffer, m.ibuf)
	}
}

// draw issues the draw call.
func (m *Mesh) draw() {
	if m.idxCount > 0 {
		m.dev.gpu.DrawElements(m.topology, m.idxCount, m.idxFmt, 0)
	} else {
		m.dev.gpu.DrawArrays(m.topology, 0, m.vertices)
	}
}

// restore recreates m's buffers.
func (m *Mesh) restore() {
	for i := range m.attrs {
		m.attrs[i].buf = 0
		m.uploadAttr(&m.attrs[i])
	}
	m.ibuf = 0
	if m.idxCount > 0 {
		m.uploadIndices()
	}
}

// lose drops m's GPU handles.
// release deletes the buffers of m.
func (m *Mesh) release() {
	for i := range m.attrs {
		if m.attrs[i].buf != 0 {
			m.dev.gpu.DeleteBuffer(m.attrs[i].buf)
		}
	}
	if m.ibuf != 0 {
		m.dev.gpu.DeleteBuffer(m.ibuf)
	}
	m.lose()
}

func (m *Mesh) lose() {
	for i := range m.attrs {
		m.attrs[i].buf = 0
	}
	m.ibuf = 0
}

// Free invalidates m and releases its buffers.
// Instances that use m are not drawn afterwards.
func (m *Mesh) Free() {
	if m.dev == nil {
		return
	}
	if !m.dev.lost {
		m.release()
	}
	m.dev.meshes.remove(m)
	m.dev.frame.invalidateMesh()
	*m = Mesh{handle: handle{slot: -1, id: m.id}}
}
