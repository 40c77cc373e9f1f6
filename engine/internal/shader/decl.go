// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package shader

import (
	"strconv"

	"github.com/gviegas/retained/driver"
)

// Decl is a uniform declaration of the form
//
//	uniform [precision] TYPE NAME ['[' N ']'] ;
//
// found in a shader source.
type Decl struct {
	Precision string
	Type      string
	Name      string
	// Array length, or 0 if not an array.
	Len int
	// Line of the uniform keyword.
	Line int
	// Byte offsets of the declaration in the source.
	// End is one past the terminating ';'.
	Start, End int
}

// DataType returns the classified type of d.
func (d *Decl) DataType() driver.DataType { return TypeOf(d.Type) }

// TypeOf classifies a GLSL type name.
// Types outside the supported set yield driver.Other.
func TypeOf(name string) driver.DataType {
	switch name {
	case "float":
		return driver.Float
	case "vec2":
		return driver.Vec2
	case "vec3":
		return driver.Vec3
	case "vec4":
		return driver.Vec4
	case "mat3":
		return driver.Mat3
	case "mat4":
		return driver.Mat4
	case "sampler2D":
		return driver.Sampler2D
	case "samplerCube":
		return driver.SamplerCube
	}
	return driver.Other
}

func isPrecision(s string) bool { return s == "lowp" || s == "mediump" || s == "highp" }

// Declarations returns the uniform declarations of src,
// in source order. Declarations within comments and
// preprocessor directives are not considered, and
// statements that do not match the grammar are skipped.
func Declarations(src string) []Decl {
	toks := lex(src)
	var decls []Decl
	for i := 0; i < len(toks); i++ {
		if toks[i].kind != tIdent || toks[i].text != "uniform" {
			continue
		}
		if i > 0 && toks[i-1].kind != tDirective && toks[i-1].text != ";" && toks[i-1].text != "}" {
			continue
		}
		if d, n, ok := parseDecl(toks[i:]); ok {
			decls = append(decls, d)
			i += n - 1
		}
	}
	return decls
}

// parseDecl parses a declaration starting at the
// uniform keyword. It returns the number of tokens
// consumed.
func parseDecl(toks []token) (Decl, int, bool) {
	d := Decl{Line: toks[0].line, Start: toks[0].start}
	i := 1
	next := func() (token, bool) {
		if i >= len(toks) || toks[i].kind == tDirective {
			return token{}, false
		}
		i++
		return toks[i-1], true
	}
	t, ok := next()
	if !ok || t.kind != tIdent {
		return Decl{}, 0, false
	}
	if isPrecision(t.text) {
		d.Precision = t.text
		if t, ok = next(); !ok || t.kind != tIdent {
			return Decl{}, 0, false
		}
	}
	d.Type = t.text
	if t, ok = next(); !ok || t.kind != tIdent {
		return Decl{}, 0, false
	}
	d.Name = t.text
	if t, ok = next(); !ok {
		return Decl{}, 0, false
	}
	if t.text == "[" {
		n, ok := next()
		if !ok || n.kind != tNumber {
			return Decl{}, 0, false
		}
		x, err := strconv.Atoi(n.text)
		if err != nil || x < 1 {
			return Decl{}, 0, false
		}
		d.Len = x
		if t, ok = next(); !ok || t.text != "]" {
			return Decl{}, 0, false
		}
		if t, ok = next(); !ok {
			return Decl{}, 0, false
		}
	}
	if t.text != ";" {
		return Decl{}, 0, false
	}
	d.End = t.end
	return d, i, true
}
