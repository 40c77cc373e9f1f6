// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package headless

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/gviegas/retained/driver"
)

// stripComments replaces comments with spaces, keeping
// line breaks so that line numbers are preserved.
func stripComments(src string) string {
	b := []byte(src)
	for i := 0; i < len(b); i++ {
		if b[i] != '/' || i+1 >= len(b) {
			continue
		}
		switch b[i+1] {
		case '/':
			for ; i < len(b) && b[i] != '\n'; i++ {
				b[i] = ' '
			}
		case '*':
			b[i], b[i+1] = ' ', ' '
			for i += 2; i < len(b); i++ {
				if b[i] == '*' && i+1 < len(b) && b[i+1] == '/' {
					b[i], b[i+1] = ' ', ' '
					i++
					break
				}
				if b[i] != '\n' {
					b[i] = ' '
				}
			}
		}
	}
	return string(b)
}

func isIdent(r rune, first bool) bool {
	if r == '_' || unicode.IsLetter(r) {
		return true
	}
	return !first && unicode.IsDigit(r)
}

// fields splits a line into identifiers/numbers and
// single punctuation characters. A leading '#' sticks to
// the directive name.
func fields(line string) []string {
	var f []string
	rs := []rune(line)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '#' || isIdent(r, false):
			j := i + 1
			for j < len(rs) && isIdent(rs[j], false) {
				j++
			}
			f = append(f, string(rs[i:j]))
			i = j
		default:
			f = append(f, string(r))
			i++
		}
	}
	return f
}

// parseDecl parses the tokens following a storage
// qualifier: [precision] type name ['[' N ']'] ';'.
func parseDecl(f []string) (decl, bool) {
	if len(f) > 0 {
		switch f[0] {
		case "lowp", "mediump", "highp":
			f = f[1:]
		}
	}
	if len(f) < 3 {
		return decl{}, false
	}
	d := decl{name: f[1], typ: glslType(f[0]), size: 1}
	if !isIdent([]rune(d.name)[0], true) {
		return decl{}, false
	}
	switch f[2] {
	case ";":
		return d, true
	case "[":
		if len(f) < 6 || f[4] != "]" || f[5] != ";" {
			return decl{}, false
		}
		n, err := strconv.Atoi(f[3])
		if err != nil || n < 1 {
			return decl{}, false
		}
		d.size = n
		return d, true
	}
	return decl{}, false
}

func glslType(name string) driver.DataType {
	switch name {
	case "float":
		return driver.Float
	case "vec2":
		return driver.Vec2
	case "vec3":
		return driver.Vec3
	case "vec4":
		return driver.Vec4
	case "mat2":
		return driver.Mat2
	case "mat3":
		return driver.Mat3
	case "mat4":
		return driver.Mat4
	case "int":
		return driver.Int
	case "bool":
		return driver.Bool
	case "sampler2D":
		return driver.Sampler2D
	case "samplerCube":
		return driver.SamplerCube
	default:
		return driver.Other
	}
}

// countWords counts identifier occurrences in src.
func countWords(src string) map[string]int {
	m := make(map[string]int)
	for _, f := range fields(src) {
		if r := []rune(f)[0]; isIdent(r, true) {
			m[f]++
		}
	}
	return m
}

// hasCall reports whether line contains a call to fn.
func hasCall(line, fn string) bool {
	f := fields(line)
	for i := 0; i+1 < len(f); i++ {
		if f[i] == fn && f[i+1] == "(" {
			return true
		}
	}
	return false
}

// hasFloats reports whether src uses any float type.
func hasFloats(src string) bool {
	for _, f := range fields(src) {
		switch f {
		case "float", "vec2", "vec3", "vec4", "mat2", "mat3", "mat4":
			return true
		}
	}
	return strings.Contains(src, "gl_FragColor") || strings.Contains(src, "gl_FragData")
}
