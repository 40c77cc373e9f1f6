// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package shader

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/gviegas/retained/driver"
)

// Usage describes the optional features referenced by
// a shader source.
type Usage struct {
	Derivatives bool
	FragDepth   bool
	DrawBuffers bool
	// Precision is set when the source has its own
	// default float precision statement.
	Precision bool
	// Extensions declared with #extension.
	Extensions map[string]bool
	// Version is the end offset of a leading #version
	// directive (including its line break), or 0.
	Version int
}

// Scan identifies the features used by src.
func Scan(src string) Usage {
	u := Usage{Extensions: make(map[string]bool)}
	toks := lex(src)
	for i, t := range toks {
		switch t.kind {
		case tDirective:
			name, args := directive(t.text)
			switch name {
			case "version":
				if i == 0 {
					u.Version = t.end
					if u.Version < len(src) && src[u.Version] == '\n' {
						u.Version++
					}
				}
			case "extension":
				if len(args) > 0 {
					u.Extensions[args[0]] = true
				}
			}
		case tIdent:
			switch t.text {
			case "dFdx", "dFdy", "fwidth":
				if i+1 < len(toks) && toks[i+1].text == "(" {
					u.Derivatives = true
				}
			case "gl_FragDepth", "gl_FragDepthEXT":
				u.FragDepth = true
			case "gl_FragData":
				if i+2 < len(toks) && toks[i+1].text == "[" && toks[i+2].kind == tNumber {
					if k, err := strconv.Atoi(toks[i+2].text); err == nil && k > 0 {
						u.DrawBuffers = true
					}
				}
			case "precision":
				if i+3 < len(toks) && isPrecision(toks[i+1].text) && toks[i+2].text == "float" && toks[i+3].text == ";" {
					u.Precision = true
				}
			}
		}
	}
	return u
}

// Preprocess injects directives into src.
// Right after a leading #version line (or at the very
// start), it inserts, in order:
//
//  1. #extension directives for the optional features
//     that src uses, caps supports and src does not
//     enable already;
//  2. one #define per macro, sorted by name;
//  3. a default float precision statement selecting the
//     highest precision in caps, unless src has one.
//
// The returned offset is the number of lines inserted.
func Preprocess(src string, macros map[string]string, caps *driver.Caps) (string, int) {
	u := Scan(src)
	var b strings.Builder
	n := 0
	ext := func(name string) {
		if name != "" && !u.Extensions[name] {
			b.WriteString("#extension " + name + " : enable\n")
			n++
		}
	}
	if u.Derivatives && caps.Derivatives {
		ext(caps.Ext.Derivatives)
	}
	if u.FragDepth && caps.FragDepth {
		ext(caps.Ext.FragDepth)
	}
	if u.DrawBuffers && caps.MaxColorTargets > 1 {
		ext(caps.Ext.DrawBuffers)
	}
	for _, k := range slices.Sorted(maps.Keys(macros)) {
		if v := macros[k]; v != "" {
			b.WriteString("#define " + k + " " + v + "\n")
		} else {
			b.WriteString("#define " + k + "\n")
		}
		n++
	}
	if p := caps.FloatPrecision.Highest(); p != "" && !u.Precision {
		b.WriteString("precision " + p + " float;\n")
		n++
	}
	if n == 0 {
		return src, 0
	}
	head := src[:u.Version]
	if head != "" && !strings.HasSuffix(head, "\n") {
		head += "\n"
	}
	return head + b.String() + src[u.Version:], n
}
