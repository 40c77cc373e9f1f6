// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package shader

import (
	"fmt"
	"strings"
)

// Rewrite replaces the uniforms in l with reads from a
// packed array named packed.
// The first packed declaration in src is replaced by the
// declaration of the packed array itself, using the
// given precision qualifier (which may be empty), and
// the remaining ones are removed. Every identifier that
// refers to a packed uniform is then replaced by
//
//	(EXPR)
//
// where EXPR is l.Expr(NAME, packed). Identifiers that a
// function parameter or local variable shadows are kept,
// as are field selections. The bodies of #define
// directives are rewritten as well.
// Array uniforms, samplers and uniforms not in l are
// left untouched. If l has no registers, src is returned
// unchanged.
// The result has as many lines as src, and each line
// keeps its number.
func Rewrite(src string, l *Layout, packed, precision string) string {
	if l == nil || l.Registers == 0 {
		return src
	}
	var decls []Decl
	names := make(map[string]bool)
	for _, d := range Declarations(src) {
		if s, ok := l.Slots[d.Name]; ok && d.Len == 0 && s.Type == d.DataType() {
			decls = append(decls, d)
			names[d.Name] = true
		}
	}
	if len(decls) == 0 {
		return src
	}
	expr := func(name string) string { return "(" + l.Expr(name, packed) + ")" }

	var b strings.Builder
	toks := lex(src)
	refs := globalRefs(toks, names)
	last := 0
	declared := false
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if len(decls) > 0 && t.start >= decls[0].Start {
			d := decls[0]
			decls = decls[1:]
			b.WriteString(src[last:d.Start])
			if !declared {
				declared = true
				if precision != "" {
					fmt.Fprintf(&b, "uniform %s vec4 %s[%d];", precision, packed, l.Registers)
				} else {
					fmt.Fprintf(&b, "uniform vec4 %s[%d];", packed, l.Registers)
				}
			}
			b.WriteString(strings.Repeat("\n", strings.Count(src[d.Start:d.End], "\n")))
			last = d.End
			for i+1 < len(toks) && toks[i+1].start < d.End {
				i++
			}
			continue
		}
		switch {
		case refs[i]:
			b.WriteString(src[last:t.start])
			b.WriteString(expr(t.text))
			last = t.end
		case t.kind == tDirective:
			if s := rewriteDefine(t.text, names, expr); s != t.text {
				b.WriteString(src[last:t.start])
				b.WriteString(s)
				last = t.end
			}
		}
	}
	b.WriteString(src[last:])
	return b.String()
}

// builtinTypes are the type names that can start a
// declaration.
var builtinTypes = map[string]bool{
	"void": true, "bool": true, "int": true, "float": true,
	"vec2": true, "vec3": true, "vec4": true,
	"bvec2": true, "bvec3": true, "bvec4": true,
	"ivec2": true, "ivec3": true, "ivec4": true,
	"mat2": true, "mat3": true, "mat4": true,
	"sampler2D": true, "samplerCube": true,
}

// scope is a set of names declared in a function or
// block.
type scope struct {
	names map[string]bool
	// Paren depth at which a parameter or for-init list
	// was opened, or -1 for a block.
	paren int
	isFor bool
	// The list was closed and the body has yet to start.
	closed bool
	// The body is a single statement.
	stmt bool
}

// globalRefs reports, for each token, whether it is an
// identifier in names that refers to the global
// declaration.
func globalRefs(toks []token, names map[string]bool) []bool {
	refs := make([]bool, len(toks))
	scopes := []*scope{{names: map[string]bool{}, paren: -1}}
	structs := make(map[string]bool)
	push := func(paren int, isFor bool) {
		scopes = append(scopes, &scope{names: map[string]bool{}, paren: paren, isFor: isFor})
	}
	pop := func() {
		if len(scopes) > 1 {
			scopes = scopes[:len(scopes)-1]
		}
	}
	shadowed := func(name string) bool {
		for _, s := range scopes[1:] {
			if s.names[name] {
				return true
			}
		}
		return false
	}
	paren := 0
	// Paren depth of the declaration being parsed.
	list := -1
	prev := token{kind: tPunct, text: ";"}
	for i, t := range toks {
		if t.kind == tDirective {
			continue
		}
		next := ""
		if i+1 < len(toks) {
			next = toks[i+1].text
		}
		if top := scopes[len(scopes)-1]; top.closed {
			top.closed = false
			switch {
			case t.text == "{":
				// The block shares the scope of the list.
				top.paren = -1
				prev = t
				continue
			case top.isFor:
				top.stmt = true
			default:
				// Prototype.
				pop()
			}
		}
		top := scopes[len(scopes)-1]

		switch t.kind {
		case tIdent:
			switch {
			case prev.kind == tPunct && prev.text == ".":
			case prev.kind == tIdent && prev.text == "struct":
				structs[t.text] = true
			case prev.kind == tIdent && (builtinTypes[prev.text] || structs[prev.text]),
				prev.kind == tPunct && prev.text == "," && list == paren:
				if next == "(" && len(scopes) == 1 && paren == 0 {
					push(paren, false)
					list = -1
				} else {
					top.names[t.text] = true
					list = paren
				}
			case t.text == "for" && next == "(":
				push(paren, true)
			case names[t.text]:
				refs[i] = !shadowed(t.text)
			}
		case tPunct:
			switch t.text {
			case "(":
				paren++
			case ")":
				paren--
				if list > paren {
					list = -1
				}
				if top.paren == paren && !top.stmt {
					top.closed = true
				}
			case ";":
				list = -1
				for s := scopes[len(scopes)-1]; s.stmt && s.paren == paren; s = scopes[len(scopes)-1] {
					pop()
				}
			case "{":
				list = -1
				push(-1, false)
			case "}":
				list = -1
				pop()
				for s := scopes[len(scopes)-1]; s.stmt && s.paren == paren; s = scopes[len(scopes)-1] {
					pop()
				}
			}
		}
		prev = t
	}
	return refs
}

// rewriteDefine replaces the identifiers in names that
// appear in the body of a #define directive.
// Any other directive is returned unchanged.
func rewriteDefine(text string, names map[string]bool, expr func(string) string) string {
	toks := lex(text[1:])
	if len(toks) < 3 || toks[0].text != "define" || toks[1].kind != tIdent {
		return text
	}
	body := 2
	params := make(map[string]bool)
	if toks[2].text == "(" && toks[2].start == toks[1].end {
		for body = 3; body < len(toks) && toks[body].text != ")"; body++ {
			if toks[body].kind == tIdent {
				params[toks[body].text] = true
			}
		}
		body++
	}
	var b strings.Builder
	last := 0
	for i := body; i < len(toks); i++ {
		t := toks[i]
		if t.kind != tIdent || !names[t.text] || params[t.text] || toks[i-1].text == "." {
			continue
		}
		b.WriteString(text[last : t.start+1])
		b.WriteString(expr(t.text))
		last = t.end + 1
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}
