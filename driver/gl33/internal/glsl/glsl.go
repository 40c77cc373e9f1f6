// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package glsl converts shaders written in the GLSL ES
// 1.00 dialect to GLSL 3.30 core, and normalizes the info
// logs produced by desktop compilers.
package glsl

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gviegas/retained/driver"
)

// Version is the directive that starts every translated
// source.
const Version = "#version 330 core"

// Names of the fragment outputs that replace gl_FragColor
// and gl_FragData.
const (
	FragColor = "_fragColor"
	FragData  = "_fragData"
)

// Extensions that are core in GLSL 3.30. Directives that
// enable them are removed.
var coreExts = map[string]bool{
	"GL_OES_standard_derivatives": true,
	"GL_EXT_frag_depth":           true,
	"GL_EXT_draw_buffers":         true,
	"GL_EXT_shader_texture_lod":   true,
}

var (
	vertexWords = map[string]string{
		"attribute": "in",
		"varying":   "out",
	}
	fragmentWords = map[string]string{
		"varying":         "in",
		"gl_FragColor":    FragColor,
		"gl_FragData":     FragData,
		"gl_FragDepthEXT": "gl_FragDepth",
	}
	commonWords = map[string]string{
		"texture2D":         "texture",
		"textureCube":       "texture",
		"texture2DProj":     "textureProj",
		"texture2DLod":      "textureLod",
		"textureCubeLod":    "textureLod",
		"texture2DLodEXT":   "textureLod",
		"textureCubeLodEXT": "textureLod",
	}
)

var word = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// Translate converts src from GLSL ES 1.00 to GLSL 3.30
// core. outputs is the length of the gl_FragData array.
//
// Line numbers are preserved: the original #version and
// core #extension directives are blanked, and the
// prologue ends with a #line directive.
func Translate(src string, stage driver.Stage, outputs int) string {
	words := make(map[string]string, len(commonWords)+len(fragmentWords))
	for k, v := range commonWords {
		words[k] = v
	}
	switch stage {
	case driver.SVertex:
		for k, v := range vertexWords {
			words[k] = v
		}
	case driver.SFragment:
		for k, v := range fragmentWords {
			words[k] = v
		}
	}

	lines := strings.Split(src, "\n")
	var color, data bool
	for i, l := range lines {
		f := strings.Fields(l)
		if len(f) > 0 {
			switch f[0] {
			case "#version":
				lines[i] = ""
				continue
			case "#extension":
				if len(f) > 1 && coreExts[f[1]] {
					lines[i] = ""
					continue
				}
			}
		}
		lines[i] = word.ReplaceAllStringFunc(l, func(w string) string {
			r, ok := words[w]
			if !ok {
				return w
			}
			color = color || w == "gl_FragColor"
			data = data || w == "gl_FragData"
			return r
		})
	}

	var b strings.Builder
	b.WriteString(Version + "\n")
	if color {
		b.WriteString("out vec4 " + FragColor + ";\n")
	}
	if data {
		b.WriteString("out vec4 " + FragData + "[" + strconv.Itoa(max(outputs, 1)) + "];\n")
	}
	b.WriteString("#line 1\n")
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// Known log formats.
var logFormats = [...]*regexp.Regexp{
	// ANGLE, AMD and Intel.
	regexp.MustCompile(`^\s*(ERROR|WARNING):\s*\d+:(\d+):\s*(.*?)\s*$`),
	// Mesa.
	regexp.MustCompile(`^\s*\d+:(\d+)\(\d+\):\s*(error|warning):\s*(.*?)\s*$`),
	// NVIDIA.
	regexp.MustCompile(`^\s*\d+\((\d+)\)\s*:\s*(error|warning)\s*\w*:\s*(.*?)\s*$`),
}

// NormalizeLog rewrites every diagnostic line of log into
// the form
//
//	ERROR: 0:LINE: REASON
//
// (or WARNING). Other lines are kept as is, and blank
// lines are dropped.
func NormalizeLog(log string) string {
	var b strings.Builder
	log = strings.TrimRight(log, "\x00")
	for _, l := range strings.Split(log, "\n") {
		if kind, line, reason, ok := parseLine(l); ok {
			b.WriteString(kind + ": 0:" + line + ": " + reason + "\n")
		} else if l = strings.TrimRight(l, " \t\r"); strings.TrimSpace(l) != "" {
			b.WriteString(l + "\n")
		}
	}
	return b.String()
}

func parseLine(l string) (kind, line, reason string, ok bool) {
	for i, re := range logFormats {
		m := re.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		switch i {
		case 1, 2:
			kind, line, reason = strings.ToUpper(m[2]), m[1], m[3]
		default:
			kind, line, reason = m[1], m[2], m[3]
		}
		return kind, line, reason, true
	}
	return "", "", "", false
}
