// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package glsl

import (
	"strings"
	"testing"

	"github.com/gviegas/retained/driver"
)

func TestTranslateVertex(t *testing.T) {
	const src = `#version 100
attribute vec3 position;
attribute vec2 uv;
varying vec2 vUV;
uniform sampler2D disp;
void main() {
	vUV = uv;
	vec3 p = position + texture2DLod(disp, uv, 0.0).xyz;
	gl_Position = vec4(p, 1.0);
}`
	const want = Version + `
#line 1

in vec3 position;
in vec2 uv;
out vec2 vUV;
uniform sampler2D disp;
void main() {
	vUV = uv;
	vec3 p = position + textureLod(disp, uv, 0.0).xyz;
	gl_Position = vec4(p, 1.0);
}`
	if have := Translate(src, driver.SVertex, 1); have != want {
		t.Fatalf("Translate:\nhave\n%s\nwant\n%s", have, want)
	}
}

func TestTranslateFragment(t *testing.T) {
	const src = `#extension GL_OES_standard_derivatives : enable
#extension GL_EXT_frag_depth : enable
precision highp float;
varying vec2 vUV;
uniform sampler2D tex;
uniform samplerCube env;
void main() {
	vec4 c = texture2D(tex, vUV) + textureCube(env, vec3(vUV, 1.0));
	gl_FragColor = c * fwidth(vUV.x);
	gl_FragDepthEXT = 0.5;
}`
	have := Translate(src, driver.SFragment, 4)
	for _, s := range [...]string{
		Version + "\nout vec4 _fragColor;\n#line 1\n\n\nprecision highp float;\n",
		"in vec2 vUV;",
		"texture(tex, vUV) + texture(env, vec3(vUV, 1.0))",
		"_fragColor = c * fwidth(vUV.x);",
		"gl_FragDepth = 0.5;",
	} {
		if !strings.Contains(have, s) {
			t.Errorf("Translate: missing %q in\n%s", s, have)
		}
	}
	for _, s := range [...]string{"#extension", "varying", "texture2D", "gl_FragColor", FragData} {
		if strings.Contains(have, s) {
			t.Errorf("Translate: unexpected %q in\n%s", s, have)
		}
	}
	if n, m := strings.Count(src, "\n"), strings.Count(have, "\n"); m != n+3 {
		t.Errorf("Translate: line count\nhave %d\nwant %d", m, n+3)
	}
}

func TestTranslateDrawBuffers(t *testing.T) {
	const src = `#extension GL_EXT_draw_buffers : require
#extension GL_EXT_other : enable
precision mediump float;
void main() {
	gl_FragData[0] = vec4(1.0);
	gl_FragData[1] = vec4(0.0);
}`
	have := Translate(src, driver.SFragment, 3)
	if !strings.HasPrefix(have, Version+"\nout vec4 _fragData[3];\n#line 1\n\n#extension GL_EXT_other : enable\n") {
		t.Fatalf("Translate: unexpected prologue\n%s", have)
	}
	if strings.Contains(have, "gl_FragData") || strings.Count(have, "_fragData[") != 3 {
		t.Fatalf("Translate: gl_FragData not replaced\n%s", have)
	}
	if have := Translate(src, driver.SFragment, 0); !strings.Contains(have, "out vec4 _fragData[1];") {
		t.Fatalf("Translate: outputs not clamped\n%s", have)
	}
}

func TestTranslateWords(t *testing.T) {
	// Only whole words are replaced.
	const src = "uniform float my_attribute;\nfloat texture2Dx = gl_FragColorish;\n"
	have := Translate(src, driver.SVertex, 1)
	if want := Version + "\n#line 1\n" + src; have != want {
		t.Fatalf("Translate:\nhave\n%s\nwant\n%s", have, want)
	}
}

func TestNormalizeLog(t *testing.T) {
	for _, x := range [...]struct {
		log, want string
	}{
		{"ERROR: 0:3: 'x' : undeclared identifier\n", "ERROR: 0:3: 'x' : undeclared identifier\n"},
		{"WARNING: 0:12: extension not supported\x00", "WARNING: 0:12: extension not supported\n"},
		{"0:5(10): error: syntax error, unexpected '}'\n", "ERROR: 0:5: syntax error, unexpected '}'\n"},
		{"0:7(1): warning: unused variable\n", "WARNING: 0:7: unused variable\n"},
		{"0(9) : error C1008: undefined variable \"c\"\n", "ERROR: 0:9: undefined variable \"c\"\n"},
		{"0(2) : warning C7050: \"v\" might be used before being initialized\n",
			"WARNING: 0:2: \"v\" might be used before being initialized\n"},
		{"Compilation failed.\n\n  \n", "Compilation failed.\n"},
		{"", ""},
	} {
		if have := NormalizeLog(x.log); have != x.want {
			t.Errorf("NormalizeLog(%q):\nhave %q\nwant %q", x.log, have, x.want)
		}
	}
}
