// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl33

import (
	"testing"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/gviegas/retained/driver"
)

func checkUnique[T comparable](t *testing.T, name string, s []T) {
	t.Helper()
	seen := make(map[T]int, len(s))
	for i, x := range s {
		if j, ok := seen[x]; ok {
			t.Errorf("%s: entries %d and %d are both %v", name, j, i, x)
		}
		seen[x] = i
	}
}

func TestConvTables(t *testing.T) {
	checkUnique(t, "toggles", toggles[:])
	checkUnique(t, "cmpFuncs", cmpFuncs[:])
	checkUnique(t, "stencilOps", stencilOps[:])
	checkUnique(t, "blendOps", blendOps[:])
	checkUnique(t, "texTargets", texTargets[:])
	checkUnique(t, "filters", filters[:])
	checkUnique(t, "addrModes", addrModes[:])
	checkUnique(t, "topologies", topologies[:])

	for i, x := range toggles {
		if x == 0 {
			t.Errorf("toggles[%d] is not set", i)
		}
	}
	if n := len(blendFacs); n != int(driver.BInvBlendColor)+1 {
		t.Errorf("len(blendFacs):\nhave %d\nwant %d", n, driver.BInvBlendColor+1)
	}
	if n := len(topologies); n != int(driver.TTriFan)+1 {
		t.Errorf("len(topologies):\nhave %d\nwant %d", n, driver.TTriFan+1)
	}
	for i := range 6 {
		if have, want := texTargets[driver.CubeFace(i)], uint32(gl.TEXTURE_CUBE_MAP_POSITIVE_X+i); have != want {
			t.Errorf("texTargets[CubeFace(%d)]:\nhave %#x\nwant %#x", i, have, want)
		}
	}
}

func TestConvPixelFmt(t *testing.T) {
	for _, f := range [...]driver.PixelFmt{
		driver.RGBA8un, driver.RGB8un, driver.RGBA16f, driver.RGBA32f,
		driver.D16un, driver.D24unS8ui, driver.D32f,
	} {
		pf := pixelFmts[f]
		if pf.internal == 0 || pf.format == 0 || pf.typ == 0 {
			t.Errorf("pixelFmts[%v]: missing entry %+v", f, pf)
		}
		if isDepth := pf.format == gl.DEPTH_COMPONENT || pf.format == gl.DEPTH_STENCIL; isDepth != f.IsDepth() {
			t.Errorf("pixelFmts[%v]: depth format mismatch", f)
		}
	}
}

func TestConvMisc(t *testing.T) {
	for _, x := range [...]struct {
		att  driver.Attachment
		want uint32
	}{
		{driver.ColorAttachment(0), gl.COLOR_ATTACHMENT0},
		{driver.ColorAttachment(3), gl.COLOR_ATTACHMENT3},
		{driver.DepthAttachment, gl.DEPTH_ATTACHMENT},
		{driver.StencilAttachment, gl.STENCIL_ATTACHMENT},
		{driver.DepthStencilAttachment, gl.DEPTH_STENCIL_ATTACHMENT},
	} {
		if have := convAttachment(x.att); have != x.want {
			t.Errorf("convAttachment(%d):\nhave %#x\nwant %#x", x.att, have, x.want)
		}
	}

	if have := convClearMask(driver.MColor | driver.MStencil); have != gl.COLOR_BUFFER_BIT|gl.STENCIL_BUFFER_BIT {
		t.Errorf("convClearMask: have %#x", have)
	}
	if have := convClearMask(0); have != 0 {
		t.Errorf("convClearMask(0): have %#x", have)
	}

	for _, x := range [...]struct {
		gl   uint32
		want driver.DataType
	}{
		{gl.FLOAT, driver.Float},
		{gl.FLOAT_VEC3, driver.Vec3},
		{gl.FLOAT_MAT2, driver.Mat2},
		{gl.FLOAT_MAT4, driver.Mat4},
		{gl.INT, driver.Int},
		{gl.SAMPLER_CUBE, driver.SamplerCube},
		{gl.SAMPLER_3D, driver.Other},
	} {
		if have := dataType(x.gl); have != x.want {
			t.Errorf("dataType(%#x):\nhave %v\nwant %v", x.gl, have, x.want)
		}
	}
}
