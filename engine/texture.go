// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"image"
	"log/slog"
	"strconv"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"
	"honnef.co/go/safeish"

	"github.com/gviegas/retained/driver"
)

// TexParam describes parameters of a texture.
type TexParam struct {
	driver.PixelFmt
	Width  int
	Height int
	// Number of mip levels.
	// Zero means the full chain.
	Levels int
	// Either 1 (2D texture) or 6 (cube texture).
	// Zero means 1.
	Faces int
}

// Texture is a 2D or cube texture with an optional mip
// chain. Pixel data is retained on the CPU so that it
// can be uploaded again after a context loss, until
// Flush is called.
type Texture struct {
	handle
	dev   *Device
	param TexParam
	tex   driver.Texture
	// Indexed by face*Levels+level.
	// A nil entry has undefined contents.
	srcs [][]byte
	// Sampler state last set on tex, or nil if unknown.
	applied *Sampler
	flushed bool
}

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 }

// fullLevels returns the number of levels of a full
// mip chain for a width by height image.
func fullLevels(width, height int) int {
	return int(math32.Log2(float32(max(width, height)))) + 1
}

// validate checks that param is valid for textures
// created from gpu's capabilities, and fills in the
// defaults of zero-valued fields.
func (param *TexParam) validate(caps *driver.Caps) error {
	if param.Faces == 0 {
		param.Faces = 1
	}
	maxSize := caps.MaxTexture
	if param.Faces == 6 {
		maxSize = caps.MaxCube
	}
	var reason string
	switch {
	case !param.PixelFmt.IsColor():
		reason = "invalid pixel format " + param.PixelFmt.String()
	case param.PixelFmt == driver.RGBA32f && !caps.FloatTexture:
		reason = "float textures not supported"
	case param.PixelFmt == driver.RGBA16f && !caps.HalfFloatTexture:
		reason = "half-float textures not supported"
	case !isPow2(param.Width) || !isPow2(param.Height):
		reason = "size is not a power of two (" + strconv.Itoa(param.Width) + "x" + strconv.Itoa(param.Height) + ")"
	case param.Width > maxSize || param.Height > maxSize:
		reason = "size exceeds maximum (" + strconv.Itoa(maxSize) + ")"
	case param.Faces != 1 && param.Faces != 6:
		reason = "face count must be 1 or 6"
	case param.Faces == 6 && param.Width != param.Height:
		reason = "cube faces must be square"
	case param.Levels < 0 || param.Levels > fullLevels(param.Width, param.Height):
		reason = "invalid level count " + strconv.Itoa(param.Levels)
	default:
		goto validParam
	}
	return newConfigError(texPrefix, reason)
validParam:
	if param.Levels == 0 {
		param.Levels = fullLevels(param.Width, param.Height)
	}
	return nil
}

// NewTexture creates a new texture with undefined
// contents.
func (d *Device) NewTexture(param *TexParam) (*Texture, error) {
	p := *param
	if err := p.validate(&d.caps); err != nil {
		return nil, err
	}
	t := &Texture{
		dev:   d,
		param: p,
		srcs:  make([][]byte, p.Faces*p.Levels),
	}
	if !d.lost {
		t.build()
	}
	d.textures.insert(t)
	Logger().Debug("texture created",
		slog.Int("id", t.id),
		slog.String("format", p.PixelFmt.String()),
		slog.Int("width", p.Width),
		slog.Int("height", p.Height),
		slog.Int("levels", p.Levels),
		slog.Int("faces", p.Faces))
	return t, nil
}

// NewTextureFromImages creates a RGBA8un texture from
// either one image (2D) or six images (cube, in the
// order +X, -X, +Y, -Y, +Z, -Z). Every image must have
// the same power-of-two size.
// If mipmaps is true, the full mip chain is generated by
// down-scaling the images; otherwise the texture has a
// single level.
func (d *Device) NewTextureFromImages(imgs []image.Image, mipmaps bool) (*Texture, error) {
	if len(imgs) != 1 && len(imgs) != 6 {
		return nil, newConfigError(texPrefix, "image count must be 1 or 6")
	}
	size := imgs[0].Bounds().Size()
	for _, img := range imgs[1:] {
		if img.Bounds().Size() != size {
			return nil, newConfigError(texPrefix, "image sizes differ")
		}
	}
	param := TexParam{
		PixelFmt: driver.RGBA8un,
		Width:    size.X,
		Height:   size.Y,
		Levels:   1,
		Faces:    len(imgs),
	}
	if mipmaps && isPow2(size.X) && isPow2(size.Y) {
		param.Levels = fullLevels(size.X, size.Y)
	}
	if err := param.validate(&d.caps); err != nil {
		return nil, err
	}
	t := &Texture{
		dev:   d,
		param: param,
		srcs:  make([][]byte, param.Faces*param.Levels),
	}
	for i, img := range imgs {
		prev := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
		draw.Draw(prev, prev.Rect, img, img.Bounds().Min, draw.Src)
		t.srcs[i*param.Levels] = prev.Pix
		for j := 1; j < param.Levels; j++ {
			w, h := max(size.X>>j, 1), max(size.Y>>j, 1)
			next := image.NewRGBA(image.Rect(0, 0, w, h))
			draw.ApproxBiLinear.Scale(next, next.Rect, prev, prev.Rect, draw.Src, nil)
			t.srcs[i*param.Levels+j] = next.Pix
			prev = next
		}
	}
	if !d.lost {
		t.build()
	}
	d.textures.insert(t)
	Logger().Debug("texture created from images",
		slog.Int("id", t.id),
		slog.Int("width", param.Width),
		slog.Int("height", param.Height),
		slog.Int("levels", param.Levels),
		slog.Int("faces", param.Faces))
	return t, nil
}

// Param returns the parameters of t.
func (t *Texture) Param() TexParam { return t.param }

// IsCube returns whether t is a cube texture.
func (t *Texture) IsCube() bool { return t.param.Faces == 6 }

func (t *Texture) target() driver.TexTarget {
	if t.IsCube() {
		return driver.TexCube
	}
	return driver.Tex2D
}

func (t *Texture) imageTarget(face int) driver.TexTarget {
	if t.IsCube() {
		return driver.CubeFace(face)
	}
	return driver.Tex2D
}

func (t *Texture) levelSize(level int) (int, int) {
	return max(t.param.Width>>level, 1), max(t.param.Height>>level, 1)
}

// build creates t's GPU texture and uploads every image.
func (t *Texture) build() {
	gpu := t.dev.gpu
	t.tex = gpu.NewTexture()
	t.applied = nil
	gpu.BindTexture(t.target(), t.tex)
	for i := range t.param.Faces {
		for j := range t.param.Levels {
			w, h := t.levelSize(j)
			gpu.TexImage2D(t.imageTarget(i), j, t.param.PixelFmt, w, h, t.srcs[i*t.param.Levels+j])
		}
	}
}

// SetPixels replaces the contents of one image of t.
// The length of data must match the size of the level
// and the pixel format.
func (t *Texture) SetPixels(face, level int, data []byte) error {
	var reason string
	switch {
	case t.dev == nil:
		reason = "freed texture"
	case face < 0 || face >= t.param.Faces:
		reason = "face out of range"
	case level < 0 || level >= t.param.Levels:
		reason = "level out of range"
	default:
		w, h := t.levelSize(level)
		if n := w * h * t.param.PixelFmt.Size(); len(data) != n {
			reason = "data length mismatch (" + strconv.Itoa(len(data)) + " != " + strconv.Itoa(n) + ")"
			break
		}
		goto validPixels
	}
	return newConfigError(texPrefix, reason)
validPixels:
	i := face*t.param.Levels + level
	t.srcs[i] = append(t.srcs[i][:0], data...)
	t.flushed = false
	if !t.dev.lost {
		w, h := t.levelSize(level)
		t.dev.gpu.BindTexture(t.target(), t.tex)
		t.dev.gpu.TexImage2D(t.imageTarget(face), level, t.param.PixelFmt, w, h, t.srcs[i])
	}
	return nil
}

// SetFloatPixels is like SetPixels but takes float data.
// It is only valid for RGBA32f textures.
func (t *Texture) SetFloatPixels(face, level int, data []float32) error {
	if t.param.PixelFmt != driver.RGBA32f {
		return newConfigError(texPrefix, "float pixels require RGBA32f format")
	}
	return t.SetPixels(face, level, safeish.SliceCast[[]byte](data))
}

// Flush discards the CPU copy of t's images.
func (t *Texture) Flush() {
	clear(t.srcs)
	t.flushed = true
}

// bindSampled binds t to unit and applies s.
func (t *Texture) bindSampled(gpu driver.GPU, unit int, s *Sampler) {
	gpu.ActiveTexture(unit)
	gpu.BindTexture(t.target(), t.tex)
	x := s.forLevels(t.param.Levels)
	x.apply(gpu, t.target(), t.applied)
	t.applied = &x
}

func (t *Texture) restore() { t.build() }

func (t *Texture) release() {
	if t.tex != 0 {
		t.dev.gpu.DeleteTexture(t.tex)
	}
	t.lose()
}

func (t *Texture) lose() {
	t.tex = 0
	t.applied = nil
}

// Free invalidates t and releases its GPU texture.
// t is detached from every Target that uses it.
func (t *Texture) Free() {
	if t.dev == nil {
		return
	}
	for tg := range t.dev.targets.all() {
		tg.detach(t, nil)
	}
	if !t.dev.lost {
		t.release()
	}
	t.dev.textures.remove(t)
	*t = Texture{handle: handle{slot: -1, id: t.id}}
}
