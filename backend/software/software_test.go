// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"slices"
	"testing"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/retrorender/backend"
	"github.com/gogpu/retrorender/buffer"
	"github.com/gogpu/retrorender/pixel"
	"github.com/gogpu/retrorender/render"
	"github.com/gogpu/retrorender/settings"
)

var red = []byte{0xff, 0x00, 0x00, 0xff}

// newBoundRenderer returns a renderer with a solid red width x height
// buffer bound.
func newBoundRenderer(t *testing.T, f *Factory, ctx render.Context, s settings.Video, width, height int) *Renderer {
	t.Helper()
	pool := f.NewPool()
	r, err := f.CreateRenderer(s, ctx, pool)
	if err != nil {
		t.Fatalf("CreateRenderer() error = %v", err)
	}
	if !r.Configure(pixel.FormatRGBA8, width, height) {
		t.Fatal("Configure() = false")
	}

	b := pool.GetBuffer(width * height * 4)
	copy(b.Memory(), bytes.Repeat(red, width*height))
	b.ReleaseMemory()
	r.SetBuffer(b)
	b.Release()
	return r.(*Renderer)
}

func TestRegisteredWithDefaultRegistry(t *testing.T) {
	if !slices.Contains(backend.Names(), backend.NameSoftware) {
		t.Errorf("backend.Names() = %v, missing software", backend.Names())
	}
}

func TestFactory_CreateBufferPools(t *testing.T) {
	pools := New().CreateBufferPools()
	if len(pools) != 1 || pools[0].Name() != backend.NameSoftware {
		t.Fatalf("CreateBufferPools() = %v", pools)
	}

	bp := pools[0].(*buffer.BasePool)
	bp.Configure(pixel.FormatRGB565, 2, 2)
	if bp.StorageFormat() != pixel.FormatRGBA8 {
		t.Errorf("StorageFormat() = %v, want RGBA8 for an RGB565 source", bp.StorageFormat())
	}
	bp.Configure(pixel.FormatXRGB8888, 2, 2)
	if bp.StorageFormat() != pixel.FormatXRGB8888 {
		t.Errorf("StorageFormat() = %v, want native 0RGB8888", bp.StorageFormat())
	}
}

func TestFactory_CreateRendererRejectsForeignPool(t *testing.T) {
	foreign := buffer.NewPool(buffer.PoolConfig{Name: "gpu"})
	if _, err := New().CreateRenderer(settings.Video{}, nil, foreign); !errors.Is(err, backend.ErrIncompatiblePool) {
		t.Errorf("CreateRenderer() error = %v, want ErrIncompatiblePool", err)
	}
}

func TestFactory_Options(t *testing.T) {
	f := New(
		WithScalingMethods(settings.ScalingMethodNearest),
		WithFormats(pixel.FormatBGRA8),
		WithMaxFreeBuffers(1),
	)
	pool := f.NewPool()
	if pool.IsCompatible(settings.Video{ScalingMethod: settings.ScalingMethodLinear}) {
		t.Error("pool accepted a disabled scaling method")
	}
	pool.Configure(pixel.FormatRGBA8, 1, 1)
	if pool.StorageFormat() != pixel.FormatBGRA8 {
		t.Errorf("StorageFormat() = %v, want BGRA8", pool.StorageFormat())
	}

	r, _ := f.CreateRenderer(settings.Video{}, nil, pool)
	if r.SupportsScalingMethod(settings.ScalingMethodLinear) {
		t.Error("renderer accepted a disabled scaling method")
	}
	if !r.SupportsScalingMethod(settings.ScalingMethodNearest) {
		t.Error("renderer rejected an enabled scaling method")
	}
}

func TestRenderer_Supports(t *testing.T) {
	r := NewRenderer(nil, nil, settings.Video{}, nil, nil)
	tests := []struct {
		f    render.Feature
		want bool
	}{
		{render.FeatureStretch, true},
		{render.FeatureRotation, true},
		{render.FeatureZoom, false},
		{render.FeaturePixelRatio, false},
	}
	for _, tt := range tests {
		if got := r.Supports(tt.f); got != tt.want {
			t.Errorf("Supports(%v) = %v, want %v", tt.f, got, tt.want)
		}
	}
}

func TestRenderer_RenderFrameToCanvas(t *testing.T) {
	ctx := render.NewPixmapContext(8, 8)
	r := newBoundRenderer(t, New(), ctx, settings.Video{ScalingMethod: settings.ScalingMethodNearest}, 2, 2)

	r.RenderFrame(false, 0xFF)

	img := ctx.Image()
	for _, p := range []image.Point{{0, 0}, {7, 7}, {3, 4}} {
		if got := img.RGBAAt(p.X, p.Y); got != (color.RGBA{R: 0xff, A: 0xff}) {
			t.Errorf("pixel %v = %v, want red", p, got)
		}
	}
	if r.FramesDrawn() != 1 {
		t.Errorf("FramesDrawn() = %d, want 1", r.FramesDrawn())
	}
}

func TestRenderer_RenderFrameViewWindow(t *testing.T) {
	ctx := render.NewPixmapContext(8, 8)
	ctx.SetViewWindow(image.Rect(4, 4, 8, 8))
	r := newBoundRenderer(t, New(), ctx, settings.Video{ScalingMethod: settings.ScalingMethodNearest}, 2, 2)

	r.RenderFrame(false, 0xFF)

	img := ctx.Image()
	if got := img.RGBAAt(1, 1); got != (color.RGBA{}) {
		t.Errorf("pixel outside the view window = %v, want untouched", got)
	}
	if got := img.RGBAAt(5, 5); got.R != 0xff {
		t.Errorf("pixel inside the view window = %v, want red", got)
	}
}

func TestRenderer_RenderFrameAlpha(t *testing.T) {
	ctx := render.NewPixmapContext(2, 2)
	ctx.Clear() // opaque black
	r := newBoundRenderer(t, New(), ctx, settings.Video{ScalingMethod: settings.ScalingMethodNearest}, 2, 2)

	r.RenderFrame(false, 0x80)

	got := ctx.Image().RGBAAt(0, 0)
	if got.R < 0x7f || got.R > 0x81 || got.A != 0xff {
		t.Errorf("blended pixel = %v, want half red over black", got)
	}
}

func TestRenderer_RenderFrameWithoutBuffer(t *testing.T) {
	pool := New().NewPool()
	r := NewRenderer(pool, render.NewPixmapContext(2, 2), settings.Video{}, nil, nil)

	r.FrameMove()
	r.FrameMove()
	if r.IsVisible() {
		t.Fatal("renderer visible before rendering")
	}
	r.RenderFrame(false, 0xFF)
	if !r.IsVisible() {
		t.Error("RenderFrame without a buffer must still mark the renderer visible")
	}
	if r.FramesDrawn() != 0 {
		t.Errorf("FramesDrawn() = %d, want 0", r.FramesDrawn())
	}
}

func TestRenderer_NullContextDrawsNothing(t *testing.T) {
	r := newBoundRenderer(t, New(), render.NewNullContext(), settings.Video{}, 2, 2)
	r.RenderFrame(false, 0xFF)
	if r.FramesDrawn() != 0 {
		t.Errorf("FramesDrawn() = %d, want 0 without a canvas or drawer", r.FramesDrawn())
	}
}

func TestRotated(t *testing.T) {
	// 2x1 source: left red, right blue.
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	redC, blueC := color.RGBA{R: 0xff, A: 0xff}, color.RGBA{B: 0xff, A: 0xff}
	src.SetRGBA(0, 0, redC)
	src.SetRGBA(1, 0, blueC)

	tests := []struct {
		rotation   int
		bounds     image.Rectangle
		topLeft    color.RGBA
		bottomRght color.RGBA
	}{
		{90, image.Rect(0, 0, 1, 2), redC, blueC},
		{180, image.Rect(0, 0, 2, 1), blueC, redC},
		{270, image.Rect(0, 0, 1, 2), blueC, redC},
	}
	for _, tt := range tests {
		img := newRotated(src, tt.rotation)
		if img.Bounds() != tt.bounds {
			t.Errorf("rotation %d: Bounds() = %v, want %v", tt.rotation, img.Bounds(), tt.bounds)
			continue
		}
		last := tt.bounds.Max.Sub(image.Pt(1, 1))
		if got := img.At(0, 0); got != tt.topLeft {
			t.Errorf("rotation %d: top-left = %v, want %v", tt.rotation, got, tt.topLeft)
		}
		if got := img.At(last.X, last.Y); got != tt.bottomRght {
			t.Errorf("rotation %d: bottom-right = %v, want %v", tt.rotation, got, tt.bottomRght)
		}
	}
}

// mockTexture implements gpucontext.Texture and gpucontext.TextureUpdater.
type mockTexture struct {
	w, h      int
	updates   int
	data      []byte
	destroyed bool
}

func (m *mockTexture) Width() int  { return m.w }
func (m *mockTexture) Height() int { return m.h }
func (m *mockTexture) UpdateData(data []byte) error {
	m.updates++
	m.data = append(m.data[:0], data...)
	return nil
}
func (m *mockTexture) Destroy() { m.destroyed = true }

type mockCreator struct {
	created []*mockTexture
	err     error
}

func (c *mockCreator) NewTextureFromRGBA(w, h int, data []byte) (gpucontext.Texture, error) {
	if c.err != nil {
		return nil, c.err
	}
	tex := &mockTexture{w: w, h: h, data: slices.Clone(data)}
	c.created = append(c.created, tex)
	return tex, nil
}

type mockDrawer struct {
	creator *mockCreator
	draws   int
	x, y    float32
}

func (d *mockDrawer) DrawTexture(_ gpucontext.Texture, x, y float32) error {
	d.draws++
	d.x, d.y = x, y
	return nil
}

func (d *mockDrawer) TextureCreator() gpucontext.TextureCreator {
	if d.creator == nil {
		return nil
	}
	return d.creator
}

func TestRenderer_PresentThroughDrawer(t *testing.T) {
	drawer := &mockDrawer{creator: &mockCreator{}}
	ctx := render.NewPixmapContext(8, 4)
	f := New(WithTextureDrawer(drawer))
	r := newBoundRenderer(t, f, ctx, settings.Video{ScalingMethod: settings.ScalingMethodNearest}, 2, 2)

	r.RenderFrame(false, 0xFF)
	if len(drawer.creator.created) != 1 || drawer.draws != 1 {
		t.Fatalf("created %d textures, drew %d times", len(drawer.creator.created), drawer.draws)
	}
	tex := drawer.creator.created[0]
	if tex.w != 4 || tex.h != 4 {
		t.Errorf("texture = %dx%d, want 4x4", tex.w, tex.h)
	}
	if drawer.x != 2 || drawer.y != 0 {
		t.Errorf("drawn at (%v, %v), want (2, 0)", drawer.x, drawer.y)
	}
	if !bytes.Equal(tex.data[:4], red) {
		t.Errorf("texture data starts with % x, want red", tex.data[:4])
	}

	// Same size: the texture is updated in place.
	r.RenderFrame(false, 0xFF)
	if len(drawer.creator.created) != 1 || tex.updates != 1 {
		t.Errorf("second frame created %d textures, %d updates", len(drawer.creator.created), tex.updates)
	}

	r.Destroy()
	if !tex.destroyed {
		t.Error("Destroy() did not destroy the host texture")
	}
}

func TestRenderer_PresentErrors(t *testing.T) {
	tests := []struct {
		name   string
		drawer *mockDrawer
	}{
		{"no creator", &mockDrawer{}},
		{"creator fails", &mockDrawer{creator: &mockCreator{err: errors.New("device lost")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newBoundRenderer(t, New(WithTextureDrawer(tt.drawer)), render.NewPixmapContext(4, 4), settings.Video{}, 2, 2)
			r.RenderFrame(false, 0xFF)
			if tt.drawer.draws != 0 || r.FramesDrawn() != 0 {
				t.Errorf("draws = %d, frames = %d, want none", tt.drawer.draws, r.FramesDrawn())
			}
		})
	}
}
