// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"
	"sync"

	"github.com/gogpu/gpucontext"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/retrorender/buffer"
	"github.com/gogpu/retrorender/convert"
	"github.com/gogpu/retrorender/internal/logging"
	"github.com/gogpu/retrorender/render"
	"github.com/gogpu/retrorender/settings"
)

// ErrNoTextureCreator is returned when the host drawer has no texture creator.
var ErrNoTextureCreator = errors.New("software: drawer has no texture creator")

// Canvas is a render.Context that exposes its pixels. render.PixmapContext
// implements it.
type Canvas interface {
	render.Context
	Image() *image.RGBA
	ViewWindow() image.Rectangle
}

// interpolators maps scaling methods to x/image/draw scalers.
var interpolators = map[settings.ScalingMethod]xdraw.Interpolator{
	settings.ScalingMethodAuto:       xdraw.ApproxBiLinear,
	settings.ScalingMethodNearest:    xdraw.NearestNeighbor,
	settings.ScalingMethodLinear:     xdraw.ApproxBiLinear,
	settings.ScalingMethodBilinear:   xdraw.BiLinear,
	settings.ScalingMethodCatmullRom: xdraw.CatmullRom,
}

// Renderer draws memory buffers on the CPU.
type Renderer struct {
	*render.BaseRenderer

	methods []settings.ScalingMethod
	drawer  gpucontext.TextureDrawer

	// Guards the presenter state below.
	mu      sync.Mutex
	staging *image.RGBA
	texture gpucontext.Texture
	frames  int
}

// NewRenderer creates a renderer bound to pool. With a non-nil drawer the
// frame is presented through it, otherwise ctx must be a Canvas.
func NewRenderer(pool buffer.Pool, ctx render.Context, s settings.Video, drawer gpucontext.TextureDrawer, methods []settings.ScalingMethod) *Renderer {
	return &Renderer{
		BaseRenderer: render.NewBaseRenderer(pool, ctx, s),
		methods:      slices.Clone(methods),
		drawer:       drawer,
	}
}

// Supports reports stretching and rotation.
func (r *Renderer) Supports(f render.Feature) bool {
	return f == render.FeatureStretch || f == render.FeatureRotation
}

// SupportsScalingMethod reports whether m has a scaler and is enabled.
func (r *Renderer) SupportsScalingMethod(m settings.ScalingMethod) bool {
	if _, ok := interpolators[m]; !ok {
		return false
	}
	return len(r.methods) == 0 || slices.Contains(r.methods, m)
}

// FramesDrawn returns how many frames reached the output.
func (r *Renderer) FramesDrawn() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// RenderFrame scales the bound buffer into the view window.
func (r *Renderer) RenderFrame(clear bool, alpha uint8) {
	r.MarkRendered()

	buf := r.Buffer()
	if buf == nil {
		return
	}
	defer buf.Release()

	if buf.Height() <= 0 {
		return
	}
	src := convert.NewImage(buf.Memory(), buf.Format(), buf.Width(), buf.Height(), buf.FrameSize()/buf.Height())
	if src == nil {
		logging.Logger().Warn("software: unreadable buffer",
			"format", buf.Format(), "width", buf.Width(), "height", buf.Height())
		return
	}

	s := r.Settings()
	var img image.Image = src
	if s.Rotation != 0 {
		img = newRotated(src, s.Rotation)
	}
	interp := interpolators[s.ScalingMethod]
	if interp == nil {
		interp = xdraw.ApproxBiLinear
	}

	if r.drawer != nil {
		if err := r.present(img, interp, s, alpha); err != nil {
			logging.Logger().Warn("software: present failed", "error", err)
			return
		}
	} else if canvas, ok := r.Context().(Canvas); ok {
		r.drawCanvas(canvas, img, interp, s, alpha)
	} else {
		return
	}

	r.mu.Lock()
	r.frames++
	r.mu.Unlock()
}

func (r *Renderer) drawCanvas(canvas Canvas, img image.Image, interp xdraw.Interpolator, s settings.Video, alpha uint8) {
	b := img.Bounds()
	dr := render.DestRect(canvas.ViewWindow(), b.Dx(), b.Dy(), s.ViewMode, 0)
	if dr.Empty() {
		return
	}

	op, opts := drawOp(alpha)
	interp.Scale(canvas.Image(), dr, img, b, op, opts)
}

// present scales into a staging image and draws it through the host drawer.
func (r *Renderer) present(img image.Image, interp xdraw.Interpolator, s settings.Video, alpha uint8) error {
	b := img.Bounds()
	window := r.Context().VideoResolution().Bounds()
	if canvas, ok := r.Context().(Canvas); ok {
		window = canvas.ViewWindow()
	}
	dr := render.DestRect(window, b.Dx(), b.Dy(), s.ViewMode, 0)
	if dr.Empty() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.staging == nil || r.staging.Bounds().Size() != dr.Size() {
		r.staging = image.NewRGBA(image.Rectangle{Max: dr.Size()})
	} else {
		clear(r.staging.Pix)
	}
	_, opts := drawOp(alpha)
	interp.Scale(r.staging, r.staging.Bounds(), img, b, xdraw.Src, opts)

	if err := r.uploadLocked(); err != nil {
		return err
	}
	return r.drawer.DrawTexture(r.texture, float32(dr.Min.X), float32(dr.Min.Y))
}

// uploadLocked refreshes the host texture from the staging image.
func (r *Renderer) uploadLocked() error {
	w, h := r.staging.Bounds().Dx(), r.staging.Bounds().Dy()
	if r.texture != nil && r.texture.Width() == w && r.texture.Height() == h {
		if updater, ok := r.texture.(gpucontext.TextureUpdater); ok {
			if err := updater.UpdateData(r.staging.Pix); err != nil {
				return fmt.Errorf("software: texture update failed: %w", err)
			}
			return nil
		}
	}

	creator := r.drawer.TextureCreator()
	if creator == nil {
		return ErrNoTextureCreator
	}
	tex, err := creator.NewTextureFromRGBA(w, h, r.staging.Pix)
	if err != nil {
		return fmt.Errorf("software: NewTextureFromRGBA failed: %w", err)
	}
	r.destroyTextureLocked()
	r.texture = tex
	return nil
}

func (r *Renderer) destroyTextureLocked() {
	if d, ok := r.texture.(interface{ Destroy() }); ok {
		d.Destroy()
	}
	r.texture = nil
}

// Destroy releases the host texture, the bound buffer and the pool
// registration.
func (r *Renderer) Destroy() {
	r.mu.Lock()
	r.destroyTextureLocked()
	r.staging = nil
	r.mu.Unlock()

	r.BaseRenderer.Destroy()
}

// drawOp returns the draw operator and options for a global alpha.
func drawOp(alpha uint8) (xdraw.Op, *xdraw.Options) {
	if alpha == 0xFF {
		return xdraw.Src, nil
	}
	return xdraw.Over, &xdraw.Options{SrcMask: image.NewUniform(color.Alpha{A: alpha})}
}

// rotated presents an image rotated clockwise by 90, 180 or 270 degrees.
type rotated struct {
	src      image.Image
	rotation int
	w, h     int
}

func newRotated(src image.Image, rotation int) image.Image {
	b := src.Bounds()
	w, h := render.RotatedSize(b.Dx(), b.Dy(), rotation)
	return &rotated{src: src, rotation: rotation, w: w, h: h}
}

func (r *rotated) ColorModel() color.Model { return r.src.ColorModel() }

func (r *rotated) Bounds() image.Rectangle { return image.Rect(0, 0, r.w, r.h) }

func (r *rotated) At(x, y int) color.Color {
	b := r.src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	var sx, sy int
	switch r.rotation {
	case 90:
		sx, sy = y, sh-1-x
	case 180:
		sx, sy = sw-1-x, sh-1-y
	case 270:
		sx, sy = sw-1-y, x
	default:
		sx, sy = x, y
	}
	return r.src.At(b.Min.X+sx, b.Min.Y+sy)
}

var _ render.Renderer = (*Renderer)(nil)
