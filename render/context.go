// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"
	"sync"
)

// Resolution describes an output video mode.
type Resolution struct {
	Width       int
	Height      int
	RefreshRate float64
}

// Bounds returns the rectangle covered by the resolution.
func (r Resolution) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// Context is the host graphics context renderers draw into.
//
// The render manager holds GraphicsMutex while it reads, uploads and draws a
// buffer. All other methods are called by the presentation goroutine only.
type Context interface {
	// GraphicsMutex serialises access to the graphics device.
	GraphicsMutex() sync.Locker

	// VideoResolution returns the resolution video is presented at.
	VideoResolution() Resolution

	// SetRenderingResolution sets the coordinate space for following draws.
	SetRenderingResolution(res Resolution, needScaling bool)

	IsFullScreenVideo() bool
	SetFullScreenVideo(fullscreen bool)

	// SetViewWindow sets the area the frame is drawn into.
	SetViewWindow(r image.Rectangle)

	// SetTransform pushes a scaling transform; RemoveTransform pops it.
	SetTransform(scaleX, scaleY float64)
	RemoveTransform()

	Scissors() image.Rectangle
	SetScissors(r image.Rectangle)

	// Clear fills the scissor area with the background colour.
	Clear()

	// MergeAlpha combines alpha with the alpha of the current GUI
	// transform and returns the result.
	MergeAlpha(alpha uint8) uint8
}

// state is the bookkeeping shared by NullContext and PixmapContext.
type state struct {
	gfx sync.Mutex

	mu          sync.Mutex
	res         Resolution
	renderRes   Resolution
	fullscreen  bool
	viewWindow  image.Rectangle
	transforms  int
	scissors    image.Rectangle
	globalAlpha uint8
}

func (s *state) GraphicsMutex() sync.Locker { return &s.gfx }

func (s *state) VideoResolution() Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.res
}

func (s *state) SetRenderingResolution(res Resolution, _ bool) {
	s.mu.Lock()
	s.renderRes = res
	s.mu.Unlock()
}

// RenderingResolution returns the last resolution set with
// SetRenderingResolution.
func (s *state) RenderingResolution() Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderRes
}

func (s *state) IsFullScreenVideo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullscreen
}

func (s *state) SetFullScreenVideo(fullscreen bool) {
	s.mu.Lock()
	s.fullscreen = fullscreen
	s.mu.Unlock()
}

func (s *state) SetViewWindow(r image.Rectangle) {
	s.mu.Lock()
	s.viewWindow = r.Canon()
	s.mu.Unlock()
}

// ViewWindow returns the area the frame is drawn into.
func (s *state) ViewWindow() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewWindow
}

func (s *state) SetTransform(_, _ float64) {
	s.mu.Lock()
	s.transforms++
	s.mu.Unlock()
}

func (s *state) RemoveTransform() {
	s.mu.Lock()
	if s.transforms > 0 {
		s.transforms--
	}
	s.mu.Unlock()
}

// TransformDepth returns the number of pushed transforms.
func (s *state) TransformDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transforms
}

func (s *state) Scissors() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scissors
}

func (s *state) SetScissors(r image.Rectangle) {
	s.mu.Lock()
	s.scissors = r.Canon()
	s.mu.Unlock()
}

func (s *state) MergeAlpha(alpha uint8) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint8(uint16(alpha) * uint16(s.globalAlpha) / 0xFF)
}

// SetGlobalAlpha sets the GUI alpha merged by MergeAlpha.
func (s *state) SetGlobalAlpha(alpha uint8) {
	s.mu.Lock()
	s.globalAlpha = alpha
	s.mu.Unlock()
}

// NullContext is a Context that records state but draws nothing.
type NullContext struct {
	state
	clears int
}

// NewNullContext creates a NullContext with a 1920x1080 video resolution and
// an opaque global alpha.
func NewNullContext() *NullContext {
	c := &NullContext{}
	c.res = Resolution{Width: 1920, Height: 1080, RefreshRate: 60}
	c.scissors = c.res.Bounds()
	c.viewWindow = c.res.Bounds()
	c.globalAlpha = 0xFF
	return c
}

// Clear counts the call.
func (c *NullContext) Clear() {
	c.mu.Lock()
	c.clears++
	c.mu.Unlock()
}

// Clears returns the number of Clear calls.
func (c *NullContext) Clears() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears
}

// PixmapContext is a CPU-backed Context using *image.RGBA.
//
// The view window defaults to the whole canvas. Clear honours the scissor
// rectangle.
//
// Example:
//
//	ctx := render.NewPixmapContext(640, 480)
//	// ... render frames ...
//	png.Encode(w, ctx.Image())
type PixmapContext struct {
	state
	img        *image.RGBA
	background color.RGBA
}

// NewPixmapContext creates a canvas of the given size.
func NewPixmapContext(width, height int) *PixmapContext {
	return NewPixmapContextFromImage(image.NewRGBA(image.Rect(0, 0, width, height)))
}

// NewPixmapContextFromImage wraps an existing *image.RGBA.
// The image is used directly without copying.
func NewPixmapContextFromImage(img *image.RGBA) *PixmapContext {
	c := &PixmapContext{img: img, background: color.RGBA{A: 0xFF}}
	b := img.Bounds()
	c.res = Resolution{Width: b.Dx(), Height: b.Dy(), RefreshRate: 60}
	c.scissors = b
	c.viewWindow = b
	c.globalAlpha = 0xFF
	return c
}

// Image returns the canvas.
func (c *PixmapContext) Image() *image.RGBA {
	return c.img
}

// SetBackground sets the colour used by Clear.
func (c *PixmapContext) SetBackground(bg color.Color) {
	rgba := color.RGBAModel.Convert(bg).(color.RGBA)
	c.mu.Lock()
	c.background = rgba
	c.mu.Unlock()
}

// Clear fills the scissor area with the background colour.
func (c *PixmapContext) Clear() {
	c.mu.Lock()
	area := c.scissors.Intersect(c.img.Bounds())
	bg := c.background
	c.mu.Unlock()

	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			c.img.SetRGBA(x, y, bg)
		}
	}
}

var (
	_ Context = (*NullContext)(nil)
	_ Context = (*PixmapContext)(nil)
)
