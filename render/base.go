// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"sync"

	"github.com/gogpu/retrorender/buffer"
	"github.com/gogpu/retrorender/pixel"
	"github.com/gogpu/retrorender/settings"
)

// BaseRenderer implements the parts of Renderer shared by all backends.
// Backends embed it and provide RenderFrame, Supports and
// SupportsScalingMethod; RenderFrame must call MarkRendered.
//
// The embedded BaseRenderer registers itself as the pool's viewer, so
// visibility is tracked here and not by the outer type.
type BaseRenderer struct {
	pool buffer.Pool
	ctx  Context

	mu         sync.Mutex
	settings   settings.Video
	format     pixel.Format
	width      int
	height     int
	configured bool
	buf        buffer.RenderBuffer
	frameCount uint64
	lastRender uint64
	destroyed  bool
}

// NewBaseRenderer creates the shared state of a renderer bound to pool and
// registers it with the pool. A nil ctx is replaced with a NullContext.
func NewBaseRenderer(pool buffer.Pool, ctx Context, s settings.Video) *BaseRenderer {
	if ctx == nil {
		ctx = NewNullContext()
	}
	r := &BaseRenderer{
		pool:     pool,
		ctx:      ctx,
		settings: s,
	}
	if pool != nil {
		pool.RegisterRenderer(r)
	}
	return r
}

// Configure records the frame layout and configures the pool for it.
func (r *BaseRenderer) Configure(format pixel.Format, width, height int) bool {
	if r.pool != nil && !r.pool.Configure(format, width, height) {
		return false
	}

	r.mu.Lock()
	r.format = format
	r.width = width
	r.height = height
	r.configured = true
	r.mu.Unlock()
	return true
}

// IsConfigured reports whether Configure succeeded.
func (r *BaseRenderer) IsConfigured() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.configured
}

// Format returns the configured source format.
func (r *BaseRenderer) Format() pixel.Format {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.format
}

// Size returns the configured source dimensions.
func (r *BaseRenderer) Size() (width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// FrameMove advances the frame counter.
func (r *BaseRenderer) FrameMove() {
	r.mu.Lock()
	r.frameCount++
	r.mu.Unlock()
}

// MarkRendered records that the current frame was drawn.
func (r *BaseRenderer) MarkRendered() {
	r.mu.Lock()
	r.lastRender = r.frameCount
	r.mu.Unlock()
}

// IsVisible reports whether the renderer drew during the current or the
// previous frame.
func (r *BaseRenderer) IsVisible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameCount <= r.lastRender+1
}

// Flush releases the bound buffer.
func (r *BaseRenderer) Flush() {
	r.mu.Lock()
	old := r.buf
	r.buf = nil
	r.mu.Unlock()

	if old != nil {
		old.Release()
	}
}

// PreRender clears the graphics context when asked to.
func (r *BaseRenderer) PreRender(clear bool) {
	if clear {
		r.ctx.Clear()
	}
}

// SetBuffer binds b, acquiring it and releasing the previous buffer.
func (r *BaseRenderer) SetBuffer(b buffer.RenderBuffer) {
	r.mu.Lock()
	if r.buf == b {
		r.mu.Unlock()
		return
	}
	if b != nil {
		b.Acquire()
	}
	old := r.buf
	r.buf = b
	r.mu.Unlock()

	if old != nil {
		old.Release()
	}
}

// Buffer returns the bound buffer with an extra reference, or nil. The
// caller must release it.
func (r *BaseRenderer) Buffer() buffer.RenderBuffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buf != nil {
		r.buf.Acquire()
	}
	return r.buf
}

// IsCompatible reports whether the pool accepts s and s selects the same
// video filter as the renderer.
func (r *BaseRenderer) IsCompatible(s settings.Video) bool {
	if r.pool == nil || !r.pool.IsCompatible(s) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings.VideoFilter == s.VideoFilter
}

// BufferPool returns the bound pool.
func (r *BaseRenderer) BufferPool() buffer.Pool {
	return r.pool
}

// Context returns the graphics context the renderer draws to.
func (r *BaseRenderer) Context() Context {
	return r.ctx
}

// Settings returns a copy of the renderer's video settings.
func (r *BaseRenderer) Settings() settings.Video {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// SetScalingMethod sets the scaling method.
func (r *BaseRenderer) SetScalingMethod(m settings.ScalingMethod) {
	r.mu.Lock()
	r.settings.ScalingMethod = m
	r.mu.Unlock()
}

// SetViewMode sets the view mode.
func (r *BaseRenderer) SetViewMode(v settings.ViewMode) {
	r.mu.Lock()
	r.settings.ViewMode = v
	r.mu.Unlock()
}

// SetRenderRotation sets the rotation in degrees, normalised to [0, 360).
func (r *BaseRenderer) SetRenderRotation(degrees int) {
	degrees %= 360
	if degrees < 0 {
		degrees += 360
	}
	r.mu.Lock()
	r.settings.Rotation = degrees
	r.mu.Unlock()
}

// Destroy releases the bound buffer and unregisters from the pool.
// Calling it more than once is safe.
func (r *BaseRenderer) Destroy() {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return
	}
	r.destroyed = true
	r.mu.Unlock()

	r.Flush()
	if r.pool != nil {
		r.pool.UnregisterRenderer(r)
	}
}
