// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/retrorender/buffer"
	"github.com/gogpu/retrorender/pixel"
	"github.com/gogpu/retrorender/settings"
)

// Feature is an optional rendering capability.
type Feature uint8

const (
	// FeatureStretch is support for non-native aspect ratios.
	FeatureStretch Feature = iota

	// FeatureZoom is support for zooming into the frame.
	FeatureZoom

	// FeaturePixelRatio is support for non-square source pixels.
	FeaturePixelRatio

	// FeatureRotation is support for rotating the frame.
	FeatureRotation
)

// String returns a string representation of the feature.
func (f Feature) String() string {
	switch f {
	case FeatureStretch:
		return "stretch"
	case FeatureZoom:
		return "zoom"
	case FeaturePixelRatio:
		return "pixelratio"
	case FeatureRotation:
		return "rotation"
	default:
		return "unknown"
	}
}

// Renderer draws frames from the buffers of one pool.
//
// A renderer is bound to its pool for its whole lifetime. The render
// manager creates renderers lazily, keeps them while they are compatible
// with the requested settings and destroys them on deinitialization.
//
// Thread Safety: Configure, FrameMove, Flush, SetBuffer and the settings
// setters may be called from the presentation goroutine while the producer
// queries IsVisible through the pool. Implementations must tolerate that.
type Renderer interface {
	buffer.Viewer

	// Configure prepares the renderer for frames of the given format and
	// dimensions.
	Configure(format pixel.Format, width, height int) bool

	// FrameMove advances the renderer by one presentation frame.
	FrameMove()

	// Flush drops the bound buffer.
	Flush()

	// PreRender runs before the buffer is bound for this frame.
	PreRender(clear bool)

	// SetBuffer binds b for drawing. The renderer keeps its own reference.
	SetBuffer(b buffer.RenderBuffer)

	// RenderFrame draws the bound buffer with the given alpha.
	RenderFrame(clear bool, alpha uint8)

	Supports(f Feature) bool
	SupportsScalingMethod(m settings.ScalingMethod) bool

	// IsCompatible reports whether the renderer can draw with s.
	IsCompatible(s settings.Video) bool

	// BufferPool returns the pool the renderer is bound to.
	BufferPool() buffer.Pool

	SetScalingMethod(m settings.ScalingMethod)
	SetViewMode(v settings.ViewMode)
	SetRenderRotation(degrees int)

	// Destroy releases the renderer's resources and unregisters it from
	// its pool.
	Destroy()
}
