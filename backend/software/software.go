// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software is the CPU rendering system.
//
// Frames live in system memory buffers and are scaled with the
// golang.org/x/image/draw interpolators. Renderers draw into a
// render.PixmapContext canvas, or hand the scaled frame to a host
// gpucontext.TextureDrawer when one is configured.
//
// The package registers itself with the default backend registry under
// backend.NameSoftware.
package software

import (
	"slices"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/retrorender/backend"
	"github.com/gogpu/retrorender/buffer"
	"github.com/gogpu/retrorender/internal/logging"
	"github.com/gogpu/retrorender/pixel"
	"github.com/gogpu/retrorender/render"
	"github.com/gogpu/retrorender/settings"
)

func init() {
	backend.Register(backend.NameSoftware, func() backend.Factory { return New() })
}

// Option configures a Factory.
type Option func(*options)

type options struct {
	scalingMethods  []settings.ScalingMethod
	formats         []pixel.Format
	preferredFormat pixel.Format
	maxFree         int
	drawer          gpucontext.TextureDrawer
}

func defaultOptions() options {
	return options{
		scalingMethods: []settings.ScalingMethod{
			settings.ScalingMethodNearest,
			settings.ScalingMethodLinear,
			settings.ScalingMethodBilinear,
			settings.ScalingMethodCatmullRom,
		},
		formats:         []pixel.Format{pixel.FormatRGBA8, pixel.FormatBGRA8, pixel.FormatXRGB8888},
		preferredFormat: pixel.FormatRGBA8,
		maxFree:         4,
	}
}

// WithScalingMethods sets the scaling methods the renderers accept.
func WithScalingMethods(methods ...settings.ScalingMethod) Option {
	return func(o *options) {
		o.scalingMethods = slices.Clone(methods)
	}
}

// WithFormats sets the formats stored without conversion and the format
// every other source is converted to.
func WithFormats(preferred pixel.Format, others ...pixel.Format) Option {
	return func(o *options) {
		o.preferredFormat = preferred
		o.formats = append([]pixel.Format{preferred}, others...)
	}
}

// WithMaxFreeBuffers limits the buffers kept for reuse. Zero means
// unlimited.
func WithMaxFreeBuffers(n int) Option {
	return func(o *options) {
		o.maxFree = n
	}
}

// WithTextureDrawer presents frames through a host drawer instead of a
// PixmapContext canvas.
func WithTextureDrawer(d gpucontext.TextureDrawer) Option {
	return func(o *options) {
		o.drawer = d
	}
}

// Factory creates the software pool and renderers.
type Factory struct {
	opts options
}

// New creates a Factory.
func New(opts ...Option) *Factory {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Factory{opts: o}
}

// RenderSystemName returns "software".
func (f *Factory) RenderSystemName() string {
	return backend.NameSoftware
}

// CreateBufferPools returns a single memory pool.
func (f *Factory) CreateBufferPools() []buffer.Pool {
	return []buffer.Pool{f.NewPool()}
}

// NewPool creates a memory pool with the factory's formats and scaling
// methods.
func (f *Factory) NewPool() *buffer.BasePool {
	return buffer.NewPool(buffer.PoolConfig{
		Name:            backend.NameSoftware,
		ScalingMethods:  f.opts.scalingMethods,
		Formats:         f.opts.formats,
		PreferredFormat: f.opts.preferredFormat,
		MaxFree:         f.opts.maxFree,
	})
}

// CreateRenderer creates a renderer bound to pool. The pool must come from
// this package.
func (f *Factory) CreateRenderer(s settings.Video, ctx render.Context, pool buffer.Pool) (render.Renderer, error) {
	bp, ok := pool.(*buffer.BasePool)
	if !ok || bp.Name() != backend.NameSoftware {
		return nil, backend.ErrIncompatiblePool
	}
	logging.Logger().Debug("software: creating renderer",
		"filter", s.VideoFilter, "scaling", s.ScalingMethod, "view", s.ViewMode)
	return NewRenderer(bp, ctx, s, f.opts.drawer, f.opts.scalingMethods), nil
}

var _ backend.Factory = (*Factory)(nil)
