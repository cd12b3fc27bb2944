// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu is the hardware rendering system built on gogpu/wgpu HAL.
//
// Buffers of the gpu pool own a sampled texture. The render manager uploads
// a buffer once when it is first bound, and the renderer draws it into an
// offscreen target with a textured quad. Global alpha is applied with the
// blend constant, and the scaling method selects the sampler filter.
//
// The package needs an open device, so it does not register itself. Hosts
// register it after opening one:
//
//	backend.Register(backend.NameGPU, func() backend.Factory {
//	    return gpu.New(device, queue)
//	})
package gpu

import (
	"errors"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/retrorender/backend"
	"github.com/gogpu/retrorender/buffer"
	"github.com/gogpu/retrorender/internal/logging"
	"github.com/gogpu/retrorender/pixel"
	"github.com/gogpu/retrorender/render"
	"github.com/gogpu/retrorender/settings"
)

// ErrNoDevice is returned when the factory has no device or queue.
var ErrNoDevice = errors.New("gpu: no device")

// Option configures a Factory.
type Option func(*options)

type options struct {
	scalingMethods []settings.ScalingMethod
	targetFormat   gputypes.TextureFormat
	maxFree        int
}

func defaultOptions() options {
	return options{
		scalingMethods: []settings.ScalingMethod{
			settings.ScalingMethodNearest,
			settings.ScalingMethodLinear,
			settings.ScalingMethodBilinear,
		},
		targetFormat: gputypes.TextureFormatRGBA8Unorm,
		maxFree:      3,
	}
}

// WithScalingMethods restricts the scaling methods. Methods other than
// nearest, linear and bilinear are ignored. If none is left the default
// methods are kept, since a pool with no methods accepts every method.
func WithScalingMethods(methods ...settings.ScalingMethod) Option {
	return func(o *options) {
		kept := slices.DeleteFunc(slices.Clone(methods), func(m settings.ScalingMethod) bool {
			return samplerFilter(m) == nil
		})
		if len(kept) == 0 {
			return
		}
		o.scalingMethods = kept
	}
}

// WithTargetFormat sets the format of the output texture.
func WithTargetFormat(format gputypes.TextureFormat) Option {
	return func(o *options) {
		o.targetFormat = format
	}
}

// WithMaxFreeBuffers limits the textures kept for reuse. Zero means
// unlimited.
func WithMaxFreeBuffers(n int) Option {
	return func(o *options) {
		o.maxFree = n
	}
}

// Factory creates the gpu pool and renderers on one device.
type Factory struct {
	device hal.Device
	queue  hal.Queue
	opts   options
}

// New creates a Factory for device and queue.
func New(device hal.Device, queue hal.Queue, opts ...Option) *Factory {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Factory{device: device, queue: queue, opts: o}
}

// RenderSystemName returns "gpu".
func (f *Factory) RenderSystemName() string {
	return backend.NameGPU
}

// CreateBufferPools returns a single texture pool, or nothing without a
// device.
func (f *Factory) CreateBufferPools() []buffer.Pool {
	if f.device == nil || f.queue == nil {
		return nil
	}
	return []buffer.Pool{f.NewPool()}
}

// NewPool creates a texture pool. Frames are stored as RGBA8 or BGRA8, the
// layouts a texture holds without conversion.
func (f *Factory) NewPool() *buffer.BasePool {
	return buffer.NewPool(buffer.PoolConfig{
		Name:            backend.NameGPU,
		ScalingMethods:  f.opts.scalingMethods,
		Formats:         []pixel.Format{pixel.FormatRGBA8, pixel.FormatBGRA8},
		PreferredFormat: pixel.FormatRGBA8,
		Allocator:       f.allocate,
		MaxFree:         f.opts.maxFree,
	})
}

func (f *Factory) allocate(format pixel.Format, width, height int) (buffer.Texture, error) {
	if f.device == nil || f.queue == nil {
		return nil, ErrNoDevice
	}
	return newTexture(f.device, f.queue, format, width, height)
}

// CreateRenderer creates a renderer bound to pool and builds its pipeline.
// The pool must come from this package.
func (f *Factory) CreateRenderer(s settings.Video, ctx render.Context, pool buffer.Pool) (render.Renderer, error) {
	bp, ok := pool.(*buffer.BasePool)
	if !ok || bp.Name() != backend.NameGPU {
		return nil, backend.ErrIncompatiblePool
	}
	if f.device == nil || f.queue == nil {
		return nil, ErrNoDevice
	}
	logging.Logger().Debug("gpu: creating renderer",
		"filter", s.VideoFilter, "scaling", s.ScalingMethod, "view", s.ViewMode)
	r, err := NewRenderer(f.device, f.queue, bp, ctx, s, f.opts.targetFormat, f.opts.scalingMethods)
	if err != nil {
		return nil, err
	}
	return r, nil
}

var _ backend.Factory = (*Factory)(nil)
