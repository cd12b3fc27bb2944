// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package buffer

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/gogpu/retrorender/internal/logging"
	"github.com/gogpu/retrorender/pixel"
	"github.com/gogpu/retrorender/settings"
)

// Viewer is a renderer registered with a pool. A pool is worth filling while
// at least one of its viewers is visible.
type Viewer interface {
	IsVisible() bool
}

// Pool hands out render buffers for one rendering backend.
type Pool interface {
	// Name identifies the pool in logs.
	Name() string

	// Configure prepares the pool for frames of the given source format and
	// dimensions. It returns false if the pool cannot store such frames.
	Configure(format pixel.Format, width, height int) bool
	IsConfigured() bool

	// GetBuffer returns an acquired buffer for a source frame of size bytes,
	// or nil if none can be provided.
	GetBuffer(size int) RenderBuffer

	// IsCompatible reports whether the pool can serve renderers with the
	// given settings.
	IsCompatible(s settings.Video) bool

	// HasVisibleRenderer reports whether any registered viewer is visible.
	HasVisibleRenderer() bool

	RegisterRenderer(v Viewer)
	UnregisterRenderer(v Viewer)

	// Flush drops pooled resources that are not in use.
	Flush()
}

// TextureAllocator creates the backend texture for a new buffer.
type TextureAllocator func(format pixel.Format, width, height int) (Texture, error)

// PoolConfig describes a BasePool.
type PoolConfig struct {
	// Name identifies the pool in logs.
	Name string

	// ScalingMethods lists the supported scaling methods. An empty list
	// accepts every method.
	ScalingMethods []settings.ScalingMethod

	// Formats lists the pixel formats the pool stores natively. An empty list
	// accepts every valid format.
	Formats []pixel.Format

	// PreferredFormat is used for sources whose format is not in Formats.
	PreferredFormat pixel.Format

	// Allocator attaches a texture to each new buffer. Nil keeps buffers in
	// system memory.
	Allocator TextureAllocator

	// MaxFree limits the number of released buffers kept for reuse.
	// Zero means unlimited.
	MaxFree int
}

// BasePool is a Pool of ref-counted Buffers.
//
// Released buffers are kept on a free list keyed by the requested size and
// reused by GetBuffer. Reconfiguring the pool with new parameters drops the
// free list; buffers still in use are destroyed when they come back.
//
// Thread safety: all methods are safe for concurrent use.
type BasePool struct {
	cfg PoolConfig

	mu            sync.Mutex
	configured    bool
	format        pixel.Format
	storageFormat pixel.Format
	width         int
	height        int
	generation    uint64
	free          map[int][]*Buffer

	viewersMu sync.Mutex
	viewers   []Viewer
}

// NewPool creates an unconfigured pool.
func NewPool(cfg PoolConfig) *BasePool {
	if cfg.Name == "" {
		cfg.Name = "memory"
	}
	return &BasePool{
		cfg:  cfg,
		free: make(map[int][]*Buffer),
	}
}

// Name returns the pool name.
func (p *BasePool) Name() string {
	return p.cfg.Name
}

func (p *BasePool) logger() *slog.Logger {
	return logging.Logger()
}

// SupportsFormat reports whether the pool stores f natively.
func (p *BasePool) SupportsFormat(f pixel.Format) bool {
	if !f.IsValid() {
		return false
	}
	return len(p.cfg.Formats) == 0 || slices.Contains(p.cfg.Formats, f)
}

// SupportsScalingMethod reports whether renderers of this pool can scale
// with m.
func (p *BasePool) SupportsScalingMethod(m settings.ScalingMethod) bool {
	return len(p.cfg.ScalingMethods) == 0 || slices.Contains(p.cfg.ScalingMethods, m)
}

// IsCompatible reports whether the pool supports the scaling method of s.
func (p *BasePool) IsCompatible(s settings.Video) bool {
	return p.SupportsScalingMethod(s.ScalingMethod)
}

// Configure sets the source format and dimensions. Frames in a format the
// pool does not store natively are converted to the preferred format.
func (p *BasePool) Configure(format pixel.Format, width, height int) bool {
	if !format.IsValid() || width <= 0 || height <= 0 {
		return false
	}

	storage := format
	if !p.SupportsFormat(format) {
		storage = p.cfg.PreferredFormat
		if !p.SupportsFormat(storage) {
			p.logger().Warn("buffer: no storage format for source",
				"pool", p.cfg.Name, "format", format)
			return false
		}
	}

	p.mu.Lock()
	var stale []*Buffer
	if !p.configured || p.format != format || p.storageFormat != storage ||
		p.width != width || p.height != height {
		p.generation++
		stale = p.takeFreeLocked()
	}
	p.configured = true
	p.format = format
	p.storageFormat = storage
	p.width = width
	p.height = height
	p.mu.Unlock()

	destroyAll(stale)

	p.logger().Debug("buffer: pool configured",
		"pool", p.cfg.Name, "format", format, "storage", storage,
		"width", width, "height", height)
	return true
}

// IsConfigured reports whether Configure succeeded.
func (p *BasePool) IsConfigured() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.configured
}

// StorageFormat returns the format buffers are stored in, or FormatUnknown
// before Configure.
func (p *BasePool) StorageFormat() pixel.Format {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.storageFormat
}

// GetBuffer returns an acquired buffer, or nil on failure.
func (p *BasePool) GetBuffer(size int) RenderBuffer {
	b, err := p.Allocate(size)
	if err != nil {
		p.logger().Warn("buffer: allocation failed", "pool", p.cfg.Name, "size", size, "error", err)
		return nil
	}
	return b
}

// Allocate returns a buffer with one reference for a source frame of size
// bytes, reusing a free one when possible.
func (p *BasePool) Allocate(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	p.mu.Lock()
	if !p.configured {
		p.mu.Unlock()
		return nil, ErrNotConfigured
	}
	if bucket := p.free[size]; len(bucket) > 0 {
		b := bucket[len(bucket)-1]
		p.free[size] = bucket[:len(bucket)-1]
		p.mu.Unlock()

		b.SetLoaded(false)
		b.refs.Store(1)
		return b, nil
	}
	format, storage := p.format, p.storageFormat
	width, height := p.width, p.height
	generation := p.generation
	p.mu.Unlock()

	frameSize := size
	if storage != format {
		frameSize = storage.FrameBytes(width, height)
	}

	b, err := newBuffer(p, storage, width, height, frameSize)
	if err != nil {
		return nil, err
	}
	b.key = size
	b.generation = generation

	if p.cfg.Allocator != nil {
		tex, err := p.cfg.Allocator(storage, width, height)
		if err != nil {
			return nil, fmt.Errorf("buffer: allocate %dx%d %s texture: %w", width, height, storage, err)
		}
		b.texture = tex
	}

	b.refs.Store(1)
	return b, nil
}

// put takes back a buffer whose last reference was released.
func (p *BasePool) put(b *Buffer) {
	p.mu.Lock()
	bucket := p.free[b.key]
	if !p.configured || b.generation != p.generation ||
		(p.cfg.MaxFree > 0 && p.freeCountLocked() >= p.cfg.MaxFree) {
		p.mu.Unlock()
		b.destroy()
		return
	}
	p.free[b.key] = append(bucket, b)
	p.mu.Unlock()
}

// FreeCount returns the number of buffers waiting for reuse.
func (p *BasePool) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freeCountLocked()
}

func (p *BasePool) freeCountLocked() int {
	n := 0
	for _, bucket := range p.free {
		n += len(bucket)
	}
	return n
}

func (p *BasePool) takeFreeLocked() []*Buffer {
	var out []*Buffer
	for _, bucket := range p.free {
		out = append(out, bucket...)
	}
	clear(p.free)
	return out
}

// Flush destroys every free buffer.
func (p *BasePool) Flush() {
	p.mu.Lock()
	stale := p.takeFreeLocked()
	p.mu.Unlock()

	destroyAll(stale)
}

// Close flushes the pool and returns it to the unconfigured state.
func (p *BasePool) Close() {
	p.mu.Lock()
	stale := p.takeFreeLocked()
	p.configured = false
	p.generation++
	p.mu.Unlock()

	destroyAll(stale)
}

func destroyAll(buffers []*Buffer) {
	for _, b := range buffers {
		b.destroy()
	}
}

// RegisterRenderer adds v to the pool's viewers.
func (p *BasePool) RegisterRenderer(v Viewer) {
	p.viewersMu.Lock()
	defer p.viewersMu.Unlock()
	if !slices.Contains(p.viewers, v) {
		p.viewers = append(p.viewers, v)
	}
}

// UnregisterRenderer removes v from the pool's viewers.
func (p *BasePool) UnregisterRenderer(v Viewer) {
	p.viewersMu.Lock()
	defer p.viewersMu.Unlock()
	if i := slices.Index(p.viewers, v); i >= 0 {
		p.viewers = slices.Delete(p.viewers, i, i+1)
	}
}

// HasVisibleRenderer reports whether any registered viewer is visible.
func (p *BasePool) HasVisibleRenderer() bool {
	p.viewersMu.Lock()
	viewers := slices.Clone(p.viewers)
	p.viewersMu.Unlock()

	for _, v := range viewers {
		if v.IsVisible() {
			return true
		}
	}
	return false
}
