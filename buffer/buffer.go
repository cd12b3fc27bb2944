// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package buffer provides the reference-counted render buffers that carry a
// frame from the emulation core to a renderer backend, and the pools they
// are borrowed from.
//
// A buffer is owned by its pool. Users borrow it with Acquire and give it
// back with Release; when the last reference is released the buffer returns
// to the pool's free list.
package buffer

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gogpu/retrorender/pixel"
)

// Common errors for buffer operations.
var (
	// ErrInvalidSize is returned when a buffer is requested with a non-positive size.
	ErrInvalidSize = errors.New("buffer: invalid size")

	// ErrNotConfigured is returned when a pool is used before Configure.
	ErrNotConfigured = errors.New("buffer: pool not configured")
)

// RenderBuffer is a frame buffer borrowed from a Pool.
type RenderBuffer interface {
	// Acquire adds a reference.
	Acquire()

	// Release drops a reference. The last release returns the buffer to its pool.
	Release()

	// Memory returns the writable frame memory.
	Memory() []byte

	// ReleaseMemory ends a write started with Memory.
	ReleaseMemory()

	Format() pixel.Format
	Width() int
	Height() int
	FrameSize() int

	// IsLoaded reports whether the current contents were uploaded to the backend.
	IsLoaded() bool
	SetLoaded(loaded bool)

	// UploadTexture pushes the memory to the backend and reports success.
	UploadTexture() bool

	// Pool returns the pool that owns the buffer.
	Pool() Pool
}

// Texture is the backend-side storage attached to a buffer, such as a GPU
// texture. Buffers without a texture live in system memory only.
type Texture interface {
	// Upload copies a frame into the texture.
	Upload(data []byte, format pixel.Format, width, height, stride int) error

	// Destroy frees the backend resources.
	Destroy()
}

// Buffer is the RenderBuffer implementation used by BasePool.
//
// Thread safety: reference counting is atomic. The loaded flag is guarded by
// an internal mutex. Memory writes require the caller to hold the only
// writer reference, which is the case between GetBuffer and the first publish.
type Buffer struct {
	pool    *BasePool
	refs    atomic.Int32
	data    []byte
	format  pixel.Format
	width   int
	height  int
	texture Texture

	// key is the size the buffer was requested with; free buffers are
	// grouped by it.
	key int

	// generation is the pool configuration the buffer was allocated for.
	generation uint64

	mu     sync.Mutex
	loaded bool
}

// newBuffer creates a buffer with size bytes of zeroed memory.
func newBuffer(pool *BasePool, format pixel.Format, width, height, size int) (*Buffer, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return &Buffer{
		pool:   pool,
		data:   make([]byte, size),
		format: format,
		width:  width,
		height: height,
	}, nil
}

// Acquire adds a reference.
func (b *Buffer) Acquire() {
	b.refs.Add(1)
}

// Release drops a reference and hands the buffer back to its pool when the
// count reaches zero.
func (b *Buffer) Release() {
	if b.refs.Add(-1) == 0 && b.pool != nil {
		b.pool.put(b)
	}
}

// Refs returns the current reference count.
func (b *Buffer) Refs() int {
	return int(b.refs.Load())
}

// Memory returns the frame memory.
func (b *Buffer) Memory() []byte {
	return b.data
}

// ReleaseMemory is a no-op for system memory buffers. Writing new content
// invalidates any earlier upload.
func (b *Buffer) ReleaseMemory() {
	b.SetLoaded(false)
}

// Format returns the storage pixel format.
func (b *Buffer) Format() pixel.Format { return b.format }

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.height }

// FrameSize returns the buffer size in bytes.
func (b *Buffer) FrameSize() int { return len(b.data) }

// Stride returns the number of bytes per row.
func (b *Buffer) Stride() int {
	if b.height <= 0 {
		return 0
	}
	return len(b.data) / b.height
}

// IsLoaded reports whether the contents were uploaded.
func (b *Buffer) IsLoaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// SetLoaded sets the loaded flag.
func (b *Buffer) SetLoaded(loaded bool) {
	b.mu.Lock()
	b.loaded = loaded
	b.mu.Unlock()
}

// Texture returns the attached backend texture, or nil for system memory.
func (b *Buffer) Texture() Texture {
	return b.texture
}

// UploadTexture uploads the memory into the attached texture. Buffers
// without a texture have nothing to upload and always succeed.
func (b *Buffer) UploadTexture() bool {
	if b.texture == nil {
		return true
	}
	if err := b.texture.Upload(b.data, b.format, b.width, b.height, b.Stride()); err != nil {
		if b.pool != nil {
			b.pool.logger().Warn("buffer: texture upload failed",
				"pool", b.pool.Name(), "error", err)
		}
		return false
	}
	return true
}

// Pool returns the owning pool.
func (b *Buffer) Pool() Pool {
	if b.pool == nil {
		return nil
	}
	return b.pool
}

// destroy frees the attached texture.
func (b *Buffer) destroy() {
	if b.texture != nil {
		b.texture.Destroy()
		b.texture = nil
	}
}
