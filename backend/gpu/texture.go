// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/retrorender/buffer"
	"github.com/gogpu/retrorender/pixel"
)

// Texture errors.
var (
	// ErrTextureDestroyed is returned when uploading to a destroyed texture.
	ErrTextureDestroyed = errors.New("gpu: texture has been destroyed")

	// ErrUnsupportedFormat is returned for formats without a texture format.
	ErrUnsupportedFormat = errors.New("gpu: format has no texture equivalent")

	// ErrTextureSizeMismatch is returned when an upload does not match the
	// texture dimensions.
	ErrTextureSizeMismatch = errors.New("gpu: upload does not match texture size")
)

// Texture is a sampled GPU texture backing one render buffer.
//
// Thread Safety: Upload and Destroy may be called from different goroutines.
type Texture struct {
	device hal.Device
	queue  hal.Queue
	format pixel.Format
	width  int
	height int

	mu        sync.Mutex
	texture   hal.Texture
	view      hal.TextureView
	uploads   int
	destroyed bool
}

// newTexture creates a texture and its default view.
func newTexture(device hal.Device, queue hal.Queue, format pixel.Format, width, height int) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("gpu: invalid texture size %dx%d", width, height)
	}
	texFormat := format.TextureFormat()
	if texFormat == gputypes.TextureFormatUndefined {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: "retrorender_frame",
		Size: hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        texFormat,
		Usage:         gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create texture: %w", err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:     "retrorender_frame_view",
		Format:    texFormat,
		Dimension: gputypes.TextureViewDimension2D,
		Aspect:    gputypes.TextureAspectAll,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("gpu: create texture view: %w", err)
	}

	return &Texture{
		device:  device,
		queue:   queue,
		format:  format,
		width:   width,
		height:  height,
		texture: tex,
		view:    view,
	}, nil
}

// Upload writes a frame into the texture.
func (t *Texture) Upload(data []byte, format pixel.Format, width, height, stride int) error {
	if format != t.format || width != t.width || height != t.height {
		return fmt.Errorf("%w: got %s %dx%d, have %s %dx%d",
			ErrTextureSizeMismatch, format, width, height, t.format, t.width, t.height)
	}
	if stride < format.RowBytes(width) || len(data) < stride*(height-1)+format.RowBytes(width) {
		return fmt.Errorf("%w: short frame (%d bytes, stride %d)", ErrTextureSizeMismatch, len(data), stride)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return ErrTextureDestroyed
	}

	dst := &hal.ImageCopyTexture{
		Texture:  t.texture,
		MipLevel: 0,
		Origin:   hal.Origin3D{},
		Aspect:   gputypes.TextureAspectAll,
	}
	layout := &hal.ImageDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(stride),
		RowsPerImage: uint32(height),
	}
	size := &hal.Extent3D{
		Width:              uint32(width),
		Height:             uint32(height),
		DepthOrArrayLayers: 1,
	}
	if err := t.queue.WriteTexture(dst, data, layout, size); err != nil {
		return fmt.Errorf("gpu: write texture: %w", err)
	}
	t.uploads++
	return nil
}

// Uploads returns the number of successful uploads.
func (t *Texture) Uploads() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.uploads
}

// Size returns the texture dimensions.
func (t *Texture) Size() (width, height int) {
	return t.width, t.height
}

// View returns the default view, or nil after Destroy.
func (t *Texture) View() hal.TextureView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view
}

// IsDestroyed reports whether Destroy was called.
func (t *Texture) IsDestroyed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.destroyed
}

// Destroy releases the view and the texture. Calling it more than once is
// safe.
func (t *Texture) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return
	}
	t.destroyed = true

	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.texture != nil {
		t.device.DestroyTexture(t.texture)
		t.texture = nil
	}
}

var _ buffer.Texture = (*Texture)(nil)
