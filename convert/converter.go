// Package convert copies raw frames into render buffers, adjusting for stride
// and, when the buffer uses another pixel format, converting and scaling.
//
// Only single-plane layouts are handled. Planar YUV input is out of scope.
package convert

import (
	"image"
	"image/draw"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/retrorender/internal/parallel"
	"github.com/gogpu/retrorender/pixel"
)

// minBandRows is the smallest row band handed to a worker.
const minBandRows = 32

// Target is the writable side of a render buffer.
type Target interface {
	// Memory returns the writable frame memory, or nil if it is unavailable.
	Memory() []byte

	// ReleaseMemory ends the write started by Memory.
	ReleaseMemory()

	Format() pixel.Format
	Width() int
	Height() int

	// FrameSize is the size in bytes of the whole frame, padding included.
	FrameSize() int
}

// Converter copies frames into targets. Scaling contexts are created lazily
// and cached per destination format.
//
// Converter is safe for concurrent use.
type Converter struct {
	mu      sync.Mutex
	scalers map[pixel.Format]*scaler
	workers int
	pool    *parallel.WorkerPool
}

// Option configures a Converter.
type Option func(*Converter)

// WithWorkers splits conversions of tall frames into row bands processed by
// n goroutines. The goroutines start with the first such conversion and
// stop on Close. n <= 1 converts on the calling goroutine.
func WithWorkers(n int) Option {
	return func(c *Converter) {
		c.workers = n
	}
}

// New creates a converter with no cached contexts.
func New(opts ...Option) *Converter {
	c := &Converter{
		scalers: make(map[pixel.Format]*scaler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// workerPool returns the band workers, starting them on first use. It
// returns nil for a serial converter.
func (c *Converter) workerPool() *parallel.WorkerPool {
	if c.workers <= 1 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool == nil {
		c.pool = parallel.NewWorkerPool(c.workers)
	}
	return c.pool
}

// scaler is an immutable conversion context. A context whose parameters no
// longer match is replaced, never mutated, so it can be used without c.mu.
type scaler struct {
	srcFormat  pixel.Format
	srcW, srcH int
	dstFormat  pixel.Format
	dstW, dstH int
	interp     xdraw.Interpolator
}

func (s *scaler) matches(srcFormat pixel.Format, srcW, srcH int, dstFormat pixel.Format, dstW, dstH int) bool {
	return s.srcFormat == srcFormat && s.srcW == srcW && s.srcH == srcH &&
		s.dstFormat == dstFormat && s.dstW == dstW && s.dstH == dstH
}

// context returns the cached context for dstFormat, rebuilding it when the
// parameters changed. A nil result means no context can be built.
func (c *Converter) context(srcFormat pixel.Format, srcW, srcH int, dstFormat pixel.Format, dstW, dstH int) *scaler {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scalers == nil {
		c.scalers = make(map[pixel.Format]*scaler)
	}

	if s := c.scalers[dstFormat]; s != nil && s.matches(srcFormat, srcW, srcH, dstFormat, dstW, dstH) {
		return s
	}

	var s *scaler
	if srcFormat.IsValid() && dstFormat.IsValid() && srcW > 0 && srcH > 0 && dstW > 0 && dstH > 0 {
		s = &scaler{
			srcFormat: srcFormat,
			srcW:      srcW,
			srcH:      srcH,
			dstFormat: dstFormat,
			dstW:      dstW,
			dstH:      dstH,
			interp:    xdraw.ApproxBiLinear,
		}
	}
	c.scalers[dstFormat] = s
	return s
}

// Copy writes a width x height frame of the given format into dst.
//
// The source stride is len(data)/height and the target stride is
// dst.FrameSize()/dst.Height(). Matching formats are copied directly, row by
// row when the strides differ. Otherwise the frame is converted and scaled to
// the target dimensions with a fast bilinear filter. If no conversion
// context can be built the target is left untouched.
//
// dst.ReleaseMemory is always called.
func (c *Converter) Copy(dst Target, format pixel.Format, data []byte, width, height int) {
	defer dst.ReleaseMemory()

	target := dst.Memory()
	if target == nil || height <= 0 || dst.Height() <= 0 {
		return
	}

	sourceStride := len(data) / height
	targetStride := dst.FrameSize() / dst.Height()

	if format == dst.Format() {
		if sourceStride == targetStride {
			copy(target, data)
			return
		}
		rowBytes := format.RowBytes(width)
		c.workerPool().Rows(height, minBandRows, func(b parallel.Band) {
			so, to := sourceStride*b.Y0, targetStride*b.Y0
			if so >= len(data) || to >= len(target) {
				return
			}
			copyRows(target[to:], targetStride, data[so:], sourceStride, rowBytes, b.Rows())
		})
		return
	}

	s := c.context(format, width, height, dst.Format(), dst.Width(), dst.Height())
	if s == nil {
		return
	}
	c.workerPool().Rows(s.dstH, minBandRows, func(b parallel.Band) {
		s.scale(target, targetStride, data, sourceStride, b)
	})
}

// copyRows copies height rows of widthBytes, clamped to both strides.
func copyRows(target []byte, targetStride int, source []byte, sourceStride, widthBytes, height int) {
	rowBytes := min(widthBytes, sourceStride, targetStride)
	if rowBytes <= 0 {
		return
	}
	for i := 0; i < height; i++ {
		src := sourceStride * i
		dst := targetStride * i
		if src+rowBytes > len(source) || dst+rowBytes > len(target) {
			return
		}
		copy(target[dst:dst+rowBytes], source[src:src+rowBytes])
	}
}

// scale writes the target rows of band. The whole source maps onto the whole
// target, so bands scaled separately join without seams.
func (s *scaler) scale(target []byte, targetStride int, source []byte, sourceStride int, band parallel.Band) {
	src := newFrameImage(source, s.srcFormat, s.srcW, s.srcH, sourceStride)
	dst := newFrameImage(target, s.dstFormat, s.dstW, s.dstH, targetStride)
	if src == nil || dst == nil {
		return
	}
	clip := bandImage{Image: dst, rect: image.Rect(0, band.Y0, s.dstW, band.Y1)}
	s.interp.Scale(clip, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
}

// bandImage restricts the bounds of a draw.Image. Scalers only write inside
// the bounds of their destination.
type bandImage struct {
	draw.Image
	rect image.Rectangle
}

func (b bandImage) Bounds() image.Rectangle { return b.rect }

// Len returns the number of cached conversion contexts.
func (c *Converter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.scalers)
}

// Close drops every cached conversion context and stops the band workers.
// The converter stays usable.
func (c *Converter) Close() {
	c.mu.Lock()
	clear(c.scalers)
	pool := c.pool
	c.pool = nil
	c.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
}
