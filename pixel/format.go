// Package pixel describes the raw pixel layouts exchanged between an emulation
// core, the render buffers and the renderer backends.
//
// All layouts are single-plane and packed. Multi-byte pixels are stored in
// little-endian byte order, which is what cores emit on every host we target.
package pixel

import "github.com/gogpu/gputypes"

// Format represents a pixel storage format.
type Format uint8

const (
	// FormatUnknown is the zero value and never a valid configuration.
	FormatUnknown Format = iota

	// FormatXRGB1555 is 16-bit RGB with 5 bits per channel and the top bit unused.
	FormatXRGB1555

	// FormatRGB565 is 16-bit RGB with a 6-bit green channel.
	FormatRGB565

	// FormatXRGB8888 is 32-bit RGB stored as a little-endian 0xXXRRGGBB word,
	// that is B, G, R, X in memory. The X byte is ignored.
	FormatXRGB8888

	// FormatRGBA8 is 32-bit RGBA, R first in memory.
	FormatRGBA8

	// FormatBGRA8 is 32-bit BGRA, B first in memory.
	// This is the usual swapchain format.
	FormatBGRA8

	// FormatRGB8 is 24-bit RGB with no padding.
	FormatRGB8

	// formatCount is the number of formats (for internal use).
	formatCount
)

// FormatInfo contains metadata about a pixel format.
type FormatInfo struct {
	// BytesPerPixel is the number of bytes per pixel.
	BytesPerPixel int

	// HasAlpha indicates if the format carries a meaningful alpha channel.
	HasAlpha bool

	// Packed indicates channels share a machine word (16-bit formats).
	Packed bool
}

var formatInfoTable = [formatCount]FormatInfo{
	FormatUnknown:  {},
	FormatXRGB1555: {BytesPerPixel: 2, Packed: true},
	FormatRGB565:   {BytesPerPixel: 2, Packed: true},
	FormatXRGB8888: {BytesPerPixel: 4},
	FormatRGBA8:    {BytesPerPixel: 4, HasAlpha: true},
	FormatBGRA8:    {BytesPerPixel: 4, HasAlpha: true},
	FormatRGB8:     {BytesPerPixel: 3},
}

// Info returns the FormatInfo for this format.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// BytesPerPixel returns the number of bytes per pixel for this format.
func (f Format) BytesPerPixel() int {
	return f.Info().BytesPerPixel
}

// HasAlpha returns true if this format has an alpha channel.
func (f Format) HasAlpha() bool {
	return f.Info().HasAlpha
}

// IsValid returns true if the format is a known, usable format.
func (f Format) IsValid() bool {
	return f != FormatUnknown && f < formatCount
}

// RowBytes returns the number of useful bytes in a row of the given width.
// It returns 0 for an invalid format or a non-positive width.
func (f Format) RowBytes(width int) int {
	if width <= 0 {
		return 0
	}
	return width * f.BytesPerPixel()
}

// FrameBytes returns the size of a tightly packed frame.
func (f Format) FrameBytes(width, height int) int {
	if height <= 0 {
		return 0
	}
	return f.RowBytes(width) * height
}

// TextureFormat returns the GPU texture format that can hold this layout
// without conversion, or gputypes.TextureFormatUndefined if there is none.
func (f Format) TextureFormat() gputypes.TextureFormat {
	switch f {
	case FormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm
	case FormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm
	default:
		return gputypes.TextureFormatUndefined
	}
}

// String returns a string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatXRGB1555:
		return "0RGB1555"
	case FormatRGB565:
		return "RGB565"
	case FormatXRGB8888:
		return "0RGB8888"
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	case FormatRGB8:
		return "RGB8"
	default:
		return "Unknown"
	}
}
