package convert

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/gogpu/retrorender/pixel"
)

// frameImage adapts a single-plane raw frame to draw.Image so the x/image
// scalers can read and write it directly. It never copies the pixel memory.
type frameImage struct {
	pix    []byte
	stride int
	rect   image.Rectangle
	format pixel.Format
}

// newFrameImage wraps pix as a width x height image with the given stride.
// It returns nil if the format is invalid or pix is too short.
func newFrameImage(pix []byte, format pixel.Format, width, height, stride int) *frameImage {
	if !format.IsValid() || width <= 0 || height <= 0 {
		return nil
	}
	rowBytes := format.RowBytes(width)
	if stride < rowBytes {
		return nil
	}
	if len(pix) < stride*(height-1)+rowBytes {
		return nil
	}
	return &frameImage{
		pix:    pix,
		stride: stride,
		rect:   image.Rect(0, 0, width, height),
		format: format,
	}
}

// NewImage wraps frame memory as a draw.Image without copying it. It returns
// nil if the format is invalid or pix is too short for the layout.
func NewImage(pix []byte, format pixel.Format, width, height, stride int) draw.Image {
	m := newFrameImage(pix, format, width, height, stride)
	if m == nil {
		return nil
	}
	return m
}

func (m *frameImage) ColorModel() color.Model {
	if m.format.HasAlpha() {
		return color.NRGBAModel
	}
	return color.RGBAModel
}

func (m *frameImage) Bounds() image.Rectangle { return m.rect }

func (m *frameImage) offset(x, y int) int {
	return y*m.stride + x*m.format.BytesPerPixel()
}

func (m *frameImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.rect)) {
		return color.RGBA{}
	}
	p := m.pix[m.offset(x, y):]

	switch m.format {
	case pixel.FormatXRGB1555:
		v := uint16(p[0]) | uint16(p[1])<<8
		return color.RGBA{
			R: expand5(uint8(v >> 10 & 0x1f)),
			G: expand5(uint8(v >> 5 & 0x1f)),
			B: expand5(uint8(v & 0x1f)),
			A: 0xff,
		}
	case pixel.FormatRGB565:
		v := uint16(p[0]) | uint16(p[1])<<8
		return color.RGBA{
			R: expand5(uint8(v >> 11 & 0x1f)),
			G: expand6(uint8(v >> 5 & 0x3f)),
			B: expand5(uint8(v & 0x1f)),
			A: 0xff,
		}
	case pixel.FormatXRGB8888:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: 0xff}
	case pixel.FormatRGBA8:
		return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	case pixel.FormatBGRA8:
		return color.NRGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
	case pixel.FormatRGB8:
		return color.RGBA{R: p[0], G: p[1], B: p[2], A: 0xff}
	}
	return color.RGBA{}
}

func (m *frameImage) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(m.rect)) {
		return
	}
	p := m.pix[m.offset(x, y):]

	if m.format.HasAlpha() {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		if m.format == pixel.FormatRGBA8 {
			p[0], p[1], p[2], p[3] = n.R, n.G, n.B, n.A
		} else {
			p[0], p[1], p[2], p[3] = n.B, n.G, n.R, n.A
		}
		return
	}

	r32, g32, b32, _ := c.RGBA()
	r, g, b := uint8(r32>>8), uint8(g32>>8), uint8(b32>>8)

	switch m.format {
	case pixel.FormatXRGB1555:
		v := uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(b>>3)
		p[0], p[1] = uint8(v), uint8(v>>8)
	case pixel.FormatRGB565:
		v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
		p[0], p[1] = uint8(v), uint8(v>>8)
	case pixel.FormatXRGB8888:
		p[0], p[1], p[2], p[3] = b, g, r, 0xff
	case pixel.FormatRGB8:
		p[0], p[1], p[2] = r, g, b
	}
}

func expand5(v uint8) uint8 { return v<<3 | v>>2 }
func expand6(v uint8) uint8 { return v<<2 | v>>4 }
