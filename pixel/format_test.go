package pixel

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestFormat_BytesPerPixel(t *testing.T) {
	tests := []struct {
		format   Format
		expected int
	}{
		{FormatUnknown, 0},
		{FormatXRGB1555, 2},
		{FormatRGB565, 2},
		{FormatXRGB8888, 4},
		{FormatRGBA8, 4},
		{FormatBGRA8, 4},
		{FormatRGB8, 3},
		{Format(200), 0},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := tt.format.BytesPerPixel(); got != tt.expected {
				t.Errorf("BytesPerPixel() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestFormat_IsValid(t *testing.T) {
	if FormatUnknown.IsValid() {
		t.Error("FormatUnknown should be invalid")
	}
	if formatCount.IsValid() {
		t.Error("formatCount should be invalid")
	}
	for f := FormatXRGB1555; f < formatCount; f++ {
		if !f.IsValid() {
			t.Errorf("%v should be valid", f)
		}
	}
}

func TestFormat_RowBytes(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		width  int
		want   int
	}{
		{"rgb565", FormatRGB565, 320, 640},
		{"xrgb8888", FormatXRGB8888, 256, 1024},
		{"rgb8", FormatRGB8, 10, 30},
		{"zero width", FormatRGBA8, 0, 0},
		{"negative width", FormatRGBA8, -4, 0},
		{"unknown", FormatUnknown, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.RowBytes(tt.width); got != tt.want {
				t.Errorf("RowBytes(%d) = %d, want %d", tt.width, got, tt.want)
			}
		})
	}
}

func TestFormat_FrameBytes(t *testing.T) {
	if got := FormatXRGB8888.FrameBytes(320, 240); got != 320*240*4 {
		t.Errorf("FrameBytes = %d, want %d", got, 320*240*4)
	}
	if got := FormatRGB565.FrameBytes(320, 0); got != 0 {
		t.Errorf("FrameBytes with zero height = %d, want 0", got)
	}
}

func TestFormat_TextureFormat(t *testing.T) {
	tests := []struct {
		format Format
		want   gputypes.TextureFormat
	}{
		{FormatRGBA8, gputypes.TextureFormatRGBA8Unorm},
		{FormatBGRA8, gputypes.TextureFormatBGRA8Unorm},
		{FormatXRGB8888, gputypes.TextureFormatUndefined},
		{FormatRGB565, gputypes.TextureFormatUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := tt.format.TextureFormat(); got != tt.want {
				t.Errorf("TextureFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormat_HasAlpha(t *testing.T) {
	if FormatXRGB8888.HasAlpha() {
		t.Error("0RGB8888 must not report alpha")
	}
	if !FormatRGBA8.HasAlpha() {
		t.Error("RGBA8 must report alpha")
	}
}
