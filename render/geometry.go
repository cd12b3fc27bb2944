package render

import (
	"image"

	"github.com/gogpu/retrorender/settings"
)

// RotatedSize returns the frame dimensions after a clockwise rotation.
func RotatedSize(width, height, rotation int) (int, int) {
	if rotation == 90 || rotation == 270 {
		return height, width
	}
	return width, height
}

// DestRect returns where a width x height frame is drawn inside window for
// the given view mode and rotation. The result is centred in window.
func DestRect(window image.Rectangle, width, height int, mode settings.ViewMode, rotation int) image.Rectangle {
	window = window.Canon()
	if window.Empty() || width <= 0 || height <= 0 {
		return image.Rectangle{}
	}
	w, h := RotatedSize(width, height, rotation)

	var aspect float64
	switch mode {
	case settings.ViewModeOriginal:
		return centre(window, w, h)
	case settings.ViewModeStretch4x3:
		aspect = 4.0 / 3.0
	case settings.ViewModeFullscreen16x9:
		aspect = 16.0 / 9.0
	default:
		aspect = float64(w) / float64(h)
	}

	ww, wh := window.Dx(), window.Dy()
	dw, dh := ww, int(float64(ww)/aspect+0.5)
	if dh > wh {
		dw, dh = int(float64(wh)*aspect+0.5), wh
	}
	return centre(window, max(dw, 1), max(dh, 1))
}

func centre(window image.Rectangle, w, h int) image.Rectangle {
	x := window.Min.X + (window.Dx()-w)/2
	y := window.Min.Y + (window.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}
