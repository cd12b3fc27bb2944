// Package retrorender moves video frames from an emulation core to one or
// more renderers.
//
// # Overview
//
// An emulation core produces raw frames on its own goroutine at its own
// rate. The host presents at the display refresh rate. A Manager sits
// between the two: it copies each frame into a buffer for every pool that
// has a visible renderer, converting the pixel format where the pool stores
// a different one, and draws the newest buffer whenever the host asks.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/retrorender"
//	    "github.com/gogpu/retrorender/backend/software"
//	    "github.com/gogpu/retrorender/render"
//	)
//
//	canvas := render.NewPixmapContext(640, 480)
//	info, err := retrorender.NewProcessInfo(canvas, software.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m := retrorender.NewManager(info)
//	m.Initialize()
//	defer m.Deinitialize()
//
//	// Core goroutine
//	m.Configure(pixel.FormatRGB565, 256, 224, 256, 224)
//	m.AddFrame(data, 256, 224, 0)
//
//	// Presentation goroutine, once per tick
//	m.FrameMove()
//	m.RenderWindow(true, canvas.VideoResolution())
//
// # Configuration
//
// Configure only records the layout. The presentation goroutine commits it
// on the next FrameMove, which also reconfigures existing renderers. Frames
// arriving before the first commit are dropped.
//
// # Pause
//
// With SetSpeed(0) the last frame is cached, so a renderer created while
// paused, for example by opening an OSD control, still shows the picture.
//
// # Architecture
//
// The module is organized into:
//   - retrorender: Manager, ProcessInfo
//   - pixel: frame pixel formats
//   - convert: stride copies, format conversion and scaling
//   - buffer: buffer pools and their registry
//   - render: Renderer, Context, geometry
//   - backend: rendering system registry, with software and gpu
//     implementations
//   - settings: video settings and per-control overrides
package retrorender

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
