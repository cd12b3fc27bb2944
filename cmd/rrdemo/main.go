// Command rrdemo runs a synthetic emulation core through the render manager
// and saves the last presented picture as PNG.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/retrorender"
	"github.com/gogpu/retrorender/backend/software"
	"github.com/gogpu/retrorender/convert"
	"github.com/gogpu/retrorender/pixel"
	"github.com/gogpu/retrorender/render"
	"github.com/gogpu/retrorender/settings"
)

func main() {
	var (
		width   = flag.Int("width", 640, "canvas width")
		height  = flag.Int("height", 480, "canvas height")
		coreW   = flag.Int("core-width", 256, "frame width produced by the core")
		coreH   = flag.Int("core-height", 224, "frame height produced by the core")
		format  = flag.String("format", "rgb565", "core pixel format: 0rgb1555, rgb565, 0rgb8888, rgba8, bgra8, rgb8")
		scaling = flag.String("scaling", "nearest", "scaling method: nearest, linear, bilinear, catmullrom")
		frames  = flag.Int("frames", 120, "number of frames to produce")
		fps     = flag.Int("fps", 60, "core frame rate")
		pauseAt = flag.Int("pause-at", -1, "pause playback after this frame (-1 never)")
		workers = flag.Int("workers", 0, "conversion goroutines (0 converts inline)")
		output  = flag.String("output", "rrdemo.png", "output file")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		retrorender.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	pf, err := parseFormat(*format)
	if err != nil {
		log.Fatal(err)
	}
	method, err := parseScaling(*scaling)
	if err != nil {
		log.Fatal(err)
	}
	if *fps <= 0 {
		log.Fatalf("invalid fps %d", *fps)
	}

	canvas := render.NewPixmapContext(*width, *height)
	canvas.SetBackground(color.RGBA{R: 0x10, G: 0x10, B: 0x18, A: 0xFF})

	info, err := retrorender.NewProcessInfo(canvas, software.New())
	if err != nil {
		log.Fatalf("Failed to create rendering systems: %v", err)
	}
	m := retrorender.NewManager(info,
		retrorender.WithSettings(settings.NewStore(settings.Video{ScalingMethod: method})),
		retrorender.WithFullscreenSwitch(func() { log.Println("Switching to fullscreen video") }),
		retrorender.WithConversionWorkers(*workers),
	)
	m.Initialize()
	defer m.Deinitialize()

	if err := m.Configure(pf, *coreW, *coreH, *coreW, *coreH); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	done := make(chan struct{})
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(done)
		return produce(ctx, m, pf, *coreW, *coreH, *frames, *fps, *pauseAt)
	})
	g.Go(func() error {
		return present(ctx, m, canvas, done)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Demo interrupted: %v", err)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, canvas.Image()); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	log.Printf("Demo saved to %s (%dx%d)\n", *output, *width, *height)
}

// produce plays the role of the emulation core.
func produce(ctx context.Context, m *retrorender.Manager, pf pixel.Format, w, h, frames, fps, pauseAt int) error {
	stride := pf.RowBytes(w)
	data := make([]byte, stride*h)
	img := convert.NewImage(data, pf, w, h, stride)
	if img == nil {
		return fmt.Errorf("cannot draw %s frames", pf)
	}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for i := range frames {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		drawPattern(img, w, h, i)
		m.AddFrame(data, w, h, 0)

		if i == pauseAt {
			log.Printf("Pausing after frame %d", i)
			m.SetSpeed(0)
		}
	}
	return nil
}

// present is the presentation loop at the display refresh rate.
func present(ctx context.Context, m *retrorender.Manager, canvas *render.PixmapContext, done <-chan struct{}) error {
	res := canvas.VideoResolution()
	rate := res.RefreshRate
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			m.FrameMove()
			m.RenderWindow(true, res)
			return nil
		case <-ticker.C:
			m.FrameMove()
			m.RenderWindow(true, res)
		}
	}
}

// drawPattern draws moving colour bars with a diagonal stripe.
func drawPattern(img draw.Image, w, h, frame int) {
	bars := []color.RGBA{
		{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		{R: 0xFF, G: 0xFF, A: 0xFF},
		{G: 0xFF, B: 0xFF, A: 0xFF},
		{G: 0xFF, A: 0xFF},
		{R: 0xFF, B: 0xFF, A: 0xFF},
		{R: 0xFF, A: 0xFF},
		{B: 0xFF, A: 0xFF},
	}
	for y := range h {
		for x := range w {
			c := bars[((x+frame)*len(bars)/w)%len(bars)]
			if (x+y+frame*2)%32 < 4 {
				c = color.RGBA{A: 0xFF}
			}
			img.Set(x, y, c)
		}
	}
}

func parseFormat(name string) (pixel.Format, error) {
	for _, f := range []pixel.Format{
		pixel.FormatXRGB1555, pixel.FormatRGB565, pixel.FormatXRGB8888,
		pixel.FormatRGBA8, pixel.FormatBGRA8, pixel.FormatRGB8,
	} {
		if strings.EqualFold(f.String(), name) {
			return f, nil
		}
	}
	return pixel.FormatUnknown, fmt.Errorf("unknown pixel format %q", name)
}

func parseScaling(name string) (settings.ScalingMethod, error) {
	for _, m := range []settings.ScalingMethod{
		settings.ScalingMethodNearest, settings.ScalingMethodLinear,
		settings.ScalingMethodBilinear, settings.ScalingMethodCatmullRom,
	} {
		if m.String() == name {
			return m, nil
		}
	}
	return settings.ScalingMethodAuto, fmt.Errorf("unknown scaling method %q", name)
}
