package retrorender

import "github.com/gogpu/retrorender/settings"

// Option configures a Manager during creation.
//
// Example:
//
//	store := settings.NewStore(settings.Video{ScalingMethod: settings.ScalingMethodNearest})
//	m := retrorender.NewManager(info,
//	    retrorender.WithSettings(store),
//	    retrorender.WithFullscreenSwitch(window.EnterFullscreen),
//	)
type Option func(*options)

type options struct {
	settings     settings.Provider
	onFullscreen func()
	workers      int
}

func defaultOptions() options {
	return options{
		settings: settings.NewStore(settings.Video{}),
	}
}

// WithSettings sets the provider of the base video settings. Per-control
// overrides passed to RenderControl are applied on top of them.
func WithSettings(p settings.Provider) Option {
	return func(o *options) {
		if p != nil {
			o.settings = p
		}
	}
}

// WithFullscreenSwitch sets the function called on the presentation
// goroutine when the first configuration is committed. Hosts use it to
// switch to fullscreen video.
func WithFullscreenSwitch(fn func()) Option {
	return func(o *options) {
		o.onFullscreen = fn
	}
}

// WithConversionWorkers converts frames whose pixel format differs from a
// buffer's storage format on n goroutines, each handling a band of rows.
// The default converts on the goroutine calling AddFrame.
func WithConversionWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}
