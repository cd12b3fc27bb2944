package retrorender

import (
	"testing"

	"github.com/gogpu/retrorender/settings"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.settings == nil {
		t.Fatal("default settings provider is nil")
	}
	if got := o.settings.Settings(); got != (settings.Video{}) {
		t.Errorf("default settings = %+v, want zero value", got)
	}
	if o.onFullscreen != nil {
		t.Error("default fullscreen switch should be nil")
	}
}

func TestWithSettings(t *testing.T) {
	store := settings.NewStore(settings.Video{ViewMode: settings.ViewModeStretch4x3})

	o := defaultOptions()
	WithSettings(store)(&o)
	if o.settings != store {
		t.Error("WithSettings did not set the provider")
	}

	WithSettings(nil)(&o)
	if o.settings != store {
		t.Error("WithSettings(nil) should keep the previous provider")
	}
}

func TestWithFullscreenSwitch(t *testing.T) {
	called := false
	o := defaultOptions()
	WithFullscreenSwitch(func() { called = true })(&o)
	o.onFullscreen()
	if !called {
		t.Error("fullscreen switch not stored")
	}
}

func TestWithConversionWorkers(t *testing.T) {
	o := defaultOptions()
	if o.workers != 0 {
		t.Errorf("default workers = %d, want 0", o.workers)
	}
	WithConversionWorkers(3)(&o)
	if o.workers != 3 {
		t.Errorf("workers = %d, want 3", o.workers)
	}
}
