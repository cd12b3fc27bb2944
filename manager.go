package retrorender

import (
	"fmt"
	"image"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/retrorender/buffer"
	"github.com/gogpu/retrorender/convert"
	"github.com/gogpu/retrorender/pixel"
	"github.com/gogpu/retrorender/render"
	"github.com/gogpu/retrorender/settings"
)

// State is the configuration state of a Manager.
type State uint8

const (
	// StateUnconfigured is the state before the first Configure.
	StateUnconfigured State = iota

	// StateConfiguring waits for FrameMove to commit the first
	// configuration.
	StateConfiguring

	// StateConfigured accepts frames and renders them.
	StateConfigured

	// StateReconfiguring waits for FrameMove to reconfigure the renderers.
	StateReconfiguring
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfiguring:
		return "configuring"
	case StateConfigured:
		return "configured"
	case StateReconfiguring:
		return "reconfiguring"
	default:
		return "unknown"
	}
}

// ControlSettings describes a GUI control that shows the video.
type ControlSettings struct {
	// Dimensions is the view window of the control.
	Dimensions image.Rectangle

	// Override replaces parts of the base video settings for this control.
	Override settings.Override
}

// Manager moves frames from an emulation core to the renderers.
//
// The core calls Configure and AddFrame from its own goroutine. The
// presentation loop calls FrameMove once per tick followed by RenderWindow
// or RenderControl. Flush and SetSpeed may be called from anywhere.
//
// Frames are copied into one buffer per pool with a visible renderer. While
// playback is paused the last frame is also cached, so a renderer created
// during the pause still gets a picture.
type Manager struct {
	info      ProcessInfo
	ctx       render.Context
	settings  settings.Provider
	converter *convert.Converter
	onFS      func()

	flushPending     atomic.Bool
	speed            atomic.Uint64
	orientation      atomic.Int32
	updateResolution atomic.Bool

	// Guards the configuration.
	stateMu   sync.Mutex
	state     State
	format    pixel.Format
	width     int
	height    int
	maxWidth  int
	maxHeight int

	// Guards the current buffers and the cached frame. Never held together
	// with stateMu.
	bufferMu  sync.Mutex
	buffers   []buffer.RenderBuffer
	cached    []byte
	hasCached bool

	// Serialises renderer resolution.
	resolveMu sync.Mutex

	renderersMu sync.Mutex
	renderers   []render.Renderer
}

// NewManager creates a Manager for the rendering systems in info.
func NewManager(info ProcessInfo, opts ...Option) *Manager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx := info.RenderContext()
	if ctx == nil {
		ctx = render.NewNullContext()
	}
	m := &Manager{
		info:      info,
		ctx:       ctx,
		settings:  o.settings,
		converter: convert.New(convert.WithWorkers(o.workers)),
		onFS:      o.onFullscreen,
	}
	m.speed.Store(math.Float64bits(1))
	return m
}

// Initialize starts the manager's lifetime.
func (m *Manager) Initialize() {
	Logger().Debug("retrorender: initializing render manager")
}

// Deinitialize releases the current buffers and destroys every renderer.
// The manager returns to StateUnconfigured.
func (m *Manager) Deinitialize() {
	Logger().Debug("retrorender: deinitializing render manager")

	m.converter.Close()

	m.bufferMu.Lock()
	old := m.buffers
	m.buffers = nil
	m.cached = nil
	m.hasCached = false
	m.bufferMu.Unlock()
	releaseAll(old)

	m.renderersMu.Lock()
	renderers := m.renderers
	m.renderers = nil
	m.renderersMu.Unlock()
	for _, r := range renderers {
		r.Destroy()
	}

	m.stateMu.Lock()
	m.state = StateUnconfigured
	m.stateMu.Unlock()
}

// Configure records the frame layout of the core. The first call arms the
// initial configuration; later calls flush and arm a reconfiguration. Both
// are committed by the next FrameMove.
func (m *Manager) Configure(format pixel.Format, nominalWidth, nominalHeight, maxWidth, maxHeight int) error {
	if !format.IsValid() || nominalWidth <= 0 || nominalHeight <= 0 {
		return fmt.Errorf("%w: format %s, nominal %dx%d",
			ErrInvalidConfiguration, format, nominalWidth, nominalHeight)
	}

	Logger().Info("retrorender: configuring",
		"format", format, "width", nominalWidth, "height", nominalHeight,
		"maxWidth", maxWidth, "maxHeight", maxHeight)

	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	m.format = format
	m.width = nominalWidth
	m.height = nominalHeight
	m.maxWidth = maxWidth
	m.maxHeight = maxHeight

	if m.state == StateUnconfigured {
		m.state = StateConfiguring
	} else {
		m.Flush()
		m.state = StateReconfiguring
	}
	return nil
}

// State returns the configuration state.
func (m *Manager) State() State {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.state
}

type frameLayout struct {
	state     State
	format    pixel.Format
	width     int
	height    int
	maxWidth  int
	maxHeight int
}

func (m *Manager) layout() frameLayout {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return frameLayout{
		state:     m.state,
		format:    m.format,
		width:     m.width,
		height:    m.height,
		maxWidth:  m.maxWidth,
		maxHeight: m.maxHeight,
	}
}

// ready reports whether frames and buffers may be touched.
func (m *Manager) ready() bool {
	return !m.flushPending.Load() && m.State() == StateConfigured
}

// AddFrame copies a frame into a buffer of every pool with a visible
// renderer. Invalid frames are dropped. A frame with new dimensions is
// dropped as well and reconfigures the manager.
//
// orientation is the rotation reported by the core, in degrees
// counter-clockwise.
func (m *Manager) AddFrame(data []byte, width, height, orientation int) {
	if m.flushPending.Load() {
		return
	}
	l := m.layout()
	if l.state != StateConfigured {
		return
	}
	if len(data) == 0 || width <= 0 || height <= 0 {
		return
	}

	if width != l.width || height != l.height {
		if err := m.Configure(l.format, width, height, l.maxWidth, l.maxHeight); err != nil {
			Logger().Warn("retrorender: reconfiguration failed", "error", err)
		}
		return
	}
	m.orientation.Store(int32(orientation))

	var buffers []buffer.RenderBuffer
	for _, pool := range m.info.BufferPools() {
		if !pool.HasVisibleRenderer() {
			continue
		}
		buf := pool.GetBuffer(len(data))
		if buf == nil {
			Logger().Debug("retrorender: unable to get render buffer for frame",
				"system", m.info.RenderSystemName(pool))
			continue
		}
		m.converter.Copy(buf, l.format, data, width, height)
		buffers = append(buffers, buf)
	}

	m.bufferMu.Lock()
	if m.flushPending.Load() {
		m.bufferMu.Unlock()
		releaseAll(buffers)
		return
	}
	old := m.buffers
	m.buffers = buffers
	m.bufferMu.Unlock()
	releaseAll(old)

	if m.Speed() == 0 {
		m.cacheFrame(data)
	}
}

// cacheFrame keeps a copy of data. The copy runs outside bufferMu.
func (m *Manager) cacheFrame(data []byte) {
	m.bufferMu.Lock()
	frame := m.cached
	m.cached = nil
	m.bufferMu.Unlock()

	if cap(frame) >= len(data) {
		frame = frame[:len(data)]
	} else {
		frame = make([]byte, len(data))
	}
	copy(frame, data)

	m.bufferMu.Lock()
	if !m.flushPending.Load() {
		m.cached = frame
		m.hasCached = true
	}
	m.bufferMu.Unlock()
}

// CachedFrame returns a copy of the cached frame, or nil.
func (m *Manager) CachedFrame() []byte {
	m.bufferMu.Lock()
	defer m.bufferMu.Unlock()
	if !m.hasCached || len(m.cached) == 0 {
		return nil
	}
	return slices.Clone(m.cached)
}

// SetSpeed sets the playback speed. Zero means paused and enables frame
// caching.
func (m *Manager) SetSpeed(speed float64) {
	m.speed.Store(math.Float64bits(speed))
}

// Speed returns the playback speed.
func (m *Manager) Speed() float64 {
	return math.Float64frombits(m.speed.Load())
}

// Orientation returns the last orientation reported with a frame.
func (m *Manager) Orientation() int {
	return int(m.orientation.Load())
}

// FrameMove runs a pending flush, commits a pending configuration and
// advances the renderers. It must be called once per presentation tick.
func (m *Manager) FrameMove() {
	m.CheckFlush()

	var switchFullscreen bool
	var configured bool

	m.stateMu.Lock()
	switch m.state {
	case StateConfiguring:
		m.state = StateConfigured
		switchFullscreen = true
		Logger().Info("retrorender: renderer configured on first frame")
	case StateReconfiguring:
		renderers := m.Renderers()
		Logger().Debug("retrorender: reconfiguring renderers", "count", len(renderers))
		for _, r := range renderers {
			if !r.Configure(m.format, m.width, m.height) {
				Logger().Warn("retrorender: renderer rejected configuration",
					"system", m.info.RenderSystemName(r.BufferPool()),
					"format", m.format, "width", m.width, "height", m.height)
			}
		}
		m.state = StateConfigured
	}
	configured = m.state == StateConfigured
	m.stateMu.Unlock()

	if switchFullscreen && m.onFS != nil {
		m.onFS()
	}

	if configured {
		for _, r := range m.Renderers() {
			r.FrameMove()
		}
	}
}

// Flush arms a flush. The next FrameMove drops the current buffers, the
// cached frame and the pooled buffers. Until then frames are refused.
func (m *Manager) Flush() {
	m.flushPending.Store(true)
}

// FlushPending reports whether a flush is armed.
func (m *Manager) FlushPending() bool {
	return m.flushPending.Load()
}

// CheckFlush runs an armed flush.
func (m *Manager) CheckFlush() {
	// Cleared first so a flush armed while this one runs is kept.
	if !m.flushPending.Swap(false) {
		return
	}

	m.bufferMu.Lock()
	old := m.buffers
	m.buffers = nil
	m.cached = nil
	m.hasCached = false
	m.bufferMu.Unlock()
	releaseAll(old)

	for _, r := range m.Renderers() {
		r.Flush()
	}
	for _, pool := range m.info.BufferPools() {
		pool.Flush()
	}
}

// TriggerUpdateResolution asks the host to refresh the display mode.
func (m *Manager) TriggerUpdateResolution() {
	m.updateResolution.Store(true)
}

// UpdateResolutionPending reports and clears a resolution update request.
func (m *Manager) UpdateResolutionPending() bool {
	return m.updateResolution.Swap(false)
}

// RenderWindow draws the frame fullscreen at the video resolution and
// restores coordsRes as the rendering resolution afterwards.
func (m *Manager) RenderWindow(clear bool, coordsRes render.Resolution) {
	r := m.GetRenderer(nil)
	if r == nil {
		return
	}

	m.ctx.SetRenderingResolution(m.ctx.VideoResolution(), false)
	m.renderInternal(r, clear, 0xFF)
	m.ctx.SetRenderingResolution(coordsRes, false)
}

// RenderControl draws the frame into a GUI control. region is the area
// cleared when clear is set; with useAlpha the GUI alpha is applied.
func (m *Manager) RenderControl(clear, useAlpha bool, region image.Rectangle, control ControlSettings) {
	r := m.GetRenderer(&control.Override)
	if r == nil {
		return
	}

	wasFullscreen := m.ctx.IsFullScreenVideo()
	if wasFullscreen {
		m.ctx.SetFullScreenVideo(false)
	}

	m.ctx.SetViewWindow(control.Dimensions)
	m.ctx.SetTransform(1, 1)

	if clear {
		old := m.ctx.Scissors()
		m.ctx.SetScissors(region.Canon().Intersect(old))
		m.ctx.Clear()
		m.ctx.SetScissors(old)
	}

	alpha := uint8(0xFF)
	if useAlpha {
		alpha = m.ctx.MergeAlpha(0xFF)
	}

	m.renderInternal(r, false, alpha)

	m.ctx.RemoveTransform()
	if wasFullscreen {
		m.ctx.SetFullScreenVideo(true)
	}
}

// ClearBackground clears the render context.
func (m *Manager) ClearBackground() {
	m.ctx.Clear()
}

// SupportsRenderFeature reports whether any live renderer supports f.
func (m *Manager) SupportsRenderFeature(f render.Feature) bool {
	return slices.ContainsFunc(m.Renderers(), func(r render.Renderer) bool {
		return r.Supports(f)
	})
}

// SupportsScalingMethod reports whether any pool accepts method.
func (m *Manager) SupportsScalingMethod(method settings.ScalingMethod) bool {
	return slices.ContainsFunc(m.info.BufferPools(), func(pool buffer.Pool) bool {
		return pool.IsCompatible(settings.Video{ScalingMethod: method})
	})
}

// renderInternal binds the pool's current buffer, uploading it first if
// needed, and draws.
func (m *Manager) renderInternal(r render.Renderer, clear bool, alpha uint8) {
	r.PreRender(clear)

	if gfx := m.ctx.GraphicsMutex(); gfx != nil {
		gfx.Lock()
		defer gfx.Unlock()
	}

	pool := r.BufferPool()
	buf := m.GetRenderBuffer(pool)
	if buf == nil {
		m.CreateRenderBuffer(pool)
		buf = m.GetRenderBuffer(pool)
	}

	if buf != nil {
		uploaded := true
		if !buf.IsLoaded() {
			uploaded = buf.UploadTexture()
			if uploaded {
				buf.SetLoaded(true)
			} else {
				Logger().Warn("retrorender: upload failed, retrying next frame",
					"system", m.info.RenderSystemName(pool))
			}
		}
		if uploaded {
			r.SetBuffer(buf)
		}
		buf.Release()
	}

	r.RenderFrame(clear, alpha)
}

// GetRenderer returns a renderer for the base settings with override
// applied, creating one if no live renderer is compatible. It returns nil
// before the first Configure or when no pool accepts the settings.
func (m *Manager) GetRenderer(override *settings.Override) render.Renderer {
	if m.State() == StateUnconfigured {
		return nil
	}

	s := m.effectiveSettings(override)

	m.resolveMu.Lock()
	defer m.resolveMu.Unlock()

	for _, pool := range m.info.BufferPools() {
		if r := m.rendererForPool(pool, s); r != nil {
			r.SetScalingMethod(s.ScalingMethod)
			r.SetViewMode(s.ViewMode)
			r.SetRenderRotation(s.Rotation)
			return r
		}
	}
	return nil
}

// rendererForPool returns the first live renderer of pool compatible with
// s, or creates one.
func (m *Manager) rendererForPool(pool buffer.Pool, s settings.Video) render.Renderer {
	system := m.info.RenderSystemName(pool)
	if !pool.IsCompatible(s) {
		Logger().Warn("retrorender: buffer pool is not compatible with renderer",
			"system", system, "scaling", s.ScalingMethod)
		return nil
	}

	for _, r := range m.Renderers() {
		if r.BufferPool() == pool && r.IsCompatible(s) {
			return r
		}
	}

	Logger().Debug("retrorender: creating renderer", "system", system)
	r, err := m.info.CreateRenderer(pool, s)
	if err != nil {
		Logger().Warn("retrorender: renderer creation failed", "system", system, "error", err)
		return nil
	}

	l := m.layout()
	if !r.Configure(l.format, l.width, l.height) {
		Logger().Warn("retrorender: renderer configuration failed",
			"system", system, "format", l.format, "width", l.width, "height", l.height)
		r.Destroy()
		return nil
	}

	m.CreateRenderBuffer(pool)

	m.renderersMu.Lock()
	m.renderers = append(m.renderers, r)
	m.renderersMu.Unlock()
	return r
}

// Renderers returns the live renderers in creation order.
func (m *Manager) Renderers() []render.Renderer {
	m.renderersMu.Lock()
	defer m.renderersMu.Unlock()
	return slices.Clone(m.renderers)
}

// effectiveSettings overlays override on the base settings and replaces a
// scaling method no pool supports.
func (m *Manager) effectiveSettings(override *settings.Override) settings.Video {
	s := m.settings.Settings()
	if override != nil {
		s = override.Apply(s)
	}
	if !m.info.HasScalingMethod(s.ScalingMethod) {
		s.ScalingMethod = m.info.DefaultScalingMethod()
	}
	return s
}

// HasRenderBuffer reports whether the current frame has a buffer in pool.
func (m *Manager) HasRenderBuffer(pool buffer.Pool) bool {
	m.bufferMu.Lock()
	defer m.bufferMu.Unlock()
	return m.findBufferLocked(pool) != nil
}

func (m *Manager) findBufferLocked(pool buffer.Pool) buffer.RenderBuffer {
	for _, b := range m.buffers {
		if b.Pool() == pool {
			return b
		}
	}
	return nil
}

// GetRenderBuffer returns the current buffer of pool with an extra
// reference, or nil. The caller must release it.
func (m *Manager) GetRenderBuffer(pool buffer.Pool) buffer.RenderBuffer {
	if !m.ready() {
		return nil
	}

	m.bufferMu.Lock()
	defer m.bufferMu.Unlock()
	b := m.findBufferLocked(pool)
	if b != nil {
		b.Acquire()
	}
	return b
}

// CreateRenderBuffer fills a buffer of pool from the cached frame if the
// current frame has none there.
func (m *Manager) CreateRenderBuffer(pool buffer.Pool) {
	if !m.ready() {
		return
	}
	l := m.layout()

	m.bufferMu.Lock()
	if m.findBufferLocked(pool) != nil || !m.hasCached {
		m.bufferMu.Unlock()
		return
	}
	frame := m.cached
	m.cached = nil
	m.bufferMu.Unlock()

	if len(frame) == 0 {
		Logger().Debug("retrorender: no cached frame for render buffer",
			"system", m.info.RenderSystemName(pool))
		return
	}

	Logger().Debug("retrorender: creating render buffer from cached frame",
		"system", m.info.RenderSystemName(pool))
	buf := pool.GetBuffer(len(frame))
	if buf != nil {
		m.converter.Copy(buf, l.format, frame, l.width, l.height)
	}

	var stale buffer.RenderBuffer
	m.bufferMu.Lock()
	if m.hasCached && m.cached == nil {
		m.cached = frame
	}
	if buf != nil {
		if m.flushPending.Load() || m.findBufferLocked(pool) != nil {
			stale = buf
		} else {
			m.buffers = append(m.buffers, buf)
		}
	}
	m.bufferMu.Unlock()

	if stale != nil {
		stale.Release()
	}
}

func releaseAll(buffers []buffer.RenderBuffer) {
	for _, b := range buffers {
		b.Release()
	}
}
