package retrorender

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/gogpu/retrorender/buffer"
	"github.com/gogpu/retrorender/pixel"
	"github.com/gogpu/retrorender/render"
	"github.com/gogpu/retrorender/settings"
)

// fakeRenderer records draw calls.
type fakeRenderer struct {
	*render.BaseRenderer
	features []render.Feature
	onFlush  func()

	mu        sync.Mutex
	frames    int
	lastClear bool
	lastAlpha uint8
	drawn     [][]byte
}

func (r *fakeRenderer) RenderFrame(clear bool, alpha uint8) {
	r.MarkRendered()

	var pix []byte
	if buf := r.Buffer(); buf != nil {
		pix = slices.Clone(buf.Memory())
		buf.Release()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
	r.lastClear = clear
	r.lastAlpha = alpha
	if pix != nil {
		r.drawn = append(r.drawn, pix)
	}
}

func (r *fakeRenderer) Flush() {
	r.BaseRenderer.Flush()
	if r.onFlush != nil {
		r.onFlush()
	}
}

func (r *fakeRenderer) Supports(f render.Feature) bool {
	return slices.Contains(r.features, f)
}

func (r *fakeRenderer) SupportsScalingMethod(settings.ScalingMethod) bool { return true }

func (r *fakeRenderer) stats() (frames int, clear bool, alpha uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames, r.lastClear, r.lastAlpha
}

func (r *fakeRenderer) lastDrawn() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.drawn) == 0 {
		return nil
	}
	return r.drawn[len(r.drawn)-1]
}

// countingTexture counts uploads and fails the first failFirst of them.
type countingTexture struct {
	mu        sync.Mutex
	uploads   int
	attempts  int
	failFirst int
	destroyed bool
}

func (t *countingTexture) Upload([]byte, pixel.Format, int, int, int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts++
	if t.attempts <= t.failFirst {
		return errors.New("upload failed")
	}
	t.uploads++
	return nil
}

func (t *countingTexture) Destroy() {
	t.mu.Lock()
	t.destroyed = true
	t.mu.Unlock()
}

func (t *countingTexture) counts() (uploads, attempts int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.uploads, t.attempts
}

// fakeProcessInfo serves BasePools and fakeRenderers.
type fakeProcessInfo struct {
	ctx   *render.NullContext
	pools []*buffer.BasePool

	mu        sync.Mutex
	created   []*fakeRenderer
	createErr map[buffer.Pool]error
	features  []render.Feature
}

func newFakeProcessInfo(pools ...*buffer.BasePool) *fakeProcessInfo {
	if len(pools) == 0 {
		pools = []*buffer.BasePool{newMemoryPool("memory")}
	}
	return &fakeProcessInfo{
		ctx:       render.NewNullContext(),
		pools:     pools,
		createErr: make(map[buffer.Pool]error),
	}
}

// newMemoryPool stores RGBA8 natively and supports nearest and linear
// scaling.
func newMemoryPool(name string, methods ...settings.ScalingMethod) *buffer.BasePool {
	if len(methods) == 0 {
		methods = []settings.ScalingMethod{settings.ScalingMethodNearest, settings.ScalingMethodLinear}
	}
	return buffer.NewPool(buffer.PoolConfig{
		Name:            name,
		ScalingMethods:  methods,
		Formats:         []pixel.Format{pixel.FormatRGBA8},
		PreferredFormat: pixel.FormatRGBA8,
	})
}

// newTexturePool is a memory pool whose buffers carry a countingTexture.
func newTexturePool(name string, failFirst int) (*buffer.BasePool, *[]*countingTexture) {
	var mu sync.Mutex
	textures := &[]*countingTexture{}
	pool := buffer.NewPool(buffer.PoolConfig{
		Name:            name,
		ScalingMethods:  []settings.ScalingMethod{settings.ScalingMethodNearest},
		Formats:         []pixel.Format{pixel.FormatRGBA8},
		PreferredFormat: pixel.FormatRGBA8,
		Allocator: func(pixel.Format, int, int) (buffer.Texture, error) {
			tex := &countingTexture{failFirst: failFirst}
			mu.Lock()
			*textures = append(*textures, tex)
			mu.Unlock()
			return tex, nil
		},
	})
	return pool, textures
}

func (p *fakeProcessInfo) BufferPools() []buffer.Pool {
	pools := make([]buffer.Pool, len(p.pools))
	for i, pool := range p.pools {
		pools[i] = pool
	}
	return pools
}

func (p *fakeProcessInfo) CreateRenderer(pool buffer.Pool, s settings.Video) (render.Renderer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.createErr[pool]; err != nil {
		return nil, err
	}
	r := &fakeRenderer{
		BaseRenderer: render.NewBaseRenderer(pool, p.ctx, s),
		features:     p.features,
	}
	p.created = append(p.created, r)
	return r, nil
}

func (p *fakeProcessInfo) HasScalingMethod(m settings.ScalingMethod) bool {
	return slices.ContainsFunc(p.pools, func(pool *buffer.BasePool) bool {
		return pool.SupportsScalingMethod(m)
	})
}

func (p *fakeProcessInfo) DefaultScalingMethod() settings.ScalingMethod {
	return settings.ScalingMethodNearest
}

func (p *fakeProcessInfo) RenderSystemName(pool buffer.Pool) string {
	return pool.Name()
}

func (p *fakeProcessInfo) RenderContext() render.Context {
	return p.ctx
}

func (p *fakeProcessInfo) createdCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.created)
}

// configurePools configures pools the way a renderer would before frames
// arrive.
func configurePools(t *testing.T, format pixel.Format, w, h int, pools ...*buffer.BasePool) {
	t.Helper()
	for _, pool := range pools {
		if !pool.Configure(format, w, h) {
			t.Fatalf("pool %s: Configure(%v, %d, %d) failed", pool.Name(), format, w, h)
		}
	}
}

// frame returns a w x h RGBA8 frame whose bytes depend on seed.
func frame(w, h int, seed byte) []byte {
	data := make([]byte, pixel.FormatRGBA8.FrameBytes(w, h))
	for i := range data {
		data[i] = seed + byte(i)
	}
	return data
}

// configured returns a manager that has committed an RGBA8 w x h
// configuration.
func configured(info ProcessInfo, w, h int, opts ...Option) *Manager {
	m := NewManager(info, opts...)
	m.Initialize()
	if err := m.Configure(pixel.FormatRGBA8, w, h, w, h); err != nil {
		panic(err)
	}
	m.FrameMove()
	return m
}
