package retrorender

import (
	"fmt"
	"slices"

	"github.com/gogpu/retrorender/backend"
	"github.com/gogpu/retrorender/buffer"
	"github.com/gogpu/retrorender/render"
	"github.com/gogpu/retrorender/settings"
)

// ProcessInfo describes the rendering systems available to a Manager.
type ProcessInfo interface {
	// BufferPools returns the pools in a stable order: rendering system
	// priority first, then the order each system created them in.
	BufferPools() []buffer.Pool

	// CreateRenderer creates a renderer bound to pool.
	CreateRenderer(pool buffer.Pool, s settings.Video) (render.Renderer, error)

	// HasScalingMethod reports whether any pool accepts m.
	HasScalingMethod(m settings.ScalingMethod) bool

	// DefaultScalingMethod returns the method used when the requested one
	// is not available.
	DefaultScalingMethod() settings.ScalingMethod

	// RenderSystemName names the rendering system owning pool.
	RenderSystemName(pool buffer.Pool) string

	// RenderContext returns the graphics context renderers draw to.
	RenderContext() render.Context
}

// scalingPreference is the order DefaultScalingMethod picks from.
var scalingPreference = []settings.ScalingMethod{
	settings.ScalingMethodNearest,
	settings.ScalingMethodLinear,
	settings.ScalingMethodBilinear,
	settings.ScalingMethodCatmullRom,
}

// BackendInfo is a ProcessInfo over backend factories.
type BackendInfo struct {
	ctx      render.Context
	pools    *buffer.Manager
	owners   map[buffer.Pool]backend.Factory
	fallback settings.ScalingMethod
}

// NewProcessInfo creates the pools of every factory, in the order given.
// A nil ctx is replaced with a render.NullContext.
func NewProcessInfo(ctx render.Context, factories ...backend.Factory) (*BackendInfo, error) {
	if ctx == nil {
		ctx = render.NewNullContext()
	}
	info := &BackendInfo{
		ctx:    ctx,
		pools:  buffer.NewManager(),
		owners: make(map[buffer.Pool]backend.Factory),
	}

	for _, f := range factories {
		if f == nil {
			continue
		}
		pools := f.CreateBufferPools()
		for _, pool := range pools {
			if pool == nil {
				continue
			}
			info.pools.AddPool(pool)
			info.owners[pool] = f
		}
		Logger().Debug("retrorender: rendering system available",
			"system", f.RenderSystemName(), "pools", len(pools))
	}

	if info.pools.Len() == 0 {
		return nil, ErrNoBackends
	}
	info.fallback = info.pickDefault()
	return info, nil
}

// NewDefaultProcessInfo instantiates the named factories from the default
// backend registry, or every registered factory when names is empty.
func NewDefaultProcessInfo(ctx render.Context, names ...string) (*BackendInfo, error) {
	return NewProcessInfo(ctx, backend.Default().Create(names...)...)
}

func (p *BackendInfo) pickDefault() settings.ScalingMethod {
	for _, m := range scalingPreference {
		if p.HasScalingMethod(m) {
			return m
		}
	}
	return settings.ScalingMethodAuto
}

// BufferPools returns the pools in registration order.
func (p *BackendInfo) BufferPools() []buffer.Pool {
	return p.pools.Pools()
}

// BufferManager returns the pool registry.
func (p *BackendInfo) BufferManager() *buffer.Manager {
	return p.pools
}

// CreateRenderer asks the factory that created pool for a renderer.
func (p *BackendInfo) CreateRenderer(pool buffer.Pool, s settings.Video) (render.Renderer, error) {
	f, ok := p.owners[pool]
	if !ok {
		return nil, fmt.Errorf("retrorender: unknown pool %q: %w", poolName(pool), backend.ErrIncompatiblePool)
	}
	r, err := f.CreateRenderer(s, p.ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("retrorender: %s: %w", f.RenderSystemName(), err)
	}
	return r, nil
}

// HasScalingMethod reports whether any pool accepts m.
func (p *BackendInfo) HasScalingMethod(m settings.ScalingMethod) bool {
	return slices.ContainsFunc(p.pools.Pools(), func(pool buffer.Pool) bool {
		return pool.IsCompatible(settings.Video{ScalingMethod: m})
	})
}

// DefaultScalingMethod returns the most preferred method any pool accepts.
func (p *BackendInfo) DefaultScalingMethod() settings.ScalingMethod {
	return p.fallback
}

// RenderSystemName names the system that created pool, or "unknown".
func (p *BackendInfo) RenderSystemName(pool buffer.Pool) string {
	if f, ok := p.owners[pool]; ok {
		return f.RenderSystemName()
	}
	return "unknown"
}

// RenderContext returns the graphics context.
func (p *BackendInfo) RenderContext() render.Context {
	return p.ctx
}

func poolName(pool buffer.Pool) string {
	if pool == nil {
		return "<nil>"
	}
	return pool.Name()
}

var _ ProcessInfo = (*BackendInfo)(nil)
