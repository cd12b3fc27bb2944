// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend registers the rendering systems available to the render
// manager.
//
// A rendering system contributes buffer pools and creates renderers bound to
// them. Systems register a constructor under a name; the registry orders them
// by priority so that the render manager walks GPU pools before software
// pools.
//
// Example registration:
//
//	func init() {
//	    backend.Register(backend.NameSoftware, func() backend.Factory { return software.New() })
//	}
package backend

import (
	"errors"
	"slices"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/retrorender/buffer"
	"github.com/gogpu/retrorender/render"
	"github.com/gogpu/retrorender/settings"
)

// Standard rendering system names, in priority order.
const (
	NameGPU      = "gpu"
	NameSoftware = "software"
)

// ErrIncompatiblePool is returned by CreateRenderer for a pool the factory
// did not create.
var ErrIncompatiblePool = errors.New("backend: pool belongs to another rendering system")

// Factory creates the pools and renderers of one rendering system.
type Factory interface {
	// RenderSystemName names the system in logs.
	RenderSystemName() string

	// CreateBufferPools returns the system's pools in a stable order. It is
	// called once per factory instance.
	CreateBufferPools() []buffer.Pool

	// CreateRenderer creates a renderer bound to pool with settings s.
	CreateRenderer(s settings.Video, ctx render.Context, pool buffer.Pool) (render.Renderer, error)
}

// Registry holds named factory constructors.
type Registry struct {
	reg      *gpucontext.Registry[Factory]
	priority []string
}

// NewRegistry creates an empty registry. Names listed in priority come first,
// other names follow in lexical order.
func NewRegistry(priority ...string) *Registry {
	return &Registry{
		reg:      gpucontext.NewRegistry[Factory](gpucontext.WithPriority(priority...)),
		priority: slices.Clone(priority),
	}
}

// defaultRegistry is used by the package-level functions.
var defaultRegistry = NewRegistry(NameGPU, NameSoftware)

// Default returns the package-level registry.
func Default() *Registry { return defaultRegistry }

// Register adds a constructor to the default registry.
func Register(name string, newFactory func() Factory) {
	defaultRegistry.Register(name, newFactory)
}

// Unregister removes a constructor from the default registry.
func Unregister(name string) {
	defaultRegistry.Unregister(name)
}

// Names returns the names of the default registry in priority order.
func Names() []string {
	return defaultRegistry.Names()
}

// Register adds a constructor. Registering an existing name replaces it.
func (r *Registry) Register(name string, newFactory func() Factory) {
	if newFactory == nil {
		return
	}
	r.reg.Register(name, newFactory)
}

// Unregister removes a constructor.
func (r *Registry) Unregister(name string) {
	r.reg.Unregister(name)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	return r.reg.Has(name)
}

// Names returns the registered names in priority order.
func (r *Registry) Names() []string {
	available := r.reg.Available()

	names := make([]string, 0, len(available))
	for _, name := range r.priority {
		if slices.Contains(available, name) {
			names = append(names, name)
		}
	}

	var rest []string
	for _, name := range available {
		if !slices.Contains(r.priority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}

// Best instantiates the highest-priority factory, or returns nil.
func (r *Registry) Best() Factory {
	names := r.Names()
	if len(names) == 0 {
		return nil
	}
	return r.reg.Get(names[0])
}

// Create instantiates the named factories in the given order. Without names
// every registered factory is created in priority order. Unknown names are
// skipped.
func (r *Registry) Create(names ...string) []Factory {
	if len(names) == 0 {
		names = r.Names()
	}
	factories := make([]Factory, 0, len(names))
	for _, name := range names {
		if !r.reg.Has(name) {
			continue
		}
		if f := r.reg.Get(name); f != nil {
			factories = append(factories, f)
		}
	}
	return factories
}
