// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/retrorender/buffer"
	"github.com/gogpu/retrorender/internal/logging"
	"github.com/gogpu/retrorender/render"
	"github.com/gogpu/retrorender/settings"
)

// quadVertices is the vertex count of the two-triangle quad in blit.wgsl.
const quadVertices = 6

// samplerFilter returns the filter for a scaling method, or nil if the
// method has no sampler equivalent.
func samplerFilter(m settings.ScalingMethod) *gputypes.FilterMode {
	var f gputypes.FilterMode
	switch m {
	case settings.ScalingMethodNearest:
		f = gputypes.FilterModeNearest
	case settings.ScalingMethodAuto, settings.ScalingMethodLinear, settings.ScalingMethodBilinear:
		f = gputypes.FilterModeLinear
	default:
		return nil
	}
	return &f
}

// blendConstantAlpha mixes the source over the target by the blend constant.
func blendConstantAlpha() gputypes.BlendState {
	c := gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorConstant,
		DstFactor: gputypes.BlendFactorOneMinusConstant,
		Operation: gputypes.BlendOperationAdd,
	}
	return gputypes.BlendState{Color: c, Alpha: c}
}

// Renderer draws texture buffers into an offscreen target.
//
// The target follows the context's video resolution and is recreated when
// it changes. Hosts present it with Output.
type Renderer struct {
	*render.BaseRenderer

	device       hal.Device
	queue        hal.Queue
	targetFormat gputypes.TextureFormat
	methods      []settings.ScalingMethod

	// Guards the GPU resources below.
	mu              sync.Mutex
	shader          hal.ShaderModule
	bindGroupLayout hal.BindGroupLayout
	pipelineLayout  hal.PipelineLayout
	pipeline        hal.RenderPipeline
	samplers        map[gputypes.FilterMode]hal.Sampler

	target     hal.Texture
	targetView hal.TextureView
	targetSize image.Point

	bindGroup    hal.BindGroup
	boundTexture *Texture
	boundFilter  gputypes.FilterMode

	frames    int
	destroyed bool
}

// NewRenderer compiles the blit pipeline and creates a renderer bound to
// pool.
func NewRenderer(device hal.Device, queue hal.Queue, pool buffer.Pool, ctx render.Context,
	s settings.Video, targetFormat gputypes.TextureFormat, methods []settings.ScalingMethod) (*Renderer, error) {
	r := &Renderer{
		device:       device,
		queue:        queue,
		targetFormat: targetFormat,
		methods:      slices.Clone(methods),
		samplers:     make(map[gputypes.FilterMode]hal.Sampler, 2),
	}
	if err := r.createPipeline(); err != nil {
		r.destroyResources()
		return nil, err
	}
	r.BaseRenderer = render.NewBaseRenderer(pool, ctx, s)
	return r, nil
}

func (r *Renderer) createPipeline() error {
	shader, err := createShaderModule(r.device, "retrorender_blit", blitShaderSource)
	if err != nil {
		return err
	}
	r.shader = shader

	r.bindGroupLayout, err = r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "retrorender_blit_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler: &gputypes.SamplerBindingLayout{
					Type: gputypes.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group layout: %w", err)
	}

	r.pipelineLayout, err = r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "retrorender_blit_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.bindGroupLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}

	blend := blendConstantAlpha()
	r.pipeline, err = r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "retrorender_blit_pipeline",
		Layout: r.pipelineLayout,
		Vertex: hal.VertexState{
			Module:     r.shader,
			EntryPoint: "vs_main",
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     r.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    r.targetFormat,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create render pipeline: %w", err)
	}

	for _, filter := range []gputypes.FilterMode{gputypes.FilterModeNearest, gputypes.FilterModeLinear} {
		sampler, err := r.device.CreateSampler(&hal.SamplerDescriptor{
			Label:        "retrorender_frame_sampler",
			AddressModeU: gputypes.AddressModeClampToEdge,
			AddressModeV: gputypes.AddressModeClampToEdge,
			AddressModeW: gputypes.AddressModeClampToEdge,
			MagFilter:    filter,
			MinFilter:    filter,
			MipmapFilter: gputypes.FilterModeNearest,
			LodMaxClamp:  32,
		})
		if err != nil {
			return fmt.Errorf("gpu: create sampler: %w", err)
		}
		r.samplers[filter] = sampler
	}
	return nil
}

// Supports reports stretching only. Rotation needs a vertex uniform the
// blit pipeline does not have.
func (r *Renderer) Supports(f render.Feature) bool {
	return f == render.FeatureStretch
}

// SupportsScalingMethod reports whether m maps to a sampler filter and is
// enabled.
func (r *Renderer) SupportsScalingMethod(m settings.ScalingMethod) bool {
	if samplerFilter(m) == nil {
		return false
	}
	return len(r.methods) == 0 || slices.Contains(r.methods, m)
}

// FramesDrawn returns how many frames were submitted.
func (r *Renderer) FramesDrawn() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Output returns the target texture and its size, or nil before the first
// frame.
func (r *Renderer) Output() (hal.Texture, image.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target, r.targetSize
}

// RenderFrame draws the bound buffer into the target.
func (r *Renderer) RenderFrame(clear bool, alpha uint8) {
	r.MarkRendered()

	buf := r.Buffer()
	if buf == nil {
		return
	}
	defer buf.Release()

	holder, ok := buf.(interface{ Texture() buffer.Texture })
	if !ok {
		return
	}
	tex, ok := holder.Texture().(*Texture)
	if !ok || tex.IsDestroyed() {
		return
	}

	if err := r.draw(tex, clear, alpha); err != nil {
		logging.Logger().Warn("gpu: render failed", "error", err)
	}
}

func (r *Renderer) draw(tex *Texture, clear bool, alpha uint8) error {
	ctx := r.Context()
	res := ctx.VideoResolution()
	window := res.Bounds()
	if vw, ok := ctx.(interface{ ViewWindow() image.Rectangle }); ok {
		if w := vw.ViewWindow(); !w.Empty() {
			window = w
		}
	}

	s := r.Settings()
	w, h := tex.Size()
	dr := render.DestRect(window, w, h, s.ViewMode, 0).Intersect(res.Bounds())
	if dr.Empty() {
		return nil
	}
	filter := gputypes.FilterModeLinear
	if f := samplerFilter(s.ScalingMethod); f != nil {
		filter = *f
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return nil
	}

	if err := r.ensureTargetLocked(image.Pt(res.Width, res.Height)); err != nil {
		return err
	}
	if err := r.ensureBindGroupLocked(tex, filter); err != nil {
		return err
	}

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "retrorender_blit"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("retrorender_blit"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	loadOp := gputypes.LoadOpLoad
	if clear {
		loadOp = gputypes.LoadOpClear
	}
	pass := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "retrorender_blit_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       r.targetView,
				LoadOp:     loadOp,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{A: 1},
			},
		},
	})
	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)
	pass.SetViewport(float32(dr.Min.X), float32(dr.Min.Y), float32(dr.Dx()), float32(dr.Dy()), 0, 1)
	a := float64(alpha) / 0xFF
	pass.SetBlendConstant(&gputypes.Color{R: a, G: a, B: a, A: a})
	pass.Draw(quadVertices, 1, 0, 0)
	pass.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmd)

	if _, err := r.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	r.frames++
	return nil
}

// ensureTargetLocked recreates the target when the resolution changes.
func (r *Renderer) ensureTargetLocked(size image.Point) error {
	if r.target != nil && r.targetSize == size {
		return nil
	}
	r.destroyTargetLocked()

	target, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label: "retrorender_target",
		Size: hal.Extent3D{
			Width:              uint32(size.X),
			Height:             uint32(size.Y),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        r.targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("gpu: create target: %w", err)
	}
	view, err := r.device.CreateTextureView(target, &hal.TextureViewDescriptor{
		Label:     "retrorender_target_view",
		Format:    r.targetFormat,
		Dimension: gputypes.TextureViewDimension2D,
		Aspect:    gputypes.TextureAspectAll,
	})
	if err != nil {
		r.device.DestroyTexture(target)
		return fmt.Errorf("gpu: create target view: %w", err)
	}

	r.target = target
	r.targetView = view
	r.targetSize = size
	logging.Logger().Debug("gpu: target created", "width", size.X, "height", size.Y)
	return nil
}

// ensureBindGroupLocked binds tex with the sampler for filter.
func (r *Renderer) ensureBindGroupLocked(tex *Texture, filter gputypes.FilterMode) error {
	if r.bindGroup != nil && r.boundTexture == tex && r.boundFilter == filter {
		return nil
	}
	view := tex.View()
	if view == nil {
		return ErrTextureDestroyed
	}

	group, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "retrorender_frame_bind_group",
		Layout: r.bindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: r.samplers[filter].NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group: %w", err)
	}

	if r.bindGroup != nil {
		r.device.DestroyBindGroup(r.bindGroup)
	}
	r.bindGroup = group
	r.boundTexture = tex
	r.boundFilter = filter
	return nil
}

func (r *Renderer) destroyTargetLocked() {
	if r.targetView != nil {
		r.device.DestroyTextureView(r.targetView)
		r.targetView = nil
	}
	if r.target != nil {
		r.device.DestroyTexture(r.target)
		r.target = nil
	}
	r.targetSize = image.Point{}
}

// destroyResources releases every GPU object the renderer created.
func (r *Renderer) destroyResources() {
	if r.bindGroup != nil {
		r.device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
		r.boundTexture = nil
	}
	r.destroyTargetLocked()
	for filter, s := range r.samplers {
		r.device.DestroySampler(s)
		delete(r.samplers, filter)
	}
	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipelineLayout != nil {
		r.device.DestroyPipelineLayout(r.pipelineLayout)
		r.pipelineLayout = nil
	}
	if r.bindGroupLayout != nil {
		r.device.DestroyBindGroupLayout(r.bindGroupLayout)
		r.bindGroupLayout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}

// Destroy releases the GPU resources, the bound buffer and the pool
// registration.
func (r *Renderer) Destroy() {
	r.mu.Lock()
	if !r.destroyed {
		r.destroyed = true
		r.destroyResources()
	}
	r.mu.Unlock()

	r.BaseRenderer.Destroy()
}

var _ render.Renderer = (*Renderer)(nil)
