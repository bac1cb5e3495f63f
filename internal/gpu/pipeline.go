package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/overlay"
)

// Overlay pipeline errors.
var (
	// ErrNilPipeline is returned when operating on a nil pipeline.
	ErrNilPipeline = errors.New("wgpu: overlay pipeline is nil")

	// ErrPipelineNotInitialized is returned when the pipeline is not initialized.
	ErrPipelineNotInitialized = errors.New("wgpu: overlay pipeline not initialized")

	// ErrNilHALDevice is returned when creating the pipeline without a device.
	ErrNilHALDevice = errors.New("wgpu: HAL device is nil")

	// ErrEmptyShaderSource is returned when the embedded overlay shader is empty.
	ErrEmptyShaderSource = errors.New("wgpu: overlay shader source is empty")

	// ErrNilImage is returned when compositing a nil overlay image.
	ErrNilImage = errors.New("wgpu: overlay image is nil")

	// ErrInvalidTarget is returned for targets the GPU path cannot write.
	ErrInvalidTarget = errors.New("wgpu: invalid render target")
)

// overlayVertexStride is the byte stride per vertex in the overlay pipeline.
// Layout per vertex:
//
//	position  (vec2<f32>) = 8 bytes  (location 0, clip space)
//	tex_coord (vec2<f32>) = 8 bytes  (location 1)
//
// Total = 16 bytes per vertex.
const overlayVertexStride = 16

// overlayTargetFormat is the color target format for offscreen compositing.
const overlayTargetFormat = gputypes.TextureFormatRGBA8Unorm

// OverlayPipeline manages GPU resources for the overlay compositing stage:
// a vertex+fragment render pipeline that draws a fullscreen textured quad.
// The fragment shader performs the stage's whole computation — one texture
// fetch and an alpha overwrite with the per-draw opacity.
//
// The pipeline renders with no blend state (the stage replaces the target
// color; blending belongs to the surrounding pipeline) and a sample count
// of 1 (no MSAA).
//
// Resource layout (group 0):
//
//	binding 0: overlay texture (texture_2d<f32>, fragment)
//	binding 1: sampler (filtering, fragment)
//	binding 2: Params uniform (alpha, fragment)
//
// The Params uniform is the per-draw fast-update payload: it is written
// with queue.WriteBuffer before each draw without recreating bind groups.
type OverlayPipeline struct {
	device hal.Device
	queue  hal.Queue

	// GPU objects for the render pipeline.
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline

	// Sampler built from the external sampling-unit configuration.
	sampler       hal.Sampler
	samplerConfig overlay.Sampler
}

// NewOverlayPipeline creates a new overlay pipeline with the given device
// and queue. GPU objects are not created until ensurePipeline is called.
// The sampler configuration is owned by the caller and applied verbatim.
func NewOverlayPipeline(device hal.Device, queue hal.Queue, sampler overlay.Sampler) *OverlayPipeline {
	return &OverlayPipeline{
		device:        device,
		queue:         queue,
		samplerConfig: sampler,
	}
}

// Destroy releases all GPU resources held by the pipeline. Safe to call
// multiple times or on a pipeline with no allocated resources.
func (p *OverlayPipeline) Destroy() {
	p.destroyPipeline()
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
}

// ensurePipeline creates the shader, layouts, sampler, and render pipeline
// if they do not exist yet.
func (p *OverlayPipeline) ensurePipeline() error {
	if p.pipeline != nil {
		return nil
	}
	return p.createPipeline()
}

// createPipeline compiles the overlay shader and creates the render pipeline.
func (p *OverlayPipeline) createPipeline() error {
	if p.device == nil {
		return ErrNilHALDevice
	}
	if overlayShaderSource == "" {
		return ErrEmptyShaderSource
	}

	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "overlay_shader",
		Source: hal.ShaderSource{WGSL: overlayShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile overlay shader: %w", err)
	}
	p.shader = shader

	// Bind group layout:
	//   Binding 0: overlay texture (texture_2d, fragment)
	//   Binding 1: sampler (fragment)
	//   Binding 2: Params uniform (fragment)
	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "overlay_bind_layout",
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
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create overlay bind layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "overlay_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create overlay pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	sampler, err := p.device.CreateSampler(samplerDescriptor(p.samplerConfig))
	if err != nil {
		return fmt.Errorf("create overlay sampler: %w", err)
	}
	p.sampler = sampler

	// No blend state: the stage writes its output unconditionally and
	// leaves blending to the surrounding pipeline. Sample count 1: the
	// stage performs no multi-sample resolution.
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "overlay_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    overlayVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    overlayTargetFormat,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create overlay pipeline: %w", err)
	}
	p.pipeline = pipeline

	return nil
}

// RecordDraw records the overlay quad draw into an existing render pass.
// The render pass is owned by the caller. The resources parameter holds the
// pre-built vertex buffer and bind group for the current draw.
func (p *OverlayPipeline) RecordDraw(rp hal.RenderPassEncoder, resources *overlayFrameResources) {
	if resources == nil {
		return
	}
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, resources.bindGroup, nil)
	rp.SetVertexBuffer(0, resources.vertBuf, 0)
	rp.Draw(overlayQuadVertexCount, 1, 0, 0)
}

// destroyPipeline releases all pipeline resources in reverse creation order.
func (p *OverlayPipeline) destroyPipeline() {
	if p.device == nil {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// overlayFrameResources holds per-draw GPU resources for the overlay stage.
type overlayFrameResources struct {
	vertBuf    hal.Buffer
	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup
}

// destroy releases the per-draw resources.
func (r *overlayFrameResources) destroy(device hal.Device) {
	if r == nil {
		return
	}
	if r.bindGroup != nil {
		device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	if r.uniformBuf != nil {
		device.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = nil
	}
	if r.vertBuf != nil {
		device.DestroyBuffer(r.vertBuf)
		r.vertBuf = nil
	}
}

// overlayVertexLayout returns the vertex buffer layout for the overlay
// pipeline. Matches VertexInput in overlay.wgsl:
//
//	location 0: position (vec2<f32>)
//	location 1: tex_coord (vec2<f32>)
func overlayVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: overlayVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // tex_coord
			},
		},
	}
}

// samplerDescriptor maps the external sampling-unit configuration onto the
// HAL sampler descriptor. Mip filtering stays at the sampling unit's default
// (nearest); the stage has no mip selection policy of its own.
func samplerDescriptor(s overlay.Sampler) *hal.SamplerDescriptor {
	filter := gputypes.FilterModeNearest
	if s.Filter == overlay.FilterLinear {
		filter = gputypes.FilterModeLinear
	}
	return &hal.SamplerDescriptor{
		Label:        "overlay_sampler",
		AddressModeU: addressMode(s.AddressModeU),
		AddressModeV: addressMode(s.AddressModeV),
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: gputypes.FilterModeNearest,
	}
}

// addressMode converts an overlay.AddressMode to the gputypes constant.
func addressMode(m overlay.AddressMode) gputypes.AddressMode {
	switch m {
	case overlay.AddressRepeat:
		return gputypes.AddressModeRepeat
	case overlay.AddressMirrorRepeat:
		return gputypes.AddressModeMirrorRepeat
	default:
		return gputypes.AddressModeClampToEdge
	}
}
