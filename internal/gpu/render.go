package gpu

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/overlay"
)

// offscreenTarget is the color attachment for standalone (render-to-pixmap)
// compositing. Single-sample RGBA8Unorm with CopySrc for readback.
type offscreenTarget struct {
	tex  hal.Texture
	view hal.TextureView

	width, height uint32
}

// ensure creates or recreates the target texture if the requested dimensions
// differ from the current size.
func (t *offscreenTarget) ensure(device hal.Device, w, h uint32) error {
	if t.tex != nil && t.width == w && t.height == h {
		return nil
	}
	t.destroy(device)

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "overlay_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        overlayTargetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create target texture: %w", err)
	}
	t.tex = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "overlay_target_view",
		Format:        overlayTargetFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		t.destroy(device)
		return fmt.Errorf("create target view: %w", err)
	}
	t.view = view
	t.width = w
	t.height = h
	return nil
}

// destroy releases the target resources and resets dimensions.
func (t *offscreenTarget) destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
	t.width = 0
	t.height = 0
}

// buildFrameResources creates the per-draw vertex buffer, uniform buffer,
// and bind group for one overlay draw. The uniform buffer carries the
// opacity and is the only resource that changes between draws with the
// same image; callers reusing resources update it with writeAlpha instead
// of rebuilding the bind group.
func (p *OverlayPipeline) buildFrameResources(image *overlayTexture, alpha float32) (*overlayFrameResources, error) {
	res := &overlayFrameResources{}

	vertBuf, err := p.createAndUploadBuffer("overlay_verts", buildOverlayQuadVertices(),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer: %w", err)
	}
	res.vertBuf = vertBuf

	uniformBuf, err := p.createAndUploadBuffer("overlay_params", makeOverlayUniform(alpha),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		res.destroy(p.device)
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}
	res.uniformBuf = uniformBuf

	bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "overlay_bind",
		Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{
				TextureView: image.view.NativeHandle(),
			}},
			{Binding: 1, Resource: gputypes.SamplerBinding{
				Sampler: p.sampler.NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: overlayUniformSize,
			}},
		},
	})
	if err != nil {
		res.destroy(p.device)
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	res.bindGroup = bindGroup

	return res, nil
}

// writeAlpha updates the per-draw opacity in place. O(1), no descriptor
// rebuilds: this is the fast-update payload between draws.
func (p *OverlayPipeline) writeAlpha(res *overlayFrameResources, alpha float32) error {
	return p.queue.WriteBuffer(res.uniformBuf, 0, makeOverlayUniform(alpha))
}

// encodeAndReadback encodes the overlay render pass, copies the target
// texture to a staging buffer, submits, waits, and reads back pixels into
// the output target.
func (p *OverlayPipeline) encodeAndReadback(tgt *offscreenTarget, res *overlayFrameResources, out overlay.RenderTarget) error {
	if p == nil {
		return ErrNilPipeline
	}
	if p.pipeline == nil {
		return ErrPipelineNotInitialized
	}
	w, h := tgt.width, tgt.height

	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "overlay_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("overlay_render"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rpDesc := &hal.RenderPassDescriptor{
		Label: "overlay_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       tgt.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
	}
	rp := encoder.BeginRenderPass(rpDesc)
	p.RecordDraw(rp, res)
	rp.End()

	// The render pass leaves the texture in attachment layout;
	// CopyTextureToBuffer needs transfer-src. No-op on backends without
	// explicit layouts.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tgt.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	pixelBufSize := uint64(w) * uint64(h) * 4
	stagingBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "overlay_staging",
		Size:  pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer p.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(tgt.tex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: tgt.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer p.device.FreeCommandBuffer(cmdBuf)

	subIdx, err := p.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := p.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if completed := p.queue.PollCompleted(); completed < subIdx {
		return fmt.Errorf("submission %d not complete after idle wait (completed %d)", subIdx, completed)
	}

	mapping, err := p.device.MapBuffer(stagingBuf, 0, pixelBufSize)
	if err != nil {
		return fmt.Errorf("map staging buffer: %w", err)
	}
	readback := make([]byte, pixelBufSize)
	copy(readback, unsafe.Slice((*byte)(mapping.Ptr), pixelBufSize))
	if err := p.device.UnmapBuffer(stagingBuf); err != nil {
		return fmt.Errorf("unmap staging buffer: %w", err)
	}

	copyRowsToTarget(readback, out, int(w), int(h))
	return nil
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (p *OverlayPipeline) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := p.queue.WriteBuffer(buf, 0, data); err != nil {
		p.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	return buf, nil
}

// copyRowsToTarget copies tightly packed RGBA readback rows into a target
// buffer that may carry a larger stride. The overlay draw covers every
// pixel, so rows are replaced wholesale.
func copyRowsToTarget(readback []byte, out overlay.RenderTarget, w, h int) {
	rowBytes := w * 4
	if out.Stride == rowBytes {
		copy(out.Data, readback[:rowBytes*h])
		return
	}
	for y := 0; y < h; y++ {
		src := readback[y*rowBytes : (y+1)*rowBytes]
		dst := out.Data[y*out.Stride:]
		copy(dst[:rowBytes], src)
	}
}
