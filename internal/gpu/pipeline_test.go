//go:build !nogpu

package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/overlay"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func TestNewOverlayPipeline(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewOverlayPipeline(device, queue, overlay.DefaultSampler())
	if p == nil {
		t.Fatal("expected non-nil OverlayPipeline")
	}
	if p.device != device {
		t.Error("device not stored correctly")
	}
	if p.queue != queue {
		t.Error("queue not stored correctly")
	}
	if p.pipeline != nil {
		t.Error("expected nil pipeline before ensurePipeline")
	}
}

func TestOverlayPipelineEnsure(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewOverlayPipeline(device, queue, overlay.DefaultSampler())
	defer p.Destroy()

	if err := p.ensurePipeline(); err != nil {
		t.Fatalf("ensurePipeline failed: %v", err)
	}
	if p.shader == nil {
		t.Error("expected non-nil shader after ensurePipeline")
	}
	if p.bindLayout == nil {
		t.Error("expected non-nil bind group layout after ensurePipeline")
	}
	if p.pipeLayout == nil {
		t.Error("expected non-nil pipeline layout after ensurePipeline")
	}
	if p.pipeline == nil {
		t.Error("expected non-nil render pipeline after ensurePipeline")
	}
	if p.sampler == nil {
		t.Error("expected non-nil sampler after ensurePipeline")
	}

	// Idempotent: a second call keeps the same pipeline.
	orig := p.pipeline
	if err := p.ensurePipeline(); err != nil {
		t.Fatalf("second ensurePipeline failed: %v", err)
	}
	if p.pipeline != orig {
		t.Error("ensurePipeline recreated an existing pipeline")
	}
}

func TestOverlayPipelineDestroy(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewOverlayPipeline(device, queue, overlay.DefaultSampler())
	if err := p.ensurePipeline(); err != nil {
		t.Fatalf("ensurePipeline failed: %v", err)
	}

	p.Destroy()
	if p.pipeline != nil || p.pipeLayout != nil || p.bindLayout != nil || p.shader != nil {
		t.Error("expected all pipeline objects nil after Destroy")
	}
	if p.sampler != nil {
		t.Error("expected nil sampler after Destroy")
	}

	// Double destroy must be safe.
	p.Destroy()
}

func TestOverlayPipelineDestroyBeforeCreate(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewOverlayPipeline(device, queue, overlay.DefaultSampler())
	p.Destroy() // nothing created yet
}

// textureCountingDevice counts CreateTexture calls. Backend texture handles
// are not guaranteed to be distinguishable (the noop backend hands out
// zero-size values), so recreation is observed through creation counts.
type textureCountingDevice struct {
	hal.Device
	created int
}

func (d *textureCountingDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	d.created++
	return d.Device.CreateTexture(desc)
}

func TestOffscreenTargetEnsure(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	_ = queue

	counting := &textureCountingDevice{Device: device}
	var tgt offscreenTarget
	defer tgt.destroy(counting)

	if err := tgt.ensure(counting, 640, 480); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if tgt.tex == nil || tgt.view == nil {
		t.Fatal("expected target texture and view after ensure")
	}
	if tgt.width != 640 || tgt.height != 480 {
		t.Errorf("expected size (640, 480), got (%d, %d)", tgt.width, tgt.height)
	}
	if counting.created != 1 {
		t.Fatalf("expected 1 texture created, got %d", counting.created)
	}

	// Same size: no recreation.
	if err := tgt.ensure(counting, 640, 480); err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}
	if counting.created != 1 {
		t.Errorf("ensure recreated texture for unchanged size (%d creations)", counting.created)
	}

	// Resize: texture is replaced.
	if err := tgt.ensure(counting, 320, 240); err != nil {
		t.Fatalf("resize ensure failed: %v", err)
	}
	if counting.created != 2 {
		t.Errorf("expected texture recreation after resize, got %d creations", counting.created)
	}
	if tgt.width != 320 || tgt.height != 240 {
		t.Errorf("expected size (320, 240), got (%d, %d)", tgt.width, tgt.height)
	}
}

func TestBuildFrameResources(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewOverlayPipeline(device, queue, overlay.DefaultSampler())
	defer p.Destroy()
	if err := p.ensurePipeline(); err != nil {
		t.Fatalf("ensurePipeline failed: %v", err)
	}

	img := overlay.NewPixmap(4, 4)
	var tex overlayTexture
	defer tex.destroy(device)
	if err := tex.upload(device, queue, img); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	res, err := p.buildFrameResources(&tex, 0.5)
	if err != nil {
		t.Fatalf("buildFrameResources failed: %v", err)
	}
	defer res.destroy(device)

	if res.vertBuf == nil {
		t.Error("expected non-nil vertex buffer")
	}
	if res.uniformBuf == nil {
		t.Error("expected non-nil uniform buffer")
	}
	if res.bindGroup == nil {
		t.Error("expected non-nil bind group")
	}

	// Updating the opacity in place must not touch the bind group.
	orig := res.bindGroup
	if err := p.writeAlpha(res, 0.25); err != nil {
		t.Fatalf("writeAlpha failed: %v", err)
	}
	if res.bindGroup != orig {
		t.Error("writeAlpha replaced the bind group")
	}
}

func TestEncodeAndReadback(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewOverlayPipeline(device, queue, overlay.DefaultSampler())
	defer p.Destroy()
	if err := p.ensurePipeline(); err != nil {
		t.Fatalf("ensurePipeline failed: %v", err)
	}

	img := overlay.NewPixmap(4, 4)
	var tex overlayTexture
	defer tex.destroy(device)
	if err := tex.upload(device, queue, img); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	var tgt offscreenTarget
	defer tgt.destroy(device)
	if err := tgt.ensure(device, 4, 4); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}

	res, err := p.buildFrameResources(&tex, 0.5)
	if err != nil {
		t.Fatalf("buildFrameResources failed: %v", err)
	}
	defer res.destroy(device)

	out := overlay.NewRenderTarget(4, 4)
	for i := range out.Data {
		out.Data[i] = 0xFF
	}
	if err := p.encodeAndReadback(&tgt, res, *out); err != nil {
		t.Fatalf("encodeAndReadback failed: %v", err)
	}

	// The noop backend leaves the staging buffer zeroed; the mapped readback
	// must still overwrite every target byte.
	for i, b := range out.Data {
		if b != 0 {
			t.Fatalf("target byte %d = %#x, want 0 after readback", i, b)
		}
	}
}

func TestOverlayTextureUpload(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	counting := &textureCountingDevice{Device: device}
	var tex overlayTexture
	defer tex.destroy(counting)

	img := overlay.NewPixmap(8, 6)
	if err := tex.upload(counting, queue, img); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if tex.tex == nil || tex.view == nil {
		t.Fatal("expected texture and view after upload")
	}
	if tex.width != 8 || tex.height != 6 {
		t.Errorf("expected size (8, 6), got (%d, %d)", tex.width, tex.height)
	}
	if counting.created != 1 {
		t.Fatalf("expected 1 texture created, got %d", counting.created)
	}

	// Same size: texture object is reused, only pixels are rewritten.
	if err := tex.upload(counting, queue, img); err != nil {
		t.Fatalf("second upload failed: %v", err)
	}
	if counting.created != 1 {
		t.Errorf("upload recreated texture for unchanged size (%d creations)", counting.created)
	}

	// New size: texture object is replaced.
	bigger := overlay.NewPixmap(16, 16)
	if err := tex.upload(counting, queue, bigger); err != nil {
		t.Fatalf("resize upload failed: %v", err)
	}
	if counting.created != 2 {
		t.Errorf("expected texture recreation after resize, got %d creations", counting.created)
	}
	if tex.width != 16 || tex.height != 16 {
		t.Errorf("expected size (16, 16), got (%d, %d)", tex.width, tex.height)
	}
}

func TestSamplerDescriptorMapping(t *testing.T) {
	s := overlay.Sampler{
		Filter:       overlay.FilterNearest,
		AddressModeU: overlay.AddressRepeat,
		AddressModeV: overlay.AddressMirrorRepeat,
	}
	desc := samplerDescriptor(s)
	if desc.MagFilter != gputypes.FilterModeNearest || desc.MinFilter != gputypes.FilterModeNearest {
		t.Error("nearest filter not mapped to FilterModeNearest")
	}
	if desc.AddressModeU != gputypes.AddressModeRepeat {
		t.Errorf("AddressModeU = %v, want Repeat", desc.AddressModeU)
	}
	if desc.AddressModeV != gputypes.AddressModeMirrorRepeat {
		t.Errorf("AddressModeV = %v, want MirrorRepeat", desc.AddressModeV)
	}

	linear := samplerDescriptor(overlay.DefaultSampler())
	if linear.MagFilter != gputypes.FilterModeLinear || linear.MinFilter != gputypes.FilterModeLinear {
		t.Error("linear filter not mapped to FilterModeLinear")
	}
	if linear.AddressModeU != gputypes.AddressModeClampToEdge {
		t.Errorf("default AddressModeU = %v, want ClampToEdge", linear.AddressModeU)
	}
}
