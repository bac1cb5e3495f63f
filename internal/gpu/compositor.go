//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/overlay"
)

// Compositor renders the overlay stage on the GPU using wgpu/hal. It
// implements the overlay.GPUCompositor interface: the overlay image is
// uploaded as a sampled texture, a fullscreen quad is drawn with the
// opacity in a per-draw uniform, and the result is read back into the
// caller's target.
type Compositor struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	pipeline *OverlayPipeline
	image    overlayTexture
	target   offscreenTarget

	gpuReady       bool
	externalDevice bool // true when using shared device (don't destroy on Close)
}

var _ overlay.GPUCompositor = (*Compositor)(nil)

func (c *Compositor) Name() string { return "wgpu-overlay" }

func (c *Compositor) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.initGPU(); err != nil {
		slogger().Warn("GPU init failed, using CPU fallback", "error", err)
	}
	return nil
}

func (c *Compositor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device != nil {
		c.image.destroy(c.device)
		c.target.destroy(c.device)
	}
	if c.pipeline != nil {
		c.pipeline.Destroy()
		c.pipeline = nil
	}
	if !c.externalDevice {
		if c.device != nil {
			c.device.Destroy()
			c.device = nil
		}
		if c.instance != nil {
			c.instance.Destroy()
			c.instance = nil
		}
	} else {
		// Don't destroy shared resources — we don't own them
		c.device = nil
		c.instance = nil
	}
	c.queue = nil
	c.gpuReady = false
	c.externalDevice = false
}

// SetDeviceProvider switches the compositor to a shared GPU device from an
// external provider (e.g. gogpu). The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func (c *Compositor) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("wgpu-overlay: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("wgpu-overlay: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("wgpu-overlay: provider HalQueue is not hal.Queue")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Destroy own resources if we created them
	if c.device != nil {
		c.image.destroy(c.device)
		c.target.destroy(c.device)
	}
	if c.pipeline != nil {
		c.pipeline.Destroy()
		c.pipeline = nil
	}
	if !c.externalDevice && c.device != nil {
		c.device.Destroy()
	}
	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}

	// Use provided resources
	c.device = device
	c.queue = queue
	c.externalDevice = true
	c.gpuReady = true
	slogger().Info("switched to shared GPU device")
	return nil
}

// SetLogger propagates the package logger set on the overlay package.
func (c *Compositor) SetLogger(logger *slog.Logger) {
	setLogger(logger)
}

// Composite draws img over target with the given opacity on the GPU.
// Returns overlay.ErrFallbackToCPU when no usable device is available so
// the caller can run the CPU path transparently.
func (c *Compositor) Composite(target overlay.RenderTarget, img *overlay.Pixmap, opacity float64, sampler overlay.Sampler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.gpuReady {
		return overlay.ErrFallbackToCPU
	}
	if img == nil || img.Width() == 0 || img.Height() == 0 {
		return ErrNilImage
	}
	if target.Width <= 0 || target.Height <= 0 || len(target.Data) < target.Stride*target.Height {
		return ErrInvalidTarget
	}

	if err := c.ensurePipeline(sampler); err != nil {
		return err
	}
	if err := c.image.upload(c.device, c.queue, img); err != nil {
		return fmt.Errorf("upload overlay image: %w", err)
	}
	w, h := uint32(target.Width), uint32(target.Height) //nolint:gosec // dimensions always fit uint32
	if err := c.target.ensure(c.device, w, h); err != nil {
		return err
	}

	res, err := c.pipeline.buildFrameResources(&c.image, float32(opacity))
	if err != nil {
		return err
	}
	defer res.destroy(c.device)

	return c.pipeline.encodeAndReadback(&c.target, res, target)
}

// ensurePipeline creates the render pipeline, recreating it when the
// sampler configuration changed since the previous draw.
func (c *Compositor) ensurePipeline(sampler overlay.Sampler) error {
	if c.pipeline == nil || c.pipeline.samplerConfig != sampler {
		if c.pipeline != nil {
			c.pipeline.Destroy()
		}
		c.pipeline = NewOverlayPipeline(c.device, c.queue, sampler)
	}
	if err := c.pipeline.ensurePipeline(); err != nil {
		return fmt.Errorf("create overlay pipeline: %w", err)
	}
	return nil
}

func (c *Compositor) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	c.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	c.device = openDev.Device
	c.queue = openDev.Queue
	c.gpuReady = true
	slogger().Info("GPU compositor initialized", "adapter", selected.Info.Name)
	return nil
}
