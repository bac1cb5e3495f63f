package overlay

import (
	"errors"
	"sync"
)

// ErrFallbackToCPU indicates the GPU compositor cannot handle this draw.
// The caller should transparently fall back to CPU compositing.
var ErrFallbackToCPU = errors.New("overlay: falling back to CPU compositing")

// GPUCompositor is an optional GPU implementation of the overlay stage.
//
// When registered via RegisterCompositor, Composite tries the GPU first.
// If the compositor returns ErrFallbackToCPU or any error, rendering
// transparently falls back to the CPU reference path.
//
// Implementations are provided by GPU backend packages. Users opt in via
// blank import:
//
//	import _ "github.com/gogpu/overlay/gpu" // enables GPU compositing
type GPUCompositor interface {
	// Name returns the compositor name (e.g., "wgpu-overlay").
	Name() string

	// Init initializes GPU resources. Called once during registration.
	Init() error

	// Close releases GPU resources.
	Close()

	// Composite renders the overlay image over the target at the given
	// opacity. Returns ErrFallbackToCPU if the draw cannot be
	// GPU-accelerated (no device, unsupported target shape).
	Composite(target RenderTarget, img *Pixmap, opacity float64, sampler Sampler) error
}

// DeviceProviderAware is an optional interface for compositors that can share
// a GPU device with an external provider (e.g., the host window's device).
// When SetDeviceProvider is called, the compositor reuses the provided device
// instead of creating its own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	compositorMu sync.RWMutex
	compositor   GPUCompositor
)

// RegisterCompositor registers a GPU compositor for optional GPU rendering.
//
// Only one compositor can be registered. Subsequent calls replace the
// previous one. The compositor's Init() method is called during registration;
// if Init() fails, the compositor is not registered and the error is
// returned.
func RegisterCompositor(c GPUCompositor) error {
	if c == nil {
		return errors.New("overlay: compositor must not be nil")
	}
	if err := c.Init(); err != nil {
		return err
	}
	compositorMu.Lock()
	old := compositor
	compositor = c
	compositorMu.Unlock()
	if old != nil {
		old.Close()
	}
	propagateLogger(c, Logger())
	return nil
}

// Compositor returns the currently registered GPU compositor, or nil if none.
func Compositor() GPUCompositor {
	compositorMu.RLock()
	c := compositor
	compositorMu.RUnlock()
	return c
}

// SetCompositorDeviceProvider passes a device provider to the registered
// compositor, enabling GPU device sharing. If no compositor is registered or
// it doesn't support device sharing, this is a no-op.
//
// The provider should implement HalDevice() any and HalQueue() any methods
// that return wgpu/hal types; a DeviceHandle from a gogpu host qualifies.
func SetCompositorDeviceProvider(provider any) error {
	c := Compositor()
	if c == nil {
		return nil
	}
	if dpa, ok := c.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
