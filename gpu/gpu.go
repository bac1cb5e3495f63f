//go:build !nogpu

// Package gpu registers the GPU compositor for hardware-accelerated
// overlay compositing.
//
// Import this package to run the overlay stage on the GPU: the image is
// sampled from a texture by a fragment shader and the per-draw opacity
// replaces the alpha channel on the way out.
//
// If GPU initialization fails (no Vulkan available), the registration is
// silently skipped and compositing falls back to the CPU path.
//
// Usage:
//
//	import _ "github.com/gogpu/overlay/gpu" // enable GPU compositing
package gpu

import (
	"github.com/gogpu/overlay"
	gpuimpl "github.com/gogpu/overlay/internal/gpu"
)

func init() {
	comp := &gpuimpl.Compositor{}
	if err := overlay.RegisterCompositor(comp); err != nil {
		overlay.Logger().Warn("GPU compositor not available", "err", err)
	}
}

// SetDeviceProvider configures the GPU compositor to use a shared GPU
// device from an external provider (e.g. gogpu). This avoids creating a
// separate GPU instance and enables efficient device sharing.
//
// The provider should be a gpucontext.DeviceProvider that also implements
// gpucontext.HalProvider for direct HAL access.
//
// Call this after importing this package and before compositing.
func SetDeviceProvider(provider any) error {
	return overlay.SetCompositorDeviceProvider(provider)
}
