// Package overlay implements the overlay compositing stage used as the
// final micro-pass of a render pipeline: it draws a previously rendered
// color image on top of existing content with a per-draw opacity.
//
// # The stage
//
// Per covered fragment the stage computes
//
//	output = vec4(sample(image, coord).rgb, opacity)
//
// The RGB channels come from the sampled overlay image unchanged; the alpha
// channel is overwritten with the opacity supplied for the draw. The opacity
// is passed through unclamped — values outside [0, 1] are intentional
// passthrough for additive or over-bright compositing downstream. The stage
// itself performs no blending, no color-space conversion, and has no state.
//
// # Quick start (CPU path)
//
//	img := overlay.NewPixmap(256, 256)
//	// ... fill img ...
//
//	target := overlay.NewRenderTarget(512, 512)
//	overlay.Composite(target, img, 0.75, overlay.DefaultSampler())
//
// # GPU path
//
// The GPU implementation renders the same stage through gogpu/wgpu. Enable it
// with a blank import:
//
//	import _ "github.com/gogpu/overlay/gpu"
//
// When a GPU compositor is registered, Composite dispatches to it and falls
// back to the CPU path transparently on any error. The window, swapchain, and
// the decision of when to issue the overlay draw remain the host's concern;
// hosts with an existing device pass it in via SetCompositorDeviceProvider.
//
// # Coordinate system
//
// Texture coordinates are normalized to [0, 1] per axis with (0, 0) at the
// top-left texel. Out-of-range coordinates are resolved by the Sampler's
// address mode, not by the stage.
package overlay
