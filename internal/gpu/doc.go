// Package gpu implements the overlay compositing stage on the GPU via
// gogpu/wgpu. It owns the render pipeline, the overlay texture upload, and
// the per-draw opacity uniform; the host owns the device, the surface, and
// the decision of when to issue the draw.
package gpu
