package overlay

import "errors"

// Shade is the per-fragment overlay compositing function: the output color
// keeps the sampled RGB channels exactly and carries the supplied opacity in
// the alpha channel. The opacity is not clamped or validated; out-of-range
// values pass through for additive or over-bright compositing downstream.
//
// Shade is pure. It is evaluated independently per fragment with no shared
// state, matching the GPU fragment stage in internal/gpu/shaders/overlay.wgsl.
func Shade(sampled RGBA, opacity float64) RGBA {
	return RGBA{R: sampled.R, G: sampled.G, B: sampled.B, A: opacity}
}

// FragmentAt evaluates one stage invocation: sample the overlay image at the
// interpolated coordinate (u, v) through the given sampler, then overwrite
// alpha with the opacity. This is the CPU reference for a single fragment.
func FragmentAt(img *Pixmap, sampler Sampler, u, v, opacity float64) RGBA {
	return Shade(sampler.Sample(img, u, v), opacity)
}

// RenderTarget provides pixel buffer access for compositor output.
// The Data slice is RGBA, 4 bytes per pixel, laid out row by row with the
// given Stride.
type RenderTarget struct {
	Data          []uint8
	Width, Height int
	Stride        int // bytes per row
}

// NewRenderTarget allocates a tightly packed render target.
func NewRenderTarget(width, height int) *RenderTarget {
	return &RenderTarget{
		Data:   make([]uint8, width*height*4),
		Width:  width,
		Height: height,
		Stride: width * 4,
	}
}

// Pixmap wraps the target buffer in a Pixmap. The target must be tightly
// packed (Stride == Width*4).
func (t *RenderTarget) Pixmap() *Pixmap {
	return &Pixmap{width: t.Width, height: t.Height, data: t.Data}
}

// Composite renders the overlay image over the whole target at the given
// opacity. If a GPU compositor is registered it is tried first; on any error
// rendering falls back to the CPU reference path transparently.
//
// Every target pixel is written unconditionally: RGB from the overlay image
// sampled at the pixel center, alpha from the opacity. Writing into the
// 8-bit target quantizes and clamps channel values the way a unorm render
// attachment would; the unclamped stage output is only observable through
// Shade and FragmentAt.
func Composite(target *RenderTarget, img *Pixmap, opacity float64, sampler Sampler) {
	if c := Compositor(); c != nil {
		if err := c.Composite(*target, img, opacity, sampler); err == nil {
			return
		} else if !errors.Is(err, ErrFallbackToCPU) {
			Logger().Warn("GPU compositor failed, falling back to CPU", "compositor", c.Name(), "err", err)
		}
	}
	compositeCPU(target, img, opacity, sampler)
}

// compositeCPU is the CPU reference implementation of the overlay draw:
// one Shade evaluation per covered pixel, sampled at pixel centers.
func compositeCPU(target *RenderTarget, img *Pixmap, opacity float64, sampler Sampler) {
	w, h := target.Width, target.Height
	for y := 0; y < h; y++ {
		row := target.Data[y*target.Stride:]
		v := (float64(y) + 0.5) / float64(h)
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			out := Shade(sampler.Sample(img, u, v), opacity)
			i := x * 4
			row[i+0] = uint8(clamp255(out.R * 255))
			row[i+1] = uint8(clamp255(out.G * 255))
			row[i+2] = uint8(clamp255(out.B * 255))
			row[i+3] = uint8(clamp255(out.A * 255))
		}
	}
}
