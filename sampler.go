package overlay

import "math"

// Filter defines how texel values are combined when sampling.
type Filter uint8

const (
	// FilterNearest selects the closest texel (no interpolation).
	FilterNearest Filter = iota

	// FilterLinear performs bilinear interpolation between 4 neighboring texels.
	FilterLinear
)

// String returns a string representation of the filter.
func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "Nearest"
	case FilterLinear:
		return "Linear"
	default:
		return "Unknown"
	}
}

// AddressMode defines how out-of-range texture coordinates are resolved.
type AddressMode uint8

const (
	// AddressClampToEdge clamps coordinates to the edge texel.
	AddressClampToEdge AddressMode = iota

	// AddressRepeat tiles the image by wrapping coordinates.
	AddressRepeat

	// AddressMirrorRepeat tiles the image, mirroring every other repetition.
	AddressMirrorRepeat
)

// String returns a string representation of the address mode.
func (m AddressMode) String() string {
	switch m {
	case AddressClampToEdge:
		return "ClampToEdge"
	case AddressRepeat:
		return "Repeat"
	case AddressMirrorRepeat:
		return "MirrorRepeat"
	default:
		return "Unknown"
	}
}

// Sampler describes the sampling-unit configuration governing how a
// normalized coordinate maps to a color from the overlay image. The
// configuration is owned by the caller; the compositing stage itself never
// inspects it beyond delegating the fetch.
type Sampler struct {
	// Filter selects nearest or bilinear texel filtering.
	Filter Filter

	// AddressModeU resolves out-of-range U coordinates.
	AddressModeU AddressMode

	// AddressModeV resolves out-of-range V coordinates.
	AddressModeV AddressMode
}

// DefaultSampler returns the default sampling configuration:
// bilinear filtering with clamp-to-edge addressing, matching the
// GPU pipeline's default sampler.
func DefaultSampler() Sampler {
	return Sampler{
		Filter:       FilterLinear,
		AddressModeU: AddressClampToEdge,
		AddressModeV: AddressClampToEdge,
	}
}

// Sample samples the image at normalized coordinates (u, v).
// u and v are in [0, 1] where (0, 0) is the top-left and (1, 1) the
// bottom-right; out-of-range coordinates are resolved by the address modes.
func (s Sampler) Sample(img *Pixmap, u, v float64) RGBA {
	switch s.Filter {
	case FilterLinear:
		return s.sampleLinear(img, u, v)
	default:
		return s.sampleNearest(img, u, v)
	}
}

// sampleNearest performs nearest-neighbor sampling at (u, v).
func (s Sampler) sampleNearest(img *Pixmap, u, v float64) RGBA {
	w, h := img.Width(), img.Height()

	// Floor selects the texel containing the coordinate.
	x := int(math.Floor(u * float64(w)))
	y := int(math.Floor(v * float64(h)))

	x = s.AddressModeU.resolve(x, w)
	y = s.AddressModeV.resolve(y, h)

	return img.GetPixel(x, y)
}

// sampleLinear performs bilinear interpolation at (u, v) using texel centers.
func (s Sampler) sampleLinear(img *Pixmap, u, v float64) RGBA {
	w, h := img.Width(), img.Height()

	// Continuous texel coordinates with centers at integer + 0.5.
	fx := u*float64(w) - 0.5
	fy := v*float64(h) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := x0 + 1
	y1 := y0 + 1

	x0 = s.AddressModeU.resolve(x0, w)
	x1 = s.AddressModeU.resolve(x1, w)
	y0 = s.AddressModeV.resolve(y0, h)
	y1 = s.AddressModeV.resolve(y1, h)

	c00 := img.GetPixel(x0, y0)
	c10 := img.GetPixel(x1, y0)
	c01 := img.GetPixel(x0, y1)
	c11 := img.GetPixel(x1, y1)

	return RGBA{
		R: lerp2D(c00.R, c10.R, c01.R, c11.R, tx, ty),
		G: lerp2D(c00.G, c10.G, c01.G, c11.G, tx, ty),
		B: lerp2D(c00.B, c10.B, c01.B, c11.B, tx, ty),
		A: lerp2D(c00.A, c10.A, c01.A, c11.A, tx, ty),
	}
}

// resolve maps a texel index onto [0, n) according to the address mode.
func (m AddressMode) resolve(x, n int) int {
	if n <= 0 {
		return 0
	}
	switch m {
	case AddressRepeat:
		x %= n
		if x < 0 {
			x += n
		}
		return x
	case AddressMirrorRepeat:
		// Period is 2n: forward then reflected.
		x %= 2 * n
		if x < 0 {
			x += 2 * n
		}
		if x >= n {
			x = 2*n - 1 - x
		}
		return x
	default: // AddressClampToEdge
		return clampInt(x, 0, n-1)
	}
}

// lerp2D performs bilinear interpolation between 4 corner values.
func lerp2D(v00, v10, v01, v11, tx, ty float64) float64 {
	top := v00 + (v10-v00)*tx
	bottom := v01 + (v11-v01)*tx
	return top + (bottom-top)*ty
}

// clampInt restricts x to [lo, hi].
func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
