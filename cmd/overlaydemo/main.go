// Command overlaydemo composites an overlay image with a per-draw opacity.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/overlay"
	_ "github.com/gogpu/overlay/gpu"
)

func main() {
	var (
		input   = flag.String("input", "", "overlay PNG (synthetic gradient if empty)")
		width   = flag.Int("width", 800, "target width")
		height  = flag.Int("height", 600, "target height")
		opacity = flag.Float64("opacity", 0.75, "per-draw opacity written to the alpha channel")
		filter  = flag.String("filter", "linear", "sampling filter: nearest or linear")
		address = flag.String("address", "clamp", "address mode: clamp, repeat, or mirror")
		scale   = flag.Bool("scale", false, "rescale the overlay to the target size before compositing")
		output  = flag.String("output", "overlay.png", "output file")
	)
	flag.Parse()

	img, err := loadOverlay(*input)
	if err != nil {
		log.Fatalf("Failed to load overlay: %v", err)
	}
	if *scale {
		img = rescale(img, *width, *height)
	}

	sampler, err := parseSampler(*filter, *address)
	if err != nil {
		log.Fatalf("Bad sampler flags: %v", err)
	}

	target := overlay.NewRenderTarget(*width, *height)
	overlay.Composite(target, img, *opacity, sampler)

	if err := target.Pixmap().SavePNG(*output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Overlay saved to %s (%dx%d, opacity %.2f)\n", *output, *width, *height, *opacity)
}

func loadOverlay(path string) (*overlay.Pixmap, error) {
	if path != "" {
		return overlay.LoadPNG(path)
	}
	return syntheticOverlay(256, 256), nil
}

// syntheticOverlay draws a radial color sweep so the demo works without
// an input file.
func syntheticOverlay(w, h int) *overlay.Pixmap {
	pm := overlay.NewPixmap(w, h)
	cx, cy := float64(w)/2, float64(h)/2
	maxR := math.Hypot(cx, cy)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			r := math.Hypot(dx, dy) / maxR
			hue := math.Atan2(dy, dx)/(2*math.Pi) + 0.5
			pm.SetPixel(x, y, overlay.RGBA{
				R: hue,
				G: 1 - r,
				B: r,
				A: 1,
			})
		}
	}
	return pm
}

// rescale resizes the overlay image to the target dimensions using
// bilinear interpolation.
func rescale(pm *overlay.Pixmap, w, h int) *overlay.Pixmap {
	if pm.Width() == w && pm.Height() == h {
		return pm
	}
	src := pm.ToImage()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return overlay.FromImage(dst)
}

func parseSampler(filter, address string) (overlay.Sampler, error) {
	s := overlay.DefaultSampler()
	switch filter {
	case "nearest":
		s.Filter = overlay.FilterNearest
	case "linear":
		s.Filter = overlay.FilterLinear
	default:
		return s, fmt.Errorf("unknown filter %q", filter)
	}
	var mode overlay.AddressMode
	switch address {
	case "clamp":
		mode = overlay.AddressClampToEdge
	case "repeat":
		mode = overlay.AddressRepeat
	case "mirror":
		mode = overlay.AddressMirrorRepeat
	default:
		return s, fmt.Errorf("unknown address mode %q", address)
	}
	s.AddressModeU = mode
	s.AddressModeV = mode
	return s, nil
}
