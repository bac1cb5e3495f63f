package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/overlay"
)

// overlayTexture holds the GPU texture resources for one overlay image.
// The image itself is caller-owned; the texture is a device-local copy
// valid until destroy or the next upload with different dimensions.
type overlayTexture struct {
	tex  hal.Texture
	view hal.TextureView

	width, height uint32
}

// destroy releases the texture resources. Safe to call on a zero value.
func (t *overlayTexture) destroy(device hal.Device) {
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

// upload creates (or recreates) the overlay texture and uploads
// the pixmap contents via queue.WriteTexture. The pixmap is RGBA8, tightly
// packed, matching TextureFormatRGBA8Unorm.
func (t *overlayTexture) upload(device hal.Device, queue hal.Queue, img *overlay.Pixmap) error {
	if img == nil {
		return ErrNilImage
	}

	w, h := uint32(img.Width()), uint32(img.Height()) //nolint:gosec // dimensions always fit uint32
	if w == 0 || h == 0 {
		return fmt.Errorf("%w: empty overlay image", ErrNilImage)
	}

	if t.tex == nil || t.width != w || t.height != h {
		t.destroy(device)

		tex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         "overlay_image",
			Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        gputypes.TextureFormatRGBA8Unorm,
			Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create overlay texture: %w", err)
		}
		t.tex = tex

		view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:         "overlay_image_view",
			Format:        gputypes.TextureFormatRGBA8Unorm,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			t.destroy(device)
			return fmt.Errorf("create overlay texture view: %w", err)
		}
		t.view = view
		t.width = w
		t.height = h
	}

	if err := queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
		},
		img.Data(),
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  w * 4,
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	); err != nil {
		return fmt.Errorf("upload overlay texture: %w", err)
	}

	return nil
}
