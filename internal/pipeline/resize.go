package pipeline

import (
	"image"

	"github.com/nfnt/resize"

	"nobg/internal/models"
)

// Resizer brings a SourceImage to the working resolution. A zero width or
// height disables it.
type Resizer struct {
	Width          int
	Height         int
	PreserveAspect bool
}

func (r Resizer) Enabled() bool {
	return r.Width > 0 && r.Height > 0
}

func (r Resizer) Resize(src *models.SourceImage) *models.SourceImage {
	if !r.Enabled() {
		return src
	}

	var out image.Image
	if r.PreserveAspect {
		out = resize.Thumbnail(uint(r.Width), uint(r.Height), src.Image, resize.Bilinear)
	} else {
		if src.Width == r.Width && src.Height == r.Height {
			return src
		}
		out = resize.Resize(uint(r.Width), uint(r.Height), src.Image, resize.Bilinear)
	}

	return src.WithImage(models.ToNRGBA(out))
}

// Thumbnail scales img to fit inside a size×size box for display, never upscaling.
func Thumbnail(img image.Image, size int) image.Image {
	if img == nil || size <= 0 {
		return img
	}
	return resize.Thumbnail(uint(size), uint(size), img, resize.Lanczos3)
}
