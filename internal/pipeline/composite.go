package pipeline

import (
	"fmt"
	"image"

	"nobg/internal/models"
)

// Composite keeps src pixels where mask is nonzero and writes the zero NRGBA
// pixel everywhere else.
func Composite(src *models.SourceImage, mask *models.Mask) (*image.NRGBA, error) {
	if src == nil || src.Image == nil {
		return nil, fmt.Errorf("composite: no source image")
	}
	if mask == nil {
		return nil, fmt.Errorf("composite: no mask")
	}
	if err := mask.MatchesSource(src); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDimensionMismatch, err)
	}

	in := src.Image
	out := image.NewNRGBA(image.Rect(0, 0, src.Width, src.Height))

	for y := 0; y < src.Height; y++ {
		srcRow := in.Pix[y*in.Stride : y*in.Stride+src.Width*4]
		dstRow := out.Pix[y*out.Stride : y*out.Stride+src.Width*4]
		maskRow := mask.Pix[y*mask.Width : (y+1)*mask.Width]

		for x, m := range maskRow {
			if m != 0 {
				copy(dstRow[x*4:x*4+4], srcRow[x*4:x*4+4])
			}
		}
	}

	return out, nil
}
