// Package opencv holds the gocv backed segmentation strategy.
package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"nobg/internal/models"
)

// nrgbaToBGR packs img into an 8-bit three channel Mat. Alpha is dropped.
func nrgbaToBGR(img *image.NRGBA) (gocv.Mat, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return gocv.NewMat(), fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}

	data := make([]byte, 0, width*height*3)
	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width*4; x += 4 {
			data = append(data, row[x+2], row[x+1], row[x])
		}
	}

	mat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, data)
	if err != nil {
		return mat, fmt.Errorf("failed to create Mat with size %dx%d: %w", width, height, err)
	}
	return mat, nil
}

// grabCutForeground turns a GrabCut label Mat into a mask, keeping definite and
// probable foreground.
func grabCutForeground(labels gocv.Mat) (*models.Mask, error) {
	if labels.Empty() {
		return nil, fmt.Errorf("grabcut produced an empty mask")
	}
	if labels.Type() != gocv.MatTypeCV8U {
		return nil, fmt.Errorf("unexpected grabcut mask type %v", labels.Type())
	}

	mask := models.NewMask(labels.Cols(), labels.Rows())
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			switch labels.GetUCharAt(y, x) {
			case gcForeground, gcProbableForeground:
				mask.Set(x, y, 255)
			}
		}
	}
	return mask, nil
}
