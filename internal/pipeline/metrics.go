package pipeline

import (
	"image"

	"nobg/internal/models"
)

// MeasureMask computes coverage, the foreground bounding box and the number
// of boundary pixels.
func MeasureMask(mask *models.Mask) models.MaskMetrics {
	var metrics models.MaskMetrics
	if mask == nil || mask.Width == 0 || mask.Height == 0 {
		return metrics
	}

	minX, minY := mask.Width, mask.Height
	maxX, maxY := -1, -1

	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if mask.At(x, y) == 0 {
				continue
			}
			metrics.Foreground++
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
	}

	metrics.Coverage = float64(metrics.Foreground) / float64(mask.Width*mask.Height)
	if metrics.Foreground > 0 {
		metrics.Bounds = image.Rect(minX, minY, maxX+1, maxY+1)
	}
	metrics.Boundary = len(boundaryPoints(mask))

	return metrics
}

// boundaryPoints returns foreground pixels with at least one background
// 8-neighbour. Pixels outside the mask count as background.
func boundaryPoints(mask *models.Mask) []image.Point {
	var boundary []image.Point

	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if mask.At(x, y) == 0 {
				continue
			}
			if touchesBackground(mask, x, y) {
				boundary = append(boundary, image.Pt(x, y))
			}
		}
	}

	return boundary
}

func touchesBackground(mask *models.Mask, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= mask.Width || ny >= mask.Height {
				return true
			}
			if mask.At(nx, ny) == 0 {
				return true
			}
		}
	}
	return false
}
