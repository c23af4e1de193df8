package segmentation

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/png"

	"github.com/nfnt/resize"

	"nobg/internal/logger"
	"nobg/internal/models"
	"nobg/internal/segmentation/rembg"
)

// Delegated hands the original file bytes to an external remover and uses the
// alpha channel of what comes back as the mask.
type Delegated struct {
	remover rembg.Remover
	logger  logger.Logger
}

func NewDelegated(remover rembg.Remover, log logger.Logger) *Delegated {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	return &Delegated{remover: remover, logger: log}
}

func (d *Delegated) Name() string { return StrategyDelegated }

func (d *Delegated) Segment(ctx context.Context, src *models.SourceImage) (*models.Mask, error) {
	if len(src.Raw) == 0 {
		return nil, fmt.Errorf("source %q has no encoded bytes to send", src.Path)
	}

	d.logger.Debug("Segmentation", "sending image to segmentation service", map[string]interface{}{
		"invocation": src.ID,
		"bytes":      len(src.Raw),
	})

	payload, err := d.remover.Remove(ctx, src.Raw, src.Path)
	if err != nil {
		return nil, err
	}

	cutout, format, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to decode service response: %w", err)
	}

	bounds := cutout.Bounds()
	if bounds.Dx() != src.OriginalWidth || bounds.Dy() != src.OriginalHeight {
		return nil, fmt.Errorf("service returned %dx%d, expected %dx%d",
			bounds.Dx(), bounds.Dy(), src.OriginalWidth, src.OriginalHeight)
	}

	mask := models.MaskFromAlpha(cutout)
	if src.Resized() {
		mask = scaleMask(mask, src.Width, src.Height)
	}

	d.logger.Debug("Segmentation", "segmentation service responded", map[string]interface{}{
		"invocation": src.ID,
		"format":     format,
		"foreground": mask.Foreground(),
	})

	return mask, nil
}

// scaleMask resizes with nearest neighbour so mask values stay as returned.
func scaleMask(mask *models.Mask, width, height int) *models.Mask {
	scaled := resize.Resize(uint(width), uint(height), mask.Gray(), resize.NearestNeighbor)
	gray, ok := scaled.(*image.Gray)
	if !ok {
		gray = image.NewGray(image.Rect(0, 0, width, height))
		draw.Draw(gray, gray.Bounds(), scaled, scaled.Bounds().Min, draw.Src)
	}
	return models.MaskFromGray(gray)
}
