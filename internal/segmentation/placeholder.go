package segmentation

import (
	"context"

	"nobg/internal/models"
)

// Placeholder marks every pixel as background.
type Placeholder struct{}

func (Placeholder) Name() string { return StrategyPlaceholder }

func (Placeholder) Segment(ctx context.Context, src *models.SourceImage) (*models.Mask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return models.NewMask(src.Width, src.Height), nil
}
