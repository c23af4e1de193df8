package opencv

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"nobg/internal/logger"
	"nobg/internal/models"
)

const (
	StrategyName = "grabcut"

	DefaultIterations = 5
	DefaultBorder     = 10

	// GrabCut label values.
	gcForeground         = 1
	gcProbableForeground = 3
)

// GrabCut segments with OpenCV's GrabCut, seeded by a rectangle inset Border
// pixels from each edge. Everything outside the rectangle is background.
type GrabCut struct {
	iterations int
	border     int
	logger     logger.Logger
}

func NewGrabCut(iterations, border int, log logger.Logger) *GrabCut {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	if border <= 0 {
		border = DefaultBorder
	}
	if log == nil {
		log = logger.NoOpLogger{}
	}
	return &GrabCut{iterations: iterations, border: border, logger: log}
}

func (g *GrabCut) Name() string { return StrategyName }

func (g *GrabCut) Segment(ctx context.Context, src *models.SourceImage) (*models.Mask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rect, err := g.seedRect(src.Width, src.Height)
	if err != nil {
		return nil, err
	}

	img, err := nrgbaToBGR(src.Image)
	if err != nil {
		img.Close()
		return nil, err
	}
	defer img.Close()

	labels := gocv.NewMat()
	defer labels.Close()
	bgdModel := gocv.NewMat()
	defer bgdModel.Close()
	fgdModel := gocv.NewMat()
	defer fgdModel.Close()

	g.logger.Debug("GrabCut", "running grabcut", map[string]interface{}{
		"invocation": src.ID,
		"width":      src.Width,
		"height":     src.Height,
		"iterations": g.iterations,
	})

	gocv.GrabCut(img, &labels, rect, &bgdModel, &fgdModel, g.iterations, gocv.GCInitWithRect)

	// GrabCut itself cannot be interrupted; a late cancellation still discards the work.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return grabCutForeground(labels)
}

func (g *GrabCut) seedRect(width, height int) (image.Rectangle, error) {
	rect := image.Rect(g.border, g.border, width-g.border, height-g.border)
	if rect.Dx() < 2 || rect.Dy() < 2 {
		return image.Rectangle{}, fmt.Errorf("image %dx%d is too small for a %dpx grabcut border", width, height, g.border)
	}
	return rect, nil
}
