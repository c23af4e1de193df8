package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"nobg/internal/logger"
	"nobg/internal/models"
)

// Coordinator runs load → resize → segment → composite for one path. The
// segmenter may be swapped while invocations are in flight; each invocation
// uses the one current at its start.
type Coordinator struct {
	mu        sync.RWMutex
	loader    ImageLoader
	resizer   Resizer
	segmenter Segmenter
	timing    TimingTracker
	logger    logger.Logger
}

func NewCoordinator(loader ImageLoader, resizer Resizer, segmenter Segmenter, timing TimingTracker, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	return &Coordinator{
		loader:    loader,
		resizer:   resizer,
		segmenter: segmenter,
		timing:    timing,
		logger:    log,
	}
}

func (c *Coordinator) SetSegmenter(s Segmenter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.segmenter = s
}

func (c *Coordinator) SetResizer(r Resizer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resizer = r
}

func (c *Coordinator) Strategy() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.segmenter.Name()
}

func (c *Coordinator) Process(ctx context.Context, path string) (*models.ResultImage, error) {
	c.mu.RLock()
	resizer, segmenter := c.resizer, c.segmenter
	c.mu.RUnlock()

	id := ksuid.New().String()
	start := time.Now()
	fields := map[string]interface{}{
		"invocation": id,
		"path":       path,
		"strategy":   segmenter.Name(),
	}

	c.logger.Info("Pipeline", "processing started", fields)

	stageCtx := c.timing.StartTiming(ctx, "load")
	src, err := c.loader.Load(stageCtx, path)
	c.timing.EndTiming(stageCtx)
	if err != nil {
		return nil, c.fail(err, fields)
	}
	src.ID = id

	if resizer.Enabled() {
		stageCtx = c.timing.StartTiming(ctx, "resize")
		src = resizer.Resize(src)
		c.timing.EndTiming(stageCtx)
	}

	stageCtx = c.timing.StartTiming(ctx, "segment")
	mask, err := segmenter.Segment(stageCtx, src)
	c.timing.EndTiming(stageCtx)
	if err != nil {
		return nil, c.fail(asSegmentationError(segmenter.Name(), err), fields)
	}

	stageCtx = c.timing.StartTiming(ctx, "composite")
	composite, err := Composite(src, mask)
	c.timing.EndTiming(stageCtx)
	if err != nil {
		return nil, c.fail(&SegmentationError{Strategy: segmenter.Name(), Err: err}, fields)
	}

	result := &models.ResultImage{
		ID:          id,
		Image:       composite,
		Source:      src.Image,
		Width:       src.Width,
		Height:      src.Height,
		Strategy:    segmenter.Name(),
		SourcePath:  path,
		ProcessedAt: time.Now(),
		Duration:    time.Since(start),
		Metrics:     MeasureMask(mask),
	}

	c.logger.Info("Pipeline", "processing completed", map[string]interface{}{
		"invocation":  id,
		"width":       result.Width,
		"height":      result.Height,
		"foreground":  result.Metrics.Foreground,
		"coverage":    result.Metrics.Coverage,
		"bounds":      result.Metrics.Bounds.String(),
		"duration_ms": result.Duration.Milliseconds(),
	})

	return result, nil
}

func (c *Coordinator) fail(err error, fields map[string]interface{}) error {
	if errors.Is(err, context.Canceled) {
		c.logger.Debug("Pipeline", "processing cancelled", fields)
		return err
	}
	c.logger.Error("Pipeline", err, fields)
	return err
}

func asSegmentationError(strategy string, err error) error {
	var segErr *SegmentationError
	if errors.As(err, &segErr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s segmentation: %w", strategy, err)
	}
	return &SegmentationError{Strategy: strategy, Err: err}
}
