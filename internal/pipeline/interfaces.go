package pipeline

import (
	"context"
	"io"
	"time"

	"nobg/internal/models"
)

// Segmenter derives a foreground mask with the dimensions of src.
type Segmenter interface {
	Name() string
	Segment(ctx context.Context, src *models.SourceImage) (*models.Mask, error)
}

// ImageLoader turns a user-chosen file into a SourceImage.
type ImageLoader interface {
	Load(ctx context.Context, path string) (*models.SourceImage, error)
	LoadFromBytes(data []byte, name string) (*models.SourceImage, error)
}

// ImageSaver writes a ResultImage to disk or to a stream.
type ImageSaver interface {
	SaveToPath(path string, result *models.ResultImage) (string, error)
	SaveToWriter(w io.Writer, result *models.ResultImage, format string) error
}

// ProcessingCoordinator runs one upload end to end.
type ProcessingCoordinator interface {
	Process(ctx context.Context, path string) (*models.ResultImage, error)
	Strategy() string
}

type TimingTracker interface {
	StartTiming(parent context.Context, operation string) context.Context
	EndTiming(ctx context.Context) time.Duration
}
