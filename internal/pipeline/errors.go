package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrDecode            = errors.New("decode failed")
	ErrSegmentation      = errors.New("segmentation failed")
	ErrEncode            = errors.New("encode failed")
	ErrNoImage           = errors.New("no processed image to save")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrDimensionMismatch = errors.New("mask dimensions do not match image")
)

// DecodeError reports an input that does not exist, cannot be read or is not a
// supported raster format.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// SegmentationError reports a failed mask derivation.
type SegmentationError struct {
	Strategy string
	Err      error
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("%s segmentation failed: %v", e.Strategy, e.Err)
}

func (e *SegmentationError) Unwrap() error { return e.Err }

func (e *SegmentationError) Is(target error) bool { return target == ErrSegmentation }

// EncodeError reports a failed save.
type EncodeError struct {
	Path   string
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	switch {
	case e.Path == "":
		return fmt.Sprintf("failed to encode %s image: %v", e.Format, e.Err)
	case e.Format == "":
		return fmt.Sprintf("failed to save %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to save %s as %s: %v", e.Path, e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

func (e *EncodeError) Is(target error) bool { return target == ErrEncode }
