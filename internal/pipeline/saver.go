package pipeline

import (
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"nobg/internal/logger"
	"nobg/internal/models"
)

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"

	defaultExtension = ".png"
	defaultQuality   = 95
)

type imageSaver struct {
	logger      logger.Logger
	jpegQuality int
}

func NewSaver(log logger.Logger, jpegQuality int) ImageSaver {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = defaultQuality
	}
	return &imageSaver{logger: log, jpegQuality: jpegQuality}
}

// FormatForExtension maps a file extension to an output format. An empty
// extension selects PNG.
func FormatForExtension(ext string) (string, error) {
	switch strings.ToLower(ext) {
	case "", ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// SaveToPath writes result to path and returns the path actually written.
// A path without an extension gets ".png" appended.
func (s *imageSaver) SaveToPath(path string, result *models.ResultImage) (string, error) {
	if result == nil || result.Image == nil {
		return "", ErrNoImage
	}

	ext := filepath.Ext(path)
	if ext == "" {
		path += defaultExtension
		ext = defaultExtension
	}

	format, err := FormatForExtension(ext)
	if err != nil {
		return "", &EncodeError{Path: path, Err: err}
	}

	file, err := os.Create(path)
	if err != nil {
		return "", &EncodeError{Path: path, Format: format, Err: err}
	}

	encodeErr := s.SaveToWriter(file, result, format)
	closeErr := file.Close()

	if err := errors.Join(encodeErr, closeErr); err != nil {
		_ = os.Remove(path)
		var encErr *EncodeError
		if errors.As(err, &encErr) {
			encErr.Path = path
			return "", encErr
		}
		return "", &EncodeError{Path: path, Format: format, Err: err}
	}

	s.logger.Info("ImageSaver", "image saved", map[string]interface{}{
		"path":   path,
		"format": format,
	})

	return path, nil
}

func (s *imageSaver) SaveToWriter(w io.Writer, result *models.ResultImage, format string) error {
	if result == nil || result.Image == nil {
		return ErrNoImage
	}

	if format == "" {
		format = FormatPNG
	}

	s.logger.Debug("ImageSaver", "saving image", map[string]interface{}{
		"format": format,
		"width":  result.Width,
		"height": result.Height,
	})

	var err error
	switch format {
	case FormatJPEG:
		err = jpeg.Encode(w, result.Image, &jpeg.Options{Quality: s.jpegQuality})
	case FormatPNG:
		err = png.Encode(w, result.Image)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err != nil {
		s.logger.Error("ImageSaver", err, map[string]interface{}{
			"format": format,
		})
		return &EncodeError{Format: format, Err: err}
	}

	return nil
}
