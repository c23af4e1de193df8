package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"nobg/internal/logger"
	"nobg/internal/models"
)

type imageLoader struct {
	logger logger.Logger
}

func NewLoader(log logger.Logger) ImageLoader {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	return &imageLoader{logger: log}
}

func (l *imageLoader) Load(ctx context.Context, path string) (*models.SourceImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.Debug("ImageLoader", "loading image", map[string]interface{}{
		"path":      path,
		"extension": strings.ToLower(filepath.Ext(path)),
	})

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	src, err := l.LoadFromBytes(data, path)
	if err != nil {
		return nil, err
	}

	return src, nil
}

func (l *imageLoader) LoadFromBytes(data []byte, name string) (*models.SourceImage, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Path: name, Err: fmt.Errorf("file is empty")}
	}

	img, stdLibFormat, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Path: name, Err: err}
	}

	nrgba := models.ToNRGBA(img)
	bounds := nrgba.Bounds()
	if bounds.Empty() {
		return nil, &DecodeError{Path: name, Err: fmt.Errorf("image has no pixels")}
	}

	format := determineActualFormat(strings.ToLower(filepath.Ext(name)), stdLibFormat)

	src := &models.SourceImage{
		Path:           name,
		Format:         format,
		Raw:            data,
		Image:          nrgba,
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		OriginalWidth:  bounds.Dx(),
		OriginalHeight: bounds.Dy(),
		LoadTime:       time.Now(),
	}

	l.logger.Info("ImageLoader", "image loaded", map[string]interface{}{
		"width":      src.Width,
		"height":     src.Height,
		"format":     format,
		"size_bytes": len(data),
	})

	return src, nil
}

// determineActualFormat trusts the decoder over the extension when they disagree.
func determineActualFormat(uriExtension, stdLibFormat string) string {
	if stdLibFormat != "" {
		return stdLibFormat
	}

	switch uriExtension {
	case ".tiff", ".tif":
		return "tiff"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".bmp":
		return "bmp"
	case ".webp":
		return "webp"
	default:
		return "unknown"
	}
}
