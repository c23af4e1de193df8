package models

import (
	"fmt"
	"image"
	"image/draw"
	"time"
)

// SourceImage is a decoded input bitmap. Image always has its origin at (0,0).
type SourceImage struct {
	ID             string
	Path           string
	Format         string
	Raw            []byte
	Image          *image.NRGBA
	Width          int
	Height         int
	OriginalWidth  int
	OriginalHeight int
	LoadTime       time.Time
}

// Resized reports whether the working bitmap differs from the decoded file.
func (s *SourceImage) Resized() bool {
	return s.Width != s.OriginalWidth || s.Height != s.OriginalHeight
}

// WithImage returns a copy of s whose bitmap is replaced by img. Raw and the
// original dimensions are kept.
func (s *SourceImage) WithImage(img *image.NRGBA) *SourceImage {
	clone := *s
	bounds := img.Bounds()
	clone.Image = img
	clone.Width = bounds.Dx()
	clone.Height = bounds.Dy()
	return &clone
}

// Mask holds one byte per pixel, row-major. Nonzero marks foreground.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// MaskFromAlpha takes the alpha channel of img as a mask.
func MaskFromAlpha(img image.Image) *Mask {
	nrgba := ToNRGBA(img)
	bounds := nrgba.Bounds()
	mask := NewMask(bounds.Dx(), bounds.Dy())

	for y := 0; y < mask.Height; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+mask.Width*4]
		for x := 0; x < mask.Width; x++ {
			mask.Pix[y*mask.Width+x] = row[x*4+3]
		}
	}
	return mask
}

func (m *Mask) At(x, y int) uint8 {
	return m.Pix[y*m.Width+x]
}

func (m *Mask) Set(x, y int, v uint8) {
	m.Pix[y*m.Width+x] = v
}

// Foreground counts nonzero entries.
func (m *Mask) Foreground() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Gray exposes the mask as an 8-bit grayscale image for scaling and display.
func (m *Mask) Gray() *image.Gray {
	return &image.Gray{
		Pix:    m.Pix,
		Stride: m.Width,
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
}

// MaskFromGray copies a grayscale image into a mask.
func MaskFromGray(g *image.Gray) *Mask {
	bounds := g.Bounds()
	mask := NewMask(bounds.Dx(), bounds.Dy())
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			mask.Pix[y*mask.Width+x] = g.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
		}
	}
	return mask
}

// MatchesSource checks the compositing precondition.
func (m *Mask) MatchesSource(src *SourceImage) error {
	if m.Width != src.Width || m.Height != src.Height {
		return fmt.Errorf("mask %dx%d does not match image %dx%d", m.Width, m.Height, src.Width, src.Height)
	}
	if len(m.Pix) != m.Width*m.Height {
		return fmt.Errorf("mask buffer holds %d bytes, want %d", len(m.Pix), m.Width*m.Height)
	}
	return nil
}

// ResultImage is the composite handed to the UI for display and saving.
// Source is the working bitmap the composite was cut from.
type ResultImage struct {
	ID          string
	Image       *image.NRGBA
	Source      *image.NRGBA
	Width       int
	Height      int
	Strategy    string
	SourcePath  string
	ProcessedAt time.Time
	Duration    time.Duration
	Metrics     MaskMetrics
}

// MaskMetrics summarises the mask a result was cut with.
type MaskMetrics struct {
	Foreground int
	Coverage   float64
	Bounds     image.Rectangle
	Boundary   int
}

// ToNRGBA converts any image into a zero-origin NRGBA, reusing img when it already is one.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}

	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}
