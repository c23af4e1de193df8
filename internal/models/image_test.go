package models

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskFromAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, A: 255})
	img.SetNRGBA(2, 1, color.NRGBA{G: 10, A: 7})

	mask := MaskFromAlpha(img)

	require.Equal(t, 3, mask.Width)
	require.Equal(t, 2, mask.Height)
	assert.Equal(t, uint8(255), mask.At(0, 0))
	assert.Equal(t, uint8(7), mask.At(2, 1))
	assert.Equal(t, uint8(0), mask.At(1, 0))
	assert.Equal(t, 2, mask.Foreground())
}

func TestToNRGBA_NormalisesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 9, 7))
	src.Set(5, 5, color.RGBA{R: 200, A: 255})

	out := ToNRGBA(src)

	assert.Equal(t, image.Rect(0, 0, 4, 2), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 200, A: 255}, out.NRGBAAt(0, 0))
}

func TestToNRGBA_ReusesZeroOriginNRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	assert.Same(t, src, ToNRGBA(src))
}

func TestMask_MatchesSource(t *testing.T) {
	src := &SourceImage{Width: 4, Height: 3}

	assert.NoError(t, NewMask(4, 3).MatchesSource(src))
	assert.Error(t, NewMask(3, 4).MatchesSource(src))

	broken := NewMask(4, 3)
	broken.Pix = broken.Pix[:5]
	assert.Error(t, broken.MatchesSource(src))
}

func TestMask_GrayRoundTrip(t *testing.T) {
	mask := NewMask(2, 2)
	mask.Set(1, 1, 255)

	back := MaskFromGray(mask.Gray())

	assert.Equal(t, mask.Pix, back.Pix)
}

func TestSourceImage_WithImage(t *testing.T) {
	src := &SourceImage{
		Path: "a.png", Raw: []byte{1}, Width: 10, Height: 10,
		OriginalWidth: 10, OriginalHeight: 10,
	}

	small := src.WithImage(image.NewNRGBA(image.Rect(0, 0, 5, 4)))

	assert.Equal(t, 5, small.Width)
	assert.Equal(t, 4, small.Height)
	assert.True(t, small.Resized())
	assert.False(t, src.Resized())
	assert.Equal(t, src.Raw, small.Raw)
}
