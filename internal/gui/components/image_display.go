package components

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

const DefaultPaneSize = 350

// ImageDisplay shows the original thumbnail next to the processed result.
type ImageDisplay struct {
	container      *fyne.Container
	originalImage  *canvas.Image
	processedImage *canvas.Image
}

func NewImageDisplay(paneSize int) *ImageDisplay {
	if paneSize <= 0 {
		paneSize = DefaultPaneSize
	}
	size := fyne.NewSize(float32(paneSize), float32(paneSize))

	originalImage := canvas.NewImageFromImage(nil)
	originalImage.FillMode = canvas.ImageFillContain
	originalImage.SetMinSize(size)

	processedImage := canvas.NewImageFromImage(nil)
	processedImage.FillMode = canvas.ImageFillContain
	processedImage.SetMinSize(size)

	originalContainer := container.NewVBox(
		widget.NewRichTextFromMarkdown("**Original**"),
		originalImage,
	)

	processedContainer := container.NewVBox(
		widget.NewRichTextFromMarkdown("**Processed**"),
		processedImage,
	)

	imageLayout := container.New(
		layout.NewHBoxLayout(),
		layout.NewSpacer(),
		originalContainer,
		processedContainer,
		layout.NewSpacer(),
	)

	return &ImageDisplay{
		container:      container.NewBorder(nil, nil, nil, nil, container.NewScroll(imageLayout)),
		originalImage:  originalImage,
		processedImage: processedImage,
	}
}

func (id *ImageDisplay) GetContainer() *fyne.Container {
	return id.container
}

func (id *ImageDisplay) SetImages(original, processed image.Image) {
	id.originalImage.Image = original
	id.originalImage.Refresh()

	id.processedImage.Image = processed
	id.processedImage.Refresh()
}

func (id *ImageDisplay) Clear() {
	id.SetImages(nil, nil)
}

func (id *ImageDisplay) Images() (original, processed image.Image) {
	return id.originalImage.Image, id.processedImage.Image
}
