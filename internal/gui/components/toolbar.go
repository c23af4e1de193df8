package components

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	UploadLabel = "Upload Image"
	ClearLabel  = "Clear"
	SaveLabel   = "Save Image"
)

// Toolbar is the control panel above the images.
type Toolbar struct {
	container    *fyne.Container
	UploadButton *widget.Button
	ClearButton  *widget.Button
	SaveButton   *widget.Button

	uploadHandler func()
	clearHandler  func()
	saveHandler   func()
}

func NewToolbar() *Toolbar {
	toolbar := &Toolbar{}
	toolbar.setupToolbar()
	return toolbar
}

func (t *Toolbar) setupToolbar() {
	background := canvas.NewRectangle(color.RGBA{R: 250, G: 249, B: 245, A: 255})
	border := canvas.NewRectangle(color.Transparent)
	border.StrokeWidth = 1.0
	border.StrokeColor = color.RGBA{R: 231, G: 231, B: 231, A: 255}

	t.UploadButton = widget.NewButton(UploadLabel, t.onUpload)
	t.UploadButton.Importance = widget.HighImportance
	t.ClearButton = widget.NewButton(ClearLabel, t.onClear)
	t.SaveButton = widget.NewButton(SaveLabel, t.onSave)
	t.SaveButton.Importance = widget.HighImportance
	t.SaveButton.Disable()

	buttons := container.NewHBox(
		t.UploadButton,
		t.ClearButton,
		widget.NewSeparator(),
		t.SaveButton,
	)

	t.container = container.NewStack(
		border,
		container.NewPadded(
			container.NewStack(background, container.NewPadded(container.NewCenter(buttons))),
		),
	)
}

func (t *Toolbar) GetContainer() *fyne.Container {
	return t.container
}

func (t *Toolbar) SetUploadHandler(handler func()) {
	t.uploadHandler = handler
}

func (t *Toolbar) SetClearHandler(handler func()) {
	t.clearHandler = handler
}

func (t *Toolbar) SetSaveHandler(handler func()) {
	t.saveHandler = handler
}

func (t *Toolbar) SetSaveEnabled(enabled bool) {
	if enabled {
		t.SaveButton.Enable()
	} else {
		t.SaveButton.Disable()
	}
}

func (t *Toolbar) onUpload() {
	if t.uploadHandler != nil {
		t.uploadHandler()
	}
}

func (t *Toolbar) onClear() {
	if t.clearHandler != nil {
		t.clearHandler()
	}
}

func (t *Toolbar) onSave() {
	if t.saveHandler != nil {
		t.saveHandler()
	}
}
