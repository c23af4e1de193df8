package app

import (
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"nobg/internal/gui"
	"nobg/internal/logger"
)

const DefaultSaveName = "result.png"

var (
	openExtensions = []string{".jpg", ".jpeg", ".png"}
	saveExtensions = []string{".png", ".jpg", ".jpeg"}
)

type Handlers struct {
	controller *Controller
	guiManager *gui.Manager
	logger     logger.Logger
}

func NewHandlers(controller *Controller, gm *gui.Manager, log logger.Logger) *Handlers {
	return &Handlers{
		controller: controller,
		guiManager: gm,
		logger:     log,
	}
}

func (h *Handlers) HandleUpload() {
	open := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			h.guiManager.ShowError("File Open Error", err)
			return
		}
		if reader == nil {
			h.logger.Debug("Handlers", "upload cancelled", nil)
			return
		}

		path := reader.URI().Path()
		reader.Close()

		h.controller.Upload(path)
	}, h.guiManager.GetWindow())

	open.SetFilter(storage.NewExtensionFileFilter(openExtensions))
	open.Show()
}

func (h *Handlers) HandleClear() {
	h.controller.Clear()
}

func (h *Handlers) HandleSave() {
	if !h.controller.RequireResult() {
		return
	}

	save := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			h.guiManager.ShowError("File Save Error", err)
			return
		}
		if writer == nil {
			h.controller.SaveCancelled()
			return
		}

		// The dialog has already created the file; the saver rewrites it.
		path := writer.URI().Path()
		writer.Close()

		go func() {
			written, err := h.controller.Save(path)
			if err != nil || written != path {
				h.removeIfEmpty(path)
			}
		}()
	}, h.guiManager.GetWindow())

	save.SetFilter(storage.NewExtensionFileFilter(saveExtensions))
	save.SetFileName(DefaultSaveName)
	save.Show()
}

// removeIfEmpty drops the empty file the save dialog leaves behind when the
// image ends up elsewhere or could not be written.
func (h *Handlers) removeIfEmpty(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() > 0 {
		return
	}
	if err := os.Remove(path); err != nil {
		h.logger.Debug("Handlers", "could not remove empty file", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
}
