package gui

import (
	"image"

	"nobg/internal/gui/components"
	"nobg/internal/logger"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const InitialStatus = "Welcome to Background Remover App"

// Manager owns the window content. Its setters may be called from any
// goroutine; widget changes are marshalled onto the fyne main goroutine.
type Manager struct {
	window     fyne.Window
	logger     logger.Logger
	isShutdown bool

	toolbar      *components.Toolbar
	imageDisplay *components.ImageDisplay
	statusBar    *components.StatusBar
}

func NewManager(window fyne.Window, log logger.Logger, paneSize int) *Manager {
	if log == nil {
		log = logger.NoOpLogger{}
	}

	manager := &Manager{
		window:       window,
		logger:       log,
		toolbar:      components.NewToolbar(),
		imageDisplay: components.NewImageDisplay(paneSize),
		statusBar:    components.NewStatusBar(InitialStatus),
	}

	log.Info("GUIManager", "initialized", map[string]interface{}{
		"pane_size": paneSize,
	})

	return manager
}

func (m *Manager) GetMainContainer() *fyne.Container {
	return container.NewBorder(
		m.toolbar.GetContainer(),
		m.statusBar.GetContainer(),
		nil, nil,
		m.imageDisplay.GetContainer(),
	)
}

func (m *Manager) GetWindow() fyne.Window {
	return m.window
}

func (m *Manager) SetUploadHandler(handler func()) {
	m.toolbar.SetUploadHandler(func() {
		m.logger.Debug("GUIManager", "upload requested", nil)
		handler()
	})
}

func (m *Manager) SetClearHandler(handler func()) {
	m.toolbar.SetClearHandler(func() {
		m.logger.Debug("GUIManager", "clear requested", nil)
		handler()
	})
}

func (m *Manager) SetSaveHandler(handler func()) {
	m.toolbar.SetSaveHandler(func() {
		m.logger.Debug("GUIManager", "save requested", nil)
		handler()
	})
}

func (m *Manager) SetStatus(status string) {
	fyne.Do(func() {
		m.statusBar.SetStatus(status)
		m.logger.Debug("GUIManager", "status updated", map[string]interface{}{
			"status": status,
		})
	})
}

func (m *Manager) SetStrategy(name string) {
	fyne.Do(func() {
		m.statusBar.SetStrategy(name)
	})
}

func (m *Manager) ShowImages(original, processed image.Image) {
	fyne.Do(func() {
		m.imageDisplay.SetImages(original, processed)
		fields := map[string]interface{}{}
		if processed != nil {
			fields["bounds"] = processed.Bounds().String()
		}
		m.logger.Debug("GUIManager", "images set", fields)
	})
}

func (m *Manager) ClearImages() {
	fyne.Do(func() {
		m.imageDisplay.Clear()
	})
}

func (m *Manager) SetSaveEnabled(enabled bool) {
	fyne.Do(func() {
		m.toolbar.SetSaveEnabled(enabled)
	})
}

func (m *Manager) ShowError(title string, err error) {
	m.logger.Error("GUIManager", err, map[string]interface{}{
		"title": title,
	})

	fyne.Do(func() {
		dialog.ShowError(err, m.window)
	})
}

func (m *Manager) ShowWarning(title, message string) {
	m.logger.Warning("GUIManager", message, map[string]interface{}{
		"title": title,
	})

	fyne.Do(func() {
		dialog.NewCustom(title, "OK", warningContent(message), m.window).Show()
	})
}

func warningContent(message string) fyne.CanvasObject {
	return container.NewHBox(widget.NewIcon(theme.WarningIcon()), widget.NewLabel(message))
}

func (m *Manager) ShowInfo(title, message string) {
	fyne.Do(func() {
		dialog.ShowInformation(title, message, m.window)
	})
}

func (m *Manager) Shutdown() {
	if m.isShutdown {
		return
	}

	m.isShutdown = true
	m.logger.Info("GUIManager", "shutdown initiated", nil)
}
