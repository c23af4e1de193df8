package app

import (
	"fmt"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"nobg/internal/config"
	"nobg/internal/debug/timing"
	"nobg/internal/gui"
	"nobg/internal/logger"
	"nobg/internal/pipeline"
	"nobg/internal/segmentation"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const (
	AppName    = "NoBg - Background Remover App"
	AppID      = "com.nobg.backgroundremover"
	AppVersion = "1.0.0"
)

type Application struct {
	fyneApp     fyne.App
	window      fyne.Window
	cfg         *config.Config
	guiManager  *gui.Manager
	coordinator *pipeline.Coordinator
	controller  *Controller
	configs     *config.Loader
	logger      logger.Logger
	lifecycle   *Lifecycle
	running     atomic.Bool
}

// NewApplication builds the window and everything behind it. configs may be
// nil, in which case the configuration is never reloaded.
func NewApplication(cfg *config.Config, configs *config.Loader, log logger.Logger, tracker *timing.Tracker) (*Application, error) {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	if tracker == nil {
		tracker = timing.NewTracker(log)
	}

	segmenter, err := segmentation.New(cfg.Segmentation, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create segmenter: %w", err)
	}

	fyneApp := app.NewWithID(AppID)
	window := fyneApp.NewWindow(AppName)
	window.Resize(fyne.NewSize(cfg.Window.Width, cfg.Window.Height))
	window.CenterOnScreen()
	window.SetMaster()

	log.Info("Application", "starting application", map[string]interface{}{
		"version":       AppVersion,
		"window_width":  cfg.Window.Width,
		"window_height": cfg.Window.Height,
		"strategy":      segmenter.Name(),
		"config_file":   configFile(configs),
	})

	coordinator := pipeline.NewCoordinator(
		pipeline.NewLoader(log),
		resizerFor(cfg.Pipeline),
		segmenter,
		tracker,
		log,
	)
	saver := pipeline.NewSaver(log, cfg.Pipeline.JPEGQuality)

	guiManager := gui.NewManager(window, log, cfg.Pipeline.ThumbnailSize)
	guiManager.SetStrategy(segmenter.Name())

	controller := NewController(coordinator, saver, guiManager, log, cfg.Pipeline.ThumbnailSize)

	application := &Application{
		fyneApp:     fyneApp,
		window:      window,
		cfg:         cfg,
		guiManager:  guiManager,
		coordinator: coordinator,
		controller:  controller,
		configs:     configs,
		logger:      log,
		lifecycle:   NewLifecycle(controller, guiManager, tracker, log),
	}

	application.setupHandlers()
	application.watchConfig()

	log.Info("Application", "initialization complete", nil)
	return application, nil
}

func resizerFor(cfg config.PipelineConfig) pipeline.Resizer {
	return pipeline.Resizer{
		Width:          cfg.WorkingWidth,
		Height:         cfg.WorkingHeight,
		PreserveAspect: cfg.PreserveAspect,
	}
}

func configFile(configs *config.Loader) string {
	if configs == nil {
		return ""
	}
	return configs.ConfigFile()
}

func (a *Application) setupHandlers() {
	handlers := NewHandlers(a.controller, a.guiManager, a.logger)

	a.guiManager.SetUploadHandler(handlers.HandleUpload)
	a.guiManager.SetClearHandler(handlers.HandleClear)
	a.guiManager.SetSaveHandler(handlers.HandleSave)
}

func (a *Application) watchConfig() {
	if a.configs == nil {
		return
	}

	a.configs.Watch(a.applyConfig, func(err error) {
		a.logger.Warning("Application", "ignoring invalid config change", map[string]interface{}{
			"error": err.Error(),
		})
	})
}

// applyConfig swaps the segmenter, working size, JPEG quality and thumbnail
// size. Uploads already running keep the segmenter and size they started with.
// Log and window settings only take effect after a restart.
func (a *Application) applyConfig(cfg *config.Config, event fsnotify.Event) {
	segmenter, err := segmentation.New(cfg.Segmentation, a.logger)
	if err != nil {
		a.logger.Error("Application", err, map[string]interface{}{
			"file": event.Name,
		})
		return
	}

	a.coordinator.SetSegmenter(segmenter)
	a.coordinator.SetResizer(resizerFor(cfg.Pipeline))
	a.controller.SetSaver(pipeline.NewSaver(a.logger, cfg.Pipeline.JPEGQuality))
	a.controller.SetThumbnailSize(cfg.Pipeline.ThumbnailSize)
	a.guiManager.SetStrategy(segmenter.Name())

	if pending := restartKeys(a.cfg, cfg); len(pending) > 0 {
		a.logger.Warning("Application", "restart required for some settings", map[string]interface{}{
			"file":     event.Name,
			"sections": pending,
		})
	}
	a.cfg = cfg

	a.logger.Info("Application", "configuration reloaded", map[string]interface{}{
		"file":           event.Name,
		"strategy":       segmenter.Name(),
		"jpeg_quality":   cfg.Pipeline.JPEGQuality,
		"thumbnail_size": cfg.Pipeline.ThumbnailSize,
	})
}

// restartKeys lists the config sections that changed but are only read at startup.
func restartKeys(previous, next *config.Config) []string {
	if previous == nil {
		return nil
	}

	var pending []string
	if previous.Log != next.Log {
		pending = append(pending, "log")
	}
	if previous.Window != next.Window {
		pending = append(pending, "window")
	}
	return pending
}

func (a *Application) Run() error {
	a.window.SetCloseIntercept(func() {
		a.logger.Info("Application", "shutdown requested", nil)
		a.lifecycle.Shutdown()
		a.window.Close()
	})

	a.window.SetContent(a.guiManager.GetMainContainer())
	a.window.Show()

	a.logger.Info("Application", "GUI displayed", nil)
	a.running.Store(true)
	a.fyneApp.Run()
	a.running.Store(false)

	return nil
}

// Shutdown stops background work and quits the event loop. It is used when
// the process is asked to stop from outside the window.
func (a *Application) Shutdown() {
	a.lifecycle.Shutdown()
	if a.running.Load() {
		fyne.Do(a.fyneApp.Quit)
	}
}
