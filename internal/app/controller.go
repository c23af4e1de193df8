package app

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"

	"nobg/internal/logger"
	"nobg/internal/models"
	"nobg/internal/pipeline"
)

const (
	StatusWelcome    = "Welcome to Background Remover App"
	StatusProcessing = "Processing..."
	StatusDone       = "Done!"
	StatusReady      = "Ready"

	MessageNoImage = "No processed image to save."
)

// View is the part of the window the controller drives. Implementations must
// be safe to call from any goroutine.
type View interface {
	SetStatus(text string)
	ShowImages(original, processed image.Image)
	ClearImages()
	SetSaveEnabled(enabled bool)
	ShowError(title string, err error)
	ShowWarning(title, message string)
	ShowInfo(title, message string)
}

// ProcessError is what an upload failure looks like to the user.
type ProcessError struct {
	Path string
	Err  error
}

func (e *ProcessError) Error() string {
	return "Failed to process image: " + e.Err.Error()
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Controller owns the shell state: the current result, save enablement and
// status text. Every upload gets a token; only the completion holding the
// latest token may touch the view.
type Controller struct {
	processor pipeline.ProcessingCoordinator
	view      View
	logger    logger.Logger

	token atomic.Uint64
	wg    sync.WaitGroup
	ctx   context.Context
	stop  context.CancelFunc

	mu            sync.Mutex
	saver         pipeline.ImageSaver
	thumbnailSize int
	cancel        context.CancelFunc
	current       *models.ResultImage
	settled       string
	saveEnabled   bool
}

func NewController(processor pipeline.ProcessingCoordinator, saver pipeline.ImageSaver, view View, log logger.Logger, thumbnailSize int) *Controller {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	ctx, stop := context.WithCancel(context.Background())

	c := &Controller{
		processor:     processor,
		saver:         saver,
		view:          view,
		logger:        log,
		thumbnailSize: thumbnailSize,
		ctx:           ctx,
		stop:          stop,
		settled:       StatusWelcome,
	}

	view.SetStatus(StatusWelcome)
	view.SetSaveEnabled(false)
	return c
}

// Upload starts processing path in the background and returns its token.
// Any upload still in flight is cancelled and its result will be dropped.
func (c *Controller) Upload(path string) uint64 {
	ctx, token := c.begin()

	c.logger.Info("Controller", "upload started", map[string]interface{}{
		"path":     path,
		"token":    token,
		"strategy": c.processor.Strategy(),
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result, err := c.processor.Process(ctx, path)
		c.finish(token, path, result, err)
	}()

	return token
}

func (c *Controller) begin() (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	token := c.token.Add(1)

	c.view.SetStatus(StatusProcessing)
	return ctx, token
}

func (c *Controller) finish(token uint64, path string, result *models.ResultImage, err error) {
	var original, processed image.Image
	if err == nil {
		size := c.ThumbnailSize()
		original = pipeline.Thumbnail(result.Source, size)
		processed = pipeline.Thumbnail(result.Image, size)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.token.Load() {
		c.logger.Debug("Controller", "discarding stale result", map[string]interface{}{
			"path":    path,
			"token":   token,
			"current": c.token.Load(),
		})
		return
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if err != nil {
		c.view.SetStatus(c.settled)
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Error("Controller", err, map[string]interface{}{
			"path":  path,
			"token": token,
		})
		c.view.ShowError("Processing Error", &ProcessError{Path: path, Err: err})
		return
	}

	c.current = result
	c.settled = StatusDone
	c.saveEnabled = true

	c.view.ShowImages(original, processed)
	c.view.SetStatus(StatusDone)
	c.view.SetSaveEnabled(true)

	c.logger.Info("Controller", "result displayed", map[string]interface{}{
		"path":        path,
		"token":       token,
		"width":       result.Width,
		"height":      result.Height,
		"duration_ms": result.Duration.Milliseconds(),
	})
}

// Clear drops the current result and supersedes any upload in flight.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.token.Add(1)
	c.current = nil
	c.settled = StatusReady
	c.saveEnabled = false

	c.view.ClearImages()
	c.view.SetStatus(StatusReady)
	c.view.SetSaveEnabled(false)

	c.logger.Debug("Controller", "display cleared", nil)
}

// RequireResult reports whether there is something to save, warning the user
// when there is not.
func (c *Controller) RequireResult() bool {
	_, ok := c.requireResult()
	return ok
}

func (c *Controller) requireResult() (*models.ResultImage, bool) {
	if result := c.Result(); result != nil {
		return result, true
	}
	c.logger.Warning("Controller", "save requested without a processed image", nil)
	c.view.ShowWarning("Save Error", MessageNoImage)
	return nil, false
}

// Save writes the current result to path and returns the path written. The
// result checked is the result written, even if Clear runs meanwhile.
func (c *Controller) Save(path string) (string, error) {
	result, ok := c.requireResult()
	if !ok {
		return "", pipeline.ErrNoImage
	}

	c.mu.Lock()
	saver := c.saver
	c.mu.Unlock()

	written, err := saver.SaveToPath(path, result)
	if err != nil {
		c.logger.Error("Controller", err, map[string]interface{}{
			"path": path,
		})
		c.view.ShowError("Save Error", err)
		return "", err
	}

	c.logger.Info("Controller", "Image successfully saved to "+written, nil)
	c.view.ShowInfo("Image Saved", "Image successfully saved to "+written)
	return written, nil
}

// SetSaver replaces the saver used by later saves.
func (c *Controller) SetSaver(saver pipeline.ImageSaver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saver = saver
}

// SetThumbnailSize changes the display size of results finished from now on.
func (c *Controller) SetThumbnailSize(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thumbnailSize = size
}

func (c *Controller) ThumbnailSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thumbnailSize
}

func (c *Controller) SaveCancelled() {
	c.logger.Info("Controller", "Save image operation cancelled.", nil)
}

func (c *Controller) Result() *models.ResultImage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) SaveEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveEnabled
}

// Wait blocks until every upload goroutine has returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) Shutdown() {
	c.stop()
	c.wg.Wait()
	c.logger.Debug("Controller", "controller stopped", nil)
}
