package app

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nobg/internal/debug/timing"
	"nobg/internal/logger"
	"nobg/internal/models"
	"nobg/internal/pipeline"
	"nobg/internal/segmentation"
)

type fakeView struct {
	mu          sync.Mutex
	statuses    []string
	original    image.Image
	processed   image.Image
	saveEnabled bool
	errs        []error
	warnings    []string
	infos       []string
	cleared     int
}

func (v *fakeView) SetStatus(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, text)
}

func (v *fakeView) ShowImages(original, processed image.Image) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.original, v.processed = original, processed
}

func (v *fakeView) ClearImages() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.original, v.processed = nil, nil
	v.cleared++
}

func (v *fakeView) SetSaveEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.saveEnabled = enabled
}

func (v *fakeView) ShowError(title string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errs = append(v.errs, err)
}

func (v *fakeView) ShowWarning(title, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.warnings = append(v.warnings, message)
}

func (v *fakeView) ShowInfo(title, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.infos = append(v.infos, message)
}

func (v *fakeView) status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.statuses) == 0 {
		return ""
	}
	return v.statuses[len(v.statuses)-1]
}

// gatedProcessor returns a canned result per path once that path's gate opens.
type gatedProcessor struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	results map[string]*models.ResultImage
}

func newGatedProcessor() *gatedProcessor {
	return &gatedProcessor{
		gates:   make(map[string]chan struct{}),
		results: make(map[string]*models.ResultImage),
	}
}

func (p *gatedProcessor) add(path string, w, h int) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	gate := make(chan struct{})
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	p.gates[path] = gate
	p.results[path] = &models.ResultImage{Image: img, Source: img, Width: w, Height: h, SourcePath: path}
	return gate
}

func (p *gatedProcessor) Strategy() string { return "fake" }

// Process ignores cancellation so a superseded upload still completes and
// must be dropped by the token check.
func (p *gatedProcessor) Process(ctx context.Context, path string) (*models.ResultImage, error) {
	p.mu.Lock()
	gate, result := p.gates[path], p.results[path]
	p.mu.Unlock()
	<-gate
	return result, nil
}

func newPipelineController(t *testing.T, view View) *Controller {
	t.Helper()
	quiet := logger.NoOpLogger{}
	coord := pipeline.NewCoordinator(pipeline.NewLoader(quiet), pipeline.Resizer{Width: 350, Height: 350},
		segmentation.Placeholder{}, timing.NewTracker(nil), quiet)
	return NewController(coord, pipeline.NewSaver(quiet, 95), view, quiet, 350)
}

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, w, h))))
	return path
}

func TestController_InitialState(t *testing.T) {
	view := &fakeView{}
	c := newPipelineController(t, view)

	assert.Equal(t, StatusWelcome, view.status())
	assert.False(t, view.saveEnabled)
	assert.False(t, c.SaveEnabled())
	assert.Nil(t, c.Result())
}

func TestController_UploadSuccess(t *testing.T) {
	view := &fakeView{}
	c := newPipelineController(t, view)

	c.Upload(writeTestPNG(t, 700, 500))
	c.Wait()

	assert.Equal(t, []string{StatusWelcome, StatusProcessing, StatusDone}, view.statuses)
	assert.True(t, view.saveEnabled)
	require.NotNil(t, c.Result())
	assert.Equal(t, 350, c.Result().Width)
	assert.Equal(t, 350, c.Result().Height)
	require.NotNil(t, view.processed)
	assert.Equal(t, image.Rect(0, 0, 350, 350), view.processed.Bounds())
	assert.Empty(t, view.errs)
}

func TestController_UploadMissingFile(t *testing.T) {
	view := &fakeView{}
	c := newPipelineController(t, view)

	c.Upload(filepath.Join(t.TempDir(), "does-not-exist.png"))
	c.Wait()

	require.Len(t, view.errs, 1)
	assert.ErrorIs(t, view.errs[0], pipeline.ErrDecode)
	assert.Contains(t, view.errs[0].Error(), "Failed to process image: ")
	assert.False(t, view.saveEnabled)
	assert.False(t, c.SaveEnabled())
	assert.Equal(t, StatusWelcome, view.status())
	assert.Nil(t, view.processed)
}

func TestController_FailureKeepsPreviousResult(t *testing.T) {
	view := &fakeView{}
	c := newPipelineController(t, view)

	c.Upload(writeTestPNG(t, 20, 20))
	c.Wait()
	previous := c.Result()
	require.NotNil(t, previous)

	c.Upload(filepath.Join(t.TempDir(), "missing.png"))
	c.Wait()

	assert.Same(t, previous, c.Result())
	assert.True(t, view.saveEnabled)
	assert.Equal(t, StatusDone, view.status())
}

func TestController_SaveBeforeProcessing(t *testing.T) {
	view := &fakeView{}
	c := newPipelineController(t, view)
	target := filepath.Join(t.TempDir(), "result.png")

	_, err := c.Save(target)

	assert.ErrorIs(t, err, pipeline.ErrNoImage)
	assert.Equal(t, []string{MessageNoImage}, view.warnings)
	assert.NoFileExists(t, target)
	assert.False(t, c.RequireResult())
}

func TestController_SaveAfterProcessing(t *testing.T) {
	view := &fakeView{}
	c := newPipelineController(t, view)
	c.Upload(writeTestPNG(t, 40, 30))
	c.Wait()

	written, err := c.Save(filepath.Join(t.TempDir(), "result"))
	require.NoError(t, err)

	assert.Equal(t, ".png", filepath.Ext(written))
	assert.FileExists(t, written)
	assert.Equal(t, []string{"Image successfully saved to " + written}, view.infos)
}

func TestController_SaveFailureIsReported(t *testing.T) {
	view := &fakeView{}
	c := newPipelineController(t, view)
	c.Upload(writeTestPNG(t, 10, 10))
	c.Wait()

	_, err := c.Save(filepath.Join(t.TempDir(), "result.gif"))
	assert.ErrorIs(t, err, pipeline.ErrEncode)
	require.Len(t, view.errs, 1)
	assert.Empty(t, view.infos)
}

func TestController_StaleResultIsDropped(t *testing.T) {
	view := &fakeView{}
	proc := newGatedProcessor()
	slow := proc.add("slow.png", 11, 11)
	fast := proc.add("fast.png", 22, 22)
	c := NewController(proc, pipeline.NewSaver(nil, 0), view, nil, 350)

	first := c.Upload("slow.png")
	second := c.Upload("fast.png")
	assert.Greater(t, second, first)

	close(fast)
	close(slow)
	c.Wait()

	require.NotNil(t, c.Result())
	assert.Equal(t, "fast.png", c.Result().SourcePath)
	assert.Equal(t, 22, view.processed.Bounds().Dx())
}

func TestController_ClearSupersedesInFlight(t *testing.T) {
	view := &fakeView{}
	proc := newGatedProcessor()
	gate := proc.add("late.png", 5, 5)
	c := NewController(proc, pipeline.NewSaver(nil, 0), view, nil, 350)

	c.Upload("late.png")
	c.Clear()
	close(gate)
	c.Wait()

	assert.Nil(t, c.Result())
	assert.Nil(t, view.processed)
	assert.False(t, view.saveEnabled)
	assert.Equal(t, StatusReady, view.status())
	assert.Equal(t, 1, view.cleared)
}

func TestController_ShutdownCancelsInFlight(t *testing.T) {
	view := &fakeView{}
	started := make(chan struct{})
	proc := &blockingProcessor{started: started}
	c := NewController(proc, pipeline.NewSaver(nil, 0), view, nil, 350)

	c.Upload("any.png")
	<-started
	c.Shutdown()

	assert.ErrorIs(t, proc.err, context.Canceled)
	assert.Empty(t, view.errs)
	assert.Nil(t, c.Result())
}

type blockingProcessor struct {
	started chan struct{}
	err     error
}

func (p *blockingProcessor) Strategy() string { return "blocking" }

func (p *blockingProcessor) Process(ctx context.Context, path string) (*models.ResultImage, error) {
	close(p.started)
	<-ctx.Done()
	p.err = ctx.Err()
	return nil, p.err
}

func TestProcessError(t *testing.T) {
	err := &ProcessError{Path: "x.png", Err: &pipeline.DecodeError{Path: "x.png", Err: errors.New("boom")}}

	assert.Equal(t, "Failed to process image: failed to decode x.png: boom", err.Error())
	assert.ErrorIs(t, err, pipeline.ErrDecode)
}

// recordingSaver remembers the result it was asked to write.
type recordingSaver struct {
	pipeline.ImageSaver
	mu   sync.Mutex
	seen []*models.ResultImage
}

func (s *recordingSaver) SaveToPath(path string, result *models.ResultImage) (string, error) {
	s.mu.Lock()
	s.seen = append(s.seen, result)
	s.mu.Unlock()
	return s.ImageSaver.SaveToPath(path, result)
}

func TestController_SaveWritesTheResultItChecked(t *testing.T) {
	view := &fakeView{}
	saver := &recordingSaver{ImageSaver: pipeline.NewSaver(nil, 0)}
	proc := newGatedProcessor()
	close(proc.add("a.png", 4, 4))
	c := NewController(proc, saver, view, nil, 350)

	c.Upload("a.png")
	c.Wait()
	want := c.Result()

	_, err := c.Save(filepath.Join(t.TempDir(), "out.png"))
	require.NoError(t, err)

	require.Len(t, saver.seen, 1)
	assert.Same(t, want, saver.seen[0])
}

func TestController_ClearDuringSaveNeverReportsAnError(t *testing.T) {
	view := &fakeView{}
	proc := newGatedProcessor()
	close(proc.add("a.png", 4, 4))
	c := NewController(proc, pipeline.NewSaver(nil, 0), view, nil, 350)
	dir := t.TempDir()

	for i := 0; i < 50; i++ {
		c.Upload("a.png")
		c.Wait()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Clear()
		}()

		_, err := c.Save(filepath.Join(dir, "out.png"))
		wg.Wait()

		if err != nil {
			require.ErrorIs(t, err, pipeline.ErrNoImage)
		}
	}

	assert.Empty(t, view.errs)
}
