package app

import (
	"sync"

	"nobg/internal/debug/timing"
	"nobg/internal/gui"
	"nobg/internal/logger"
)

type Lifecycle struct {
	controller *Controller
	guiManager *gui.Manager
	timing     *timing.Tracker
	logger     logger.Logger
	once       sync.Once
}

func NewLifecycle(controller *Controller, gm *gui.Manager, tracker *timing.Tracker, log logger.Logger) *Lifecycle {
	return &Lifecycle{
		controller: controller,
		guiManager: gm,
		timing:     tracker,
		logger:     log,
	}
}

// Shutdown runs once no matter how many times it is called.
func (l *Lifecycle) Shutdown() {
	l.once.Do(l.shutdown)
}

func (l *Lifecycle) shutdown() {
	l.logger.Info("Lifecycle", "shutdown sequence initiated", nil)

	// Reverse dependency order
	if l.controller != nil {
		l.controller.Shutdown()
		l.logger.Debug("Lifecycle", "controller shutdown completed", nil)
	}

	if l.guiManager != nil {
		l.guiManager.Shutdown()
		l.logger.Debug("Lifecycle", "GUI manager shutdown completed", nil)
	}

	if l.timing != nil {
		fields := make(map[string]interface{})
		for op, avg := range l.timing.Summary() {
			fields[op+"_avg_ms"] = avg.Milliseconds()
		}
		l.logger.Info("Lifecycle", "stage timings", fields)
	}

	l.logger.Info("Lifecycle", "shutdown sequence completed", nil)
}
