package main

import (
	"log"

	"nobg/internal/app"
	"nobg/internal/config"
	"nobg/internal/debug/timing"
	"nobg/internal/logger"
	"nobg/internal/shutdown"
)

func main() {
	configs := config.NewLoader()
	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("Configuration failed: %v", err)
	}

	appLogger, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		JSON:       cfg.Log.JSON,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Logger initialization failed: %v", err)
	}
	defer appLogger.Shutdown()

	tracker := timing.NewTracker(appLogger)

	application, err := app.NewApplication(cfg, configs, appLogger, tracker)
	if err != nil {
		appLogger.Error("Main", err, nil)
		log.Fatalf("Application initialization failed: %v", err)
	}

	shutdownMgr := shutdown.NewManager(appLogger, shutdown.DefaultTimeout)
	shutdownMgr.Register("application", application)
	shutdownMgr.Listen(shutdownMgr.Context())

	if err := application.Run(); err != nil {
		log.Fatalf("Application execution failed: %v", err)
	}

	shutdownMgr.Shutdown()
	appLogger.Info("Main", "application terminated", nil)
}
