// Package segmentation provides the mask strategies the pipeline can run.
package segmentation

import (
	"fmt"

	"nobg/internal/config"
	"nobg/internal/logger"
	"nobg/internal/opencv"
	"nobg/internal/pipeline"
	"nobg/internal/segmentation/rembg"
)

const (
	StrategyPlaceholder = "placeholder"
	StrategyDelegated   = "delegated"
	StrategyGrabCut     = opencv.StrategyName
)

// Strategies lists every name New accepts.
func Strategies() []string {
	return []string{StrategyPlaceholder, StrategyDelegated, StrategyGrabCut}
}

// New builds the segmenter selected by cfg.Strategy.
func New(cfg config.SegmentationConfig, log logger.Logger) (pipeline.Segmenter, error) {
	if log == nil {
		log = logger.NoOpLogger{}
	}

	var seg pipeline.Segmenter
	switch cfg.Strategy {
	case "", StrategyPlaceholder:
		seg = Placeholder{}
	case StrategyDelegated:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("%s strategy needs an endpoint", StrategyDelegated)
		}
		client := rembg.NewClient(rembg.Options{
			Endpoint:  cfg.Endpoint,
			FormField: cfg.FormField,
			APIKey:    cfg.APIKey,
			Timeout:   cfg.Timeout,
		})
		seg = NewDelegated(client, log)
	case StrategyGrabCut:
		seg = opencv.NewGrabCut(cfg.GrabCutIterations, cfg.GrabCutBorder, log)
	default:
		return nil, fmt.Errorf("unknown segmentation strategy %q", cfg.Strategy)
	}

	log.Info("Segmentation", "segmentation strategy selected", map[string]interface{}{
		"strategy": seg.Name(),
		"endpoint": endpointField(cfg),
	})

	return seg, nil
}

func endpointField(cfg config.SegmentationConfig) string {
	if cfg.Strategy != StrategyDelegated {
		return ""
	}
	return cfg.Endpoint
}
