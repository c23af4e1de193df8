// Package config loads application settings from an optional YAML file and
// NOBG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	appDir    = "nobg"
	envPrefix = "NOBG"
	envConfig = "NOBG_CONFIG"
)

type Config struct {
	Log          LogConfig          `mapstructure:"log"`
	Pipeline     PipelineConfig     `mapstructure:"pipeline"`
	Segmentation SegmentationConfig `mapstructure:"segmentation"`
	Window       WindowConfig       `mapstructure:"window"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" default:"info" validate:"oneof=debug info warn warning error"`
	JSON       bool   `mapstructure:"json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" default:"10" validate:"gte=1"`
	MaxBackups int    `mapstructure:"max_backups" default:"3" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" default:"28" validate:"gte=0"`
}

// PipelineConfig controls the working resolution and output encoding.
// A zero working size disables resizing.
type PipelineConfig struct {
	WorkingWidth   int  `mapstructure:"working_width" default:"350" validate:"gte=0,lte=8192"`
	WorkingHeight  int  `mapstructure:"working_height" default:"350" validate:"gte=0,lte=8192"`
	PreserveAspect bool `mapstructure:"preserve_aspect"`
	JPEGQuality    int  `mapstructure:"jpeg_quality" default:"95" validate:"gte=1,lte=100"`
	ThumbnailSize  int  `mapstructure:"thumbnail_size" default:"350" validate:"gte=16,lte=4096"`
}

type SegmentationConfig struct {
	Strategy          string        `mapstructure:"strategy" default:"placeholder" validate:"oneof=placeholder delegated grabcut"`
	Endpoint          string        `mapstructure:"endpoint" default:"http://localhost:7000/api/remove" validate:"omitempty,url"`
	FormField         string        `mapstructure:"form_field" default:"file" validate:"required"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout" default:"60s" validate:"gt=0"`
	GrabCutIterations int           `mapstructure:"grabcut_iterations" default:"5" validate:"gte=1,lte=20"`
	GrabCutBorder     int           `mapstructure:"grabcut_border" default:"10" validate:"gte=1"`
}

type WindowConfig struct {
	Width  float32 `mapstructure:"width" default:"900" validate:"gte=400"`
	Height float32 `mapstructure:"height" default:"700" validate:"gte=300"`
}

// Loader owns the viper instance so the file can be watched after the first load.
type Loader struct {
	v         *viper.Viper
	validate  *validator.Validate
	mu        sync.Mutex
	watchOnce sync.Once
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if explicit := os.Getenv(envConfig); explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, appDir))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, validate: validator.New()}
}

// NewLoaderForFile reads only the given file.
func NewLoaderForFile(path string) *Loader {
	l := NewLoader()
	l.v.SetConfigFile(path)
	return l
}

// Load reads the config file if one exists, applies defaults and validates.
// Not finding a file on the search path is not an error; a missing explicit file is.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to set defaults: %w", err)
	}

	bindEnv(l.v, cfg)

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.validate.Struct(cfg); err != nil {
		return nil, describe(err)
	}

	if cfg.Segmentation.Strategy == "delegated" && cfg.Segmentation.Endpoint == "" {
		return nil, errors.New("invalid config: Config.Segmentation.Endpoint is required for the delegated strategy")
	}

	return cfg, nil
}

// ConfigFile returns the file viper read, or "" when running on defaults.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Watch reloads the file on every change and hands the new config to onChange.
// Invalid edits are reported through onError and the previous config stays in effect.
func (l *Loader) Watch(onChange func(*Config, fsnotify.Event), onError func(error)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}

	l.watchOnce.Do(func() {
		l.v.OnConfigChange(func(e fsnotify.Event) {
			l.mu.Lock()
			cfg, err := l.decode()
			l.mu.Unlock()

			if err != nil {
				if onError != nil {
					onError(err)
				}
				return
			}
			onChange(cfg, e)
		})
		l.v.WatchConfig()
	})
}

// bindEnv registers every key so AutomaticEnv also covers keys absent from the file.
func bindEnv(v *viper.Viper, cfg *Config) {
	keys := []string{
		"log.level", "log.json", "log.file", "log.max_size_mb", "log.max_backups", "log.max_age_days",
		"pipeline.working_width", "pipeline.working_height", "pipeline.preserve_aspect",
		"pipeline.jpeg_quality", "pipeline.thumbnail_size",
		"segmentation.strategy", "segmentation.endpoint", "segmentation.form_field",
		"segmentation.api_key", "segmentation.timeout",
		"segmentation.grabcut_iterations", "segmentation.grabcut_border",
		"window.width", "window.height",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.max_size_mb", cfg.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", cfg.Log.MaxBackups)
	v.SetDefault("log.max_age_days", cfg.Log.MaxAgeDays)
	v.SetDefault("pipeline.working_width", cfg.Pipeline.WorkingWidth)
	v.SetDefault("pipeline.working_height", cfg.Pipeline.WorkingHeight)
	v.SetDefault("pipeline.jpeg_quality", cfg.Pipeline.JPEGQuality)
	v.SetDefault("pipeline.thumbnail_size", cfg.Pipeline.ThumbnailSize)
	v.SetDefault("segmentation.strategy", cfg.Segmentation.Strategy)
	v.SetDefault("segmentation.endpoint", cfg.Segmentation.Endpoint)
	v.SetDefault("segmentation.form_field", cfg.Segmentation.FormField)
	v.SetDefault("segmentation.timeout", cfg.Segmentation.Timeout)
	v.SetDefault("segmentation.grabcut_iterations", cfg.Segmentation.GrabCutIterations)
	v.SetDefault("segmentation.grabcut_border", cfg.Segmentation.GrabCutBorder)
	v.SetDefault("window.width", cfg.Window.Width)
	v.SetDefault("window.height", cfg.Window.Height)
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", fe.Namespace(), validationMessage(fe)))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation for tag '%s'", fe.Tag())
	}
}
