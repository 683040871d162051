// Package config defines the interpreter's configuration and how it is loaded.
package config

import (
	"context"
	"fmt"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// InferTimingMarks fills missing border marks by walking the grid pitch.
	InferTimingMarks bool `koanf:"infer_timing_marks"`

	// MinBorderMarkRatio is the fraction of a border's marks that must be
	// found before inference is allowed to fill the rest.
	MinBorderMarkRatio float64 `koanf:"min_border_mark_ratio"`

	// MinCornerMarkScore and MinCornerPaddingScore bound what counts as a
	// plausible corner mark.
	MinCornerMarkScore    float64 `koanf:"min_corner_mark_score"`
	MinCornerPaddingScore float64 `koanf:"min_corner_padding_score"`

	// OvalTemplatePath overrides the built-in oval template.
	OvalTemplatePath string `koanf:"oval_template_path"`

	// OvalMatchThreshold is the match score at which the oval search stops.
	OvalMatchThreshold float64 `koanf:"oval_match_threshold"`

	// OvalSearchDistance is the search radius in pixels around each oval.
	OvalSearchDistance int `koanf:"oval_search_distance"`

	// ScoreWriteIns enables write-in area scoring.
	ScoreWriteIns bool `koanf:"score_write_ins"`

	// OCREnabled reads text from marked write-in areas.
	OCREnabled  bool   `koanf:"ocr_enabled"`
	OCRLanguage string `koanf:"ocr_language"`

	// DebugDir receives stage renderings when set.
	DebugDir string `koanf:"debug_dir"`

	// StoreDriver is "sqlite" or "postgres"; StoreDSN empty disables the store.
	StoreDriver string `koanf:"store_driver"`
	StoreDSN    string `koanf:"store_dsn"`

	// MetricsNamespace prefixes every metric; MetricsAddr exposes /metrics when set.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsAddr      string `koanf:"metrics_addr"`

	// MaxWorkers bounds data-parallel fan-out.
	MaxWorkers int `koanf:"max_workers"`
}

// New creates a Config with defaults. Context is accepted first per the
// project convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		InferTimingMarks:      true,
		MinBorderMarkRatio:    0.25,
		MinCornerMarkScore:    0.5,
		MinCornerPaddingScore: 0.5,
		OvalMatchThreshold:    0.95,
		OvalSearchDistance:    2,
		ScoreWriteIns:         true,
		OCRLanguage:           "eng",
		StoreDriver:           "sqlite",
		MetricsNamespace:      "ballot",
		MaxWorkers:            runtime.NumCPU(),
	}
}

// Validate reports the first out-of-range value.
func (c *Config) Validate() error {
	switch {
	case c.MinBorderMarkRatio < 0 || c.MinBorderMarkRatio > 1:
		return fmt.Errorf("%w: min_border_mark_ratio %v not in [0, 1]", ErrInvalidConfig, c.MinBorderMarkRatio)
	case c.MinCornerMarkScore < 0 || c.MinCornerMarkScore > 1:
		return fmt.Errorf("%w: min_corner_mark_score %v not in [0, 1]", ErrInvalidConfig, c.MinCornerMarkScore)
	case c.MinCornerPaddingScore < 0 || c.MinCornerPaddingScore > 1:
		return fmt.Errorf("%w: min_corner_padding_score %v not in [0, 1]", ErrInvalidConfig, c.MinCornerPaddingScore)
	case c.OvalMatchThreshold < 0 || c.OvalMatchThreshold > 1:
		return fmt.Errorf("%w: oval_match_threshold %v not in [0, 1]", ErrInvalidConfig, c.OvalMatchThreshold)
	case c.OvalSearchDistance < 0:
		return fmt.Errorf("%w: oval_search_distance must not be negative", ErrInvalidConfig)
	case c.MaxWorkers < 1:
		return fmt.Errorf("%w: max_workers must be at least 1", ErrInvalidConfig)
	case c.StoreDriver != "sqlite" && c.StoreDriver != "postgres":
		return fmt.Errorf("%w: store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	return nil
}
