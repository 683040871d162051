package timingmarks

import (
	"github.com/ironsheep/ballot-interpreter/internal/debug"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/pkg/logger"
)

// Options tunes FindGrid.
type Options struct {
	// Inference fills missing side and top border marks. The bottom border
	// carries metadata and is always filled.
	Inference bool

	// MinBorderMarkRatio is the share of a border's marks that must be
	// found before the rest may be inferred.
	MinBorderMarkRatio float64

	// MinCornerMarkScore and MinCornerPaddingScore gate corner candidates.
	MinCornerMarkScore    float64
	MinCornerPaddingScore float64

	// SearchInset is how far from each image edge shapes are sought.
	SearchInset geometry.Inch

	// MaxLineAngle is how far a border may be rotated from the image axes.
	MaxLineAngle geometry.Radians

	// OutlierSigmas drops candidates whose width or height is further than
	// this many standard deviations from their border's mean.
	OutlierSigmas float64

	Logger logger.Logger
	Debug  *debug.Writer
}

// Option configures Options.
type Option func(*Options)

// DefaultOptions infers missing marks once a quarter of a border is found.
func DefaultOptions() Options {
	return Options{
		Inference:             true,
		MinBorderMarkRatio:    0.25,
		MinCornerMarkScore:    0.5,
		MinCornerPaddingScore: 0.5,
		SearchInset:           1,
		MaxLineAngle:          geometry.FromDegrees(5),
		OutlierSigmas:         4,
		Logger:                logger.Nop(),
	}
}

// WithInference enables or disables inferring missing marks.
func WithInference(enabled bool) Option {
	return func(o *Options) { o.Inference = enabled }
}

// WithMinBorderMarkRatio sets the share of marks a border needs.
func WithMinBorderMarkRatio(ratio float64) Option {
	return func(o *Options) { o.MinBorderMarkRatio = ratio }
}

// WithMinCornerScores sets the scores a corner mark needs.
func WithMinCornerScores(mark, padding float64) Option {
	return func(o *Options) {
		o.MinCornerMarkScore = mark
		o.MinCornerPaddingScore = padding
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithDebug renders each stage through w.
func WithDebug(w *debug.Writer) Option {
	return func(o *Options) { o.Debug = w }
}
