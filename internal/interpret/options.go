package interpret

import (
	"fmt"
	"time"

	"github.com/ironsheep/ballot-interpreter/internal/config"
	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/ocr"
	"github.com/ironsheep/ballot-interpreter/internal/scoring"
	"github.com/ironsheep/ballot-interpreter/internal/timingmarks"
	"github.com/ironsheep/ballot-interpreter/pkg/logger"
)

// Recorder receives interpretation metrics. *metrics.Manager satisfies it.
type Recorder interface {
	RecordInterpretation(result string)
	RecordSideFailure(stage string)
	ObserveStage(stage string, d time.Duration)
	AddOvalsScored(side string, n int)
	AddInferredMarks(border string, n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordInterpretation(string)        {}
func (nopRecorder) RecordSideFailure(string)           {}
func (nopRecorder) ObserveStage(string, time.Duration) {}
func (nopRecorder) AddOvalsScored(string, int)         {}
func (nopRecorder) AddInferredMarks(string, int)       {}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithElection sets the election whose grid layouts are scored. Without
// one, grids and metadata are still found but no ovals are scored.
func WithElection(e *election.Election) Option {
	return func(i *Interpreter) { i.election = e }
}

// WithBallotStyle selects the grid layout explicitly instead of by the
// front page's card number.
func WithBallotStyle(id string) Option {
	return func(i *Interpreter) { i.ballotStyleID = id }
}

// WithSheetNumber selects which sheet of a multi-sheet layout is scanned.
func WithSheetNumber(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.sheetNumber = n
		}
	}
}

// WithTimingMarkOptions passes options to grid finding.
func WithTimingMarkOptions(opts ...timingmarks.Option) Option {
	return func(i *Interpreter) { i.gridOptions = append(i.gridOptions, opts...) }
}

// WithTemplate sets the oval template. The default is drawn to the
// selected geometry's oval size.
func WithTemplate(t *scoring.Template) Option {
	return func(i *Interpreter) { i.template = t }
}

// WithScoringOptions passes options to the oval scorer.
func WithScoringOptions(opts ...scoring.Option) Option {
	return func(i *Interpreter) { i.scoringOptions = append(i.scoringOptions, opts...) }
}

// WithWriteInScoring enables scoring of write-in areas.
func WithWriteInScoring(enabled bool) Option {
	return func(i *Interpreter) { i.scoreWriteIns = enabled }
}

// WithTextReader reads text from marked write-in areas.
func WithTextReader(r scoring.TextReader) Option {
	return func(i *Interpreter) { i.textReader = r }
}

// WithDebugDir writes stage renderings for every card into dir.
func WithDebugDir(dir string) Option {
	return func(i *Interpreter) { i.debugDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(i *Interpreter) {
		if l != nil {
			i.log = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(i *Interpreter) {
		if r != nil {
			i.recorder = r
		}
	}
}

// OptionsFromConfig translates process configuration into options. The
// custom oval template, when configured, is loaded here.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	opts := []Option{
		WithTimingMarkOptions(
			timingmarks.WithInference(cfg.InferTimingMarks),
			timingmarks.WithMinBorderMarkRatio(cfg.MinBorderMarkRatio),
			timingmarks.WithMinCornerScores(cfg.MinCornerMarkScore, cfg.MinCornerPaddingScore),
		),
		WithScoringOptions(
			scoring.WithMatchThreshold(cfg.OvalMatchThreshold),
			scoring.WithSearchDistance(cfg.OvalSearchDistance),
		),
		WithWriteInScoring(cfg.ScoreWriteIns),
		WithDebugDir(cfg.DebugDir),
	}
	if cfg.OvalTemplatePath != "" {
		tpl, err := scoring.LoadTemplate(cfg.OvalTemplatePath)
		if err != nil {
			return nil, fmt.Errorf("load oval template: %w", err)
		}
		opts = append(opts, WithTemplate(tpl))
	}
	if cfg.OCREnabled {
		opts = append(opts, WithTextReader(ocr.NewReader(cfg.OCRLanguage, 0.5)))
	}
	return opts, nil
}
