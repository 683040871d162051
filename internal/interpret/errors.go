package interpret

import (
	"errors"
	"fmt"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
)

var (
	// ErrMissingGridLayout is returned when the election has no layout for
	// the card's ballot style.
	ErrMissingGridLayout = errors.New("missing grid layout")

	// ErrMismatchedGeometry is returned when the two sides of a card were
	// scanned at different paper sizes.
	ErrMismatchedGeometry = errors.New("mismatched ballot card geometries")
)

// Stage names where a side can fail.
type Stage string

const (
	StagePrepare  Stage = "prepare"
	StageGrid     Stage = "grid"
	StageMetadata Stage = "metadata"
	StageScoring  Stage = "scoring"
)

// SideError is a failure of one side's pipeline.
type SideError struct {
	Side  ballot.Side
	Stage Stage
	Err   error
}

func (e *SideError) Error() string {
	return fmt.Sprintf("%s side: %s: %v", e.Side, e.Stage, e.Err)
}

func (e *SideError) Unwrap() error { return e.Err }
