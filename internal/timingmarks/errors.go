package timingmarks

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCandidates is returned when no shape on the page could be a
	// timing mark.
	ErrNoCandidates = errors.New("no timing mark candidates found")

	// ErrMissingCorner is returned when a corner mark cannot be found.
	ErrMissingCorner = errors.New("missing corner timing mark")

	// ErrBorderMarkCount is returned when a border does not hold the
	// number of marks the geometry requires.
	ErrBorderMarkCount = errors.New("wrong number of border timing marks")
)

// CornerError names the corner that could not be found, in the frame of
// the scanned image.
type CornerError struct {
	Corner Corner
	Reason string
}

func (e *CornerError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v: %s", ErrMissingCorner, e.Corner)
	}
	return fmt.Sprintf("%v: %s: %s", ErrMissingCorner, e.Corner, e.Reason)
}

func (e *CornerError) Unwrap() error { return ErrMissingCorner }

// BorderError reports a border whose marks do not satisfy the geometry.
type BorderError struct {
	Border   Border
	Expected int
	Found    int
	Reason   string
}

func (e *BorderError) Error() string {
	msg := fmt.Sprintf("%v: %s border: expected %d, found %d", ErrBorderMarkCount, e.Border, e.Expected, e.Found)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *BorderError) Unwrap() error { return ErrBorderMarkCount }
