package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrServe = errors.New("metrics endpoint failed")
)
