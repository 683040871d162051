package coding

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidValue is returned when a decoded raw value is outside its
	// declared range.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUnexpectedEnd is returned when a stream runs out of bits.
	ErrUnexpectedEnd = errors.New("unexpected end of bit stream")
)

// InvalidValueError carries the offending value and its range.
type InvalidValueError struct {
	Field string
	Value uint64
	Min   uint64
	Max   uint64
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for %s: %d not in [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }
