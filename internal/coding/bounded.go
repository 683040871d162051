package coding

import (
	"fmt"
	"math/bits"
)

// BitSize is the number of bits needed to hold every value up to max.
func BitSize(max uint64) uint {
	if max == 0 {
		return 1
	}
	return uint(bits.Len64(max))
}

// Range declares the closed interval of a bounded integer family. It is
// implemented by zero-size marker types, one per encoded field.
type Range interface {
	Name() string
	Min() uint64
	Max() uint64
}

// Int is a value of the range R. The zero value is only valid when R's
// minimum is zero; construct values through New or Decode.
type Int[R Range] struct {
	value uint64
}

// Bits is the fixed encoded width of R.
func Bits[R Range]() uint {
	var r R
	return BitSize(r.Max())
}

// New returns the value when it lies within R.
func New[R Range](value uint64) (Int[R], bool) {
	var r R
	if value < r.Min() || value > r.Max() {
		return Int[R]{}, false
	}
	return Int[R]{value: value}, true
}

// NewUnchecked wraps a value whose provenance already guarantees it lies in
// R, such as a loop index bounded by R's size. It panics otherwise.
func NewUnchecked[R Range](value uint64) Int[R] {
	v, ok := New[R](value)
	if !ok {
		var r R
		panic(fmt.Sprintf("coding: %d out of range for %s [%d, %d]", value, r.Name(), r.Min(), r.Max()))
	}
	return v
}

// Checked is New with an InvalidValueError on failure.
func Checked[R Range](value uint64) (Int[R], error) {
	v, ok := New[R](value)
	if !ok {
		var r R
		return Int[R]{}, &InvalidValueError{Field: r.Name(), Value: value, Min: r.Min(), Max: r.Max()}
	}
	return v, nil
}

// Decode reads Bits[R]() bits and validates the raw value against R.
func Decode[R Range](src Source) (Int[R], error) {
	raw, err := src.ReadBits(Bits[R]())
	if err != nil {
		var r R
		return Int[R]{}, fmt.Errorf("decode %s: %w", r.Name(), err)
	}
	return Checked[R](raw)
}

// Value returns the wrapped integer.
func (i Int[R]) Value() uint64 { return i.value }

// Int returns the wrapped integer as an int.
func (i Int[R]) Int() int { return int(i.value) }

// Encode writes exactly Bits[R]() bits.
func (i Int[R]) Encode(dst Sink) error {
	return dst.WriteBits(i.value, Bits[R]())
}

func (i Int[R]) String() string {
	return fmt.Sprintf("%d", i.value)
}

// MarshalJSON encodes the plain integer.
func (i Int[R]) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%d", i.value)), nil
}
