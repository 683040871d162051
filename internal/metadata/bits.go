package metadata

import "fmt"

const (
	// BorderMarkCount is the number of bottom-border mark positions on a
	// timing-mark ballot.
	BorderMarkCount = 34

	// RecordBits is the width of a front or back record.
	RecordBits = 32
)

// BitsFromBottomMarks converts the presence of each bottom-border mark, left
// to right, into record bits. The outermost marks frame the record and must
// be present; the 32 interior positions are read right to left.
func BitsFromBottomMarks(present []bool) ([]bool, error) {
	if len(present) != BorderMarkCount {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidTimingMarkCount, len(present), BorderMarkCount)
	}
	if !present[0] || !present[len(present)-1] {
		return nil, ErrMissingBoundaryMark
	}
	bits := make([]bool, RecordBits)
	for i := range bits {
		bits[i] = present[RecordBits-i]
	}
	return bits, nil
}

// BottomMarksFromBits is the inverse of BitsFromBottomMarks.
func BottomMarksFromBits(bits []bool) ([]bool, error) {
	if len(bits) != RecordBits {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidBitCount, len(bits), RecordBits)
	}
	present := make([]bool, BorderMarkCount)
	present[0] = true
	present[BorderMarkCount-1] = true
	for i, b := range bits {
		present[RecordBits-i] = b
	}
	return present, nil
}
