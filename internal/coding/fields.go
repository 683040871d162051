package coding

// FieldReader reads consecutive fields from a bit sequence in which each
// field's first bit is its least significant. Timing-mark borders carry
// their metadata this way.
type FieldReader struct {
	bits []bool
	pos  int
}

// NewFieldReader reads from bits.
func NewFieldReader(bits []bool) *FieldReader {
	return &FieldReader{bits: bits}
}

// ReadBits reads the next n bits as one field.
func (r *FieldReader) ReadBits(n uint) (uint64, error) {
	if r.pos+int(n) > len(r.bits) {
		return 0, ErrUnexpectedEnd
	}
	var v uint64
	for i := 0; i < int(n); i++ {
		if r.bits[r.pos+i] {
			v |= 1 << uint(i)
		}
	}
	r.pos += int(n)
	return v, nil
}

// Remaining is the number of unread bits.
func (r *FieldReader) Remaining() int { return len(r.bits) - r.pos }

// FieldWriter is the inverse of FieldReader.
type FieldWriter struct {
	bits []bool
}

// WriteBits appends the low n bits of value, least significant first.
func (w *FieldWriter) WriteBits(value uint64, n uint) error {
	for i := uint(0); i < n; i++ {
		w.bits = append(w.bits, value>>i&1 == 1)
	}
	return nil
}

// Bits returns the written sequence.
func (w *FieldWriter) Bits() []bool {
	out := make([]bool, len(w.bits))
	copy(out, w.bits)
	return out
}
