package coding

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/icza/bitio"
)

// Source yields unsigned fields of a given width.
type Source interface {
	ReadBits(n uint) (uint64, error)
}

// Sink accepts unsigned fields of a given width.
type Sink interface {
	WriteBits(value uint64, n uint) error
}

// BitWriter appends big-endian bit fields to a byte buffer.
type BitWriter struct {
	buf bytes.Buffer
	w   *bitio.CountWriter
}

// NewBitWriter returns an empty writer.
func NewBitWriter() *BitWriter {
	bw := &BitWriter{}
	bw.w = bitio.NewCountWriter(&bw.buf)
	return bw
}

// WriteBits writes the low n bits of value, most significant first.
func (w *BitWriter) WriteBits(value uint64, n uint) error {
	if n > 64 {
		return fmt.Errorf("write %d bits: width exceeds 64", n)
	}
	if n < 64 && value>>n != 0 {
		return fmt.Errorf("write %d bits: value %d does not fit", n, value)
	}
	return w.w.WriteBits(value, uint8(n))
}

// WriteBool writes a single bit.
func (w *BitWriter) WriteBool(b bool) error {
	return w.w.WriteBool(b)
}

// WriteBytes writes each byte as 8 bits.
func (w *BitWriter) WriteBytes(p []byte) error {
	_, err := w.w.Write(p)
	return err
}

// Len is the number of bits written so far, padding included.
func (w *BitWriter) Len() uint { return uint(w.w.BitsCount) }

// Bytes pads the stream with zeros to a whole byte and returns everything
// written. Later writes start on the next byte.
func (w *BitWriter) Bytes() []byte {
	// writes into a bytes.Buffer never fail
	_, _ = w.w.Align()
	return bytes.Clone(w.buf.Bytes())
}

// BitReader reads big-endian bit fields from a byte slice.
type BitReader struct {
	r    *bitio.CountReader
	size uint
}

// NewBitReader reads from data.
func NewBitReader(data []byte) *BitReader {
	return &BitReader{
		r:    bitio.NewCountReader(bytes.NewReader(data)),
		size: uint(len(data)) * 8,
	}
}

// ReadBits reads n bits, most significant first.
func (r *BitReader) ReadBits(n uint) (uint64, error) {
	if n > 64 {
		return 0, fmt.Errorf("read %d bits: width exceeds 64", n)
	}
	if n > r.Remaining() {
		return 0, ErrUnexpectedEnd
	}
	if n == 0 {
		return 0, nil
	}
	v, err := r.r.ReadBits(uint8(n))
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, ErrUnexpectedEnd
	}
	return v, err
}

// ReadBool reads one bit.
func (r *BitReader) ReadBool() (bool, error) {
	if r.Remaining() == 0 {
		return false, ErrUnexpectedEnd
	}
	return r.r.ReadBool()
}

// ReadBytes reads n whole bytes, not necessarily aligned.
func (r *BitReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || uint(n)*8 > r.Remaining() {
		return nil, ErrUnexpectedEnd
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r.r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Remaining is the number of unread bits.
func (r *BitReader) Remaining() uint {
	return r.size - uint(r.r.BitsCount)
}

// Encoder is a record that writes itself to a bit sink.
type Encoder interface {
	Encode(dst Sink) error
}

// EncodeToBytes encodes e and pads the result to a whole number of bytes.
func EncodeToBytes(e Encoder) ([]byte, error) {
	w := NewBitWriter()
	if err := e.Encode(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
