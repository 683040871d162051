package metadata

import (
	"fmt"
	"strings"

	"github.com/ironsheep/ballot-interpreter/internal/coding"
)

// WriteInAlphabet lists every character a write-in name may use, in index
// order. Indexes are written with the width of the length field, so the
// encoded width tracks MaxWriteInLength rather than the alphabet size.
const WriteInAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ '\"-.,"

// MaxWriteInLength is the longest encodable name.
const MaxWriteInLength = 40

type writeInLengthRange struct{}

func (writeInLengthRange) Name() string { return "write-in name length" }
func (writeInLengthRange) Min() uint64  { return 0 }
func (writeInLengthRange) Max() uint64  { return MaxWriteInLength }

type writeInCharRange struct{}

func (writeInCharRange) Name() string { return "write-in character" }
func (writeInCharRange) Min() uint64  { return 0 }
func (writeInCharRange) Max() uint64  { return uint64(len(WriteInAlphabet) - 1) }

// WriteInName is a name composed only of WriteInAlphabet characters.
type WriteInName struct {
	chars []coding.Int[writeInCharRange]
}

// NewWriteInName validates s.
func NewWriteInName(s string) (WriteInName, error) {
	if len(s) > MaxWriteInLength {
		return WriteInName{}, fmt.Errorf("%w: length %d exceeds %d", ErrInvalidWriteInName, len(s), MaxWriteInLength)
	}
	chars := make([]coding.Int[writeInCharRange], 0, len(s))
	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte(WriteInAlphabet, s[i])
		if idx < 0 {
			return WriteInName{}, fmt.Errorf("%w: character %q at %d", ErrInvalidWriteInName, s[i], i)
		}
		chars = append(chars, coding.NewUnchecked[writeInCharRange](uint64(idx)))
	}
	return WriteInName{chars: chars}, nil
}

// NormalizeWriteInName turns free text, such as OCR output, into the
// closest encodable name: upper case, unknown characters dropped, runs of
// spaces collapsed, truncated to MaxWriteInLength.
func NormalizeWriteInName(s string) WriteInName {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToUpper(s) {
		if r == '\n' || r == '\t' || r == '\r' {
			r = ' '
		}
		if r > 0x7f || strings.IndexRune(WriteInAlphabet, r) < 0 {
			continue
		}
		if r == ' ' {
			if lastSpace {
				continue
			}
			lastSpace = true
		} else {
			lastSpace = false
		}
		b.WriteRune(r)
	}
	out := strings.TrimRight(b.String(), " ")
	if len(out) > MaxWriteInLength {
		out = strings.TrimRight(out[:MaxWriteInLength], " ")
	}
	chars := make([]coding.Int[writeInCharRange], len(out))
	for i := 0; i < len(out); i++ {
		// every byte of out passed the alphabet filter above
		chars[i] = coding.NewUnchecked[writeInCharRange](uint64(strings.IndexByte(WriteInAlphabet, out[i])))
	}
	return WriteInName{chars: chars}
}

func (n WriteInName) String() string {
	b := make([]byte, len(n.chars))
	for i, c := range n.chars {
		b[i] = WriteInAlphabet[c.Value()]
	}
	return string(b)
}

func (n WriteInName) Len() int { return len(n.chars) }

// writeInCharBits is the width of one encoded character: the same width as
// the length field.
func writeInCharBits() uint { return coding.Bits[writeInLengthRange]() }

// Encode writes the length then one alphabet index per character.
func (n WriteInName) Encode(dst coding.Sink) error {
	length := coding.NewUnchecked[writeInLengthRange](uint64(len(n.chars)))
	if err := length.Encode(dst); err != nil {
		return err
	}
	for _, c := range n.chars {
		if err := dst.WriteBits(c.Value(), writeInCharBits()); err != nil {
			return err
		}
	}
	return nil
}

// DecodeWriteInName reads a name written by Encode.
func DecodeWriteInName(src coding.Source) (WriteInName, error) {
	length, err := coding.Decode[writeInLengthRange](src)
	if err != nil {
		return WriteInName{}, err
	}
	chars := make([]coding.Int[writeInCharRange], length.Int())
	for i := range chars {
		raw, err := src.ReadBits(writeInCharBits())
		if err != nil {
			return WriteInName{}, fmt.Errorf("decode write-in character %d: %w", i, err)
		}
		if chars[i], err = coding.Checked[writeInCharRange](raw); err != nil {
			return WriteInName{}, err
		}
	}
	return WriteInName{chars: chars}, nil
}

// MarshalText renders the name as plain text.
func (n WriteInName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}
