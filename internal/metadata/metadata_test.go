package metadata

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/ironsheep/ballot-interpreter/internal/coding"
)

func recordWith(set ...int) []bool {
	bits := make([]bool, RecordBits)
	for _, i := range set {
		bits[i] = true
	}
	return bits
}

func TestBitsFromBottomMarks(t *testing.T) {
	present := make([]bool, BorderMarkCount)
	present[0], present[33] = true, true
	present[32] = true // rightmost interior mark is bit 0
	present[1] = true  // leftmost interior mark is bit 31

	bits, err := BitsFromBottomMarks(present)
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range bits {
		want := i == 0 || i == 31
		if b != want {
			t.Errorf("bit %d = %v, want %v", i, b, want)
		}
	}

	back, err := BottomMarksFromBits(bits)
	if err != nil {
		t.Fatal(err)
	}
	for i := range present {
		if back[i] != present[i] {
			t.Fatalf("inverse mismatch at %d", i)
		}
	}
}

func TestBitsFromBottomMarksErrors(t *testing.T) {
	if _, err := BitsFromBottomMarks(make([]bool, 33)); !errors.Is(err, ErrInvalidTimingMarkCount) {
		t.Errorf("short border: got %v", err)
	}
	present := make([]bool, BorderMarkCount)
	present[0] = true
	if _, err := BitsFromBottomMarks(present); !errors.Is(err, ErrMissingBoundaryMark) {
		t.Errorf("missing last mark: got %v", err)
	}
	if _, err := BottomMarksFromBits(make([]bool, 31)); !errors.Is(err, ErrInvalidBitCount) {
		t.Errorf("short record: got %v", err)
	}
}

func TestDecodeFrontKnownRecord(t *testing.T) {
	// batch 1 (bit 2), card 1 (bit 15), start bit 31; three payload bits
	// set so the checksum is 3 (bits 0 and 1).
	f, err := DecodeFront(recordWith(0, 1, 2, 15, 31))
	if err != nil {
		t.Fatal(err)
	}
	if f.Checksum.Value() != 3 || f.ComputedChecksum != 3 {
		t.Errorf("checksum: declared %d computed %d", f.Checksum.Value(), f.ComputedChecksum)
	}
	if f.BatchOrPrecinct.Value() != 1 || f.CardNumber.Value() != 1 {
		t.Errorf("batch %d card %d", f.BatchOrPrecinct.Value(), f.CardNumber.Value())
	}
	if f.SequenceNumber.Value() != 0 || f.StartBit.Value() != 1 {
		t.Errorf("sequence %d start %d", f.SequenceNumber.Value(), f.StartBit.Value())
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDecodeFrontChecksumMismatchIsAdvisory(t *testing.T) {
	f, err := DecodeFront(recordWith(2, 15, 31))
	if err != nil {
		t.Fatalf("decode should succeed, got %v", err)
	}
	if f.ChecksumValid() {
		t.Fatal("expected checksum mismatch")
	}
	if err := f.Validate(); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("Validate: %v", err)
	}
}

func TestFrontValidateReportsEveryProblem(t *testing.T) {
	// sequence 1 (bit 28), no start bit, and a wrong checksum
	f, err := DecodeFront(recordWith(28))
	if err != nil {
		t.Fatal(err)
	}
	err = f.Validate()
	for _, want := range []error{ErrChecksumMismatch, ErrUnexpectedSequenceNumber, ErrMissingStartBit} {
		if !errors.Is(err, want) {
			t.Errorf("Validate() = %v, missing %v", err, want)
		}
	}
}

func TestComputedChecksumIsPayloadPopcountMod4(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 200; n++ {
		record := make([]bool, RecordBits)
		ones := 0
		for i := range record {
			record[i] = rng.Intn(2) == 1
			if i >= 2 && record[i] {
				ones++
			}
		}
		f, err := DecodeFront(record)
		if err != nil {
			t.Fatal(err)
		}
		if int(f.ComputedChecksum) != ones%4 {
			t.Fatalf("computed %d, want %d", f.ComputedChecksum, ones%4)
		}
	}
}

func TestNewFrontRoundTrip(t *testing.T) {
	f, err := NewFront(1234, 56)
	if err != nil {
		t.Fatal(err)
	}
	bits, err := f.EncodeBits()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeFront(bits)
	if err != nil {
		t.Fatal(err)
	}
	if got.BatchOrPrecinct.Value() != 1234 || got.CardNumber.Value() != 56 || got.Validate() != nil {
		t.Fatalf("round trip: %+v", got)
	}

	if _, err := NewFront(1<<13, 0); !errors.Is(err, coding.ErrInvalidValue) {
		t.Fatalf("oversized precinct: %v", err)
	}
}

func TestDecodeFrontWrongLength(t *testing.T) {
	if _, err := DecodeFront(make([]bool, 31)); !errors.Is(err, ErrInvalidBitCount) {
		t.Fatalf("got %v", err)
	}
}

func TestBackRoundTrip(t *testing.T) {
	b, err := NewBack(15, 11, 24, 'G')
	if err != nil {
		t.Fatal(err)
	}
	bits, err := b.EncodeBits()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeBack(bits)
	if err != nil {
		t.Fatal(err)
	}
	if got.ElectionDay.Value() != 15 || got.ElectionMonth.Value() != 11 || got.ElectionYear.Value() != 24 {
		t.Fatalf("date fields: %+v", got)
	}
	if got.ElectionTypeLetter() != 'G' {
		t.Fatalf("type: %c", got.ElectionTypeLetter())
	}
	if want := time.Date(2024, time.November, 15, 0, 0, 0, 0, time.UTC); !got.ElectionDate().Equal(want) {
		t.Fatalf("date: %v", got.ElectionDate())
	}
}

func TestDecodeBackRejectsElectionTypeOutOfRange(t *testing.T) {
	b, err := NewBack(1, 1, 0, 'A')
	if err != nil {
		t.Fatal(err)
	}
	bits, _ := b.EncodeBits()
	// type 26 = 0b11010, least significant bit first at bit 16
	bits[16], bits[17], bits[18], bits[19], bits[20] = false, true, false, true, true

	_, err = DecodeBack(bits)
	var invalid *coding.InvalidValueError
	if !errors.As(err, &invalid) || invalid.Value != 26 {
		t.Fatalf("expected invalid value 26, got %v", err)
	}
}

func TestDecodeBackRejectsBadDateAndEnder(t *testing.T) {
	b, _ := NewBack(3, 4, 5, 'C')
	bits, _ := b.EncodeBits()

	zeroDay := append([]bool(nil), bits...)
	for i := 0; i < 5; i++ {
		zeroDay[i] = false
	}
	if _, err := DecodeBack(zeroDay); !errors.Is(err, coding.ErrInvalidValue) {
		t.Errorf("day 0: got %v", err)
	}

	badEnder := append([]bool(nil), bits...)
	badEnder[31] = !badEnder[31]
	if _, err := DecodeBack(badEnder); !errors.Is(err, ErrInvalidEnderCode) {
		t.Errorf("ender: got %v", err)
	}

	if _, err := NewBack(1, 13, 0, 'A'); !errors.Is(err, coding.ErrInvalidValue) {
		t.Errorf("month 13: got %v", err)
	}
	if _, err := NewBack(1, 1, 0, 'a'); !errors.Is(err, coding.ErrInvalidValue) {
		t.Errorf("lowercase type: got %v", err)
	}
}

func TestWriteInNameRoundTrip(t *testing.T) {
	names := []string{
		"",
		"A",
		"JOHN Q. PUBLIC",
		"O'BRIEN-SMITH, \"JR\"",
		WriteInAlphabet,
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ ABCDEFGHIJKLM",
	}
	for _, s := range names {
		name, err := NewWriteInName(s)
		if err != nil {
			t.Fatalf("NewWriteInName(%q): %v", s, err)
		}
		w := coding.NewBitWriter()
		if err := name.Encode(w); err != nil {
			t.Fatal(err)
		}
		if want := uint(6 + 6*len(s)); w.Len() != want {
			t.Errorf("%q encoded to %d bits, want %d", s, w.Len(), want)
		}
		got, err := DecodeWriteInName(coding.NewBitReader(w.Bytes()))
		if err != nil {
			t.Fatalf("decode %q: %v", s, err)
		}
		if got.String() != s {
			t.Errorf("round trip: got %q, want %q", got.String(), s)
		}
	}
}

func TestWriteInNameRejectsInvalid(t *testing.T) {
	for _, s := range []string{"john", "A!", "ÉMILE", "ABCDEFGHIJKLMNOPQRSTUVWXYZABCDEFGHIJKLMNO"} {
		if _, err := NewWriteInName(s); !errors.Is(err, ErrInvalidWriteInName) {
			t.Errorf("NewWriteInName(%q) = %v", s, err)
		}
	}
}

func TestDecodeWriteInNameRejectsLongLength(t *testing.T) {
	w := coding.NewBitWriter()
	_ = w.WriteBits(41, 6)
	if _, err := DecodeWriteInName(coding.NewBitReader(w.Bytes())); !errors.Is(err, coding.ErrInvalidValue) {
		t.Fatalf("got %v", err)
	}
}

func TestWriteInCharactersShareLengthWidth(t *testing.T) {
	name, err := NewWriteInName("AB")
	if err != nil {
		t.Fatal(err)
	}
	w := coding.NewBitWriter()
	if err := name.Encode(w); err != nil {
		t.Fatal(err)
	}
	if w.Len() != 18 {
		t.Fatalf("\"AB\" encoded to %d bits, want 18", w.Len())
	}

	// 2, 'A', 'B' as three 6-bit fields
	r := coding.NewBitReader(w.Bytes())
	for _, want := range []uint64{2, 0, 1} {
		got, err := r.ReadBits(6)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("field: got %d, want %d", got, want)
		}
	}
}

func TestDecodeWriteInNameRejectsIndexOutsideAlphabet(t *testing.T) {
	for _, idx := range []uint64{32, 40, 63} {
		w := coding.NewBitWriter()
		_ = w.WriteBits(1, 6)
		_ = w.WriteBits(idx, 6)
		_, err := DecodeWriteInName(coding.NewBitReader(w.Bytes()))
		if !errors.Is(err, coding.ErrInvalidValue) {
			t.Errorf("index %d: got %v, want ErrInvalidValue", idx, err)
		}
		var invalid *coding.InvalidValueError
		if errors.As(err, &invalid) && invalid.Value != idx {
			t.Errorf("index %d: error carries %d", idx, invalid.Value)
		}
	}
}

func TestNormalizeWriteInName(t *testing.T) {
	tests := map[string]string{
		"  john  o'neil\n": "JOHN O'NEIL",
		"Mickey Mouse!!":   "MICKEY MOUSE",
		"émile zola":       "MILE ZOLA",
		"":                 "",
		"a b c d e f g h i j k l m n o p q r s t u v": "A B C D E F G H I J K L M N O P Q R S T",
		"#$%&":               "",
		"\t\"doc\", jr.\r\n": "\"DOC\", JR.",
	}
	for in, want := range tests {
		if got := NormalizeWriteInName(in).String(); got != want {
			t.Errorf("NormalizeWriteInName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPageNumberParity(t *testing.T) {
	for n := uint64(1); n <= 30; n++ {
		p, err := NewPageNumber(n)
		if err != nil {
			t.Fatal(err)
		}
		o := OppositePage(p)
		if OppositePage(o) != p {
			t.Errorf("opposite(opposite(%d)) = %d", n, OppositePage(o).Value())
		}
		if IsRecto(p) == IsRecto(o) {
			t.Errorf("page %d and %d share a side", n, o.Value())
		}
		if SheetNumber(p) != SheetNumber(o) {
			t.Errorf("page %d sheet %d, opposite sheet %d", n, SheetNumber(p), SheetNumber(o))
		}
	}
	if _, err := NewPageNumber(0); err == nil {
		t.Error("page 0 should be invalid")
	}
	if _, err := NewPageNumber(31); err == nil {
		t.Error("page 31 should be invalid")
	}
}
