package metadata

import (
	"errors"
	"fmt"

	"github.com/ironsheep/ballot-interpreter/internal/coding"
)

type checksumRange struct{}

func (checksumRange) Name() string { return "checksum" }
func (checksumRange) Min() uint64  { return 0 }
func (checksumRange) Max() uint64  { return 3 }

type batchOrPrecinctRange struct{}

func (batchOrPrecinctRange) Name() string { return "batch or precinct number" }
func (batchOrPrecinctRange) Min() uint64  { return 0 }
func (batchOrPrecinctRange) Max() uint64  { return 1<<13 - 1 }

type cardNumberRange struct{}

func (cardNumberRange) Name() string { return "card number" }
func (cardNumberRange) Min() uint64  { return 0 }
func (cardNumberRange) Max() uint64  { return 1<<13 - 1 }

type sequenceNumberRange struct{}

func (sequenceNumberRange) Name() string { return "sequence number" }
func (sequenceNumberRange) Min() uint64  { return 0 }
func (sequenceNumberRange) Max() uint64  { return 7 }

type startBitRange struct{}

func (startBitRange) Name() string { return "start bit" }
func (startBitRange) Min() uint64  { return 0 }
func (startBitRange) Max() uint64  { return 1 }

// Field widths derived from their ranges.
type (
	Checksum        = coding.Int[checksumRange]
	BatchOrPrecinct = coding.Int[batchOrPrecinctRange]
	CardNumber      = coding.Int[cardNumberRange]
	SequenceNumber  = coding.Int[sequenceNumberRange]
	StartBit        = coding.Int[startBitRange]
)

// Front is the record on the bottom border of a front page.
type Front struct {
	Bits             []bool          `json:"bits"`
	Checksum         Checksum        `json:"mod4_checksum"`
	ComputedChecksum uint8           `json:"computed_mod4_checksum"`
	BatchOrPrecinct  BatchOrPrecinct `json:"batch_or_precinct_number"`
	CardNumber       CardNumber      `json:"card_number"`
	SequenceNumber   SequenceNumber  `json:"sequence_number"`
	StartBit         StartBit        `json:"start_bit"`
}

// ComputeChecksum is the count of set payload bits (everything after the
// checksum field) modulo 4.
func ComputeChecksum(record []bool) uint8 {
	n := coding.Bits[checksumRange]()
	var ones uint64
	for i := int(n); i < len(record); i++ {
		if record[i] {
			ones++
		}
	}
	return uint8(ones % 4)
}

// DecodeFront reads a front-page record. A checksum mismatch does not fail
// decoding; use Validate to inspect it.
func DecodeFront(record []bool) (*Front, error) {
	if len(record) != RecordBits {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidBitCount, len(record), RecordBits)
	}
	r := coding.NewFieldReader(record)

	checksum, err := coding.Decode[checksumRange](r)
	if err != nil {
		return nil, err
	}
	batch, err := coding.Decode[batchOrPrecinctRange](r)
	if err != nil {
		return nil, err
	}
	card, err := coding.Decode[cardNumberRange](r)
	if err != nil {
		return nil, err
	}
	seq, err := coding.Decode[sequenceNumberRange](r)
	if err != nil {
		return nil, err
	}
	start, err := coding.Decode[startBitRange](r)
	if err != nil {
		return nil, err
	}

	bitsCopy := make([]bool, len(record))
	copy(bitsCopy, record)
	return &Front{
		Bits:             bitsCopy,
		Checksum:         checksum,
		ComputedChecksum: ComputeChecksum(record),
		BatchOrPrecinct:  batch,
		CardNumber:       card,
		SequenceNumber:   seq,
		StartBit:         start,
	}, nil
}

// NewFront builds a well-formed front record: sequence 0, start bit 1 and
// a correct checksum.
func NewFront(batchOrPrecinct, cardNumber uint64) (*Front, error) {
	batch, err := coding.Checked[batchOrPrecinctRange](batchOrPrecinct)
	if err != nil {
		return nil, err
	}
	card, err := coding.Checked[cardNumberRange](cardNumber)
	if err != nil {
		return nil, err
	}
	f := &Front{
		BatchOrPrecinct: batch,
		CardNumber:      card,
		SequenceNumber:  coding.NewUnchecked[sequenceNumberRange](0),
		StartBit:        coding.NewUnchecked[startBitRange](1),
	}
	record, err := f.encodeBits()
	if err != nil {
		return nil, err
	}
	sum := ComputeChecksum(record)
	f.Checksum = coding.NewUnchecked[checksumRange](uint64(sum))
	f.ComputedChecksum = sum
	f.Bits, err = f.encodeBits()
	return f, err
}

// Encode writes the record fields in order.
func (f *Front) Encode(dst coding.Sink) error {
	for _, enc := range []coding.Encoder{f.Checksum, f.BatchOrPrecinct, f.CardNumber, f.SequenceNumber, f.StartBit} {
		if err := enc.Encode(dst); err != nil {
			return err
		}
	}
	return nil
}

func (f *Front) encodeBits() ([]bool, error) {
	var w coding.FieldWriter
	if err := f.Encode(&w); err != nil {
		return nil, err
	}
	return w.Bits(), nil
}

// EncodeBits returns the 32 record bits.
func (f *Front) EncodeBits() ([]bool, error) {
	return f.encodeBits()
}

// ChecksumValid reports whether the declared and computed checksums agree.
func (f *Front) ChecksumValid() bool {
	return uint8(f.Checksum.Value()) == f.ComputedChecksum
}

// Validate reports every plausibility problem with the record, or nil.
func (f *Front) Validate() error {
	var errs []error
	if !f.ChecksumValid() {
		errs = append(errs, fmt.Errorf("%w: declared %d, computed %d", ErrChecksumMismatch, f.Checksum.Value(), f.ComputedChecksum))
	}
	if f.SequenceNumber.Value() != 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrUnexpectedSequenceNumber, f.SequenceNumber.Value()))
	}
	if f.StartBit.Value() != 1 {
		errs = append(errs, ErrMissingStartBit)
	}
	return errors.Join(errs...)
}
