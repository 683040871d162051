package metadata

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ironsheep/ballot-interpreter/internal/coding"
)

type electionDayRange struct{}

func (electionDayRange) Name() string { return "election day" }
func (electionDayRange) Min() uint64  { return 1 }
func (electionDayRange) Max() uint64  { return 31 }

type electionMonthRange struct{}

func (electionMonthRange) Name() string { return "election month" }
func (electionMonthRange) Min() uint64  { return 1 }
func (electionMonthRange) Max() uint64  { return 12 }

type electionYearRange struct{}

func (electionYearRange) Name() string { return "election year" }
func (electionYearRange) Min() uint64  { return 0 }
func (electionYearRange) Max() uint64  { return 99 }

type electionTypeRange struct{}

func (electionTypeRange) Name() string { return "election type" }
func (electionTypeRange) Min() uint64  { return 0 }
func (electionTypeRange) Max() uint64  { return 25 }

type (
	ElectionDay   = coding.Int[electionDayRange]
	ElectionMonth = coding.Int[electionMonthRange]
	ElectionYear  = coding.Int[electionYearRange]
	ElectionType  = coding.Int[electionTypeRange]
)

// EnderCode closes every back-page record, in record bit order.
var EnderCode = [11]bool{false, true, true, true, true, false, true, true, true, true, false}

// Back is the record on the bottom border of a back page.
type Back struct {
	Bits          []bool        `json:"bits"`
	ElectionDay   ElectionDay   `json:"election_day"`
	ElectionMonth ElectionMonth `json:"election_month"`
	ElectionYear  ElectionYear  `json:"election_year"`
	ElectionType  ElectionType  `json:"-"`
	EnderCode     [11]bool      `json:"ender_code"`
}

// DecodeBack reads a back-page record. Out-of-range fields and a wrong
// ender code fail decoding.
func DecodeBack(record []bool) (*Back, error) {
	if len(record) != RecordBits {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidBitCount, len(record), RecordBits)
	}
	r := coding.NewFieldReader(record)

	day, err := coding.Decode[electionDayRange](r)
	if err != nil {
		return nil, err
	}
	month, err := coding.Decode[electionMonthRange](r)
	if err != nil {
		return nil, err
	}
	year, err := coding.Decode[electionYearRange](r)
	if err != nil {
		return nil, err
	}
	typ, err := coding.Decode[electionTypeRange](r)
	if err != nil {
		return nil, err
	}

	var ender [11]bool
	copy(ender[:], record[RecordBits-len(ender):])
	if ender != EnderCode {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidEnderCode, ender)
	}

	bitsCopy := make([]bool, len(record))
	copy(bitsCopy, record)
	return &Back{
		Bits:          bitsCopy,
		ElectionDay:   day,
		ElectionMonth: month,
		ElectionYear:  year,
		ElectionType:  typ,
		EnderCode:     ender,
	}, nil
}

// NewBack builds a back record for a date and a capital election-type letter.
func NewBack(day, month, year uint64, electionType byte) (*Back, error) {
	d, err := coding.Checked[electionDayRange](day)
	if err != nil {
		return nil, err
	}
	m, err := coding.Checked[electionMonthRange](month)
	if err != nil {
		return nil, err
	}
	y, err := coding.Checked[electionYearRange](year)
	if err != nil {
		return nil, err
	}
	if electionType < 'A' || electionType > 'Z' {
		return nil, &coding.InvalidValueError{Field: "election type", Value: uint64(electionType), Min: 'A', Max: 'Z'}
	}
	b := &Back{
		ElectionDay:   d,
		ElectionMonth: m,
		ElectionYear:  y,
		ElectionType:  coding.NewUnchecked[electionTypeRange](uint64(electionType - 'A')),
		EnderCode:     EnderCode,
	}
	var w coding.FieldWriter
	if err := b.Encode(&w); err != nil {
		return nil, err
	}
	b.Bits = w.Bits()
	return b, nil
}

// Encode writes the date, type and ender code.
func (b *Back) Encode(dst coding.Sink) error {
	for _, enc := range []coding.Encoder{b.ElectionDay, b.ElectionMonth, b.ElectionYear, b.ElectionType} {
		if err := enc.Encode(dst); err != nil {
			return err
		}
	}
	for _, bit := range b.EnderCode {
		if err := writeBool(dst, bit); err != nil {
			return err
		}
	}
	return nil
}

// EncodeBits returns the 32 record bits.
func (b *Back) EncodeBits() ([]bool, error) {
	var w coding.FieldWriter
	if err := b.Encode(&w); err != nil {
		return nil, err
	}
	return w.Bits(), nil
}

// ElectionTypeLetter maps the type index to 'A'..'Z'.
func (b *Back) ElectionTypeLetter() byte {
	return 'A' + byte(b.ElectionType.Value())
}

// ElectionDate assumes the two-digit year is in the 2000s.
func (b *Back) ElectionDate() time.Time {
	return time.Date(2000+b.ElectionYear.Int(), time.Month(b.ElectionMonth.Int()), b.ElectionDay.Int(), 0, 0, 0, 0, time.UTC)
}

type backJSON struct {
	Bits          []bool        `json:"bits"`
	ElectionDay   ElectionDay   `json:"election_day"`
	ElectionMonth ElectionMonth `json:"election_month"`
	ElectionYear  ElectionYear  `json:"election_year"`
	ElectionType  string        `json:"election_type"`
	EnderCode     [11]bool      `json:"ender_code"`
}

// MarshalJSON renders the election type as its letter.
func (b *Back) MarshalJSON() ([]byte, error) {
	return json.Marshal(backJSON{
		Bits:          b.Bits,
		ElectionDay:   b.ElectionDay,
		ElectionMonth: b.ElectionMonth,
		ElectionYear:  b.ElectionYear,
		ElectionType:  string(b.ElectionTypeLetter()),
		EnderCode:     b.EnderCode,
	})
}
