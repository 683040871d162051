package metadata

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/ironsheep/ballot-interpreter/internal/coding"
)

// Prelude starts every QR metadata record.
var Prelude = []byte("VP\x02")

// BallotHashLength is the number of hex characters of the ballot hash kept
// in the record.
const BallotHashLength = 20

type precinctIndexRange struct{}

func (precinctIndexRange) Name() string { return "precinct index" }
func (precinctIndexRange) Min() uint64  { return 0 }
func (precinctIndexRange) Max() uint64  { return 1<<13 - 1 }

type ballotStyleIndexRange struct{}

func (ballotStyleIndexRange) Name() string { return "ballot style index" }
func (ballotStyleIndexRange) Min() uint64  { return 0 }
func (ballotStyleIndexRange) Max() uint64  { return 1<<13 - 1 }

type ballotTypeRange struct{}

func (ballotTypeRange) Name() string { return "ballot type" }
func (ballotTypeRange) Min() uint64  { return 0 }
func (ballotTypeRange) Max() uint64  { return 1<<4 - 1 }

type auditIDLengthRange struct{}

func (auditIDLengthRange) Name() string { return "ballot audit id length" }
func (auditIDLengthRange) Min() uint64  { return 0 }
func (auditIDLengthRange) Max() uint64  { return 1<<8 - 1 }

type (
	PrecinctIndex    = coding.Int[precinctIndexRange]
	BallotStyleIndex = coding.Int[ballotStyleIndexRange]
)

// BallotType distinguishes how a ballot was cast.
type BallotType uint8

const (
	BallotTypePrecinct BallotType = iota
	BallotTypeAbsentee
	BallotTypeProvisional
)

func (t BallotType) String() string {
	switch t {
	case BallotTypePrecinct:
		return "precinct"
	case BallotTypeAbsentee:
		return "absentee"
	case BallotTypeProvisional:
		return "provisional"
	default:
		return fmt.Sprintf("BallotType(%d)", uint8(t))
	}
}

// MarshalText renders the name.
func (t BallotType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (t *BallotType) UnmarshalText(text []byte) error {
	v, err := ParseBallotType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseBallotType accepts the names produced by String.
func ParseBallotType(s string) (BallotType, error) {
	switch s {
	case "precinct":
		return BallotTypePrecinct, nil
	case "absentee":
		return BallotTypeAbsentee, nil
	case "provisional":
		return BallotTypeProvisional, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidBallotType, s)
	}
}

// QRMetadata identifies a printed ballot page.
type QRMetadata struct {
	BallotHash       string           `json:"ballot_hash"`
	PrecinctIndex    PrecinctIndex    `json:"precinct_index"`
	BallotStyleIndex BallotStyleIndex `json:"ballot_style_index"`
	PageNumber       PageNumber       `json:"page_number"`
	IsTestMode       bool             `json:"is_test_mode"`
	BallotType       BallotType       `json:"ballot_type"`
	BallotAuditID    *string          `json:"ballot_audit_id,omitempty"`
}

// Encode writes the record; pair with coding.EncodeToBytes for a
// byte-aligned buffer.
func (m *QRMetadata) Encode(dst coding.Sink) error {
	if len(m.BallotHash) < BallotHashLength {
		return fmt.Errorf("ballot hash must have at least %d hex characters", BallotHashLength)
	}
	hash, err := hex.DecodeString(m.BallotHash[:BallotHashLength])
	if err != nil {
		return fmt.Errorf("ballot hash: %w", err)
	}
	for _, b := range append(append([]byte{}, Prelude...), hash...) {
		if err := dst.WriteBits(uint64(b), 8); err != nil {
			return err
		}
	}
	if err := m.PrecinctIndex.Encode(dst); err != nil {
		return err
	}
	if err := m.BallotStyleIndex.Encode(dst); err != nil {
		return err
	}
	if err := m.PageNumber.Encode(dst); err != nil {
		return err
	}
	if err := writeBool(dst, m.IsTestMode); err != nil {
		return err
	}
	if m.BallotType > BallotTypeProvisional {
		return fmt.Errorf("%w: %d", ErrInvalidBallotType, m.BallotType)
	}
	if err := dst.WriteBits(uint64(m.BallotType), coding.Bits[ballotTypeRange]()); err != nil {
		return err
	}
	if err := writeBool(dst, m.BallotAuditID != nil); err != nil {
		return err
	}
	if m.BallotAuditID != nil {
		id := []byte(*m.BallotAuditID)
		length, err := coding.Checked[auditIDLengthRange](uint64(len(id)))
		if err != nil {
			return err
		}
		if err := length.Encode(dst); err != nil {
			return err
		}
		for _, b := range id {
			if err := dst.WriteBits(uint64(b), 8); err != nil {
				return err
			}
		}
	}
	return nil
}

// EncodeQRMetadata returns the byte-aligned record.
func EncodeQRMetadata(m *QRMetadata) ([]byte, error) {
	return coding.EncodeToBytes(m)
}

// DecodeQRMetadata reads a record produced by EncodeQRMetadata.
func DecodeQRMetadata(data []byte) (*QRMetadata, error) {
	r := coding.NewBitReader(data)

	prelude, err := r.ReadBytes(len(Prelude))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(prelude, Prelude) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrelude, prelude)
	}
	hash, err := r.ReadBytes(BallotHashLength / 2)
	if err != nil {
		return nil, err
	}

	m := &QRMetadata{BallotHash: hex.EncodeToString(hash)}
	if m.PrecinctIndex, err = coding.Decode[precinctIndexRange](r); err != nil {
		return nil, err
	}
	if m.BallotStyleIndex, err = coding.Decode[ballotStyleIndexRange](r); err != nil {
		return nil, err
	}
	if m.PageNumber, err = coding.Decode[pageNumberRange](r); err != nil {
		return nil, err
	}
	if m.IsTestMode, err = r.ReadBool(); err != nil {
		return nil, err
	}
	rawType, err := coding.Decode[ballotTypeRange](r)
	if err != nil {
		return nil, err
	}
	if BallotType(rawType.Value()) > BallotTypeProvisional {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBallotType, rawType.Value())
	}
	m.BallotType = BallotType(rawType.Value())

	hasAuditID, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if hasAuditID {
		length, err := coding.Decode[auditIDLengthRange](r)
		if err != nil {
			return nil, err
		}
		raw, err := r.ReadBytes(length.Int())
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(raw) {
			return nil, ErrInvalidBallotAuditID
		}
		id := string(raw)
		m.BallotAuditID = &id
	}
	return m, nil
}

// InferMissingPageMetadata describes the other side of the sheet a page
// was printed on, for when only one side's code could be read.
func InferMissingPageMetadata(detected *QRMetadata) *QRMetadata {
	inferred := *detected
	inferred.PageNumber = OppositePage(detected.PageNumber)
	if detected.BallotAuditID != nil {
		id := *detected.BallotAuditID
		inferred.BallotAuditID = &id
	}
	return &inferred
}

// ElectionIndex resolves decoded indexes to identifiers.
type ElectionIndex interface {
	PrecinctIDAt(index int) (string, int, bool)
	BallotStyleIDAt(index int) (string, int, bool)
}

// Resolve maps the record's indexes to precinct and ballot style IDs.
func (m *QRMetadata) Resolve(election ElectionIndex) (precinctID, ballotStyleID string, err error) {
	precinctID, count, ok := election.PrecinctIDAt(m.PrecinctIndex.Int())
	if !ok {
		return "", "", &IndexError{Kind: "precinct", Index: m.PrecinctIndex.Int(), Count: count}
	}
	ballotStyleID, count, ok = election.BallotStyleIDAt(m.BallotStyleIndex.Int())
	if !ok {
		return "", "", &IndexError{Kind: "ballot style", Index: m.BallotStyleIndex.Int(), Count: count}
	}
	return precinctID, ballotStyleID, nil
}

func writeBool(dst coding.Sink, b bool) error {
	v := uint64(0)
	if b {
		v = 1
	}
	return dst.WriteBits(v, 1)
}
