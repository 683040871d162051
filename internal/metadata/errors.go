package metadata

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimingMarkCount means the bottom border did not hold the
	// expected number of mark positions.
	ErrInvalidTimingMarkCount = errors.New("invalid timing mark count")

	// ErrMissingBoundaryMark means the first or last bottom mark is absent.
	ErrMissingBoundaryMark = errors.New("missing boundary timing mark")

	// ErrInvalidBitCount means a record was given the wrong number of bits.
	ErrInvalidBitCount = errors.New("invalid metadata bit count")

	// ErrInvalidEnderCode means the back-page ender code did not match.
	ErrInvalidEnderCode = errors.New("invalid ender code")

	// ErrChecksumMismatch means the declared front-page checksum differs
	// from the computed one.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrUnexpectedSequenceNumber means the front-page sequence is not 0.
	ErrUnexpectedSequenceNumber = errors.New("unexpected sequence number")

	// ErrMissingStartBit means the front-page start bit is not set.
	ErrMissingStartBit = errors.New("missing start bit")

	// ErrInvalidWriteInName means a name uses a character outside the
	// write-in alphabet or is too long.
	ErrInvalidWriteInName = errors.New("invalid write-in name")

	// ErrInvalidPrelude means QR data does not start with the expected prelude.
	ErrInvalidPrelude = errors.New("invalid prelude")

	// ErrInvalidBallotType means the QR ballot type is unknown.
	ErrInvalidBallotType = errors.New("invalid ballot type")

	// ErrInvalidBallotAuditID means the audit ID bytes are not UTF-8.
	ErrInvalidBallotAuditID = errors.New("invalid ballot audit id")

	// ErrInvalidIndex means a decoded index does not exist in the election.
	ErrInvalidIndex = errors.New("index out of range for election")
)

// IndexError reports a decoded index that does not exist in the election.
type IndexError struct {
	Kind  string
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("invalid %s index %d (election has %d)", e.Kind, e.Index, e.Count)
}

func (e *IndexError) Unwrap() error { return ErrInvalidIndex }
