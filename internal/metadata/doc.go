// Package metadata encodes and decodes the records a ballot page carries
// alongside its votes.
//
// Timing-mark ballots carry a 32-bit record in the bottom border: the front
// page holds a checksum, batch/precinct number, card number, sequence number
// and start bit; the back page holds the election date, election type and a
// fixed ender code. Each field's lowest-indexed bit is its least
// significant, and bit 0 is the rightmost interior bottom mark.
//
// Ballots printed with a QR code carry a byte-aligned, big-endian record
// with a ballot hash, precinct and ballot style indexes, page number, test
// flag, ballot type and optional audit ID.
package metadata
