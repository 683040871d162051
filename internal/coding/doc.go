// Package coding implements the bit-level framework used by every encoded
// ballot record: bounded integers with a derived bit width, big-endian bit
// streams over bytes, and field streams over timing-mark bit sequences.
package coding
