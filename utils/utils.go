package utils

import (
	"os"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// Conversion Utilities: Zero-Alloc Casts
///////////////////////////////////////////////////////////////////////////////

// S2b views a string as a read-only []byte without copying.
// ⚠️ The result must never be written to.
//
//go:nosplit
//go:inline
func S2b(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// Itoa formats a non-negative int in decimal. Negative inputs get a
// leading '-'. One allocation for the returned string.
func Itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	u := uint64(n)
	if neg {
		u = uint64(-n)
	}
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

///////////////////////////////////////////////////////////////////////////////
// Output: Unformatted Writes For Cold Paths
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg verbatim to stderr. No formatting, no allocation.
//
//go:nosplit
func PrintWarning(msg string) {
	_, _ = os.Stderr.Write(S2b(msg))
}

// PrintInfo writes msg verbatim to stdout.
//
//go:nosplit
func PrintInfo(msg string) {
	_, _ = os.Stdout.Write(S2b(msg))
}

///////////////////////////////////////////////////////////////////////////////
// Hash & Mixers
///////////////////////////////////////////////////////////////////////////////

// Mix64 applies a Murmur3-style avalanche to a 64-bit value.
// The harness uses it to derive deterministic payload filler from a sequence.
//
//go:nosplit
//go:inline
func Mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
