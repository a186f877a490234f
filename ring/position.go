// position.go
//
// Position words pack a byte offset and a lap-parity bit into one uint64:
//
//	bits 63..32  offset (uint32)
//	bit  0       flip, toggled every time the pointer wraps to offset 0
//
// Offsets of two positions are directly comparable only when their flip
// bits match ("same circle").  With mismatched bits the one whose parity
// lags is behind by less than a full lap.

package ring

// Position is a decoded-on-demand position word.
type Position uint64

// Encode packs offset and flip into a position word.
//
//go:nosplit
//go:inline
func Encode(offset uint32, flip bool) uint64 {
	w := uint64(offset) << 32
	if flip {
		w |= 1
	}
	return w
}

// Decode unpacks a position word.
//
//go:nosplit
//go:inline
func Decode(word uint64) (offset uint32, flip bool) {
	return uint32(word >> 32), word&1 == 1
}

// Offset returns the byte offset of p.
func (p Position) Offset() uint32 { return uint32(p >> 32) }

// Flip returns the lap-parity bit of p.
func (p Position) Flip() bool { return p&1 == 1 }

// SameCircle reports whether p and q are on the same lap parity.
func (p Position) SameCircle(q Position) bool { return (p^q)&1 == 0 }
