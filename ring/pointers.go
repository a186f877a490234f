// pointers.go
//
// Producer and consumer positions, one word per cache line.
//
//	[guard] [pad|producer|pad] [pad|consumer 0|pad] … [pad|consumer n-1|pad] [guard]
//
// Each word has exactly one writer (its owner) and many readers.  All
// accesses go through sync/atomic; Go atomics are sequentially consistent,
// a superset of the acquire/release pairing the protocol relies on.

package ring

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"onetomany/constants"
)

// slot isolates one position word.  Its size is a multiple of the cache
// line and the word never shares a line with a neighbour's word.
type slot struct {
	_   cpu.CacheLinePad
	pos atomic.Uint64
	_   [constants.CacheLineSize - 8]byte
}

// PointerTable holds the producer slot followed by consumer slots.
// Index 0 is the producer; index i+1 is consumer i.
type PointerTable struct {
	slots []slot // len = entries + 2; first and last are guards
}

// NewPointerTable allocates a table for one producer and n consumers, all
// at offset 0 of lap 0.
func NewPointerTable(consumers int) *PointerTable {
	return &PointerTable{slots: make([]slot, consumers+3)}
}

// Len returns the number of live position slots (producer + consumers).
func (t *PointerTable) Len() int { return len(t.slots) - 2 }

// Load is an acquire load of slot i.
//
//go:nosplit
func (t *PointerTable) Load(i int) Position {
	return Position(t.slots[i+1].pos.Load())
}

// Store is a release store of slot i.
//
//go:nosplit
func (t *PointerTable) Store(i int, p Position) {
	t.slots[i+1].pos.Store(uint64(p))
}
