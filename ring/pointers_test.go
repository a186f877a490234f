package ring

import (
	"sync"
	"testing"
	"unsafe"

	"onetomany/constants"
)

// TestSlotLayout verifies every position word sits alone in its own cache
// line: the slot is a whole number of lines and the word is preceded by at
// least one full line of padding.
func TestSlotLayout(t *testing.T) {
	var s slot
	size := unsafe.Sizeof(s)
	if size%constants.CacheLineSize != 0 {
		t.Fatalf("sizeof(slot) = %d, not a multiple of %d", size, constants.CacheLineSize)
	}
	if off := unsafe.Offsetof(s.pos); off < constants.CacheLineSize {
		t.Fatalf("pos offset = %d, want >= %d", off, constants.CacheLineSize)
	}
	if tail := size - unsafe.Offsetof(s.pos) - 8; tail < constants.CacheLineSize-8 {
		t.Fatalf("trailing pad = %d bytes", tail)
	}
}

// TestWordsDoNotShareLines checks adjacent slots' words are at least two
// cache lines apart in the backing array.
func TestWordsDoNotShareLines(t *testing.T) {
	pt := NewPointerTable(4)
	for i := 0; i < pt.Len()-1; i++ {
		a := uintptr(unsafe.Pointer(&pt.slots[i+1].pos))
		b := uintptr(unsafe.Pointer(&pt.slots[i+2].pos))
		if b-a < 2*constants.CacheLineSize {
			t.Fatalf("slots %d and %d are %d bytes apart", i, i+1, b-a)
		}
	}
}

func TestPointerTableInitialState(t *testing.T) {
	pt := NewPointerTable(3)
	if pt.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", pt.Len())
	}
	for i := 0; i < pt.Len(); i++ {
		if p := pt.Load(i); p != 0 {
			t.Fatalf("slot %d = %#x, want 0", i, uint64(p))
		}
	}
}

func TestPointerTableStoreIsolated(t *testing.T) {
	pt := NewPointerTable(2)
	pt.Store(1, Position(Encode(192, true)))
	if p := pt.Load(1); p.Offset() != 192 || !p.Flip() {
		t.Fatalf("slot 1 = (%d,%v)", p.Offset(), p.Flip())
	}
	if pt.Load(0) != 0 || pt.Load(2) != 0 {
		t.Fatal("store leaked into a neighbouring slot")
	}
	if pt.slots[0].pos.Load() != 0 || pt.slots[len(pt.slots)-1].pos.Load() != 0 {
		t.Fatal("guard slots must stay untouched")
	}
}

// TestPointerTableConcurrentOwners runs one writer per slot; each must
// read back only its own values.
func TestPointerTableConcurrentOwners(t *testing.T) {
	pt := NewPointerTable(3)
	var wg sync.WaitGroup
	for i := 0; i < pt.Len(); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for n := uint32(0); n < 10_000; n++ {
				pt.Store(i, Position(Encode(n*64+uint32(i), n&1 == 1)))
				if got := pt.Load(i).Offset(); got != n*64+uint32(i) {
					t.Errorf("slot %d: got %d", i, got)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
