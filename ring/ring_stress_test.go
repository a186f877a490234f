// ring_stress_test.go
//
// One producer and N consumer goroutines with independent random pauses.
// Every consumer must receive every record exactly once, in order, intact.

package ring

import (
	"encoding/binary"
	"math/rand"
	"runtime"
	"sync"
	"testing"
	"time"

	"onetomany/region"
)

// stressRecord encodes seq into the first 8 bytes and repeats its low byte
// through the remainder so a torn or shifted payload is detectable.
func stressRecord(dst []byte, seq uint64) []byte {
	binary.LittleEndian.PutUint64(dst, seq)
	for i := 8; i < len(dst); i++ {
		dst[i] = byte(seq) ^ byte(i)
	}
	return dst
}

func checkRecord(p []byte, seq uint64) bool {
	if len(p) < 8 || binary.LittleEndian.Uint64(p) != seq {
		return false
	}
	for i := 8; i < len(p); i++ {
		if p[i] != byte(seq)^byte(i) {
			return false
		}
	}
	return true
}

func runStress(t *testing.T, pow, consumers, messages int, opts ...Option) {
	t.Helper()
	r := MustNew(pow, consumers, opts...)
	maxLen := r.MaxPayloadLength()

	var wg sync.WaitGroup
	counts := make([]int, consumers)
	corrupt := make([]int, consumers)

	for c := 0; c < consumers; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(c) + 1))
			expect := uint64(0)
			h := func(id int32, buf *region.Region, index, length int) bool {
				if uint64(id) != expect&0x7FFF_FFFF || !checkRecord(buf.Bytes(index, length), expect) {
					corrupt[c]++
				}
				expect++
				return true
			}
			for counts[c] < messages {
				counts[c] += r.ReadLimit(c, h, 1+rng.Intn(16))
				if rng.Intn(64) == 0 {
					time.Sleep(time.Duration(rng.Intn(20)) * time.Microsecond)
				} else {
					runtime.Gosched()
				}
			}
		}(c)
	}

	rng := rand.New(rand.NewSource(42))
	scratch := make([]byte, maxLen)
	for seq := uint64(0); seq < uint64(messages); {
		n := 8 + rng.Intn(maxLen-8+1)
		p := stressRecord(scratch[:n], seq)
		for !r.Write(int32(seq&0x7FFF_FFFF), p) {
			runtime.Gosched()
		}
		seq++
		if rng.Intn(128) == 0 {
			time.Sleep(time.Duration(rng.Intn(20)) * time.Microsecond)
		}
	}

	wg.Wait()
	for c := 0; c < consumers; c++ {
		if counts[c] != messages {
			t.Fatalf("consumer %d delivered %d, want %d", c, counts[c], messages)
		}
		if corrupt[c] != 0 {
			t.Fatalf("consumer %d saw %d corrupt or out-of-order records", c, corrupt[c])
		}
	}
	s := r.Snapshot()
	for c, cur := range s.Consumers {
		if cur != s.Producer {
			t.Fatalf("consumer %d ended at %+v, producer at %+v", c, cur, s.Producer)
		}
	}
}

func TestStressUnicast(t *testing.T) {
	runStress(t, 12, 1, stressMessages())
}

func TestStressPipeline(t *testing.T) {
	runStress(t, 12, 3, stressMessages())
}

// TestStressWithoutSlack runs the pipeline with zero record slack; the
// protocol must stay correct with only header and alignment.
func TestStressWithoutSlack(t *testing.T) {
	runStress(t, 10, 3, stressMessages(), WithRecordSlack(0))
}

func stressMessages() int {
	if testing.Short() {
		return 5_000
	}
	return 100_000
}
