// ring.go
//
// One-to-many broadcast ring: a single producer frames variable-length
// records into a power-of-two byte region and any number of chained
// consumers drain the same stream.  Consumer 0 is gated by the producer,
// consumer i by consumer i-1, and the producer by the last consumer, so
// backpressure cascades from the slowest reader without locks or CAS.
//
// Record layout (native endian):
//
//	+0  int32 payload length (0 marks the end of a lap: "sentinel")
//	+4  int32 message type id
//	+8  payload
//	    zero padding up to align(8 + length + slack, 64)
//
// Every cross-thread hand-off is a release store of a position word
// matched by an acquire load; payload bytes ride on those edges.

package ring

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"onetomany/constants"
	"onetomany/region"
)

var (
	// ErrPowSize reports a capacity exponent outside [MinPowSize, MaxPowSize].
	ErrPowSize = errors.New("ring: pow size out of range")

	// ErrConsumerCount reports a ring built without consumers.
	ErrConsumerCount = errors.New("ring: consumer count must be at least 1")

	// ErrRecordSlack reports a negative slack option.
	ErrRecordSlack = errors.New("ring: record slack must not be negative")

	// ErrMessageTooLarge is raised (via panic) by Write when the aligned
	// record would exceed MaxRecordLength.
	ErrMessageTooLarge = errors.New("ring: encoded message exceeds max record length")

	// ErrEmptyMessage is raised (via panic) by Write for zero-length
	// payloads, which would be indistinguishable from a lap sentinel.
	ErrEmptyMessage = errors.New("ring: empty message")
)

// Handler receives one record.  buf is the ring's region; the payload is
// buf.Bytes(index, length) and is only valid for the duration of the call.
// Returning false leaves the record in place for redelivery.
type Handler func(msgTypeID int32, buf *region.Region, index, length int) bool

// Option tunes a Ring at construction.
type Option func(*Ring)

// WithRecordSlack overrides the per-record headroom added before
// alignment.  Rings sharing a region must agree on it.
func WithRecordSlack(bytes int) Option {
	return func(r *Ring) { r.slack = bytes }
}

// Ring is the broadcast engine.  Write must only ever be called from one
// goroutine at a time; each consumer index must only be driven by one
// goroutine at a time.
type Ring struct {
	buf      *region.Region
	pointers *PointerTable

	capacity        int
	mask            int
	maxRecordLength int
	slack           int
	consumers       int
	lastConsumer    int
}

// New builds a ring of 2^powSize bytes with consumerCount chained
// consumers.
func New(powSize, consumerCount int, opts ...Option) (*Ring, error) {
	if maxPow := maxPowSize(strconv.IntSize); powSize < constants.MinPowSize || powSize > maxPow {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]",
			ErrPowSize, powSize, constants.MinPowSize, maxPow)
	}
	if consumerCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrConsumerCount, consumerCount)
	}

	capacity := 1 << powSize
	r := &Ring{
		capacity:        capacity,
		mask:            capacity - 1,
		maxRecordLength: capacity >> constants.MaxRecordShift,
		slack:           constants.RecordSlack,
		consumers:       consumerCount,
		lastConsumer:    consumerCount - 1,
	}
	for _, o := range opts {
		o(r)
	}
	if r.slack < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrRecordSlack, r.slack)
	}

	r.buf = region.New(capacity)
	r.pointers = NewPointerTable(consumerCount)
	return r, nil
}

// maxPowSize caps the exponent so 1<<powSize stays a positive int on a
// platform whose int is intBits wide.
func maxPowSize(intBits int) int {
	return min(constants.MaxPowSize, intBits-2)
}

// MustNew is New that panics on invalid arguments.
func MustNew(powSize, consumerCount int, opts ...Option) *Ring {
	r, err := New(powSize, consumerCount, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Capacity returns the region size in bytes.
func (r *Ring) Capacity() int { return r.capacity }

// MaxRecordLength returns the largest aligned record admitted (capacity/8).
func (r *Ring) MaxRecordLength() int { return r.maxRecordLength }

// MaxPayloadLength returns the largest payload whose record still fits.
func (r *Ring) MaxPayloadLength() int {
	return r.maxRecordLength - constants.HeaderLength - r.slack
}

// ConsumerCount returns the number of chained consumers.
func (r *Ring) ConsumerCount() int { return r.consumers }

// Region exposes the backing region.
func (r *Ring) Region() *region.Region { return r.buf }

// RecordLength returns the aligned footprint of a payload of n bytes.
//
//go:nosplit
func (r *Ring) RecordLength(n int) int {
	return align(n+constants.HeaderLength+r.slack, constants.Alignment)
}

// CheckLength validates a payload length against the ring's limits
// without touching any state.
func (r *Ring) CheckLength(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: length=%d", ErrEmptyMessage, n)
	}
	if l := r.RecordLength(n); l > r.maxRecordLength {
		return fmt.Errorf("%w: maxRecordLength=%d, length=%d", ErrMessageTooLarge, r.maxRecordLength, l)
	}
	return nil
}

// ═══════════════════════════════ PRODUCER ═══════════════════════════════

// Write frames payload under msgTypeID and publishes it to every
// consumer.  It returns false when the slowest consumer has not freed
// enough space; the caller may retry.  Oversized or empty payloads are
// caller defects and panic with an error wrapping ErrMessageTooLarge or
// ErrEmptyMessage before any state changes.
func (r *Ring) Write(msgTypeID int32, payload []byte) bool {
	length := len(payload)
	if err := r.CheckLength(length); err != nil {
		panic(err)
	}
	recordLength := r.RecordLength(length)

	// [1] acquire: consumer positions read below are at least as fresh as
	// anything they published before our last release.
	producer := r.pointers.Load(0)

	// Only the tail gates the producer.  The first consumer is never read
	// here: consumers may cross a sentinel between two loads, so a stale
	// first paired with a fresh last would be a view that never existed.
	last := r.pointers.Load(r.consumers)

	producerOffset := int(producer.Offset())
	lastOffset := int(last.Offset())
	expectedEnd := producerOffset + recordLength - 1

	start := producerOffset
	wrapped := false

	if producer.SameCircle(last) {
		// C2 . . C1 . . P . . x
		if expectedEnd >= r.capacity {
			// record would cross the end: restart at 0 if the slowest
			// consumer has already moved past its footprint there
			if lastOffset <= recordLength-1 {
				return false
			}
			start = 0
			wrapped = true
		}
	} else if expectedEnd >= lastOffset {
		// . C1 . P . . . C2 . . x: producer is a lap ahead of the tail
		return false
	}

	r.buf.PutBytes(start+constants.HeaderLength, payload)
	r.buf.PutInt32(start+constants.LengthOffset, int32(length))
	r.buf.PutInt32(start+constants.TypeOffset, msgTypeID)

	next := (start + recordLength) & r.mask
	flip := producer.Flip() != (wrapped || next == 0)

	// [2] release: publishes the record bytes above.
	r.pointers.Store(0, Position(Encode(uint32(next), flip)))
	return true
}

// ═══════════════════════════════ CONSUMERS ══════════════════════════════

// Read drains consumer until no record is available or the handler
// declines one, returning the number delivered.
func (r *Ring) Read(consumer int, h Handler) int {
	return r.ReadLimit(consumer, h, math.MaxInt)
}

// ReadLimit is Read capped at limit deliveries.
func (r *Ring) ReadLimit(consumer int, h Handler, limit int) int {
	for i := 0; i < limit; i++ {
		if !r.ReadOne(consumer, h) {
			return i
		}
	}
	if limit < 0 {
		return 0
	}
	return limit
}

// ReadOne delivers at most one record to h for the given consumer index.
// It returns true only when a record was delivered and committed.
func (r *Ring) ReadOne(consumer int, h Handler) bool {
	if uint(consumer) >= uint(r.consumers) {
		panic(fmt.Sprintf("ring: consumer index %d out of range [0, %d)", consumer, r.consumers))
	}
	own := consumer + 1
	barrierSlot := consumer // producer for consumer 0, else the predecessor

	for {
		// [1] acquire: everything the barrier published is visible below.
		barrier := r.pointers.Load(barrierSlot)
		current := r.pointers.Load(own)

		offset := int(current.Offset())
		sameCircle := current.SameCircle(barrier)
		if sameCircle && offset >= int(barrier.Offset()) {
			return false
		}

		length := int(r.buf.GetInt32(offset + constants.LengthOffset))
		if length == 0 {
			// sentinel: the producer wrapped without room here
			if sameCircle {
				return false
			}
			r.buf.Zero(offset, r.capacity-offset)
			r.pointers.Store(own, Position(Encode(0, !current.Flip())))
			continue
		}

		msgTypeID := r.buf.GetInt32(offset + constants.TypeOffset)
		if !h(msgTypeID, r.buf, offset+constants.HeaderLength, length) {
			return false
		}

		recordLength := r.RecordLength(length)
		if consumer == r.lastConsumer {
			// only the tail frees the slot for the producer
			r.buf.Zero(offset, recordLength)
		}

		next := (offset + recordLength) & r.mask
		flip := current.Flip() != (next == 0)

		// [2] release: our reads (and zeroing) happen-before any successor
		// or the producer observing the new position.
		r.pointers.Store(own, Position(Encode(uint32(next), flip)))
		return true
	}
}

// ═══════════════════════════════ DIAGNOSTICS ════════════════════════════

// Cursor is a decoded position.
type Cursor struct {
	Offset uint32 `json:"offset"`
	Flip   bool   `json:"flip"`
}

// State is a point-in-time dump of every position.  Each word is loaded
// atomically but the set is not a consistent cut.
type State struct {
	Capacity  int      `json:"capacity"`
	Producer  Cursor   `json:"producer"`
	Consumers []Cursor `json:"consumers"`
}

// Snapshot returns the current positions for debugging.
func (r *Ring) Snapshot() State {
	s := State{Capacity: r.capacity, Consumers: make([]Cursor, r.consumers)}
	off, flip := Decode(uint64(r.pointers.Load(0)))
	s.Producer = Cursor{Offset: off, Flip: flip}
	for i := range s.Consumers {
		off, flip = Decode(uint64(r.pointers.Load(i + 1)))
		s.Consumers[i] = Cursor{Offset: off, Flip: flip}
	}
	return s
}

// align rounds value up to the next multiple of alignment (a power of two).
//
//go:nosplit
//go:inline
func align(value, alignment int) int {
	return (value + alignment - 1) &^ (alignment - 1)
}
