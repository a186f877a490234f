// region.go
//
// Fixed-size byte region backing a ring.  The storage is allocated as a
// []uint64 so every 8-byte aligned offset is a legal target for 64-bit
// atomics on all Go platforms, then viewed as bytes for framing.
//
// Two access classes:
//   • plain get/put and bulk copy/zero: visibility is piggy-backed on an
//     acquire/release pair on some coordination word elsewhere;
//   • acquire/release 32/64-bit get/put: for words that are themselves
//     the coordination point.

package region

import (
	"sync/atomic"
	"unsafe"
)

// Region is a contiguous byte range with indexed integer access.
// Offsets are not range-checked beyond Go's slice bounds checks.
type Region struct {
	words []uint64 // owns the aligned allocation
	buf   []byte   // byte view over words
}

// New allocates a zero-filled region of capacity bytes.  capacity must be
// a positive multiple of 8; otherwise New panics.
func New(capacity int) *Region {
	if capacity <= 0 || capacity&7 != 0 {
		panic("region: capacity must be a positive multiple of 8")
	}
	words := make([]uint64, capacity>>3)
	return &Region{
		words: words,
		buf:   unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), capacity),
	}
}

// Capacity returns the region size in bytes.
func (r *Region) Capacity() int { return len(r.buf) }

// Bytes returns a view of [index, index+length).  The view aliases the
// region and is only meaningful while the caller owns that range.
func (r *Region) Bytes(index, length int) []byte {
	return r.buf[index : index+length : index+length]
}

// ───────────────────────────── plain access ─────────────────────────────

// GetInt32 reads a native-endian int32 at index.
//
//go:nosplit
func (r *Region) GetInt32(index int) int32 {
	_ = r.buf[index+3]
	return *(*int32)(unsafe.Pointer(&r.buf[index]))
}

// PutInt32 writes a native-endian int32 at index.
//
//go:nosplit
func (r *Region) PutInt32(index int, v int32) {
	_ = r.buf[index+3]
	*(*int32)(unsafe.Pointer(&r.buf[index])) = v
}

// GetInt64 reads a native-endian int64 at index.
//
//go:nosplit
func (r *Region) GetInt64(index int) int64 {
	_ = r.buf[index+7]
	return *(*int64)(unsafe.Pointer(&r.buf[index]))
}

// PutInt64 writes a native-endian int64 at index.
//
//go:nosplit
func (r *Region) PutInt64(index int, v int64) {
	_ = r.buf[index+7]
	*(*int64)(unsafe.Pointer(&r.buf[index])) = v
}

// PutBytes copies src into the region starting at index.
func (r *Region) PutBytes(index int, src []byte) {
	copy(r.buf[index:index+len(src)], src)
}

// GetBytes copies len(dst) bytes starting at index into dst.
func (r *Region) GetBytes(index int, dst []byte) {
	copy(dst, r.buf[index:index+len(dst)])
}

// Zero clears [index, index+length).
func (r *Region) Zero(index, length int) {
	clear(r.buf[index : index+length])
}

// ─────────────────────────── ordered access ─────────────────────────────

// GetInt32Acquire is an acquire load of the int32 at index (4-aligned).
func (r *Region) GetInt32Acquire(index int) int32 {
	return atomic.LoadInt32(r.int32At(index))
}

// PutInt32Release is a release store of v at index (4-aligned).
func (r *Region) PutInt32Release(index int, v int32) {
	atomic.StoreInt32(r.int32At(index), v)
}

// GetInt64Acquire is an acquire load of the int64 at index (8-aligned).
func (r *Region) GetInt64Acquire(index int) int64 {
	return atomic.LoadInt64(r.int64At(index))
}

// PutInt64Release is a release store of v at index (8-aligned).
func (r *Region) PutInt64Release(index int, v int64) {
	atomic.StoreInt64(r.int64At(index), v)
}

func (r *Region) int32At(index int) *int32 {
	if index&3 != 0 {
		panic("region: unaligned 32-bit atomic access")
	}
	_ = r.buf[index+3]
	return (*int32)(unsafe.Pointer(&r.buf[index]))
}

func (r *Region) int64At(index int) *int64 {
	if index&7 != 0 {
		panic("region: unaligned 64-bit atomic access")
	}
	return (*int64)(unsafe.Pointer(&r.words[index>>3]))
}
