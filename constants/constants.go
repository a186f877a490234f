// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Ring layout tunables & harness defaults
//
// Purpose:
//   - Defines the record framing constants shared by every ring instance.
//   - Holds the consumer spin tunables and the benchmark harness defaults.
//
// Notes:
//   - Record layout values are part of the in-memory format: two processes
//     sharing a region must agree on HeaderLength, Alignment and RecordSlack.
//   - Cache-line sizing follows the x86-64 convention (64 bytes).
//
// ⚠️ No runtime logic here: all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

import "time"

// ───────────────────────────── Record Framing ──────────────────────────────

const (
	// HeaderLength is the fixed record header: int32 length + int32 type id.
	HeaderLength = 8

	// LengthOffset and TypeOffset locate the header fields within a record.
	LengthOffset = 0
	TypeOffset   = 4

	// Alignment rounds every record up to a whole cache line so the tail of
	// one record never shares a line with the head of the next.
	Alignment = 64

	// RecordSlack is extra headroom added to every record before alignment.
	// Tunable per ring via ring.WithRecordSlack; 64 matches the reference layout.
	RecordSlack = 64

	// CacheLineSize is the false-sharing unit used for pointer padding.
	CacheLineSize = 64
)

// ───────────────────────────── Ring Geometry ───────────────────────────────

const (
	// MinPowSize is the smallest accepted ring: 2^10 = 1 KiB.
	MinPowSize = 10

	// MaxPowSize is the largest accepted ring: 2^31 = 2 GiB.
	// Offsets live in the upper 32 bits of a position word.
	MaxPowSize = 31

	// MaxRecordShift bounds a single record to capacity >> 3 (one eighth).
	MaxRecordShift = 3
)

// ─────────────────────────── Consumer Spinning ─────────────────────────────

const (
	// HotWindow keeps a consumer in tight polling after its last delivery.
	HotWindow = 5 * time.Second

	// SpinBudget is the number of empty polls before a cpuRelax hint.
	SpinBudget = 224

	// CooldownWindow clears the hot flag after this much producer silence.
	CooldownWindow = 1 * time.Second
)

// ─────────────────────────── Harness Defaults ──────────────────────────────

const (
	// DefaultPowSize mirrors the reference pipeline benchmark (2^18 = 256 KiB).
	DefaultPowSize = 18

	// DefaultMessages is the number of records pushed per harness run.
	DefaultMessages = 1_000_000

	// DefaultPayloadSize covers sequence number, filler and digest.
	DefaultPayloadSize = 64

	// DefaultReportPattern names JSON result files: benchmark-result.<scenario>.json
	DefaultReportPattern = "benchmark-result.%s.json"

	// DefaultHistoryDB is the SQLite file receiving run history.
	DefaultHistoryDB = "ringbench_history.db"
)
