// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: harness.go — Producer/consumer pipeline runs over one ring
//
// Purpose:
//   - Drives one producer and N pinned consumers for a fixed message count.
//   - Every consumer verifies digest and strict sequence order per record.
//
// Notes:
//   - Payload: [0:8] little-endian sequence, Mix64 filler, [n-32:n] SHA3-256 of the
//     preceding bytes.  Type id carries the low 31 bits of the sequence.
//   - Scenarios follow the reference plans: unicast (1P1C) and pipeline (1P3C).
//
// ⚠️ Hashing dominates per-record cost; throughput here is a correctness
//    workload figure, not a raw ring latency figure (see ring benchmarks).
// ─────────────────────────────────────────────────────────────────────────────

package harness

import (
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/sha3"

	"onetomany/consumer"
	"onetomany/constants"
	"onetomany/control"
	"onetomany/debug"
	"onetomany/region"
	"onetomany/ring"
	"onetomany/utils"
)

const (
	// ScenarioUnicast is one producer feeding one consumer.
	ScenarioUnicast = "unicast"
	// ScenarioPipeline is one producer feeding three chained consumers.
	ScenarioPipeline = "pipeline"

	seqLength    = 8
	digestLength = 32

	// MinPayloadSize fits a sequence number and a digest.
	MinPayloadSize = seqLength + digestLength

	ctxCheckMask = 1<<10 - 1
)

var (
	// ErrScenario reports an unknown scenario name.
	ErrScenario = errors.New("harness: unknown scenario")

	// ErrPayloadSize reports a payload that cannot carry the record format or
	// does not fit the ring.
	ErrPayloadSize = errors.New("harness: invalid payload size")

	// ErrMessages reports a non-positive message count.
	ErrMessages = errors.New("harness: message count must be positive")
)

// Config describes one run.  Zero fields take the defaults from constants.
type Config struct {
	Scenario    string
	PowSize     int
	Consumers   int // 0: 1 for unicast, 3 for pipeline
	Messages    int
	PayloadSize int
	Slack       int // 0: ring default; negative: no slack
	Pin         bool
}

// Report is the outcome of a run.
type Report struct {
	Scenario     string        `json:"scenario"`
	PowSize      int           `json:"pow_size"`
	Consumers    int           `json:"consumers"`
	Messages     int           `json:"messages"`
	PayloadSize  int           `json:"payload_size"`
	RecordLength int           `json:"record_length"`
	StartedAt    time.Time     `json:"started_at"`
	Elapsed      time.Duration `json:"elapsed_ns"`
	MsgsPerSec   float64       `json:"msgs_per_sec"`
	MBPerSec     float64       `json:"mb_per_sec"`
	WriteRetries int64         `json:"write_retries"`
	Delivered    []int64       `json:"delivered"`
	Corrupt      []int64       `json:"corrupt"`
	OutOfOrder   []int64       `json:"out_of_order"`
}

// OK reports whether every consumer received every record intact and in order.
func (r *Report) OK() bool {
	for i := range r.Delivered {
		if r.Delivered[i] != int64(r.Messages) || r.Corrupt[i] != 0 || r.OutOfOrder[i] != 0 {
			return false
		}
	}
	return true
}

// withDefaults fills zero fields and validates the result.
func (c Config) withDefaults() (Config, error) {
	if c.Scenario == "" {
		c.Scenario = ScenarioUnicast
	}
	switch c.Scenario {
	case ScenarioUnicast:
		if c.Consumers == 0 {
			c.Consumers = 1
		}
	case ScenarioPipeline:
		if c.Consumers == 0 {
			c.Consumers = 3
		}
	default:
		return c, fmt.Errorf("%w: %q", ErrScenario, c.Scenario)
	}
	if c.PowSize == 0 {
		c.PowSize = constants.DefaultPowSize
	}
	if c.Messages == 0 {
		c.Messages = constants.DefaultMessages
	}
	if c.Messages < 0 {
		return c, fmt.Errorf("%w: got %d", ErrMessages, c.Messages)
	}
	if c.PayloadSize == 0 {
		c.PayloadSize = constants.DefaultPayloadSize
	}
	if c.PayloadSize < MinPayloadSize {
		return c, fmt.Errorf("%w: %d < %d", ErrPayloadSize, c.PayloadSize, MinPayloadSize)
	}
	return c, nil
}

// Run executes cfg to completion or until ctx is done.  On cancellation the
// partial report is returned with ctx's error.
func Run(ctx context.Context, cfg Config) (Report, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return Report{}, err
	}

	slack := cfg.Slack
	switch {
	case slack == 0:
		slack = constants.RecordSlack
	case slack < 0:
		slack = 0
	}
	r, err := ring.New(cfg.PowSize, cfg.Consumers, ring.WithRecordSlack(slack))
	if err != nil {
		return Report{}, err
	}
	if err := r.CheckLength(cfg.PayloadSize); err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrPayloadSize, err)
	}

	rep := Report{
		Scenario:     cfg.Scenario,
		PowSize:      cfg.PowSize,
		Consumers:    cfg.Consumers,
		Messages:     cfg.Messages,
		PayloadSize:  cfg.PayloadSize,
		RecordLength: r.RecordLength(cfg.PayloadSize),
		Delivered:    make([]int64, cfg.Consumers),
		Corrupt:      make([]int64, cfg.Consumers),
		OutOfOrder:   make([]int64, cfg.Consumers),
	}

	sw := control.New()
	verifiers := make([]*verifier, cfg.Consumers)
	for c := range verifiers {
		verifiers[c] = &verifier{}
		core := -1
		if cfg.Pin {
			core = (c + 1) % runtime.NumCPU() // core 0 stays with the producer
		}
		consumer.PinnedConsumer(core, r, c, sw, verifiers[c].handle, nil)
	}
	debug.DropMessage("harness", cfg.Scenario+" started")

	rep.StartedAt = time.Now()
	retries, runErr := produce(ctx, r, sw, cfg)
	if runErr == nil {
		runErr = awaitTail(ctx, verifiers[len(verifiers)-1], int64(cfg.Messages))
	}
	rep.Elapsed = time.Since(rep.StartedAt)
	sw.ShutdownAndWait()

	rep.WriteRetries = retries
	for c, v := range verifiers {
		rep.Delivered[c] = v.delivered.Load()
		rep.Corrupt[c] = v.corrupt.Load()
		rep.OutOfOrder[c] = v.outOfOrder.Load()
	}
	if secs := rep.Elapsed.Seconds(); secs > 0 {
		rep.MsgsPerSec = float64(cfg.Messages) / secs
		rep.MBPerSec = float64(cfg.Messages) * float64(cfg.PayloadSize) / secs / (1 << 20)
	}

	if runErr != nil {
		debug.DropError("harness: "+cfg.Scenario+" aborted", runErr)
		return rep, runErr
	}
	debug.DropMessage("harness", cfg.Scenario+" finished")
	return rep, nil
}

// produce writes cfg.Messages records, spinning on a full ring.
func produce(ctx context.Context, r *ring.Ring, sw *control.Switch, cfg Config) (int64, error) {
	payload := make([]byte, cfg.PayloadSize)
	var retries int64

	for seq := uint64(0); seq < uint64(cfg.Messages); seq++ {
		if seq&ctxCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return retries, err
			}
			sw.SignalActivity()
		}
		Encode(payload, seq)
		for !r.Write(int32(seq&0x7FFF_FFFF), payload) {
			retries++
			if retries&ctxCheckMask == 0 {
				if err := ctx.Err(); err != nil {
					return retries, err
				}
			}
			runtime.Gosched()
		}
	}
	return retries, nil
}

// awaitTail waits until the last consumer of the chain has seen n records.
func awaitTail(ctx context.Context, tail *verifier, n int64) error {
	for tail.delivered.Load() < n {
		if err := ctx.Err(); err != nil {
			return err
		}
		runtime.Gosched()
	}
	return nil
}

// Encode fills payload with the record for seq.  len(payload) must be at
// least MinPayloadSize.
func Encode(payload []byte, seq uint64) {
	binary.LittleEndian.PutUint64(payload, seq)
	body := payload[:len(payload)-digestLength]
	mix := utils.Mix64(seq)
	for i := seqLength; i < len(body); i++ {
		body[i] = byte(mix >> (uint(i&7) << 3))
	}
	sum := sha3.Sum256(body)
	copy(payload[len(body):], sum[:])
}

// Verify reports whether payload is a well-formed record and returns its
// sequence number.
func Verify(payload []byte) (uint64, bool) {
	if len(payload) < MinPayloadSize {
		return 0, false
	}
	body := payload[:len(payload)-digestLength]
	sum := sha3.Sum256(body)
	if subtle.ConstantTimeCompare(sum[:], payload[len(body):]) != 1 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(payload), true
}

// verifier checks one consumer's stream.  Counters are read by the
// harness goroutine while the consumer runs.
type verifier struct {
	next       uint64
	delivered  atomic.Int64
	corrupt    atomic.Int64
	outOfOrder atomic.Int64
}

func (v *verifier) handle(msgTypeID int32, buf *region.Region, index, length int) bool {
	seq, ok := Verify(buf.Bytes(index, length))
	switch {
	case !ok:
		v.corrupt.Add(1)
	case seq != v.next || int32(seq&0x7FFF_FFFF) != msgTypeID:
		v.outOfOrder.Add(1)
		v.next = seq
	}
	v.next++
	v.delivered.Add(1)
	return true
}
