// pinned_consumer.go
//
// Low-latency ring consumer.
//
//   • Dedicated OS thread, optionally pinned to `core` (core < 0: unpinned).
//   • Stays in **hot-spin** (tight loop, no cpuRelax) while
//       – a record was delivered within hotWindow, OR
//       – the switch's hot flag is set.
//   • Otherwise drops to the **cold-spin** path: cpuRelax every miss and a
//     scheduler yield after SpinBudget misses.
//   • On stop it performs one last drain of what is already visible, then
//     closes `done` exactly once.
//
// hot flag contract:
//     Producer                 Consumer
//     --------                 ------------------------------
//     SignalActivity ───────▶  PollCooldown (stay hot-spin)
//     ...Write records…
//     (silence > cooldown)  ◀─ PollCooldown clears hot

package consumer

import (
	"runtime"
	"time"

	"onetomany/constants"
	"onetomany/control"
	"onetomany/debug"
	"onetomany/ring"
	"onetomany/utils"
)

// hotWindow is the tight-spin grace period after the last delivery.
var hotWindow = constants.HotWindow

// PinnedConsumer drains consumer `index` of r into h until sw is stopped.
// It registers itself on sw.WG; done may be nil.
//
// The final drain only covers what this consumer's barrier shows at that
// moment.  In a chain the consumers stop independently, so a downstream
// consumer can exit before its predecessor's last records reach it: wait
// for the tail to catch up with the producer before calling Shutdown when
// every consumer must see every record.
func PinnedConsumer(
	core int,
	r *ring.Ring,
	index int,
	sw *control.Switch,
	h ring.Handler,
	done chan<- struct{},
) {
	sw.WG.Add(1)
	go func() {
		// ── thread & affinity ─────────────────────────────
		runtime.LockOSThread()
		if core >= 0 {
			if err := setAffinity(core); err != nil {
				debug.DropError("consumer "+utils.Itoa(index)+": pin core "+utils.Itoa(core), err)
			}
		}
		defer func() {
			// a pinned thread carries a narrowed CPU mask; exiting while
			// still locked makes the runtime discard it
			if core < 0 {
				runtime.UnlockOSThread()
			}
			if done != nil {
				close(done)
			}
			sw.WG.Done()
		}()

		last := time.Now() // last time Read delivered
		miss := 0

		// ── main loop ─────────────────────────────────────
		for {
			// fast path: something delivered → mark activity
			if r.Read(index, h) > 0 {
				last, miss = time.Now(), 0
				continue
			}

			// stop request? flush what upstream already published
			if sw.Stopped() {
				r.Read(index, h)
				return
			}

			// ---------- choose spin mode ------------------
			if sw.PollCooldown() || time.Since(last) <= hotWindow {
				continue
			}

			// cold-spin path
			if miss++; miss >= constants.SpinBudget {
				miss = 0
				runtime.Gosched()
			}
			cpuRelax()
		}
	}()
}
