// control.go — Activity and shutdown flags shared by a producer and its pinned consumers
// ============================================================================
// PIPELINE CONTROL
// ============================================================================
//
// A Switch carries two words every consumer polls between reads:
//   • hot:  the producer has been active recently; consumers spin tight
//   • stop: shut down; consumers drain what is visible, then exit
//
// Producers call SignalActivity on every burst; consumers call PollCooldown
// from their idle path so the hot flag clears itself after CooldownWindow of
// silence.  Each ring gets its own Switch; there is no process-wide state.

package control

import (
	"sync"
	"sync/atomic"
	"time"

	"onetomany/constants"
)

// Switch coordinates one producer with the consumers draining its ring.
type Switch struct {
	hot     atomic.Uint32
	stop    atomic.Uint32
	lastHot atomic.Int64 // unix nanos of the last SignalActivity

	cooldown int64

	// WG tracks consumer goroutines launched against this switch.
	WG sync.WaitGroup
}

// New returns a cold, running switch with the default cooldown.
func New() *Switch {
	return NewWithCooldown(constants.CooldownWindow)
}

// NewWithCooldown returns a switch whose hot flag clears after d of silence.
func NewWithCooldown(d time.Duration) *Switch {
	return &Switch{cooldown: int64(d)}
}

// ============================================================================
// ACTIVITY
// ============================================================================

// SignalActivity marks the producer active and stamps the time.
//
//go:nosplit
func (s *Switch) SignalActivity() {
	s.lastHot.Store(time.Now().UnixNano())
	s.hot.Store(1)
}

// ForceHot raises the hot flag without touching the activity stamp, so the
// next PollCooldown may clear it immediately if the producer is quiet.
func (s *Switch) ForceHot() {
	s.hot.Store(1)
}

// PollCooldown clears the hot flag once the cooldown has elapsed since the
// last SignalActivity.  It reports whether the switch is still hot.
//
//go:nosplit
func (s *Switch) PollCooldown() bool {
	if s.hot.Load() == 0 {
		return false
	}
	if time.Now().UnixNano()-s.lastHot.Load() > s.cooldown {
		s.hot.Store(0)
		return false
	}
	return true
}

// Hot reports the current hot flag.
func (s *Switch) Hot() bool { return s.hot.Load() != 0 }

// ============================================================================
// SHUTDOWN
// ============================================================================

// Shutdown raises the stop flag.  Idempotent.
func (s *Switch) Shutdown() {
	s.stop.Store(1)
}

// Stopped reports whether Shutdown has been called.
//
//go:nosplit
func (s *Switch) Stopped() bool { return s.stop.Load() != 0 }

// ShutdownAndWait raises the stop flag and blocks until every consumer
// registered on WG has returned.
func (s *Switch) ShutdownAndWait() {
	s.Shutdown()
	s.WG.Wait()
}
