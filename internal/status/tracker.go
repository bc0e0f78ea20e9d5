// internal/status/tracker.go
package status

import (
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Tracker owns the health state machine for one register source.
// Observe is driven by poll results; Tick by a 1 Hz ticker.
type Tracker struct {
	mu       sync.Mutex
	snap     Snapshot
	staleAge time.Duration
	now      func() time.Time
}

// NewTracker starts in HealthUnknown. staleAge > 0 marks the source
// stale when no good cycle has been seen for that long; 0 disables it.
func NewTracker(staleAge time.Duration) *Tracker {
	return &Tracker{
		snap:     Snapshot{Health: HealthUnknown},
		staleAge: staleAge,
		now:      time.Now,
	}
}

// Disable parks the tracker in HealthDisabled. Later observations
// are ignored.
func (t *Tracker) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap = Snapshot{Health: HealthDisabled}
}

// Observe records the outcome of one poll cycle and reports whether the
// snapshot changed.
func (t *Tracker) Observe(err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snap.Health == HealthDisabled {
		return false
	}
	prev := t.snap

	if err == nil {
		// Recovery / OK: reset error state.
		t.snap.Health = HealthOK
		t.snap.LastErrorCode = 0
		t.snap.SecondsInError = 0
		t.snap.LastGood = t.now()
		return prev.Health != t.snap.Health || prev.LastErrorCode != 0 || prev.SecondsInError != 0
	}

	t.snap.Health = HealthError
	t.snap.LastErrorCode = ErrorCode(err)
	t.snap.LastError = err.Error()

	// NOTE: seconds_in_error increments on Tick only.
	return prev.Health != t.snap.Health ||
		prev.LastErrorCode != t.snap.LastErrorCode ||
		prev.LastError != t.snap.LastError
}

// Tick advances seconds-in-error while in error or stale, and applies
// staleness. Nothing advances before the first poll is observed.
// It reports whether the snapshot changed.
func (t *Tracker) Tick() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.snap.Health {
	case HealthDisabled, HealthUnknown:
		return false
	case HealthOK:
		if t.staleAge <= 0 || t.now().Sub(t.snap.LastGood) < t.staleAge {
			return false
		}
		t.snap.Health = HealthStale
		return true
	}

	if t.snap.SecondsInError < MaxSecondsInError {
		t.snap.SecondsInError++
		return true
	}
	return false
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// ErrorCode extracts a best-effort uint16 code from an error without
// assuming concrete types. If the error does not expose a code, it
// returns 1 (generic error).
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coderA interface{ Code() uint16 }
	type coderB interface{ ErrorCode() uint16 }

	var a coderA
	if errors.As(err, &a) {
		return a.Code()
	}
	var b coderB
	if errors.As(err, &b) {
		return b.ErrorCode()
	}

	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return uint16(me.ExceptionCode)
	}

	return 1
}
