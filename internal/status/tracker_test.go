// internal/status/tracker_test.go
package status

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goburrow/modbus"
)

type codedErr struct{ code uint16 }

func (e codedErr) Error() string { return fmt.Sprintf("code %d", e.code) }
func (e codedErr) Code() uint16 { return e.code }

func TestTracker_ErrorAndRecovery(t *testing.T) {
	tr := NewTracker(0)
	if got := tr.Snapshot().Health; got != HealthUnknown {
		t.Fatalf("expected unknown at start, got %d", got)
	}

	if !tr.Observe(errors.New("timeout")) {
		t.Fatalf("expected change on first error")
	}
	if tr.Observe(errors.New("timeout")) {
		t.Fatalf("expected no change on repeated error")
	}

	tr.Tick()
	tr.Tick()
	s := tr.Snapshot()
	if s.Health != HealthError || s.LastErrorCode != 1 || s.SecondsInError != 2 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}

	if !tr.Observe(nil) {
		t.Fatalf("expected change on recovery")
	}
	s = tr.Snapshot()
	if s.Health != HealthOK || s.SecondsInError != 0 || s.LastErrorCode != 0 {
		t.Fatalf("unexpected snapshot after recovery: %+v", s)
	}
	if tr.Tick() {
		t.Fatalf("expected no tick change while OK")
	}
}

func TestTracker_Stale(t *testing.T) {
	now := time.Unix(1000, 0)
	tr := NewTracker(5 * time.Second)
	tr.now = func() time.Time { return now }

	tr.Observe(nil)
	now = now.Add(6 * time.Second)

	if !tr.Tick() {
		t.Fatalf("expected stale transition")
	}
	if got := tr.Snapshot().Health; got != HealthStale {
		t.Fatalf("expected stale, got %s", HealthName(got))
	}
}

func TestTracker_UnknownDoesNotCount(t *testing.T) {
	tr := NewTracker(5 * time.Second)

	if tr.Tick() || tr.Tick() {
		t.Fatalf("expected no tick change before the first poll")
	}
	s := tr.Snapshot()
	if s.Health != HealthUnknown || s.SecondsInError != 0 || s.LastErrorCode != 0 {
		t.Fatalf("unexpected snapshot before first poll: %+v", s)
	}
}

func TestTracker_Disabled(t *testing.T) {
	tr := NewTracker(0)
	tr.Disable()

	if tr.Observe(errors.New("x")) || tr.Tick() {
		t.Fatalf("disabled tracker must not change")
	}
}

func TestErrorCode(t *testing.T) {
	if got := ErrorCode(nil); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := ErrorCode(fmt.Errorf("wrapped: %w", codedErr{code: 7})); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	mb := &modbus.ModbusError{FunctionCode: 0x83, ExceptionCode: modbus.ExceptionCodeIllegalDataAddress}
	if got := ErrorCode(fmt.Errorf("read: %w", mb)); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := ErrorCode(errors.New("plain")); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}
