// internal/status/snapshot.go
package status

import (
	"fmt"
	"time"
)

// Snapshot is the current health of the register source.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
	LastError      string
	LastGood       time.Time
}

func (s Snapshot) String() string {
	out := fmt.Sprintf("health=%s", HealthName(s.Health))
	if s.Health != HealthOK {
		out += fmt.Sprintf(" error_code=%d seconds_in_error=%d", s.LastErrorCode, s.SecondsInError)
	}
	if s.LastError != "" {
		out += fmt.Sprintf(" last_error=%q", s.LastError)
	}
	if !s.LastGood.IsZero() {
		out += " last_good=" + s.LastGood.Format(time.RFC3339)
	}
	return out
}
