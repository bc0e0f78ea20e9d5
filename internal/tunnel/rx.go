// internal/tunnel/rx.go
package tunnel

import (
	"strings"
	"sync"
)

// Rx accumulates tunnel characters from inbound frames.
//
// LF emits the current line to the handler. CR stores the current line
// as last received without emitting it. Any other byte is appended.
// The two sentinels are independent: LF never touches last received.
// A line split across frames stays in the accumulator until a later
// frame terminates it; there is no timeout and no resynchronization.
type Rx struct {
	mu      sync.Mutex
	acc     strings.Builder
	last    string

	onLine func(line string)
}

// NewRx creates a receiver. onLine may be nil.
func NewRx(onLine func(line string)) *Rx {
	return &Rx{onLine: onLine}
}

// Accept consumes one inbound frame. A trailing partial slot still
// contributes its first byte. The handler runs after the lock is released.
func (r *Rx) Accept(frame []byte) {
	var lines []string

	r.mu.Lock()
	for i := 0; i < len(frame); i += SlotSize {
		switch c := frame[i]; c {
		case LF:
			lines = append(lines, r.acc.String())
			r.acc.Reset()
		case CR:
			r.last = r.acc.String()
			r.acc.Reset()
		default:
			r.acc.WriteByte(c)
		}
	}
	r.mu.Unlock()

	if r.onLine == nil {
		return
	}
	for _, l := range lines {
		r.onLine(l)
	}
}

// LastReceived returns the last line terminated by CR.
func (r *Rx) LastReceived() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Pending returns the characters accumulated since the last terminator.
func (r *Rx) Pending() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acc.String()
}
