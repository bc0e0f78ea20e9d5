// internal/tunnel/tx.go
package tunnel

import (
	"errors"
	"log/slog"
)

// Tunnel framing: one ASCII character per 4-byte slot.
// Only byte 0 of each slot is significant; bytes 1-3 are sent as zero.
const (
	SlotSize = 4

	CR     byte = 0x0D
	LF     byte = 0x0A
	Escape byte = 27
)

// FrameSender is the outbound half of a frame transport.
// One call = one frame.
type FrameSender interface {
	SendFrame(frame []byte) error
}

// Encode wraps cmd into a command frame: 4*(len(cmd)+1) bytes,
// the final slot carrying CR.
func Encode(cmd string) []byte {
	frame := make([]byte, SlotSize*(len(cmd)+1))
	for i := 0; i < len(cmd); i++ {
		frame[SlotSize*i] = cmd[i]
	}
	frame[SlotSize*len(cmd)] = CR
	return frame
}

// EncodeEscape returns the single-slot escape control frame.
func EncodeEscape() []byte {
	frame := make([]byte, SlotSize)
	frame[0] = Escape
	return frame
}

// Tx sends tunnel commands over a FrameSender.
// It keeps no state between calls.
type Tx struct {
	out FrameSender
	log *slog.Logger
}

// NewTx creates a transmitter. A nil logger uses slog.Default().
func NewTx(out FrameSender, log *slog.Logger) (*Tx, error) {
	if out == nil {
		return nil, errors.New("tunnel: frame sender required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Tx{out: out, log: log}, nil
}

// Send transmits cmd as one command frame.
func (t *Tx) Send(cmd string) error {
	frame := Encode(cmd)
	t.log.Debug("tunnel send", "cmd", cmd, "bytes", len(frame))
	return t.out.SendFrame(frame)
}

// Escape transmits the escape control frame.
func (t *Tx) Escape() error {
	t.log.Debug("tunnel escape")
	return t.out.SendFrame(EncodeEscape())
}
