// internal/tunnel/serialport/port.go
package serialport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/serial"

	"github.com/tamzrod/fpga-regmap/internal/tunnel"
)

// Port carries tunnel frames over a serial line.
// A serial line has no frame boundaries: each read is rounded down to
// whole 4-byte slots and the remainder is carried into the next frame.
type Port struct {
	mu    sync.Mutex
	rw    io.ReadWriteCloser
	buf   []byte
	carry []byte
}

type Config struct {
	Address  string
	BaudRate int
	Timeout  time.Duration
}

// Open opens the serial device at 8N1.
func Open(cfg Config) (*Port, error) {
	if cfg.Address == "" {
		return nil, errors.New("tunnel serial: address required")
	}
	if cfg.BaudRate <= 0 {
		return nil, errors.New("tunnel serial: baud rate must be > 0")
	}
	p, err := serial.Open(&serial.Config{
		Address:  cfg.Address,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("tunnel serial: open %s: %w", cfg.Address, err)
	}
	return New(p), nil
}

// New wraps an open byte stream.
func New(rw io.ReadWriteCloser) *Port {
	return &Port{rw: rw, buf: make([]byte, 256)}
}

func (p *Port) Close() error { return p.rw.Close() }

// SendFrame implements tunnel.FrameSender.
func (p *Port) SendFrame(frame []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for b := frame; len(b) > 0; {
		n, err := p.rw.Write(b)
		if err != nil {
			return fmt.Errorf("tunnel serial: write: %w", err)
		}
		b = b[n:]
	}
	return nil
}

// RecvFrame implements tunnel.FrameSource. Read timeouts are not
// errors: it keeps reading until at least one whole slot is available.
func (p *Port) RecvFrame() ([]byte, error) {
	for {
		n, err := p.rw.Read(p.buf)
		p.carry = append(p.carry, p.buf[:n]...)

		if whole := len(p.carry) / tunnel.SlotSize * tunnel.SlotSize; whole > 0 {
			frame := make([]byte, whole)
			copy(frame, p.carry)
			p.carry = append(p.carry[:0], p.carry[whole:]...)
			return frame, nil
		}

		switch {
		case err == nil:
		case errors.Is(err, serial.ErrTimeout):
		case errors.Is(err, io.EOF):
			return nil, io.EOF
		default:
			return nil, fmt.Errorf("tunnel serial: read: %w", err)
		}
	}
}
