// internal/tunnel/stream/conn.go
package stream

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

const (
	magicHi byte = 0x52 // 'R'
	magicLo byte = 0x54 // 'T'

	versionV1 byte = 0x01

	headerLen = 5

	// MaxFrame is the largest payload a 16-bit length can carry.
	MaxFrame = 0xFFFF
)

// Conn carries tunnel frames over one persistent TCP connection.
// Sends are serialized; receives are expected from a single goroutine.
type Conn struct {
	mu      sync.Mutex
	conn    net.Conn
	timeout time.Duration
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Dial connects to a frame endpoint.
func Dial(cfg Config) (*Conn, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("tunnel stream: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	c, err := net.DialTimeout("tcp", cfg.Endpoint, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("tunnel stream: dial: %w", err)
	}
	return New(c, cfg.Timeout), nil
}

// New wraps an established connection. timeout bounds each write;
// 0 disables deadlines.
func New(c net.Conn, timeout time.Duration) *Conn {
	return &Conn{conn: c, timeout: timeout}
}

func (c *Conn) Close() error { return c.conn.Close() }

//
// ---- frame layout (LOCKED) ----
//
// 0-1  Magic "RT"
// 2    Version (0x01)
// 3-4  Payload length, big-endian
// 5+   Payload
//

// SendFrame implements tunnel.FrameSender.
func (c *Conn) SendFrame(frame []byte) error {
	if len(frame) > MaxFrame {
		return fmt.Errorf("tunnel stream: frame of %d bytes exceeds %d", len(frame), MaxFrame)
	}
	pkt := make([]byte, headerLen, headerLen+len(frame))
	pkt[0] = magicHi
	pkt[1] = magicLo
	pkt[2] = versionV1
	putU16(pkt[3:5], uint16(len(frame)))
	pkt = append(pkt, frame...)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	if err := writeAll(c.conn, pkt); err != nil {
		return fmt.Errorf("tunnel stream: write: %w", err)
	}
	return nil
}

// RecvFrame implements tunnel.FrameSource. It blocks until a whole
// frame arrives. A clean close between frames returns io.EOF.
func (c *Conn) RecvFrame() ([]byte, error) {
	var hdr [headerLen]byte
	if _, err := io.ReadFull(c.conn, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("tunnel stream: read header: %w", err)
	}
	if hdr[0] != magicHi || hdr[1] != magicLo {
		return nil, fmt.Errorf("tunnel stream: bad magic 0x%02x%02x", hdr[0], hdr[1])
	}
	if hdr[2] != versionV1 {
		return nil, fmt.Errorf("tunnel stream: unsupported version 0x%02x", hdr[2])
	}

	frame := make([]byte, getU16(hdr[3:5]))
	if _, err := io.ReadFull(c.conn, frame); err != nil {
		return nil, fmt.Errorf("tunnel stream: read payload: %w", err)
	}
	return frame, nil
}

//
// ---- helpers ----
//

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func putU16(dst []byte, v uint16) {
	dst[0] = byte(v >> 8)
	dst[1] = byte(v)
}

func getU16(src []byte) uint16 {
	return uint16(src[0])<<8 | uint16(src[1])
}
