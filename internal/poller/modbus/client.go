// internal/poller/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// MaxRegisters is the largest holding register read in one request.
const MaxRegisters = 125

// Config is minimal transport config.
type Config struct {
	Mode     string // "tcp" or "rtu"
	Endpoint string // tcp host:port
	Address  string // rtu device path
	BaudRate int
	UnitID   uint8
	Timeout  time.Duration
}

// Connect opens a Modbus handler for cfg and returns its client.
// The closer owns the connection.
func Connect(cfg Config) (modbus.Client, io.Closer, error) {
	switch cfg.Mode {
	case "tcp":
		if cfg.Endpoint == "" {
			return nil, nil, errors.New("modbus client: endpoint required")
		}
		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		if err := h.Connect(); err != nil {
			return nil, nil, err
		}
		return modbus.NewClient(h), h, nil

	case "rtu":
		if cfg.Address == "" {
			return nil, nil, errors.New("modbus client: address required")
		}
		h := modbus.NewRTUClientHandler(cfg.Address)
		h.BaudRate = cfg.BaudRate
		h.DataBits = 8
		h.Parity = "N"
		h.StopBits = 1
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		if err := h.Connect(); err != nil {
			return nil, nil, err
		}
		return modbus.NewClient(h), h, nil
	}
	return nil, nil, fmt.Errorf("modbus client: unknown mode %q", cfg.Mode)
}

// Client implements poller.Client over holding registers.
// Register r carries register-space bytes 2r (low half) and 2r+1 (high half).
type Client struct {
	mu     sync.Mutex
	client modbus.Client
	closer io.Closer
}

// New creates a connected client.
func New(cfg Config) (*Client, error) {
	mc, closer, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{client: mc, closer: closer}, nil
}

// Wrap adapts an existing Modbus client. Close becomes a no-op.
func Wrap(mc modbus.Client) *Client {
	return &Client{client: mc}
}

// Close closes the connection.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// ReadAt implements poller.Client.
func (c *Client) ReadAt(p []byte, addr uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ReadMemory(c.client, p, addr)
}

// ---- register mapping (pure geometry) ----

// Span returns the registers covering bytes [addr, addr+n).
func Span(addr uint64, n int) (first uint16, qty int, err error) {
	if n <= 0 {
		return 0, 0, nil
	}
	lo := addr / 2
	hi := (addr + uint64(n) - 1) / 2
	if hi > 0xFFFF {
		return 0, 0, fmt.Errorf("modbus: byte range 0x%x+%d beyond register space", addr, n)
	}
	return uint16(lo), int(hi-lo) + 1, nil
}

// ReadMemory fills p from the registers covering [addr, addr+len(p)),
// splitting requests at MaxRegisters.
func ReadMemory(mc modbus.Client, p []byte, addr uint64) error {
	first, qty, err := Span(addr, len(p))
	if err != nil || qty == 0 {
		return err
	}
	mem := make([]byte, 0, 2*qty)
	for done := 0; done < qty; {
		n := qty - done
		if n > MaxRegisters {
			n = MaxRegisters
		}
		reg := first + uint16(done)
		wire, err := mc.ReadHoldingRegisters(reg, uint16(n))
		if err != nil {
			return fmt.Errorf("modbus: read %d registers at %d: %w", n, reg, err)
		}
		if len(wire) != 2*n {
			return fmt.Errorf("modbus: read %d registers at %d: got %d bytes", n, reg, len(wire))
		}
		mem = append(mem, ToMemory(wire)...)
		done += n
	}
	skip := addr - uint64(first)*2
	copy(p, mem[skip:])
	return nil
}

// ToMemory converts big-endian register payload to register-space bytes.
func ToMemory(wire []byte) []byte {
	out := make([]byte, len(wire))
	for i := 0; i+1 < len(wire); i += 2 {
		out[i] = wire[i+1]
		out[i+1] = wire[i]
	}
	return out
}

// ToWire converts register-space bytes to big-endian register payload.
// The conversion is its own inverse.
func ToWire(mem []byte) []byte { return ToMemory(mem) }
