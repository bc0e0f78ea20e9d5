// internal/writer/modbus/client.go
package modbus

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	pmodbus "github.com/tamzrod/fpga-regmap/internal/poller/modbus"
)

// MaxWriteRegisters is the largest register write in one request.
const MaxWriteRegisters = 123

// EndpointClient is a single connection to the register source used for
// writes. It serializes requests so a partial-register write and its
// read-back are not interleaved with other writes.
type EndpointClient struct {
	mu     sync.Mutex
	client modbus.Client
	closer io.Closer
}

type Config struct {
	Mode     string
	Endpoint string
	Address  string
	BaudRate int
	UnitID   uint8
	Timeout  time.Duration
}

func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	mc, closer, err := pmodbus.Connect(pmodbus.Config(cfg))
	if err != nil {
		return nil, fmt.Errorf("writer modbus: %w", err)
	}
	return &EndpointClient{client: mc, closer: closer}, nil
}

// Wrap adapts an existing Modbus client. Close becomes a no-op.
func Wrap(mc modbus.Client) *EndpointClient {
	return &EndpointClient{client: mc}
}

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func (c *EndpointClient) ReadAt(p []byte, addr uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pmodbus.ReadMemory(c.client, p, addr)
}

// WriteAt stores p at byte address addr. A range starting or ending
// inside a register reads that register first and keeps its other half.
func (c *EndpointClient) WriteAt(p []byte, addr uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	first, qty, err := pmodbus.Span(addr, len(p))
	if err != nil || qty == 0 {
		return err
	}
	base := uint64(first) * 2
	mem := make([]byte, 2*qty)

	if addr%2 != 0 {
		if err := pmodbus.ReadMemory(c.client, mem[0:2], base); err != nil {
			return err
		}
	}
	if end := addr + uint64(len(p)); end%2 != 0 {
		last := 2 * (qty - 1)
		if err := pmodbus.ReadMemory(c.client, mem[last:last+2], base+uint64(last)); err != nil {
			return err
		}
	}
	copy(mem[addr-base:], p)

	for done := 0; done < qty; {
		n := qty - done
		if n > MaxWriteRegisters {
			n = MaxWriteRegisters
		}
		reg := first + uint16(done)
		wire := pmodbus.ToWire(mem[2*done : 2*(done+n)])
		if _, err := c.client.WriteMultipleRegisters(reg, uint16(n), wire); err != nil {
			return fmt.Errorf("modbus: write %d registers at %d: %w", n, reg, err)
		}
		done += n
	}
	return nil
}
