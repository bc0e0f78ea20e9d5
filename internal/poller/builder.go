// internal/poller/builder.go
package poller

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/fpga-regmap/internal/config"
	pmodbus "github.com/tamzrod/fpga-regmap/internal/poller/modbus"
	"github.com/tamzrod/fpga-regmap/internal/regmap"
)

// Build constructs a Poller over the readable entries of m.
// In sim mode it reads sim directly; otherwise it wires the Modbus
// client lifecycle: the connection is reused while healthy, and after
// transport death the factory is used on a future tick.
// No retries, no loops, no semantics.
func Build(rm cfg.RegmapConfig, m *regmap.AddressMap, sim regmap.Memory) (*Poller, func() error, error) {
	reads := PlanBlocks(m.Readable(), rm.Poll.BlockBytes)
	if len(reads) == 0 {
		return nil, nil, errors.New("poller: no readable registers")
	}
	pc := Config{
		Name:     rm.Name,
		Interval: time.Duration(rm.Poll.IntervalMs) * time.Millisecond,
		Reads:    reads,
	}

	if rm.Source.Mode == cfg.SourceSim {
		if sim == nil {
			return nil, nil, errors.New("poller: sim memory required")
		}
		p, err := New(pc, sim, nil)
		if err != nil {
			return nil, nil, err
		}
		return p, func() error { return nil }, nil
	}

	// client factory: ONE attempt per call
	var last *pmodbus.Client
	factory := func() (Client, error) {
		c, err := pmodbus.New(SourceConfig(rm.Source))
		if err != nil {
			return nil, err
		}
		last = c
		return c, nil
	}

	// initial client (fail fast at startup)
	client, err := factory()
	if err != nil {
		return nil, nil, err
	}

	p, err := New(pc, client, factory)
	if err != nil {
		_ = last.Close()
		return nil, nil, err
	}

	closer := func() error {
		if last == nil {
			return nil
		}
		return last.Close()
	}
	return p, closer, nil
}

// SourceConfig maps the source section to Modbus transport settings.
func SourceConfig(s cfg.SourceConfig) pmodbus.Config {
	return pmodbus.Config{
		Mode:     s.Mode,
		Endpoint: s.Endpoint,
		Address:  s.Address,
		BaudRate: s.BaudRate,
		UnitID:   s.UnitID,
		Timeout:  time.Duration(s.TimeoutMs) * time.Millisecond,
	}
}
