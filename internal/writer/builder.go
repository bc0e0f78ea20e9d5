// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/fpga-regmap/internal/config"
	"github.com/tamzrod/fpga-regmap/internal/regmap"
	wmodbus "github.com/tamzrod/fpga-regmap/internal/writer/modbus"
)

// BuildMemory returns the register memory the writer uses for the
// configured source. Sim mode shares sim with the poller.
func BuildMemory(s cfg.SourceConfig, sim regmap.Memory) (regmap.Memory, func() error, error) {
	if s.Mode == cfg.SourceSim {
		if sim == nil {
			return nil, nil, errors.New("writer: sim memory required")
		}
		return sim, func() error { return nil }, nil
	}

	c, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Mode:     s.Mode,
		Endpoint: s.Endpoint,
		Address:  s.Address,
		BaudRate: s.BaudRate,
		UnitID:   s.UnitID,
		Timeout:  time.Duration(s.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}
