// internal/devices/dac.go
package devices

import (
	"fmt"

	"github.com/tamzrod/fpga-regmap/internal/regmap"
)

const (
	dacWindow      = 0x100
	dacCodeBits    = 16
	dacFullScale   = 65536.0
	dacMaxChannels = 0x80 / 4

	defaultRefVoltage = 3.0
)

// DacConfig parameterizes NewDac.
type DacConfig struct {
	Node
	// Channels is the number of outputs; 0 selects 1.
	Channels int
	// RefVoltage is the full-scale reference; 0 selects 3.0 V.
	RefVoltage float64
}

// DacVoltage converts a raw code to volts for a reference voltage.
func DacVoltage(code uint64, ref float64) float64 {
	return float64(code) * ref / dacFullScale
}

// NewDac declares a multi-channel DAC with derived output voltages.
func NewDac(cfg DacConfig) (*regmap.Device, error) {
	channels := cfg.Channels
	if channels == 0 {
		channels = 1
	}
	ref := cfg.RefVoltage
	if ref == 0 {
		ref = defaultRefVoltage
	}

	d, err := cfg.device("Dac", "Digital to analog converter", dacWindow)
	if err != nil {
		return nil, err
	}
	if channels < 0 || channels > dacMaxChannels {
		return nil, &regmap.ConfigError{
			Path: d.Name(),
			Err:  fmt.Errorf("%w: channels=%d must be within 1-%d", regmap.ErrInvalidParameter, channels, dacMaxChannels),
		}
	}
	if ref < 0 {
		return nil, &regmap.ConfigError{
			Path: d.Name(),
			Err:  fmt.Errorf("%w: ref_voltage=%g", regmap.ErrInvalidParameter, ref),
		}
	}

	code := &regmap.Variable{
		Name: "Code", Description: "Raw output code",
		Offset: 0x00, BitSize: dacCodeBits, Count: channels, Stride: 32, Mode: regmap.RW,
	}
	err = d.Add(
		code,
		&regmap.Variable{Name: "Load", Description: "Latch all codes", Offset: 0x80, BitSize: 1, Base: regmap.Bool, Mode: regmap.WO},
	)
	if err != nil {
		return nil, err
	}

	for i := 0; i < channels; i++ {
		err := d.AddLink(&regmap.LinkedVariable{
			Name:         regmap.ElementName("Voltage", i, channels),
			Description:  "Output voltage",
			Units:        "V",
			Disp:         "%.3f",
			Dependencies: []regmap.Ref{{Var: code, Index: i}},
			Value: func(raw []uint64) (any, error) {
				return DacVoltage(raw[0], ref), nil
			},
		})
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}
