// internal/devices/fir.go
package devices

import (
	"fmt"

	"github.com/tamzrod/fpga-regmap/internal/regmap"
)

const (
	firWindow     = 0x1000
	firTapsOffset = 0x100
	firMaxTaps    = (firWindow - firTapsOffset) / 4

	defaultCoeffBits = 16
)

// FirFilterConfig parameterizes NewFirFilter.
type FirFilterConfig struct {
	Node
	// Taps is the number of coefficients. Required.
	Taps int
	// CoeffBits is the coefficient width; 0 selects 16.
	CoeffBits int
}

// NewFirFilter declares a FIR filter with one signed coefficient per word.
func NewFirFilter(cfg FirFilterConfig) (*regmap.Device, error) {
	name := cfg.Name
	if name == "" {
		name = "FirFilter"
	}
	if cfg.Taps == 0 {
		return nil, &regmap.ConfigError{Path: name, Err: fmt.Errorf("%w: taps", regmap.ErrMissingParameter)}
	}
	if cfg.Taps < 0 || cfg.Taps > firMaxTaps {
		return nil, &regmap.ConfigError{
			Path: name,
			Err:  fmt.Errorf("%w: taps=%d must be within 1-%d", regmap.ErrInvalidParameter, cfg.Taps, firMaxTaps),
		}
	}
	bits := cfg.CoeffBits
	if bits == 0 {
		bits = defaultCoeffBits
	}
	if bits < 2 || bits > 32 {
		return nil, &regmap.ConfigError{
			Path: name,
			Err:  fmt.Errorf("%w: coeff_bits=%d must be within 2-32", regmap.ErrInvalidParameter, bits),
		}
	}

	d, err := cfg.device("FirFilter", "FIR filter coefficients", firWindow)
	if err != nil {
		return nil, err
	}
	err = d.Add(
		&regmap.Variable{Name: "Bypass", Offset: 0x000, BitSize: 1, Base: regmap.Bool, Mode: regmap.RW},
		&regmap.Variable{Name: "Reset", Offset: 0x004, BitSize: 1, Base: regmap.Bool, Mode: regmap.WO, Hidden: true},
		&regmap.Variable{
			Name: "NumberTaps", Description: "Tap count built into the firmware",
			Offset: 0x008, BitSize: 16, Mode: regmap.RO,
		},
		&regmap.Variable{
			Name: "Taps", Description: "Filter coefficients",
			Offset: firTapsOffset, BitSize: uint32(bits), Base: regmap.Int,
			Count: cfg.Taps, Stride: 32, Mode: regmap.RW,
		},
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}
