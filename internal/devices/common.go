// internal/devices/common.go
package devices

import (
	"strings"

	"github.com/tamzrod/fpga-regmap/internal/regmap"
)

// Node is the identity every descriptor takes.
// Empty Name and Description fall back to the descriptor defaults.
type Node struct {
	Name        string
	Description string
	Offset      uint64
	Hidden      bool
	Disabled    bool
}

func (n Node) device(defName, defDesc string, window uint64) (*regmap.Device, error) {
	name := n.Name
	if name == "" {
		name = defName
	}
	desc := n.Description
	if desc == "" {
		desc = defDesc
	}
	return regmap.NewDevice(regmap.DeviceConfig{
		Name:        name,
		Description: desc,
		Offset:      n.Offset,
		Window:      window,
		Hidden:      n.Hidden,
		Disabled:    n.Disabled,
	})
}

// writable maps a safety flag to RW or RO.
func writable(enable bool) regmap.Mode {
	if enable {
		return regmap.RW
	}
	return regmap.RO
}

// word joins a big-endian byte pair.
func word(hi, lo uint64) uint64 { return hi<<8 | lo }

// ascii joins one character per dependency and trims padding.
func ascii(raw []uint64) (any, error) {
	b := make([]byte, 0, len(raw))
	for _, r := range raw {
		b = append(b, byte(r))
	}
	return strings.TrimRight(string(b), " \x00"), nil
}
