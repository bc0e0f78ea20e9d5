// internal/devices/build.go
package devices

import (
	"errors"
	"fmt"

	cfg "github.com/tamzrod/fpga-regmap/internal/config"
	"github.com/tamzrod/fpga-regmap/internal/regmap"
)

// Build converts the device section of a config into a device tree.
// Assumes config has already passed Validate.
func Build(rm cfg.RegmapConfig) (*regmap.Device, error) {
	name := rm.Name
	if name == "" {
		name = "Root"
	}
	root, err := regmap.NewDevice(regmap.DeviceConfig{
		Name:        name,
		Description: rm.Description,
	})
	if err != nil {
		return nil, err
	}
	if err := addChildren(root, rm.Devices); err != nil {
		return nil, err
	}
	return root, nil
}

func addChildren(parent *regmap.Device, devs []cfg.DeviceConfig) error {
	for _, dc := range devs {
		d, err := buildOne(dc)
		if err != nil {
			return qualify(parent, err)
		}
		if err := parent.AddDevice(d); err != nil {
			return err
		}
	}
	return nil
}

func buildOne(dc cfg.DeviceConfig) (*regmap.Device, error) {
	n := Node{
		Name:        dc.Name,
		Description: dc.Description,
		Offset:      dc.Offset,
		Hidden:      dc.Hidden,
		Disabled:    dc.Disabled,
	}

	switch dc.Kind {
	case cfg.KindGroup:
		return NewGroup(GroupConfig{Node: n, Size: dc.Size}, dc.Devices)
	case cfg.KindVersion:
		return NewVersion(n)
	case cfg.KindTransceiver:
		return NewTransceiver(TransceiverConfig{Node: n, WriteEnable: dc.WriteEnable})
	case cfg.KindEth:
		return NewEth(EthConfig{Node: n, ReadOnly: dc.ReadOnly, Counters: dc.Counters})
	case cfg.KindMetadata:
		return NewMetadataExchange(n)
	case cfg.KindFirFilter:
		return NewFirFilter(FirFilterConfig{Node: n, Taps: dc.Taps, CoeffBits: dc.CoeffBits})
	case cfg.KindDac:
		return NewDac(DacConfig{Node: n, Channels: dc.Channels, RefVoltage: dc.RefVoltage})
	}
	return nil, &regmap.ConfigError{Path: dc.Name, Err: fmt.Errorf("%w: unknown kind %q", regmap.ErrInvalidParameter, dc.Kind)}
}

// GroupConfig parameterizes NewGroup.
type GroupConfig struct {
	Node
	// Size is the declared address window; 0 = derived from children.
	Size uint64
}

// NewGroup declares a plain composite node and builds its children.
func NewGroup(gc GroupConfig, children []cfg.DeviceConfig) (*regmap.Device, error) {
	d, err := gc.device("Group", "", gc.Size)
	if err != nil {
		return nil, err
	}
	if err := addChildren(d, children); err != nil {
		return nil, err
	}
	return d, nil
}

// qualify prefixes a construction error with the parent path so the
// message names the full device path.
func qualify(parent *regmap.Device, err error) error {
	var ce *regmap.ConfigError
	if !errors.As(err, &ce) {
		return fmt.Errorf("%s: %w", parent.Path(), err)
	}
	if ce.Path == "" {
		ce.Path = parent.Path()
	} else {
		ce.Path = parent.Path() + "." + ce.Path
	}
	return err
}
