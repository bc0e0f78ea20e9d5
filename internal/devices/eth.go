// internal/devices/eth.go
package devices

import (
	"fmt"
	"net"

	"github.com/tamzrod/fpga-regmap/internal/regmap"
)

// ---- MAC + PHY LAYOUT (fixed contract) ----

const (
	ethWindow  = 0x2000
	macOffset  = 0x0000
	macWindow  = 0x1000
	phyOffset  = 0x1000
	phyWindow  = 0x100
	counterOff = 0x100

	defaultCounters = 16
	maxCounters     = (macWindow - counterOff) / 4
)

// EthConfig parameterizes NewEth.
type EthConfig struct {
	Node
	// ReadOnly locks the MAC configuration registers.
	ReadOnly bool
	// Counters is the number of status counters; 0 selects the default.
	Counters int
}

// NewEth declares a MAC with its PHY at fixed offsets.
func NewEth(cfg EthConfig) (*regmap.Device, error) {
	d, err := cfg.device("Eth", "Ethernet MAC and PHY", ethWindow)
	if err != nil {
		return nil, err
	}

	mac, err := NewEthMac(EthMacConfig{
		Node:     Node{Name: "Mac", Offset: macOffset},
		ReadOnly: cfg.ReadOnly,
		Counters: cfg.Counters,
	})
	if err != nil {
		return nil, err
	}
	phy, err := NewEthPhy(Node{Name: "Phy", Offset: phyOffset})
	if err != nil {
		return nil, err
	}
	for _, c := range []*regmap.Device{mac, phy} {
		if err := d.AddDevice(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// EthMacConfig parameterizes NewEthMac.
type EthMacConfig struct {
	Node
	ReadOnly bool
	Counters int
}

// NewEthMac declares the MAC configuration and counter block.
func NewEthMac(cfg EthMacConfig) (*regmap.Device, error) {
	d, err := cfg.device("EthMac", "Ethernet MAC", macWindow)
	if err != nil {
		return nil, err
	}

	counters := cfg.Counters
	if counters == 0 {
		counters = defaultCounters
	}
	if counters < 0 || counters > maxCounters {
		return nil, &regmap.ConfigError{
			Path: d.Name(),
			Err:  fmt.Errorf("%w: counters=%d must be within 1-%d", regmap.ErrInvalidParameter, cfg.Counters, maxCounters),
		}
	}

	mode := writable(!cfg.ReadOnly)
	err = d.Add(
		&regmap.Variable{
			Name: "MacAddress", Description: "Station address",
			Offset: 0x000, BitSize: 48, Mode: mode,
			Formatter: formatMAC, Parser: parseMAC,
		},
		&regmap.Variable{
			Name: "IpAddress", Description: "Local IPv4 address",
			Offset: 0x008, BitSize: 32, Mode: mode,
			Formatter: formatIPv4, Parser: parseIPv4,
		},
		&regmap.Variable{
			Name: "PauseTime", Description: "Transmitted pause quanta",
			Offset: 0x010, BitSize: 16, Mode: mode,
		},
		&regmap.Variable{
			Name: "PauseEnable", Offset: 0x014, BitSize: 1, Base: regmap.Bool, Mode: mode,
		},
		&regmap.Variable{
			Name: "FilterEnable", Description: "Drop frames not addressed to MacAddress",
			Offset: 0x014, BitOffset: 1, BitSize: 1, Base: regmap.Bool, Mode: mode,
		},
		&regmap.Variable{
			Name: "CounterReset", Offset: 0x0FC, BitSize: 1, Base: regmap.Bool, Mode: regmap.WO, Hidden: true,
		},
		&regmap.Variable{
			Name: "StatusCounters", Description: "Frame and error counters",
			Offset: counterOff, BitSize: 32, Count: counters, Stride: 32, Mode: regmap.RO,
		},
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

var phySpeeds = map[uint64]string{0: "10M", 1: "100M", 2: "1G", 3: "10G"}

// NewEthPhy declares the PHY status and control word.
func NewEthPhy(n Node) (*regmap.Device, error) {
	d, err := n.device("EthPhy", "Ethernet PHY", phyWindow)
	if err != nil {
		return nil, err
	}
	err = d.Add(
		&regmap.Variable{Name: "PhyReady", Offset: 0x000, BitSize: 1, Base: regmap.Bool, Mode: regmap.RO},
		&regmap.Variable{Name: "LinkUp", Offset: 0x000, BitOffset: 1, BitSize: 1, Base: regmap.Bool, Mode: regmap.RO},
		&regmap.Variable{
			Name: "Speed", Offset: 0x000, BitOffset: 4, BitSize: 2,
			Base: regmap.Enum, Enum: phySpeeds, Mode: regmap.RO,
		},
		&regmap.Variable{Name: "Loopback", Offset: 0x004, BitSize: 1, Base: regmap.Bool, Mode: regmap.RW},
		&regmap.Variable{Name: "PolarityInvert", Offset: 0x004, BitOffset: 1, BitSize: 2, Mode: regmap.RW},
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// MAC bytes are stored least significant first: the last octet of
// aa:bb:cc:dd:ee:ff sits in bits 7:0.

func formatMAC(raw uint64) string {
	hw := make(net.HardwareAddr, 6)
	for i := range hw {
		hw[i] = byte(raw >> (8 * (5 - i)))
	}
	return hw.String()
}

func parseMAC(s string) (uint64, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return 0, err
	}
	if len(hw) != 6 {
		return 0, fmt.Errorf("expected 6 octets, got %d", len(hw))
	}
	var v uint64
	for _, b := range hw {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

func formatIPv4(raw uint64) string {
	return net.IPv4(byte(raw>>24), byte(raw>>16), byte(raw>>8), byte(raw)).String()
}

func parseIPv4(s string) (uint64, error) {
	ip := net.ParseIP(s).To4()
	if ip == nil {
		return 0, fmt.Errorf("invalid IPv4 address %q", s)
	}
	return uint64(ip[0])<<24 | uint64(ip[1])<<16 | uint64(ip[2])<<8 | uint64(ip[3]), nil
}
