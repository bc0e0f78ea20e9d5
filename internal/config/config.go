// internal/config/config.go
package config

type Config struct {
	Regmap RegmapConfig `yaml:"regmap"`
}

type RegmapConfig struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Devices     []DeviceConfig `yaml:"devices"`
	Source      SourceConfig   `yaml:"source"`
	Poll        PollConfig     `yaml:"poll"`
	Tunnel      *TunnelConfig  `yaml:"tunnel"`
}

// ---- DEVICE ----

// Device kinds understood by the descriptor registry.
const (
	KindGroup       = "group"
	KindVersion     = "version"
	KindTransceiver = "transceiver"
	KindEth         = "eth"
	KindMetadata    = "metadata"
	KindFirFilter   = "fir_filter"
	KindDac         = "dac"
)

var defaultNames = map[string]string{
	KindGroup:       "Group",
	KindVersion:     "Version",
	KindTransceiver: "Transceiver",
	KindEth:         "Eth",
	KindMetadata:    "Metadata",
	KindFirFilter:   "FirFilter",
	KindDac:         "Dac",
}

// KnownKind reports whether kind has a descriptor.
func KnownKind(kind string) bool {
	_, ok := defaultNames[kind]
	return ok
}

type DeviceConfig struct {
	Kind        string `yaml:"kind"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Offset      uint64 `yaml:"offset"`
	Hidden      bool   `yaml:"hidden"`
	Disabled    bool   `yaml:"disabled"`

	// transceiver
	WriteEnable bool `yaml:"write_enable"`

	// eth
	ReadOnly bool `yaml:"read_only"`
	Counters int  `yaml:"counters"`

	// fir_filter
	Taps      int `yaml:"taps"`
	CoeffBits int `yaml:"coeff_bits"`

	// dac
	Channels   int     `yaml:"channels"`
	RefVoltage float64 `yaml:"ref_voltage"`

	// group
	Size    uint64         `yaml:"size"`
	Devices []DeviceConfig `yaml:"devices"`
}

// EffectiveName is Name, or the kind's default name when empty.
func (d DeviceConfig) EffectiveName() string {
	if d.Name != "" {
		return d.Name
	}
	return defaultNames[d.Kind]
}

// ---- SOURCE ----

// Source modes.
const (
	SourceSim = "sim"
	SourceTCP = "tcp"
	SourceRTU = "rtu"
)

// SourceConfig selects the register memory backend.
// Modbus holding register r carries bytes 2r (low) and 2r+1 (high).
type SourceConfig struct {
	Mode      string `yaml:"mode"`
	Endpoint  string `yaml:"endpoint"`  // tcp
	Address   string `yaml:"address"`   // rtu serial device
	BaudRate  int    `yaml:"baud_rate"` // rtu
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
	Size      uint64 `yaml:"size"` // sim image size; 0 = tree size
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
	BlockBytes int `yaml:"block_bytes"` // max bytes per coalesced read
}

// ---- TUNNEL ----

// Tunnel transports.
const (
	TunnelTCP    = "tcp"
	TunnelSerial = "serial"
)

type TunnelConfig struct {
	Transport string `yaml:"transport"`
	Endpoint  string `yaml:"endpoint"`  // tcp
	Address   string `yaml:"address"`   // serial device
	BaudRate  int    `yaml:"baud_rate"` // serial
	TimeoutMs int    `yaml:"timeout_ms"`
}
