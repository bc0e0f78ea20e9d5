// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Address overlap between built devices is checked at construction time.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: empty configuration")
	}
	rm := cfg.Regmap

	if err := checkName("regmap", rm.Name, true); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// DEVICE TREE VALIDATION
	// ------------------------------------------------------------

	if len(rm.Devices) == 0 {
		return fmt.Errorf("regmap: at least one device is required")
	}
	if err := validateDevices(rootName(rm), rm.Devices, 0); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// SOURCE VALIDATION
	// ------------------------------------------------------------

	src := rm.Source
	switch src.Mode {
	case "", SourceSim:
	case SourceTCP:
		if src.Endpoint == "" {
			return fmt.Errorf("source: mode %q requires endpoint", src.Mode)
		}
	case SourceRTU:
		if src.Address == "" {
			return fmt.Errorf("source: mode %q requires address", src.Mode)
		}
		if src.BaudRate < 0 {
			return fmt.Errorf("source: baud_rate must be >= 0")
		}
	default:
		return fmt.Errorf("source: unknown mode %q", src.Mode)
	}
	if src.TimeoutMs < 0 {
		return fmt.Errorf("source: timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// POLL VALIDATION
	// ------------------------------------------------------------

	if rm.Poll.IntervalMs < 0 {
		return fmt.Errorf("poll: interval_ms must be >= 0")
	}
	if rm.Poll.BlockBytes < 0 || rm.Poll.BlockBytes%2 != 0 || rm.Poll.BlockBytes > 250 {
		return fmt.Errorf("poll: block_bytes must be even and within 0-250")
	}

	// ------------------------------------------------------------
	// TUNNEL VALIDATION (OPT-IN)
	// ------------------------------------------------------------

	if t := rm.Tunnel; t != nil {
		switch t.Transport {
		case TunnelTCP:
			if t.Endpoint == "" {
				return fmt.Errorf("tunnel: transport %q requires endpoint", t.Transport)
			}
		case TunnelSerial:
			if t.Address == "" {
				return fmt.Errorf("tunnel: transport %q requires address", t.Transport)
			}
			if src.Mode == SourceRTU && src.Address == t.Address {
				return fmt.Errorf("tunnel: serial address %s already used by source", t.Address)
			}
		default:
			return fmt.Errorf("tunnel: unknown transport %q", t.Transport)
		}
		if t.TimeoutMs < 0 {
			return fmt.Errorf("tunnel: timeout_ms must be >= 0")
		}
	}

	return nil
}

func rootName(rm RegmapConfig) string {
	if rm.Name == "" {
		return "Root"
	}
	return rm.Name
}

func validateDevices(parent string, devs []DeviceConfig, size uint64) error {
	// key = effective name
	owner := make(map[string]int)

	for i, d := range devs {
		if !KnownKind(d.Kind) {
			return fmt.Errorf("%s: device %d: unknown kind %q", parent, i, d.Kind)
		}

		name := d.EffectiveName()
		if err := checkName(parent, name, false); err != nil {
			return err
		}
		if prev, exists := owner[name]; exists {
			return fmt.Errorf(
				"%s: device name %q used by devices %d and %d",
				parent,
				name,
				prev,
				i,
			)
		}
		owner[name] = i

		path := parent + "." + name

		// declared windows bound child offsets
		if size > 0 && d.Offset >= size {
			return fmt.Errorf("%s: offset 0x%x outside parent size 0x%x", path, d.Offset, size)
		}

		if d.Kind == KindGroup {
			if len(d.Devices) == 0 {
				return fmt.Errorf("%s: group has no devices", path)
			}
			if err := validateDevices(path, d.Devices, d.Size); err != nil {
				return err
			}
			continue
		}
		if len(d.Devices) > 0 {
			return fmt.Errorf("%s: only kind %q may nest devices", path, KindGroup)
		}
		if d.Taps < 0 || d.Counters < 0 || d.Channels < 0 || d.CoeffBits < 0 {
			return fmt.Errorf("%s: counts must be >= 0", path)
		}
	}
	return nil
}

// checkName enforces ASCII path segments.
func checkName(where, name string, allowEmpty bool) error {
	if name == "" {
		if allowEmpty {
			return nil
		}
		return fmt.Errorf("%s: device name required", where)
	}
	for i := 0; i < len(name); i++ {
		if name[i] <= 0x20 || name[i] > 0x7E {
			return fmt.Errorf("%s: name %q must contain printable ASCII characters only", where, name)
		}
	}
	if strings.ContainsAny(name, ".[]") {
		return fmt.Errorf("%s: name %q must not contain '.', '[' or ']'", where, name)
	}
	return nil
}
