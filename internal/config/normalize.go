// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultIntervalMs = 1000
	DefaultTimeoutMs  = 1000
	DefaultBlockBytes = 200
	DefaultBaudRate   = 115200
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	rm := &cfg.Regmap

	rm.Name = rootName(*rm)
	normalizeDevices(rm.Devices)

	// ------------------------------------------------------------
	// SOURCE DEFAULTS
	// ------------------------------------------------------------

	if rm.Source.Mode == "" {
		rm.Source.Mode = SourceSim
	}
	if rm.Source.TimeoutMs == 0 {
		rm.Source.TimeoutMs = DefaultTimeoutMs
	}
	if rm.Source.Mode == SourceRTU && rm.Source.BaudRate == 0 {
		rm.Source.BaudRate = DefaultBaudRate
	}

	// ------------------------------------------------------------
	// POLL DEFAULTS
	// ------------------------------------------------------------

	if rm.Poll.IntervalMs == 0 {
		rm.Poll.IntervalMs = DefaultIntervalMs
	}
	if rm.Poll.BlockBytes == 0 {
		rm.Poll.BlockBytes = DefaultBlockBytes
	}

	// ------------------------------------------------------------
	// TUNNEL DEFAULTS (OPT-IN)
	// ------------------------------------------------------------

	if t := rm.Tunnel; t != nil {
		if t.TimeoutMs == 0 {
			t.TimeoutMs = DefaultTimeoutMs
		}
		if t.Transport == TunnelSerial && t.BaudRate == 0 {
			t.BaudRate = DefaultBaudRate
		}
	}
}

func normalizeDevices(devs []DeviceConfig) {
	for i := range devs {
		d := &devs[i]
		d.Name = d.EffectiveName()
		normalizeDevices(d.Devices)
	}
}
