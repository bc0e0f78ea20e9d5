// internal/status/constants.go
package status

// Health codes reported for the register source.
// These values are stable and MUST NOT be configurable.

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a healthy source.
const HealthOK uint16 = 1

// HealthError represents a source error state.
const HealthError uint16 = 2

// HealthStale represents a source whose last good sample is too old.
const HealthStale uint16 = 3

// HealthDisabled represents a disabled source.
const HealthDisabled uint16 = 4

// ---- LIMITS ----

// MaxSecondsInError is where the seconds-in-error counter saturates.
const MaxSecondsInError uint16 = 65535

// HealthName returns a display name for a health code.
func HealthName(code uint16) string {
	switch code {
	case HealthUnknown:
		return "unknown"
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthStale:
		return "stale"
	case HealthDisabled:
		return "disabled"
	}
	return "invalid"
}
