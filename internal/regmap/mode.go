// internal/regmap/mode.go
package regmap

import "fmt"

// Mode is the access mode of a register field.
type Mode uint8

const (
	RW Mode = iota
	RO
	WO
)

// CanRead returns true if the host may read the field.
func (m Mode) CanRead() bool { return m == RW || m == RO }

// CanWrite returns true if the host may write the field.
func (m Mode) CanWrite() bool { return m == RW || m == WO }

func (m Mode) String() string {
	switch m {
	case RW:
		return "RW"
	case RO:
		return "RO"
	case WO:
		return "WO"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode accepts "RW", "RO" or "WO".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "RW", "rw":
		return RW, nil
	case "RO", "ro":
		return RO, nil
	case "WO", "wo":
		return WO, nil
	}
	return 0, fmt.Errorf("regmap: unknown mode %q", s)
}

// Base is the numeric interpretation of a field's raw bits.
type Base uint8

const (
	UInt Base = iota
	Int
	Bool
	Enum
	Fixed
	Float
	String
)

func (b Base) String() string {
	switch b {
	case UInt:
		return "UInt"
	case Int:
		return "Int"
	case Bool:
		return "Bool"
	case Enum:
		return "Enum"
	case Fixed:
		return "Fixed"
	case Float:
		return "Float"
	case String:
		return "String"
	}
	return fmt.Sprintf("Base(%d)", uint8(b))
}
