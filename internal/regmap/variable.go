// internal/regmap/variable.go
package regmap

import (
	"fmt"
	"strconv"
	"strings"
)

// Variable describes one register field.
// Geometry is relative to the owning Device.
//
// A Variable with Count > 0 describes Count repeated elements; element i
// starts Stride bits after element i-1.
type Variable struct {
	Name        string
	Description string

	Offset    uint64 // bytes
	BitOffset uint32
	BitSize   uint32

	Base Base
	Mode Mode

	// Disp is a fmt format applied to the decoded value ("%#08x", "%.3f").
	Disp string
	// Formatter, when set, replaces Disp for display.
	Formatter func(raw uint64) string
	// Parser is the inverse of Formatter for host writes.
	Parser   func(s string) (uint64, error)
	Enum     map[uint64]string
	Units    string
	BinPoint uint32 // Fixed only

	Count  int
	Stride uint32 // bits

	// Overlap marks an intentional alias of another field's bits.
	Overlap bool
	Hidden  bool

	dev *Device
}

func (v *Variable) validate() error {
	if v.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidVariable)
	}
	if strings.ContainsAny(v.Name, ".[]") {
		return fmt.Errorf("%w: %s: name must not contain '.', '[' or ']'", ErrInvalidVariable, v.Name)
	}
	if v.BitSize == 0 {
		return fmt.Errorf("%w: %s: bit size must be > 0", ErrInvalidVariable, v.Name)
	}

	switch v.Base {
	case String:
		if v.BitOffset%8 != 0 || v.BitSize%8 != 0 {
			return fmt.Errorf("%w: %s: string fields must be byte aligned", ErrInvalidVariable, v.Name)
		}
	case Float:
		if v.BitSize != 32 && v.BitSize != 64 {
			return fmt.Errorf("%w: %s: float fields must be 32 or 64 bits", ErrInvalidVariable, v.Name)
		}
	case Enum:
		if len(v.Enum) == 0 {
			return fmt.Errorf("%w: %s: enum map required", ErrInvalidVariable, v.Name)
		}
	case Fixed:
		if v.BinPoint > v.BitSize {
			return fmt.Errorf("%w: %s: binary point beyond bit size", ErrInvalidVariable, v.Name)
		}
	}
	if v.Base != String && v.BitSize > 64 {
		return fmt.Errorf("%w: %s: numeric fields are limited to 64 bits", ErrInvalidVariable, v.Name)
	}

	if v.Count < 0 {
		return fmt.Errorf("%w: %s: negative element count", ErrInvalidVariable, v.Name)
	}
	if v.Count > 1 && v.Stride < v.BitSize {
		return fmt.Errorf("%w: %s: stride %d smaller than bit size %d", ErrInvalidVariable, v.Name, v.Stride, v.BitSize)
	}
	return nil
}

// IsArray reports whether v was declared with an element count.
func (v *Variable) IsArray() bool { return v.Count > 0 }

// Elements returns the number of addressable elements (1 for scalars).
func (v *Variable) Elements() int {
	if v.Count > 0 {
		return v.Count
	}
	return 1
}

// ElementName returns the name of element i.
// Array suffixes are zero-padded to the width of the largest index.
func (v *Variable) ElementName(i int) string {
	if !v.IsArray() {
		return v.Name
	}
	return ElementName(v.Name, i, v.Count)
}

// ElementName formats name[i] with i zero-padded to the width of count-1.
func ElementName(name string, i, count int) string {
	width := len(strconv.Itoa(count - 1))
	return fmt.Sprintf("%s[%0*d]", name, width, i)
}

// Device returns the owning device, nil before the variable is added.
func (v *Variable) Device() *Device { return v.dev }

// Path returns the full dotted path of element i.
func (v *Variable) Path(i int) string {
	if v.dev == nil {
		return v.ElementName(i)
	}
	return v.dev.Path() + "." + v.ElementName(i)
}

// bitPos is the first bit of element i relative to the device base.
func (v *Variable) bitPos(i int) uint64 {
	return v.Offset*8 + uint64(v.BitOffset) + uint64(i)*uint64(v.Stride)
}

// endByte is one past the last byte touched by any element.
func (v *Variable) endByte() uint64 {
	last := v.bitPos(v.Elements()-1) + uint64(v.BitSize)
	return (last + 7) / 8
}
