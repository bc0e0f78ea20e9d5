// internal/regmap/format.go
package regmap

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value decodes raw bits of e into a Go value:
// uint64, int64, bool, float64 or string. Enums decode to their uint64 code.
func Value(e Entry, raw []byte) any {
	if e.Base == String {
		if i := bytes.IndexByte(raw, 0); i >= 0 {
			raw = raw[:i]
		}
		return string(raw)
	}

	u := Uint(raw)
	switch e.Base {
	case Bool:
		return u != 0
	case Int:
		return signExtend(u, e.BitSize)
	case Fixed:
		return float64(signExtend(u, e.BitSize)) / math.Ldexp(1, int(e.Var.BinPoint))
	case Float:
		if e.BitSize == 32 {
			return float64(math.Float32frombits(uint32(u)))
		}
		return math.Float64frombits(u)
	}
	return u
}

// Format renders raw bits of e for display.
func Format(e Entry, raw []byte) string {
	v := e.Var
	if v.Formatter != nil && e.Base != String {
		return v.Formatter(Uint(raw))
	}
	if e.Base == Enum {
		if name, ok := v.Enum[Uint(raw)]; ok {
			return name
		}
		return strconv.FormatUint(Uint(raw), 10)
	}

	val := Value(e, raw)
	if v.Disp != "" {
		return fmt.Sprintf(v.Disp, val)
	}
	switch x := val.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Parse converts display text into raw bits for e.
func Parse(e Entry, s string) ([]byte, error) {
	v := e.Var
	s = strings.TrimSpace(s)

	if e.Base == String {
		n := int(e.BitSize / 8)
		if len(s) > n {
			return nil, fmt.Errorf("%w: %s: %d characters exceed %d", ErrInvalidParameter, e.Path, len(s), n)
		}
		out := make([]byte, n)
		copy(out, s)
		return out, nil
	}

	var (
		u   uint64
		err error
	)
	switch {
	case v.Parser != nil:
		u, err = v.Parser(s)
	case e.Base == Bool:
		var b bool
		b, err = strconv.ParseBool(s)
		if b {
			u = 1
		}
	case e.Base == Enum:
		u, err = parseEnum(v.Enum, s)
	case e.Base == Int:
		var i int64
		i, err = strconv.ParseInt(s, 0, 64)
		if err == nil {
			u, err = fitSigned(i, e.BitSize)
		}
	case e.Base == Fixed:
		var f float64
		f, err = strconv.ParseFloat(s, 64)
		if err == nil {
			u, err = fitSigned(int64(math.Round(math.Ldexp(f, int(v.BinPoint)))), e.BitSize)
		}
	case e.Base == Float:
		var f float64
		f, err = strconv.ParseFloat(s, int(e.BitSize))
		if e.BitSize == 32 {
			u = uint64(math.Float32bits(float32(f)))
		} else {
			u = math.Float64bits(f)
		}
	default:
		u, err = strconv.ParseUint(s, 0, 64)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParameter, e.Path, err)
	}
	if e.BitSize < 64 && u>>e.BitSize != 0 {
		return nil, fmt.Errorf("%w: %s: value 0x%x exceeds %d bits", ErrInvalidParameter, e.Path, u, e.BitSize)
	}
	return Bytes(u, e.BitSize), nil
}

func parseEnum(m map[uint64]string, s string) (uint64, error) {
	for code, name := range m {
		if name == s {
			return code, nil
		}
	}
	u, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown enum value %q", s)
	}
	if _, ok := m[u]; !ok {
		return 0, fmt.Errorf("unknown enum code %d", u)
	}
	return u, nil
}

func signExtend(u uint64, bits uint32) int64 {
	if bits >= 64 {
		return int64(u)
	}
	shift := 64 - bits
	return int64(u<<shift) >> shift
}

// fitSigned range-checks i and returns its two's complement in bits.
func fitSigned(i int64, bits uint32) (uint64, error) {
	if bits < 64 {
		lo := -(int64(1) << (bits - 1))
		hi := int64(1)<<(bits-1) - 1
		if i < lo || i > hi {
			return 0, fmt.Errorf("%d out of range [%d, %d]", i, lo, hi)
		}
		return uint64(i) & (uint64(1)<<bits - 1), nil
	}
	return uint64(i), nil
}
