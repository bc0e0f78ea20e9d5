// internal/regmap/bits.go
package regmap

import "fmt"

// Bit numbering is little-endian: bit k of a buffer is bit k%8 of byte k/8.

// Extract returns bitSize bits of buf starting at bitOffset, packed LSB first.
func Extract(buf []byte, bitOffset, bitSize uint32) []byte {
	out := make([]byte, (bitSize+7)/8)
	for i := uint32(0); i < bitSize; i++ {
		src := bitOffset + i
		if buf[src/8]>>(src%8)&1 != 0 {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

// Insert overwrites bitSize bits of buf starting at bitOffset with val.
// Bits of buf outside the range are preserved.
func Insert(buf []byte, bitOffset, bitSize uint32, val []byte) {
	for i := uint32(0); i < bitSize; i++ {
		dst := bitOffset + i
		var bit byte
		if int(i/8) < len(val) {
			bit = val[i/8] >> (i % 8) & 1
		}
		if bit != 0 {
			buf[dst/8] |= 1 << (dst % 8)
		} else {
			buf[dst/8] &^= 1 << (dst % 8)
		}
	}
}

// Uint decodes up to 8 little-endian bytes.
func Uint(raw []byte) uint64 {
	var v uint64
	for i := len(raw) - 1; i >= 0; i-- {
		if i >= 8 {
			continue
		}
		v = v<<8 | uint64(raw[i])
	}
	return v
}

// Bytes encodes v into the minimal little-endian buffer holding bitSize bits.
func Bytes(v uint64, bitSize uint32) []byte {
	out := make([]byte, (bitSize+7)/8)
	for i := range out {
		if i < 8 {
			out[i] = byte(v >> (8 * i))
		}
	}
	return out
}

// Read fetches and decodes one entry from mem.
func Read(mem Memory, e Entry) ([]byte, error) {
	if !e.Mode.CanRead() {
		return nil, fmt.Errorf("regmap: %s: %w (%s)", e.Path, ErrNotReadable, e.Mode)
	}
	buf := make([]byte, e.ByteLen())
	if err := mem.ReadAt(buf, e.Address); err != nil {
		return nil, fmt.Errorf("regmap: %s: read 0x%x: %w", e.Path, e.Address, err)
	}
	return Extract(buf, e.BitOffset, e.BitSize), nil
}

// Write stores raw into one entry of mem, considering that entry alone.
// Readable fields are read-modify-written; write-only fields start from zero.
// AddressMap.Write also preserves write-only neighbours.
func Write(mem Memory, e Entry, raw []byte) error {
	if !e.Mode.CanWrite() {
		return fmt.Errorf("regmap: %s: %w (%s)", e.Path, ErrNotWritable, e.Mode)
	}
	buf := make([]byte, e.ByteLen())
	if e.Mode.CanRead() && !e.whole() {
		if err := mem.ReadAt(buf, e.Address); err != nil {
			return fmt.Errorf("regmap: %s: read 0x%x: %w", e.Path, e.Address, err)
		}
	}
	Insert(buf, e.BitOffset, e.BitSize, raw)
	if err := mem.WriteAt(buf, e.Address); err != nil {
		return fmt.Errorf("regmap: %s: write 0x%x: %w", e.Path, e.Address, err)
	}
	return nil
}
