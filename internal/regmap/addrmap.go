// internal/regmap/addrmap.go
package regmap

import (
	"fmt"
	"sort"
)

// Entry is one leaf element of the flattened address map.
// Address is absolute; BitOffset is normalized to 0..7.
type Entry struct {
	Path      string
	Address   uint64
	BitOffset uint32
	BitSize   uint32
	Mode      Mode
	Base      Base
	Var       *Variable
	Index     int
}

// BitAddress is the absolute position of the first bit.
func (e Entry) BitAddress() uint64 { return e.Address*8 + uint64(e.BitOffset) }

// ByteLen is the number of bytes spanned by the field starting at Address.
func (e Entry) ByteLen() int { return int((e.BitOffset + e.BitSize + 7) / 8) }

// whole reports whether the field covers every bit of its bytes.
func (e Entry) whole() bool { return e.BitOffset == 0 && e.BitSize%8 == 0 }

// LinkEntry is one derived variable with resolved dependency paths.
type LinkEntry struct {
	Path         string
	Link         *LinkedVariable
	Dependencies []string
}

// AddressMap is the flat (address, bit offset, width, mode) table of a tree.
type AddressMap struct {
	Root    *Device
	Entries []Entry // sorted by bit address, then path
	Links   []LinkEntry

	byPath map[string]int
	links  map[string]int
}

// Flatten walks root and produces its address map.
func Flatten(root *Device) *AddressMap {
	m := &AddressMap{
		Root:   root,
		byPath: make(map[string]int),
		links:  make(map[string]int),
	}

	_ = root.Walk(func(d *Device) error {
		base := d.Address()
		for _, v := range d.vars {
			for i := 0; i < v.Elements(); i++ {
				pos := base*8 + v.bitPos(i)
				m.Entries = append(m.Entries, Entry{
					Path:      v.Path(i),
					Address:   pos / 8,
					BitOffset: uint32(pos % 8),
					BitSize:   v.BitSize,
					Mode:      v.Mode,
					Base:      v.Base,
					Var:       v,
					Index:     i,
				})
			}
		}
		for _, l := range d.links {
			le := LinkEntry{Path: l.Path(), Link: l}
			for _, dep := range l.Dependencies {
				le.Dependencies = append(le.Dependencies, dep.Path())
			}
			m.Links = append(m.Links, le)
		}
		return nil
	})

	sort.SliceStable(m.Entries, func(i, j int) bool {
		a, b := m.Entries[i], m.Entries[j]
		if a.BitAddress() != b.BitAddress() {
			return a.BitAddress() < b.BitAddress()
		}
		return a.Path < b.Path
	})
	for i, e := range m.Entries {
		m.byPath[e.Path] = i
	}
	for i, l := range m.Links {
		m.links[l.Path] = i
	}
	return m
}

// Lookup returns the entry at path.
func (m *AddressMap) Lookup(path string) (Entry, bool) {
	i, ok := m.byPath[path]
	if !ok {
		return Entry{}, false
	}
	return m.Entries[i], true
}

// LookupLink returns the derived variable at path.
func (m *AddressMap) LookupLink(path string) (LinkEntry, bool) {
	i, ok := m.links[path]
	if !ok {
		return LinkEntry{}, false
	}
	return m.Links[i], true
}

// Readable returns the readable entries of enabled devices.
func (m *AddressMap) Readable() []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.Mode.CanRead() && e.Var.dev.Enabled() {
			out = append(out, e)
		}
	}
	return out
}

// Shared returns the other entries occupying any byte of e.
func (m *AddressMap) Shared(e Entry) []Entry {
	lo, hi := e.Address, e.Address+uint64(e.ByteLen())
	var out []Entry
	for _, n := range m.Entries {
		if n.Path == e.Path {
			continue
		}
		if n.Address < hi && lo < n.Address+uint64(n.ByteLen()) {
			out = append(out, n)
		}
	}
	return out
}

// Write stores raw into e without disturbing the entries sharing its bytes.
// The byte span is read back when e or a neighbour is readable. Write-only
// neighbours cannot be read back, so their bits come from sh; a neighbour
// sh has never seen is written as zero.
func (m *AddressMap) Write(mem Memory, e Entry, raw []byte, sh *Shadow) error {
	if !e.Mode.CanWrite() {
		return fmt.Errorf("regmap: %s: %w (%s)", e.Path, ErrNotWritable, e.Mode)
	}
	shared := m.Shared(e)
	if e.whole() || len(shared) == 0 {
		return Write(mem, e, raw)
	}

	buf := make([]byte, e.ByteLen())
	readBack := e.Mode.CanRead()
	for _, n := range shared {
		readBack = readBack || n.Mode.CanRead()
	}
	if readBack {
		if err := mem.ReadAt(buf, e.Address); err != nil {
			return fmt.Errorf("regmap: %s: read 0x%x: %w", e.Path, e.Address, err)
		}
	}
	for _, n := range shared {
		if n.Mode.CanRead() {
			continue
		}
		var v []byte
		if sh != nil {
			v, _ = sh.Load(n.Path)
		}
		overlay(buf, e.Address, n, v)
	}

	Insert(buf, e.BitOffset, e.BitSize, raw)
	if err := mem.WriteAt(buf, e.Address); err != nil {
		return fmt.Errorf("regmap: %s: write 0x%x: %w", e.Path, e.Address, err)
	}
	return nil
}

// overlay inserts the bits of n that fall inside buf, which starts at byte base.
func overlay(buf []byte, base uint64, n Entry, val []byte) {
	start := int64(n.BitAddress()) - int64(base*8)
	limit := int64(len(buf) * 8)
	for i := int64(0); i < int64(n.BitSize); i++ {
		dst := start + i
		if dst < 0 || dst >= limit {
			continue
		}
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
