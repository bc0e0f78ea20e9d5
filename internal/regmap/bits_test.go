// internal/regmap/bits_test.go
package regmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractInsert(t *testing.T) {
	buf := []byte{0xF0, 0x0F}

	assert.Equal(t, []byte{0xFF}, Extract(buf, 4, 8))
	assert.Equal(t, []byte{0x00}, Extract(buf, 0, 4))

	Insert(buf, 4, 8, []byte{0xA5})
	assert.Equal(t, []byte{0x50, 0x0A}, buf)
}

func TestUintBytes(t *testing.T) {
	assert.Equal(t, uint64(0x0102), Uint([]byte{0x02, 0x01}))
	assert.Equal(t, []byte{0x34, 0x12, 0x00}, Bytes(0x1234, 20))
}

func flatOne(t *testing.T, v *Variable) (*Image, Entry) {
	t.Helper()
	d := mustDevice(t, "Dev", 0x10)
	require.NoError(t, d.Add(v))
	m := Flatten(d)
	require.Len(t, m.Entries, 1)
	return NewImage(0x40), m.Entries[0]
}

func TestReadWrite_ReadModifyWrite(t *testing.T) {
	mem, e := flatOne(t, &Variable{Name: "Field", Offset: 4, BitOffset: 12, BitSize: 6})
	require.NoError(t, mem.WriteAt([]byte{0xFF, 0xFF, 0xFF, 0xFF}, 0x14))

	require.NoError(t, Write(mem, e, []byte{0x00}))

	buf := make([]byte, 4)
	require.NoError(t, mem.ReadAt(buf, 0x14))
	assert.Equal(t, []byte{0xFF, 0x0F, 0xFC, 0xFF}, buf)

	require.NoError(t, Write(mem, e, []byte{0x2A}))
	raw, err := Read(mem, e)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2A), Uint(raw))
}

func TestReadWrite_ModeEnforced(t *testing.T) {
	mem, ro := flatOne(t, &Variable{Name: "Status", BitSize: 8, Mode: RO})
	assert.ErrorIs(t, Write(mem, ro, []byte{1}), ErrNotWritable)

	mem, wo := flatOne(t, &Variable{Name: "Cmd", BitSize: 8, Mode: WO})
	_, err := Read(mem, wo)
	assert.ErrorIs(t, err, ErrNotReadable)
}

func TestAddressMap_WriteKeepsNeighbours(t *testing.T) {
	d := mustDevice(t, "Dev", 0)
	require.NoError(t, d.Add(
		&Variable{Name: "Low", BitSize: 4},
		&Variable{Name: "Wide", BitOffset: 4, BitSize: 8, Mode: WO},
		&Variable{Name: "Top", BitOffset: 12, BitSize: 8, Mode: WO},
	))
	m := Flatten(d)
	mem := NewImage(0x10)
	sh := NewShadow()
	require.NoError(t, mem.WriteAt([]byte{0x03}, 0))

	top, _ := m.Lookup("Dev.Top")
	wide, _ := m.Lookup("Dev.Wide")
	assert.Len(t, m.Shared(top), 1)
	assert.Len(t, m.Shared(wide), 2)

	require.NoError(t, m.Write(mem, top, []byte{0xAB}, sh))
	sh.Store(top.Path, []byte{0xAB})

	// write-only bits read back as zero
	require.NoError(t, mem.WriteAt([]byte{0x00}, 1))

	require.NoError(t, m.Write(mem, wide, []byte{0x5C}, sh))
	buf := make([]byte, 3)
	require.NoError(t, mem.ReadAt(buf, 0))
	assert.Equal(t, []byte{0xC3, 0xB5, 0x0A}, buf)
}

func TestParseMode(t *testing.T) {
	for s, want := range map[string]Mode{"RW": RW, "ro": RO, "WO": WO} {
		got, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("RX")
	assert.Error(t, err)
}

func TestImage_Bounds(t *testing.T) {
	mem := NewImage(8)
	assert.Error(t, mem.ReadAt(make([]byte, 4), 6))
	assert.NoError(t, mem.WriteAt([]byte{1, 2}, 6))
}
