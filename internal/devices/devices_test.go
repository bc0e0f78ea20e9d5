// internal/devices/devices_test.go
package devices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/tamzrod/fpga-regmap/internal/config"
	"github.com/tamzrod/fpga-regmap/internal/regmap"
)

// assertChildrenDisjoint checks every composite in the tree: direct
// children occupy non-overlapping byte ranges.
func assertChildrenDisjoint(t *testing.T, root *regmap.Device) {
	t.Helper()
	_ = root.Walk(func(d *regmap.Device) error {
		kids := d.Children()
		for i := range kids {
			for j := i + 1; j < len(kids); j++ {
				a, b := kids[i], kids[j]
				as, ae := a.Offset(), a.Offset()+a.Size()
				bs, be := b.Offset(), b.Offset()+b.Size()
				assert.False(t, as < be && bs < ae, "%s overlaps %s", a.Path(), b.Path())
			}
		}
		return nil
	})
}

func TestVersion_Layout(t *testing.T) {
	d, err := NewVersion(Node{})
	require.NoError(t, err)

	m := regmap.Flatten(d)
	e, ok := m.Lookup("Version.ScratchPad")
	require.True(t, ok)
	assert.Equal(t, uint64(0x004), e.Address)
	assert.Equal(t, regmap.RW, e.Mode)

	e, ok = m.Lookup("Version.GitHash[4]")
	require.True(t, ok)
	assert.Equal(t, uint64(0x610), e.Address)

	e, ok = m.Lookup("Version.BuildStamp")
	require.True(t, ok)
	assert.Equal(t, regmap.String, e.Base)
	assert.Equal(t, 256, e.ByteLen())
}

func TestTransceiver_Pages(t *testing.T) {
	d, err := NewTransceiver(TransceiverConfig{Node: Node{Offset: 0x4000}})
	require.NoError(t, err)
	assertChildrenDisjoint(t, d)

	var offsets []uint64
	for _, c := range d.Children() {
		offsets = append(offsets, c.Offset())
	}
	assert.Equal(t, []uint64{0x000, 0x200, 0x400, 0x600}, offsets)

	m := regmap.Flatten(d)
	// module byte 148 is the first vendor name character in page 00
	e, ok := m.Lookup("Transceiver.Page00.VendorNameRaw[00]")
	require.True(t, ok)
	assert.Equal(t, uint64(0x4000+0x200+(148-128)*4), e.Address)

	// write protection is forwarded to the pages
	e, ok = m.Lookup("Transceiver.Lower.TxDisable")
	require.True(t, ok)
	assert.Equal(t, regmap.RO, e.Mode)
	e, ok = m.Lookup("Transceiver.Page02.UserEeprom[127]")
	require.True(t, ok)
	assert.Equal(t, regmap.RO, e.Mode)

	rw, err := NewTransceiver(TransceiverConfig{WriteEnable: true})
	require.NoError(t, err)
	e, ok = regmap.Flatten(rw).Lookup("Transceiver.Page03.TempHighAlarmMsb")
	require.True(t, ok)
	assert.Equal(t, regmap.RW, e.Mode)
}

func TestTransceiver_Links(t *testing.T) {
	d, err := NewTransceiver(TransceiverConfig{})
	require.NoError(t, err)

	sh := regmap.NewShadow()
	sh.Store("Transceiver.Lower.TempMsb", []byte{0x1E})
	sh.Store("Transceiver.Lower.TempLsb", []byte{0x40})
	sh.Store("Transceiver.Lower.VccMsb", []byte{0x80})
	sh.Store("Transceiver.Lower.VccLsb", []byte{0xE8})

	lower := d.Child("Lower")
	got, err := lower.Link("Temperature").Display(sh)
	require.NoError(t, err)
	assert.Equal(t, "30.25", got)

	got, err = lower.Link("Vcc").Display(sh)
	require.NoError(t, err)
	assert.Equal(t, "3.300", got)

	page00 := d.Child("Page00")
	for i, c := range []byte("ACME OPTICS     ") {
		sh.Store(regmap.ElementName("Transceiver.Page00.VendorNameRaw", i, 16), []byte{c})
	}
	got, err = page00.Link("VendorName").Display(sh)
	require.NoError(t, err)
	assert.Equal(t, "ACME OPTICS", got)
}

func TestEth_Composite(t *testing.T) {
	d, err := NewEth(EthConfig{ReadOnly: true, Counters: 8})
	require.NoError(t, err)
	assertChildrenDisjoint(t, d)

	mac := d.Child("Mac")
	require.NotNil(t, mac)
	assert.Equal(t, regmap.RO, mac.Variable("MacAddress").Mode)
	assert.Equal(t, 8, mac.Variable("StatusCounters").Count)
	assert.Equal(t, uint64(0x1000), d.Child("Phy").Offset())

	m := regmap.Flatten(d)
	e, ok := m.Lookup("Eth.Mac.MacAddress")
	require.True(t, ok)
	assert.Equal(t, "02:00:5e:10:00:01", regmap.Format(e, regmap.Bytes(0x02005e100001, 48)))

	raw, err := regmap.Parse(e, "02:00:5e:10:00:01")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x02005e100001), regmap.Uint(raw))

	_, err = NewEth(EthConfig{Counters: maxCounters + 1})
	assert.ErrorIs(t, err, regmap.ErrInvalidParameter)
}

func TestMetadata_AliasedHalves(t *testing.T) {
	d, err := NewMetadataExchange(Node{})
	require.NoError(t, err)

	m := regmap.Flatten(d)
	tx, _ := m.Lookup("Metadata.TxMetaData")
	rx, _ := m.Lookup("Metadata.RxMetaData")
	assert.Equal(t, tx.Address, rx.Address)
	assert.Equal(t, regmap.WO, tx.Mode)
	assert.Equal(t, regmap.RO, rx.Mode)
}

func TestFirFilter_RequiresTaps(t *testing.T) {
	d, err := NewFirFilter(FirFilterConfig{Node: Node{Name: "Fir"}})
	require.Error(t, err)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, regmap.ErrMissingParameter)
	assert.Contains(t, err.Error(), "Fir")
}

func TestFirFilter_TapArray(t *testing.T) {
	d, err := NewFirFilter(FirFilterConfig{Taps: 16})
	require.NoError(t, err)

	taps := d.Variable("Taps")
	require.NotNil(t, taps)
	assert.Equal(t, 16, taps.Count)
	assert.Equal(t, "Taps[00]", taps.ElementName(0))
	assert.Equal(t, "Taps[15]", taps.ElementName(15))

	m := regmap.Flatten(d)
	var addrs []uint64
	for _, e := range m.Entries {
		if e.Var == taps {
			addrs = append(addrs, e.BitAddress())
		}
	}
	require.Len(t, addrs, 16)
	for i := 1; i < len(addrs); i++ {
		assert.Equal(t, uint64(taps.Stride), addrs[i]-addrs[i-1])
	}
}

func TestDac_Voltage(t *testing.T) {
	d, err := NewDac(DacConfig{Channels: 2})
	require.NoError(t, err)

	sh := regmap.NewShadow()
	sh.Store("Dac.Code[0]", regmap.Bytes(0, 16))
	sh.Store("Dac.Code[1]", regmap.Bytes(21845, 16))

	got, err := d.Link("Voltage[0]").Display(sh)
	require.NoError(t, err)
	assert.Equal(t, "0.000", got)

	got, err = d.Link("Voltage[1]").Display(sh)
	require.NoError(t, err)
	assert.Equal(t, "1.000", got)

	assert.InDelta(t, 0.99998, DacVoltage(21845, 3.0), 1e-5)
}

func TestBuild_Tree(t *testing.T) {
	rm := cfg.RegmapConfig{
		Name: "Board",
		Devices: []cfg.DeviceConfig{
			{Kind: cfg.KindVersion, Offset: 0x0000},
			{Kind: cfg.KindTransceiver, Offset: 0x1000},
			{Kind: cfg.KindEth, Offset: 0x2000},
			{Kind: cfg.KindMetadata, Offset: 0x4000},
			{Kind: cfg.KindGroup, Name: "Dsp", Offset: 0x10000, Devices: []cfg.DeviceConfig{
				{Kind: cfg.KindFirFilter, Taps: 32},
				{Kind: cfg.KindDac, Offset: 0x1000, Channels: 4},
			}},
		},
	}

	root, err := Build(rm)
	require.NoError(t, err)
	assertChildrenDisjoint(t, root)

	m := regmap.Flatten(root)
	e, ok := m.Lookup("Board.Dsp.FirFilter.Taps[31]")
	require.True(t, ok)
	assert.Equal(t, uint64(0x10000+0x100+31*4), e.Address)

	_, ok = m.LookupLink("Board.Dsp.Dac.Voltage[3]")
	assert.True(t, ok)
}

func TestBuild_OverlapRejected(t *testing.T) {
	rm := cfg.RegmapConfig{
		Devices: []cfg.DeviceConfig{
			{Kind: cfg.KindVersion, Offset: 0x0000},
			{Kind: cfg.KindDac, Offset: 0x0800},
		},
	}
	_, err := Build(rm)
	assert.ErrorIs(t, err, regmap.ErrOverlap)
}

func TestBuild_MissingTapsNamesPath(t *testing.T) {
	rm := cfg.RegmapConfig{
		Name: "Board",
		Devices: []cfg.DeviceConfig{
			{Kind: cfg.KindGroup, Name: "Dsp", Devices: []cfg.DeviceConfig{
				{Kind: cfg.KindFirFilter, Name: "Fir"},
			}},
		},
	}
	_, err := Build(rm)
	require.ErrorIs(t, err, regmap.ErrMissingParameter)
	assert.Contains(t, err.Error(), "Board.Dsp.Fir")
}
