// internal/devices/transceiver.go
package devices

import (
	"fmt"

	"github.com/tamzrod/fpga-regmap/internal/regmap"
)

// Transceiver management interface.
//
// The firmware exposes each module byte in the low 8 bits of a 32-bit
// word, so module byte b of a page lives at pageOffset + (b-pageBase)*4.
// Multi-byte quantities are split across words and rebuilt by links.

// ---- PAGE LAYOUT (fixed contract) ----

const (
	pageWindow = 0x200

	offsetLower  = 0x000
	offsetPage00 = 0x200
	offsetPage02 = 0x400
	offsetPage03 = 0x600

	lowerBase = 0   // lower page covers module bytes 0-127
	upperBase = 128 // upper pages cover module bytes 128-255

	lanes = 4
)

var identifiers = map[uint64]string{
	0x03: "SFP",
	0x0C: "QSFP",
	0x0D: "QSFP+",
	0x11: "QSFP28",
	0x18: "QSFP-DD",
}

// TransceiverConfig parameterizes NewTransceiver.
type TransceiverConfig struct {
	Node
	// WriteEnable allows writes to control bytes, thresholds and user EEPROM.
	WriteEnable bool
}

// NewTransceiver declares a four-page transceiver at fixed page offsets.
func NewTransceiver(cfg TransceiverConfig) (*regmap.Device, error) {
	d, err := cfg.device("Transceiver", "Pluggable optics management pages", 4*pageWindow)
	if err != nil {
		return nil, err
	}

	pages := []struct {
		build  func(uint64, bool) (*regmap.Device, error)
		offset uint64
	}{
		{newLowerPage, offsetLower},
		{newPage00, offsetPage00},
		{newPage02, offsetPage02},
		{newPage03, offsetPage03},
	}
	for _, p := range pages {
		pg, err := p.build(p.offset, cfg.WriteEnable)
		if err != nil {
			return nil, err
		}
		if err := d.AddDevice(pg); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// moduleByte declares one module byte at its word slot.
func moduleByte(name string, b, base int, mode regmap.Mode) *regmap.Variable {
	return &regmap.Variable{
		Name:    name,
		Offset:  uint64(b-base) * 4,
		BitSize: 8,
		Mode:    mode,
		Disp:    "%#02x",
	}
}

// moduleBit declares a single flag of a lower page byte.
func moduleBit(name string, b int, bit uint32, mode regmap.Mode) *regmap.Variable {
	return &regmap.Variable{
		Name:      name,
		Offset:    uint64(b-lowerBase) * 4,
		BitOffset: bit,
		BitSize:   1,
		Base:      regmap.Bool,
		Mode:      mode,
	}
}

// moduleBytes declares count consecutive module bytes as one array.
func moduleBytes(name string, b, base, count int, mode regmap.Mode) *regmap.Variable {
	v := moduleByte(name, b, base, mode)
	v.Count = count
	v.Stride = 32
	return v
}

// laneBytes declares one byte per lane for two-byte lane quantities.
func laneBytes(name string, b int, mode regmap.Mode) *regmap.Variable {
	v := moduleByte(name, b, lowerBase, mode)
	v.Count = lanes
	v.Stride = 64
	v.Hidden = true
	return v
}

func hidden(v *regmap.Variable) *regmap.Variable {
	v.Hidden = true
	return v
}

// scaled builds a link over a big-endian byte pair.
func scaled(name, units, disp string, hi, lo regmap.Ref, signed bool, scale float64) *regmap.LinkedVariable {
	return &regmap.LinkedVariable{
		Name:         name,
		Units:        units,
		Disp:         disp,
		Dependencies: []regmap.Ref{hi, lo},
		Value: func(raw []uint64) (any, error) {
			w := word(raw[0], raw[1])
			if signed {
				return float64(int16(w)) * scale, nil
			}
			return float64(w) * scale, nil
		},
	}
}

func page(name, desc string, offset uint64) (*regmap.Device, error) {
	return regmap.NewDevice(regmap.DeviceConfig{
		Name:        name,
		Description: desc,
		Offset:      offset,
		Window:      pageWindow,
	})
}

func newLowerPage(offset uint64, writeEnable bool) (*regmap.Device, error) {
	d, err := page("Lower", "Lower memory page", offset)
	if err != nil {
		return nil, err
	}

	id := moduleByte("Identifier", 0, lowerBase, regmap.RO)
	id.Base = regmap.Enum
	id.Enum = identifiers

	dataNotReady := moduleBit("DataNotReady", 2, 0, regmap.RO)
	flatMem := moduleBit("FlatMem", 2, 2, regmap.RO)

	rxLos := moduleByte("RxLos", 3, lowerBase, regmap.RO)
	rxLos.BitSize, rxLos.Disp = 4, "%#x"
	txLos := moduleByte("TxLos", 3, lowerBase, regmap.RO)
	txLos.BitOffset, txLos.BitSize, txLos.Disp = 4, 4, "%#x"

	tempMsb := hidden(moduleByte("TempMsb", 22, lowerBase, regmap.RO))
	tempLsb := hidden(moduleByte("TempLsb", 23, lowerBase, regmap.RO))
	vccMsb := hidden(moduleByte("VccMsb", 26, lowerBase, regmap.RO))
	vccLsb := hidden(moduleByte("VccLsb", 27, lowerBase, regmap.RO))

	rxPowerMsb := laneBytes("RxPowerMsb", 34, regmap.RO)
	rxPowerLsb := laneBytes("RxPowerLsb", 35, regmap.RO)
	txBiasMsb := laneBytes("TxBiasMsb", 42, regmap.RO)
	txBiasLsb := laneBytes("TxBiasLsb", 43, regmap.RO)

	txDisable := moduleByte("TxDisable", 86, lowerBase, writable(writeEnable))
	txDisable.BitSize, txDisable.Disp = 4, "%#x"
	pageSelect := moduleByte("PageSelect", 127, lowerBase, writable(writeEnable))

	if err := d.Add(
		id, dataNotReady, flatMem, rxLos, txLos,
		tempMsb, tempLsb, vccMsb, vccLsb,
		rxPowerMsb, rxPowerLsb, txBiasMsb, txBiasLsb,
		txDisable, pageSelect,
	); err != nil {
		return nil, err
	}

	links := []*regmap.LinkedVariable{
		scaled("Temperature", "degC", "%.2f", regmap.Ref{Var: tempMsb}, regmap.Ref{Var: tempLsb}, true, 1.0/256),
		scaled("Vcc", "V", "%.3f", regmap.Ref{Var: vccMsb}, regmap.Ref{Var: vccLsb}, false, 100e-6),
	}
	for i := 0; i < lanes; i++ {
		links = append(links,
			scaled(regmap.ElementName("RxPower", i, lanes), "mW", "%.4f",
				regmap.Ref{Var: rxPowerMsb, Index: i}, regmap.Ref{Var: rxPowerLsb, Index: i}, false, 0.1e-3),
			scaled(regmap.ElementName("TxBias", i, lanes), "mA", "%.3f",
				regmap.Ref{Var: txBiasMsb, Index: i}, regmap.Ref{Var: txBiasLsb, Index: i}, false, 2e-3),
		)
	}
	if err := d.AddLink(links...); err != nil {
		return nil, err
	}
	return d, nil
}

func newPage00(offset uint64, _ bool) (*regmap.Device, error) {
	d, err := page("Page00", "Serial ID page", offset)
	if err != nil {
		return nil, err
	}

	id := moduleByte("Identifier", 128, upperBase, regmap.RO)
	id.Base = regmap.Enum
	id.Enum = identifiers

	name := hidden(moduleBytes("VendorNameRaw", 148, upperBase, 16, regmap.RO))
	oui := moduleBytes("VendorOui", 165, upperBase, 3, regmap.RO)
	pn := hidden(moduleBytes("VendorPnRaw", 168, upperBase, 16, regmap.RO))
	rev := hidden(moduleBytes("VendorRevRaw", 184, upperBase, 2, regmap.RO))
	sn := hidden(moduleBytes("VendorSnRaw", 196, upperBase, 16, regmap.RO))
	date := hidden(moduleBytes("DateCodeRaw", 212, upperBase, 8, regmap.RO))

	if err := d.Add(id, name, oui, pn, rev, sn, date); err != nil {
		return nil, err
	}

	text := func(link string, v *regmap.Variable) *regmap.LinkedVariable {
		return &regmap.LinkedVariable{
			Name:         link,
			Description:  fmt.Sprintf("%s as text", v.Name),
			Dependencies: regmap.Refs(v),
			Value:        ascii,
		}
	}
	if err := d.AddLink(
		text("VendorName", name),
		text("VendorPn", pn),
		text("VendorRev", rev),
		text("VendorSn", sn),
		text("DateCode", date),
	); err != nil {
		return nil, err
	}
	return d, nil
}

func newPage02(offset uint64, writeEnable bool) (*regmap.Device, error) {
	d, err := page("Page02", "User EEPROM page", offset)
	if err != nil {
		return nil, err
	}
	if err := d.Add(moduleBytes("UserEeprom", 128, upperBase, 128, writable(writeEnable))); err != nil {
		return nil, err
	}
	return d, nil
}

func newPage03(offset uint64, writeEnable bool) (*regmap.Device, error) {
	d, err := page("Page03", "Alarm and warning thresholds", offset)
	if err != nil {
		return nil, err
	}

	mode := writable(writeEnable)
	vars := []*regmap.Variable{
		hidden(moduleByte("TempHighAlarmMsb", 128, upperBase, mode)),
		hidden(moduleByte("TempHighAlarmLsb", 129, upperBase, mode)),
		hidden(moduleByte("TempLowAlarmMsb", 130, upperBase, mode)),
		hidden(moduleByte("TempLowAlarmLsb", 131, upperBase, mode)),
		hidden(moduleByte("VccHighAlarmMsb", 144, upperBase, mode)),
		hidden(moduleByte("VccHighAlarmLsb", 145, upperBase, mode)),
		hidden(moduleByte("VccLowAlarmMsb", 146, upperBase, mode)),
		hidden(moduleByte("VccLowAlarmLsb", 147, upperBase, mode)),
	}
	if err := d.Add(vars...); err != nil {
		return nil, err
	}

	ref := func(i int) regmap.Ref { return regmap.Ref{Var: vars[i]} }
	if err := d.AddLink(
		scaled("TempHighAlarm", "degC", "%.2f", ref(0), ref(1), true, 1.0/256),
		scaled("TempLowAlarm", "degC", "%.2f", ref(2), ref(3), true, 1.0/256),
		scaled("VccHighAlarm", "V", "%.3f", ref(4), ref(5), false, 100e-6),
		scaled("VccLowAlarm", "V", "%.3f", ref(6), ref(7), false, 100e-6),
	); err != nil {
		return nil, err
	}
	return d, nil
}
