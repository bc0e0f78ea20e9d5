// internal/devices/version.go
package devices

import "github.com/tamzrod/fpga-regmap/internal/regmap"

// Version block layout. Offsets are fixed by firmware.
const versionWindow = 0x1000

// NewVersion declares the firmware identification and reload block.
func NewVersion(n Node) (*regmap.Device, error) {
	d, err := n.device("Version", "Firmware version and reload control", versionWindow)
	if err != nil {
		return nil, err
	}

	err = d.Add(
		&regmap.Variable{
			Name: "FpgaVersion", Description: "Firmware version number",
			Offset: 0x000, BitSize: 32, Mode: regmap.RO, Disp: "%#08x",
		},
		&regmap.Variable{
			Name: "ScratchPad", Description: "Register to test reads and writes",
			Offset: 0x004, BitSize: 32, Mode: regmap.RW, Disp: "%#08x",
		},
		&regmap.Variable{
			Name: "UpTime", Description: "Seconds since last reset",
			Offset: 0x008, BitSize: 32, Mode: regmap.RO, Units: "s",
		},
		&regmap.Variable{
			Name: "FpgaReloadHalt", Description: "Inhibit firmware reload",
			Offset: 0x100, BitSize: 1, Base: regmap.Bool, Mode: regmap.RW,
		},
		&regmap.Variable{
			Name: "FpgaReload", Description: "Reload firmware from FpgaReloadAddress",
			Offset: 0x104, BitSize: 1, Base: regmap.Bool, Mode: regmap.WO, Hidden: true,
		},
		&regmap.Variable{
			Name: "FpgaReloadAddress", Description: "PROM address used by FpgaReload",
			Offset: 0x108, BitSize: 32, Mode: regmap.RW, Disp: "%#08x",
		},
		&regmap.Variable{
			Name: "UserReset", Description: "Pulse the user logic reset",
			Offset: 0x10C, BitSize: 1, Base: regmap.Bool, Mode: regmap.WO, Hidden: true,
		},
		&regmap.Variable{
			Name: "DeviceDna", Description: "Silicon unique identifier",
			Offset: 0x300, BitSize: 64, Mode: regmap.RO, Disp: "%#016x",
		},
		&regmap.Variable{
			Name: "DeviceId", Description: "Board-level device identifier",
			Offset: 0x500, BitSize: 32, Mode: regmap.RO, Disp: "%#08x",
		},
		&regmap.Variable{
			Name: "GitHash", Description: "Source revision, least significant word first",
			Offset: 0x600, BitSize: 32, Count: 5, Stride: 32, Mode: regmap.RO, Disp: "%08x",
		},
		&regmap.Variable{
			Name: "BuildStamp", Description: "Build host, user and date",
			Offset: 0x800, BitSize: 256 * 8, Base: regmap.String, Mode: regmap.RO,
		},
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}
