// internal/devices/metadata.go
package devices

import "github.com/tamzrod/fpga-regmap/internal/regmap"

// NewMetadataExchange declares the host/firmware metadata mailbox.
// Offset 0x00 is one address with two halves: writes go to the
// outbound register, reads return the inbound one.
func NewMetadataExchange(n Node) (*regmap.Device, error) {
	d, err := n.device("Metadata", "Metadata exchange mailbox", 0x10)
	if err != nil {
		return nil, err
	}
	err = d.Add(
		&regmap.Variable{
			Name: "TxMetaData", Description: "Outbound metadata word",
			Offset: 0x00, BitSize: 64, Mode: regmap.WO, Disp: "%#016x", Overlap: true,
		},
		&regmap.Variable{
			Name: "RxMetaData", Description: "Inbound metadata word",
			Offset: 0x00, BitSize: 64, Mode: regmap.RO, Disp: "%#016x", Overlap: true,
		},
		&regmap.Variable{
			Name: "TxBusy", Offset: 0x08, BitSize: 1, Base: regmap.Bool, Mode: regmap.RO,
		},
		&regmap.Variable{
			Name: "RxValid", Offset: 0x08, BitOffset: 1, BitSize: 1, Base: regmap.Bool, Mode: regmap.RO,
		},
		&regmap.Variable{
			Name: "RxAck", Description: "Release RxMetaData",
			Offset: 0x0C, BitSize: 1, Base: regmap.Bool, Mode: regmap.WO,
		},
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}
