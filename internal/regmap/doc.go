// Package regmap models bit-addressed register maps.
//
// A Device is a node at a fixed byte offset inside its parent. It owns
// Variables (register fields) and LinkedVariables (values computed from
// other fields). Flatten turns a device tree into an AddressMap: one Entry
// per leaf element with its absolute byte address, bit offset, width and
// access mode. That table is the wire contract with the firmware.
//
// Nothing in this package performs I/O on its own. Read and Write move
// single entries through a Memory; Shadow keeps the last known values so
// linked variables never trigger hardware traffic.
package regmap
