// internal/export/export.go
package export

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/tamzrod/fpga-regmap/internal/regmap"
)

// Format names an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// Record is one row of the exported address map.
// Fields have Kind "field"; derived values have Kind "link".
type Record struct {
	Path        string   `yaml:"path" cbor:"path"`
	Kind        string   `yaml:"kind" cbor:"kind"`
	Address     uint64   `yaml:"address,omitempty" cbor:"address,omitempty"`
	BitOffset   uint32   `yaml:"bit_offset,omitempty" cbor:"bit_offset,omitempty"`
	BitSize     uint32   `yaml:"bit_size,omitempty" cbor:"bit_size,omitempty"`
	Mode        string   `yaml:"mode,omitempty" cbor:"mode,omitempty"`
	Base        string   `yaml:"base,omitempty" cbor:"base,omitempty"`
	Units       string   `yaml:"units,omitempty" cbor:"units,omitempty"`
	Description string   `yaml:"description,omitempty" cbor:"description,omitempty"`
	Hidden      bool     `yaml:"hidden,omitempty" cbor:"hidden,omitempty"`
	Depends     []string `yaml:"depends,omitempty" cbor:"depends,omitempty"`
}

// Document is the YAML and CBOR top level.
type Document struct {
	Root    string   `yaml:"root" cbor:"root"`
	Size    uint64   `yaml:"size" cbor:"size"`
	Records []Record `yaml:"records" cbor:"records"`
}

// Records lists the map in address order followed by derived values.
// Hidden items are skipped unless all is set.
func Records(m *regmap.AddressMap, all bool) []Record {
	var out []Record
	for _, e := range m.Entries {
		h := e.Var.Hidden || !e.Var.Device().Visible()
		if h && !all {
			continue
		}
		out = append(out, Record{
			Path:        e.Path,
			Kind:        "field",
			Address:     e.Address,
			BitOffset:   e.BitOffset,
			BitSize:     e.BitSize,
			Mode:        e.Mode.String(),
			Base:        e.Base.String(),
			Units:       e.Var.Units,
			Description: e.Var.Description,
			Hidden:      h,
		})
	}
	for _, l := range m.Links {
		h := l.Link.Hidden || !l.Link.Device().Visible()
		if h && !all {
			continue
		}
		out = append(out, Record{
			Path:        l.Path,
			Kind:        "link",
			Mode:        regmap.RO.String(),
			Units:       l.Link.Units,
			Description: l.Link.Description,
			Hidden:      h,
			Depends:     l.Dependencies,
		})
	}
	return out
}

func document(m *regmap.AddressMap, all bool) Document {
	return Document{
		Root:    m.Root.Name(),
		Size:    m.Root.Size(),
		Records: Records(m, all),
	}
}

// Write encodes m to w in format f.
func Write(w io.Writer, m *regmap.AddressMap, f Format, all bool) error {
	switch f {
	case FormatText, "":
		return Text(w, m, all)
	case FormatYAML:
		return YAML(w, m, all)
	case FormatCBOR:
		return CBOR(w, m, all)
	}
	return fmt.Errorf("export: unknown format %q", f)
}

// Text writes an aligned table, one line per record.
func Text(w io.Writer, m *regmap.AddressMap, all bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tBITS\tMODE\tBASE\tPATH\tUNITS")
	for _, r := range Records(m, all) {
		if r.Kind == "link" {
			fmt.Fprintf(tw, "-\t-\t%s\tlink\t%s\t%s\n", r.Mode, r.Path, r.Units)
			continue
		}
		fmt.Fprintf(tw, "0x%08x\t%s\t%s\t%s\t%s\t%s\n",
			r.Address, bitRange(r.BitOffset, r.BitSize), r.Mode, r.Base, r.Path, r.Units)
	}
	return tw.Flush()
}

// bitRange renders the field bits relative to its first byte, msb:lsb.
func bitRange(off, size uint32) string {
	if size == 1 {
		return fmt.Sprintf("%d", off)
	}
	return fmt.Sprintf("%d:%d", off+size-1, off)
}

// YAML writes the map as a YAML document.
func YAML(w io.Writer, m *regmap.AddressMap, all bool) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document(m, all)); err != nil {
		return fmt.Errorf("export: yaml: %w", err)
	}
	return enc.Close()
}

var cborMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// CBOR writes the map as one canonical CBOR item. Equal maps encode to
// identical bytes.
func CBOR(w io.Writer, m *regmap.AddressMap, all bool) error {
	b, err := cborMode.Marshal(document(m, all))
	if err != nil {
		return fmt.Errorf("export: cbor: %w", err)
	}
	_, err = w.Write(b)
	return err
}

// DecodeCBOR reads a document written by CBOR.
func DecodeCBOR(b []byte) (Document, error) {
	var d Document
	if err := cbor.Unmarshal(b, &d); err != nil {
		return Document{}, fmt.Errorf("export: cbor: %w", err)
	}
	return d, nil
}
