// internal/regmap/device.go
package regmap

import (
	"fmt"
	"strings"
)

// DeviceConfig is the identity of one node in the address tree.
type DeviceConfig struct {
	Name        string
	Description string
	Offset      uint64 // bytes, relative to parent
	Window      uint64 // declared address window; 0 = derived from contents
	Hidden      bool
	Disabled    bool
}

// Device is a named node in the address-mapped tree.
// Children and variables are only added during construction.
type Device struct {
	name        string
	description string
	offset      uint64
	window      uint64
	hidden      bool
	enabled     bool

	parent   *Device
	children []*Device
	vars     []*Variable
	links    []*LinkedVariable
	names    map[string]struct{}
}

// NewDevice creates an empty device.
func NewDevice(cfg DeviceConfig) (*Device, error) {
	if cfg.Name == "" {
		return nil, &ConfigError{Err: fmt.Errorf("%w: device name", ErrMissingParameter)}
	}
	if strings.ContainsAny(cfg.Name, ".[]") {
		return nil, &ConfigError{Path: cfg.Name, Err: fmt.Errorf("%w: device name must not contain '.', '[' or ']'", ErrInvalidParameter)}
	}
	return &Device{
		name:        cfg.Name,
		description: cfg.Description,
		offset:      cfg.Offset,
		window:      cfg.Window,
		hidden:      cfg.Hidden,
		enabled:     !cfg.Disabled,
		names:       make(map[string]struct{}),
	}, nil
}

func (d *Device) Name() string { return d.name }
func (d *Device) Description() string { return d.description }
func (d *Device) Offset() uint64 { return d.offset }
func (d *Device) Hidden() bool { return d.hidden }
func (d *Device) Parent() *Device { return d.parent }

// Enabled reports whether d and all of its ancestors are enabled.
func (d *Device) Enabled() bool {
	for n := d; n != nil; n = n.parent {
		if !n.enabled {
			return false
		}
	}
	return true
}

// Visible reports whether neither d nor any ancestor is hidden.
func (d *Device) Visible() bool {
	for n := d; n != nil; n = n.parent {
		if n.hidden {
			return false
		}
	}
	return true
}

// Path returns the dotted path from the root.
func (d *Device) Path() string {
	if d.parent == nil {
		return d.name
	}
	return d.parent.Path() + "." + d.name
}

// Address returns the absolute byte address of the device base.
func (d *Device) Address() uint64 {
	if d.parent == nil {
		return d.offset
	}
	return d.parent.Address() + d.offset
}

// Size returns the byte extent of the device: its declared window or
// the furthest byte used by a variable or child, whichever is larger.
func (d *Device) Size() uint64 {
	size := d.window
	for _, v := range d.vars {
		if e := v.endByte(); e > size {
			size = e
		}
	}
	for _, c := range d.children {
		if e := c.offset + c.Size(); e > size {
			size = e
		}
	}
	return size
}

func (d *Device) Children() []*Device { return d.children }
func (d *Device) Variables() []*Variable { return d.vars }
func (d *Device) LinkedVariables() []*LinkedVariable { return d.links }

// Child returns the direct child called name.
func (d *Device) Child(name string) *Device {
	for _, c := range d.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Variable returns the variable called name.
func (d *Device) Variable(name string) *Variable {
	for _, v := range d.vars {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Link returns the linked variable called name.
func (d *Device) Link(name string) *LinkedVariable {
	for _, l := range d.links {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// Walk visits d and its descendants depth first.
func (d *Device) Walk(fn func(*Device) error) error {
	if err := fn(d); err != nil {
		return err
	}
	for _, c := range d.children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) errorf(err error) error {
	return &ConfigError{Path: d.Path(), Err: err}
}

func (d *Device) claim(name string) error {
	if _, exists := d.names[name]; exists {
		return d.errorf(fmt.Errorf("%w: %s", ErrDuplicateName, name))
	}
	d.names[name] = struct{}{}
	return nil
}

// Add registers variables in order. It stops at the first invalid one.
func (d *Device) Add(vars ...*Variable) error {
	for _, v := range vars {
		if err := d.addVariable(v); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) addVariable(v *Variable) error {
	if err := v.validate(); err != nil {
		return d.errorf(err)
	}
	if v.dev != nil {
		return d.errorf(fmt.Errorf("%w: %s already belongs to %s", ErrInvalidVariable, v.Name, v.dev.Path()))
	}
	if d.window > 0 && v.endByte() > d.window {
		return d.errorf(fmt.Errorf("%w: %s ends at 0x%x beyond window 0x%x", ErrOverlap, v.Name, v.endByte(), d.window))
	}

	// ---- bit range check against siblings ----
	for _, w := range d.vars {
		if v.Overlap || w.Overlap {
			continue
		}
		if i, j, ok := overlaps(v, w); ok {
			return d.errorf(fmt.Errorf("%w: %s overlaps %s", ErrOverlap, v.ElementName(i), w.ElementName(j)))
		}
	}
	vs, ve := v.Offset, v.endByte()
	for _, c := range d.children {
		cs, ce := c.offset, c.offset+c.Size()
		if vs < ce && cs < ve {
			return d.errorf(fmt.Errorf("%w: %s overlaps device %s", ErrOverlap, v.Name, c.name))
		}
	}

	if err := d.claim(v.Name); err != nil {
		return err
	}
	v.dev = d
	d.vars = append(d.vars, v)
	return nil
}

// AddLink registers derived variables.
func (d *Device) AddLink(links ...*LinkedVariable) error {
	for _, l := range links {
		if err := l.validate(); err != nil {
			return d.errorf(err)
		}
		if l.dev != nil {
			return d.errorf(fmt.Errorf("%w: link %s already registered", ErrInvalidVariable, l.Name))
		}
		if err := d.claim(l.Name); err != nil {
			return err
		}
		l.dev = d
		d.links = append(d.links, l)
	}
	return nil
}

// AddDevice attaches a fully built child at its own offset.
// The child's extent must not overlap siblings or variables of d.
func (d *Device) AddDevice(c *Device) error {
	if c.parent != nil {
		return d.errorf(fmt.Errorf("%w: device %s already attached to %s", ErrInvalidParameter, c.name, c.parent.Path()))
	}
	cs, ce := c.offset, c.offset+c.Size()
	if d.window > 0 && ce > d.window {
		return d.errorf(fmt.Errorf("%w: device %s ends at 0x%x beyond window 0x%x", ErrOverlap, c.name, ce, d.window))
	}
	for _, s := range d.children {
		ss, se := s.offset, s.offset+s.Size()
		if cs < se && ss < ce {
			return d.errorf(fmt.Errorf(
				"%w: device %s [0x%x-0x%x) overlaps device %s [0x%x-0x%x)",
				ErrOverlap, c.name, cs, ce, s.name, ss, se,
			))
		}
	}
	for _, v := range d.vars {
		if v.Offset < ce && cs < v.endByte() {
			return d.errorf(fmt.Errorf("%w: device %s overlaps %s", ErrOverlap, c.name, v.Name))
		}
	}
	if err := d.claim(c.name); err != nil {
		return err
	}
	c.parent = d
	d.children = append(d.children, c)
	return nil
}

// overlaps reports the first pair of overlapping elements of a and b.
// Elements of one variable are ordered, so a merge walk is enough.
func overlaps(a, b *Variable) (int, int, bool) {
	i, j := 0, 0
	na, nb := a.Elements(), b.Elements()
	for i < na && j < nb {
		as := a.bitPos(i)
		ae := as + uint64(a.BitSize)
		bs := b.bitPos(j)
		be := bs + uint64(b.BitSize)
		if as < be && bs < ae {
			return i, j, true
		}
		if ae <= bs {
			i++
		} else {
			j++
		}
	}
	return 0, 0, false
}
