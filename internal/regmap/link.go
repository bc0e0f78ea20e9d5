// internal/regmap/link.go
package regmap

import "fmt"

// Ref names one element of a Variable.
type Ref struct {
	Var   *Variable
	Index int
}

// Path returns the dotted path of the referenced element.
func (r Ref) Path() string { return r.Var.Path(r.Index) }

// Refs returns a Ref for every element of v, in index order.
func Refs(v *Variable) []Ref {
	out := make([]Ref, v.Elements())
	for i := range out {
		out[i] = Ref{Var: v, Index: i}
	}
	return out
}

// Source supplies the last known raw value of an element.
// Implementations must not touch hardware.
type Source interface {
	Raw(path string) (uint64, error)
}

// LinkFunc computes a derived value from raw dependency values,
// given in declaration order. It must be pure.
type LinkFunc func(raw []uint64) (any, error)

// LinkedVariable is a value derived from other variables.
type LinkedVariable struct {
	Name         string
	Description  string
	Units        string
	Disp         string
	Dependencies []Ref
	Value        LinkFunc
	Hidden       bool

	dev *Device
}

func (l *LinkedVariable) validate() error {
	if l.Name == "" {
		return fmt.Errorf("%w: link name required", ErrInvalidVariable)
	}
	if l.Value == nil {
		return fmt.Errorf("%w: %s: value function required", ErrInvalidVariable, l.Name)
	}
	if len(l.Dependencies) == 0 {
		return fmt.Errorf("%w: %s: at least one dependency required", ErrInvalidVariable, l.Name)
	}
	for _, d := range l.Dependencies {
		if d.Var == nil || d.Var.dev == nil {
			return fmt.Errorf("%w: %s: dependency not registered", ErrInvalidVariable, l.Name)
		}
		if d.Index < 0 || d.Index >= d.Var.Elements() {
			return fmt.Errorf("%w: %s: dependency %s index %d out of range", ErrInvalidVariable, l.Name, d.Var.Name, d.Index)
		}
		if !d.Var.Mode.CanRead() {
			return fmt.Errorf("%w: %s: dependency %s is %s", ErrNotReadable, l.Name, d.Var.Name, d.Var.Mode)
		}
		if d.Var.Base == String {
			return fmt.Errorf("%w: %s: dependency %s is a string field", ErrInvalidVariable, l.Name, d.Var.Name)
		}
	}
	return nil
}

// Device returns the owning device.
func (l *LinkedVariable) Device() *Device { return l.dev }

// Path returns the full dotted path.
func (l *LinkedVariable) Path() string {
	if l.dev == nil {
		return l.Name
	}
	return l.dev.Path() + "." + l.Name
}

// Compute reads every dependency from src and applies the value function.
// A dependency failure is returned wrapped; no default is substituted.
func (l *LinkedVariable) Compute(src Source) (any, error) {
	raw := make([]uint64, len(l.Dependencies))
	for i, d := range l.Dependencies {
		v, err := src.Raw(d.Path())
		if err != nil {
			return nil, fmt.Errorf("regmap: %s: dependency %s: %w", l.Path(), d.Path(), err)
		}
		raw[i] = v
	}
	return l.Value(raw)
}

// Display computes the value and renders it with Disp.
func (l *LinkedVariable) Display(src Source) (string, error) {
	v, err := l.Compute(src)
	if err != nil {
		return "", err
	}
	if l.Disp != "" {
		return fmt.Sprintf(l.Disp, v), nil
	}
	return fmt.Sprint(v), nil
}
