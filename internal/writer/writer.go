// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tamzrod/fpga-regmap/internal/regmap"
)

// endpointClient is the exact contract the writer uses.
type endpointClient interface {
	ReadAt(p []byte, addr uint64) error
	WriteAt(p []byte, addr uint64) error
}

type writerImpl struct {
	mu     sync.Mutex // serializes read-modify-write cycles
	m      *regmap.AddressMap
	mem    endpointClient
	shadow *regmap.Shadow
	log    *slog.Logger
}

// New creates a writer over mem. Every value read or written is
// recorded in shadow. A nil logger uses slog.Default().
func New(m *regmap.AddressMap, mem endpointClient, shadow *regmap.Shadow, log *slog.Logger) (Writer, error) {
	if m == nil {
		return nil, errors.New("writer: address map required")
	}
	if mem == nil {
		return nil, errors.New("writer: memory required")
	}
	if shadow == nil {
		return nil, errors.New("writer: shadow required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &writerImpl{m: m, mem: mem, shadow: shadow, log: log}, nil
}

func (w *writerImpl) entry(path string) (regmap.Entry, error) {
	e, ok := w.m.Lookup(path)
	if !ok {
		if _, isLink := w.m.LookupLink(path); isLink {
			return regmap.Entry{}, fmt.Errorf("writer: %s: %w (derived value)", path, regmap.ErrNotWritable)
		}
		return regmap.Entry{}, fmt.Errorf("writer: %s: %w", path, regmap.ErrNotFound)
	}
	if !e.Var.Device().Enabled() {
		return regmap.Entry{}, fmt.Errorf("writer: %s: device %s is disabled", path, e.Var.Device().Path())
	}
	return e, nil
}

// Write parses value for the field at path and stores it.
// Other fields sharing its bytes keep their values.
func (w *writerImpl) Write(path, value string) error {
	e, err := w.entry(path)
	if err != nil {
		return err
	}
	if !e.Mode.CanWrite() {
		return fmt.Errorf("writer: %s: %w (%s)", path, regmap.ErrNotWritable, e.Mode)
	}
	raw, err := regmap.Parse(e, value)
	if err != nil {
		return fmt.Errorf("writer: %w", err)
	}

	w.mu.Lock()
	err = w.m.Write(w.mem, e, raw, w.shadow)
	w.mu.Unlock()
	if err != nil {
		return fmt.Errorf("writer: %w", err)
	}

	w.shadow.Store(path, raw)
	w.log.Debug("field written", "path", path, "addr", fmt.Sprintf("%#x", e.Address), "value", regmap.Format(e, raw))
	return nil
}

// Apply writes every assignment in order. Failures do not stop the
// batch; they are joined into the returned error.
func (w *writerImpl) Apply(batch []Assignment) error {
	var errs []error
	for _, a := range batch {
		if err := w.Write(a.Path, a.Value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Read fetches the field at path and returns its display text.
// Derived values are computed from the shadow without touching memory.
func (w *writerImpl) Read(path string) (string, error) {
	if l, ok := w.m.LookupLink(path); ok {
		if d := l.Link.Device(); !d.Enabled() {
			return "", fmt.Errorf("writer: %s: device %s is disabled", path, d.Path())
		}
		v, err := l.Link.Display(w.shadow)
		if err != nil {
			return "", err
		}
		return withUnits(v, l.Link.Units), nil
	}

	e, err := w.entry(path)
	if err != nil {
		return "", err
	}

	w.mu.Lock()
	raw, err := regmap.Read(w.mem, e)
	w.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("writer: %w", err)
	}

	w.shadow.Store(path, raw)
	return withUnits(regmap.Format(e, raw), e.Var.Units), nil
}

func withUnits(v, units string) string {
	if units == "" {
		return v
	}
	return v + " " + units
}
