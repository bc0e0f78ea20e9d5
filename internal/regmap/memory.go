// internal/regmap/memory.go
package regmap

import (
	"fmt"
	"sync"
)

// Memory is a byte-addressed register space.
type Memory interface {
	ReadAt(p []byte, addr uint64) error
	WriteAt(p []byte, addr uint64) error
}

// Image is an in-process Memory backed by a byte slice.
// It stands in for hardware in simulation and tests.
type Image struct {
	mu   sync.Mutex
	data []byte
}

// NewImage allocates a zeroed image of size bytes.
func NewImage(size uint64) *Image {
	return &Image{data: make([]byte, size)}
}

func (m *Image) bounds(n int, addr uint64) error {
	if addr+uint64(n) > uint64(len(m.data)) {
		return fmt.Errorf("regmap: image access 0x%x+%d beyond size 0x%x", addr, n, len(m.data))
	}
	return nil
}

func (m *Image) ReadAt(p []byte, addr uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bounds(len(p), addr); err != nil {
		return err
	}
	copy(p, m.data[addr:])
	return nil
}

func (m *Image) WriteAt(p []byte, addr uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bounds(len(p), addr); err != nil {
		return err
	}
	copy(m.data[addr:], p)
	return nil
}
