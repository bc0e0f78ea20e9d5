// internal/regmap/shadow.go
package regmap

import (
	"fmt"
	"sync"
)

// Shadow caches the last raw value read or written per element path.
// It is the Source for linked variables: reads never refresh hardware.
type Shadow struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewShadow() *Shadow {
	return &Shadow{values: make(map[string][]byte)}
}

// Store records raw for path. raw is copied.
func (s *Shadow) Store(path string, raw []byte) {
	v := make([]byte, len(raw))
	copy(v, raw)

	s.mu.Lock()
	s.values[path] = v
	s.mu.Unlock()
}

// Load returns a copy of the cached value.
func (s *Shadow) Load(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[path]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

// Raw implements Source.
func (s *Shadow) Raw(path string) (uint64, error) {
	v, ok := s.Load(path)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoValue, path)
	}
	return Uint(v), nil
}
