// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/fpga-regmap/internal/regmap"
)

// ReadBlock describes one contiguous byte-range read.
// Geometry only: no semantics.
type ReadBlock struct {
	Address uint64
	Length  int

	// entries decoded from this block, in address order
	entries []regmap.Entry
}

// BlockResult is the raw result of a single block read.
type BlockResult struct {
	Address uint64
	Data    []byte
}

// Sample is one decoded element: raw field bits, LSB first.
type Sample struct {
	Path string
	Raw  []byte
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	Name string
	At   time.Time

	Blocks  []BlockResult
	Samples []Sample
	Err     error // non-nil means the poll cycle failed
}

// Store records every sample of a successful cycle in sh.
// Failed cycles leave sh untouched.
func (r PollResult) Store(sh *regmap.Shadow) {
	if r.Err != nil {
		return
	}
	for _, s := range r.Samples {
		sh.Store(s.Path, s.Raw)
	}
}
