// internal/poller/plan.go
package poller

import (
	"sort"

	"github.com/tamzrod/fpga-regmap/internal/regmap"
)

// PlanBlocks coalesces entries into reads of at most maxBytes.
// An entry wider than maxBytes gets a block of its own; the client is
// expected to split it. Aliased entries share the bytes of one block.
func PlanBlocks(entries []regmap.Entry, maxBytes int) []ReadBlock {
	if len(entries) == 0 {
		return nil
	}
	sorted := make([]regmap.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Address < sorted[j].Address
	})

	var blocks []ReadBlock
	var cur *ReadBlock

	for _, e := range sorted {
		end := e.Address + uint64(e.ByteLen())
		if cur != nil {
			curEnd := cur.Address + uint64(cur.Length)
			newEnd := curEnd
			if end > newEnd {
				newEnd = end
			}
			if newEnd-cur.Address <= uint64(maxBytes) {
				cur.Length = int(newEnd - cur.Address)
				cur.entries = append(cur.entries, e)
				continue
			}
		}
		blocks = append(blocks, ReadBlock{
			Address: e.Address,
			Length:  e.ByteLen(),
			entries: []regmap.Entry{e},
		})
		cur = &blocks[len(blocks)-1]
	}
	return blocks
}

// decode slices every entry of b out of data.
func (b ReadBlock) decode(data []byte) []Sample {
	out := make([]Sample, 0, len(b.entries))
	for _, e := range b.entries {
		off := e.Address - b.Address
		field := data[off : off+uint64(e.ByteLen())]
		out = append(out, Sample{
			Path: e.Path,
			Raw:  regmap.Extract(field, e.BitOffset, e.BitSize),
		})
	}
	return out
}
