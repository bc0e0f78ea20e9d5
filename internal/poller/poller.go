// internal/poller/poller.go
package poller

import (
	"errors"
	"time"
)

// Client abstracts the register reads needed by the poller.
// The poller depends on geometry only.
type Client interface {
	ReadAt(p []byte, addr uint64) error
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Name     string
	Interval time.Duration
	Reads    []ReadBlock
}

// Poller is a dumb, clock-driven reader.
type Poller struct {
	cfg     Config
	client  Client
	factory func() (Client, error)
}

// New creates a poller with immutable config.
// factory may be nil; when set, a failed cycle discards the client and
// the next cycle makes ONE attempt to create a new one.
func New(cfg Config, client Client, factory func() (Client, error)) (*Poller, error) {
	if cfg.Name == "" {
		return nil, errors.New("poller: name required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Reads) == 0 {
		return nil, errors.New("poller: at least one read block required")
	}
	if client == nil && factory == nil {
		return nil, errors.New("poller: client or factory required")
	}
	return &Poller{cfg: cfg, client: client, factory: factory}, nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
func (p *Poller) PollOnce() PollResult {
	res := PollResult{
		Name: p.cfg.Name,
		At:   time.Now(),
	}

	if p.client == nil {
		c, err := p.factory()
		if err != nil {
			res.Err = err
			return res
		}
		p.client = c
	}

	var (
		blocks  []BlockResult
		samples []Sample
	)

	for _, rb := range p.cfg.Reads {
		data := make([]byte, rb.Length)
		if err := p.client.ReadAt(data, rb.Address); err != nil {
			p.drop()
			res.Err = err
			return res
		}
		blocks = append(blocks, BlockResult{Address: rb.Address, Data: data})
		samples = append(samples, rb.decode(data)...)
	}

	// Commit only if all reads succeeded
	res.Blocks = blocks
	res.Samples = samples
	return res
}

// drop discards a client that the factory can replace.
func (p *Poller) drop() {
	if p.factory == nil {
		return
	}
	if c, ok := p.client.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	p.client = nil
}

// Reads exposes the planned geometry.
func (p *Poller) Reads() []ReadBlock { return p.cfg.Reads }

// Entries returns how many elements one cycle decodes.
func (p *Poller) Entries() int {
	n := 0
	for _, rb := range p.cfg.Reads {
		n += len(rb.entries)
	}
	return n
}
