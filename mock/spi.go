// Package mock has in-memory stand-ins for the player's hardware, for tests
// and for running without a Raspberry Pi.
package mock

import (
	"sync"
	"sync/atomic"

	"github.com/rabidaudio/irmp3/gpio"
	"github.com/rabidaudio/irmp3/vs1053"
)

var _ vs1053.Bus = (*Bus)(nil)

// Bus records every byte clocked out and answers with Replies in order,
// then zeros. Writes fail with WriteErr when it is set.
type Bus struct {
	mu       sync.Mutex
	Out      []byte
	Replies  []byte
	WriteErr error
	writes   []int
}

func (b *Bus) Transfer(v byte) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Out = append(b.Out, v)
	if len(b.Replies) == 0 {
		return 0
	}
	r := b.Replies[0]
	b.Replies = b.Replies[1:]
	return r
}

func (b *Bus) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.WriteErr != nil {
		return 0, b.WriteErr
	}
	b.Out = append(b.Out, p...)
	b.writes = append(b.writes, len(p))
	return len(p), nil
}

// Writes returns the length of each bulk write so far.
func (b *Bus) Writes() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.writes...)
}

// Sent returns a copy of the bytes clocked out so far and clears the record.
func (b *Bus) Sent() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.Out
	b.Out = nil
	return out
}

var (
	_ gpio.Pin       = (*Pin)(nil)
	_ gpio.OutputPin = (*Pin)(nil)
)

// Pin is a GPIO line that counts reads and falling edges.
type Pin struct {
	level atomic.Bool
	reads atomic.Int64
	lows  atomic.Int64
}

// NewPin returns a pin at the given level.
func NewPin(high bool) *Pin {
	p := &Pin{}
	p.level.Store(high)
	return p
}

func (p *Pin) High() bool {
	p.reads.Add(1)
	return p.level.Load()
}

func (p *Pin) SetHigh() { p.level.Store(true) }

func (p *Pin) SetLow() {
	p.lows.Add(1)
	p.level.Store(false)
}

// Set changes the level without counting an edge.
func (p *Pin) Set(high bool) { p.level.Store(high) }

// Reads is how many times High has been called.
func (p *Pin) Reads() int { return int(p.reads.Load()) }

// Lows is how many times SetLow has been called.
func (p *Pin) Lows() int { return int(p.lows.Load()) }
