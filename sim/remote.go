package sim

import (
	"sync"
	"time"

	"github.com/rabidaudio/irmp3/gpio"
	"github.com/rabidaudio/irmp3/ir"
)

// Remote plays button presses into the receiver pin's interrupt handler as
// the edge trains the real remote would produce.
type Remote struct {
	Table     *gpio.Table
	Pin       int
	Threshold time.Duration

	mtx   sync.Mutex
	epoch time.Time
	last  time.Duration
}

func NewRemote(table *gpio.Table, pin int) *Remote {
	return &Remote{
		Table:     table,
		Pin:       pin,
		Threshold: ir.DefaultBitThreshold,
		epoch:     time.Now(),
	}
}

// Press transmits op. Frames are timestamped from the wall clock but never
// overlap, so presses closer together than a frame queue up behind it.
func (r *Remote) Press(op ir.Opcode) error {
	edges, err := ir.Encode(op, r.Threshold)
	if err != nil {
		return err
	}
	r.mtx.Lock()
	defer r.mtx.Unlock()
	base := time.Since(r.epoch)
	if base <= r.last {
		base = r.last + time.Millisecond
	}
	for _, e := range edges {
		r.Table.Dispatch(0, r.Pin, e.Rising, base+e.At)
	}
	r.last = base + edges[len(edges)-1].At
	return nil
}
