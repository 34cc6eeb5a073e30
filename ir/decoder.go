package ir

import (
	"sync/atomic"
	"time"
)

const (
	// SyncPattern is the accumulator value left behind by the leader pulses.
	// Seeing it restarts the bit count, which resynchronises mid-stream.
	SyncPattern = 0x9E00

	// FrameBits is the number of bits in one opcode.
	FrameBits = 16

	// DefaultBitThreshold separates short (0) from long (1) pulses.
	DefaultBitThreshold = 640 * time.Microsecond

	// DefaultDebounce is the minimum gap between two forwards of the same
	// opcode. It is longer than the remote's repeat-code period, so holding a
	// button yields a steady but limited stream of presses.
	DefaultDebounce = 100 * time.Millisecond
)

// Sink accepts forwarded opcodes. TryPush is called from interrupt context
// and must never block; a false return drops the opcode.
type Sink interface {
	TryPush(Opcode) bool
}

// Decoder is the interrupt-context state machine for the remote's receiver
// pin. HandleEdge is meant to be attached to the pin's edge interrupt; it
// keeps all of its state between calls and never blocks or allocates.
//
// A Decoder is not safe for concurrent use: exactly one interrupt source
// drives it.
type Decoder struct {
	BitThreshold time.Duration
	Debounce     time.Duration

	sink Sink

	acc    uint16
	count  int
	start  time.Duration
	prev   Opcode
	sentAt time.Duration

	forwarded atomic.Uint32
	dropped   atomic.Uint32
}

// NewDecoder returns a decoder with the default timing that forwards to sink.
func NewDecoder(sink Sink) *Decoder {
	return &Decoder{
		BitThreshold: DefaultBitThreshold,
		Debounce:     DefaultDebounce,
		sink:         sink,
	}
}

// HandleEdge processes one edge on the receiver pin. now is a monotonic
// timestamp (time since boot).
func (d *Decoder) HandleEdge(rising bool, now time.Duration) {
	if rising {
		d.start = now
		return
	}

	d.acc <<= 1
	if now-d.start > d.BitThreshold {
		d.acc |= 1
	}
	if d.acc == SyncPattern {
		d.count = 0
	}
	// a full frame was already taken from this burst; wait for the next sync
	if d.count >= FrameBits {
		return
	}
	d.count++
	if d.count == FrameBits {
		d.candidate(Opcode(d.acc), now)
	}
}

func (d *Decoder) candidate(op Opcode, now time.Duration) {
	if op == d.prev {
		// a held button repeats the same frame; only pass it on once the
		// debounce interval has run out
		if now-d.sentAt <= d.Debounce {
			return
		}
	} else {
		d.prev = op
	}
	d.sentAt = now

	if d.sink.TryPush(op) {
		d.forwarded.Add(1)
	} else {
		d.dropped.Add(1)
	}
}

// Forwarded counts opcodes accepted by the sink.
func (d *Decoder) Forwarded() uint32 { return d.forwarded.Load() }

// Dropped counts opcodes lost because the sink was full.
func (d *Decoder) Dropped() uint32 { return d.dropped.Load() }
