package ir

import (
	"fmt"
	"time"
)

// Edge is one transition on the receiver pin, At after the start of a frame.
type Edge struct {
	Rising bool
	At     time.Duration
}

const pulseGap = 560 * time.Microsecond

// Encode returns the edge train that makes a Decoder using threshold emit op:
// the sync pattern followed by the low 15 bits of op. The bit that completes
// the sync pattern is the first bit of the frame, so only opcodes with the
// top bit clear can be produced. Every button of the remote qualifies.
func Encode(op Opcode, threshold time.Duration) ([]Edge, error) {
	if op&0x8000 != 0 {
		return nil, fmt.Errorf("ir: opcode 0x%04X cannot follow the sync pattern", uint16(op))
	}
	if threshold <= 0 {
		threshold = DefaultBitThreshold
	}
	one := threshold + threshold/2
	zero := threshold / 2

	edges := make([]Edge, 0, 2*(FrameBits+FrameBits-1))
	var at time.Duration
	bit := func(set bool) {
		w := zero
		if set {
			w = one
		}
		edges = append(edges, Edge{Rising: true, At: at}, Edge{Rising: false, At: at + w})
		at += w + pulseGap
	}

	for i := FrameBits - 1; i >= 0; i-- {
		bit(SyncPattern&(1<<i) != 0)
	}
	for i := FrameBits - 2; i >= 0; i-- {
		bit(uint16(op)&(1<<i) != 0)
	}
	return edges, nil
}
