package ir

import "time"

// DefaultButtonDebounce is the contact-bounce window for plain push buttons.
const DefaultButtonDebounce = 10 * time.Millisecond

// MaxSources bounds the source ids a ButtonDebouncer tracks (GPIO lines).
const MaxSources = 64

// ButtonDebouncer filters edges from simple GPIO push buttons wired in as
// extra remote buttons. Unlike the IR decoder it has no bit timing: an edge
// is forwarded only when more than Window has passed since the previous
// forwarded edge from the same source. Press runs in interrupt context.
type ButtonDebouncer struct {
	Window time.Duration

	sink Sink
	last [MaxSources]time.Duration
	seen [MaxSources]bool
}

// NewButtonDebouncer forwards debounced presses to sink.
func NewButtonDebouncer(sink Sink, window time.Duration) *ButtonDebouncer {
	if window <= 0 {
		window = DefaultButtonDebounce
	}
	return &ButtonDebouncer{Window: window, sink: sink}
}

// Press handles an edge from source at time now and reports whether op was
// forwarded. Sources outside [0, MaxSources) are ignored.
func (b *ButtonDebouncer) Press(source int, op Opcode, now time.Duration) bool {
	if source < 0 || source >= MaxSources {
		return false
	}
	if b.seen[source] && now-b.last[source] <= b.Window {
		return false
	}
	b.seen[source] = true
	b.last[source] = now
	return b.sink.TryPush(op)
}
