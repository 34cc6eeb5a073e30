// Package gpio connects pin edges to interrupt handlers and wraps the
// Raspberry Pi's GPIO lines.
package gpio

import (
	"fmt"
	"time"
)

const (
	Ports       = 2
	PinsPerPort = 32
)

// Edge selects which transitions trigger a handler.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// Handler is called for each matching edge with the new level and a
// monotonic timestamp. Handlers run in interrupt context and must not block.
type Handler func(rising bool, now time.Duration)

type entry struct {
	edge    Edge
	handler Handler
}

// Table maps (port, pin) to a handler. It is filled in at start-up and then
// only read, so dispatch is a constant-time array index.
type Table struct {
	entries [Ports][PinsPerPort]entry
}

// Attach installs h for the given pin and edge selection.
func (t *Table) Attach(port, pin int, edge Edge, h Handler) error {
	if port < 0 || port >= Ports || pin < 0 || pin >= PinsPerPort {
		return fmt.Errorf("gpio: invalid pin P%d.%d", port, pin)
	}
	if h == nil {
		edge = EdgeNone
	}
	t.entries[port][pin] = entry{edge: edge, handler: h}
	return nil
}

// Detach removes the handler for a pin.
func (t *Table) Detach(port, pin int) {
	if port < 0 || port >= Ports || pin < 0 || pin >= PinsPerPort {
		return
	}
	t.entries[port][pin] = entry{}
}

// Dispatch routes an edge to the pin's handler and reports whether one ran.
func (t *Table) Dispatch(port, pin int, rising bool, now time.Duration) bool {
	if port < 0 || port >= Ports || pin < 0 || pin >= PinsPerPort {
		return false
	}
	e := t.entries[port][pin]
	switch {
	case e.handler == nil, e.edge == EdgeNone:
		return false
	case e.edge == EdgeRising && !rising, e.edge == EdgeFalling && rising:
		return false
	}
	e.handler(rising, now)
	return true
}
