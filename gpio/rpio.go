package gpio

import (
	"context"
	"runtime"
	"time"

	rpio "github.com/stianeikeland/go-rpio/v4"
)

// Pin is an input line.
type Pin interface {
	High() bool
}

// OutputPin is a line the host drives.
type OutputPin interface {
	SetHigh()
	SetLow()
}

// Open maps the GPIO registers. It must be called before any rpio pin is used.
func Open() error {
	return rpio.Open()
}

// Close unmaps the GPIO registers.
func Close() error {
	return rpio.Close()
}

// RpioPin is a BCM-numbered Raspberry Pi GPIO line.
type RpioPin struct {
	pin rpio.Pin
}

var (
	_ Pin       = (*RpioPin)(nil)
	_ OutputPin = (*RpioPin)(nil)
)

// Input configures bcm as a pulled-up input.
func Input(bcm uint8) *RpioPin {
	p := rpio.Pin(bcm)
	p.Input()
	p.PullUp()
	return &RpioPin{pin: p}
}

// Output configures bcm as an output, initially high (chip selects idle high).
func Output(bcm uint8) *RpioPin {
	p := rpio.Pin(bcm)
	p.Output()
	p.High()
	return &RpioPin{pin: p}
}

func (p *RpioPin) High() bool { return p.pin.Read() == rpio.High }
func (p *RpioPin) SetHigh()   { p.pin.High() }
func (p *RpioPin) SetLow()    { p.pin.Low() }

// Watcher stands in for the pin-change interrupt. Linux gives user space no
// GPIO interrupts through /dev/gpiomem, so it polls the edge-detect status of
// each watched pin and dispatches through a Table, port 0.
type Watcher struct {
	table *Table
	epoch time.Time
	pins  []rpio.Pin
}

// NewWatcher dispatches edges into table. Timestamps count from now.
func NewWatcher(table *Table) *Watcher {
	return &Watcher{table: table, epoch: time.Now()}
}

// Watch enables edge detection on bcm.
func (w *Watcher) Watch(bcm uint8, edge Edge) {
	p := rpio.Pin(bcm)
	p.Input()
	p.PullUp()
	switch edge {
	case EdgeRising:
		p.Detect(rpio.RiseEdge)
	case EdgeFalling:
		p.Detect(rpio.FallEdge)
	case EdgeBoth:
		p.Detect(rpio.AnyEdge)
	default:
		p.Detect(rpio.NoEdge)
		return
	}
	w.pins = append(w.pins, p)
}

// Run polls until ctx is done, then disables edge detection.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		for _, p := range w.pins {
			p.Detect(rpio.NoEdge)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		for _, p := range w.pins {
			if p.EdgeDetected() {
				w.table.Dispatch(0, int(p), p.Read() == rpio.High, time.Since(w.epoch))
			}
		}
		runtime.Gosched()
	}
}
