package mock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrDevice is returned by Device calls when Fail is set.
var ErrDevice = errors.New("mock: device error")

// Setting is one parameter write seen by a Device.
type Setting struct {
	Name  string
	Value int
	Freq  uint8
}

// Device is an audio decoder that accepts everything instantly. It notices
// calls that overlap in time, which means the caller broke bus exclusion.
type Device struct {
	NotReady atomic.Bool
	Fail     atomic.Bool

	active   atomic.Int32
	overlaps atomic.Int32

	mu       sync.Mutex
	data     []byte
	chunks   int
	settings []Setting
	// Sent, if set, is called with each chunk after it is recorded.
	Sent func(p []byte)
}

func (d *Device) enter() func() {
	if d.active.Add(1) > 1 {
		d.overlaps.Add(1)
	}
	return func() { d.active.Add(-1) }
}

func (d *Device) Ready() bool { return !d.NotReady.Load() }

func (d *Device) SendData(ctx context.Context, p []byte) error {
	defer d.enter()()
	if d.Fail.Load() {
		return ErrDevice
	}
	d.mu.Lock()
	d.data = append(d.data, p...)
	d.chunks++
	sent := d.Sent
	d.mu.Unlock()
	if sent != nil {
		sent(p)
	}
	return nil
}

func (d *Device) SetVolume(ctx context.Context, v uint8) error {
	return d.set(Setting{Name: "volume", Value: int(v)})
}

func (d *Device) SetBass(ctx context.Context, amp, freq uint8) error {
	return d.set(Setting{Name: "bass", Value: int(amp), Freq: freq})
}

func (d *Device) SetTreble(ctx context.Context, amp int8, freq uint8) error {
	return d.set(Setting{Name: "treble", Value: int(amp), Freq: freq})
}

// SineTest records the tone as a "sine" setting and returns at once.
func (d *Device) SineTest(ctx context.Context, freq uint8, duration time.Duration) error {
	return d.set(Setting{Name: "sine", Value: int(freq)})
}

// Init records an "init" setting.
func (d *Device) Init(ctx context.Context) error {
	return d.set(Setting{Name: "init"})
}

func (d *Device) set(s Setting) error {
	defer d.enter()()
	if d.Fail.Load() {
		return ErrDevice
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settings = append(d.settings, s)
	return nil
}

// Data returns a copy of all audio bytes received.
func (d *Device) Data() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.data...)
}

// Chunks is how many SendData calls succeeded.
func (d *Device) Chunks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chunks
}

// Settings returns a copy of the parameter writes received.
func (d *Device) Settings() []Setting {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Setting(nil), d.settings...)
}

// Overlaps counts calls that started while another was in progress.
func (d *Device) Overlaps() int { return int(d.overlaps.Load()) }
