// Package vs1053 drives a VLSI VS1053 audio decoder over SPI. Control
// registers go through the SCI interface (selected by XCS) and compressed
// audio through SDI (selected by XDCS). The chip raises DREQ whenever it can
// take at least 32 more bytes.
package vs1053

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rabidaudio/irmp3/gpio"
	"github.com/rabidaudio/irmp3/rtos"
)

// SCI opcodes
const (
	opWrite = 0x02
	opRead  = 0x03
)

// SCI registers
const (
	RegMode       = 0x0
	RegStatus     = 0x1
	RegBass       = 0x2
	RegClockF     = 0x3
	RegDecodeTime = 0x4
	RegAudata     = 0x5
	RegWRAM       = 0x6
	RegWRAMAddr   = 0x7
	RegAIAddr     = 0xA
	RegVolume     = 0xB
)

const (
	// ModeDefault selects line input and the native SDI mode.
	ModeDefault = 0x4800
	// ModeSineTest additionally allows SDI tests and performs a soft reset.
	ModeSineTest = 0x0824
	// ClockDefault sets the clock multiplier to 3.0x.
	ClockDefault = 0x6000
)

// BurstSize is how many bytes may be sent after DREQ is seen high.
const BurstSize = 32

// DefaultTimeout bounds every wait for DREQ.
const DefaultTimeout = 500 * time.Millisecond

// ErrNotReady is returned when DREQ stays low longer than the timeout.
var ErrNotReady = errors.New("vs1053: device not ready")

// Bus is the SPI bus: single full-duplex bytes for SCI, bulk writes for SDI.
type Bus interface {
	Transfer(b byte) byte
	io.Writer
}

type Driver struct {
	// Timeout bounds each wait for DREQ.
	Timeout time.Duration

	bus   Bus
	xcs   gpio.OutputPin
	xdcs  gpio.OutputPin
	reset gpio.OutputPin
	dreq  gpio.Pin

	// last value written to SCI_BASS, so bass and treble can be set separately
	tone uint16
}

// New returns a driver for a chip on bus. reset may be nil if the line is
// tied high.
func New(bus Bus, xcs, xdcs, reset gpio.OutputPin, dreq gpio.Pin) *Driver {
	return &Driver{
		Timeout: DefaultTimeout,
		bus:     bus,
		xcs:     xcs,
		xdcs:    xdcs,
		reset:   reset,
		dreq:    dreq,
	}
}

// Init deselects both interfaces, pulses reset and programs the mode and
// clock registers.
func (d *Driver) Init(ctx context.Context) error {
	d.xcs.SetHigh()
	d.xdcs.SetHigh()
	if d.reset != nil {
		d.reset.SetLow()
		d.reset.SetHigh()
	}
	if err := d.WriteRegister(ctx, RegMode, ModeDefault); err != nil {
		return fmt.Errorf("vs1053: init: %w", err)
	}
	if err := d.WriteRegister(ctx, RegClockF, ClockDefault); err != nil {
		return fmt.Errorf("vs1053: init: %w", err)
	}
	d.tone = 0
	return nil
}

// Ready reports the DREQ line.
func (d *Driver) Ready() bool {
	return d.dreq.High()
}

// WaitReady spins until DREQ is high.
func (d *Driver) WaitReady(ctx context.Context) error {
	err := rtos.SpinUntil(ctx, d.Timeout, d.dreq.High)
	if errors.Is(err, rtos.ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return err
}

func (d *Driver) WriteRegister(ctx context.Context, addr uint8, value uint16) error {
	if err := d.WaitReady(ctx); err != nil {
		return err
	}
	d.xcs.SetLow()
	defer d.xcs.SetHigh()
	d.bus.Transfer(opWrite)
	d.bus.Transfer(addr)
	d.bus.Transfer(byte(value >> 8))
	d.bus.Transfer(byte(value))
	return nil
}

func (d *Driver) ReadRegister(ctx context.Context, addr uint8) (uint16, error) {
	if err := d.WaitReady(ctx); err != nil {
		return 0, err
	}
	d.xcs.SetLow()
	defer d.xcs.SetHigh()
	d.bus.Transfer(opRead)
	d.bus.Transfer(addr)
	hi := d.bus.Transfer(0xFF)
	lo := d.bus.Transfer(0xFF)
	return uint16(hi)<<8 | uint16(lo), nil
}

// SendData streams p to SDI, waiting for DREQ before every 32-byte burst.
// XDCS is released on every exit path.
func (d *Driver) SendData(ctx context.Context, p []byte) error {
	d.xdcs.SetLow()
	defer d.xdcs.SetHigh()
	for off := 0; off < len(p); off += BurstSize {
		if err := d.WaitReady(ctx); err != nil {
			return fmt.Errorf("vs1053: sent %d of %d bytes: %w", off, len(p), err)
		}
		if _, err := d.bus.Write(p[off:min(off+BurstSize, len(p))]); err != nil {
			return fmt.Errorf("vs1053: sent %d of %d bytes: %w", off, len(p), err)
		}
	}
	return nil
}

// SetVolume sets both channels' attenuation in 0.5 dB steps (0 is loudest).
func (d *Driver) SetVolume(ctx context.Context, v uint8) error {
	return d.WriteRegister(ctx, RegVolume, uint16(v)<<8|uint16(v))
}

// SetBass sets the bass enhancer: amp in dB (0-15, 0 disables) below the
// frequency limit freq in 10 Hz steps (2-15).
func (d *Driver) SetBass(ctx context.Context, amp, freq uint8) error {
	tone := d.tone&0xFF00 | uint16(amp&0x0F)<<4 | uint16(freq&0x0F)
	return d.writeTone(ctx, tone)
}

// SetTreble sets the treble control: amp in 1.5 dB steps (-8 to 7, 0 is
// flat) above the frequency limit freq in kHz (1-15).
func (d *Driver) SetTreble(ctx context.Context, amp int8, freq uint8) error {
	tone := d.tone&0x00FF | uint16(uint8(amp)&0x0F)<<12 | uint16(freq&0x0F)<<8
	return d.writeTone(ctx, tone)
}

func (d *Driver) writeTone(ctx context.Context, tone uint16) error {
	if err := d.WriteRegister(ctx, RegBass, tone); err != nil {
		return err
	}
	d.tone = tone
	return nil
}

// Tone returns the last value written to SCI_BASS.
func (d *Driver) Tone() uint16 { return d.tone }

// DecodeTime returns the seconds decoded since the last reset.
func (d *Driver) DecodeTime(ctx context.Context) (uint16, error) {
	return d.ReadRegister(ctx, RegDecodeTime)
}

// SineTest plays a test tone for the given duration. freq is the raw
// sine-test parameter byte. The chip is left in test mode; call Init to
// return to normal playback.
func (d *Driver) SineTest(ctx context.Context, freq uint8, duration time.Duration) error {
	if err := d.WriteRegister(ctx, RegMode, ModeSineTest); err != nil {
		return err
	}
	if err := d.WaitReady(ctx); err != nil {
		return err
	}
	if err := d.sdi(0x53, 0xEF, 0x6E, freq, 0, 0, 0, 0); err != nil {
		return err
	}
	t := time.NewTimer(duration)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	if err := d.sdi(0x45, 0x78, 0x69, 0x74, 0, 0, 0, 0); err != nil {
		return err
	}
	return ctx.Err()
}

func (d *Driver) sdi(seq ...byte) error {
	d.xdcs.SetLow()
	defer d.xdcs.SetHigh()
	_, err := d.bus.Write(seq)
	return err
}
