// Package spi drives the Raspberry Pi's hardware SPI controller. Chip
// selects for the codec are ordinary GPIO lines, so the controller's own
// chip select is parked on an unused line.
package spi

import (
	"fmt"

	rpio "github.com/stianeikeland/go-rpio/v4"
)

// DefaultSpeed is safe for the VS1053 before its clock multiplier is set.
const DefaultSpeed = 2_000_000 // 2 MHz

// Bus is an open SPI controller.
type Bus struct {
	dev rpio.SpiDev
	buf [1]byte
}

// Open maps the GPIO registers and claims SPI device 0 or 1.
func Open(device int, speedHz int) (*Bus, error) {
	var dev rpio.SpiDev
	switch device {
	case 0:
		dev = rpio.Spi0
	case 1:
		dev = rpio.Spi1
	default:
		return nil, fmt.Errorf("spi: unsupported device %d", device)
	}
	if speedHz <= 0 {
		speedHz = DefaultSpeed
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("spi: %w", err)
	}
	if err := rpio.SpiBegin(dev); err != nil {
		return nil, fmt.Errorf("spi: %w", err)
	}
	rpio.SpiChipSelect(0)
	rpio.SpiSpeed(speedHz)
	return &Bus{dev: dev}, nil
}

// Transfer clocks out one byte and returns the byte clocked in.
func (b *Bus) Transfer(v byte) byte {
	b.buf[0] = v
	rpio.SpiExchange(b.buf[:])
	return b.buf[0]
}

// Write transmits p, discarding whatever is clocked in.
func (b *Bus) Write(p []byte) (n int, err error) {
	rpio.SpiTransmit(p...)
	return len(p), nil
}

func (b *Bus) Close() error {
	rpio.SpiEnd(b.dev)
	return nil
}
