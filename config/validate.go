package config

import (
	"fmt"

	"github.com/rabidaudio/irmp3/ir"
	"github.com/rabidaudio/irmp3/settings"
	"github.com/sirupsen/logrus"
)

// highest BCM line on the Pi header
const maxPin = 27

// Validate checks configuration correctness without changing it.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// PINS: in range, and no line used twice
	// ------------------------------------------------------------
	owner := map[uint8]string{}
	claim := func(pin uint8, name string) error {
		if pin > maxPin {
			return fmt.Errorf("pin %s: BCM %d out of range [0,%d]", name, pin, maxPin)
		}
		if prev, ok := owner[pin]; ok {
			return fmt.Errorf("pin %s: BCM %d already used by %s", name, pin, prev)
		}
		owner[pin] = name
		return nil
	}
	for _, p := range []struct {
		pin  uint8
		name string
	}{
		{cfg.Pins.IR, "ir"},
		{cfg.Pins.XCS, "xcs"},
		{cfg.Pins.XDCS, "xdcs"},
		{cfg.Pins.DREQ, "dreq"},
		{cfg.Pins.Reset, "reset"},
	} {
		if err := claim(p.pin, p.name); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------
	// BUTTONS
	// ------------------------------------------------------------
	for i, b := range cfg.Buttons {
		if _, ok := ir.Lookup(b.Button); !ok {
			return fmt.Errorf("buttons[%d]: unknown button %q", i, b.Button)
		}
		if err := claim(b.Pin, fmt.Sprintf("buttons[%d]", i)); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------
	for _, tm := range []struct {
		v    int
		name string
	}{
		{cfg.Timing.IRDebounceMs, "ir_debounce_ms"},
		{cfg.Timing.ButtonDebounceMs, "button_debounce_ms"},
		{cfg.Timing.IRBitThresholdUs, "ir_bit_threshold_us"},
		{cfg.Timing.DREQTimeoutMs, "dreq_timeout_ms"},
	} {
		if tm.v <= 0 {
			return fmt.Errorf("timing.%s must be > 0", tm.name)
		}
	}

	// ------------------------------------------------------------
	// AUDIO
	// ------------------------------------------------------------
	for _, lv := range []struct {
		v    uint8
		name string
	}{
		{cfg.Audio.Volume, "volume"},
		{cfg.Audio.Bass, "bass"},
		{cfg.Audio.Treble, "treble"},
	} {
		if lv.v > settings.MaxLevel {
			return fmt.Errorf("audio.%s: %d out of range [0,%d]", lv.name, lv.v, settings.MaxLevel)
		}
	}

	if cfg.SPI.Device != 0 && cfg.SPI.Device != 1 {
		return fmt.Errorf("spi.device: %d, want 0 or 1", cfg.SPI.Device)
	}
	if cfg.Storage.Image == "" {
		return fmt.Errorf("storage.image is required")
	}
	if cfg.Storage.Partition < 0 {
		return fmt.Errorf("storage.partition: %d must be >= 0", cfg.Storage.Partition)
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}
