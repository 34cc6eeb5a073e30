package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
storage:
  image: /tmp/sd.img
  partition: 0
spi:
  speed_hz: 2000000
pins:
  ir: 17
buttons:
  - pin: 15
    button: PlayPause
  - pin: 16
    button: next
timing:
  dreq_timeout_ms: 250
audio:
  volume: 3
log_level: debug
`

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "irmp3.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "/tmp/sd.img", cfg.Storage.Image)
	assert.Equal(t, 0, cfg.Storage.Partition)
	assert.Equal(t, "/", cfg.Storage.Dir)
	assert.Equal(t, 2_000_000, cfg.SPI.SpeedHz)
	assert.Equal(t, uint8(17), cfg.Pins.IR)
	// untouched keys keep their defaults
	assert.Equal(t, uint8(24), cfg.Pins.DREQ)
	assert.Len(t, cfg.Buttons, 2)
	assert.Equal(t, 250*time.Millisecond, cfg.Timing.DREQTimeout())
	assert.Equal(t, 640*time.Microsecond, cfg.Timing.IRBitThreshold())
	assert.Equal(t, 100*time.Millisecond, cfg.Timing.IRDebounce())
	assert.Equal(t, 10*time.Millisecond, cfg.Timing.ButtonDebounce())
	assert.Equal(t, uint8(3), cfg.Audio.Volume)
	assert.Equal(t, uint8(5), cfg.Audio.Treble)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseBadYAML(t *testing.T) {
	_, err := Parse([]byte("pins: [1, 2"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"pin out of range":   func(c *Config) { c.Pins.IR = 40 },
		"pin reused":         func(c *Config) { c.Pins.XDCS = c.Pins.XCS },
		"button on ir pin":   func(c *Config) { c.Buttons = []ButtonConfig{{Pin: c.Pins.IR, Button: "Mute"}} },
		"unknown button":     func(c *Config) { c.Buttons = []ButtonConfig{{Pin: 2, Button: "Eject"}} },
		"zero debounce":      func(c *Config) { c.Timing.IRDebounceMs = 0 },
		"negative timeout":   func(c *Config) { c.Timing.DREQTimeoutMs = -1 },
		"volume too high":    func(c *Config) { c.Audio.Volume = 11 },
		"treble too high":    func(c *Config) { c.Audio.Treble = 200 },
		"bad spi device":     func(c *Config) { c.SPI.Device = 2 },
		"no image":           func(c *Config) { c.Storage.Image = "" },
		"negative partition": func(c *Config) { c.Storage.Partition = -1 },
		"bad log level":      func(c *Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
