// Package config loads the player's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rabidaudio/irmp3/settings"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	SPI      SPIConfig      `yaml:"spi"`
	Pins     PinConfig      `yaml:"pins"`
	Buttons  []ButtonConfig `yaml:"buttons"`
	Timing   TimingConfig   `yaml:"timing"`
	Audio    AudioConfig    `yaml:"audio"`
	LogLevel string         `yaml:"log_level"`
}

// ---- STORAGE ----

type StorageConfig struct {
	Image     string `yaml:"image"`     // block device or FAT32 image
	Partition int    `yaml:"partition"` // 0 = no partition table
	Dir       string `yaml:"dir"`
}

// ---- SPI ----

type SPIConfig struct {
	Device  int `yaml:"device"`
	SpeedHz int `yaml:"speed_hz"`
}

// ---- PINS (BCM numbering) ----

type PinConfig struct {
	IR    uint8 `yaml:"ir"`
	XCS   uint8 `yaml:"xcs"`
	XDCS  uint8 `yaml:"xdcs"`
	DREQ  uint8 `yaml:"dreq"`
	Reset uint8 `yaml:"reset"`
}

// ButtonConfig wires a push button to a remote button name.
type ButtonConfig struct {
	Pin    uint8  `yaml:"pin"`
	Button string `yaml:"button"`
}

// ---- TIMING ----

type TimingConfig struct {
	IRDebounceMs     int `yaml:"ir_debounce_ms"`
	ButtonDebounceMs int `yaml:"button_debounce_ms"`
	IRBitThresholdUs int `yaml:"ir_bit_threshold_us"`
	DREQTimeoutMs    int `yaml:"dreq_timeout_ms"`
}

func (t TimingConfig) IRDebounce() time.Duration {
	return time.Duration(t.IRDebounceMs) * time.Millisecond
}

func (t TimingConfig) ButtonDebounce() time.Duration {
	return time.Duration(t.ButtonDebounceMs) * time.Millisecond
}

func (t TimingConfig) IRBitThreshold() time.Duration {
	return time.Duration(t.IRBitThresholdUs) * time.Microsecond
}

func (t TimingConfig) DREQTimeout() time.Duration {
	return time.Duration(t.DREQTimeoutMs) * time.Millisecond
}

// ---- AUDIO (control-surface levels, 0-10) ----

type AudioConfig struct {
	Volume uint8 `yaml:"volume"`
	Bass   uint8 `yaml:"bass"`
	Treble uint8 `yaml:"treble"`
}

// Default is the configuration for the reference wiring.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Image: "/dev/sda", Partition: 1, Dir: "/"},
		SPI:     SPIConfig{Device: 0, SpeedHz: 1_000_000},
		Pins:    PinConfig{IR: 18, XCS: 5, XDCS: 6, DREQ: 24, Reset: 23},
		Timing: TimingConfig{
			IRDebounceMs:     100,
			ButtonDebounceMs: 10,
			IRBitThresholdUs: 640,
			DREQTimeoutMs:    500,
		},
		Audio:    AudioConfig{Volume: 0, Bass: settings.MinLevel, Treble: settings.FlatLevel},
		LogLevel: "info",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
