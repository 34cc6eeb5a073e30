package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, uint8(0), ClampLevel(-3))
	assert.Equal(t, uint8(7), ClampLevel(7))
	assert.Equal(t, uint8(10), ClampLevel(11))
	assert.Equal(t, uint8(100), ClampVolume(250))
	assert.Equal(t, uint8(40), ClampVolume(40))
}

func TestVolumeValue(t *testing.T) {
	for level := uint8(0); level <= MaxLevel; level++ {
		assert.Equal(t, level*10, VolumeValue(level))
	}
	assert.Equal(t, uint8(100), VolumeValue(30))
}

func TestNibbles(t *testing.T) {
	amp, freq := TrebleNibbles(0)
	assert.Equal(t, int8(-5), amp)
	assert.Equal(t, uint8(1), freq)

	amp, _ = TrebleNibbles(FlatLevel)
	assert.Equal(t, int8(0), amp)

	amp, _ = TrebleNibbles(200)
	assert.Equal(t, int8(5), amp)

	bamp, bfreq := BassNibbles(10)
	assert.Equal(t, uint8(10), bamp)
	assert.Equal(t, uint8(6), bfreq)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "TrackChange(3)", ChangeTrack(3).String())
	assert.Equal(t, "TrackChange(4, auto)", AdvanceTrack(4).String())
	assert.False(t, ChangeTrack(4).Auto)
	assert.Equal(t, "Volume(50)", SetVolume(50).String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
