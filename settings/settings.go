// Package settings defines the commands that change audio parameters and
// the current track, and how control-surface levels map to device values.
package settings

import "fmt"

// Kind tags a Command.
type Kind uint8

const (
	Volume Kind = iota
	Treble
	Bass
	TrackChange
)

func (k Kind) String() string {
	switch k {
	case Volume:
		return "Volume"
	case Treble:
		return "Treble"
	case Bass:
		return "Bass"
	case TrackChange:
		return "TrackChange"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Command is a {kind, value} pair consumed once by the settings
// coordinator. Volume values are already in device units (0-100); Bass and
// Treble values are levels; TrackChange values are track indexes.
type Command struct {
	Kind  Kind
	Value uint8
	// Auto marks a track change the player made itself (start-up, end of
	// track) rather than one the listener asked for.
	Auto bool
}

func (c Command) String() string {
	if c.Auto {
		return fmt.Sprintf("%s(%d, auto)", c.Kind, c.Value)
	}
	return fmt.Sprintf("%s(%d)", c.Kind, c.Value)
}

const (
	MinLevel = 0
	MaxLevel = 10
	// FlatLevel is the treble level with no boost or cut.
	FlatLevel = 5

	// VolumeScale converts a volume level to device units.
	VolumeScale = 10
	// MuteValue is the device volume that silences output.
	MuteValue = 100
	// MaxTracks is how many tracks a TrackChange value can address.
	MaxTracks = 256
)

const (
	// TrebleFreq is the treble control's lower limit, in kHz.
	TrebleFreq = 1
	// BassFreq is the bass enhancer's upper limit, in 10 Hz steps.
	BassFreq = 6
)

func SetVolume(v uint8) Command { return Command{Kind: Volume, Value: v} }
func SetBass(level uint8) Command { return Command{Kind: Bass, Value: level} }
func SetTreble(level uint8) Command { return Command{Kind: Treble, Value: level} }
func ChangeTrack(index uint8) Command { return Command{Kind: TrackChange, Value: index} }

// AdvanceTrack is a track change the player requests on its own.
func AdvanceTrack(index uint8) Command {
	return Command{Kind: TrackChange, Value: index, Auto: true}
}

// ClampLevel bounds a level to [MinLevel, MaxLevel].
func ClampLevel(level int) uint8 {
	switch {
	case level < MinLevel:
		return MinLevel
	case level > MaxLevel:
		return MaxLevel
	}
	return uint8(level)
}

// ClampVolume bounds a device volume to [0, MuteValue].
func ClampVolume(v uint8) uint8 {
	if v > MuteValue {
		return MuteValue
	}
	return v
}

// VolumeValue converts a volume level to device units.
func VolumeValue(level uint8) uint8 {
	return ClampLevel(int(level)) * VolumeScale
}

// TrebleNibbles maps a treble level to the decoder's amplitude (1.5 dB
// steps, signed) and frequency nibbles. Level 5 is flat.
func TrebleNibbles(level uint8) (amp int8, freq uint8) {
	return int8(ClampLevel(int(level))) - FlatLevel, TrebleFreq
}

// BassNibbles maps a bass level to the decoder's enhancement (dB) and
// frequency nibbles. Level 0 turns the enhancer off.
func BassNibbles(level uint8) (amp uint8, freq uint8) {
	return ClampLevel(int(level)), BassFreq
}
