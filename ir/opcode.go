// Package ir decodes the pulse-coded signal of the player's infrared remote.
package ir

import (
	"fmt"
	"strings"
)

// Opcode is the 16-bit pattern the decoder produces for one button.
type Opcode uint16

// Buttons of the remote. Each literal is what the decoder accumulates for
// that button and must match exactly.
const (
	Power        Opcode = 0x0778
	Source       Opcode = 0x5728
	VolumeUp     Opcode = 0x7708
	VolumeDown   Opcode = 0x0F70
	Mute         Opcode = 0x4738
	SelectTrack  Opcode = 0x48B7
	Previous     Opcode = 0x6897
	PlayPause    Opcode = 0x28D7
	Next         Opcode = 0x18E7
	SoundEffect  Opcode = 0x6F10
	Sound        Opcode = 0x40BF
	Bluetooth    Opcode = 0x5CA3
	Left         Opcode = 0x06F9
	Right        Opcode = 0x46B9
	SoundControl Opcode = 0x32CD
)

var buttons = []struct {
	op   Opcode
	name string
}{
	{Power, "Power"},
	{Source, "Source"},
	{VolumeUp, "VolumeUp"},
	{VolumeDown, "VolumeDown"},
	{Mute, "Mute"},
	{SelectTrack, "SelectTrack"},
	{Previous, "Previous"},
	{PlayPause, "PlayPause"},
	{Next, "Next"},
	{SoundEffect, "SoundEffect"},
	{Sound, "Sound"},
	{Bluetooth, "Bluetooth"},
	{Left, "Left"},
	{Right, "Right"},
	{SoundControl, "SoundControl"},
}

// Buttons lists every known opcode in remote layout order.
func Buttons() []Opcode {
	out := make([]Opcode, len(buttons))
	for i, b := range buttons {
		out[i] = b.op
	}
	return out
}

// Known reports whether o is one of the remote's buttons.
func (o Opcode) Known() bool {
	for _, b := range buttons {
		if b.op == o {
			return true
		}
	}
	return false
}

func (o Opcode) String() string {
	for _, b := range buttons {
		if b.op == o {
			return b.name
		}
	}
	return fmt.Sprintf("Opcode(0x%04X)", uint16(o))
}

// Lookup finds a button by name, ignoring case.
func Lookup(name string) (Opcode, bool) {
	for _, b := range buttons {
		if strings.EqualFold(b.name, name) {
			return b.op, true
		}
	}
	return 0, false
}
