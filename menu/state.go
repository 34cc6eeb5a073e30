// Package menu is the player's user interface: a pure state machine driven
// by remote opcodes, and the screens it draws.
package menu

import (
	"fmt"

	"github.com/rabidaudio/irmp3/ir"
	"github.com/rabidaudio/irmp3/settings"
)

// PageSize is how many tracks the list shows at once.
const PageSize = 8

type Screen int

const (
	TrackInfo Screen = iota
	TrackList
	Settings
)

func (s Screen) String() string {
	switch s {
	case TrackInfo:
		return "TrackInfo"
	case TrackList:
		return "TrackList"
	case Settings:
		return "Settings"
	default:
		return fmt.Sprintf("Screen(%d)", int(s))
	}
}

// Mode is the tone control the Settings screen adjusts.
type Mode int

const (
	Treble Mode = iota
	Bass
)

func (m Mode) String() string {
	if m == Bass {
		return "Bass"
	}
	return "Treble"
}

// State is everything the dispatcher knows. Volume, Bass and Treble are
// control-surface levels in [0, 10]; Volume is attenuation, so 0 is loudest.
// Track mirrors the playing track and is only a request until the settings
// coordinator applies it.
type State struct {
	Screen     Screen
	Mode       Mode
	Cursor     int // row within the page
	Page       int
	Track      int
	TrackCount int
	Playing    bool
	Volume     uint8
	Muted      bool
	Bass       uint8
	Treble     uint8
}

// Initial is the state at power-on: track 0 playing, TrackInfo shown.
func Initial(trackCount int, volume, bass, treble uint8) State {
	return State{
		Screen:     TrackInfo,
		Mode:       Treble,
		TrackCount: trackCount,
		Playing:    true,
		Volume:     settings.ClampLevel(int(volume)),
		Bass:       settings.ClampLevel(int(bass)),
		Treble:     settings.ClampLevel(int(treble)),
	}
}

// Pages is the index of the last list page.
func (s State) Pages() int {
	return s.TrackCount / PageSize
}

// Selected is the catalogue index under the list cursor.
func (s State) Selected() int {
	return s.Page*PageSize + s.Cursor
}

// Level is the active tone control's level.
func (s State) Level() uint8 {
	if s.Mode == Bass {
		return s.Bass
	}
	return s.Treble
}

// Render says how much of the screen a transition invalidated.
type Render int

const (
	RenderNone Render = iota
	RenderFull
	RenderHeader // play/pause line of TrackInfo
	RenderCursor // list cursor moved within a page
	RenderLevel  // tone level bar
	RenderMode   // tone control title and bar
)

// Playback asks the dispatcher to pause or resume the audio producer.
type Playback int

const (
	PlaybackNone Playback = iota
	PlaybackPause
	PlaybackResume
)

// Effects are what a transition asks the rest of the player to do.
type Effects struct {
	Commands []settings.Command
	Render   Render
	Playback Playback
}

// Transition computes the state after op and its effects. Opcodes that mean
// nothing on the current screen leave the state unchanged.
func Transition(s State, op ir.Opcode) (State, Effects) {
	var fx Effects
	switch op {
	case ir.Source:
		s.Screen = (s.Screen + 1) % 3
		fx.Render = RenderFull

	case ir.VolumeUp, ir.VolumeDown:
		level := int(s.Volume)
		if op == ir.VolumeUp {
			level--
		} else {
			level++
		}
		s.Volume = settings.ClampLevel(level)
		if !s.Muted {
			fx.Commands = append(fx.Commands, settings.SetVolume(settings.VolumeValue(s.Volume)))
		}

	case ir.Mute:
		s.Muted = !s.Muted
		v := settings.VolumeValue(s.Volume)
		if s.Muted {
			v = settings.MuteValue
		}
		fx.Commands = append(fx.Commands, settings.SetVolume(v))

	case ir.SelectTrack:
		if s.Screen != TrackList || s.Selected() >= s.TrackCount {
			break
		}
		s.Track = s.Selected()
		s.Screen = TrackInfo
		s = s.play(&fx)
		fx.Render = RenderFull

	case ir.Next, ir.Previous:
		if s.TrackCount == 0 {
			break
		}
		if op == ir.Next {
			s.Track = (s.Track + 1) % s.TrackCount
		} else {
			s.Track = (s.Track - 1 + s.TrackCount) % s.TrackCount
		}
		s = s.play(&fx)
		if s.Screen == TrackInfo {
			fx.Render = RenderFull
		}

	case ir.PlayPause:
		s.Playing = !s.Playing
		if s.Playing {
			fx.Playback = PlaybackResume
		} else {
			fx.Playback = PlaybackPause
		}
		if s.Screen == TrackInfo {
			fx.Render = RenderHeader
		}

	case ir.Left, ir.Right:
		switch s.Screen {
		case TrackList:
			s, fx.Render = s.moveCursor(op == ir.Right)
		case Settings:
			s, fx.Commands = s.adjustTone(op == ir.Right)
			fx.Render = RenderLevel
		}

	case ir.SoundControl:
		if s.Screen != Settings {
			break
		}
		if s.Mode == Bass {
			s.Mode = Treble
		} else {
			s.Mode = Bass
		}
		fx.Render = RenderMode
	}
	return s, fx
}

func (s State) play(fx *Effects) State {
	s.Playing = true
	fx.Playback = PlaybackResume
	fx.Commands = append(fx.Commands, settings.ChangeTrack(uint8(s.Track)))
	return s
}

// moveCursor steps the list cursor, turning the page at its edges. The last
// page only holds TrackCount%PageSize entries.
func (s State) moveCursor(right bool) (State, Render) {
	if s.TrackCount == 0 {
		return s, RenderNone
	}
	page := s.Page
	switch {
	case !right:
		if s.Cursor > 0 {
			s.Cursor--
		} else if s.Page > 0 {
			s.Page--
			s.Cursor = 0
		}
	case s.Page < s.Pages():
		if s.Cursor < PageSize-1 {
			s.Cursor++
		} else {
			s.Page++
			s.Cursor = 0
		}
	default:
		if s.Cursor < s.TrackCount%PageSize-1 {
			s.Cursor++
		}
	}
	if s.Page != page {
		return s, RenderFull
	}
	return s, RenderCursor
}

func (s State) adjustTone(up bool) (State, []settings.Command) {
	level := int(s.Level())
	if up {
		level++
	} else {
		level--
	}
	if s.Mode == Bass {
		s.Bass = settings.ClampLevel(level)
		return s, []settings.Command{settings.SetBass(s.Bass)}
	}
	s.Treble = settings.ClampLevel(level)
	return s, []settings.Command{settings.SetTreble(s.Treble)}
}
