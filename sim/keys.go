package sim

import (
	termbox "github.com/nsf/termbox-go"
	"github.com/rabidaudio/irmp3/ir"
)

var keyOpcodes = map[termbox.Key]ir.Opcode{
	termbox.KeyArrowLeft:  ir.Left,
	termbox.KeyArrowRight: ir.Right,
	termbox.KeyArrowUp:    ir.VolumeUp,
	termbox.KeyArrowDown:  ir.VolumeDown,
	termbox.KeyEnter:      ir.SelectTrack,
	termbox.KeySpace:      ir.PlayPause,
	termbox.KeyTab:        ir.Source,
}

var charOpcodes = map[rune]ir.Opcode{
	's': ir.Source,
	'n': ir.Next,
	'p': ir.Previous,
	'+': ir.VolumeUp,
	'=': ir.VolumeUp,
	'-': ir.VolumeDown,
	'm': ir.Mute,
	'b': ir.SoundControl,
}

// KeyHelp describes the keyboard remote.
var KeyHelp = []string{
	"tab/s source  enter select  space play/pause",
	"left/right move  n/p next/prev  b bass/treble",
	"up/+ louder  down/- quieter  m mute  esc quit",
}

// KeyOpcode maps a key press to the remote button it stands for.
func KeyOpcode(ev termbox.Event) (ir.Opcode, bool) {
	if ev.Type != termbox.EventKey {
		return 0, false
	}
	if ev.Ch != 0 {
		op, ok := charOpcodes[ev.Ch]
		return op, ok
	}
	op, ok := keyOpcodes[ev.Key]
	return op, ok
}
