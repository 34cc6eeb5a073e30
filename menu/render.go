package menu

import (
	"fmt"

	"github.com/rabidaudio/irmp3/catalog"
	"github.com/rabidaudio/irmp3/display"
)

// titleWidth leaves column 0 for the list cursor.
const titleWidth = display.Cols - 1

// levelBars draws a tone level as a bar either side of the centre mark.
var levelBars = [11]string{
	"   *****|       ",
	"    ****|       ",
	"     ***|       ",
	"      **|       ",
	"       *|       ",
	"        |       ",
	"        |*      ",
	"        |**     ",
	"        |***    ",
	"        |****   ",
	"        |*****  ",
}

const levelScale = "  -5    0    5  "

var splash = []string{
	"                ",
	"     IR MP3     ",
	"     PLAYER     ",
	"                ",
	"                ",
	"  Press SOURCE  ",
	"    to start!   ",
}

// Renderer draws menu states onto a display.
type Renderer struct {
	Display display.Display
	Catalog *catalog.Catalog
}

// Render redraws what kind says changed between prev and next, then
// flushes.
func (r *Renderer) Render(kind Render, prev, next State) error {
	d := r.Display
	switch kind {
	case RenderNone:
		return nil
	case RenderFull:
		d.Clear()
		switch next.Screen {
		case TrackInfo:
			r.trackInfo(next)
		case TrackList:
			r.trackList(next)
		case Settings:
			r.settings(next)
		}
	case RenderHeader:
		d.SetCursor(0, 0)
		d.Print(header(next))
	case RenderCursor:
		d.SetCursor(0, prev.Cursor)
		d.Print(" ")
		d.SetCursor(0, next.Cursor)
		d.Print(">")
	case RenderLevel:
		d.SetCursor(0, 4)
		d.Print(levelBars[next.Level()])
	case RenderMode:
		d.SetCursor(0, 1)
		d.Print(modeTitle(next.Mode))
		d.SetCursor(0, 4)
		d.Print(levelBars[next.Level()])
	}
	return d.Flush()
}

func header(s State) string {
	if s.Playing {
		return "Now Playing...\n"
	}
	return "Paused...     \n"
}

func modeTitle(m Mode) string {
	if m == Bass {
		return "*     BASS     *"
	}
	return "*    TREBLE    *"
}

func (r *Renderer) trackInfo(s State) {
	d := r.Display
	d.Print(header(s))
	t, ok := r.Catalog.Track(s.Track)
	if !ok {
		d.Print("No tracks\n")
		return
	}
	d.Print(fmt.Sprintf("Title: %s\n", t.Title()))
	d.Print(fmt.Sprintf("Artist: %s\n", t.Artist()))
	d.Print(fmt.Sprintf("Album: %s\n", t.Album()))
}

// trackList prints the current page. The last page only holds the
// remaining tracks.
func (r *Renderer) trackList(s State) {
	d := r.Display
	first := s.Page * PageSize
	for row := 0; row < PageSize; row++ {
		t, ok := r.Catalog.Track(first + row)
		if !ok {
			break
		}
		d.SetCursor(1, row)
		d.Print(truncate(t.Title(), titleWidth))
	}
	d.SetCursor(0, s.Cursor)
	d.Print(">")
}

func (r *Renderer) settings(s State) {
	d := r.Display
	d.Print("****************")
	d.Print(modeTitle(s.Mode))
	d.Print("****************")
	d.SetCursor(0, 4)
	d.Print(levelBars[s.Level()])
	d.SetCursor(0, 5)
	d.Print(levelScale)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// Splash draws the start-up screen.
func Splash(d display.Display) error {
	d.Clear()
	for _, line := range splash {
		d.Print(line)
	}
	return d.Flush()
}

// StorageError tells the user the card could not be read.
func StorageError(d display.Display, err error) error {
	d.Clear()
	d.Print("ERROR\n")
	d.Print("Storage:\n")
	d.Print(err.Error())
	return d.Flush()
}
