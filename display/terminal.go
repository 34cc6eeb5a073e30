package display

import (
	termbox "github.com/nsf/termbox-go"
)

var _ Display = (*Terminal)(nil)

// Terminal draws the frame in a box at the top left of a termbox screen.
// termbox must already be initialised.
type Terminal struct {
	*Grid
	// Footer is printed below the frame, one line per entry.
	Footer []string
}

func NewTerminal() *Terminal {
	return &Terminal{Grid: NewGrid()}
}

func (t *Terminal) Flush() error {
	const fg, bg = termbox.ColorDefault, termbox.ColorDefault
	if err := termbox.Clear(fg, bg); err != nil {
		return err
	}
	border := func(x, y int, ch rune) { termbox.SetCell(x, y, ch, fg, bg) }
	border(0, 0, '+')
	border(Cols+1, 0, '+')
	border(0, Rows+1, '+')
	border(Cols+1, Rows+1, '+')
	for c := 1; c <= Cols; c++ {
		border(c, 0, '-')
		border(c, Rows+1, '-')
	}
	for r := 0; r < Rows; r++ {
		border(0, r+1, '|')
		border(Cols+1, r+1, '|')
		for c := 0; c < Cols; c++ {
			termbox.SetCell(c+1, r+1, t.Cell(c, r), termbox.ColorWhite|termbox.AttrBold, termbox.ColorBlue)
		}
	}
	for i, line := range t.Footer {
		for x, ch := range line {
			termbox.SetCell(x, Rows+3+i, ch, fg, bg)
		}
	}
	return termbox.Flush()
}
