// Package display models the player's 16x8 character OLED.
package display

import "strings"

const (
	Cols = 16
	Rows = 8
)

// Display is a character screen. Print writes at the cursor, wrapping at the
// right edge and moving to the next row on '\n'. Nothing is shown until
// Flush.
type Display interface {
	Clear()
	SetCursor(col, row int)
	Print(s string)
	Flush() error
}

var _ Display = (*Grid)(nil)

// Grid is an in-memory frame. It is the frame buffer behind the terminal and
// log displays, and a Display in its own right for tests.
type Grid struct {
	cells    [Rows][Cols]rune
	col, row int
}

// NewGrid returns a blank grid.
func NewGrid() *Grid {
	g := &Grid{}
	g.Clear()
	return g
}

func (g *Grid) Clear() {
	for r := range g.cells {
		for c := range g.cells[r] {
			g.cells[r][c] = ' '
		}
	}
	g.col, g.row = 0, 0
}

func (g *Grid) SetCursor(col, row int) {
	g.col = min(max(col, 0), Cols-1)
	g.row = min(max(row, 0), Rows-1)
}

func (g *Grid) Print(s string) {
	for _, ch := range s {
		if ch == '\n' {
			g.newline()
			continue
		}
		if g.col >= Cols {
			g.newline()
		}
		if g.row >= Rows {
			return
		}
		g.cells[g.row][g.col] = ch
		g.col++
	}
}

func (g *Grid) newline() {
	g.col = 0
	g.row++
}

func (*Grid) Flush() error { return nil }

// Cell returns the character at (col, row).
func (g *Grid) Cell(col, row int) rune {
	return g.cells[row][col]
}

// Line returns a row with trailing spaces removed.
func (g *Grid) Line(row int) string {
	return strings.TrimRight(string(g.cells[row][:]), " ")
}

// Lines returns every row, trailing spaces removed.
func (g *Grid) Lines() []string {
	lines := make([]string, Rows)
	for r := range lines {
		lines[r] = g.Line(r)
	}
	return lines
}
