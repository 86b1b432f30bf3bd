package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// Cell represents a single character in the terminal.
type Cell struct {
	Rune  rune
	Style tcell.Style
}

// Buffer acts as an off-screen render target.
type Buffer struct {
	Cells  [][]Cell
	Width  int
	Height int
}

// NewBuffer creates a new buffer of the specified size.
func NewBuffer(width, height int) *Buffer {
	cells := make([][]Cell, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]Cell, width)
		// Initialize with empty space
		for x := 0; x < width; x++ {
			cells[y][x] = Cell{Rune: ' ', Style: CurrentStyles.Normal}
		}
	}
	return &Buffer{
		Cells:  cells,
		Width:  width,
		Height: height,
	}
}

// ApplyToScreen copies the buffer contents to the screen.
func (b *Buffer) ApplyToScreen(screen tcell.Screen, offsetX, offsetY int) {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			cell := b.Cells[y][x]
			screen.SetContent(offsetX+x, offsetY+y, cell.Rune, nil, cell.Style)
		}
	}
}

// Set writes a rune to the buffer at the specified coordinates.
func (b *Buffer) Set(x, y int, r rune, style tcell.Style) {
	if x >= 0 && x < b.Width && y >= 0 && y < b.Height {
		b.Cells[y][x] = Cell{Rune: r, Style: style}
	}
}

// DrawString writes a string to the buffer at (x, y).
// Wide runes occupy two columns.
func (b *Buffer) DrawString(x, y int, s string, style tcell.Style) {
	if y < 0 || y >= b.Height {
		return
	}

	col := x
	for _, r := range s {
		if col >= b.Width {
			break
		}
		b.Set(col, y, r, style)
		col += max(1, uniseg.StringWidth(string(r)))
	}
}

// FillRow paints the remainder of row y from column x with style.
func (b *Buffer) FillRow(x, y int, style tcell.Style) {
	for col := x; col < b.Width; col++ {
		b.Set(col, y, ' ', style)
	}
}
