package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// canvas is a grid of glyphs, each drawn with one of a small palette of
// styles. Index 0 is the background.
type canvas struct {
	width, height int
	glyphs        [][]rune
	paint         [][]int
	palette       []lipgloss.Style
}

func newCanvas(width, height int, background lipgloss.Style) *canvas {
	c := &canvas{
		width:   width,
		height:  height,
		glyphs:  make([][]rune, height),
		paint:   make([][]int, height),
		palette: []lipgloss.Style{background},
	}
	for y := 0; y < height; y++ {
		c.glyphs[y] = make([]rune, width)
		c.paint[y] = make([]int, width)
		for x := 0; x < width; x++ {
			c.glyphs[y][x] = ' '
		}
	}
	return c
}

// ink registers a style and returns its palette index.
func (c *canvas) ink(s lipgloss.Style) int {
	c.palette = append(c.palette, s)
	return len(c.palette) - 1
}

func (c *canvas) set(x, y int, r rune, ink int) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	c.glyphs[y][x] = r
	c.paint[y][x] = ink
}

// get returns the glyph at (x, y), or 0 outside the canvas.
func (c *canvas) get(x, y int) rune {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return 0
	}
	return c.glyphs[y][x]
}

func (c *canvas) text(x, y int, s string, ink int) {
	for i, r := range []rune(s) {
		c.set(x+i, y, r, ink)
	}
}

// String renders the canvas, styling runs of equal ink together.
func (c *canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.height; y++ {
		start := 0
		for x := 1; x <= c.width; x++ {
			if x < c.width && c.paint[y][x] == c.paint[y][start] {
				continue
			}
			run := string(c.glyphs[y][start:x])
			b.WriteString(c.palette[c.paint[y][start]].Render(run))
			start = x
		}
		if y < c.height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
