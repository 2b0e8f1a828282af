// Package render draws observation plans as terminal plots: elevation
// against time and a zenithal sky chart.
package render

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/obzplan/obzplan/internal/astro"
	"github.com/obzplan/obzplan/internal/catalog"
)

// ErrStyles is returned when fewer plot styles than sources are given.
var ErrStyles = fmt.Errorf("not enough plot styles: %w", catalog.ErrMissingSource)

// ErrTooSmall is returned when the plot area cannot hold a chart.
var ErrTooSmall = errors.New("plot area too small")

// DefaultMarkerSize selects the regular glyph weight.
const DefaultMarkerSize = 3.0

// DefaultStyles cover the built-in catalog.
var DefaultStyles = []string{
	"b.", "g.", "r.", "c.", "m.", "y.", "w.",
	"bo", "go", "ro", "co", "mo", "yo", "wo",
}

// Color letters and their ANSI colors
var colors = map[byte]lipgloss.Color{
	'b': lipgloss.Color("33"),
	'g': lipgloss.Color("40"),
	'r': lipgloss.Color("196"),
	'c': lipgloss.Color("51"),
	'm': lipgloss.Color("201"),
	'y': lipgloss.Color("226"),
	'k': lipgloss.Color("244"),
	'w': lipgloss.Color("255"),
}

// Marker glyphs by weight: small, regular, large.
var markers = map[byte][3]rune{
	'.': {'·', '•', '●'},
	'o': {'∘', 'o', '◉'},
	'^': {'˄', '▴', '▲'},
	'v': {'˅', '▾', '▼'},
	'*': {'·', '*', '✶'},
	'+': {'+', '+', '✚'},
	'x': {'x', 'x', '✖'},
	's': {'▫', '▪', '■'},
	'-': {'─', '─', '━'},
}

// Style is a parsed plot style: a color letter optionally followed by a
// marker character, e.g. "r." or "b^".
type Style struct {
	Spec  string
	Color lipgloss.Color
	Glyph rune
	Bold  bool
}

// ParseStyles parses specs for n sources. Fewer specs than sources is a
// missing-source error; extra specs are ignored.
func ParseStyles(specs []string, n int, markerSize float64) ([]Style, error) {
	if len(specs) < n {
		return nil, fmt.Errorf("%d styles for %d sources: %w", len(specs), n, ErrStyles)
	}
	if math.IsNaN(markerSize) || markerSize <= 0 {
		return nil, fmt.Errorf("marker size %v: %w", markerSize, astro.ErrMalformed)
	}

	weight := 1
	switch {
	case markerSize < 2:
		weight = 0
	case markerSize > 5:
		weight = 2
	}

	styles := make([]Style, n)
	for i := 0; i < n; i++ {
		s, err := parseStyle(specs[i], weight)
		if err != nil {
			return nil, err
		}
		styles[i] = s
	}
	return styles, nil
}

func parseStyle(spec string, weight int) (Style, error) {
	s := strings.TrimSpace(spec)
	if len(s) == 0 || len(s) > 2 {
		return Style{}, fmt.Errorf("plot style %q: %w", spec, astro.ErrMalformed)
	}
	c, ok := colors[s[0]]
	if !ok {
		return Style{}, fmt.Errorf("plot style %q: unknown color %q: %w", spec, s[0], astro.ErrMalformed)
	}
	marker := byte('.')
	if len(s) == 2 {
		marker = s[1]
	}
	glyphs, ok := markers[marker]
	if !ok {
		return Style{}, fmt.Errorf("plot style %q: unknown marker %q: %w", spec, marker, astro.ErrMalformed)
	}
	return Style{Spec: s, Color: c, Glyph: glyphs[weight], Bold: weight == 2}, nil
}

func (s Style) textStyle(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().Foreground(s.Color).Bold(s.Bold)
}
