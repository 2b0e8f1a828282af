package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/obzplan/obzplan/internal/astro"
	"github.com/obzplan/obzplan/internal/catalog"
	"github.com/obzplan/obzplan/internal/planner"
)

// Options control plot size and appearance.
type Options struct {
	Width, Height int                // total size in cells, legend included
	Renderer      *lipgloss.Renderer // nil uses the default renderer
	Location      *time.Location     // time axis zone; nil is UTC
}

func (o Options) renderer() *lipgloss.Renderer {
	if o.Renderer != nil {
		return o.Renderer
	}
	return lipgloss.DefaultRenderer()
}

func (o Options) location() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return time.UTC
}

const (
	colorAxis  = "60"  // muted purple
	colorGrid  = "238" // dark gray
	colorLabel = "250"
)

// series resolves names against the plan, pairing each with its style.
func series(p *planner.Plan, names []string, styles []Style) ([]*planner.Timeline, error) {
	if len(styles) < len(names) {
		return nil, fmt.Errorf("%d styles for %d sources: %w", len(styles), len(names), ErrStyles)
	}
	out := make([]*planner.Timeline, len(names))
	for i, name := range names {
		tl := p.Timeline(name)
		if tl == nil {
			return nil, fmt.Errorf("%q: %w", name, catalog.ErrMissingSource)
		}
		out[i] = tl
	}
	return out, nil
}

func legend(r *lipgloss.Renderer, names []string, styles []Style, extra string) string {
	parts := make([]string, 0, len(names)+1)
	for i, name := range names {
		parts = append(parts, styles[i].textStyle(r).Render(string(styles[i].Glyph)+" "+name))
	}
	if extra != "" {
		parts = append(parts, r.NewStyle().Foreground(lipgloss.Color(colorAxis)).Render(extra))
	}
	return strings.Join(parts, "  ")
}

// ElevationChart plots the elevation of each named source against time.
// Samples that are not observable leave gaps.
func ElevationChart(p *planner.Plan, names []string, styles []Style, opts Options) (string, error) {
	tls, err := series(p, names, styles)
	if err != nil {
		return "", err
	}

	const gutter = 6
	pw, ph := opts.Width-gutter, opts.Height-3
	if pw < 10 || ph < 4 || len(p.Grid) < 2 {
		return "", fmt.Errorf("elevation chart %dx%d: %w", opts.Width, opts.Height, ErrTooSmall)
	}

	// Elevation axis spans [lo, 90], lo extended below the horizon in
	// steps of 10° when needed.
	lo := 0.0
	for _, tl := range tls {
		for _, pos := range tl.Positions {
			if pos.Valid && pos.Value.AltDeg() < lo {
				lo = math.Floor(pos.Value.AltDeg()/10) * 10
			}
		}
	}
	const hi = 90.0
	row := func(el float64) int {
		return int(math.Round((hi - el) / (hi - lo) * float64(ph-1)))
	}
	n := len(p.Grid)
	col := func(i int) int {
		return gutter + int(math.Round(float64(i)*float64(pw-1)/float64(n-1)))
	}

	r := opts.renderer()
	c := newCanvas(opts.Width, ph+2, r.NewStyle())
	axis := c.ink(r.NewStyle().Foreground(lipgloss.Color(colorAxis)))
	grid := c.ink(r.NewStyle().Foreground(lipgloss.Color(colorGrid)))
	label := c.ink(r.NewStyle().Foreground(lipgloss.Color(colorLabel)))

	// Axes and gridlines
	for y := 0; y < ph; y++ {
		c.set(gutter-1, y, '│', axis)
	}
	c.set(gutter-1, ph, '└', axis)
	for x := gutter; x < opts.Width; x++ {
		c.set(x, ph, '─', axis)
	}
	ticks := []float64{hi, (hi + lo) / 2, lo}
	if lo < 0 {
		ticks = append(ticks, 0)
	}
	for _, el := range ticks {
		y := row(el)
		c.text(0, y, fmt.Sprintf("%4.0f°", el), label)
		if el != lo {
			for x := gutter; x < opts.Width; x += 2 {
				c.set(x, y, '┄', grid)
			}
		}
	}

	// Time labels: start, middle, end
	loc := opts.location()
	first, last := p.Grid[0].In(loc), p.Grid[n-1].In(loc)
	mid := p.Grid[n/2].In(loc)
	c.text(gutter, ph+1, first.Format("15:04"), label)
	c.text(gutter+pw/2-2, ph+1, mid.Format("15:04"), label)
	c.text(opts.Width-5, ph+1, last.Format("15:04"), label)

	for k, tl := range tls {
		ink := c.ink(styles[k].textStyle(r))
		for i, pos := range tl.Positions {
			if !pos.Valid {
				continue
			}
			c.set(col(i), row(pos.Value.AltDeg()), styles[k].Glyph, ink)
		}
	}

	zone := "UTC"
	if loc != time.UTC {
		zone = first.Format("MST")
	}
	return c.String() + "\n" + legend(r, names, styles, "time "+zone), nil
}

// Marker is an extra labelled point on the sky chart.
type Marker struct {
	Name     string
	Position astro.Horizontal
}

// PoleMarker returns the marker of the celestial pole visible from obs.
func PoleMarker(obs astro.Observer, sky astro.Sky) Marker {
	pole := catalog.Pole(obs)
	return Marker{Name: pole.Name, Position: sky.Fixed(pole.RA, pole.Dec)}
}

const (
	glyphStart = '▲'
	glyphEnd   = '▼'
	glyphPole  = '✶'
)

// SkyPlot draws the tracks of the named sources on a zenithal chart of the
// sky above the horizon: zenith at the center, north up, east left. The
// first and last observable samples of each track are marked ▲ and ▼.
func SkyPlot(p *planner.Plan, names []string, styles []Style, extra []Marker, opts Options) (string, error) {
	tls, err := series(p, names, styles)
	if err != nil {
		return "", err
	}

	w, h := opts.Width, opts.Height-1
	if w < 11 || h < 7 {
		return "", fmt.Errorf("sky plot %dx%d: %w", opts.Width, opts.Height, ErrTooSmall)
	}
	cell := func(pt astro.ProjectedPoint) (int, int) {
		x := int(math.Round((pt.X + 1) / 2 * float64(w-1)))
		y := int(math.Round((1 - pt.Y) / 2 * float64(h-1)))
		return x, y
	}

	r := opts.renderer()
	c := newCanvas(w, h, r.NewStyle())
	axis := c.ink(r.NewStyle().Foreground(lipgloss.Color(colorAxis)))
	grid := c.ink(r.NewStyle().Foreground(lipgloss.Color(colorGrid)))
	label := c.ink(r.NewStyle().Foreground(lipgloss.Color(colorLabel)).Bold(true))

	// Horizon and the 30° and 60° altitude rings
	for _, ring := range []struct {
		alt float64
		ink int
	}{{0, axis}, {30, grid}, {60, grid}} {
		for az := 0; az < 360; az += 2 {
			pt := astro.ProjectZenithal(astro.Horizontal{Az: float64(az) * math.Pi / 180, Alt: ring.alt * math.Pi / 180})
			x, y := cell(pt)
			c.set(x, y, '·', ring.ink)
		}
	}
	zx, zy := cell(astro.ProjectedPoint{})
	c.set(zx, zy, '+', grid)
	for _, card := range []struct {
		name string
		az   float64
	}{{"N", 0}, {"E", 90}, {"S", 180}, {"W", 270}} {
		x, y := cell(astro.ProjectZenithal(astro.Horizontal{Az: card.az * math.Pi / 180}))
		c.text(x, y, card.name, label)
	}

	inks := make([]int, len(tls))
	for k, tl := range tls {
		inks[k] = c.ink(styles[k].textStyle(r))
		for _, pos := range tl.Positions {
			if !pos.Valid {
				continue
			}
			pt := astro.ProjectZenithal(pos.Value)
			if !pt.Visible {
				continue
			}
			x, y := cell(pt)
			c.set(x, y, styles[k].Glyph, inks[k])
		}
	}

	// Start and end markers go on top of every track
	for k, tl := range tls {
		first, last := -1, -1
		for i, pos := range tl.Positions {
			if pos.Valid && pos.Value.Alt >= 0 {
				if first < 0 {
					first = i
				}
				last = i
			}
		}
		if first < 0 {
			continue
		}
		x, y := cell(astro.ProjectZenithal(tl.Positions[first].Value))
		c.set(x, y, glyphStart, inks[k])
		x, y = cell(astro.ProjectZenithal(tl.Positions[last].Value))
		c.set(x, y, glyphEnd, inks[k])
	}

	for _, m := range extra {
		pt := astro.ProjectZenithal(m.Position)
		if !pt.Visible {
			continue
		}
		x, y := cell(pt)
		c.set(x, y, glyphPole, label)
		c.text(x+2, y, m.Name, label)
	}

	return c.String() + "\n" + legend(r, names, styles, "▲ start  ▼ end"), nil
}
