package planner

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/obzplan/obzplan/internal/astro"
	"github.com/obzplan/obzplan/internal/catalog"
)

// Bearing is an (elevation, azimuth) pair in degrees.
type Bearing struct {
	Elevation float64 `json:"elevation"`
	Azimuth   float64 `json:"azimuth"`
}

// Summary condenses a timeline's observable samples.
type Summary struct {
	Source          string
	NeverObservable bool
	Observed        int

	StartTime, EndTime time.Time
	Start, End         Bearing // first and last observable sample

	// Min and Max are taken independently per component. Azimuth extremes
	// are plain numeric extremes of values in [0, 360) and do not account
	// for wrap-around through north.
	Min, Max Bearing

	// LSTStart and LSTEnd bound the observable sidereal times; a window that
	// wraps through 0h spans [0, 24). LSTFirst and LSTLast are the LST of
	// the first and last observable sample.
	LSTStart, LSTEnd  float64 // hours
	LSTFirst, LSTLast float64 // hours
}

// Summarize reduces tl to its observable extent.
func Summarize(tl *Timeline) Summary {
	s := Summary{Source: tl.Source.Name}

	var (
		zenith  []float64
		azimuth []float64
		lst     []float64
		first   = -1
		last    = -1
	)
	for i, p := range tl.Positions {
		if !p.Valid {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
		zenith = append(zenith, p.Value.ZenithDeg())
		azimuth = append(azimuth, p.Value.AzDeg())
		lst = append(lst, tl.Sidereal[i].Value)
	}

	if first < 0 {
		s.NeverObservable = true
		return s
	}

	s.Observed = len(zenith)
	s.StartTime, s.EndTime = tl.Times[first], tl.Times[last]
	s.Start = bearingOf(tl, first)
	s.End = bearingOf(tl, last)

	// Elevation extremes via zenith distance
	s.Min = Bearing{Elevation: 90 - floats.Max(zenith), Azimuth: floats.Min(azimuth)}
	s.Max = Bearing{Elevation: 90 - floats.Min(zenith), Azimuth: floats.Max(azimuth)}

	s.LSTStart, s.LSTEnd = floats.Min(lst), floats.Max(lst)
	s.LSTFirst, s.LSTLast = tl.Sidereal[first].Value, tl.Sidereal[last].Value
	return s
}

func bearingOf(tl *Timeline, i int) Bearing {
	h := tl.Positions[i].Value
	return Bearing{Elevation: h.AltDeg(), Azimuth: h.AzDeg()}
}

// SummarizeRequested returns summaries for the plan's requested sources in
// request order.
func (p *Plan) SummarizeRequested() []Summary {
	out := make([]Summary, 0, len(p.Requested))
	for _, name := range p.Requested {
		out = append(out, Summarize(p.Timelines[name]))
	}
	return out
}

// Window locates the crossings of the elevation limit for name within the
// plan's span. Interference does not affect it.
func (p *Plan) Window(name string) (astro.VisibilityWindow, error) {
	tl := p.Timelines[name]
	if tl == nil {
		return astro.VisibilityWindow{}, fmt.Errorf("%q: %w", name, catalog.ErrMissingSource)
	}
	samples := make([]astro.ElevationSample, len(tl.Elevation))
	for i, el := range tl.Elevation {
		samples[i] = astro.ElevationSample{Time: tl.Times[i], ElDeg: el}
	}
	return astro.RiseSet(samples, p.Limits.ElevationCutoff)
}
