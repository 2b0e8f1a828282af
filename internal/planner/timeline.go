package planner

import (
	"errors"
	"fmt"
	"time"

	"github.com/soniakeys/unit"
	"golang.org/x/sync/errgroup"

	"github.com/obzplan/obzplan/internal/astro"
	"github.com/obzplan/obzplan/internal/catalog"
	"github.com/obzplan/obzplan/internal/logging"
)

// Optional holds a value that is absent for some samples.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some returns a present Optional.
func Some[T any](v T) Optional[T] { return Optional[T]{Value: v, Valid: true} }

// Event is a sample at which a source was above the elevation limit but
// blocked by the Sun or Moon.
type Event struct {
	Index       int
	Time        time.Time
	Tag         Tag
	Position    astro.Horizontal
	Parallactic float64 // radians
	LST         float64 // hours
	SunSep      float64 // radians
	MoonSep     float64 // radians
}

// Timeline is the per-sample record of one source over the grid. All
// slices are aligned with the grid; positional series are present only
// where the sample is observable.
type Timeline struct {
	Source      catalog.Source
	Requested   bool
	Times       []time.Time
	Tags        []Tag
	Positions   []Optional[astro.Horizontal]
	Parallactic []Optional[float64] // radians
	Sidereal    []Optional[float64] // hours
	Elevation   []float64           // degrees at every sample, whatever the tag
	Degenerate  int                 // samples that failed closed on an undefined separation

	// Interference lists blocked samples in time order. It is only filled
	// for requested sources.
	Interference []Event
}

// Len returns the number of samples.
func (tl *Timeline) Len() int { return len(tl.Times) }

// Observed returns the number of observable samples.
func (tl *Timeline) Observed() int {
	n := 0
	for _, tag := range tl.Tags {
		if tag.Observable() {
			n++
		}
	}
	return n
}

// Recorder receives build statistics. Implementations must be safe for
// use from the goroutine calling Build.
type Recorder interface {
	ObserveSample(source string, tag Tag)
	ObserveDegenerate(source string)
	ObserveBuild(samples, sources int, elapsed time.Duration)
}

// Request describes one planning run.
type Request struct {
	Engine astro.Engine

	// Sources are evaluated at every sample. Requested names the subset
	// whose interference events are recorded; each must be in Sources.
	Sources   []catalog.Source
	Requested []string

	Start, End time.Time
	Samples    int
	Thresholds Thresholds

	// Workers > 1 evaluates grid samples concurrently. Output does not
	// depend on the worker count.
	Workers int

	Recorder Recorder // optional
	Logger   *logging.Logger
}

// Plan is the outcome of Build.
type Plan struct {
	Grid      []time.Time
	Order     []string // source names in catalog order
	Requested []string // requested names in request order
	Timelines map[string]*Timeline
	Limits    Thresholds

	// LST at each grid sample, hours.
	Sidereal []float64
}

// Timeline returns the timeline for name, or nil.
func (p *Plan) Timeline(name string) *Timeline { return p.Timelines[name] }

// Grid returns samples evenly spaced timestamps from start to end
// inclusive. The last timestamp equals end exactly.
func Grid(start, end time.Time, samples int) ([]time.Time, error) {
	if samples < 2 {
		return nil, fmt.Errorf("%d samples: %w", samples, ErrInvalidRange)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("start %s not before end %s: %w",
			start.Format(time.RFC3339), end.Format(time.RFC3339), ErrInvalidRange)
	}

	span := end.Sub(start)
	steps := time.Duration(samples - 1)
	step, rem := span/steps, span%steps

	grid := make([]time.Time, samples)
	for i := range grid {
		k := time.Duration(i)
		grid[i] = start.Add(step*k + rem*k/steps)
	}
	grid[samples-1] = end
	return grid, nil
}

// sunTracer is implemented by skies that expose the Sun's apparent
// equatorial position.
type sunTracer interface {
	SunEquatorial() (unit.RA, unit.Angle)
}

// row holds every source's classification at one grid sample.
type row struct {
	lst     float64
	results []Classification
}

// Build evaluates every source at every grid sample and assembles the
// per-source timelines.
func Build(req Request) (*Plan, error) {
	log := req.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.Named("planner")

	if req.Engine == nil {
		return nil, errors.New("planner: no ephemeris engine")
	}
	if err := req.Thresholds.Validate(); err != nil {
		return nil, err
	}
	grid, err := Grid(req.Start, req.End, req.Samples)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(req.Sources))
	known := make(map[string]bool, len(req.Sources))
	for _, src := range req.Sources {
		if known[src.Name] {
			return nil, fmt.Errorf("duplicate source %q: %w", src.Name, catalog.ErrInvalid)
		}
		known[src.Name] = true
		order = append(order, src.Name)
	}
	requested := make(map[string]bool, len(req.Requested))
	reqOrder := make([]string, 0, len(req.Requested))
	for _, name := range req.Requested {
		if !known[name] {
			return nil, fmt.Errorf("%q: %w", name, catalog.ErrMissingSource)
		}
		if !requested[name] {
			requested[name] = true
			reqOrder = append(reqOrder, name)
		}
	}

	began := time.Now()
	traceSun := log.Enabled(logging.LevelDebug)
	rows := make([]row, len(grid))
	evaluate := func(i int) {
		sky := req.Engine.At(grid[i])
		sun, moon := sky.Sun(), sky.Moon()
		if st, ok := sky.(sunTracer); ok && traceSun {
			ra, dec := st.SunEquatorial()
			log.Debug("sample %d: sun ra=%s dec=%s", i, astro.FormatHours(ra.Hour()), astro.FormatAngle(dec))
		}
		r := row{lst: sky.LSTHours(), results: make([]Classification, len(req.Sources))}
		for j, src := range req.Sources {
			r.results[j] = Classify(sky, src, sun, moon, req.Thresholds)
		}
		rows[i] = r
	}

	if req.Workers > 1 {
		var g errgroup.Group
		g.SetLimit(req.Workers)
		for i := range grid {
			i := i
			g.Go(func() error {
				evaluate(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range grid {
			evaluate(i)
		}
	}

	plan := &Plan{
		Grid:      grid,
		Order:     order,
		Requested: reqOrder,
		Timelines: make(map[string]*Timeline, len(req.Sources)),
		Limits:    req.Thresholds,
		Sidereal:  make([]float64, len(grid)),
	}
	for i, r := range rows {
		plan.Sidereal[i] = r.lst
	}

	for j, src := range req.Sources {
		tl := &Timeline{
			Source:      src,
			Requested:   requested[src.Name],
			Times:       grid,
			Tags:        make([]Tag, len(grid)),
			Positions:   make([]Optional[astro.Horizontal], len(grid)),
			Parallactic: make([]Optional[float64], len(grid)),
			Sidereal:    make([]Optional[float64], len(grid)),
			Elevation:   make([]float64, len(grid)),
		}
		for i, r := range rows {
			c := r.results[j]
			tl.Tags[i] = c.Tag
			tl.Elevation[i] = c.Position.AltDeg()
			if c.Degenerate {
				tl.Degenerate++
				if req.Recorder != nil {
					req.Recorder.ObserveDegenerate(src.Name)
				}
			}
			if req.Recorder != nil {
				req.Recorder.ObserveSample(src.Name, c.Tag)
			}

			switch {
			case c.Tag.Observable():
				tl.Positions[i] = Some(c.Position)
				tl.Parallactic[i] = Some(c.Position.Parallactic)
				tl.Sidereal[i] = Some(r.lst)
			case c.Tag.Interference() && tl.Requested:
				tl.Interference = append(tl.Interference, Event{
					Index:       i,
					Time:        grid[i],
					Tag:         c.Tag,
					Position:    c.Position,
					Parallactic: c.Position.Parallactic,
					LST:         r.lst,
					SunSep:      c.SunSep,
					MoonSep:     c.MoonSep,
				})
			}
		}
		if tl.Degenerate > 0 {
			log.Debug("%s: %d samples with undefined separation treated as blocked", src.Name, tl.Degenerate)
		}
		plan.Timelines[src.Name] = tl
	}

	elapsed := time.Since(began)
	if req.Recorder != nil {
		req.Recorder.ObserveBuild(len(grid), len(req.Sources), elapsed)
	}
	log.Debug("evaluated %d sources over %d samples in %v (workers=%d)",
		len(req.Sources), len(grid), elapsed, max(req.Workers, 1))
	return plan, nil
}
