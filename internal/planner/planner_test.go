package planner

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/obzplan/obzplan/internal/astro"
	"github.com/obzplan/obzplan/internal/catalog"
)

var t0 = time.Date(2017, 3, 21, 0, 0, 0, 0, time.UTC)

func deg(d float64) float64 { return d * math.Pi / 180 }

// fakeSky is a scripted sky for one instant.
type fakeSky struct {
	t     time.Time
	sun   astro.Horizontal
	moon  astro.Horizontal
	lst   float64
	fixed func(ra unit.RA, dec unit.Angle) astro.Horizontal
}

func (s fakeSky) Fixed(ra unit.RA, dec unit.Angle) astro.Horizontal { return s.fixed(ra, dec) }
func (s fakeSky) Sun() astro.Horizontal                            { return s.sun }
func (s fakeSky) Moon() astro.Horizontal                           { return s.moon }
func (s fakeSky) LSTHours() float64                                { return s.lst }
func (s fakeSky) Time() time.Time                                  { return s.t }

type fakeEngine func(t time.Time) astro.Sky

func (f fakeEngine) At(t time.Time) astro.Sky { return f(t) }

var farAway = astro.Horizontal{Az: deg(10), Alt: deg(-80)}

// scriptedEngine models hourly samples from t0. Northern-declination
// sources rise 10° per hour from -20°, southern ones stay at -45°. The Sun
// sits next to the rising sources at hour 5 and the Moon on top of them at
// hour 7.
func scriptedEngine() astro.Engine {
	return fakeEngine(func(t time.Time) astro.Sky {
		h := t.Sub(t0).Hours()
		hour := int(math.Round(h))
		rising := astro.Horizontal{Az: deg(100), Alt: deg(-20 + 10*h)}

		s := fakeSky{t: t, sun: farAway, moon: farAway, lst: h}
		s.fixed = func(_ unit.RA, dec unit.Angle) astro.Horizontal {
			if dec.Deg() < 0 {
				return astro.Horizontal{Az: deg(200), Alt: deg(-45)}
			}
			return rising
		}
		switch hour {
		case 5:
			s.sun = astro.Horizontal{Az: rising.Az, Alt: rising.Alt + deg(1)}
		case 7:
			s.moon = rising
		}
		return s
	})
}

func scriptedSources() []catalog.Source {
	return []catalog.Source{
		{Name: "Sun", Kind: catalog.KindSun},
		{Name: "target", Kind: catalog.KindFixed, RA: unit.NewRA(1, 0, 0), Dec: unit.AngleFromDeg(10)},
		{Name: "hidden", Kind: catalog.KindFixed, RA: unit.NewRA(2, 0, 0), Dec: unit.AngleFromDeg(-10)},
		{Name: "other", Kind: catalog.KindFixed, RA: unit.NewRA(3, 0, 0), Dec: unit.AngleFromDeg(20)},
	}
}

func scriptedRequest() Request {
	return Request{
		Engine:     scriptedEngine(),
		Sources:    scriptedSources(),
		Requested:  []string{"target", "hidden"},
		Start:      t0,
		End:        t0.Add(10 * time.Hour),
		Samples:    11,
		Thresholds: Thresholds{ElevationCutoff: 0, SolarSeparation: 15, LunarSeparation: 0.75},
	}
}

func TestTag(t *testing.T) {
	tests := []struct {
		tag          Tag
		str          string
		observable   bool
		interference bool
	}{
		{Observable, "observable", true, false},
		{BelowLimit, "below-limit", false, false},
		{SunBlocked, "sun", false, true},
		{MoonBlocked, "moon", false, true},
		{SunBlocked | MoonBlocked, "sun+moon", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			if got := tt.tag.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
			if got := tt.tag.Observable(); got != tt.observable {
				t.Errorf("Observable() = %v, want %v", got, tt.observable)
			}
			if got := tt.tag.Interference(); got != tt.interference {
				t.Errorf("Interference() = %v, want %v", got, tt.interference)
			}
		})
	}

	if (SunBlocked | MoonBlocked).Has(BelowLimit) {
		t.Error("interference tag reports BelowLimit")
	}
	if Observable.Has(Observable) {
		t.Error("Has(Observable) should be false")
	}
}

func TestThresholds_Validate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("default thresholds invalid: %v", err)
	}

	tests := []struct {
		name string
		th   Thresholds
	}{
		{"NaN cutoff", Thresholds{ElevationCutoff: math.NaN()}},
		{"cutoff above zenith", Thresholds{ElevationCutoff: 91}},
		{"negative solar", Thresholds{SolarSeparation: -1}},
		{"infinite lunar", Thresholds{LunarSeparation: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.th.Validate(); !errors.Is(err, ErrInvalidThreshold) {
				t.Errorf("Validate() = %v, want ErrInvalidThreshold", err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	fixed := catalog.Source{Name: "src", Kind: catalog.KindFixed}
	target := astro.Horizontal{Az: 1.0, Alt: 0.5}
	nearTarget := astro.Horizontal{Az: 1.0, Alt: 0.45}
	th := DefaultThresholds()

	at := func(pos astro.Horizontal) astro.Sky {
		return fakeSky{fixed: func(unit.RA, unit.Angle) astro.Horizontal { return pos }}
	}

	tests := []struct {
		name       string
		src        catalog.Source
		pos        astro.Horizontal
		sun, moon  astro.Horizontal
		th         Thresholds
		want       Tag
		degenerate bool
	}{
		{"clear sky", fixed, target, farAway, farAway, th, Observable, false},
		{"sun nearby", fixed, target, nearTarget, farAway, th, SunBlocked, false},
		{"moon on top", fixed, target, farAway, target, th, MoonBlocked, false},
		{"both nearby", fixed, target, nearTarget, target, th, SunBlocked | MoonBlocked, false},
		{"below cutoff gates interference", fixed, target, target, target,
			Thresholds{ElevationCutoff: 45, SolarSeparation: 15, LunarSeparation: 1}, BelowLimit, false},
		{"at cutoff is below", fixed, astro.Horizontal{Az: 1}, farAway, farAway,
			Thresholds{ElevationCutoff: 0}, BelowLimit, false},
		{"zero solar threshold", fixed, target, nearTarget, farAway,
			Thresholds{ElevationCutoff: -90}, Observable, false},
		{"sun blocks itself", catalog.Source{Name: "Sun", Kind: catalog.KindSun}, farAway, nearTarget, farAway, th, SunBlocked, false},
		{"sun blocks itself at zero threshold", catalog.Source{Name: "Sun", Kind: catalog.KindSun}, farAway, nearTarget, farAway,
			Thresholds{ElevationCutoff: -90}, SunBlocked, false},
		{"moon blocks itself", catalog.Source{Name: "Moon", Kind: catalog.KindMoon}, farAway, farAway, target, th, MoonBlocked, false},
		{"sun below cutoff", catalog.Source{Name: "Sun", Kind: catalog.KindSun}, target, astro.Horizontal{Az: 1, Alt: -0.2}, farAway,
			Thresholds{ElevationCutoff: 0}, BelowLimit, false},
		{"undefined separation fails closed", fixed, astro.Horizontal{}, farAway, farAway, th, SunBlocked | MoonBlocked, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(at(tt.pos), tt.src, tt.sun, tt.moon, tt.th)
			if c.Tag != tt.want {
				t.Errorf("Tag = %v, want %v", c.Tag, tt.want)
			}
			if c.Degenerate != tt.degenerate {
				t.Errorf("Degenerate = %v, want %v", c.Degenerate, tt.degenerate)
			}
		})
	}
}

func TestGrid(t *testing.T) {
	end := t0.Add(12 * time.Hour)
	grid, err := Grid(t0, end, 1500)
	if err != nil {
		t.Fatalf("Grid() error = %v", err)
	}
	if len(grid) != 1500 {
		t.Fatalf("len = %d, want 1500", len(grid))
	}
	if !grid[0].Equal(t0) || !grid[len(grid)-1].Equal(end) {
		t.Errorf("endpoints = %v, %v", grid[0], grid[len(grid)-1])
	}

	want := 12 * time.Hour / 1499
	for i := 1; i < len(grid); i++ {
		step := grid[i].Sub(grid[i-1])
		if d := step - want; d < -time.Nanosecond || d > time.Nanosecond {
			t.Fatalf("step %d = %v, want %v", i, step, want)
		}
	}

	// Long windows must not overflow
	long, err := Grid(t0, t0.AddDate(5, 0, 0), 100000)
	if err != nil {
		t.Fatalf("Grid(long) error = %v", err)
	}
	for i := 1; i < len(long); i++ {
		if !long[i].After(long[i-1]) {
			t.Fatalf("long grid not increasing at %d", i)
		}
	}
}

func TestGrid_InvalidRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		samples    int
	}{
		{"start equals end", t0, t0, 10},
		{"start after end", t0.Add(time.Hour), t0, 10},
		{"one sample", t0, t0.Add(time.Hour), 1},
		{"no samples", t0, t0.Add(time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Grid(tt.start, tt.end, tt.samples); !errors.Is(err, ErrInvalidRange) {
				t.Errorf("Grid() error = %v, want ErrInvalidRange", err)
			}
		})
	}
}

func TestBuild_Scripted(t *testing.T) {
	p, err := Build(scriptedRequest())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	tl := p.Timeline("target")
	want := []Tag{
		BelowLimit, BelowLimit, BelowLimit,
		Observable, Observable,
		SunBlocked,
		Observable,
		MoonBlocked,
		Observable, Observable, Observable,
	}
	if !reflect.DeepEqual(tl.Tags, want) {
		t.Fatalf("Tags = %v, want %v", tl.Tags, want)
	}
	if tl.Observed() != 6 {
		t.Errorf("Observed() = %d, want 6", tl.Observed())
	}

	// Positional series are present exactly where the sample is observable
	for i, tag := range tl.Tags {
		valid := tl.Positions[i].Valid
		if valid != tag.Observable() || tl.Parallactic[i].Valid != valid || tl.Sidereal[i].Valid != valid {
			t.Errorf("sample %d: tag %v but validity %v/%v/%v", i, tag,
				valid, tl.Parallactic[i].Valid, tl.Sidereal[i].Valid)
		}
	}

	if len(tl.Interference) != 2 {
		t.Fatalf("Interference = %d events, want 2", len(tl.Interference))
	}
	if ev := tl.Interference[0]; ev.Index != 5 || ev.Tag != SunBlocked || !ev.Time.Equal(t0.Add(5*time.Hour)) {
		t.Errorf("first event = %+v", ev)
	}
	if ev := tl.Interference[1]; ev.Index != 7 || ev.Tag != MoonBlocked || ev.LST != 7 {
		t.Errorf("second event = %+v", ev)
	}

	// Unrequested sources are classified but their interference is not kept
	other := p.Timeline("other")
	if other.Requested || len(other.Interference) != 0 {
		t.Errorf("other: requested=%v, %d events", other.Requested, len(other.Interference))
	}
	if other.Tags[5] != SunBlocked {
		t.Errorf("other tag at hour 5 = %v, want sun", other.Tags[5])
	}

	// The Sun gets the same separation tests as every other source
	sun := p.Timeline("Sun")
	if sun.Tags[4] != BelowLimit || sun.Tags[5] != SunBlocked {
		t.Errorf("Sun tags at hours 4, 5 = %v, %v, want below, sun", sun.Tags[4], sun.Tags[5])
	}

	if got := p.Timeline("hidden").Observed(); got != 0 {
		t.Errorf("hidden observed %d samples", got)
	}
	if !reflect.DeepEqual(p.Order, []string{"Sun", "target", "hidden", "other"}) {
		t.Errorf("Order = %v", p.Order)
	}
	if !reflect.DeepEqual(p.Requested, []string{"target", "hidden"}) {
		t.Errorf("Requested = %v", p.Requested)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Request)
		want   error
	}{
		{"reversed window", func(r *Request) { r.Start, r.End = r.End, r.Start }, ErrInvalidRange},
		{"single sample", func(r *Request) { r.Samples = 1 }, ErrInvalidRange},
		{"unknown requested source", func(r *Request) { r.Requested = []string{"Vega"} }, catalog.ErrMissingSource},
		{"bad threshold", func(r *Request) { r.Thresholds.SolarSeparation = math.NaN() }, ErrInvalidThreshold},
		{"duplicate source", func(r *Request) { r.Sources = append(r.Sources, r.Sources[1]) }, catalog.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := scriptedRequest()
			tt.modify(&req)
			if _, err := Build(req); !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}

	req := scriptedRequest()
	req.Engine = nil
	if _, err := Build(req); err == nil {
		t.Error("Build() without engine succeeded")
	}
}

type countingRecorder struct {
	samples    map[Tag]int
	degenerate int
	builds     int
}

func (r *countingRecorder) ObserveSample(_ string, tag Tag) { r.samples[tag]++ }
func (r *countingRecorder) ObserveDegenerate(string)        { r.degenerate++ }
func (r *countingRecorder) ObserveBuild(int, int, time.Duration) {
	r.builds++
}

func TestBuild_Recorder(t *testing.T) {
	rec := &countingRecorder{samples: map[Tag]int{}}
	req := scriptedRequest()
	req.Recorder = rec

	if _, err := Build(req); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	total := 0
	for _, n := range rec.samples {
		total += n
	}
	if total != 11*4 {
		t.Errorf("recorded %d samples, want %d", total, 11*4)
	}
	if rec.builds != 1 {
		t.Errorf("recorded %d builds, want 1", rec.builds)
	}
}

func meerkatRequest(t *testing.T, samples int) Request {
	t.Helper()
	obs, err := astro.NewObserver("-30:42:47.41", "21:26:38.0", 1054)
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	return Request{
		Engine:     obs,
		Sources:    catalog.Default().Sources(),
		Requested:  []string{"PKS 1934-638", "3C286", "DEEP2"},
		Start:      time.Date(2017, 3, 21, 8, 0, 0, 0, time.UTC),
		End:        time.Date(2017, 3, 21, 20, 0, 0, 0, time.UTC),
		Samples:    samples,
		Thresholds: DefaultThresholds(),
	}
}

func TestBuild_WorkersDeterministic(t *testing.T) {
	req := meerkatRequest(t, 120)
	serial, err := Build(req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	req.Workers = 4
	parallel, err := Build(req)
	if err != nil {
		t.Fatalf("Build(workers=4) error = %v", err)
	}

	if !reflect.DeepEqual(serial.Sidereal, parallel.Sidereal) {
		t.Error("sidereal series differ between worker counts")
	}
	for _, name := range serial.Order {
		a, b := serial.Timeline(name), parallel.Timeline(name)
		if !reflect.DeepEqual(a.Tags, b.Tags) || !reflect.DeepEqual(a.Positions, b.Positions) {
			t.Errorf("%s: timelines differ between worker counts", name)
		}
		if !reflect.DeepEqual(a.Interference, b.Interference) {
			t.Errorf("%s: interference differs between worker counts", name)
		}
	}
}

func TestBuild_CutoffMonotone(t *testing.T) {
	prev := map[string]int{}
	for i, cutoff := range []float64{-90, 0, 20, 45, 80, 90} {
		req := meerkatRequest(t, 100)
		req.Thresholds.ElevationCutoff = cutoff
		p, err := Build(req)
		if err != nil {
			t.Fatalf("Build(cutoff=%v) error = %v", cutoff, err)
		}
		for _, name := range p.Order {
			n := p.Timeline(name).Observed()
			if i > 0 && n > prev[name] {
				t.Errorf("%s: raising cutoff to %v increased observable samples %d -> %d", name, cutoff, prev[name], n)
			}
			prev[name] = n
			if cutoff == 90 && !Summarize(p.Timeline(name)).NeverObservable {
				t.Errorf("%s observable with an unreachable cutoff", name)
			}

			for j, pos := range p.Timeline(name).Positions {
				if pos.Valid && pos.Value.AltDeg() <= cutoff {
					t.Errorf("%s sample %d observable at %.2f° with cutoff %v", name, j, pos.Value.AltDeg(), cutoff)
				}
			}
		}
	}
}

func TestBuild_SolarThreshold(t *testing.T) {
	req := meerkatRequest(t, 100)
	req.Thresholds.SolarSeparation = 0
	p, err := Build(req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, name := range p.Order {
		tl := p.Timeline(name)
		for i, tag := range tl.Tags {
			// Only the Sun itself coincides with the Sun
			if tl.Source.Kind == catalog.KindSun {
				if !tag.Has(SunBlocked) {
					t.Errorf("Sun sample %d tagged %v with zero threshold, want sun", i, tag)
				}
				continue
			}
			if tag.Has(SunBlocked) {
				t.Errorf("%s sample %d Sun-blocked with zero threshold", name, i)
			}
		}
	}

	// Widening the solar limit never unblocks a sample
	blocked := func(p *Plan) int {
		n := 0
		for _, name := range p.Order {
			for _, tag := range p.Timeline(name).Tags {
				if tag.Has(SunBlocked) {
					n++
				}
			}
		}
		return n
	}
	prev := blocked(p)
	for _, sep := range []float64{15, 45, 90} {
		req.Thresholds.SolarSeparation = sep
		q, err := Build(req)
		if err != nil {
			t.Fatalf("Build(sep=%v) error = %v", sep, err)
		}
		if n := blocked(q); n < prev {
			t.Errorf("solar separation %v blocked %d samples, fewer than %d", sep, n, prev)
		} else {
			prev = n
		}
	}
}

func TestSummarize_Scripted(t *testing.T) {
	p, err := Build(scriptedRequest())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	s := Summarize(p.Timeline("target"))
	if s.NeverObservable {
		t.Fatal("target reported never observable")
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"start elevation", s.Start.Elevation, 10},
		{"end elevation", s.End.Elevation, 80},
		{"min elevation", s.Min.Elevation, 10},
		{"max elevation", s.Max.Elevation, 80},
		{"min azimuth", s.Min.Azimuth, 100},
		{"max azimuth", s.Max.Azimuth, 100},
		{"LST start", s.LSTStart, 3},
		{"LST end", s.LSTEnd, 10},
		{"LST first", s.LSTFirst, 3},
		{"LST last", s.LSTLast, 10},
	}
	for _, c := range checks {
		if !scalar.EqualWithinAbs(c.got, c.want, 1e-9) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if !s.StartTime.Equal(t0.Add(3*time.Hour)) || !s.EndTime.Equal(t0.Add(10*time.Hour)) {
		t.Errorf("observable span = %v..%v", s.StartTime, s.EndTime)
	}
	if s.Observed != 6 {
		t.Errorf("Observed = %d, want 6", s.Observed)
	}

	if hidden := Summarize(p.Timeline("hidden")); !hidden.NeverObservable {
		t.Error("hidden should never be observable")
	}
}

func TestSummarize_SiderealWrap(t *testing.T) {
	// Observable from LST 22h through 0h to 2h, with a gap in between
	lsts := []float64{21, 22, 23.5, 0.5, 1, 2, 3}
	observable := []bool{false, true, true, true, false, true, false}

	tl := &Timeline{Source: catalog.Source{Name: "wrap"}}
	for i, lst := range lsts {
		tl.Times = append(tl.Times, t0.Add(time.Duration(i)*time.Hour))
		if !observable[i] {
			tl.Tags = append(tl.Tags, BelowLimit)
			tl.Positions = append(tl.Positions, Optional[astro.Horizontal]{})
			tl.Parallactic = append(tl.Parallactic, Optional[float64]{})
			tl.Sidereal = append(tl.Sidereal, Optional[float64]{})
			continue
		}
		tl.Tags = append(tl.Tags, Observable)
		tl.Positions = append(tl.Positions, Some(astro.Horizontal{Az: deg(150), Alt: deg(30)}))
		tl.Parallactic = append(tl.Parallactic, Some(0.0))
		tl.Sidereal = append(tl.Sidereal, Some(lst))
	}

	s := Summarize(tl)
	if s.LSTStart != 0.5 || s.LSTEnd != 23.5 {
		t.Errorf("LST span = [%v, %v], want [0.5, 23.5]", s.LSTStart, s.LSTEnd)
	}
	if s.LSTFirst != 22 || s.LSTLast != 2 {
		t.Errorf("LST first/last = %v/%v, want 22/2", s.LSTFirst, s.LSTLast)
	}
}

func TestSummarize_SiderealSpanOnRealSky(t *testing.T) {
	// DEEP2 is circumpolar at MeerKAT and the default window runs through
	// LST 0h, so its span covers nearly the whole sidereal day.
	req := meerkatRequest(t, 300)
	req.Thresholds.SolarSeparation = 0
	req.Thresholds.LunarSeparation = 0
	p, err := Build(req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	s := Summarize(p.Timeline("DEEP2"))
	if s.NeverObservable {
		t.Fatal("DEEP2 reported never observable")
	}
	if s.LSTStart > 0.1 || s.LSTEnd < 23.9 {
		t.Errorf("LST span = [%v, %v], want about [0, 24)", s.LSTStart, s.LSTEnd)
	}
	if s.LSTFirst < 21 || s.LSTLast > 10 {
		t.Errorf("LST first/last = %v/%v, want about 21.4/9.4", s.LSTFirst, s.LSTLast)
	}
}

func TestBuild_NeverRisesAnyWindow(t *testing.T) {
	obs, err := astro.NewObserver("-30:42:47.41", "21:26:38.0", 1054)
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	// Culminates at 90 - (30.71 + 70) = -10.7° from this latitude
	north := catalog.Source{Name: "north70", Kind: catalog.KindFixed, RA: unit.NewRA(6, 0, 0), Dec: unit.AngleFromDeg(70)}

	windows := []struct{ start, end time.Time }{
		{time.Date(2017, 3, 21, 8, 0, 0, 0, time.UTC), time.Date(2017, 3, 21, 20, 0, 0, 0, time.UTC)},
		{time.Date(2017, 9, 21, 0, 0, 0, 0, time.UTC), time.Date(2017, 9, 22, 0, 0, 0, 0, time.UTC)},
	}
	for _, w := range windows {
		p, err := Build(Request{
			Engine:     obs,
			Sources:    []catalog.Source{north},
			Requested:  []string{"north70"},
			Start:      w.start,
			End:        w.end,
			Samples:    97,
			Thresholds: Thresholds{ElevationCutoff: 0, SolarSeparation: 15, LunarSeparation: 0.75},
		})
		if err != nil {
			t.Fatalf("Build(%v) error = %v", w.start, err)
		}
		tl := p.Timeline("north70")
		if s := Summarize(tl); !s.NeverObservable {
			t.Errorf("window from %v: north70 observable in %d samples", w.start, s.Observed)
		}
		for i, el := range tl.Elevation {
			if el > -10 {
				t.Errorf("window from %v: sample %d at %.2f°, want below -10°", w.start, i, el)
				break
			}
		}
	}
}

func TestSummarize_Bounds(t *testing.T) {
	p, err := Build(meerkatRequest(t, 150))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, s := range p.SummarizeRequested() {
		if s.NeverObservable {
			continue
		}
		if s.Min.Elevation > s.Max.Elevation || s.Min.Azimuth > s.Max.Azimuth {
			t.Errorf("%s: min %+v exceeds max %+v", s.Source, s.Min, s.Max)
		}
		for _, b := range []Bearing{s.Start, s.End} {
			if b.Elevation < s.Min.Elevation-1e-9 || b.Elevation > s.Max.Elevation+1e-9 {
				t.Errorf("%s: endpoint %+v outside [%v, %v]", s.Source, b, s.Min.Elevation, s.Max.Elevation)
			}
		}
		if s.StartTime.After(s.EndTime) {
			t.Errorf("%s: start %v after end %v", s.Source, s.StartTime, s.EndTime)
		}
	}
}

func TestPlan_Window(t *testing.T) {
	p, err := Build(scriptedRequest())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Interference does not split the window; the Sun and Moon block
	// hours 5 and 7 but the source stays above the limit.
	w, err := p.Window("target")
	if err != nil {
		t.Fatalf("Window() error = %v", err)
	}
	if !w.Rise.Equal(t0.Add(2 * time.Hour)) {
		t.Errorf("Rise = %v, want 02:00", w.Rise)
	}
	if !w.Set.IsZero() {
		t.Errorf("Set = %v, want zero while still rising", w.Set)
	}
	if !w.Transit.Equal(t0.Add(10*time.Hour)) || !scalar.EqualWithinAbs(w.MaxElevation, 80, 1e-9) {
		t.Errorf("Transit = %v at %v°, want 10:00 at 80°", w.Transit, w.MaxElevation)
	}

	if w, _ := p.Window("hidden"); !w.NeverVisible {
		t.Error("hidden: NeverVisible = false")
	}
	if _, err := p.Window("Vega"); !errors.Is(err, catalog.ErrMissingSource) {
		t.Errorf("Window(unknown) error = %v, want ErrMissingSource", err)
	}
}

func TestBuild_ElevationSeries(t *testing.T) {
	p, err := Build(scriptedRequest())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	tl := p.Timeline("target")
	if len(tl.Elevation) != tl.Len() {
		t.Fatalf("Elevation has %d entries, want %d", len(tl.Elevation), tl.Len())
	}
	// Kept even for samples that are below the limit or blocked
	for i, el := range tl.Elevation {
		if want := -20 + 10*float64(i); !scalar.EqualWithinAbs(el, want, 1e-9) {
			t.Errorf("Elevation[%d] = %v, want %v", i, el, want)
		}
	}
	if p.Limits != scriptedRequest().Thresholds {
		t.Errorf("Limits = %+v", p.Limits)
	}
}
