package planner

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/obzplan/obzplan/internal/astro"
)

// PlanExport is the JSON-serializable representation of a plan.
type PlanExport struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Observer    ObserverExport `json:"observer"`
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	Samples     int            `json:"samples"`
	Thresholds  Thresholds     `json:"thresholds"`
	Sources     []SourceExport `json:"sources"`
}

// ObserverExport is a JSON-friendly observer.
type ObserverExport struct {
	Latitude  float64 `json:"latitude_deg"`
	Longitude float64 `json:"longitude_deg"`
	Elevation float64 `json:"elevation_m"`
}

// SourceExport is one requested source with its summary and samples.
type SourceExport struct {
	Name            string         `json:"name"`
	Kind            string         `json:"kind"`
	NeverObservable bool           `json:"never_observable"`
	Observed        int            `json:"observed_samples"`
	Start           *Bearing       `json:"start,omitempty"`
	End             *Bearing       `json:"end,omitempty"`
	Min             *Bearing       `json:"min,omitempty"`
	Max             *Bearing       `json:"max,omitempty"`
	LSTStart        float64        `json:"lst_start_hours,omitempty"`
	LSTEnd          float64        `json:"lst_end_hours,omitempty"`
	Window          *WindowExport  `json:"window,omitempty"`
	Samples         []SampleExport `json:"samples"`
	Interference    []SampleExport `json:"interference"`
}

// WindowExport is where a source crosses the elevation limit. Crossings
// outside the span are omitted.
type WindowExport struct {
	Rise          *time.Time `json:"rise,omitempty"`
	Transit       *time.Time `json:"transit,omitempty"`
	Set           *time.Time `json:"set,omitempty"`
	MaxElevation  float64    `json:"max_elevation_deg"`
	AlwaysVisible bool       `json:"always_visible"`
	NeverVisible  bool       `json:"never_visible"`
}

// SampleExport is a JSON-friendly sample. Position fields are omitted
// for samples that are below the elevation limit.
type SampleExport struct {
	Time        time.Time `json:"time"`
	Tag         string    `json:"tag"`
	Elevation   *float64  `json:"elevation_deg,omitempty"`
	Azimuth     *float64  `json:"azimuth_deg,omitempty"`
	Parallactic *float64  `json:"parallactic_deg,omitempty"`
	LST         *float64  `json:"lst_hours,omitempty"`
}

// MarshalJSON renders thresholds with explicit units.
func (th Thresholds) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ElevationCutoff float64 `json:"elevation_cutoff_deg"`
		SolarSeparation float64 `json:"solar_separation_deg"`
		LunarSeparation float64 `json:"lunar_separation_deg"`
	}{th.ElevationCutoff, th.SolarSeparation, th.LunarSeparation})
}

// Export converts a plan to an exportable format.
func Export(p *Plan, obs astro.Observer, th Thresholds, generatedAt time.Time) *PlanExport {
	export := &PlanExport{
		GeneratedAt: generatedAt,
		Observer: ObserverExport{
			Latitude:  obs.Lat.Deg(),
			Longitude: obs.Lon.Deg(),
			Elevation: obs.Elevation,
		},
		Samples:    len(p.Grid),
		Thresholds: th,
		Sources:    []SourceExport{},
	}
	if len(p.Grid) > 0 {
		export.Start = p.Grid[0]
		export.End = p.Grid[len(p.Grid)-1]
	}

	for _, name := range p.Requested {
		tl := p.Timelines[name]
		s := Summarize(tl)
		src := SourceExport{
			Name:            name,
			Kind:            tl.Source.Kind.String(),
			NeverObservable: s.NeverObservable,
			Observed:        s.Observed,
			Samples:         make([]SampleExport, 0, tl.Len()),
			Interference:    make([]SampleExport, 0, len(tl.Interference)),
		}
		if !s.NeverObservable {
			src.Start, src.End, src.Min, src.Max = &s.Start, &s.End, &s.Min, &s.Max
			src.LSTStart, src.LSTEnd = s.LSTStart, s.LSTEnd
		}
		if w, err := p.Window(name); err == nil {
			src.Window = exportWindow(w)
		}

		for i, ts := range tl.Times {
			se := SampleExport{Time: ts, Tag: tl.Tags[i].String()}
			if pos := tl.Positions[i]; pos.Valid {
				se.Elevation = ptr(pos.Value.AltDeg())
				se.Azimuth = ptr(pos.Value.AzDeg())
				se.Parallactic = ptr(tl.Parallactic[i].Value * 180 / math.Pi)
				se.LST = ptr(tl.Sidereal[i].Value)
			}
			src.Samples = append(src.Samples, se)
		}
		for _, ev := range tl.Interference {
			src.Interference = append(src.Interference, SampleExport{
				Time:        ev.Time,
				Tag:         ev.Tag.String(),
				Elevation:   ptr(ev.Position.AltDeg()),
				Azimuth:     ptr(ev.Position.AzDeg()),
				Parallactic: ptr(ev.Parallactic * 180 / math.Pi),
				LST:         ptr(ev.LST),
			})
		}
		export.Sources = append(export.Sources, src)
	}
	return export
}

func ptr(v float64) *float64 { return &v }

func exportWindow(w astro.VisibilityWindow) *WindowExport {
	we := &WindowExport{
		MaxElevation:  w.MaxElevation,
		AlwaysVisible: w.AlwaysVisible,
		NeverVisible:  w.NeverVisible,
	}
	for _, f := range []struct {
		t   time.Time
		dst **time.Time
	}{{w.Rise, &we.Rise}, {w.Transit, &we.Transit}, {w.Set, &we.Set}} {
		if !f.t.IsZero() {
			t := f.t
			*f.dst = &t
		}
	}
	return we
}

// WriteJSON writes the plan as JSON to the given writer.
func (e *PlanExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// WriteSummaryTable writes one line per requested source.
func WriteSummaryTable(w io.Writer, p *Plan) {
	fmt.Fprintf(w, "%-16s %-6s %8s %-20s %-20s %-13s\n",
		"Source", "Kind", "Observed", "First (UTC)", "Last (UTC)", "LST")
	fmt.Fprintln(w, strings.Repeat("─", 88))

	for _, name := range p.Requested {
		tl := p.Timelines[name]
		s := Summarize(tl)
		pct := 100 * float64(s.Observed) / float64(max(tl.Len(), 1))
		if s.NeverObservable {
			fmt.Fprintf(w, "%-16s %-6s %7.0f%% %-20s %-20s %-13s\n",
				truncateStr(name, 16), tl.Source.Kind, pct, "-", "-", "-")
			continue
		}
		fmt.Fprintf(w, "%-16s %-6s %7.0f%% %-20s %-20s %-13s\n",
			truncateStr(name, 16), tl.Source.Kind, pct,
			s.StartTime.UTC().Format(ReportTimeLayout),
			s.EndTime.UTC().Format(ReportTimeLayout),
			hhmm(s.LSTStart)+"-"+hhmm(s.LSTEnd))
	}
}

func truncateStr(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
