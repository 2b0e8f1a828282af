package planner

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/obzplan/obzplan/internal/astro"
)

// ReportTimeLayout is the layout of UTC timestamps in console output.
const ReportTimeLayout = "2006/1/2 15:04:05"

// WriteBanner writes the observer and window header:
//
//	Observer at (lat, long, alt): (-30:42:47.4, 21:26:38.0, 1054)
//	Observation start: UTC 2017/3/21 08:00:00 (LST 21:21:53 = 21.364...)
//	Observation end: UTC 2017/3/21 20:00:00 (LST 9:23:51 = 9.397...)
func WriteBanner(w io.Writer, obs astro.Observer, eng astro.Engine, start, end time.Time) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Observer at (lat, long, alt): %s\n", obs)
	for _, ts := range []struct {
		label string
		t     time.Time
	}{{"start", start}, {"end", end}} {
		lst := eng.At(ts.t).LSTHours()
		fmt.Fprintf(bw, "Observation %s: UTC %s (LST %s = %v)\n",
			ts.label, ts.t.UTC().Format(ReportTimeLayout), astro.FormatHours(lst), lst)
	}
	return bw.Flush()
}

// Report writes interference warnings and the observability summary of
// every requested source, in request order.
func Report(w io.Writer, p *Plan) error {
	bw := bufio.NewWriter(w)
	for _, name := range p.Requested {
		tl := p.Timelines[name]
		writeWarnings(bw, tl)
		writeSummary(bw, Summarize(tl))
	}
	return bw.Flush()
}

func writeWarnings(w io.Writer, tl *Timeline) {
	for _, ev := range tl.Interference {
		at := ev.Time.UTC().Format(ReportTimeLayout)
		if ev.Tag.Has(SunBlocked) {
			fmt.Fprintf(w, "WARNING: %s experiences solar interference at %s\n", tl.Source.Name, at)
		}
		if ev.Tag.Has(MoonBlocked) {
			fmt.Fprintf(w, "WARNING: %s is behind the moon lunar at %s\n", tl.Source.Name, at)
		}
	}
}

func writeSummary(w io.Writer, s Summary) {
	if s.NeverObservable {
		fmt.Fprintf(w, "%s is never above elevation limit!\n", s.Source)
		return
	}
	fmt.Fprintf(w, "%s: Starting (elevation, azimuth): (%f,%f)\n", s.Source, s.Start.Elevation, s.Start.Azimuth)
	fmt.Fprintf(w, "%s: Ending (elevation, azimuth): (%f,%f)\n", s.Source, s.End.Elevation, s.End.Azimuth)
	fmt.Fprintf(w, "%s: Minimum (elevation, azimuth): (%f, %f)\n", s.Source, s.Min.Elevation, s.Min.Azimuth)
	fmt.Fprintf(w, "%s: Maximum (elevation, azimuth): (%f, %f)\n", s.Source, s.Max.Elevation, s.Max.Azimuth)
	fmt.Fprintf(w, "Observable times LST %s to %s\n", hhmm(s.LSTStart), hhmm(s.LSTEnd))
}

// hhmm formats fractional hours as HH:MM, truncating seconds.
func hhmm(hours float64) string {
	hours = math.Mod(hours, 24)
	if hours < 0 {
		hours += 24
	}
	total := int(hours * 60)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
