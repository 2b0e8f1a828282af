package astro

import (
	"errors"
	"math"
	"time"
)

// ElevationSample is a source elevation at one instant.
type ElevationSample struct {
	Time  time.Time
	ElDeg float64
}

// VisibilityWindow is the rise-transit-set cycle of a source within a
// sampled span. Rise and Set are zero when the crossing falls outside the
// span.
type VisibilityWindow struct {
	Rise          time.Time // first upward crossing of the limit
	Transit       time.Time // highest point
	Set           time.Time // first downward crossing after Rise
	MaxElevation  float64   // degrees
	AlwaysVisible bool      // above the limit at every sample
	NeverVisible  bool      // never above the limit
}

// ErrInsufficientSamples is returned when there are too few samples to
// locate crossings.
var ErrInsufficientSamples = errors.New("insufficient samples for visibility calculation")

// RiseSet finds where a chronological elevation series crosses limit
// (degrees). A sample counts as up when its elevation is strictly above the
// limit. Crossings are linearly interpolated between samples and the
// transit is refined with a parabola through the highest sample and its
// neighbors.
func RiseSet(samples []ElevationSample, limit float64) (VisibilityWindow, error) {
	if len(samples) < 3 {
		return VisibilityWindow{}, ErrInsufficientSamples
	}

	minEl, maxEl := math.Inf(1), math.Inf(-1)
	maxIdx := 0
	for i, s := range samples {
		if s.ElDeg < minEl {
			minEl = s.ElDeg
		}
		if s.ElDeg > maxEl {
			maxEl = s.ElDeg
			maxIdx = i
		}
	}

	if maxEl <= limit {
		return VisibilityWindow{NeverVisible: true, MaxElevation: maxEl}, nil
	}
	transit, peak := refineMaxElevation(samples, maxIdx)
	if minEl > limit {
		return VisibilityWindow{
			Transit:       transit,
			MaxElevation:  peak,
			AlwaysVisible: true,
		}, nil
	}

	w := VisibilityWindow{Transit: transit, MaxElevation: peak}

	// Look for the set after the rise, or from the start if already up
	from := 1
	for i := 1; i < len(samples); i++ {
		prev, curr := samples[i-1], samples[i]
		if prev.ElDeg <= limit && curr.ElDeg > limit {
			w.Rise = interpolateCrossing(prev.Time, curr.Time, prev.ElDeg, curr.ElDeg, limit)
			from = i + 1
			break
		}
	}
	for i := from; i < len(samples); i++ {
		prev, curr := samples[i-1], samples[i]
		if prev.ElDeg > limit && curr.ElDeg <= limit {
			w.Set = interpolateCrossing(prev.Time, curr.Time, prev.ElDeg, curr.ElDeg, limit)
			break
		}
	}
	return w, nil
}

// refineMaxElevation fits a parabola through the samples around idx.
func refineMaxElevation(samples []ElevationSample, idx int) (time.Time, float64) {
	if idx == 0 || idx == len(samples)-1 {
		return samples[idx].Time, samples[idx].ElDeg
	}

	// Normalized time: t = -1 (prev), t = 0 (max), t = +1 (next)
	y0 := samples[idx-1].ElDeg
	y1 := samples[idx].ElDeg
	y2 := samples[idx+1].ElDeg

	// Parabola: y = at^2 + bt + c
	c := y1
	a := (y0+y2)/2 - c
	b := (y2 - y0) / 2

	// Only a downward-opening parabola has a maximum
	if a >= 0 {
		return samples[idx].Time, y1
	}

	tMax := -b / (2 * a)
	if tMax < -1 {
		tMax = -1
	} else if tMax > 1 {
		tMax = 1
	}

	var dt time.Duration
	if tMax < 0 {
		dt = samples[idx].Time.Sub(samples[idx-1].Time)
	} else {
		dt = samples[idx+1].Time.Sub(samples[idx].Time)
	}
	return samples[idx].Time.Add(time.Duration(float64(dt) * tMax)), a*tMax*tMax + b*tMax + c
}

// interpolateCrossing finds the time when elevation crosses a threshold.
func interpolateCrossing(t1, t2 time.Time, el1, el2, threshold float64) time.Time {
	if math.Abs(el2-el1) < 0.0001 {
		return t1
	}

	fraction := (threshold - el1) / (el2 - el1)
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}

	dt := t2.Sub(t1)
	return t1.Add(time.Duration(float64(dt) * fraction))
}

// ElevationTier buckets elevation for display.
type ElevationTier int

const (
	ElevationNone   ElevationTier = iota // Below horizon
	ElevationLow                         // 0-15 degrees
	ElevationMedium                      // 15-45 degrees
	ElevationHigh                        // 45+ degrees
)

// TierOf returns the tier for an elevation in degrees.
func TierOf(elDeg float64) ElevationTier {
	switch {
	case elDeg <= 0:
		return ElevationNone
	case elDeg < 15:
		return ElevationLow
	case elDeg < 45:
		return ElevationMedium
	default:
		return ElevationHigh
	}
}
