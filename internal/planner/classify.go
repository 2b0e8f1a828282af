// Package planner partitions an observation window into observable,
// Sun-blocked, Moon-blocked and below-limit samples for every catalog
// source and reduces the result to per-source summaries.
package planner

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/obzplan/obzplan/internal/astro"
	"github.com/obzplan/obzplan/internal/catalog"
)

// Errors returned by the planner.
var (
	ErrInvalidRange     = errors.New("invalid observation range")
	ErrInvalidThreshold = errors.New("invalid threshold")
)

// Default thresholds, in degrees.
const (
	DefaultElevationCutoff = -90.0 // no cutoff
	DefaultSolarSeparation = 15.0
	DefaultLunarSeparation = 0.75
)

// Thresholds are the limits applied to every sample. All values in degrees.
type Thresholds struct {
	ElevationCutoff float64 // Samples at or below this altitude are BelowLimit
	SolarSeparation float64 // Samples at or within this separation are SunBlocked
	LunarSeparation float64 // Samples at or within this separation are MoonBlocked
}

// DefaultThresholds returns the standard limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ElevationCutoff: DefaultElevationCutoff,
		SolarSeparation: DefaultSolarSeparation,
		LunarSeparation: DefaultLunarSeparation,
	}
}

// Validate rejects thresholds that cannot be compared meaningfully.
func (th Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"elevation cutoff": th.ElevationCutoff,
		"solar separation": th.SolarSeparation,
		"lunar separation": th.LunarSeparation,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s %v: %w", name, v, ErrInvalidThreshold)
		}
	}
	if th.ElevationCutoff < -90 || th.ElevationCutoff > 90 {
		return fmt.Errorf("elevation cutoff %v outside [-90, 90]: %w", th.ElevationCutoff, ErrInvalidThreshold)
	}
	if th.SolarSeparation < 0 || th.LunarSeparation < 0 {
		return fmt.Errorf("separations must be non-negative: %w", ErrInvalidThreshold)
	}
	return nil
}

// Tag classifies one sample. The zero value is Observable; interference
// bits may be combined, BelowLimit is never combined with them.
type Tag uint8

const (
	SunBlocked Tag = 1 << iota
	MoonBlocked
	BelowLimit
)

// Observable is the tag of a usable sample.
const Observable Tag = 0

// Observable reports whether the sample is usable.
func (t Tag) Observable() bool { return t == Observable }

// Interference reports whether the Sun or Moon blocked the sample.
func (t Tag) Interference() bool { return t&(SunBlocked|MoonBlocked) != 0 }

// Has reports whether all bits of other are set.
func (t Tag) Has(other Tag) bool { return other != 0 && t&other == other }

// String returns a short name for the tag.
func (t Tag) String() string {
	if t == Observable {
		return "observable"
	}
	if t.Has(BelowLimit) {
		return "below-limit"
	}
	var parts []string
	if t.Has(SunBlocked) {
		parts = append(parts, "sun")
	}
	if t.Has(MoonBlocked) {
		parts = append(parts, "moon")
	}
	return strings.Join(parts, "+")
}

// Classification is the result of evaluating one source at one instant.
type Classification struct {
	Position   astro.Horizontal
	SunSep     float64 // radians, NaN when undefined
	MoonSep    float64 // radians, NaN when undefined
	Tag        Tag
	Degenerate bool // a separation was undefined and the sample failed closed
}

// Classify evaluates src at the instant of sky against the Sun and Moon
// positions computed for that same instant.
//
// The elevation cutoff gates interference: a sample below it is BelowLimit
// whatever its separations. Otherwise the Sun and Moon tests are applied
// independently, so a sample may be both Sun- and Moon-blocked. Every
// source gets the same tests, so the Sun above the cutoff is always
// Sun-blocked and the Moon Moon-blocked.
func Classify(sky astro.Sky, src catalog.Source, sun, moon astro.Horizontal, th Thresholds) Classification {
	pos := src.Position(sky, sun, moon)
	c := Classification{
		Position: pos,
		SunSep:   astro.Separation(pos, sun),
		MoonSep:  astro.Separation(pos, moon),
	}

	if pos.AltDeg() <= th.ElevationCutoff {
		c.Tag = BelowLimit
		return c
	}

	if blocked, degenerate := within(c.SunSep, th.SolarSeparation); blocked {
		c.Tag |= SunBlocked
		c.Degenerate = degenerate
	}
	if blocked, degenerate := within(c.MoonSep, th.LunarSeparation); blocked {
		c.Tag |= MoonBlocked
		c.Degenerate = c.Degenerate || degenerate
	}
	return c
}

// within reports whether sep (radians) is at or inside limitDeg. An
// undefined separation counts as inside.
func within(sep, limitDeg float64) (inside, degenerate bool) {
	if math.IsNaN(sep) {
		return true, true
	}
	return sep*180/math.Pi <= limitDeg, false
}
