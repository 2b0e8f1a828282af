package astro

import (
	"math"
)

// Separation returns the angle in radians, [0, π], between two horizontal
// positions treated as planar (azimuth, altitude) 2-vectors. This is the
// interference rule used by the planner; it is not a great-circle distance
// and departs from one near the zenith and at large separations.
//
// Identical positions are exactly 0 apart. Returns NaN when either vector
// has zero magnitude (azimuth and altitude both exactly zero). Callers must
// treat NaN as "separation unknown".
func Separation(a, b Horizontal) float64 {
	na := math.Hypot(a.Az, a.Alt)
	nb := math.Hypot(b.Az, b.Alt)
	if na == 0 || nb == 0 {
		return math.NaN()
	}
	if a.Az == b.Az && a.Alt == b.Alt {
		return 0
	}

	c := (a.Az*b.Az + a.Alt*b.Alt) / (na * nb)
	// Clamp to avoid NaN from rounding just outside [-1, 1]
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c)
}

// GreatCircleSeparation returns the true angular distance in radians
// between two horizontal positions on the celestial sphere.
func GreatCircleSeparation(a, b Horizontal) float64 {
	// Haversine formula, stable for small angles
	dAz := b.Az - a.Az
	dAlt := b.Alt - a.Alt

	h := math.Sin(dAlt/2)*math.Sin(dAlt/2) +
		math.Cos(a.Alt)*math.Cos(b.Alt)*math.Sin(dAz/2)*math.Sin(dAz/2)

	if h > 1 {
		h = 1
	}
	return 2 * math.Asin(math.Sqrt(h))
}

// SeparationDeg is Separation in degrees.
func SeparationDeg(a, b Horizontal) float64 {
	return radToDeg(Separation(a, b))
}
