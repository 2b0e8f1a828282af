package astro

import (
	"math"
)

// Vec3 represents a 3D vector in the local horizontal frame.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the magnitude of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Dot returns the scalar product of two vectors.
func (v Vec3) Dot(u Vec3) float64 {
	return v.X*u.X + v.Y*u.Y + v.Z*u.Z
}

// UnitVector embeds a horizontal position on the unit sphere with the
// zenith along +Z and azimuth measured from +X:
//
//	x = sin(zd)·cos(az), y = sin(zd)·sin(az), z = cos(zd)
func UnitVector(h Horizontal) Vec3 {
	zd := math.Pi/2 - h.Alt
	sz, cz := math.Sincos(zd)
	sa, ca := math.Sincos(h.Az)
	return Vec3{X: sz * ca, Y: sz * sa, Z: cz}
}

// ProjectedPoint is a position on the zenithal sky chart.
type ProjectedPoint struct {
	X       float64 // East is negative (sky seen from below), -1..1 above the horizon
	Y       float64 // North is positive
	Visible bool    // Above the horizon
}

// ProjectZenithal maps a horizontal position to an azimuthal-equidistant
// chart centered on the zenith. The horizon is the unit circle; positions
// below it are reported with Visible false and clamped to the rim.
func ProjectZenithal(h Horizontal) ProjectedPoint {
	r := (math.Pi/2 - h.Alt) / (math.Pi / 2)
	visible := h.Alt >= 0
	if r > 1 {
		r = 1
	}
	sa, ca := math.Sincos(h.Az)
	return ProjectedPoint{
		X:       -r * sa,
		Y:       r * ca,
		Visible: visible,
	}
}
