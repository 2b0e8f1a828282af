package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/parallactic"
	"github.com/soniakeys/meeus/v3/parallax"
	"github.com/soniakeys/meeus/v3/precess"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

// AUKm is the Astronomical Unit in kilometers.
const AUKm = 149597870.7

// deltaT approximates TT-UT in seconds for the current era.
const deltaT = 69.0

// Horizontal is an apparent topocentric position. All angles in radians.
type Horizontal struct {
	Az          float64 // Azimuth, 0 = North, increasing East, [0, 2π)
	Alt         float64 // Altitude above the horizon, [-π/2, π/2]
	Parallactic float64 // Parallactic angle
}

// AzDeg returns the azimuth in degrees.
func (h Horizontal) AzDeg() float64 { return radToDeg(h.Az) }

// AltDeg returns the altitude in degrees.
func (h Horizontal) AltDeg() float64 { return radToDeg(h.Alt) }

// ZenithDeg returns the zenith distance in degrees.
func (h Horizontal) ZenithDeg() float64 { return 90 - radToDeg(h.Alt) }

// Sky is the view of the sky from one observer at one instant.
type Sky interface {
	// Fixed returns the position of a catalog object given in the observer's epoch.
	Fixed(ra unit.RA, dec unit.Angle) Horizontal
	Sun() Horizontal
	Moon() Horizontal
	// LSTHours returns local apparent sidereal time in hours, [0, 24).
	LSTHours() float64
	Time() time.Time
}

// Engine produces immutable per-instant sky snapshots.
type Engine interface {
	At(t time.Time) Sky
}

// At implements Engine.
func (o Observer) At(t time.Time) Sky {
	return NewSnapshot(o, t)
}

// Snapshot holds everything derived from an observer and a single instant.
// It is never mutated after construction, so one snapshot can be shared by
// every source evaluated at that instant.
type Snapshot struct {
	t        time.Time
	obs      Observer
	jde      float64
	st       unit.Time  // apparent Greenwich sidereal time
	nutLon   unit.Angle // nutation in longitude
	sε, cε   float64    // true obliquity of the ecliptic
	ρsφ, ρcφ float64    // geocentric parallax constants
	prec     *precess.Precessor
}

// NewSnapshot computes the time-dependent quantities for obs at t.
func NewSnapshot(obs Observer, t time.Time) *Snapshot {
	jd := julian.TimeToJD(t.UTC())
	jde := jd + deltaT/86400

	Δψ, Δε := nutation.Nutation(jde)
	ε := nutation.MeanObliquity(jde) + Δε
	sε, cε := math.Sincos(ε.Rad())

	ρsφ, ρcφ := globe.Earth76.ParallaxConstants(obs.Lat, obs.Elevation)

	epoch := obs.Epoch
	if epoch == 0 {
		epoch = J2000
	}
	yearOfDate := J2000 + (jde-2451545.0)/365.25

	return &Snapshot{
		t:      t,
		obs:    obs,
		jde:    jde,
		st:     sidereal.Apparent(jd),
		nutLon: Δψ,
		sε:     sε,
		cε:     cε,
		ρsφ:    ρsφ,
		ρcφ:    ρcφ,
		prec:   precess.NewPrecessor(epoch, yearOfDate),
	}
}

// Time returns the instant of the snapshot.
func (s *Snapshot) Time() time.Time { return s.t }

// JDE returns the Julian ephemeris day of the snapshot.
func (s *Snapshot) JDE() float64 { return s.jde }

// LSTHours implements Sky.
func (s *Snapshot) LSTHours() float64 {
	h := math.Mod((s.st.Rad()+s.obs.Lon.Rad())*12/math.Pi, 24)
	if h < 0 {
		h += 24
	}
	return h
}

// Fixed implements Sky. The position is precessed from the observer's
// epoch to the equinox of date before conversion to horizontal.
func (s *Snapshot) Fixed(ra unit.RA, dec unit.Angle) Horizontal {
	eq := s.prec.Precess(&coord.Equatorial{RA: ra, Dec: dec}, &coord.Equatorial{})
	return s.horizontal(eq.RA, eq.Dec)
}

// Sun implements Sky.
func (s *Snapshot) Sun() Horizontal {
	α, δ := solar.ApparentEquatorial(s.jde)
	return s.horizontal(α, δ)
}

// SunEquatorial returns the apparent geocentric RA/Dec of the Sun.
func (s *Snapshot) SunEquatorial() (unit.RA, unit.Angle) {
	return solar.ApparentEquatorial(s.jde)
}

// Moon implements Sky. Lunar parallax approaches a degree, so the
// geocentric position is corrected to the observer's location.
func (s *Snapshot) Moon() Horizontal {
	λ, β, Δ := moonposition.Position(s.jde)
	α, δ := coord.EclToEq(λ+s.nutLon, β, s.sε, s.cε)
	α, δ = parallax.Topocentric(α, δ, Δ/AUKm, s.ρsφ, s.ρcφ, s.obs.lonWest(), s.jde)
	return s.horizontal(α, δ)
}

// horizontal converts apparent equatorial coordinates of date to
// horizontal coordinates and parallactic angle.
func (s *Snapshot) horizontal(α unit.RA, δ unit.Angle) Horizontal {
	ψ := s.obs.lonWest()
	A, h := coord.EqToHz(α, δ, s.obs.Lat, ψ, s.st)

	// meeus measures azimuth westward from the south.
	az := math.Mod(A.Rad()+math.Pi, 2*math.Pi)
	if az < 0 {
		az += 2 * math.Pi
	}

	H := unit.HourAngle(s.st.Rad() - ψ.Rad() - α.Rad())
	q := parallactic.ParallacticAngle(s.obs.Lat, δ, H)

	return Horizontal{Az: az, Alt: h.Rad(), Parallactic: q.Rad()}
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// radToDeg converts radians to degrees.
func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
