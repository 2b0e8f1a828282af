package astro

import (
	"math"
	"testing"
	"time"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/floats/scalar"
)

func meerkat(t *testing.T) Observer {
	t.Helper()
	obs, err := NewObserver("-30:42:47.41", "21:26:38.0", 1054)
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	return obs
}

func TestSnapshot_JDE(t *testing.T) {
	s := NewSnapshot(Observer{}, time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	want := 2451545.0 + deltaT/86400
	if !scalar.EqualWithinAbs(s.JDE(), want, 1e-6) {
		t.Errorf("JDE() = %v, want %v", s.JDE(), want)
	}
}

func TestSnapshot_LSTHours(t *testing.T) {
	obs := meerkat(t)
	s := NewSnapshot(obs, time.Date(2017, 3, 21, 8, 0, 0, 0, time.UTC))

	// Mean sidereal time for this instant and longitude is 21.365h; the
	// equation of the equinoxes is at most about a second.
	if got := s.LSTHours(); !scalar.EqualWithinAbs(got, 21.365, 0.01) {
		t.Errorf("LSTHours() = %v, want ~21.365", got)
	}

	// LST must stay in [0, 24) over a whole day
	start := time.Date(2017, 3, 21, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 48; i++ {
		lst := NewSnapshot(obs, start.Add(time.Duration(i)*30*time.Minute)).LSTHours()
		if lst < 0 || lst >= 24 {
			t.Fatalf("LSTHours() out of range at step %d: %v", i, lst)
		}
	}
}

func TestSnapshot_SunAtLocalNoon(t *testing.T) {
	obs := meerkat(t)
	// Equinox, close to local apparent noon in the Karoo
	s := NewSnapshot(obs, time.Date(2017, 3, 21, 10, 40, 0, 0, time.UTC))
	sun := s.Sun()

	if el := sun.AltDeg(); el < 55 || el > 60 {
		t.Errorf("Sun elevation = %.2f°, want between 55° and 60°", el)
	}
	// Southern observer: the noon Sun is to the north
	if az := sun.AzDeg(); az > 20 && az < 340 {
		t.Errorf("Sun azimuth = %.2f°, want near north", az)
	}
}

func TestSnapshot_SunBelowHorizonAtMidnight(t *testing.T) {
	obs := meerkat(t)
	s := NewSnapshot(obs, time.Date(2017, 3, 21, 22, 35, 0, 0, time.UTC))
	if el := s.Sun().AltDeg(); el > -50 {
		t.Errorf("Sun elevation at local midnight = %.2f°, want < -50°", el)
	}
}

func TestSnapshot_CelestialPoleAltitudeEqualsLatitude(t *testing.T) {
	obs := meerkat(t)
	start := time.Date(2017, 3, 21, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		s := NewSnapshot(obs, start.Add(time.Duration(i)*2*time.Hour))
		scp := s.Fixed(0, unit.AngleFromDeg(-90))
		if !scalar.EqualWithinAbs(scp.AltDeg(), -obs.Lat.Deg(), 0.3) {
			t.Errorf("step %d: SCP elevation = %.3f°, want ~%.3f°", i, scp.AltDeg(), -obs.Lat.Deg())
		}
	}
}

func TestSnapshot_RangesForAllBodies(t *testing.T) {
	obs := meerkat(t)
	start := time.Date(2017, 3, 21, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 24; i++ {
		s := NewSnapshot(obs, start.Add(time.Duration(i)*time.Hour))
		bodies := map[string]Horizontal{
			"sun":   s.Sun(),
			"moon":  s.Moon(),
			"3C286": s.Fixed(unit.NewRA(13, 31, 8.3), unit.NewAngle(' ', 30, 30, 33)),
		}
		for name, h := range bodies {
			if h.Az < 0 || h.Az >= 2*math.Pi {
				t.Errorf("%s azimuth out of range: %v", name, h.Az)
			}
			if h.Alt < -math.Pi/2 || h.Alt > math.Pi/2 {
				t.Errorf("%s altitude out of range: %v", name, h.Alt)
			}
			if math.IsNaN(h.Parallactic) {
				t.Errorf("%s parallactic angle is NaN", name)
			}
		}
	}
}

func TestSnapshot_ParallacticAngleOnMeridian(t *testing.T) {
	obs := meerkat(t)
	s := NewSnapshot(obs, time.Date(2017, 3, 21, 8, 0, 0, 0, time.UTC))

	// A source on the local meridian, south of the zenith for this latitude
	ra := unit.RA(s.st.Rad() + obs.Lon.Rad())
	h := s.horizontal(ra, unit.AngleFromDeg(-60))

	if math.Abs(h.Parallactic) > 1e-9 {
		t.Errorf("parallactic angle on meridian = %v rad, want 0", h.Parallactic)
	}
	if az := h.AzDeg(); !scalar.EqualWithinAbs(az, 180, 1e-6) {
		t.Errorf("meridian transit azimuth = %v°, want 180°", az)
	}
}

func TestObserver_AtImplementsEngine(t *testing.T) {
	var e Engine = meerkat(t)
	at := time.Date(2017, 3, 21, 8, 0, 0, 0, time.UTC)
	if got := e.At(at).Time(); !got.Equal(at) {
		t.Errorf("At().Time() = %v, want %v", got, at)
	}
}
