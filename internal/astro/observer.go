// Package astro provides the coordinate engine: observer model, time and
// angle parsing, and apparent topocentric positions of catalog sources,
// the Sun and the Moon at a single instant.
package astro

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/unit"
)

// ErrMalformed is returned for angle, time or elevation values that cannot be parsed.
var ErrMalformed = errors.New("malformed configuration value")

// J2000 is the reference epoch of the built-in catalog, as a Julian year.
const J2000 = 2000.0

// Observer represents a ground-based observer location.
type Observer struct {
	Lat       unit.Angle // Latitude (north positive)
	Lon       unit.Angle // Longitude (east positive)
	Elevation float64    // Meters above the reference ellipsoid
	Epoch     float64    // Julian year of the catalog coordinates
	Name      string     // Optional name for the site
}

// rangeSlack absorbs degree/radian round trips at the range limits.
const rangeSlack = 1e-9

// NewObserver builds an observer from sexagesimal latitude and longitude
// strings. Longitude is east-positive within [-180, 180].
func NewObserver(lat, long string, elev float64) (Observer, error) {
	φ, err := ParseAngle(lat)
	if err != nil {
		return Observer{}, fmt.Errorf("latitude: %w", err)
	}
	if math.Abs(φ.Deg()) > 90+rangeSlack {
		return Observer{}, fmt.Errorf("latitude %q out of range: %w", lat, ErrMalformed)
	}
	λ, err := ParseAngle(long)
	if err != nil {
		return Observer{}, fmt.Errorf("longitude: %w", err)
	}
	if math.Abs(λ.Deg()) > 180+rangeSlack {
		return Observer{}, fmt.Errorf("longitude %q out of range: %w", long, ErrMalformed)
	}
	if math.IsNaN(elev) || math.IsInf(elev, 0) {
		return Observer{}, fmt.Errorf("elevation %v: %w", elev, ErrMalformed)
	}
	return Observer{Lat: φ, Lon: λ, Elevation: elev, Epoch: J2000}, nil
}

// lonWest returns the longitude measured positively westward, the
// convention used by the meeus routines.
func (o Observer) lonWest() unit.Angle {
	return -o.Lon
}

// String formats the observer the way the planner banner prints it.
func (o Observer) String() string {
	return fmt.Sprintf("(%s, %s, %g)", FormatAngle(o.Lat), FormatAngle(o.Lon), o.Elevation)
}

// ParseAngle parses a sexagesimal angle in degrees such as "-30:42:47.41",
// "21:26" or "12.5". A leading sign applies to the whole value.
func ParseAngle(s string) (unit.Angle, error) {
	str := strings.TrimSpace(s)
	if str == "" {
		return 0, fmt.Errorf("empty angle: %w", ErrMalformed)
	}

	neg := false
	switch str[0] {
	case '-':
		neg = true
		str = str[1:]
	case '+':
		str = str[1:]
	}

	parts := strings.Split(str, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("angle %q has too many fields: %w", s, ErrMalformed)
	}

	deg := 0.0
	scale := 1.0
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("angle %q: %w", s, ErrMalformed)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("angle %q: field %d exceeds 60: %w", s, i, ErrMalformed)
		}
		deg += v / scale
		scale *= 60
	}

	if neg {
		deg = -deg
	}
	return unit.AngleFromDeg(deg), nil
}

// FormatAngle renders an angle as signed d:mm:ss.s.
func FormatAngle(a unit.Angle) string {
	return formatSexagesimal(a.Deg())
}

// FormatHours renders hours as h:mm:ss.
func FormatHours(h float64) string {
	total := int(math.Round(h * 3600))
	total = ((total % 86400) + 86400) % 86400
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

func formatSexagesimal(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	tenths := int(math.Round(v * 36000))
	d := tenths / 36000
	m := (tenths / 600) % 60
	sec := float64(tenths%600) / 10
	return fmt.Sprintf("%s%d:%02d:%04.1f", sign, d, m, sec)
}

// timeLayouts are the accepted observation time formats.
var timeLayouts = []string{
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// ParseTime parses an observation time. Values without an explicit zone are
// interpreted in loc; a nil loc means UTC.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	str := strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, str, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("time %q: %w", s, ErrMalformed)
}
