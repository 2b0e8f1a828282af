// Package catalog holds the observable sources known to the planner.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soniakeys/unit"

	"github.com/obzplan/obzplan/internal/astro"
)

// ErrMissingSource is returned when a requested source is not in the catalog.
var ErrMissingSource = errors.New("missing source")

// ErrInvalid is returned for catalog entries that cannot be used.
var ErrInvalid = errors.New("invalid catalog entry")

// Kind distinguishes fixed catalog objects from solar-system bodies.
type Kind int

const (
	KindFixed Kind = iota // RA/Dec in the catalog epoch
	KindSun               // Computed analytically per instant
	KindMoon              // Computed analytically per instant
)

// String returns the kind name as used in catalog files.
func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindSun:
		return "sun"
	case KindMoon:
		return "moon"
	default:
		return "unknown"
	}
}

// ParseKind parses a catalog kind. The empty string means fixed.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed":
		return KindFixed, nil
	case "sun":
		return KindSun, nil
	case "moon":
		return KindMoon, nil
	default:
		return KindFixed, fmt.Errorf("kind %q: %w", s, ErrInvalid)
	}
}

// Source is one catalog entry. RA and Dec are only meaningful for KindFixed.
type Source struct {
	Name string
	Kind Kind
	RA   unit.RA
	Dec  unit.Angle
}

// Position returns the apparent position of the source in sky. The Sun and
// Moon are taken from sun and moon, which callers compute once per instant.
func (s Source) Position(sky astro.Sky, sun, moon astro.Horizontal) astro.Horizontal {
	switch s.Kind {
	case KindSun:
		return sun
	case KindMoon:
		return moon
	default:
		return sky.Fixed(s.RA, s.Dec)
	}
}

// Catalog is an ordered set of sources keyed by name.
type Catalog struct {
	order   []string
	sources map[string]Source
}

// New builds a catalog, rejecting unnamed and duplicate entries.
func New(sources ...Source) (*Catalog, error) {
	c := &Catalog{sources: make(map[string]Source, len(sources))}
	for _, s := range sources {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("unnamed source: %w", ErrInvalid)
		}
		if _, dup := c.sources[s.Name]; dup {
			return nil, fmt.Errorf("duplicate source %q: %w", s.Name, ErrInvalid)
		}
		c.add(s)
	}
	return c, nil
}

func (c *Catalog) add(s Source) {
	if _, ok := c.sources[s.Name]; !ok {
		c.order = append(c.order, s.Name)
	}
	c.sources[s.Name] = s
}

// Len returns the number of sources.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Lookup returns the named source.
func (c *Catalog) Lookup(name string) (Source, bool) {
	s, ok := c.sources[name]
	return s, ok
}

// Sources returns every source in catalog order.
func (c *Catalog) Sources() []Source {
	out := make([]Source, len(c.order))
	for i, name := range c.order {
		out[i] = c.sources[name]
	}
	return out
}

// Names returns every source name in catalog order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Merge returns a new catalog with the entries of other added to c.
// Entries in other replace same-named entries in c.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := &Catalog{sources: make(map[string]Source, c.Len()+other.Len())}
	for _, s := range c.Sources() {
		merged.add(s)
	}
	for _, s := range other.Sources() {
		merged.add(s)
	}
	return merged
}

// Resolve returns the requested sources in request order. Every key must
// be present; unknown keys fail rather than being skipped.
func (c *Catalog) Resolve(keys []string) ([]Source, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("no sources requested: %w", ErrMissingSource)
	}

	var missing []string
	seen := make(map[string]bool, len(keys))
	out := make([]Source, 0, len(keys))
	for _, k := range keys {
		s, ok := c.sources[k]
		if !ok {
			missing = append(missing, k)
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%q not in catalog (known: %s): %w",
			missing, strings.Join(c.order, ", "), ErrMissingSource)
	}
	return out, nil
}

// Pole returns a marker for the celestial pole above the observer's horizon.
func Pole(obs astro.Observer) Source {
	if obs.Lat < 0 {
		return Source{Name: "SCP", Kind: KindFixed, Dec: unit.AngleFromDeg(-90)}
	}
	return Source{Name: "NCP", Kind: KindFixed, Dec: unit.AngleFromDeg(90)}
}
