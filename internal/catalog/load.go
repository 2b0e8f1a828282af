package catalog

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/soniakeys/unit"
	"gopkg.in/yaml.v3"

	"github.com/obzplan/obzplan/internal/astro"
)

// fileEntry is one source in a YAML catalog file.
type fileEntry struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // fixed (default), sun or moon
	RA   string `yaml:"ra"`   // hours, sexagesimal
	Dec  string `yaml:"dec"`  // degrees, sexagesimal
}

type fileCatalog struct {
	Sources []fileEntry `yaml:"sources"`
}

// Load reads a YAML catalog:
//
//	sources:
//	  - name: 3C286
//	    ra: "13:31:08.3"
//	    dec: "30:30:33"
//	  - name: Moon
//	    kind: moon
func Load(r io.Reader) (*Catalog, error) {
	var fc fileCatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		if err == io.EOF {
			return New()
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	sources := make([]Source, 0, len(fc.Sources))
	for i, e := range fc.Sources {
		s, err := e.source()
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		sources = append(sources, s)
	}
	return New(sources...)
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (e fileEntry) source() (Source, error) {
	kind, err := ParseKind(e.Kind)
	if err != nil {
		return Source{}, err
	}
	s := Source{Name: e.Name, Kind: kind}
	if kind != KindFixed {
		return s, nil
	}

	if e.RA == "" || e.Dec == "" {
		return Source{}, fmt.Errorf("%q needs ra and dec: %w", e.Name, ErrInvalid)
	}
	raHours, err := astro.ParseAngle(e.RA)
	if err != nil {
		return Source{}, fmt.Errorf("%q ra: %w", e.Name, err)
	}
	if raHours.Deg() < 0 || raHours.Deg() >= 24 {
		return Source{}, fmt.Errorf("%q ra %q out of range: %w", e.Name, e.RA, ErrInvalid)
	}
	dec, err := astro.ParseAngle(e.Dec)
	if err != nil {
		return Source{}, fmt.Errorf("%q dec: %w", e.Name, err)
	}
	if math.Abs(dec.Deg()) > 90 {
		return Source{}, fmt.Errorf("%q dec %q out of range: %w", e.Name, e.Dec, ErrInvalid)
	}

	// ParseAngle reads the sexagesimal value as degrees; RA is in hours.
	s.RA = unit.RA(raHours.Deg() * math.Pi / 12)
	s.Dec = dec
	return s, nil
}
