// Package config layers defaults, a config file, OBZPLAN_ environment
// variables and command-line flags into one run configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	_ "time/tzdata" // zone names work without a system database

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/obzplan/obzplan/internal/astro"
	"github.com/obzplan/obzplan/internal/planner"
	"github.com/obzplan/obzplan/internal/render"
)

// ErrConfig is returned for unreadable config files and bad flag usage.
var ErrConfig = errors.New("configuration error")

// EnvPrefix prefixes environment overrides, e.g. OBZPLAN_OBSERVER_LAT.
const EnvPrefix = "OBZPLAN"

// Defaults: MeerKAT in the Karoo, 2017 March equinox.
const (
	DefaultLat      = "-30:42:47.41"
	DefaultLong     = "21:26:38.0"
	DefaultElev     = 1054.0
	DefaultStart    = "2017/3/21 08:00:00"
	DefaultEnd      = "2017/3/21 20:00:00"
	DefaultSamples  = 1500
	DefaultTimezone = "UTC"
)

// Config is a fully resolved run configuration.
type Config struct {
	Observer struct {
		Lat, Long string
		Elev      float64
		Epoch     float64
	}
	Window struct {
		Start, End string
		Samples    int
		Timezone   string
	}
	Limits struct {
		ElevCutoff      float64
		SolarSeparation float64
		LunarSeparation float64
	}
	Plot struct {
		Enabled    bool
		Styles     []string
		MarkerSize float64
	}
	Output struct {
		JSON        string // file path, "-" for stdout
		MetricsFile string
	}
	CatalogFile string
	LogLevel    string
	Workers     int
	TUI         bool

	// Sources are the positional arguments.
	Sources []string
}

// flag name -> config key
var flagKeys = map[string]string{
	"lat":              "observer.lat",
	"long":             "observer.long",
	"elev":             "observer.elev",
	"epoch":            "observer.epoch",
	"start":            "window.start",
	"end":              "window.end",
	"samples":          "window.samples",
	"tz":               "window.timezone",
	"elev-cutoff":      "limits.elev_cutoff",
	"solar-separation": "limits.solar_separation",
	"lunar-separation": "limits.lunar_separation",
	"plot-styles":      "plot.styles",
	"marker-size":      "plot.marker_size",
	"catalog":          "catalog.file",
	"json":             "output.json",
	"metrics-file":     "output.metrics_file",
	"log-level":        "log.level",
	"workers":          "workers",
	"tui":              "tui",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("observer.lat", DefaultLat)
	v.SetDefault("observer.long", DefaultLong)
	v.SetDefault("observer.elev", DefaultElev)
	v.SetDefault("observer.epoch", astro.J2000)
	v.SetDefault("window.start", DefaultStart)
	v.SetDefault("window.end", DefaultEnd)
	v.SetDefault("window.samples", DefaultSamples)
	v.SetDefault("window.timezone", DefaultTimezone)
	v.SetDefault("limits.elev_cutoff", planner.DefaultElevationCutoff)
	v.SetDefault("limits.solar_separation", planner.DefaultSolarSeparation)
	v.SetDefault("limits.lunar_separation", planner.DefaultLunarSeparation)
	v.SetDefault("plot.enabled", true)
	v.SetDefault("plot.styles", render.DefaultStyles)
	v.SetDefault("plot.marker_size", render.DefaultMarkerSize)
	v.SetDefault("catalog.file", "")
	v.SetDefault("output.json", "")
	v.SetDefault("output.metrics_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("workers", 1)
	v.SetDefault("tui", false)
}

// NewFlagSet returns the command-line flags.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	fs.String("config", "", "Config file (YAML, TOML or JSON)")
	fs.String("lat", DefaultLat, "Observer latitude, sexagesimal degrees")
	fs.String("long", DefaultLong, "Observer longitude east, sexagesimal degrees")
	fs.Float64("elev", DefaultElev, "Observer elevation in meters")
	fs.Float64("epoch", astro.J2000, "Epoch of catalog coordinates, Julian years")
	fs.StringP("start", "s", DefaultStart, "Observation start time")
	fs.StringP("end", "e", DefaultEnd, "Observation end time")
	fs.Int("samples", DefaultSamples, "Number of samples across the window")
	fs.String("tz", DefaultTimezone, "Time zone of start and end, e.g. Africa/Johannesburg")
	fs.Float64("elev-cutoff", planner.DefaultElevationCutoff, "Minimum usable elevation in degrees")
	fs.Float64("solar-separation", planner.DefaultSolarSeparation, "Minimum separation from the Sun in degrees")
	fs.Float64("lunar-separation", planner.DefaultLunarSeparation, "Minimum separation from the Moon in degrees")
	fs.StringSlice("plot-styles", render.DefaultStyles, "Plot styles, one per source (color letter + marker)")
	fs.Float64("marker-size", render.DefaultMarkerSize, "Plot marker size")
	fs.Bool("no-plot", false, "Do not draw plots")
	fs.Bool("tui", false, "Browse the plan interactively")
	fs.String("catalog", "", "YAML catalog merged over the built-in sources")
	fs.String("json", "", "Export timelines and summaries as JSON (- for stdout)")
	fs.String("metrics-file", "", "Write run metrics in Prometheus textfile format")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.Int("workers", 1, "Parallel workers for the timeline build")
	return fs
}

// Load parses args and resolves the configuration. Help output and flag
// errors are written to stderr; pflag.ErrHelp is returned for --help.
func Load(args []string, stderr io.Writer) (*Config, error) {
	fs := NewFlagSet("obzplan")
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: obzplan [flags] source [source...]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return FromFlags(fs)
}

// FromFlags resolves the configuration from parsed flags.
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("%w: bind --%s: %v", ErrConfig, name, err)
			}
		}
	}
	if noPlot, err := fs.GetBool("no-plot"); err == nil && fs.Changed("no-plot") {
		v.Set("plot.enabled", !noPlot)
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrConfig, path, err)
		}
	}

	c := &Config{Sources: fs.Args()}
	c.Observer.Lat = v.GetString("observer.lat")
	c.Observer.Long = v.GetString("observer.long")
	c.Observer.Elev = v.GetFloat64("observer.elev")
	c.Observer.Epoch = v.GetFloat64("observer.epoch")
	c.Window.Start = v.GetString("window.start")
	c.Window.End = v.GetString("window.end")
	c.Window.Samples = v.GetInt("window.samples")
	c.Window.Timezone = v.GetString("window.timezone")
	c.Limits.ElevCutoff = v.GetFloat64("limits.elev_cutoff")
	c.Limits.SolarSeparation = v.GetFloat64("limits.solar_separation")
	c.Limits.LunarSeparation = v.GetFloat64("limits.lunar_separation")
	c.Plot.Enabled = v.GetBool("plot.enabled")
	c.Plot.Styles = v.GetStringSlice("plot.styles")
	c.Plot.MarkerSize = v.GetFloat64("plot.marker_size")
	c.Output.JSON = v.GetString("output.json")
	c.Output.MetricsFile = v.GetString("output.metrics_file")
	c.CatalogFile = v.GetString("catalog.file")
	c.LogLevel = v.GetString("log.level")
	c.Workers = v.GetInt("workers")
	c.TUI = v.GetBool("tui")

	if c.Workers < 1 {
		return nil, fmt.Errorf("%w: workers must be at least 1, got %d", ErrConfig, c.Workers)
	}
	if c.TUI && c.Output.JSON == "-" {
		return nil, fmt.Errorf("%w: --tui and --json - both need stdout", ErrConfig)
	}
	return c, nil
}

// ObserverModel parses the observer location.
func (c *Config) ObserverModel() (astro.Observer, error) {
	obs, err := astro.NewObserver(c.Observer.Lat, c.Observer.Long, c.Observer.Elev)
	if err != nil {
		return astro.Observer{}, err
	}
	obs.Epoch = c.Observer.Epoch
	return obs, nil
}

// Location returns the time zone of the window bounds.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Window.Timezone)
	if err != nil {
		return nil, fmt.Errorf("time zone %q: %w", c.Window.Timezone, astro.ErrMalformed)
	}
	return loc, nil
}

// Span parses the observation window as UTC instants.
func (c *Config) Span() (start, end time.Time, err error) {
	loc, err := c.Location()
	if err != nil {
		return start, end, err
	}
	if start, err = astro.ParseTime(c.Window.Start, loc); err != nil {
		return start, end, fmt.Errorf("start: %w", err)
	}
	if end, err = astro.ParseTime(c.Window.End, loc); err != nil {
		return start, end, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

// Thresholds returns the classification limits.
func (c *Config) Thresholds() planner.Thresholds {
	return planner.Thresholds{
		ElevationCutoff: c.Limits.ElevCutoff,
		SolarSeparation: c.Limits.SolarSeparation,
		LunarSeparation: c.Limits.LunarSeparation,
	}
}
