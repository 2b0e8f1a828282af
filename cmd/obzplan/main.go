// Command obzplan plans radio observations: for each requested source it
// reports when the source is above the elevation limit and clear of the Sun
// and Moon over an observation window.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/obzplan/obzplan/internal/astro"
	"github.com/obzplan/obzplan/internal/catalog"
	"github.com/obzplan/obzplan/internal/config"
	"github.com/obzplan/obzplan/internal/logging"
	"github.com/obzplan/obzplan/internal/metrics"
	"github.com/obzplan/obzplan/internal/planner"
	"github.com/obzplan/obzplan/internal/render"
	"github.com/obzplan/obzplan/internal/ui"
)

// Exit codes
const (
	exitOK            = 0
	exitFailure       = 1
	exitUsage         = 2
	exitMissingSource = 3
	exitInvalidRange  = 4
)

// Plot sizes when stdout is not a terminal
const (
	defaultPlotWidth  = 100
	defaultPlotHeight = 24
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	logger.SetOutput(stderr)

	if err := plan(cfg, stdout, stderr, logger); err != nil {
		logger.Error("%v", err)
		return exitCode(err)
	}
	return exitOK
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, catalog.ErrMissingSource):
		return exitMissingSource
	case errors.Is(err, planner.ErrInvalidRange), errors.Is(err, planner.ErrInvalidThreshold):
		return exitInvalidRange
	case errors.Is(err, astro.ErrMalformed), errors.Is(err, config.ErrConfig), errors.Is(err, catalog.ErrInvalid):
		return exitUsage
	default:
		return exitFailure
	}
}

func plan(cfg *config.Config, stdout, stderr io.Writer, logger *logging.Logger) error {
	log := logger.Named("cli")

	// With the export on stdout, the human-readable output moves to stderr
	text := stdout
	if cfg.Output.JSON == "-" {
		text = stderr
	}

	// Everything that can be rejected is checked before computing
	obs, err := cfg.ObserverModel()
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	start, end, err := cfg.Span()
	if err != nil {
		return err
	}

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		extra, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return err
		}
		log.Info("loaded %d sources from %s", extra.Len(), cfg.CatalogFile)
		cat = cat.Merge(extra)
	}
	requested, err := cat.Resolve(cfg.Sources)
	if err != nil {
		return err
	}
	names := make([]string, len(requested))
	for i, src := range requested {
		names[i] = src.Name
	}

	var styles []render.Style
	if cfg.Plot.Enabled || cfg.TUI {
		if styles, err = render.ParseStyles(cfg.Plot.Styles, len(names), cfg.Plot.MarkerSize); err != nil {
			return err
		}
	}

	req := planner.Request{
		Engine:     obs,
		Sources:    cat.Sources(),
		Requested:  names,
		Start:      start,
		End:        end,
		Samples:    cfg.Window.Samples,
		Thresholds: cfg.Thresholds(),
		Workers:    cfg.Workers,
		Logger:     logger,
	}
	var rec *metrics.Recorder
	if cfg.Output.MetricsFile != "" {
		rec = metrics.New()
		req.Recorder = rec
	}

	p, err := planner.Build(req)
	if err != nil {
		return err
	}
	if err := planner.WriteBanner(text, obs, obs, start, end); err != nil {
		return err
	}
	if err := planner.Report(text, p); err != nil {
		return err
	}

	if cfg.Output.JSON != "" {
		if err := writeJSON(cfg.Output.JSON, stdout, planner.Export(p, obs, req.Thresholds, time.Now().UTC())); err != nil {
			return err
		}
	}
	if rec != nil {
		rec.ObservePlan(p)
		if err := rec.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		log.Debug("metrics written to %s", cfg.Output.MetricsFile)
	}

	markers := []render.Marker{render.PoleMarker(obs, obs.At(start))}

	if cfg.TUI {
		if !isTerminal(stdout) {
			return errors.New("--tui needs a terminal")
		}
		return ui.Run(ui.New(ui.Config{
			Plan:     p,
			Observer: obs,
			Names:    names,
			Styles:   styles,
			Markers:  markers,
			Location: loc,
		}))
	}

	if cfg.Plot.Enabled {
		width, height := plotSize(text)
		opts := render.Options{
			Width:    width,
			Height:   height,
			Renderer: lipgloss.NewRenderer(text),
			Location: loc,
		}
		chart, err := render.ElevationChart(p, names, styles, opts)
		if err != nil {
			return err
		}
		// Keep the sky chart roughly circular
		opts.Width = min(width, 2*(height-1)+1)
		sky, err := render.SkyPlot(p, names, styles, markers, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(text, "\n%s\n\n%s\n", chart, sky)
	}
	return nil
}

func writeJSON(path string, stdout io.Writer, export *planner.PlanExport) error {
	if path == "-" {
		if err := export.WriteJSON(stdout); err != nil {
			return fmt.Errorf("write JSON to stdout: %w", err)
		}
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create JSON file: %w", err)
	}
	defer f.Close()
	if err := export.WriteJSON(f); err != nil {
		return fmt.Errorf("write JSON to file: %w", err)
	}
	return f.Close()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// plotSize fits plots to the terminal, leaving room for the report.
func plotSize(w io.Writer) (int, int) {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, height, err := term.GetSize(int(f.Fd())); err == nil {
			return max(width, 40), min(max(height-4, 12), 40)
		}
	}
	return defaultPlotWidth, defaultPlotHeight
}
