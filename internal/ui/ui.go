// Package ui provides the interactive plan browser using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/obzplan/obzplan/internal/astro"
	"github.com/obzplan/obzplan/internal/planner"
	"github.com/obzplan/obzplan/internal/render"
	"github.com/obzplan/obzplan/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewChart ViewMode = iota
	ViewSky
	ViewSummary
)

const viewCount = 3

// Config is what the browser displays.
type Config struct {
	Plan     *planner.Plan
	Observer astro.Observer
	Names    []string       // requested sources, in display order
	Styles   []render.Style // one per name
	Markers  []render.Marker
	Location *time.Location // nil is UTC
}

// Model is the root Bubble Tea model.
type Model struct {
	cfg Config

	// UI state
	viewMode ViewMode
	width    int
	height   int
	ready    bool
	focusIdx int  // focused source
	showAll  bool // plot every source, not just the focused one
	cursor   int  // grid sample under the time cursor
}

// New creates a new root UI model.
func New(cfg Config) Model {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return Model{cfg: cfg, viewMode: ViewChart, showAll: true}
}

// Run starts the browser on the alternate screen and blocks until quit.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit

		case "1", "c":
			m.viewMode = ViewChart
		case "2", "s":
			m.viewMode = ViewSky
		case "3", "t":
			m.viewMode = ViewSummary
		case "tab":
			m.viewMode = (m.viewMode + 1) % viewCount
		case "shift+tab":
			m.viewMode = (m.viewMode + viewCount - 1) % viewCount

		case "right", "l", "down", "j":
			m = m.focusNext()
		case "left", "h", "up", "k":
			m = m.focusPrev()
		case "a":
			m.showAll = !m.showAll

		case "]":
			m = m.moveCursor(1)
		case "[":
			m = m.moveCursor(-1)
		case "}":
			m = m.moveCursor(m.bigStep())
		case "{":
			m = m.moveCursor(-m.bigStep())
		case "home":
			m.cursor = 0
		case "end":
			m.cursor = max(len(m.cfg.Plan.Grid)-1, 0)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
	}

	return m, nil
}

func (m Model) focusNext() Model {
	if len(m.cfg.Names) == 0 {
		return m
	}
	m.focusIdx = (m.focusIdx + 1) % len(m.cfg.Names)
	return m
}

func (m Model) focusPrev() Model {
	if len(m.cfg.Names) == 0 {
		return m
	}
	m.focusIdx--
	if m.focusIdx < 0 {
		m.focusIdx = len(m.cfg.Names) - 1
	}
	return m
}

func (m Model) moveCursor(delta int) Model {
	last := len(m.cfg.Plan.Grid) - 1
	m.cursor = min(max(m.cursor+delta, 0), max(last, 0))
	return m
}

func (m Model) bigStep() int {
	return max(len(m.cfg.Plan.Grid)/10, 1)
}

// Focused returns the name of the focused source.
func (m Model) Focused() string {
	if len(m.cfg.Names) == 0 {
		return ""
	}
	return m.cfg.Names[m.focusIdx]
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	// Header, status and footer take five lines
	contentHeight := m.height - 5
	var content string
	switch m.viewMode {
	case ViewChart:
		content = m.renderChart(m.width, contentHeight)
	case ViewSky:
		content = m.renderSky(contentHeight)
	case ViewSummary:
		content = m.renderSummary()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderStatus() + "\n" + m.renderFooter()
}

// visible returns the sources to plot with their styles.
func (m Model) visible() ([]string, []render.Style) {
	if m.showAll || len(m.cfg.Names) == 0 {
		return m.cfg.Names, m.cfg.Styles
	}
	i := m.focusIdx
	return m.cfg.Names[i : i+1], m.cfg.Styles[i : i+1]
}

func (m Model) renderChart(width, height int) string {
	names, styles := m.visible()
	out, err := render.ElevationChart(m.cfg.Plan, names, styles, render.Options{
		Width:    width,
		Height:   height,
		Location: m.cfg.Location,
	})
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	return out
}

func (m Model) renderSky(height int) string {
	// Terminal cells are about twice as tall as wide
	width := min(m.width, 2*(height-1)+1)
	names, styles := m.visible()
	out, err := render.SkyPlot(m.cfg.Plan, names, styles, m.cfg.Markers, render.Options{
		Width:  width,
		Height: height,
	})
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	return out
}

func (m Model) renderSummary() string {
	var b strings.Builder
	planner.WriteSummaryTable(&b, m.cfg.Plan)
	b.WriteString("\n")

	name := m.Focused()
	if tl := m.cfg.Plan.Timeline(name); tl != nil {
		s := planner.Summarize(tl)
		b.WriteString(titleStyle.Render(name))
		b.WriteString("\n")
		if s.NeverObservable {
			b.WriteString(dimStyle.Render("  never above the elevation limit"))
			b.WriteString("\n")
		} else {
			fmt.Fprintf(&b, "  first   %s  el %6.2f°  az %6.2f°\n", m.clock(s.StartTime), s.Start.Elevation, s.Start.Azimuth)
			fmt.Fprintf(&b, "  last    %s  el %6.2f°  az %6.2f°\n", m.clock(s.EndTime), s.End.Elevation, s.End.Azimuth)
			fmt.Fprintf(&b, "  el range %.2f° .. %.2f°   az range %.2f° .. %.2f°\n",
				s.Min.Elevation, s.Max.Elevation, s.Min.Azimuth, s.Max.Azimuth)
			fmt.Fprintf(&b, "  LST %s .. %s\n", astro.FormatHours(s.LSTStart), astro.FormatHours(s.LSTEnd))
		}
		if w, err := m.cfg.Plan.Window(name); err == nil && !w.NeverVisible {
			fmt.Fprintf(&b, "  rise %s  transit %s (%.1f°)  set %s\n",
				m.crossing(w.Rise), m.crossing(w.Transit), w.MaxElevation, m.crossing(w.Set))
		}
		sun, moon := 0, 0
		for _, ev := range tl.Interference {
			if ev.Tag.Has(planner.SunBlocked) {
				sun++
			}
			if ev.Tag.Has(planner.MoonBlocked) {
				moon++
			}
		}
		b.WriteString(warnStyle.Render(fmt.Sprintf("  %d samples Sun-blocked, %d Moon-blocked", sun, moon)))
	}
	return b.String()
}

func (m Model) clock(t time.Time) string {
	return t.In(m.cfg.Location).Format("2006-01-02 15:04:05 MST")
}

// crossing formats a crossing time, which is zero outside the window.
func (m Model) crossing(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.In(m.cfg.Location).Format("15:04")
}

// tierStyles color an elevation by astro.ElevationTier.
var tierStyles = map[astro.ElevationTier]lipgloss.Style{
	astro.ElevationNone:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	astro.ElevationLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	astro.ElevationMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
	astro.ElevationHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135")) // violet
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("60"))             // muted purple
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))            // gold
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
)

func (m Model) renderHeader() string {
	title := renderGradient(" obzplan ")
	observer := dimStyle.Render("observer " + m.cfg.Observer.String())
	return title + " " + m.renderTabs() + "  " + observer
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Elevation", "[2] Sky", "[3] Summary"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return strings.Join(parts, "  ")
}

// renderStatus describes the focused source at the time cursor.
func (m Model) renderStatus() string {
	grid := m.cfg.Plan.Grid
	if len(grid) == 0 {
		return ""
	}
	i := m.cursor
	lst := m.cfg.Plan.Sidereal[i]
	line := fmt.Sprintf(">>> %s  LST %s", m.clock(grid[i]), astro.FormatHours(lst))

	name := m.Focused()
	tl := m.cfg.Plan.Timeline(name)
	if tl == nil {
		return accentStyle.Render(line)
	}
	line += fmt.Sprintf(" | %s: %s", name, tl.Tags[i])
	if pos := tl.Positions[i]; pos.Valid {
		el := pos.Value.AltDeg()
		return accentStyle.Render(line+" | ") +
			tierStyles[astro.TierOf(el)].Render(fmt.Sprintf("El:%.1f°", el)) +
			accentStyle.Render(fmt.Sprintf(" Az:%.1f°", pos.Value.AzDeg()))
	}
	return accentStyle.Render(line)
}

func (m Model) renderFooter() string {
	help := "←/→ source  a all/focused  [/] time  {/} jump  tab view  q quit"
	return dimStyle.Render(help + "  v" + version.Version)
}

// renderGradient colors text with a horizontal purple-to-pink gradient.
func renderGradient(text string) string {
	runes := []rune(text)
	var b strings.Builder
	for col, r := range runes {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(gradientColor(col, len(runes))))
		b.WriteString(style.Render(string(r)))
	}
	return b.String()
}

// gradientColor returns a hex color for a position in the title gradient:
// blue -> purple -> magenta -> pink.
func gradientColor(col, width int) string {
	xRatio := float64(col) / float64(max(width, 1))

	var r, g, b float64
	if xRatio < 0.33 {
		// Blue to Purple
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	} else if xRatio < 0.66 {
		// Purple to Magenta
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	} else {
		// Magenta to Pink
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	return fmt.Sprintf("#%02X%02X%02X", clamp8(r), clamp8(g), clamp8(b))
}

func clamp8(v float64) int {
	return min(max(int(v), 0), 255)
}
