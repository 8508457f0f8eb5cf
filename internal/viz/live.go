package viz

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/crowdsim/internal/config"
	"github.com/san-kum/crowdsim/internal/metrics"
	"github.com/san-kum/crowdsim/internal/scene"
	"github.com/san-kum/crowdsim/internal/socialforce"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 300
	tickRate        = time.Second / 30
	viewPadding     = 1.0
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model runs a crowd and draws it every tick.
type Model struct {
	scenario     *config.Scenario
	crowd        *socialforce.Crowd
	canvas       *Canvas
	view         Viewport
	theme        Theme
	styles       styles
	dt           float64
	running      bool
	showGoals    bool
	showHelp     bool
	paramKeys    []string
	selected     int
	speedHistory []float64
	efficiency   float64
	rng          *rand.Rand
	lastTick     time.Time
	fps          float64
	frame        int
	err          error
}

// NewModel builds the scenario's crowd and frames the view around its walls
// and initial agents.
func NewModel(s *config.Scenario) (Model, error) {
	crowd, err := scene.Build(s)
	if err != nil {
		return Model{}, err
	}

	m := Model{
		scenario:     s,
		crowd:        crowd,
		canvas:       NewCanvas(width, height),
		theme:        ThemeCyberpunk,
		styles:       newStyles(ThemeCyberpunk),
		dt:           s.Dt,
		running:      true,
		paramKeys:    socialforce.ParamNames(),
		speedHistory: make([]float64, 0, historyCapacity),
		rng:          rand.New(rand.NewSource(s.Seed + 1)),
	}
	m.frameView()
	return m, nil
}

// SetTheme switches the color scheme by name.
func (m *Model) SetTheme(name string) {
	m.theme = GetTheme(name)
	m.styles = newStyles(m.theme)
}

func (m Model) Crowd() *socialforce.Crowd { return m.crowd }

func (m *Model) frameView() {
	b := scene.Bounds(m.crowd.Walls(), m.crowd.Agents(), viewPadding)
	m.view = NewViewport(b, m.canvas)
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the crowd.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.step()
			}
		case "r":
			m.reset()
		case "a":
			m.addAgent()
		case "d":
			m.crowd.RemoveLastAgent()
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "w":
			m.showGoals = !m.showGoals
		case "f":
			m.frameView()
		case "t":
			m.theme = nextTheme(m.theme.Name)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		now := time.Time(msg)
		if !m.lastTick.IsZero() {
			if elapsed := now.Sub(m.lastTick).Seconds(); elapsed > 0 {
				m.fps = 0.9*m.fps + 0.1/elapsed
			}
		}
		m.lastTick = now
		m.frame++
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

// step advances the crowd by one dt and samples the speed history.
func (m *Model) step() {
	if err := m.crowd.Step(m.dt); err != nil {
		m.err = err
		m.running = false
		return
	}

	agents := m.crowd.Agents()
	m.speedHistory = append(m.speedHistory, metrics.CrowdSpeed(agents))
	if len(m.speedHistory) > historyCapacity {
		m.speedHistory = m.speedHistory[1:]
	}

	eff := metrics.NewSpeedEfficiency()
	eff.Observe(agents, nil, m.crowd.Time())
	m.efficiency = eff.Value()
}

func (m *Model) reset() {
	crowd, err := scene.Build(m.scenario)
	if err != nil {
		m.err = err
		return
	}
	m.crowd = crowd
	m.speedHistory = m.speedHistory[:0]
	m.efficiency = 0
	m.err = nil
	m.rng = rand.New(rand.NewSource(m.scenario.Seed + 1))
}

// addAgent spawns one agent from a randomly chosen group of the scenario.
func (m *Model) addAgent() {
	groups := m.scenario.Groups
	if len(groups) == 0 {
		return
	}
	g := &groups[m.rng.Intn(len(groups))]
	if len(g.Waypoints) == 0 {
		return
	}
	if err := scene.Spawn(m.crowd, g, m.rng); err != nil {
		m.err = err
	}
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	val := m.crowd.Params().GetParams()[key]
	if val == 0 {
		val = 1e-3
	}
	m.err = m.crowd.SetParam(key, val*factor)
}

// draw renders goals, agents and walls onto the canvas, walls last so they
// keep their color where they overlap agents.
func (m *Model) draw() {
	m.canvas.Clear()
	agents := m.crowd.Agents()

	if m.showGoals {
		m.canvas.SetPen(penGoals)
		for _, a := range agents {
			for _, w := range a.Path() {
				x, y := m.view.Project(w.Position.X, w.Position.Y)
				m.canvas.DrawCircle(x, y, m.view.Scale(w.Radius))
			}
			if w, ok := a.Waypoint(a.WaypointIndex()); ok {
				p := a.Position()
				x0, y0 := m.view.Project(p.X, p.Y)
				x1, y1 := m.view.Project(w.Position.X, w.Position.Y)
				m.canvas.DrawLine(x0, y0, x1, y1)
			}
		}
	}

	m.canvas.SetPen(penAgents)
	for _, a := range agents {
		p := a.Position()
		x, y := m.view.Project(p.X, p.Y)
		r := m.view.Scale(a.Radius())
		m.canvas.DrawCircle(x, y, r)
		if r >= 2 {
			ahead := p.Add(a.Velocity().Normalize().Mul(a.Radius()))
			hx, hy := m.view.Project(ahead.X, ahead.Y)
			m.canvas.DrawLine(x, y, hx, hy)
		}
	}

	m.canvas.SetPen(penWalls)
	for _, w := range m.crowd.Walls() {
		s, e := w.Start(), w.End()
		x0, y0 := m.view.Project(s.X, s.Y)
		x1, y1 := m.view.Project(e.X, e.Y)
		m.canvas.DrawLine(x0, y0, x1, y1)
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	st := m.styles
	canvasView := st.canvas.Render(m.canvas.Render(st.palette))

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.scenario.Name)) + "\n")

	status := st.running.Render(AnimatedSpinner(m.frame) + " RUNNING")
	if !m.running {
		status = st.paused.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	if len(m.speedHistory) > 1 {
		chart := asciigraph.Plot(m.speedHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("mean speed"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Agents", fmt.Sprintf("%d", m.crowd.AgentCount()))
	row("Time", fmt.Sprintf("%.2fs", m.crowd.Time()))
	row("Steps", fmt.Sprintf("%d", m.crowd.Steps()))
	row("FPS", fmt.Sprintf("%.0f", m.fps))
	speed := 0.0
	if n := len(m.speedHistory); n > 0 {
		speed = m.speedHistory[n-1]
	}
	row("Speed", fmt.Sprintf("%.2f m/s", speed))
	row("Efficiency", ProgressBar(m.efficiency, 10)+fmt.Sprintf(" %.0f%%", m.efficiency*100))

	s.WriteString("\nPARAMETERS\n")
	params := m.crowd.Params().GetParams()
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-16s %.3f", k, params[k])
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.label.Render(line) + "\n")
		}
	}

	if m.err != nil {
		s.WriteString("\n" + st.err.Render(m.err.Error()) + "\n")
	}

	s.WriteString(st.help.Render("─────────────────────\nSP:Pause R:Reset Q:Quit\nA:Add D:Remove W:Goals\nT:Theme Tab/↑↓:Tune ?:Help"))
	statsView := st.stats.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  .        - Single step when paused  ║
║  R        - Rebuild the scenario     ║
║  A        - Add an agent             ║
║  D        - Remove last agent        ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  W        - Toggle waypoint rings    ║
║  F        - Refit view to the crowd  ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`
