package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/crowdsim/internal/config"
)

var presetInfo = map[string]string{
	"corridor":   "opposing flows",
	"crossing":   "perpendicular streams",
	"bottleneck": "doorway in a wall",
	"patrol":     "cyclic waypoint loop",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

var (
	accent   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	heading  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subtle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	detail   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	idle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	idleDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("#444455"))
	keyHint  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// setting is one editable scenario field on the config screen.
type setting struct {
	name string
	get  func(*config.Scenario) float64
	set  func(*config.Scenario, float64)
	step float64
}

var settings = []setting{
	{"dt", func(s *config.Scenario) float64 { return s.Dt }, func(s *config.Scenario, v float64) { s.Dt = v }, 0.01},
	{"duration", func(s *config.Scenario) float64 { return s.Duration }, func(s *config.Scenario, v float64) { s.Duration = v }, 5},
	{"seed", func(s *config.Scenario) float64 { return float64(s.Seed) }, func(s *config.Scenario, v float64) { s.Seed = int64(v) }, 1},
	{"agents/group", groupCount, setGroupCount, 10},
	{"workers", func(s *config.Scenario) float64 { return float64(s.Workers) }, func(s *config.Scenario, v float64) { s.Workers = int(v) }, 1},
}

func groupCount(s *config.Scenario) float64 {
	if len(s.Groups) == 0 {
		return 0
	}
	return float64(s.Groups[0].Count)
}

func setGroupCount(s *config.Scenario, v float64) {
	for i := range s.Groups {
		s.Groups[i].Count = int(v)
	}
}

type app struct {
	state, cursor int
	presets       []string
	scenario      *config.Scenario
	paramCursor   int
	editing       bool
	editBuf       string
	theme         string
	err           error
	liveModel     Model
}

// NewInteractiveApp returns the preset picker that launches the live view.
func NewInteractiveApp(theme string) *app {
	return &app{
		state:   stateMenu,
		presets: config.ListPresets(),
		theme:   theme,
	}
}

func (m app) Init() tea.Cmd { return nil }

func (m app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		if m.state == stateSim {
			newLive, cmd := m.liveModel.Update(msg)
			m.liveModel = newLive.(Model)
			return m, cmd
		}
	}
	return m, nil
}

func (m app) handleKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		newLive, cmd := m.liveModel.Update(msg)
		m.liveModel = newLive.(Model)
		return m, cmd
	}
	return m, nil
}

func (m app) menuKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.scenario = config.GetPreset(m.presets[m.cursor])
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m app) configKey(msg tea.KeyMsg) (app, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			if _, err := fmt.Sscanf(m.editBuf, "%f", &val); err == nil {
				settings[m.paramCursor].set(m.scenario, val)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}
	cur := settings[m.paramCursor]
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(settings)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing, m.editBuf = true, fmt.Sprintf("%g", cur.get(m.scenario))
	case "left", "h":
		cur.set(m.scenario, cur.get(m.scenario)-cur.step)
	case "right", "l":
		cur.set(m.scenario, cur.get(m.scenario)+cur.step)
	case "s":
		return m, m.start()
	}
	return m, nil
}

func (m *app) start() tea.Cmd {
	if err := m.scenario.Validate(); err != nil {
		m.err = err
		return nil
	}
	live, err := NewModel(m.scenario)
	if err != nil {
		m.err = err
		return nil
	}
	if m.theme != "" {
		live.SetTheme(m.theme)
	}
	m.liveModel, m.state, m.err = live, stateSim, nil
	return m.liveModel.Init()
}

func (m app) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.liveModel.View()
	}
	return ""
}

func hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyHint.Render(pairs[i]) + idle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m app) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + heading.Render("CROWDSIM") + "\n    " + subtle.Render("social force pedestrian simulation") + "\n    " + subtle.Render("──────────────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", accent.Render("▸"), selected.Render(fmt.Sprintf("%-12s", name)), detail.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", idle.Render(fmt.Sprintf("  %-12s", name)), idleDim.Render(desc)))
		}
	}
	b.WriteString("\n    " + hints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m app) viewConfig() string {
	var b strings.Builder
	s := m.scenario
	b.WriteString("\n\n    " + heading.Render(strings.ToUpper(s.Name)) + "\n    " + subtle.Render(fmt.Sprintf("%s, %d walls, %d agents", presetInfo[s.Name], len(s.Walls), s.AgentCount())) + "\n    " + subtle.Render("──────────────────────────────────") + "\n\n")
	for i, st := range settings {
		valStr := fmt.Sprintf("%10g", st.get(s))
		if m.editing && i == m.paramCursor {
			valStr = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", accent.Render("▸"), selected.Render(fmt.Sprintf("%-14s", st.name)), detail.Bold(true).Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", idle.Render(fmt.Sprintf("  %-14s", st.name)), idleDim.Render(valStr)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + errStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + hints("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back") + "\n")
	return b.String()
}

// RunInteractive opens the preset picker in the alternate screen.
func RunInteractive(theme string) error {
	_, err := tea.NewProgram(NewInteractiveApp(theme), tea.WithAltScreen()).Run()
	return err
}

// RunLive opens the live view of a single scenario.
func RunLive(s *config.Scenario, theme string) error {
	m, err := NewModel(s)
	if err != nil {
		return err
	}
	if theme != "" {
		m.SetTheme(theme)
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
