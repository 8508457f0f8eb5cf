package viz

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/crowdsim/internal/config"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m app, keys ...string) app {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(app)
	}
	return m
}

func TestMenuSelectsPreset(t *testing.T) {
	m := *NewInteractiveApp("")
	if len(m.presets) != len(config.Presets) {
		t.Fatalf("expected %d presets, got %d", len(config.Presets), len(m.presets))
	}

	m = send(m, "j", "enter")
	if m.state != stateConfig {
		t.Fatalf("expected config state, got %d", m.state)
	}
	if m.scenario.Name != m.presets[1] {
		t.Errorf("expected %s, got %s", m.presets[1], m.scenario.Name)
	}

	m = send(m, "esc")
	if m.state != stateMenu {
		t.Error("esc should return to the menu")
	}
}

func TestConfigEditing(t *testing.T) {
	m := send(*NewInteractiveApp(""), "enter")
	dt := m.scenario.Dt

	m = send(m, "l")
	if got := m.scenario.Dt; got <= dt {
		t.Errorf("l should increase dt, got %v", got)
	}

	m = send(m, "j", "j", "j", "enter")
	if !m.editing {
		t.Fatal("enter should start editing")
	}
	for range m.editBuf {
		m = send(m, "backspace")
	}
	m = send(m, "3", "enter")
	for _, g := range m.scenario.Groups {
		if g.Count != 3 {
			t.Errorf("group %s: expected 3 agents, got %d", g.Name, g.Count)
		}
	}
}

func TestStartLaunchesLiveView(t *testing.T) {
	m := send(*NewInteractiveApp("ocean"), "enter", "j", "j", "j", "enter")
	for range m.editBuf {
		m = send(m, "backspace")
	}
	m = send(m, "2", "enter", "s")

	if m.state != stateSim {
		t.Fatalf("expected sim state, err=%v", m.err)
	}
	if m.liveModel.theme.Name != "ocean" {
		t.Errorf("expected ocean theme, got %s", m.liveModel.theme.Name)
	}
	if m.liveModel.Crowd().AgentCount() != m.scenario.AgentCount() {
		t.Errorf("expected %d agents, got %d", m.scenario.AgentCount(), m.liveModel.Crowd().AgentCount())
	}
}

func TestStartRejectsInvalidScenario(t *testing.T) {
	m := send(*NewInteractiveApp(""), "enter")
	m.scenario.Dt = -1
	m = send(m, "s")
	if m.state != stateConfig || m.err == nil {
		t.Error("invalid scenario should stay on the config screen with an error")
	}
}
