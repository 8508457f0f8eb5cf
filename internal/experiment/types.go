package experiment

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/crowdsim/internal/socialforce"
)

var ErrNonFiniteState = errors.New("experiment: non-finite agent state")

// Observer is notified after every step.
type Observer interface {
	OnStep(agents []socialforce.View, t float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(agents []socialforce.View, t float64)

func (f ObserverFunc) OnStep(agents []socialforce.View, t float64) { f(agents, t) }

type RunConfig struct {
	Dt            float64
	Duration      float64
	RecordEvery   int
	ValidateState bool
}

func (c RunConfig) validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must be non-negative, got %f", c.Duration)
	}
	return nil
}

// AgentInfo holds the per-agent attributes that do not change during a run.
type AgentInfo struct {
	ID           int               `json:"id"`
	Radius       float64           `json:"radius"`
	DesiredSpeed float64           `json:"desired_speed"`
	Color        socialforce.Color `json:"color"`
	Path         []WaypointInfo    `json:"path"`
}

type WaypointInfo struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// AgentRecord is one agent's kinematic state in a recorded frame.
type AgentRecord struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Waypoint int     `json:"waypoint"`
}

type Frame struct {
	Step   int           `json:"step"`
	Time   float64       `json:"time"`
	Agents []AgentRecord `json:"agents"`
}

type Result struct {
	Agents     []AgentInfo
	Walls      []socialforce.Wall
	Frames     []Frame
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Times lists the time of every recorded frame.
func (r *Result) Times() []float64 {
	times := make([]float64, len(r.Frames))
	for i, f := range r.Frames {
		times[i] = f.Time
	}
	return times
}

// MeanSpeeds lists the mean agent speed of every recorded frame.
func (r *Result) MeanSpeeds() []float64 {
	speeds := make([]float64, len(r.Frames))
	for i, f := range r.Frames {
		if len(f.Agents) == 0 {
			continue
		}
		var sum float64
		for _, a := range f.Agents {
			sum += math.Hypot(a.VX, a.VY)
		}
		speeds[i] = sum / float64(len(f.Agents))
	}
	return speeds
}

// Trail returns the recorded positions of one agent in frame order.
func (r *Result) Trail(id int) [][2]float64 {
	var trail [][2]float64
	for _, f := range r.Frames {
		for _, a := range f.Agents {
			if a.ID == id {
				trail = append(trail, [2]float64{a.X, a.Y})
				break
			}
		}
	}
	return trail
}

func capture(step int, t float64, agents []socialforce.View) Frame {
	f := Frame{Step: step, Time: t, Agents: make([]AgentRecord, len(agents))}
	for i, a := range agents {
		p, v := a.Position(), a.Velocity()
		f.Agents[i] = AgentRecord{ID: a.ID(), X: p.X, Y: p.Y, VX: v.X, VY: v.Y, Waypoint: a.WaypointIndex()}
	}
	return f
}

func describe(agents []socialforce.View) []AgentInfo {
	infos := make([]AgentInfo, len(agents))
	for i, a := range agents {
		path := a.Path()
		info := AgentInfo{
			ID:           a.ID(),
			Radius:       a.Radius(),
			DesiredSpeed: a.DesiredSpeed(),
			Color:        a.Color(),
			Path:         make([]WaypointInfo, len(path)),
		}
		for j, w := range path {
			info.Path[j] = WaypointInfo{X: w.Position.X, Y: w.Position.Y, Radius: w.Radius}
		}
		infos[i] = info
	}
	return infos
}

func finite(agents []socialforce.View) (int, bool) {
	for _, a := range agents {
		p, v := a.Position(), a.Velocity()
		for _, c := range [...]float64{p.X, p.Y, v.X, v.Y} {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return a.ID(), false
			}
		}
	}
	return 0, true
}
