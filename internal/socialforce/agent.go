package socialforce

import (
	"math"

	"github.com/golang/geo/r3"
)

// Color is a display attribute; the model never reads it.
type Color struct {
	R, G, B float64
}

type lifecycle int

const (
	detached lifecycle = iota
	owned
	destroyed
)

// AgentState is the kinematic part of an agent as seen by its neighbours
// during a step.
type AgentState struct {
	ID       int
	Position r3.Vector
	Velocity r3.Vector
	Waypoint int
}

// Agent is a pedestrian with a cyclic waypoint path.
type Agent struct {
	id           int
	radius       float64
	desiredSpeed float64
	color        Color
	position     r3.Vector
	velocity     r3.Vector
	path         []Waypoint
	cursor       int

	params *Params
	owner  *Crowd
	state  lifecycle
}

// NewAgent creates a standalone agent using the default model parameters.
// Agents that join a crowd come from [Crowd.NewAgent] instead.
func NewAgent(id int, desiredSpeed float64) *Agent {
	p := DefaultParams()
	return &Agent{
		id:           id,
		radius:       p.Radius,
		desiredSpeed: math.Max(0, desiredSpeed),
		params:       &p,
	}
}

func (a *Agent) SetRadius(radius float64)      { a.radius = math.Max(0, radius) }
func (a *Agent) SetDesiredSpeed(speed float64) { a.desiredSpeed = math.Max(0, speed) }
func (a *Agent) SetColor(r, g, b float64)      { a.color = Color{R: r, G: g, B: b} }

func (a *Agent) SetPosition(x, y float64) {
	a.position = r3.Vector{X: x, Y: y}
}

// AddWaypoint appends a goal to the end of the path.
func (a *Agent) AddWaypoint(x, y, radius float64) {
	a.path = append(a.path, NewWaypoint(x, y, radius))
}

func (a *Agent) ID() int               { return a.id }
func (a *Agent) Radius() float64       { return a.radius }
func (a *Agent) DesiredSpeed() float64 { return a.desiredSpeed }
func (a *Agent) Color() Color          { return a.color }
func (a *Agent) Position() r3.Vector   { return a.position }
func (a *Agent) Velocity() r3.Vector   { return a.velocity }
func (a *Agent) Speed() float64        { return a.velocity.Norm() }
func (a *Agent) WaypointIndex() int    { return a.cursor }

// AheadVector is the point the agent will reach in one second at its
// current velocity.
func (a *Agent) AheadVector() r3.Vector {
	return a.position.Add(a.velocity)
}

// Orientation is the heading of the velocity in degrees.
func (a *Agent) Orientation() float64 {
	return math.Atan2(a.velocity.Y, a.velocity.X) * 180 / math.Pi
}

func (a *Agent) State() AgentState {
	return AgentState{ID: a.id, Position: a.position, Velocity: a.velocity, Waypoint: a.cursor}
}

// Waypoint returns the i-th waypoint of the path. It reports false when i is
// out of range.
func (a *Agent) Waypoint(i int) (Waypoint, bool) {
	if i < 0 || i >= len(a.path) {
		return Waypoint{}, false
	}
	return a.path[i], true
}

// Path returns a copy of the waypoints in insertion order.
func (a *Agent) Path() []Waypoint {
	out := make([]Waypoint, len(a.path))
	copy(out, a.path)
	return out
}

// Move advances the agent alone by dt, reading neighbours from snapshot.
// The snapshot may include the agent itself; it is skipped by id.
func (a *Agent) Move(snapshot []AgentState, walls []Wall, dt float64) error {
	if err := checkTimestep(dt); err != nil {
		return err
	}
	if err := a.params.Validate(); err != nil {
		return err
	}
	next, err := a.advance(snapshot, walls, dt)
	if err != nil {
		return err
	}
	a.commit(next)
	return nil
}

// advance computes the next state, waypoint cursor included, without
// applying it.
func (a *Agent) advance(snapshot []AgentState, walls []Wall, dt float64) (AgentState, error) {
	if len(a.path) == 0 {
		return AgentState{}, ErrEmptyPath
	}
	target, cursor := a.nextTarget()
	f := a.forces(target, snapshot, walls)
	next := a.integrate(f.Total(), dt)
	next.Waypoint = cursor
	return next, nil
}

// integrate applies semi-implicit Euler with the speed clamped to the
// desired speed.
func (a *Agent) integrate(accel r3.Vector, dt float64) AgentState {
	v := a.velocity.Add(accel.Mul(dt))
	if v.Norm2() > a.desiredSpeed*a.desiredSpeed {
		v = v.Normalize().Mul(a.desiredSpeed)
	}
	return AgentState{
		ID:       a.id,
		Position: a.position.Add(v.Mul(dt)),
		Velocity: v,
		Waypoint: a.cursor,
	}
}

func (a *Agent) commit(s AgentState) {
	a.position = s.Position
	a.velocity = s.Velocity
	a.cursor = s.Waypoint
}
