package socialforce

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/golang/geo/r3"
)

// DefaultSeed seeds crowds created without WithSeed or WithRand.
const DefaultSeed int64 = 1604010629

type Option func(*Crowd)

// WithSeed gives the crowd its own random source seeded with seed.
func WithSeed(seed int64) Option {
	return func(c *Crowd) { c.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand injects the random source used to sample desired speeds.
func WithRand(r *rand.Rand) Option {
	return func(c *Crowd) { c.rng = r }
}

func WithParams(p Params) Option {
	return func(c *Crowd) { c.params = p }
}

// WithWorkers bounds the goroutines used per step. Values below one run the
// step on the calling goroutine.
func WithWorkers(n int) Option {
	return func(c *Crowd) { c.workers = n }
}

// Crowd owns a set of agents and walls and advances them with
// simultaneous-update semantics: every agent reads the state all agents had
// at the start of the step.
type Crowd struct {
	mu      sync.RWMutex
	agents  []*Agent
	walls   []Wall
	nextID  int
	rng     *rand.Rand
	params  Params
	workers int
	time    float64
	steps   int

	// paramsErr holds the validation failure of params, if any. Step
	// refuses to run until SetParam repairs it.
	paramsErr error

	snapshot []AgentState
	next     []AgentState
	errs     []error
}

func New(opts ...Option) *Crowd {
	c := &Crowd{
		params:  DefaultParams(),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(DefaultSeed))
	}
	c.paramsErr = c.params.Validate()
	return c
}

// Err reports why the crowd cannot step, or nil.
func (c *Crowd) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paramsErr
}

// NewAgent allocates an agent with a fresh id and a desired speed sampled
// from the crowd's speed distribution. The agent joins the crowd only once
// passed to AddAgent.
func (c *Crowd) NewAgent() *Agent {
	c.mu.Lock()
	defer c.mu.Unlock()

	speed := c.params.SpeedMean + c.rng.NormFloat64()*c.params.SpeedStdDev
	a := &Agent{
		id:           c.nextID,
		radius:       c.params.Radius,
		desiredSpeed: math.Max(0, speed),
		params:       &c.params,
		owner:        c,
	}
	c.nextID++
	return a
}

// AddAgent transfers ownership of a to the crowd. The agent must come from
// this crowd's NewAgent and carry at least one waypoint.
func (c *Crowd) AddAgent(a *Agent) error {
	if a == nil {
		return fmt.Errorf("%w: nil agent", ErrInvalidState)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if a.owner != c {
		return fmt.Errorf("agent %d: %w", a.id, ErrForeignAgent)
	}
	if a.state != detached {
		return fmt.Errorf("agent %d: %w", a.id, ErrDuplicateAgent)
	}
	if len(a.path) == 0 {
		return fmt.Errorf("agent %d: %w", a.id, ErrEmptyPath)
	}

	a.state = owned
	c.agents = append(c.agents, a)
	return nil
}

func (c *Crowd) AddWall(w Wall) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.walls = append(c.walls, w)
}

// RemoveLastAgent destroys the most recently added agent. It reports false
// when the crowd is empty.
func (c *Crowd) RemoveLastAgent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.agents)
	if n == 0 {
		return false
	}
	c.agents[n-1].state = destroyed
	c.agents[n-1] = nil
	c.agents = c.agents[:n-1]
	return true
}

func (c *Crowd) RemoveAllAgents() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range c.agents {
		a.state = destroyed
	}
	c.agents = nil
}

func (c *Crowd) RemoveAllWalls() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.walls = nil
}

// Step advances every agent by dt seconds.
func (c *Crowd) Step(dt float64) error {
	return c.stepOrdered(dt, nil)
}

// stepOrdered processes agents in the given index order (nil for natural
// order). The result does not depend on the order.
func (c *Crowd) stepOrdered(dt float64, order []int) error {
	if err := checkTimestep(dt); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paramsErr != nil {
		return c.paramsErr
	}

	n := len(c.agents)
	c.snapshot = c.snapshot[:0]
	for _, a := range c.agents {
		c.snapshot = append(c.snapshot, a.State())
	}
	c.next = resize(c.next, n)
	c.errs = resize(c.errs, n)

	ParallelFor(n, minChunk, c.workers, func(start, end int) {
		for k := start; k < end; k++ {
			i := k
			if order != nil {
				i = order[k]
			}
			c.next[i], c.errs[i] = c.agents[i].advance(c.snapshot, c.walls, dt)
		}
	})

	for i, err := range c.errs {
		if err != nil {
			return &StepError{Step: c.steps, Time: c.time, AgentID: c.agents[i].id, Wrapped: err}
		}
	}

	for i, a := range c.agents {
		a.commit(c.next[i])
	}
	c.time += dt
	c.steps++
	return nil
}

// Agents returns read-only views in insertion order. Views observe the live
// agents and must not be read concurrently with Step.
func (c *Crowd) Agents() []View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	views := make([]View, len(c.agents))
	for i, a := range c.agents {
		views[i] = View{a: a}
	}
	return views
}

// Snapshot copies the kinematic state of every agent.
func (c *Crowd) Snapshot() []AgentState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]AgentState, len(c.agents))
	for i, a := range c.agents {
		out[i] = a.State()
	}
	return out
}

func (c *Crowd) Walls() []Wall {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Wall, len(c.walls))
	copy(out, c.walls)
	return out
}

func (c *Crowd) AgentCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.agents)
}

// Time is the simulated time accumulated by Step.
func (c *Crowd) Time() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.time
}

func (c *Crowd) Steps() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.steps
}

func (c *Crowd) Params() Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params
}

// SetParam tunes a model parameter for every agent of the crowd.
func (c *Crowd) SetParam(name string, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.params.SetParam(name, value); err != nil {
		return err
	}
	c.paramsErr = nil
	return nil
}

// Forces reports the force terms acting on the agent with the given id
// against the current state, without moving anything or advancing its path.
func (c *Crowd) Forces(id int) (Forces, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, a := range c.agents {
		if a.id != id {
			continue
		}
		snapshot := make([]AgentState, len(c.agents))
		for i, other := range c.agents {
			snapshot[i] = other.State()
		}
		target, _ := a.nextTarget()
		return a.forces(target, snapshot, c.walls), true
	}
	return Forces{}, false
}

// View is a read-only handle on an agent owned by a crowd.
type View struct {
	a *Agent
}

func (v View) ID() int                { return v.a.id }
func (v View) Radius() float64        { return v.a.radius }
func (v View) DesiredSpeed() float64  { return v.a.desiredSpeed }
func (v View) Color() Color           { return v.a.color }
func (v View) Position() r3.Vector    { return v.a.position }
func (v View) Velocity() r3.Vector    { return v.a.velocity }
func (v View) Speed() float64         { return v.a.Speed() }
func (v View) Orientation() float64   { return v.a.Orientation() }
func (v View) AheadVector() r3.Vector { return v.a.AheadVector() }
func (v View) WaypointIndex() int     { return v.a.cursor }
func (v View) Path() []Waypoint       { return v.a.Path() }

func (v View) Waypoint(i int) (Waypoint, bool) { return v.a.Waypoint(i) }

func checkTimestep(dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTimestep, dt)
	}
	return nil
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	s = s[:n]
	var zero T
	for i := range s {
		s[i] = zero
	}
	return s
}
