package socialforce

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
)

func populate(c *Crowd, n int, rng *rand.Rand) {
	for i := 0; i < n; i++ {
		a := c.NewAgent()
		a.SetPosition(rng.Float64()*20-10, rng.Float64()*8-4)
		if i%2 == 0 {
			a.AddWaypoint(20, 0, 2)
			a.AddWaypoint(-20, 0, 2)
		} else {
			a.AddWaypoint(-20, 0, 2)
			a.AddWaypoint(20, 0, 2)
		}
		if err := c.AddAgent(a); err != nil {
			panic(err)
		}
	}
	c.AddWall(NewWall(-25, 5, 25, 5))
	c.AddWall(NewWall(-25, -5, 25, -5))
}

func TestCrowd_IDsAreMonotonic(t *testing.T) {
	c := New()
	seen := make(map[int]bool)
	last := -1

	for i := 0; i < 10; i++ {
		a := c.NewAgent()
		a.AddWaypoint(0, 0, 1)
		if err := c.AddAgent(a); err != nil {
			t.Fatal(err)
		}
		if i%3 == 0 {
			c.RemoveLastAgent()
		}
		if seen[a.ID()] || a.ID() <= last {
			t.Fatalf("id %d reused or out of order", a.ID())
		}
		seen[a.ID()] = true
		last = a.ID()
	}

	c.RemoveAllAgents()
	if a := c.NewAgent(); seen[a.ID()] {
		t.Errorf("id %d reused after RemoveAllAgents", a.ID())
	}
}

func TestCrowd_AddAgentErrors(t *testing.T) {
	c := New()
	other := New()

	if err := c.AddAgent(nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("nil agent: expected ErrInvalidState, got %v", err)
	}

	standalone := NewAgent(0, 1)
	standalone.AddWaypoint(0, 0, 1)
	if err := c.AddAgent(standalone); !errors.Is(err, ErrForeignAgent) {
		t.Errorf("standalone agent: expected ErrForeignAgent, got %v", err)
	}

	foreign := other.NewAgent()
	foreign.AddWaypoint(0, 0, 1)
	if err := c.AddAgent(foreign); !errors.Is(err, ErrForeignAgent) {
		t.Errorf("foreign agent: expected ErrForeignAgent, got %v", err)
	}

	empty := c.NewAgent()
	if err := c.AddAgent(empty); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("empty path: expected ErrEmptyPath, got %v", err)
	}

	a := c.NewAgent()
	a.AddWaypoint(0, 0, 1)
	if err := c.AddAgent(a); err != nil {
		t.Fatal(err)
	}
	if err := c.AddAgent(a); !errors.Is(err, ErrDuplicateAgent) {
		t.Errorf("duplicate: expected ErrDuplicateAgent, got %v", err)
	}

	c.RemoveLastAgent()
	if err := c.AddAgent(a); !errors.Is(err, ErrDuplicateAgent) {
		t.Errorf("destroyed: expected ErrDuplicateAgent, got %v", err)
	}
	if c.AgentCount() != 0 {
		t.Errorf("expected empty crowd, got %d agents", c.AgentCount())
	}
}

func TestCrowd_RemoveLastAgent(t *testing.T) {
	c := New()
	if c.RemoveLastAgent() {
		t.Error("removing from an empty crowd should report false")
	}

	var ids []int
	for i := 0; i < 3; i++ {
		a := c.NewAgent()
		a.AddWaypoint(0, 0, 1)
		if err := c.AddAgent(a); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, a.ID())
	}

	if !c.RemoveLastAgent() {
		t.Fatal("expected removal")
	}
	views := c.Agents()
	if len(views) != 2 || views[0].ID() != ids[0] || views[1].ID() != ids[1] {
		t.Errorf("expected the most recent agent removed, got %d agents", len(views))
	}
}

func TestCrowd_EmptyStep(t *testing.T) {
	c := New()
	c.AddWall(NewWall(0, 0, 1, 0))

	if err := c.Step(0.1); err != nil {
		t.Fatal(err)
	}
	if c.Steps() != 1 || math.Abs(c.Time()-0.1) > 1e-12 {
		t.Errorf("expected one step of 0.1s, got %d steps at t=%v", c.Steps(), c.Time())
	}
	if err := c.Step(-1); !errors.Is(err, ErrInvalidTimestep) {
		t.Errorf("expected ErrInvalidTimestep, got %v", err)
	}
}

func TestCrowd_OrderIndependent(t *testing.T) {
	const n = 60

	reference := New(WithSeed(7), WithWorkers(1))
	shuffled := New(WithSeed(7), WithWorkers(1))
	populate(reference, n, rand.New(rand.NewSource(1)))
	populate(shuffled, n, rand.New(rand.NewSource(1)))

	rng := rand.New(rand.NewSource(99))
	order := make([]int, n)
	for step := 0; step < 50; step++ {
		for i := range order {
			order[i] = i
		}
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

		if err := reference.Step(0.05); err != nil {
			t.Fatal(err)
		}
		if err := shuffled.stepOrdered(0.05, order); err != nil {
			t.Fatal(err)
		}
	}

	a, b := reference.Snapshot(), shuffled.Snapshot()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("agent %d diverged: %v vs %v", a[i].ID, a[i], b[i])
		}
	}
}

func TestCrowd_WorkersDoNotChangeResult(t *testing.T) {
	const n = 200

	serial := New(WithWorkers(1))
	parallel := New(WithWorkers(8))
	populate(serial, n, rand.New(rand.NewSource(3)))
	populate(parallel, n, rand.New(rand.NewSource(3)))

	for step := 0; step < 40; step++ {
		if err := serial.Step(0.05); err != nil {
			t.Fatal(err)
		}
		if err := parallel.Step(0.05); err != nil {
			t.Fatal(err)
		}
	}

	a, b := serial.Snapshot(), parallel.Snapshot()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("agent %d diverged between worker counts", a[i].ID)
		}
	}
	for i, v := range serial.Agents() {
		if v.WaypointIndex() != parallel.Agents()[i].WaypointIndex() {
			t.Fatalf("agent %d cursor diverged", v.ID())
		}
	}
}

func TestCrowd_SeedReproducesSpeeds(t *testing.T) {
	a, b, c := New(WithSeed(42)), New(WithSeed(42)), New(WithSeed(43))

	same := true
	for i := 0; i < 20; i++ {
		sa, sb, sc := a.NewAgent().DesiredSpeed(), b.NewAgent().DesiredSpeed(), c.NewAgent().DesiredSpeed()
		if sa != sb {
			t.Fatalf("sample %d differs for equal seeds: %v vs %v", i, sa, sb)
		}
		if sa < 0 {
			t.Fatalf("negative desired speed %v", sa)
		}
		same = same && sa == sc
	}
	if same {
		t.Error("different seeds produced identical speeds")
	}
}

func TestCrowd_SpeedDistribution(t *testing.T) {
	c := New(WithSeed(11))
	const n = 5000

	var sum, sumSq float64
	for i := 0; i < n; i++ {
		s := c.NewAgent().DesiredSpeed()
		sum += s
		sumSq += s * s
	}
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)

	if math.Abs(mean-DefaultSpeedMean) > 0.02 {
		t.Errorf("mean speed %v, want about %v", mean, DefaultSpeedMean)
	}
	if math.Abs(std-DefaultSpeedStdDev) > 0.02 {
		t.Errorf("speed stddev %v, want about %v", std, DefaultSpeedStdDev)
	}
}

func TestCrowd_StepErrorNamesAgent(t *testing.T) {
	c := New(WithWorkers(1))
	for i := 0; i < 3; i++ {
		a := c.NewAgent()
		// Agents start inside the first waypoint; a committed step would
		// move their cursor to the second.
		a.AddWaypoint(0, 0, 1)
		a.AddWaypoint(5, 0, 1)
		if err := c.AddAgent(a); err != nil {
			t.Fatal(err)
		}
	}
	before := c.Snapshot()

	broken := c.agents[1]
	broken.path = nil

	err := c.Step(0.1)
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected *StepError, got %v", err)
	}
	if stepErr.AgentID != broken.ID() || stepErr.Step != 0 {
		t.Errorf("unexpected step error %+v", stepErr)
	}
	if !errors.Is(err, ErrEmptyPath) {
		t.Errorf("expected wrapped ErrEmptyPath, got %v", err)
	}

	after := c.Snapshot()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("failed step must not commit, agent %d moved", before[i].ID)
		}
	}
	if c.Steps() != 0 {
		t.Errorf("failed step must not advance the clock, got %d", c.Steps())
	}
	for _, v := range c.Agents() {
		if v.WaypointIndex() != 0 {
			t.Errorf("failed step must not advance agent %d's path, cursor %d", v.ID(), v.WaypointIndex())
		}
	}

	broken.path = []Waypoint{NewWaypoint(0, 0, 1), NewWaypoint(5, 0, 1)}
	if err := c.Step(0.1); err != nil {
		t.Fatal(err)
	}
	for _, v := range c.Agents() {
		if v.WaypointIndex() != 1 {
			t.Errorf("agent %d cursor %d after a committed step, want 1", v.ID(), v.WaypointIndex())
		}
	}
}

func TestCrowd_InvalidParamsRefuseToStep(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Params)
		param string
		fix   float64
	}{
		{"zero relaxation", func(p *Params) { p.RelaxationTime = 0 }, "relaxation_time", DefaultRelaxationTime},
		{"zero wall range", func(p *Params) { p.WallB = 0 }, "wall_b", DefaultParams().WallB},
		{"nan lambda", func(p *Params) { p.Lambda = math.NaN() }, "lambda", DefaultParams().Lambda},
		{"negative cutoff", func(p *Params) { p.Cutoff = -1 }, "cutoff", DefaultParams().Cutoff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mod(&p)
			c := New(WithParams(p), WithWorkers(1))
			if !errors.Is(c.Err(), ErrParameterBounds) {
				t.Fatalf("Err() = %v, want ErrParameterBounds", c.Err())
			}

			a := c.NewAgent()
			a.SetPosition(-2, 0)
			a.AddWaypoint(10, 0, 1)
			if err := c.AddAgent(a); err != nil {
				t.Fatal(err)
			}
			c.AddWall(NewWall(-5, 0.5, 5, 0.5))

			if err := c.Step(0.1); !errors.Is(err, ErrParameterBounds) {
				t.Fatalf("Step() = %v, want ErrParameterBounds", err)
			}
			if a.Position() != (r3.Vector{X: -2}) || a.Velocity() != (r3.Vector{}) || c.Steps() != 0 {
				t.Errorf("rejected step changed state: pos %v vel %v steps %d", a.Position(), a.Velocity(), c.Steps())
			}

			if err := c.SetParam(tt.param, tt.fix); err != nil {
				t.Fatal(err)
			}
			if c.Err() != nil {
				t.Fatalf("Err() = %v after repair", c.Err())
			}
			if err := c.Step(0.1); err != nil {
				t.Fatal(err)
			}
			pos := a.Position()
			if math.IsNaN(pos.X) || math.IsInf(pos.X, 0) || pos.X <= -2 {
				t.Errorf("agent did not move toward its goal: %v", pos)
			}
		})
	}
}

func TestCrowd_WithRandSharesSource(t *testing.T) {
	speeds := func(c *Crowd) []float64 {
		out := make([]float64, 5)
		for i := range out {
			out[i] = c.NewAgent().DesiredSpeed()
		}
		return out
	}

	a := speeds(New(WithRand(rand.New(rand.NewSource(7)))))
	b := speeds(New(WithRand(rand.New(rand.NewSource(7)))))
	d := speeds(New(WithSeed(7)))
	for i := range a {
		if a[i] != b[i] || a[i] != d[i] {
			t.Errorf("speed %d differs: %v %v %v", i, a[i], b[i], d[i])
		}
	}

	shared := rand.New(rand.NewSource(7))
	first := New(WithRand(shared)).NewAgent().DesiredSpeed()
	second := New(WithRand(shared)).NewAgent().DesiredSpeed()
	if first != a[0] || second != a[1] {
		t.Errorf("crowds sharing a source should draw in sequence, got %v %v", first, second)
	}
}

func TestCrowd_SetParamAppliesToAgents(t *testing.T) {
	c := New()
	a := c.NewAgent()
	a.AddWaypoint(10, 0, 1)
	if err := c.AddAgent(a); err != nil {
		t.Fatal(err)
	}

	before, _ := c.Forces(a.ID())
	if err := c.SetParam("relaxation_time", 1.08); err != nil {
		t.Fatal(err)
	}
	after, _ := c.Forces(a.ID())

	if math.Abs(after.Driving.X-before.Driving.X/2) > 1e-12 {
		t.Errorf("doubling T should halve the driving force, got %v vs %v", after.Driving.X, before.Driving.X)
	}
	if c.Params().RelaxationTime != 1.08 {
		t.Errorf("crowd params not updated")
	}
	if _, ok := c.Forces(12345); ok {
		t.Error("unknown id should report false")
	}
}
