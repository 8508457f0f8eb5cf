package socialforce

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func isFinite(v r3.Vector) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func TestDrivingForce_ClosedForm(t *testing.T) {
	a := NewAgent(0, 1.29)
	f := a.drivingForce(r3.Vector{X: 10})

	expected := 1.29 / 0.54
	if math.Abs(f.X-expected) > 1e-12 || f.Y != 0 || f.Z != 0 {
		t.Errorf("expected (%.6f, 0, 0), got %v", expected, f)
	}
}

func TestDrivingForce_RelaxesVelocity(t *testing.T) {
	a := NewAgent(0, 1.0)
	a.commit(AgentState{Velocity: r3.Vector{X: 0, Y: 1}})
	f := a.drivingForce(r3.Vector{X: 5})

	if math.Abs(f.X-1/0.54) > 1e-12 || math.Abs(f.Y+1/0.54) > 1e-12 {
		t.Errorf("expected (1/T, -1/T), got %v", f)
	}
}

func TestDrivingForce_AtTargetBrakes(t *testing.T) {
	a := NewAgent(0, 1.29)
	a.SetPosition(3, 4)
	a.commit(AgentState{Position: r3.Vector{X: 3, Y: 4}, Velocity: r3.Vector{X: 0.54}})
	f := a.drivingForce(r3.Vector{X: 3, Y: 4})

	if !isFinite(f) {
		t.Fatalf("force at target must be finite, got %v", f)
	}
	if math.Abs(f.X+1) > 1e-12 || f.Y != 0 {
		t.Errorf("expected pure braking (-1, 0), got %v", f)
	}
}

func TestInteractionForce_HeadOn(t *testing.T) {
	a := NewAgent(0, 1.29)
	snapshot := []AgentState{
		a.State(),
		{ID: 1, Position: r3.Vector{X: 1}},
	}
	f := a.interactionForce(snapshot)

	expected := -DefaultA * math.Exp(-1/DefaultGamma)
	if math.Abs(f.X-expected) > 1e-12 || math.Abs(f.Y) > 1e-12 {
		t.Errorf("expected (%.6f, 0), got %v", expected, f)
	}
}

func TestInteractionForce_SidestepsToTheRight(t *testing.T) {
	a := NewAgent(0, 1.29)
	a.commit(AgentState{Velocity: r3.Vector{X: 1}})

	// j ahead and to the left of i's heading
	snapshot := []AgentState{{ID: 1, Position: r3.Vector{X: 1, Y: 0.5}}}
	f := a.interactionForce(snapshot)

	if f.X >= 0 {
		t.Errorf("expected deceleration, got %v", f)
	}
	if f.Y >= 0 {
		t.Errorf("expected a push to the right (negative y), got %v", f)
	}
}

func TestInteractionForce_NoSelfInteraction(t *testing.T) {
	a := NewAgent(7, 1.29)
	a.SetPosition(2, -3)
	a.commit(AgentState{Position: r3.Vector{X: 2, Y: -3}, Velocity: r3.Vector{X: 1}})

	f := a.interactionForce([]AgentState{a.State()})
	if f != (r3.Vector{}) {
		t.Errorf("lone agent must feel no interaction, got %v", f)
	}
}

func TestInteractionForce_Cutoff(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		zero     bool
	}{
		{"beyond cutoff", 2.01, true},
		{"far away", 50, true},
		{"inside cutoff", 1.99, false},
		{"exactly at cutoff", 2.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAgent(0, 1.29)
			snapshot := []AgentState{{ID: 1, Position: r3.Vector{X: tt.distance}}}
			f := a.interactionForce(snapshot)

			if tt.zero && f != (r3.Vector{}) {
				t.Errorf("expected zero force at distance %v, got %v", tt.distance, f)
			}
			if !tt.zero && f == (r3.Vector{}) {
				t.Errorf("expected non-zero force at distance %v", tt.distance)
			}
		})
	}
}

func TestInteractionForce_SumsNeighbours(t *testing.T) {
	a := NewAgent(0, 1.29)
	left := AgentState{ID: 1, Position: r3.Vector{X: -1}}
	right := AgentState{ID: 2, Position: r3.Vector{X: 1}}

	f := a.interactionForce([]AgentState{left, right})
	if f.Norm() > 1e-12 {
		t.Errorf("symmetric neighbours should cancel, got %v", f)
	}

	single := a.interactionForce([]AgentState{right})
	double := a.interactionForce([]AgentState{right, {ID: 3, Position: r3.Vector{X: 1}}})
	if math.Abs(double.X-2*single.X) > 1e-12 {
		t.Errorf("expected contributions to add, got %v vs 2*%v", double, single)
	}
}

func TestInteractionForce_Degenerate(t *testing.T) {
	tests := []struct {
		name  string
		other AgentState
		self  r3.Vector
		zero  bool
	}{
		{"coincident and same velocity", AgentState{ID: 1}, r3.Vector{}, true},
		{"coincident moving apart", AgentState{ID: 1, Velocity: r3.Vector{X: 1}}, r3.Vector{}, false},
		{"interaction vector cancels", AgentState{ID: 1, Position: r3.Vector{X: 1}}, r3.Vector{X: -0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAgent(0, 1.29)
			a.commit(AgentState{Velocity: tt.self})
			f := a.interactionForce([]AgentState{tt.other})

			if !isFinite(f) {
				t.Fatalf("force must be finite, got %v", f)
			}
			if tt.zero && f != (r3.Vector{}) {
				t.Errorf("expected zero force, got %v", f)
			}
			if !tt.zero && f == (r3.Vector{}) {
				t.Error("expected non-zero force")
			}
		})
	}
}

func TestWallForce_AtContact(t *testing.T) {
	a := NewAgent(0, 1.29)
	a.commit(AgentState{Position: r3.Vector{Y: a.Radius()}})

	f := a.wallForce([]Wall{NewWall(-5, 0, 5, 0)})
	if math.Abs(f.Norm()-DefaultWallA) > 1e-9 {
		t.Errorf("expected magnitude %v at contact, got %v", DefaultWallA, f.Norm())
	}
	if f.Y <= 0 || math.Abs(f.X) > 1e-12 {
		t.Errorf("expected force pointing away from the wall, got %v", f)
	}
}

func TestWallForce_Decays(t *testing.T) {
	a := NewAgent(0, 1.29)
	a.commit(AgentState{Position: r3.Vector{Y: 1.2}})

	f := a.wallForce([]Wall{NewWall(-5, 0, 5, 0)})
	expected := DefaultWallA * math.Exp(-1.0/DefaultWallB)
	if math.Abs(f.Y-expected) > 1e-12 {
		t.Errorf("expected %v, got %v", expected, f.Y)
	}
}

func TestWallForce_OnlyNearestWall(t *testing.T) {
	near := NewWall(-5, -1, 5, -1)
	far := NewWall(-5, 1.5, 5, 1.5)

	a := NewAgent(0, 1.29)
	both := a.wallForce([]Wall{far, near})
	alone := a.wallForce([]Wall{near})

	if both != alone {
		t.Errorf("expected only the nearest wall to count, got %v vs %v", both, alone)
	}
}

func TestWallForce_Degenerate(t *testing.T) {
	a := NewAgent(0, 1.29)

	if f := a.wallForce(nil); f != (r3.Vector{}) {
		t.Errorf("no walls should give zero force, got %v", f)
	}

	if f := a.wallForce([]Wall{NewWall(-5, 0, 5, 0)}); f != (r3.Vector{}) {
		t.Errorf("agent on the wall line should give zero force, got %v", f)
	}

	a.SetRadius(500)
	a.commit(AgentState{Position: r3.Vector{Y: 0.01}})
	if f := a.wallForce([]Wall{NewWall(-5, 0, 5, 0)}); !isFinite(f) {
		t.Errorf("huge radius must still give a finite force, got %v", f)
	}
}

func TestIntegrate_ClampsSpeed(t *testing.T) {
	a := NewAgent(0, 1.0)
	next := a.integrate(r3.Vector{X: 100, Y: 100}, 0.1)

	if math.Abs(next.Velocity.Norm()-1.0) > 1e-12 {
		t.Errorf("expected speed clamped to 1.0, got %v", next.Velocity.Norm())
	}
	if math.Abs(next.Velocity.X-next.Velocity.Y) > 1e-12 {
		t.Errorf("clamp must preserve direction, got %v", next.Velocity)
	}
	if math.Abs(next.Position.Norm()-0.1) > 1e-12 {
		t.Errorf("expected position to use clamped velocity, got %v", next.Position)
	}
}

func TestIntegrate_SemiImplicit(t *testing.T) {
	a := NewAgent(0, 2.0)
	next := a.integrate(r3.Vector{X: 1}, 0.5)

	if next.Velocity.X != 0.5 {
		t.Errorf("expected velocity 0.5, got %v", next.Velocity.X)
	}
	if next.Position.X != 0.25 {
		t.Errorf("expected position from the updated velocity (0.25), got %v", next.Position.X)
	}
}

func TestSignedAngle(t *testing.T) {
	tests := []struct {
		from, to r3.Vector
		expected float64
	}{
		{r3.Vector{X: 1}, r3.Vector{Y: 1}, math.Pi / 2},
		{r3.Vector{X: 1}, r3.Vector{Y: -1}, -math.Pi / 2},
		{r3.Vector{X: 1}, r3.Vector{X: 1}, 0},
		{r3.Vector{}, r3.Vector{X: 1}, 0},
	}

	for _, tt := range tests {
		if got := signedAngle(tt.from, tt.to); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("signedAngle(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.expected)
		}
	}
}
