package socialforce

import (
	"testing"

	"github.com/golang/geo/r3"
)

func TestCurrentTarget_SingleWaypointIsFixedPoint(t *testing.T) {
	a := NewAgent(0, 1.29)
	a.AddWaypoint(0, 0, 1.0)
	a.SetPosition(0.5, 0)

	first := a.currentTarget()
	second := a.currentTarget()

	want := r3.Vector{}
	if first != want || second != want {
		t.Errorf("expected (0,0,0) twice, got %v then %v", first, second)
	}
	if a.WaypointIndex() != 0 {
		t.Errorf("expected cursor to wrap back to 0, got %d", a.WaypointIndex())
	}
}

func TestCurrentTarget_ArrivalAdvances(t *testing.T) {
	a := NewAgent(0, 1.29)
	a.AddWaypoint(5, 0, 1.0)
	a.AddWaypoint(-5, 0, 1.0)
	a.SetPosition(4.5, 0)

	got := a.currentTarget()
	if got != (r3.Vector{X: -5}) {
		t.Errorf("expected second waypoint after arrival, got %v", got)
	}
	if a.WaypointIndex() != 1 {
		t.Errorf("expected cursor 1, got %d", a.WaypointIndex())
	}
}

func TestCurrentTarget_NotArrivedKeepsWaypoint(t *testing.T) {
	a := NewAgent(0, 1.29)
	a.AddWaypoint(5, 0, 1.0)
	a.AddWaypoint(-5, 0, 1.0)
	a.SetPosition(3.9, 0)

	if got := a.currentTarget(); got != (r3.Vector{X: 5}) {
		t.Errorf("expected first waypoint, got %v", got)
	}
	if a.WaypointIndex() != 0 {
		t.Errorf("expected cursor 0, got %d", a.WaypointIndex())
	}
}

func TestCurrentTarget_LookAheadSwitch(t *testing.T) {
	a := NewAgent(0, 1.29)
	a.AddWaypoint(20, 0, 0.5)
	a.AddWaypoint(2, 0, 0.5)
	a.AddWaypoint(-20, 0, 0.5)

	got := a.currentTarget()
	if got != (r3.Vector{X: 2}) {
		t.Errorf("expected closer second waypoint, got %v", got)
	}
	if a.WaypointIndex() != 1 {
		t.Errorf("expected first waypoint demoted, cursor 1, got %d", a.WaypointIndex())
	}

	path := a.Path()
	if len(path) != 3 || path[0].Position.X != 20 {
		t.Errorf("path must keep insertion order, got %v", path)
	}
}

func TestCurrentTarget_LookAheadNeedsThreeWaypoints(t *testing.T) {
	a := NewAgent(0, 1.29)
	a.AddWaypoint(20, 0, 0.5)
	a.AddWaypoint(2, 0, 0.5)

	if got := a.currentTarget(); got != (r3.Vector{X: 20}) {
		t.Errorf("two-waypoint paths never skip ahead, got %v", got)
	}
}

func TestCurrentTarget_LookAheadThenArrival(t *testing.T) {
	a := NewAgent(0, 1.29)
	a.AddWaypoint(20, 0, 0.5)
	a.AddWaypoint(0.2, 0, 0.5)
	a.AddWaypoint(-20, 0, 0.5)

	got := a.currentTarget()
	if got != (r3.Vector{X: -20}) {
		t.Errorf("expected skip then arrival to reach third waypoint, got %v", got)
	}
	if a.WaypointIndex() != 2 {
		t.Errorf("expected cursor 2, got %d", a.WaypointIndex())
	}
}

func TestCurrentTarget_Wraps(t *testing.T) {
	a := NewAgent(0, 1.29)
	a.AddWaypoint(10, 0, 1)
	a.AddWaypoint(0, 10, 1)
	a.AddWaypoint(-10, 0, 1)
	a.cursor = 2
	a.SetPosition(-10, 0.5)

	if got := a.currentTarget(); got != (r3.Vector{X: 10}) {
		t.Errorf("expected wrap to first waypoint, got %v", got)
	}
	if a.WaypointIndex() != 0 {
		t.Errorf("expected cursor 0, got %d", a.WaypointIndex())
	}
}

func TestAgent_WaypointAccessor(t *testing.T) {
	a := NewAgent(0, 1.29)
	a.AddWaypoint(10, 0, 1)
	a.AddWaypoint(0, 10, 2)

	tests := []struct {
		i    int
		want Waypoint
		ok   bool
	}{
		{0, NewWaypoint(10, 0, 1), true},
		{1, NewWaypoint(0, 10, 2), true},
		{2, Waypoint{}, false},
		{-1, Waypoint{}, false},
	}
	for _, tt := range tests {
		got, ok := a.Waypoint(tt.i)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Waypoint(%d) = %v, %v; want %v, %v", tt.i, got, ok, tt.want, tt.ok)
		}
	}

	c := New()
	b := c.NewAgent()
	b.AddWaypoint(3, 4, 1)
	if err := c.AddAgent(b); err != nil {
		t.Fatal(err)
	}
	v := c.Agents()[0]
	if w, ok := v.Waypoint(v.WaypointIndex()); !ok || w.Position != (r3.Vector{X: 3, Y: 4}) {
		t.Errorf("view active waypoint = %v, %v", w, ok)
	}
}
