package socialforce

import "github.com/golang/geo/r3"

// Waypoint is a goal region: an agent has arrived once it is strictly within
// Radius of Position.
type Waypoint struct {
	Position r3.Vector
	Radius   float64
}

func NewWaypoint(x, y, radius float64) Waypoint {
	return Waypoint{Position: r3.Vector{X: x, Y: y}, Radius: radius}
}

// currentTarget selects the active waypoint and moves the cursor to it.
func (a *Agent) currentTarget() r3.Vector {
	target, cursor := a.nextTarget()
	a.cursor = cursor
	return target
}

// nextTarget returns the active waypoint and the cursor that selects it,
// leaving the agent untouched. The path is cyclic: the cursor skips ahead
// when the following waypoint is already closer (paths of three or more)
// and again on arrival, wrapping past the last waypoint.
func (a *Agent) nextTarget() (r3.Vector, int) {
	cursor := a.cursor
	curr := a.path[cursor].Position.Sub(a.position)

	if len(a.path) > 2 {
		following := (cursor + 1) % len(a.path)
		next := a.path[following].Position.Sub(a.position)
		if next.Norm2() < curr.Norm2() {
			cursor = following
			curr = next
		}
	}

	r := a.path[cursor].Radius
	if curr.Norm2() < r*r {
		cursor = (cursor + 1) % len(a.path)
	}

	return a.path[cursor].Position, cursor
}
