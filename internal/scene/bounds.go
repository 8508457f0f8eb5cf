package scene

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/san-kum/crowdsim/internal/socialforce"
)

// Bounds is the box covering every wall endpoint and agent position, padded
// by pad. An empty scene gives a box of size 2*pad around the origin.
func Bounds(walls []socialforce.Wall, agents []socialforce.View, pad float64) orb.Bound {
	var points orb.MultiPoint
	for _, w := range walls {
		s, e := w.Start(), w.End()
		points = append(points, orb.Point{s.X, s.Y}, orb.Point{e.X, e.Y})
	}
	for _, a := range agents {
		p := a.Position()
		points = append(points, orb.Point{p.X, p.Y})
	}
	if len(points) == 0 {
		return orb.Bound{}.Pad(pad)
	}
	return points.Bound().Pad(pad)
}

// WallLength is the summed length of all walls.
func WallLength(walls []socialforce.Wall) float64 {
	var ml orb.MultiLineString
	for _, w := range walls {
		s, e := w.Start(), w.End()
		ml = append(ml, orb.LineString{{s.X, s.Y}, {e.X, e.Y}})
	}
	return planar.Length(ml)
}

// PathLength is the length of one full lap of a cyclic waypoint path.
func PathLength(path []socialforce.Waypoint) float64 {
	if len(path) < 2 {
		return 0
	}
	ring := make(orb.Ring, 0, len(path)+1)
	for _, w := range path {
		ring = append(ring, orb.Point{w.Position.X, w.Position.Y})
	}
	ring = append(ring, ring[0])
	return planar.Length(ring)
}
