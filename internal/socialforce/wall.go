package socialforce

import "github.com/golang/geo/r3"

// Wall is an immutable line segment obstacle.
type Wall struct {
	start r3.Vector
	end   r3.Vector
}

func NewWall(x1, y1, x2, y2 float64) Wall {
	return Wall{
		start: r3.Vector{X: x1, Y: y1},
		end:   r3.Vector{X: x2, Y: y2},
	}
}

func (w Wall) Start() r3.Vector { return w.start }
func (w Wall) End() r3.Vector   { return w.end }
func (w Wall) Length() float64  { return w.end.Sub(w.start).Norm() }

// NearestPoint projects p onto the segment, clamping to the end points.
// A zero-length wall always returns its start point.
func (w Wall) NearestPoint(p r3.Vector) r3.Vector {
	relEnd := w.end.Sub(w.start)
	length := w.Length()
	if length == 0 {
		return w.start
	}

	relPos := p.Sub(w.start)
	t := relEnd.Normalize().Dot(relPos.Mul(1 / length))

	switch {
	case t < 0:
		return w.start
	case t > 1:
		return w.end
	default:
		return w.start.Add(relEnd.Mul(t))
	}
}

// nearestWallVector returns the vector from the closest point of the nearest
// wall to p. Ties keep the earlier wall.
func nearestWallVector(p r3.Vector, walls []Wall) (r3.Vector, bool) {
	var (
		best  r3.Vector
		found bool
		min   float64
	)
	for _, w := range walls {
		v := p.Sub(w.NearestPoint(p))
		d2 := v.Norm2()
		if !found || d2 < min {
			best, min, found = v, d2, true
		}
	}
	return best, found
}
