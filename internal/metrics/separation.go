package metrics

import (
	"math"

	"github.com/san-kum/crowdsim/internal/socialforce"
)

// MinSeparation tracks the smallest gap between two agent bodies seen so far.
// Negative values mean bodies overlapped.
type MinSeparation struct {
	name string
	min  float64
	seen bool
}

func NewMinSeparation() *MinSeparation {
	return &MinSeparation{name: "min_separation"}
}

func (m *MinSeparation) Name() string { return m.name }

func (m *MinSeparation) Observe(agents []socialforce.View, walls []socialforce.Wall, t float64) {
	for i := 0; i < len(agents); i++ {
		pi := agents[i].Position()
		for j := i + 1; j < len(agents); j++ {
			gap := pi.Sub(agents[j].Position()).Norm() - agents[i].Radius() - agents[j].Radius()
			if !m.seen || gap < m.min {
				m.min, m.seen = gap, true
			}
		}
	}
}

// Value is zero until two agents have been observed together.
func (m *MinSeparation) Value() float64 {
	if !m.seen {
		return 0
	}
	return m.min
}

func (m *MinSeparation) Reset() {
	m.min = 0
	m.seen = false
}

// WallClearance tracks the smallest gap between an agent body and a wall.
type WallClearance struct {
	name string
	min  float64
	seen bool
}

func NewWallClearance() *WallClearance {
	return &WallClearance{name: "wall_clearance"}
}

func (w *WallClearance) Name() string { return w.name }

func (w *WallClearance) Observe(agents []socialforce.View, walls []socialforce.Wall, t float64) {
	if len(walls) == 0 {
		return
	}
	for _, a := range agents {
		p := a.Position()
		d := math.Inf(1)
		for _, wall := range walls {
			d = math.Min(d, p.Sub(wall.NearestPoint(p)).Norm())
		}
		gap := d - a.Radius()
		if !w.seen || gap < w.min {
			w.min, w.seen = gap, true
		}
	}
}

func (w *WallClearance) Value() float64 {
	if !w.seen {
		return 0
	}
	return w.min
}

func (w *WallClearance) Reset() {
	w.min = 0
	w.seen = false
}
