package socialforce

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func TestWall_NearestPoint(t *testing.T) {
	w := NewWall(0, 0, 10, 0)

	tests := []struct {
		name     string
		point    r3.Vector
		expected r3.Vector
	}{
		{"before start", r3.Vector{X: -3, Y: 2}, r3.Vector{X: 0, Y: 0}},
		{"after end", r3.Vector{X: 14, Y: -1}, r3.Vector{X: 10, Y: 0}},
		{"middle above", r3.Vector{X: 4, Y: 3}, r3.Vector{X: 4, Y: 0}},
		{"middle below", r3.Vector{X: 7.5, Y: -2}, r3.Vector{X: 7.5, Y: 0}},
		{"on start", r3.Vector{X: 0, Y: 0}, r3.Vector{X: 0, Y: 0}},
		{"on end", r3.Vector{X: 10, Y: 0}, r3.Vector{X: 10, Y: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.NearestPoint(tt.point)
			if got.Sub(tt.expected).Norm() > 1e-12 {
				t.Errorf("NearestPoint(%v) = %v, want %v", tt.point, got, tt.expected)
			}
		})
	}
}

func TestWall_NearestPointClampIsExact(t *testing.T) {
	w := NewWall(1.1, 2.3, 4.7, -0.9)

	if got := w.NearestPoint(r3.Vector{X: -5, Y: 8}); got != w.Start() {
		t.Errorf("expected exact start point, got %v", got)
	}
	if got := w.NearestPoint(r3.Vector{X: 12, Y: -7}); got != w.End() {
		t.Errorf("expected exact end point, got %v", got)
	}
}

func TestWall_NearestPointOnDiagonal(t *testing.T) {
	w := NewWall(0, 0, 4, 4)
	got := w.NearestPoint(r3.Vector{X: 0, Y: 4})

	if math.Abs(got.X-2) > 1e-12 || math.Abs(got.Y-2) > 1e-12 {
		t.Errorf("expected (2, 2), got %v", got)
	}

	// the projection must lie on the segment line
	rel := got.Sub(w.Start())
	cross := rel.X*4 - rel.Y*4
	if math.Abs(cross) > 1e-12 {
		t.Errorf("projection %v is off the segment", got)
	}
}

func TestWall_ZeroLength(t *testing.T) {
	w := NewWall(3, 3, 3, 3)
	got := w.NearestPoint(r3.Vector{X: 10, Y: -4})

	if got != w.Start() {
		t.Errorf("zero-length wall should return its start, got %v", got)
	}
	if w.Length() != 0 {
		t.Errorf("expected zero length, got %f", w.Length())
	}
}

func TestNearestWallVector(t *testing.T) {
	walls := []Wall{
		NewWall(-10, 6, 10, 6),
		NewWall(-10, -2, 10, -2),
		NewWall(50, -10, 50, 10),
	}

	v, ok := nearestWallVector(r3.Vector{X: 1, Y: 1}, walls)
	if !ok {
		t.Fatal("expected a nearest wall")
	}
	if math.Abs(v.Y-3) > 1e-12 || math.Abs(v.X) > 1e-12 {
		t.Errorf("expected vector (0, 3) from the lower wall, got %v", v)
	}

	if _, ok := nearestWallVector(r3.Vector{}, nil); ok {
		t.Error("expected no nearest wall for an empty roster")
	}
}
