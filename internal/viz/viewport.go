package viz

import (
	"math"

	"github.com/paulmach/orb"
)

// Viewport maps world coordinates onto canvas sub-pixels, preserving the
// aspect ratio and putting +y at the top.
type Viewport struct {
	bound  orb.Bound
	scale  float64
	offX   float64
	offY   float64
	height int
}

func NewViewport(b orb.Bound, c *Canvas) Viewport {
	w, h := c.Width*2, c.Height*4
	bw := math.Max(b.Right()-b.Left(), 1e-9)
	bh := math.Max(b.Top()-b.Bottom(), 1e-9)
	scale := math.Min(float64(w-1)/bw, float64(h-1)/bh)
	return Viewport{
		bound:  b,
		scale:  scale,
		offX:   (float64(w-1) - bw*scale) / 2,
		offY:   (float64(h-1) - bh*scale) / 2,
		height: h,
	}
}

func (v Viewport) Project(x, y float64) (int, int) {
	px := v.offX + (x-v.bound.Left())*v.scale
	py := float64(v.height-1) - v.offY - (y-v.bound.Bottom())*v.scale
	return int(math.Round(px)), int(math.Round(py))
}

// Scale converts a world length to sub-pixels.
func (v Viewport) Scale(d float64) int {
	return int(math.Round(d * v.scale))
}
