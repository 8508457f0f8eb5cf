// Package export renders recorded runs as standalone SVG images.
package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/paulmach/orb"

	"github.com/san-kum/crowdsim/internal/experiment"
	"github.com/san-kum/crowdsim/internal/socialforce"
)

type Options struct {
	Width     int
	Height    int
	Trails    bool
	Waypoints bool
	// Frame selects the frame drawn as agent bodies; negative counts from
	// the end.
	Frame int
}

func DefaultOptions() Options {
	return Options{Width: 1200, Height: 600, Trails: true, Waypoints: false, Frame: -1}
}

// viewport maps world coordinates into the image, keeping the aspect ratio
// and flipping y so north is up.
type viewport struct {
	bound  orb.Bound
	scale  float64
	offX   float64
	offY   float64
	height float64
}

func newViewport(b orb.Bound, width, height int) viewport {
	w := math.Max(b.Right()-b.Left(), 1e-9)
	h := math.Max(b.Top()-b.Bottom(), 1e-9)
	scale := math.Min(float64(width)/w, float64(height)/h)
	return viewport{
		bound:  b,
		scale:  scale,
		offX:   (float64(width) - w*scale) / 2,
		offY:   (float64(height) - h*scale) / 2,
		height: float64(height),
	}
}

func (v viewport) project(x, y float64) (float64, float64) {
	px := v.offX + (x-v.bound.Left())*v.scale
	py := v.height - v.offY - (y-v.bound.Bottom())*v.scale
	return px, py
}

// WriteSVG draws the walls, agent trails and agent bodies of a run.
func WriteSVG(w io.Writer, result *experiment.Result, opts Options) error {
	_, err := io.WriteString(w, RunToSVG(result, opts))
	return err
}

func RunToSVG(result *experiment.Result, opts Options) string {
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}
	vp := newViewport(bounds(result), opts.Width, opts.Height)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, opts.Width, opts.Height, opts.Width, opts.Height)

	sb.WriteString(`<g stroke="#c0c0c0" stroke-width="2" stroke-linecap="round">` + "\n")
	for _, wall := range result.Walls {
		s, e := wall.Start(), wall.End()
		x1, y1 := vp.project(s.X, s.Y)
		x2, y2 := vp.project(e.X, e.Y)
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", x1, y1, x2, y2)
	}
	sb.WriteString("</g>\n")

	colors := make(map[int]string, len(result.Agents))
	radii := make(map[int]float64, len(result.Agents))
	for _, a := range result.Agents {
		colors[a.ID] = hexColor(a.Color)
		radii[a.ID] = a.Radius
	}

	if opts.Waypoints {
		sb.WriteString(`<g fill="none" stroke="#555555" stroke-dasharray="4 3">` + "\n")
		for _, a := range result.Agents {
			for _, wp := range a.Path {
				cx, cy := vp.project(wp.X, wp.Y)
				fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", cx, cy, wp.Radius*vp.scale)
			}
		}
		sb.WriteString("</g>\n")
	}

	if opts.Trails && len(result.Frames) > 1 {
		sb.WriteString(`<g fill="none" stroke-width="1" stroke-opacity="0.6">` + "\n")
		for _, a := range result.Agents {
			trail := result.Trail(a.ID)
			if len(trail) < 2 {
				continue
			}
			fmt.Fprintf(&sb, `<path stroke="%s" d="M`, colors[a.ID])
			for i, p := range trail {
				x, y := vp.project(p[0], p[1])
				if i == 0 {
					fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString(`"/>` + "\n")
		}
		sb.WriteString("</g>\n")
	}

	if frame, ok := pickFrame(result.Frames, opts.Frame); ok {
		sb.WriteString("<g>\n")
		for _, rec := range frame.Agents {
			cx, cy := vp.project(rec.X, rec.Y)
			r := math.Max(radii[rec.ID]*vp.scale, 1)
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n", cx, cy, r, colors[rec.ID])
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

func pickFrame(frames []experiment.Frame, idx int) (experiment.Frame, bool) {
	if len(frames) == 0 {
		return experiment.Frame{}, false
	}
	if idx < 0 {
		idx += len(frames)
	}
	if idx < 0 || idx >= len(frames) {
		return experiment.Frame{}, false
	}
	return frames[idx], true
}

// bounds covers the walls and every recorded position with a one unit margin.
func bounds(result *experiment.Result) orb.Bound {
	var points orb.MultiPoint
	for _, w := range result.Walls {
		s, e := w.Start(), w.End()
		points = append(points, orb.Point{s.X, s.Y}, orb.Point{e.X, e.Y})
	}
	for _, f := range result.Frames {
		for _, a := range f.Agents {
			points = append(points, orb.Point{a.X, a.Y})
		}
	}
	if len(points) == 0 {
		return orb.Bound{}.Pad(1)
	}
	return points.Bound().Pad(1)
}

func hexColor(c socialforce.Color) string {
	if c == (socialforce.Color{}) {
		return "#00ff00"
	}
	to := func(v float64) int { return int(math.Round(math.Max(0, math.Min(1, v)) * 255)) }
	return fmt.Sprintf("#%02x%02x%02x", to(c.R), to(c.G), to(c.B))
}
