package socialforce

import (
	"math"

	"github.com/golang/geo/r3"
)

// Forces breaks an agent's acceleration into its three terms.
type Forces struct {
	Driving     r3.Vector
	Interaction r3.Vector
	Wall        r3.Vector
}

func (f Forces) Total() r3.Vector {
	return f.Driving.Add(f.Interaction).Add(f.Wall)
}

func (a *Agent) forces(target r3.Vector, snapshot []AgentState, walls []Wall) Forces {
	return Forces{
		Driving:     a.drivingForce(target),
		Interaction: a.interactionForce(snapshot),
		Wall:        a.wallForce(walls),
	}
}

// drivingForce relaxes the velocity toward desiredSpeed along the direction
// of target. At the target the direction is zero and only braking remains.
func (a *Agent) drivingForce(target r3.Vector) r3.Vector {
	e := target.Sub(a.position).Normalize()
	return e.Mul(a.desiredSpeed).Sub(a.velocity).Mul(1 / a.params.RelaxationTime)
}

// interactionForce sums the pairwise repulsion of every other agent within
// the cutoff distance.
func (a *Agent) interactionForce(snapshot []AgentState) r3.Vector {
	cutoff2 := a.params.Cutoff * a.params.Cutoff

	var f r3.Vector
	for _, other := range snapshot {
		if other.ID == a.id {
			continue
		}
		d := other.Position.Sub(a.position)
		if d.Norm2() > cutoff2 {
			continue
		}
		f = f.Add(pairForce(a.params, d, a.velocity.Sub(other.Velocity)))
	}
	return f
}

// pairForce is the Moussaid et al. (2009) interaction of agent i with agent j,
// given d = pj - pi and relVel = vi - vj.
func pairForce(p *Params, d, relVel r3.Vector) r3.Vector {
	e := d.Normalize()
	interaction := relVel.Mul(p.Lambda).Add(e)

	b := p.Gamma * interaction.Norm()
	if b < MinInteractionB {
		return r3.Vector{}
	}

	t := interaction.Normalize()
	theta := signedAngle(t, e)
	k := sign(theta)
	dist := d.Norm()

	fv := -p.A * safeExp(-dist/b-square(p.NPrime*b*theta))
	fTheta := -p.A * k * safeExp(-dist/b-square(p.N*b*theta))

	normal := r3.Vector{X: -t.Y, Y: t.X}
	return t.Mul(fv).Add(normal.Mul(fTheta))
}

// wallForce is the exponential repulsion of the single nearest wall.
func (a *Agent) wallForce(walls []Wall) r3.Vector {
	v, ok := nearestWallVector(a.position, walls)
	if !ok {
		return r3.Vector{}
	}
	dw := v.Norm() - a.radius
	return v.Normalize().Mul(a.params.WallA * safeExp(-dw/a.params.WallB))
}

// signedAngle returns the counter-clockwise angle in the XY plane that
// rotates from onto to, in (-pi, pi]. Zero vectors give zero.
func signedAngle(from, to r3.Vector) float64 {
	cross := from.X*to.Y - from.Y*to.X
	return math.Atan2(cross, from.Dot(to))
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func square(x float64) float64 { return x * x }
