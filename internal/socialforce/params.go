package socialforce

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
)

// Model constants from Moussaid et al. (2009).
const (
	DefaultRelaxationTime = 0.54
	DefaultLambda         = 2.0
	DefaultGamma          = 0.35
	DefaultNPrime         = 3.0
	DefaultN              = 2.0
	DefaultA              = 4.5
	DefaultCutoff         = 2.0
	DefaultWallA          = 3.0
	DefaultWallB          = 0.1
	DefaultSpeedMean      = 1.29
	DefaultSpeedStdDev    = 0.19
	DefaultRadius         = 0.2
)

// MinInteractionB is the smallest interaction range B that still produces a
// force. Pairs below it contribute nothing.
const MinInteractionB = 1e-9

// Exponent bounds keep math.Exp finite and non-denormal-only.
const (
	minExponent = -745.0
	maxExponent = 700.0
)

// Params holds the model constants shared by every agent of a crowd.
type Params struct {
	RelaxationTime float64 // T, seconds
	Lambda         float64 // weight of relative velocity against direction
	Gamma          float64 // interaction range per unit |D|
	NPrime         float64 // angular width of the deceleration term
	N              float64 // angular width of the turning term
	A              float64 // interaction strength
	Cutoff         float64 // agents farther apart exert no force
	WallA          float64 // wall repulsion strength
	WallB          float64 // wall repulsion range
	SpeedMean      float64 // desired speed distribution mean
	SpeedStdDev    float64 // desired speed distribution standard deviation
	Radius         float64 // body radius given to new agents
}

func DefaultParams() Params {
	return Params{
		RelaxationTime: DefaultRelaxationTime,
		Lambda:         DefaultLambda,
		Gamma:          DefaultGamma,
		NPrime:         DefaultNPrime,
		N:              DefaultN,
		A:              DefaultA,
		Cutoff:         DefaultCutoff,
		WallA:          DefaultWallA,
		WallB:          DefaultWallB,
		SpeedMean:      DefaultSpeedMean,
		SpeedStdDev:    DefaultSpeedStdDev,
		Radius:         DefaultRadius,
	}
}

// Validate reports the first parameter that would make the force terms undefined.
func (p Params) Validate() error {
	for name, v := range p.GetParams() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s=%v", ErrParameterBounds, name, v)
		}
	}
	switch {
	case p.RelaxationTime <= 0:
		return fmt.Errorf("%w: relaxation_time must be positive, got %v", ErrParameterBounds, p.RelaxationTime)
	case p.WallB <= 0:
		return fmt.Errorf("%w: wall_b must be positive, got %v", ErrParameterBounds, p.WallB)
	case p.Cutoff < 0:
		return fmt.Errorf("%w: cutoff must be non-negative, got %v", ErrParameterBounds, p.Cutoff)
	case p.Gamma < 0:
		return fmt.Errorf("%w: gamma must be non-negative, got %v", ErrParameterBounds, p.Gamma)
	case p.SpeedStdDev < 0:
		return fmt.Errorf("%w: speed_stddev must be non-negative, got %v", ErrParameterBounds, p.SpeedStdDev)
	case p.Radius < 0:
		return fmt.Errorf("%w: radius must be non-negative, got %v", ErrParameterBounds, p.Radius)
	}
	return nil
}

// GetParams returns the tunable parameters keyed by name.
func (p Params) GetParams() map[string]float64 {
	return map[string]float64{
		"relaxation_time": p.RelaxationTime,
		"lambda":          p.Lambda,
		"gamma":           p.Gamma,
		"n_prime":         p.NPrime,
		"n":               p.N,
		"a":               p.A,
		"cutoff":          p.Cutoff,
		"wall_a":          p.WallA,
		"wall_b":          p.WallB,
		"speed_mean":      p.SpeedMean,
		"speed_stddev":    p.SpeedStdDev,
		"radius":          p.Radius,
	}
}

// ParamNames returns the tunable parameter names in sorted order.
func ParamNames() []string {
	names := lo.Keys(DefaultParams().GetParams())
	sort.Strings(names)
	return names
}

// SetParam updates a single parameter by name. The result must still validate.
func (p *Params) SetParam(name string, value float64) error {
	next := *p
	switch name {
	case "relaxation_time":
		next.RelaxationTime = value
	case "lambda":
		next.Lambda = value
	case "gamma":
		next.Gamma = value
	case "n_prime":
		next.NPrime = value
	case "n":
		next.N = value
	case "a":
		next.A = value
	case "cutoff":
		next.Cutoff = value
	case "wall_a":
		next.WallA = value
	case "wall_b":
		next.WallB = value
	case "speed_mean":
		next.SpeedMean = value
	case "speed_stddev":
		next.SpeedStdDev = value
	case "radius":
		next.Radius = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

func safeExp(x float64) float64 {
	return math.Exp(lo.Clamp(x, minExponent, maxExponent))
}
