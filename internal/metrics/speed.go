package metrics

import (
	"github.com/samber/lo"

	"github.com/san-kum/crowdsim/internal/socialforce"
)

// MeanSpeed averages the crowd's mean speed over every observation.
type MeanSpeed struct {
	name    string
	sum     float64
	samples int
}

func NewMeanSpeed() *MeanSpeed {
	return &MeanSpeed{name: "mean_speed"}
}

func (m *MeanSpeed) Name() string { return m.name }

func (m *MeanSpeed) Observe(agents []socialforce.View, walls []socialforce.Wall, t float64) {
	if len(agents) == 0 {
		return
	}
	m.sum += CrowdSpeed(agents)
	m.samples++
}

func (m *MeanSpeed) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanSpeed) Reset() {
	m.sum = 0
	m.samples = 0
}

// SpeedEfficiency is the mean ratio of actual to desired speed. Agents with
// zero desired speed are left out.
type SpeedEfficiency struct {
	name    string
	sum     float64
	samples int
}

func NewSpeedEfficiency() *SpeedEfficiency {
	return &SpeedEfficiency{name: "speed_efficiency"}
}

func (s *SpeedEfficiency) Name() string { return s.name }

func (s *SpeedEfficiency) Observe(agents []socialforce.View, walls []socialforce.Wall, t float64) {
	moving := lo.Filter(agents, func(a socialforce.View, _ int) bool {
		return a.DesiredSpeed() > 0
	})
	if len(moving) == 0 {
		return
	}
	ratio := lo.SumBy(moving, func(a socialforce.View) float64 {
		return a.Speed() / a.DesiredSpeed()
	})
	s.sum += ratio / float64(len(moving))
	s.samples++
}

func (s *SpeedEfficiency) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sum / float64(s.samples)
}

func (s *SpeedEfficiency) Reset() {
	s.sum = 0
	s.samples = 0
}

// CrowdSpeed is the instantaneous mean speed of agents, zero when empty.
func CrowdSpeed(agents []socialforce.View) float64 {
	if len(agents) == 0 {
		return 0
	}
	return lo.SumBy(agents, socialforce.View.Speed) / float64(len(agents))
}
