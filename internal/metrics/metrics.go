// Package metrics summarises crowd runs. Every metric observes the crowd
// after a step and folds it into a single value.
package metrics

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/san-kum/crowdsim/internal/socialforce"
)

type Metric interface {
	Name() string
	Observe(agents []socialforce.View, walls []socialforce.Wall, t float64)
	Value() float64
	Reset()
}

var registry = map[string]func() Metric{
	"mean_speed":       func() Metric { return NewMeanSpeed() },
	"speed_efficiency": func() Metric { return NewSpeedEfficiency() },
	"min_separation":   func() Metric { return NewMinSeparation() },
	"wall_clearance":   func() Metric { return NewWallClearance() },
}

// Default returns a fresh instance of every metric.
func Default() []Metric {
	return lo.Map(Names(), func(name string, _ int) Metric { return registry[name]() })
}

// ByName builds the named metrics in order.
func ByName(names ...string) ([]Metric, error) {
	out := make([]Metric, 0, len(names))
	for _, name := range names {
		build, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown metric: %s", name)
		}
		out = append(out, build())
	}
	return out, nil
}

// Names lists the registered metrics in report order.
func Names() []string {
	return []string{"mean_speed", "speed_efficiency", "min_separation", "wall_clearance"}
}

// Values collects the current value of each metric by name.
func Values(ms []Metric) map[string]float64 {
	return lo.SliceToMap(ms, func(m Metric) (string, float64) {
		return m.Name(), m.Value()
	})
}
