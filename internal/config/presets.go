package config

import (
	"sort"

	"github.com/samber/lo"

	"github.com/san-kum/crowdsim/internal/socialforce"
)

// Presets builds a fresh scenario per call so callers may modify the result.
var Presets = map[string]func() *Scenario{
	"corridor":   corridor,
	"crossing":   crossing,
	"bottleneck": bottleneck,
	"patrol":     patrol,
}

func base(name string) *Scenario {
	return &Scenario{
		Name:        name,
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Seed:        socialforce.DefaultSeed,
		RecordEvery: DefaultRecordEvery,
		Params:      DefaultParamsConfig(),
	}
}

// corridor is two opposing flows of 200 agents each between parallel walls.
func corridor() *Scenario {
	s := base("corridor")
	s.Interleave = true
	s.Walls = [][]float64{
		{-25, 6, 25, 6},
		{-25, -6, 25, -6},
	}
	s.Groups = []GroupConfig{
		{
			Name: "eastbound", Count: 200, Color: rgb(0.25, 0.45, 0.95),
			Spawn: Box{MinX: -20.3, MaxX: -5, MinY: -5, MaxY: 5},
			Waypoints: []WaypointConfig{
				{Area: Box{MinX: 25, MaxX: 30, MinY: -5, MaxY: 5}, Radius: 5},
			},
		},
		{
			Name: "westbound", Count: 200, Color: rgb(0.95, 0.55, 0.15),
			Spawn: Box{MinX: 5, MaxX: 20.3, MinY: -5, MaxY: 5},
			Waypoints: []WaypointConfig{
				{Area: Box{MinX: -30, MaxX: -25, MinY: -5, MaxY: 5}, Radius: 5},
			},
		},
	}
	return s
}

// crossing is two perpendicular flows meeting in an open square.
func crossing() *Scenario {
	s := base("crossing")
	s.Duration = 40
	s.Interleave = true
	s.Walls = [][]float64{
		{-20, -4, -4, -4}, {-4, -4, -4, -20},
		{4, -20, 4, -4}, {4, -4, 20, -4},
		{20, 4, 4, 4}, {4, 4, 4, 20},
		{-4, 20, -4, 4}, {-4, 4, -20, 4},
	}
	s.Groups = []GroupConfig{
		{
			Name: "eastbound", Count: 80, Color: rgb(0.25, 0.45, 0.95),
			Spawn: Box{MinX: -19, MaxX: -8, MinY: -3, MaxY: 3},
			Waypoints: []WaypointConfig{
				{Area: Box{MinX: 22, MaxX: 26, MinY: -3, MaxY: 3}, Radius: 3},
			},
		},
		{
			Name: "northbound", Count: 80, Color: rgb(0.3, 0.8, 0.4),
			Spawn: Box{MinX: -3, MaxX: 3, MinY: -19, MaxY: -8},
			Waypoints: []WaypointConfig{
				{Area: Box{MinX: -3, MaxX: 3, MinY: 22, MaxY: 26}, Radius: 3},
			},
		},
	}
	return s
}

// bottleneck funnels one group through a one metre gap.
func bottleneck() *Scenario {
	s := base("bottleneck")
	s.Duration = 90
	s.Walls = [][]float64{
		{-20, 6, 10, 6},
		{-20, -6, 10, -6},
		{0, 6, 0, 0.5},
		{0, -0.5, 0, -6},
	}
	s.Groups = []GroupConfig{
		{
			Name: "evacuees", Count: 120, Color: rgb(0.95, 0.55, 0.15),
			Spawn: Box{MinX: -18, MaxX: -3, MinY: -5, MaxY: 5},
			Waypoints: []WaypointConfig{
				{Area: Box{MinX: 0.5, MaxX: 0.5, MinY: 0, MaxY: 0}, Radius: 0.6},
				{Area: Box{MinX: 14, MaxX: 16, MinY: -1, MaxY: 1}, Radius: 2},
			},
		},
	}
	return s
}

// patrol sends a small group round a four-corner loop inside a room.
func patrol() *Scenario {
	s := base("patrol")
	s.Duration = 120
	s.Walls = [][]float64{
		{-12, -12, 12, -12},
		{12, -12, 12, 12},
		{12, 12, -12, 12},
		{-12, 12, -12, -12},
	}
	s.Groups = []GroupConfig{
		{
			Name: "guards", Count: 24, Color: rgb(0.7, 0.4, 0.9),
			Spawn: Box{MinX: -6, MaxX: 6, MinY: -6, MaxY: 6},
			Waypoints: []WaypointConfig{
				{Area: Box{MinX: -8, MaxX: -8, MinY: -8, MaxY: -8}, Radius: 1},
				{Area: Box{MinX: 8, MaxX: 8, MinY: -8, MaxY: -8}, Radius: 1},
				{Area: Box{MinX: 8, MaxX: 8, MinY: 8, MaxY: 8}, Radius: 1},
				{Area: Box{MinX: -8, MaxX: -8, MinY: 8, MaxY: 8}, Radius: 1},
			},
		},
	}
	return s
}

func rgb(r, g, b float64) []float64 { return []float64{r, g, b} }

// GetPreset returns a new copy of the named scenario, or nil.
func GetPreset(name string) *Scenario {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := lo.Keys(Presets)
	sort.Strings(names)
	return names
}
