// Package scene turns a scenario description into a populated crowd.
package scene

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/crowdsim/internal/config"
	"github.com/san-kum/crowdsim/internal/socialforce"
)

// placementSalt derives the placement stream from the scenario seed. The
// crowd's own stream samples desired speeds.
const placementSalt int64 = 0x5eed

// Build validates s and creates its walls and agents.
func Build(s *config.Scenario) (*socialforce.Crowd, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	opts := []socialforce.Option{
		socialforce.WithSeed(s.Seed),
		socialforce.WithParams(s.Params.ToParams()),
	}
	if s.Workers > 0 {
		opts = append(opts, socialforce.WithWorkers(s.Workers))
	}
	crowd := socialforce.New(opts...)

	walls, err := Walls(s)
	if err != nil {
		return nil, err
	}
	for _, w := range walls {
		crowd.AddWall(w)
	}

	rng := rand.New(rand.NewSource(s.Seed ^ placementSalt))
	for _, g := range spawnOrder(s) {
		if err := Spawn(crowd, &s.Groups[g], rng); err != nil {
			return nil, fmt.Errorf("group %d: %w", g, err)
		}
	}
	return crowd, nil
}

// Walls collects the inline walls followed by any walls from the GeoJSON file.
func Walls(s *config.Scenario) ([]socialforce.Wall, error) {
	walls := make([]socialforce.Wall, 0, len(s.Walls))
	for _, w := range s.Walls {
		walls = append(walls, socialforce.NewWall(w[0], w[1], w[2], w[3]))
	}
	if s.WallsGeoJSON == "" {
		return walls, nil
	}
	extra, err := LoadWallsGeoJSON(s.WallsGeoJSON)
	if err != nil {
		return nil, err
	}
	return append(walls, extra...), nil
}

// spawnOrder lists the group index of every agent to create. Interleaved
// scenarios alternate between groups, one agent at a time.
func spawnOrder(s *config.Scenario) []int {
	total := s.AgentCount()
	order := make([]int, 0, total)
	if !s.Interleave {
		for g, group := range s.Groups {
			for i := 0; i < group.Count; i++ {
				order = append(order, g)
			}
		}
		return order
	}

	remaining := make([]int, len(s.Groups))
	for g, group := range s.Groups {
		remaining[g] = group.Count
	}
	for len(order) < total {
		for g := range remaining {
			if remaining[g] > 0 {
				order = append(order, g)
				remaining[g]--
			}
		}
	}
	return order
}

// Spawn adds one agent of group g, sampling its position and waypoints
// from the group's boxes.
func Spawn(crowd *socialforce.Crowd, g *config.GroupConfig, rng *rand.Rand) error {
	a := crowd.NewAgent()
	if g.Radius > 0 {
		a.SetRadius(g.Radius)
	}
	if g.DesiredSpeed > 0 {
		a.SetDesiredSpeed(g.DesiredSpeed)
	}
	if len(g.Color) == 3 {
		a.SetColor(g.Color[0], g.Color[1], g.Color[2])
	}

	x, y := sample(g.Spawn, rng)
	a.SetPosition(x, y)
	for _, w := range g.Waypoints {
		wx, wy := sample(w.Area, rng)
		a.AddWaypoint(wx, wy, w.Radius)
	}
	return crowd.AddAgent(a)
}

func sample(b config.Box, rng *rand.Rand) (float64, float64) {
	x := b.MinX + rng.Float64()*(b.MaxX-b.MinX)
	y := b.MinY + rng.Float64()*(b.MaxY-b.MinY)
	return x, y
}
