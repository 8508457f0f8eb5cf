// Package socialforce implements the Social Force Model for pedestrian crowds.
//
// Every agent is driven toward its current waypoint, repelled by agents
// within a cutoff distance and repelled by the nearest wall:
//
//   - [Waypoint]: goal position with an arrival radius
//   - [Wall]: immutable line segment obstacle
//   - [Agent]: kinematic state, waypoint path and force computation
//   - [Crowd]: owns agents and walls and advances them in lockstep
//
// # Example
//
//	c := socialforce.New(socialforce.WithSeed(42))
//	c.AddWall(socialforce.NewWall(-25, 6, 25, 6))
//	a := c.NewAgent()
//	a.SetPosition(-10, 0)
//	a.AddWaypoint(25, 0, 5)
//	if err := c.AddAgent(a); err != nil {
//	    return err
//	}
//	err := c.Step(0.02)
//
// # Thread Safety
//
// A Crowd serialises Step against membership changes. Agents must be
// configured before they are handed to AddAgent; after that the crowd owns
// them and only [View] reads are meant for callers.
package socialforce
