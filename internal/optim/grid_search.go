// Package optim searches model constants for the values that optimize a
// crowd metric.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/san-kum/crowdsim/internal/config"
	"github.com/san-kum/crowdsim/internal/experiment"
	"github.com/san-kum/crowdsim/internal/metrics"
	"github.com/san-kum/crowdsim/internal/scene"
)

// Trial is one evaluated point of the grid.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// GridSearch evaluates every combination of candidate values, running the
// base scenario once per combination.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Maximize makes Search prefer larger metric values.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Size is the number of combinations in the grid.
func (g *GridSearch) Size() int {
	if len(g.ranges) == 0 {
		return 0
	}
	return lo.Reduce(g.ranges, func(n int, r []float64, _ int) int { return n * len(r) }, 1)
}

// Search runs base under every combination and returns the best parameters,
// the best metric value and every trial in grid order. Trials whose scenario
// is rejected or whose run fails are kept with Err set.
func (g *GridSearch) Search(ctx context.Context, base *config.Scenario, metricName string) (map[string]float64, float64, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	if _, err := metrics.ByName(metricName); err != nil {
		return nil, 0, nil, err
	}

	best := math.Inf(1)
	if g.maximize {
		best = math.Inf(-1)
	}
	var bestParams map[string]float64
	var trials []Trial

	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, metricName, func(t Trial) {
		trials = append(trials, t)
		if t.Err != nil || math.IsNaN(t.Value) {
			return
		}
		if (g.maximize && t.Value > best) || (!g.maximize && t.Value < best) {
			best = t.Value
			bestParams = t.Params
		}
	})
	if err != nil {
		return bestParams, best, trials, err
	}
	if bestParams == nil {
		return nil, best, trials, fmt.Errorf("no trial of %d succeeded", len(trials))
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Scenario,
	metricName string,
	record func(Trial),
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		val, err := evaluate(ctx, base, current, metricName)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		record(Trial{Params: current, Value: val, Err: err})
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, metricName, record); err != nil {
			return err
		}
	}
	return nil
}

func evaluate(ctx context.Context, base *config.Scenario, params map[string]float64, metricName string) (float64, error) {
	sc := *base
	for name, v := range params {
		if err := sc.SetParam(name, v); err != nil {
			return 0, err
		}
	}

	crowd, err := scene.Build(&sc)
	if err != nil {
		return 0, err
	}
	ms, err := metrics.ByName(metricName)
	if err != nil {
		return 0, err
	}

	result, err := experiment.NewRunner(crowd, experiment.WithMetrics(ms...)).Run(ctx, experiment.RunConfig{
		Dt:            sc.Dt,
		Duration:      sc.Duration,
		RecordEvery:   sc.Steps() + 1,
		ValidateState: true,
	})
	if err != nil {
		return 0, err
	}
	if len(result.Errors) > 0 {
		return 0, result.Errors[0]
	}
	return result.Metrics[metricName], nil
}
