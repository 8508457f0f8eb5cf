package experiment

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/crowdsim/internal/metrics"
	"github.com/san-kum/crowdsim/internal/socialforce"
)

// BuildFunc creates an independent crowd for one ensemble member.
type BuildFunc func(seed int64) (*socialforce.Crowd, error)

// Ensemble runs the same scenario under consecutive seeds concurrently.
// Every run gets its own crowd and its own metric instances.
type Ensemble struct {
	build     BuildFunc
	numRuns   int
	seedStart int64
	parallel  int
	metrics   func() []metrics.Metric
	logger    *log.Logger
}

func NewEnsemble(build BuildFunc, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		build:     build,
		numRuns:   numRuns,
		seedStart: seedStart,
		parallel:  runtime.NumCPU(),
		metrics:   metrics.Default,
	}
}

func (e *Ensemble) SetParallel(n int)                     { e.parallel = n }
func (e *Ensemble) SetMetrics(fn func() []metrics.Metric) { e.metrics = fn }
func (e *Ensemble) SetLogger(l *log.Logger)               { e.logger = l }

// Run returns one result per seed in seed order. The first failing run
// cancels the rest.
func (e *Ensemble) Run(ctx context.Context, cfg RunConfig) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.parallel > 0 {
		g.SetLimit(e.parallel)
	}

	for i := 0; i < e.numRuns; i++ {
		seed := e.seedStart + int64(i)
		g.Go(func() error {
			crowd, err := e.build(seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}

			opts := []RunnerOption{WithMetrics(e.metrics()...)}
			if e.logger != nil {
				opts = append(opts, WithLogger(e.logger.With("seed", seed)))
			}
			res, err := NewRunner(crowd, opts...).Run(ctx, cfg)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary is the mean and sample standard deviation of one metric across
// ensemble runs.
type Summary struct {
	Name   string
	Mean   float64
	StdDev float64
}

func Summarize(results []*Result) []Summary {
	var out []Summary
	for _, name := range metrics.Names() {
		var vals []float64
		for _, r := range results {
			if v, ok := r.Metrics[name]; ok {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		out = append(out, summarize(name, vals))
	}
	return out
}

func summarize(name string, vals []float64) Summary {
	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	var ss float64
	for _, v := range vals {
		ss += (v - mean) * (v - mean)
	}
	s := Summary{Name: name, Mean: mean}
	if len(vals) > 1 {
		s.StdDev = math.Sqrt(ss / float64(len(vals)-1))
	}
	return s
}
