// Package experiment drives a crowd through time, recording frames and
// folding every step into metrics.
package experiment

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/crowdsim/internal/metrics"
	"github.com/san-kum/crowdsim/internal/socialforce"
)

type Runner struct {
	crowd     *socialforce.Crowd
	metrics   []metrics.Metric
	observers []Observer
	logger    *log.Logger
}

type RunnerOption func(*Runner)

func WithLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

func WithMetrics(ms ...metrics.Metric) RunnerOption {
	return func(r *Runner) { r.metrics = append(r.metrics, ms...) }
}

func NewRunner(crowd *socialforce.Crowd, opts ...RunnerOption) *Runner {
	r := &Runner{crowd: crowd}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r
}

func (r *Runner) AddMetric(m metrics.Metric) { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer)     { r.observers = append(r.observers, o) }
func (r *Runner) Crowd() *socialforce.Crowd  { return r.crowd }

// Run steps the crowd for round(Duration/Dt) steps. The initial state is
// always recorded, then every RecordEvery steps and the final step. On
// cancellation the partial result is returned with ctx.Err().
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	every := max(cfg.RecordEvery, 1)
	steps := int(math.Round(cfg.Duration / cfg.Dt))

	for _, m := range r.metrics {
		m.Reset()
	}

	agents := r.crowd.Agents()
	walls := r.crowd.Walls()
	result := &Result{
		Agents:  describe(agents),
		Walls:   walls,
		Frames:  make([]Frame, 0, steps/every+2),
		Metrics: make(map[string]float64),
	}
	start := r.crowd.Steps()
	result.Frames = append(result.Frames, capture(start, r.crowd.Time(), agents))

	r.logger.Info("run started", "agents", len(agents), "walls", len(walls), "steps", steps, "dt", cfg.Dt)
	began := time.Now()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			r.finish(result)
			r.logger.Warn("run cancelled", "step", i, "t", r.crowd.Time())
			return result, ctx.Err()
		default:
		}

		if err := r.crowd.Step(cfg.Dt); err != nil {
			result.Errors = append(result.Errors, err)
			r.logger.Error("step failed", "err", err)
			break
		}
		result.StepsTaken++

		t := r.crowd.Time()
		agents = r.crowd.Agents()
		for _, m := range r.metrics {
			m.Observe(agents, walls, t)
		}
		for _, obs := range r.observers {
			obs.OnStep(agents, t)
		}

		if cfg.ValidateState {
			if id, ok := finite(agents); !ok {
				err := &socialforce.StepError{Step: start + i, Time: t, AgentID: id, Wrapped: ErrNonFiniteState}
				result.Errors = append(result.Errors, err)
				r.logger.Error("invalid state", "err", err)
				result.Frames = append(result.Frames, capture(start+i+1, t, agents))
				break
			}
		}

		if (i+1)%every == 0 || i == steps-1 {
			result.Frames = append(result.Frames, capture(start+i+1, t, agents))
			r.logger.Debug("frame recorded", "step", i+1, "t", t, "mean_speed", metrics.CrowdSpeed(agents))
		}
	}

	r.finish(result)
	r.logger.Info("run finished", "steps", result.StepsTaken, "frames", len(result.Frames), "elapsed", time.Since(began))
	return result, nil
}

func (r *Runner) finish(result *Result) {
	result.Metrics = metrics.Values(r.metrics)
}
