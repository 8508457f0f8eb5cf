package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/crowdsim/internal/socialforce"
)

const (
	DefaultDt          = 0.05
	DefaultDuration    = 60.0
	DefaultRecordEvery = 4
)

var ErrInvalidScenario = errors.New("config: invalid scenario")

// Scenario describes everything needed to build and run a crowd.
type Scenario struct {
	Name         string        `yaml:"name" toml:"name"`
	Dt           float64       `yaml:"dt" toml:"dt"`
	Duration     float64       `yaml:"duration" toml:"duration"`
	Seed         int64         `yaml:"seed" toml:"seed"`
	Workers      int           `yaml:"workers" toml:"workers"`
	RecordEvery  int           `yaml:"record_every" toml:"record_every"`
	Params       ParamsConfig  `yaml:"params" toml:"params"`
	Walls        [][]float64   `yaml:"walls" toml:"walls"`
	WallsGeoJSON string        `yaml:"walls_geojson,omitempty" toml:"walls_geojson,omitempty"`
	Interleave   bool          `yaml:"interleave" toml:"interleave"`
	Groups       []GroupConfig `yaml:"groups" toml:"groups"`
}

type ParamsConfig struct {
	RelaxationTime float64 `yaml:"relaxation_time" toml:"relaxation_time"`
	Lambda         float64 `yaml:"lambda" toml:"lambda"`
	Gamma          float64 `yaml:"gamma" toml:"gamma"`
	NPrime         float64 `yaml:"n_prime" toml:"n_prime"`
	N              float64 `yaml:"n" toml:"n"`
	A              float64 `yaml:"a" toml:"a"`
	Cutoff         float64 `yaml:"cutoff" toml:"cutoff"`
	WallA          float64 `yaml:"wall_a" toml:"wall_a"`
	WallB          float64 `yaml:"wall_b" toml:"wall_b"`
	SpeedMean      float64 `yaml:"speed_mean" toml:"speed_mean"`
	SpeedStdDev    float64 `yaml:"speed_stddev" toml:"speed_stddev"`
	Radius         float64 `yaml:"radius" toml:"radius"`
}

// GroupConfig spawns Count agents uniformly inside Spawn, each following
// one sampled point per entry of Waypoints.
type GroupConfig struct {
	Name         string           `yaml:"name" toml:"name"`
	Count        int              `yaml:"count" toml:"count"`
	Radius       float64          `yaml:"radius,omitempty" toml:"radius,omitempty"`
	DesiredSpeed float64          `yaml:"desired_speed,omitempty" toml:"desired_speed,omitempty"`
	Color        []float64        `yaml:"color,omitempty" toml:"color,omitempty"`
	Spawn        Box              `yaml:"spawn" toml:"spawn"`
	Waypoints    []WaypointConfig `yaml:"waypoints" toml:"waypoints"`
}

type Box struct {
	MinX float64 `yaml:"min_x" toml:"min_x"`
	MaxX float64 `yaml:"max_x" toml:"max_x"`
	MinY float64 `yaml:"min_y" toml:"min_y"`
	MaxY float64 `yaml:"max_y" toml:"max_y"`
}

type WaypointConfig struct {
	Area   Box     `yaml:"area" toml:"area"`
	Radius float64 `yaml:"radius" toml:"radius"`
}

func DefaultParamsConfig() ParamsConfig {
	return FromParams(socialforce.DefaultParams())
}

func FromParams(p socialforce.Params) ParamsConfig {
	return ParamsConfig{
		RelaxationTime: p.RelaxationTime,
		Lambda:         p.Lambda,
		Gamma:          p.Gamma,
		NPrime:         p.NPrime,
		N:              p.N,
		A:              p.A,
		Cutoff:         p.Cutoff,
		WallA:          p.WallA,
		WallB:          p.WallB,
		SpeedMean:      p.SpeedMean,
		SpeedStdDev:    p.SpeedStdDev,
		Radius:         p.Radius,
	}
}

func (p ParamsConfig) ToParams() socialforce.Params {
	return socialforce.Params{
		RelaxationTime: p.RelaxationTime,
		Lambda:         p.Lambda,
		Gamma:          p.Gamma,
		NPrime:         p.NPrime,
		N:              p.N,
		A:              p.A,
		Cutoff:         p.Cutoff,
		WallA:          p.WallA,
		WallB:          p.WallB,
		SpeedMean:      p.SpeedMean,
		SpeedStdDev:    p.SpeedStdDev,
		Radius:         p.Radius,
	}
}

// DefaultScenario is the corridor scene with the default model constants.
func DefaultScenario() *Scenario {
	return GetPreset("corridor")
}

// Load reads a scenario file. Files ending in .toml are decoded as TOML,
// anything else as YAML. Fields absent from the file keep their defaults.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s := &Scenario{
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Seed:        socialforce.DefaultSeed,
		RecordEvery: DefaultRecordEvery,
		Params:      DefaultParamsConfig(),
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), s); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if s.WallsGeoJSON != "" && !filepath.IsAbs(s.WallsGeoJSON) {
		s.WallsGeoJSON = filepath.Join(filepath.Dir(path), s.WallsGeoJSON)
	}
	return s, nil
}

// Save writes the scenario as YAML, or TOML when path ends in .toml.
func Save(path string, s *Scenario) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := toml.NewEncoder(f).Encode(s); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SetParam changes one model constant by name, rejecting values the model
// would not accept.
func (s *Scenario) SetParam(name string, value float64) error {
	p := s.Params.ToParams()
	if err := p.SetParam(name, value); err != nil {
		return err
	}
	s.Params = FromParams(p)
	return nil
}

// Validate checks that the scenario can be built and run.
func (s *Scenario) Validate() error {
	if !(s.Dt > 0) || math.IsInf(s.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidScenario, s.Dt)
	}
	if !(s.Duration >= 0) || math.IsInf(s.Duration, 0) {
		return fmt.Errorf("%w: duration must be non-negative, got %v", ErrInvalidScenario, s.Duration)
	}
	if s.RecordEvery < 1 {
		return fmt.Errorf("%w: record_every must be at least 1, got %d", ErrInvalidScenario, s.RecordEvery)
	}
	if err := s.Params.ToParams().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	for i, w := range s.Walls {
		if len(w) != 4 {
			return fmt.Errorf("%w: wall %d needs 4 coordinates, got %d", ErrInvalidScenario, i, len(w))
		}
	}
	for i, g := range s.Groups {
		if g.Count < 0 {
			return fmt.Errorf("%w: group %d has negative count", ErrInvalidScenario, i)
		}
		if g.Count > 0 && len(g.Waypoints) == 0 {
			return fmt.Errorf("%w: group %d has no waypoints", ErrInvalidScenario, i)
		}
		if len(g.Color) != 0 && len(g.Color) != 3 {
			return fmt.Errorf("%w: group %d color needs 3 components", ErrInvalidScenario, i)
		}
		for j, w := range g.Waypoints {
			if w.Radius < 0 {
				return fmt.Errorf("%w: group %d waypoint %d has negative radius", ErrInvalidScenario, i, j)
			}
		}
	}
	return nil
}

// Steps is the number of whole steps covering Duration.
func (s *Scenario) Steps() int {
	return int(math.Round(s.Duration / s.Dt))
}

func (s *Scenario) AgentCount() int {
	n := 0
	for _, g := range s.Groups {
		n += g.Count
	}
	return n
}
