// Package scenario loads, validates and builds simulation scenarios from YAML.
//
// A scenario is everything needed to reproduce one run: the seed, timing,
// capacity limits, arrival process, rate function and autoscaler band. All
// durations are in model time units and are converted to ticks by Build.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/boxsim/boxsim/sim"
	"github.com/boxsim/boxsim/sim/trace"
	"github.com/boxsim/boxsim/sim/workload"
)

// Rate function kinds accepted in rate.kind.
const (
	RateConstant  = "constant"
	RateStep      = "step"
	RatePiecewise = "piecewise"
	RateSquare    = "square"
	RateSine      = "sine"
)

// Scenario is the YAML-facing description of one simulation run.
type Scenario struct {
	Version              string         `yaml:"version" validate:"omitempty,oneof=1"`
	Seed                 int64          `yaml:"seed"`
	Horizon              float64        `yaml:"horizon" validate:"gt=0,lte=1000000"`
	ServiceDuration      float64        `yaml:"service_duration" validate:"gt=0"`
	InitialCapacity      int            `yaml:"initial_capacity" validate:"gte=0,lte=1000000"`
	MinCapacity          int            `yaml:"min_capacity" validate:"gte=0,ltefield=InitialCapacity"`
	MaxCapacity          int            `yaml:"max_capacity" validate:"omitempty,gte=0,lte=1000000,gtefield=MinCapacity"`
	CostPerBoxPerTime    float64        `yaml:"cost_per_box_per_time" validate:"gte=0"`
	AbortMissedThreshold int64          `yaml:"abort_missed_threshold" validate:"gte=0"`
	Arrival              ArrivalSpec    `yaml:"arrival"`
	Rate                 RateSpec       `yaml:"rate"`
	Autoscaler           AutoscalerSpec `yaml:"autoscaler"`
}

// ArrivalSpec selects the arrival process.
type ArrivalSpec struct {
	Process string  `yaml:"process" validate:"oneof=deterministic poisson gamma"`
	CV      float64 `yaml:"cv,omitempty" validate:"gte=0"`
	MaxJobs int64   `yaml:"max_jobs" validate:"gte=0"`
}

// RateSpec describes the rate function. Which fields apply depends on Kind:
// constant uses Value; step uses Before, After, At; piecewise uses Points;
// square uses Low, High, Period; sine uses Mean, Amplitude, Period.
type RateSpec struct {
	Kind      string               `yaml:"kind" validate:"oneof=constant step piecewise square sine"`
	Value     float64              `yaml:"value,omitempty"`
	Before    float64              `yaml:"before,omitempty"`
	After     float64              `yaml:"after,omitempty"`
	At        float64              `yaml:"at,omitempty"`
	Points    []workload.RatePoint `yaml:"points,omitempty"`
	Low       float64              `yaml:"low,omitempty"`
	High      float64              `yaml:"high,omitempty"`
	Period    float64              `yaml:"period,omitempty"`
	Mean      float64              `yaml:"mean,omitempty"`
	Amplitude float64              `yaml:"amplitude,omitempty"`
}

// AutoscalerSpec is the utilization band control loop.
type AutoscalerSpec struct {
	Enabled    bool    `yaml:"enabled"`
	Interval   float64 `yaml:"interval" validate:"gt=0"`
	TargetLow  float64 `yaml:"target_low" validate:"gt=0,ltfield=TargetMid"`
	TargetMid  float64 `yaml:"target_mid" validate:"ltfield=TargetHigh"`
	TargetHigh float64 `yaml:"target_high" validate:"gt=0"`
	Cooldown   float64 `yaml:"cooldown" validate:"gte=0"`
}

// DefaultScenario returns the baseline every scenario file is decoded over:
// 5 jobs per unit against 10 boxes, already inside the band.
func DefaultScenario() Scenario {
	return Scenario{
		Version:           "1",
		Seed:              42,
		Horizon:           500,
		ServiceDuration:   1,
		InitialCapacity:   10,
		MinCapacity:       1,
		CostPerBoxPerTime: 1,
		Arrival:           ArrivalSpec{Process: workload.ProcessDeterministic},
		Rate:              RateSpec{Kind: RateConstant, Value: 5},
		Autoscaler: AutoscalerSpec{
			Enabled:    true,
			Interval:   1,
			TargetLow:  0.4,
			TargetMid:  0.5,
			TargetHigh: 0.6,
			Cooldown:   10,
		},
	}
}

// Load reads and parses a scenario file from fs.
func Load(fs afero.Fs, path string) (*Scenario, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes YAML over DefaultScenario and validates the result.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func Parse(data []byte) (*Scenario, error) {
	s := DefaultScenario()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Canonical returns the YAML encoding used for the run ID.
func (s *Scenario) Canonical() ([]byte, error) {
	return yaml.Marshal(s)
}

// RunID derives a stable identifier from the canonical encoding, so the same
// scenario always gets the same ID.
func (s *Scenario) RunID() (string, error) {
	data, err := s.Canonical()
	if err != nil {
		return "", fmt.Errorf("encoding scenario: %w", err)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, data).String(), nil
}

// RateFunction builds the rate function named by s.Rate.
func (s *Scenario) RateFunction() (workload.RateFunction, error) {
	r := s.Rate
	switch r.Kind {
	case RateConstant:
		return workload.ConstantRate(r.Value), nil
	case RateStep:
		return workload.StepRate{Before: r.Before, After: r.After, At: r.At}, nil
	case RatePiecewise:
		return workload.PiecewiseRate{Points: append([]workload.RatePoint(nil), r.Points...)}, nil
	case RateSquare:
		return workload.SquareWaveRate{Low: r.Low, High: r.High, Period: r.Period}, nil
	case RateSine:
		return workload.SineRate{Mean: r.Mean, Amplitude: r.Amplitude, Period: r.Period}, nil
	}
	return nil, &sim.ConfigError{Field: "rate.kind", Reason: fmt.Sprintf("unknown kind %q", r.Kind)}
}

// SimConfig converts the scenario to engine configuration in ticks.
func (s *Scenario) SimConfig() (sim.Config, error) {
	runID, err := s.RunID()
	if err != nil {
		return sim.Config{}, err
	}
	a := s.Autoscaler
	return sim.Config{
		RunID:                runID,
		Horizon:              sim.ToTicks(s.Horizon),
		ServiceDuration:      sim.ToTicks(s.ServiceDuration),
		InitialCapacity:      s.InitialCapacity,
		CostPerBoxPerTime:    s.CostPerBoxPerTime,
		AbortMissedThreshold: s.AbortMissedThreshold,
		Autoscaler: sim.AutoscalerConfig{
			Enabled:     a.Enabled,
			Interval:    sim.ToTicks(a.Interval),
			TargetLow:   a.TargetLow,
			TargetMid:   a.TargetMid,
			TargetHigh:  a.TargetHigh,
			Cooldown:    sim.ToTicks(a.Cooldown),
			MinCapacity: s.MinCapacity,
			MaxCapacity: s.MaxCapacity,
		},
	}, nil
}

// SourceConfig builds the job source configuration. The source derives its
// RNG from the scenario seed.
func (s *Scenario) SourceConfig() (workload.SourceConfig, error) {
	rate, err := s.RateFunction()
	if err != nil {
		return workload.SourceConfig{}, err
	}
	return workload.SourceConfig{
		Rate:            rate,
		Process:         s.Arrival.Process,
		CV:              s.Arrival.CV,
		ServiceDuration: sim.ToTicks(s.ServiceDuration),
		Horizon:         sim.ToTicks(s.Horizon),
		Seed:            s.Seed,
		MaxJobs:         s.Arrival.MaxJobs,
	}, nil
}

// Build validates the scenario and returns a simulator ready to Run.
// tr may be nil to disable decision tracing.
func (s *Scenario) Build(tr *trace.SimulationTrace) (*sim.Simulator, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	srcCfg, err := s.SourceConfig()
	if err != nil {
		return nil, err
	}
	source, err := workload.NewJobSource(srcCfg)
	if err != nil {
		return nil, err
	}
	cfg, err := s.SimConfig()
	if err != nil {
		return nil, err
	}
	return sim.NewSimulator(cfg, source, tr)
}
