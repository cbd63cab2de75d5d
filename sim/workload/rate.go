package workload

import (
	"math"
	"sort"
)

// RateFunction gives the instantaneous arrival rate in jobs per unit time at
// model time t. Values <= 0 mean no arrivals at t.
type RateFunction interface {
	Rate(t float64) float64
}

// RateFunc adapts a plain function to RateFunction.
type RateFunc func(t float64) float64

func (f RateFunc) Rate(t float64) float64 { return f(t) }

// ConstantRate is the same rate at every t.
type ConstantRate float64

func (c ConstantRate) Rate(float64) float64 { return float64(c) }

// StepRate switches from Before to After at time At (inclusive).
type StepRate struct {
	Before float64
	After  float64
	At     float64
}

func (s StepRate) Rate(t float64) float64 {
	if t < s.At {
		return s.Before
	}
	return s.After
}

// RatePoint is one breakpoint of a PiecewiseRate.
type RatePoint struct {
	T    float64 `yaml:"t" json:"t"`
	Rate float64 `yaml:"rate" json:"rate"`
}

// PiecewiseRate holds each point's rate until the next point. The rate is 0
// before the first point. Points must be sorted by T.
type PiecewiseRate struct {
	Points []RatePoint
}

func (p PiecewiseRate) Rate(t float64) float64 {
	i := sort.Search(len(p.Points), func(i int) bool { return p.Points[i].T > t })
	if i == 0 {
		return 0
	}
	return p.Points[i-1].Rate
}

// SquareWaveRate is High for the first half of every period and Low for the
// second half.
type SquareWaveRate struct {
	Low    float64
	High   float64
	Period float64
}

func (s SquareWaveRate) Rate(t float64) float64 {
	if math.Mod(t, s.Period) < s.Period/2 {
		return s.High
	}
	return s.Low
}

// SineRate oscillates around Mean, clamped at zero.
type SineRate struct {
	Mean      float64
	Amplitude float64
	Period    float64
}

func (s SineRate) Rate(t float64) float64 {
	return math.Max(0, s.Mean+s.Amplitude*math.Sin(2*math.Pi*t/s.Period))
}
