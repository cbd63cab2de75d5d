package workload

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/boxsim/boxsim/sim"
)

// Arrival process names accepted by NewArrivalSampler.
const (
	ProcessDeterministic = "deterministic"
	ProcessPoisson       = "poisson"
	ProcessGamma         = "gamma"
)

// ArrivalSampler generates inter-arrival gaps for the instantaneous rate.
type ArrivalSampler interface {
	// SampleGap returns the next gap in ticks (unrounded) for rate jobs per
	// unit time. rate is always positive.
	SampleGap(rng *rand.Rand, rate float64) float64
}

// DeterministicSampler spaces arrivals exactly 1/rate apart and never draws
// from the RNG.
type DeterministicSampler struct{}

func (DeterministicSampler) SampleGap(_ *rand.Rand, rate float64) float64 {
	return sim.TicksPerUnit / rate
}

// PoissonSampler generates exponentially-distributed gaps (CV=1).
type PoissonSampler struct{}

func (PoissonSampler) SampleGap(rng *rand.Rand, rate float64) float64 {
	return rng.ExpFloat64() * sim.TicksPerUnit / rate
}

// GammaSampler generates Gamma-distributed gaps with a fixed coefficient of
// variation. CV > 1 produces bursty arrivals at the same mean rate.
type GammaSampler struct {
	shape float64 // 1/CV²
	cv2   float64
}

func (s *GammaSampler) SampleGap(rng *rand.Rand, rate float64) float64 {
	mean := sim.TicksPerUnit / rate
	return gammaRand(rng, s.shape, mean*s.cv2)
}

// gammaRand samples from Gamma(shape, scale) using Marsaglia-Tsang's method.
// For shape < 1: Gamma(shape) = Gamma(shape+1) * U^(1/shape).
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()

		// squeeze test
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// NewArrivalSampler creates an ArrivalSampler for the named process.
// cv is only read by the gamma process; values <= 0 mean 1.
func NewArrivalSampler(process string, cv float64) (ArrivalSampler, error) {
	switch process {
	case ProcessDeterministic:
		return DeterministicSampler{}, nil
	case ProcessPoisson:
		return PoissonSampler{}, nil
	case ProcessGamma:
		if cv <= 0 {
			cv = 1.0
		}
		shape := 1.0 / (cv * cv)
		if shape < 0.01 {
			logrus.Warnf("Gamma shape %.4f (CV=%.1f) is very small; falling back to Poisson", shape, cv)
			return PoissonSampler{}, nil
		}
		return &GammaSampler{shape: shape, cv2: cv * cv}, nil
	default:
		return nil, &sim.ConfigError{
			Field:  "arrival.process",
			Reason: fmt.Sprintf("unknown process %q (want %s, %s or %s)", process, ProcessDeterministic, ProcessPoisson, ProcessGamma),
		}
	}
}
