package workload

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/boxsim/boxsim/sim"
)

// SourceConfig describes a job stream.
type SourceConfig struct {
	Rate            RateFunction
	Process         string  // ProcessDeterministic, ProcessPoisson or ProcessGamma
	CV              float64 // gamma only
	ServiceDuration int64   // ticks, copied onto every job
	Horizon         int64   // ticks; no job arrives after it
	Seed            int64   // master seed; the RNG is its workload partition, rebuilt on Reset
	MaxJobs         int64   // 0 = unlimited
	Resolution      int64   // ticks between rate re-evaluations; 0 = a tenth of a time unit
}

// JobSource lazily generates jobs from a rate function. It implements
// sim.ArrivalSource. Deterministic given the same config and seed.
//
// Each gap is drawn as work at unit rate and spent against the rate
// function, which is re-read at every Resolution boundary, so a gap drawn
// in a lull still ends early when the rate rises. Arrival time is kept
// exactly and only the emitted tick is rounded: at a constant rate r job k
// arrives at round(k/r) and spacing never drifts short. Ticks strictly
// increase. The first job arrives one gap after t=0.
type JobSource struct {
	cfg     SourceConfig
	sampler ArrivalSampler
	rng     *rand.Rand

	t       float64 // exact time of the last arrival, in ticks
	last    int64   // tick of the last emitted job
	nextID  sim.JobID
	emitted int64
	done    bool
}

// NewJobSource validates cfg and returns a source positioned at t=0.
func NewJobSource(cfg SourceConfig) (*JobSource, error) {
	if cfg.Rate == nil {
		return nil, &sim.ConfigError{Field: "rate", Reason: "rate function is required"}
	}
	if cfg.ServiceDuration <= 0 {
		return nil, &sim.ConfigError{Field: "service_duration", Reason: fmt.Sprintf("must be positive, got %d ticks", cfg.ServiceDuration)}
	}
	if cfg.Horizon <= 0 {
		return nil, &sim.ConfigError{Field: "horizon", Reason: fmt.Sprintf("must be positive, got %d ticks", cfg.Horizon)}
	}
	if cfg.MaxJobs < 0 {
		return nil, &sim.ConfigError{Field: "arrival.max_jobs", Reason: fmt.Sprintf("must be non-negative, got %d", cfg.MaxJobs)}
	}
	if cfg.Resolution < 0 {
		return nil, &sim.ConfigError{Field: "arrival.resolution", Reason: fmt.Sprintf("must be non-negative, got %d ticks", cfg.Resolution)}
	}
	if cfg.Resolution == 0 {
		cfg.Resolution = sim.TicksPerUnit / 10
	}
	sampler, err := NewArrivalSampler(cfg.Process, cfg.CV)
	if err != nil {
		return nil, err
	}
	s := &JobSource{cfg: cfg, sampler: sampler}
	s.Reset()
	return s, nil
}

// Reset rewinds the source to t=0 and reseeds it, so the same sequence is
// produced again.
func (s *JobSource) Reset() {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(s.cfg.Seed))
	s.rng = rng.ForSubsystem(sim.SubsystemWorkload)
	s.t = 0
	s.last = 0
	s.nextID = 0
	s.emitted = 0
	s.done = false
}

// Next returns the next job, or false once the horizon or MaxJobs is reached.
func (s *JobSource) Next() (*sim.Job, bool) {
	if s.done {
		return nil, false
	}
	if s.cfg.MaxJobs > 0 && s.emitted >= s.cfg.MaxJobs {
		s.done = true
		return nil, false
	}

	horizon := float64(s.cfg.Horizon)
	res := s.cfg.Resolution
	work := s.sampler.SampleGap(s.rng, 1) // ticks at one job per unit
	for {
		if s.t > horizon {
			s.done = true
			return nil, false
		}
		segEnd := float64((int64(s.t)/res + 1) * res)
		rate := s.cfg.Rate.Rate(s.t / sim.TicksPerUnit)
		if !(rate > 0) || math.IsInf(rate, 0) {
			s.t = segEnd
			continue
		}
		if need := work / rate; s.t+need <= segEnd {
			s.t += need
			break
		}
		work -= (segEnd - s.t) * rate
		s.t = segEnd
	}

	tick := int64(math.Round(s.t))
	if tick <= s.last {
		tick = s.last + 1
	}
	if tick > s.cfg.Horizon {
		s.done = true
		return nil, false
	}
	s.last = tick
	job := sim.NewJob(s.nextID, tick, s.cfg.ServiceDuration)
	s.nextID++
	s.emitted++
	return job, true
}

// Drain collects every remaining job. Intended for tests and offline
// inspection; the simulator pulls jobs one at a time.
func (s *JobSource) Drain() []*sim.Job {
	var jobs []*sim.Job
	for {
		job, ok := s.Next()
		if !ok {
			return jobs
		}
		jobs = append(jobs, job)
	}
}
