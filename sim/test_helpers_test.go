package sim

import "testing"

// sliceSource replays a fixed job list. It stands in for the workload
// package, which imports sim and so cannot be used from these tests.
type sliceSource struct {
	jobs []*Job
	pos  int
}

func (s *sliceSource) Next() (*Job, bool) {
	if s.pos >= len(s.jobs) {
		return nil, false
	}
	j := s.jobs[s.pos]
	s.pos++
	return j, true
}

func (s *sliceSource) Reset() { s.pos = 0 }

// periodicJobs returns jobs every gap ticks, the first at gap, up to and
// including horizon.
func periodicJobs(gap, horizon, service int64) *sliceSource {
	src := &sliceSource{}
	for t, id := gap, JobID(0); t <= horizon; t, id = t+gap, id+1 {
		src.jobs = append(src.jobs, NewJob(id, t, service))
	}
	return src
}

// testConfig is a 100-unit run with unit service time, 10 boxes and a
// [0.4, 0.6] band evaluated every unit.
func testConfig() Config {
	return Config{
		RunID:             "test",
		Horizon:           ToTicks(100),
		ServiceDuration:   ToTicks(1),
		InitialCapacity:   10,
		CostPerBoxPerTime: 1,
		Autoscaler: AutoscalerConfig{
			Enabled:     true,
			Interval:    ToTicks(1),
			TargetLow:   0.4,
			TargetMid:   0.5,
			TargetHigh:  0.6,
			Cooldown:    ToTicks(10),
			MinCapacity: 1,
		},
	}
}

func mustSimulator(t testing.TB, cfg Config, src ArrivalSource) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, src, nil)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s
}
