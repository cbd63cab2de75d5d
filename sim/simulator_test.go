package sim

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxsim/boxsim/sim/trace"
)

func runSim(t *testing.T, cfg Config, src ArrivalSource) (*Simulator, *Summary) {
	t.Helper()
	s := mustSimulator(t, cfg, src)
	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, summary.Arrivals, summary.Completed+summary.Missed+summary.InFlight,
		"every arrival is completed, missed or in flight")
	return s, summary
}

func TestSimulator_Steady_InBandNoMisses(t *testing.T) {
	// GIVEN 5 jobs per unit against 10 boxes with unit service time
	cfg := testConfig()
	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	s, err := NewSimulator(cfg, periodicJobs(ToTicks(0.2), cfg.Horizon, cfg.ServiceDuration), tr)
	require.NoError(t, err)

	// WHEN run for 100 units
	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	// THEN utilization sits at the mid target with no misses and no resizing
	assert.Equal(t, int64(500), summary.Arrivals)
	assert.Equal(t, int64(495), summary.Completed)
	assert.Equal(t, int64(5), summary.InFlight)
	assert.Equal(t, int64(0), summary.Missed)
	assert.Equal(t, 0.5, summary.AvgUtilization)
	assert.Equal(t, 0.5, summary.Utilization.P95)
	assert.Equal(t, 0, summary.ScaleUps)
	assert.Equal(t, 0, summary.ScaleDowns)
	assert.Equal(t, 10, summary.FinalCapacity)
	assert.Equal(t, 1000.0, summary.TotalCost)
	assert.Equal(t, 4.95, summary.AchievedThroughput)
	assert.Equal(t, 1.0, summary.MeanLatency)
	assert.Equal(t, "test", summary.RunID)
	assert.False(t, summary.Aborted)

	// AND one sample and one trace record per interval
	samples := s.Samples()
	require.Len(t, samples, 100)
	for _, sample := range samples {
		assert.Equal(t, 0.5, sample.Utilization)
		assert.Equal(t, 10.0, sample.Throughput)
		assert.Equal(t, int64(0), sample.MissedCount)
	}
	assert.Equal(t, 100.0, samples[99].T)
	assert.Equal(t, 1000.0, samples[99].Cost)
	require.Len(t, tr.Scales, 100)
	for _, r := range tr.Scales {
		assert.True(t, r.InBand)
	}
}

func TestSimulator_UnderProvisioned_MissesAccrue(t *testing.T) {
	// GIVEN 20 jobs per unit against a fixed pool of 10
	cfg := testConfig()
	cfg.Autoscaler.Enabled = false

	// WHEN run
	s, summary := runSim(t, cfg, periodicJobs(ToTicks(0.05), cfg.Horizon, cfg.ServiceDuration))

	// THEN each box serves back to back and the rest is missed
	assert.Equal(t, int64(2000), summary.Arrivals)
	assert.Equal(t, int64(1000), summary.Missed)
	assert.Equal(t, int64(990), summary.Completed)
	assert.Equal(t, int64(10), summary.InFlight)

	// AND the missed count never decreases
	samples := s.Samples()
	for i := 1; i < len(samples); i++ {
		assert.GreaterOrEqual(t, samples[i].MissedCount, samples[i-1].MissedCount)
	}
	assert.Greater(t, samples[len(samples)-1].MissedCount, samples[0].MissedCount)
}

func TestSimulator_Overprovisioned_ConvergesToBand(t *testing.T) {
	// GIVEN 30 boxes for a load that needs 10
	cfg := testConfig()
	cfg.InitialCapacity = 30

	// WHEN run
	s, summary := runSim(t, cfg, periodicJobs(ToTicks(0.2), cfg.Horizon, cfg.ServiceDuration))

	// THEN a single scale-down brings utilization into the band and it stays there
	assert.Equal(t, 1, summary.ScaleDowns)
	assert.Equal(t, 0, summary.ScaleUps)
	assert.Equal(t, 10, summary.FinalCapacity)
	assert.Equal(t, 30, summary.PeakCapacity)
	assert.Equal(t, int64(0), summary.Missed)
	assert.Equal(t, 1020.0, summary.TotalCost)
	for _, sample := range s.Samples()[1:] {
		assert.GreaterOrEqual(t, sample.Utilization, cfg.Autoscaler.TargetLow)
		assert.LessOrEqual(t, sample.Utilization, cfg.Autoscaler.TargetHigh)
	}
}

func TestSimulator_Underprovisioned_ScalesUpOnce(t *testing.T) {
	// GIVEN 2 boxes for a load that needs 10
	cfg := testConfig()
	cfg.InitialCapacity = 2

	// WHEN run
	_, summary := runSim(t, cfg, periodicJobs(ToTicks(0.2), cfg.Horizon, cfg.ServiceDuration))

	// THEN only the first interval misses jobs
	assert.Equal(t, 1, summary.ScaleUps)
	assert.Equal(t, int64(3), summary.Missed)
	assert.Equal(t, 10, summary.FinalCapacity)
}

func TestSimulator_ScaleDown_DrainsBusyBoxes(t *testing.T) {
	// GIVEN 10 busy boxes serving 5-unit jobs, after which load stops
	cfg := testConfig()
	cfg.Horizon = ToTicks(10)
	cfg.ServiceDuration = ToTicks(5)
	cfg.Autoscaler.MaxCapacity = 10
	src := periodicJobs(ToTicks(0.1), ToTicks(1), cfg.ServiceDuration)

	// WHEN run
	s, summary := runSim(t, cfg, src)

	// THEN the scale-down at t=2 drains 9 boxes instead of interrupting them
	assert.Equal(t, 1, summary.ScaleDowns)
	assert.Equal(t, int64(10), summary.Completed)
	assert.Equal(t, int64(0), summary.Missed)
	assert.Equal(t, 1, summary.FinalCapacity)
	samples := s.Samples()
	assert.Equal(t, 10, samples[1].Capacity, "draining boxes are still provisioned")
	assert.Equal(t, 1, samples[9].Capacity)

	// AND draining boxes are billed until their job completes
	assert.InDelta(t, 60.4, summary.BoxTime, 1e-9)
}

func TestSimulator_AbortThreshold_HardStop(t *testing.T) {
	// GIVEN one box, 20 jobs per unit and an abort threshold of 5 missed jobs
	cfg := testConfig()
	cfg.InitialCapacity = 1
	cfg.Autoscaler.Enabled = false
	cfg.AbortMissedThreshold = 5

	// WHEN run
	s, summary := runSim(t, cfg, periodicJobs(ToTicks(0.05), cfg.Horizon, cfg.ServiceDuration))

	// THEN the run stops at the sixth miss
	assert.True(t, summary.Aborted)
	assert.NotEmpty(t, summary.AbortReason)
	assert.Equal(t, int64(6), summary.Missed)
	assert.Equal(t, int64(7), summary.Arrivals)
	assert.Equal(t, 0.35, summary.EndTime)
	assert.InDelta(t, 0.35, summary.BoxTime, 1e-12)
	assert.Empty(t, s.Samples())
	assert.True(t, s.Clock().Ended())
}

func TestSimulator_CostIndependentOfArrivals(t *testing.T) {
	// GIVEN the same fixed pool under two different loads
	cfg := testConfig()
	cfg.Autoscaler.Enabled = false

	_, light := runSim(t, cfg, periodicJobs(ToTicks(1), cfg.Horizon, cfg.ServiceDuration))
	_, heavy := runSim(t, cfg, periodicJobs(ToTicks(0.05), cfg.Horizon, cfg.ServiceDuration))

	// THEN cost depends only on provisioned box time
	assert.Equal(t, light.TotalCost, heavy.TotalCost)
	assert.Equal(t, 1000.0, light.TotalCost)
}

func TestSimulator_Deterministic(t *testing.T) {
	// GIVEN identical configuration and random arrivals from the same seed
	cfg := testConfig()
	cfg.Autoscaler.Cooldown = ToTicks(2)

	s1, sum1 := runSim(t, cfg, randomJobs(7, cfg))
	s2, sum2 := runSim(t, cfg, randomJobs(7, cfg))

	// THEN results are identical
	assert.Equal(t, sum1, sum2)
	assert.Equal(t, s1.Samples(), s2.Samples())
}

func TestSimulator_Run_Twice(t *testing.T) {
	cfg := testConfig()
	s := mustSimulator(t, cfg, periodicJobs(ToTicks(0.2), cfg.Horizon, cfg.ServiceDuration))
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	_, err = s.Run(context.Background())

	assert.ErrorIs(t, err, ErrSimulationEnded)
	assert.NotNil(t, s.Summary())
}

func TestSimulator_Run_ContextCancelled(t *testing.T) {
	cfg := testConfig()
	s := mustSimulator(t, cfg, periodicJobs(ToTicks(0.2), cfg.Horizon, cfg.ServiceDuration))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, s.Summary())
}

func TestSimulator_NoArrivals_TicksStillSample(t *testing.T) {
	// GIVEN an empty source
	cfg := testConfig()

	// WHEN run
	s, summary := runSim(t, cfg, &sliceSource{})

	// THEN capacity shrinks to the minimum and every interval is sampled
	assert.Equal(t, int64(0), summary.Arrivals)
	assert.Len(t, s.Samples(), 100)
	assert.Equal(t, cfg.Autoscaler.MinCapacity, summary.FinalCapacity)
}

// randomJobs draws exponential gaps around 5 jobs per unit.
func randomJobs(seed int64, cfg Config) *sliceSource {
	rng := rand.New(rand.NewSource(seed))
	src := &sliceSource{}
	t := int64(0)
	for id := JobID(0); ; id++ {
		t += 1 + int64(rng.ExpFloat64()*float64(ToTicks(0.2)))
		if t > cfg.Horizon {
			return src
		}
		src.jobs = append(src.jobs, NewJob(id, t, cfg.ServiceDuration))
	}
}
