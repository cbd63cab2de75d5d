package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxsim/boxsim/sim"
	"github.com/boxsim/boxsim/sim/export"
	"github.com/boxsim/boxsim/sim/internal/testutil"
	"github.com/boxsim/boxsim/sim/trace"
)

func runPreset(t *testing.T, s *Scenario, tr *trace.SimulationTrace) (*sim.Summary, []sim.Sample) {
	t.Helper()
	simulator, err := s.Build(tr)
	require.NoError(t, err)
	summary, err := simulator.Run(context.Background())
	require.NoError(t, err)
	return summary, simulator.Samples()
}

func TestPresetNames_Sorted(t *testing.T) {
	assert.Equal(t, []string{"flapping", "steady", "step-surge"}, PresetNames())
}

func TestPreset_Unknown(t *testing.T) {
	_, err := Preset("nope")

	var cfgErr *sim.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "preset", cfgErr.Field)
	assert.Contains(t, cfgErr.Reason, "step-surge")
}

func TestPreset_ReturnsFreshCopy(t *testing.T) {
	a, err := Preset("steady")
	require.NoError(t, err)
	a.Horizon = 1

	b, err := Preset("steady")
	require.NoError(t, err)
	assert.Equal(t, 500.0, b.Horizon)
}

func TestPresets_AllValid(t *testing.T) {
	for _, name := range PresetNames() {
		s, err := Preset(name)
		require.NoError(t, err)
		assert.NoError(t, s.Validate(), name)
	}
}

// TestPresets_GoldenDataset runs each deterministic preset with its default
// seed and compares the summary to testdata/goldendataset.json.
func TestPresets_GoldenDataset(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)

	for _, g := range dataset.Presets {
		t.Run(g.Preset, func(t *testing.T) {
			s, err := Preset(g.Preset)
			require.NoError(t, err)

			got, _ := runPreset(t, s, nil)

			assert.Equal(t, g.Arrivals, got.Arrivals, "arrivals")
			assert.Equal(t, g.Completed, got.Completed, "completed")
			assert.Equal(t, g.Missed, got.Missed, "missed")
			assert.Equal(t, g.InFlight, got.InFlight, "in_flight")
			assert.Equal(t, g.PeakCapacity, got.PeakCapacity, "peak_capacity")
			assert.Equal(t, g.FinalCapacity, got.FinalCapacity, "final_capacity")
			assert.Equal(t, g.ScaleUps, got.ScaleUps, "scale_ups")
			assert.Equal(t, g.ScaleDowns, got.ScaleDowns, "scale_downs")
			testutil.AssertFloat64Equal(t, "end_time", g.EndTime, got.EndTime, 1e-9)
			testutil.AssertFloat64Equal(t, "box_time", g.BoxTime, got.BoxTime, 1e-9)
			testutil.AssertFloat64Equal(t, "total_cost", g.TotalCost, got.TotalCost, 1e-9)
			testutil.AssertFloat64Equal(t, "avg_utilization", g.AvgUtilization, got.AvgUtilization, 1e-9)
			assert.Equal(t, got.Arrivals, got.Completed+got.Missed+got.InFlight, "job conservation")
		})
	}
}

func TestStepSurge_NoMissesBeforeStep(t *testing.T) {
	s, err := Preset("step-surge")
	require.NoError(t, err)

	_, samples := runPreset(t, s, nil)

	// samples are taken every unit; index 99 is t=100
	require.Len(t, samples, 200)
	assert.Equal(t, 100.0, samples[99].T)
	assert.Equal(t, int64(0), samples[99].MissedCount)
	assert.Positive(t, samples[100].MissedCount)
}

func TestSteady_TraceStaysInBand(t *testing.T) {
	s, err := Preset("steady")
	require.NoError(t, err)
	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})

	runPreset(t, s, tr)

	summary := trace.Summarize(tr)
	assert.Equal(t, 500, summary.TotalDecisions)
	assert.Equal(t, 1.0, summary.InBandFraction)
	assert.Equal(t, 0, summary.ScaleUps+summary.ScaleDowns)
}

func TestFlapping_CooldownSpacesActions(t *testing.T) {
	// GIVEN the flapping preset with decision tracing
	s, err := Preset("flapping")
	require.NoError(t, err)
	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelActions})

	// WHEN run
	summary, _ := runPreset(t, s, tr)

	// THEN some actions were suppressed by the cooldown
	assert.Positive(t, summary.Suppressed)

	// AND a reversal of direction waits a full cooldown after the last action
	cooldown := sim.ToTicks(s.Autoscaler.Cooldown)
	var prev *trace.ScaleRecord
	for i := range tr.Scales {
		r := &tr.Scales[i]
		if r.Suppressed || r.Action == "none" {
			continue
		}
		if prev != nil && r.Action != prev.Action {
			assert.GreaterOrEqual(t, r.Clock-prev.Clock, cooldown,
				"%s at %d only %d ticks after %s", r.Action, r.Clock, r.Clock-prev.Clock, prev.Action)
		}
		prev = r
	}

	// AND every suppressed action points the other way from the last applied one
	prev = nil
	for i := range tr.Scales {
		r := &tr.Scales[i]
		switch {
		case r.Suppressed:
			require.NotNil(t, prev, "suppression before any action at %d", r.Clock)
			wanted, _, _ := strings.Cut(r.Reason, " ")
			assert.NotEqual(t, prev.Action, wanted, "same-direction action suppressed at %d", r.Clock)
		case r.Action != "none":
			prev = r
		}
	}

	// AND without a cooldown the autoscaler acts more often
	noCooldown, err := Preset("flapping")
	require.NoError(t, err)
	noCooldown.Autoscaler.Cooldown = 0
	free, _ := runPreset(t, noCooldown, nil)
	assert.Greater(t, free.ScaleUps+free.ScaleDowns, summary.ScaleUps+summary.ScaleDowns)
	assert.Equal(t, 0, free.Suppressed)
}

func TestFixedPool_ExactlySufficientCapacityMissesNothing(t *testing.T) {
	for _, rate := range []int{3, 7} {
		t.Run(fmt.Sprintf("rate %d", rate), func(t *testing.T) {
			// GIVEN a fixed pool of rate boxes serving rate jobs per unit,
			// each lasting one unit
			s := DefaultScenario()
			s.Horizon = 100
			s.ServiceDuration = 1
			s.InitialCapacity = rate
			s.MinCapacity = 1
			s.MaxCapacity = 0
			s.Rate = RateSpec{Kind: RateConstant, Value: float64(rate)}
			s.Autoscaler.Enabled = false

			// WHEN run
			summary, _ := runPreset(t, &s, nil)

			// THEN every box frees up just as its next job arrives
			assert.Equal(t, int64(100*rate), summary.Arrivals)
			assert.Equal(t, int64(0), summary.Missed)
			assert.Equal(t, rate, summary.PeakCapacity)
			assert.Equal(t, summary.Arrivals, summary.Completed+summary.InFlight)
		})
	}
}

func TestPreset_SameSeedByteIdenticalExports(t *testing.T) {
	// GIVEN a stochastic variant of the flapping preset
	build := func() *Scenario {
		s, err := Preset("flapping")
		require.NoError(t, err)
		s.Arrival.Process = "poisson"
		s.Seed = 11
		return s
	}

	// WHEN run twice
	runAndExport := func(s *Scenario) ([]byte, []byte) {
		summary, samples := runPreset(t, s, nil)
		var series, sum bytes.Buffer
		require.NoError(t, export.WriteSeriesCSV(&series, samples))
		require.NoError(t, export.WriteSummaryJSON(&sum, summary))
		return series.Bytes(), sum.Bytes()
	}
	seriesA, sumA := runAndExport(build())
	seriesB, sumB := runAndExport(build())

	// THEN the exported files are byte-identical
	assert.Equal(t, seriesA, seriesB)
	assert.Equal(t, sumA, sumB)

	// AND a different seed gives a different series
	other := build()
	other.Seed = 12
	seriesC, _ := runAndExport(other)
	assert.NotEqual(t, seriesA, seriesC)
}

func TestPreset_AbortOnMissedThreshold(t *testing.T) {
	// GIVEN step-surge with an abort threshold of 100 missed jobs
	s, err := Preset("step-surge")
	require.NoError(t, err)
	s.AbortMissedThreshold = 100

	// WHEN run
	summary, _ := runPreset(t, s, nil)

	// THEN the run stops early, shortly after the step
	assert.True(t, summary.Aborted)
	assert.NotEmpty(t, summary.AbortReason)
	assert.Equal(t, int64(101), summary.Missed)
	assert.Greater(t, summary.EndTime, 100.0)
	assert.Less(t, summary.EndTime, 200.0)
	assert.Equal(t, summary.Arrivals, summary.Completed+summary.Missed+summary.InFlight)
}
