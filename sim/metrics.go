// Tracks arrivals, completions, missed jobs, utilization and running cost,
// and turns them into the sample series and the final Summary.

package sim

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sample is one reporting-interval observation. Utilization, JobRate and
// Throughput are what the autoscaler observed at T; Capacity is the
// provisioned count after any scale action at T. MissedCount and Cost are
// cumulative.
type Sample struct {
	T           float64 `json:"t"`
	Throughput  float64 `json:"throughput"`
	Utilization float64 `json:"utilization"`
	JobRate     float64 `json:"job_rate"`
	Capacity    int     `json:"capacity"`
	MissedCount int64   `json:"missed"`
	Cost        float64 `json:"cost"`
}

// Distribution captures a statistical summary of a series.
type Distribution struct {
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// NewDistribution summarizes the finite values of values.
// Returns a zero-value Distribution when none are finite.
func NewDistribution(values []float64) Distribution {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return Distribution{}
	}
	sort.Float64s(finite)
	return Distribution{
		Mean:  stat.Mean(finite, nil),
		P50:   stat.Quantile(0.50, stat.Empirical, finite, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, finite, nil),
		Min:   floats.Min(finite),
		Max:   floats.Max(finite),
		Count: len(finite),
	}
}

// Summary is the read-only result of a finished run.
type Summary struct {
	RunID              string       `json:"run_id,omitempty"`
	EndTime            float64      `json:"end_time"`
	Arrivals           int64        `json:"arrivals"`
	Completed          int64        `json:"completed"`
	Missed             int64        `json:"missed"`
	InFlight           int64        `json:"in_flight"`
	AvgUtilization     float64      `json:"avg_utilization"`
	Utilization        Distribution `json:"utilization"`
	PeakCapacity       int          `json:"peak_capacity"`
	FinalCapacity      int          `json:"final_capacity"`
	BoxTime            float64      `json:"box_time"`
	TotalCost          float64      `json:"total_cost"`
	AchievedThroughput float64      `json:"achieved_throughput"`
	MeanLatency        float64      `json:"mean_latency"`
	ScaleUps           int          `json:"scale_ups"`
	ScaleDowns         int          `json:"scale_downs"`
	Suppressed         int          `json:"suppressed"`
	Aborted            bool         `json:"aborted"`
	AbortReason        string       `json:"abort_reason,omitempty"`
}

// MetricsCollector aggregates per-interval and whole-run statistics.
// Recording after Finalize is an invariant violation and panics.
type MetricsCollector struct {
	costPerBoxPerTime float64
	ledger            *CapacityLedger

	arrivals       int64
	completed      int64
	missed         int64
	started        int64
	windowArrivals int64
	latencySum     int64 // ticks

	scaleUps   int
	scaleDowns int
	suppressed int

	peakCapacity int
	samples      []Sample

	summary *Summary
}

// NewMetricsCollector creates a collector pricing box time from ledger.
func NewMetricsCollector(ledger *CapacityLedger, costPerBoxPerTime float64) *MetricsCollector {
	return &MetricsCollector{
		costPerBoxPerTime: costPerBoxPerTime,
		ledger:            ledger,
		samples:           make([]Sample, 0),
	}
}

func (m *MetricsCollector) mustBeOpen() {
	if m.summary != nil {
		panic("metrics: record after finalize")
	}
}

// RecordArrival counts an arrival in the run total and the current window.
func (m *MetricsCollector) RecordArrival() {
	m.mustBeOpen()
	m.arrivals++
	m.windowArrivals++
}

// RecordMissed counts a job that found no idle box.
func (m *MetricsCollector) RecordMissed() {
	m.mustBeOpen()
	m.missed++
}

// RecordStart counts a job that entered service.
func (m *MetricsCollector) RecordStart() {
	m.mustBeOpen()
	m.started++
}

// RecordCompletion counts a finished job and its realized latency in ticks.
func (m *MetricsCollector) RecordCompletion(latency int64) {
	m.mustBeOpen()
	m.completed++
	m.latencySum += latency
}

// RecordDecision tallies an autoscaler decision.
func (m *MetricsCollector) RecordDecision(d Decision) {
	m.mustBeOpen()
	switch d.Action {
	case ActionScaleUp:
		m.scaleUps++
	case ActionScaleDown:
		m.scaleDowns++
	}
	if d.Suppressed {
		m.suppressed++
	}
}

// TakeWindowArrivals returns the arrivals since the previous call and
// starts a new window.
func (m *MetricsCollector) TakeWindowArrivals() int64 {
	n := m.windowArrivals
	m.windowArrivals = 0
	return n
}

// RecordSample appends a sample for a decision taken at now, with capacity
// provisioned after it. The ledger must already be settled to now.
func (m *MetricsCollector) RecordSample(d Decision, capacity int) {
	m.mustBeOpen()
	m.ObserveCapacity(capacity)
	m.samples = append(m.samples, Sample{
		T:           float64(d.Time) / TicksPerUnit,
		Throughput:  d.Throughput,
		Utilization: d.Utilization,
		JobRate:     d.JobRate,
		Capacity:    capacity,
		MissedCount: m.missed,
		Cost:        m.ledger.Cost(m.costPerBoxPerTime),
	})
}

// ObserveCapacity tracks the peak provisioned capacity.
func (m *MetricsCollector) ObserveCapacity(capacity int) {
	if capacity > m.peakCapacity {
		m.peakCapacity = capacity
	}
}

// Arrivals returns the arrival count so far.
func (m *MetricsCollector) Arrivals() int64 { return m.arrivals }

// Missed returns the missed-job count so far.
func (m *MetricsCollector) Missed() int64 { return m.missed }

// Completed returns the completed-job count so far.
func (m *MetricsCollector) Completed() int64 { return m.completed }

// Samples returns the recorded series. Callers must not modify it.
func (m *MetricsCollector) Samples() []Sample { return m.samples }

// Finalize freezes the collector and returns the run summary. The ledger
// must be settled to end. Later calls return the same summary.
func (m *MetricsCollector) Finalize(end int64, finalCapacity int) *Summary {
	if m.summary != nil {
		return m.summary
	}
	utils := make([]float64, len(m.samples))
	for i, s := range m.samples {
		utils[i] = s.Utilization
	}
	dist := NewDistribution(utils)
	endUnits := float64(end) / TicksPerUnit

	s := &Summary{
		EndTime:        endUnits,
		Arrivals:       m.arrivals,
		Completed:      m.completed,
		Missed:         m.missed,
		InFlight:       m.arrivals - m.completed - m.missed,
		AvgUtilization: dist.Mean,
		Utilization:    dist,
		PeakCapacity:   m.peakCapacity,
		FinalCapacity:  finalCapacity,
		BoxTime:        m.ledger.BoxTime(),
		TotalCost:      m.ledger.Cost(m.costPerBoxPerTime),
		ScaleUps:       m.scaleUps,
		ScaleDowns:     m.scaleDowns,
		Suppressed:     m.suppressed,
	}
	if endUnits > 0 {
		s.AchievedThroughput = float64(m.completed) / endUnits
	}
	if m.completed > 0 {
		s.MeanLatency = float64(m.latencySum) / float64(m.completed) / TicksPerUnit
	}
	m.summary = s
	return s
}
