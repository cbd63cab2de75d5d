package export

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/afero"

	"github.com/boxsim/boxsim/sim"
)

const namespace = "boxsim"

// SummaryMetrics holds the Prometheus view of one run summary, registered
// on its own registry so repeated runs never collide.
type SummaryMetrics struct {
	Registry *prometheus.Registry

	Arrivals       prometheus.Counter
	Completed      prometheus.Counter
	Missed         prometheus.Counter
	InFlight       prometheus.Gauge
	Utilization    *prometheus.GaugeVec // by statistic: mean, p50, p95, min, max
	PeakCapacity   prometheus.Gauge
	FinalCapacity  prometheus.Gauge
	BoxTime        prometheus.Gauge
	Cost           prometheus.Gauge
	Throughput     prometheus.Gauge
	MeanLatency    prometheus.Gauge
	ScaleDecisions *prometheus.CounterVec // by outcome: scale_up, scale_down, suppressed
	Aborted        prometheus.Gauge
	EndTime        prometheus.Gauge
}

// NewSummaryMetrics builds and registers the summary metrics, labelled
// with the run ID, and sets them from s.
func NewSummaryMetrics(s *sim.Summary) (*SummaryMetrics, error) {
	labels := prometheus.Labels{"run_id": s.RunID}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: name, Help: help, ConstLabels: labels,
		})
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: name, Help: help, ConstLabels: labels,
		})
	}

	m := &SummaryMetrics{
		Registry:      prometheus.NewRegistry(),
		Arrivals:      counter("jobs_arrived_total", "Jobs that arrived during the run"),
		Completed:     counter("jobs_completed_total", "Jobs that finished service before the run ended"),
		Missed:        counter("jobs_missed_total", "Jobs that found no idle box"),
		InFlight:      gauge("jobs_in_flight", "Jobs still in service when the run ended"),
		PeakCapacity:  gauge("capacity_peak_boxes", "Largest provisioned box count"),
		FinalCapacity: gauge("capacity_final_boxes", "Provisioned box count at the end of the run"),
		BoxTime:       gauge("box_time", "Integral of provisioned boxes over model time"),
		Cost:          gauge("cost_total", "Box time priced at the configured rate"),
		Throughput:    gauge("throughput_achieved", "Completed jobs per unit of model time"),
		MeanLatency:   gauge("latency_mean", "Mean realized job latency in model time units"),
		Aborted:       gauge("aborted", "1 if the run stopped on the missed-job threshold"),
		EndTime:       gauge("end_time", "Model time at which the run ended"),
		Utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "utilization", Help: "Utilization observed at scale ticks",
			ConstLabels: labels,
		}, []string{"statistic"}),
		ScaleDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "scale_decisions_total", Help: "Autoscaler decisions by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
	}

	collectors := []prometheus.Collector{
		m.Arrivals, m.Completed, m.Missed, m.InFlight, m.Utilization, m.PeakCapacity,
		m.FinalCapacity, m.BoxTime, m.Cost, m.Throughput, m.MeanLatency, m.ScaleDecisions,
		m.Aborted, m.EndTime,
	}
	for _, c := range collectors {
		if err := m.Registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering summary metric: %w", err)
		}
	}

	m.Arrivals.Add(float64(s.Arrivals))
	m.Completed.Add(float64(s.Completed))
	m.Missed.Add(float64(s.Missed))
	m.InFlight.Set(float64(s.InFlight))
	m.Utilization.WithLabelValues("mean").Set(s.Utilization.Mean)
	m.Utilization.WithLabelValues("p50").Set(s.Utilization.P50)
	m.Utilization.WithLabelValues("p95").Set(s.Utilization.P95)
	m.Utilization.WithLabelValues("min").Set(s.Utilization.Min)
	m.Utilization.WithLabelValues("max").Set(s.Utilization.Max)
	m.PeakCapacity.Set(float64(s.PeakCapacity))
	m.FinalCapacity.Set(float64(s.FinalCapacity))
	m.BoxTime.Set(s.BoxTime)
	m.Cost.Set(s.TotalCost)
	m.Throughput.Set(s.AchievedThroughput)
	m.MeanLatency.Set(s.MeanLatency)
	m.ScaleDecisions.WithLabelValues(sim.ActionScaleUp.String()).Add(float64(s.ScaleUps))
	m.ScaleDecisions.WithLabelValues(sim.ActionScaleDown.String()).Add(float64(s.ScaleDowns))
	m.ScaleDecisions.WithLabelValues("suppressed").Add(float64(s.Suppressed))
	if s.Aborted {
		m.Aborted.Set(1)
	}
	m.EndTime.Set(s.EndTime)
	return m, nil
}

// WriteText writes every registered metric in the Prometheus text
// exposition format, sorted by name.
func (m *SummaryMetrics) WriteText(w io.Writer) error {
	families, err := m.Registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// SaveTextfile writes the summary metrics to path, for the node exporter
// textfile collector or any scraper that reads exposition files.
func SaveTextfile(fs afero.Fs, path string, s *sim.Summary) error {
	m, err := NewSummaryMetrics(s)
	if err != nil {
		return err
	}
	return saveFile(fs, path, m.WriteText)
}
