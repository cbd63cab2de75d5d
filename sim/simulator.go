// sim/simulator.go
package sim

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/boxsim/boxsim/sim/trace"
)

// Simulator is the core object that holds simulation time, system state, and the event loop.
// Events are processed strictly one at a time; nothing here is safe for
// concurrent use, and nothing needs to be.
type Simulator struct {
	cfg Config

	clock      *Clock
	ledger     *CapacityLedger
	pool       *BoxPool
	metrics    *MetricsCollector
	dispatcher *Dispatcher
	autoscaler *Autoscaler
	source     ArrivalSource
	trace      *trace.SimulationTrace

	started     bool
	aborted     bool
	abortReason string
	summary     *Summary
}

// NewSimulator validates cfg and builds a simulator fed by source.
// tr may be nil to disable decision tracing.
func NewSimulator(cfg Config, source ArrivalSource, tr *trace.SimulationTrace) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, configErrorf("arrival_source", "must not be nil")
	}

	clock := NewClock()
	ledger := &CapacityLedger{}
	pool := NewBoxPool(ledger)
	metrics := NewMetricsCollector(ledger, cfg.CostPerBoxPerTime)

	s := &Simulator{
		cfg:        cfg,
		clock:      clock,
		ledger:     ledger,
		pool:       pool,
		metrics:    metrics,
		dispatcher: NewDispatcher(clock, pool, metrics),
		autoscaler: NewAutoscaler(cfg.Autoscaler, cfg.ServiceDuration),
		source:     source,
		trace:      tr,
	}
	pool.AddBoxes(cfg.InitialCapacity, 0)
	metrics.ObserveCapacity(pool.Provisioned())
	return s, nil
}

func (s *Simulator) Clock() *Clock                 { return s.clock }
func (s *Simulator) Pool() *BoxPool                { return s.pool }
func (s *Simulator) Metrics() *MetricsCollector    { return s.metrics }
func (s *Simulator) Trace() *trace.SimulationTrace { return s.trace }
func (s *Simulator) Config() Config                { return s.cfg }

// Run processes events until the horizon, an abort, or ctx cancellation,
// then finalizes and returns the summary. A simulator runs once; a second
// call returns ErrSimulationEnded.
func (s *Simulator) Run(ctx context.Context) (*Summary, error) {
	if s.started {
		return nil, ErrSimulationEnded
	}
	s.started = true

	if err := s.scheduleNextArrival(); err != nil {
		return nil, err
	}
	if err := s.clock.Schedule(&ScaleTickEvent{time: s.cfg.Autoscaler.Interval}); err != nil {
		return nil, err
	}

	for !s.clock.Ended() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation cancelled at tick %d: %w", s.clock.Now(), err)
		}
		next := s.clock.Peek()
		if next == nil {
			if s.clock.Now() < s.cfg.Horizon {
				return nil, &EmptyQueueError{Clock: s.clock.Now(), Horizon: s.cfg.Horizon}
			}
			break
		}
		if next.Timestamp() > s.cfg.Horizon {
			break
		}
		ev, err := s.clock.Next()
		if err != nil {
			return nil, err
		}
		logrus.Tracef("[tick %09d] Executing %s", s.clock.Now(), ev.Kind())
		if err := ev.Execute(s); err != nil {
			return nil, fmt.Errorf("tick %d: %s: %w", s.clock.Now(), ev.Kind(), err)
		}
	}

	end := s.cfg.Horizon
	if s.aborted {
		end = s.clock.Now()
	}
	s.pool.Settle(end)
	s.clock.Stop()

	s.summary = s.metrics.Finalize(end, s.pool.Provisioned())
	s.summary.RunID = s.cfg.RunID
	s.summary.Aborted = s.aborted
	s.summary.AbortReason = s.abortReason
	if inService := int64(s.pool.Busy() + s.pool.Draining()); inService != s.summary.InFlight {
		return nil, fmt.Errorf("job accounting: %d in flight but %d boxes in service: %w", s.summary.InFlight, inService, ErrBoxState)
	}
	logrus.Infof("[tick %09d] Simulation ended: arrivals=%d completed=%d missed=%d cost=%.3f",
		end, s.summary.Arrivals, s.summary.Completed, s.summary.Missed, s.summary.TotalCost)
	return s.summary, nil
}

// Summary returns the finalized summary, or nil before Run completes.
func (s *Simulator) Summary() *Summary { return s.summary }

// Samples returns the reporting series recorded so far.
func (s *Simulator) Samples() []Sample { return s.metrics.Samples() }

func (s *Simulator) scheduleNextArrival() error {
	job, ok := s.source.Next()
	if !ok {
		return nil
	}
	if job.ArrivalTime() > s.cfg.Horizon {
		return nil
	}
	return s.clock.Schedule(NewArrivalEvent(job))
}

func (s *Simulator) handleArrival(job *Job) error {
	if err := s.dispatcher.OnArrival(job); err != nil {
		return err
	}
	if err := s.scheduleNextArrival(); err != nil {
		return err
	}
	if t := s.cfg.AbortMissedThreshold; t > 0 && s.metrics.Missed() > t {
		s.aborted = true
		s.abortReason = fmt.Sprintf("missed jobs %d exceeded threshold %d", s.metrics.Missed(), t)
		logrus.Warnf("[tick %09d] aborting: %s", s.clock.Now(), s.abortReason)
		s.clock.Stop()
	}
	return nil
}

func (s *Simulator) handleScaleTick(now int64) error {
	arrivals := s.metrics.TakeWindowArrivals()
	d := s.autoscaler.Evaluate(now, arrivals, s.pool.Active())

	switch d.Action {
	case ActionScaleUp:
		s.pool.AddBoxes(d.Delta, now)
		logrus.Infof("[tick %09d] scale up +%d -> %d active: %s", now, d.Delta, s.pool.Active(), d.Reason)
	case ActionScaleDown:
		removed, drained := s.pool.RemoveBoxes(-d.Delta, now)
		logrus.Infof("[tick %09d] scale down -%d (removed=%d draining=%d) -> %d active: %s",
			now, -d.Delta, removed, drained, s.pool.Active(), d.Reason)
	}
	s.pool.Settle(now)

	a := s.cfg.Autoscaler
	s.trace.RecordScale(trace.ScaleRecord{
		Clock:       now,
		Action:      d.Action.String(),
		Delta:       d.Delta,
		Capacity:    d.Capacity,
		Desired:     d.Desired,
		Provisioned: s.pool.Provisioned(),
		JobRate:     d.JobRate,
		Utilization: d.Utilization,
		InBand:      d.Utilization >= a.TargetLow && d.Utilization <= a.TargetHigh,
		Suppressed:  d.Suppressed,
		Reason:      d.Reason,
	})
	s.metrics.RecordDecision(d)
	s.metrics.RecordSample(d, s.pool.Provisioned())

	return s.clock.Schedule(&ScaleTickEvent{time: now + a.Interval})
}
