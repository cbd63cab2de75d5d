package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Dispatcher matches arriving jobs to idle boxes. There is no queue: a job
// that finds no idle box is missed, which is a terminal outcome.
type Dispatcher struct {
	clock   *Clock
	pool    *BoxPool
	metrics *MetricsCollector
}

// NewDispatcher wires a dispatcher to the clock, pool and collector it drives.
func NewDispatcher(clock *Clock, pool *BoxPool, metrics *MetricsCollector) *Dispatcher {
	return &Dispatcher{clock: clock, pool: pool, metrics: metrics}
}

// OnArrival assigns job to an idle box and schedules its completion, or
// records it as missed.
func (d *Dispatcher) OnArrival(job *Job) error {
	now := d.clock.Now()
	d.metrics.RecordArrival()

	box, ok := d.pool.TryAcquireIdle(job)
	if !ok {
		d.metrics.RecordMissed()
		logrus.Debugf("[tick %09d] %s missed: no idle box (busy=%d draining=%d)", now, job, d.pool.Busy(), d.pool.Draining())
		return nil
	}

	if err := d.clock.Schedule(&CompletionEvent{
		time:  now + job.ServiceDuration(),
		BoxID: box.ID,
		Job:   job,
	}); err != nil {
		return fmt.Errorf("dispatch %s to box %d: %w", job, box.ID, err)
	}
	d.metrics.RecordStart()
	logrus.Debugf("[tick %09d] %s -> box %d", now, job, box.ID)
	return nil
}

// OnCompletion releases the box holding job and records the realized latency.
func (d *Dispatcher) OnCompletion(id BoxID, job *Job) error {
	now := d.clock.Now()
	box := d.pool.Box(id)
	if box == nil || box.Job != job {
		return fmt.Errorf("complete %s on box %d: %w", job, id, ErrBoxState)
	}
	if _, err := d.pool.Release(id, now); err != nil {
		return fmt.Errorf("complete %s: %w", job, err)
	}
	d.metrics.RecordCompletion(now - job.ArrivalTime())
	return nil
}
