package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(boxes int) (*Dispatcher, *Clock, *BoxPool, *MetricsCollector) {
	clock := NewClock()
	ledger := &CapacityLedger{}
	pool := NewBoxPool(ledger)
	pool.AddBoxes(boxes, 0)
	metrics := NewMetricsCollector(ledger, 1)
	return NewDispatcher(clock, pool, metrics), clock, pool, metrics
}

func TestDispatcher_OnArrival_SchedulesCompletion(t *testing.T) {
	// GIVEN one idle box
	d, clock, pool, metrics := newTestDispatcher(1)
	job := NewJob(0, 0, 50)

	// WHEN a job arrives
	require.NoError(t, d.OnArrival(job))

	// THEN the box is busy and its completion is due after the service time
	assert.Equal(t, 1, pool.Busy())
	ev := clock.Peek()
	require.NotNil(t, ev)
	c, ok := ev.(*CompletionEvent)
	require.True(t, ok)
	assert.Equal(t, int64(50), c.Timestamp())
	assert.Same(t, job, c.Job)
	assert.Equal(t, int64(1), metrics.Arrivals())
	assert.Equal(t, int64(0), metrics.Missed())
}

func TestDispatcher_OnArrival_NoIdleBox_Missed(t *testing.T) {
	// GIVEN every box busy
	d, clock, _, metrics := newTestDispatcher(1)
	require.NoError(t, d.OnArrival(NewJob(0, 0, 50)))

	// WHEN another job arrives
	require.NoError(t, d.OnArrival(NewJob(1, 0, 50)))

	// THEN it is missed and nothing new is scheduled
	assert.Equal(t, int64(1), metrics.Missed())
	assert.Equal(t, int64(2), metrics.Arrivals())
	assert.Equal(t, 1, clock.Len())
}

func TestDispatcher_OnCompletion_RecordsLatency(t *testing.T) {
	d, clock, pool, metrics := newTestDispatcher(1)
	job := NewJob(0, 0, 50)
	require.NoError(t, d.OnArrival(job))
	ev, err := clock.Next()
	require.NoError(t, err)
	c := ev.(*CompletionEvent)

	require.NoError(t, d.OnCompletion(c.BoxID, c.Job))

	assert.Equal(t, 1, pool.Idle())
	assert.Equal(t, int64(1), metrics.Completed())
}

func TestDispatcher_OnCompletion_WrongJob(t *testing.T) {
	d, _, _, _ := newTestDispatcher(1)
	require.NoError(t, d.OnArrival(NewJob(0, 0, 50)))

	err := d.OnCompletion(0, NewJob(9, 0, 50))

	assert.True(t, errors.Is(err, ErrBoxState))
}
