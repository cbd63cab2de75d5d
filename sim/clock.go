package sim

import "container/heap"

// Clock owns simulation time and the pending event queue.
// Time only moves forward: it is advanced by Next to the timestamp of the
// event being dispatched, and Schedule refuses events in the past.
//
// Thread-safety: NOT thread-safe. Events are processed one at a time.
type Clock struct {
	now       int64
	queue     EventQueue
	nextSeqID int64
	ended     bool
}

// NewClock creates a clock at tick 0 with an empty queue.
func NewClock() *Clock {
	c := &Clock{queue: make(EventQueue, 0)}
	heap.Init(&c.queue)
	return c
}

// Now returns the current simulation time in ticks.
func (c *Clock) Now() int64 { return c.now }

// Len returns the number of pending events.
func (c *Clock) Len() int { return c.queue.Len() }

// Schedule inserts ev in O(log n). An event timestamped before the current
// clock is rejected with a *CausalityError; the same tick is allowed.
func (c *Clock) Schedule(ev Event) error {
	if ev.Timestamp() < c.now {
		return &CausalityError{Kind: ev.Kind(), At: ev.Timestamp(), Clock: c.now}
	}
	c.nextSeqID++
	heap.Push(&c.queue, eventEntry{event: ev, seqID: c.nextSeqID})
	return nil
}

// Peek returns the earliest pending event without removing it, or nil.
func (c *Clock) Peek() Event {
	if c.queue.Len() == 0 {
		return nil
	}
	return c.queue[0].event
}

// Next pops the earliest event and advances the clock to its timestamp.
// It returns ErrSimulationEnded after Stop, and a *EmptyQueueError when
// nothing is pending.
func (c *Clock) Next() (Event, error) {
	if c.ended {
		return nil, ErrSimulationEnded
	}
	if c.queue.Len() == 0 {
		return nil, &EmptyQueueError{Clock: c.now, Horizon: -1}
	}
	entry := heap.Pop(&c.queue).(eventEntry)
	c.now = entry.event.Timestamp()
	return entry.event, nil
}

// Stop ends the simulation explicitly. Pending events stay queued but are
// never dispatched.
func (c *Clock) Stop() { c.ended = true }

// Ended reports whether Stop has been called.
func (c *Clock) Ended() bool { return c.ended }
