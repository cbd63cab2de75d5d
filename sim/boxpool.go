package sim

import (
	"fmt"
	"slices"
	"sort"

	"github.com/sirupsen/logrus"
)

// BoxID identifies a box. IDs are never reused within a run.
type BoxID int

// BoxState is the lifecycle state of a box.
//
//	Idle -> Busy -> Idle          normal service
//	Busy -> Draining -> removed   scale-down of a busy box, removed at completion
//	Idle -> removed               scale-down of an idle box, immediate
type BoxState int

const (
	BoxIdle BoxState = iota
	BoxBusy
	BoxDraining
)

func (s BoxState) String() string {
	switch s {
	case BoxIdle:
		return "idle"
	case BoxBusy:
		return "busy"
	case BoxDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// Box is a unit of capacity serving at most one job at a time.
type Box struct {
	ID        BoxID
	State     BoxState
	Job       *Job  // nil when Idle
	CreatedAt int64 // ticks
}

// BoxPool owns the set of boxes and their lifecycle. Capacity changes only
// through AddBoxes, RemoveBoxes and the final Release of a draining box, and
// each of those first settles the CapacityLedger up to the change.
type BoxPool struct {
	boxes    map[BoxID]*Box
	idle     []BoxID // sorted ascending
	busy     int
	draining int
	nextID   BoxID
	ledger   *CapacityLedger
}

// NewBoxPool creates an empty pool that reports capacity to ledger.
func NewBoxPool(ledger *CapacityLedger) *BoxPool {
	return &BoxPool{
		boxes:  make(map[BoxID]*Box),
		idle:   make([]BoxID, 0),
		ledger: ledger,
	}
}

// Idle returns the number of idle boxes.
func (p *BoxPool) Idle() int { return len(p.idle) }

// Busy returns the number of busy (not draining) boxes.
func (p *BoxPool) Busy() int { return p.busy }

// Draining returns the number of boxes finishing their last job.
func (p *BoxPool) Draining() int { return p.draining }

// Active returns boxes able to take work now or after their current job.
func (p *BoxPool) Active() int { return len(p.idle) + p.busy }

// Provisioned returns every box counted for cost, draining ones included.
func (p *BoxPool) Provisioned() int { return len(p.boxes) }

// Box returns the box with the given ID, or nil.
func (p *BoxPool) Box(id BoxID) *Box { return p.boxes[id] }

// Settle advances the capacity ledger to now without changing capacity.
func (p *BoxPool) Settle(now int64) {
	p.ledger.Advance(now, p.Provisioned())
}

// AddBoxes creates n idle boxes, effective immediately.
func (p *BoxPool) AddBoxes(n int, now int64) []BoxID {
	if n <= 0 {
		return nil
	}
	p.Settle(now)
	ids := make([]BoxID, 0, n)
	for i := 0; i < n; i++ {
		id := p.nextID
		p.nextID++
		p.boxes[id] = &Box{ID: id, State: BoxIdle, CreatedAt: now}
		// new IDs are the largest so far; append keeps idle sorted
		p.idle = append(p.idle, id)
		ids = append(ids, id)
	}
	logrus.Debugf("[tick %09d] added %d boxes (provisioned=%d)", now, n, p.Provisioned())
	return ids
}

// RemoveBoxes takes n boxes out of service. Idle boxes go first, newest
// first, and are removed immediately. Any shortfall marks busy boxes
// Draining, newest first; those stay provisioned until their job completes.
// Requests beyond Active() are clamped. It returns how many boxes were
// removed outright and how many were marked draining.
func (p *BoxPool) RemoveBoxes(n int, now int64) (removed, drained int) {
	if n <= 0 {
		return 0, 0
	}
	if n > p.Active() {
		logrus.Warnf("[tick %09d] remove %d boxes clamped to %d active", now, n, p.Active())
		n = p.Active()
	}
	p.Settle(now)

	for removed < n && len(p.idle) > 0 {
		last := len(p.idle) - 1
		id := p.idle[last]
		p.idle = p.idle[:last]
		delete(p.boxes, id)
		removed++
	}

	if shortfall := n - removed; shortfall > 0 {
		busyIDs := make([]BoxID, 0, p.busy)
		for id, box := range p.boxes {
			if box.State == BoxBusy {
				busyIDs = append(busyIDs, id)
			}
		}
		sort.Slice(busyIDs, func(i, j int) bool { return busyIDs[i] > busyIDs[j] })
		for _, id := range busyIDs[:shortfall] {
			p.boxes[id].State = BoxDraining
			p.busy--
			p.draining++
			drained++
		}
	}
	logrus.Debugf("[tick %09d] removed %d boxes, draining %d (provisioned=%d)", now, removed, drained, p.Provisioned())
	return removed, drained
}

// TryAcquireIdle marks the lowest-ID idle box Busy with job and returns it.
// The second result is false when no idle box is available.
func (p *BoxPool) TryAcquireIdle(job *Job) (*Box, bool) {
	if len(p.idle) == 0 {
		return nil, false
	}
	id := p.idle[0]
	p.idle = p.idle[1:]
	box := p.boxes[id]
	if box.State != BoxIdle || box.Job != nil {
		panic(fmt.Sprintf("box %d in idle set with state %s", id, box.State))
	}
	box.State = BoxBusy
	box.Job = job
	p.busy++
	return box, true
}

// Release ends the job held by box id. A busy box returns to Idle; a
// draining box is removed. removed reports which of the two happened.
func (p *BoxPool) Release(id BoxID, now int64) (removed bool, err error) {
	box, ok := p.boxes[id]
	if !ok {
		return false, fmt.Errorf("release box %d: %w", id, ErrUnknownBox)
	}
	switch box.State {
	case BoxBusy:
		box.State = BoxIdle
		box.Job = nil
		p.busy--
		pos, _ := slices.BinarySearch(p.idle, id)
		p.idle = slices.Insert(p.idle, pos, id)
		return false, nil
	case BoxDraining:
		p.Settle(now)
		delete(p.boxes, id)
		p.draining--
		logrus.Debugf("[tick %09d] drained box %d removed (provisioned=%d)", now, id, p.Provisioned())
		return true, nil
	default:
		return false, fmt.Errorf("release box %d in state %s: %w", id, box.State, ErrBoxState)
	}
}
