package sim

import (
	"fmt"
	"math"
)

// CapacityLedger is the running integral of provisioned boxes over time,
// kept in box-ticks so the integral is exact. The pool advances it before
// every capacity change; the total never decreases.
type CapacityLedger struct {
	lastTime int64
	boxTicks int64
}

// Advance accounts for boxes provisioned boxes over [lastTime, now].
// Time going backwards or an int64 overflow is an invariant violation.
func (l *CapacityLedger) Advance(now int64, boxes int) {
	if now < l.lastTime {
		panic(fmt.Sprintf("capacity ledger went backwards: %d < %d", now, l.lastTime))
	}
	if boxes < 0 {
		panic(fmt.Sprintf("capacity ledger given %d boxes", boxes))
	}
	dt := now - l.lastTime
	if boxes > 0 && dt > (math.MaxInt64-l.boxTicks)/int64(boxes) {
		panic(fmt.Sprintf("capacity ledger overflow: %d boxes for %d ticks on top of %d", boxes, dt, l.boxTicks))
	}
	l.boxTicks += int64(boxes) * dt
	l.lastTime = now
}

// BoxTicks returns the integral accumulated so far, in box-ticks.
func (l *CapacityLedger) BoxTicks() int64 { return l.boxTicks }

// BoxTime returns the integral in box × model time units.
func (l *CapacityLedger) BoxTime() float64 {
	return float64(l.boxTicks) / TicksPerUnit
}

// Cost prices the accumulated box time.
func (l *CapacityLedger) Cost(costPerBoxPerTime float64) float64 {
	return l.BoxTime() * costPerBoxPerTime
}

// LastTime returns the tick the ledger was last advanced to.
func (l *CapacityLedger) LastTime() int64 { return l.lastTime }
