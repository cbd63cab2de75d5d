package sim

import (
	"fmt"
	"math"
)

// ScaleAction is the outcome of one autoscaler evaluation.
type ScaleAction string

const (
	ActionScaleUp   ScaleAction = "scale_up"
	ActionScaleDown ScaleAction = "scale_down"
	ActionNone      ScaleAction = "none"
)

func (a ScaleAction) String() string { return string(a) }

// sign is +1 for scale-up, -1 for scale-down, 0 otherwise.
func (a ScaleAction) sign() int {
	switch a {
	case ActionScaleUp:
		return 1
	case ActionScaleDown:
		return -1
	default:
		return 0
	}
}

// Decision is the result of evaluating the utilization band against the
// observed job rate and current capacity.
type Decision struct {
	Time        int64       // ticks
	Action      ScaleAction // ActionNone for holds and suppressed actions
	Delta       int         // boxes to add (positive) or remove (negative)
	Capacity    int         // active boxes when observed
	Desired     int         // capacity that brings utilization to TargetMid
	JobRate     float64     // estimated arrivals per unit time
	Throughput  float64     // Capacity / service duration
	Utilization float64     // JobRate / Throughput
	Suppressed  bool        // an action was wanted but the cooldown blocked it
	Reason      string
}

// Autoscaler is the periodic control loop. It keeps utilization inside
// [TargetLow, TargetHigh] by resizing toward TargetMid.
//
// Cooldown: while now-lastActionTime < Cooldown, an action whose sign is
// opposite to the last applied action is suppressed. Consecutive actions in
// the same direction go through.
type Autoscaler struct {
	cfg             AutoscalerConfig
	serviceDuration int64

	lastAction     ScaleAction
	lastActionTime int64
}

// NewAutoscaler creates an autoscaler for jobs of the given service duration.
func NewAutoscaler(cfg AutoscalerConfig, serviceDuration int64) *Autoscaler {
	return &Autoscaler{
		cfg:             cfg,
		serviceDuration: serviceDuration,
		lastAction:      ActionNone,
	}
}

// Evaluate estimates the job rate from arrivals seen over the last interval
// and returns the scaling decision for a pool of active boxes. A returned
// scale action is considered applied: it starts the cooldown window.
func (a *Autoscaler) Evaluate(now int64, arrivals int64, active int) Decision {
	intervalUnits := float64(a.cfg.Interval) / TicksPerUnit
	serviceUnits := float64(a.serviceDuration) / TicksPerUnit

	d := Decision{
		Time:     now,
		Action:   ActionNone,
		Capacity: active,
		JobRate:  float64(arrivals) / intervalUnits,
	}
	d.Throughput = float64(active) / serviceUnits
	d.Utilization = utilization(d.JobRate, d.Throughput)
	d.Desired = a.desiredCapacity(d.JobRate, serviceUnits)

	if !a.cfg.Enabled {
		d.Desired = active
		d.Reason = "autoscaler disabled"
		return d
	}

	var want ScaleAction
	switch {
	case d.Utilization > a.cfg.TargetHigh && d.Desired > active:
		want = ActionScaleUp
		d.Reason = fmt.Sprintf("utilization %.3f above %.3f", d.Utilization, a.cfg.TargetHigh)
	case d.Utilization < a.cfg.TargetLow && d.Desired < active:
		want = ActionScaleDown
		d.Reason = fmt.Sprintf("utilization %.3f below %.3f", d.Utilization, a.cfg.TargetLow)
	default:
		d.Desired = active
		d.Reason = "within band or at capacity limit"
		return d
	}

	if a.inCooldown(now, want) {
		d.Suppressed = true
		d.Desired = active
		d.Reason = fmt.Sprintf("%s suppressed: %s at tick %d within cooldown", want, a.lastAction, a.lastActionTime)
		return d
	}

	d.Action = want
	d.Delta = d.Desired - active
	a.lastAction = want
	a.lastActionTime = now
	return d
}

func (a *Autoscaler) inCooldown(now int64, want ScaleAction) bool {
	if a.lastAction == ActionNone || now-a.lastActionTime >= a.cfg.Cooldown {
		return false
	}
	return want.sign() != a.lastAction.sign()
}

// desiredCapacity is the box count putting rate at TargetMid, clamped to
// [MinCapacity, MaxCapacity], or to MaxBoxes when there is no ceiling.
func (a *Autoscaler) desiredCapacity(rate, serviceUnits float64) int {
	// small epsilon keeps exact products (5 * 1 / 0.5) from rounding up
	want := math.Ceil(rate*serviceUnits/a.cfg.TargetMid - 1e-9)
	if want > MaxBoxes {
		want = MaxBoxes
	}
	desired := int(want)
	if desired < a.cfg.MinCapacity {
		desired = a.cfg.MinCapacity
	}
	ceiling := a.cfg.MaxCapacity
	if ceiling == 0 {
		ceiling = MaxBoxes
	}
	if desired > ceiling {
		desired = ceiling
	}
	return desired
}

// utilization is rate/throughput, +Inf for demand with no capacity and 0 when
// both are zero.
func utilization(rate, throughput float64) float64 {
	if throughput <= 0 {
		if rate > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return rate / throughput
}
