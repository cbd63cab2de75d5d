package sim

import "math"

// TicksPerUnit is the number of clock ticks in one model time unit.
// Rates are jobs per unit, durations and the horizon are whole ticks.
const TicksPerUnit = 1_000_000

// Size limits. Their product stays below the int64 range of the capacity
// ledger, which counts box-ticks.
const (
	MaxHorizonUnits = 1_000_000
	MaxHorizon      = MaxHorizonUnits * TicksPerUnit // ticks
	MaxBoxes        = 1_000_000
)

// ToTicks converts model time units to ticks, rounding to the nearest tick.
func ToTicks(units float64) int64 {
	return int64(math.Round(units * TicksPerUnit))
}

// ToUnits converts ticks to model time units.
func ToUnits(ticks int64) float64 {
	return float64(ticks) / TicksPerUnit
}

// AutoscalerConfig groups control-loop parameters.
type AutoscalerConfig struct {
	Enabled     bool    // false = ticks still sample but never resize
	Interval    int64   // tick period in ticks (must be > 0)
	TargetLow   float64 // scale down below this utilization
	TargetMid   float64 // resize target
	TargetHigh  float64 // scale up above this utilization
	Cooldown    int64   // ticks; see Autoscaler for the suppression rule
	MinCapacity int     // never scale below (>= 0)
	MaxCapacity int     // never scale above; 0 = MaxBoxes
}

// Config groups everything NewSimulator needs besides the arrival source.
type Config struct {
	RunID                string
	Horizon              int64   // simulation end time in ticks (must be > 0)
	ServiceDuration      int64   // fixed job latency in ticks (must be > 0)
	InitialCapacity      int     // boxes at t=0
	CostPerBoxPerTime    float64 // price of one box for one time unit
	AbortMissedThreshold int64   // stop once missed jobs exceed this; 0 = never
	Autoscaler           AutoscalerConfig
}

// Validate fails fast with a *ConfigError on structural problems.
func (c Config) Validate() error {
	a := c.Autoscaler
	switch {
	case c.ServiceDuration <= 0:
		return configErrorf("service_duration", "must be positive, got %d ticks", c.ServiceDuration)
	case c.Horizon <= 0:
		return configErrorf("horizon", "must be positive, got %d ticks", c.Horizon)
	case c.Horizon > MaxHorizon:
		return configErrorf("horizon", "must be at most %d ticks, got %d", int64(MaxHorizon), c.Horizon)
	case c.InitialCapacity < 0:
		return configErrorf("initial_capacity", "must be non-negative, got %d", c.InitialCapacity)
	case c.InitialCapacity > MaxBoxes:
		return configErrorf("initial_capacity", "must be at most %d, got %d", MaxBoxes, c.InitialCapacity)
	case a.MinCapacity < 0:
		return configErrorf("min_capacity", "must be non-negative, got %d", a.MinCapacity)
	case a.MinCapacity > c.InitialCapacity:
		return configErrorf("min_capacity", "%d exceeds initial_capacity %d", a.MinCapacity, c.InitialCapacity)
	case a.MaxCapacity < 0:
		return configErrorf("max_capacity", "must be non-negative, got %d", a.MaxCapacity)
	case a.MaxCapacity > MaxBoxes:
		return configErrorf("max_capacity", "must be at most %d, got %d", MaxBoxes, a.MaxCapacity)
	case a.MaxCapacity > 0 && a.MaxCapacity < a.MinCapacity:
		return configErrorf("max_capacity", "%d below min_capacity %d", a.MaxCapacity, a.MinCapacity)
	case c.CostPerBoxPerTime < 0 || math.IsNaN(c.CostPerBoxPerTime):
		return configErrorf("cost_per_box_per_time", "must be non-negative, got %f", c.CostPerBoxPerTime)
	case c.AbortMissedThreshold < 0:
		return configErrorf("abort_missed_threshold", "must be non-negative, got %d", c.AbortMissedThreshold)
	case a.Interval <= 0:
		return configErrorf("autoscaler.interval", "must be positive, got %d ticks", a.Interval)
	case a.Cooldown < 0:
		return configErrorf("autoscaler.cooldown", "must be non-negative, got %d ticks", a.Cooldown)
	case !(a.TargetLow < a.TargetHigh):
		return configErrorf("autoscaler.target_low", "%g must be below target_high %g", a.TargetLow, a.TargetHigh)
	case !(a.TargetLow > 0):
		return configErrorf("autoscaler.target_low", "must be positive, got %g", a.TargetLow)
	case !(a.TargetLow < a.TargetMid && a.TargetMid < a.TargetHigh):
		return configErrorf("autoscaler.target_mid", "%g must lie strictly between %g and %g", a.TargetMid, a.TargetLow, a.TargetHigh)
	}
	return nil
}
