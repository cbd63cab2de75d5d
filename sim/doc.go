// Package sim provides the core discrete-event simulation engine for boxsim,
// a model of a fixed-latency service running on a pool of single-job boxes
// that an autoscaler resizes while load changes.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - boxpool.go: Box lifecycle (idle → busy → idle, busy → draining → removed)
//   - event.go: Event types that drive the simulation (Arrival, Completion, ScaleTick)
//   - simulator.go: The event loop and the arrival and scale-tick handlers
//
// # Time
//
// Simulation time is an int64 tick count; TicksPerUnit ticks make one model
// time unit. Rates are expressed per unit, configuration is converted with
// ToTicks. Events with equal timestamps are ordered completion, arrival,
// scale tick, then by scheduling order, so a box freed at t can serve a job
// arriving at t and the autoscaler sees every event at or before its tick.
//
// # Architecture
//
// The sim package owns the kernel; everything around it lives in
// sub-packages:
//   - sim/workload/: Rate functions and deterministic or Poisson job sources
//   - sim/trace/: Autoscaler decision trace recording and summary
//   - sim/scenario/: YAML scenarios, validation, and presets
//   - sim/export/: Series and summary output (CSV, JSON, Prometheus textfile)
//
// # Key Types
//
//   - Clock: virtual time and the event queue; rejects events in the past
//   - BoxPool: box state machine, backed by the CapacityLedger cost integral
//   - Dispatcher: assigns arrivals to the lowest idle box or counts a miss
//   - Autoscaler: utilization band control loop with cooldown
//   - MetricsCollector: per-interval samples and the final Summary
//   - ArrivalSource: where jobs come from (implemented in sim/workload)
package sim
