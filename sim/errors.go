package sim

import (
	"errors"
	"fmt"
)

// Sentinel errors. The typed errors below unwrap to these so callers can
// branch with errors.Is without caring about the detail fields.
var (
	ErrCausality       = errors.New("causality violation")
	ErrEmptyQueue      = errors.New("event queue empty before horizon")
	ErrConfig          = errors.New("invalid configuration")
	ErrSimulationEnded = errors.New("simulation ended")
	ErrUnknownBox      = errors.New("unknown box")
	ErrBoxState        = errors.New("illegal box state transition")
)

// CausalityError reports an event scheduled before the current clock.
// It always indicates a logic bug and is never retried.
type CausalityError struct {
	Kind  EventKind
	At    int64 // requested timestamp (ticks)
	Clock int64 // clock at scheduling time (ticks)
}

func (e *CausalityError) Error() string {
	return fmt.Sprintf("%s event scheduled at tick %d, before clock %d", e.Kind, e.At, e.Clock)
}

func (e *CausalityError) Unwrap() error { return ErrCausality }

// EmptyQueueError reports that no events remain although the horizon
// has not been reached and the simulation was not explicitly stopped.
type EmptyQueueError struct {
	Clock   int64
	Horizon int64
}

func (e *EmptyQueueError) Error() string {
	if e.Horizon < 0 {
		return fmt.Sprintf("no pending events at tick %d", e.Clock)
	}
	return fmt.Sprintf("no pending events at tick %d (horizon %d)", e.Clock, e.Horizon)
}

func (e *EmptyQueueError) Unwrap() error { return ErrEmptyQueue }

// ConfigError reports a configuration value rejected before the run starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
