package sim

// EventKind tags the variant of an Event. Its numeric value is also the
// tie-break priority for events sharing a timestamp: lower runs first, so
// capacity freed by a completion is visible to an arrival at the same tick,
// and the autoscaler observes both before deciding.
type EventKind int

const (
	KindCompletion EventKind = iota
	KindArrival
	KindScaleTick
)

func (k EventKind) String() string {
	switch k {
	case KindCompletion:
		return "Completion"
	case KindArrival:
		return "Arrival"
	case KindScaleTick:
		return "ScaleTick"
	default:
		return "Unknown"
	}
}

// Event defines the interface for all simulation events.
// Each event has a Timestamp (in ticks), a Kind used for deterministic
// ordering, and an Execute method that advances simulation state.
type Event interface {
	Timestamp() int64
	Kind() EventKind
	Execute(*Simulator) error
}

// ArrivalEvent represents a job arriving at the system.
type ArrivalEvent struct {
	time int64
	Job  *Job
}

// NewArrivalEvent builds an arrival for job at its own arrival time.
func NewArrivalEvent(job *Job) *ArrivalEvent {
	return &ArrivalEvent{time: job.ArrivalTime(), Job: job}
}

func (e *ArrivalEvent) Timestamp() int64 { return e.time }
func (e *ArrivalEvent) Kind() EventKind  { return KindArrival }

// Execute dispatches the job and pulls the next arrival from the source.
func (e *ArrivalEvent) Execute(sim *Simulator) error {
	return sim.handleArrival(e.Job)
}

// CompletionEvent represents a box finishing the job it holds.
type CompletionEvent struct {
	time  int64
	BoxID BoxID
	Job   *Job
}

func (e *CompletionEvent) Timestamp() int64 { return e.time }
func (e *CompletionEvent) Kind() EventKind  { return KindCompletion }

// Execute returns the box to the pool, or removes it if it was draining.
func (e *CompletionEvent) Execute(sim *Simulator) error {
	return sim.dispatcher.OnCompletion(e.BoxID, e.Job)
}

// ScaleTickEvent is the periodic autoscaler and sampling tick.
type ScaleTickEvent struct {
	time int64
}

func (e *ScaleTickEvent) Timestamp() int64 { return e.time }
func (e *ScaleTickEvent) Kind() EventKind  { return KindScaleTick }

// Execute runs one control-loop iteration and records a sample.
func (e *ScaleTickEvent) Execute(sim *Simulator) error {
	return sim.handleScaleTick(e.time)
}
