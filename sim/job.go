package sim

import "fmt"

// JobID identifies a job within one simulation run.
type JobID int64

// Job is a unit of work with a fixed service duration.
// A Job is immutable once created; it is produced by an ArrivalSource,
// consumed by the Dispatcher, and dropped after completion or a miss.
type Job struct {
	id              JobID
	arrivalTime     int64 // ticks
	serviceDuration int64 // ticks
}

// NewJob creates a job arriving at arrivalTime that occupies a box for
// serviceDuration ticks.
func NewJob(id JobID, arrivalTime, serviceDuration int64) *Job {
	return &Job{id: id, arrivalTime: arrivalTime, serviceDuration: serviceDuration}
}

func (j *Job) ID() JobID              { return j.id }
func (j *Job) ArrivalTime() int64     { return j.arrivalTime }
func (j *Job) ServiceDuration() int64 { return j.serviceDuration }

func (j *Job) String() string {
	return fmt.Sprintf("job_%d", j.id)
}

// ArrivalSource is a lazy, restartable sequence of jobs ordered by strictly
// increasing arrival time. Next returns false once the source is exhausted.
type ArrivalSource interface {
	Next() (*Job, bool)
	Reset()
}
