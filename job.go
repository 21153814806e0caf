package rjq

// Status is the lifecycle state of a job. Transitions are monotonic:
// QUEUED -> RUNNING -> one of {FINISHED, FAILED, LOST}. Terminal states
// never transition further; they only age out of the store.
type Status string

const (
	// StatusQueued means the job is enqueued and not yet picked up.
	StatusQueued Status = "QUEUED"
	// StatusRunning means a worker is executing the job.
	StatusRunning Status = "RUNNING"
	// StatusLost means the job outran its timeout and was abandoned.
	StatusLost Status = "LOST"
	// StatusFinished means the job completed and a result was stored.
	StatusFinished Status = "FINISHED"
	// StatusFailed means the job's function returned an error.
	StatusFailed Status = "FAILED"
)

// Job is one unit of work. UUID and Args are immutable after enqueue;
// Status is advanced by the single worker that dequeues the job.
type Job struct {
	UUID   string   `json:"uuid"`
	Args   []string `json:"args"`
	Status Status   `json:"status"`
}
