package rjq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// WorkerFunc is the caller-supplied unit of work. The engine treats it as
// opaque: it is run on its own goroutine, raced against the job's timeout
// and observed only through its return. ctx is cancelled when the deadline
// elapses; honoring that cancellation is the function's responsibility.
type WorkerFunc func(ctx context.Context, id string, args []string) (string, error)

// WorkOptions tune one Work loop.
type WorkOptions struct {
	// Wait bounds each blocking pop on the dispatch list. In one-shot mode
	// an empty pop ends the loop; in infinite mode it just repeats.
	Wait time.Duration

	// Timeout is the wall-clock budget for the function. A job still
	// running when it elapses is marked LOST and abandoned.
	Timeout time.Duration

	// Freq is how many times per second the supervisor refreshes the
	// RUNNING record's expiry while the function runs, so a long job never
	// silently vanishes from the store mid-execution.
	Freq int

	// Expire is the TTL of the terminal status and result writes.
	Expire time.Duration

	// Fall escalates a LOST job into an ErrJobLost return from Work,
	// ending the loop so a process supervisor can restart a clean worker.
	Fall bool

	// Infinite repeats the dequeue-execute-finalize cycle until the
	// context is cancelled (or Fall triggers); otherwise Work performs at
	// most one cycle.
	Infinite bool
}

func (o WorkOptions) withDefaults() WorkOptions {
	if o.Wait <= 0 {
		o.Wait = time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Freq <= 0 {
		o.Freq = 10
	}
	if o.Expire <= 0 {
		o.Expire = 30 * time.Second
	}
	return o
}

// outcome is the terminal state of one supervised execution.
type outcome struct {
	status Status
	result string
}

// Work dequeues and executes jobs. Each cycle pops one UUID from the
// dispatch list, marks the job RUNNING, runs fn under the timeout and
// writes the terminal status (and, on success, the result). The store's
// atomic pop guarantees each job reaches exactly one worker, so any number
// of Work loops may run concurrently against the same queue.
//
// Work returns nil on a clean stop: context cancellation, or an empty pop
// or already-expired job in one-shot mode. Store failures and, with Fall
// set, ErrJobLost end the loop with an error.
func (q *Queue) Work(ctx context.Context, opts WorkOptions, fn WorkerFunc) error {
	opts = opts.withDefaults()
	for {
		if err := q.runOne(ctx, opts, fn); err != nil {
			return err
		}
		if !opts.Infinite || ctx.Err() != nil {
			return nil
		}
	}
}

// runOne performs a single dequeue-execute-finalize cycle.
func (q *Queue) runOne(ctx context.Context, opts WorkOptions, fn WorkerFunc) error {
	id, err := q.store.BlockingPop(ctx, q.listKey(), opts.Wait)
	if err != nil {
		if errors.Is(err, ErrNotFound) || ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("pop job: %w", err)
	}

	raw, err := q.store.Get(ctx, q.jobKey(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Record expired between enqueue and pickup.
			q.log.Warn("job expired before pickup", "uuid", id)
			return nil
		}
		return fmt.Errorf("load job %s: %w", id, err)
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return fmt.Errorf("decode job %s: %w", id, err)
	}

	// The RUNNING record must outlive the whole execution window plus the
	// terminal write, hence Timeout+Expire.
	job.Status = StatusRunning
	if err := q.writeJob(ctx, &job, opts.Timeout+opts.Expire); err != nil {
		return err
	}
	q.log.Debug("job running", "uuid", job.UUID)

	out := q.supervise(ctx, &job, opts, fn)

	if out.status == StatusFinished {
		// Result first, so a FINISHED status is never observed without it.
		if err := q.store.Set(ctx, q.resultKey(job.UUID), out.result, opts.Expire); err != nil {
			return fmt.Errorf("write result %s: %w", job.UUID, err)
		}
	}
	job.Status = out.status
	if err := q.writeJob(ctx, &job, opts.Expire); err != nil {
		return err
	}
	q.log.Info("job finalized", "uuid", job.UUID, "status", job.Status)

	if opts.Fall && job.Status == StatusLost {
		return ErrJobLost
	}
	return nil
}

// supervise races the function against the timeout. The function runs on
// its own goroutine and reports through a buffered channel so it can
// finish (and be collected) even after the deadline has abandoned it.
func (q *Queue) supervise(ctx context.Context, job *Job, opts WorkOptions, fn WorkerFunc) outcome {
	fnCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		res, err := fn(fnCtx, job.UUID, job.Args)
		if err != nil {
			done <- outcome{status: StatusFailed}
			return
		}
		done <- outcome{status: StatusFinished, result: res}
	}()

	deadline := time.NewTimer(opts.Timeout)
	defer deadline.Stop()
	heartbeat := time.NewTicker(time.Second / time.Duration(opts.Freq))
	defer heartbeat.Stop()

	for {
		select {
		case out := <-done:
			return out
		case <-deadline.C:
			return outcome{status: StatusLost}
		case <-heartbeat.C:
			if err := q.writeJob(ctx, job, opts.Timeout+opts.Expire); err != nil {
				q.log.Warn("heartbeat refresh failed", "uuid", job.UUID, "error", err)
			}
		}
	}
}
