package rjq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Queue is a named job queue on a shared store. It is the producer-facing
// client (Enqueue, Status, Result, Drop) and the consumer-facing worker
// supervisor (Work). A Queue is safe for concurrent use.
type Queue struct {
	store Store
	name  string
	log   *slog.Logger
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger used by the worker supervisor.
func WithLogger(log *slog.Logger) Option {
	return func(q *Queue) {
		if log != nil {
			q.log = log
		}
	}
}

// New returns a queue named name on the given store. The name prefixes
// every key the queue writes, so distinct names on one store are fully
// independent queues.
func New(store Store, name string, opts ...Option) *Queue {
	q := &Queue{
		store: store,
		name:  name,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Queue) jobKey(id string) string    { return fmt.Sprintf("%s:job:%s", q.name, id) }
func (q *Queue) resultKey(id string) string { return fmt.Sprintf("%s:result:%s", q.name, id) }
func (q *Queue) listKey() string            { return q.name + ":uuids" }

// Enqueue creates a job with a fresh UUID, writes its record with the
// given expiry and pushes the UUID onto the dispatch list. It returns the
// UUID for later Status and Result lookups.
//
// If the push fails after the record write succeeded, the job is never
// dequeued and its record simply expires; the error is returned either way.
func (q *Queue) Enqueue(ctx context.Context, args []string, expire time.Duration) (string, error) {
	job := Job{
		UUID:   uuid.NewString(),
		Args:   args,
		Status: StatusQueued,
	}

	if err := q.writeJob(ctx, &job, expire); err != nil {
		return "", err
	}
	if err := q.store.Push(ctx, q.listKey(), job.UUID); err != nil {
		return "", fmt.Errorf("push job %s: %w", job.UUID, err)
	}
	return job.UUID, nil
}

// Status returns the job's current lifecycle state. It returns ErrNotFound
// when the record is absent, which callers must treat as its own outcome:
// the job may have expired, or the UUID may never have existed.
func (q *Queue) Status(ctx context.Context, id string) (Status, error) {
	raw, err := q.store.Get(ctx, q.jobKey(id))
	if err != nil {
		return "", err
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return "", fmt.Errorf("decode job %s: %w", id, err)
	}
	return job.Status, nil
}

// Result returns the value produced by a FINISHED job. It returns
// ErrNotFound while the job has not finished, and again once the result's
// expiry has elapsed.
func (q *Queue) Result(ctx context.Context, id string) (string, error) {
	return q.store.Get(ctx, q.resultKey(id))
}

// Drop removes every key belonging to this queue: all job records, all
// results and the dispatch list. It is a bulk administrative reset, not
// part of the per-job lifecycle.
func (q *Queue) Drop(ctx context.Context) error {
	return q.store.DropPrefix(ctx, q.name+":")
}

func (q *Queue) writeJob(ctx context.Context, job *Job, ttl time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.UUID, err)
	}
	if err := q.store.Set(ctx, q.jobKey(job.UUID), string(data), ttl); err != nil {
		return fmt.Errorf("write job %s: %w", job.UUID, err)
	}
	return nil
}
