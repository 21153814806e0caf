package rjq_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rjq-io/rjq"
)

func TestWorkFinished(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, nil, 30*time.Second)
	require.NoError(t, err)

	err = q.Work(ctx, rjq.WorkOptions{
		Wait:    time.Second,
		Timeout: 5 * time.Second,
		Freq:    10,
		Expire:  10 * time.Second,
	}, func(ctx context.Context, id string, args []string) (string, error) {
		time.Sleep(50 * time.Millisecond)
		return "ok-" + id, nil
	})
	require.NoError(t, err)

	status, err := q.Status(ctx, id)
	require.NoError(t, err)
	require.Equal(t, rjq.StatusFinished, status)

	result, err := q.Result(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "ok-"+id, result)
}

func TestWorkFailed(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, nil, 30*time.Second)
	require.NoError(t, err)

	err = q.Work(ctx, rjq.WorkOptions{
		Wait:    time.Second,
		Timeout: 5 * time.Second,
		Freq:    10,
		Expire:  10 * time.Second,
	}, func(ctx context.Context, id string, args []string) (string, error) {
		return "", errors.New("boom")
	})
	require.NoError(t, err)

	status, err := q.Status(ctx, id)
	require.NoError(t, err)
	require.Equal(t, rjq.StatusFailed, status)

	// No result is ever written for a failed job.
	_, err = q.Result(ctx, id)
	require.ErrorIs(t, err, rjq.ErrNotFound)
}

func TestWorkLost(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, nil, 30*time.Second)
	require.NoError(t, err)

	cancelled := make(chan struct{})
	start := time.Now()
	err = q.Work(ctx, rjq.WorkOptions{
		Wait:    time.Second,
		Timeout: 100 * time.Millisecond,
		Freq:    10,
		Expire:  10 * time.Second,
	}, func(ctx context.Context, id string, args []string) (string, error) {
		select {
		case <-ctx.Done():
			close(cancelled)
		case <-time.After(5 * time.Second):
		}
		return "too late", nil
	})
	require.NoError(t, err)
	require.Less(t, time.Since(start), time.Second, "LOST must be written close to the deadline")

	status, err := q.Status(ctx, id)
	require.NoError(t, err)
	require.Equal(t, rjq.StatusLost, status)

	_, err = q.Result(ctx, id)
	require.ErrorIs(t, err, rjq.ErrNotFound)

	// The abandoned function received the best-effort stop signal.
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("function context was never cancelled")
	}
}

func TestWorkFallEscalatesLostJob(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, nil, 30*time.Second)
	require.NoError(t, err)

	err = q.Work(ctx, rjq.WorkOptions{
		Wait:     time.Second,
		Timeout:  50 * time.Millisecond,
		Freq:     10,
		Expire:   10 * time.Second,
		Fall:     true,
		Infinite: true,
	}, func(ctx context.Context, id string, args []string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	require.ErrorIs(t, err, rjq.ErrJobLost)

	status, err := q.Status(ctx, id)
	require.NoError(t, err)
	require.Equal(t, rjq.StatusLost, status)
}

func TestWorkOneShotEmptyQueue(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)

	start := time.Now()
	err := q.Work(context.Background(), rjq.WorkOptions{Wait: 50 * time.Millisecond},
		func(ctx context.Context, id string, args []string) (string, error) {
			t.Error("function must not run on an empty queue")
			return "", nil
		})
	require.NoError(t, err)
	require.Less(t, time.Since(start), time.Second)
}

func TestWorkSkipsExpiredRecord(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)
	ctx := context.Background()

	// Record expires while the uuid is still sitting in the dispatch list.
	_, err := q.Enqueue(ctx, nil, 20*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)

	err = q.Work(ctx, rjq.WorkOptions{Wait: 50 * time.Millisecond},
		func(ctx context.Context, id string, args []string) (string, error) {
			t.Error("function must not run for an expired record")
			return "", nil
		})
	require.NoError(t, err)
}

func TestWorkPassesArgs(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)
	ctx := context.Background()

	want := []string{"echo", "hello", "world"}
	id, err := q.Enqueue(ctx, want, 30*time.Second)
	require.NoError(t, err)

	var got []string
	err = q.Work(ctx, rjq.WorkOptions{Wait: time.Second},
		func(ctx context.Context, jobID string, args []string) (string, error) {
			require.Equal(t, id, jobID)
			got = args
			return "", nil
		})
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestWorkRunningVisibleDuringExecution(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, nil, 30*time.Second)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- q.Work(ctx, rjq.WorkOptions{
			Wait:    time.Second,
			Timeout: 5 * time.Second,
			Freq:    20,
			Expire:  10 * time.Second,
		}, func(ctx context.Context, id string, args []string) (string, error) {
			time.Sleep(300 * time.Millisecond)
			return "ok", nil
		})
	}()

	waitForStatus(t, q, id, rjq.StatusRunning)
	require.NoError(t, <-done)
	waitForStatus(t, q, id, rjq.StatusFinished)
}

func TestWorkExactlyOnceDelivery(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const jobs = 20
	const workers = 4

	ids := make([]string, 0, jobs)
	for i := 0; i < jobs; i++ {
		id, err := q.Enqueue(ctx, []string{fmt.Sprint(i)}, 30*time.Second)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	var mu sync.Mutex
	runs := make(map[string]int)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := q.Work(ctx, rjq.WorkOptions{
				Wait:     50 * time.Millisecond,
				Timeout:  5 * time.Second,
				Freq:     10,
				Expire:   30 * time.Second,
				Infinite: true,
			}, func(ctx context.Context, id string, args []string) (string, error) {
				mu.Lock()
				runs[id]++
				mu.Unlock()
				return "done", nil
			})
			assert.NoError(t, err)
		}()
	}

	for _, id := range ids {
		waitForStatus(t, q, id, rjq.StatusFinished)
	}
	cancel()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, runs, jobs)
	for id, n := range runs {
		require.Equal(t, 1, n, "job %s ran %d times", id, n)
	}
}
