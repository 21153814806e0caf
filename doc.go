// Package rjq is a minimal distributed job queue on top of a shared
// key-value store with a blocking-list primitive (typically Redis).
//
// Producers enqueue jobs and later poll their status and result; worker
// processes pop job identifiers from a shared dispatch list, run a
// caller-supplied function under a deadline, and write the outcome back.
// Producers and workers never talk to each other directly, only through
// the store, so any number of either can run on any number of machines.
//
// # Enqueue jobs
//
//	st, err := redisstore.New("redis://localhost:6379/")
//	if err != nil {
//		log.Fatal(err)
//	}
//	q := rjq.New(st, "rjq")
//
//	id, err := q.Enqueue(ctx, []string{"echo", "hello"}, 30*time.Second)
//	...
//	status, err := q.Status(ctx, id)
//	result, err := q.Result(ctx, id)
//
// # Work on jobs
//
//	process := func(ctx context.Context, id string, args []string) (string, error) {
//		time.Sleep(time.Second)
//		return "hi from " + id, nil
//	}
//
//	err = q.Work(ctx, rjq.WorkOptions{
//		Wait:     time.Second,
//		Timeout:  5 * time.Second,
//		Freq:     10,
//		Expire:   30 * time.Second,
//		Infinite: true,
//	}, process)
//
// A job that outruns its Timeout is marked LOST and abandoned; the
// function's context is cancelled as a best-effort stop signal, but true
// termination is the function's own responsibility. Every status and
// result write carries a TTL, so abandoned jobs age out of the store on
// their own.
package rjq
