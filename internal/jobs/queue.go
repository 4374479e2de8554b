// Package jobs runs generation work on a background pool and hands results
// back to the owning goroutine through a drained completion queue.
package jobs

import (
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"lodterrain/internal/profiling"

	"github.com/alitto/pond/v2"
)

var (
	// ErrQueueClosed is returned by Submit after Close.
	ErrQueueClosed = errors.New("jobs: queue closed")
	// ErrJobPanicked wraps a panic recovered from a job function.
	ErrJobPanicked = errors.New("jobs: job panicked")
)

// Queue executes jobs off the owning goroutine. Completion callbacks are never
// run by workers: they are parked until the owner calls Drain.
type Queue struct {
	pool pond.Pool
	log  *log.Logger

	mu        sync.Mutex
	closed    bool
	completed []func()

	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// NewQueue creates a queue backed by a pool of at most workers goroutines.
// workers <= 0 uses runtime.NumCPU().
func NewQueue(workers int, logger *log.Logger) *Queue {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Queue{
		pool: pond.NewPool(workers),
		log:  logger,
	}
}

// Submit schedules job on the pool. When it finishes, onComplete(result, err)
// is queued and runs during a later Drain on the owning goroutine.
func Submit[T any](q *Queue, job func() (T, error), onComplete func(T, error)) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	q.wg.Add(1)
	q.inFlight.Add(1)
	q.pool.Submit(func() {
		defer q.wg.Done()
		res, err := runJob(q.log, job)
		q.push(func() { onComplete(res, err) })
		q.inFlight.Add(-1)
	})
	return nil
}

func runJob[T any](logger *log.Logger, job func() (T, error)) (res T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("job panicked: %v", r)
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return job()
}

func (q *Queue) push(cb func()) {
	q.mu.Lock()
	q.completed = append(q.completed, cb)
	q.mu.Unlock()
}

// Drain takes every queued completion and runs the callbacks in the order the
// jobs finished. It must only be called from the owning goroutine. Callbacks
// that finish after the capture wait for the next Drain.
func (q *Queue) Drain() int {
	defer profiling.Track("jobs.Drain")()

	q.mu.Lock()
	batch := q.completed
	q.completed = nil
	q.mu.Unlock()

	for _, cb := range batch {
		cb()
	}
	return len(batch)
}

// Pending returns the number of completions waiting for Drain.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.completed)
}

// InFlight returns the number of submitted jobs that have not yet queued a completion.
func (q *Queue) InFlight() int {
	return int(q.inFlight.Load())
}

// Wait blocks until every submitted job has queued its completion.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Close rejects further submissions and waits for running jobs to finish.
// Completions still queued can be drained afterwards.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.pool.StopAndWait()
}
