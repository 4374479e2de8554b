package jobs

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitPending(t *testing.T, q *Queue, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for q.Pending() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d completions, have %d", n, q.Pending())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCallbacksRunOnlyDuringDrain(t *testing.T) {
	q := NewQueue(2, nil)
	defer q.Close()

	var called atomic.Int32
	for i := 0; i < 4; i++ {
		if err := Submit(q, func() (int, error) { return i, nil }, func(int, error) { called.Add(1) }); err != nil {
			t.Fatal(err)
		}
	}
	q.Wait()
	if got := called.Load(); got != 0 {
		t.Fatalf("%d callbacks ran before Drain", got)
	}
	if n := q.Drain(); n != 4 {
		t.Fatalf("Drain = %d, want 4", n)
	}
	if got := called.Load(); got != 4 {
		t.Fatalf("%d callbacks after Drain, want 4", got)
	}
	if n := q.Drain(); n != 0 {
		t.Fatalf("second Drain = %d, want 0", n)
	}
}

// A job that finishes first is delivered first, whatever the submission order.
func TestDrainFollowsCompletionOrder(t *testing.T) {
	q := NewQueue(2, nil)
	defer q.Close()

	releaseA := make(chan struct{})
	var order []string
	record := func(s string, _ error) { order = append(order, s) }

	_ = Submit(q, func() (string, error) { <-releaseA; return "A", nil }, record)
	_ = Submit(q, func() (string, error) { return "B", nil }, record)

	waitPending(t, q, 1)
	close(releaseA)
	q.Wait()

	if n := q.Drain(); n != 2 {
		t.Fatalf("Drain = %d, want 2", n)
	}
	if len(order) != 2 || order[0] != "B" || order[1] != "A" {
		t.Fatalf("callback order = %v, want [B A]", order)
	}
}

func TestJobErrorsReachCallback(t *testing.T) {
	q := NewQueue(1, nil)
	defer q.Close()

	boom := errors.New("boom")
	var gotErr error
	_ = Submit(q, func() (int, error) { return 0, boom }, func(_ int, err error) { gotErr = err })
	q.Wait()
	q.Drain()
	if !errors.Is(gotErr, boom) {
		t.Fatalf("callback error = %v, want boom", gotErr)
	}
}

func TestPanicBecomesError(t *testing.T) {
	q := NewQueue(1, nil)
	defer q.Close()

	var gotErr error
	var gotVal = -1
	_ = Submit(q, func() (int, error) { panic("bad grid") }, func(v int, err error) { gotVal, gotErr = v, err })
	q.Wait()
	q.Drain()
	if !errors.Is(gotErr, ErrJobPanicked) {
		t.Fatalf("callback error = %v, want ErrJobPanicked", gotErr)
	}
	if gotVal != 0 {
		t.Errorf("panicked job delivered %d, want zero value", gotVal)
	}
}

func TestInFlightAndClose(t *testing.T) {
	q := NewQueue(1, nil)

	release := make(chan struct{})
	_ = Submit(q, func() (int, error) { <-release; return 1, nil }, func(int, error) {})
	if q.InFlight() != 1 {
		t.Fatalf("InFlight = %d, want 1", q.InFlight())
	}
	close(release)
	q.Close()
	if q.InFlight() != 0 {
		t.Fatalf("InFlight after Close = %d", q.InFlight())
	}
	if q.Drain() != 1 {
		t.Fatal("completion queued before Close should still drain")
	}
	if err := Submit(q, func() (int, error) { return 0, nil }, func(int, error) {}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("Submit after Close = %v, want ErrQueueClosed", err)
	}
	q.Close()
}
