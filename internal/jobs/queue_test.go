package jobs

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestQueue(t *testing.T, cfg QueueConfig) *Queue {
	t.Helper()
	q := NewQueue(cfg, quietLogger())
	q.backoff = func(int) time.Duration { return time.Millisecond }
	t.Cleanup(func() { _ = q.Stop(context.Background()) })
	return q
}

type recorder struct {
	mu    sync.Mutex
	calls map[string]int
	done  chan string
}

func newRecorder() *recorder {
	return &recorder{calls: make(map[string]int), done: make(chan string, 100)}
}

// failing returns a handler that fails the first n attempts of every job
func (r *recorder) failing(n int) Handler {
	return func(ctx context.Context, job *Job) error {
		r.mu.Lock()
		r.calls[job.TransactionID]++
		attempt := r.calls[job.TransactionID]
		r.mu.Unlock()
		r.done <- job.TransactionID
		if attempt <= n {
			return errors.New("temporary failure")
		}
		return nil
	}
}

func (r *recorder) count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[id]
}

func waitCalls(t *testing.T, r *recorder, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d calls", i, n)
		}
	}
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	q := newTestQueue(t, QueueConfig{MaxAttempts: 3})
	r := newRecorder()
	if err := q.Start(context.Background(), r.failing(1)); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := q.Publish(context.Background(), &Job{Type: JobTypeRecurringTransaction, UserID: "u1", TransactionID: "t1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	waitCalls(t, r, 2)

	time.Sleep(20 * time.Millisecond)
	if got := r.count("t1"); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestQueueGivesUpAfterMaxAttempts(t *testing.T) {
	q := newTestQueue(t, QueueConfig{MaxAttempts: 2})
	r := newRecorder()
	if err := q.Start(context.Background(), r.failing(10)); err != nil {
		t.Fatalf("start: %v", err)
	}

	job := &Job{Type: JobTypeRecurringTransaction, UserID: "u1", TransactionID: "t1"}
	if err := q.Publish(context.Background(), job); err != nil {
		t.Fatalf("publish: %v", err)
	}
	waitCalls(t, r, 2)

	time.Sleep(50 * time.Millisecond)
	if got := r.count("t1"); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestQueueThrottlesPerUser(t *testing.T) {
	q := newTestQueue(t, QueueConfig{MaxAttempts: 1, PerUserPerMinute: 1})
	r := newRecorder()
	if err := q.Start(context.Background(), r.failing(0)); err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, job := range []*Job{
		{UserID: "u1", TransactionID: "a"},
		{UserID: "u1", TransactionID: "b"},
		{UserID: "u2", TransactionID: "c"},
	} {
		job.Type = JobTypeRecurringTransaction
		if err := q.Publish(context.Background(), job); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	waitCalls(t, r, 2)

	time.Sleep(50 * time.Millisecond)
	ran := r.count("a") + r.count("b")
	if ran != 1 || r.count("c") != 1 {
		t.Fatalf("expected one job of u1 and the job of u2, got a=%d b=%d c=%d", r.count("a"), r.count("b"), r.count("c"))
	}
}

func TestQueueRejectsAfterStop(t *testing.T) {
	q := newTestQueue(t, QueueConfig{})
	if err := q.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := q.Publish(context.Background(), &Job{UserID: "u1"}); err == nil {
		t.Fatalf("expected publish on a stopped queue to fail")
	}
	if err := q.Start(context.Background(), func(context.Context, *Job) error { return nil }); err == nil {
		t.Fatalf("expected start on a stopped queue to fail")
	}
}

func TestQueueEvictsIdleThrottles(t *testing.T) {
	q := NewQueue(QueueConfig{PerUserPerMinute: 1}, quietLogger())
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return now }
	q.lastSweep = now

	if d := q.admit("u1"); d != 0 {
		t.Fatalf("expected the first job to run at once, got %s", d)
	}
	if d := q.admit("u1"); d < 59*time.Second || d > 61*time.Second {
		t.Fatalf("expected the second job to wait a minute, got %s", d)
	}

	// u1 holds a slot one minute ahead, so it is not idle yet
	now = now.Add(90 * time.Second)
	q.admit("u2")
	if _, ok := q.limiters["u1"]; !ok {
		t.Fatalf("expected u1's throttle to survive while a slot is pending")
	}

	now = now.Add(time.Minute)
	q.admit("u3")
	if _, ok := q.limiters["u1"]; ok {
		t.Fatalf("expected u1's idle throttle to be evicted")
	}
	if _, ok := q.limiters["u3"]; !ok {
		t.Fatalf("expected u3's throttle to be kept")
	}
}
