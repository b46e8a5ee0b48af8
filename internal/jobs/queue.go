package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// QueueConfig sizes a Queue.
type QueueConfig struct {
	BufferSize int
	Workers    int
	// MaxAttempts counts every execution of a job, the first one included.
	MaxAttempts int
	// PerUserPerMinute caps how many jobs of one user start per minute.
	PerUserPerMinute int
}

// Queue is an in-memory job queue with retries and a per-user throttle.
// Jobs are lost on restart; the cron entries that produce them are idempotent.
type Queue struct {
	cfg       QueueConfig
	jobChan   chan *Job
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	log       *logrus.Logger

	limitersMu sync.Mutex
	limiters   map[string]*userLimiter
	lastSweep  time.Time
	now        func() time.Time

	backoff func(attempt int) time.Duration
}

// NewQueue creates a new in-memory job queue.
func NewQueue(cfg QueueConfig, log *logrus.Logger) *Queue {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.PerUserPerMinute <= 0 {
		cfg.PerUserPerMinute = 10
	}
	return &Queue{
		cfg:       cfg,
		jobChan:   make(chan *Job, cfg.BufferSize),
		closeChan: make(chan struct{}),
		log:       log,
		limiters:  make(map[string]*userLimiter),
		lastSweep: time.Now(),
		now:       time.Now,
		backoff:   exponentialBackoff,
	}
}

// A user limiter idle for a minute past its last granted slot has refilled
// and can be dropped.
const limiterIdle = time.Minute

type userLimiter struct {
	limiter *rate.Limiter
	// the latest instant a slot was granted for, possibly in the future
	busyUntil time.Time
}

// 2s after the first failure, 4s after the second, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// Publish enqueues a job for asynchronous processing.
func (q *Queue) Publish(ctx context.Context, job *Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	job.Status = JobStatusPending

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start launches the workers. Each job is passed to handler.
func (q *Queue) Start(ctx context.Context, handler Handler) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler Handler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			q.process(ctx, job, handler)
		}
	}
}

func (q *Queue) process(ctx context.Context, job *Job, handler Handler) {
	if !job.admitted {
		delay := q.admit(job.UserID)
		job.admitted = true
		if delay > 0 {
			q.log.Debugf("Job %s for user %s throttled for %s", job.ID, job.UserID, delay)
			q.later(ctx, delay, job)
			return
		}
	}

	job.Status = JobStatusRunning
	job.Attempts++
	err := handler(ctx, job)
	if err == nil {
		job.Status = JobStatusCompleted
		job.Error = ""
		q.log.Debugf("Job %s (%s) completed", job.ID, job.Type)
		return
	}

	job.Error = err.Error()
	if job.Attempts >= q.cfg.MaxAttempts {
		job.Status = JobStatusFailed
		q.log.Errorf("Job %s (%s) failed after %d attempts: %v", job.ID, job.Type, job.Attempts, err)
		return
	}

	job.Status = JobStatusRetrying
	backoff := q.backoff(job.Attempts)
	q.log.Warnf("Job %s (%s) failed, retrying in %s: %v", job.ID, job.Type, backoff, err)
	q.later(ctx, backoff, job)
}

// later re-publishes job after d, dropping it if the queue has been stopped.
func (q *Queue) later(ctx context.Context, d time.Duration, job *Job) {
	time.AfterFunc(d, func() {
		if err := q.Publish(ctx, job); err != nil {
			q.log.Warnf("Dropped job %s: %v", job.ID, err)
		}
	})
}

// admit reserves a slot in the user's throttle and returns how long to wait for it
func (q *Queue) admit(userID string) time.Duration {
	q.limitersMu.Lock()
	defer q.limitersMu.Unlock()

	now := q.now()
	if now.Sub(q.lastSweep) >= limiterIdle {
		for id, l := range q.limiters {
			if now.Sub(l.busyUntil) >= limiterIdle {
				delete(q.limiters, id)
			}
		}
		q.lastSweep = now
	}

	l, ok := q.limiters[userID]
	if !ok {
		l = &userLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(q.cfg.PerUserPerMinute)), q.cfg.PerUserPerMinute)}
		q.limiters[userID] = l
	}
	delay := l.limiter.ReserveN(now, 1).DelayFrom(now)
	l.busyUntil = now.Add(delay)
	return delay
}

// Stop stops the queue and waits for in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
