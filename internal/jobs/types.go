package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeRecurringTransaction materializes one due recurring transaction.
	JobTypeRecurringTransaction JobType = "recurring_transaction"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// Job is a unit of background work owned by one user.
type Job struct {
	ID            string
	Type          JobType
	UserID        string
	TransactionID string

	Status    JobStatus
	Attempts  int
	Error     string
	CreatedAt time.Time

	// set once the owner's throttle has granted this job a slot
	admitted bool
}

// Handler processes a job. A returned error schedules a retry while attempts remain.
type Handler func(ctx context.Context, job *Job) error
