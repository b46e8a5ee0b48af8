package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dan9191/finix/internal/models"
	"github.com/Dan9191/finix/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Service is the part of the service layer driven by the scheduler.
type Service interface {
	CheckBudgetAlerts(ctx context.Context) (int, error)
	DueRecurringTransactions(ctx context.Context) ([]models.Transaction, error)
	ApplyRecurringTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	SendMonthlyReports(ctx context.Context) (int, error)
}

// Schedule holds the cron specs of the periodic tasks.
type Schedule struct {
	BudgetAlerts   string
	Recurring      string
	MonthlyReports string
}

// Scheduler runs the periodic tasks and feeds recurring transactions to the queue.
type Scheduler struct {
	cron  *cron.Cron
	svc   Service
	queue *Queue
	log   *logrus.Logger
	ctx   context.Context
}

// NewScheduler registers the periodic tasks. It fails on an invalid cron spec.
func NewScheduler(svc Service, queue *Queue, schedule Schedule, log *logrus.Logger) (*Scheduler, error) {
	cronLog := cron.PrintfLogger(log)
	s := &Scheduler{
		cron:  cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		svc:   svc,
		queue: queue,
		log:   log,
		ctx:   context.Background(),
	}

	entries := []struct {
		name string
		spec string
		run  func(ctx context.Context)
	}{
		{"budget alerts", schedule.BudgetAlerts, s.checkBudgetAlerts},
		{"recurring transactions", schedule.Recurring, s.triggerRecurring},
		{"monthly reports", schedule.MonthlyReports, s.sendMonthlyReports},
	}
	for _, e := range entries {
		run := e.run
		if _, err := s.cron.AddFunc(e.spec, func() { run(s.ctx) }); err != nil {
			return nil, fmt.Errorf("invalid %s schedule %q: %w", e.name, e.spec, err)
		}
	}
	return s, nil
}

// Start starts the queue workers and the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	if err := s.queue.Start(ctx, s.handle); err != nil {
		return fmt.Errorf("failed to start job queue: %w", err)
	}
	s.cron.Start()
	s.log.Infof("Scheduler started with %d entries", len(s.cron.Entries()))
	return nil
}

// Stop waits for running cron tasks, then drains the queue workers.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.queue.Stop(ctx)
}

func (s *Scheduler) checkBudgetAlerts(ctx context.Context) {
	sent, err := s.svc.CheckBudgetAlerts(ctx)
	if err != nil {
		s.log.Errorf("Budget alert check failed: %v", err)
		return
	}
	s.log.Infof("Budget alert check sent %d alerts", sent)
}

func (s *Scheduler) triggerRecurring(ctx context.Context) {
	due, err := s.svc.DueRecurringTransactions(ctx)
	if err != nil {
		s.log.Errorf("Failed to list due recurring transactions: %v", err)
		return
	}

	queued := 0
	for _, txn := range due {
		job := &Job{Type: JobTypeRecurringTransaction, UserID: txn.UserID, TransactionID: txn.ID}
		if err := s.queue.Publish(ctx, job); err != nil {
			s.log.Errorf("Failed to enqueue recurring transaction %s: %v", txn.ID, err)
			continue
		}
		queued++
	}
	s.log.Infof("Queued %d of %d due recurring transactions", queued, len(due))
}

func (s *Scheduler) sendMonthlyReports(ctx context.Context) {
	sent, err := s.svc.SendMonthlyReports(ctx)
	if err != nil {
		s.log.Errorf("Monthly reports failed: %v", err)
		return
	}
	s.log.Infof("Sent %d monthly reports", sent)
}

func (s *Scheduler) handle(ctx context.Context, job *Job) error {
	switch job.Type {
	case JobTypeRecurringTransaction:
		occurrence, err := s.svc.ApplyRecurringTransaction(ctx, job.UserID, job.TransactionID)
		if errors.Is(err, service.ErrNotFound) {
			// template deleted since it was queued
			s.log.Warnf("Recurring transaction %s no longer exists", job.TransactionID)
			return nil
		}
		if err != nil {
			return err
		}
		if occurrence != nil {
			s.log.Infof("Recorded recurring transaction %s from %s", occurrence.ID, job.TransactionID)
		}
		return nil
	default:
		s.log.Errorf("Unknown job type %q", job.Type)
		return nil
	}
}
