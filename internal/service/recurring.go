package service

import (
	"context"
	"errors"
	"time"

	"github.com/Dan9191/finix/internal/models"
	"github.com/Dan9191/finix/internal/repository"
)

// NextRecurringDate returns the next occurrence after from for interval.
// Monthly and yearly steps clamp to the last day of a shorter target month,
// so Jan 31 is followed by Feb 28 (or 29) and Feb 29 by Feb 28.
func NextRecurringDate(from time.Time, interval models.RecurringInterval) time.Time {
	switch interval {
	case models.IntervalDaily:
		return from.AddDate(0, 0, 1)
	case models.IntervalWeekly:
		return from.AddDate(0, 0, 7)
	case models.IntervalMonthly:
		return addMonths(from, 1)
	case models.IntervalYearly:
		return addMonths(from, 12)
	}
	return from
}

// IsDue reports whether a recurring transaction should produce a new occurrence at now
func IsDue(txn *models.Transaction, now time.Time) bool {
	if !txn.IsRecurring {
		return false
	}
	if txn.LastProcessed == nil {
		return true
	}
	return txn.NextRecurringDate != nil && !txn.NextRecurringDate.After(now)
}

// DueRecurringTransactions lists every user's recurring transactions due now
func (s *Service) DueRecurringTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.store.ListDueRecurring(ctx, s.now())
}

// ApplyRecurringTransaction materializes one occurrence of a due recurring
// transaction: it records a copy dated now, applies it to the account balance
// and advances the template's schedule. It returns nil without changes when
// the template is not due, so repeated deliveries are harmless.
func (s *Service) ApplyRecurringTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	now := s.now()

	var occurrence *models.Transaction
	err := s.store.InTx(ctx, func(q repository.Querier) error {
		template, err := q.LockTransaction(ctx, userID, transactionID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("transaction")
		}
		if err != nil {
			return err
		}
		if !IsDue(template, now) {
			return nil
		}

		occurrence = &models.Transaction{
			UserID:      template.UserID,
			AccountID:   template.AccountID,
			Type:        template.Type,
			Amount:      template.Amount,
			Description: template.Description + " (Recurring)",
			Category:    template.Category,
			Date:        now,
			Status:      models.TransactionStatusCompleted,
		}
		if err := q.CreateTransaction(ctx, occurrence); err != nil {
			return err
		}
		if err := q.IncrementBalance(ctx, template.AccountID, template.SignedAmount()); err != nil {
			return err
		}

		next := NextRecurringDate(now, template.RecurringInterval)
		template.LastProcessed = &now
		template.NextRecurringDate = &next
		return q.UpdateTransaction(ctx, template)
	})
	if err != nil {
		return nil, err
	}

	if occurrence == nil {
		s.log.Debugf("Recurring transaction %s is not due, skipping", transactionID)
		return nil, nil
	}
	s.log.Infof("Recurring transaction %s produced %s on account %s", transactionID, occurrence.ID, occurrence.AccountID)
	return occurrence, nil
}
