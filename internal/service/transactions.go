package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Dan9191/finix/internal/models"
	"github.com/Dan9191/finix/internal/repository"
	"github.com/shopspring/decimal"
)

// TransactionInput is the caller-supplied part of a transaction
type TransactionInput struct {
	AccountID         string
	Type              models.TransactionType
	Amount            string
	Description       string
	Category          string
	Date              time.Time
	ReceiptURL        string
	IsRecurring       bool
	RecurringInterval models.RecurringInterval
}

// ListFilter narrows ListTransactions. Zero fields do not filter.
type ListFilter struct {
	AccountID string
	Type      models.TransactionType
	From      *time.Time
	To        *time.Time
}

// build validates input and turns it into a transaction owned by userID
func (input TransactionInput) build(userID string, now time.Time) (*models.Transaction, error) {
	if input.AccountID == "" {
		return nil, invalid("account_id is required")
	}
	if !input.Type.Valid() {
		return nil, invalid("transaction type must be CREDIT or DEBIT")
	}
	amount, err := parseAmount(input.Amount, "amount")
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, invalid("amount must be greater than zero")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, invalid("category is required")
	}

	txn := &models.Transaction{
		UserID:      userID,
		AccountID:   input.AccountID,
		Type:        input.Type,
		Amount:      amount,
		Description: strings.TrimSpace(input.Description),
		Category:    category,
		Date:        input.Date,
		ReceiptURL:  input.ReceiptURL,
		IsRecurring: input.IsRecurring,
		Status:      models.TransactionStatusCompleted,
	}
	if txn.Date.IsZero() {
		txn.Date = now
	}
	if input.IsRecurring {
		if !input.RecurringInterval.Valid() {
			return nil, invalid("recurring interval must be DAILY, WEEKLY, MONTHLY or YEARLY")
		}
		txn.RecurringInterval = input.RecurringInterval
		next := NextRecurringDate(txn.Date, txn.RecurringInterval)
		txn.NextRecurringDate = &next
	}
	return txn, nil
}

// CreateTransaction records a transaction and applies it to its account balance
func (s *Service) CreateTransaction(ctx context.Context, input TransactionInput) (*models.Transaction, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	txn, err := input.build(userID, s.now())
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(q repository.Querier) error {
		return s.createTransaction(ctx, q, txn)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Transaction %s created on account %s: %s %s", txn.ID, txn.AccountID, txn.Type, txn.Amount)
	return txn, nil
}

func (s *Service) createTransaction(ctx context.Context, q repository.Querier, txn *models.Transaction) error {
	if _, err := s.ownedAccount(ctx, q, txn.UserID, txn.AccountID); err != nil {
		return err
	}
	if err := q.CreateTransaction(ctx, txn); err != nil {
		return err
	}
	return q.IncrementBalance(ctx, txn.AccountID, txn.SignedAmount())
}

// GetTransaction returns one of the authenticated user's transactions
func (s *Service) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	txn, err := s.store.FindTransaction(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("transaction")
	}
	return txn, err
}

// ListTransactions returns the authenticated user's transactions, most recent first
func (s *Service) ListTransactions(ctx context.Context, filter ListFilter) ([]models.Transaction, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, invalid("transaction type must be CREDIT or DEBIT")
	}
	if filter.AccountID != "" {
		if _, err := s.ownedAccount(ctx, s.store, userID, filter.AccountID); err != nil {
			return nil, err
		}
	}
	return s.store.ListTransactions(ctx, repository.TransactionFilter{
		UserID:    userID,
		AccountID: filter.AccountID,
		Type:      filter.Type,
		From:      filter.From,
		To:        filter.To,
	})
}

// UpdateTransaction replaces the editable fields of a transaction and moves
// its balance effect from the old values to the new ones.
func (s *Service) UpdateTransaction(ctx context.Context, id string, input TransactionInput) (*models.Transaction, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := input.build(userID, s.now())
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(q repository.Querier) error {
		old, err := q.LockTransaction(ctx, userID, id)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("transaction")
		}
		if err != nil {
			return err
		}
		if _, err := s.ownedAccount(ctx, q, userID, updated.AccountID); err != nil {
			return err
		}

		updated.ID = old.ID
		updated.Status = old.Status
		updated.CreatedAt = old.CreatedAt
		if updated.IsRecurring && old.IsRecurring && old.RecurringInterval == updated.RecurringInterval {
			updated.LastProcessed = old.LastProcessed
			if old.LastProcessed != nil {
				updated.NextRecurringDate = old.NextRecurringDate
			}
		}
		if err := q.UpdateTransaction(ctx, updated); err != nil {
			return err
		}

		changes := map[string]decimal.Decimal{}
		changes[old.AccountID] = changes[old.AccountID].Sub(old.SignedAmount())
		changes[updated.AccountID] = changes[updated.AccountID].Add(updated.SignedAmount())
		return applyBalanceChanges(ctx, q, changes)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Transaction %s updated by user %s", id, userID)
	return updated, nil
}

// BulkDeleteTransactions deletes the authenticated user's transactions among
// ids and reverses their effect on account balances. Ids that do not exist or
// belong to someone else are skipped. It returns how many were deleted.
func (s *Service) BulkDeleteTransactions(ctx context.Context, ids []string) (int, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted []models.Transaction
	err = s.store.InTx(ctx, func(q repository.Querier) error {
		var err error
		deleted, err = q.DeleteTransactions(ctx, userID, ids)
		if err != nil {
			return err
		}
		changes := map[string]decimal.Decimal{}
		for _, txn := range deleted {
			changes[txn.AccountID] = changes[txn.AccountID].Sub(txn.SignedAmount())
		}
		return applyBalanceChanges(ctx, q, changes)
	})
	if err != nil {
		return 0, err
	}

	s.log.Infof("User %s deleted %d of %d requested transactions", userID, len(deleted), len(ids))
	return len(deleted), nil
}

// applyBalanceChanges increments each account by its delta in account id order
func applyBalanceChanges(ctx context.Context, q repository.Querier, changes map[string]decimal.Decimal) error {
	accountIDs := make([]string, 0, len(changes))
	for id, delta := range changes {
		if !delta.IsZero() {
			accountIDs = append(accountIDs, id)
		}
	}
	sort.Strings(accountIDs)
	for _, id := range accountIDs {
		if err := q.IncrementBalance(ctx, id, changes[id]); err != nil {
			return err
		}
	}
	return nil
}
