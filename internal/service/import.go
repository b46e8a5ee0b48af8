package service

import (
	"context"
	"fmt"
	"io"

	"github.com/Dan9191/finix/internal/integrations/camt"
	"github.com/Dan9191/finix/internal/models"
	"github.com/Dan9191/finix/internal/repository"
)

// ImportStatement records every booked entry of a camt.053 statement on
// accountID. The import is all or nothing.
func (s *Service) ImportStatement(ctx context.Context, accountID string, statement io.Reader) ([]models.Transaction, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if accountID == "" {
		return nil, invalid("account_id is required")
	}

	entries, err := s.statements.Parse(statement)
	if err != nil {
		return nil, invalid(fmt.Sprintf("invalid statement: %v", err))
	}

	now := s.now()
	transactions := make([]*models.Transaction, 0, len(entries))
	for _, entry := range entries {
		txn, err := entryInput(accountID, entry).build(userID, now)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}

	err = s.store.InTx(ctx, func(q repository.Querier) error {
		for _, txn := range transactions {
			if err := s.createTransaction(ctx, q, txn); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	imported := make([]models.Transaction, 0, len(transactions))
	for _, txn := range transactions {
		imported = append(imported, *txn)
	}
	s.log.Infof("Imported %d statement entries into account %s", len(imported), accountID)
	return imported, nil
}

func entryInput(accountID string, entry camt.Entry) TransactionInput {
	category := "other-expense"
	if entry.Type == models.TransactionTypeCredit {
		category = "other-income"
	}
	description := entry.Description
	if description == "" {
		description = entry.Reference
	}
	return TransactionInput{
		AccountID:   accountID,
		Type:        entry.Type,
		Amount:      entry.Amount.String(),
		Description: description,
		Category:    category,
		Date:        entry.BookingDate,
	}
}
