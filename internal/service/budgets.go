package service

import (
	"context"
	"errors"

	"github.com/Dan9191/finix/internal/models"
	"github.com/Dan9191/finix/internal/repository"
	"github.com/shopspring/decimal"
)

// GetCurrentBudget returns the user's budget and this month's DEBIT total for
// accountID. An empty accountID means the default account.
func (s *Service) GetCurrentBudget(ctx context.Context, accountID string) (*models.CurrentBudget, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	budget, err := s.store.FindBudget(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		budget = nil
	} else if err != nil {
		return nil, err
	}

	if accountID == "" {
		accounts, err := s.store.ListAccounts(ctx, userID)
		if err != nil {
			return nil, err
		}
		if def := defaultAccount(accounts); def != nil {
			accountID = def.ID
		}
	} else if _, err := s.ownedAccount(ctx, s.store, userID, accountID); err != nil {
		return nil, err
	}

	current := &models.CurrentBudget{Budget: budget, CurrentExpenses: decimal.Zero}
	if accountID == "" {
		return current, nil
	}
	current.CurrentExpenses, err = s.monthExpenses(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	return current, nil
}

// UpdateBudget creates or replaces the authenticated user's monthly budget
func (s *Service) UpdateBudget(ctx context.Context, amountText string) (*models.Budget, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(amountText, "budget")
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, invalid("budget must not be negative")
	}

	budget := &models.Budget{UserID: userID, Amount: amount}
	if err := s.store.UpsertBudget(ctx, budget); err != nil {
		return nil, err
	}

	s.log.Infof("Budget of user %s set to %s", userID, amount)
	return budget, nil
}

func (s *Service) monthExpenses(ctx context.Context, userID, accountID string) (decimal.Decimal, error) {
	start, end := monthBounds(s.now())
	return s.store.SumTransactions(ctx, repository.TransactionFilter{
		UserID:    userID,
		AccountID: accountID,
		Type:      models.TransactionTypeDebit,
		From:      &start,
		To:        &end,
	})
}

func defaultAccount(accounts []models.Account) *models.Account {
	for i := range accounts {
		if accounts[i].IsDefault {
			return &accounts[i]
		}
	}
	return nil
}
