package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Dan9191/finix/internal/models"
	"github.com/Dan9191/finix/internal/repository"
)

// AccountInput is the caller-supplied part of a new account
type AccountInput struct {
	Name      string
	Type      models.AccountType
	Balance   string
	IsDefault bool
}

// CreateAccount creates a new account for the authenticated user.
// The user's first account always becomes the default one.
func (s *Service) CreateAccount(ctx context.Context, input AccountInput) (*models.Account, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if input.Type == "" {
		input.Type = models.AccountTypeCurrent
	}
	if !input.Type.Valid() {
		return nil, invalid("account type must be CURRENT or SAVINGS")
	}
	balance, err := parseAmount(input.Balance, "balance")
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		UserID:  userID,
		Name:    name,
		Type:    input.Type,
		Balance: balance,
	}
	err = s.store.InTx(ctx, func(q repository.Querier) error {
		existing, err := q.LockAccounts(ctx, userID)
		if err != nil {
			return err
		}
		account.IsDefault = len(existing) == 0 || input.IsDefault
		if account.IsDefault && len(existing) > 0 {
			if err := q.ClearDefaultAccounts(ctx, userID); err != nil {
				return err
			}
		}
		return q.CreateAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Account %s created for user %s, default=%t", account.ID, userID, account.IsDefault)
	return account, nil
}

// ListAccounts returns the authenticated user's accounts, newest first
func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListAccounts(ctx, userID)
}

// GetAccountWithTransactions returns one account with all of its transactions
func (s *Service) GetAccountWithTransactions(ctx context.Context, accountID string) (*models.Account, []models.Transaction, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	account, err := s.ownedAccount(ctx, s.store, userID, accountID)
	if err != nil {
		return nil, nil, err
	}
	transactions, err := s.store.ListTransactions(ctx, repository.TransactionFilter{UserID: userID, AccountID: accountID})
	if err != nil {
		return nil, nil, err
	}
	account.TransactionCount = len(transactions)
	return account, transactions, nil
}

// SetDefaultAccount makes accountID the user's only default account
func (s *Service) SetDefaultAccount(ctx context.Context, accountID string) (*models.Account, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	var updated *models.Account
	err = s.store.InTx(ctx, func(q repository.Querier) error {
		accounts, err := q.LockAccounts(ctx, userID)
		if err != nil {
			return err
		}
		target := findAccount(accounts, accountID)
		if target == nil {
			_, err := s.ownedAccount(ctx, q, userID, accountID)
			if err == nil {
				err = notFound("account")
			}
			return err
		}
		if err := q.ClearDefaultAccounts(ctx, userID); err != nil {
			return err
		}
		if err := q.SetDefaultAccount(ctx, userID, accountID); err != nil {
			return err
		}
		target.IsDefault = true
		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Default account of user %s set to %s", userID, accountID)
	return updated, nil
}

// DeleteAccount deletes an account and its transactions. When the deleted
// account was the default, the user's oldest remaining account takes over.
func (s *Service) DeleteAccount(ctx context.Context, accountID string) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var promoted string
	err = s.store.InTx(ctx, func(q repository.Querier) error {
		accounts, err := q.LockAccounts(ctx, userID)
		if err != nil {
			return err
		}
		target := findAccount(accounts, accountID)
		if target == nil {
			_, err := s.ownedAccount(ctx, q, userID, accountID)
			if err == nil {
				err = notFound("account")
			}
			return err
		}
		if err := q.DeleteAccount(ctx, userID, accountID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFound("account")
			}
			return err
		}
		if !target.IsDefault {
			return nil
		}
		for _, a := range accounts {
			if a.ID != accountID {
				promoted = a.ID
				return q.SetDefaultAccount(ctx, userID, a.ID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Infof("Account %s of user %s deleted", accountID, userID)
	if promoted != "" {
		s.log.Infof("Account %s promoted to default for user %s", promoted, userID)
	}
	return nil
}

func findAccount(accounts []models.Account, id string) *models.Account {
	for i := range accounts {
		if accounts[i].ID == id {
			a := accounts[i]
			return &a
		}
	}
	return nil
}
