package service

import (
	"context"
	"fmt"

	"github.com/Dan9191/finix/internal/models"
)

// CheckBudgetAlerts emails every user whose default account spent at least
// the alert threshold of their budget this month, at most once per month.
// It returns the number of alerts sent. Failures for one user are logged
// and do not stop the others.
func (s *Service) CheckBudgetAlerts(ctx context.Context) (int, error) {
	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list budgets: %w", err)
	}

	now := s.now()
	sent := 0
	for _, budget := range budgets {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if budget.LastAlertSent != nil && sameMonth(*budget.LastAlertSent, now) {
			continue
		}
		ok, err := s.checkBudget(ctx, budget)
		if err != nil {
			s.log.Errorf("Budget alert for user %s failed: %v", budget.UserID, err)
			continue
		}
		if ok {
			sent++
		}
	}

	s.log.Infof("Budget alert check done: %d budgets, %d alerts sent", len(budgets), sent)
	return sent, nil
}

func (s *Service) checkBudget(ctx context.Context, budget models.Budget) (bool, error) {
	if !budget.Amount.IsPositive() {
		return false, nil
	}
	accounts, err := s.store.ListAccounts(ctx, budget.UserID)
	if err != nil {
		return false, err
	}
	account := defaultAccount(accounts)
	if account == nil {
		return false, nil
	}

	expenses, err := s.monthExpenses(ctx, budget.UserID, account.ID)
	if err != nil {
		return false, err
	}
	used := percentOf(expenses, budget.Amount)
	if used.LessThan(s.alertThreshold) {
		return false, nil
	}

	user, err := s.store.FindUserByID(ctx, budget.UserID)
	if err != nil {
		return false, err
	}
	if s.notifier == nil {
		return false, fmt.Errorf("no notifier configured")
	}

	alert := models.BudgetAlert{
		UserName:       user.Name,
		AccountName:    account.Name,
		BudgetAmount:   budget.Amount,
		TotalExpenses:  expenses,
		PercentageUsed: used.Round(1),
	}
	if err := s.notifier.SendBudgetAlert(user.Email, alert); err != nil {
		return false, fmt.Errorf("failed to send budget alert: %w", err)
	}
	if err := s.store.SetBudgetAlertSent(ctx, budget.ID, s.now()); err != nil {
		return true, fmt.Errorf("failed to mark budget alert sent: %w", err)
	}

	s.log.Infof("Budget alert sent to %s: %s%% used", user.Email, used.StringFixed(1))
	return true, nil
}
