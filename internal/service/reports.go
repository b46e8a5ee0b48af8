package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/finix/internal/models"
	"github.com/Dan9191/finix/internal/repository"
	"github.com/shopspring/decimal"
)

// MonthlyStats aggregates the user's transactions in the calendar month containing month
func (s *Service) MonthlyStats(ctx context.Context, userID string, month time.Time) (models.MonthlyStats, error) {
	start, end := monthBounds(month)
	transactions, err := s.store.ListTransactions(ctx, repository.TransactionFilter{
		UserID: userID,
		From:   &start,
		To:     &end,
	})
	if err != nil {
		return models.MonthlyStats{}, err
	}
	return summarize(transactions), nil
}

func summarize(transactions []models.Transaction) models.MonthlyStats {
	stats := models.MonthlyStats{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		ByCategory:    map[string]decimal.Decimal{},
	}
	for _, txn := range transactions {
		stats.TransactionCount++
		if txn.Type == models.TransactionTypeDebit {
			stats.TotalExpenses = stats.TotalExpenses.Add(txn.Amount)
			stats.ByCategory[txn.Category] = stats.ByCategory[txn.Category].Add(txn.Amount)
		} else {
			stats.TotalIncome = stats.TotalIncome.Add(txn.Amount)
		}
	}
	return stats
}

// SendMonthlyReports emails every user a summary of the previous calendar
// month with generated insights. It returns the number of reports sent.
func (s *Service) SendMonthlyReports(ctx context.Context) (int, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	start, _ := monthBounds(s.now())
	previous := start.AddDate(0, -1, 0)
	monthName := previous.Format("January")

	sent := 0
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := s.sendMonthlyReport(ctx, user, previous, monthName); err != nil {
			s.log.Errorf("Monthly report for user %s failed: %v", user.ID, err)
			continue
		}
		sent++
	}

	s.log.Infof("Monthly reports for %s sent: %d of %d users", monthName, sent, len(users))
	return sent, nil
}

func (s *Service) sendMonthlyReport(ctx context.Context, user models.User, month time.Time, monthName string) error {
	stats, err := s.MonthlyStats(ctx, user.ID, month)
	if err != nil {
		return err
	}
	accounts, err := s.store.ListAccounts(ctx, user.ID)
	if err != nil {
		return err
	}

	report := models.MonthlyReport{
		UserName: user.Name,
		Month:    monthName,
		Stats:    stats,
	}
	if def := defaultAccount(accounts); def != nil {
		report.AccountName = def.Name
	}
	if s.insights != nil {
		report.Insights = s.insights.GenerateInsights(ctx, stats, monthName)
	}

	if s.notifier == nil {
		return fmt.Errorf("no notifier configured")
	}
	if err := s.notifier.SendMonthlyReport(user.Email, report); err != nil {
		return fmt.Errorf("failed to send monthly report: %w", err)
	}
	s.log.Infof("Monthly report for %s sent to %s", monthName, user.Email)
	return nil
}
