package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dan9191/finix/internal/models"
	"github.com/shopspring/decimal"
)

func TestMonthlyStats(t *testing.T) {
	f := newFixture(t)
	ctx, user := f.user(t, "ann@example.com")
	a := f.account(t, ctx, "A", "0", false)
	feb := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)

	for _, in := range []TransactionInput{
		{Type: models.TransactionTypeCredit, Amount: "3000", Category: "salary", Date: feb},
		{Type: models.TransactionTypeDebit, Amount: "1200", Category: "housing", Date: feb},
		{Type: models.TransactionTypeDebit, Amount: "80.40", Category: "food", Date: feb},
		{Type: models.TransactionTypeDebit, Amount: "19.60", Category: "food", Date: feb},
		{Type: models.TransactionTypeDebit, Amount: "500", Category: "travel", Date: f.now},
	} {
		in.AccountID = a.ID
		if _, err := f.svc.CreateTransaction(ctx, in); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	stats, err := f.svc.MonthlyStats(context.Background(), user.ID, feb)
	if err != nil {
		t.Fatalf("monthly stats: %v", err)
	}
	if stats.TransactionCount != 4 {
		t.Fatalf("expected 4 transactions, got %d", stats.TransactionCount)
	}
	if !stats.TotalIncome.Equal(decimal.NewFromInt(3000)) || !stats.TotalExpenses.Equal(decimal.NewFromInt(1300)) {
		t.Fatalf("unexpected totals: income %s expenses %s", stats.TotalIncome, stats.TotalExpenses)
	}
	if !stats.ByCategory["food"].Equal(decimal.NewFromInt(100)) || len(stats.ByCategory) != 2 {
		t.Fatalf("unexpected category breakdown: %v", stats.ByCategory)
	}
	if !stats.NetSavings().Equal(decimal.NewFromInt(1700)) {
		t.Fatalf("expected net savings 1700, got %s", stats.NetSavings())
	}
}

func TestSendMonthlyReportsCoversPreviousMonth(t *testing.T) {
	f := newFixture(t)
	annCtx, _ := f.user(t, "ann@example.com")
	f.user(t, "bob@example.com")
	a := f.account(t, annCtx, "Main", "0", false)
	f.dated(t, annCtx, a.ID, models.TransactionTypeDebit, "42", time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC))

	sent, err := f.svc.SendMonthlyReports(context.Background())
	if err != nil {
		t.Fatalf("send reports: %v", err)
	}
	if sent != 2 || len(f.notifier.reports) != 2 {
		t.Fatalf("expected 2 reports, got %d sent and %d delivered", sent, len(f.notifier.reports))
	}
	ann := f.notifier.reports[0]
	if ann.Month != "February" || ann.AccountName != "Main" || ann.Stats.TransactionCount != 1 {
		t.Fatalf("unexpected report: %+v", ann)
	}
	if len(ann.Insights) != 3 {
		t.Fatalf("expected 3 insights, got %v", ann.Insights)
	}
	if f.insights.months[0] != "February" {
		t.Fatalf("expected insights for February, got %v", f.insights.months)
	}
}

func TestSendMonthlyReportsSkipsFailures(t *testing.T) {
	f := newFixture(t)
	f.user(t, "ann@example.com")
	f.notifier.fail = true

	sent, err := f.svc.SendMonthlyReports(context.Background())
	if err != nil {
		t.Fatalf("send reports: %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected no reports sent, got %d", sent)
	}
}
