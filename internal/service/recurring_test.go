package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dan9191/finix/internal/models"
	"github.com/Dan9191/finix/internal/repository"
	"github.com/shopspring/decimal"
)

func TestNextRecurringDate(t *testing.T) {
	at := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 8, 30, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		from     time.Time
		interval models.RecurringInterval
		want     time.Time
	}{
		{name: "daily", from: at(2026, time.March, 15), interval: models.IntervalDaily, want: at(2026, time.March, 16)},
		{name: "daily across year", from: at(2026, time.December, 31), interval: models.IntervalDaily, want: at(2027, time.January, 1)},
		{name: "weekly", from: at(2026, time.March, 28), interval: models.IntervalWeekly, want: at(2026, time.April, 4)},
		{name: "monthly", from: at(2026, time.March, 15), interval: models.IntervalMonthly, want: at(2026, time.April, 15)},
		{name: "monthly clamps to february", from: at(2026, time.January, 31), interval: models.IntervalMonthly, want: at(2026, time.February, 28)},
		{name: "monthly clamps to leap february", from: at(2028, time.January, 31), interval: models.IntervalMonthly, want: at(2028, time.February, 29)},
		{name: "monthly clamps to 30 days", from: at(2026, time.May, 31), interval: models.IntervalMonthly, want: at(2026, time.June, 30)},
		{name: "monthly across year", from: at(2026, time.December, 31), interval: models.IntervalMonthly, want: at(2027, time.January, 31)},
		{name: "yearly", from: at(2026, time.March, 15), interval: models.IntervalYearly, want: at(2027, time.March, 15)},
		{name: "yearly from leap day", from: at(2028, time.February, 29), interval: models.IntervalYearly, want: at(2029, time.February, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextRecurringDate(tt.from, tt.interval); !got.Equal(tt.want) {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func (f *fixture) dailyRent(t *testing.T, userID, accountID string) *models.Transaction {
	t.Helper()
	last := f.now.AddDate(0, 0, -2)
	next := f.now.AddDate(0, 0, -1)
	return f.seed(t, &models.Transaction{
		UserID:            userID,
		AccountID:         accountID,
		Type:              models.TransactionTypeDebit,
		Amount:            decimal.RequireFromString("50"),
		Description:       "Parking",
		Date:              last,
		IsRecurring:       true,
		RecurringInterval: models.IntervalDaily,
		LastProcessed:     &last,
		NextRecurringDate: &next,
	})
}

func TestApplyRecurringTransaction(t *testing.T) {
	f := newFixture(t)
	ctx, user := f.user(t, "ann@example.com")
	a := f.account(t, ctx, "A", "1000", false)
	template := f.dailyRent(t, user.ID, a.ID)

	occurrence, err := f.svc.ApplyRecurringTransaction(context.Background(), user.ID, template.ID)
	if err != nil {
		t.Fatalf("apply recurring: %v", err)
	}
	if occurrence == nil {
		t.Fatalf("expected an occurrence")
	}
	if occurrence.Description != "Parking (Recurring)" || occurrence.IsRecurring || !occurrence.Date.Equal(f.now) {
		t.Fatalf("unexpected occurrence: %+v", occurrence)
	}
	assertBalance(t, f, a.ID, "950")

	updated, err := f.store.FindTransaction(context.Background(), user.ID, template.ID)
	if err != nil {
		t.Fatalf("find template: %v", err)
	}
	if updated.LastProcessed == nil || !updated.LastProcessed.Equal(f.now) {
		t.Fatalf("expected last processed %s, got %v", f.now, updated.LastProcessed)
	}
	if want := f.now.AddDate(0, 0, 1); updated.NextRecurringDate == nil || !updated.NextRecurringDate.Equal(want) {
		t.Fatalf("expected next recurring date %s, got %v", want, updated.NextRecurringDate)
	}

	// a second delivery at the same instant is a no-op
	again, err := f.svc.ApplyRecurringTransaction(context.Background(), user.ID, template.ID)
	if err != nil {
		t.Fatalf("apply recurring again: %v", err)
	}
	if again != nil {
		t.Fatalf("expected no occurrence on second apply, got %+v", again)
	}
	assertBalance(t, f, a.ID, "950")

	all, err := f.store.ListTransactions(context.Background(), repository.TransactionFilter{AccountID: a.ID})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected template plus one occurrence, got %d rows", len(all))
	}
}

func TestApplyRecurringTransactionNotDue(t *testing.T) {
	f := newFixture(t)
	ctx, user := f.user(t, "ann@example.com")
	a := f.account(t, ctx, "A", "1000", false)
	last := f.now.AddDate(0, 0, -1)
	next := f.now.AddDate(0, 0, 6)
	template := f.seed(t, &models.Transaction{
		UserID: user.ID, AccountID: a.ID, Type: models.TransactionTypeCredit,
		Amount: decimal.RequireFromString("10"), Date: last,
		IsRecurring: true, RecurringInterval: models.IntervalWeekly,
		LastProcessed: &last, NextRecurringDate: &next,
	})

	occurrence, err := f.svc.ApplyRecurringTransaction(context.Background(), user.ID, template.ID)
	if err != nil {
		t.Fatalf("apply recurring: %v", err)
	}
	if occurrence != nil {
		t.Fatalf("expected no occurrence, got %+v", occurrence)
	}
	assertBalance(t, f, a.ID, "1000")
}

func TestApplyRecurringTransactionNeverProcessedIsDue(t *testing.T) {
	f := newFixture(t)
	ctx, user := f.user(t, "ann@example.com")
	a := f.account(t, ctx, "A", "1000", false)
	next := f.now.AddDate(1, 0, 0)
	template := f.seed(t, &models.Transaction{
		UserID: user.ID, AccountID: a.ID, Type: models.TransactionTypeCredit,
		Amount: decimal.RequireFromString("10"), Date: f.now,
		IsRecurring: true, RecurringInterval: models.IntervalYearly,
		NextRecurringDate: &next,
	})

	occurrence, err := f.svc.ApplyRecurringTransaction(context.Background(), user.ID, template.ID)
	if err != nil {
		t.Fatalf("apply recurring: %v", err)
	}
	if occurrence == nil {
		t.Fatalf("expected an occurrence for a never processed template")
	}
	assertBalance(t, f, a.ID, "1010")
}

func TestApplyRecurringTransactionWrongOwner(t *testing.T) {
	f := newFixture(t)
	ctx, user := f.user(t, "ann@example.com")
	_, bob := f.user(t, "bob@example.com")
	a := f.account(t, ctx, "A", "1000", false)
	template := f.dailyRent(t, user.ID, a.ID)

	if _, err := f.svc.ApplyRecurringTransaction(context.Background(), bob.ID, template.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	assertBalance(t, f, a.ID, "1000")
}

func TestApplyRecurringTransactionIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx, user := f.user(t, "ann@example.com")
	a := f.account(t, ctx, "A", "1000", false)
	template := f.dailyRent(t, user.ID, a.ID)

	broken := newTestService(failingStore{Store: f.store}, f, func() time.Time { return f.now })
	if _, err := broken.ApplyRecurringTransaction(context.Background(), user.ID, template.ID); err == nil {
		t.Fatalf("expected apply to fail")
	}

	all, err := f.store.ListTransactions(context.Background(), repository.TransactionFilter{AccountID: a.ID})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected no occurrence after failure, got %d rows", len(all))
	}
	if !all[0].LastProcessed.Equal(*template.LastProcessed) {
		t.Fatalf("expected template schedule untouched, got %v", all[0].LastProcessed)
	}
	assertBalance(t, f, a.ID, "1000")
}

func TestDueRecurringTransactions(t *testing.T) {
	f := newFixture(t)
	ctx, user := f.user(t, "ann@example.com")
	a := f.account(t, ctx, "A", "1000", false)
	due := f.dailyRent(t, user.ID, a.ID)
	f.transaction(t, ctx, a.ID, models.TransactionTypeDebit, "5")

	list, err := f.svc.DueRecurringTransactions(context.Background())
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(list) != 1 || list[0].ID != due.ID {
		t.Fatalf("expected only %s due, got %+v", due.ID, list)
	}
}
