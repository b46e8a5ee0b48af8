package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dan9191/finix/internal/models"
	"github.com/shopspring/decimal"
)

func seedAccount(t *testing.T, m *Memory, email string) (*models.User, *models.Account) {
	t.Helper()
	ctx := context.Background()
	user := &models.User{Email: email, Name: "Test"}
	if err := m.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	account := &models.Account{UserID: user.ID, Name: "Main", Type: models.AccountTypeCurrent, Balance: decimal.NewFromInt(100), IsDefault: true}
	if err := m.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return user, account
}

func balanceOf(t *testing.T, m *Memory, id string) string {
	t.Helper()
	a, err := m.FindAccountByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find account: %v", err)
	}
	return a.Balance.StringFixed(2)
}

func TestMemoryInTxRollsBack(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	user, account := seedAccount(t, m, "ann@example.com")

	boom := errors.New("boom")
	err := m.InTx(ctx, func(q Querier) error {
		if err := q.IncrementBalance(ctx, account.ID, decimal.NewFromInt(50)); err != nil {
			return err
		}
		txn := &models.Transaction{UserID: user.ID, AccountID: account.ID, Type: models.TransactionTypeCredit, Amount: decimal.NewFromInt(50), Category: "salary", Status: models.TransactionStatusCompleted}
		if err := q.CreateTransaction(ctx, txn); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if got := balanceOf(t, m, account.ID); got != "100.00" {
		t.Fatalf("expected balance untouched, got %s", got)
	}
	txns, _ := m.ListTransactions(ctx, TransactionFilter{UserID: user.ID})
	if len(txns) != 0 {
		t.Fatalf("expected no transactions after rollback, got %d", len(txns))
	}
}

func TestMemoryInTxCommits(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, account := seedAccount(t, m, "ann@example.com")

	err := m.InTx(ctx, func(q Querier) error {
		return q.IncrementBalance(ctx, account.ID, decimal.RequireFromString("-25.5"))
	})
	if err != nil {
		t.Fatalf("in tx: %v", err)
	}
	if got := balanceOf(t, m, account.ID); got != "74.50" {
		t.Fatalf("expected 74.50, got %s", got)
	}
}

func TestMemoryRejectsSecondDefault(t *testing.T) {
	m := NewMemory()
	user, _ := seedAccount(t, m, "ann@example.com")

	second := &models.Account{UserID: user.ID, Name: "Savings", Type: models.AccountTypeSavings, IsDefault: true}
	if err := m.CreateAccount(context.Background(), second); err == nil {
		t.Fatalf("expected a second default account to be rejected")
	}
}

func TestMemoryDeleteAccountCascades(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	user, account := seedAccount(t, m, "ann@example.com")

	txn := &models.Transaction{UserID: user.ID, AccountID: account.ID, Type: models.TransactionTypeDebit, Amount: decimal.NewFromInt(5), Category: "food", Status: models.TransactionStatusCompleted}
	if err := m.CreateTransaction(ctx, txn); err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if err := m.DeleteAccount(ctx, user.ID, account.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, err := m.FindTransaction(ctx, user.ID, txn.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected the transaction to be deleted with its account, got %v", err)
	}
}

func TestMemoryDeleteTransactionsReturnsOwnedRows(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	ann, annAccount := seedAccount(t, m, "ann@example.com")
	bob, bobAccount := seedAccount(t, m, "bob@example.com")

	mine := &models.Transaction{UserID: ann.ID, AccountID: annAccount.ID, Type: models.TransactionTypeDebit, Amount: decimal.NewFromInt(5), Category: "food", Status: models.TransactionStatusCompleted}
	theirs := &models.Transaction{UserID: bob.ID, AccountID: bobAccount.ID, Type: models.TransactionTypeDebit, Amount: decimal.NewFromInt(7), Category: "food", Status: models.TransactionStatusCompleted}
	for _, txn := range []*models.Transaction{mine, theirs} {
		if err := m.CreateTransaction(ctx, txn); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	deleted, err := m.DeleteTransactions(ctx, ann.ID, []string{mine.ID, theirs.ID, mine.ID, "missing"})
	if err != nil {
		t.Fatalf("delete transactions: %v", err)
	}
	if len(deleted) != 1 || deleted[0].ID != mine.ID || !deleted[0].Amount.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected only ann's transaction, got %+v", deleted)
	}
	if _, err := m.FindTransaction(ctx, bob.ID, theirs.ID); err != nil {
		t.Fatalf("expected bob's transaction to survive: %v", err)
	}
}

func TestMemoryListDueRecurring(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	user, account := seedAccount(t, m, "ann@example.com")
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	cases := map[string]*models.Transaction{
		"never processed": {IsRecurring: true, RecurringInterval: models.IntervalDaily, Status: models.TransactionStatusCompleted},
		"due":             {IsRecurring: true, RecurringInterval: models.IntervalDaily, Status: models.TransactionStatusCompleted, LastProcessed: &past, NextRecurringDate: &past},
		"not yet":         {IsRecurring: true, RecurringInterval: models.IntervalDaily, Status: models.TransactionStatusCompleted, LastProcessed: &past, NextRecurringDate: &future},
		"pending":         {IsRecurring: true, RecurringInterval: models.IntervalDaily, Status: models.TransactionStatusPending},
		"one-off":         {Status: models.TransactionStatusCompleted},
	}
	ids := map[string]string{}
	for name, txn := range cases {
		txn.UserID, txn.AccountID = user.ID, account.ID
		txn.Type, txn.Amount, txn.Category = models.TransactionTypeDebit, decimal.NewFromInt(1), "rent"
		if err := m.CreateTransaction(ctx, txn); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		ids[txn.ID] = name
	}

	due, err := m.ListDueRecurring(ctx, now)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	got := map[string]bool{}
	for _, txn := range due {
		got[ids[txn.ID]] = true
	}
	if len(got) != 2 || !got["never processed"] || !got["due"] {
		t.Fatalf("unexpected due set: %v", got)
	}
}
