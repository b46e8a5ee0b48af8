package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Dan9191/finix/internal/models"
	"github.com/Dan9191/finix/internal/repository"
)

func TestCreateAccountDefaultSelection(t *testing.T) {
	f := newFixture(t)
	ctx, user := f.user(t, "ann@example.com")

	first := f.account(t, ctx, "Main", "100", false)
	if !first.IsDefault {
		t.Fatalf("expected first account to become default")
	}

	second := f.account(t, ctx, "Savings", "50", false)
	if second.IsDefault {
		t.Fatalf("expected second account not to be default")
	}
	if got := f.defaults(t, user.ID); len(got) != 1 || got[0] != first.ID {
		t.Fatalf("expected only %s default, got %v", first.ID, got)
	}

	third := f.account(t, ctx, "Travel", "0", true)
	if got := f.defaults(t, user.ID); len(got) != 1 || got[0] != third.ID {
		t.Fatalf("expected only %s default, got %v", third.ID, got)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	f := newFixture(t)
	ctx, user := f.user(t, "ann@example.com")

	tests := []struct {
		name  string
		input AccountInput
	}{
		{name: "non-numeric balance", input: AccountInput{Name: "Main", Balance: "abc"}},
		{name: "empty balance", input: AccountInput{Name: "Main", Balance: ""}},
		{name: "comma decimal", input: AccountInput{Name: "Main", Balance: "12,50"}},
		{name: "sub-cent balance", input: AccountInput{Name: "Main", Balance: "1.234"}},
		{name: "missing name", input: AccountInput{Name: "  ", Balance: "10"}},
		{name: "unknown type", input: AccountInput{Name: "Main", Type: "CREDIT_CARD", Balance: "10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateAccount(ctx, tt.input)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	accounts, err := f.store.ListAccounts(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 0 {
		t.Fatalf("expected no accounts after rejected input, got %d", len(accounts))
	}
}

func TestCreateAccountParsesPaddedBalance(t *testing.T) {
	f := newFixture(t)
	ctx, _ := f.user(t, "ann@example.com")

	account := f.account(t, ctx, "Main", " 1000.50 ", false)
	assertBalance(t, f, account.ID, "1000.50")
	if account.Type != models.AccountTypeCurrent {
		t.Fatalf("expected CURRENT type, got %s", account.Type)
	}
}

func TestSetDefaultAccount(t *testing.T) {
	f := newFixture(t)
	ctx, user := f.user(t, "ann@example.com")
	f.account(t, ctx, "A", "10", false)
	b := f.account(t, ctx, "B", "20", false)

	updated, err := f.svc.SetDefaultAccount(ctx, b.ID)
	if err != nil {
		t.Fatalf("set default: %v", err)
	}
	if !updated.IsDefault || updated.ID != b.ID {
		t.Fatalf("unexpected updated account: %+v", updated)
	}
	if got := f.defaults(t, user.ID); len(got) != 1 || got[0] != b.ID {
		t.Fatalf("expected only %s default, got %v", b.ID, got)
	}

	// setting the current default again keeps exactly one
	if _, err := f.svc.SetDefaultAccount(ctx, b.ID); err != nil {
		t.Fatalf("set default again: %v", err)
	}
	if got := f.defaults(t, user.ID); len(got) != 1 || got[0] != b.ID {
		t.Fatalf("expected only %s default, got %v", b.ID, got)
	}
}

func TestSetDefaultAccountNotOwned(t *testing.T) {
	f := newFixture(t)
	annCtx, ann := f.user(t, "ann@example.com")
	bobCtx, _ := f.user(t, "bob@example.com")
	annAccount := f.account(t, annCtx, "Ann", "10", false)
	f.account(t, bobCtx, "Bob", "10", false)

	_, err := f.svc.SetDefaultAccount(bobCtx, annAccount.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err.Error() != "account not found" {
		t.Fatalf("expected forbidden to read as not found, got %q", err.Error())
	}

	_, err = f.svc.SetDefaultAccount(bobCtx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := f.defaults(t, ann.ID); len(got) != 1 || got[0] != annAccount.ID {
		t.Fatalf("expected ann's default untouched, got %v", got)
	}
}

func TestDeleteDefaultAccountPromotesOldestRemaining(t *testing.T) {
	f := newFixture(t)
	ctx, user := f.user(t, "ann@example.com")
	a := f.account(t, ctx, "A", "1000", false)
	b := f.account(t, ctx, "B", "500", false)
	c := f.account(t, ctx, "C", "0", false)

	if err := f.svc.DeleteAccount(ctx, a.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	got := f.defaults(t, user.ID)
	if len(got) != 1 || got[0] != b.ID {
		t.Fatalf("expected %s to become default, got %v", b.ID, got)
	}
	assertBalance(t, f, b.ID, "500")
	assertBalance(t, f, c.ID, "0")
	if _, err := f.store.FindAccountByID(context.Background(), a.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected deleted account to be gone, got %v", err)
	}
}

func TestDeleteAccountCascadesTransactions(t *testing.T) {
	f := newFixture(t)
	ctx, user := f.user(t, "ann@example.com")
	a := f.account(t, ctx, "A", "100", false)
	b := f.account(t, ctx, "B", "100", false)
	f.transaction(t, ctx, a.ID, models.TransactionTypeDebit, "10")
	kept := f.transaction(t, ctx, b.ID, models.TransactionTypeDebit, "10")

	if err := f.svc.DeleteAccount(ctx, a.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	remaining, err := f.store.ListTransactions(context.Background(), repository.TransactionFilter{UserID: user.ID})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != kept.ID {
		t.Fatalf("expected only %s to remain, got %+v", kept.ID, remaining)
	}
}

func TestDeleteLastAccountLeavesNoDefault(t *testing.T) {
	f := newFixture(t)
	ctx, user := f.user(t, "ann@example.com")
	a := f.account(t, ctx, "A", "1", false)

	if err := f.svc.DeleteAccount(ctx, a.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if got := f.defaults(t, user.ID); len(got) != 0 {
		t.Fatalf("expected no default, got %v", got)
	}
}

func TestDeleteAccountOwnership(t *testing.T) {
	f := newFixture(t)
	annCtx, _ := f.user(t, "ann@example.com")
	bobCtx, _ := f.user(t, "bob@example.com")
	annAccount := f.account(t, annCtx, "Ann", "10", false)

	if err := f.svc.DeleteAccount(bobCtx, annAccount.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := f.svc.DeleteAccount(bobCtx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	assertBalance(t, f, annAccount.ID, "10")
}

func TestExactlyOneDefaultAcrossOperations(t *testing.T) {
	f := newFixture(t)
	ctx, user := f.user(t, "ann@example.com")

	check := func(step string) {
		t.Helper()
		accounts, err := f.store.ListAccounts(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("%s: list accounts: %v", step, err)
		}
		want := 1
		if len(accounts) == 0 {
			want = 0
		}
		if got := len(f.defaults(t, user.ID)); got != want {
			t.Fatalf("%s: expected %d default accounts, got %d", step, want, got)
		}
	}

	a := f.account(t, ctx, "A", "1", false)
	check("create A")
	b := f.account(t, ctx, "B", "1", true)
	check("create B as default")
	c := f.account(t, ctx, "C", "1", false)
	check("create C")
	if _, err := f.svc.SetDefaultAccount(ctx, c.ID); err != nil {
		t.Fatalf("set default: %v", err)
	}
	check("set C default")
	if err := f.svc.DeleteAccount(ctx, c.ID); err != nil {
		t.Fatalf("delete C: %v", err)
	}
	check("delete C")
	if err := f.svc.DeleteAccount(ctx, b.ID); err != nil {
		t.Fatalf("delete B: %v", err)
	}
	check("delete B")
	if err := f.svc.DeleteAccount(ctx, a.ID); err != nil {
		t.Fatalf("delete A: %v", err)
	}
	check("delete A")
	f.account(t, ctx, "D", "1", false)
	check("create D")
}

func TestGetAccountWithTransactions(t *testing.T) {
	f := newFixture(t)
	ctx, _ := f.user(t, "ann@example.com")
	a := f.account(t, ctx, "A", "100", false)
	f.transaction(t, ctx, a.ID, models.TransactionTypeDebit, "10")
	f.transaction(t, ctx, a.ID, models.TransactionTypeCredit, "5")

	account, transactions, err := f.svc.GetAccountWithTransactions(ctx, a.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.TransactionCount != 2 || len(transactions) != 2 {
		t.Fatalf("expected 2 transactions, got count %d and %d rows", account.TransactionCount, len(transactions))
	}
	if !account.Balance.Equal(f.balance(t, a.ID)) {
		t.Fatalf("expected stored balance, got %s", account.Balance)
	}

	otherCtx, _ := f.user(t, "bob@example.com")
	if _, _, err := f.svc.GetAccountWithTransactions(otherCtx, a.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
