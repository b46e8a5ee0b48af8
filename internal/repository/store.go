package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Dan9191/finix/internal/models"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a looked-up row does not exist
var ErrNotFound = errors.New("record not found")

// TransactionFilter narrows transaction queries. Zero fields do not filter.
// From is inclusive, To is exclusive.
type TransactionFilter struct {
	UserID    string
	AccountID string
	Type      models.TransactionType
	From      *time.Time
	To        *time.Time
	IDs       []string
}

// Querier is the set of store operations available both inside and outside a unit of work
type Querier interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	CreateAccount(ctx context.Context, account *models.Account) error
	FindAccountByID(ctx context.Context, id string) (*models.Account, error)
	// ListAccounts returns the user's accounts newest first with transaction counts.
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)
	// LockAccounts returns the user's accounts oldest first and, inside a unit
	// of work, holds row locks on them until it ends.
	LockAccounts(ctx context.Context, userID string) ([]models.Account, error)
	ClearDefaultAccounts(ctx context.Context, userID string) error
	SetDefaultAccount(ctx context.Context, userID, accountID string) error
	DeleteAccount(ctx context.Context, userID, accountID string) error
	IncrementBalance(ctx context.Context, accountID string, delta decimal.Decimal) error

	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	FindTransaction(ctx context.Context, userID, id string) (*models.Transaction, error)
	// LockTransaction is FindTransaction holding a row lock for the rest of the unit of work.
	LockTransaction(ctx context.Context, userID, id string) (*models.Transaction, error)
	// ListTransactions returns matching transactions, most recent date first.
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
	SumTransactions(ctx context.Context, filter TransactionFilter) (decimal.Decimal, error)
	UpdateTransaction(ctx context.Context, txn *models.Transaction) error
	// DeleteTransactions deletes the user's transactions among ids and returns
	// the rows actually removed. Unknown and foreign ids are skipped.
	DeleteTransactions(ctx context.Context, userID string, ids []string) ([]models.Transaction, error)
	// ListDueRecurring returns completed recurring transactions that were never
	// processed or whose next recurring date is at or before now.
	ListDueRecurring(ctx context.Context, now time.Time) ([]models.Transaction, error)

	UpsertBudget(ctx context.Context, budget *models.Budget) error
	FindBudget(ctx context.Context, userID string) (*models.Budget, error)
	ListBudgets(ctx context.Context) ([]models.Budget, error)
	SetBudgetAlertSent(ctx context.Context, budgetID string, at time.Time) error
}

// Store is a Querier that can also run several operations as one atomic unit
type Store interface {
	Querier
	// InTx runs fn in a single unit of work. Any error returned by fn rolls
	// back every change fn made.
	InTx(ctx context.Context, fn func(q Querier) error) error
}
