package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/finix/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Postgres provides database operations on PostgreSQL
type Postgres struct {
	pgQuerier
	db *sql.DB
}

// NewPostgres initializes a new repository over an open connection pool
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{pgQuerier: pgQuerier{q: db}, db: db}
}

// InTx runs fn inside a database transaction
func (r *Postgres) InTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&pgQuerier{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type pgQuerier struct {
	q dbtx
}

// validID guards uuid columns from malformed input which postgres rejects with an error
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

const userColumns = `id, email, name, image_url, password_hash, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.ImageURL, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser creates a new user in the database
func (r *pgQuerier) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query := `
		INSERT INTO finix.users (id, email, name, image_url, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, user.ID, user.Email, user.Name, user.ImageURL, user.PasswordHash).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *pgQuerier) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM finix.users WHERE email = $1`
	user, err := scanUser(r.q.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by id
func (r *pgQuerier) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM finix.users WHERE id = $1`
	user, err := scanUser(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListUsers retrieves every registered user
func (r *pgQuerier) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+userColumns+` FROM finix.users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

const accountColumns = `id, user_id, name, type, balance, is_default, created_at, updated_at`

func scanAccount(row rowScanner, extra ...any) (*models.Account, error) {
	account := &models.Account{}
	dest := []any{&account.ID, &account.UserID, &account.Name, &account.Type, &account.Balance,
		&account.IsDefault, &account.CreatedAt, &account.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return account, nil
}

// CreateAccount creates a new account in the database
func (r *pgQuerier) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	query := `
		INSERT INTO finix.accounts (id, user_id, name, type, balance, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, account.ID, account.UserID, account.Name, account.Type,
		account.Balance, account.IsDefault).
		Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindAccountByID retrieves an account regardless of owner
func (r *pgQuerier) FindAccountByID(ctx context.Context, id string) (*models.Account, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + accountColumns + ` FROM finix.accounts WHERE id = $1`
	account, err := scanAccount(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

// ListAccounts retrieves the user's accounts with their transaction counts
func (r *pgQuerier) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	query := `
		SELECT a.id, a.user_id, a.name, a.type, a.balance, a.is_default, a.created_at, a.updated_at,
			(SELECT COUNT(*) FROM finix.transactions t WHERE t.account_id = a.id)
		FROM finix.accounts a
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC, a.id DESC`
	return r.queryAccounts(ctx, query, userID, true)
}

// LockAccounts retrieves the user's accounts oldest first with FOR UPDATE row locks.
// The owner row is locked first so that callers serialize even when the user
// has no accounts yet.
func (r *pgQuerier) LockAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	if validID(userID) {
		var id string
		err := r.q.QueryRowContext(ctx, `SELECT id FROM finix.users WHERE id = $1 FOR NO KEY UPDATE`, userID).Scan(&id)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to lock user: %w", err)
		}
	}
	query := `
		SELECT ` + accountColumns + `
		FROM finix.accounts
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
		FOR UPDATE`
	return r.queryAccounts(ctx, query, userID, false)
}

func (r *pgQuerier) queryAccounts(ctx context.Context, query, userID string, withCount bool) ([]models.Account, error) {
	if !validID(userID) {
		return []models.Account{}, nil
	}
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var count int
		var extra []any
		if withCount {
			extra = append(extra, &count)
		}
		account, err := scanAccount(rows, extra...)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		account.TransactionCount = count
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// ClearDefaultAccounts unsets the default flag on all of the user's accounts
func (r *pgQuerier) ClearDefaultAccounts(ctx context.Context, userID string) error {
	query := `
		UPDATE finix.accounts
		SET is_default = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND is_default`
	if _, err := r.q.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to clear default accounts: %w", err)
	}
	return nil
}

// SetDefaultAccount marks one of the user's accounts as default
func (r *pgQuerier) SetDefaultAccount(ctx context.Context, userID, accountID string) error {
	if !validID(accountID) {
		return ErrNotFound
	}
	query := `
		UPDATE finix.accounts
		SET is_default = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2`
	return r.execOne(ctx, "set default account", query, accountID, userID)
}

// DeleteAccount deletes one of the user's accounts; its transactions cascade
func (r *pgQuerier) DeleteAccount(ctx context.Context, userID, accountID string) error {
	if !validID(accountID) {
		return ErrNotFound
	}
	query := `DELETE FROM finix.accounts WHERE id = $1 AND user_id = $2`
	return r.execOne(ctx, "delete account", query, accountID, userID)
}

// IncrementBalance adds delta to the account balance in a single relative update
func (r *pgQuerier) IncrementBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	if !validID(accountID) {
		return ErrNotFound
	}
	query := `
		UPDATE finix.accounts
		SET balance = balance + $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`
	return r.execOne(ctx, "update account balance", query, delta, accountID)
}

func (r *pgQuerier) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const transactionColumns = `id, user_id, account_id, type, amount, description, category, date, receipt_url,
	is_recurring, recurring_interval, next_recurring_date, last_processed, status, created_at, updated_at`

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var interval sql.NullString
	var next, last sql.NullTime
	err := row.Scan(&txn.ID, &txn.UserID, &txn.AccountID, &txn.Type, &txn.Amount, &txn.Description,
		&txn.Category, &txn.Date, &txn.ReceiptURL, &txn.IsRecurring, &interval, &next, &last,
		&txn.Status, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return nil, err
	}
	txn.RecurringInterval = models.RecurringInterval(interval.String)
	txn.NextRecurringDate = nullTimePtr(next)
	txn.LastProcessed = nullTimePtr(last)
	return txn, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullInterval(txn *models.Transaction) sql.NullString {
	return sql.NullString{String: string(txn.RecurringInterval), Valid: txn.IsRecurring && txn.RecurringInterval != ""}
}

// CreateTransaction inserts a transaction row
func (r *pgQuerier) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	query := `
		INSERT INTO finix.transactions (id, user_id, account_id, type, amount, description, category, date,
			receipt_url, is_recurring, recurring_interval, next_recurring_date, last_processed, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, txn.ID, txn.UserID, txn.AccountID, txn.Type, txn.Amount,
		txn.Description, txn.Category, txn.Date, txn.ReceiptURL, txn.IsRecurring, nullInterval(txn),
		txn.NextRecurringDate, txn.LastProcessed, txn.Status).
		Scan(&txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// FindTransaction retrieves one of the user's transactions
func (r *pgQuerier) FindTransaction(ctx context.Context, userID, id string) (*models.Transaction, error) {
	return r.findTransaction(ctx, userID, id, "")
}

// LockTransaction retrieves one of the user's transactions with a FOR UPDATE row lock
func (r *pgQuerier) LockTransaction(ctx context.Context, userID, id string) (*models.Transaction, error) {
	return r.findTransaction(ctx, userID, id, " FOR UPDATE")
}

func (r *pgQuerier) findTransaction(ctx context.Context, userID, id, suffix string) (*models.Transaction, error) {
	if !validID(id) || !validID(userID) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + transactionColumns + ` FROM finix.transactions WHERE id = $1 AND user_id = $2` + suffix
	txn, err := scanTransaction(r.q.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return txn, nil
}

// whereClause renders filter as a SQL condition list with positional args
func whereClause(filter TransactionFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.AccountID != "" {
		add("account_id = $%d", filter.AccountID)
	}
	if filter.Type != "" {
		add("type = $%d", string(filter.Type))
	}
	if filter.From != nil {
		add("date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("date < $%d", *filter.To)
	}
	if filter.IDs != nil {
		add("id = ANY($%d)", pq.Array(filter.IDs))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func filterIsValid(filter TransactionFilter) bool {
	if filter.UserID != "" && !validID(filter.UserID) {
		return false
	}
	if filter.AccountID != "" && !validID(filter.AccountID) {
		return false
	}
	for _, id := range filter.IDs {
		if !validID(id) {
			return false
		}
	}
	return true
}

// ListTransactions retrieves transactions matching filter, most recent first
func (r *pgQuerier) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	if !filterIsValid(filter) {
		return []models.Transaction{}, nil
	}
	where, args := whereClause(filter)
	query := `SELECT ` + transactionColumns + ` FROM finix.transactions` + where + ` ORDER BY date DESC, created_at DESC`
	return r.queryTransactions(ctx, query, args...)
}

func (r *pgQuerier) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	return transactions, rows.Err()
}

// SumTransactions returns the total amount of transactions matching filter
func (r *pgQuerier) SumTransactions(ctx context.Context, filter TransactionFilter) (decimal.Decimal, error) {
	if !filterIsValid(filter) {
		return decimal.Zero, nil
	}
	where, args := whereClause(filter)
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM finix.transactions` + where
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}

// UpdateTransaction overwrites the mutable fields of a transaction
func (r *pgQuerier) UpdateTransaction(ctx context.Context, txn *models.Transaction) error {
	if !validID(txn.ID) {
		return ErrNotFound
	}
	query := `
		UPDATE finix.transactions
		SET account_id = $1, type = $2, amount = $3, description = $4, category = $5, date = $6,
			receipt_url = $7, is_recurring = $8, recurring_interval = $9, next_recurring_date = $10,
			last_processed = $11, status = $12, updated_at = CURRENT_TIMESTAMP
		WHERE id = $13 AND user_id = $14
		RETURNING updated_at`
	err := r.q.QueryRowContext(ctx, query, txn.AccountID, txn.Type, txn.Amount, txn.Description,
		txn.Category, txn.Date, txn.ReceiptURL, txn.IsRecurring, nullInterval(txn), txn.NextRecurringDate,
		txn.LastProcessed, txn.Status, txn.ID, txn.UserID).
		Scan(&txn.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// DeleteTransactions deletes the user's transactions among ids and returns the removed rows
func (r *pgQuerier) DeleteTransactions(ctx context.Context, userID string, ids []string) ([]models.Transaction, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 || !validID(userID) {
		return nil, nil
	}
	// rows are locked in id order so overlapping bulk deletes cannot deadlock
	query := `
		WITH locked AS (
			SELECT id FROM finix.transactions
			WHERE user_id = $1 AND id = ANY($2)
			ORDER BY id
			FOR UPDATE
		)
		DELETE FROM finix.transactions
		WHERE id IN (SELECT id FROM locked)
		RETURNING ` + transactionColumns
	deleted, err := r.queryTransactions(ctx, query, userID, pq.Array(valid))
	if err != nil {
		return nil, fmt.Errorf("failed to delete transactions: %w", err)
	}
	return deleted, nil
}

// ListDueRecurring retrieves recurring transactions due at now
func (r *pgQuerier) ListDueRecurring(ctx context.Context, now time.Time) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM finix.transactions
		WHERE is_recurring AND status = $1
			AND (last_processed IS NULL OR next_recurring_date <= $2)
		ORDER BY created_at`
	return r.queryTransactions(ctx, query, models.TransactionStatusCompleted, now)
}

const budgetColumns = `id, user_id, amount, last_alert_sent, created_at, updated_at`

func scanBudget(row rowScanner) (*models.Budget, error) {
	budget := &models.Budget{}
	var lastAlert sql.NullTime
	if err := row.Scan(&budget.ID, &budget.UserID, &budget.Amount, &lastAlert, &budget.CreatedAt, &budget.UpdatedAt); err != nil {
		return nil, err
	}
	budget.LastAlertSent = nullTimePtr(lastAlert)
	return budget, nil
}

// UpsertBudget creates the user's budget or updates its amount
func (r *pgQuerier) UpsertBudget(ctx context.Context, budget *models.Budget) error {
	query := `
		INSERT INTO finix.budgets (id, user_id, amount, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET amount = EXCLUDED.amount, updated_at = CURRENT_TIMESTAMP
		RETURNING ` + budgetColumns
	saved, err := scanBudget(r.q.QueryRowContext(ctx, query, uuid.NewString(), budget.UserID, budget.Amount))
	if err != nil {
		return fmt.Errorf("failed to upsert budget: %w", err)
	}
	*budget = *saved
	return nil
}

// FindBudget retrieves the user's budget
func (r *pgQuerier) FindBudget(ctx context.Context, userID string) (*models.Budget, error) {
	if !validID(userID) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + budgetColumns + ` FROM finix.budgets WHERE user_id = $1`
	budget, err := scanBudget(r.q.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find budget: %w", err)
	}
	return budget, nil
}

// ListBudgets retrieves every budget
func (r *pgQuerier) ListBudgets(ctx context.Context) ([]models.Budget, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+budgetColumns+` FROM finix.budgets ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []models.Budget{}
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, *budget)
	}
	return budgets, rows.Err()
}

// SetBudgetAlertSent records when the last budget alert went out
func (r *pgQuerier) SetBudgetAlertSent(ctx context.Context, budgetID string, at time.Time) error {
	if !validID(budgetID) {
		return ErrNotFound
	}
	query := `UPDATE finix.budgets SET last_alert_sent = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	return r.execOne(ctx, "update budget alert time", query, at, budgetID)
}

var _ Store = (*Postgres)(nil)
