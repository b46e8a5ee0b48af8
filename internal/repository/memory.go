package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dan9191/finix/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Memory is an in-process Store for development and tests.
// A unit of work holds the store mutex for its whole duration and runs
// against a copy of the data that replaces the live data only on success.
type Memory struct {
	memQuerier
	mu   sync.Mutex
	data *memData
	now  func() time.Time
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	m := &Memory{data: newMemData(), now: time.Now}
	m.memQuerier = memQuerier{m: m}
	return m
}

// SetClock replaces the clock used for created/updated timestamps
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// InTx runs fn against a private copy of the data and publishes it if fn succeeds
func (m *Memory) InTx(ctx context.Context, fn func(q Querier) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	working := m.data.clone()
	if err := fn(&memQuerier{m: m, tx: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	m.data = working
	return nil
}

type memData struct {
	seq          int64
	order        map[string]int64
	users        map[string]models.User
	accounts     map[string]models.Account
	transactions map[string]models.Transaction
	budgets      map[string]models.Budget
}

func newMemData() *memData {
	return &memData{
		order:        map[string]int64{},
		users:        map[string]models.User{},
		accounts:     map[string]models.Account{},
		transactions: map[string]models.Transaction{},
		budgets:      map[string]models.Budget{},
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	c.seq = d.seq
	for k, v := range d.order {
		c.order[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.transactions {
		c.transactions[k] = copyTransaction(v)
	}
	for k, v := range d.budgets {
		c.budgets[k] = copyBudget(v)
	}
	return c
}

// insert records insertion order so equal timestamps still sort deterministically
func (d *memData) insert(id string) {
	d.seq++
	d.order[id] = d.seq
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyTransaction(t models.Transaction) models.Transaction {
	t.NextRecurringDate = copyTime(t.NextRecurringDate)
	t.LastProcessed = copyTime(t.LastProcessed)
	return t
}

func copyBudget(b models.Budget) models.Budget {
	b.LastAlertSent = copyTime(b.LastAlertSent)
	return b
}

// memQuerier runs operations either on the live data (tx == nil, locking per
// call) or on a unit of work's private copy (lock already held by InTx).
type memQuerier struct {
	m  *Memory
	tx *memData
}

func (q *memQuerier) acquire() (*memData, func()) {
	if q.tx != nil {
		return q.tx, func() {}
	}
	q.m.mu.Lock()
	return q.m.data, q.m.mu.Unlock
}

func (q *memQuerier) CreateUser(ctx context.Context, user *models.User) error {
	d, release := q.acquire()
	defer release()

	for _, u := range d.users {
		if u.Email == user.Email {
			return fmt.Errorf("failed to create user: email %q already registered", user.Email)
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := q.m.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	d.users[user.ID] = *user
	d.insert(user.ID)
	return nil
}

func (q *memQuerier) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	d, release := q.acquire()
	defer release()

	for _, u := range d.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (q *memQuerier) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	d, release := q.acquire()
	defer release()

	u, ok := d.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (q *memQuerier) ListUsers(ctx context.Context) ([]models.User, error) {
	d, release := q.acquire()
	defer release()

	users := make([]models.User, 0, len(d.users))
	for _, u := range d.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return d.order[users[i].ID] < d.order[users[j].ID] })
	return users, nil
}

func (q *memQuerier) CreateAccount(ctx context.Context, account *models.Account) error {
	d, release := q.acquire()
	defer release()

	if _, ok := d.users[account.UserID]; !ok {
		return fmt.Errorf("failed to create account: unknown user %s", account.UserID)
	}
	if account.IsDefault {
		for _, a := range d.accounts {
			if a.UserID == account.UserID && a.IsDefault {
				return fmt.Errorf("failed to create account: user %s already has a default account", account.UserID)
			}
		}
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := q.m.now().UTC()
	account.CreatedAt, account.UpdatedAt = now, now
	account.TransactionCount = 0
	d.accounts[account.ID] = *account
	d.insert(account.ID)
	return nil
}

func (q *memQuerier) FindAccountByID(ctx context.Context, id string) (*models.Account, error) {
	d, release := q.acquire()
	defer release()

	a, ok := d.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (q *memQuerier) userAccounts(d *memData, userID string) []models.Account {
	accounts := []models.Account{}
	for _, a := range d.accounts {
		if a.UserID == userID {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return d.order[accounts[i].ID] < d.order[accounts[j].ID]
	})
	return accounts
}

func (q *memQuerier) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	d, release := q.acquire()
	defer release()

	accounts := q.userAccounts(d, userID)
	counts := map[string]int{}
	for _, t := range d.transactions {
		counts[t.AccountID]++
	}
	result := make([]models.Account, 0, len(accounts))
	for i := len(accounts) - 1; i >= 0; i-- {
		a := accounts[i]
		a.TransactionCount = counts[a.ID]
		result = append(result, a)
	}
	return result, nil
}

func (q *memQuerier) LockAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	d, release := q.acquire()
	defer release()

	return q.userAccounts(d, userID), nil
}

func (q *memQuerier) ClearDefaultAccounts(ctx context.Context, userID string) error {
	d, release := q.acquire()
	defer release()

	now := q.m.now().UTC()
	for id, a := range d.accounts {
		if a.UserID == userID && a.IsDefault {
			a.IsDefault = false
			a.UpdatedAt = now
			d.accounts[id] = a
		}
	}
	return nil
}

func (q *memQuerier) SetDefaultAccount(ctx context.Context, userID, accountID string) error {
	d, release := q.acquire()
	defer release()

	a, ok := d.accounts[accountID]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	for _, other := range d.accounts {
		if other.UserID == userID && other.IsDefault && other.ID != accountID {
			return fmt.Errorf("failed to set default account: user %s already has a default account", userID)
		}
	}
	a.IsDefault = true
	a.UpdatedAt = q.m.now().UTC()
	d.accounts[accountID] = a
	return nil
}

func (q *memQuerier) DeleteAccount(ctx context.Context, userID, accountID string) error {
	d, release := q.acquire()
	defer release()

	a, ok := d.accounts[accountID]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	delete(d.accounts, accountID)
	for id, t := range d.transactions {
		if t.AccountID == accountID {
			delete(d.transactions, id)
		}
	}
	return nil
}

func (q *memQuerier) IncrementBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	d, release := q.acquire()
	defer release()

	a, ok := d.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = q.m.now().UTC()
	d.accounts[accountID] = a
	return nil
}

func (q *memQuerier) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	d, release := q.acquire()
	defer release()

	if a, ok := d.accounts[txn.AccountID]; !ok || a.UserID != txn.UserID {
		return fmt.Errorf("failed to create transaction: unknown account %s", txn.AccountID)
	}
	if txn.IsRecurring != (txn.RecurringInterval != "") {
		return fmt.Errorf("failed to create transaction: recurring interval must be set exactly when recurring")
	}
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	now := q.m.now().UTC()
	txn.CreatedAt, txn.UpdatedAt = now, now
	d.transactions[txn.ID] = copyTransaction(*txn)
	d.insert(txn.ID)
	return nil
}

func (q *memQuerier) FindTransaction(ctx context.Context, userID, id string) (*models.Transaction, error) {
	d, release := q.acquire()
	defer release()

	t, ok := d.transactions[id]
	if !ok || t.UserID != userID {
		return nil, ErrNotFound
	}
	t = copyTransaction(t)
	return &t, nil
}

func (q *memQuerier) LockTransaction(ctx context.Context, userID, id string) (*models.Transaction, error) {
	return q.FindTransaction(ctx, userID, id)
}

func matches(t models.Transaction, filter TransactionFilter) bool {
	if filter.UserID != "" && t.UserID != filter.UserID {
		return false
	}
	if filter.AccountID != "" && t.AccountID != filter.AccountID {
		return false
	}
	if filter.Type != "" && t.Type != filter.Type {
		return false
	}
	if filter.From != nil && t.Date.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !t.Date.Before(*filter.To) {
		return false
	}
	if filter.IDs != nil {
		found := false
		for _, id := range filter.IDs {
			if id == t.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (q *memQuerier) sorted(d *memData, keep func(models.Transaction) bool) []models.Transaction {
	result := []models.Transaction{}
	for _, t := range d.transactions {
		if keep(t) {
			result = append(result, copyTransaction(t))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return d.order[result[i].ID] > d.order[result[j].ID]
	})
	return result
}

func (q *memQuerier) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	d, release := q.acquire()
	defer release()

	return q.sorted(d, func(t models.Transaction) bool { return matches(t, filter) }), nil
}

func (q *memQuerier) SumTransactions(ctx context.Context, filter TransactionFilter) (decimal.Decimal, error) {
	d, release := q.acquire()
	defer release()

	total := decimal.Zero
	for _, t := range d.transactions {
		if matches(t, filter) {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

func (q *memQuerier) UpdateTransaction(ctx context.Context, txn *models.Transaction) error {
	d, release := q.acquire()
	defer release()

	existing, ok := d.transactions[txn.ID]
	if !ok || existing.UserID != txn.UserID {
		return ErrNotFound
	}
	if a, ok := d.accounts[txn.AccountID]; !ok || a.UserID != txn.UserID {
		return fmt.Errorf("failed to update transaction: unknown account %s", txn.AccountID)
	}
	txn.CreatedAt = existing.CreatedAt
	txn.UpdatedAt = q.m.now().UTC()
	d.transactions[txn.ID] = copyTransaction(*txn)
	return nil
}

func (q *memQuerier) DeleteTransactions(ctx context.Context, userID string, ids []string) ([]models.Transaction, error) {
	d, release := q.acquire()
	defer release()

	var deleted []models.Transaction
	for _, id := range ids {
		if t, ok := d.transactions[id]; ok && t.UserID == userID {
			deleted = append(deleted, copyTransaction(t))
			delete(d.transactions, id)
		}
	}
	return deleted, nil
}

func (q *memQuerier) ListDueRecurring(ctx context.Context, now time.Time) ([]models.Transaction, error) {
	d, release := q.acquire()
	defer release()

	due := q.sorted(d, func(t models.Transaction) bool {
		if !t.IsRecurring || t.Status != models.TransactionStatusCompleted {
			return false
		}
		return t.LastProcessed == nil || (t.NextRecurringDate != nil && !t.NextRecurringDate.After(now))
	})
	sort.SliceStable(due, func(i, j int) bool { return d.order[due[i].ID] < d.order[due[j].ID] })
	return due, nil
}

func (q *memQuerier) UpsertBudget(ctx context.Context, budget *models.Budget) error {
	d, release := q.acquire()
	defer release()

	now := q.m.now().UTC()
	existing, ok := d.budgets[budget.UserID]
	if !ok {
		existing = models.Budget{ID: uuid.NewString(), UserID: budget.UserID, CreatedAt: now}
		d.insert(existing.ID)
	}
	existing.Amount = budget.Amount
	existing.UpdatedAt = now
	d.budgets[budget.UserID] = existing
	*budget = copyBudget(existing)
	return nil
}

func (q *memQuerier) FindBudget(ctx context.Context, userID string) (*models.Budget, error) {
	d, release := q.acquire()
	defer release()

	b, ok := d.budgets[userID]
	if !ok {
		return nil, ErrNotFound
	}
	b = copyBudget(b)
	return &b, nil
}

func (q *memQuerier) ListBudgets(ctx context.Context) ([]models.Budget, error) {
	d, release := q.acquire()
	defer release()

	budgets := make([]models.Budget, 0, len(d.budgets))
	for _, b := range d.budgets {
		budgets = append(budgets, copyBudget(b))
	}
	sort.Slice(budgets, func(i, j int) bool { return d.order[budgets[i].ID] < d.order[budgets[j].ID] })
	return budgets, nil
}

func (q *memQuerier) SetBudgetAlertSent(ctx context.Context, budgetID string, at time.Time) error {
	d, release := q.acquire()
	defer release()

	for userID, b := range d.budgets {
		if b.ID == budgetID {
			b.LastAlertSent = &at
			b.UpdatedAt = q.m.now().UTC()
			d.budgets[userID] = b
			return nil
		}
	}
	return ErrNotFound
}

var _ Store = (*Memory)(nil)
