package handler

import (
	"encoding/json"
	"time"

	"github.com/Dan9191/finix/internal/models"
	"github.com/shopspring/decimal"
)

// money renders an amount as an exact JSON number with two decimals
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserView(u *models.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		ImageURL:  u.ImageURL,
		CreatedAt: u.CreatedAt,
	}
}

type accountView struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Type             string      `json:"type"`
	Balance          json.Number `json:"balance"`
	IsDefault        bool        `json:"isDefault"`
	TransactionCount int         `json:"transactionCount"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

func newAccountView(a *models.Account) accountView {
	return accountView{
		ID:               a.ID,
		Name:             a.Name,
		Type:             string(a.Type),
		Balance:          money(a.Balance),
		IsDefault:        a.IsDefault,
		TransactionCount: a.TransactionCount,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func newAccountViews(accounts []models.Account) []accountView {
	views := make([]accountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, newAccountView(&accounts[i]))
	}
	return views
}

type transactionView struct {
	ID                string      `json:"id"`
	AccountID         string      `json:"accountId"`
	Type              string      `json:"type"`
	Amount            json.Number `json:"amount"`
	Description       string      `json:"description"`
	Category          string      `json:"category"`
	Date              time.Time   `json:"date"`
	ReceiptURL        string      `json:"receiptUrl,omitempty"`
	IsRecurring       bool        `json:"isRecurring"`
	RecurringInterval string      `json:"recurringInterval,omitempty"`
	NextRecurringDate *time.Time  `json:"nextRecurringDate"`
	LastProcessed     *time.Time  `json:"lastProcessed"`
	Status            string      `json:"status"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

func newTransactionView(t *models.Transaction) transactionView {
	return transactionView{
		ID:                t.ID,
		AccountID:         t.AccountID,
		Type:              string(t.Type),
		Amount:            money(t.Amount),
		Description:       t.Description,
		Category:          t.Category,
		Date:              t.Date,
		ReceiptURL:        t.ReceiptURL,
		IsRecurring:       t.IsRecurring,
		RecurringInterval: string(t.RecurringInterval),
		NextRecurringDate: t.NextRecurringDate,
		LastProcessed:     t.LastProcessed,
		Status:            string(t.Status),
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func newTransactionViews(transactions []models.Transaction) []transactionView {
	views := make([]transactionView, 0, len(transactions))
	for i := range transactions {
		views = append(views, newTransactionView(&transactions[i]))
	}
	return views
}

type budgetView struct {
	ID            string      `json:"id"`
	Amount        json.Number `json:"amount"`
	LastAlertSent *time.Time  `json:"lastAlertSent"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

func newBudgetView(b *models.Budget) *budgetView {
	if b == nil {
		return nil
	}
	return &budgetView{
		ID:            b.ID,
		Amount:        money(b.Amount),
		LastAlertSent: b.LastAlertSent,
		UpdatedAt:     b.UpdatedAt,
	}
}

type currentBudgetView struct {
	Budget          *budgetView `json:"budget"`
	CurrentExpenses json.Number `json:"currentExpenses"`
}

type receiptView struct {
	Amount       json.Number `json:"amount"`
	Date         string      `json:"date"`
	Description  string      `json:"description"`
	MerchantName string      `json:"merchantName"`
	Category     string      `json:"category"`
}

func newReceiptView(r *models.ScannedReceipt) receiptView {
	v := receiptView{
		Amount:       money(r.Amount),
		Description:  r.Description,
		MerchantName: r.MerchantName,
		Category:     r.Category,
	}
	if !r.Date.IsZero() {
		v.Date = r.Date.Format(dateLayout)
	}
	return v
}
