package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a user's monthly spending target. There is at most one per user.
type Budget struct {
	ID            string
	UserID        string
	Amount        decimal.Decimal
	LastAlertSent *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CurrentBudget pairs a budget with the expenses recorded against it this month
type CurrentBudget struct {
	Budget          *Budget
	CurrentExpenses decimal.Decimal
}
