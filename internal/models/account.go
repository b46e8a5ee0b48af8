package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType distinguishes current and savings accounts
type AccountType string

const (
	AccountTypeCurrent AccountType = "CURRENT"
	AccountTypeSavings AccountType = "SAVINGS"
)

// Valid reports whether t is a known account type
func (t AccountType) Valid() bool {
	return t == AccountTypeCurrent || t == AccountTypeSavings
}

// Account represents a user's financial account
type Account struct {
	ID               string
	UserID           string
	Name             string
	Type             AccountType
	Balance          decimal.Decimal
	IsDefault        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	TransactionCount int
}
