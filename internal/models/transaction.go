package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of money movement
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// TransactionStatus is the processing state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// RecurringInterval is the period between occurrences of a recurring transaction
type RecurringInterval string

const (
	IntervalDaily   RecurringInterval = "DAILY"
	IntervalWeekly  RecurringInterval = "WEEKLY"
	IntervalMonthly RecurringInterval = "MONTHLY"
	IntervalYearly  RecurringInterval = "YEARLY"
)

// Valid reports whether i is a known interval
func (i RecurringInterval) Valid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}
	return false
}

// Transaction represents a financial transaction on an account.
// Amount is always a non-negative magnitude; Type carries the sign.
type Transaction struct {
	ID                string
	UserID            string
	AccountID         string
	Type              TransactionType
	Amount            decimal.Decimal
	Description       string
	Category          string
	Date              time.Time
	ReceiptURL        string
	IsRecurring       bool
	RecurringInterval RecurringInterval
	NextRecurringDate *time.Time
	LastProcessed     *time.Time
	Status            TransactionStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SignedAmount returns the effect of the transaction on its account balance
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
