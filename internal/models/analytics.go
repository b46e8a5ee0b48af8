package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthlyStats summarises one calendar month of a user's transactions
type MonthlyStats struct {
	TotalIncome      decimal.Decimal
	TotalExpenses    decimal.Decimal
	ByCategory       map[string]decimal.Decimal
	TransactionCount int
}

// NetSavings is income minus expenses
func (s MonthlyStats) NetSavings() decimal.Decimal {
	return s.TotalIncome.Sub(s.TotalExpenses)
}

// CategoryTotal is one entry of a category breakdown
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// Categories returns the expense breakdown, largest first
func (s MonthlyStats) Categories() []CategoryTotal {
	totals := make([]CategoryTotal, 0, len(s.ByCategory))
	for category, total := range s.ByCategory {
		totals = append(totals, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		if !totals[i].Total.Equal(totals[j].Total) {
			return totals[i].Total.GreaterThan(totals[j].Total)
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}

// BudgetAlert carries the data rendered into a budget alert email
type BudgetAlert struct {
	UserName       string
	AccountName    string
	BudgetAmount   decimal.Decimal
	TotalExpenses  decimal.Decimal
	PercentageUsed decimal.Decimal
}

// MonthlyReport carries the data rendered into a monthly report email
type MonthlyReport struct {
	UserName    string
	AccountName string
	Month       string
	Stats       MonthlyStats
	Insights    []string
}
