package service

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Amounts are stored as NUMERIC(20,2).
const (
	maxAmountText     = 64
	maxIntegerDigits  = 18
	minAmountExponent = -20
)

// parseAmount parses a monetary amount written as decimal text.
// The magnitude is checked on the parsed exponent before any rounding,
// since rescaling a value like 1e200000000 allocates every digit.
func parseAmount(text, field string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if len(text) > maxAmountText {
		return decimal.Zero, invalid("invalid " + field + " amount")
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, invalid("invalid " + field + " amount")
	}
	if d.Exponent() < minAmountExponent {
		return decimal.Zero, invalid(field + " must have at most 2 decimal places")
	}
	if d.NumDigits()+int(d.Exponent()) > maxIntegerDigits {
		return decimal.Zero, invalid(field + " is too large")
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, invalid(field + " must have at most 2 decimal places")
	}
	return d, nil
}

// monthBounds returns the first instant of t's month and of the following month
func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addMonths adds n calendar months, clamping the day to the target month's length
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// percentOf returns part as a percentage of whole, zero when whole is not positive
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
