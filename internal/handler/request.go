package handler

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// amountText accepts a JSON number or string and keeps its exact text
type amountText string

func (a *amountText) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountText(s)
		return nil
	}
	*a = amountText(b)
	return nil
}

// dateValue accepts "2006-01-02" or an RFC 3339 timestamp
type dateValue struct {
	time.Time
}

func (d *dateValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string")
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// queryDate reads an optional date query parameter
func queryDate(values url.Values, name string) (*time.Time, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &t, nil
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountRequest struct {
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Balance   amountText `json:"balance"`
	IsDefault bool       `json:"isDefault"`
}

type transactionRequest struct {
	AccountID         string     `json:"accountId"`
	Type              string     `json:"type"`
	Amount            amountText `json:"amount"`
	Description       string     `json:"description"`
	Category          string     `json:"category"`
	Date              dateValue  `json:"date"`
	ReceiptURL        string     `json:"receiptUrl"`
	IsRecurring       bool       `json:"isRecurring"`
	RecurringInterval string     `json:"recurringInterval"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type budgetRequest struct {
	Amount amountText `json:"amount"`
}
