package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ScannedReceipt holds the fields read from a receipt image
type ScannedReceipt struct {
	Amount       decimal.Decimal
	Date         time.Time
	Description  string
	MerchantName string
	Category     string
}

// ErrUnreadableReceipt means the image holds no receipt that could be read
var ErrUnreadableReceipt = errors.New("could not read a receipt from the image")
