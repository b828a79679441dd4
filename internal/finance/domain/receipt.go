package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptData is what the AI receipt scanner extracts from an uploaded image.
type ReceiptData struct {
	Amount       decimal.Decimal
	Date         time.Time
	Description  string
	MerchantName string
	Category     string
}
