package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a statement row read through a resolved column mapping.
// Amount is signed from the account holder's point of view: positive means
// money in.
type Transaction struct {
	Row         int
	Date        time.Time
	Amount      decimal.Decimal
	Balance     decimal.NullDecimal
	Description string
	VendorPayee string
	Category    string
	Currency    string
}

// IsCredit reports whether the transaction brought money in.
func (t Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}
