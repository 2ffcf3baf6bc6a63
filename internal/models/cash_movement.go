package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	CashDeposit    = "DEPOSIT"
	CashWithdrawal = "WITHDRAWAL"
	CashDividend   = "DIVIDEND"
	CashFee        = "FEE"
)

// CashMovement is one deposit, withdrawal, dividend or fee on an account.
// Amount is signed and already expressed in the reporting base currency.
type CashMovement struct {
	gorm.Model
	AccountID uint      `gorm:"index;uniqueIndex:idx_cash_dedupe"`
	Reference string    `gorm:"uniqueIndex:idx_cash_dedupe"`
	Date      time.Time `gorm:"index"`
	Kind      string
	Amount    float64
}
