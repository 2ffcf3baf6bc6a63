package models

import (
	"time"

	"gorm.io/gorm"
)

// Transaction is one imported buy or sell record.
// Quantity is signed: positive for buys, negative for sells.
type Transaction struct {
	gorm.Model
	AccountID uint   `gorm:"index"`
	ProductID uint   `gorm:"index;uniqueIndex:idx_txn_dedupe"`
	OrderID   string `gorm:"uniqueIndex:idx_txn_dedupe"`
	Timestamp time.Time
	Date      time.Time `gorm:"index"`
	Quantity  float64
	Price     float64
	Fees      float64
	Currency  string
}
