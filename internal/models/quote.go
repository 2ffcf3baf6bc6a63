package models

import (
	"time"

	"gorm.io/gorm"
)

// Quote is one daily closing price for a product, in the product's currency.
type Quote struct {
	gorm.Model
	ProductID uint      `gorm:"uniqueIndex:idx_quote_product_date"`
	Date      time.Time `gorm:"uniqueIndex:idx_quote_product_date"`
	Close     float64
}
