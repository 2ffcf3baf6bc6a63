package models

import "gorm.io/gorm"

// Product is the immutable reference data for one instrument, as reported by a
// broker account. A renamed or reissued instrument appears as a new product row
// under the same symbol.
type Product struct {
	gorm.Model
	AccountID  uint   `gorm:"uniqueIndex:idx_account_external"`
	ExternalID string `gorm:"uniqueIndex:idx_account_external"`
	Symbol     string `gorm:"index"`
	ISIN       string
	Name       string
	Currency   string
	Exchange   string
	Sector     string
	Industry   string
	Country    string
	Tradable   bool `gorm:"default:true"`
}
