package models

import (
	"time"

	"gorm.io/gorm"
)

// SplitEvent is a stock split as reported by the corporate-action source.
// The date is the nominal one; the valuation engine may detect that the
// imported share counts reflect the split on a nearby date instead.
type SplitEvent struct {
	gorm.Model
	Symbol string    `gorm:"uniqueIndex:idx_split_symbol_date"`
	Date   time.Time `gorm:"uniqueIndex:idx_split_symbol_date"`
	Ratio  float64
}
