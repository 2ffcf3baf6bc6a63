package models

import (
	"time"

	"gorm.io/gorm"
)

// FxRate is one historical exchange rate: 1 unit of From bought Rate units of
// To at the close of Date. "from"/"to" are SQL keywords, hence the column names.
type FxRate struct {
	gorm.Model
	Date time.Time `gorm:"uniqueIndex:idx_fx_date_pair"`
	From string    `gorm:"uniqueIndex:idx_fx_date_pair;column:from_currency"`
	To   string    `gorm:"uniqueIndex:idx_fx_date_pair;column:to_currency"`
	Rate float64
}
