package models

import (
	"time"

	"gorm.io/gorm"
)

// ImportBatch records one refresh run against a broker account.
type ImportBatch struct {
	gorm.Model
	UUID       string `gorm:"uniqueIndex"`
	AccountID  uint   `gorm:"index"`
	StartedAt  time.Time
	FinishedAt time.Time
	Records    int
	Succeeded  bool
}
