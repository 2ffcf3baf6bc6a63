package models

import "gorm.io/gorm"

// Account represents one connected broker account.
type Account struct {
	gorm.Model
	Name    string `gorm:"uniqueIndex;not null"`
	Broker  string
	Enabled bool `gorm:"default:true"`
}
