package store

import (
	"errors"
	"time"

	"portfolio-dashboard-go/internal/models"
	"portfolio-dashboard-go/internal/valuation"

	"github.com/Rhymond/go-money"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Converter converts amounts between currencies using the imported historical
// FX rates. It never fails hard: an unknown currency code or a date with no
// stored rate returns the amount unconverted with the ok flag false, per the
// degrade-don't-raise policy for inconsistent data.
type Converter struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewConverter creates a converter over the shared rates table.
func NewConverter(db *gorm.DB, logger *zap.Logger) *Converter {
	return &Converter{db: db, logger: logger}
}

var _ valuation.CurrencyConverter = (*Converter)(nil)

// Convert converts amount from one currency to another as of a historical
// date, using the most recent stored rate at or before that date.
func (c *Converter) Convert(amount float64, from, to string, asOf time.Time) (float64, bool) {
	if from == to {
		return amount, true
	}
	if money.GetCurrency(from) == nil || money.GetCurrency(to) == nil {
		c.logger.Warn("Unknown currency code, returning amount unconverted",
			zap.String("from", from), zap.String("to", to))
		return amount, false
	}

	day := valuation.Day(asOf)

	var rate models.FxRate
	err := c.db.Where("from_currency = ? AND to_currency = ? AND date <= ?", from, to, day).
		Order("date desc").First(&rate).Error
	if err == nil {
		return amount * rate.Rate, true
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.logger.Warn("FX rate lookup failed", zap.Error(err))
		return amount, false
	}

	// Only one direction of a pair is imported; try the inverse.
	err = c.db.Where("from_currency = ? AND to_currency = ? AND date <= ?", to, from, day).
		Order("date desc").First(&rate).Error
	if err == nil && rate.Rate != 0 {
		return amount / rate.Rate, true
	}

	c.logger.Warn("No FX rate available, returning amount unconverted",
		zap.String("from", from), zap.String("to", to), zap.Time("as_of", day))
	return amount, false
}
