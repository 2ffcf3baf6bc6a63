package store

import (
	"fmt"
	"time"

	"portfolio-dashboard-go/internal/models"
	"portfolio-dashboard-go/internal/valuation"
)

// Upsert helpers used by the refresher. Each is keyed on the model's natural
// dedupe index so re-importing overlapping windows stays idempotent.

// UpsertProduct inserts or updates a product by its broker-side identifier and
// returns the row ID.
func (s *Store) UpsertProduct(p models.Product) (uint, error) {
	p.AccountID = s.accountID
	product := models.Product{AccountID: s.accountID, ExternalID: p.ExternalID}
	err := s.db.Where(&models.Product{AccountID: s.accountID, ExternalID: p.ExternalID}).
		Assign(models.Product{
			Symbol:   p.Symbol,
			ISIN:     p.ISIN,
			Name:     p.Name,
			Currency: p.Currency,
			Exchange: p.Exchange,
			Sector:   p.Sector,
			Industry: p.Industry,
			Country:  p.Country,
			Tradable: p.Tradable,
		}).
		FirstOrCreate(&product).Error
	if err != nil {
		return 0, fmt.Errorf("could not upsert product %s: %w", p.ExternalID, err)
	}
	return product.ID, nil
}

// UpsertTransaction inserts a transaction unless its order ID was already imported.
func (s *Store) UpsertTransaction(t models.Transaction) error {
	t.AccountID = s.accountID
	t.Date = valuation.Day(t.Date)
	txn := models.Transaction{ProductID: t.ProductID, OrderID: t.OrderID}
	err := s.db.Where(&models.Transaction{ProductID: t.ProductID, OrderID: t.OrderID}).
		Attrs(t).FirstOrCreate(&txn).Error
	if err != nil {
		return fmt.Errorf("could not upsert transaction %s: %w", t.OrderID, err)
	}
	return nil
}

// UpsertQuote inserts or updates one daily close.
func (s *Store) UpsertQuote(productID uint, date time.Time, closePrice float64) error {
	day := valuation.Day(date)
	quote := models.Quote{ProductID: productID, Date: day}
	err := s.db.Where(&models.Quote{ProductID: productID, Date: day}).
		Assign(models.Quote{Close: closePrice}).
		FirstOrCreate(&quote).Error
	if err != nil {
		return fmt.Errorf("could not upsert quote: %w", err)
	}
	return nil
}

// UpsertSplit inserts or updates a split event for a symbol.
func (s *Store) UpsertSplit(symbol string, date time.Time, ratio float64) error {
	day := valuation.Day(date)
	split := models.SplitEvent{Symbol: symbol, Date: day}
	err := s.db.Where(&models.SplitEvent{Symbol: symbol, Date: day}).
		Assign(models.SplitEvent{Ratio: ratio}).
		FirstOrCreate(&split).Error
	if err != nil {
		return fmt.Errorf("could not upsert split for %s: %w", symbol, err)
	}
	return nil
}

// UpsertCashMovement inserts a cash movement unless its reference was already imported.
func (s *Store) UpsertCashMovement(m models.CashMovement) error {
	m.AccountID = s.accountID
	m.Date = valuation.Day(m.Date)
	movement := models.CashMovement{AccountID: s.accountID, Reference: m.Reference}
	err := s.db.Where(&models.CashMovement{AccountID: s.accountID, Reference: m.Reference}).
		Attrs(m).FirstOrCreate(&movement).Error
	if err != nil {
		return fmt.Errorf("could not upsert cash movement %s: %w", m.Reference, err)
	}
	return nil
}

// UpsertFxRate inserts or updates one historical rate.
func (s *Store) UpsertFxRate(date time.Time, from, to string, rate float64) error {
	day := valuation.Day(date)
	row := models.FxRate{Date: day, From: from, To: to}
	err := s.db.Where(&models.FxRate{Date: day, From: from, To: to}).
		Assign(models.FxRate{Rate: rate}).
		FirstOrCreate(&row).Error
	if err != nil {
		return fmt.Errorf("could not upsert fx rate %s/%s: %w", from, to, err)
	}
	return nil
}
