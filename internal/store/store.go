package store

import (
	"fmt"
	"time"

	"portfolio-dashboard-go/internal/models"
	"portfolio-dashboard-go/internal/valuation"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store exposes one account's imported brokerage data through the interfaces
// the valuation engine consumes. The engine itself never touches gorm.
type Store struct {
	db        *gorm.DB
	logger    *zap.Logger
	accountID uint
}

// New creates a store scoped to one broker account.
func New(db *gorm.DB, logger *zap.Logger, accountID uint) *Store {
	return &Store{db: db, logger: logger, accountID: accountID}
}

// compile-time interface checks
var (
	_ valuation.TransactionLedger     = (*Store)(nil)
	_ valuation.QuotationSource       = (*Store)(nil)
	_ valuation.CorporateActionSource = (*Store)(nil)
	_ valuation.CashLedger            = (*Store)(nil)
	_ valuation.ProductCatalog        = (*Store)(nil)
)

// Products lists the account's products in import order.
func (s *Store) Products() ([]valuation.ProductInfo, error) {
	var products []models.Product
	if err := s.db.Where("account_id = ?", s.accountID).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("could not load products: %w", err)
	}
	infos := make([]valuation.ProductInfo, 0, len(products))
	for _, p := range products {
		infos = append(infos, valuation.ProductInfo{
			ID:       p.ID,
			Symbol:   p.Symbol,
			ISIN:     p.ISIN,
			Name:     p.Name,
			Currency: p.Currency,
			Exchange: p.Exchange,
			Sector:   p.Sector,
			Industry: p.Industry,
			Country:  p.Country,
			Tradable: p.Tradable,
		})
	}
	return infos, nil
}

// Transactions returns one product's transactions ordered by time.
func (s *Store) Transactions(productID uint) ([]valuation.TransactionRecord, error) {
	var txns []models.Transaction
	err := s.db.Where("product_id = ?", productID).
		Order("timestamp, id").Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("could not load transactions: %w", err)
	}
	return toRecords(txns), nil
}

// TransactionsBySymbol merges the transactions of every product of this
// account sharing a symbol, ordered by time.
func (s *Store) TransactionsBySymbol(symbol string) ([]valuation.TransactionRecord, error) {
	var ids []uint
	err := s.db.Model(&models.Product{}).
		Where("account_id = ? AND symbol = ?", s.accountID, symbol).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("could not resolve products for symbol %s: %w", symbol, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var txns []models.Transaction
	err = s.db.Where("product_id IN ?", ids).
		Order("timestamp, id").Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("could not load transactions for symbol %s: %w", symbol, err)
	}
	return toRecords(txns), nil
}

func toRecords(txns []models.Transaction) []valuation.TransactionRecord {
	records := make([]valuation.TransactionRecord, 0, len(txns))
	for _, t := range txns {
		records = append(records, valuation.TransactionRecord{
			ProductID: t.ProductID,
			Timestamp: t.Timestamp,
			Date:      valuation.Day(t.Date),
			Quantity:  t.Quantity,
			Price:     t.Price,
			Fees:      t.Fees,
		})
	}
	return records
}

// Quotes returns a product's daily closes keyed by UTC-midnight date.
// An empty map simply means no quotes were imported; that is not an error.
func (s *Store) Quotes(productID uint) (map[time.Time]float64, error) {
	var quotes []models.Quote
	if err := s.db.Where("product_id = ?", productID).Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("could not load quotes: %w", err)
	}
	out := make(map[time.Time]float64, len(quotes))
	for _, q := range quotes {
		out[valuation.Day(q.Date)] = q.Close
	}
	return out, nil
}

// Splits returns the split events recorded for a symbol, oldest first.
func (s *Store) Splits(symbol string) ([]valuation.SplitEvent, error) {
	var splits []models.SplitEvent
	if err := s.db.Where("symbol = ?", symbol).Order("date").Find(&splits).Error; err != nil {
		return nil, fmt.Errorf("could not load splits: %w", err)
	}
	out := make([]valuation.SplitEvent, 0, len(splits))
	for _, sp := range splits {
		out = append(out, valuation.SplitEvent{
			Symbol: sp.Symbol,
			Date:   valuation.Day(sp.Date),
			Ratio:  sp.Ratio,
		})
	}
	return out, nil
}

// BalanceSeries returns the cumulative cash balance per movement date.
func (s *Store) BalanceSeries() (map[time.Time]float64, error) {
	var movements []models.CashMovement
	err := s.db.Where("account_id = ?", s.accountID).
		Order("date, id").Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("could not load cash movements: %w", err)
	}
	series := make(map[time.Time]float64)
	balance := 0.0
	for _, m := range movements {
		balance += m.Amount
		series[valuation.Day(m.Date)] = balance
	}
	return series, nil
}

// NetDeposits sums the account's deposits and withdrawals.
func (s *Store) NetDeposits() (float64, error) {
	var movements []models.CashMovement
	err := s.db.Where("account_id = ? AND kind IN ?",
		s.accountID, []string{models.CashDeposit, models.CashWithdrawal}).
		Find(&movements).Error
	if err != nil {
		return 0, fmt.Errorf("could not load deposits: %w", err)
	}
	total := 0.0
	for _, m := range movements {
		total += m.Amount
	}
	return total, nil
}
