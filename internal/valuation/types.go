package valuation

import "time"

// Product type markers carried on portfolio entries.
const (
	ProductTypeStock = "STOCK"
	ProductTypeCash  = "CASH"
)

// ProductInfo is the reference data the engine needs about one instrument.
type ProductInfo struct {
	ID       uint
	Symbol   string
	ISIN     string
	Name     string
	Currency string
	Exchange string
	Sector   string
	Industry string
	Country  string
	Tradable bool
}

// TransactionRecord is one buy or sell. Quantity is signed: positive for buys,
// negative for sells. Date is the calendar day (UTC midnight) used for
// valuation; Timestamp keeps the full precision used for ordering.
type TransactionRecord struct {
	ProductID uint
	Timestamp time.Time
	Date      time.Time
	Quantity  float64
	Price     float64
	Fees      float64
}

// SplitEvent is a stock split as reported by the corporate-action source.
// Ratio > 1 is a forward split, < 1 a reverse split.
type SplitEvent struct {
	Symbol string
	Date   time.Time
	Ratio  float64
}

// PositionPoint is the cumulative number of shares held at the end of one day.
type PositionPoint struct {
	Date   time.Time
	Shares float64
}

// DailyValue is the aggregate portfolio value on one day, in the base currency.
type DailyValue struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// PortfolioEntry is one symbol's aggregated holding view. Monetary fields are
// in the entry's currency; the Base variants are in the reporting currency.
type PortfolioEntry struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	ISIN           string  `json:"isin,omitempty"`
	ProductType    string  `json:"product_type"`
	Currency       string  `json:"currency"`
	Shares         float64 `json:"shares"`
	Price          float64 `json:"price"`
	BreakEven      float64 `json:"break_even"`
	BreakEvenBase  float64 `json:"break_even_base"`
	Value          float64 `json:"value"`
	ValueBase      float64 `json:"value_base"`
	UnrealizedGain float64 `json:"unrealized_gain"`
	RealizedGain   float64 `json:"realized_gain"`
	TotalCost      float64 `json:"total_cost"`
	Open           bool    `json:"open"`
	Sector         string  `json:"sector,omitempty"`
	Industry       string  `json:"industry,omitempty"`
	Exchange       string  `json:"exchange,omitempty"`
	Country        string  `json:"country,omitempty"`
}

// TotalSummary aggregates the whole portfolio, in the base currency.
type TotalSummary struct {
	Value          float64 `json:"value"` // securities only
	Cash           float64 `json:"cash"`
	CurrentValue   float64 `json:"current_value"` // securities + cash
	UnrealizedGain float64 `json:"unrealized_gain"`
	RealizedGain   float64 `json:"realized_gain"`
	Deposits       float64 `json:"deposits"` // net deposits/withdrawals
	ROI            float64 `json:"roi"`
}

// TransactionLedger provides the ordered buy/sell history.
type TransactionLedger interface {
	// Transactions returns all transactions for one product, ordered by time.
	Transactions(productID uint) ([]TransactionRecord, error)
	// TransactionsBySymbol returns the merged transactions of every product
	// sharing a symbol, ordered by time. A position reopened under a new
	// product identifier keeps contributing to the same symbol this way.
	TransactionsBySymbol(symbol string) ([]TransactionRecord, error)
}

// QuotationSource provides daily closing prices per product. The map is keyed
// by UTC-midnight dates and may be empty when no quotes were imported.
type QuotationSource interface {
	Quotes(productID uint) (map[time.Time]float64, error)
}

// CorporateActionSource provides stock-split events per symbol.
type CorporateActionSource interface {
	Splits(symbol string) ([]SplitEvent, error)
}

// CurrencyConverter converts an amount between currencies using the historical
// rate for the given date. When no rate is available the amount is returned
// unchanged and the second result is false; conversion never fails hard.
type CurrencyConverter interface {
	Convert(amount float64, from, to string, asOf time.Time) (float64, bool)
}

// CashLedger provides the account's cash history in the base currency.
type CashLedger interface {
	// BalanceSeries returns the cumulative cash balance per date, keyed by
	// UTC-midnight dates. Only dates with movements are present.
	BalanceSeries() (map[time.Time]float64, error)
	// NetDeposits returns the lifetime sum of deposits and withdrawals.
	NetDeposits() (float64, error)
}

// ProductCatalog lists the products of one account.
type ProductCatalog interface {
	Products() ([]ProductInfo, error)
}

// Dependencies bundles the collaborators injected into an Engine.
type Dependencies struct {
	Ledger  TransactionLedger
	Quotes  QuotationSource
	Actions CorporateActionSource
	FX      CurrencyConverter
	Cash    CashLedger
	Catalog ProductCatalog
}
