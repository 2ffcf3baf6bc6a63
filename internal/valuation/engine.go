package valuation

import (
	"time"

	"go.uber.org/zap"
)

// Engine computes portfolio views for one broker account. It is pure
// computation over the injected collaborators: no storage, no network, no
// process-wide state. All results are computed fresh per call; callers that
// want caching wrap the engine.
type Engine struct {
	logger  *zap.Logger
	base    string
	ledger  TransactionLedger
	quotes  QuotationSource
	actions CorporateActionSource
	fx      CurrencyConverter
	cash    CashLedger
	catalog ProductCatalog

	// now is injectable so tests can pin "today".
	now func() time.Time
}

// NewEngine creates a valuation engine reporting in the given base currency.
func NewEngine(logger *zap.Logger, baseCurrency string, deps Dependencies) *Engine {
	return &Engine{
		logger:  logger,
		base:    baseCurrency,
		ledger:  deps.Ledger,
		quotes:  deps.Quotes,
		actions: deps.Actions,
		fx:      deps.FX,
		cash:    deps.Cash,
		catalog: deps.Catalog,
		now:     time.Now,
	}
}
