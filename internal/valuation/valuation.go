package valuation

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HistoricalValue reconstructs the account's day-by-day portfolio value in the
// base currency: per product, the split-adjusted position series is priced
// with that day's quote and converted with that day's FX rate, the per-date
// contributions are summed across products, and the cash balance history is
// folded in with carry-forward. Weekends are skipped; values are rounded to
// three decimals. Products are valued concurrently; they are independent.
func (e *Engine) HistoricalValue() ([]DailyValue, error) {
	products, err := e.catalog.Products()
	if err != nil {
		return nil, fmt.Errorf("could not list products: %w", err)
	}
	today := Day(e.now())

	var wg sync.WaitGroup
	contributions := make(chan map[time.Time]float64, len(products))

	for _, p := range products {
		if !p.Tradable {
			continue
		}
		wg.Add(1)
		go func(p ProductInfo) {
			defer wg.Done()
			values, err := e.productDailyValues(p, today)
			if err != nil {
				// Missing or broken data for one product must not abort the
				// valuation of the rest of the portfolio.
				e.logger.Warn("Skipping product in historical valuation",
					zap.String("symbol", p.Symbol), zap.Error(err))
				return
			}
			if len(values) > 0 {
				contributions <- values
			}
		}(p)
	}

	go func() {
		wg.Wait()
		close(contributions)
	}()

	aggregate := make(map[time.Time]float64)
	for values := range contributions {
		for d, v := range values {
			aggregate[d] += v
		}
	}

	cash, err := e.cash.BalanceSeries()
	if err != nil {
		return nil, fmt.Errorf("could not load cash balance series: %w", err)
	}

	return mergeWithCash(aggregate, cash), nil
}

// productDailyValues prices one product's adjusted position series day by day,
// in the base currency. Days without a quote are skipped for this product only.
func (e *Engine) productDailyValues(p ProductInfo, today time.Time) (map[time.Time]float64, error) {
	txns, err := e.ledger.Transactions(p.ID)
	if err != nil {
		return nil, fmt.Errorf("could not load transactions: %w", err)
	}
	if len(txns) == 0 {
		return nil, nil
	}

	quotes, err := e.quotes.Quotes(p.ID)
	if err != nil {
		return nil, fmt.Errorf("could not load quotes: %w", err)
	}
	if len(quotes) == 0 {
		e.logger.Debug("No quotes for product, skipping", zap.String("symbol", p.Symbol))
		return nil, nil
	}

	history, err := BuildPositionHistory(txns, today)
	if err != nil {
		return nil, err
	}

	splits, err := e.actions.Splits(p.Symbol)
	if err != nil {
		return nil, fmt.Errorf("could not load splits: %w", err)
	}
	history = ApplySplitAdjustments(history, splits)

	values := make(map[time.Time]float64, len(history))
	for _, point := range history {
		if isWeekend(point.Date) {
			continue
		}
		price, ok := quotes[point.Date]
		if !ok {
			continue
		}
		value := point.Shares * price
		if p.Currency != "" && p.Currency != e.base {
			// Point-in-time conversion: the rate of the value's own date,
			// never the rate at call time.
			value, _ = e.fx.Convert(value, p.Currency, e.base, point.Date)
		}
		values[point.Date] = value
	}
	return values, nil
}

// mergeWithCash folds the cash balance series into the aggregate valuation,
// carrying the most recent known balance forward for dates with market data
// but no cash entry.
func mergeWithCash(aggregate, cash map[time.Time]float64) []DailyValue {
	dates := sortedDates(aggregate)
	cashDates := sortedDates(cash)

	series := make([]DailyValue, 0, len(dates))
	balance := 0.0
	ci := 0
	for _, d := range dates {
		for ci < len(cashDates) && !cashDates[ci].After(d) {
			balance = cash[cashDates[ci]]
			ci++
		}
		series = append(series, DailyValue{Date: d, Value: round3(aggregate[d] + balance)})
	}
	return series
}

func round3(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(3).Float64()
	return f
}
