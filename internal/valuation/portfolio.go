package valuation

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Portfolio builds one entry per symbol held on the account, plus a cash
// entry. Shares come from the final value of the split-adjusted position
// history, break-even from the FIFO cost of the still-open lots, realized
// gain and lifetime cost from the FIFO matcher.
func (e *Engine) Portfolio() ([]PortfolioEntry, error) {
	products, err := e.catalog.Products()
	if err != nil {
		return nil, fmt.Errorf("could not list products: %w", err)
	}
	today := Day(e.now())

	// Group correlated products (same symbol, possibly reissued under a new
	// identifier) into one logical holding, preserving first-seen order.
	groups := make(map[string][]ProductInfo)
	var symbols []string
	for _, p := range products {
		if _, seen := groups[p.Symbol]; !seen {
			symbols = append(symbols, p.Symbol)
		}
		groups[p.Symbol] = append(groups[p.Symbol], p)
	}

	entries := make([]PortfolioEntry, 0, len(symbols)+1)
	for _, symbol := range symbols {
		entry, ok, err := e.buildEntry(symbol, groups[symbol], today)
		if err != nil {
			e.logger.Warn("Skipping symbol in portfolio",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		if ok {
			entries = append(entries, entry)
		}
	}

	cashEntry, err := e.buildCashEntry()
	if err != nil {
		return nil, err
	}
	entries = append(entries, cashEntry)

	return entries, nil
}

func (e *Engine) buildEntry(symbol string, group []ProductInfo, today time.Time) (PortfolioEntry, bool, error) {
	txns, err := e.ledger.TransactionsBySymbol(symbol)
	if err != nil {
		return PortfolioEntry{}, false, fmt.Errorf("could not load transactions: %w", err)
	}
	if len(txns) == 0 {
		return PortfolioEntry{}, false, nil
	}

	history, err := BuildPositionHistory(txns, today)
	if err != nil {
		return PortfolioEntry{}, false, err
	}
	splits, err := e.actions.Splits(symbol)
	if err != nil {
		return PortfolioEntry{}, false, fmt.Errorf("could not load splits: %w", err)
	}
	history = ApplySplitAdjustments(history, splits)
	shares := history[len(history)-1].Shares
	open := shares > sharesEpsilon

	gains := CalculateGains(txns)

	price := e.latestPrice(group)
	value := shares * price

	breakEven := 0.0
	if gains.OpenShares > sharesEpsilon {
		breakEven = gains.OpenCost / gains.OpenShares
	}
	unrealized := 0.0
	if open {
		unrealized = value - gains.OpenCost
	}

	currency := group[0].Currency
	valueBase := value
	breakEvenBase := breakEven
	if currency != "" && currency != e.base {
		valueBase, _ = e.fx.Convert(value, currency, e.base, today)
		breakEvenBase, _ = e.fx.Convert(breakEven, currency, e.base, today)
	}

	entry := PortfolioEntry{
		Symbol:         symbol,
		ProductType:    ProductTypeStock,
		Currency:       currency,
		Shares:         shares,
		Price:          price,
		BreakEven:      breakEven,
		BreakEvenBase:  breakEvenBase,
		Value:          value,
		ValueBase:      valueBase,
		UnrealizedGain: unrealized,
		RealizedGain:   gains.RealizedGain,
		TotalCost:      gains.TotalCost,
		Open:           open,
	}
	for _, p := range group {
		entry.Name = firstNonEmpty(entry.Name, p.Name)
		entry.ISIN = firstNonEmpty(entry.ISIN, p.ISIN)
		entry.Sector = firstNonEmpty(entry.Sector, p.Sector)
		entry.Industry = firstNonEmpty(entry.Industry, p.Industry)
		entry.Exchange = firstNonEmpty(entry.Exchange, p.Exchange)
		entry.Country = firstNonEmpty(entry.Country, p.Country)
	}
	return entry, true, nil
}

// latestPrice returns the most recent quote across all products of a group.
// A group with no quotes at all values at zero, which keeps the entry visible
// rather than dropping the holding.
func (e *Engine) latestPrice(group []ProductInfo) float64 {
	var best time.Time
	price := 0.0
	for _, p := range group {
		quotes, err := e.quotes.Quotes(p.ID)
		if err != nil {
			e.logger.Warn("Could not load quotes for product",
				zap.String("symbol", p.Symbol), zap.Error(err))
			continue
		}
		for d, v := range quotes {
			if d.After(best) {
				best = d
				price = v
			}
		}
	}
	return price
}

func (e *Engine) buildCashEntry() (PortfolioEntry, error) {
	series, err := e.cash.BalanceSeries()
	if err != nil {
		return PortfolioEntry{}, fmt.Errorf("could not load cash balance series: %w", err)
	}
	balance := 0.0
	var latest time.Time
	for d, v := range series {
		if d.After(latest) {
			latest = d
			balance = v
		}
	}
	return PortfolioEntry{
		Symbol:      "CASH",
		Name:        "Cash balance",
		ProductType: ProductTypeCash,
		Currency:    e.base,
		Value:       balance,
		ValueBase:   balance,
		Open:        balance != 0,
	}, nil
}

// PortfolioTotal aggregates the whole account into one summary in the base
// currency. ROI is relative to net deposits and only defined when they are
// positive.
func (e *Engine) PortfolioTotal() (TotalSummary, error) {
	entries, err := e.Portfolio()
	if err != nil {
		return TotalSummary{}, err
	}
	deposits, err := e.cash.NetDeposits()
	if err != nil {
		return TotalSummary{}, fmt.Errorf("could not load net deposits: %w", err)
	}
	today := Day(e.now())

	var total TotalSummary
	for _, entry := range entries {
		if entry.ProductType == ProductTypeCash {
			total.Cash += entry.ValueBase
			continue
		}
		total.Value += entry.ValueBase

		unrealized, realized := entry.UnrealizedGain, entry.RealizedGain
		if entry.Currency != "" && entry.Currency != e.base {
			unrealized, _ = e.fx.Convert(unrealized, entry.Currency, e.base, today)
			realized, _ = e.fx.Convert(realized, entry.Currency, e.base, today)
		}
		total.UnrealizedGain += unrealized
		total.RealizedGain += realized
	}
	total.CurrentValue = total.Value + total.Cash
	total.Deposits = deposits
	if deposits > 0 {
		total.ROI = (total.CurrentValue/deposits - 1) * 100
	}
	return total, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
