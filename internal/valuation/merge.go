package valuation

import "time"

// MergePortfolios combines per-account entry lists into one logical portfolio
// keyed by symbol, preserving first-seen order. Cash entries are pure sums;
// for securities the summable fields add up and the break-even price is the
// open side's value, or a shares-weighted average when both sides are open.
func MergePortfolios(lists ...[]PortfolioEntry) []PortfolioEntry {
	merged := make(map[string]PortfolioEntry)
	var order []string

	for _, list := range lists {
		for _, entry := range list {
			existing, ok := merged[entry.Symbol]
			if !ok {
				merged[entry.Symbol] = entry
				order = append(order, entry.Symbol)
				continue
			}
			merged[entry.Symbol] = mergeEntries(existing, entry)
		}
	}

	out := make([]PortfolioEntry, 0, len(order))
	for _, symbol := range order {
		out = append(out, merged[symbol])
	}
	return out
}

func mergeEntries(a, b PortfolioEntry) PortfolioEntry {
	merged := a

	if a.ProductType == ProductTypeCash || b.ProductType == ProductTypeCash {
		merged.Value = a.Value + b.Value
		merged.ValueBase = a.ValueBase + b.ValueBase
		merged.Open = a.Open || b.Open
		return merged
	}

	merged.Shares = a.Shares + b.Shares
	merged.Value = a.Value + b.Value
	merged.ValueBase = a.ValueBase + b.ValueBase
	merged.UnrealizedGain = a.UnrealizedGain + b.UnrealizedGain
	merged.RealizedGain = a.RealizedGain + b.RealizedGain
	merged.TotalCost = a.TotalCost + b.TotalCost

	switch {
	case a.Open && b.Open:
		if merged.Shares != 0 {
			merged.BreakEven = (a.BreakEven*a.Shares + b.BreakEven*b.Shares) / merged.Shares
			merged.BreakEvenBase = (a.BreakEvenBase*a.Shares + b.BreakEvenBase*b.Shares) / merged.Shares
		}
	case a.Open:
		merged.BreakEven, merged.BreakEvenBase = a.BreakEven, a.BreakEvenBase
	case b.Open:
		merged.BreakEven, merged.BreakEvenBase = b.BreakEven, b.BreakEvenBase
	default:
		// Neither side is open: no break-even price is meaningful.
		merged.BreakEven, merged.BreakEvenBase = 0, 0
	}
	merged.Open = a.Open || b.Open

	merged.Name = firstNonEmpty(a.Name, b.Name)
	merged.ISIN = firstNonEmpty(a.ISIN, b.ISIN)
	merged.Sector = firstNonEmpty(a.Sector, b.Sector)
	merged.Industry = firstNonEmpty(a.Industry, b.Industry)
	merged.Exchange = firstNonEmpty(a.Exchange, b.Exchange)
	merged.Country = firstNonEmpty(a.Country, b.Country)
	return merged
}

// MergeHistories sums per-account daily value series by date.
func MergeHistories(series ...[]DailyValue) []DailyValue {
	total := make(map[time.Time]float64)
	for _, s := range series {
		for _, dv := range s {
			total[dv.Date] += dv.Value
		}
	}
	dates := sortedDates(total)
	out := make([]DailyValue, 0, len(dates))
	for _, d := range dates {
		out = append(out, DailyValue{Date: d, Value: round3(total[d])})
	}
	return out
}

// MergeTotals sums per-account summaries and recomputes ROI against the
// combined net deposits.
func MergeTotals(totals ...TotalSummary) TotalSummary {
	var merged TotalSummary
	for _, t := range totals {
		merged.Value += t.Value
		merged.Cash += t.Cash
		merged.CurrentValue += t.CurrentValue
		merged.UnrealizedGain += t.UnrealizedGain
		merged.RealizedGain += t.RealizedGain
		merged.Deposits += t.Deposits
	}
	if merged.Deposits > 0 {
		merged.ROI = (merged.CurrentValue/merged.Deposits - 1) * 100
	}
	return merged
}
